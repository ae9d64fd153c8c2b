// Package draft compares an editor buffer against the file it was loaded from.
package draft

import (
	"unicode/utf8"

	dmp "github.com/sergi/go-diff/diffmatchpatch"
)

// Summary describes how a draft differs from its baseline. Insertions and
// Deletions count runes.
type Summary struct {
	Changed    bool `json:"changed"`
	Insertions int  `json:"insertions"`
	Deletions  int  `json:"deletions"`
}

// Compare diffs current against baseline.
func Compare(baseline, current string) Summary {
	if baseline == current {
		return Summary{}
	}
	d := dmp.New()
	diffs := d.DiffMain(baseline, current, false)
	d.DiffCleanupSemantic(diffs)

	var s Summary
	for _, df := range diffs {
		switch df.Type {
		case dmp.DiffInsert:
			s.Insertions += utf8.RuneCountInString(df.Text)
		case dmp.DiffDelete:
			s.Deletions += utf8.RuneCountInString(df.Text)
		}
	}
	s.Changed = s.Insertions > 0 || s.Deletions > 0
	return s
}

// Patch returns a GNU-diff-like patch turning baseline into current, or ""
// when they are equal.
func Patch(baseline, current string) string {
	if baseline == current {
		return ""
	}
	d := dmp.New()
	diffs := d.DiffMain(baseline, current, true)
	d.DiffCleanupSemantic(diffs)
	return d.PatchToText(d.PatchMake(baseline, diffs))
}
