// Package i18n holds the workspace message catalog and Accept-Language negotiation.
package i18n

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/message/catalog"
)

// Key identifies a translatable message.
type Key string

const (
	EmptyMessage       Key = "code_editor.empty_message"
	UnsupportedMessage Key = "code_editor.unsupported_file_type_message"
	SaveLabel          Key = "code_editor.save_label"
	SavingLabel        Key = "code_editor.saving_label"
)

// Keys lists every key the catalog must define for each language.
var Keys = []Key{EmptyMessage, UnsupportedMessage, SaveLabel, SavingLabel}

var supported = []language.Tag{
	language.English,
	language.Dutch,
	language.German,
}

var messages = map[language.Tag]map[Key]string{
	language.English: {
		EmptyMessage:       "No file selected.",
		UnsupportedMessage: "Unsupported file type",
		SaveLabel:          "Save",
		SavingLabel:        "Saving…",
	},
	language.Dutch: {
		EmptyMessage:       "Geen bestand geselecteerd.",
		UnsupportedMessage: "Niet-ondersteund bestandstype",
		SaveLabel:          "Opslaan",
		SavingLabel:        "Bezig met opslaan…",
	},
	language.German: {
		EmptyMessage:       "Keine Datei ausgewählt.",
		UnsupportedMessage: "Nicht unterstützter Dateityp",
		SaveLabel:          "Speichern",
		SavingLabel:        "Wird gespeichert…",
	},
}

var (
	cat     = buildCatalog()
	matcher = language.NewMatcher(supported)
)

func buildCatalog() *catalog.Builder {
	b := catalog.NewBuilder(catalog.Fallback(language.English))
	for tag, msgs := range messages {
		for k, s := range msgs {
			// SetString only fails on malformed tags; ours are constants.
			_ = b.SetString(tag, string(k), s)
		}
	}
	return b
}

// Printer translates keys for one negotiated language.
type Printer struct {
	tag language.Tag
	p   *message.Printer
}

// New returns a Printer for tag, falling back to English when the tag is not
// in the catalog.
func New(tag language.Tag) *Printer {
	_, idx, conf := matcher.Match(tag)
	if conf == language.No {
		idx = 0
	}
	t := supported[idx]
	return &Printer{tag: t, p: message.NewPrinter(t, message.Catalog(cat))}
}

// Negotiate picks a Printer from an Accept-Language header. fallback is used
// when the header is empty or unparsable; an empty fallback means English.
func Negotiate(acceptLanguage, fallback string) *Printer {
	tags, _, err := language.ParseAcceptLanguage(acceptLanguage)
	if err != nil || len(tags) == 0 {
		return New(parseOrEnglish(fallback))
	}
	_, idx, conf := matcher.Match(tags...)
	if conf == language.No {
		return New(parseOrEnglish(fallback))
	}
	return New(supported[idx])
}

// Supported reports whether lang parses to a tag the catalog can serve.
func Supported(lang string) bool {
	tag, err := language.Parse(lang)
	if err != nil {
		return false
	}
	_, _, conf := matcher.Match(tag)
	return conf != language.No
}

func parseOrEnglish(s string) language.Tag {
	if s == "" {
		return language.English
	}
	tag, err := language.Parse(s)
	if err != nil {
		return language.English
	}
	return tag
}

// Lang returns the BCP 47 tag of the printer, e.g. "nl".
func (p *Printer) Lang() string { return p.tag.String() }

// T returns the message for k, or k itself if the catalog has no entry.
func (p *Printer) T(k Key) string {
	return p.p.Sprintf(message.Key(string(k), string(k)))
}
