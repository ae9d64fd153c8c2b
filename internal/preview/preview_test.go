package preview

import (
	"strings"
	"testing"
)

func TestClassify(t *testing.T) {
	cases := []struct {
		path string
		want Class
	}{
		{"photo.jpg", Image},
		{"photo.JPG", Image},
		{"photo.jpeg", Image},
		{"photo.JpEg", Image},
		{"diagram.png", Image},
		{"a.PNG", Image},
		{"clip.mp4", Video},
		{"clip.MP4", Video},
		{"paper.pdf", Document},
		{"paper.PDF", Document},
		{"images/nested/x.y.png", Image},
		{"readme.md", Unsupported},
		{"anim.gif", Unsupported},
		{"notes", Unsupported},
		{"png", Unsupported},
		{"trailing.", Unsupported},
		{"", Unsupported},
		{".", Unsupported},
		{"dir.v1/notes", Unsupported},
	}
	for _, tc := range cases {
		if got := Classify(tc.path); got != tc.want {
			t.Fatalf("Classify(%q) = %v, want %v", tc.path, got, tc.want)
		}
	}
}

func TestClassifyCaseInsensitive(t *testing.T) {
	if Classify("a.PNG") != Classify("a.png") {
		t.Fatalf("expected a.PNG and a.png to share a class")
	}
}

func TestRenderImage(t *testing.T) {
	v := Render("diagram.png")
	if v.Class != Image {
		t.Fatalf("expected image, got %v", v.Class)
	}
	if v.Source != "diagram.png" {
		t.Fatalf("expected source diagram.png, got %q", v.Source)
	}
}

func TestRenderVideo(t *testing.T) {
	v := Render("media/clip.mp4")
	if v.Class != Video || v.Source != "media/clip.mp4" {
		t.Fatalf("unexpected view %+v", v)
	}
	if v.Fallback == "" {
		t.Fatalf("expected fallback text for video")
	}
	if v.MIME != "video/mp4" {
		t.Fatalf("expected video/mp4, got %q", v.MIME)
	}
}

func TestRenderDocument(t *testing.T) {
	v := Render("paper.pdf")
	if v.Class != Document || v.Source != "paper.pdf" {
		t.Fatalf("unexpected view %+v", v)
	}
	if v.MinHeight != 500 {
		t.Fatalf("expected min height 500, got %d", v.MinHeight)
	}
}

func TestRenderUnsupported(t *testing.T) {
	for _, p := range []string{"notes", "", "x.", "readme.md"} {
		v := Render(p)
		if v.Class != Unsupported {
			t.Fatalf("Render(%q) class = %v, want unsupported", p, v.Class)
		}
		if v.Source != "" {
			t.Fatalf("Render(%q) should not carry a source, got %q", p, v.Source)
		}
		for _, family := range []string{"image", "video", "document"} {
			if !strings.Contains(v.Message, family) {
				t.Fatalf("unsupported message %q does not name %s", v.Message, family)
			}
		}
	}
}

func TestClassString(t *testing.T) {
	want := map[Class]string{
		Image:       "image",
		Video:       "video",
		Document:    "document",
		Unsupported: "unsupported",
		Class(42):   "unsupported",
	}
	for c, s := range want {
		if c.String() != s {
			t.Fatalf("Class(%d).String() = %q, want %q", int(c), c.String(), s)
		}
	}
}
