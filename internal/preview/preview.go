// Package preview classifies workspace files by extension and describes
// how the content pane should display them.
package preview

import (
	"strings"

	"github.com/h2non/filetype"
)

// Class is the coarse content bucket derived from a path suffix.
type Class int

const (
	Unsupported Class = iota
	Image
	Video
	Document
)

func (c Class) String() string {
	switch c {
	case Image:
		return "image"
	case Video:
		return "video"
	case Document:
		return "document"
	default:
		return "unsupported"
	}
}

func (c Class) MarshalText() ([]byte, error) { return []byte(c.String()), nil }

// UnmarshalText accepts the names produced by String. Unknown names decode
// as Unsupported.
func (c *Class) UnmarshalText(b []byte) error {
	switch string(b) {
	case "image":
		*c = Image
	case "video":
		*c = Video
	case "document":
		*c = Document
	default:
		*c = Unsupported
	}
	return nil
}

// MinDocumentHeight is the minimum height of the embedded document frame.
const MinDocumentHeight = 500

const (
	DocumentTitle      = "PDF Document"
	ImageAlt           = "Media content"
	VideoFallback      = "Your browser does not support the video tag."
	UnsupportedMessage = "Unsupported file type. Please select an image (jpg, jpeg, png), video (mp4) or document (pdf) file."
)

// classes is the only place extensions are mapped to a Class.
var classes = map[string]Class{
	"jpg":  Image,
	"jpeg": Image,
	"png":  Image,
	"mp4":  Video,
	"pdf":  Document,
}

// View is a declarative description of what the content pane shows for a path.
// Only the fields relevant to Class are set.
type View struct {
	Class     Class  `json:"class"`
	Source    string `json:"source,omitempty"`
	MIME      string `json:"mime,omitempty"`
	Title     string `json:"title,omitempty"`
	Fallback  string `json:"fallback,omitempty"`
	MinHeight int    `json:"min_height,omitempty"`
	Message   string `json:"message,omitempty"`
}

// Extension returns the lower-cased text after the final dot, or "" when the
// path has no dot.
func Extension(path string) string {
	i := strings.LastIndexByte(path, '.')
	if i < 0 {
		return ""
	}
	return strings.ToLower(path[i+1:])
}

// Classify maps a path to its Class. It never fails: anything unknown is Unsupported.
func Classify(path string) Class {
	ext := Extension(path)
	if ext == "" {
		return Unsupported
	}
	if c, ok := classes[ext]; ok {
		return c
	}
	return Unsupported
}

// Render returns the view for path. It performs no I/O.
func Render(path string) View {
	switch c := Classify(path); c {
	case Image:
		return View{Class: c, Source: path, Title: ImageAlt}
	case Video:
		return View{Class: c, Source: path, MIME: mimeFor(path), Fallback: VideoFallback}
	case Document:
		return View{Class: c, Source: path, Title: DocumentTitle, MinHeight: MinDocumentHeight}
	default:
		return View{Class: Unsupported, Message: UnsupportedMessage}
	}
}

func mimeFor(path string) string {
	return filetype.GetType(Extension(path)).MIME.Value
}
