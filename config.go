package video_harvester

import (
	"errors"
	"fmt"
	"path"
	"strings"
	"text/template"

	"github.com/alanbriolat/video-harvester/util"
)

var ErrInvalidFilename = errors.New("invalid filename")

// FileKind names each kind of file a harvest can write.
type FileKind string

const (
	FileVideo       FileKind = "video"
	FileAudio       FileKind = "audio"
	FileThumbnail   FileKind = "thumbnail"
	FileMetadata    FileKind = "metadata"
	FileDescription FileKind = "description"
	FileTitles      FileKind = "titles"
)

// NamingArgs is the data available to file name templates.
type NamingArgs struct {
	Info    ItemInfo
	Listing *Listing
	// Index is the 1-based position of the item in Listing.
	Index int
	Ext   string
}

// Naming turns NamingArgs into relative file paths using one text/template per FileKind. Templates may use the
// "clean" function to make a value safe as a path element.
type Naming struct {
	templates map[FileKind]*template.Template
}

var defaultTemplates = map[FileKind]string{
	FileVideo:       `{{clean .Info.Title}} [{{.Info.ID}}].{{.Ext}}`,
	FileAudio:       `{{clean .Info.Title}} [{{.Info.ID}}].audio.{{.Ext}}`,
	FileThumbnail:   `{{clean .Info.Title}} [{{.Info.ID}}].{{.Ext}}`,
	FileMetadata:    `{{clean .Info.Title}} [{{.Info.ID}}].info.json`,
	FileDescription: `{{clean .Info.Title}} [{{.Info.ID}}].description.txt`,
	FileTitles:      `titles.txt`,
}

func DefaultNaming() *Naming {
	n := &Naming{templates: make(map[FileKind]*template.Template)}
	for kind, text := range defaultTemplates {
		if err := n.Set(kind, text); err != nil {
			panic(err)
		}
	}
	return n
}

// Set replaces the template for kind.
func (n *Naming) Set(kind FileKind, text string) error {
	t, err := template.New(string(kind)).
		Funcs(template.FuncMap{"clean": util.SanitizeFilename}).
		Option("missingkey=error").
		Parse(text)
	if err != nil {
		return fmt.Errorf("invalid %s file template: %w", kind, err)
	}
	n.templates[kind] = t
	return nil
}

// Path renders the template for kind. The result is a cleaned, slash-separated path relative to the target directory.
func (n *Naming) Path(kind FileKind, args NamingArgs) (string, error) {
	t, ok := n.templates[kind]
	if !ok {
		return "", fmt.Errorf("no file template for %s", kind)
	}
	builder := strings.Builder{}
	if err := t.Execute(&builder, &args); err != nil {
		return "", err
	}
	name := path.Clean(strings.TrimSpace(builder.String()))
	if name == "." || name == "" || path.IsAbs(name) || name == ".." || strings.HasPrefix(name, "../") {
		return "", fmt.Errorf("%w: %q", ErrInvalidFilename, builder.String())
	}
	return name, nil
}
