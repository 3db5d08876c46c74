package harvest

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/alanbriolat/video-harvester"
	"github.com/alanbriolat/video-harvester/generic"
	"github.com/alanbriolat/video-harvester/internal/archive"
)

// A Part is one kind of output a harvest can produce for a listing or its items.
type Part string

const (
	PartTitles       Part = "titles"
	PartDescriptions Part = "descriptions"
	PartMetadata     Part = "metadata"
	PartThumbnails   Part = "thumbnails"
	PartVideo        Part = "video"
	PartAudio        Part = "audio"
)

// Parts that are saved per item, in the order they are saved.
var itemParts = []Part{PartDescriptions, PartMetadata, PartThumbnails, PartVideo, PartAudio}

var AllParts = append([]Part{PartTitles}, itemParts...)

func ParsePart(s string) (Part, error) {
	for _, p := range AllParts {
		if string(p) == strings.ToLower(strings.TrimSpace(s)) {
			return p, nil
		}
	}
	return "", fmt.Errorf("unknown part %q", s)
}

// ProgressFunc is called before each file is saved, and may return a callback to receive byte progress for that file.
type ProgressFunc func(description string) func(downloaded, expected int64)

type Config struct {
	Parts generic.Set[Part]
	// Container to require for video, e.g. "mp4"; empty for any.
	VideoContainer string
	// Container to require for audio, e.g. "m4a"; empty for any.
	AudioContainer string
	// Adaptive allows video-only streams to be chosen for video, which usually means higher resolutions but no sound.
	Adaptive bool
	// Maximum number of items harvested at the same time.
	Jobs       int
	Archive    archive.Archive
	Naming     *video_harvester.Naming
	TargetDir  string
	TempDir    string
	HTTPClient *http.Client
	Progress   ProgressFunc
	// Extractor and ExtractorVersion are recorded in metadata files.
	Extractor        string
	ExtractorVersion string
}

var DefaultConfig = Config{
	Parts:      generic.NewSet(PartMetadata),
	Jobs:       1,
	Archive:    archive.Nil{},
	Naming:     video_harvester.DefaultNaming(),
	TargetDir:  ".",
	HTTPClient: http.DefaultClient,
}

// withDefaults fills in any unset fields from DefaultConfig.
func (c Config) withDefaults() Config {
	if c.Parts == nil {
		c.Parts = DefaultConfig.Parts.Clone()
	}
	if c.Jobs < 1 {
		c.Jobs = DefaultConfig.Jobs
	}
	if c.Archive == nil {
		c.Archive = DefaultConfig.Archive
	}
	if c.Naming == nil {
		c.Naming = DefaultConfig.Naming
	}
	if c.TargetDir == "" {
		c.TargetDir = DefaultConfig.TargetDir
	}
	if c.HTTPClient == nil {
		c.HTTPClient = DefaultConfig.HTTPClient
	}
	return c
}
