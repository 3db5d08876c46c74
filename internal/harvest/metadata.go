package harvest

import (
	"time"

	"github.com/r3labs/diff/v3"
	"go.uber.org/zap"

	"github.com/alanbriolat/video-harvester"
	"github.com/alanbriolat/video-harvester/generic"
	"github.com/alanbriolat/video-harvester/internal/archive"
	"github.com/alanbriolat/video-harvester/stream"
)

// ItemMetadata is the content of an item's metadata file.
type ItemMetadata struct {
	ID               string          `json:"id"`
	Title            string          `json:"title"`
	Author           string          `json:"author,omitempty"`
	ChannelID        string          `json:"channel_id,omitempty"`
	Description      string          `json:"description,omitempty"`
	DurationSeconds  float64         `json:"duration_seconds,omitempty"`
	PublishDate      *time.Time      `json:"publish_date,omitempty"`
	Views            int             `json:"views,omitempty"`
	URL              string          `json:"url"`
	Thumbnail        string          `json:"thumbnail,omitempty"`
	Listing          *ListingRef     `json:"listing,omitempty"`
	Video            *StreamMetadata `json:"video,omitempty"`
	Audio            *StreamMetadata `json:"audio,omitempty"`
	Extractor        string          `json:"extractor,omitempty"`
	ExtractorVersion string          `json:"extractor_version,omitempty"`
	RunID            string          `json:"run_id"`
}

// ListingRef places an item within the listing it was harvested from.
type ListingRef struct {
	ID    string `json:"id"`
	Title string `json:"title,omitempty"`
	URL   string `json:"url,omitempty"`
	Index int    `json:"index"`
}

// StreamMetadata describes the stream that was (or would be) selected for a part.
type StreamMetadata struct {
	ID        string `json:"id"`
	Container string `json:"container,omitempty"`
	Kind      string `json:"kind"`
	Quality   string `json:"quality,omitempty"`
	Magnitude int    `json:"magnitude,omitempty"`
}

func newStreamMetadata(selected generic.Result[stream.MediaStream], metric stream.Metric) *StreamMetadata {
	s, ok := selected.Ok().Get()
	if !ok {
		return nil
	}
	label := s.Quality(metric).UnwrapOrDefault()
	return &StreamMetadata{
		ID:        s.ID,
		Container: s.Container,
		Kind:      s.Kind.String(),
		Quality:   label,
		Magnitude: stream.ParseQuality(label).UnwrapOrDefault(),
	}
}

func newItemMetadata(j *itemJob) *ItemMetadata {
	config := &j.harvester.config
	m := &ItemMetadata{
		ID:               j.info.ID,
		Title:            j.info.Title,
		Author:           j.info.Author,
		ChannelID:        j.info.ChannelID,
		Description:      j.info.Description,
		DurationSeconds:  j.info.Duration.Seconds(),
		Views:            j.info.Views,
		URL:              j.info.URL,
		Video:            newStreamMetadata(j.video, stream.MetricVideo),
		Audio:            newStreamMetadata(j.audio, stream.MetricAudio),
		Extractor:        config.Extractor,
		ExtractorVersion: config.ExtractorVersion,
		RunID:            j.runID,
	}
	if !j.info.PublishDate.IsZero() {
		publishDate := j.info.PublishDate.UTC()
		m.PublishDate = &publishDate
	}
	if thumbnail, ok := video_harvester.BestThumbnail(j.info.Thumbnails); ok {
		m.Thumbnail = thumbnail.URL
	}
	if listing := j.args.Listing; listing != nil && listing.ID != j.info.ID {
		m.Listing = &ListingRef{ID: listing.ID, Title: listing.Title, URL: listing.URL, Index: j.args.Index}
	}
	return m
}

type archivedTitle struct {
	Title string `diff:"title"`
}

// logTitleChange notes when an item was renamed since one of its parts was archived, since the archived file keeps
// the old name.
func logTitleChange(log *zap.SugaredLogger, record *archive.Record, title string) {
	if title == "" {
		return
	}
	changelog, err := diff.Diff(archivedTitle{Title: record.Title}, archivedTitle{Title: title})
	if err != nil {
		log.Debugw("failed to compare titles", "error", err)
		return
	}
	for _, change := range changelog {
		log.Infow("title changed since archived", "part", record.Part, "from", change.From, "to", change.To)
	}
}
