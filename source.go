package video_harvester

import (
	"context"
	"io"
	"time"

	"github.com/alanbriolat/video-harvester/stream"
)

// A Source is something a Provider matched: a single video, a playlist, or a channel's uploads.
type Source interface {
	// URL should return the canonical URL for this source. It is assumed that the Provider.Match that created the
	// Source would successfully match this canonical URL.
	URL() string
	// Recon fetches the listing of entries for this source.
	Recon(ctx context.Context) (*Listing, error)
}

// A Listing is the ordered set of entries a Source resolved to.
type Listing struct {
	ID      string
	Title   string
	URL     string
	Entries []Entry
}

// An Entry is one video in a Listing, possibly not fetched yet.
type Entry interface {
	ID() string
	Title() string
	// Resolve fetches everything needed to save the entry's parts.
	Resolve(ctx context.Context) (Item, error)
}

type Thumbnail struct {
	URL    string
	Width  uint
	Height uint
}

// ItemInfo is the descriptive metadata of an Item.
type ItemInfo struct {
	ID          string
	Title       string
	Description string
	Author      string
	ChannelID   string
	Duration    time.Duration
	PublishDate time.Time
	Views       int
	URL         string
	Thumbnails  []Thumbnail
}

// An Item is a resolved Entry: its metadata plus the media streams on offer.
type Item interface {
	Info() ItemInfo
	Streams() []stream.MediaStream
	// OpenStream opens the media stream with the given MediaStream.ID, returning it with its size in bytes (or <= 0 if
	// unknown).
	OpenStream(ctx context.Context, streamID string) (io.ReadCloser, int64, error)
}

// BestThumbnail returns the thumbnail with the largest area, preferring later entries on ties.
func BestThumbnail(thumbnails []Thumbnail) (Thumbnail, bool) {
	var best Thumbnail
	found := false
	for _, t := range thumbnails {
		if t.URL == "" {
			continue
		}
		if !found || t.Width*t.Height >= best.Width*best.Height {
			best = t
			found = true
		}
	}
	return best, found
}
