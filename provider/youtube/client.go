package youtube

import (
	"context"
	"io"

	"github.com/kkdai/youtube/v2"
)

// Client is the part of *youtube.Client this provider needs.
type Client interface {
	GetVideoContext(ctx context.Context, url string) (*youtube.Video, error)
	GetPlaylistContext(ctx context.Context, url string) (*youtube.Playlist, error)
	VideoFromPlaylistEntryContext(ctx context.Context, entry *youtube.PlaylistEntry) (*youtube.Video, error)
	GetStreamContext(ctx context.Context, video *youtube.Video, format *youtube.Format) (io.ReadCloser, int64, error)
}

var _ Client = &youtube.Client{}
