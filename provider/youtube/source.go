package youtube

import (
	"context"
	"fmt"
	"io"

	"github.com/kkdai/youtube/v2"

	"github.com/alanbriolat/video-harvester"
	"github.com/alanbriolat/video-harvester/stream"
)

type videoSource struct {
	client  Client
	videoID string
}

func (s *videoSource) URL() string {
	return watchURL(s.videoID)
}

func (s *videoSource) String() string {
	return s.URL()
}

func (s *videoSource) Recon(ctx context.Context) (*video_harvester.Listing, error) {
	video, err := s.client.GetVideoContext(ctx, s.videoID)
	if err != nil {
		return nil, fmt.Errorf("failed to get video info: %w", err)
	}
	it := newItem(s.client, video)
	return &video_harvester.Listing{
		ID:      video.ID,
		Title:   video.Title,
		URL:     s.URL(),
		Entries: []video_harvester.Entry{&resolvedEntry{item: it}},
	}, nil
}

// playlistSource covers both playlists and channels, since a channel is harvested through its uploads playlist.
type playlistSource struct {
	client     Client
	playlistID string
	channelID  string
}

func (s *playlistSource) URL() string {
	if s.channelID != "" {
		return channelURL(s.channelID)
	}
	return playlistURL(s.playlistID)
}

func (s *playlistSource) String() string {
	return s.URL()
}

func (s *playlistSource) Recon(ctx context.Context) (*video_harvester.Listing, error) {
	playlist, err := s.client.GetPlaylistContext(ctx, playlistURL(s.playlistID))
	if err != nil {
		return nil, fmt.Errorf("failed to get playlist %s: %w", s.playlistID, err)
	}
	title := playlist.Title
	if s.channelID != "" && playlist.Author != "" {
		title = playlist.Author
	}
	if title == "" {
		title = playlist.ID
	}
	listing := &video_harvester.Listing{
		ID:      playlist.ID,
		Title:   title,
		URL:     s.URL(),
		Entries: make([]video_harvester.Entry, 0, len(playlist.Videos)),
	}
	for _, entry := range playlist.Videos {
		if entry == nil || entry.ID == "" {
			continue
		}
		listing.Entries = append(listing.Entries, &playlistEntry{client: s.client, entry: entry})
	}
	return listing, nil
}

type resolvedEntry struct {
	item *item
}

func (e *resolvedEntry) ID() string {
	return e.item.video.ID
}

func (e *resolvedEntry) Title() string {
	return e.item.video.Title
}

func (e *resolvedEntry) Resolve(context.Context) (video_harvester.Item, error) {
	return e.item, nil
}

type playlistEntry struct {
	client Client
	entry  *youtube.PlaylistEntry
}

func (e *playlistEntry) ID() string {
	return e.entry.ID
}

func (e *playlistEntry) Title() string {
	return e.entry.Title
}

func (e *playlistEntry) Resolve(ctx context.Context) (video_harvester.Item, error) {
	video, err := e.client.VideoFromPlaylistEntryContext(ctx, e.entry)
	if err != nil {
		return nil, fmt.Errorf("failed to get video info for %s: %w", e.entry.ID, err)
	}
	return newItem(e.client, video), nil
}

type item struct {
	client  Client
	video   *youtube.Video
	streams []stream.MediaStream
	formats map[string]*youtube.Format
}

func newItem(client Client, video *youtube.Video) *item {
	streams, formats := streamsFromFormats(video.Formats)
	return &item{client: client, video: video, streams: streams, formats: formats}
}

func (i *item) Info() video_harvester.ItemInfo {
	thumbnails := make([]video_harvester.Thumbnail, 0, len(i.video.Thumbnails))
	for _, t := range i.video.Thumbnails {
		thumbnails = append(thumbnails, video_harvester.Thumbnail{URL: t.URL, Width: t.Width, Height: t.Height})
	}
	return video_harvester.ItemInfo{
		ID:          i.video.ID,
		Title:       i.video.Title,
		Description: i.video.Description,
		Author:      i.video.Author,
		ChannelID:   i.video.ChannelID,
		Duration:    i.video.Duration,
		PublishDate: i.video.PublishDate,
		Views:       i.video.Views,
		URL:         watchURL(i.video.ID),
		Thumbnails:  thumbnails,
	}
}

func (i *item) Streams() []stream.MediaStream {
	return i.streams
}

func (i *item) OpenStream(ctx context.Context, streamID string) (io.ReadCloser, int64, error) {
	format, ok := i.formats[streamID]
	if !ok {
		return nil, 0, fmt.Errorf("no stream %q for video %s", streamID, i.video.ID)
	}
	r, size, err := i.client.GetStreamContext(ctx, i.video, format)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to get stream: %w", err)
	}
	return r, size, nil
}
