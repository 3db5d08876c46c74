package youtube

import (
	"runtime/debug"

	"github.com/kkdai/youtube/v2"

	"github.com/alanbriolat/video-harvester"
)

const (
	VideoProviderName    = "youtube-video"
	PlaylistProviderName = "youtube-playlist"
	ChannelProviderName  = "youtube-channel"

	libraryPath = "github.com/kkdai/youtube/v2"
)

type Config struct {
	Client Client
}

func NewConfig() Config {
	return Config{Client: &youtube.Client{}}
}

// MatchVideo accepts a single video URL or ID.
func (c Config) MatchVideo(s string) (video_harvester.Source, error) {
	id, err := extractVideoID(s)
	if err != nil {
		return nil, err
	}
	return &videoSource{client: c.Client, videoID: id}, nil
}

// MatchPlaylist accepts any URL with a list= parameter, or a playlist ID.
func (c Config) MatchPlaylist(s string) (video_harvester.Source, error) {
	id, err := extractPlaylistID(s)
	if err != nil {
		return nil, err
	}
	return &playlistSource{client: c.Client, playlistID: id}, nil
}

// MatchChannel accepts a /channel/ URL or channel ID, giving the channel's uploads.
func (c Config) MatchChannel(s string) (video_harvester.Source, error) {
	id, err := extractChannelID(s)
	if err != nil {
		return nil, err
	}
	return &playlistSource{client: c.Client, playlistID: uploadsPlaylistID(id), channelID: id}, nil
}

// Providers returns the video, playlist and channel providers. The video provider goes first so that a watch URL
// which happens to carry a list= parameter means just that video, unless the playlist provider is asked for
// explicitly.
func (c Config) Providers() []video_harvester.Provider {
	return []video_harvester.Provider{
		{Name: VideoProviderName, Match: c.MatchVideo, Priority: -20},
		{Name: PlaylistProviderName, Match: c.MatchPlaylist, Priority: -10},
		{Name: ChannelProviderName, Match: c.MatchChannel, Priority: video_harvester.PriorityDefault},
	}
}

func init() {
	for _, p := range NewConfig().Providers() {
		video_harvester.DefaultProviderRegistry.MustAdd(p)
	}
}

// LibraryVersion reports the version of github.com/kkdai/youtube built into the running binary, if known.
func LibraryVersion() string {
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return ""
	}
	for _, dep := range info.Deps {
		if dep.Path == libraryPath {
			return dep.Version
		}
	}
	return ""
}
