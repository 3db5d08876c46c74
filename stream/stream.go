// Package stream picks the best media stream for a media item from the candidates an extractor offers.
package stream

import (
	"fmt"

	"github.com/alanbriolat/video-harvester/generic"
)

// Kind says which tracks a MediaStream carries.
type Kind int

const (
	KindUnknown Kind = iota
	KindVideoOnly
	KindAudioOnly
	KindCombined
)

func (k Kind) HasVideo() bool {
	return k == KindVideoOnly || k == KindCombined
}

func (k Kind) HasAudio() bool {
	return k == KindAudioOnly || k == KindCombined
}

func (k Kind) String() string {
	switch k {
	case KindVideoOnly:
		return "video-only"
	case KindAudioOnly:
		return "audio-only"
	case KindCombined:
		return "combined"
	default:
		return "unknown"
	}
}

// A MediaStream is one downloadable variant of a media item.
type MediaStream struct {
	// ID identifies this exact stream to the extractor that produced it (e.g. an itag).
	ID string
	// Container is the lowercase file extension of the packaging format, or "" if unknown.
	Container string
	Kind      Kind
	// VideoQuality is a resolution label like "1080p", if the extractor reported one.
	VideoQuality generic.Option[string]
	// AudioQuality is a bitrate label like "128kbps", if the extractor reported one.
	AudioQuality generic.Option[string]
}

func (s MediaStream) String() string {
	return fmt.Sprintf("MediaStream{ID:%q, Container:%q, Kind:%v, Video:%q, Audio:%q}",
		s.ID, s.Container, s.Kind, s.VideoQuality.UnwrapOrDefault(), s.AudioQuality.UnwrapOrDefault())
}

// Quality returns the label for the dimension named by m.
func (s MediaStream) Quality(m Metric) generic.Option[string] {
	switch m {
	case MetricVideo:
		return s.VideoQuality
	case MetricAudio:
		return s.AudioQuality
	default:
		return generic.None[string]()
	}
}

// OfKind returns the streams whose Kind is one of kinds, preserving order.
func OfKind(streams []MediaStream, kinds ...Kind) []MediaStream {
	wanted := generic.NewSet(kinds...)
	var res []MediaStream
	for _, s := range streams {
		if wanted.Contains(s.Kind) {
			res = append(res, s)
		}
	}
	return res
}
