package youtube

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/kkdai/youtube/v2"

	"github.com/alanbriolat/video-harvester/generic"
	"github.com/alanbriolat/video-harvester/stream"
)

// mimeToContainer maps "video/mp4; codecs=..." to "mp4", or "" if the MIME type is unusable.
func mimeToContainer(mime string) string {
	if i := strings.Index(mime, ";"); i >= 0 {
		mime = mime[:i]
	}
	parts := strings.Split(strings.TrimSpace(strings.ToLower(mime)), "/")
	if len(parts) != 2 || parts[1] == "" {
		return ""
	}
	switch parts[1] {
	case "3gpp":
		return "3gp"
	case "mp4":
		if parts[0] == "audio" {
			return "m4a"
		}
		return "mp4"
	default:
		return parts[1]
	}
}

func mimeMajor(mime string) string {
	major, _, _ := strings.Cut(strings.TrimSpace(strings.ToLower(mime)), "/")
	return major
}

func kindOf(f *youtube.Format) stream.Kind {
	hasVideo := f.Width > 0 || f.Height > 0 || f.QualityLabel != ""
	hasAudio := f.AudioChannels > 0
	switch {
	case hasVideo && hasAudio:
		return stream.KindCombined
	case hasVideo:
		return stream.KindVideoOnly
	case hasAudio:
		return stream.KindAudioOnly
	case mimeMajor(f.MimeType) == "audio":
		return stream.KindAudioOnly
	default:
		return stream.KindUnknown
	}
}

func bitrateForFormat(f *youtube.Format) int {
	if f.Bitrate > 0 {
		return f.Bitrate
	}
	if f.AverageBitrate > 0 {
		return f.AverageBitrate
	}
	return 0
}

// streamFromFormat describes a format as a stream.MediaStream.
//
// The library only reports a bitrate for the whole format, so an audio quality is only given for audio-only formats;
// for combined formats the bitrate is dominated by the picture and would outrank every real audio stream.
func streamFromFormat(f *youtube.Format, id string) stream.MediaStream {
	s := stream.MediaStream{
		ID:        id,
		Container: mimeToContainer(f.MimeType),
		Kind:      kindOf(f),
	}
	if s.Kind.HasVideo() {
		if f.QualityLabel != "" {
			s.VideoQuality = generic.Some(f.QualityLabel)
		} else if f.Height > 0 {
			s.VideoQuality = generic.Some(fmt.Sprintf("%dp", f.Height))
		}
	}
	if s.Kind == stream.KindAudioOnly {
		if br := bitrateForFormat(f); br > 0 {
			s.AudioQuality = generic.Some(fmt.Sprintf("%dkbps", (br+500)/1000))
		}
	}
	return s
}

// streamsFromFormats converts every format, giving each a stable ID: the itag, suffixed with an occurrence counter
// when the same itag appears more than once (e.g. one per audio track).
func streamsFromFormats(formats youtube.FormatList) ([]stream.MediaStream, map[string]*youtube.Format) {
	streams := make([]stream.MediaStream, 0, len(formats))
	byID := make(map[string]*youtube.Format, len(formats))
	seen := make(map[int]int)
	for i := range formats {
		f := &formats[i]
		id := strconv.Itoa(f.ItagNo)
		if n := seen[f.ItagNo]; n > 0 {
			id = fmt.Sprintf("%d-%d", f.ItagNo, n)
		}
		seen[f.ItagNo]++
		streams = append(streams, streamFromFormat(f, id))
		byID[id] = f
	}
	return streams, byID
}
