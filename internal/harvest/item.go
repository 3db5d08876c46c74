package harvest

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/alanbriolat/video-harvester"
	"github.com/alanbriolat/video-harvester/generic"
	"github.com/alanbriolat/video-harvester/internal/archive"
	"github.com/alanbriolat/video-harvester/stream"
	"github.com/alanbriolat/video-harvester/util"
)

// itemJob saves the parts of one resolved item.
type itemJob struct {
	harvester *Harvester
	runID     string
	item      video_harvester.Item
	info      video_harvester.ItemInfo
	args      video_harvester.NamingArgs

	video generic.Result[stream.MediaStream]
	audio generic.Result[stream.MediaStream]
}

func (j *itemJob) selectStreams(parts []Part) {
	config := &j.harvester.config
	streams := j.item.Streams()
	wants := generic.NewSet(parts...)
	if wants.ContainsAny(PartVideo, PartMetadata) {
		candidates := streams
		if !config.Adaptive {
			candidates = stream.OfKind(streams, stream.KindCombined)
		}
		best, err := stream.SelectBest(candidates, stream.Request{
			Metric:    stream.MetricVideo,
			Container: config.VideoContainer,
		})
		if err != nil && len(candidates) == 0 && len(streams) > 0 {
			err = fmt.Errorf("%w: none of %d streams has both video and audio (adaptive streams not allowed)", err, len(streams))
		}
		j.video = generic.NewResult(best, err)
	}
	if wants.ContainsAny(PartAudio, PartMetadata) {
		j.audio = generic.NewResult(stream.SelectBest(streams, stream.Request{
			Metric:    stream.MetricAudio,
			Container: config.AudioContainer,
		}))
	}
}

// save a single part, returning a partial archive record describing what was saved.
func (j *itemJob) save(ctx context.Context, log *zap.SugaredLogger, part Part) (*archive.Record, error) {
	switch part {
	case PartDescriptions:
		return j.saveText(ctx, video_harvester.FileDescription, j.info.Description)
	case PartMetadata:
		data, err := json.MarshalIndent(newItemMetadata(j), "", "  ")
		if err != nil {
			return nil, err
		}
		return j.saveText(ctx, video_harvester.FileMetadata, string(data)+"\n")
	case PartThumbnails:
		return j.saveThumbnail(ctx)
	case PartVideo:
		return j.saveStream(ctx, log, video_harvester.FileVideo, j.video)
	case PartAudio:
		return j.saveStream(ctx, log, video_harvester.FileAudio, j.audio)
	default:
		return nil, fmt.Errorf("unknown part %q", part)
	}
}

func (j *itemJob) path(kind video_harvester.FileKind, ext string) (string, error) {
	args := j.args
	args.Ext = ext
	return j.harvester.config.Naming.Path(kind, args)
}

func (j *itemJob) saveText(ctx context.Context, kind video_harvester.FileKind, text string) (*archive.Record, error) {
	filename, err := j.path(kind, "txt")
	if err != nil {
		return nil, err
	}
	d, err := j.harvester.newDownload(ctx, filename)
	if err != nil {
		return nil, err
	}
	defer d.Close()
	if err := d.SaveStream(filename, strings.NewReader(text)); err != nil {
		return nil, err
	}
	return &archive.Record{Path: filename}, nil
}

func (j *itemJob) saveThumbnail(ctx context.Context) (*archive.Record, error) {
	thumbnail, ok := video_harvester.BestThumbnail(j.info.Thumbnails)
	if !ok {
		return nil, ErrNoThumbnail
	}
	filename, err := j.path(video_harvester.FileThumbnail, util.ExtFromURLString(thumbnail.URL, "jpg"))
	if err != nil {
		return nil, err
	}
	d, err := j.harvester.newDownload(ctx, filename)
	if err != nil {
		return nil, err
	}
	defer d.Close()
	if err := d.SaveURL(filename, thumbnail.URL); err != nil {
		return nil, err
	}
	return &archive.Record{Path: filename}, nil
}

func (j *itemJob) saveStream(
	ctx context.Context,
	log *zap.SugaredLogger,
	kind video_harvester.FileKind,
	selected generic.Result[stream.MediaStream],
) (*archive.Record, error) {
	s, err := selected.Parts()
	if err != nil {
		return nil, err
	}
	ext := s.Container
	if ext == "" {
		ext = "bin"
	}
	filename, err := j.path(kind, ext)
	if err != nil {
		return nil, err
	}
	log.Debugw("selected stream", "stream", s.String())

	d, err := j.harvester.newDownload(ctx, filename)
	if err != nil {
		return nil, err
	}
	defer d.Close()
	r, size, err := j.item.OpenStream(d.Context(), s.ID)
	if err != nil {
		return nil, err
	}
	defer r.Close()
	d.AddExpectedBytes(size)
	if err := d.SaveStream(filename, r); err != nil {
		return nil, err
	}
	return &archive.Record{Path: filename, StreamID: s.ID}, nil
}
