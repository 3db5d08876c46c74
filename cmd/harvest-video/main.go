package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"strings"
	"sync"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/schollz/progressbar/v3"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/alanbriolat/video-harvester"
	"github.com/alanbriolat/video-harvester/async"
	"github.com/alanbriolat/video-harvester/generic"
	"github.com/alanbriolat/video-harvester/internal/archive"
	"github.com/alanbriolat/video-harvester/internal/harvest"
	"github.com/alanbriolat/video-harvester/provider/youtube"
	_ "github.com/alanbriolat/video-harvester/providers"
)

var partFlags = map[string]harvest.Part{
	"titles":       harvest.PartTitles,
	"descriptions": harvest.PartDescriptions,
	"metadata":     harvest.PartMetadata,
	"thumbnails":   harvest.PartThumbnails,
	"videos":       harvest.PartVideo,
	"audio":        harvest.PartAudio,
}

var flags = []cli.Flag{
	&cli.BoolFlag{Name: "playlist", Usage: "treat inputs as playlists", EnvVars: []string{"HARVEST_PLAYLIST"}},
	&cli.BoolFlag{Name: "channel", Usage: "treat inputs as channels (all uploads)", EnvVars: []string{"HARVEST_CHANNEL"}},
	&cli.BoolFlag{Name: "titles", Usage: "save the listing's titles to a text file", EnvVars: []string{"HARVEST_TITLES"}},
	&cli.BoolFlag{Name: "descriptions", Usage: "save each video's description", EnvVars: []string{"HARVEST_DESCRIPTIONS"}},
	&cli.BoolFlag{Name: "metadata", Usage: "save each video's metadata as JSON (default if nothing else is chosen)", EnvVars: []string{"HARVEST_METADATA"}},
	&cli.BoolFlag{Name: "thumbnails", Usage: "save each video's largest thumbnail", EnvVars: []string{"HARVEST_THUMBNAILS"}},
	&cli.BoolFlag{Name: "videos", Usage: "save each video's best video stream", EnvVars: []string{"HARVEST_VIDEOS"}},
	&cli.BoolFlag{Name: "audio", Usage: "save each video's best audio stream", EnvVars: []string{"HARVEST_AUDIO"}},
	&cli.StringFlag{Name: "format", Usage: "only save video in container `EXT` (e.g. mp4)", EnvVars: []string{"HARVEST_FORMAT"}},
	&cli.StringFlag{Name: "audio-format", Usage: "only save audio in container `EXT` (e.g. m4a)", EnvVars: []string{"HARVEST_AUDIO_FORMAT"}},
	&cli.BoolFlag{Name: "adaptive", Usage: "allow video streams without audio, which reach higher resolutions", EnvVars: []string{"HARVEST_ADAPTIVE"}},
	&cli.StringFlag{Name: "target", Value: ".", Usage: "save files to `DIR`", EnvVars: []string{"HARVEST_TARGET"}},
	&cli.StringFlag{Name: "archive", Usage: "record saved parts in `FILE` and skip them next time", EnvVars: []string{"HARVEST_ARCHIVE"}},
	&cli.IntFlag{Name: "jobs", Value: 1, Usage: "harvest up to `N` videos at once", EnvVars: []string{"HARVEST_JOBS"}},
	&cli.BoolFlag{Name: "verbose", Aliases: []string{"v"}, Usage: "enable debug logging", EnvVars: []string{"HARVEST_VERBOSE"}},
	&cli.StringSliceFlag{Name: "forget", Usage: "delete archived parts of video `ID` so they are saved again", EnvVars: []string{"HARVEST_FORGET"}},
	&cli.BoolFlag{Name: "no-progress", Usage: "don't show progress bars", EnvVars: []string{"HARVEST_NO_PROGRESS"}},
}

func main() {
	level := zap.NewAtomicLevelAt(zap.InfoLevel)
	logConfig := zap.NewDevelopmentConfig()
	logConfig.Level = level
	logConfig.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	logger, err := logConfig.Build()
	if err != nil {
		log.Fatalf("can't initialize zap logger: %v", err)
	}
	defer logger.Sync()
	zap.RedirectStdLog(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	ctx = video_harvester.WithLogger(ctx, logger)

	app := &cli.App{
		Name:      "harvest-video",
		Usage:     "save metadata, thumbnails and streams of videos, playlists and channels",
		ArgsUsage: "ID|URL...",
		Flags:     flags,
		Action: func(c *cli.Context) error {
			if c.Bool("verbose") {
				level.SetLevel(zap.DebugLevel)
			}
			return harvestAll(ctx, c)
		},
		HideHelpCommand: true,
	}

	result := async.Run(func() error { return app.Run(os.Args) })

	if err := awaitResult(ctx, stop, result, shutdownGrace); err != nil {
		logger.Fatal(err.Error())
	}
}

// How long an interrupted run gets to remove partial files and close the archive.
const shutdownGrace = 10 * time.Second

// awaitResult waits for the app to finish. Once ctx is cancelled the app still gets up to grace to unwind, and the
// interruption is always reported as an error. stop is called on interrupt so that a second signal kills the process.
func awaitResult(ctx context.Context, stop context.CancelFunc, result <-chan error, grace time.Duration) error {
	select {
	case err := <-result:
		if err == nil {
			err = ctx.Err()
		}
		return err
	case <-ctx.Done():
	}
	stop()
	interrupted := fmt.Errorf("interrupted: %w", ctx.Err())
	video_harvester.Logger(ctx).Sugar().Warnf("Interrupted, waiting up to %v for cleanup", grace)

	timer := time.NewTimer(grace)
	defer timer.Stop()
	select {
	case err := <-result:
		if err != nil && !errors.Is(err, context.Canceled) {
			return multierror.Append(interrupted, err)
		}
		return interrupted
	case <-timer.C:
		return fmt.Errorf("%w (cleanup did not finish within %v)", interrupted, grace)
	}
}

// normalizeContainer makes a user-supplied container match the lowercase extensions streams report.
func normalizeContainer(s string) string {
	return strings.TrimPrefix(strings.ToLower(strings.TrimSpace(s)), ".")
}

func configFromFlags(ctx context.Context, c *cli.Context) (harvest.Config, error) {
	config := harvest.DefaultConfig
	config.Parts = generic.NewSet[harvest.Part]()
	for name, part := range partFlags {
		if c.Bool(name) {
			config.Parts.Add(part)
		}
	}
	if config.Parts.Count() == 0 {
		config.Parts.Add(harvest.PartMetadata)
	}
	config.VideoContainer = normalizeContainer(c.String("format"))
	config.AudioContainer = normalizeContainer(c.String("audio-format"))
	config.Adaptive = c.Bool("adaptive")
	config.TargetDir = c.String("target")
	config.Jobs = c.Int("jobs")
	if config.Jobs < 1 {
		return config, fmt.Errorf("--jobs must be at least 1, got %d", config.Jobs)
	}
	if config.Jobs == 1 && !c.Bool("no-progress") {
		config.Progress = newProgressBars(video_harvester.Logger(ctx).Sugar(), os.Stderr)
	}
	return config, nil
}

func providerFromFlags(c *cli.Context) (string, error) {
	switch {
	case c.Bool("playlist") && c.Bool("channel"):
		return "", errors.New("--playlist and --channel are mutually exclusive")
	case c.Bool("playlist"):
		return youtube.PlaylistProviderName, nil
	case c.Bool("channel"):
		return youtube.ChannelProviderName, nil
	default:
		return "", nil
	}
}

func harvestAll(ctx context.Context, c *cli.Context) error {
	forget := c.StringSlice("forget")
	if c.NArg() == 0 && len(forget) == 0 {
		return errors.New("nothing to harvest: give at least one ID or URL")
	}
	if len(forget) > 0 && c.String("archive") == "" {
		return errors.New("--forget needs --archive")
	}
	config, err := configFromFlags(ctx, c)
	if err != nil {
		return err
	}
	providerName, err := providerFromFlags(c)
	if err != nil {
		return err
	}
	if path := c.String("archive"); path != "" {
		a, err := archive.Open(path)
		if err != nil {
			return err
		}
		defer a.Close()
		config.Archive = a
	}
	for _, itemID := range forget {
		deleted, err := archive.Forget(config.Archive, strings.TrimSpace(itemID))
		if err != nil {
			return err
		}
		video_harvester.Logger(ctx).Sugar().Infof("Forgot %d archived parts of %s", deleted, itemID)
	}

	var errs *multierror.Error
	for _, input := range c.Args().Slice() {
		if err := harvestOne(ctx, config, providerName, input); err != nil {
			errs = multierror.Append(errs, err)
		}
		if ctx.Err() != nil {
			break
		}
	}
	return errs.ErrorOrNil()
}

func harvestOne(ctx context.Context, config harvest.Config, providerName string, input string) error {
	logger := video_harvester.Logger(ctx).Sugar()

	var match *video_harvester.Match
	var err error
	if providerName != "" {
		match, err = video_harvester.DefaultProviderRegistry.MatchWith(providerName, input)
	} else {
		match, err = video_harvester.DefaultProviderRegistry.Match(input)
	}
	if err != nil {
		return fmt.Errorf("match failed for %s: %w", input, err)
	}

	logger.Infof("Harvesting %s into %s", match.Source.URL(), config.TargetDir)
	config.Extractor = match.ProviderName
	config.ExtractorVersion = youtube.LibraryVersion()
	report, err := harvest.New(config).Run(ctx, match.Source)
	logger.Infof(
		"%s: %d items, %d parts saved, %d already archived, %d unavailable, %d items failed",
		match.Source.URL(), report.Items, report.Saved, report.Skipped, report.Unavailable, report.Failed,
	)
	if err != nil {
		return fmt.Errorf("harvest of %s incomplete: %w", match.Source.URL(), err)
	}
	return nil
}

// newProgressBars gives each file its own byte progress bar on w, sized once the file's length is known. Failing to
// draw a bar is logged once and otherwise ignored.
func newProgressBars(logger *zap.SugaredLogger, w io.Writer) harvest.ProgressFunc {
	var warnOnce sync.Once
	return func(description string) func(int64, int64) {
		var bar *progressbar.ProgressBar
		return func(downloaded int64, expected int64) {
			if bar == nil {
				size := expected
				if size <= 0 {
					size = -1
				}
				bar = newByteBar(w, size, description)
			} else if expected > 0 && bar.GetMax64() < expected {
				bar.ChangeMax64(expected)
			}
			if err := bar.Set64(downloaded); err != nil {
				warnOnce.Do(func() {
					logger.Warnw("failed to draw progress bar", "error", err)
				})
			}
		}
	}
}

// newByteBar is progressbar.DefaultBytes writing to w; a size of -1 gives a spinner.
func newByteBar(w io.Writer, size int64, description string) *progressbar.ProgressBar {
	return progressbar.NewOptions64(
		size,
		progressbar.OptionSetDescription(description),
		progressbar.OptionSetWriter(w),
		progressbar.OptionShowBytes(true),
		progressbar.OptionSetWidth(10),
		progressbar.OptionThrottle(65*time.Millisecond),
		progressbar.OptionShowCount(),
		progressbar.OptionOnCompletion(func() {
			_, _ = fmt.Fprintln(w)
		}),
		progressbar.OptionSpinnerType(14),
		progressbar.OptionFullWidth(),
	)
}
