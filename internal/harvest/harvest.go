// Package harvest saves the requested parts of every item in a source's listing.
package harvest

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/go-multierror"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/alanbriolat/video-harvester"
	"github.com/alanbriolat/video-harvester/stream"
)

var ErrNoThumbnail = errors.New("no thumbnail available")

// Report summarises a Run. Saved, Skipped and Unavailable count parts; Failed counts items.
type Report struct {
	RunID string
	Title string
	Items int
	// Parts saved during this run.
	Saved int
	// Parts skipped because the archive already had them.
	Skipped int
	// Parts with nothing suitable to save, e.g. no stream in the requested container.
	Unavailable int
	// Items with at least one failed part.
	Failed int
}

func (r *Report) add(result entryResult) {
	r.Saved += result.saved
	r.Skipped += result.skipped
	r.Unavailable += result.unavailable
	if result.err != nil {
		r.Failed++
	}
}

type entryResult struct {
	saved       int
	skipped     int
	unavailable int
	err         error
}

type Harvester struct {
	config Config
}

func New(config Config) *Harvester {
	return &Harvester{config: config.withDefaults()}
}

// Run harvests everything in the source's listing. Failing to get the listing aborts the run; failures of individual
// items are logged and returned together once every item has been attempted.
func (h *Harvester) Run(ctx context.Context, source video_harvester.Source) (*Report, error) {
	runID := uuid.NewString()
	report := &Report{RunID: runID}
	log := video_harvester.Logger(ctx).Sugar().Named("harvest").With("run_id", runID)

	log.Infow("fetching listing", "source", source.URL())
	listing, err := source.Recon(ctx)
	if err != nil {
		return report, fmt.Errorf("failed to list %s: %w", source.URL(), err)
	}
	report.Title = listing.Title
	report.Items = len(listing.Entries)
	log.Infow("got listing", "id", listing.ID, "title", listing.Title, "items", len(listing.Entries))

	var errs *multierror.Error
	if h.config.Parts.Contains(PartTitles) {
		if err := h.saveTitles(ctx, listing); err != nil {
			log.Errorw("failed to save titles", "error", err)
			errs = multierror.Append(errs, err)
		} else {
			report.Saved++
		}
	}

	if h.config.Parts.ContainsAny(itemParts...) {
		var mu sync.Mutex
		var g errgroup.Group
		g.SetLimit(h.config.Jobs)
		for i, entry := range listing.Entries {
			if ctx.Err() != nil {
				break
			}
			i, entry := i, entry
			g.Go(func() error {
				result := h.harvestEntry(ctx, log.With("item_id", entry.ID()), runID, listing, i+1, entry)
				mu.Lock()
				defer mu.Unlock()
				report.add(result)
				if result.err != nil {
					errs = multierror.Append(errs, result.err)
				}
				return nil
			})
		}
		_ = g.Wait()
	}

	if err := ctx.Err(); err != nil {
		errs = multierror.Append(errs, err)
	}
	log.Infow("finished",
		"saved", report.Saved,
		"skipped", report.Skipped,
		"unavailable", report.Unavailable,
		"failed", report.Failed,
	)
	return report, errs.ErrorOrNil()
}

func (h *Harvester) saveTitles(ctx context.Context, listing *video_harvester.Listing) error {
	filename, err := h.config.Naming.Path(video_harvester.FileTitles, video_harvester.NamingArgs{Listing: listing})
	if err != nil {
		return err
	}
	d, err := h.newDownload(ctx, filename)
	if err != nil {
		return err
	}
	defer d.Close()
	f, err := d.CreateFile(filename)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", filename, err)
	}
	w := bufio.NewWriter(f)
	for _, entry := range listing.Entries {
		_, _ = w.WriteString(strings.ReplaceAll(entry.Title(), "\n", " "))
		_ = w.WriteByte('\n')
	}
	if err := w.Flush(); err != nil {
		_ = f.Close()
		return fmt.Errorf("failed to write %s: %w", filename, err)
	}
	return f.Close()
}

// wantedParts returns the requested item parts the archive doesn't already have.
func (h *Harvester) wantedParts(log *zap.SugaredLogger, entry video_harvester.Entry) (parts []Part, skipped int, err error) {
	for _, part := range itemParts {
		if !h.config.Parts.Contains(part) {
			continue
		}
		record, err := h.config.Archive.Get(entry.ID(), string(part))
		if err != nil {
			return nil, 0, fmt.Errorf("failed to check archive: %w", err)
		}
		if record == nil {
			parts = append(parts, part)
			continue
		}
		log.Debugw("already archived", "part", part, "path", record.Path, "run_id", record.RunID)
		logTitleChange(log, record, entry.Title())
		skipped++
	}
	return parts, skipped, nil
}

func (h *Harvester) harvestEntry(
	ctx context.Context,
	log *zap.SugaredLogger,
	runID string,
	listing *video_harvester.Listing,
	index int,
	entry video_harvester.Entry,
) (result entryResult) {
	parts, skipped, err := h.wantedParts(log, entry)
	result.skipped = skipped
	if err != nil {
		result.err = fmt.Errorf("%s: %w", entry.ID(), err)
		return result
	}
	if len(parts) == 0 {
		return result
	}

	log.Infow("harvesting", "title", entry.Title(), "index", index)
	item, err := entry.Resolve(ctx)
	if err != nil {
		log.Errorw("failed to resolve item", "error", err)
		result.err = fmt.Errorf("%s: %w", entry.ID(), err)
		return result
	}
	job := &itemJob{
		harvester: h,
		runID:     runID,
		item:      item,
		info:      item.Info(),
		args:      video_harvester.NamingArgs{Listing: listing, Index: index},
	}
	job.args.Info = job.info
	job.selectStreams(parts)

	var errs *multierror.Error
	for _, part := range parts {
		log := log.With("part", part)
		saved, err := job.save(ctx, log, part)
		switch {
		case errors.Is(err, stream.ErrNoEligibleStream) || errors.Is(err, ErrNoThumbnail):
			log.Warnw("nothing to save", "error", err)
			result.unavailable++
		case err != nil:
			log.Errorw("failed to save", "error", err)
			errs = multierror.Append(errs, fmt.Errorf("%s %s: %w", job.info.ID, part, err))
		default:
			log.Infow("saved", "path", saved.Path)
			result.saved++
			saved.ItemID = entry.ID()
			saved.Part = string(part)
			saved.Title = job.info.Title
			saved.RunID = runID
			saved.SavedAt = time.Now().UTC()
			if err := h.config.Archive.Put(saved); err != nil {
				errs = multierror.Append(errs, fmt.Errorf("%s %s: failed to update archive: %w", job.info.ID, part, err))
			}
		}
	}
	result.err = errs.ErrorOrNil()
	return result
}

func (h *Harvester) newDownload(ctx context.Context, description string) (video_harvester.Download, error) {
	b := video_harvester.NewDownloadBuilder().
		WithContext(ctx).
		WithHTTPClient(h.config.HTTPClient).
		WithTargetDir(h.config.TargetDir).
		WithTempDir(h.config.TempDir)
	if h.config.Progress != nil {
		if f := h.config.Progress(description); f != nil {
			b = b.WithProgressCallback(f)
		}
	}
	return b.Build()
}
