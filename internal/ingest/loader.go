package ingest

import (
	"context"
	"fmt"
	"io"
	"sort"

	"go.uber.org/zap"

	meos "github.com/tingold/orb-meos"
)

// LoadOptions configures GroupTracks and a Loader.
type LoadOptions struct {
	BatchSize   int // Posits per stored sequence
	MinTripSize int // Vessels with fewer posits are skipped
	MaxTripSize int // Posits kept per vessel; 0 keeps all
	Limit       int // Vessels loaded; 0 loads all
}

// DefaultLoadOptions returns batches of 50 posits with no truncation or
// vessel limit.
func DefaultLoadOptions() LoadOptions {
	return LoadOptions{
		BatchSize:   50,
		MinTripSize: 1,
	}
}

// Track is the time ordered posits of one vessel.
type Track struct {
	MMSI   int64
	Posits []Posit
}

// GroupTracks groups posits by vessel and orders each group by time,
// dropping posits that repeat the previous timestamp and truncating to
// MaxTripSize. Tracks shorter than MinTripSize are removed. The result is
// ordered by track length, then MMSI, and cut to Limit tracks. It returns
// the tracks and the number of duplicate posits dropped.
func GroupTracks(posits []Posit, opts LoadOptions) ([]Track, int) {
	groups := make(map[int64][]Posit)
	for _, p := range posits {
		groups[p.MMSI] = append(groups[p.MMSI], p.truncated())
	}

	dropped := 0
	tracks := make([]Track, 0, len(groups))
	for id, g := range groups {
		sort.SliceStable(g, func(i, j int) bool { return g[i].Time.Before(g[j].Time) })

		kept := g[:0]
		for _, p := range g {
			if len(kept) > 0 && p.Time.Equal(kept[len(kept)-1].Time) {
				dropped++
				continue
			}
			kept = append(kept, p)
		}
		if opts.MaxTripSize > 0 && len(kept) > opts.MaxTripSize {
			kept = kept[:opts.MaxTripSize]
		}
		if len(kept) < opts.MinTripSize || len(kept) == 0 {
			continue
		}
		tracks = append(tracks, Track{MMSI: id, Posits: kept})
	}

	sort.Slice(tracks, func(i, j int) bool {
		if len(tracks[i].Posits) != len(tracks[j].Posits) {
			return len(tracks[i].Posits) < len(tracks[j].Posits)
		}
		return tracks[i].MMSI < tracks[j].MMSI
	})
	if opts.Limit > 0 && len(tracks) > opts.Limit {
		tracks = tracks[:opts.Limit]
	}
	return tracks, dropped
}

// ReadPosits reads every record of paths, up to limit records when limit is
// positive. Invalid records are logged and counted, not returned as errors.
func ReadPosits(paths []string, limit int) ([]Posit, int, error) {
	var (
		posits  []Posit
		invalid int
	)
	_, err := ReadFiles(paths, limit, func(rec AISRecord) error {
		p, err := PositFromRecord(rec)
		if err != nil {
			invalid++
			Logger().Debug("skipping record", zap.Error(err))
			return nil
		}
		posits = append(posits, p)
		return nil
	})
	return posits, invalid, err
}

// Loader writes tracks to a sink in chunks of BatchSize posits.
type Loader struct {
	rt       *meos.Runtime
	sink     Sink
	opts     LoadOptions
	progress *Progress
}

// NewLoader returns a Loader. Progress markers go to progress, which may
// be nil.
func NewLoader(rt *meos.Runtime, sink Sink, opts LoadOptions, progress io.Writer) (*Loader, error) {
	if opts.BatchSize < 1 {
		return nil, fmt.Errorf("%w: %d", ErrBatchSize, opts.BatchSize)
	}
	return &Loader{
		rt:       rt,
		sink:     sink,
		opts:     opts,
		progress: NewProgress(progress),
	}, nil
}

// Load writes every track and stops at the first error.
func (l *Loader) Load(ctx context.Context, tracks []Track) (Stats, error) {
	var stats Stats
	for _, tr := range tracks {
		if err := ctx.Err(); err != nil {
			return stats, err
		}
		for start := 0; start < len(tr.Posits); start += l.opts.BatchSize {
			end := min(start+l.opts.BatchSize, len(tr.Posits))
			chunk := tr.Posits[start:end]
			if err := l.write(ctx, tr.MMSI, chunk); err != nil {
				return stats, err
			}
			stats.Trips++
			stats.Posits += len(chunk)
			l.progress.Posits(len(chunk))
		}
		stats.Vessels++
		l.progress.Vessel()
	}
	Logger().Info("load complete",
		zap.Int("vessels", stats.Vessels),
		zap.Int("trips", stats.Trips),
		zap.Int("posits", stats.Posits),
	)
	return stats, nil
}

func (l *Loader) write(ctx context.Context, id int64, chunk []Posit) error {
	opts := meos.DefaultSequenceOptions()
	opts.Normalize = false
	seq, err := makeSequence(l.rt, chunk, opts)
	if err != nil {
		return fmt.Errorf("vessel %d: %w", id, err)
	}
	defer seq.Close()

	if err := l.sink.WriteTrip(ctx, id, seq); err != nil {
		return fmt.Errorf("vessel %d: %w", id, err)
	}
	return nil
}
