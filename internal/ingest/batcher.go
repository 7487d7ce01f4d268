package ingest

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	meos "github.com/tingold/orb-meos"
)

// Stats counts what a policy has seen and produced.
type Stats struct {
	Posits  int // posits accepted into trips
	Dropped int // posits not newer than the previous posit of their vessel
	Skipped int // trips dropped for having fewer than the minimum posits
	Trips   int // sequences handed to the sink
	Vessels int // distinct vessels
}

// BatchOptions configures a Batcher.
type BatchOptions struct {
	BatchSize   int // Posits per emitted sequence
	MinTripSize int // Trips with fewer posits are not emitted
}

// DefaultBatchOptions returns batches of 50 posits keeping every trip.
func DefaultBatchOptions() BatchOptions {
	return BatchOptions{
		BatchSize:   50,
		MinTripSize: 1,
	}
}

// Batcher buffers posits per vessel and emits a sequence every BatchSize
// posits. Remaining buffers are emitted by Flush.
type Batcher struct {
	rt    *meos.Runtime
	sink  Sink
	opts  BatchOptions
	bufs  map[int64][]Posit
	last  map[int64]time.Time
	order []int64
	stats Stats
}

// NewBatcher returns a Batcher emitting to sink.
func NewBatcher(rt *meos.Runtime, sink Sink, opts BatchOptions) (*Batcher, error) {
	if opts.BatchSize < 1 {
		return nil, fmt.Errorf("%w: %d", ErrBatchSize, opts.BatchSize)
	}
	return &Batcher{
		rt:   rt,
		sink: sink,
		opts: opts,
		bufs: make(map[int64][]Posit),
		last: make(map[int64]time.Time),
	}, nil
}

// Add buffers p. Posits not newer than the previous posit of the same
// vessel, compared at microsecond resolution, are dropped.
func (b *Batcher) Add(ctx context.Context, p Posit) error {
	p = p.truncated()
	last, seen := b.last[p.MMSI]
	if !seen {
		b.order = append(b.order, p.MMSI)
		b.stats.Vessels++
	} else if !p.Time.After(last) {
		b.stats.Dropped++
		return nil
	}
	b.last[p.MMSI] = p.Time

	buf := b.bufs[p.MMSI]
	if len(buf) == b.opts.BatchSize {
		if err := b.emit(ctx, p.MMSI, buf); err != nil {
			return err
		}
		buf = buf[:0]
	}
	b.bufs[p.MMSI] = append(buf, p)
	return nil
}

// Flush emits every non-empty buffer in first-seen vessel order.
func (b *Batcher) Flush(ctx context.Context) error {
	for _, id := range b.order {
		buf := b.bufs[id]
		if len(buf) == 0 {
			continue
		}
		if err := b.emit(ctx, id, buf); err != nil {
			return err
		}
		b.bufs[id] = buf[:0]
	}
	return nil
}

// Stats returns the counters so far.
func (b *Batcher) Stats() Stats {
	return b.stats
}

func (b *Batcher) emit(ctx context.Context, id int64, posits []Posit) error {
	if len(posits) < b.opts.MinTripSize {
		b.stats.Skipped++
		return nil
	}
	seq, err := makeSequence(b.rt, posits, meos.DefaultSequenceOptions())
	if err != nil {
		return fmt.Errorf("vessel %d: %w", id, err)
	}
	defer seq.Close()

	if err := b.sink.WriteTrip(ctx, id, seq); err != nil {
		return fmt.Errorf("vessel %d: %w", id, err)
	}
	b.stats.Trips++
	b.stats.Posits += len(posits)
	Logger().Debug("emitted trip",
		zap.Int64("mmsi", id),
		zap.Int("posits", len(posits)),
	)
	return nil
}
