package ingest

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	meos "github.com/tingold/orb-meos"
)

// TrackOptions configures a Tracker.
type TrackOptions struct {
	BatchSize int // Instants held per vessel before a restart
	Keep      int // Most recent instants kept on restart
}

// DefaultTrackOptions returns a capacity of 100 instants keeping the
// last 2 on restart.
func DefaultTrackOptions() TrackOptions {
	return TrackOptions{
		BatchSize: 100,
		Keep:      2,
	}
}

// Tracker keeps one growing sequence per vessel. Each posit is appended
// in place when capacity allows; when a sequence reaches BatchSize
// instants it is emitted and restarted from its last Keep instants.
type Tracker struct {
	rt    *meos.Runtime
	sink  Sink
	opts  TrackOptions
	seqs  map[int64]*meos.Sequence
	order []int64
	stats Stats
}

// NewTracker returns a Tracker. A nil sink discards full sequences.
func NewTracker(rt *meos.Runtime, sink Sink, opts TrackOptions) (*Tracker, error) {
	if opts.BatchSize < 2 {
		return nil, fmt.Errorf("%w: %d", ErrBatchSize, opts.BatchSize)
	}
	if opts.Keep < 1 || opts.Keep >= opts.BatchSize {
		return nil, fmt.Errorf("%w: keep %d with batch size %d", ErrBatchSize, opts.Keep, opts.BatchSize)
	}
	return &Tracker{
		rt:   rt,
		sink: sink,
		opts: opts,
		seqs: make(map[int64]*meos.Sequence),
	}, nil
}

// Add appends p to the sequence of its vessel.
func (t *Tracker) Add(ctx context.Context, p Posit) error {
	p = p.truncated()
	seq, ok := t.seqs[p.MMSI]
	if ok && !p.Time.After(seq.End()) {
		t.stats.Dropped++
		return nil
	}

	inst, err := p.Instant(t.rt)
	if err != nil {
		return fmt.Errorf("vessel %d: %w", p.MMSI, err)
	}
	defer inst.Close()

	if !ok {
		opts := meos.DefaultSequenceOptions()
		opts.MaxCount = t.opts.BatchSize
		opts.Normalize = false
		seq, err = t.rt.MakeSequence([]*meos.Instant{inst}, opts)
		if err != nil {
			return fmt.Errorf("vessel %d: %w", p.MMSI, err)
		}
		t.seqs[p.MMSI] = seq
		t.order = append(t.order, p.MMSI)
		t.stats.Vessels++
		t.stats.Posits++
		return nil
	}

	if seq.NumInstants() >= t.opts.BatchSize {
		if err := t.emit(ctx, p.MMSI, seq); err != nil {
			return err
		}
		if err := seq.Restart(t.opts.Keep); err != nil {
			return fmt.Errorf("vessel %d: %w", p.MMSI, err)
		}
	}

	grown, err := seq.Append(inst, meos.AppendOptions{Expand: true})
	if err != nil {
		return fmt.Errorf("vessel %d: %w", p.MMSI, err)
	}
	t.seqs[p.MMSI] = grown
	t.stats.Posits++
	return nil
}

// Sequence returns the live sequence of a vessel. It stays owned by the
// Tracker.
func (t *Tracker) Sequence(id int64) (*meos.Sequence, bool) {
	seq, ok := t.seqs[id]
	return seq, ok
}

// Close emits every live sequence in first-seen vessel order and releases
// them. Sequences are released even when the sink fails.
func (t *Tracker) Close(ctx context.Context) error {
	var firstErr error
	for _, id := range t.order {
		seq := t.seqs[id]
		if firstErr == nil {
			firstErr = t.emit(ctx, id, seq)
		}
		_ = seq.Close()
		delete(t.seqs, id)
	}
	t.order = nil
	return firstErr
}

// Stats returns the counters so far.
func (t *Tracker) Stats() Stats {
	return t.stats
}

func (t *Tracker) emit(ctx context.Context, id int64, seq *meos.Sequence) error {
	if t.sink == nil {
		return nil
	}
	if err := t.sink.WriteTrip(ctx, id, seq); err != nil {
		return fmt.Errorf("vessel %d: %w", id, err)
	}
	t.stats.Trips++
	Logger().Debug("emitted sequence",
		zap.Int64("mmsi", id),
		zap.Int("instants", seq.NumInstants()),
	)
	return nil
}
