package meos

import (
	"errors"
	"fmt"
	"math/rand"
	"testing"
)

// parseInstants parses POINT(x y)@2000-01-dd literals for each point,
// one day apart starting on day 1.
func parseInstants(t *testing.T, rt *Runtime, pts ...[2]float64) []*Instant {
	t.Helper()

	out := make([]*Instant, 0, len(pts))
	for i, p := range pts {
		inst, err := rt.ParseInstant(fmt.Sprintf("POINT(%g %g)@2000-01-%02d", p[0], p[1], i+1))
		if err != nil {
			t.Fatalf("ParseInstant failed: %v", err)
		}
		out = append(out, inst)
	}
	t.Cleanup(func() {
		for _, inst := range out {
			_ = inst.Close()
		}
	})
	return out
}

func mustText(t *testing.T, v Temporal) string {
	t.Helper()
	s, err := v.AsText(DefaultMaxDecimals)
	if err != nil {
		t.Fatalf("AsText failed: %v", err)
	}
	return s
}

func TestMakeSequence(t *testing.T) {
	rt, _ := newTestRuntime(t)
	instants := parseInstants(t, rt, [2]float64{1, 1}, [2]float64{2, 2})

	seq, err := rt.MakeSequence(instants, DefaultSequenceOptions())
	if err != nil {
		t.Fatalf("MakeSequence failed: %v", err)
	}
	defer seq.Close()

	if seq.Variant() != VariantSequence {
		t.Errorf("expected Sequence, got %s", seq.Variant())
	}
	if seq.Interp() != InterpLinear {
		t.Errorf("expected linear, got %v", seq.Interp())
	}

	want := "[POINT(1 1)@2000-01-01 00:00:00+00, POINT(2 2)@2000-01-02 00:00:00+00]"
	if got := mustText(t, seq); got != want {
		t.Errorf("expected %q, got %q", want, got)
	}
}

func TestMakeSequence_AlwaysSequence(t *testing.T) {
	rt, _ := newTestRuntime(t)
	r := rand.New(rand.NewSource(42))

	for n := 1; n <= 8; n++ {
		pts := make([][2]float64, n)
		for i := range pts {
			pts[i] = [2]float64{r.Float64() * 100, r.Float64() * 100}
		}
		instants := parseInstants(t, rt, pts...)

		for _, interp := range []Interp{InterpLinear, InterpStep, InterpDiscrete} {
			opts := DefaultSequenceOptions()
			opts.Interp = interp
			seq, err := rt.MakeSequence(instants, opts)
			if err != nil {
				t.Fatalf("n=%d %v: MakeSequence failed: %v", n, interp, err)
			}
			if seq.Variant() != VariantSequence {
				t.Errorf("n=%d %v: expected Sequence, got %s", n, interp, seq.Variant())
			}
			_ = seq.Close()
		}
	}
}

func TestMakeSequence_Invalid(t *testing.T) {
	rt, engine := newTestRuntime(t)
	instants := parseInstants(t, rt, [2]float64{1, 1}, [2]float64{2, 2})
	reversed := []*Instant{instants[1], instants[0]}

	tests := []struct {
		name     string
		instants []*Instant
		opts     func(*SequenceOptions)
	}{
		{"Empty", nil, func(*SequenceOptions) {}},
		{"CapacityTooSmall", instants, func(o *SequenceOptions) { o.MaxCount = 1 }},
		{"NoInterp", instants, func(o *SequenceOptions) { o.Interp = InterpNone }},
		{"NotIncreasing", reversed, func(*SequenceOptions) {}},
		{"Duplicate", []*Instant{instants[0], instants[0]}, func(*SequenceOptions) {}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			before := engine.Live()
			opts := DefaultSequenceOptions()
			tt.opts(&opts)

			_, err := rt.MakeSequence(tt.instants, opts)
			if !errors.Is(err, ErrConstruction) {
				t.Errorf("expected ErrConstruction, got %v", err)
			}
			if engine.Live() != before {
				t.Errorf("failed construction leaked %d allocations", engine.Live()-before)
			}
		})
	}
}

func TestMakeSequence_RejectedByNative(t *testing.T) {
	rt, _ := newTestRuntime(t)
	instants := parseInstants(t, rt, [2]float64{1, 1})

	// A single instant sequence needs inclusive bounds.
	opts := DefaultSequenceOptions()
	opts.UpperInc = false
	_, err := rt.MakeSequence(instants, opts)
	if !errors.Is(err, ErrConstruction) {
		t.Errorf("expected ErrConstruction, got %v", err)
	}
}

func TestAppend_PastCapacity(t *testing.T) {
	rt, engine := newTestRuntime(t)
	instants := parseInstants(t, rt,
		[2]float64{1, 1}, [2]float64{2, 5}, [2]float64{3, 3}, [2]float64{4, 7})

	for _, expand := range []bool{false, true} {
		t.Run(fmt.Sprintf("expand=%v", expand), func(t *testing.T) {
			opts := DefaultSequenceOptions()
			opts.Normalize = false
			seq, err := rt.MakeSequence(instants[:3], opts)
			if err != nil {
				t.Fatalf("MakeSequence failed: %v", err)
			}

			grown, err := seq.Append(instants[3], AppendOptions{Expand: expand})
			if err != nil {
				t.Fatalf("Append failed: %v", err)
			}
			defer grown.Close()

			if !seq.Released() {
				t.Error("expected the appended-to sequence to be consumed")
			}
			if grown.NumInstants() != 4 {
				t.Errorf("expected 4 instants, got %d", grown.NumInstants())
			}
			want := "[POINT(1 1)@2000-01-01 00:00:00+00, POINT(2 5)@2000-01-02 00:00:00+00, " +
				"POINT(3 3)@2000-01-03 00:00:00+00, POINT(4 7)@2000-01-04 00:00:00+00]"
			if got := mustText(t, grown); got != want {
				t.Errorf("expected %q, got %q", want, got)
			}
			// Four instants plus the grown sequence.
			if engine.Live() != 5 {
				t.Errorf("expected 5 live allocations, got %d", engine.Live())
			}
		})
	}
}

func TestAppend_InPlace(t *testing.T) {
	rt, engine := newTestRuntime(t)
	instants := parseInstants(t, rt, [2]float64{1, 1}, [2]float64{2, 5}, [2]float64{3, 3})

	opts := DefaultSequenceOptions()
	opts.MaxCount = 8
	opts.Normalize = false
	seq, err := rt.MakeSequence(instants[:1], opts)
	if err != nil {
		t.Fatalf("MakeSequence failed: %v", err)
	}

	allocs := engine.Allocs()
	for _, inst := range instants[1:] {
		seq, err = seq.Append(inst, AppendOptions{Expand: true})
		if err != nil {
			t.Fatalf("Append failed: %v", err)
		}
	}
	defer seq.Close()

	if engine.Allocs() != allocs {
		t.Errorf("expected in-place growth, got %d new allocations", engine.Allocs()-allocs)
	}
	if seq.NumInstants() != 3 {
		t.Errorf("expected 3 instants, got %d", seq.NumInstants())
	}
}

func TestAppend_OlderInstant(t *testing.T) {
	rt, _ := newTestRuntime(t)
	instants := parseInstants(t, rt, [2]float64{1, 1}, [2]float64{2, 2}, [2]float64{3, 3})

	seq, err := rt.MakeSequence(instants[1:], DefaultSequenceOptions())
	if err != nil {
		t.Fatalf("MakeSequence failed: %v", err)
	}
	defer seq.Close()

	if _, err := seq.Append(instants[0], AppendOptions{}); !errors.Is(err, ErrConstruction) {
		t.Fatalf("expected ErrConstruction, got %v", err)
	}
	if seq.Released() {
		t.Fatal("a failed append must leave the sequence usable")
	}
	if seq.NumInstants() != 2 {
		t.Errorf("expected 2 instants, got %d", seq.NumInstants())
	}
}

func TestRestartThenAppend(t *testing.T) {
	rt, _ := newTestRuntime(t)
	instants := parseInstants(t, rt,
		[2]float64{1, 1}, [2]float64{2, 5}, [2]float64{3, 3}, [2]float64{4, 7}, [2]float64{5, 4})

	opts := DefaultSequenceOptions()
	opts.Normalize = false
	seq, err := rt.MakeSequence(instants[:4], opts)
	if err != nil {
		t.Fatalf("MakeSequence failed: %v", err)
	}

	if err := seq.Restart(2); err != nil {
		t.Fatalf("Restart failed: %v", err)
	}
	want := "[POINT(3 3)@2000-01-03 00:00:00+00, POINT(4 7)@2000-01-04 00:00:00+00]"
	if got := mustText(t, seq); got != want {
		t.Errorf("after restart: expected %q, got %q", want, got)
	}

	seq, err = seq.Append(instants[4], AppendOptions{Expand: true})
	if err != nil {
		t.Fatalf("Append failed: %v", err)
	}
	defer seq.Close()

	want = "[POINT(3 3)@2000-01-03 00:00:00+00, POINT(4 7)@2000-01-04 00:00:00+00, POINT(5 4)@2000-01-05 00:00:00+00]"
	if got := mustText(t, seq); got != want {
		t.Errorf("after append: expected %q, got %q", want, got)
	}
}

func TestRestart_Bounds(t *testing.T) {
	rt, _ := newTestRuntime(t)
	instants := parseInstants(t, rt, [2]float64{1, 1}, [2]float64{2, 5})

	seq, err := rt.MakeSequence(instants, DefaultSequenceOptions())
	if err != nil {
		t.Fatalf("MakeSequence failed: %v", err)
	}
	defer seq.Close()

	if err := seq.Restart(0); !errors.Is(err, ErrConstruction) {
		t.Errorf("expected ErrConstruction for keep 0, got %v", err)
	}
	if err := seq.Restart(5); err != nil {
		t.Errorf("Restart past length failed: %v", err)
	}
	if seq.NumInstants() != 2 {
		t.Errorf("expected 2 instants, got %d", seq.NumInstants())
	}
}
