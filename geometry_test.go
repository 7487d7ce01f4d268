package meos

import (
	"testing"
	"time"

	"github.com/paulmach/orb"
)

func TestTrajectory(t *testing.T) {
	rt, _ := newTestRuntime(t)

	tests := []struct {
		name string
		text string
		want orb.Geometry
	}{
		{
			"Instant",
			"POINT(1 2)@2000-01-01",
			orb.Point{1, 2},
		},
		{
			"SingleInstantSequence",
			"[POINT(1 2)@2000-01-01]",
			orb.Point{1, 2},
		},
		{
			"Linear",
			"[POINT(1 1)@2000-01-01, POINT(2 5)@2000-01-02]",
			orb.LineString{{1, 1}, {2, 5}},
		},
		{
			"Discrete",
			"{POINT(1 1)@2000-01-01, POINT(2 5)@2000-01-02}",
			orb.MultiPoint{{1, 1}, {2, 5}},
		},
		{
			"SequenceSet",
			"{[POINT(1 1)@2000-01-01, POINT(2 5)@2000-01-02], [POINT(3 3)@2000-01-03, POINT(4 4)@2000-01-04]}",
			orb.MultiLineString{{{1, 1}, {2, 5}}, {{3, 3}, {4, 4}}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, err := rt.Parse(tt.text)
			if err != nil {
				t.Fatalf("Parse failed: %v", err)
			}
			defer v.Close()

			got, err := Trajectory(v)
			if err != nil {
				t.Fatalf("Trajectory failed: %v", err)
			}
			if !orb.Equal(got, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, got)
			}
		})
	}
}

func TestSamples(t *testing.T) {
	rt, _ := newTestRuntime(t)

	seq, err := rt.ParseSequence("[POINT(-73.123456789 40.5)@2023-06-01 12:00:00+00, POINT(-73.2 40.6)@2023-06-01 12:00:30.25+00]")
	if err != nil {
		t.Fatalf("ParseSequence failed: %v", err)
	}
	defer seq.Close()

	samples, err := Samples(seq)
	if err != nil {
		t.Fatalf("Samples failed: %v", err)
	}
	if len(samples) != 1 || len(samples[0]) != 2 {
		t.Fatalf("unexpected shape %v", samples)
	}

	first, second := samples[0][0], samples[0][1]
	if first.Point != (orb.Point{-73.123456789, 40.5}) {
		t.Errorf("expected full precision point, got %v", first.Point)
	}
	if want := time.Date(2023, 6, 1, 12, 0, 0, 0, time.UTC); !first.Time.Equal(want) {
		t.Errorf("expected %v, got %v", want, first.Time)
	}
	if want := time.Date(2023, 6, 1, 12, 0, 30, 250000000, time.UTC); !second.Time.Equal(want) {
		t.Errorf("expected %v, got %v", want, second.Time)
	}
}

func TestParseMFJSONTime(t *testing.T) {
	for _, s := range []string{
		"2000-01-01T00:00:00+00",
		"2000-01-01T05:30:00+05:30",
		"1999-12-31T19:03:58-04:56:02",
		"2000-01-01T00:00:00Z",
	} {
		ts, err := parseMFJSONTime(s)
		if err != nil {
			t.Errorf("%q: %v", s, err)
			continue
		}
		if !ts.Equal(time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC)) {
			t.Errorf("%q: got %v", s, ts)
		}
	}

	if _, err := parseMFJSONTime("yesterday"); err == nil {
		t.Error("expected error for invalid time")
	}
}
