package memnative

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/paulmach/orb/encoding/wkt"

	"github.com/tingold/orb-meos/native"
)

// parser reads the tgeompoint text format:
//
//	[SRID=n;][Interp=Step;]POINT(x y)@ts
//	[SRID=n;][Interp=Step;][inst, inst, ...]      bounds may be [ ] ( )
//	[SRID=n;]{inst, inst, ...}                    discrete sequence
//	[SRID=n;][Interp=Step;]{[...], [...], ...}    sequence set
type parser struct {
	loc *time.Location
}

func (p parser) temporal(s string) (*temporal, error) {
	s = strings.TrimSpace(s)
	srid, s, err := cutSRID(s)
	if err != nil {
		return nil, err
	}

	interp, explicit := native.InterpLinear, false
	if rest, ok := cutPrefixFold(s, "Interp=Step;"); ok {
		interp, explicit, s = native.InterpStep, true, strings.TrimSpace(rest)
	} else if rest, ok := cutPrefixFold(s, "Interp=Linear;"); ok {
		explicit, s = true, strings.TrimSpace(rest)
	}
	if s == "" {
		return nil, errors.New("empty temporal value")
	}

	var t *temporal
	switch s[0] {
	case '{':
		body, err := enclosed(s, '{', '}')
		if err != nil {
			return nil, err
		}
		if body != "" && (body[0] == '[' || body[0] == '(') {
			t, err = p.sequenceSet(body, interp, srid)
		} else {
			if explicit {
				return nil, errors.New("a discrete sequence cannot have an interpolation prefix")
			}
			t, err = p.discrete(body, srid)
		}
		if err != nil {
			return nil, err
		}
	case '[', '(':
		t, err = p.sequence(s, interp, srid)
		if err != nil {
			return nil, err
		}
	default:
		t, err = p.instant(s, srid)
		if err != nil {
			return nil, err
		}
	}
	return t, nil
}

func (p parser) instant(s string, srid int32) (*temporal, error) {
	in, isrid, err := p.sample(s)
	if err != nil {
		return nil, err
	}
	srid, err = mergeSRID(srid, isrid)
	if err != nil {
		return nil, err
	}
	return newInstant(srid, in), nil
}

// sample parses "POINT(x y)@ts", optionally prefixed with SRID=n;.
func (p parser) sample(s string) (instant, int32, error) {
	s = strings.TrimSpace(s)
	at := strings.LastIndexByte(s, '@')
	if at < 0 {
		return instant{}, 0, fmt.Errorf("missing '@' in temporal instant %q", s)
	}
	srid, geom, err := cutSRID(strings.TrimSpace(s[:at]))
	if err != nil {
		return instant{}, 0, err
	}
	if rest, ok := cutPrefixFold(geom, "POINT"); ok {
		geom = "POINT" + rest
	}
	pt, err := wkt.UnmarshalPoint(geom)
	if err != nil {
		return instant{}, 0, fmt.Errorf("invalid point %q: %w", geom, err)
	}
	ts, err := parseTimestamp(s[at+1:], p.loc)
	if err != nil {
		return instant{}, 0, err
	}
	return instant{pt: pt, t: ts}, srid, nil
}

func (p parser) samples(body string, srid int32) ([]instant, int32, error) {
	parts, err := splitTop(body)
	if err != nil {
		return nil, 0, err
	}
	out := make([]instant, 0, len(parts))
	for _, part := range parts {
		in, isrid, err := p.sample(part)
		if err != nil {
			return nil, 0, err
		}
		if srid, err = mergeSRID(srid, isrid); err != nil {
			return nil, 0, err
		}
		out = append(out, in)
	}
	return out, srid, nil
}

func (p parser) discrete(body string, srid int32) (*temporal, error) {
	instants, srid, err := p.samples(body, srid)
	if err != nil {
		return nil, err
	}
	return newSequence(instants, srid, len(instants), true, true, native.InterpDiscrete, true)
}

func (p parser) sequence(s string, interp native.Interp, srid int32) (*temporal, error) {
	if len(s) < 2 {
		return nil, fmt.Errorf("invalid temporal sequence %q", s)
	}
	lowerInc := s[0] == '['
	var upperInc bool
	switch s[len(s)-1] {
	case ']':
		upperInc = true
	case ')':
	default:
		return nil, fmt.Errorf("missing closing bracket in temporal sequence %q", s)
	}
	instants, srid, err := p.samples(s[1:len(s)-1], srid)
	if err != nil {
		return nil, err
	}
	return newSequence(instants, srid, len(instants), lowerInc, upperInc, interp, true)
}

func (p parser) sequenceSet(body string, interp native.Interp, srid int32) (*temporal, error) {
	parts, err := splitTop(body)
	if err != nil {
		return nil, err
	}
	seqs := make([]*temporal, 0, len(parts))
	for _, part := range parts {
		if part[0] != '[' && part[0] != '(' {
			return nil, fmt.Errorf("expected a temporal sequence, got %q", part)
		}
		seq, err := p.sequence(part, interp, srid)
		if err != nil {
			return nil, err
		}
		if srid, err = mergeSRID(srid, seq.srid); err != nil {
			return nil, err
		}
		seqs = append(seqs, seq)
	}
	for _, seq := range seqs {
		seq.srid = srid
	}
	return newSequenceSet(seqs)
}

// cutSRID strips an optional leading "SRID=n;".
func cutSRID(s string) (int32, string, error) {
	rest, ok := cutPrefixFold(s, "SRID=")
	if !ok {
		return 0, s, nil
	}
	semi := strings.IndexByte(rest, ';')
	if semi < 0 {
		return 0, "", fmt.Errorf("missing ';' after SRID in %q", s)
	}
	n, err := strconv.ParseInt(strings.TrimSpace(rest[:semi]), 10, 32)
	if err != nil {
		return 0, "", fmt.Errorf("invalid SRID in %q", s)
	}
	return int32(n), strings.TrimSpace(rest[semi+1:]), nil
}

func mergeSRID(outer, inner int32) (int32, error) {
	switch {
	case inner == 0 || inner == outer:
		return outer, nil
	case outer == 0:
		return inner, nil
	default:
		return 0, errMixedSRID
	}
}

func cutPrefixFold(s, prefix string) (string, bool) {
	if len(s) >= len(prefix) && strings.EqualFold(s[:len(prefix)], prefix) {
		return s[len(prefix):], true
	}
	return s, false
}

// enclosed returns the text between a leading open and a trailing close.
func enclosed(s string, lo, hi byte) (string, error) {
	s = strings.TrimSpace(s)
	if len(s) < 2 || s[0] != lo || s[len(s)-1] != hi {
		return "", fmt.Errorf("expected %q ... %q in %q", lo, hi, s)
	}
	return strings.TrimSpace(s[1 : len(s)-1]), nil
}

// splitTop splits s on commas that are not nested in brackets.
func splitTop(s string) ([]string, error) {
	var parts []string
	depth, start := 0, 0
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '(', '[', '{':
			depth++
		case ')', ']', '}':
			depth--
			if depth < 0 {
				return nil, fmt.Errorf("unbalanced brackets in %q", s)
			}
		case ',':
			if depth == 0 {
				parts = append(parts, strings.TrimSpace(s[start:i]))
				start = i + 1
			}
		}
	}
	if depth != 0 {
		return nil, fmt.Errorf("unbalanced brackets in %q", s)
	}
	parts = append(parts, strings.TrimSpace(s[start:]))
	for _, p := range parts {
		if p == "" {
			return nil, fmt.Errorf("empty element in %q", s)
		}
	}
	return parts, nil
}
