package memnative

import (
	"strconv"
	"strings"
	"time"

	"github.com/tingold/orb-meos/native"
)

// formatFloat prints v in its shortest form, or rounded to maxdd decimal
// digits when the shortest form is longer.
func formatFloat(v float64, maxdd int) string {
	s := strconv.FormatFloat(v, 'f', -1, 64)
	if i := strings.IndexByte(s, '.'); i >= 0 && maxdd >= 0 && len(s)-i-1 > maxdd {
		s = strconv.FormatFloat(v, 'f', maxdd, 64)
		if strings.IndexByte(s, '.') >= 0 {
			s = strings.TrimRight(s, "0")
			s = strings.TrimSuffix(s, ".")
		}
	}
	if s == "-0" {
		s = "0"
	}
	return s
}

type formatter struct {
	loc   *time.Location
	maxdd int
}

func (f formatter) temporal(t *temporal) string {
	var b strings.Builder
	if t.interp == native.InterpStep {
		b.WriteString("Interp=Step;")
	}
	switch t.subtype {
	case native.SubtypeInstant:
		f.instant(&b, t.instants[0])
	case native.SubtypeSequence:
		f.sequence(&b, t)
	case native.SubtypeSequenceSet:
		b.WriteByte('{')
		for i, s := range t.seqs {
			if i > 0 {
				b.WriteString(", ")
			}
			f.sequence(&b, s)
		}
		b.WriteByte('}')
	}
	return b.String()
}

func (f formatter) ewkt(t *temporal) string {
	if t.srid == 0 {
		return f.temporal(t)
	}
	return "SRID=" + strconv.Itoa(int(t.srid)) + ";" + f.temporal(t)
}

func (f formatter) sequence(b *strings.Builder, t *temporal) {
	lo, hi := byte('['), byte(']')
	switch {
	case t.interp == native.InterpDiscrete:
		lo, hi = '{', '}'
	default:
		if !t.lowerInc {
			lo = '('
		}
		if !t.upperInc {
			hi = ')'
		}
	}
	b.WriteByte(lo)
	for i, in := range t.instants {
		if i > 0 {
			b.WriteString(", ")
		}
		f.instant(b, in)
	}
	b.WriteByte(hi)
}

func (f formatter) instant(b *strings.Builder, in instant) {
	b.WriteString("POINT(")
	b.WriteString(formatFloat(in.pt[0], f.maxdd))
	b.WriteByte(' ')
	b.WriteString(formatFloat(in.pt[1], f.maxdd))
	b.WriteString(")@")
	b.WriteString(formatTimestamp(in.t, f.loc, ' '))
}
