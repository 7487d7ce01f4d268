package memnative

import (
	"cmp"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/tingold/orb-meos/native"
)

type span[T int64 | float64] struct {
	lower, upper       T
	lowerInc, upperInc bool
}

func (s span[T]) valid() bool {
	if s.lower > s.upper {
		return false
	}
	return s.lower != s.upper || (s.lowerInc && s.upperInc)
}

func (s span[T]) contains(o span[T]) bool {
	lowerOK := s.lower < o.lower || (s.lower == o.lower && (s.lowerInc || !o.lowerInc))
	upperOK := s.upper > o.upper || (s.upper == o.upper && (s.upperInc || !o.upperInc))
	return lowerOK && upperOK
}

func (s span[T]) overlaps(o span[T]) bool {
	before := func(a, b span[T]) bool {
		return a.upper < b.lower || (a.upper == b.lower && !(a.upperInc && b.lowerInc))
	}
	return !before(s, o) && !before(o, s)
}

func (s span[T]) same(o span[T]) bool {
	return s.lower == o.lower && s.upper == o.upper
}

// compare orders spans by lower bound, inclusive first, then upper bound,
// exclusive first.
func (s span[T]) compare(o span[T]) int {
	if c := cmp.Compare(s.lower, o.lower); c != 0 {
		return c
	}
	if s.lowerInc != o.lowerInc {
		if s.lowerInc {
			return -1
		}
		return 1
	}
	if c := cmp.Compare(s.upper, o.upper); c != 0 {
		return c
	}
	if s.upperInc != o.upperInc {
		if s.upperInc {
			return 1
		}
		return -1
	}
	return 0
}

func boolCompare(a, b bool) int {
	switch {
	case a == b:
		return 0
	case a:
		return 1
	default:
		return -1
	}
}

type tboxValue struct {
	hasX, hasT bool
	isInt      bool
	x          span[float64]
	t          span[int64]
}

type stboxValue struct {
	hasX, hasZ, hasT bool
	srid             int32
	xmin, ymin, zmin float64
	xmax, ymax, zmax float64
	t                span[int64]
}

func (p parser) numSpan(s string, isInt bool) (span[float64], error) {
	var sp span[float64]
	s = strings.TrimSpace(s)
	if len(s) < 2 {
		return sp, fmt.Errorf("invalid span %q", s)
	}
	sp.lowerInc = s[0] == '['
	sp.upperInc = s[len(s)-1] == ']'
	if (s[0] != '[' && s[0] != '(') || (s[len(s)-1] != ']' && s[len(s)-1] != ')') {
		return sp, fmt.Errorf("invalid span %q", s)
	}
	lo, hi, ok := strings.Cut(s[1:len(s)-1], ",")
	if !ok {
		return sp, fmt.Errorf("invalid span %q", s)
	}
	var err error
	if sp.lower, err = strconv.ParseFloat(strings.TrimSpace(lo), 64); err != nil {
		return sp, fmt.Errorf("invalid span bound %q", lo)
	}
	if sp.upper, err = strconv.ParseFloat(strings.TrimSpace(hi), 64); err != nil {
		return sp, fmt.Errorf("invalid span bound %q", hi)
	}
	if isInt {
		if sp.lower != math.Trunc(sp.lower) || sp.upper != math.Trunc(sp.upper) {
			return sp, fmt.Errorf("invalid integer span %q", s)
		}
		// Integer spans are kept in canonical [lower, upper) form.
		if !sp.lowerInc {
			sp.lower++
			sp.lowerInc = true
		}
		if sp.upperInc {
			sp.upper++
			sp.upperInc = false
		}
	}
	if !sp.valid() {
		return sp, fmt.Errorf("invalid span %q: lower bound must be less than upper bound", s)
	}
	return sp, nil
}

func (p parser) timeSpan(s string) (span[int64], error) {
	var sp span[int64]
	s = strings.TrimSpace(s)
	if len(s) < 2 || (s[0] != '[' && s[0] != '(') || (s[len(s)-1] != ']' && s[len(s)-1] != ')') {
		return sp, fmt.Errorf("invalid period %q", s)
	}
	sp.lowerInc = s[0] == '['
	sp.upperInc = s[len(s)-1] == ']'
	lo, hi, ok := strings.Cut(s[1:len(s)-1], ",")
	if !ok {
		return sp, fmt.Errorf("invalid period %q", s)
	}
	var err error
	if sp.lower, err = parseTimestamp(lo, p.loc); err != nil {
		return sp, err
	}
	if sp.upper, err = parseTimestamp(hi, p.loc); err != nil {
		return sp, err
	}
	if !sp.valid() {
		return sp, fmt.Errorf("invalid period %q: lower bound must be less than upper bound", s)
	}
	return sp, nil
}

// tbox parses "TBOX[INT|FLOAT] X(span)", "... T(period)" and
// "... XT(span,period)".
func (p parser) tbox(s string) (*tboxValue, error) {
	s = strings.TrimSpace(s)
	box := &tboxValue{}
	rest, ok := cutPrefixFold(s, "TBOXINT")
	if ok {
		box.isInt = true
	} else if rest, ok = cutPrefixFold(s, "TBOXFLOAT"); !ok {
		if rest, ok = cutPrefixFold(s, "TBOX"); !ok {
			return nil, fmt.Errorf("could not parse temporal box %q", s)
		}
	}
	dims, body, err := boxBody(rest)
	if err != nil {
		return nil, err
	}
	switch strings.ToUpper(dims) {
	case "X":
		box.hasX = true
		box.x, err = p.numSpan(body, box.isInt)
	case "T":
		if box.isInt {
			return nil, errors.New("a temporal box without value dimension cannot be an integer box")
		}
		box.hasT = true
		box.t, err = p.timeSpan(body)
	case "XT":
		var parts []string
		if parts, err = splitTop(body); err != nil {
			return nil, err
		}
		if len(parts) != 2 {
			return nil, fmt.Errorf("expected a span and a period in %q", s)
		}
		box.hasX, box.hasT = true, true
		if box.x, err = p.numSpan(parts[0], box.isInt); err == nil {
			box.t, err = p.timeSpan(parts[1])
		}
	default:
		return nil, fmt.Errorf("unknown temporal box dimensions %q", dims)
	}
	if err != nil {
		return nil, err
	}
	return box, nil
}

// boxBody splits " XT(...)" into "XT" and the text between the parentheses.
func boxBody(s string) (string, string, error) {
	s = strings.TrimSpace(s)
	open := strings.IndexByte(s, '(')
	if open < 0 || !strings.HasSuffix(s, ")") {
		return "", "", fmt.Errorf("missing parentheses in box %q", s)
	}
	return strings.TrimSpace(s[:open]), strings.TrimSpace(s[open+1 : len(s)-1]), nil
}

func (f formatter) tbox(box *tboxValue) string {
	var b strings.Builder
	switch {
	case !box.hasX:
		b.WriteString("TBOX")
	case box.isInt:
		b.WriteString("TBOXINT")
	default:
		b.WriteString("TBOXFLOAT")
	}
	switch {
	case box.hasX && box.hasT:
		b.WriteString(" XT(")
		f.numSpan(&b, box.x, box.isInt)
		b.WriteByte(',')
		f.timeSpan(&b, box.t)
	case box.hasX:
		b.WriteString(" X(")
		f.numSpan(&b, box.x, box.isInt)
	default:
		b.WriteString(" T(")
		f.timeSpan(&b, box.t)
	}
	b.WriteByte(')')
	return b.String()
}

func (f formatter) numSpan(b *strings.Builder, s span[float64], isInt bool) {
	num := func(v float64) string {
		if isInt {
			return strconv.FormatInt(int64(v), 10)
		}
		return formatFloat(v, f.maxdd)
	}
	writeSpan(b, s.lowerInc, s.upperInc, num(s.lower), num(s.upper))
}

func (f formatter) timeSpan(b *strings.Builder, s span[int64]) {
	writeSpan(b, s.lowerInc, s.upperInc, formatTimestamp(s.lower, f.loc, ' '), formatTimestamp(s.upper, f.loc, ' '))
}

func writeSpan(b *strings.Builder, lowerInc, upperInc bool, lo, hi string) {
	if lowerInc {
		b.WriteByte('[')
	} else {
		b.WriteByte('(')
	}
	b.WriteString(lo)
	b.WriteString(", ")
	b.WriteString(hi)
	if upperInc {
		b.WriteByte(']')
	} else {
		b.WriteByte(')')
	}
}

func (a *tboxValue) equal(b *tboxValue) bool {
	return *a == *b
}

func (a *tboxValue) compare(b *tboxValue) int {
	if a.hasT && b.hasT {
		if c := a.t.compare(b.t); c != 0 {
			return c
		}
	}
	if a.hasX && b.hasX {
		if c := a.x.compare(b.x); c != 0 {
			return c
		}
	}
	if c := boolCompare(a.hasT, b.hasT); c != 0 {
		return c
	}
	if c := boolCompare(a.hasX, b.hasX); c != 0 {
		return c
	}
	return boolCompare(a.isInt, b.isInt)
}

// relate reports whether a and b share a dimension and the predicates hold
// on every shared one.
func (a *tboxValue) relate(b *tboxValue, x func(span[float64], span[float64]) bool, t func(span[int64], span[int64]) bool) bool {
	shared := false
	if a.hasX && b.hasX {
		if !x(a.x, b.x) {
			return false
		}
		shared = true
	}
	if a.hasT && b.hasT {
		if !t(a.t, b.t) {
			return false
		}
		shared = true
	}
	return shared
}

// stbox parses "[SRID=n;]STBOX X((x,y),(x,y))", Z, T, XT and ZT forms.
func (p parser) stbox(s string) (*stboxValue, error) {
	s = strings.TrimSpace(s)
	srid, s, err := cutSRID(s)
	if err != nil {
		return nil, err
	}
	rest, ok := cutPrefixFold(s, "STBOX")
	if !ok {
		return nil, fmt.Errorf("could not parse spatiotemporal box %q", s)
	}
	dims, body, err := boxBody(rest)
	if err != nil {
		return nil, err
	}
	box := &stboxValue{srid: srid}
	switch strings.ToUpper(dims) {
	case "X":
		box.hasX = true
		err = box.parseCorners(body, 2)
	case "Z":
		box.hasX, box.hasZ = true, true
		err = box.parseCorners(body, 3)
	case "T":
		box.hasT = true
		box.t, err = p.timeSpan(body)
	case "XT", "ZT":
		n := 2
		if strings.EqualFold(dims, "ZT") {
			n = 3
			box.hasZ = true
		}
		box.hasX, box.hasT = true, true
		var parts []string
		if parts, err = splitTop(body); err != nil {
			return nil, err
		}
		if len(parts) != 2 {
			return nil, fmt.Errorf("expected corners and a period in %q", s)
		}
		var corners string
		if corners, err = enclosed(parts[0], '(', ')'); err != nil {
			return nil, err
		}
		if err = box.parseCorners(corners, n); err == nil {
			box.t, err = p.timeSpan(parts[1])
		}
	default:
		return nil, fmt.Errorf("unknown spatiotemporal box dimensions %q", dims)
	}
	if err != nil {
		return nil, err
	}
	if box.hasX && (box.xmin > box.xmax || box.ymin > box.ymax || box.zmin > box.zmax) {
		return nil, fmt.Errorf("invalid spatiotemporal box %q: minimum above maximum", s)
	}
	return box, nil
}

func (b *stboxValue) parseCorners(s string, n int) error {
	parts, err := splitTop(s)
	if err != nil {
		return err
	}
	if len(parts) != 2 {
		return fmt.Errorf("expected two corners in %q", s)
	}
	lo, err := parseCoords(parts[0], n)
	if err != nil {
		return err
	}
	hi, err := parseCoords(parts[1], n)
	if err != nil {
		return err
	}
	b.xmin, b.ymin, b.xmax, b.ymax = lo[0], lo[1], hi[0], hi[1]
	if n == 3 {
		b.zmin, b.zmax = lo[2], hi[2]
	}
	return nil
}

func parseCoords(s string, n int) ([]float64, error) {
	body, err := enclosed(s, '(', ')')
	if err != nil {
		return nil, err
	}
	fields := strings.Split(body, ",")
	if len(fields) != n {
		return nil, fmt.Errorf("expected %d coordinates in %q", n, s)
	}
	out := make([]float64, n)
	for i, f := range fields {
		if out[i], err = strconv.ParseFloat(strings.TrimSpace(f), 64); err != nil {
			return nil, fmt.Errorf("invalid coordinate %q", f)
		}
	}
	return out, nil
}

func (f formatter) stbox(box *stboxValue) string {
	var b strings.Builder
	if box.srid != 0 {
		fmt.Fprintf(&b, "SRID=%d;", box.srid)
	}
	b.WriteString("STBOX ")
	corners := func() {
		num := func(v float64) string { return formatFloat(v, f.maxdd) }
		if box.hasZ {
			fmt.Fprintf(&b, "((%s,%s,%s),(%s,%s,%s))", num(box.xmin), num(box.ymin), num(box.zmin), num(box.xmax), num(box.ymax), num(box.zmax))
			return
		}
		fmt.Fprintf(&b, "((%s,%s),(%s,%s))", num(box.xmin), num(box.ymin), num(box.xmax), num(box.ymax))
	}
	switch {
	case box.hasX && box.hasT:
		if box.hasZ {
			b.WriteString("ZT(")
		} else {
			b.WriteString("XT(")
		}
		corners()
		b.WriteByte(',')
		f.timeSpan(&b, box.t)
		b.WriteByte(')')
	case box.hasX:
		if box.hasZ {
			b.WriteString("Z")
		} else {
			b.WriteString("X")
		}
		corners()
	default:
		b.WriteString("T(")
		f.timeSpan(&b, box.t)
		b.WriteByte(')')
	}
	return b.String()
}

func (a *stboxValue) equal(b *stboxValue) bool {
	return *a == *b
}

func (a *stboxValue) compare(b *stboxValue) int {
	if a.hasT && b.hasT {
		if c := a.t.compare(b.t); c != 0 {
			return c
		}
	}
	if a.hasX && b.hasX {
		for _, c := range []int{
			cmp.Compare(a.xmin, b.xmin),
			cmp.Compare(a.ymin, b.ymin),
			cmp.Compare(a.zmin, b.zmin),
			cmp.Compare(a.xmax, b.xmax),
			cmp.Compare(a.ymax, b.ymax),
			cmp.Compare(a.zmax, b.zmax),
		} {
			if c != 0 {
				return c
			}
		}
	}
	for _, c := range []int{
		boolCompare(a.hasT, b.hasT),
		boolCompare(a.hasX, b.hasX),
		boolCompare(a.hasZ, b.hasZ),
		cmp.Compare(a.srid, b.srid),
	} {
		if c != 0 {
			return c
		}
	}
	return 0
}

func (a *stboxValue) xspan() (span[float64], span[float64], span[float64]) {
	return span[float64]{a.xmin, a.xmax, true, true},
		span[float64]{a.ymin, a.ymax, true, true},
		span[float64]{a.zmin, a.zmax, true, true}
}

func (a *stboxValue) relate(b *stboxValue, x func(span[float64], span[float64]) bool, t func(span[int64], span[int64]) bool) bool {
	shared := false
	if a.hasX && b.hasX {
		ax, ay, az := a.xspan()
		bx, by, bz := b.xspan()
		if !x(ax, bx) || !x(ay, by) {
			return false
		}
		if a.hasZ && b.hasZ && !x(az, bz) {
			return false
		}
		shared = true
	}
	if a.hasT && b.hasT {
		if !t(a.t, b.t) {
			return false
		}
		shared = true
	}
	return shared
}

// temporalBox is the XT box of a temporal point.
func temporalBox(t *temporal) *stboxValue {
	box := &stboxValue{
		hasX: true,
		hasT: true,
		srid: t.srid,
		xmin: math.Inf(1), ymin: math.Inf(1),
		xmax: math.Inf(-1), ymax: math.Inf(-1),
	}
	t.each(func(in instant) {
		box.xmin = math.Min(box.xmin, in.pt[0])
		box.ymin = math.Min(box.ymin, in.pt[1])
		box.xmax = math.Max(box.xmax, in.pt[0])
		box.ymax = math.Max(box.ymax, in.pt[1])
	})
	box.t = span[int64]{lower: t.start(), upper: t.end(), lowerInc: true, upperInc: true}
	if t.subtype != native.SubtypeInstant && t.interp != native.InterpDiscrete {
		box.t.lowerInc, box.t.upperInc = t.lowerInc, t.upperInc
	}
	return box
}
