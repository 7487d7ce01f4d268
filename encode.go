package meos

// AsText returns the text form of t with at most maxdd decimal digits.
func (t *temporal) AsText(maxdd int) (string, error) {
	n := t.rt.enter()
	defer t.rt.exit()

	p := n.TemporalOut(t.live(), maxdd)
	if p == 0 {
		return "", nativeError(n, ErrEncoding, "text")
	}
	return takeString(n, p)
}

// AsEWKT is AsText prefixed with SRID=n; when t has a spatial reference.
func (t *temporal) AsEWKT(maxdd int) (string, error) {
	n := t.rt.enter()
	defer t.rt.exit()

	p := n.TPointAsEWKT(t.live(), maxdd)
	if p == 0 {
		return "", nativeError(n, ErrEncoding, "ewkt")
	}
	return takeString(n, p)
}

// AsMFJSON returns the OGC Moving Features JSON encoding of t.
func (t *temporal) AsMFJSON(opts MFJSONOptions) (string, error) {
	srs, err := cString(opts.SRS)
	if err != nil {
		return "", err
	}
	flags := 0
	if opts.Pretty {
		flags = 2
	}

	n := t.rt.enter()
	defer t.rt.exit()

	p := n.TemporalAsMFJSON(t.live(), opts.WithBBox, flags, opts.Precision, srs)
	if p == 0 {
		return "", nativeError(n, ErrEncoding, "mfjson")
	}
	return takeString(n, p)
}

// AsWKB returns the binary encoding of t.
func (t *temporal) AsWKB(v WKBVariant) ([]byte, error) {
	n := t.rt.enter()
	defer t.rt.exit()

	p, size := n.TemporalAsWKB(t.live(), uint8(v))
	if p == 0 {
		return nil, nativeError(n, ErrEncoding, "wkb")
	}
	return takeBytes(n, p, size), nil
}

// AsHexWKB returns the binary encoding of t as upper case hex.
func (t *temporal) AsHexWKB(v WKBVariant) (string, error) {
	n := t.rt.enter()
	defer t.rt.exit()

	p, _ := n.TemporalAsHexWKB(t.live(), uint8(v))
	if p == 0 {
		return "", nativeError(n, ErrEncoding, "hex wkb")
	}
	return takeString(n, p)
}
