package memnative

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// TimestampTz values count microseconds from 2000-01-01 00:00:00 UTC.
const pgEpochMicros int64 = 946684800 * 1000000

var timestampLayouts = []string{
	"2006-01-02 15:04:05.999999999",
	"2006-01-02 15:04",
	"2006-01-02",
}

func parseTimestamp(s string, loc *time.Location) (int64, error) {
	s = strings.TrimSpace(s)
	if len(s) > 10 && s[10] == 'T' {
		s = s[:10] + " " + s[11:]
	}

	body, zone, err := splitZone(s)
	if err != nil {
		return 0, err
	}
	if zone != nil {
		loc = zone
	}
	for _, layout := range timestampLayouts {
		t, err := time.ParseInLocation(layout, body, loc)
		if err == nil {
			return t.UnixMicro() - pgEpochMicros, nil
		}
	}
	return 0, fmt.Errorf("invalid input syntax for type timestamp with time zone: %q", s)
}

// splitZone separates a trailing Z or numeric UTC offset from s.
func splitZone(s string) (string, *time.Location, error) {
	if strings.HasSuffix(s, "Z") || strings.HasSuffix(s, "z") {
		return strings.TrimSpace(s[:len(s)-1]), time.UTC, nil
	}
	i := strings.LastIndexAny(s, "+-")
	if i <= 10 {
		return s, nil, nil
	}
	sign := 1
	if s[i] == '-' {
		sign = -1
	}
	off := strings.ReplaceAll(s[i+1:], ":", "")
	var hh, mm, ss int
	var err error
	switch len(off) {
	case 1, 2:
		hh, err = strconv.Atoi(off)
	case 4, 6:
		hh, err = strconv.Atoi(off[:2])
		if err == nil {
			mm, err = strconv.Atoi(off[2:4])
		}
		if err == nil && len(off) == 6 {
			ss, err = strconv.Atoi(off[4:])
		}
	default:
		err = fmt.Errorf("invalid time zone offset %q", s[i:])
	}
	if err != nil {
		return "", nil, err
	}
	if hh > 15 || mm > 59 || ss > 59 {
		return "", nil, fmt.Errorf("time zone offset out of range: %q", s[i:])
	}
	return strings.TrimSpace(s[:i]), time.FixedZone("", sign*(hh*3600+mm*60+ss)), nil
}

// formatTimestamp renders ts the way PostgreSQL prints timestamptz, with sep
// between the date and the time.
func formatTimestamp(ts int64, loc *time.Location, sep byte) string {
	t := time.UnixMicro(ts + pgEpochMicros).In(loc)
	var b strings.Builder
	b.WriteString(t.Format("2006-01-02"))
	b.WriteByte(sep)
	b.WriteString(t.Format("15:04:05.999999"))

	_, off := t.Zone()
	if off < 0 {
		b.WriteByte('-')
		off = -off
	} else {
		b.WriteByte('+')
	}
	fmt.Fprintf(&b, "%02d", off/3600)
	m, sec := off%3600/60, off%60
	if m != 0 || sec != 0 {
		fmt.Fprintf(&b, ":%02d", m)
	}
	if sec != 0 {
		fmt.Fprintf(&b, ":%02d", sec)
	}
	return b.String()
}
