package ingest

import "io"

const (
	vesselsPerMark = 500
	positsPerMark  = 10000
)

// Progress prints "." every 500 vessels and "+" each time more than
// 10,000 posits were processed since the last "+".
type Progress struct {
	w          io.Writer
	vessels    int
	posits     int
	lastReport int
}

// NewProgress returns a Progress writing to w. A nil w discards output.
func NewProgress(w io.Writer) *Progress {
	if w == nil {
		w = io.Discard
	}
	return &Progress{w: w}
}

// Vessel records one finished vessel.
func (p *Progress) Vessel() {
	p.vessels++
	if p.vessels%vesselsPerMark == 0 {
		_, _ = io.WriteString(p.w, ".")
	}
}

// Posits records n processed posits.
func (p *Progress) Posits(n int) {
	p.posits += n
	if p.posits-p.lastReport > positsPerMark {
		p.lastReport = p.posits
		_, _ = io.WriteString(p.w, "+")
	}
}

// Counts returns the vessels and posits recorded so far.
func (p *Progress) Counts() (vessels, posits int) {
	return p.vessels, p.posits
}
