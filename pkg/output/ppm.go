package output

import (
	"bufio"
	"fmt"
	"io"
)

// PPMSink buffers pixels and writes them as an ASCII (P3) portable pixmap
type PPMSink struct {
	width, height int
	pix           []uint8
}

// NewPPMSink creates a black PPM image of the given size
func NewPPMSink(width, height int) *PPMSink {
	return &PPMSink{
		width:  width,
		height: height,
		pix:    make([]uint8, width*height*3),
	}
}

// SetPixel implements Sink. Out of range coordinates are ignored.
func (p *PPMSink) SetPixel(x, y int, r, g, b uint8) {
	if x < 0 || y < 0 || x >= p.width || y >= p.height {
		return
	}
	i := (y*p.width + x) * 3
	p.pix[i], p.pix[i+1], p.pix[i+2] = r, g, b
}

// WriteTo writes the image in P3 format, one pixel per line in top-row-first order
func (p *PPMSink) WriteTo(w io.Writer) (int64, error) {
	bw := bufio.NewWriter(w)
	var written int64

	n, err := fmt.Fprintf(bw, "P3\n%d %d\n255\n", p.width, p.height)
	written += int64(n)
	if err != nil {
		return written, fmt.Errorf("failed to write PPM header: %w", err)
	}

	for i := 0; i < len(p.pix); i += 3 {
		n, err := fmt.Fprintf(bw, "%d %d %d\n", p.pix[i], p.pix[i+1], p.pix[i+2])
		written += int64(n)
		if err != nil {
			return written, fmt.Errorf("failed to write PPM pixel data: %w", err)
		}
	}

	if err := bw.Flush(); err != nil {
		return written, fmt.Errorf("failed to flush PPM output: %w", err)
	}
	return written, nil
}
