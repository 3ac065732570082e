package tfio

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/soma-tiles/tfserver/pkg/transfunc"
)

// DecodeTextTable reads a plain text table with one color per row, given
// as "r g b a" or "r g b" separated by blanks or tabs. Rows not starting
// with a number, such as headers and comments, are ignored.
func DecodeTextTable(r io.Reader) (*transfunc.Import, error) {
	var samples []byte
	sc := bufio.NewScanner(r)
	line := 0
	for sc.Scan() {
		line++
		fields := strings.Fields(sc.Text())
		if len(fields) == 0 {
			continue
		}
		if _, err := strconv.Atoi(fields[0]); err != nil {
			continue
		}
		if len(fields) != 3 && len(fields) != 4 {
			return nil, malformed("table", fmt.Sprintf("line %d: %d columns", line, len(fields)), nil)
		}
		px := [4]byte{3: 255}
		for i, f := range fields {
			v, err := strconv.Atoi(f)
			if err != nil || v < 0 || v > 255 {
				return nil, malformed("table", fmt.Sprintf("line %d: invalid channel %q", line, f), err)
			}
			px[i] = byte(v)
		}
		samples = append(samples, px[:]...)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read table: %w", err)
	}
	return samplesImport("table", samples)
}

// EncodeTextTable writes the lookup table of t as width rows of "r g b a".
func EncodeTextTable(w io.Writer, t *transfunc.KeyTable, width int) error {
	bw := bufio.NewWriter(w)
	for _, c := range sampled(t, width) {
		fmt.Fprintf(bw, "%d %d %d %d\n", c.R, c.G, c.B, c.A)
	}
	return bw.Flush()
}
