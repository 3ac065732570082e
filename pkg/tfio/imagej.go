package tfio

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"strconv"

	"github.com/soma-tiles/tfserver/pkg/transfunc"
)

const (
	maxLUTSize   = 10000
	nihMagic     = 1229147980 // "ICOL"
	nihHeaderLen = 32
	lutColors    = 256
)

// nihHeader is the fixed header of an NIH Image lookup table.
type nihHeader struct {
	Magic     int32
	Version   int16
	NumColors int16
	Start     int16
	End       int16
	Filler1   float64
	Filler2   float64
	Filler3   int32
}

// DecodeImageJ reads an ImageJ lookup table. Three layouts are accepted: an
// NIH Image table with an ICOL header, a raw table of 256 red, then green,
// then blue bytes, and a text table of 256 rows with three or four integers
// (index, red, green, blue). Colors are always opaque.
func DecodeImageJ(r io.Reader) (*transfunc.Import, error) {
	data, err := io.ReadAll(io.LimitReader(r, maxLUTSize+1))
	if err != nil {
		return nil, fmt.Errorf("read lut: %w", err)
	}
	n := len(data)
	if n > maxLUTSize {
		return nil, malformed("lut", fmt.Sprintf("file larger than %d bytes", maxLUTSize), nil)
	}

	var samples []byte
	if n > 3*lutColors {
		samples = decodeNIH(data)
	}
	if samples == nil && (n == 3*lutColors || n == 970) {
		samples = planarToRGBA(data, lutColors)
	}
	if samples == nil && n >= 3*lutColors {
		samples = decodeLUTText(data)
	}
	if samples == nil {
		return nil, malformed("lut", fmt.Sprintf("unrecognized layout of %d bytes", n), nil)
	}
	return samplesImport("lut", samples)
}

func decodeNIH(data []byte) []byte {
	var h nihHeader
	if err := binary.Read(bytes.NewReader(data), binary.BigEndian, &h); err != nil || h.Magic != nihMagic {
		return nil
	}
	colors := int(h.NumColors)
	if colors < 2 || colors > lutColors || len(data) < nihHeaderLen+3*colors {
		return nil
	}
	return planarToRGBA(data[nihHeaderLen:], colors)
}

// planarToRGBA converts n reds, n greens and n blues into opaque RGBA
// samples.
func planarToRGBA(data []byte, n int) []byte {
	out := make([]byte, 4*n)
	for i := 0; i < n; i++ {
		out[4*i] = data[i]
		out[4*i+1] = data[n+i]
		out[4*i+2] = data[2*n+i]
		out[4*i+3] = 255
	}
	return out
}

// decodeLUTText collects every integer token. Non-numeric tokens such as
// column headers are skipped.
func decodeLUTText(data []byte) []byte {
	var vals []byte
	sc := bufio.NewScanner(bytes.NewReader(data))
	sc.Split(bufio.ScanWords)
	for sc.Scan() {
		v, err := strconv.ParseInt(sc.Text(), 0, 32)
		if err != nil {
			continue
		}
		if len(vals) == 4*lutColors {
			return nil
		}
		vals = append(vals, byte(v))
	}

	out := make([]byte, 4*lutColors)
	switch len(vals) {
	case 3 * lutColors:
		for i := 0; i < lutColors; i++ {
			copy(out[4*i:], vals[3*i:3*i+3])
			out[4*i+3] = 255
		}
	case 4 * lutColors:
		for i := 0; i < lutColors; i++ {
			copy(out[4*i:], vals[4*i+1:4*i+4])
			out[4*i+3] = 255
		}
	default:
		return nil
	}
	return out
}

func samplesImport(format string, samples []byte) (*transfunc.Import, error) {
	width := len(samples) / 4
	keys := transfunc.GenerateKeys(samples, width)
	if keys == nil {
		return nil, malformed(format, "fewer than two samples", nil)
	}
	return &transfunc.Import{Keys: keys, Width: width}, nil
}

// EncodeLUT writes width rows of "r g b", the text layout ImageJ reads.
// ImageJ itself only accepts 256 rows.
func EncodeLUT(w io.Writer, t *transfunc.KeyTable, width int) error {
	bw := bufio.NewWriter(w)
	for _, c := range sampled(t, width) {
		fmt.Fprintf(bw, "%d %d %d\n", c.R, c.G, c.B)
	}
	return bw.Flush()
}
