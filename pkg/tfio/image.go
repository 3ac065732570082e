package tfio

import (
	"bytes"
	"image"
	"image/color"
	_ "image/jpeg"
	"image/png"
	"io"

	_ "golang.org/x/image/bmp"
	"golang.org/x/image/draw"

	"github.com/soma-tiles/tfserver/pkg/transfunc"
)

// DecodeImage reads the first row of a png, jpeg or bmp image as the
// sampled colors of a transfer function.
func DecodeImage(r io.Reader) (*transfunc.Import, error) {
	img, _, err := image.Decode(r)
	if err != nil {
		return nil, malformed("image", "cannot decode", err)
	}
	b := img.Bounds()
	if b.Dx() < 2 {
		return nil, malformed("image", "image narrower than two pixels", nil)
	}

	// Straight alpha images are copied as is to keep the color of
	// transparent pixels.
	if n, ok := img.(*image.NRGBA); ok {
		off := n.PixOffset(b.Min.X, b.Min.Y)
		return samplesImport("image", bytes.Clone(n.Pix[off:off+4*b.Dx()]))
	}
	row := image.NewNRGBA(image.Rect(0, 0, b.Dx(), 1))
	draw.Draw(row, row.Bounds(), img, b.Min, draw.Src)
	return samplesImport("image", row.Pix)
}

// EncodePNG writes the lookup table of t as a width x 1 image.
func EncodePNG(w io.Writer, t *transfunc.KeyTable, width int) error {
	samples := sampled(t, width)
	img := image.NewNRGBA(image.Rect(0, 0, len(samples), 1))
	for i, c := range samples {
		img.SetNRGBA(i, 0, color.NRGBA{R: c.R, G: c.G, B: c.B, A: c.A})
	}

	var buf bytes.Buffer
	encoder := png.Encoder{CompressionLevel: png.BestSpeed}
	if err := encoder.Encode(&buf, img); err != nil {
		return err
	}
	_, err := buf.WriteTo(w)
	return err
}
