// Package render draws transfer function previews using fogleman/gg.
package render

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"sync"

	"github.com/fogleman/gg"
)

// Config contains renderer configuration.
type Config struct {
	Width       int
	Height      int
	CheckerSize int
}

var (
	checkerLight = color.RGBA{R: 204, G: 204, B: 204, A: 255}
	checkerDark  = color.RGBA{R: 153, G: 153, B: 153, A: 255}
)

// StripRenderer renders lookup tables as horizontal color strips. The
// upper half shows the opaque colors, the lower half the colors composited
// over a checkerboard so that opacity is visible.
type StripRenderer struct {
	config      Config
	contextPool sync.Pool
	bufferPool  sync.Pool
}

// NewStripRenderer creates a new strip renderer.
func NewStripRenderer(cfg Config) *StripRenderer {
	if cfg.CheckerSize <= 0 {
		cfg.CheckerSize = 8
	}
	return &StripRenderer{
		config: cfg,
		contextPool: sync.Pool{
			New: func() interface{} {
				return gg.NewContext(cfg.Width, cfg.Height)
			},
		},
		bufferPool: sync.Pool{
			New: func() interface{} {
				return bytes.NewBuffer(make([]byte, 0, 8*1024))
			},
		},
	}
}

// DefaultSize returns the configured strip size.
func (r *StripRenderer) DefaultSize() (width, height int) {
	return r.config.Width, r.config.Height
}

// RenderStrip renders samples stretched over a width x height strip. Non
// positive sizes fall back to the configured ones.
func (r *StripRenderer) RenderStrip(samples []color.RGBA, width, height int) ([]byte, error) {
	if width <= 0 {
		width = r.config.Width
	}
	if height <= 0 {
		height = r.config.Height
	}

	// Only contexts of the default size are pooled
	var dc *gg.Context
	if width == r.config.Width && height == r.config.Height {
		dc = r.contextPool.Get().(*gg.Context)
		defer r.contextPool.Put(dc)
	} else {
		dc = gg.NewContext(width, height)
	}

	dc.SetColor(color.White)
	dc.Clear()
	r.drawChecker(dc, width, height)

	if len(samples) == 0 {
		return r.encodeContext(dc)
	}

	top := float64(height / 2)
	for x := 0; x < width; x++ {
		c := samples[x*len(samples)/width]

		// Samples carry straight alpha
		dc.SetColor(color.NRGBA{R: c.R, G: c.G, B: c.B, A: 255})
		dc.DrawRectangle(float64(x), 0, 1, top)
		dc.Fill()

		dc.SetColor(color.NRGBA{R: c.R, G: c.G, B: c.B, A: c.A})
		dc.DrawRectangle(float64(x), top, 1, float64(height)-top)
		dc.Fill()
	}

	return r.encodeContext(dc)
}

func (r *StripRenderer) drawChecker(dc *gg.Context, width, height int) {
	size := r.config.CheckerSize
	for y := 0; y < height; y += size {
		for x := 0; x < width; x += size {
			if (x/size+y/size)%2 == 0 {
				dc.SetColor(checkerLight)
			} else {
				dc.SetColor(checkerDark)
			}
			dc.DrawRectangle(float64(x), float64(y), float64(size), float64(size))
			dc.Fill()
		}
	}
}

func (r *StripRenderer) encodeContext(dc *gg.Context) ([]byte, error) {
	buf := r.bufferPool.Get().(*bytes.Buffer)
	defer func() {
		buf.Reset()
		r.bufferPool.Put(buf)
	}()

	// Use fast PNG encoder
	encoder := png.Encoder{CompressionLevel: png.BestSpeed}
	if err := encoder.Encode(buf, dc.Image()); err != nil {
		return nil, err
	}

	// Copy buffer contents (buffer will be reused)
	result := make([]byte, buf.Len())
	copy(result, buf.Bytes())
	return result, nil
}

// CreateEmptyStrip creates a transparent strip, served when a transfer
// function cannot be rendered.
func (r *StripRenderer) CreateEmptyStrip(width, height int) ([]byte, error) {
	if width <= 0 {
		width = r.config.Width
	}
	if height <= 0 {
		height = r.config.Height
	}
	img := image.NewRGBA(image.Rect(0, 0, width, height))

	buf := bytes.NewBuffer(nil)
	if err := png.Encode(buf, img); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
