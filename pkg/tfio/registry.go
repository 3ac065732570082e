// Package tfio reads and writes transfer functions in the native tfi format
// and in foreign lookup table formats (ImageJ, plain text tables, Osirix
// CLUTs and images).
//
// Foreign formats only carry sampled colors; keys are reconstructed from
// the samples with transfunc.GenerateKeys.
package tfio

import (
	"fmt"
	"image/color"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/soma-tiles/tfserver/pkg/transfunc"
)

// DecodeFunc reads a transfer function.
type DecodeFunc func(r io.Reader) (*transfunc.Import, error)

// EncodeFunc writes t, sampled at width entries where the format is
// sampled.
type EncodeFunc func(w io.Writer, t *transfunc.KeyTable, width int) error

// Format is a file format known to a Registry. Either function may be nil.
type Format struct {
	Name       string
	Extensions []string
	Decode     DecodeFunc
	Encode     EncodeFunc
}

// Registry dispatches on file extensions. It implements transfunc.Loader.
type Registry struct {
	byExt map[string]*Format
}

// NewRegistry returns a registry with every built-in format.
func NewRegistry() *Registry {
	r := &Registry{byExt: make(map[string]*Format)}
	r.Register(Format{Name: "tfi", Extensions: []string{"tfi"}, Decode: DecodeTFI, Encode: EncodeTFI})
	r.Register(Format{Name: "imagej", Extensions: []string{"lut"}, Decode: DecodeImageJ, Encode: EncodeLUT})
	r.Register(Format{Name: "table", Extensions: []string{"table"}, Decode: DecodeTextTable, Encode: EncodeTextTable})
	r.Register(Format{Name: "osirix", Extensions: []string{"plist", "clut"}, Decode: DecodeOsirix})
	r.Register(Format{Name: "png", Extensions: []string{"png"}, Decode: DecodeImage, Encode: EncodePNG})
	r.Register(Format{Name: "image", Extensions: []string{"bmp", "jpg", "jpeg"}, Decode: DecodeImage})
	return r
}

// Register adds f, replacing earlier formats with the same extensions.
func (r *Registry) Register(f Format) {
	for _, ext := range f.Extensions {
		r.byExt[normalizeExt(ext)] = &f
	}
}

func normalizeExt(ext string) string {
	return strings.ToLower(strings.TrimPrefix(ext, "."))
}

// Lookup returns the format for a file extension, with or without the dot.
func (r *Registry) Lookup(ext string) (*Format, bool) {
	f, ok := r.byExt[normalizeExt(ext)]
	return f, ok
}

func (r *Registry) extensions(pred func(*Format) bool) []string {
	var exts []string
	for ext, f := range r.byExt {
		if pred(f) {
			exts = append(exts, ext)
		}
	}
	sort.Strings(exts)
	return exts
}

// LoadExtensions lists the extensions that can be decoded.
func (r *Registry) LoadExtensions() []string {
	return r.extensions(func(f *Format) bool { return f.Decode != nil })
}

// SaveExtensions lists the extensions that can be encoded.
func (r *Registry) SaveExtensions() []string {
	return r.extensions(func(f *Format) bool { return f.Encode != nil })
}

// Decode reads a transfer function in the format registered for ext.
func (r *Registry) Decode(ext string, rd io.Reader) (*transfunc.Import, error) {
	f, ok := r.Lookup(ext)
	if !ok || f.Decode == nil {
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, ext)
	}
	return f.Decode(rd)
}

// Encode writes t in the format registered for ext.
func (r *Registry) Encode(ext string, w io.Writer, t *transfunc.KeyTable, width int) error {
	f, ok := r.Lookup(ext)
	if !ok || f.Encode == nil {
		return fmt.Errorf("%w: %q", ErrUnknownFormat, ext)
	}
	if width <= 0 {
		width = t.Width()
	}
	return f.Encode(w, t, width)
}

// Load implements transfunc.Loader.
func (r *Registry) Load(path string) (*transfunc.Import, error) {
	ext := filepath.Ext(path)
	if ext == "" {
		return nil, fmt.Errorf("%w: %s has no extension", ErrUnknownFormat, path)
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open transfer function: %w", err)
	}
	defer f.Close()

	imp, err := r.Decode(ext, f)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", path, err)
	}
	return imp, nil
}

// Save writes t to path in the format matching its extension.
func (r *Registry) Save(path string, t *transfunc.KeyTable, width int) error {
	ext := filepath.Ext(path)
	if f, ok := r.Lookup(ext); !ok || f.Encode == nil {
		return fmt.Errorf("%w: %q", ErrUnknownFormat, ext)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create transfer function: %w", err)
	}
	if err := r.Encode(ext, f, t, width); err != nil {
		f.Close()
		return fmt.Errorf("save %s: %w", path, err)
	}
	return f.Close()
}

// sampled returns the lookup table of t at width entries without touching
// the cache of t. Thresholds apply.
func sampled(t *transfunc.KeyTable, width int) []color.RGBA {
	c := t.Clone()
	c.UpdateTexture(width)
	return c.Samples()
}
