// Package service provides business logic for the transfer function server.
package service

import (
	"context"
	"errors"
	"fmt"
	"image/color"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/soma-tiles/tfserver/internal/cache"
	"github.com/soma-tiles/tfserver/internal/logging"
	"github.com/soma-tiles/tfserver/internal/render"
	"github.com/soma-tiles/tfserver/internal/store"
	"github.com/soma-tiles/tfserver/pkg/colormap"
	"github.com/soma-tiles/tfserver/pkg/tfio"
	"github.com/soma-tiles/tfserver/pkg/transfunc"
)

// ErrInvalidArgument is returned for requests that cannot be served as
// asked, such as unknown presets or out of range sizes.
var ErrInvalidArgument = errors.New("service: invalid argument")

const (
	maxResolution  = 4096
	maxStripHeight = 1024
)

// TransFuncServiceConfig contains transfer function service configuration.
type TransFuncServiceConfig struct {
	Store          *store.Store // optional; without it the library is in memory only
	Cache          *cache.Manager
	Renderer       *render.StripRenderer
	Formats        *tfio.Registry
	DefaultWidth   int
	PreloadWorkers int
	Logger         *logging.Logger
}

// TransFuncSummary describes a library entry.
type TransFuncSummary struct {
	Name        string `json:"name"`
	Keys        int    `json:"keys"`
	Width       int    `json:"width"`
	Standard    bool   `json:"standard"`
	Significant bool   `json:"significant"`
}

// Mapping is the result of looking up a single data value.
type Mapping struct {
	Value      float64    `json:"value"`
	Normalized float32    `json:"normalized"`
	Color      color.RGBA `json:"-"`
}

// libraryEntry is never modified once installed; updates replace it.
type libraryEntry struct {
	table *transfunc.KeyTable
	rev   uint64
}

// TransFuncService hosts a library of named transfer functions.
type TransFuncService struct {
	store    *store.Store
	cache    *cache.Manager
	renderer *render.StripRenderer
	formats  *tfio.Registry
	width    int
	workers  int
	log      *logging.Logger

	mu      sync.RWMutex
	library map[string]*libraryEntry
	revs    atomic.Uint64
}

// NewTransFuncService creates a new transfer function service.
func NewTransFuncService(cfg TransFuncServiceConfig) *TransFuncService {
	width := cfg.DefaultWidth
	if width <= 0 {
		width = transfunc.DefaultWidth
	}
	workers := cfg.PreloadWorkers
	if workers <= 0 {
		workers = 4
	}
	formats := cfg.Formats
	if formats == nil {
		formats = tfio.NewRegistry()
	}
	logger := cfg.Logger
	if logger == nil {
		logger = logging.NoopLogger()
	}

	return &TransFuncService{
		store:    cfg.Store,
		cache:    cfg.Cache,
		renderer: cfg.Renderer,
		formats:  formats,
		width:    width,
		workers:  workers,
		log:      logger,
		library:  make(map[string]*libraryEntry),
	}
}

func validName(name string) error {
	if name == "" || strings.ContainsAny(name, "/\\") || strings.TrimSpace(name) != name {
		return fmt.Errorf("%w: transfer function name %q", ErrInvalidArgument, name)
	}
	return nil
}

func (s *TransFuncService) lookup(name string) (*libraryEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.library[name]
	if !ok {
		return nil, fmt.Errorf("%w: transfer function %q", store.ErrNotFound, name)
	}
	return e, nil
}

// install replaces the library entry without persisting it.
func (s *TransFuncService) install(name string, t *transfunc.KeyTable) {
	s.library[name] = &libraryEntry{table: t, rev: s.revs.Add(1)}
}

// List returns the library ordered by name.
func (s *TransFuncService) List() []TransFuncSummary {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]TransFuncSummary, 0, len(s.library))
	for name, e := range s.library {
		out = append(out, TransFuncSummary{
			Name:        name,
			Keys:        e.table.NumKeys(),
			Width:       e.table.Width(),
			Standard:    e.table.IsStandardFunc(),
			Significant: e.table.IsSignificant(),
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// DefaultWidth is the resolution given to transfer functions that do not
// name their own.
func (s *TransFuncService) DefaultWidth() int { return s.width }

// Get returns a copy of the named transfer function.
func (s *TransFuncService) Get(name string) (*transfunc.KeyTable, error) {
	e, err := s.lookup(name)
	if err != nil {
		return nil, err
	}
	return e.table.Clone(), nil
}

// Put stores a copy of t under name, replacing any previous version.
func (s *TransFuncService) Put(name string, t *transfunc.KeyTable) error {
	_, err := s.put(name, t, true)
	return err
}

// PutIfAbsent stores t under name unless a transfer function of that name
// already exists. It reports whether t was stored.
func (s *TransFuncService) PutIfAbsent(name string, t *transfunc.KeyTable) (bool, error) {
	return s.put(name, t, false)
}

func (s *TransFuncService) put(name string, t *transfunc.KeyTable, replace bool) (bool, error) {
	if err := validName(name); err != nil {
		return false, err
	}
	if t.NumKeys() < 2 {
		return false, fmt.Errorf("%w: a transfer function needs at least two keys", ErrInvalidArgument)
	}
	t = t.Clone()

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.library[name]; exists && !replace {
		return false, nil
	}
	if s.store != nil {
		if err := s.store.PutTransFunc(name, t); err != nil {
			return false, fmt.Errorf("failed to persist %q: %w", name, err)
		}
	}
	s.install(name, t)
	s.log.WithTransFunc(name).Info("transfer function stored", "keys", t.NumKeys())
	return true, nil
}

// Import decodes r in the format registered for ext and stores the result
// under name.
func (s *TransFuncService) Import(name, ext string, r io.Reader) (*transfunc.KeyTable, error) {
	imp, err := s.formats.Decode(ext, r)
	if err != nil {
		return nil, err
	}
	t := transfunc.New(s.width)
	if err := t.Apply(imp); err != nil {
		return nil, err
	}
	if err := s.Put(name, t); err != nil {
		return nil, err
	}
	return t, nil
}

// ApplyPreset replaces the named transfer function with a preset colormap.
func (s *TransFuncService) ApplyPreset(name, preset string) (*transfunc.KeyTable, error) {
	c, ok := colormap.Lookup(preset)
	if !ok {
		return nil, fmt.Errorf("%w: unknown colormap %q", ErrInvalidArgument, preset)
	}
	t := colormap.Table(c, s.width)
	if err := s.Put(name, t); err != nil {
		return nil, err
	}
	return t, nil
}

// Colormaps lists the preset names accepted by ApplyPreset.
func (s *TransFuncService) Colormaps() []string { return colormap.Names() }

// ColormapSamples returns resolution colors of the named preset evenly
// spaced over [0, 1]. A non-positive resolution uses the default width.
func (s *TransFuncService) ColormapSamples(preset string, resolution int) ([]color.RGBA, error) {
	if resolution > maxResolution {
		return nil, fmt.Errorf("%w: resolution %d exceeds %d", ErrInvalidArgument, resolution, maxResolution)
	}
	c, ok := colormap.Lookup(preset)
	if !ok {
		return nil, fmt.Errorf("%w: colormap %q", store.ErrNotFound, preset)
	}
	if resolution <= 0 {
		resolution = s.width
	}
	return colormap.Sample(c, resolution), nil
}

// Delete removes the named transfer function.
func (s *TransFuncService) Delete(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.library[name]; !ok {
		return fmt.Errorf("%w: transfer function %q", store.ErrNotFound, name)
	}
	if s.store != nil {
		if err := s.store.DeleteTransFunc(name); err != nil && !errors.Is(err, store.ErrNotFound) {
			return err
		}
	}
	delete(s.library, name)
	s.log.WithTransFunc(name).Info("transfer function deleted")
	return nil
}

// Samples returns the lookup table of the named transfer function with
// resolution entries over [left, right). A non-positive resolution uses the
// table width. The returned slice is shared and must not be modified.
func (s *TransFuncService) Samples(name string, resolution int, left, right float32) ([]color.RGBA, error) {
	if resolution > maxResolution {
		return nil, fmt.Errorf("%w: resolution %d exceeds %d", ErrInvalidArgument, resolution, maxResolution)
	}
	e, err := s.lookup(name)
	if err != nil {
		return nil, err
	}
	if resolution <= 0 {
		resolution = e.table.Width()
	}

	key := cache.SamplesKey(name, e.rev, resolution, left, right)
	if s.cache != nil {
		if samples, ok := s.cache.GetSamples(key); ok {
			return samples, nil
		}
	}

	// Sampling caches inside the table, so work on a private copy
	t := e.table.Clone()
	t.UpdateTextureRange(resolution, left, right)
	samples := t.Samples()

	if s.cache != nil {
		s.cache.SetSamples(key, samples)
	}
	return samples, nil
}

// Strip returns the PNG preview of the named transfer function. Non
// positive sizes use the renderer defaults.
func (s *TransFuncService) Strip(name string, width, height int) ([]byte, error) {
	defW, defH := s.renderer.DefaultSize()
	if width <= 0 {
		width = defW
	}
	if height <= 0 {
		height = defH
	}
	if width > maxResolution || height > maxStripHeight {
		return nil, fmt.Errorf("%w: strip size %dx%d", ErrInvalidArgument, width, height)
	}
	e, err := s.lookup(name)
	if err != nil {
		return nil, err
	}

	key := cache.StripKey(name, e.rev, width, height)
	if s.cache != nil {
		if data, ok := s.cache.GetStrip(key); ok {
			return data, nil
		}
	}

	samples, err := s.Samples(name, width, 0, 1)
	if err != nil {
		return nil, err
	}
	data, err := s.renderer.RenderStrip(samples, width, height)
	if err != nil {
		return nil, fmt.Errorf("failed to render strip: %w", err)
	}

	if s.cache != nil {
		if err := s.cache.SetStrip(key, data); err != nil {
			s.log.WithTransFunc(name).Debug("strip not cached", "error", err)
		}
	}
	return data, nil
}

// EmptyStrip returns a transparent preview, served when rendering fails.
func (s *TransFuncService) EmptyStrip(width, height int) ([]byte, error) {
	return s.renderer.CreateEmptyStrip(width, height)
}

// Export writes the named transfer function in the format registered for
// ext. Sampled formats use width entries, or the table width if width is
// not positive.
func (s *TransFuncService) Export(name, ext string, width int, w io.Writer) error {
	if width > maxResolution {
		return fmt.Errorf("%w: width %d exceeds %d", ErrInvalidArgument, width, maxResolution)
	}
	e, err := s.lookup(name)
	if err != nil {
		return err
	}
	return s.formats.Encode(ext, w, e.table, width)
}

// Map looks up the color of a data value, normalized through the domain of
// the transfer function.
func (s *TransFuncService) Map(name string, value float64) (Mapping, error) {
	e, err := s.lookup(name)
	if err != nil {
		return Mapping{}, err
	}
	n := e.table.Normalize(value)
	return Mapping{Value: value, Normalized: n, Color: e.table.MappingForValue(n)}, nil
}

// Mean returns the average color of the named transfer function over the
// intensity segment [start, end).
func (s *TransFuncService) Mean(name string, start, end float32) ([4]float64, error) {
	e, err := s.lookup(name)
	if err != nil {
		return [4]float64{}, err
	}
	return e.table.MeanValue(start, end), nil
}

// Restore loads every stored transfer function into the library.
func (s *TransFuncService) Restore(ctx context.Context) (int, error) {
	if s.store == nil {
		return 0, nil
	}
	infos, err := s.store.ListTransFuncs()
	if err != nil {
		return 0, fmt.Errorf("failed to list stored transfer functions: %w", err)
	}

	tables := make([]*transfunc.KeyTable, len(infos))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers)
	for i, info := range infos {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			t, err := s.store.GetTransFunc(info.Name)
			if err != nil {
				return fmt.Errorf("failed to restore %q: %w", info.Name, err)
			}
			tables[i] = t
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return 0, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for i, info := range infos {
		s.install(info.Name, tables[i])
	}
	return len(infos), nil
}

// Preload imports every readable lookup table file in dir that is not in
// the library yet, named after the file without its extension. Files that
// fail to decode are logged and skipped. A name stored concurrently while
// the files load is kept.
func (s *TransFuncService) Preload(ctx context.Context, dir string) (int, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return 0, fmt.Errorf("failed to read seed directory: %w", err)
	}

	type seed struct {
		name, path, ext string
		table           *transfunc.KeyTable
	}
	var seeds []*seed
	s.mu.RLock()
	for _, de := range entries {
		if de.IsDir() {
			continue
		}
		ext := filepath.Ext(de.Name())
		if f, ok := s.formats.Lookup(ext); !ok || f.Decode == nil {
			continue
		}
		name := strings.TrimSuffix(de.Name(), ext)
		if _, exists := s.library[name]; exists || validName(name) != nil {
			continue
		}
		seeds = append(seeds, &seed{name: name, path: filepath.Join(dir, de.Name()), ext: ext})
	}
	s.mu.RUnlock()

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers)
	for _, sd := range seeds {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			t := transfunc.New(s.width)
			if err := t.Load(sd.path, s.formats); err != nil {
				s.log.WithTransFunc(sd.name).Warn("skipping seed file", "path", sd.path, "error", err)
				return nil
			}
			sd.table = t
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return 0, err
	}

	loaded := 0
	for _, sd := range seeds {
		if sd.table == nil {
			continue
		}
		stored, err := s.PutIfAbsent(sd.name, sd.table)
		if err != nil {
			return loaded, err
		}
		if stored {
			loaded++
		}
	}
	return loaded, nil
}

// Stats returns library and cache statistics.
func (s *TransFuncService) Stats() map[string]interface{} {
	s.mu.RLock()
	n := len(s.library)
	s.mu.RUnlock()

	stats := map[string]interface{}{
		"transfuncs": n,
		"revision":   s.revs.Load(),
	}
	if s.cache != nil {
		for k, v := range s.cache.Stats() {
			stats[k] = v
		}
	}
	return stats
}
