package plot

import (
	"errors"
	"fmt"

	"github.com/RoaringBitmap/roaring/v2"

	"github.com/soma-tiles/tfserver/pkg/serial"
)

// Reserved column indices naming the logical plot axes instead of a table
// column. They are resolved by AxisColumns when a selection is applied.
const (
	XAxisColumn = -1
	YAxisColumn = -2
	ZAxisColumn = -3
)

// AxisColumns tells which table columns currently back the plot axes.
// A negative field means the axis is unbound.
type AxisColumns struct {
	X, Y, Z int
}

// NoAxes leaves every axis unbound.
var NoAxes = AxisColumns{X: -1, Y: -1, Z: -1}

// Resolve maps a stored column index to a table column.
func (a AxisColumns) Resolve(col int) (int, bool) {
	switch col {
	case XAxisColumn:
		col = a.X
	case YAxisColumn:
		col = a.Y
	case ZAxisColumn:
		col = a.Z
	}
	return col, col >= 0
}

// Entry is one column filter of a Selection. A nil Predicate references the
// column without filtering it.
type Entry struct {
	Column    int
	Predicate Predicate
}

// Selection is an ordered list of column filters. It owns its predicates:
// Add and Clone copy them.
type Selection struct {
	entries []Entry
}

// Add appends a filter on col. p is cloned.
func (s *Selection) Add(col int, p Predicate) {
	if p != nil {
		p = p.Clone()
	}
	s.entries = append(s.entries, Entry{Column: col, Predicate: p})
}

func (s *Selection) Len() int { return len(s.entries) }

// Entries returns the entries in order. The predicates are shared with s.
func (s *Selection) Entries() []Entry {
	return append([]Entry(nil), s.entries...)
}

// Clone returns a deep copy of s.
func (s *Selection) Clone() *Selection {
	c := &Selection{entries: make([]Entry, 0, len(s.entries))}
	for _, e := range s.entries {
		c.Add(e.Column, e.Predicate)
	}
	return c
}

// Select re-indexes the selection after a column projection. remap lists,
// for every new column, the old column it came from. Entries on columns
// missing from remap are dropped; axis entries are kept as they are.
func (s *Selection) Select(remap []int) {
	kept := s.entries[:0]
	for _, e := range s.entries {
		if e.Column < 0 {
			kept = append(kept, e)
			continue
		}
		for pos, old := range remap {
			if old == e.Column {
				e.Column = pos
				kept = append(kept, e)
				break
			}
		}
	}
	clear(s.entries[len(kept):])
	s.entries = kept
}

// Equal reports whether both selections filter the same columns with
// predicates of the same variant and equal thresholds.
func (s *Selection) Equal(o *Selection) bool {
	if len(s.entries) != len(o.entries) {
		return false
	}
	for i, e := range s.entries {
		f := o.entries[i]
		if e.Column != f.Column || !ThresholdsEqual(e.Predicate, f.Predicate) {
			return false
		}
	}
	return true
}

// Matches reports whether row satisfies every entry. Columns beyond the end
// of the row, and unbound axes, read as null.
func (s *Selection) Matches(row []CellValue, axes AxisColumns) bool {
	for _, e := range s.entries {
		if e.Predicate == nil {
			continue
		}
		v := Null()
		if col, ok := axes.Resolve(e.Column); ok && col < len(row) {
			v = row[col]
		}
		if !e.Predicate.Check(v) {
			return false
		}
	}
	return true
}

// Filter returns the indices of the rows matching s.
func (s *Selection) Filter(rows [][]CellValue, axes AxisColumns) *roaring.Bitmap {
	bm := roaring.New()
	for i, row := range rows {
		if s.Matches(row, axes) {
			bm.Add(uint32(i))
		}
	}
	return bm
}

// SkippedError reports entries dropped while decoding a selection because
// their predicate type was unknown. The rest of the selection is intact.
type SkippedError struct {
	Errs []error
}

func (e *SkippedError) Error() string {
	return fmt.Sprintf("selection: skipped %d entries: %v", len(e.Errs), errors.Join(e.Errs...))
}

func (e *SkippedError) Unwrap() []error { return e.Errs }

// Codec binds a selection to the registry resolving its predicate types.
type Codec struct {
	Selection *Selection
	Registry  *Registry
}

// Serialize implements serial.Serializable.
func (c Codec) Serialize(s *serial.Serializer) {
	entries := c.Selection.entries
	s.List("entries", "entry", len(entries), func(i int) serial.Serializable {
		return entryCodec{e: &entries[i], reg: c.Registry}
	})
}

// Deserialize implements serial.Serializable. Entries with an unknown
// predicate type are skipped and reported through a *SkippedError.
func (c Codec) Deserialize(d *serial.Deserializer) error {
	var (
		entries []Entry
		skipped []error
	)
	err := d.List("entries", func(d *serial.Deserializer) error {
		col, err := d.Int("column")
		if err != nil {
			return err
		}
		v, err := d.Polymorphic("predicate", c.Registry)
		if errors.Is(err, serial.ErrUnknownType) {
			skipped = append(skipped, fmt.Errorf("column %d: %w", col, err))
			return nil
		}
		if err != nil {
			return err
		}
		e := Entry{Column: col}
		if v != nil {
			e.Predicate = v.(Predicate)
		}
		entries = append(entries, e)
		return nil
	})
	if err != nil {
		return err
	}
	c.Selection.entries = entries
	if len(skipped) > 0 {
		return &SkippedError{Errs: skipped}
	}
	return nil
}

type entryCodec struct {
	e   *Entry
	reg *Registry
}

func (c entryCodec) Serialize(s *serial.Serializer) {
	s.Int("column", c.e.Column)
	if c.e.Predicate != nil {
		s.Polymorphic("predicate", c.reg, c.e.Predicate)
	}
}

func (c entryCodec) Deserialize(*serial.Deserializer) error {
	return errors.New("selection: entries are decoded by Codec")
}
