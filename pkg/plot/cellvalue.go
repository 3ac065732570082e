// Package plot implements per-cell predicates over tabular plot data and
// selections combining them across columns.
//
// A cell holds a CellValue: null, a number or a string tag. Predicates only
// ever compare values of the same kind; any comparison between different
// kinds, or against null, does not match.
package plot

import (
	"math"
	"strconv"

	"github.com/soma-tiles/tfserver/pkg/serial"
)

// Kind is the type tag of a CellValue.
type Kind uint8

const (
	KindNull Kind = iota
	KindNumeric
	KindTag
)

func (k Kind) String() string {
	switch k {
	case KindNumeric:
		return "numeric"
	case KindTag:
		return "tag"
	default:
		return "null"
	}
}

// CellValue is a single cell of a plot table.
type CellValue struct {
	kind Kind
	num  float64
	tag  string
}

// Null returns the empty cell.
func Null() CellValue { return CellValue{} }

// Numeric returns a numeric cell.
func Numeric(v float64) CellValue { return CellValue{kind: KindNumeric, num: v} }

// Tag returns a string cell.
func Tag(s string) CellValue { return CellValue{kind: KindTag, tag: s} }

func (v CellValue) Kind() Kind      { return v.kind }
func (v CellValue) IsNull() bool    { return v.kind == KindNull }
func (v CellValue) IsNumeric() bool { return v.kind == KindNumeric }
func (v CellValue) IsTag() bool     { return v.kind == KindTag }

// Value returns the numeric payload, 0 unless the cell is numeric.
func (v CellValue) Value() float64 { return v.num }

// TagValue returns the string payload, "" unless the cell is a tag.
func (v CellValue) TagValue() string { return v.tag }

// rederive rebuilds a threshold from a source cell: a tag stays a tag,
// anything else becomes numeric.
func rederive(src CellValue) CellValue {
	if src.IsTag() {
		return Tag(src.tag)
	}
	return Numeric(src.num)
}

// compare orders v against o. ok is false when the two cannot be compared:
// different kinds, null on either side, or a NaN.
func (v CellValue) compare(o CellValue) (c int, ok bool) {
	if v.kind != o.kind {
		return 0, false
	}
	switch v.kind {
	case KindNumeric:
		if math.IsNaN(v.num) || math.IsNaN(o.num) {
			return 0, false
		}
		switch {
		case v.num < o.num:
			return -1, true
		case v.num > o.num:
			return 1, true
		}
		return 0, true
	case KindTag:
		switch {
		case v.tag < o.tag:
			return -1, true
		case v.tag > o.tag:
			return 1, true
		}
		return 0, true
	}
	return 0, false
}

// Equal reports structural equality. Unlike predicate comparisons, two null
// cells are equal here.
func (v CellValue) Equal(o CellValue) bool {
	if v.kind != o.kind {
		return false
	}
	switch v.kind {
	case KindNumeric:
		return v.num == o.num || (math.IsNaN(v.num) && math.IsNaN(o.num))
	case KindTag:
		return v.tag == o.tag
	}
	return true
}

// String renders the cell the way predicate descriptions show thresholds.
func (v CellValue) String() string {
	switch v.kind {
	case KindNumeric:
		return FormatNumber(v.num)
	case KindTag:
		return `"` + v.tag + `"`
	}
	return "NULL"
}

// FormatNumber renders v with a precision adapted to its magnitude: numbers
// above one keep three digits beyond their integer part, numbers below one
// keep three significant digits.
func FormatNumber(v float64) string {
	base := math.Log10(math.Abs(v))
	prec := 6
	switch {
	case base > 0:
		prec = int(math.Ceil(base)) + 3
	case base < 0:
		prec = 3
	}
	return strconv.FormatFloat(v, 'g', prec, 64)
}

// Serialize implements serial.Serializable.
func (v *CellValue) Serialize(s *serial.Serializer) {
	switch v.kind {
	case KindNumeric:
		s.Float("value", v.num)
	case KindTag:
		s.String("tag", v.tag)
	}
}

// Deserialize implements serial.Serializable. A node without payload
// decodes to null.
func (v *CellValue) Deserialize(d *serial.Deserializer) error {
	switch {
	case d.Has("tag"):
		t, err := d.String("tag")
		if err != nil {
			return err
		}
		*v = Tag(t)
	case d.Has("value"):
		f, err := d.Float("value")
		if err != nil {
			return err
		}
		*v = Numeric(f)
	default:
		*v = Null()
	}
	return nil
}
