package plot

import (
	"math"
	"strconv"
	"strings"

	"github.com/soma-tiles/tfserver/pkg/serial"
)

// Predicate is a test on a single cell, parameterized by zero, one or two
// threshold values. The set of implementations is closed; see Registry for
// the type tags used when serializing them.
type Predicate interface {
	serial.Serializable

	// Check reports whether v satisfies the predicate. Values whose kind
	// differs from the thresholds never do.
	Check(v CellValue) bool
	// Interval returns the numeric range the predicate accepts, or the empty
	// interval when it has no range form.
	Interval() Interval[float64]
	Clone() Predicate
	String() string

	NumThresholds() int
	Thresholds() []CellValue
	// SetThresholds replaces the thresholds. It does nothing unless exactly
	// NumThresholds values are given.
	SetThresholds(ts []CellValue)
	ThresholdTitles() []string

	isPredicate()
}

type oneThreshold struct {
	t CellValue
}

func (*oneThreshold) isPredicate()       {}
func (*oneThreshold) NumThresholds() int { return 1 }

func (p *oneThreshold) Thresholds() []CellValue { return []CellValue{p.t} }

func (p *oneThreshold) SetThresholds(ts []CellValue) {
	if len(ts) == 1 {
		p.t = ts[0]
	}
}

func (p *oneThreshold) Serialize(s *serial.Serializer) {
	s.Object("Threshold", &p.t)
}

func (p *oneThreshold) Deserialize(d *serial.Deserializer) error {
	return d.Object("Threshold", &p.t)
}

type twoThresholds struct {
	lo, hi CellValue
}

func (*twoThresholds) isPredicate()       {}
func (*twoThresholds) NumThresholds() int { return 2 }

func (p *twoThresholds) Thresholds() []CellValue { return []CellValue{p.lo, p.hi} }

func (p *twoThresholds) SetThresholds(ts []CellValue) {
	if len(ts) == 2 {
		p.lo, p.hi = ts[0], ts[1]
	}
}

func (*twoThresholds) ThresholdTitles() []string {
	return []string{"Lower Threshold", "Upper Threshold"}
}

func (p *twoThresholds) Serialize(s *serial.Serializer) {
	s.Object("lowerThreshold", &p.lo)
	s.Object("upperThreshold", &p.hi)
}

func (p *twoThresholds) Deserialize(d *serial.Deserializer) error {
	if err := d.Object("lowerThreshold", &p.lo); err != nil {
		return err
	}
	return d.Object("upperThreshold", &p.hi)
}

// between reports the position of v relative to lo and hi. ok is false
// unless all three are comparable.
func (p *twoThresholds) between(v CellValue) (cl, ch int, ok bool) {
	cl, okl := v.compare(p.lo)
	ch, okh := v.compare(p.hi)
	return cl, ch, okl && okh
}

func (p *twoThresholds) format(open, close string) string {
	return open + p.lo.String() + ", " + p.hi.String() + close
}

type noThresholds struct{}

func (noThresholds) isPredicate()                           {}
func (noThresholds) NumThresholds() int                     { return 0 }
func (noThresholds) Thresholds() []CellValue                { return nil }
func (noThresholds) SetThresholds([]CellValue)              {}
func (noThresholds) ThresholdTitles() []string              { return nil }
func (noThresholds) Interval() Interval[float64]            { return Interval[float64]{} }
func (noThresholds) Serialize(*serial.Serializer)           {}
func (noThresholds) Deserialize(*serial.Deserializer) error { return nil }

// Less matches values below its threshold.
type Less struct{ oneThreshold }

// NewLess returns a Less predicate. A tag threshold stays a tag, any other
// value is taken as a number.
func NewLess(t CellValue) *Less { return &Less{oneThreshold{rederive(t)}} }

func (p *Less) Check(v CellValue) bool {
	c, ok := v.compare(p.t)
	return ok && c < 0
}

func (p *Less) Interval() Interval[float64] {
	return NewInterval(-math.MaxFloat64, p.t.num, false, true)
}

func (p *Less) Clone() Predicate        { c := *p; return &c }
func (p *Less) String() string          { return "< " + p.t.String() }
func (*Less) ThresholdTitles() []string { return []string{"Upper Threshold"} }

// Equal matches values equal to its threshold.
type Equal struct{ oneThreshold }

func NewEqual(t CellValue) *Equal { return &Equal{oneThreshold{rederive(t)}} }

func (p *Equal) Check(v CellValue) bool {
	c, ok := v.compare(p.t)
	return ok && c == 0
}

func (p *Equal) Interval() Interval[float64] {
	return NewInterval(p.t.num, p.t.num, false, false)
}

func (p *Equal) Clone() Predicate        { c := *p; return &c }
func (p *Equal) String() string          { return "= " + p.t.String() }
func (*Equal) ThresholdTitles() []string { return []string{"Value"} }

// Greater matches values above its threshold.
type Greater struct{ oneThreshold }

func NewGreater(t CellValue) *Greater { return &Greater{oneThreshold{rederive(t)}} }

func (p *Greater) Check(v CellValue) bool {
	c, ok := v.compare(p.t)
	return ok && c > 0
}

func (p *Greater) Interval() Interval[float64] {
	return NewInterval(p.t.num, math.MaxFloat64, true, false)
}

func (p *Greater) Clone() Predicate        { c := *p; return &c }
func (p *Greater) String() string          { return "> " + p.t.String() }
func (*Greater) ThresholdTitles() []string { return []string{"Upper Threshold"} }

// Between matches values strictly between its thresholds. Its interval is
// reported closed.
type Between struct{ twoThresholds }

func NewBetween(lo, hi CellValue) *Between {
	return &Between{twoThresholds{rederive(lo), rederive(hi)}}
}

func (p *Between) Check(v CellValue) bool {
	cl, ch, ok := p.between(v)
	return ok && cl > 0 && ch < 0
}

func (p *Between) Interval() Interval[float64] {
	return NewInterval(p.lo.num, p.hi.num, false, false)
}

func (p *Between) Clone() Predicate { c := *p; return &c }
func (p *Between) String() string   { return p.format("in (", ")") }

// NotBetween matches values outside the open range between its thresholds.
// Its interval is the swapped pair (hi, lo).
type NotBetween struct{ twoThresholds }

func NewNotBetween(lo, hi CellValue) *NotBetween {
	return &NotBetween{twoThresholds{rederive(lo), rederive(hi)}}
}

func (p *NotBetween) Check(v CellValue) bool {
	cl, ch, ok := p.between(v)
	return ok && (cl <= 0 || ch >= 0)
}

func (p *NotBetween) Interval() Interval[float64] {
	return NewInterval(p.hi.num, p.lo.num, false, false)
}

func (p *NotBetween) Clone() Predicate { c := *p; return &c }
func (p *NotBetween) String() string   { return p.format("not in (", ")") }

// BetweenOrEqual matches values in the closed range of its thresholds.
type BetweenOrEqual struct{ twoThresholds }

func NewBetweenOrEqual(lo, hi CellValue) *BetweenOrEqual {
	return &BetweenOrEqual{twoThresholds{rederive(lo), rederive(hi)}}
}

func (p *BetweenOrEqual) Check(v CellValue) bool {
	cl, ch, ok := p.between(v)
	return ok && cl >= 0 && ch <= 0
}

func (p *BetweenOrEqual) Interval() Interval[float64] {
	return NewInterval(p.lo.num, p.hi.num, false, false)
}

func (p *BetweenOrEqual) Clone() Predicate { c := *p; return &c }
func (p *BetweenOrEqual) String() string   { return p.format("in [", "]") }

// NotBetweenOrEqual matches values outside the closed range of its
// thresholds. Its interval is the swapped pair (hi, lo) with open bounds.
type NotBetweenOrEqual struct{ twoThresholds }

func NewNotBetweenOrEqual(lo, hi CellValue) *NotBetweenOrEqual {
	return &NotBetweenOrEqual{twoThresholds{rederive(lo), rederive(hi)}}
}

func (p *NotBetweenOrEqual) Check(v CellValue) bool {
	cl, ch, ok := p.between(v)
	return ok && (cl < 0 || ch > 0)
}

func (p *NotBetweenOrEqual) Interval() Interval[float64] {
	return NewInterval(p.hi.num, p.lo.num, true, true)
}

func (p *NotBetweenOrEqual) Clone() Predicate { c := *p; return &c }
func (p *NotBetweenOrEqual) String() string   { return p.format("not in [", "]") }

// IsSubstring matches tags containing its threshold.
type IsSubstring struct {
	sub string
}

func NewIsSubstring(sub string) *IsSubstring { return &IsSubstring{sub: sub} }

func (*IsSubstring) isPredicate()       {}
func (*IsSubstring) NumThresholds() int { return 1 }

func (p *IsSubstring) Check(v CellValue) bool {
	return v.IsTag() && strings.Contains(v.tag, p.sub)
}

func (p *IsSubstring) Thresholds() []CellValue { return []CellValue{Tag(p.sub)} }

// SetThresholds takes the tag of a tag value and the formatted number of a
// numeric one.
func (p *IsSubstring) SetThresholds(ts []CellValue) {
	if len(ts) != 1 {
		return
	}
	switch t := ts[0]; t.kind {
	case KindTag:
		p.sub = t.tag
	case KindNumeric:
		p.sub = strconv.FormatFloat(t.num, 'g', -1, 64)
	default:
		p.sub = ""
	}
}

func (*IsSubstring) ThresholdTitles() []string        { return []string{"Substring"} }
func (*IsSubstring) Interval() Interval[float64]      { return Interval[float64]{} }
func (p *IsSubstring) Clone() Predicate               { c := *p; return &c }
func (p *IsSubstring) String() string                 { return `Substring: "` + p.sub + `"` }
func (p *IsSubstring) Serialize(s *serial.Serializer) { s.String("threshold", p.sub) }

func (p *IsSubstring) Deserialize(d *serial.Deserializer) error {
	sub, err := d.String("threshold")
	if err != nil {
		return err
	}
	p.sub = sub
	return nil
}

// isAlphaNumericTag reports whether s parses as a number or consists of
// ASCII letters and digits only. The empty tag qualifies.
func isAlphaNumericTag(s string) bool {
	if _, err := strconv.ParseFloat(strings.TrimLeft(s, " \t\n\v\f\r"), 64); err == nil {
		return true
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		if !('0' <= c && c <= '9' || 'a' <= c && c <= 'z' || 'A' <= c && c <= 'Z') {
			return false
		}
	}
	return true
}

// AlphaNumeric matches numbers and alphanumeric tags.
type AlphaNumeric struct{ noThresholds }

func NewAlphaNumeric() *AlphaNumeric { return &AlphaNumeric{} }

func (*AlphaNumeric) Check(v CellValue) bool {
	switch v.kind {
	case KindNumeric:
		return true
	case KindTag:
		return isAlphaNumericTag(v.tag)
	}
	return false
}

func (p *AlphaNumeric) Clone() Predicate { c := *p; return &c }
func (*AlphaNumeric) String() string     { return "Alpha Numeric" }

// NotAlphaNumeric matches tags that are neither numbers nor alphanumeric.
// Numeric cells never match.
type NotAlphaNumeric struct{ noThresholds }

func NewNotAlphaNumeric() *NotAlphaNumeric { return &NotAlphaNumeric{} }

func (*NotAlphaNumeric) Check(v CellValue) bool {
	return v.IsTag() && !isAlphaNumericTag(v.tag)
}

func (p *NotAlphaNumeric) Clone() Predicate { c := *p; return &c }
func (*NotAlphaNumeric) String() string     { return "Not Alpha-Numeric" }

// Empty matches null cells.
type Empty struct{ noThresholds }

func NewEmpty() *Empty { return &Empty{} }

func (*Empty) Check(v CellValue) bool { return v.IsNull() }
func (p *Empty) Clone() Predicate     { c := *p; return &c }
func (*Empty) String() string         { return "Is Empty" }

// NotEmpty matches every cell that is not null.
type NotEmpty struct{ noThresholds }

func NewNotEmpty() *NotEmpty { return &NotEmpty{} }

func (*NotEmpty) Check(v CellValue) bool { return !v.IsNull() }

func (*NotEmpty) Interval() Interval[float64] {
	return NewInterval(-math.MaxFloat64, math.MaxFloat64, true, true)
}

func (p *NotEmpty) Clone() Predicate { c := *p; return &c }
func (*NotEmpty) String() string     { return "Is Not Empty" }

// ThresholdsEqual reports whether a and b are the same variant holding equal
// thresholds.
func ThresholdsEqual(a, b Predicate) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	if TypeName(a) != TypeName(b) {
		return false
	}
	ta, tb := a.Thresholds(), b.Thresholds()
	if len(ta) != len(tb) {
		return false
	}
	for i := range ta {
		if !ta[i].Equal(tb[i]) {
			return false
		}
	}
	return true
}
