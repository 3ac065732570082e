package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"image/color"
	"math"
	"strconv"
	"strings"

	"github.com/soma-tiles/tfserver/pkg/plot"
	"github.com/soma-tiles/tfserver/pkg/transfunc"
)

// hexColor renders c as #rrggbbaa.
func hexColor(c color.RGBA) string {
	return fmt.Sprintf("#%02x%02x%02x%02x", c.R, c.G, c.B, c.A)
}

// parseHexColor accepts #rrggbb and #rrggbbaa.
func parseHexColor(s string) (color.RGBA, error) {
	h := strings.TrimPrefix(s, "#")
	if len(h) != 6 && len(h) != 8 {
		return color.RGBA{}, fmt.Errorf("invalid color %q", s)
	}
	v, err := strconv.ParseUint(h, 16, 32)
	if err != nil {
		return color.RGBA{}, fmt.Errorf("invalid color %q", s)
	}
	if len(h) == 6 {
		v = v<<8 | 0xff
	}
	return color.RGBA{R: uint8(v >> 24), G: uint8(v >> 16), B: uint8(v >> 8), A: uint8(v)}, nil
}

type keyJSON struct {
	Intensity  float32 `json:"intensity"`
	Color      string  `json:"color"`
	ColorRight string  `json:"color_right,omitempty"`
}

// transFuncJSON is the editable form of a transfer function. The right
// color is only present for split keys.
type transFuncJSON struct {
	Name       string      `json:"name,omitempty"`
	Width      int         `json:"width"`
	Domain     *[2]float32 `json:"domain,omitempty"`
	Thresholds *[2]float32 `json:"thresholds,omitempty"`
	Gamma      *float32    `json:"gamma,omitempty"`
	AlphaMode  string      `json:"alpha_mode,omitempty"`
	Keys       []keyJSON   `json:"keys"`
}

func newTransFuncJSON(name string, t *transfunc.KeyTable) transFuncJSON {
	lo, hi := t.Domain()
	tlo, thi := t.Thresholds()
	gamma := t.Gamma()
	out := transFuncJSON{
		Name:       name,
		Width:      t.Width(),
		Domain:     &[2]float32{lo, hi},
		Thresholds: &[2]float32{tlo, thi},
		Gamma:      &gamma,
		AlphaMode:  t.AlphaMode().String(),
		Keys:       make([]keyJSON, 0, t.NumKeys()),
	}
	for _, k := range t.Keys() {
		kj := keyJSON{Intensity: k.Intensity(), Color: hexColor(k.ColorL())}
		if k.IsSplit() {
			kj.ColorRight = hexColor(k.ColorR())
		}
		out.Keys = append(out.Keys, kj)
	}
	return out
}

func parseAlphaMode(s string) (transfunc.AlphaMode, error) {
	for _, m := range []transfunc.AlphaMode{transfunc.UseAlpha, transfunc.ZeroAlpha, transfunc.OneAlpha} {
		if m.String() == s {
			return m, nil
		}
	}
	return 0, fmt.Errorf("invalid alpha_mode %q", s)
}

// table builds a transfer function. Absent settings keep the defaults of a
// new table.
func (j transFuncJSON) table(defaultWidth int) (*transfunc.KeyTable, error) {
	width := j.Width
	if width <= 0 {
		width = defaultWidth
	}
	t := transfunc.New(width)

	keys := make([]*transfunc.MappingKey, 0, len(j.Keys))
	for i, kj := range j.Keys {
		if kj.Intensity < 0 || kj.Intensity > 1 {
			return nil, fmt.Errorf("key %d: intensity %v outside [0, 1]", i, kj.Intensity)
		}
		left, err := parseHexColor(kj.Color)
		if err != nil {
			return nil, fmt.Errorf("key %d: %w", i, err)
		}
		if kj.ColorRight == "" {
			keys = append(keys, transfunc.NewKey(kj.Intensity, left))
			continue
		}
		right, err := parseHexColor(kj.ColorRight)
		if err != nil {
			return nil, fmt.Errorf("key %d: %w", i, err)
		}
		keys = append(keys, transfunc.NewSplitKey(kj.Intensity, left, right))
	}
	t.SetKeys(keys)

	if j.Domain != nil {
		t.SetDomain(j.Domain[0], j.Domain[1])
	}
	if j.Thresholds != nil {
		t.SetThresholds(j.Thresholds[0], j.Thresholds[1])
	}
	if j.Gamma != nil {
		if *j.Gamma <= 0 {
			return nil, fmt.Errorf("invalid gamma %v", *j.Gamma)
		}
		t.SetGamma(*j.Gamma)
	}
	if j.AlphaMode != "" {
		m, err := parseAlphaMode(j.AlphaMode)
		if err != nil {
			return nil, err
		}
		t.SetAlphaMode(m)
	}
	return t, nil
}

// cellJSON is a plot cell in JSON: null, a number or a string tag. JSON has
// no NaN or infinity, so those numbers are written as {"number":"NaN"},
// {"number":"+Inf"} or {"number":"-Inf"}.
type cellJSON struct {
	plot.CellValue
}

type nonFiniteJSON struct {
	Number string `json:"number"`
}

func (c cellJSON) MarshalJSON() ([]byte, error) {
	switch {
	case c.IsNumeric():
		v := c.Value()
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return json.Marshal(nonFiniteJSON{Number: strconv.FormatFloat(v, 'g', -1, 64)})
		}
		return json.Marshal(v)
	case c.IsTag():
		return json.Marshal(c.TagValue())
	default:
		return []byte("null"), nil
	}
}

func (c *cellJSON) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case bytes.Equal(data, []byte("null")):
		c.CellValue = plot.Null()
	case len(data) > 0 && data[0] == '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		c.CellValue = plot.Tag(s)
	case len(data) > 0 && data[0] == '{':
		var n nonFiniteJSON
		if err := json.Unmarshal(data, &n); err != nil {
			return err
		}
		v, err := strconv.ParseFloat(n.Number, 64)
		if err != nil {
			return fmt.Errorf("invalid number %q", n.Number)
		}
		c.CellValue = plot.Numeric(v)
	default:
		var v float64
		if err := json.Unmarshal(data, &v); err != nil {
			return errors.New("cell must be null, a number or a string")
		}
		c.CellValue = plot.Numeric(v)
	}
	return nil
}

type predicateJSON struct {
	Type       string     `json:"type"`
	Thresholds []cellJSON `json:"thresholds,omitempty"`
	Text       string     `json:"text,omitempty"`
}

type entryJSON struct {
	Column    int            `json:"column"`
	Predicate *predicateJSON `json:"predicate"`
}

type selectionJSON struct {
	ID      string      `json:"id,omitempty"`
	Entries []entryJSON `json:"entries"`
}

func newSelectionJSON(id string, sel *plot.Selection) selectionJSON {
	out := selectionJSON{ID: id, Entries: make([]entryJSON, 0, sel.Len())}
	for _, e := range sel.Entries() {
		ej := entryJSON{Column: e.Column}
		if e.Predicate != nil {
			pj := &predicateJSON{Type: plot.TypeName(e.Predicate), Text: e.Predicate.String()}
			for _, v := range e.Predicate.Thresholds() {
				pj.Thresholds = append(pj.Thresholds, cellJSON{v})
			}
			ej.Predicate = pj
		}
		out.Entries = append(out.Entries, ej)
	}
	return out
}

// selection builds a selection, resolving predicate types through reg.
func (j selectionJSON) selection(reg *plot.Registry) (*plot.Selection, error) {
	sel := &plot.Selection{}
	for i, ej := range j.Entries {
		if ej.Predicate == nil {
			sel.Add(ej.Column, nil)
			continue
		}
		p, ok := reg.New(ej.Predicate.Type)
		if !ok {
			return nil, fmt.Errorf("entry %d: unknown predicate type %q", i, ej.Predicate.Type)
		}
		if len(ej.Predicate.Thresholds) != p.NumThresholds() {
			return nil, fmt.Errorf("entry %d: %s takes %d thresholds, got %d",
				i, ej.Predicate.Type, p.NumThresholds(), len(ej.Predicate.Thresholds))
		}
		if p.NumThresholds() > 0 {
			ts := make([]plot.CellValue, len(ej.Predicate.Thresholds))
			for k, c := range ej.Predicate.Thresholds {
				ts[k] = c.CellValue
			}
			p.SetThresholds(ts)
		}
		sel.Add(ej.Column, p)
	}
	return sel, nil
}

type axesJSON struct {
	X *int `json:"x"`
	Y *int `json:"y"`
	Z *int `json:"z"`
}

func (a *axesJSON) columns() plot.AxisColumns {
	axes := plot.NoAxes
	if a == nil {
		return axes
	}
	if a.X != nil {
		axes.X = *a.X
	}
	if a.Y != nil {
		axes.Y = *a.Y
	}
	if a.Z != nil {
		axes.Z = *a.Z
	}
	return axes
}

type filterRequest struct {
	Rows [][]cellJSON `json:"rows"`
	Axes *axesJSON    `json:"axes"`
}

func (f filterRequest) cells() [][]plot.CellValue {
	rows := make([][]plot.CellValue, len(f.Rows))
	for i, row := range f.Rows {
		rows[i] = make([]plot.CellValue, len(row))
		for j, c := range row {
			rows[i][j] = c.CellValue
		}
	}
	return rows
}
