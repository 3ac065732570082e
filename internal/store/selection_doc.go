package store

import (
	"errors"
	"io"

	"github.com/soma-tiles/tfserver/pkg/plot"
	"github.com/soma-tiles/tfserver/pkg/serial"
)

const selectionRoot = "Selection"

// EncodeSelection writes sel as a YAML document.
func EncodeSelection(w io.Writer, sel *plot.Selection, reg *plot.Registry) error {
	s := serial.NewSerializer(selectionRoot)
	plot.Codec{Selection: sel, Registry: reg}.Serialize(s)
	return serial.EncodeYAML(w, s.Node())
}

// DecodeSelection reads a selection YAML document as written by the store.
// A *plot.SkippedError is returned along with the selection when entries
// had to be dropped.
func DecodeSelection(r io.Reader, reg *plot.Registry) (*plot.Selection, error) {
	root, err := serial.DecodeYAML(r)
	if err != nil {
		return nil, err
	}
	sel := &plot.Selection{}
	err = plot.Codec{Selection: sel, Registry: reg}.Deserialize(serial.NewDeserializer(root))
	var skipped *plot.SkippedError
	if err != nil && !errors.As(err, &skipped) {
		return nil, err
	}
	return sel, err
}
