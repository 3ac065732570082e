package tfio

import (
	"io"

	"github.com/soma-tiles/tfserver/pkg/serial"
	"github.com/soma-tiles/tfserver/pkg/transfunc"
)

const (
	tfiRoot    = "VoreenData"
	tfiElement = "TransFuncIntensity"
)

// DecodeTFI reads the native XML format. The document root may be the
// transfer function element itself or a container holding it.
func DecodeTFI(r io.Reader) (*transfunc.Import, error) {
	root, err := serial.DecodeXML(r)
	if err != nil {
		return nil, malformed("tfi", "invalid xml", err)
	}
	t := transfunc.New(0)
	d := serial.NewDeserializer(root)
	if root.Name == tfiElement {
		err = t.Deserialize(d)
	} else {
		err = d.Object(tfiElement, t)
	}
	if err != nil {
		return nil, malformed("tfi", "invalid transfer function", err)
	}
	if t.NumKeys() < 2 {
		return nil, malformed("tfi", "fewer than two keys", nil)
	}
	return &transfunc.Import{State: t}, nil
}

// EncodeTFI writes t in the native XML format. width is unused.
func EncodeTFI(w io.Writer, t *transfunc.KeyTable, _ int) error {
	s := serial.NewSerializer(tfiRoot)
	s.Node().SetAttr("version", "1")
	s.Object(tfiElement, t)
	return serial.EncodeXML(w, s.Node())
}
