package tfio

import (
	"encoding/xml"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/soma-tiles/tfserver/pkg/transfunc"
)

// plist mirrors the parts of an Osirix CLUT property list we read: a dict
// of alternating keys and integer arrays.
type plist struct {
	Dict struct {
		Items []plistItem `xml:",any"`
	} `xml:"dict"`
}

type plistItem struct {
	XMLName  xml.Name
	Text     string   `xml:",chardata"`
	Integers []string `xml:"integer"`
}

// DecodeOsirix reads an Osirix CLUT. The Red, Green and Blue arrays are
// combined into opaque colors; extra entries of longer arrays are dropped.
func DecodeOsirix(r io.Reader) (*transfunc.Import, error) {
	var p plist
	if err := xml.NewDecoder(r).Decode(&p); err != nil {
		return nil, malformed("plist", "invalid xml", err)
	}

	channels := make(map[string][]string)
	var key string
	for _, it := range p.Dict.Items {
		switch it.XMLName.Local {
		case "key":
			key = strings.TrimSpace(it.Text)
		case "array":
			channels[key] = it.Integers
			key = ""
		}
	}

	names := [3]string{"Red", "Green", "Blue"}
	n := -1
	for _, name := range names {
		vals, ok := channels[name]
		if !ok {
			return nil, malformed("plist", "missing "+name+" array", nil)
		}
		if n < 0 || len(vals) < n {
			n = len(vals)
		}
	}

	samples := make([]byte, 4*n)
	for c, name := range names {
		for i, s := range channels[name][:n] {
			v, err := strconv.Atoi(strings.TrimSpace(s))
			if err != nil || v < 0 || v > 255 {
				return nil, malformed("plist", fmt.Sprintf("%s[%d]: invalid value %q", name, i, s), err)
			}
			samples[4*i+c] = byte(v)
		}
	}
	for i := 0; i < n; i++ {
		samples[4*i+3] = 255
	}
	return samplesImport("plist", samples)
}
