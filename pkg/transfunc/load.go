package transfunc

import "errors"

// Import is the result of reading a transfer function file.
type Import struct {
	Keys []*MappingKey
	// Width is the sample count of the source, 0 if unknown.
	Width int
	// State holds the complete table for formats that store settings
	// besides the keys. Keys and Width are ignored when it is set.
	State *KeyTable
}

// Loader reads transfer function files, typically choosing a format by
// file extension.
type Loader interface {
	Load(path string) (*Import, error)
}

// Load replaces the table contents with the file at path. On error the
// table is left unchanged.
func (t *KeyTable) Load(path string, l Loader) error {
	imp, err := l.Load(path)
	if err != nil {
		return err
	}
	return t.Apply(imp)
}

// Apply replaces the table contents with imp.
func (t *KeyTable) Apply(imp *Import) error {
	if imp.State != nil {
		w := t.width
		t.UpdateFrom(imp.State)
		if w > 0 {
			t.width = w
		}
		return nil
	}
	if len(imp.Keys) == 0 {
		return errors.New("transfunc: import holds no keys")
	}
	t.SetKeys(imp.Keys)
	if imp.Width > 0 {
		t.SetWidth(imp.Width)
	}
	return nil
}
