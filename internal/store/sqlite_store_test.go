package store

import (
	"errors"
	"image/color"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/soma-tiles/tfserver/pkg/plot"
	"github.com/soma-tiles/tfserver/pkg/transfunc"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()

	s, err := NewStore(filepath.Join(t.TempDir(), "db", "library.sqlite"), plot.NewRegistry())
	if err != nil {
		t.Fatalf("failed to open store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestTransFuncCRUD(t *testing.T) {
	s := newTestStore(t)

	tab := transfunc.New(512)
	tab.AddKey(transfunc.NewSplitKey(0.4, color.RGBA{R: 255, A: 255}, color.RGBA{G: 255, A: 128}))
	tab.SetThresholds(0.05, 0.9)
	tab.SetGamma(1.25)

	if err := s.PutTransFunc("hot", tab); err != nil {
		t.Fatalf("PutTransFunc: %v", err)
	}
	got, err := s.GetTransFunc("hot")
	if err != nil {
		t.Fatalf("GetTransFunc: %v", err)
	}
	if !got.Equal(tab) {
		t.Fatalf("stored table differs from the original")
	}
	if got.Width() != 512 {
		t.Errorf("stored width = %d, want 512", got.Width())
	}

	// Replace keeps a single row
	if err := s.PutTransFunc("hot", transfunc.New(0)); err != nil {
		t.Fatalf("PutTransFunc replace: %v", err)
	}
	if err := s.PutTransFunc("cold", transfunc.New(0)); err != nil {
		t.Fatalf("PutTransFunc: %v", err)
	}
	infos, err := s.ListTransFuncs()
	if err != nil {
		t.Fatalf("ListTransFuncs: %v", err)
	}
	var names []string
	for _, info := range infos {
		names = append(names, info.Name)
		if info.Size == 0 || info.UpdatedAt.IsZero() {
			t.Errorf("incomplete info %+v", info)
		}
	}
	if diff := cmp.Diff([]string{"cold", "hot"}, names); diff != "" {
		t.Errorf("names mismatch (-want +got):\n%s", diff)
	}
	if got, _ := s.GetTransFunc("hot"); !got.IsStandardFunc() {
		t.Errorf("replace did not take effect")
	}

	if err := s.DeleteTransFunc("hot"); err != nil {
		t.Fatalf("DeleteTransFunc: %v", err)
	}
	if _, err := s.GetTransFunc("hot"); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetTransFunc after delete: err = %v, want ErrNotFound", err)
	}
	if err := s.DeleteTransFunc("hot"); !errors.Is(err, ErrNotFound) {
		t.Errorf("second delete: err = %v, want ErrNotFound", err)
	}
}

func TestSelectionCRUD(t *testing.T) {
	s := newTestStore(t)

	sel := &plot.Selection{}
	sel.Add(0, plot.NewBetween(plot.Numeric(1), plot.Numeric(5)))
	sel.Add(2, plot.NewIsSubstring("CD"))
	sel.Add(plot.XAxisColumn, nil)

	id, err := s.CreateSelection(sel)
	if err != nil {
		t.Fatalf("CreateSelection: %v", err)
	}
	if len(id) != 36 {
		t.Errorf("expected a uuid, got %q", id)
	}

	got, err := s.GetSelection(id)
	if err != nil {
		t.Fatalf("GetSelection: %v", err)
	}
	if !got.Equal(sel) {
		t.Fatalf("stored selection differs from the original")
	}

	infos, err := s.ListSelections()
	if err != nil {
		t.Fatalf("ListSelections: %v", err)
	}
	if len(infos) != 1 || infos[0].ID != id || infos[0].Entries != 3 {
		t.Errorf("unexpected infos %+v", infos)
	}

	if err := s.DeleteSelection(id); err != nil {
		t.Fatalf("DeleteSelection: %v", err)
	}
	if _, err := s.GetSelection(id); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetSelection after delete: err = %v, want ErrNotFound", err)
	}
}

func TestDecodeSelectionSkipsUnknown(t *testing.T) {
	doc := `Selection:
  entries:
    entry:
      - column: "1"
        predicate:
          type: PlotPredicateLess
          Threshold:
            value: "3"
      - column: "4"
        predicate:
          type: PlotPredicateRegex
`
	sel, err := DecodeSelection(strings.NewReader(doc), plot.NewRegistry())
	var skipped *plot.SkippedError
	if !errors.As(err, &skipped) {
		t.Fatalf("err = %v, want *plot.SkippedError", err)
	}
	if sel.Len() != 1 || sel.Entries()[0].Column != 1 {
		t.Fatalf("unexpected selection entries %+v", sel.Entries())
	}
	if !sel.Matches([]plot.CellValue{plot.Null(), plot.Numeric(2)}, plot.NoAxes) {
		t.Errorf("expected the kept predicate to match")
	}
}
