package service

import (
	"errors"
	"fmt"

	"github.com/RoaringBitmap/roaring/v2"

	"github.com/soma-tiles/tfserver/internal/logging"
	"github.com/soma-tiles/tfserver/internal/store"
	"github.com/soma-tiles/tfserver/pkg/plot"
)

// SelectionService stores plot selections and evaluates them against
// submitted rows.
type SelectionService struct {
	store    *store.Store
	registry *plot.Registry
	log      *logging.Logger
}

// NewSelectionService creates a new selection service.
func NewSelectionService(st *store.Store, reg *plot.Registry, logger *logging.Logger) *SelectionService {
	if logger == nil {
		logger = logging.NoopLogger()
	}
	return &SelectionService{store: st, registry: reg, log: logger}
}

// Registry returns the predicate registry used to decode selections.
func (s *SelectionService) Registry() *plot.Registry { return s.registry }

// Create stores sel and returns its ID.
func (s *SelectionService) Create(sel *plot.Selection) (string, error) {
	if sel == nil || sel.Len() == 0 {
		return "", fmt.Errorf("%w: empty selection", ErrInvalidArgument)
	}
	id, err := s.store.CreateSelection(sel)
	if err != nil {
		return "", fmt.Errorf("failed to store selection: %w", err)
	}
	s.log.WithSelection(id).Info("selection created", "entries", sel.Len())
	return id, nil
}

// Get loads a selection. Entries whose predicate type is unknown are
// dropped and logged.
func (s *SelectionService) Get(id string) (*plot.Selection, error) {
	sel, err := s.store.GetSelection(id)
	var skipped *plot.SkippedError
	if errors.As(err, &skipped) {
		s.log.WithSelection(id).Warn("selection entries skipped", "count", len(skipped.Errs), "error", err)
		return sel, nil
	}
	return sel, err
}

// List returns all stored selections.
func (s *SelectionService) List() ([]store.SelectionInfo, error) {
	return s.store.ListSelections()
}

// Delete removes a selection.
func (s *SelectionService) Delete(id string) error {
	if err := s.store.DeleteSelection(id); err != nil {
		return err
	}
	s.log.WithSelection(id).Info("selection deleted")
	return nil
}

// Filter returns the indices of the rows matching the stored selection.
func (s *SelectionService) Filter(id string, rows [][]plot.CellValue, axes plot.AxisColumns) (*roaring.Bitmap, error) {
	sel, err := s.Get(id)
	if err != nil {
		return nil, err
	}
	bm := sel.Filter(rows, axes)
	s.log.WithSelection(id).Debug("selection evaluated", "rows", len(rows), "matches", bm.GetCardinality())
	return bm, nil
}
