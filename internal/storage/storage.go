package storage

import (
	"errors"
	"fmt"
	"sync"

	"github.com/eugenenazirov/circle-packer/internal/packing"
)

var (
	// ErrInvalidPanel indicates the provided panel inputs violate validation rules.
	ErrInvalidPanel = errors.New("panel inputs are invalid")
)

// defaultPanel mirrors the initial values of the sizing form.
var defaultPanel = packing.Inputs{Diameter: 33, Clearance: 1, Width: 600, Height: 120}

// PanelStore provides access to the panel inputs used when a request omits them.
type PanelStore interface {
	GetPanel() (packing.Inputs, error)
	SetPanel(in packing.Inputs) error
}

// MemoryStorage keeps the default panel in-memory and guards access with a RWMutex.
type MemoryStorage struct {
	mu    sync.RWMutex
	panel packing.Inputs
}

// NewMemoryStorage initialises storage with the default panel.
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{
		panel: defaultPanel,
	}
}

// DefaultPanel returns the panel a fresh store starts with.
func DefaultPanel() packing.Inputs {
	return defaultPanel
}

// GetPanel returns the currently configured panel.
func (s *MemoryStorage) GetPanel() (packing.Inputs, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.panel, nil
}

// SetPanel validates and stores the provided panel.
func (s *MemoryStorage) SetPanel(in packing.Inputs) error {
	if err := in.Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidPanel, err)
	}

	s.mu.Lock()
	s.panel = in
	s.mu.Unlock()

	return nil
}
