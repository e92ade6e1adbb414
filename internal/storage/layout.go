package storage

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/google/uuid"
	"github.com/maruel/natural"

	"github.com/eugenenazirov/circle-packer/internal/packing"
)

var (
	// ErrLayoutNotFound is returned when no layout is stored under the requested ID.
	ErrLayoutNotFound = errors.New("layout not found")
	// ErrInvalidLayout is returned when a layout's result does not match its request.
	ErrInvalidLayout = errors.New("layout is invalid")
)

// Layout is a saved packing: the request, the computed result and metadata.
type Layout struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	Request   packing.Request `json:"request"`
	Result    packing.Result  `json:"result"`
	CreatedAt time.Time       `json:"createdAt"`
}

// LayoutStore keeps computed layouts so they can be exported later.
type LayoutStore interface {
	Save(ctx context.Context, l Layout) (Layout, error)
	Get(ctx context.Context, id string) (Layout, error)
	List(ctx context.Context) ([]Layout, error)
	Delete(ctx context.Context, id string) error
}

// prepareLayout validates l and fills in ID, name and creation time.
func prepareLayout(l Layout, now time.Time) (Layout, error) {
	if err := l.Request.Validate(); err != nil {
		return Layout{}, fmt.Errorf("%w: %w", ErrInvalidLayout, err)
	}
	if l.Result.Count != len(l.Result.Circles) {
		return Layout{}, fmt.Errorf("%w: count %d does not match %d circles", ErrInvalidLayout, l.Result.Count, len(l.Result.Circles))
	}
	if l.ID == "" {
		l.ID = uuid.NewString()
	}
	if l.Name == "" {
		l.Name = "layout-" + l.ID[:8]
	}
	if l.CreatedAt.IsZero() {
		l.CreatedAt = now
	}
	return l, nil
}

// sortLayouts orders layouts by name in natural order ("panel-2" before
// "panel-10"), then by creation time.
func sortLayouts(layouts []Layout) {
	slices.SortStableFunc(layouts, func(a, b Layout) int {
		switch {
		case natural.Less(a.Name, b.Name):
			return -1
		case natural.Less(b.Name, a.Name):
			return 1
		}
		return a.CreatedAt.Compare(b.CreatedAt)
	})
}
