// Package ports define the catalog source interface.
package ports

import (
	"context"

	"github.com/tejashwikalptaru/gostream/internal/domain"
)

// CatalogSource reads the ordered, immutable list of available tracks.
// There is no write path.
type CatalogSource interface {
	// Load returns the catalog in its canonical order.
	// Records that cannot be coerced into a domain.Track are skipped.
	Load(ctx context.Context) ([]domain.Track, error)
}
