package measurement

import (
	"context"
	"errors"
	"time"

	"measurement-service/internal/model"
)

// ErrNotFound is returned by a Repository when no row matches both the id and
// the tenant
var ErrNotFound = errors.New("measurement not found")

// Filter selects measurements of one tenant
type Filter struct {
	TenantID uint
	// Statuses are lower-case stored spellings; empty means any status
	Statuses []string
	From     *time.Time
	To       *time.Time
}

// Repository stores measurement rows. Every method is scoped by tenant id in
// the query itself.
type Repository interface {
	Create(ctx context.Context, m *model.Measurement) error
	// Get loads the row with its client, address and product
	Get(ctx context.Context, tenantID, id uint) (*model.Measurement, error)
	// Update writes the given columns; last write wins
	Update(ctx context.Context, tenantID, id uint, fields map[string]interface{}) error
	Delete(ctx context.Context, tenantID, id uint) error
	// Find returns matching rows with relations, newest created first
	Find(ctx context.Context, filter Filter) ([]model.Measurement, error)
	// ProductNames returns the names of the tenant's products among ids
	ProductNames(ctx context.Context, tenantID uint, ids []uint) (map[uint]string, error)
}
