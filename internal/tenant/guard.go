// Package tenant checks that the entities a request touches belong to the
// caller's company before anything is read or written.
package tenant

import (
	"context"
	"fmt"

	"measurement-service/internal/apperror"
	"measurement-service/pkg/logger"

	"go.uber.org/zap"
)

// ResourceType names a tenant-scoped entity
type ResourceType string

const (
	ResourceClient      ResourceType = "client"
	ResourceAddress     ResourceType = "address"
	ResourceProduct     ResourceType = "product"
	ResourceMeasurement ResourceType = "measurement"
)

// Store answers ownership questions. Implementations must scope every query by
// tenant id.
type Store interface {
	Owns(ctx context.Context, tenantID uint, resource ResourceType, id uint) (bool, error)
	AddressOfClient(ctx context.Context, tenantID, clientID, addressID uint) (bool, error)
}

// Guard turns ownership answers into application errors
type Guard struct {
	store Store
}

// NewGuard creates a guard over store
func NewGuard(store Store) *Guard {
	return &Guard{store: store}
}

// Authorize returns a not-found error unless the resource belongs to tenantID
func (g *Guard) Authorize(ctx context.Context, tenantID uint, resource ResourceType, id uint) error {
	if tenantID == 0 || id == 0 {
		return apperror.NotFound(string(resource))
	}

	ok, err := g.store.Owns(ctx, tenantID, resource, id)
	if err != nil {
		return fmt.Errorf("check %s ownership: %w", resource, err)
	}
	if !ok {
		logger.FromContext(ctx).Info("Ownership check failed",
			zap.Uint("tenant_id", tenantID),
			zap.String("resource", string(resource)),
			zap.Uint("resource_id", id))
		return apperror.NotFound(string(resource))
	}
	return nil
}

// AuthorizeAddress checks that addressID belongs to clientID and clientID to
// tenantID. A mismatch is a validation error so the caller cannot tell a
// foreign client from a wrong address.
func (g *Guard) AuthorizeAddress(ctx context.Context, tenantID, clientID, addressID uint) error {
	if tenantID == 0 || clientID == 0 || addressID == 0 {
		return apperror.Validation(apperror.CodeInvalidAddress, "address is not valid for this client")
	}

	ok, err := g.store.AddressOfClient(ctx, tenantID, clientID, addressID)
	if err != nil {
		return fmt.Errorf("check address ownership: %w", err)
	}
	if !ok {
		logger.FromContext(ctx).Info("Address does not belong to client",
			zap.Uint("tenant_id", tenantID),
			zap.Uint("client_id", clientID),
			zap.Uint("address_id", addressID))
		return apperror.Validation(apperror.CodeInvalidAddress, "address is not valid for this client")
	}
	return nil
}
