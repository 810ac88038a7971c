package tenant_test

import (
	"context"
	"errors"
	"testing"

	"measurement-service/internal/apperror"
	"measurement-service/internal/model"
	"measurement-service/internal/repository"
	"measurement-service/internal/tenant"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type failingStore struct{}

func (failingStore) Owns(context.Context, uint, tenant.ResourceType, uint) (bool, error) {
	return false, errors.New("connection refused")
}

func (failingStore) AddressOfClient(context.Context, uint, uint, uint) (bool, error) {
	return false, errors.New("connection refused")
}

func newGuard() *tenant.Guard {
	store := repository.NewMemoryStore()
	store.AddClient(model.Client{ID: 1, TenantID: 1, Name: "Ana"})
	store.AddClient(model.Client{ID: 2, TenantID: 2, Name: "Bruno"})
	store.AddAddress(model.Address{ID: 3, ClientID: 1, Street: "Rua das Flores"})
	store.AddAddress(model.Address{ID: 4, ClientID: 2, Street: "Av. Brasil"})
	return tenant.NewGuard(store)
}

func TestAuthorize(t *testing.T) {
	guard := newGuard()
	ctx := context.Background()

	require.NoError(t, guard.Authorize(ctx, 1, tenant.ResourceClient, 1))

	err := guard.Authorize(ctx, 1, tenant.ResourceClient, 2)
	assert.True(t, apperror.IsNotFound(err))

	err = guard.Authorize(ctx, 0, tenant.ResourceClient, 1)
	assert.True(t, apperror.IsNotFound(err))

	err = guard.Authorize(ctx, 1, tenant.ResourceClient, 0)
	assert.True(t, apperror.IsNotFound(err))
}

func TestAuthorize_NotFoundDoesNotLeakExistence(t *testing.T) {
	guard := newGuard()
	ctx := context.Background()

	foreign := guard.Authorize(ctx, 1, tenant.ResourceClient, 2)
	missing := guard.Authorize(ctx, 1, tenant.ResourceClient, 999)

	assert.Equal(t, missing.Error(), foreign.Error())
}

func TestAuthorizeAddress(t *testing.T) {
	guard := newGuard()
	ctx := context.Background()

	require.NoError(t, guard.AuthorizeAddress(ctx, 1, 1, 3))

	tests := []struct {
		name                string
		tenantID, client, a uint
	}{
		{"address of another client", 1, 1, 4},
		{"client of another tenant", 1, 2, 4},
		{"missing address", 1, 1, 0},
		{"missing tenant", 0, 1, 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := guard.AuthorizeAddress(ctx, tt.tenantID, tt.client, tt.a)
			appErr, ok := apperror.As(err)
			require.True(t, ok)
			assert.Equal(t, apperror.KindValidation, appErr.Kind)
			assert.Equal(t, apperror.CodeInvalidAddress, appErr.Code)
		})
	}
}

func TestGuard_StoreErrorsAreNotAppErrors(t *testing.T) {
	guard := tenant.NewGuard(failingStore{})
	ctx := context.Background()

	err := guard.Authorize(ctx, 1, tenant.ResourceProduct, 1)
	require.Error(t, err)
	_, ok := apperror.As(err)
	assert.False(t, ok)

	err = guard.AuthorizeAddress(ctx, 1, 1, 1)
	require.Error(t, err)
	_, ok = apperror.As(err)
	assert.False(t, ok)
}
