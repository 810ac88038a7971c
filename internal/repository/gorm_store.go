package repository

import (
	"context"
	"errors"
	"fmt"

	"measurement-service/internal/measurement"
	"measurement-service/internal/model"
	"measurement-service/internal/tenant"

	"gorm.io/gorm"
)

// GormStore keeps measurements and their reference data in PostgreSQL
type GormStore struct {
	db *gorm.DB
}

// NewGormStore creates a store over db
func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

var (
	_ measurement.Repository = (*GormStore)(nil)
	_ tenant.Store           = (*GormStore)(nil)
)

func (s *GormStore) withRelations(ctx context.Context) *gorm.DB {
	return s.db.WithContext(ctx).
		Preload("Client").
		Preload("Address").
		Preload("Product")
}

func (s *GormStore) Create(ctx context.Context, m *model.Measurement) error {
	return s.db.WithContext(ctx).Omit("Client", "Address", "Product").Create(m).Error
}

func (s *GormStore) Get(ctx context.Context, tenantID, id uint) (*model.Measurement, error) {
	var m model.Measurement
	err := s.withRelations(ctx).
		Where("id = ? AND tenant_id = ?", id, tenantID).
		First(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, measurement.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &m, nil
}

func (s *GormStore) Update(ctx context.Context, tenantID, id uint, fields map[string]interface{}) error {
	result := s.db.WithContext(ctx).
		Model(&model.Measurement{}).
		Where("id = ? AND tenant_id = ?", id, tenantID).
		Updates(fields)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return measurement.ErrNotFound
	}
	return nil
}

func (s *GormStore) Delete(ctx context.Context, tenantID, id uint) error {
	result := s.db.WithContext(ctx).
		Where("id = ? AND tenant_id = ?", id, tenantID).
		Delete(&model.Measurement{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return measurement.ErrNotFound
	}
	return nil
}

func (s *GormStore) Find(ctx context.Context, filter measurement.Filter) ([]model.Measurement, error) {
	query := s.withRelations(ctx).Where("tenant_id = ?", filter.TenantID)
	if len(filter.Statuses) > 0 {
		query = query.Where("LOWER(status) IN ?", filter.Statuses)
	}
	if filter.From != nil {
		query = query.Where("scheduled_at >= ?", *filter.From)
	}
	if filter.To != nil {
		query = query.Where("scheduled_at <= ?", *filter.To)
	}

	var rows []model.Measurement
	if err := query.Order("created_at DESC").Order("id DESC").Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (s *GormStore) ProductNames(ctx context.Context, tenantID uint, ids []uint) (map[uint]string, error) {
	names := make(map[uint]string, len(ids))
	if len(ids) == 0 {
		return names, nil
	}

	var products []model.Product
	err := s.db.WithContext(ctx).
		Select("id", "name").
		Where("tenant_id = ? AND id IN ?", tenantID, ids).
		Find(&products).Error
	if err != nil {
		return nil, err
	}
	for _, p := range products {
		names[p.ID] = p.Name
	}
	return names, nil
}

func (s *GormStore) Owns(ctx context.Context, tenantID uint, resource tenant.ResourceType, id uint) (bool, error) {
	db := s.db.WithContext(ctx)
	var query *gorm.DB
	switch resource {
	case tenant.ResourceClient:
		query = db.Model(&model.Client{}).Where("id = ? AND tenant_id = ?", id, tenantID)
	case tenant.ResourceProduct:
		query = db.Model(&model.Product{}).Where("id = ? AND tenant_id = ?", id, tenantID)
	case tenant.ResourceMeasurement:
		query = db.Model(&model.Measurement{}).Where("id = ? AND tenant_id = ?", id, tenantID)
	case tenant.ResourceAddress:
		query = db.Model(&model.Address{}).
			Joins("JOIN clients ON clients.id = addresses.client_id").
			Where("addresses.id = ? AND clients.tenant_id = ?", id, tenantID)
	default:
		return false, fmt.Errorf("unknown resource type %q", resource)
	}

	var count int64
	if err := query.Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (s *GormStore) AddressOfClient(ctx context.Context, tenantID, clientID, addressID uint) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).
		Model(&model.Address{}).
		Joins("JOIN clients ON clients.id = addresses.client_id").
		Where("addresses.id = ? AND addresses.client_id = ? AND clients.tenant_id = ?", addressID, clientID, tenantID).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}
