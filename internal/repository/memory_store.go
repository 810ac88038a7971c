package repository

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"measurement-service/internal/measurement"
	"measurement-service/internal/model"
	"measurement-service/internal/tenant"
)

// MemoryStore is an in-process store with the same tenant scoping as
// GormStore. It backs DB_DRIVER=memory and the tests.
type MemoryStore struct {
	mu           sync.RWMutex
	nextID       uint
	lastCreated  time.Time
	now          func() time.Time
	tenants      map[uint]model.Tenant
	clients      map[uint]model.Client
	addresses    map[uint]model.Address
	products     map[uint]model.Product
	measurements map[uint]model.Measurement
}

// NewMemoryStore creates an empty store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		now:          time.Now,
		tenants:      make(map[uint]model.Tenant),
		clients:      make(map[uint]model.Client),
		addresses:    make(map[uint]model.Address),
		products:     make(map[uint]model.Product),
		measurements: make(map[uint]model.Measurement),
	}
}

var (
	_ measurement.Repository = (*MemoryStore)(nil)
	_ tenant.Store           = (*MemoryStore)(nil)
)

func (s *MemoryStore) id(requested uint) uint {
	if requested == 0 {
		s.nextID++
		return s.nextID
	}
	if requested > s.nextID {
		s.nextID = requested
	}
	return requested
}

// AddTenant inserts or replaces a tenant; a zero id is assigned
func (s *MemoryStore) AddTenant(t model.Tenant) model.Tenant {
	s.mu.Lock()
	defer s.mu.Unlock()
	t.ID = s.id(t.ID)
	s.tenants[t.ID] = t
	return t
}

// AddClient inserts or replaces a client; a zero id is assigned
func (s *MemoryStore) AddClient(c model.Client) model.Client {
	s.mu.Lock()
	defer s.mu.Unlock()
	c.ID = s.id(c.ID)
	c.Addresses = nil
	s.clients[c.ID] = c
	return c
}

// AddAddress inserts or replaces an address; a zero id is assigned
func (s *MemoryStore) AddAddress(a model.Address) model.Address {
	s.mu.Lock()
	defer s.mu.Unlock()
	a.ID = s.id(a.ID)
	s.addresses[a.ID] = a
	return a
}

// AddProduct inserts or replaces a product; a zero id is assigned
func (s *MemoryStore) AddProduct(p model.Product) model.Product {
	s.mu.Lock()
	defer s.mu.Unlock()
	p.ID = s.id(p.ID)
	s.products[p.ID] = p
	return p
}

// RenameProduct changes a catalog name
func (s *MemoryStore) RenameProduct(id uint, name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p, ok := s.products[id]; ok {
		p.Name = name
		s.products[id] = p
	}
}

// SetCreatedAt overrides the creation time of a measurement
func (s *MemoryStore) SetCreatedAt(id uint, at time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if m, ok := s.measurements[id]; ok {
		m.CreatedAt = at
		s.measurements[id] = m
	}
}

// Raw returns the stored row without relations
func (s *MemoryStore) Raw(id uint) (model.Measurement, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	m, ok := s.measurements[id]
	return m, ok
}

func (s *MemoryStore) Create(_ context.Context, m *model.Measurement) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if m.ID != 0 {
		if _, exists := s.measurements[m.ID]; exists {
			return fmt.Errorf("measurement %d already exists", m.ID)
		}
	}
	m.ID = s.id(m.ID)

	created := s.now()
	if !created.After(s.lastCreated) {
		created = s.lastCreated.Add(time.Microsecond)
	}
	s.lastCreated = created
	m.CreatedAt, m.UpdatedAt = created, created

	row := *m
	row.Client, row.Address, row.Product = nil, nil, nil
	s.measurements[m.ID] = row
	return nil
}

func (s *MemoryStore) Get(_ context.Context, tenantID, id uint) (*model.Measurement, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	m, ok := s.measurements[id]
	if !ok || m.TenantID != tenantID {
		return nil, measurement.ErrNotFound
	}
	withRelations := s.attach(m)
	return &withRelations, nil
}

func (s *MemoryStore) Update(_ context.Context, tenantID, id uint, fields map[string]interface{}) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	m, ok := s.measurements[id]
	if !ok || m.TenantID != tenantID {
		return measurement.ErrNotFound
	}
	for column, value := range fields {
		if err := setColumn(&m, column, value); err != nil {
			return err
		}
	}
	m.UpdatedAt = s.now()
	s.measurements[id] = m
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, tenantID, id uint) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	m, ok := s.measurements[id]
	if !ok || m.TenantID != tenantID {
		return measurement.ErrNotFound
	}
	delete(s.measurements, id)
	return nil
}

func (s *MemoryStore) Find(_ context.Context, filter measurement.Filter) ([]model.Measurement, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	statuses := make(map[string]bool, len(filter.Statuses))
	for _, st := range filter.Statuses {
		statuses[strings.ToLower(st)] = true
	}

	rows := make([]model.Measurement, 0)
	for _, m := range s.measurements {
		if m.TenantID != filter.TenantID {
			continue
		}
		if len(statuses) > 0 && !statuses[strings.ToLower(m.Status)] {
			continue
		}
		if filter.From != nil && m.ScheduledAt.Before(*filter.From) {
			continue
		}
		if filter.To != nil && m.ScheduledAt.After(*filter.To) {
			continue
		}
		rows = append(rows, s.attach(m))
	}

	sort.Slice(rows, func(i, j int) bool {
		if !rows[i].CreatedAt.Equal(rows[j].CreatedAt) {
			return rows[i].CreatedAt.After(rows[j].CreatedAt)
		}
		return rows[i].ID > rows[j].ID
	})
	return rows, nil
}

func (s *MemoryStore) ProductNames(_ context.Context, tenantID uint, ids []uint) (map[uint]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	names := make(map[uint]string, len(ids))
	for _, id := range ids {
		if p, ok := s.products[id]; ok && p.TenantID == tenantID {
			names[id] = p.Name
		}
	}
	return names, nil
}

func (s *MemoryStore) Owns(_ context.Context, tenantID uint, resource tenant.ResourceType, id uint) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	switch resource {
	case tenant.ResourceClient:
		c, ok := s.clients[id]
		return ok && c.TenantID == tenantID, nil
	case tenant.ResourceProduct:
		p, ok := s.products[id]
		return ok && p.TenantID == tenantID, nil
	case tenant.ResourceMeasurement:
		m, ok := s.measurements[id]
		return ok && m.TenantID == tenantID, nil
	case tenant.ResourceAddress:
		a, ok := s.addresses[id]
		if !ok {
			return false, nil
		}
		c, ok := s.clients[a.ClientID]
		return ok && c.TenantID == tenantID, nil
	default:
		return false, fmt.Errorf("unknown resource type %q", resource)
	}
}

func (s *MemoryStore) AddressOfClient(_ context.Context, tenantID, clientID, addressID uint) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	a, ok := s.addresses[addressID]
	if !ok || a.ClientID != clientID {
		return false, nil
	}
	c, ok := s.clients[clientID]
	return ok && c.TenantID == tenantID, nil
}

// attach copies m and points it at copies of its related rows
func (s *MemoryStore) attach(m model.Measurement) model.Measurement {
	if c, ok := s.clients[m.ClientID]; ok {
		m.Client = &c
	}
	if a, ok := s.addresses[m.AddressID]; ok {
		m.Address = &a
	}
	if m.ProductID != nil {
		if p, ok := s.products[*m.ProductID]; ok {
			m.Product = &p
		}
	}
	return m
}

func setColumn(m *model.Measurement, column string, value interface{}) error {
	switch column {
	case model.ColumnClientID:
		v, ok := value.(uint)
		if !ok {
			return columnTypeError(column, value)
		}
		m.ClientID = v
	case model.ColumnAddressID:
		v, ok := value.(uint)
		if !ok {
			return columnTypeError(column, value)
		}
		m.AddressID = v
	case model.ColumnProductID:
		switch v := value.(type) {
		case nil:
			m.ProductID = nil
		case *uint:
			m.ProductID = copyPtr(v)
		case uint:
			m.ProductID = &v
		default:
			return columnTypeError(column, value)
		}
	case model.ColumnScheduledAt:
		v, ok := value.(time.Time)
		if !ok {
			return columnTypeError(column, value)
		}
		m.ScheduledAt = v
	case model.ColumnStatus:
		v, ok := value.(string)
		if !ok {
			return columnTypeError(column, value)
		}
		m.Status = v
	case model.ColumnDescription:
		switch v := value.(type) {
		case nil:
			m.Description = nil
		case string:
			m.Description = &v
		case *string:
			m.Description = copyPtr(v)
		default:
			return columnTypeError(column, value)
		}
	case model.ColumnHeight, model.ColumnWidth:
		var f *float64
		switch v := value.(type) {
		case nil:
		case *float64:
			f = copyPtr(v)
		case float64:
			f = &v
		default:
			return columnTypeError(column, value)
		}
		if column == model.ColumnHeight {
			m.Height = f
		} else {
			m.Width = f
		}
	default:
		return fmt.Errorf("unknown column %q", column)
	}
	return nil
}

func columnTypeError(column string, value interface{}) error {
	return fmt.Errorf("column %q cannot hold %T", column, value)
}

func copyPtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
