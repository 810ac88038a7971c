// Package seed loads reference data (tenants, clients, addresses and products)
// from a YAML fixture into a store.
package seed

import (
	"context"
	"fmt"
	"os"

	"measurement-service/internal/model"
	"measurement-service/internal/repository"

	"gopkg.in/yaml.v3"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Fixture is the root of a seed file
type Fixture struct {
	Tenants []Tenant `yaml:"tenants"`
}

type Tenant struct {
	ID       uint      `yaml:"id"`
	Name     string    `yaml:"name"`
	Document string    `yaml:"document"`
	Email    string    `yaml:"email"`
	Phone    string    `yaml:"phone"`
	Clients  []Client  `yaml:"clients"`
	Products []Product `yaml:"products"`
}

type Client struct {
	ID        uint      `yaml:"id"`
	Name      string    `yaml:"name"`
	Document  string    `yaml:"document"`
	Phone     string    `yaml:"phone"`
	Email     string    `yaml:"email"`
	Addresses []Address `yaml:"addresses"`
}

type Address struct {
	ID           uint   `yaml:"id"`
	Street       string `yaml:"street"`
	Neighborhood string `yaml:"neighborhood"`
	City         string `yaml:"city"`
	PostalCode   string `yaml:"postal_code"`
}

type Product struct {
	ID   uint   `yaml:"id"`
	Name string `yaml:"name"`
}

// Load reads and validates the fixture at path
func Load(path string) (*Fixture, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read seed file: %w", err)
	}
	return Parse(data)
}

// Parse decodes and validates a fixture
func Parse(data []byte) (*Fixture, error) {
	var f Fixture
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse seed file: %w", err)
	}
	if err := f.validate(); err != nil {
		return nil, err
	}
	return &f, nil
}

// ids are required for gorm upserts to be repeatable
func (f *Fixture) validate() error {
	seen := map[string]map[uint]bool{}
	check := func(kind string, id uint, name string) error {
		if id == 0 {
			return fmt.Errorf("seed %s %q has no id", kind, name)
		}
		if seen[kind] == nil {
			seen[kind] = map[uint]bool{}
		}
		if seen[kind][id] {
			return fmt.Errorf("seed %s id %d is duplicated", kind, id)
		}
		seen[kind][id] = true
		return nil
	}

	for _, t := range f.Tenants {
		if t.Name == "" {
			return fmt.Errorf("seed tenant %d has no name", t.ID)
		}
		if err := check("tenant", t.ID, t.Name); err != nil {
			return err
		}
		for _, c := range t.Clients {
			if err := check("client", c.ID, c.Name); err != nil {
				return err
			}
			for _, a := range c.Addresses {
				if err := check("address", a.ID, a.Street); err != nil {
					return err
				}
			}
		}
		for _, p := range t.Products {
			if err := check("product", p.ID, p.Name); err != nil {
				return err
			}
		}
	}
	return nil
}

// Counts reports how many rows of each kind the fixture holds
func (f *Fixture) Counts() (tenants, clients, addresses, products int) {
	for _, t := range f.Tenants {
		tenants++
		clients += len(t.Clients)
		products += len(t.Products)
		for _, c := range t.Clients {
			addresses += len(c.Addresses)
		}
	}
	return
}

func (f *Fixture) rows() (tenants []model.Tenant, clients []model.Client, addresses []model.Address, products []model.Product) {
	for _, t := range f.Tenants {
		tenants = append(tenants, model.Tenant{ID: t.ID, Name: t.Name, Document: t.Document, Email: t.Email, Phone: t.Phone})
		for _, c := range t.Clients {
			clients = append(clients, model.Client{ID: c.ID, TenantID: t.ID, Name: c.Name, Document: c.Document, Phone: c.Phone, Email: c.Email})
			for _, a := range c.Addresses {
				addresses = append(addresses, model.Address{
					ID:           a.ID,
					ClientID:     c.ID,
					Street:       a.Street,
					Neighborhood: a.Neighborhood,
					City:         a.City,
					PostalCode:   a.PostalCode,
				})
			}
		}
		for _, p := range t.Products {
			products = append(products, model.Product{ID: p.ID, TenantID: t.ID, Name: p.Name})
		}
	}
	return
}

// ApplyMemory inserts the fixture into an in-memory store
func ApplyMemory(store *repository.MemoryStore, f *Fixture) {
	tenants, clients, addresses, products := f.rows()
	for _, t := range tenants {
		store.AddTenant(t)
	}
	for _, c := range clients {
		store.AddClient(c)
	}
	for _, a := range addresses {
		store.AddAddress(a)
	}
	for _, p := range products {
		store.AddProduct(p)
	}
}

// ApplyGorm upserts the fixture by id in one transaction and moves the id
// sequences past the seeded rows
func ApplyGorm(ctx context.Context, db *gorm.DB, f *Fixture) error {
	tenants, clients, addresses, products := f.rows()

	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		batches := []struct {
			table string
			rows  interface{}
			n     int
		}{
			{"tenants", &tenants, len(tenants)},
			{"clients", &clients, len(clients)},
			{"addresses", &addresses, len(addresses)},
			{"products", &products, len(products)},
		}

		for _, b := range batches {
			if b.n == 0 {
				continue
			}
			err := tx.Clauses(clause.OnConflict{UpdateAll: true}).
				Omit(clause.Associations).
				Create(b.rows).Error
			if err != nil {
				return fmt.Errorf("seed %s: %w", b.table, err)
			}
			query := fmt.Sprintf(
				"SELECT setval(pg_get_serial_sequence('%[1]s', 'id'), (SELECT COALESCE(MAX(id), 1) FROM %[1]s))",
				b.table)
			if err := tx.Exec(query).Error; err != nil {
				return fmt.Errorf("advance %s id sequence: %w", b.table, err)
			}
		}
		return nil
	})
}
