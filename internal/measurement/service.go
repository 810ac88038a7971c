// Package measurement implements the measurement lifecycle and search for a
// single tenant at a time. The tenant id is always an explicit argument.
package measurement

import (
	"context"
	"errors"
	"fmt"
	"time"

	"measurement-service/internal/apperror"
	"measurement-service/internal/lineitem"
	"measurement-service/internal/model"
	"measurement-service/internal/tenant"
	"measurement-service/pkg/logger"
	"measurement-service/prometheus"

	"go.uber.org/zap"
)

// Service applies lifecycle transitions to measurement rows
type Service struct {
	repo  Repository
	guard *tenant.Guard
	now   func() time.Time
	loc   *time.Location
}

// Option configures a Service
type Option func(*Service)

// WithClock overrides the clock used to reject retroactive dates
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithLocation sets the zone that defines calendar days
func WithLocation(loc *time.Location) Option {
	return func(s *Service) {
		if loc != nil {
			s.loc = loc
		}
	}
}

// NewService creates a measurement service
func NewService(repo Repository, guard *tenant.Guard, opts ...Option) *Service {
	s := &Service{
		repo:  repo,
		guard: guard,
		now:   time.Now,
		loc:   time.Local,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Location returns the zone that defines calendar days
func (s *Service) Location() *time.Location {
	return s.loc
}

// CreateInput holds the fields of a new measurement
type CreateInput struct {
	ClientID    uint
	AddressID   uint
	ScheduledAt time.Time
	Note        string
	Items       []lineitem.Item
	// ProductID is the single product of clients that predate line items; it
	// is used only when Items is empty
	ProductID *uint
}

// Patch lists the fields to change; nil or unset fields are left alone
type Patch struct {
	ClientID    *uint
	AddressID   *uint
	ProductID   Optional[uint]
	ScheduledAt *time.Time
	Note        *string
	Items       *[]lineitem.Item
	Height      Optional[float64]
	Width       Optional[float64]
	Status      *string
}

// CompleteInput holds the final data captured on site
type CompleteInput struct {
	Note  string
	Items []lineitem.Item
	// Height and Width are the single-item dimensions used when no item
	// carries its own
	Height *float64
	Width  *float64
}

// encodedPayload is what the codec produced plus the columns derived from the items
type encodedPayload struct {
	lineitem.Encoded
	primaryProduct *uint
	height         *float64
	width          *float64
}

// Create schedules a new pending measurement
func (s *Service) Create(ctx context.Context, tenantID uint, in CreateInput) (*Record, error) {
	log := logger.FromContext(ctx)
	prometheus.RecordMeasurementOperation("create")

	if in.ClientID == 0 || in.AddressID == 0 || in.ScheduledAt.IsZero() {
		return nil, apperror.Validation(apperror.CodeMissingFields, "client, address and scheduled date are required")
	}

	today := StartOfDay(s.now(), s.loc)
	if in.ScheduledAt.Before(today) {
		log.Info("Rejected retroactive schedule",
			zap.Time("scheduled_at", in.ScheduledAt),
			zap.Time("today", today))
		return nil, apperror.Validation(apperror.CodeRetroactiveDate, "scheduled date cannot be in the past")
	}

	items := in.Items
	if len(items) == 0 && in.ProductID != nil && *in.ProductID > 0 {
		items = []lineitem.Item{{ID: *in.ProductID, Quantity: 1}}
	}
	if err := validateItems(items); err != nil {
		return nil, err
	}

	if err := s.guard.AuthorizeAddress(ctx, tenantID, in.ClientID, in.AddressID); err != nil {
		return nil, err
	}

	payload, err := s.encode(ctx, tenantID, in.Note, items)
	if err != nil {
		return nil, err
	}

	m := model.Measurement{
		TenantID:    tenantID,
		ClientID:    in.ClientID,
		AddressID:   in.AddressID,
		ProductID:   payload.primaryProduct,
		ScheduledAt: in.ScheduledAt,
		Status:      string(StatusPending),
		Description: &payload.Text,
		Height:      payload.height,
		Width:       payload.width,
	}

	defer prometheus.TrackDBOperation("insert")(time.Now())
	if err := s.repo.Create(ctx, &m); err != nil {
		return nil, fmt.Errorf("create measurement: %w", err)
	}

	log.Info("Measurement created",
		zap.Uint("tenant_id", tenantID),
		zap.Uint("measurement_id", m.ID),
		zap.Uint("client_id", m.ClientID),
		zap.Int("items", payload.Total))

	return s.reload(ctx, tenantID, m.ID, &payload)
}

// Get returns one measurement of the tenant
func (s *Service) Get(ctx context.Context, tenantID, id uint) (*Record, error) {
	prometheus.RecordMeasurementOperation("get")
	return s.reload(ctx, tenantID, id, nil)
}

// Update applies a partial change
func (s *Service) Update(ctx context.Context, tenantID, id uint, patch Patch) (*Record, error) {
	log := logger.FromContext(ctx)
	prometheus.RecordMeasurementOperation("update")

	existing, err := s.load(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}

	fields := map[string]interface{}{}

	if patch.ClientID != nil || patch.AddressID != nil {
		clientID, addressID := existing.ClientID, existing.AddressID
		if patch.ClientID != nil {
			clientID = *patch.ClientID
		}
		if patch.AddressID != nil {
			addressID = *patch.AddressID
		}
		if err := s.guard.AuthorizeAddress(ctx, tenantID, clientID, addressID); err != nil {
			return nil, err
		}
		fields[model.ColumnClientID] = clientID
		fields[model.ColumnAddressID] = addressID
	}

	if patch.ScheduledAt != nil {
		if patch.ScheduledAt.IsZero() {
			return nil, apperror.Validation(apperror.CodeInvalidDate, "scheduled date is not valid")
		}
		fields[model.ColumnScheduledAt] = *patch.ScheduledAt
	}

	if patch.Status != nil {
		status, ok := ParseStatus(*patch.Status)
		if !ok {
			return nil, apperror.Validation(apperror.CodeInvalidStatus, "status must be pending or completed")
		}
		fields[model.ColumnStatus] = string(status)
	}

	var encoded *encodedPayload
	if patch.Note != nil || patch.Items != nil {
		current := lineitem.Decode(description(existing))
		note, items := current.Note, current.Items
		if patch.Note != nil {
			note = *patch.Note
		}
		if patch.Items != nil {
			items = *patch.Items
			if err := validateItems(items); err != nil {
				return nil, err
			}
		}

		payload, err := s.encode(ctx, tenantID, note, items)
		if err != nil {
			return nil, err
		}
		encoded = &payload
		fields[model.ColumnDescription] = payload.Text
		if patch.Items != nil {
			fields[model.ColumnProductID] = payload.primaryProduct
			fields[model.ColumnHeight] = payload.height
			fields[model.ColumnWidth] = payload.width
		}
	}

	if patch.ProductID.Set {
		if patch.ProductID.Value != nil {
			if err := s.guard.Authorize(ctx, tenantID, tenant.ResourceProduct, *patch.ProductID.Value); err != nil {
				return nil, err
			}
		}
		fields[model.ColumnProductID] = patch.ProductID.Value
	}
	if patch.Height.Set {
		if err := validateDimension("height", patch.Height.Value); err != nil {
			return nil, err
		}
		fields[model.ColumnHeight] = patch.Height.Value
	}
	if patch.Width.Set {
		if err := validateDimension("width", patch.Width.Value); err != nil {
			return nil, err
		}
		fields[model.ColumnWidth] = patch.Width.Value
	}

	if len(fields) == 0 {
		return s.record(ctx, tenantID, existing, nil)
	}

	if err := s.write(ctx, tenantID, id, fields); err != nil {
		return nil, err
	}

	log.Info("Measurement updated",
		zap.Uint("tenant_id", tenantID),
		zap.Uint("measurement_id", id),
		zap.Int("fields", len(fields)))

	return s.reload(ctx, tenantID, id, encoded)
}

// Complete marks the visit done and stores the final items. Completing an
// already completed measurement overwrites its data.
func (s *Service) Complete(ctx context.Context, tenantID, id uint, in CompleteInput) (*Record, error) {
	log := logger.FromContext(ctx)
	prometheus.RecordMeasurementOperation("complete")

	if err := validateItems(in.Items); err != nil {
		return nil, err
	}
	if err := validateDimension("height", in.Height); err != nil {
		return nil, err
	}
	if err := validateDimension("width", in.Width); err != nil {
		return nil, err
	}

	payload, err := s.encode(ctx, tenantID, in.Note, in.Items)
	if err != nil {
		return nil, err
	}

	height, width := payload.height, payload.width
	if height == nil && width == nil {
		height, width = in.Height, in.Width
	}

	fields := map[string]interface{}{
		model.ColumnStatus:      string(StatusCompleted),
		model.ColumnDescription: payload.Text,
		model.ColumnProductID:   payload.primaryProduct,
		model.ColumnHeight:      height,
		model.ColumnWidth:       width,
	}
	if err := s.write(ctx, tenantID, id, fields); err != nil {
		return nil, err
	}

	log.Info("Measurement completed",
		zap.Uint("tenant_id", tenantID),
		zap.Uint("measurement_id", id),
		zap.Int("items", payload.Kept))

	return s.reload(ctx, tenantID, id, &payload)
}

// SetStatus overrides the status without touching items or note
func (s *Service) SetStatus(ctx context.Context, tenantID, id uint, raw string) (*Record, error) {
	prometheus.RecordMeasurementOperation("set_status")

	if raw == "" {
		return nil, apperror.Validation(apperror.CodeMissingFields, "status is required")
	}
	status, ok := ParseStatus(raw)
	if !ok {
		return nil, apperror.Validation(apperror.CodeInvalidStatus, "status must be pending or completed")
	}

	if err := s.write(ctx, tenantID, id, map[string]interface{}{model.ColumnStatus: string(status)}); err != nil {
		return nil, err
	}

	logger.FromContext(ctx).Info("Measurement status changed",
		zap.Uint("tenant_id", tenantID),
		zap.Uint("measurement_id", id),
		zap.String("status", string(status)))

	return s.reload(ctx, tenantID, id, nil)
}

// Delete removes the measurement permanently
func (s *Service) Delete(ctx context.Context, tenantID, id uint) error {
	prometheus.RecordMeasurementOperation("delete")

	defer prometheus.TrackDBOperation("delete")(time.Now())
	if err := s.repo.Delete(ctx, tenantID, id); err != nil {
		if errors.Is(err, ErrNotFound) {
			return apperror.NotFound("measurement")
		}
		return fmt.Errorf("delete measurement %d: %w", id, err)
	}

	logger.FromContext(ctx).Info("Measurement deleted",
		zap.Uint("tenant_id", tenantID),
		zap.Uint("measurement_id", id))
	return nil
}

// write updates columns of a row the tenant owns; the tenant scope is part of
// the update itself
func (s *Service) write(ctx context.Context, tenantID, id uint, fields map[string]interface{}) error {
	if tenantID == 0 || id == 0 {
		return apperror.NotFound("measurement")
	}

	defer prometheus.TrackDBOperation("update")(time.Now())
	if err := s.repo.Update(ctx, tenantID, id, fields); err != nil {
		if errors.Is(err, ErrNotFound) {
			return apperror.NotFound("measurement")
		}
		return fmt.Errorf("update measurement %d: %w", id, err)
	}
	return nil
}

func (s *Service) load(ctx context.Context, tenantID, id uint) (*model.Measurement, error) {
	if tenantID == 0 || id == 0 {
		return nil, apperror.NotFound("measurement")
	}

	defer prometheus.TrackDBOperation("query")(time.Now())
	m, err := s.repo.Get(ctx, tenantID, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, apperror.NotFound("measurement")
		}
		return nil, fmt.Errorf("load measurement %d: %w", id, err)
	}
	return m, nil
}

func (s *Service) reload(ctx context.Context, tenantID, id uint, written *encodedPayload) (*Record, error) {
	m, err := s.load(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	return s.record(ctx, tenantID, m, written)
}

func (s *Service) record(ctx context.Context, tenantID uint, m *model.Measurement, written *encodedPayload) (*Record, error) {
	records, err := s.records(ctx, tenantID, []model.Measurement{*m})
	if err != nil {
		return nil, err
	}
	r := records[0]
	if written != nil && written.Truncated() {
		kept := written.Kept
		r.ItemsTruncated = true
		r.ItemsKept = &kept
	}
	return &r, nil
}

// records decodes rows and fills item names the payload did not carry from
// the tenant's catalog, with one catalog lookup for the whole batch
func (s *Service) records(ctx context.Context, tenantID uint, rows []model.Measurement) ([]Record, error) {
	payloads := make([]lineitem.Payload, len(rows))
	var missing []uint
	for i := range rows {
		payloads[i] = lineitem.Decode(description(&rows[i]))
		prometheus.RecordPayloadFormat("decode", payloads[i].Format.String())
		if payloads[i].Degraded() && len(payloads[i].Items) > 0 {
			logger.FromContext(ctx).Debug("Measurement items read without names or dimensions",
				zap.Uint("measurement_id", rows[i].ID),
				zap.String("format", payloads[i].Format.String()))
		}
		for _, it := range payloads[i].Items {
			if it.Name == "" && it.ID > 0 {
				missing = append(missing, it.ID)
			}
		}
	}

	if len(missing) > 0 {
		names, err := s.repo.ProductNames(ctx, tenantID, missing)
		if err != nil {
			return nil, fmt.Errorf("resolve product names: %w", err)
		}
		for i := range payloads {
			for j := range payloads[i].Items {
				it := &payloads[i].Items[j]
				if it.Name == "" {
					it.Name = names[it.ID]
				}
			}
		}
	}

	out := make([]Record, 0, len(rows))
	for i := range rows {
		out = append(out, newRecord(&rows[i], payloads[i]))
	}
	return out, nil
}

// encode resolves catalog names, derives the primary product and legacy
// dimensions, and encodes the payload column
func (s *Service) encode(ctx context.Context, tenantID uint, note string, items []lineitem.Item) (encodedPayload, error) {
	items = lineitem.Normalize(items)

	var names map[uint]string
	if len(items) > 0 {
		ids := make([]uint, 0, len(items))
		for _, it := range items {
			ids = append(ids, it.ID)
		}
		var err error
		names, err = s.repo.ProductNames(ctx, tenantID, ids)
		if err != nil {
			return encodedPayload{}, fmt.Errorf("resolve product names: %w", err)
		}
	}

	out := encodedPayload{}
	for i := range items {
		name, known := names[items[i].ID]
		if items[i].Name == "" {
			items[i].Name = name
		}
		if known && out.primaryProduct == nil {
			id := items[i].ID
			out.primaryProduct = &id
		}
		if out.height == nil && out.width == nil && (items[i].Height != nil || items[i].Width != nil) {
			out.height, out.width = items[i].Height, items[i].Width
		}
	}

	out.Encoded = lineitem.EncodeReport(note, items)
	prometheus.RecordPayloadFormat("encode", out.Format.String())

	if out.Truncated() {
		dropped := out.Total - out.Kept
		prometheus.RecordTruncatedItems(dropped)
		logger.FromContext(ctx).Warn("Line items truncated to fit payload column",
			zap.Uint("tenant_id", tenantID),
			zap.Int("items", out.Total),
			zap.Int("kept", out.Kept),
			zap.Int("dropped", dropped))
	}
	return out, nil
}

func validateItems(items []lineitem.Item) error {
	for _, it := range items {
		if it.ID == 0 {
			return apperror.Validation(apperror.CodeInvalidItem, "every item needs a product id")
		}
		if it.Quantity < 0 {
			return apperror.Validation(apperror.CodeInvalidItem, "item quantity must be positive")
		}
		if err := validateDimension("item height", it.Height); err != nil {
			return err
		}
		if err := validateDimension("item width", it.Width); err != nil {
			return err
		}
	}
	return nil
}

func validateDimension(name string, v *float64) error {
	if v != nil && *v <= 0 {
		return apperror.Validation(apperror.CodeInvalidItem, name+" must be a positive number")
	}
	return nil
}
