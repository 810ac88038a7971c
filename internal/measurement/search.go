package measurement

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"measurement-service/internal/apperror"
	"measurement-service/pkg/logger"
	"measurement-service/prometheus"

	"go.uber.org/zap"
)

// Query selects measurements to list. A zero Status means any status.
type Query struct {
	Status Status
	Term   string
	From   *time.Time
	To     *time.Time
}

// Search lists the tenant's measurements matching q, newest created first.
// From and To are widened to the whole of their calendar days.
func (s *Service) Search(ctx context.Context, tenantID uint, q Query) ([]Record, error) {
	log := logger.FromContext(ctx)
	prometheus.RecordMeasurementOperation("search")

	if tenantID == 0 {
		return []Record{}, nil
	}

	filter := Filter{TenantID: tenantID}
	if q.Status != "" {
		filter.Statuses = q.Status.Spellings()
		if filter.Statuses == nil {
			return nil, apperror.Validation(apperror.CodeInvalidStatus, "status must be pending or completed")
		}
	}
	if q.From != nil {
		from := StartOfDay(*q.From, s.loc)
		filter.From = &from
	}
	if q.To != nil {
		to := EndOfDay(*q.To, s.loc)
		filter.To = &to
	}

	start := time.Now()
	rows, err := s.repo.Find(ctx, filter)
	prometheus.TrackDBOperation("query")(start)
	if err != nil {
		return nil, fmt.Errorf("find measurements: %w", err)
	}

	records, err := s.records(ctx, tenantID, rows)
	if err != nil {
		return nil, err
	}

	term := fold(q.Term)
	out := make([]Record, 0, len(records))
	for _, r := range records {
		if term == "" || matches(r, term) {
			out = append(out, r)
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})

	log.Info("Measurements searched",
		zap.Uint("tenant_id", tenantID),
		zap.String("status", string(q.Status)),
		zap.Bool("has_term", term != ""),
		zap.Int("count", len(out)))
	return out, nil
}

// matches reports whether the folded term occurs in any searchable field
func matches(r Record, term string) bool {
	for _, field := range searchFields(r) {
		if field != "" && strings.Contains(fold(field), term) {
			return true
		}
	}
	return false
}

func searchFields(r Record) []string {
	var fields []string
	if r.Client != nil {
		fields = append(fields, r.Client.Name)
	}
	if r.Address != nil {
		fields = append(fields, r.Address.Street, r.Address.Neighborhood, r.Address.City)
	}
	if r.Product != nil {
		fields = append(fields, r.Product.Name)
	}
	for _, it := range r.Items {
		fields = append(fields, it.Name)
	}
	return fields
}
