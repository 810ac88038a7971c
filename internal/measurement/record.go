package measurement

import (
	"bytes"
	"encoding/json"
	"time"

	"measurement-service/internal/lineitem"
	"measurement-service/internal/model"
)

// Record is a measurement with its payload decoded
type Record struct {
	ID          uint            `json:"id"`
	ClientID    uint            `json:"client_id"`
	AddressID   uint            `json:"address_id"`
	ProductID   *uint           `json:"product_id"`
	ScheduledAt time.Time       `json:"scheduled_at"`
	Status      Status          `json:"status"`
	Note        string          `json:"note"`
	Items       []lineitem.Item `json:"items"`
	Height      *float64        `json:"height"`
	Width       *float64        `json:"width"`
	Area        float64         `json:"area"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`

	Client  *model.Client  `json:"client,omitempty"`
	Address *model.Address `json:"address,omitempty"`
	Product *model.Product `json:"product,omitempty"`

	// set on writes whose items did not all fit in the payload column
	ItemsTruncated bool `json:"items_truncated,omitempty"`
	ItemsKept      *int `json:"items_kept,omitempty"`
}

func newRecord(m *model.Measurement, payload lineitem.Payload) Record {
	items := payload.Items
	if items == nil {
		items = []lineitem.Item{}
	}

	r := Record{
		ID:          m.ID,
		ClientID:    m.ClientID,
		AddressID:   m.AddressID,
		ProductID:   m.ProductID,
		ScheduledAt: m.ScheduledAt,
		Status:      NormalizeStatus(m.Status),
		Note:        payload.Note,
		Items:       items,
		Height:      m.Height,
		Width:       m.Width,
		CreatedAt:   m.CreatedAt,
		UpdatedAt:   m.UpdatedAt,
		Client:      m.Client,
		Address:     m.Address,
		Product:     m.Product,
	}

	r.Area = lineitem.TotalArea(items)
	if r.Area == 0 && m.Height != nil && m.Width != nil {
		r.Area = *m.Height * *m.Width
	}
	return r
}

func description(m *model.Measurement) string {
	if m.Description == nil {
		return ""
	}
	return *m.Description
}

// Optional is a patch field that distinguishes "absent" from "set to null".
// JSON null and "" both clear the value.
type Optional[T any] struct {
	Set   bool
	Value *T
}

// Some returns a set Optional holding v
func Some[T any](v T) Optional[T] {
	return Optional[T]{Set: true, Value: &v}
}

// Null returns a set Optional that clears the value
func Null[T any]() Optional[T] {
	return Optional[T]{Set: true}
}

func (o *Optional[T]) UnmarshalJSON(data []byte) error {
	o.Set = true
	trimmed := bytes.TrimSpace(data)
	if bytes.Equal(trimmed, []byte("null")) || bytes.Equal(trimmed, []byte(`""`)) {
		o.Value = nil
		return nil
	}
	var v T
	if err := json.Unmarshal(trimmed, &v); err != nil {
		return err
	}
	o.Value = &v
	return nil
}
