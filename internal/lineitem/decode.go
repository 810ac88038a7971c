package lineitem

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// decoder recognizes one column layout
type decoder interface {
	decode(raw string) (Payload, bool)
}

// decoders are tried in order; the first to recognize the input wins
var decoders = []decoder{
	structuredDecoder{},
	compactDecoder{},
}

// Decode reads a column value back into a note and its items. It never fails:
// unknown content comes back as a plain note with no items.
func Decode(raw string) Payload {
	if strings.TrimSpace(raw) == "" {
		return Payload{Format: FormatPlain}
	}

	for _, d := range decoders {
		if p, ok := d.decode(raw); ok {
			return p
		}
	}
	return Payload{Note: raw, Format: FormatPlain}
}

type structuredDecoder struct{}

type looseDoc struct {
	Obs   json.RawMessage   `json:"obs"`
	Itens []json.RawMessage `json:"itens"`
}

type looseItem struct {
	ID         json.RawMessage `json:"id"`
	Nome       json.RawMessage `json:"nome"`
	Quantidade json.RawMessage `json:"quantidade"`
	Altura     json.RawMessage `json:"altura"`
	Largura    json.RawMessage `json:"largura"`
}

func (structuredDecoder) decode(raw string) (Payload, bool) {
	trimmed := strings.TrimSpace(raw)
	if !strings.HasPrefix(trimmed, "{") {
		return Payload{}, false
	}

	var keys map[string]json.RawMessage
	if err := json.Unmarshal([]byte(trimmed), &keys); err != nil {
		return Payload{}, false
	}
	_, hasItems := keys["itens"]
	_, hasNote := keys["obs"]
	if !hasItems && !hasNote {
		return Payload{}, false
	}

	var doc looseDoc
	if err := json.Unmarshal([]byte(trimmed), &doc); err != nil {
		// itens present but not an array
		doc.Itens = nil
		doc.Obs = keys["obs"]
	}

	p := Payload{Note: rawString(doc.Obs), Format: FormatStructured}
	for _, rawItem := range doc.Itens {
		var li looseItem
		if err := json.Unmarshal(rawItem, &li); err != nil {
			continue
		}
		item := Item{
			Name:     rawString(li.Nome),
			Quantity: 1,
		}
		if id, ok := rawID(li.ID); ok {
			item.ID = id
		}
		if qty, ok := rawNumber(li.Quantidade); ok && qty >= 1 {
			item.Quantity = int(qty)
		}
		if h, ok := rawNumber(li.Altura); ok && h > 0 {
			item.Height = &h
		}
		if w, ok := rawNumber(li.Largura); ok && w > 0 {
			item.Width = &w
		}
		p.Items = append(p.Items, item)
	}
	return p, true
}

type compactDecoder struct{}

// the layout must open the value; a marker further in is note text
func (compactDecoder) decode(raw string) (Payload, bool) {
	if !strings.HasPrefix(raw, compactNotePrefix) && !strings.HasPrefix(raw, compactItemsPrefix) {
		return Payload{}, false
	}

	p := Payload{Format: FormatCompact}
	for _, segment := range strings.Split(raw, compactSeparator) {
		switch {
		case strings.HasPrefix(segment, compactNotePrefix):
			p.Note = strings.TrimPrefix(segment, compactNotePrefix)
		case strings.HasPrefix(segment, compactItemsPrefix):
			p.Items = parseCompactItems(strings.TrimPrefix(segment, compactItemsPrefix))
		}
	}
	return p, true
}

func parseCompactItems(s string) []Item {
	var items []Item
	for _, pair := range strings.Split(s, ",") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		idPart, qtyPart, _ := strings.Cut(pair, ":")
		id, err := strconv.ParseUint(strings.TrimSpace(idPart), 10, strconv.IntSize)
		if err != nil || id == 0 {
			continue
		}
		qty, err := strconv.Atoi(strings.TrimSpace(qtyPart))
		if err != nil || qty < 1 {
			qty = 1
		}
		items = append(items, Item{ID: uint(id), Quantity: qty})
	}
	return items
}

// rawString returns a JSON string value, or the literal text of a scalar
func rawString(raw json.RawMessage) string {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	if raw[0] == '{' || raw[0] == '[' {
		return ""
	}
	return string(raw)
}

// maxExactID is the largest id a float64 carries without rounding
const maxExactID = 1 << 53

// rawID reads a positive id from an integer literal or numeric string at full
// uint width. Non-integer numbers are accepted only while exact.
func rawID(raw json.RawMessage) (uint, bool) {
	text := string(bytes.TrimSpace(raw))
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		text = strings.TrimSpace(s)
	}
	if id, err := strconv.ParseUint(text, 10, strconv.IntSize); err == nil {
		return uint(id), id > 0
	}
	f, ok := rawNumber(raw)
	if !ok || f < 1 || f > maxExactID || f != math.Trunc(f) {
		return 0, false
	}
	return uint(f), true
}

// rawNumber accepts JSON numbers and numeric strings, including a decimal comma
func rawNumber(raw json.RawMessage) (float64, bool) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return 0, false
	}
	var f float64
	if err := json.Unmarshal(raw, &f); err == nil {
		return f, !math.IsNaN(f) && !math.IsInf(f, 0)
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return 0, false
	}
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", ".")
	if s == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}
