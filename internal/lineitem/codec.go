// Package lineitem encodes the products selected on a measurement into the
// single bounded text column persisted with the measurement row.
//
// Two layouts are written. The structured layout is a JSON document:
//
//	{"obs":"note","itens":[{"id":2,"nome":"Glass","quantidade":1,"altura":1.5,"largura":2}]}
//
// When that does not fit in MaxLength characters the compact layout is used
// instead, keeping the note and as many leading items as fit:
//
//	obs=note|items=2:1,7:3
//
// Anything else found in the column is read back as a plain note.
package lineitem

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
	"unicode/utf8"
)

// MaxLength is the size of the legacy description column, in characters
const MaxLength = 191

// Format identifies which layout a payload was written or read with
type Format int

const (
	FormatStructured Format = iota + 1
	FormatCompact
	FormatPlain
)

func (f Format) String() string {
	switch f {
	case FormatStructured:
		return "structured"
	case FormatCompact:
		return "compact"
	case FormatPlain:
		return "plain"
	default:
		return "unknown"
	}
}

const (
	compactNotePrefix  = "obs="
	compactItemsPrefix = "items="
	compactSeparator   = "|"
)

// Payload is the decoded content of the column
type Payload struct {
	Note   string
	Items  []Item
	Format Format
}

// Degraded reports whether the payload was read with a lossy layout
func (p Payload) Degraded() bool {
	return p.Format != FormatStructured
}

// Encoded is the result of encoding a note and its items
type Encoded struct {
	Text   string
	Format Format
	// Kept is the number of leading items present in Text
	Kept int
	// Total is the number of items that were offered to the encoder
	Total int
}

// Truncated reports whether trailing items were dropped to respect MaxLength
func (e Encoded) Truncated() bool {
	return e.Kept < e.Total
}

type structuredDoc struct {
	Obs   *string          `json:"obs"`
	Itens []structuredItem `json:"itens"`
}

type structuredItem struct {
	ID         uint     `json:"id"`
	Nome       string   `json:"nome"`
	Quantidade int      `json:"quantidade"`
	Altura     *float64 `json:"altura"`
	Largura    *float64 `json:"largura"`
}

// Encode returns the column value for note and items
func Encode(note string, items []Item) string {
	return EncodeReport(note, items).Text
}

// EncodeReport encodes like Encode and also reports which layout was used and
// how many items survived
func EncodeReport(note string, items []Item) Encoded {
	items = Normalize(items)

	if text, ok := encodeStructured(note, items); ok {
		return Encoded{Text: text, Format: FormatStructured, Kept: len(items), Total: len(items)}
	}

	text, kept := encodeCompact(note, items)
	return Encoded{Text: text, Format: FormatCompact, Kept: kept, Total: len(items)}
}

func encodeStructured(note string, items []Item) (string, bool) {
	doc := structuredDoc{Itens: make([]structuredItem, 0, len(items))}
	if note != "" {
		doc.Obs = &note
	}
	for _, it := range items {
		doc.Itens = append(doc.Itens, structuredItem{
			ID:         it.ID,
			Nome:       it.Name,
			Quantidade: it.Quantity,
			Altura:     it.Height,
			Largura:    it.Width,
		})
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(doc); err != nil {
		return "", false
	}
	text := strings.TrimSuffix(buf.String(), "\n")
	if utf8.RuneCountInString(text) > MaxLength {
		return "", false
	}
	return text, true
}

func encodeCompact(note string, items []Item) (string, int) {
	// the separator would split the note on decode
	note = strings.ReplaceAll(note, compactSeparator, "/")

	overhead := len(compactNotePrefix) + len(compactSeparator) + len(compactItemsPrefix)
	note = truncateRunes(note, MaxLength-overhead)

	var b strings.Builder
	b.WriteString(compactNotePrefix)
	b.WriteString(note)
	b.WriteString(compactSeparator)
	b.WriteString(compactItemsPrefix)

	length := utf8.RuneCountInString(b.String())
	kept := 0
	for _, it := range items {
		fragment := strconv.FormatUint(uint64(it.ID), 10) + ":" + strconv.Itoa(it.Quantity) + ","
		if length+len(fragment) > MaxLength {
			break
		}
		b.WriteString(fragment)
		length += len(fragment)
		kept++
	}

	return strings.TrimSuffix(b.String(), ","), kept
}

func truncateRunes(s string, max int) string {
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	runes := []rune(s)
	return string(runes[:max])
}
