package measurement

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Status of a measurement visit
type Status string

const (
	StatusPending   Status = "pending"
	StatusCompleted Status = "completed"
)

// Spellings found in stored rows, lower case. Rows written before the status
// names were unified used Portuguese words with and without accents.
var (
	pendingSpellings   = []string{"pending", "pendente"}
	completedSpellings = []string{"completed", "concluída", "concluida", "concluído", "concluido"}
)

// ParseStatus maps any known spelling to a Status
func ParseStatus(raw string) (Status, bool) {
	folded := fold(raw)
	for _, s := range pendingSpellings {
		if folded == fold(s) {
			return StatusPending, true
		}
	}
	for _, s := range completedSpellings {
		if folded == fold(s) {
			return StatusCompleted, true
		}
	}
	return "", false
}

// NormalizeStatus returns the canonical status of a stored value, or the
// value itself when it is not a known spelling
func NormalizeStatus(stored string) Status {
	if s, ok := ParseStatus(stored); ok {
		return s
	}
	return Status(stored)
}

// Spellings returns the stored spellings matching s, or nil for an unknown status
func (s Status) Spellings() []string {
	switch s {
	case StatusPending:
		return append([]string(nil), pendingSpellings...)
	case StatusCompleted:
		return append([]string(nil), completedSpellings...)
	default:
		return nil
	}
}

// fold lowercases s and strips combining marks so "Concluída" matches "concluida"
func fold(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	stripped, _, err := transform.String(t, s)
	if err != nil {
		stripped = s
	}
	return strings.TrimSpace(cases.Fold().String(stripped))
}
