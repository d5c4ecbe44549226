// Package codec converts catalog snapshots to and from portable documents.
// JSON documents round-trip; CSV is export-only.
package codec

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/ajitpratap0/tech-tracker/internal/models"
)

// CSVHeader is the fixed header row of a CSV export.
var CSVHeader = []string{"ID", "Название", "Описание", "Статус", "Заметки", "Категория"}

// requiredFields must be present on every imported record.
var requiredFields = []string{"id", "title", "description"}

// FormatError reports a malformed import document.
type FormatError struct {
	Reason string
	Err    error
}

func (e *FormatError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("invalid import document: %s: %v", e.Reason, e.Err)
	}
	return "invalid import document: " + e.Reason
}

func (e *FormatError) Unwrap() error { return e.Err }

// Document is the portable JSON export of a catalog.
type Document struct {
	ExportedAt   time.Time           `json:"exportedAt"`
	Count        int                 `json:"count"`
	Technologies []models.Technology `json:"technologies"`
}

// ExportJSON wraps records in an export document stamped with now.
// A nil catalog is exported as an empty array.
func ExportJSON(records []models.Technology, now time.Time) Document {
	if records == nil {
		records = []models.Technology{}
	}
	return Document{
		ExportedAt:   now.UTC(),
		Count:        len(records),
		Technologies: records,
	}
}

// WriteJSON writes doc as indented JSON.
func WriteJSON(w io.Writer, doc Document) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("encoding JSON export: %w", err)
	}
	return nil
}

// ImportJSON reads an export document and returns its technologies.
// The document must be an object whose "technologies" member is an array of
// objects each carrying id, title and description.
func ImportJSON(r io.Reader) ([]models.Technology, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, &FormatError{Reason: "reading document", Err: err}
	}
	return DecodeJSON(data)
}

// DecodeJSON is ImportJSON over an in-memory document.
func DecodeJSON(data []byte) ([]models.Technology, error) {
	var envelope map[string]json.RawMessage
	if err := json.Unmarshal(data, &envelope); err != nil {
		return nil, &FormatError{Reason: "document is not a JSON object", Err: err}
	}
	raw, ok := envelope["technologies"]
	if !ok {
		return nil, &FormatError{Reason: `missing "technologies"`}
	}
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || raw[0] != '[' {
		return nil, &FormatError{Reason: `"technologies" is not an array`}
	}

	var items []map[string]json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, &FormatError{Reason: `"technologies" must contain objects`, Err: err}
	}
	for i, item := range items {
		for _, field := range requiredFields {
			if _, ok := item[field]; !ok {
				return nil, &FormatError{Reason: fmt.Sprintf("technology %d: missing %q", i, field)}
			}
		}
	}

	records := make([]models.Technology, 0, len(items))
	if err := json.Unmarshal(raw, &records); err != nil {
		return nil, &FormatError{Reason: "decoding technologies", Err: err}
	}
	return records, nil
}

// ExportCSV writes the header and one row per record with standard quoting.
func ExportCSV(w io.Writer, records []models.Technology) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(CSVHeader); err != nil {
		return fmt.Errorf("writing CSV header: %w", err)
	}
	for i := range records {
		t := &records[i]
		row := []string{
			strconv.FormatInt(t.ID, 10),
			t.Title,
			t.Description,
			string(t.Status),
			t.Notes,
			t.Category,
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("writing CSV row %d: %w", t.ID, err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("flushing CSV: %w", err)
	}
	return nil
}

// Filename returns the conventional export file name for format.
func Filename(format string, now time.Time) string {
	return fmt.Sprintf("tech-tracker-%s.%s", now.UTC().Format("2006-01-02"), format)
}
