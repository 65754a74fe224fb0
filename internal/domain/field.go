package domain

import "strings"

// FieldType is the kind of input a field captures
type FieldType string

const (
	FieldTypeSignature FieldType = "signature"
	FieldTypeDataEntry FieldType = "data_entry"
)

// ParseFieldType maps admin input to a FieldType. Only "data_entry" is recognised;
// every other value, including the empty string, becomes FieldTypeSignature.
func ParseFieldType(s string) FieldType {
	if strings.EqualFold(strings.TrimSpace(s), string(FieldTypeDataEntry)) {
		return FieldTypeDataEntry
	}
	return FieldTypeSignature
}

// Field is a rectangular region on one page of a request's document.
// Coordinates are PDF points measured from the top-left corner of the page.
type Field struct {
	ID         string    `json:"id"`
	RequestID  string    `json:"requestId"`
	PageNumber int       `json:"pageNumber"`
	X          float64   `json:"x"`
	Y          float64   `json:"y"`
	Width      float64   `json:"width"`
	Height     float64   `json:"height"`
	Label      string    `json:"label,omitempty"`
	FieldType  FieldType `json:"fieldType"`
	Position   int       `json:"position"`
}
