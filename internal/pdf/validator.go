package pdf

import (
	"bytes"
	stderrors "errors"
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"
)

const pdfHeader = "%PDF-"

// Validator checks uploaded bytes before they are accepted as an original document
type Validator struct {
	maxFileSize int64
}

// NewValidator creates a new PDF validator with the specified constraints
func NewValidator(maxFileSize int64) *Validator {
	return &Validator{
		maxFileSize: maxFileSize,
	}
}

// ValidateDocument performs validation on an uploaded PDF
func (v *Validator) ValidateDocument(fileName string, data []byte) (err error) {
	if len(data) == 0 {
		return fmt.Errorf("file is empty")
	}

	if fileName != "" && !strings.HasSuffix(strings.ToLower(fileName), ".pdf") {
		return fmt.Errorf("file is not a PDF: %s", fileName)
	}

	if int64(len(data)) > v.maxFileSize {
		return fmt.Errorf("file too large: %d bytes (max: %d bytes)", len(data), v.maxFileSize)
	}

	if !bytes.HasPrefix(bytes.TrimLeft(data, "\x00\t\r\n "), []byte(pdfHeader)) {
		return fmt.Errorf("missing %s header", pdfHeader)
	}

	// The reader panics on some malformed cross reference tables.
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("invalid PDF file: %v", r)
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		if stderrors.Is(err, pdf.ErrInvalidPassword) {
			return fmt.Errorf("encrypted PDFs are not supported")
		}
		return fmt.Errorf("invalid PDF file: %w", err)
	}
	// Stamped pages are written unencrypted, so protected originals are refused.
	if !reader.Trailer().Key("Encrypt").IsNull() {
		return fmt.Errorf("encrypted PDFs are not supported")
	}
	if reader.NumPage() < 1 {
		return fmt.Errorf("PDF has no pages")
	}

	return nil
}

// IsValidPDF performs a quick check to see if data is an acceptable PDF
func (v *Validator) IsValidPDF(data []byte) bool {
	return v.ValidateDocument("", data) == nil
}

// MaxFileSize returns the configured upload limit
func (v *Validator) MaxFileSize() int64 {
	return v.maxFileSize
}
