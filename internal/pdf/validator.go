package pdf

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spherical/invoice-extractor/internal/domain"
)

// Extension is the only accepted upload suffix.
const Extension = ".pdf"

// Validator provides input validation for PDF uploads and paths
type Validator struct{}

// NewValidator creates a new validator instance
func NewValidator() *Validator {
	return &Validator{}
}

// HasPDFExtension reports whether name ends in ".pdf". The match is
// case-sensitive, so "INVOICE.PDF" is rejected.
func HasPDFExtension(name string) bool {
	return strings.HasSuffix(name, Extension)
}

// ValidateFilename checks an uploaded file name.
func (v *Validator) ValidateFilename(name string) error {
	if name == "" {
		return domain.ValidationError("file name cannot be empty", nil)
	}
	if !HasPDFExtension(name) {
		return domain.ValidationError(fmt.Sprintf("file is not a PDF (has extension %q)", filepath.Ext(name)), nil)
	}
	return nil
}

// ValidatePDFPath validates that a file path exists and points to a PDF file
func (v *Validator) ValidatePDFPath(path string) error {
	if strings.TrimSpace(path) == "" {
		return domain.ValidationError("file path cannot be empty", nil)
	}

	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return domain.ValidationError(fmt.Sprintf("file does not exist: %s", path), err)
		}
		return domain.ValidationError(fmt.Sprintf("cannot access file: %s", path), err)
	}

	if info.IsDir() {
		return domain.ValidationError(fmt.Sprintf("path is a directory, not a file: %s", path), nil)
	}

	if ext := strings.ToLower(filepath.Ext(path)); ext != Extension {
		return domain.ValidationError(fmt.Sprintf("file is not a PDF (has extension %s)", ext), nil)
	}

	return nil
}
