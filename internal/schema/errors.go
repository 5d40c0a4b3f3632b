package schema

import (
	"fmt"

	"github.com/hashicorp/hcl/v2"
)

// MalformedDocumentError reports a parse-time document defect with its
// source location. It aborts the run before any backend call.
type MalformedDocumentError struct {
	Detail  string
	Subject hcl.Range
}

func (e *MalformedDocumentError) Error() string {
	return fmt.Sprintf("malformed document: %s: %s", e.Subject, e.Detail)
}

// malformedf builds a MalformedDocumentError at the given range.
func malformedf(subject hcl.Range, format string, args ...any) error {
	return &MalformedDocumentError{
		Detail:  fmt.Sprintf(format, args...),
		Subject: subject,
	}
}

// diagErr converts HCL diagnostics into a MalformedDocumentError anchored at
// the first diagnostic's subject.
func diagErr(diags hcl.Diagnostics) error {
	if !diags.HasErrors() {
		return nil
	}
	first := diags.Errs()[0].(*hcl.Diagnostic)
	subject := hcl.Range{}
	if first.Subject != nil {
		subject = *first.Subject
	}
	return &MalformedDocumentError{
		Detail:  diags.Error(),
		Subject: subject,
	}
}
