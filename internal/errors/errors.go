// Package errors defines the error taxonomy shared by the template compiler
// and the tooling around it: located syntax errors, batched schema
// violations, schema registration conflicts and the fatal allocation failure
// raised by the output buffer.
package errors

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/conneroisu/htmlc/internal/escape"
)

// ErrorCollector collects diagnostics from many template compilations.
// It is safe for concurrent use.
type ErrorCollector struct {
	diagnostics []*TemplateError
	errors      []error
	mutex       sync.RWMutex
}

// NewErrorCollector creates a new error collector
func NewErrorCollector() *ErrorCollector {
	return &ErrorCollector{
		diagnostics: make([]*TemplateError, 0),
		errors:      make([]error, 0),
	}
}

// Add records err. Validation errors are flattened into one diagnostic per
// violation; errors that carry no location are kept as general errors.
func (ec *ErrorCollector) Add(err error) {
	if err == nil {
		return
	}

	ec.mutex.Lock()
	defer ec.mutex.Unlock()

	var ve *ValidationError
	if errors.As(err, &ve) {
		ec.diagnostics = append(ec.diagnostics, ve.ToTemplateErrors()...)
		return
	}

	var te *TemplateError
	if errors.As(err, &te) && te.Template != "" {
		ec.diagnostics = append(ec.diagnostics, te)
		return
	}

	ec.errors = append(ec.errors, err)
}

// Diagnostics returns all located diagnostics ordered by template and position.
func (ec *ErrorCollector) Diagnostics() []*TemplateError {
	ec.mutex.RLock()
	defer ec.mutex.RUnlock()

	result := make([]*TemplateError, len(ec.diagnostics))
	copy(result, ec.diagnostics)
	sort.SliceStable(result, func(i, j int) bool {
		a, b := result[i], result[j]
		if a.Template != b.Template {
			return a.Template < b.Template
		}
		if a.Line != b.Line {
			return a.Line < b.Line
		}
		return a.Column < b.Column
	})
	return result
}

// GetAllErrors returns all collected errors, located diagnostics first.
func (ec *ErrorCollector) GetAllErrors() []error {
	diagnostics := ec.Diagnostics()

	ec.mutex.RLock()
	defer ec.mutex.RUnlock()

	all := make([]error, 0, len(diagnostics)+len(ec.errors))
	for _, d := range diagnostics {
		all = append(all, d)
	}
	return append(all, ec.errors...)
}

// HasErrors returns true if there are any errors
func (ec *ErrorCollector) HasErrors() bool {
	ec.mutex.RLock()
	defer ec.mutex.RUnlock()
	return len(ec.diagnostics) > 0 || len(ec.errors) > 0
}

// Count returns the number of collected errors.
func (ec *ErrorCollector) Count() int {
	ec.mutex.RLock()
	defer ec.mutex.RUnlock()
	return len(ec.diagnostics) + len(ec.errors)
}

// Clear clears all errors
func (ec *ErrorCollector) Clear() {
	ec.mutex.Lock()
	defer ec.mutex.Unlock()
	ec.diagnostics = ec.diagnostics[:0]
	ec.errors = ec.errors[:0]
}

// ClearTemplate drops the diagnostics recorded for one template.
func (ec *ErrorCollector) ClearTemplate(template string) {
	ec.mutex.Lock()
	defer ec.mutex.Unlock()
	kept := ec.diagnostics[:0]
	for _, d := range ec.diagnostics {
		if d.Template != template {
			kept = append(kept, d)
		}
	}
	ec.diagnostics = kept
}

// GetErrorsByTemplate returns diagnostics for a specific template.
func (ec *ErrorCollector) GetErrorsByTemplate(template string) []*TemplateError {
	ec.mutex.RLock()
	defer ec.mutex.RUnlock()
	var out []*TemplateError
	for _, d := range ec.diagnostics {
		if d.Template == template {
			out = append(out, d)
		}
	}
	return out
}

// ErrorOverlay generates the HTML error overlay shown by the preview server.
func (ec *ErrorCollector) ErrorOverlay() string {
	if !ec.HasErrors() {
		return ""
	}

	var b strings.Builder
	b.WriteString(`<div id="htmlc-error-overlay" style="position:fixed;inset:0;background:rgba(0,0,0,.85);color:#fff;font-family:Menlo,monospace;font-size:14px;z-index:9999;padding:20px;overflow:auto">`)
	b.WriteString(`<h2 style="margin:0 0 16px;color:#ff6b6b">Template Errors</h2>`)

	for _, err := range ec.GetAllErrors() {
		var te *TemplateError
		location, hint := "", ""
		if errors.As(err, &te) {
			location = te.Location()
			hint = te.Hint
		}
		fmt.Fprintf(&b,
			`<div style="background:#2d3748;padding:12px;margin-bottom:12px;border-left:4px solid #ff6b6b"><div style="color:#a0aec0;font-size:12px">%s</div><div>%s</div>`,
			escape.String(location), escape.String(err.Error()))
		if hint != "" {
			fmt.Fprintf(&b, `<div style="color:#feca57;margin-top:6px">hint: %s</div>`, escape.String(hint))
		}
		b.WriteString(`</div>`)
	}

	b.WriteString(`</div>`)
	return b.String()
}
