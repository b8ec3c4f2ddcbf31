package model

// Severity grades a diagnostic.
type Severity string

const (
	SeverityInfo    Severity = "info"
	SeverityWarning Severity = "warning"
	SeverityError   Severity = "error"
)

// Diagnostic is one non-fatal problem observed while processing a spreadsheet.
type Diagnostic struct {
	Severity Severity `json:"severity"`
	Source   string   `json:"source"`
	Message  string   `json:"message"`
}

// Diagnostics is an ordered collection of diagnostics.
type Diagnostics []Diagnostic

// Warn appends a warning for source.
func (d *Diagnostics) Warn(source, msg string) {
	*d = append(*d, Diagnostic{Severity: SeverityWarning, Source: source, Message: msg})
}

// Fail appends an error for source.
func (d *Diagnostics) Fail(source, msg string) {
	*d = append(*d, Diagnostic{Severity: SeverityError, Source: source, Message: msg})
}

// Count returns how many diagnostics have the given severity.
func (d Diagnostics) Count(sev Severity) int {
	n := 0
	for _, x := range d {
		if x.Severity == sev {
			n++
		}
	}
	return n
}
