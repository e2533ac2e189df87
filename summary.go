package machinegen

// Stats aggregates one run's output counters.
type Stats struct {
	MachinesGenerated int   `json:"machinesGenerated"`
	FilesCreated      int   `json:"filesCreated"`
	LinesOfCode       int   `json:"linesOfCode"`
	DurationMs        int64 `json:"durationMs"`
}

// Summary is what every pipeline run returns, including runs that fail
// before reading a single source. Errors never abort the batch; they land
// here and the caller decides what to do with them.
type Summary struct {
	GeneratedFiles []GeneratedFile `json:"generatedFiles"`
	Errors         []Diagnostic    `json:"errors"`
	Warnings       []Diagnostic    `json:"warnings"`
	Stats          Stats           `json:"stats"`
}

// Absorb splits diags into the summary's error and warning lists.
func (s *Summary) Absorb(diags []Diagnostic) {
	for _, d := range diags {
		if d.IsError() {
			s.Errors = append(s.Errors, d)
		} else {
			s.Warnings = append(s.Warnings, d)
		}
	}
}

// HasErrors reports whether the run recorded error diagnostics.
func (s *Summary) HasErrors() bool { return len(s.Errors) > 0 }

// HasWarnings reports whether the run recorded warning diagnostics.
func (s *Summary) HasWarnings() bool { return len(s.Warnings) > 0 }
