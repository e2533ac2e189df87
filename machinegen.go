// Package machinegen compiles restricted flowchart diagrams into hierarchical
// state machine sources plus their test, demo, and service companions. The
// root package holds the contracts shared across the pipeline: diagnostics,
// machine categories, identifier derivation, configuration, and the
// generated-file record handed to file-writing collaborators.
package machinegen

// File kinds attached to generated artifacts. The three test emitters all
// produce FileKindTest files; the emitter kind stays visible in the filename.
const (
	FileKindMachine = "machine"
	FileKindTest    = "test"
	FileKindDemo    = "demo"
	FileKindService = "service"
)

// GeneratedFile is one artifact proposed by the compiler. Path is relative to
// the configured output root; overwrite and backup policy belongs to the
// FileWriter, never to the compiler.
type GeneratedFile struct {
	Path    string `json:"path"`
	Kind    string `json:"kind"`
	Content string `json:"content"`
	Size    int    `json:"size"`
}

// NewGeneratedFile builds a file record with Size derived from content.
func NewGeneratedFile(path, kind, content string) GeneratedFile {
	return GeneratedFile{Path: path, Kind: kind, Content: content, Size: len(content)}
}

// FileWriter receives generated artifacts from the pipeline.
type FileWriter interface {
	WriteFile(file GeneratedFile) error
}

// FileWriterFunc adapts a function to the FileWriter interface.
type FileWriterFunc func(file GeneratedFile) error

// WriteFile implements FileWriter.
func (f FileWriterFunc) WriteFile(file GeneratedFile) error { return f(file) }
