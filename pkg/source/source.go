package source

import (
	"os"
	"path/filepath"
	"strings"
)

// DefaultName is the script identifier used when source text is supplied
// in memory without a name.
const DefaultName = "inline.js"

// SourceFile represents a script with its content and metadata
type SourceFile struct {
	Name    string   // Display name and engine script identifier (e.g., "inline.js", "<repl>")
	Path    string   // Full file path (empty for in-memory sources)
	Content string   // The script text
	lines   []string // Cached split lines (lazy initialization)
}

// NewSourceFile creates a new source file
func NewSourceFile(name, path, content string) *SourceFile {
	return &SourceFile{
		Name:    name,
		Path:    path,
		Content: content,
	}
}

// NewInlineSource creates a source for script text handed over in memory.
func NewInlineSource(content string) *SourceFile {
	return NewNamedSource(DefaultName, content)
}

// NewNamedSource creates an in-memory source with an explicit identifier.
// An empty name falls back to DefaultName.
func NewNamedSource(name, content string) *SourceFile {
	if name == "" {
		name = DefaultName
	}
	return &SourceFile{Name: name, Content: content}
}

// NewReplSource creates a source file for REPL input
func NewReplSource(content string) *SourceFile {
	return &SourceFile{Name: "<repl>", Content: content}
}

// NewStdinSource creates a source file for stdin input
func NewStdinSource(content string) *SourceFile {
	return &SourceFile{Name: "<stdin>", Content: content}
}

// Lines returns the source split into lines (cached)
func (sf *SourceFile) Lines() []string {
	if sf.lines == nil {
		sf.lines = strings.Split(sf.Content, "\n")
	}
	return sf.lines
}

// Line returns the 1-based line n, or false when n is out of range.
func (sf *SourceFile) Line(n int) (string, bool) {
	lines := sf.Lines()
	if n < 1 || n > len(lines) {
		return "", false
	}
	return strings.TrimRight(lines[n-1], "\r"), true
}

// DisplayPath returns the best path for display (prefers Path, falls back to Name)
func (sf *SourceFile) DisplayPath() string {
	if sf.Path != "" {
		return sf.Path
	}
	return sf.Name
}

// IsFile returns true if this represents an actual file (has a path)
func (sf *SourceFile) IsFile() bool {
	return sf.Path != ""
}

// FromFile creates a SourceFile from a file path and content
func FromFile(filePath, content string) *SourceFile {
	return NewSourceFile(filepath.Base(filePath), filePath, content)
}

// ReadFile loads filePath from disk.
func ReadFile(filePath string) (*SourceFile, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, err
	}
	return FromFile(filePath, string(data)), nil
}
