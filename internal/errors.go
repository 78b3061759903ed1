package internal

import "fmt"

// ArchiveNotFoundError indicates a path holds neither a modern nor a legacy
// Twitter archive
type ArchiveNotFoundError struct {
	Path string
}

func (e *ArchiveNotFoundError) Error() string {
	return fmt.Sprintf("no twitter archive found at %s", e.Path)
}

// ManifestParseError indicates a manifest file exists but its embedded JSON
// payload could not be located or decoded
type ManifestParseError struct {
	Path string
	Err  error
}

func (e *ManifestParseError) Error() string {
	return fmt.Sprintf("manifest parse error %s: %v", e.Path, e.Err)
}

func (e *ManifestParseError) Unwrap() error {
	return e.Err
}

// DataFileError represents a soft failure reading a per-category data file.
// Callers log it and treat the file's contribution as empty.
type DataFileError struct {
	Path string
	Op   string // "open", "read", "parse"
	Err  error
}

func (e *DataFileError) Error() string {
	return fmt.Sprintf("data file error: %s %s: %v", e.Op, e.Path, e.Err)
}

func (e *DataFileError) Unwrap() error {
	return e.Err
}

// WriteError represents an output I/O failure. Write errors are fatal to the
// merge run.
type WriteError struct {
	Path string
	Err  error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("write error %s: %v", e.Path, e.Err)
}

func (e *WriteError) Unwrap() error {
	return e.Err
}
