package internal

import (
	"encoding/json"
	"path/filepath"
)

// Record is one opaque document from a data file. Field sets vary by
// category and schema generation, so records stay schemaless maps.
type Record = map[string]interface{}

// UserInfo identifies the account that generated an archive
type UserInfo struct {
	AccountID   string `json:"accountId"`
	UserName    string `json:"userName"`
	DisplayName string `json:"displayName"`
}

// ArchiveInfo holds archive-level metadata from the manifest
type ArchiveInfo struct {
	SizeBytes        string `json:"sizeBytes"`
	GenerationDate   string `json:"generationDate"`
	IsPartialArchive bool   `json:"isPartialArchive"`
	MaxPartSizeBytes string `json:"maxPartSizeBytes,omitempty"`
}

// ReadmeInfo points at the archive's bundled README
type ReadmeInfo struct {
	FileName  string `json:"fileName"`
	Directory string `json:"directory"`
	Name      string `json:"name"`
}

// DataFile is one file entry under a manifest data type
type DataFile struct {
	FileName   string `json:"fileName"`
	GlobalName string `json:"globalName,omitempty"`
	Count      string `json:"count,omitempty"`
}

// DataType describes one category's files and optional media directory
type DataType struct {
	Files          []DataFile `json:"files,omitempty"`
	MediaDirectory string     `json:"mediaDirectory,omitempty"`
}

// Manifest is the parsed window.__THAR_CONFIG payload of a modern archive,
// or the synthesized equivalent for a legacy archive
type Manifest struct {
	UserInfo    UserInfo             `json:"userInfo"`
	ArchiveInfo ArchiveInfo          `json:"archiveInfo"`
	ReadmeInfo  *ReadmeInfo          `json:"readmeInfo,omitempty"`
	DataTypes   map[string]*DataType `json:"dataTypes"`
}

// TweetIndexEntry is one month's entry in a legacy archive's tweet_index.js
type TweetIndexEntry struct {
	FileName   string `json:"file_name"`
	Year       int    `json:"year"`
	Month      int    `json:"month"`
	VarName    string `json:"var_name,omitempty"`
	TweetCount int    `json:"tweet_count"`
}

// ArchiveDescriptor is the normalized in-memory view of one source archive.
// Immutable after load.
type ArchiveDescriptor struct {
	Root         string            `json:"root"`
	Legacy       bool              `json:"legacy"`
	ManifestPath string            `json:"manifestPath"`
	Manifest     *Manifest         `json:"manifest"`
	TweetIndex   []TweetIndexEntry `json:"tweetIndex,omitempty"`
}

// GenerationDate returns the archive's generation timestamp string. Archives
// are ordered by comparing these strings lexicographically; no timezone
// normalization is applied.
func (d *ArchiveDescriptor) GenerationDate() string {
	return d.Manifest.ArchiveInfo.GenerationDate
}

// Name returns the archive's directory base name for display
func (d *ArchiveDescriptor) Name() string {
	return filepath.Base(d.Root)
}

// TotalRecordCount sums the declared counts of one category
func (d *ArchiveDescriptor) TotalRecordCount(category string) int {
	dt, ok := d.Manifest.DataTypes[category]
	if !ok {
		return 0
	}
	total := 0
	for _, f := range dt.Files {
		total += atoiOrZero(f.Count)
	}
	return total
}

// ArchiveSummary is the identity/category overview returned for a single
// archive before any merge
type ArchiveSummary struct {
	Path           string         `json:"path" yaml:"path"`
	UserName       string         `json:"username" yaml:"username"`
	DisplayName    string         `json:"display_name" yaml:"display_name"`
	AccountID      string         `json:"account_id" yaml:"account_id"`
	GenerationDate string         `json:"generation_date" yaml:"generation_date"`
	SizeBytes      int64          `json:"size_bytes" yaml:"size_bytes"`
	IsPartial      bool           `json:"is_partial" yaml:"is_partial"`
	Legacy         bool           `json:"legacy" yaml:"legacy"`
	Categories     map[string]int `json:"categories" yaml:"categories"`
}

// Summarize builds the pre-merge overview of this archive. Only categories
// with a non-zero declared count are listed.
func (d *ArchiveDescriptor) Summarize() *ArchiveSummary {
	categories := make(map[string]int)
	for name := range d.Manifest.DataTypes {
		if count := d.TotalRecordCount(name); count > 0 {
			categories[name] = count
		}
	}

	return &ArchiveSummary{
		Path:           d.Root,
		UserName:       d.Manifest.UserInfo.UserName,
		DisplayName:    d.Manifest.UserInfo.DisplayName,
		AccountID:      d.Manifest.UserInfo.AccountID,
		GenerationDate: d.Manifest.ArchiveInfo.GenerationDate,
		SizeBytes:      int64(atoiOrZero(d.Manifest.ArchiveInfo.SizeBytes)),
		IsPartial:      d.Manifest.ArchiveInfo.IsPartialArchive,
		Legacy:         d.Legacy,
		Categories:     categories,
	}
}

// atoiOrZero parses a wire-format count string, tolerating junk
func atoiOrZero(s string) int {
	n := 0
	for _, c := range s {
		if c < '0' || c > '9' {
			return n
		}
		n = n*10 + int(c-'0')
	}
	return n
}

// stringValue fetches a string field from a record, tolerating absence and
// non-string values
func stringValue(rec Record, key string) string {
	if rec == nil {
		return ""
	}
	switch v := rec[key].(type) {
	case string:
		return v
	case json.Number:
		return v.String()
	default:
		return ""
	}
}

// mapValue fetches a nested object field from a record
func mapValue(rec Record, key string) Record {
	if rec == nil {
		return nil
	}
	if m, ok := rec[key].(map[string]interface{}); ok {
		return m
	}
	return nil
}

// numberString renders a record field as the string form of its numeric or
// string value, with a fallback for absent fields
func numberString(rec Record, key, fallback string) string {
	switch v := rec[key].(type) {
	case string:
		return v
	case json.Number:
		return v.String()
	default:
		return fallback
	}
}
