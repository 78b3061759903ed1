package internal

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
)

const (
	viewerShellFile = "Your archive.html"

	// Fallback generation date for a legacy archive with an empty index
	legacyEpochDate = "2018-01-01T00:00:00.000Z"
)

// manifestCandidates lists the locations a modern archive may keep its
// manifest, in probe order
func manifestCandidates(root string) []string {
	return []string{
		filepath.Join(root, "data", "manifest.js"),
		filepath.Join(root, "manifest.js"),
		filepath.Join(root, "js", "manifest.js"),
	}
}

// IsLegacyArchive reports whether root holds a pre-2019 archive, identified
// by its month-indexed tweet index and per-month tweet data directory
func IsLegacyArchive(root string) bool {
	indicators := []string{
		filepath.Join(root, "data", "js", "tweet_index.js"),
		filepath.Join(root, "data", "js", "tweets"),
	}
	for _, p := range indicators {
		if _, err := os.Stat(p); err != nil {
			return false
		}
	}
	return true
}

// IsValidArchive reports whether root holds a recognizable archive of
// either schema generation
func IsValidArchive(root string) bool {
	if IsLegacyArchive(root) {
		return true
	}

	required := []string{
		filepath.Join(root, "data"),
		filepath.Join(root, viewerShellFile),
	}
	for _, p := range required {
		if _, err := os.Stat(p); err != nil {
			return false
		}
	}

	for _, p := range manifestCandidates(root)[:2] {
		if _, err := os.Stat(p); err == nil {
			return true
		}
	}
	return false
}

// LoadDescriptor reads one archive's configuration and returns its
// normalized descriptor. Legacy archives get a synthesized modern-shaped
// manifest so the rest of the pipeline handles both generations uniformly.
func LoadDescriptor(root string) (*ArchiveDescriptor, error) {
	if IsLegacyArchive(root) {
		return loadLegacyDescriptor(root)
	}
	return loadModernDescriptor(root)
}

func loadModernDescriptor(root string) (*ArchiveDescriptor, error) {
	var manifestPath string
	for _, p := range manifestCandidates(root) {
		if _, err := os.Stat(p); err == nil {
			manifestPath = p
			break
		}
	}
	if manifestPath == "" {
		return nil, &ArchiveNotFoundError{Path: root}
	}

	content, err := os.ReadFile(manifestPath)
	if err != nil {
		return nil, &ManifestParseError{Path: manifestPath, Err: err}
	}

	payload, err := extractPayload(content, manifestPattern)
	if err != nil {
		return nil, &ManifestParseError{Path: manifestPath, Err: err}
	}

	var manifest Manifest
	if err := json.Unmarshal(payload, &manifest); err != nil {
		return nil, &ManifestParseError{Path: manifestPath, Err: err}
	}
	if manifest.DataTypes == nil {
		manifest.DataTypes = make(map[string]*DataType)
	}

	return &ArchiveDescriptor{
		Root:         root,
		ManifestPath: manifestPath,
		Manifest:     &manifest,
	}, nil
}

// loadLegacyDescriptor synthesizes a modern-shaped descriptor from the
// legacy tweet index and user details files
func loadLegacyDescriptor(root string) (*ArchiveDescriptor, error) {
	indexPath := filepath.Join(root, "data", "js", "tweet_index.js")
	content, err := os.ReadFile(indexPath)
	if err != nil {
		return nil, &ArchiveNotFoundError{Path: root}
	}

	payload, err := extractPayload(content, tweetIndexPattern)
	if err != nil {
		return nil, &ManifestParseError{Path: indexPath, Err: err}
	}

	var index []TweetIndexEntry
	if err := json.Unmarshal(payload, &index); err != nil {
		return nil, &ManifestParseError{Path: indexPath, Err: err}
	}

	userInfo := loadLegacyUserInfo(filepath.Join(root, "data", "js", "user_details.js"))

	// Approximate the generation date as the first day of the latest
	// indexed month
	genDate := legacyEpochDate
	totalTweets := 0
	latestYear, latestMonth := 0, 0
	for _, entry := range index {
		totalTweets += entry.TweetCount
		if entry.Year > latestYear || (entry.Year == latestYear && entry.Month > latestMonth) {
			latestYear, latestMonth = entry.Year, entry.Month
		}
	}
	if len(index) > 0 {
		genDate = fmt.Sprintf("%d-%02d-01T00:00:00.000Z", latestYear, latestMonth)
	}

	files := make([]DataFile, 0, len(index))
	for _, entry := range index {
		files = append(files, DataFile{
			FileName: entry.FileName,
			Count:    strconv.Itoa(entry.TweetCount),
		})
	}

	manifest := &Manifest{
		UserInfo: userInfo,
		ArchiveInfo: ArchiveInfo{
			SizeBytes:        "0",
			GenerationDate:   genDate,
			IsPartialArchive: false,
		},
		DataTypes: map[string]*DataType{
			"tweets": {Files: files},
		},
	}

	return &ArchiveDescriptor{
		Root:         root,
		Legacy:       true,
		ManifestPath: indexPath,
		Manifest:     manifest,
		TweetIndex:   index,
	}, nil
}

// loadLegacyUserInfo reads the companion user details file; absent files
// and absent fields fall back to "unknown"
func loadLegacyUserInfo(path string) UserInfo {
	info := UserInfo{AccountID: "unknown", UserName: "unknown", DisplayName: "unknown"}

	content, err := os.ReadFile(path)
	if err != nil {
		return info
	}
	payload, err := extractPayload(content, userDetailsPattern)
	if err != nil {
		LogWarn("could not parse user details %s: %v", path, err)
		return info
	}

	dec := json.NewDecoder(bytes.NewReader(payload))
	dec.UseNumber()
	var details Record
	if err := dec.Decode(&details); err != nil {
		LogWarn("could not decode user details %s: %v", path, err)
		return info
	}

	if v := stringValue(details, "id"); v != "" {
		info.AccountID = v
	}
	if v := stringValue(details, "screen_name"); v != "" {
		info.UserName = v
	}
	if v := stringValue(details, "full_name"); v != "" {
		info.DisplayName = v
	}
	return info
}
