package testutil

import (
	"fmt"
	"path/filepath"
	"strings"
	"testing"
)

// ModernArchiveSpec describes a modern-format archive fixture
type ModernArchiveSpec struct {
	UserName       string
	DisplayName    string
	AccountID      string
	GenerationDate string
	SizeBytes      string
	IsPartial      bool
	// Categories maps a manifest category name to its records
	Categories map[string][]map[string]interface{}
	// MediaDirs maps a category name to its declared media directory
	// (e.g. "data/tweets_media")
	MediaDirs map[string]string
	// MediaFiles maps a media directory to file name to content
	MediaFiles map[string]map[string][]byte
}

// LegacyMonth is one month of tweets in a legacy archive fixture
type LegacyMonth struct {
	Year   int
	Month  int
	Tweets []map[string]interface{}
}

// LegacyArchiveSpec describes a legacy-format archive fixture
type LegacyArchiveSpec struct {
	ScreenName string
	FullName   string
	ID         string
	Months     []LegacyMonth
}

// dataFileNames mirrors the export's file naming for the categories the
// fixtures use
var dataFileNames = map[string]string{
	"directMessages":      "direct-messages.js",
	"directMessagesGroup": "direct-messages-group.js",
	"tweetHeaders":        "tweet-headers.js",
}

func dataFileName(category string) string {
	if name, ok := dataFileNames[category]; ok {
		return name
	}
	return strings.ReplaceAll(category, "_", "-") + ".js"
}

// WriteModernArchive materializes a modern archive tree under root
func WriteModernArchive(t *testing.T, root string, spec ModernArchiveSpec) {
	t.Helper()

	if spec.SizeBytes == "" {
		spec.SizeBytes = "1024"
	}

	dataTypes := make(map[string]interface{})
	for category, records := range spec.Categories {
		fileName := "data/" + dataFileName(category)
		globalName := "YTD." + strings.ReplaceAll(category, "-", "_") + ".part0"

		entry := map[string]interface{}{
			"files": []map[string]interface{}{{
				"fileName":   fileName,
				"globalName": globalName,
				"count":      fmt.Sprintf("%d", len(records)),
			}},
		}
		if dir, ok := spec.MediaDirs[category]; ok {
			entry["mediaDirectory"] = dir
		}
		dataTypes[category] = entry

		body := JSONMarshal(t, records)
		content := fmt.Sprintf("window.%s = %s;", globalName, body)
		WriteFile(t, filepath.Join(root, filepath.FromSlash(fileName)), []byte(content))
	}

	manifest := map[string]interface{}{
		"userInfo": map[string]interface{}{
			"accountId":   spec.AccountID,
			"userName":    spec.UserName,
			"displayName": spec.DisplayName,
		},
		"archiveInfo": map[string]interface{}{
			"sizeBytes":        spec.SizeBytes,
			"generationDate":   spec.GenerationDate,
			"isPartialArchive": spec.IsPartial,
		},
		"dataTypes": dataTypes,
	}
	content := fmt.Sprintf("window.__THAR_CONFIG = %s;", JSONMarshal(t, manifest))
	WriteFile(t, filepath.Join(root, "data", "manifest.js"), []byte(content))

	WriteFile(t, filepath.Join(root, "Your archive.html"), []byte("<html>viewer</html>"))

	for dir, files := range spec.MediaFiles {
		for name, data := range files {
			WriteFile(t, filepath.Join(root, filepath.FromSlash(dir), name), data)
		}
	}
}

// WriteLegacyArchive materializes a legacy (pre-2019) archive tree under root
func WriteLegacyArchive(t *testing.T, root string, spec LegacyArchiveSpec) {
	t.Helper()

	index := make([]map[string]interface{}, 0, len(spec.Months))
	for _, month := range spec.Months {
		fileName := fmt.Sprintf("data/js/tweets/%d_%02d.js", month.Year, month.Month)
		varName := fmt.Sprintf("tweets_%d_%02d", month.Year, month.Month)
		index = append(index, map[string]interface{}{
			"file_name":   fileName,
			"year":        month.Year,
			"month":       month.Month,
			"var_name":    varName,
			"tweet_count": len(month.Tweets),
		})

		body := JSONMarshal(t, month.Tweets)
		content := fmt.Sprintf("Grailbird.data.%s = %s", varName, body)
		WriteFile(t, filepath.Join(root, filepath.FromSlash(fileName)), []byte(content))
	}

	indexContent := fmt.Sprintf("var tweet_index = %s", JSONMarshal(t, index))
	WriteFile(t, filepath.Join(root, "data", "js", "tweet_index.js"), []byte(indexContent))

	// The tweets directory must exist even when the index is empty; it is
	// one of the legacy format's identifying marks
	WriteFile(t, filepath.Join(root, "data", "js", "tweets", ".keep"), nil)

	if spec.ScreenName != "" || spec.FullName != "" || spec.ID != "" {
		details := map[string]interface{}{}
		if spec.ID != "" {
			details["id"] = spec.ID
		}
		if spec.ScreenName != "" {
			details["screen_name"] = spec.ScreenName
		}
		if spec.FullName != "" {
			details["full_name"] = spec.FullName
		}
		content := fmt.Sprintf("var user_details = %s", JSONMarshal(t, details))
		WriteFile(t, filepath.Join(root, "data", "js", "user_details.js"), []byte(content))
	}
}

// TweetWrapper builds a modern tweet record with the given id and text
func TweetWrapper(id, text string) map[string]interface{} {
	return map[string]interface{}{
		"tweet": map[string]interface{}{
			"id_str":     id,
			"id":         id,
			"full_text":  text,
			"created_at": "Wed May 23 18:45:05 +0000 2018",
		},
	}
}

// LikeRecord builds a modern like record
func LikeRecord(tweetID string) map[string]interface{} {
	return map[string]interface{}{
		"like": map[string]interface{}{
			"tweetId":     tweetID,
			"fullText":    "liked tweet " + tweetID,
			"expandedUrl": "https://twitter.com/i/web/status/" + tweetID,
		},
	}
}
