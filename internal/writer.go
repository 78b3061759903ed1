package internal

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

const (
	// Fixed by the export format; carried into regenerated manifests
	maxPartSizeBytes = "53687091200"

	legacyTweetFile   = "tweet.js"
	legacyTweetGlobal = "YTD.tweet.part0"
)

// Writer serializes merged category data back into the archive's file
// format and regenerates the manifest
type Writer struct {
	outputPath string
	progress   ProgressFunc
}

// NewWriter creates a writer for one output directory
func NewWriter(outputPath string, progress ProgressFunc) *Writer {
	if progress == nil {
		progress = func(string) {}
	}
	return &Writer{outputPath: outputPath, progress: progress}
}

// dataFileName derives a category's output file name
func dataFileName(category string) string {
	if name, ok := fileNameOverrides[category]; ok {
		return name
	}
	return strings.ReplaceAll(category, "_", "-") + ".js"
}

// globalName derives a category's window-global assignment name
func globalName(category string) string {
	return "YTD." + strings.ReplaceAll(category, "-", "_") + ".part0"
}

// WriteMergedData writes one data file per category. Tweets are normalized
// for viewer compatibility first, and are additionally written under the
// legacy file name so viewers built against the older schema find them.
func (w *Writer) WriteMergedData(merged map[string][]Record) error {
	w.progress("Writing merged files...")

	dataDir := filepath.Join(w.outputPath, "data")
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return &WriteError{Path: dataDir, Err: err}
	}

	if tweets, ok := merged["tweets"]; ok {
		w.progress("Normalizing tweets for viewer compatibility...")
		for i, wrapper := range tweets {
			tweets[i] = NormalizeTweet(wrapper)
		}
	}

	for category, records := range merged {
		path := filepath.Join(dataDir, dataFileName(category))
		if err := WriteAssignment(path, globalName(category), records); err != nil {
			return err
		}

		if category == "tweets" {
			w.progress("Writing tweet.js (old format) for older viewer compatibility")
			legacyPath := filepath.Join(dataDir, legacyTweetFile)
			if err := WriteAssignment(legacyPath, legacyTweetGlobal, records); err != nil {
				return err
			}
		}
	}

	return nil
}

// WriteManifest regenerates data/manifest.js from the merged state. User
// identity comes from the chronologically newest source archive; the size
// field is the recursive byte size of everything written so far.
func (w *Writer) WriteManifest(archives []*ArchiveDescriptor, merged map[string][]Record) error {
	w.progress("Generating manifest...")

	newest := archives[0]
	for _, archive := range archives[1:] {
		if archive.GenerationDate() > newest.GenerationDate() {
			newest = archive
		}
	}

	totalSize, err := directorySize(w.outputPath)
	if err != nil {
		return &WriteError{Path: w.outputPath, Err: err}
	}

	dataTypes := make(map[string]*DataType)
	for category, records := range merged {
		dataTypes[category] = &DataType{
			Files: []DataFile{{
				FileName:   "data/" + dataFileName(category),
				GlobalName: globalName(category),
				Count:      strconv.Itoa(len(records)),
			}},
		}

		if category == "tweets" && w.mediaDirExists("data/tweets_media") {
			dataTypes[category].MediaDirectory = "data/tweets_media"
			w.progress("Added tweets media directory")
		}
		if category == "profile" && w.mediaDirExists("data/profile_media") {
			dataTypes[category].MediaDirectory = "data/profile_media"
			w.progress("Added profile media directory")
		}
	}

	// Dual-write compatibility shim for viewer generations 2022 and
	// earlier: the tweet list and its media directory appear under both
	// the old and new manifest keys
	if tweets, ok := merged["tweets"]; ok {
		legacyEntry := &DataType{
			Files: []DataFile{{
				FileName:   "data/" + legacyTweetFile,
				GlobalName: legacyTweetGlobal,
				Count:      strconv.Itoa(len(tweets)),
			}},
		}
		if w.mediaDirExists("data/tweets_media") {
			legacyEntry.MediaDirectory = "data/tweets_media"
		}
		dataTypes["tweet"] = legacyEntry
		w.progress("Added 'tweet' entry (old format) for older viewer compatibility")
	}

	if w.mediaDirExists("data/tweets_media") {
		dataTypes["tweetsMedia"] = &DataType{MediaDirectory: "data/tweets_media"}
		dataTypes["tweetMedia"] = &DataType{MediaDirectory: "data/tweets_media"}
	}
	if w.mediaDirExists("data/profile_media") {
		dataTypes["profileMedia"] = &DataType{MediaDirectory: "data/profile_media"}
	}

	manifest := &Manifest{
		UserInfo: newest.Manifest.UserInfo,
		ArchiveInfo: ArchiveInfo{
			SizeBytes:        strconv.FormatInt(totalSize, 10),
			GenerationDate:   time.Now().Format("2006-01-02T15:04:05.000000") + "Z",
			IsPartialArchive: false,
			MaxPartSizeBytes: maxPartSizeBytes,
		},
		ReadmeInfo: &ReadmeInfo{
			FileName:  "data/README.txt",
			Directory: "data/",
			Name:      "README.txt",
		},
		DataTypes: dataTypes,
	}

	manifestPath := filepath.Join(w.outputPath, "data", "manifest.js")
	return WriteAssignment(manifestPath, "__THAR_CONFIG", manifest)
}

func (w *Writer) mediaDirExists(dir string) bool {
	info, err := os.Stat(filepath.Join(w.outputPath, filepath.FromSlash(dir)))
	return err == nil && info.IsDir()
}

// directorySize sums the sizes of all regular files under root
func directorySize(root string) (int64, error) {
	var total int64
	err := filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.IsDir() {
			total += info.Size()
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("failed to size output directory: %w", err)
	}
	return total, nil
}
