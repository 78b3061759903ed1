package internal

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
)

// MergeSession accumulates source archives and executes the merge pipeline
// against one output directory. A session is owned by a single merge
// invocation; it holds no state across runs and is not re-entrant into an
// output directory containing a prior partial run.
type MergeSession struct {
	outputPath string
	archives   []*ArchiveDescriptor
	merged     map[string][]Record
	loaded     map[string]int
	removed    map[string]int
	media      *MediaMerger
	progress   ProgressFunc
}

// NewMergeSession creates a merge session targeting outputPath. progress may
// be nil.
func NewMergeSession(outputPath string, progress ProgressFunc) *MergeSession {
	if progress == nil {
		progress = func(string) {}
	}
	return &MergeSession{
		outputPath: outputPath,
		merged:     make(map[string][]Record),
		loaded:     make(map[string]int),
		removed:    make(map[string]int),
		progress:   progress,
	}
}

// AddArchive loads and registers one source archive. A failure rejects only
// this archive; previously registered archives are unaffected.
func (s *MergeSession) AddArchive(path string) (*ArchiveDescriptor, error) {
	desc, err := LoadDescriptor(path)
	if err != nil {
		return nil, err
	}
	s.AddDescriptor(desc)
	return desc, nil
}

// AddDescriptor registers an already-loaded descriptor, e.g. one served
// from the scan cache
func (s *MergeSession) AddDescriptor(desc *ArchiveDescriptor) {
	s.archives = append(s.archives, desc)
	if desc.Legacy {
		s.progress(fmt.Sprintf("Added legacy archive: %s", desc.Name()))
	} else {
		s.progress(fmt.Sprintf("Added archive: %s", desc.Name()))
	}
}

// Archives returns the registered source archives
func (s *MergeSession) Archives() []*ArchiveDescriptor {
	return s.archives
}

// Run executes the full pipeline: load and concatenate category data,
// deduplicate, copy media, write data files and manifest, copy the viewer
// shell. Stages run strictly in sequence; any write failure aborts the run
// and may leave a partially populated output directory.
func (s *MergeSession) Run() error {
	if len(s.archives) == 0 {
		return fmt.Errorf("no archives registered")
	}

	s.progress(fmt.Sprintf("Starting merge of %d archives...", len(s.archives)))

	if err := os.MkdirAll(s.outputPath, 0755); err != nil {
		return &WriteError{Path: s.outputPath, Err: err}
	}

	s.mergeDataFiles()
	s.deduplicate()

	s.media = NewMediaMerger(s.outputPath)
	if err := s.media.CopyAll(s.archives, s.progress); err != nil {
		return err
	}

	writer := NewWriter(s.outputPath, s.progress)
	if err := writer.WriteMergedData(s.merged); err != nil {
		return err
	}
	if err := writer.WriteManifest(s.archives, s.merged); err != nil {
		return err
	}

	if err := CopyViewerAssets(s.outputPath, s.archives, s.progress); err != nil {
		return err
	}

	s.progress("Merge complete!")
	s.progress(fmt.Sprintf("Output saved to: %s", s.outputPath))
	return nil
}

// mergeDataFiles concatenates every archive's contribution per canonical
// category, oldest archive first
func (s *MergeSession) mergeDataFiles() {
	s.progress("Merging data files...")

	// Oldest first, so the newest archive's data is processed last
	sort.SliceStable(s.archives, func(i, j int) bool {
		return s.archives[i].GenerationDate() < s.archives[j].GenerationDate()
	})
	s.progress("Processing archives from oldest to newest...")

	categorySet := make(map[string]bool)
	for _, archive := range s.archives {
		for name := range archive.Manifest.DataTypes {
			categorySet[CanonicalCategory(name)] = true
		}
	}
	categories := make([]string, 0, len(categorySet))
	for name := range categorySet {
		categories = append(categories, name)
	}
	sort.Strings(categories)

	for _, category := range categories {
		var combined []Record

		for _, archive := range s.archives {
			if archive.Legacy {
				// Legacy archives contribute tweets only
				if category == "tweets" {
					legacyTweets := LoadLegacyTweets(archive.Root, archive.TweetIndex)
					combined = append(combined, legacyTweets...)
					s.progress(fmt.Sprintf("Loaded %d tweets from legacy archive", len(legacyTweets)))
				}
				continue
			}

			// Both the canonical name and its aliases are consulted in
			// case an archive declares the same logical data under two
			// names
			for _, name := range sourceNamesFor(category) {
				dataType, ok := archive.Manifest.DataTypes[name]
				if !ok {
					continue
				}
				for _, file := range dataType.Files {
					path := filepath.Join(archive.Root, filepath.FromSlash(file.FileName))
					combined = append(combined, LoadDataFile(path)...)
				}
			}
		}

		if len(combined) > 0 {
			s.merged[category] = combined
			s.loaded[category] = len(combined)
			s.progress(fmt.Sprintf("%s: %d items", category, len(combined)))
		}
	}
}

// deduplicate removes duplicate records per category. Keyed categories keep
// the first-seen record for each key, preserving the earliest-captured
// version of immutable content; records with no extractable key are always
// retained. Singleton categories collapse to the entry from the newest
// archive. Everything else passes through unmodified.
func (s *MergeSession) deduplicate() {
	s.progress("Removing duplicates...")

	for category, records := range s.merged {
		keyFunc := DedupKeyFunc(category)
		if keyFunc == nil {
			continue
		}

		seen := make(map[string]bool)
		deduplicated := records[:0:0]
		for _, record := range records {
			key := keyFunc(record)
			if key == "" {
				deduplicated = append(deduplicated, record)
				continue
			}
			if !seen[key] {
				seen[key] = true
				deduplicated = append(deduplicated, record)
			}
		}

		if removed := len(records) - len(deduplicated); removed > 0 {
			s.removed[category] += removed
			s.progress(fmt.Sprintf("%s: removed %d duplicates", category, removed))
		}
		s.merged[category] = deduplicated
	}

	for category := range singletonCategories {
		records, ok := s.merged[category]
		if !ok || len(records) <= 1 {
			continue
		}
		s.merged[category] = records[len(records)-1:]
		s.removed[category] += len(records) - 1
		s.progress(fmt.Sprintf("%s: kept latest entry (removed %d older entries)", category, len(records)-1))
	}
}

// CategoryCount returns the post-merge record count for one category
func (s *MergeSession) CategoryCount(category string) int {
	return len(s.merged[category])
}

// CopyViewerAssets copies the static viewer shell verbatim from the first
// registered archive that has one. No merge logic applies to these files.
func CopyViewerAssets(outputPath string, archives []*ArchiveDescriptor, progress ProgressFunc) error {
	progress("Copying viewer files...")

	var source string
	for _, archive := range archives {
		if _, err := os.Stat(filepath.Join(archive.Root, viewerShellFile)); err == nil {
			source = archive.Root
			break
		}
	}
	if source == "" {
		progress("Warning: No viewer files found")
		return nil
	}

	for _, item := range []string{viewerShellFile, "assets"} {
		src := filepath.Join(source, item)
		dst := filepath.Join(outputPath, item)

		info, err := os.Stat(src)
		if err != nil {
			continue
		}
		if info.IsDir() {
			err = copyDirPreserving(src, dst)
		} else {
			err = copyFilePreserving(src, dst)
		}
		if err != nil {
			return err
		}
	}
	return nil
}
