package internal

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// mediaKey is the merge identity of a media file. Name plus byte size, not
// a content hash; two different files that coincidentally share both are
// treated as one.
type mediaKey struct {
	name string
	size int64
}

// MediaMerger copies declared media directories into the output, skipping
// files already copied under the same identity and renaming on name
// collisions. The identity map lives for one merge run.
type MediaMerger struct {
	outputPath string
	seen       map[mediaKey]string
	copied     int
	skipped    int
}

// NewMediaMerger creates a media merger for one output directory
func NewMediaMerger(outputPath string) *MediaMerger {
	return &MediaMerger{
		outputPath: outputPath,
		seen:       make(map[mediaKey]string),
	}
}

// Stats returns how many files were copied and how many were skipped as
// duplicates
func (m *MediaMerger) Stats() (copied, skipped int) {
	return m.copied, m.skipped
}

// CopyAll walks every declared media directory of every archive
func (m *MediaMerger) CopyAll(archives []*ArchiveDescriptor, progress ProgressFunc) error {
	progress("Copying media files...")

	for _, archive := range archives {
		for _, dataType := range archive.Manifest.DataTypes {
			if dataType.MediaDirectory == "" {
				continue
			}
			if err := m.copyMediaDir(archive.Root, dataType.MediaDirectory, progress); err != nil {
				return err
			}
		}
	}

	progress(fmt.Sprintf("Copied %d files, skipped %d duplicates", m.copied, m.skipped))
	return nil
}

func (m *MediaMerger) copyMediaDir(archiveRoot, mediaDir string, progress ProgressFunc) error {
	sourceDir := filepath.Join(archiveRoot, filepath.FromSlash(mediaDir))
	if _, err := os.Stat(sourceDir); err != nil {
		return nil
	}

	normalizedDir := NormalizeMediaDir(mediaDir)
	targetDir := filepath.Join(m.outputPath, filepath.FromSlash(normalizedDir))
	if err := os.MkdirAll(targetDir, 0755); err != nil {
		return &WriteError{Path: targetDir, Err: err}
	}

	progress(fmt.Sprintf("Copying from %s to %s", mediaDir, normalizedDir))

	return filepath.Walk(sourceDir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}

		key := mediaKey{name: info.Name(), size: info.Size()}
		if _, ok := m.seen[key]; ok {
			m.skipped++
			return nil
		}

		target := filepath.Join(targetDir, info.Name())

		// A different file may already own this name; probe suffixed
		// names until one is free
		counter := 1
		stem := strings.TrimSuffix(info.Name(), filepath.Ext(info.Name()))
		ext := filepath.Ext(info.Name())
		for {
			if _, err := os.Stat(target); os.IsNotExist(err) {
				break
			}
			target = filepath.Join(targetDir, fmt.Sprintf("%s_%d%s", stem, counter, ext))
			counter++
		}

		if err := copyFilePreserving(path, target); err != nil {
			return err
		}
		m.seen[key] = target
		m.copied++
		return nil
	})
}

// copyFilePreserving copies src to dst, carrying over the file mode and
// modification time. Viewers sort media by date, so timestamps matter.
func copyFilePreserving(src, dst string) error {
	info, err := os.Stat(src)
	if err != nil {
		return &WriteError{Path: dst, Err: err}
	}

	in, err := os.Open(src)
	if err != nil {
		return &WriteError{Path: dst, Err: err}
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, info.Mode().Perm())
	if err != nil {
		return &WriteError{Path: dst, Err: err}
	}

	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		return &WriteError{Path: dst, Err: err}
	}
	if err := out.Close(); err != nil {
		return &WriteError{Path: dst, Err: err}
	}

	if err := os.Chtimes(dst, info.ModTime(), info.ModTime()); err != nil {
		return &WriteError{Path: dst, Err: err}
	}
	return nil
}

// copyDirPreserving recursively copies a directory tree
func copyDirPreserving(src, dst string) error {
	return filepath.Walk(src, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}
		target := filepath.Join(dst, rel)

		if info.IsDir() {
			if err := os.MkdirAll(target, 0755); err != nil {
				return &WriteError{Path: target, Err: err}
			}
			return nil
		}
		return copyFilePreserving(path, target)
	})
}
