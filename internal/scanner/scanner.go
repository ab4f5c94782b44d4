// Package scanner provides snippet discovery for playground source trees.
//
// The scanner walks the configured scan paths, extracts marked regions from
// every supported source file, and registers the resulting snippets in the
// registry. It maintains CRC32 content hashes for change detection and
// scans files concurrently with a bounded worker pool. Single-file rescans
// support watch mode.
package scanner

import (
	"fmt"
	"hash/crc32"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"sync"

	"github.com/docstitch/docstitch/internal/errors"
	"github.com/docstitch/docstitch/internal/registry"
	"github.com/docstitch/docstitch/internal/types"
)

// SourceScanner discovers snippets in playground source files.
type SourceScanner struct {
	registry        *registry.SnippetRegistry
	excludePatterns []string
	workers         int
}

// fileResult carries the snippets extracted from one file, or the error
// that stopped extraction.
type fileResult struct {
	path     string
	snippets []*types.SnippetInfo
	err      error
}

// NewSourceScanner creates a scanner that registers snippets in reg.
func NewSourceScanner(reg *registry.SnippetRegistry) *SourceScanner {
	workers := runtime.NumCPU()
	if workers > 8 {
		workers = 8
	}

	return &SourceScanner{
		registry: reg,
		workers:  workers,
	}
}

// SetExcludePatterns sets substring patterns for directories and files to
// skip while walking.
func (s *SourceScanner) SetExcludePatterns(patterns []string) {
	s.excludePatterns = patterns
}

// ScanDirectory walks root and scans every supported source file. Files are
// processed concurrently; registration happens in path order so repeated
// runs over the same tree behave identically. All per-file errors are
// collected so one bad file does not hide the others.
//
// The registry is reconciled against the tree on every pass: snippets whose
// file or region vanished since the last scan are removed before the new
// ones register, so a long-lived registry always mirrors the sources and a
// region moved between files does not collide with its old entry.
func (s *SourceScanner) ScanDirectory(root string) error {
	files, err := s.collectFiles(root)
	if err != nil {
		return err
	}

	results := make([]fileResult, len(files))

	jobs := make(chan int)
	var wg sync.WaitGroup
	for w := 0; w < s.workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				results[i] = s.scanOne(files[i])
			}
		}()
	}
	for i := range files {
		jobs <- i
	}
	close(jobs)
	wg.Wait()

	var collected errors.ErrorCollection

	current := make(map[string]map[string]bool, len(files))
	failed := make(map[string]bool)
	for _, result := range results {
		if result.err != nil {
			collected.Add(result.err)
			failed[result.path] = true
			continue
		}
		names := make(map[string]bool, len(result.snippets))
		for _, snippet := range result.snippets {
			names[snippet.Name] = true
		}
		current[result.path] = names
	}

	// Files that failed to scan keep their previous entries.
	for _, snippet := range s.registry.AllSnippets() {
		if !underPath(root, snippet.FilePath) || failed[snippet.FilePath] {
			continue
		}
		if names, ok := current[snippet.FilePath]; ok && names[snippet.Name] {
			continue
		}
		s.registry.RemoveSnippet(snippet.Name)
	}

	for _, result := range results {
		if result.err != nil {
			continue
		}
		for _, snippet := range result.snippets {
			collected.Add(s.registry.RegisterSnippet(snippet))
		}
	}

	if collected.HasErrors() {
		return &collected
	}

	return nil
}

// underPath reports whether path sits at or below root.
func underPath(root, path string) bool {
	cleanRoot := filepath.Clean(root)
	cleanPath := filepath.Clean(path)
	return cleanPath == cleanRoot ||
		strings.HasPrefix(cleanPath, cleanRoot+string(filepath.Separator))
}

// ScanFile rescans a single file, replacing any snippets previously
// extracted from it. Used by watch mode after a change event.
func (s *SourceScanner) ScanFile(path string) error {
	s.registry.RemoveFile(path)

	if !SupportedExtension(filepath.Ext(path)) {
		return nil
	}

	result := s.scanOne(path)
	if result.err != nil {
		return result.err
	}

	var collected errors.ErrorCollection
	for _, snippet := range result.snippets {
		collected.Add(s.registry.RegisterSnippet(snippet))
	}
	if collected.HasErrors() {
		return &collected
	}

	return nil
}

func (s *SourceScanner) collectFiles(root string) ([]string, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, errors.NewIOError("SCAN_PATH", fmt.Sprintf("scan path %q", root), err)
	}
	if !info.IsDir() {
		return []string{root}, nil
	}

	var files []string
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if s.excluded(path) || isHiddenDir(d.Name(), path, root) {
				return filepath.SkipDir
			}
			return nil
		}
		if s.excluded(path) {
			return nil
		}
		if SupportedExtension(filepath.Ext(path)) {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, errors.NewIOError("SCAN_WALK", fmt.Sprintf("walking %q", root), err)
	}

	sort.Strings(files)

	return files, nil
}

func (s *SourceScanner) excluded(path string) bool {
	for _, pattern := range s.excludePatterns {
		if pattern != "" && strings.Contains(path, pattern) {
			return true
		}
	}
	return false
}

// isHiddenDir skips dot-directories but not the scan root itself, which may
// legitimately be "." or a hidden working directory.
func isHiddenDir(name, path, root string) bool {
	if path == root {
		return false
	}
	return strings.HasPrefix(name, ".") && name != "." && name != ".."
}

func (s *SourceScanner) scanOne(path string) fileResult {
	content, err := os.ReadFile(path)
	if err != nil {
		return fileResult{path: path, err: errors.NewIOError("READ_SOURCE", fmt.Sprintf("reading %q", path), err)}
	}

	info, err := os.Stat(path)
	if err != nil {
		return fileResult{path: path, err: errors.NewIOError("STAT_SOURCE", fmt.Sprintf("stating %q", path), err)}
	}

	ext := filepath.Ext(path)
	regions, err := ExtractRegions(path, ext, content)
	if err != nil {
		return fileResult{path: path, err: err}
	}

	snippets := make([]*types.SnippetInfo, 0, len(regions))
	for _, region := range regions {
		text := strings.Join(region.Lines, "\n")
		snippets = append(snippets, &types.SnippetInfo{
			Name:      region.Name,
			FilePath:  path,
			StartLine: region.StartLine,
			EndLine:   region.EndLine,
			Language:  FenceLanguage(ext),
			Content:   text,
			Notes:     region.Notes,
			LastMod:   info.ModTime(),
			Hash:      contentHash(text, region.Notes),
		})
	}

	return fileResult{path: path, snippets: snippets}
}

// contentHash digests everything a snippet contributes to rendered output,
// notes included, so caches keyed on it cannot serve a stale note.
func contentHash(text string, notes []string) string {
	digest := crc32.NewIEEE()
	digest.Write([]byte(text))
	for _, note := range notes {
		digest.Write([]byte{0})
		digest.Write([]byte(note))
	}
	return fmt.Sprintf("%x", digest.Sum32())
}

// ReadWholeFile loads a playground file for whole-file example directives,
// returning its text and fence language.
func ReadWholeFile(path string) (string, string, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return "", "", errors.NewIOError("READ_SOURCE", fmt.Sprintf("reading %q", path), err)
	}

	text := strings.Join(trimBlankEdges(stripMarkerLines(path, string(content))), "\n")

	return text, FenceLanguage(filepath.Ext(path)), nil
}

// stripMarkerLines removes region marker lines from a whole-file include so
// the markers stay an implementation detail of the playground.
func stripMarkerLines(path, content string) []string {
	style, ok := commentStyles[strings.ToLower(filepath.Ext(path))]
	if !ok {
		return strings.Split(content, "\n")
	}
	markers := markerSets[style]

	var lines []string
	for _, line := range strings.Split(content, "\n") {
		if markers.start.MatchString(line) || markers.end.MatchString(line) || markers.note.MatchString(line) {
			continue
		}
		lines = append(lines, line)
	}
	return lines
}
