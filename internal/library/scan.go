// Package library discovers playable media files on disk for GET /media.
package library

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"mpvd/internal/common/fsutil"
	"mpvd/pkg/types"
)

// ErrOutsideDir is returned by Dir.Resolve for a local path that escapes
// the media directory.
var ErrOutsideDir = errors.New("path is outside the media directory")

// DefaultExtensions are the containers listed when no explicit set is given.
var DefaultExtensions = []string{
	"mkv", "mp4", "m4v", "webm", "mov", "avi", "ts",
	"mp3", "m4a", "flac", "ogg", "opus", "wav",
}

// Scanner lists media files in a directory.
type Scanner struct {
	exts map[string]bool
	// Recursive descends into subdirectories. Hidden entries are skipped.
	Recursive bool
}

// NewScanner returns a scanner for the given extensions (without dots,
// case-insensitive). With none it uses DefaultExtensions.
func NewScanner(exts ...string) *Scanner {
	if len(exts) == 0 {
		exts = DefaultExtensions
	}
	s := &Scanner{exts: make(map[string]bool, len(exts))}
	for _, e := range exts {
		s.exts[strings.ToLower(strings.TrimPrefix(e, "."))] = true
	}
	return s
}

// Scan returns the matching files under dir sorted by path. ID is the path
// relative to dir without extension; Path is absolute.
func (s *Scanner) Scan(dir string) ([]types.MediaFile, error) {
	abs, err := fsutil.ResolveDir(dir)
	if err != nil {
		return nil, fmt.Errorf("media dir: %w", err)
	}
	var files []types.MediaFile
	err = filepath.WalkDir(abs, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if p == abs {
			return nil
		}
		if strings.HasPrefix(d.Name(), ".") {
			if d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			if !s.Recursive {
				return fs.SkipDir
			}
			return nil
		}
		ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(d.Name()), "."))
		if !s.exts[ext] {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			if os.IsNotExist(err) {
				return nil
			}
			return err
		}
		rel, _ := filepath.Rel(abs, p)
		id := filepath.ToSlash(strings.TrimSuffix(rel, filepath.Ext(rel)))
		files = append(files, types.MediaFile{
			ID:        id,
			Name:      displayName(d.Name()),
			Path:      p,
			Container: ext,
			SizeBytes: info.Size(),
		})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("read dir: %w", err)
	}
	sort.Slice(files, func(i, j int) bool { return files[i].Path < files[j].Path })
	return files, nil
}

// LoadDir scans dir non-recursively with the default extensions.
func LoadDir(dir string) ([]types.MediaFile, error) {
	return NewScanner().Scan(dir)
}

// displayName turns "big-buck_bunny.mkv" into "big buck bunny".
func displayName(file string) string {
	stem := strings.TrimSuffix(file, filepath.Ext(file))
	r := strings.NewReplacer("_", " ", "-", " ", ".", " ")
	return strings.Join(strings.Fields(r.Replace(stem)), " ")
}

// Dir is a media directory rescanned on every List call.
type Dir struct {
	Path    string
	Scanner *Scanner
}

// List scans d.Path with d.Scanner, or the default scanner when nil.
func (d Dir) List() ([]types.MediaFile, error) {
	s := d.Scanner
	if s == nil {
		s = NewScanner()
	}
	return s.Scan(d.Path)
}

// Resolve maps a LoadFile path onto the media directory. URLs such as
// "https://..." or "ytdl://..." pass through unchanged. Relative paths are
// taken relative to d.Path; local paths that leave it fail with ErrOutsideDir.
func (d Dir) Resolve(path string) (string, error) {
	if strings.Contains(path, "://") {
		return path, nil
	}
	root, err := fsutil.ResolveDir(d.Path)
	if err != nil {
		return "", fmt.Errorf("media dir: %w", err)
	}
	p, err := fsutil.ExpandHome(path)
	if err != nil {
		return "", err
	}
	if !filepath.IsAbs(p) {
		p = filepath.Join(root, p)
	}
	p = filepath.Clean(p)
	rel, err := filepath.Rel(root, p)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("%s: %w", path, ErrOutsideDir)
	}
	return p, nil
}
