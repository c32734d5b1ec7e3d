package scanner

import (
	"io/fs"
	"path/filepath"
	"strings"
	"time"
)

// WalkedFile is one candidate media file found during a walk, with the stat
// fields that make up its fingerprint.
type WalkedFile struct {
	Path    string
	Name    string
	Size    int64
	ModTime time.Time
}

// Walker enumerates candidate media files under one or more roots. The walk
// is lexicographic per directory level so repeated scans visit files in the
// same order. Symlinks are not followed and hidden/temp files are skipped.
type Walker struct {
	roots []string
	exts  map[string]bool
}

func NewWalker(roots []string, extensions []string) *Walker {
	exts := make(map[string]bool, len(extensions))
	for _, e := range extensions {
		e = strings.ToLower(strings.TrimPrefix(e, "."))
		if e != "" {
			exts["."+e] = true
		}
	}
	return &Walker{roots: roots, exts: exts}
}

// Walk stats every candidate file under the roots. Unreadable directories and
// files are recorded as non-fatal errors; the walk itself never fails.
func (w *Walker) Walk() ([]WalkedFile, []ScanError) {
	var files []WalkedFile
	var errs []ScanError

	for _, root := range w.roots {
		err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				errs = append(errs, ScanError{Path: path, Reason: err.Error()})
				if d != nil && d.IsDir() {
					return fs.SkipDir
				}
				return nil
			}

			name := d.Name()
			if d.IsDir() {
				if path != root && strings.HasPrefix(name, ".") {
					return fs.SkipDir
				}
				return nil
			}

			// WalkDir does not descend into symlinked directories; skip
			// symlinked files too so a link cannot alias a cataloged path.
			if d.Type()&fs.ModeSymlink != 0 {
				return nil
			}
			if skipFileName(name) {
				return nil
			}
			if !w.exts[strings.ToLower(filepath.Ext(name))] {
				return nil
			}

			info, err := d.Info()
			if err != nil {
				errs = append(errs, ScanError{Path: path, Reason: err.Error()})
				return nil
			}

			files = append(files, WalkedFile{
				Path:    path,
				Name:    name,
				Size:    info.Size(),
				ModTime: info.ModTime(),
			})
			return nil
		})
		if err != nil {
			errs = append(errs, ScanError{Path: root, Reason: err.Error()})
		}
	}

	return files, errs
}

// skipFileName filters hidden and in-progress download files.
func skipFileName(name string) bool {
	return strings.HasPrefix(name, ".") ||
		strings.HasSuffix(name, ".tmp") ||
		strings.HasSuffix(name, ".part")
}
