package transcript

import (
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/m-mizutani/goerr/v2"
)

// ShortSession is the cutoff for Recent's shortOnly filter.
const ShortSession = 15 * time.Minute

// File is a transcript file on disk.
type File struct {
	Path    string
	ModTime time.Time
	Size    int64
}

// List returns the *.jsonl files directly under dir and one level below it
// (Claude Code keeps one directory per project), newest first. limit <= 0 means all.
// A missing dir yields no files.
func List(dir string, limit int) ([]File, error) {
	var paths []string
	for _, pattern := range []string{
		filepath.Join(dir, "*.jsonl"),
		filepath.Join(dir, "*", "*.jsonl"),
	} {
		matches, err := filepath.Glob(pattern)
		if err != nil {
			return nil, goerr.Wrap(err, "glob transcripts", goerr.V("pattern", pattern))
		}
		paths = append(paths, matches...)
	}

	files := make([]File, 0, len(paths))
	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil || info.IsDir() {
			continue
		}
		files = append(files, File{Path: p, ModTime: info.ModTime(), Size: info.Size()})
	}

	sort.Slice(files, func(i, j int) bool {
		if !files[i].ModTime.Equal(files[j].ModTime) {
			return files[i].ModTime.After(files[j].ModTime)
		}
		return files[i].Path < files[j].Path
	})

	if limit > 0 && len(files) > limit {
		files = files[:limit]
	}
	return files, nil
}

// Latest returns the most recently modified transcript, or nil if there are none.
func Latest(dir string) (*File, error) {
	files, err := List(dir, 1)
	if err != nil || len(files) == 0 {
		return nil, err
	}
	return &files[0], nil
}

// Recent parses up to limit of the newest transcripts. Unreadable files are
// skipped. With shortOnly, only sessions shorter than ShortSession are kept.
func Recent(dir string, limit int, shortOnly bool) ([]*Transcript, error) {
	files, err := List(dir, 0)
	if err != nil {
		return nil, err
	}

	var out []*Transcript
	for _, f := range files {
		if limit > 0 && len(out) >= limit {
			break
		}
		t, err := Read(f.Path)
		if err != nil {
			continue
		}
		if shortOnly && t.Duration() >= ShortSession {
			continue
		}
		out = append(out, t)
	}
	return out, nil
}
