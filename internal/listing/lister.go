// Package listing prints directory tables for a store.
package listing

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/bamsammich/flashdrop/internal/filter"
	"github.com/bamsammich/flashdrop/internal/space"
	"github.com/bamsammich/flashdrop/internal/store"
)

// ErrDirectoryUnavailable is returned when the directory cannot be opened.
var ErrDirectoryUnavailable = errors.New("directory unavailable")

const (
	rule        = "-----------------------------------"
	timeLayout  = "02/01/2006 15:04"
	noTime      = "                "
	unknownSize = "       ?"
	dirSize     = "       -"
)

// Summary aggregates one listing. TotalBytes counts only files whose stat
// succeeded; Files counts every regular file listed.
type Summary struct {
	TotalBytes uint64
	Files      int
	Dirs       int
}

// Lister writes directory tables to Out.
type Lister struct {
	FS  store.FS
	Out io.Writer

	// Chain is applied after the pattern. Nil means no extra rules.
	Chain *filter.Chain

	// Location for timestamps; nil means time.Local.
	Location *time.Location

	Logger *slog.Logger
}

// List prints every entry of dir whose full path matches pattern (empty
// pattern matches everything), followed by totals and a capacity line.
//
//nolint:revive // cognitive-complexity: one branch per column format
func (l *Lister) List(dir, pattern string) (Summary, error) {
	out := l.Out
	if out == nil {
		out = io.Discard
	}
	logger := l.Logger
	if logger == nil {
		logger = slog.Default()
	}
	loc := l.Location
	if loc == nil {
		loc = time.Local
	}

	fmt.Fprintf(out, "LIST of DIR [%s]\n", dir)

	entries, err := l.FS.ReadDir(dir)
	if err != nil {
		fmt.Fprintln(out, "Error opening directory")
		return Summary{}, fmt.Errorf("%w: %s: %w", ErrDirectoryUnavailable, dir, err)
	}

	fmt.Fprintln(out, "T  Size      Date/Time         Name")
	fmt.Fprintln(out, rule)

	var sum Summary
	malformedLogged := false
	for _, d := range entries {
		full := joinPath(dir, d.Name)

		if pattern != "" {
			ok, err := filter.Match(pattern, full, filter.Period)
			if err != nil && !malformedLogged {
				logger.Debug("listing pattern is malformed", "pattern", pattern, "error", err)
				malformedLogged = true
			}
			if !ok {
				continue
			}
		}

		e, statErr := l.FS.Stat(full)
		if l.Chain != nil && !l.Chain.Match(full, d.IsDir, e.Size) {
			continue
		}

		stamp := noTime
		if statErr == nil {
			stamp = e.ModTime.In(loc).Format(timeLayout)
		} else {
			logger.Debug("stat failed", "path", full, "error", statErr)
		}

		typ, size := byte('d'), dirSize
		if !d.IsDir {
			typ = 'f'
			sum.Files++
			if statErr != nil {
				size = unknownSize
			} else {
				sum.TotalBytes += uint64(e.Size) //nolint:gosec // G115: sizes are non-negative
				size = FormatSize(uint64(e.Size)) //nolint:gosec // G115: sizes are non-negative
			}
		} else {
			sum.Dirs++
		}

		fmt.Fprintf(out, "%c  %s  %s  %s\n", typ, size, stamp, d.Name)
	}

	if sum.TotalBytes > 0 {
		fmt.Fprintln(out, rule)
		fmt.Fprintf(out, "   %s in %d file(s)\n", FormatSize(sum.TotalBytes), sum.Files)
	}
	fmt.Fprintln(out, rule)

	snap := space.NewTracker(l.FS, logger).Capacity()
	fmt.Fprintf(out, "Storage: free %d KB of %d KB\n", snap.Free()/1024, snap.Total/1024)

	return sum, nil
}

// joinPath appends name to dir with exactly one separator.
func joinPath(dir, name string) string {
	if strings.HasSuffix(dir, "/") {
		return dir + name
	}
	return dir + "/" + name
}
