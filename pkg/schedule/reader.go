package schedule

import (
	"bufio"
	"errors"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"strings"

	"janitorr-hq/overseer/pkg/retention"
)

// Reader reads Janitorr's activity log.
type Reader struct {
	path   string
	logger *slog.Logger
}

// Option configures a Reader.
type Option func(*Reader)

// WithLogger sets the logger used for debug output.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Reader) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// NewReader returns a Reader for the log at path.
func NewReader(path string, opts ...Option) *Reader {
	r := &Reader{
		path:   path,
		logger: slog.Default().With("component", "schedule.reader"),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Path returns the log file path.
func (r *Reader) Path() string {
	return r.path
}

// scanState tracks the backward walk through the log.
type scanState int

const (
	// seeking: no deletion line seen yet.
	seeking scanState = iota
	// inScan: collecting lines that share the newest scan date.
	inScan
	// done: an older scan was reached.
	done
)

// Scheduled reconstructs the most recent scan's deletion candidates.
//
// The log is walked from the end. The first deletion line found fixes the scan
// date; walking stops at the first deletion line with a different date. Within
// the scan the first occurrence of a title wins. When ret is unknown the
// projected fields of each record are left nil.
//
// On failure the returned Schedule is empty and the error matches ErrNotFound
// or ErrIO.
func (r *Reader) Scheduled(ret retention.Days) (Schedule, error) {
	lines, err := r.readLines()
	if err != nil {
		return Schedule{}, err
	}

	retentionDays, known := ret.Get()

	var (
		state    = seeking
		scanDate Date
		records  []Record
		seen     = make(map[string]struct{})
	)

	for i := len(lines) - 1; i >= 0 && state != done; i-- {
		c, ok := matchLine(lines[i])
		if !ok {
			continue
		}

		switch state {
		case seeking:
			scanDate = c.date
			state = inScan
		case inScan:
			if c.date != scanDate {
				state = done
				continue
			}
		}

		if _, dup := seen[c.title]; dup {
			continue
		}
		seen[c.title] = struct{}{}
		records = append(records, newRecord(c, scanDate, retentionDays, known))
	}

	out := Schedule{}
	if len(records) > 0 {
		out[scanDate] = records
	}

	r.logger.Debug("schedule reconstructed",
		"path", r.path,
		"lines", len(lines),
		"scan_date", scanDate,
		"records", len(records),
		"retention", ret,
	)
	return out, nil
}

func newRecord(c candidate, scanDate Date, retentionDays int, known bool) Record {
	added := scanDate.AddDays(-c.age)
	rec := Record{
		Title:     c.title,
		AgeDays:   c.age,
		AddedDate: added,
	}
	if known {
		remaining := retentionDays - c.age
		deletion := added.AddDays(retentionDays)
		rec.DaysUntilDeletion = &remaining
		rec.DeletionDate = &deletion
	}
	return rec
}

// Tail returns the last n lines of the log, oldest first, without line
// terminators. It keeps at most n lines in memory. n <= 0 yields no lines.
func (r *Reader) Tail(n int) ([]string, error) {
	if n <= 0 {
		return []string{}, nil
	}

	ring := make([]string, n)
	count := 0
	err := r.eachLine(func(line string) {
		ring[count%n] = line
		count++
	})
	if err != nil {
		return []string{}, err
	}

	if count <= n {
		return ring[:count], nil
	}
	start := count % n
	out := make([]string, 0, n)
	out = append(out, ring[start:]...)
	out = append(out, ring[:start]...)
	return out, nil
}

func (r *Reader) readLines() ([]string, error) {
	var lines []string
	err := r.eachLine(func(line string) {
		lines = append(lines, line)
	})
	return lines, err
}

// eachLine calls fn for every line in the log. Lines may be arbitrarily long.
func (r *Reader) eachLine(fn func(string)) error {
	f, err := os.Open(r.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return notFound(r.path)
		}
		return ioFailure(r.path, err)
	}
	defer f.Close()

	br := bufio.NewReader(f)
	for {
		line, err := br.ReadString('\n')
		if len(line) > 0 {
			fn(trimEOL(line))
		}
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return ioFailure(r.path, err)
		}
	}
}

func trimEOL(line string) string {
	line = strings.TrimSuffix(line, "\n")
	return strings.TrimSuffix(line, "\r")
}
