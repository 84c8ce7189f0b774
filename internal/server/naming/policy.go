// Package naming derives blob storage names from uploaded file names.
//
// A storage name is "<unix-millis>-<sanitized name>", e.g.
// "1700000000000-My_Notes.pdf". The policy does not look at extensions or
// content types.
package naming

import (
	"regexp"
	"strconv"
	"sync"
	"time"
)

var whitespace = regexp.MustCompile(`\s+`)

// Sanitize replaces every run of whitespace with a single underscore.
func Sanitize(name string) string {
	return whitespace.ReplaceAllString(name, "_")
}

// Policy issues storage names. The millisecond component is strictly
// increasing for the lifetime of the Policy: when two calls land on the same
// (or an earlier) millisecond the later one is pushed to last+1, so names
// from one process never collide. Collisions between processes are still
// possible and are caught by the blob store refusing to overwrite.
type Policy struct {
	mu   sync.Mutex
	last int64
}

func NewPolicy() *Policy {
	return &Policy{}
}

// StorageName returns the storage name for originalName uploaded at now.
func (p *Policy) StorageName(originalName string, now time.Time) string {
	return strconv.FormatInt(p.tick(now.UnixMilli()), 10) + "-" + Sanitize(originalName)
}

func (p *Policy) tick(ms int64) int64 {
	p.mu.Lock()
	defer p.mu.Unlock()

	if ms <= p.last {
		ms = p.last + 1
	}
	p.last = ms
	return ms
}
