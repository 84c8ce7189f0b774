package naming

import (
	"regexp"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSanitize(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Notes 1.pdf", "Notes_1.pdf"},
		{"My   Notes\t\nfinal.pdf", "My_Notes_final.pdf"},
		{" lead", "_lead"},
		{"plain.pdf", "plain.pdf"},
		{"", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Sanitize(tt.in), "input %q", tt.in)
	}
}

func TestPolicy_StorageName_Format(t *testing.T) {
	p := NewPolicy()
	now := time.UnixMilli(1700000000000)

	assert.Equal(t, "1700000000000-My_Notes.pdf", p.StorageName("My Notes.pdf", now))
	assert.Regexp(t, regexp.MustCompile(`^\d+-Notes_1\.pdf$`), p.StorageName("Notes 1.pdf", time.Now()))
}

func TestPolicy_StorageName_DifferentInstants(t *testing.T) {
	p := NewPolicy()
	t0 := time.UnixMilli(1700000000000)

	a := p.StorageName("a.pdf", t0)
	b := p.StorageName("a.pdf", t0.Add(5*time.Millisecond))

	assert.Equal(t, "1700000000000-a.pdf", a)
	assert.Equal(t, "1700000000005-a.pdf", b)
}

func TestPolicy_StorageName_SameMillisecondDoesNotCollide(t *testing.T) {
	p := NewPolicy()
	t0 := time.UnixMilli(1700000000000)

	a := p.StorageName("a.pdf", t0)
	b := p.StorageName("a.pdf", t0)
	c := p.StorageName("a.pdf", t0.Add(-time.Second))

	assert.Equal(t, "1700000000000-a.pdf", a)
	assert.Equal(t, "1700000000001-a.pdf", b)
	assert.Equal(t, "1700000000002-a.pdf", c)
}

func TestPolicy_StorageName_ConcurrentUnique(t *testing.T) {
	p := NewPolicy()
	now := time.Now()

	const n = 200
	names := make(chan string, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			names <- p.StorageName("same name.pdf", now)
		}()
	}
	wg.Wait()
	close(names)

	seen := make(map[string]struct{}, n)
	for name := range names {
		_, dup := seen[name]
		require.False(t, dup, "duplicate storage name %s", name)
		seen[name] = struct{}{}
	}
	assert.Len(t, seen, n)
}
