package forge

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"sync"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/jwebster45206/world-forge/pkg/entity"
)

// CounterStore tracks per-(kind, category) monotonic counters. Next must
// be atomic per key: concurrent allocations for the same key must never
// observe the same count or skip one.
type CounterStore interface {
	// Next increments and returns the counter for the given key.
	// The first allocation for a key returns 1.
	Next(ctx context.Context, kind entity.Kind, category string) (int, error)

	// Reset clears all counters, so the next allocation for any key
	// restarts at 1.
	Reset(ctx context.Context) error
}

// MemoryCounterStore is the default in-process CounterStore. Counters are
// lost on restart; deployments that need ids to survive restarts use the
// Redis or SQLite stores instead.
type MemoryCounterStore struct {
	mu       sync.Mutex
	counters map[string]int
}

var _ CounterStore = (*MemoryCounterStore)(nil)

func NewMemoryCounterStore() *MemoryCounterStore {
	return &MemoryCounterStore{
		counters: make(map[string]int),
	}
}

func (s *MemoryCounterStore) Next(ctx context.Context, kind entity.Kind, category string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := CounterKey(kind, category)
	s.counters[key]++
	return s.counters[key], nil
}

func (s *MemoryCounterStore) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.counters = make(map[string]int)
	return nil
}

// CounterKey builds the canonical counter key for a (kind, category) pair.
func CounterKey(kind entity.Kind, category string) string {
	return string(kind) + "/" + strings.ToLower(category)
}

var (
	slugStrip    = regexp.MustCompile(`[^a-z0-9\s_]+`)
	slugSpaces   = regexp.MustCompile(`[\s]+`)
	prefixLetter = regexp.MustCompile(`[a-z0-9]`)

	// foldMarks strips diacritic marks after NFD decomposition, so
	// "Épée" slugs the same as "Epee".
	foldMarks = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
)

// Slug converts a display name into the id-safe middle segment: lowercase,
// diacritics folded, everything outside [a-z0-9_ ] stripped, whitespace
// collapsed to single underscores. Idempotent.
func Slug(name string) string {
	folded, _, err := transform.String(foldMarks, name)
	if err != nil {
		folded = name
	}
	s := strings.ToLower(folded)
	s = slugStrip.ReplaceAllString(s, "")
	s = strings.TrimSpace(s)
	s = slugSpaces.ReplaceAllString(s, "_")
	return s
}

// CategoryPrefix returns the 3-letter id prefix for a category: the first
// three alphanumeric runes of the lowercased category, right-padded with
// "x" when the category is shorter.
func CategoryPrefix(category string) string {
	letters := prefixLetter.FindAllString(strings.ToLower(category), 3)
	prefix := strings.Join(letters, "")
	for len(prefix) < 3 {
		prefix += "x"
	}
	return prefix
}

// IdentityAllocator assigns deterministic, human-legible entity ids from
// the counter store. Not idempotent: every call advances the counter for
// its (kind, category) key.
type IdentityAllocator struct {
	counters CounterStore
}

func NewIdentityAllocator(counters CounterStore) *IdentityAllocator {
	return &IdentityAllocator{counters: counters}
}

// NextID allocates the next id for a (kind, category) pair, formatted as
// prefix_slug_paddedCount. Counts are zero-padded to 3 digits; counts past
// 999 widen naturally and are not re-padded.
func (a *IdentityAllocator) NextID(ctx context.Context, kind entity.Kind, category, name string) (string, error) {
	count, err := a.counters.Next(ctx, kind, category)
	if err != nil {
		return "", fmt.Errorf("failed to advance counter for %s: %w", CounterKey(kind, category), err)
	}

	// A name with no ASCII alphanumerics slugs to nothing; fall back to
	// the kind so the middle segment is never empty.
	slug := Slug(name)
	if slug == "" {
		slug = string(kind)
	}

	return fmt.Sprintf("%s_%s_%03d", CategoryPrefix(category), slug, count), nil
}

// Reset clears all counters.
func (a *IdentityAllocator) Reset(ctx context.Context) error {
	return a.counters.Reset(ctx)
}
