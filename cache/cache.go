// Package cache stores fetched category pages so repeated runs over the same
// team season do not hit the site again.
package cache

import (
	"time"

	"github.com/PuerkitoBio/purell"
)

// Entry is one cached page
type Entry struct {
	Markup    string
	FetchedAt time.Time
}

// Cache is a keyed page store. Implementations expire entries on their own.
type Cache interface {
	Get(key string) (Entry, bool)
	Set(key string, entry Entry)
}

const normalizeFlags = purell.FlagsSafe |
	purell.FlagsUsuallySafeNonGreedy |
	purell.FlagRemoveDirectoryIndex |
	purell.FlagRemoveFragment |
	purell.FlagSortQuery

// Key normalizes a page URL into a cache key. URLs that differ only in case
// of scheme and host, fragment or query order share a key.
func Key(rawURL string) string {
	normalized, err := purell.NormalizeURLString(rawURL, normalizeFlags)
	if err != nil {
		return rawURL
	}
	return normalized
}

// Nop never stores anything
type Nop struct{}

func (Nop) Get(string) (Entry, bool) { return Entry{}, false }
func (Nop) Set(string, Entry)        {}
