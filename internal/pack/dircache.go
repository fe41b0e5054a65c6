package pack

import (
	"container/list"
	"sync"

	"github.com/zeebo/xxh3"
)

// DefaultDirCacheSize is the default bound on the directory-lookup LRU.
const DefaultDirCacheSize = 16

// dirCacheEntry is the cached verdict for one queried directory path: either
// it is not a directory in this pack, or it is one, first appearing at
// firstIndex in the TOC's Normal slice.
type dirCacheEntry struct {
	isDir      bool
	firstIndex int
}

// dirCache is a small LRU keyed by an xxh3 hash of the queried path, bounded
// to capacity entries. It is owned exclusively by one Reader; nothing
// outside the Reader's own methods ever touches it.
type dirCache struct {
	mu       sync.Mutex
	capacity int
	ll       *list.List
	index    map[uint64]*list.Element
}

type dirCacheElem struct {
	key   uint64
	value dirCacheEntry
}

func newDirCache(capacity int) *dirCache {
	if capacity <= 0 {
		capacity = DefaultDirCacheSize
	}
	return &dirCache{
		capacity: capacity,
		ll:       list.New(),
		index:    make(map[uint64]*list.Element),
	}
}

func dirCacheKey(path string) uint64 {
	return xxh3.HashString(path)
}

func (c *dirCache) get(path string) (dirCacheEntry, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	key := dirCacheKey(path)
	el, ok := c.index[key]
	if !ok {
		return dirCacheEntry{}, false
	}
	c.ll.MoveToFront(el)
	return el.Value.(*dirCacheElem).value, true
}

func (c *dirCache) put(path string, entry dirCacheEntry) {
	c.mu.Lock()
	defer c.mu.Unlock()

	key := dirCacheKey(path)
	if el, ok := c.index[key]; ok {
		el.Value.(*dirCacheElem).value = entry
		c.ll.MoveToFront(el)
		return
	}

	el := c.ll.PushFront(&dirCacheElem{key: key, value: entry})
	c.index[key] = el

	if c.ll.Len() > c.capacity {
		oldest := c.ll.Back()
		if oldest != nil {
			c.ll.Remove(oldest)
			delete(c.index, oldest.Value.(*dirCacheElem).key)
		}
	}
}
