package cache

import (
	"container/list"
	"sync"

	"github.com/coreforge/gitcore/plumbing"
)

// DefaultMaxSize is the default amount of memory used by caches that are
// created without an explicit size.
const DefaultMaxSize = 96 * MiByte

// ObjectLRU implements an object cache with an LRU eviction policy and a
// maximum total size, bounded by the cumulative Size() of the cached
// objects rather than by a fixed entry count.
type ObjectLRU struct {
	MaxSize FileSize

	actualSize FileSize
	ll         *list.List
	cache      map[plumbing.Hash]*list.Element
	mu         sync.Mutex
}

// NewObjectLRU creates a new ObjectLRU with the given maximum size.
func NewObjectLRU(maxSize FileSize) *ObjectLRU {
	return &ObjectLRU{
		MaxSize: maxSize,
		ll:      list.New(),
		cache:   make(map[plumbing.Hash]*list.Element),
	}
}

// NewObjectLRUDefault creates a new ObjectLRU using DefaultMaxSize.
func NewObjectLRUDefault() *ObjectLRU {
	return NewObjectLRU(DefaultMaxSize)
}

// Put puts an object into the cache. If the object is already present, it
// is moved to the front and its recorded size is updated. Objects are
// evicted from the back of the list until the cache fits within MaxSize.
func (c *ObjectLRU) Put(obj plumbing.EncodedObject) {
	c.mu.Lock()
	defer c.mu.Unlock()

	key := obj.Hash()
	size := FileSize(obj.Size())

	if ee, ok := c.cache[key]; ok {
		c.ll.MoveToFront(ee)
		old := ee.Value.(*entry)
		c.actualSize -= old.size
		ee.Value = &entry{key, obj, size}
		c.actualSize += size
	} else {
		ee := c.ll.PushFront(&entry{key, obj, size})
		c.cache[key] = ee
		c.actualSize += size
	}

	for c.actualSize > c.MaxSize {
		last := c.ll.Back()
		if last == nil {
			c.actualSize = 0

			break
		}

		c.removeElement(last)
	}
}

// Get returns the object for the given hash, or false if it is not
// present in the cache.
func (c *ObjectLRU) Get(key plumbing.Hash) (plumbing.EncodedObject, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	ee, ok := c.cache[key]
	if !ok {
		return nil, false
	}

	c.ll.MoveToFront(ee)

	return ee.Value.(*entry).object, true
}

// Clear removes all objects from the cache.
func (c *ObjectLRU) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.ll = list.New()
	c.cache = make(map[plumbing.Hash]*list.Element)
	c.actualSize = 0
}

func (c *ObjectLRU) removeElement(e *list.Element) {
	c.ll.Remove(e)
	ent := e.Value.(*entry)
	delete(c.cache, ent.key)
	c.actualSize -= ent.size
}

type entry struct {
	key    plumbing.Hash
	object plumbing.EncodedObject
	size   FileSize
}
