// Package cache memoizes serialized table documents by path for the lifetime
// of one query transaction.
package cache

import (
	"strconv"
	"sync"

	"github.com/tobsdb/jqldb/internal/schema"
	"github.com/tobsdb/jqldb/pkg"
	"golang.org/x/sync/singleflight"
)

type Loader func(path string) ([]byte, error)

type Cache struct {
	locker  sync.RWMutex
	entries pkg.Map[string, string]
	// bumped by Reset so loads started before it are not stored
	gen   uint64
	group singleflight.Group
	load  Loader
}

// New returns a cache reading table files from disk.
func New() *Cache { return NewWithLoader(schema.ReadTableFile) }

func NewWithLoader(load Loader) *Cache {
	return &Cache{entries: pkg.Map[string, string]{}, load: load}
}

func (c *Cache) GetLocker() *sync.RWMutex { return &c.locker }

// Get returns the cached document of path, reading it on first access.
func (c *Cache) Get(path string) (string, error) {
	var (
		value string
		found bool
		gen   uint64
	)
	pkg.RLockWrap(c, func() error {
		value, found = c.entries[path]
		gen = c.gen
		return nil
	})
	if found {
		return value, nil
	}

	res, err, _ := c.group.Do(strconv.FormatUint(gen, 10)+":"+path, func() (any, error) {
		data, err := c.load(path)
		if err != nil {
			return "", err
		}
		value := string(data)
		pkg.LockWrap(c, func() error {
			if c.gen == gen {
				c.entries.Set(path, value)
			}
			return nil
		})
		return value, nil
	})
	if err != nil {
		return "", err
	}
	return res.(string), nil
}

// Update stores value for path, or reloads path from disk when value is empty.
func (c *Cache) Update(path, value string) error {
	if value == "" {
		pkg.LockWrap(c, func() error {
			c.entries.Delete(path)
			return nil
		})
		_, err := c.Get(path)
		return err
	}
	return pkg.LockWrap(c, func() error {
		c.entries.Set(path, value)
		return nil
	})
}

// Reset drops every entry.
func (c *Cache) Reset() {
	pkg.LockWrap(c, func() error {
		c.entries = pkg.Map[string, string]{}
		c.gen++
		return nil
	})
}

func (c *Cache) Len() int {
	n := 0
	pkg.RLockWrap(c, func() error {
		n = len(c.entries)
		return nil
	})
	return n
}
