package cache_test

import (
	"errors"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"

	. "github.com/tobsdb/jqldb/internal/cache"
	"github.com/tobsdb/jqldb/internal/errs"
	"golang.org/x/sync/errgroup"
	"gotest.tools/v3/assert"
)

func TestCacheFromDisk(t *testing.T) {
	path := filepath.Join(t.TempDir(), "t.jdbt")
	assert.NilError(t, os.WriteFile(path, []byte("v1"), 0644))

	c := New()
	v, err := c.Get(path)
	assert.NilError(t, err)
	assert.Equal(t, v, "v1")

	// served from memory until reset
	assert.NilError(t, os.WriteFile(path, []byte("v2"), 0644))
	v, _ = c.Get(path)
	assert.Equal(t, v, "v1")

	c.Reset()
	assert.Equal(t, c.Len(), 0)
	v, _ = c.Get(path)
	assert.Equal(t, v, "v2")

	assert.NilError(t, c.Update(path, "v3"))
	v, _ = c.Get(path)
	assert.Equal(t, v, "v3")

	// an empty update reloads from disk
	assert.NilError(t, c.Update(path, ""))
	v, _ = c.Get(path)
	assert.Equal(t, v, "v2")

	_, err = c.Get(filepath.Join(t.TempDir(), "missing.jdbt"))
	assert.Assert(t, errs.Is(err, errs.NoSuchTable))
}

func TestCacheLoadsOnce(t *testing.T) {
	var loads atomic.Int32
	release := make(chan struct{})
	c := NewWithLoader(func(path string) ([]byte, error) {
		loads.Add(1)
		<-release
		return []byte("doc:" + path), nil
	})

	var started sync.WaitGroup
	g := errgroup.Group{}
	for i := 0; i < 8; i++ {
		started.Add(1)
		g.Go(func() error {
			started.Done()
			v, err := c.Get("a")
			if err == nil && v != "doc:a" {
				return errors.New("unexpected value " + v)
			}
			return err
		})
	}
	started.Wait()
	close(release)
	assert.NilError(t, g.Wait())

	// late callers may miss the in-flight load but must hit the stored entry
	assert.Assert(t, loads.Load() >= 1)
	before := loads.Load()
	_, err := c.Get("a")
	assert.NilError(t, err)
	assert.Equal(t, loads.Load(), before)
}

func TestCacheResetDropsInflightLoad(t *testing.T) {
	entered := make(chan struct{})
	release := make(chan struct{})
	calls := 0
	c := NewWithLoader(func(path string) ([]byte, error) {
		calls++
		if calls == 1 {
			close(entered)
			<-release
			return []byte("stale"), nil
		}
		return []byte("fresh"), nil
	})

	done := make(chan string)
	go func() {
		v, _ := c.Get("a")
		done <- v
	}()
	<-entered
	c.Reset()
	close(release)
	assert.Equal(t, <-done, "stale")

	v, err := c.Get("a")
	assert.NilError(t, err)
	assert.Equal(t, v, "fresh")
}
