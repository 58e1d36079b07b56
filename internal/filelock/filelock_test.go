package filelock_test

import (
	"context"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/tobsdb/jqldb/internal/errs"
	. "github.com/tobsdb/jqldb/internal/filelock"
	"golang.org/x/sync/errgroup"
	"gotest.tools/v3/assert"
)

func TestAcquireRelease(t *testing.T) {
	path := filepath.Join(t.TempDir(), "t.jdbt")
	l := New(10 * time.Millisecond)

	lock, err := l.Acquire(context.Background(), path)
	assert.NilError(t, err)
	assert.Assert(t, IsLocked(path))

	data, err := os.ReadFile(MarkerPath(path))
	assert.NilError(t, err)
	assert.Equal(t, string(data), lock.Token)

	assert.NilError(t, lock.Release())
	assert.Assert(t, !IsLocked(path))
	assert.Assert(t, errs.Is(lock.Release(), errs.LockFailed), "second release fails")
}

func TestAcquireWaitsForRelease(t *testing.T) {
	path := filepath.Join(t.TempDir(), "t.jdbt")
	l := New(20 * time.Millisecond)

	first, err := l.Acquire(context.Background(), path)
	assert.NilError(t, err)

	acquired := make(chan *Lock)
	go func() {
		second, err := l.Acquire(context.Background(), path)
		assert.Check(t, err)
		acquired <- second
	}()

	select {
	case <-acquired:
		t.Fatal("lock acquired while held")
	case <-time.After(100 * time.Millisecond):
	}

	assert.NilError(t, first.Release())
	select {
	case second := <-acquired:
		assert.Assert(t, second.Token != first.Token)
		assert.NilError(t, second.Release())
	case <-time.After(5 * time.Second):
		t.Fatal("lock never acquired after release")
	}
}

func TestAcquireCancelled(t *testing.T) {
	path := filepath.Join(t.TempDir(), "t.jdbt")
	l := New(10 * time.Millisecond)

	held, err := l.Acquire(context.Background(), path)
	assert.NilError(t, err)
	defer held.Release()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err = l.Acquire(ctx, path)
	assert.Assert(t, errs.Is(err, errs.LockFailed))
	assert.ErrorContains(t, err, "gave up waiting")
}

func TestReleaseChecksToken(t *testing.T) {
	path := filepath.Join(t.TempDir(), "t.jdbt")
	l := New(0)
	assert.Equal(t, l.PollInterval, DefaultPollInterval)

	lock, err := l.Acquire(context.Background(), path)
	assert.NilError(t, err)

	// someone broke the lock and took it over
	assert.NilError(t, Break(path))
	other, err := l.Acquire(context.Background(), path)
	assert.NilError(t, err)

	assert.ErrorContains(t, lock.Release(), "held by another owner")
	assert.Assert(t, IsLocked(path))
	assert.NilError(t, other.Release())
}

func TestMutualExclusion(t *testing.T) {
	path := filepath.Join(t.TempDir(), "t.jdbt")
	l := New(5 * time.Millisecond)

	var inside atomic.Int32
	g := errgroup.Group{}
	for i := 0; i < 5; i++ {
		g.Go(func() error {
			lock, err := l.Acquire(context.Background(), path)
			if err != nil {
				return err
			}
			n := inside.Add(1)
			time.Sleep(5 * time.Millisecond)
			inside.Add(-1)
			if n != 1 {
				t.Errorf("%d holders at once", n)
			}
			return lock.Release()
		})
	}
	assert.NilError(t, g.Wait())
}
