// Package filelock implements the advisory per-table lock shared by every
// process touching a table file: a sidecar marker file holding the owner's
// token.
package filelock

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/google/uuid"
	"github.com/tobsdb/jqldb/internal/errs"
	"github.com/tobsdb/jqldb/pkg"
	"golang.org/x/time/rate"
)

const (
	MarkerExt           = ".lock"
	DefaultPollInterval = 100 * time.Millisecond
)

func MarkerPath(path string) string { return path + MarkerExt }

type Locker struct {
	PollInterval time.Duration
}

func New(poll_interval time.Duration) *Locker {
	if poll_interval <= 0 {
		poll_interval = DefaultPollInterval
	}
	return &Locker{PollInterval: poll_interval}
}

// Lock is a held table lock.
type Lock struct {
	Path  string
	Token string

	marker string
}

// Acquire blocks until the marker of path can be created. There is no
// timeout; only ctx ends the wait.
func (l *Locker) Acquire(ctx context.Context, path string) (*Lock, error) {
	lock := &Lock{Path: path, Token: uuid.NewString(), marker: MarkerPath(path)}

	// watch before the first attempt so a removal between the attempt and
	// the wait is not missed
	watcher, err := fsnotify.NewWatcher()
	if err == nil {
		if err = watcher.Add(filepath.Dir(lock.marker)); err != nil {
			_ = watcher.Close()
			watcher = nil
		}
	}
	if watcher != nil {
		defer func() { _ = watcher.Close() }()
	} else {
		pkg.WarnLog("lock falls back to polling", "path", path, "err", err)
	}

	// wake-ups from unrelated events in the directory are rate limited
	limiter := rate.NewLimiter(rate.Every(l.PollInterval/10), 2)
	ticker := time.NewTicker(l.PollInterval)
	defer ticker.Stop()

	waited := false
	for {
		ok, err := lock.tryCreate()
		if err != nil {
			return nil, err
		}
		if ok {
			if waited {
				pkg.DebugLog("lock acquired after wait", "path", path)
			}
			return lock, nil
		}
		if !waited {
			pkg.DebugLog("waiting for lock", "path", path)
			waited = true
		}

		if err := l.wait(ctx, watcher, ticker, lock.marker); err != nil {
			return nil, err
		}
		if err := limiter.Wait(ctx); err != nil {
			return nil, errs.IO(errs.LockFailed, err, "gave up waiting for %s", path)
		}
	}
}

func (l *Locker) wait(ctx context.Context, watcher *fsnotify.Watcher, ticker *time.Ticker, marker string) error {
	var events <-chan fsnotify.Event
	var errCh <-chan error
	if watcher != nil {
		events, errCh = watcher.Events, watcher.Errors
	}
	for {
		select {
		case <-ctx.Done():
			return errs.IO(errs.LockFailed, ctx.Err(), "gave up waiting for lock")
		case <-ticker.C:
			return nil
		case event, ok := <-events:
			if !ok {
				events = nil
				continue
			}
			if filepath.Base(event.Name) == filepath.Base(marker) &&
				(event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename)) {
				return nil
			}
		case err, ok := <-errCh:
			if !ok {
				errCh = nil
				continue
			}
			pkg.WarnLog("error watching lock", "marker", marker, "err", err)
		}
	}
}

func (lock *Lock) tryCreate() (bool, error) {
	f, err := os.OpenFile(lock.marker, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0644)
	if err != nil {
		if errors.Is(err, os.ErrExist) {
			return false, nil
		}
		return false, errs.IO(errs.LockFailed, err, "failed to lock %s", lock.Path)
	}
	_, err = f.WriteString(lock.Token)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		_ = os.Remove(lock.marker)
		return false, errs.IO(errs.LockFailed, err, "failed to lock %s", lock.Path)
	}
	return true, nil
}

// Release removes the marker if it still carries the lock's token.
func (lock *Lock) Release() error {
	data, err := os.ReadFile(lock.marker)
	if err != nil {
		return errs.IO(errs.LockFailed, err, "lock on %s is not held", lock.Path)
	}
	if strings.TrimSpace(string(data)) != lock.Token {
		return errs.Exec(errs.LockFailed, "lock on %s is held by another owner", lock.Path)
	}
	if err := os.Remove(lock.marker); err != nil {
		return errs.IO(errs.LockFailed, err, "failed to unlock %s", lock.Path)
	}
	return nil
}

// IsLocked reports whether a marker exists for path.
func IsLocked(path string) bool {
	_, err := os.Stat(MarkerPath(path))
	return err == nil
}

// Break removes the marker of path whoever holds it. It is the manual way out
// of a lock left behind by a crashed holder.
func Break(path string) error {
	err := os.Remove(MarkerPath(path))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return errs.IO(errs.LockFailed, err, "failed to break lock on %s", path)
	}
	return nil
}
