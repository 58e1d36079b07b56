// Package transaction runs one query against one table file: lock, load,
// execute, then commit or roll back, and always unlock.
package transaction

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/tobsdb/jqldb/internal/cache"
	"github.com/tobsdb/jqldb/internal/errs"
	"github.com/tobsdb/jqldb/internal/filelock"
	"github.com/tobsdb/jqldb/internal/schema"
	"github.com/tobsdb/jqldb/pkg"
)

type State int

const (
	StateLocked State = iota
	StateLoaded
	StateCommitted
	StateFailed
	StateUnlocked
)

var stateNames = [...]string{"locked", "loaded", "committed", "failed", "unlocked"}

func (s State) String() string { return stateNames[s] }

type Tx struct {
	Path string
	Doc  *schema.Document

	id        uuid.UUID
	cache     *cache.Cache
	lock      *filelock.Lock
	state     State
	startTime time.Time
}

// Begin locks path, resets the cache and loads the working document.
// On error nothing stays locked.
func Begin(ctx context.Context, locker *filelock.Locker, c *cache.Cache, path string) (*Tx, error) {
	tx := &Tx{Path: path, id: uuid.Must(uuid.NewV7()), cache: c, startTime: time.Now()}

	lock, err := locker.Acquire(ctx, path)
	if err != nil {
		return nil, err
	}
	tx.lock, tx.state = lock, StateLocked
	pkg.DebugLog("transaction locked", "tx", tx.id, "path", path, "wait", time.Since(tx.startTime))

	c.Reset()
	raw, err := c.Get(path)
	if err == nil {
		tx.Doc, err = schema.Decode([]byte(raw))
		if err != nil {
			err = errs.IO(errs.ReadFailed, err, "corrupt table file %s", path)
		}
	}
	if err != nil {
		tx.state = StateFailed
		tx.End()
		return nil, err
	}
	tx.state = StateLoaded
	return tx, nil
}

func (tx *Tx) ID() uuid.UUID { return tx.id }

func (tx *Tx) State() State { return tx.state }

// Commit persists the working document, then refreshes the cache with the
// bytes written.
func (tx *Tx) Commit() error {
	if tx.state != StateLoaded {
		return errs.Exec(errs.WriteFailed, "cannot commit a %s transaction", tx.state)
	}
	data, err := schema.Encode(tx.Doc)
	if err != nil {
		tx.state = StateFailed
		return errs.IO(errs.WriteFailed, err, "failed to encode %s", tx.Path)
	}
	if err := schema.WriteTableFile(tx.Path, data); err != nil {
		tx.state = StateFailed
		// the file may be partially written; drop what we cached
		_ = tx.cache.Update(tx.Path, "")
		return err
	}
	if err := tx.cache.Update(tx.Path, string(data)); err != nil {
		return err
	}
	tx.state = StateCommitted
	pkg.DebugLog("transaction committed", "tx", tx.id, "path", tx.Path)
	return nil
}

// Rollback discards the working document.
func (tx *Tx) Rollback() {
	if tx.state == StateLoaded {
		tx.state = StateFailed
	}
	tx.Doc = nil
}

// End releases the lock. It is safe to call more than once.
func (tx *Tx) End() {
	if tx.lock == nil {
		return
	}
	if err := tx.lock.Release(); err != nil {
		pkg.ErrorLog("failed to release lock", "tx", tx.id, "path", tx.Path, "err", err)
	}
	tx.lock = nil
	tx.state = StateUnlocked
	pkg.DebugLog("transaction ended", "tx", tx.id, "path", tx.Path, "elapsed", time.Since(tx.startTime))
}
