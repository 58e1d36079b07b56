package pkg

import "sync"

type HasLocker interface{ GetLocker() *sync.RWMutex }

// LockWrap runs f under the write lock of i and returns its error.
func LockWrap(i HasLocker, f func() error) error {
	i.GetLocker().Lock()
	defer i.GetLocker().Unlock()
	return f()
}

func RLockWrap(i HasLocker, f func() error) error {
	i.GetLocker().RLock()
	defer i.GetLocker().RUnlock()
	return f()
}
