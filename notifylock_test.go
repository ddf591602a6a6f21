package main

import (
	"runtime"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNotifyRwLockNoLostUpdates(t *testing.T) {
	notify := NewNotifyChannel()
	list := NewNotifyRwLock(notify, []int(nil))

	var wg sync.WaitGroup
	for range 2 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range 1000 {
				list.Write(func(v *[]int) { *v = append(*v, i) })
			}
		}()
	}
	wg.Add(1)
	go func() {
		defer wg.Done()
		for range 1000 {
			list.Read(func(v []int) { _ = len(v) })
		}
	}()
	wg.Wait()

	require.Len(t, list.Snapshot(), 2000)
}

func TestNotifyRwLockMutualExclusion(t *testing.T) {
	lock := NewNotifyRwLock(nil, 0)

	var inWrite atomic.Int32
	var overlap atomic.Bool
	var wg sync.WaitGroup
	for range 4 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range 500 {
				lock.Write(func(v *int) {
					if inWrite.Add(1) != 1 {
						overlap.Store(true)
					}
					cur := *v
					runtime.Gosched()
					*v = cur + 1
					inWrite.Add(-1)
				})
			}
		}()
	}
	wg.Wait()

	require.False(t, overlap.Load(), "two writers held the lock at once")
	require.Equal(t, 2000, lock.Snapshot())
}

func TestNotifyRwLockReadersExcludeWriter(t *testing.T) {
	lock := NewNotifyRwLock(nil, 0)

	var readers atomic.Int32
	var overlap atomic.Bool
	var wg sync.WaitGroup
	for range 2 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range 500 {
				lock.Read(func(int) {
					readers.Add(1)
					runtime.Gosched()
					readers.Add(-1)
				})
			}
		}()
	}
	wg.Add(1)
	go func() {
		defer wg.Done()
		for range 200 {
			lock.Write(func(v *int) {
				if readers.Load() != 0 {
					overlap.Store(true)
				}
				*v++
			})
		}
	}()
	wg.Wait()

	require.False(t, overlap.Load(), "a reader overlapped an exclusive hold")
	require.Equal(t, 200, lock.Snapshot())
}

func TestNotifyRwLockNotifiesOnWrite(t *testing.T) {
	notify := NewNotifyChannel()
	lock := NewNotifyRwLock(notify, 0)

	lock.Write(func(v *int) { *v = 1 })
	require.Len(t, notify, 1)

	// Shared access never notifies.
	<-notify
	lock.Read(func(int) {})
	require.Empty(t, notify)
}

func TestNotifyRwLockCoalescesNotifications(t *testing.T) {
	notify := NewNotifyChannel()
	lock := NewNotifyRwLock(notify, 0)

	// Every release attempts a send; the single slot swallows the excess
	// without blocking any writer.
	for range 10 {
		lock.Write(func(v *int) { *v++ })
	}
	require.Len(t, notify, 1)

	<-notify
	require.Empty(t, notify)
	require.Equal(t, 10, lock.Snapshot())
}

func TestNotifyRwLockSnapshotCopies(t *testing.T) {
	lock := NewNotifyRwLock(nil, Progress{Total: 3, Scanned: 1})

	p := lock.Snapshot()
	p.Scanned = 99

	require.Equal(t, Progress{Total: 3, Scanned: 1}, lock.Snapshot())
}
