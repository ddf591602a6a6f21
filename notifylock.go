package main

import "sync"

// State word layout, shared by all lock paths: readers hold the lock in
// increments of readStep, an odd value means a writer has announced itself
// and new readers must queue, and writeLocked marks exclusive ownership.
const (
	readStep    = 2
	writeLocked = ^uint32(0)
	maxReaders  = writeLocked - readStep
)

// NotifySender is the sending side of a capacity-1 change-notification
// channel. Sends are best-effort: a pending, unconsumed token already
// covers any further changes.
type NotifySender = chan<- struct{}

// NewNotifyChannel returns the single-slot channel used to wake an
// observer (typically a render loop) after exclusive releases.
func NewNotifyChannel() chan struct{} {
	return make(chan struct{}, 1)
}

// NotifyRwLock guards a value with reader/writer semantics and fires a
// coalescing notification on every exclusive release. Access is scoped
// through the Read and Write callbacks so a forgotten release cannot
// happen.
//
// Writers cannot be starved by readers: once a writer announces itself by
// setting the low bit, new readers wait for the state to change, while
// readers already in flight drain normally and the last one out wakes the
// writer.
type NotifyRwLock[T any] struct {
	mu         sync.Mutex
	readerGate *sync.Cond // readers wait here while a writer is announced
	writerGate *sync.Cond // writers wait here for the wake generation to move
	state      uint32
	wakes      uint32 // writer wake generation, bumped on every handover
	value      T
	notify     NotifySender
}

func NewNotifyRwLock[T any](notify NotifySender, value T) *NotifyRwLock[T] {
	l := &NotifyRwLock[T]{value: value, notify: notify}
	l.readerGate = sync.NewCond(&l.mu)
	l.writerGate = sync.NewCond(&l.mu)
	return l
}

// Read grants shared access to the value for the duration of fn. Multiple
// readers may run concurrently; none overlaps a writer.
func (l *NotifyRwLock[T]) Read(fn func(v T)) {
	l.lockShared()
	defer l.unlockShared()
	fn(l.value)
}

// Write grants exclusive access to the value for the duration of fn and
// attempts one notification send afterwards.
func (l *NotifyRwLock[T]) Write(fn func(v *T)) {
	l.lockExclusive()
	defer l.unlockExclusive()
	fn(&l.value)
}

// Snapshot returns a copy of the value taken under shared access.
func (l *NotifyRwLock[T]) Snapshot() T {
	var v T
	l.Read(func(cur T) { v = cur })
	return v
}

func (l *NotifyRwLock[T]) lockShared() {
	l.mu.Lock()
	for l.state%2 == 1 {
		l.readerGate.Wait()
	}
	if l.state >= maxReaders {
		l.mu.Unlock()
		panic("notifylock: too many readers")
	}
	l.state += readStep
	l.mu.Unlock()
}

func (l *NotifyRwLock[T]) unlockShared() {
	l.mu.Lock()
	l.state -= readStep
	// Exactly 1 means the last reader left with a writer announced:
	// hand the lock over.
	if l.state == 1 {
		l.wakes++
		l.writerGate.Signal()
	}
	l.mu.Unlock()
}

func (l *NotifyRwLock[T]) lockExclusive() {
	l.mu.Lock()
	for {
		if l.state <= 1 {
			l.state = writeLocked
			l.mu.Unlock()
			return
		}
		if l.state%2 == 0 {
			l.state++ // announce, so new readers queue behind us
		}
		gen := l.wakes
		for l.wakes == gen && l.state >= readStep {
			l.writerGate.Wait()
		}
	}
}

func (l *NotifyRwLock[T]) unlockExclusive() {
	l.mu.Lock()
	l.state = 0
	l.wakes++
	l.writerGate.Signal()    // fairness between competing writers
	l.readerGate.Broadcast() // the announced bit is gone, readers may retry
	l.mu.Unlock()

	// Best-effort change signal. A full channel means a notification is
	// already pending, which is all the observer needs.
	select {
	case l.notify <- struct{}{}:
	default:
	}
}
