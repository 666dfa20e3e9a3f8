package core

import (
	"sync"

	"github.com/samber/lo"
)

// PendingMessage is a message waiting for its receiver to be online.
type PendingMessage struct {
	Seq   uint64
	Label string
	To    string
	Body  string
}

// Backlog is the FIFO of undelivered messages shared by every dispatcher and the delivery worker.
// Each push raises a wake signal; the signal coalesces, so one wake may cover many pushes.
type Backlog struct {
	mu    sync.Mutex
	queue []PendingMessage
	seq   uint64
	wake  chan struct{}
}

// NewBacklog creates an empty backlog.
func NewBacklog() *Backlog {
	return &Backlog{wake: make(chan struct{}, 1)}
}

// Push appends messages in order and wakes the delivery worker.
func (b *Backlog) Push(msgs ...PendingMessage) {
	if len(msgs) == 0 {
		return
	}

	b.mu.Lock()
	for _, m := range msgs {
		b.seq++
		m.Seq = b.seq
		b.queue = append(b.queue, m)
	}
	b.mu.Unlock()

	b.Signal()
}

// Signal wakes the delivery worker without enqueuing anything.
func (b *Backlog) Signal() {
	select {
	case b.wake <- struct{}{}:
	default:
	}
}

// Wake is the channel the delivery worker waits on.
func (b *Backlog) Wake() <-chan struct{} {
	return b.wake
}

// drain removes and returns the whole queue.
func (b *Backlog) drain() []PendingMessage {
	b.mu.Lock()
	defer b.mu.Unlock()

	batch := b.queue
	b.queue = nil
	return batch
}

// requeue puts undelivered messages back ahead of anything pushed since the drain.
func (b *Backlog) requeue(msgs []PendingMessage) {
	if len(msgs) == 0 {
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	queue := make([]PendingMessage, 0, len(msgs)+len(b.queue))
	queue = append(queue, msgs...)
	b.queue = append(queue, b.queue...)
}

// Len returns the number of pending messages.
func (b *Backlog) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.queue)
}

// PendingFor counts the messages waiting for user.
func (b *Backlog) PendingFor(user string) int {
	b.mu.Lock()
	defer b.mu.Unlock()

	return lo.CountBy(b.queue, func(m PendingMessage) bool { return m.To == user })
}
