package bridge

import (
	"sync"

	"github.com/nerrad567/govee-ble-bridge/internal/protocol"
)

// PendingCommand is one buffered control message awaiting a drain.
type PendingCommand struct {
	DeviceID string
	Kind     protocol.CommandKind
	Payload  []byte
}

// CommandQueue buffers inbound commands in arrival order until a drain
// collects them. Commands for different devices share one buffer; grouping
// happens at drain time.
//
// All methods are thread-safe.
type CommandQueue struct {
	mu  sync.Mutex
	buf []PendingCommand
}

// NewCommandQueue creates an empty queue.
func NewCommandQueue() *CommandQueue {
	return &CommandQueue{}
}

// Enqueue appends a command and reports whether the buffer was empty before
// the call. The first command after a drain returns true, which is the
// caller's cue to schedule the next drain; at most one drain is scheduled
// per idle-to-nonempty transition.
func (q *CommandQueue) Enqueue(cmd PendingCommand) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	wasEmpty := len(q.buf) == 0
	q.buf = append(q.buf, cmd)
	return wasEmpty
}

// TakeAll atomically removes and returns all buffered commands in arrival
// order. Returns nil when the buffer is empty.
func (q *CommandQueue) TakeAll() []PendingCommand {
	q.mu.Lock()
	defer q.mu.Unlock()

	buf := q.buf
	q.buf = nil
	return buf
}

// Len returns the number of buffered commands.
func (q *CommandQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.buf)
}
