package plugin

import (
	"sync"
	"time"
)

// Item is one queued workflow execution request.
type Item struct {
	ID       string    `json:"id"`
	Workflow string    `json:"workflow"`
	QueuedAt time.Time `json:"queued_at"`
}

// HistoryEntry records how a request finished.
type HistoryEntry struct {
	Item
	Status     string    `json:"status"`
	Error      string    `json:"error,omitempty"`
	FinishedAt time.Time `json:"finished_at"`
}

// Queue is the request queue bound to a server.
type Queue struct {
	server *Server

	mu      sync.Mutex
	pending []Item
	running map[string]Item
	history []HistoryEntry
}

// NewQueue binds a queue to server.
func NewQueue(server *Server) *Queue {
	return &Queue{
		server:  server,
		running: make(map[string]Item),
	}
}

// Put enqueues item and notifies the server.
func (q *Queue) Put(item Item) error {
	if item.QueuedAt.IsZero() {
		item.QueuedAt = time.Now()
	}

	q.mu.Lock()
	q.pending = append(q.pending, item)
	q.mu.Unlock()

	return q.server.Send(EventQueued, item)
}

// Next takes the oldest pending item and marks it running.
func (q *Queue) Next() (Item, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.pending) == 0 {
		return Item{}, false
	}
	item := q.pending[0]
	q.pending = q.pending[1:]
	q.running[item.ID] = item
	return item, true
}

// Done records the outcome of a running item and notifies the server.
func (q *Queue) Done(id, status string, err error) error {
	q.mu.Lock()
	item, ok := q.running[id]
	if !ok {
		item = Item{ID: id}
	}
	delete(q.running, id)

	entry := HistoryEntry{Item: item, Status: status, FinishedAt: time.Now()}
	if err != nil {
		entry.Error = err.Error()
	}
	q.history = append(q.history, entry)
	q.mu.Unlock()

	return q.server.Send(EventExecuted, entry)
}

// Len returns the number of pending and running items.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.pending) + len(q.running)
}

// History returns finished items, oldest first.
func (q *Queue) History() []HistoryEntry {
	q.mu.Lock()
	defer q.mu.Unlock()
	return append([]HistoryEntry(nil), q.history...)
}
