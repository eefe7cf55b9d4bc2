package plugin

import "sync"

// Events sent by the queue.
const (
	EventQueued   = "queued"
	EventExecuted = "executed"
)

// Subscriber receives server events on the loop goroutine.
type Subscriber func(event string, data any)

// Server is the server context plugins bind to. Sends are delivered through the loop.
type Server struct {
	loop *Loop

	mu          sync.RWMutex
	subscribers []Subscriber
}

// NewServer binds a server to loop.
func NewServer(loop *Loop) *Server {
	return &Server{loop: loop}
}

// Loop returns the loop the server is bound to.
func (s *Server) Loop() *Loop {
	return s.loop
}

// Subscribe registers fn for every subsequent event.
func (s *Server) Subscribe(fn Subscriber) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.subscribers = append(s.subscribers, fn)
}

// Send posts delivery of event to all current subscribers.
func (s *Server) Send(event string, data any) error {
	s.mu.RLock()
	subs := append([]Subscriber(nil), s.subscribers...)
	s.mu.RUnlock()

	return s.loop.Post(func() {
		for _, fn := range subs {
			fn(event, data)
		}
	})
}
