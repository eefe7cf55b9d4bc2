package plugin

// ExecContext is the scheduler, server and queue that exist while plugins register.
type ExecContext struct {
	Loop   *Loop
	Server *Server
	Queue  *Queue
}

// Setup builds a fresh loop, a server bound to it, and a queue bound to the server.
func Setup() *ExecContext {
	loop := NewLoop()
	server := NewServer(loop)
	return &ExecContext{
		Loop:   loop,
		Server: server,
		Queue:  NewQueue(server),
	}
}

// Close shuts the loop down.
func (xc *ExecContext) Close() {
	xc.Loop.Close()
}
