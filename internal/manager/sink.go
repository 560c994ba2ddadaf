package manager

import "sync"

// Sink accepts bridge messages. Once registered with SetEventCallback the
// instance owns it: the manager calls Release exactly once, when the sink is
// replaced or the instance is destroyed, and never calls TrySend afterwards.
type Sink interface {
	// TrySend must not block. It returns false if the message was rejected.
	// It may call back into the Manager (State, Info, Status, Destroy) but
	// not SetEventCallback or ClearEventCallback for its own instance.
	TrySend(Message) bool
	Release()
}

// ChannelSink delivers messages on a buffered channel and drops them when
// the buffer is full. Release closes the channel.
type ChannelSink struct {
	mu     sync.Mutex
	ch     chan Message
	closed bool
}

// NewChannelSink returns a sink with the given buffer size (minimum 1).
func NewChannelSink(buffer int) *ChannelSink {
	if buffer < 1 {
		buffer = 1
	}
	return &ChannelSink{ch: make(chan Message, buffer)}
}

// C returns the receive side. It is closed after Release.
func (s *ChannelSink) C() <-chan Message { return s.ch }

func (s *ChannelSink) TrySend(msg Message) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return false
	}
	select {
	case s.ch <- msg:
		return true
	default:
		return false
	}
}

func (s *ChannelSink) Release() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	close(s.ch)
}

// Released reports whether Release has been called.
func (s *ChannelSink) Released() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// SinkFunc adapts a non-blocking function to Sink. Release is a no-op.
type SinkFunc func(Message) bool

func (f SinkFunc) TrySend(msg Message) bool { return f(msg) }
func (f SinkFunc) Release()                 {}
