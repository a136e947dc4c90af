package pap

import (
	"io"
	"os"
	"time"
)

// Callbacks provides hooks for transfer events.
// All callbacks are optional - nil callbacks use default behavior.
type Callbacks struct {
	// OnFileStart is called once the peer has accepted a transfer.
	// size is 0 for downloads, whose length is not known in advance.
	OnFileStart func(filename string, size int64)

	// OnProgress is called periodically during a file body copy.
	// transferred: bytes transferred so far
	// total: total bytes to transfer (0 if unknown)
	// rate: transfer rate in bytes per second
	OnProgress func(filename string, transferred, total int64, rate float64)

	// OnFileComplete is called when a file body has been fully copied.
	OnFileComplete func(filename string, bytesTransferred int64, duration time.Duration)

	// OnEvent is called for protocol events (debugging/logging).
	OnEvent func(event Event)

	// OnFileCreate is called to create the local download destination.
	// If nil, the file is created with os.Create.
	OnFileCreate func(path string) (io.WriteCloser, error)
}

// Event represents a protocol event for logging/debugging.
type Event struct {
	Type      EventType
	Message   string
	State     State
	Timestamp time.Time
}

// EventType categorizes protocol events.
type EventType int

const (
	EventStateChanged EventType = iota
	EventFrameSent
	EventFrameReceived
	EventStatusReceived
	EventError
)

func (t EventType) String() string {
	switch t {
	case EventStateChanged:
		return "state"
	case EventFrameSent:
		return "frame-sent"
	case EventFrameReceived:
		return "frame-received"
	case EventStatusReceived:
		return "status"
	case EventError:
		return "error"
	default:
		return "unknown"
	}
}

// defaultCallbacks returns a set of callbacks with default implementations.
func defaultCallbacks() *Callbacks {
	return &Callbacks{
		OnFileStart:    func(string, int64) {},
		OnProgress:     func(string, int64, int64, float64) {},
		OnFileComplete: func(string, int64, time.Duration) {},
		OnEvent:        func(Event) {},
		OnFileCreate: func(path string) (io.WriteCloser, error) {
			return os.Create(path)
		},
	}
}

// mergeCallbacks merges user callbacks with defaults.
// User callbacks override defaults, nil callbacks use defaults.
func mergeCallbacks(user *Callbacks) *Callbacks {
	def := defaultCallbacks()
	if user == nil {
		return def
	}

	if user.OnFileStart != nil {
		def.OnFileStart = user.OnFileStart
	}
	if user.OnProgress != nil {
		def.OnProgress = user.OnProgress
	}
	if user.OnFileComplete != nil {
		def.OnFileComplete = user.OnFileComplete
	}
	if user.OnEvent != nil {
		def.OnEvent = user.OnEvent
	}
	if user.OnFileCreate != nil {
		def.OnFileCreate = user.OnFileCreate
	}
	return def
}
