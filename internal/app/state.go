package app

import "sync"

// Kind is the phase of the most recent operation.
type Kind int

const (
	Idle Kind = iota
	Loading
	Success
	Error
)

func (k Kind) String() string {
	switch k {
	case Idle:
		return "idle"
	case Loading:
		return "loading"
	case Success:
		return "success"
	case Error:
		return "error"
	}
	return "unknown"
}

// State is what the UI renders as the status line. Message is set for
// Success and Error only.
type State struct {
	Kind    Kind
	Message string
}

// stateHub holds the current State and fans changes out to subscribers.
// Each subscriber channel buffers one value; a slow reader only ever sees
// the latest state.
type stateHub struct {
	mu     sync.Mutex
	state  State
	nextID int
	subs   map[int]chan State
}

func newStateHub() *stateHub {
	return &stateHub{subs: make(map[int]chan State)}
}

func (h *stateHub) get() State {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.state
}

func (h *stateHub) set(s State) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.state = s
	for _, ch := range h.subs {
		// Replace any unread value with the newest one.
		select {
		case <-ch:
		default:
		}
		ch <- s
	}
}

func (h *stateHub) subscribe() (<-chan State, func()) {
	h.mu.Lock()
	defer h.mu.Unlock()

	ch := make(chan State, 1)
	id := h.nextID
	h.nextID++
	h.subs[id] = ch

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			h.mu.Lock()
			defer h.mu.Unlock()
			delete(h.subs, id)
			close(ch)
		})
	}
}
