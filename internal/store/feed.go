package store

import "sync"

// Table names a table whose writes are published on the change feed.
type Table string

const (
	TableTasks     Table = "tasks"
	TableSubTasks  Table = "subtasks"
	TableTimeLogs  Table = "time_logs"
	TableAPIConfig Table = "api_config"
	TableSettings  Table = "settings"
)

type subscriber struct {
	tables map[Table]bool
	ch     chan struct{}
}

// changeFeed fans committed writes out to subscribers. Each subscriber channel
// holds at most one pending signal, so a slow reader sees one wakeup per burst.
type changeFeed struct {
	mu     sync.Mutex
	nextID int
	subs   map[int]*subscriber
	closed bool
}

func newChangeFeed() *changeFeed {
	return &changeFeed{subs: make(map[int]*subscriber)}
}

func (f *changeFeed) subscribe(tables []Table) (<-chan struct{}, func()) {
	f.mu.Lock()
	defer f.mu.Unlock()

	ch := make(chan struct{}, 1)
	if f.closed {
		close(ch)
		return ch, func() {}
	}

	sub := &subscriber{tables: make(map[Table]bool, len(tables)), ch: ch}
	for _, t := range tables {
		sub.tables[t] = true
	}
	id := f.nextID
	f.nextID++
	f.subs[id] = sub

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			f.mu.Lock()
			defer f.mu.Unlock()
			if _, ok := f.subs[id]; ok {
				delete(f.subs, id)
				close(ch)
			}
		})
	}
	return ch, cancel
}

func (f *changeFeed) publish(tables ...Table) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, sub := range f.subs {
		for _, t := range tables {
			if !sub.tables[t] {
				continue
			}
			select {
			case sub.ch <- struct{}{}:
			default:
			}
			break
		}
	}
}

func (f *changeFeed) close() {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return
	}
	f.closed = true
	for id, sub := range f.subs {
		close(sub.ch)
		delete(f.subs, id)
	}
}

// Subscribe returns a channel that receives a signal after any committed write
// to one of tables, and a cancel func that releases it. The channel is closed
// on cancel or when the store is closed.
func (s *Store) Subscribe(tables ...Table) (<-chan struct{}, func()) {
	return s.feed.subscribe(tables)
}

func (s *Store) notify(tables ...Table) {
	s.feed.publish(tables...)
}
