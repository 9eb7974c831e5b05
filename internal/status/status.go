package status

import (
	"log/slog"
	"sync"

	"github.com/vnxcius/gameserver-status-bot/internal/probe"
)

// Snapshot is a consistent copy of the tracker state taken at the start of
// a cycle.
type Snapshot struct {
	Target    probe.Target
	ChannelID string
	Last      probe.Record
	HasLast   bool
}

// Tracker holds the process-wide state: the monitored target, the status
// channel and the last probe result. It fans record updates out to
// subscribers.
type Tracker struct {
	mu        sync.RWMutex
	target    probe.Target
	channelID string
	last      *probe.Record

	clients     map[chan probe.Record]bool
	updatesChan chan probe.Record
	done        chan struct{}
}

// NewTracker creates and initializes the tracker
func NewTracker(target probe.Target, channelID string) *Tracker {
	t := &Tracker{
		target:      target,
		channelID:   channelID,
		clients:     make(map[chan probe.Record]bool),
		updatesChan: make(chan probe.Record, 1),
		done:        make(chan struct{}),
	}
	go t.runBroadcaster()
	return t
}

// Close stops the broadcaster. Subscribers are closed.
func (t *Tracker) Close() {
	t.mu.Lock()
	defer t.mu.Unlock()

	select {
	case <-t.done:
		return
	default:
	}
	close(t.done)
	for c := range t.clients {
		delete(t.clients, c)
		close(c)
	}
}

func (t *Tracker) Snapshot() Snapshot {
	t.mu.RLock()
	defer t.mu.RUnlock()

	s := Snapshot{Target: t.target, ChannelID: t.channelID}
	if t.last != nil {
		s.Last = *t.last
		s.HasLast = true
	}
	return s
}

func (t *Tracker) Target() probe.Target {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.target
}

func (t *Tracker) SetTarget(target probe.Target) {
	t.mu.Lock()
	old := t.target
	t.target = target
	t.mu.Unlock()

	slog.Info("Server target updated", "old", old.String(), "new", target.String())
}

func (t *Tracker) ChannelID() string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.channelID
}

func (t *Tracker) SetChannelID(id string) {
	t.mu.Lock()
	t.channelID = id
	t.mu.Unlock()

	slog.Info("Status channel updated", "channel", id)
}

// Last returns the cached record, if any probe has completed yet.
func (t *Tracker) Last() (probe.Record, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	if t.last == nil {
		return probe.Record{}, false
	}
	return *t.last, true
}

// SetLast caches rec (last write wins) and notifies subscribers.
func (t *Tracker) SetLast(rec probe.Record) {
	t.mu.Lock()
	t.last = &rec
	t.mu.Unlock()

	// drop the pending update if the broadcaster is behind, subscribers only
	// care about the latest record
	select {
	case t.updatesChan <- rec:
	default:
		select {
		case <-t.updatesChan:
		default:
		}
		select {
		case t.updatesChan <- rec:
		default:
			slog.Warn("Status update dropped")
		}
	}
}

func (t *Tracker) runBroadcaster() {
	for {
		select {
		case rec := <-t.updatesChan:
			t.mu.RLock()
			for c := range t.clients {
				select {
				case c <- rec:
				default:
					slog.Warn("Subscriber buffer full, dropping status update")
				}
			}
			t.mu.RUnlock()
		case <-t.done:
			return
		}
	}
}

// Subscribe registers a buffered channel that receives every new record.
// The cached record, if any, is delivered immediately.
func (t *Tracker) Subscribe() chan probe.Record {
	c := make(chan probe.Record, 4)

	t.mu.Lock()
	defer t.mu.Unlock()

	select {
	case <-t.done:
		close(c)
		return c
	default:
	}

	t.clients[c] = true
	if t.last != nil {
		c <- *t.last
	}
	return c
}

func (t *Tracker) Unsubscribe(c chan probe.Record) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if _, ok := t.clients[c]; ok {
		delete(t.clients, c)
		close(c)
	}
}
