package monitor

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/google/uuid"
)

const DefaultInterval = 60 * time.Second

// Publisher is implemented by *publisher.Publisher.
type Publisher interface {
	Publish(channelID string, embed *discordgo.MessageEmbed) error
}

// Loop periodically checks the tracked server and upserts the status
// message.
type Loop struct {
	service   *Service
	publisher Publisher
	interval  time.Duration

	mu      sync.Mutex
	running bool
	cancel  context.CancelFunc
	doneCh  chan struct{}
}

func NewLoop(service *Service, pub Publisher, interval time.Duration) *Loop {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Loop{
		service:   service,
		publisher: pub,
		interval:  interval,
	}
}

func (l *Loop) Interval() time.Duration {
	return l.interval
}

/*
Start launches the loop in a goroutine: one cycle right away, then one per
interval. Calling Start while the loop is running does nothing and returns
false.
*/
func (l *Loop) Start() bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.running {
		slog.Debug("Status loop already running")
		return false
	}

	ctx, cancel := context.WithCancel(context.Background())
	l.running = true
	l.cancel = cancel
	l.doneCh = make(chan struct{})

	go l.run(ctx, l.doneCh)
	slog.Info("Status loop started", "interval", l.interval.String())
	return true
}

// Stop requests loop termination and waits for the in-flight cycle.
func (l *Loop) Stop() {
	l.mu.Lock()
	if !l.running {
		l.mu.Unlock()
		return
	}
	cancel, done := l.cancel, l.doneCh
	l.running = false
	l.mu.Unlock()

	cancel()
	<-done
	slog.Info("Status loop stopped")
}

func (l *Loop) Running() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.running
}

func (l *Loop) run(ctx context.Context, done chan struct{}) {
	defer close(done)

	l.RunOnce(ctx)

	ticker := time.NewTicker(l.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			l.RunOnce(ctx)
		case <-ctx.Done():
			return
		}
	}
}

// RunOnce executes a single probe -> render -> publish cycle.
func (l *Loop) RunOnce(ctx context.Context) {
	log := slog.With("cycle", uuid.NewString())

	snap := l.service.Tracker().Snapshot()
	rec, embed := l.service.Check(ctx, snap.Target)
	log.Info("Server status checked",
		"target", snap.Target.String(),
		"online", rec.Online,
		"players", rec.Players,
		"max_players", rec.MaxPlayers,
		"source", rec.Source,
	)

	if ctx.Err() != nil {
		return
	}

	if snap.ChannelID == "" {
		log.Warn("No status channel configured, skipping publish")
		return
	}

	if err := l.publisher.Publish(snap.ChannelID, embed); err != nil {
		log.Error("Failed to publish server status", "channel", snap.ChannelID, "error", err)
	}
}
