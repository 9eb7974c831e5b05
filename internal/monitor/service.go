package monitor

import (
	"context"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/vnxcius/gameserver-status-bot/internal/presenter"
	"github.com/vnxcius/gameserver-status-bot/internal/probe"
	"github.com/vnxcius/gameserver-status-bot/internal/status"
)

// Prober is implemented by *probe.Prober.
type Prober interface {
	Probe(ctx context.Context, t probe.Target) probe.Record
}

// Service is the probe -> cache -> render pipeline shared by the scheduled
// loop and the manual status command.
type Service struct {
	prober  Prober
	tracker *status.Tracker
	now     func() time.Time
}

func NewService(p Prober, tracker *status.Tracker) *Service {
	return &Service{
		prober:  p,
		tracker: tracker,
		now:     time.Now,
	}
}

func (s *Service) Tracker() *status.Tracker {
	return s.tracker
}

// Check probes target, caches the result and renders it.
func (s *Service) Check(ctx context.Context, target probe.Target) (probe.Record, *discordgo.MessageEmbed) {
	rec := s.prober.Probe(ctx, target)
	rec.Target = target.String()
	s.tracker.SetLast(rec)
	return rec, presenter.Render(rec, target, s.now())
}
