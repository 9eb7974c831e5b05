package probe

import (
	"context"
	"log/slog"
	"net"
	"net/http"
	"time"
)

const (
	DefaultHTTPTimeout   = 10 * time.Second
	DefaultDialTimeout   = 5 * time.Second
	DefaultMasterListURL = "https://cdn.rage.mp/master/"
	DefaultServerName    = "GTA Grand DE 1"

	infoPath = "/api/info"
)

// StrategyFunc is one self-contained way of finding out a server's status.
type StrategyFunc func(ctx context.Context, t Target) (Record, error)

// Strategy pairs a StrategyFunc with its own deadline.
type Strategy struct {
	Name    Source
	Timeout time.Duration
	Run     StrategyFunc
}

type Options struct {
	Client        *http.Client
	MasterListURL string
	ServerName    string
	HTTPTimeout   time.Duration
	DialTimeout   time.Duration
}

// Prober runs its strategies in order and returns the first success.
type Prober struct {
	serverName string
	strategies []Strategy
	now        func() time.Time
}

func New(opts Options) *Prober {
	if opts.Client == nil {
		opts.Client = &http.Client{}
	}
	if opts.MasterListURL == "" {
		opts.MasterListURL = DefaultMasterListURL
	}
	if opts.ServerName == "" {
		opts.ServerName = DefaultServerName
	}
	if opts.HTTPTimeout <= 0 {
		opts.HTTPTimeout = DefaultHTTPTimeout
	}
	if opts.DialTimeout <= 0 {
		opts.DialTimeout = DefaultDialTimeout
	}

	h := &httpStrategies{
		client:        opts.Client,
		masterListURL: opts.MasterListURL,
		serverName:    opts.ServerName,
	}
	d := &dialStrategy{serverName: opts.ServerName}

	return NewWithStrategies(opts.ServerName,
		Strategy{Name: SourceInfoAPI, Timeout: opts.HTTPTimeout, Run: h.infoAPI},
		Strategy{Name: SourceMasterList, Timeout: opts.HTTPTimeout, Run: h.masterList},
		Strategy{Name: SourceTCP, Timeout: opts.DialTimeout, Run: d.dial},
	)
}

// NewWithStrategies builds a Prober around an explicit strategy list.
func NewWithStrategies(serverName string, strategies ...Strategy) *Prober {
	if serverName == "" {
		serverName = DefaultServerName
	}
	return &Prober{
		serverName: serverName,
		strategies: strategies,
		now:        time.Now,
	}
}

// ServerName returns the fallback label used when a server reports none.
func (p *Prober) ServerName() string {
	return p.serverName
}

/*
Probe queries the target with every strategy in order until one succeeds.
It never fails: when all strategies are exhausted an offline record is
returned.
*/
func (p *Prober) Probe(ctx context.Context, t Target) Record {
	for _, s := range p.strategies {
		if ctx.Err() != nil {
			break
		}

		rec, err := p.run(ctx, s, t)
		if err != nil {
			slog.Warn("Probe strategy failed",
				"strategy", s.Name,
				"target", t.String(),
				"error", err,
			)
			continue
		}

		rec.Target = t.String()
		rec.CheckedAt = p.now().UTC()
		slog.Debug("Probe strategy succeeded", "strategy", s.Name, "target", t.String())
		return rec
	}

	slog.Info("All probe strategies failed, server considered offline", "target", t.String())
	rec := Offline(p.serverName)
	rec.Target = t.String()
	rec.CheckedAt = p.now().UTC()
	return rec
}

func (p *Prober) run(ctx context.Context, s Strategy, t Target) (rec Record, err error) {
	if s.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.Timeout)
		defer cancel()
	}

	defer func() {
		if r := recover(); r != nil {
			slog.Error("Probe strategy panicked", "strategy", s.Name, "panic", r)
			err = errStrategyPanic
		}
	}()

	return s.Run(ctx, t)
}

type dialStrategy struct {
	serverName string
	dialer     net.Dialer
}

// dial only proves the port accepts connections, player counts are unknown.
func (d *dialStrategy) dial(ctx context.Context, t Target) (Record, error) {
	conn, err := d.dialer.DialContext(ctx, "tcp", t.String())
	if err != nil {
		return Record{}, err
	}
	_ = conn.Close()

	return Record{
		Online:     true,
		ServerName: d.serverName,
		Players:    0,
		MaxPlayers: DefaultMaxPlayers,
		Source:     SourceTCP,
	}, nil
}
