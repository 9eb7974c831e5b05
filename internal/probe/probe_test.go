package probe

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func targetOf(t *testing.T, srv *httptest.Server) Target {
	t.Helper()
	tgt, err := ParseTarget(strings.TrimPrefix(srv.URL, "http://"))
	require.NoError(t, err)
	return tgt
}

// closedAddr returns an address nothing is listening on.
func closedAddr(t *testing.T) Target {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := ln.Addr().String()
	require.NoError(t, ln.Close())

	tgt, err := ParseTarget(addr)
	require.NoError(t, err)
	return tgt
}

func failingMasterList(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestParseTarget(t *testing.T) {
	tests := []struct {
		in      string
		want    Target
		wantErr bool
	}{
		{in: "1.2.3.4:22005", want: Target{Host: "1.2.3.4", Port: 22005}},
		{in: "1.2.3.4", want: Target{Host: "1.2.3.4", Port: DefaultPort}},
		{in: " play.example.org:30120 ", want: Target{Host: "play.example.org", Port: 30120}},
		{in: "[::1]:7777", want: Target{Host: "::1", Port: 7777}},
		{in: "", wantErr: true},
		{in: "host:abc", wantErr: true},
		{in: "host:0", wantErr: true},
		{in: "host:70000", wantErr: true},
		{in: ":22005", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseTarget(tt.in)
			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, ErrInvalidTarget)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestTargetString(t *testing.T) {
	assert.Equal(t, "1.2.3.4:22005", Target{Host: "1.2.3.4", Port: 22005}.String())
	assert.Equal(t, "[::1]:7777", Target{Host: "::1", Port: 7777}.String())
}

func TestProbe_InfoAPI(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/info", r.URL.Path)
		fmt.Fprint(w, `{"name":"X","players":5,"maxPlayers":32}`)
	}))
	defer srv.Close()

	p := New(Options{MasterListURL: failingMasterList(t).URL})
	rec := p.Probe(context.Background(), targetOf(t, srv))

	assert.True(t, rec.Online)
	assert.Equal(t, "X", rec.ServerName)
	assert.Equal(t, 5, rec.Players)
	assert.Equal(t, 32, rec.MaxPlayers)
	assert.Equal(t, SourceInfoAPI, rec.Source)
	assert.False(t, rec.CheckedAt.IsZero())
}

func TestProbe_InfoAPIDefaults(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{}`)
	}))
	defer srv.Close()

	p := New(Options{ServerName: "Fallback", MasterListURL: failingMasterList(t).URL})
	rec := p.Probe(context.Background(), targetOf(t, srv))

	assert.True(t, rec.Online)
	assert.Equal(t, "Fallback", rec.ServerName)
	assert.Equal(t, 0, rec.Players)
	assert.Equal(t, DefaultMaxPlayers, rec.MaxPlayers)
}

func TestProbe_InfoAPINumericStrings(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"name":"S","players":"12","maxPlayers":"64"}`)
	}))
	defer srv.Close()

	rec := New(Options{MasterListURL: failingMasterList(t).URL}).Probe(context.Background(), targetOf(t, srv))
	assert.Equal(t, 12, rec.Players)
	assert.Equal(t, 64, rec.MaxPlayers)
}

func TestProbe_FallsBackToMasterList(t *testing.T) {
	game := httptest.NewServer(http.NotFoundHandler())
	defer game.Close()
	tgt := targetOf(t, game)

	master := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, `[
			{"ip":"10.0.0.1","port":22005,"name":"Other","players":1,"maxplayers":10},
			{"ip":%q,"port":%d,"name":"Listed","players":7,"maxplayers":50}
		]`, tgt.Host, tgt.Port)
	}))
	defer master.Close()

	rec := New(Options{MasterListURL: master.URL}).Probe(context.Background(), tgt)
	assert.True(t, rec.Online)
	assert.Equal(t, "Listed", rec.ServerName)
	assert.Equal(t, 7, rec.Players)
	assert.Equal(t, 50, rec.MaxPlayers)
	assert.Equal(t, SourceMasterList, rec.Source)
}

func TestProbe_MasterListSkipsMalformedEntries(t *testing.T) {
	tgt := closedAddr(t)

	master := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, `[
			{"ip":"10.0.0.1","port":22005,"name":"Other","players":"n/a","maxplayers":10},
			"garbage",
			{"ip":%q,"port":%d,"name":"Listed","players":7,"maxplayers":50}
		]`, tgt.Host, tgt.Port)
	}))
	defer master.Close()

	p := New(Options{MasterListURL: master.URL, HTTPTimeout: time.Second, DialTimeout: time.Second})
	rec := p.Probe(context.Background(), tgt)

	assert.True(t, rec.Online)
	assert.Equal(t, SourceMasterList, rec.Source)
	assert.Equal(t, "Listed", rec.ServerName)
	assert.Equal(t, 7, rec.Players)
}

func TestProbe_InfoAPIRejectsNonObject(t *testing.T) {
	for _, body := range []string{`null`, `[]`, `"up"`, `42`, ``} {
		t.Run(body, func(t *testing.T) {
			game := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				fmt.Fprint(w, body)
			}))
			defer game.Close()

			rec := New(Options{MasterListURL: failingMasterList(t).URL}).Probe(context.Background(), targetOf(t, game))
			assert.True(t, rec.Online)
			assert.Equal(t, SourceTCP, rec.Source)
		})
	}
}

func TestProbe_RecordCarriesTarget(t *testing.T) {
	tgt := closedAddr(t)
	p := New(Options{MasterListURL: failingMasterList(t).URL, HTTPTimeout: time.Second, DialTimeout: time.Second})

	rec := p.Probe(context.Background(), tgt)
	assert.Equal(t, tgt.String(), rec.Target)
}

func TestProbe_FallsBackToTCP(t *testing.T) {
	game := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `not json`)
	}))
	defer game.Close()

	rec := New(Options{MasterListURL: failingMasterList(t).URL}).Probe(context.Background(), targetOf(t, game))
	assert.True(t, rec.Online)
	assert.Equal(t, DefaultServerName, rec.ServerName)
	assert.Equal(t, 0, rec.Players)
	assert.Equal(t, DefaultMaxPlayers, rec.MaxPlayers)
	assert.Equal(t, SourceTCP, rec.Source)
}

func TestProbe_Unreachable(t *testing.T) {
	p := New(Options{
		MasterListURL: failingMasterList(t).URL,
		HTTPTimeout:   time.Second,
		DialTimeout:   time.Second,
	})
	rec := p.Probe(context.Background(), closedAddr(t))

	assert.False(t, rec.Online)
	assert.Equal(t, DefaultServerName, rec.ServerName)
	assert.Equal(t, 0, rec.Players)
	assert.Equal(t, 0, rec.MaxPlayers)
	assert.Equal(t, SourceNone, rec.Source)
}

func TestProbe_ShortCircuits(t *testing.T) {
	var calls []Source
	mk := func(name Source, err error) Strategy {
		return Strategy{Name: name, Timeout: time.Second, Run: func(ctx context.Context, tgt Target) (Record, error) {
			calls = append(calls, name)
			if err != nil {
				return Record{}, err
			}
			return Record{Online: true, ServerName: string(name), MaxPlayers: 10, Source: name}, nil
		}}
	}

	p := NewWithStrategies("",
		mk(SourceInfoAPI, nil),
		mk(SourceMasterList, nil),
		mk(SourceTCP, nil),
	)
	rec := p.Probe(context.Background(), Target{Host: "h", Port: 1})
	assert.Equal(t, []Source{SourceInfoAPI}, calls)
	assert.Equal(t, SourceInfoAPI, rec.Source)

	calls = nil
	p = NewWithStrategies("",
		mk(SourceInfoAPI, errors.New("boom")),
		mk(SourceMasterList, nil),
		mk(SourceTCP, nil),
	)
	rec = p.Probe(context.Background(), Target{Host: "h", Port: 1})
	assert.Equal(t, []Source{SourceInfoAPI, SourceMasterList}, calls)
	assert.Equal(t, SourceMasterList, rec.Source)
}

func TestProbe_StrategyTimeoutFallsThrough(t *testing.T) {
	slow := Strategy{Name: SourceInfoAPI, Timeout: 20 * time.Millisecond, Run: func(ctx context.Context, tgt Target) (Record, error) {
		<-ctx.Done()
		return Record{}, ctx.Err()
	}}
	fast := Strategy{Name: SourceTCP, Timeout: time.Second, Run: func(ctx context.Context, tgt Target) (Record, error) {
		return Record{Online: true, Source: SourceTCP}, nil
	}}

	rec := NewWithStrategies("", slow, fast).Probe(context.Background(), Target{Host: "h", Port: 1})
	assert.Equal(t, SourceTCP, rec.Source)
}

func TestProbe_PanickingStrategyIsAbsorbed(t *testing.T) {
	bad := Strategy{Name: SourceInfoAPI, Run: func(ctx context.Context, tgt Target) (Record, error) {
		panic("unexpected")
	}}

	rec := NewWithStrategies("Label", bad).Probe(context.Background(), Target{Host: "h", Port: 1})
	assert.False(t, rec.Online)
	assert.Equal(t, "Label", rec.ServerName)
}

func TestProbe_OfflineInvariant(t *testing.T) {
	fail := Strategy{Name: SourceTCP, Run: func(ctx context.Context, tgt Target) (Record, error) {
		return Record{Online: true, Players: 3, MaxPlayers: 10}, errors.New("nope")
	}}

	rec := NewWithStrategies("", fail).Probe(context.Background(), Target{Host: "h", Port: 1})
	assert.False(t, rec.Online)
	assert.Zero(t, rec.Players)
	assert.Zero(t, rec.MaxPlayers)
}
