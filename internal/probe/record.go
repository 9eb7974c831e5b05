package probe

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"time"
)

// Source names the strategy a Record came from.
type Source string

const (
	SourceInfoAPI    Source = "info_api"
	SourceMasterList Source = "master_list"
	SourceTCP        Source = "tcp"
	SourceNone       Source = "none"
)

// DefaultMaxPlayers is used when a server does not report its slot count.
const DefaultMaxPlayers = 100

// Record is a single probe result. Records are replaced, never edited.
type Record struct {
	// Target is the address that was probed.
	Target     string    `json:"target"`
	Online     bool      `json:"online"`
	ServerName string    `json:"server_name"`
	Players    int       `json:"players"`
	MaxPlayers int       `json:"max_players"`
	Source     Source    `json:"source"`
	CheckedAt  time.Time `json:"checked_at"`
}

// Offline builds the record returned when every strategy failed.
func Offline(name string) Record {
	return Record{
		Online:     false,
		ServerName: name,
		Source:     SourceNone,
	}
}

// looseInt accepts both JSON numbers and numeric strings, servers in the
// wild report either.
type looseInt int

func (n *looseInt) UnmarshalJSON(b []byte) error {
	b = bytes.Trim(b, `"`)
	if len(b) == 0 || string(b) == "null" {
		*n = 0
		return nil
	}

	f, err := strconv.ParseFloat(string(b), 64)
	if err != nil {
		return err
	}
	if math.IsNaN(f) || math.IsInf(f, 0) || math.Abs(f) > math.MaxInt32 {
		return fmt.Errorf("count %q out of range", b)
	}
	*n = looseInt(f)
	return nil
}

// serverFields is the subset shared by the info endpoint and master list
// entries. Pointers distinguish "missing" from zero.
type serverFields struct {
	Name       *string
	Players    *looseInt
	MaxPlayers *looseInt
}

func (f serverFields) record(fallbackName string, src Source) Record {
	r := Record{
		Online:     true,
		ServerName: fallbackName,
		MaxPlayers: DefaultMaxPlayers,
		Source:     src,
	}
	if f.Name != nil && *f.Name != "" {
		r.ServerName = *f.Name
	}
	if f.Players != nil && *f.Players > 0 {
		r.Players = int(*f.Players)
	}
	if f.MaxPlayers != nil {
		r.MaxPlayers = int(*f.MaxPlayers)
	}
	return r
}

type infoResponse struct {
	Name       *string   `json:"name"`
	Players    *looseInt `json:"players"`
	MaxPlayers *looseInt `json:"maxPlayers"`
}

type masterEntry struct {
	Name       *string         `json:"name"`
	IP         string          `json:"ip"`
	Port       json.RawMessage `json:"port"`
	Players    *looseInt       `json:"players"`
	MaxPlayers *looseInt       `json:"maxplayers"`
}

func (e masterEntry) port() string {
	return string(bytes.Trim(e.Port, `"`))
}
