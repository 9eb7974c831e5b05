package probe

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
)

// maxBodySize caps how much of a response is read. The master list is a
// few hundred KB.
const maxBodySize = 8 << 20

var (
	errStrategyPanic = errors.New("strategy panicked")
	errNotListed     = errors.New("server not found in master list")
)

type httpStrategies struct {
	client        *http.Client
	masterListURL string
	serverName    string
}

func (h *httpStrategies) infoAPI(ctx context.Context, t Target) (Record, error) {
	u := url.URL{Scheme: "http", Host: t.String(), Path: infoPath}

	body, err := h.get(ctx, u.String())
	if err != nil {
		return Record{}, err
	}

	body = bytes.TrimSpace(body)
	if len(body) == 0 || body[0] != '{' {
		return Record{}, errors.New("decode info response: expected a JSON object")
	}

	var info infoResponse
	if err := json.Unmarshal(body, &info); err != nil {
		return Record{}, fmt.Errorf("decode info response: %w", err)
	}

	fields := serverFields{Name: info.Name, Players: info.Players, MaxPlayers: info.MaxPlayers}
	return fields.record(h.serverName, SourceInfoAPI), nil
}

func (h *httpStrategies) masterList(ctx context.Context, t Target) (Record, error) {
	body, err := h.get(ctx, h.masterListURL)
	if err != nil {
		return Record{}, err
	}

	entries, err := decodeMasterList(body)
	if err != nil {
		return Record{}, err
	}

	e, ok := matchEntry(entries, t)
	if !ok {
		return Record{}, errNotListed
	}

	fields := serverFields{Name: e.Name, Players: e.Players, MaxPlayers: e.MaxPlayers}
	return fields.record(h.serverName, SourceMasterList), nil
}

func (h *httpStrategies) get(ctx context.Context, rawURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := h.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request %s: %w", rawURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("request %s: server responded with %s", rawURL, resp.Status)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	return body, nil
}

/*
decodeMasterList accepts either a JSON array of entries or an object keyed
by "ip:port". For the object form, keys are walked in sorted order and fill
in ip/port when the entry itself omits them. Entries that fail to decode are
skipped so one bad server does not hide the rest of the list.
*/
func decodeMasterList(body []byte) ([]masterEntry, error) {
	body = bytes.TrimSpace(body)
	if len(body) == 0 {
		return nil, errors.New("empty master list")
	}

	var list []masterEntry
	var skipped int

	switch body[0] {
	case '[':
		var raw []json.RawMessage
		if err := json.Unmarshal(body, &raw); err != nil {
			return nil, fmt.Errorf("decode master list: %w", err)
		}

		list = make([]masterEntry, 0, len(raw))
		for i, r := range raw {
			var e masterEntry
			if err := json.Unmarshal(r, &e); err != nil {
				slog.Debug("Skipping malformed master list entry", "index", i, "error", err)
				skipped++
				continue
			}
			list = append(list, e)
		}
	case '{':
		var raw map[string]json.RawMessage
		if err := json.Unmarshal(body, &raw); err != nil {
			return nil, fmt.Errorf("decode master list: %w", err)
		}

		keys := make([]string, 0, len(raw))
		for k := range raw {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		list = make([]masterEntry, 0, len(keys))
		for _, k := range keys {
			var e masterEntry
			if err := json.Unmarshal(raw[k], &e); err != nil {
				slog.Debug("Skipping malformed master list entry", "key", k, "error", err)
				skipped++
				continue
			}
			ip, port, found := strings.Cut(k, ":")
			if e.IP == "" {
				e.IP = ip
			}
			if len(e.Port) == 0 && found {
				e.Port = json.RawMessage(strconv.Quote(port))
			}
			list = append(list, e)
		}
	default:
		return nil, errors.New("decode master list: unexpected JSON type")
	}

	if len(list) == 0 && skipped > 0 {
		return nil, fmt.Errorf("decode master list: all %d entries malformed", skipped)
	}
	return list, nil
}

// matchEntry returns the first entry whose ip contains the target host or
// whose ip:port equals the target exactly.
func matchEntry(entries []masterEntry, t Target) (masterEntry, bool) {
	want := t.String()
	for _, e := range entries {
		if strings.Contains(e.IP, t.Host) || e.IP+":"+e.port() == want {
			return e, true
		}
	}
	return masterEntry{}, false
}
