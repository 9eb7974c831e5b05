package probe

import (
	"errors"
	"fmt"
	"net"
	"strconv"
	"strings"
)

// DefaultPort is the RAGE:MP default game port.
const DefaultPort = 22005

var ErrInvalidTarget = errors.New("invalid server address")

// Target is the host:port of the monitored game server.
type Target struct {
	Host string
	Port int
}

/*
ParseTarget parses a "host:port" string. The port is optional and defaults
to DefaultPort. Bracketed IPv6 literals are accepted.
*/
func ParseTarget(addr string) (Target, error) {
	addr = strings.TrimSpace(addr)
	if addr == "" {
		return Target{}, fmt.Errorf("%w: empty address", ErrInvalidTarget)
	}

	host, portStr, err := net.SplitHostPort(addr)
	if err != nil {
		// no port given
		host = strings.Trim(addr, "[]")
		portStr = strconv.Itoa(DefaultPort)
	}

	if host == "" {
		return Target{}, fmt.Errorf("%w: missing host in %q", ErrInvalidTarget, addr)
	}

	port, err := strconv.Atoi(portStr)
	if err != nil || port < 1 || port > 65535 {
		return Target{}, fmt.Errorf("%w: bad port %q", ErrInvalidTarget, portStr)
	}

	return Target{Host: host, Port: port}, nil
}

func (t Target) String() string {
	return net.JoinHostPort(t.Host, strconv.Itoa(t.Port))
}
