package core

import (
	"fmt"
	"net/url"
	"strings"
)

// ---------------------------------------------------------------------------
// Connection String Parser
// ---------------------------------------------------------------------------
//
// NukeBridge connection strings follow a URI-style format:
//
//	nuke://host[:port]
//
// Examples:
//	nuke://localhost
//	nuke://localhost:8765
//	nuke://render-box.local:9000
//
// The scheme "nuke" is required. When the port is omitted the bridge
// default (8765) is assumed.

// DefaultPort is the port the bridge binds when none is configured.
const DefaultPort = "8765"

// ConnInfo holds parsed connection string components.
type ConnInfo struct {
	// Scheme is the protocol scheme (always "nuke").
	Scheme string

	// Host is the target host name or address.
	Host string

	// Port is the target TCP port as a string.
	Port string
}

// ParseConnString parses a NukeBridge connection string.
//
//	nuke://host[:port]
//
// Returns an error if the scheme is invalid or no host is found.
func ParseConnString(raw string) (*ConnInfo, error) {
	if raw == "" {
		return nil, fmt.Errorf("connection string must not be empty")
	}

	if !strings.HasPrefix(raw, "nuke://") {
		return nil, fmt.Errorf("connection string must start with nuke://, got: %s", raw)
	}

	// Replace scheme with http:// so net/url can parse it
	normalized := strings.Replace(raw, "nuke://", "http://", 1)

	parsed, err := url.Parse(normalized)
	if err != nil {
		return nil, fmt.Errorf("invalid connection string: %w", err)
	}

	host := parsed.Hostname()
	if host == "" {
		return nil, fmt.Errorf("connection string must contain a host")
	}

	port := parsed.Port()
	if port == "" {
		port = DefaultPort
	}

	return &ConnInfo{
		Scheme: "nuke",
		Host:   host,
		Port:   port,
	}, nil
}

// Addr returns the host:port dial target.
func (c *ConnInfo) Addr() string {
	return c.Host + ":" + c.Port
}

// String reconstructs the connection string.
func (c *ConnInfo) String() string {
	return fmt.Sprintf("%s://%s:%s", c.Scheme, c.Host, c.Port)
}
