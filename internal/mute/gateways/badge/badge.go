// Package badge delivers the hidden-item count to the external badge
// surface. Reporting is best-effort: each report opens one short-lived
// connection, and every failure is swallowed after a debug log. A stale
// count is always superseded by the next natural report.
package badge

import (
	"net"
	"strconv"
	"time"

	"github.com/haukened/rr-mute/internal/mute/common/log"
	"github.com/haukened/rr-mute/internal/mute/gateways/msg"
)

const (
	dialTimeout  = 2 * time.Second
	writeTimeout = 2 * time.Second
)

// Client reports counts to the badge surface at a fixed address.
type Client struct {
	addr   string
	logger log.Logger
}

// NewClient creates a badge client for the given host:port.
func NewClient(addr string, logger log.Logger) *Client {
	return &Client{addr: addr, logger: logger}
}

// Report sends one count update. Failures never propagate; the badge
// surface being away is a normal condition.
func (c *Client) Report(count int) {
	conn, err := net.DialTimeout("tcp", c.addr, dialTimeout)
	if err != nil {
		c.logger.Debug(map[string]any{
			"addr":  c.addr,
			"error": err.Error(),
		}, "badge surface unavailable")
		return
	}
	defer conn.Close()

	data, err := msg.Encode(msg.BadgeUpdate{Action: msg.ActionUpdateBadge, Count: count})
	if err != nil {
		c.logger.Debug(map[string]any{
			"error": err.Error(),
		}, "badge update encode failed")
		return
	}

	_ = conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	if _, err := conn.Write(data); err != nil {
		c.logger.Debug(map[string]any{
			"addr":  c.addr,
			"error": err.Error(),
		}, "badge update send failed")
	}
}

// Nop is the reporter used when no badge surface is configured.
type Nop struct{}

// Report discards the count.
func (Nop) Report(int) {}

// Text renders a count the way the badge surface displays it: empty for
// zero, the decimal value through 999, and "999+" above that.
func Text(count int) string {
	switch {
	case count <= 0:
		return ""
	case count <= 999:
		return strconv.Itoa(count)
	default:
		return "999+"
	}
}
