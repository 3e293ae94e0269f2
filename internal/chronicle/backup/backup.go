// Package backup implements the one-shot TCP send used to ship a
// single ERROR/FATAL record to a backlog server.
package backup

import (
	"context"
	"fmt"
	"net"

	"github.com/ehsaniara/chronicle/pkg/chronicleerr"
)

// Client sends rendered records to a backlog server over TCP. It holds
// no connection state between calls: each Send dials, writes, and
// closes.
type Client struct {
	dialer net.Dialer
}

// New returns a Client ready to send records.
func New() *Client {
	return &Client{}
}

// Send dials addr, writes record in full, and closes the connection.
// There are no retries: a failed dial or partial write is returned to
// the caller as a chronicleerr network error.
func (c *Client) Send(ctx context.Context, addr string, record []byte) error {
	conn, err := c.dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return chronicleerr.NetworkErr(fmt.Sprintf("dial %s", addr), err)
	}
	defer conn.Close()

	if _, err := conn.Write(record); err != nil {
		return chronicleerr.NetworkErr(fmt.Sprintf("write to %s", addr), err)
	}
	return nil
}
