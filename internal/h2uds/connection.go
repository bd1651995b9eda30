package h2uds

import (
	"bytes"
	"context"
	"net"
	"time"

	"golang.org/x/net/http2"
	"golang.org/x/net/http2/hpack"
)

// clientPreface is the fixed HTTP/2 connection preface every prior-knowledge
// client must send before anything else.
const clientPreface = "PRI * HTTP/2.0\r\n\r\nSM\r\n\r\n"

const (
	settingsAckTimeout = 5 * time.Second
	dialTimeout        = 10 * time.Second
	headerTableSize    = 4096
)

// Connection is one HTTP/2 connection to the agent's Unix socket, serving
// exactly one in-flight call. The adapter opens a fresh Connection per call
// and discards it afterward rather than pooling or multiplexing streams.
type Connection struct {
	conn   net.Conn
	framer *http2.Framer

	encBuf *bytes.Buffer
	enc    *hpack.Encoder
	dec    *hpack.Decoder
}

// Dial opens a Connection to the agent listening on socketPath, performing
// the prior-knowledge h2c handshake: send the client preface directly (no
// HTTP/1.1 Upgrade), then exchange an initial SETTINGS frame with the
// server and wait for its ACK before the connection is usable.
func Dial(ctx context.Context, socketPath string) (*Connection, error) {
	var d net.Dialer
	dialCtx, cancel := context.WithTimeout(ctx, dialTimeout)
	defer cancel()

	raw, err := d.DialContext(dialCtx, "unix", socketPath)
	if err != nil {
		return nil, newDialError(err)
	}

	if _, err := raw.Write([]byte(clientPreface)); err != nil {
		raw.Close()
		return nil, newHandshakeError("send preface", err)
	}

	c := &Connection{
		conn:   raw,
		framer: http2.NewFramer(raw, raw),
		encBuf: &bytes.Buffer{},
	}
	c.enc = hpack.NewEncoder(c.encBuf)
	c.enc.SetMaxDynamicTableSize(headerTableSize)
	c.dec = hpack.NewDecoder(headerTableSize, nil)

	if err := c.handshakeSettings(ctx); err != nil {
		raw.Close()
		return nil, err
	}

	return c, nil
}

// handshakeSettings sends the client's initial (empty) SETTINGS frame and
// waits for the server's ACK, ACKing any server SETTINGS frame it sees
// along the way, exactly as a minimal HTTP/2 client must. The wait ends at
// settingsAckTimeout or at ctx's deadline, whichever comes first.
func (c *Connection) handshakeSettings(ctx context.Context) error {
	if err := c.framer.WriteSettings(); err != nil {
		return newHandshakeError("write settings", err)
	}

	deadline := time.Now().Add(settingsAckTimeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	c.conn.SetReadDeadline(deadline)
	defer c.conn.SetReadDeadline(time.Time{})

	for {
		frame, err := c.framer.ReadFrame()
		if err != nil {
			return newHandshakeError("read settings ack", err)
		}

		switch f := frame.(type) {
		case *http2.SettingsFrame:
			if f.IsAck() {
				return nil
			}
			if err := c.framer.WriteSettingsAck(); err != nil {
				return newHandshakeError("ack server settings", err)
			}
		case *http2.WindowUpdateFrame:
			// Ignore; no data has been sent yet for window accounting to matter.
		case *http2.PingFrame:
			if err := c.framer.WritePing(true, f.Data); err != nil {
				return newHandshakeError("ack ping", err)
			}
		case *http2.GoAwayFrame:
			return newHandshakeError("handshake", errGoAway(f))
		default:
			return newHandshakeError("handshake", errUnexpectedFrame(frame))
		}
	}
}

// Close releases the underlying socket. Calling it more than once is safe.
func (c *Connection) Close() error {
	return c.conn.Close()
}
