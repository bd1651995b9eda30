package h2uds

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/larkhollow/spiffeworkload/grpcframe"
	"github.com/larkhollow/spiffeworkload/status"
	"golang.org/x/net/http2"
)

// streamID is fixed: a Connection serves exactly one call, so there is never
// a second stream to distinguish it from.
const streamID = 1

// sendRequest writes the single HEADERS+DATA frame pair every call sends:
// no client-side (request) streaming is supported.
func (c *Connection) sendRequest(path string, payload []byte, md Metadata) error {
	c.encBuf.Reset()
	if err := encodeHeaders(c.enc, requestHeaders(path, md)); err != nil {
		return newProtocolError("encode headers", err)
	}
	encoded := append([]byte(nil), c.encBuf.Bytes()...)

	if err := c.framer.WriteHeaders(http2.HeadersFrameParam{
		StreamID:      streamID,
		BlockFragment: encoded,
		EndStream:     false,
		EndHeaders:    true,
	}); err != nil {
		return newIOError("write headers", err)
	}

	framed, err := grpcframe.Pack(payload)
	if err != nil {
		return newProtocolError("pack request", err)
	}
	if err := c.framer.WriteData(streamID, true, framed); err != nil {
		return newIOError("write data", err)
	}
	return nil
}

func (c *Connection) decodeHeaderBlock(block []byte) (decodedHeaders, error) {
	fields, err := c.dec.DecodeFull(block)
	if err != nil {
		return decodedHeaders{}, err
	}
	return newDecodedHeaders(fields), nil
}

// grpcStatusFrom reads grpc-status/grpc-message from h. ok is false when no
// grpc-status field is present at all.
func grpcStatusFrom(h decodedHeaders) (s status.Status, ok bool) {
	raw, present := h.get("grpc-status")
	if !present {
		return status.Status{}, false
	}
	code, err := strconv.Atoi(raw)
	if err != nil {
		return status.New(status.Internal, "malformed grpc-status header"), true
	}
	if code == 0 {
		return status.OKStatus, true
	}
	msg, _ := h.get("grpc-message")
	if decoded, err := url.QueryUnescape(msg); err == nil {
		msg = decoded
	}
	return status.New(status.Code(code), msg), true
}

// Unary performs a single-request, single-response call: pack payload, POST
// it, read the whole response body, and unpack exactly one framed message.
// timeout bounds the whole call; expiry surfaces as INTERNAL carrying the
// transport's own timeout message, not as DEADLINE_EXCEEDED.
func Unary(ctx context.Context, socketPath, path string, payload []byte, md Metadata, timeout time.Duration) ([]byte, status.Status) {
	callCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	conn, err := Dial(callCtx, socketPath)
	if err != nil {
		return nil, internalFrom(err, timeout)
	}
	defer conn.Close()

	if err := conn.sendRequest(path, payload, md); err != nil {
		return nil, internalFrom(err, timeout)
	}

	deadline, hasDeadline := callCtx.Deadline()
	if hasDeadline {
		conn.conn.SetReadDeadline(deadline)
	}

	var body []byte
	var httpStatus int
	var trailerStatus status.Status
	haveTrailerStatus := false

	for {
		frame, err := conn.framer.ReadFrame()
		if err != nil {
			return nil, internalFrom(err, timeout)
		}

		switch f := frame.(type) {
		case *http2.HeadersFrame:
			if f.StreamID != streamID {
				continue
			}
			h, derr := conn.decodeHeaderBlock(f.HeaderBlockFragment())
			if derr != nil {
				return nil, status.New(status.Internal, "Failed to unpack gRPC message")
			}
			if s, ok := h.status(); ok {
				httpStatus = s
			}
			if s, ok := grpcStatusFrom(h); ok {
				trailerStatus, haveTrailerStatus = s, true
			}
			if f.StreamEnded() {
				return finishUnary(body, httpStatus, trailerStatus, haveTrailerStatus)
			}

		case *http2.DataFrame:
			if f.StreamID != streamID {
				continue
			}
			data := f.Data()
			body = append(body, data...)
			if n := len(data); n > 0 {
				conn.framer.WriteWindowUpdate(streamID, uint32(n))
				conn.framer.WriteWindowUpdate(0, uint32(n))
			}
			if f.StreamEnded() {
				return finishUnary(body, httpStatus, trailerStatus, haveTrailerStatus)
			}

		case *http2.SettingsFrame:
			if !f.IsAck() {
				conn.framer.WriteSettingsAck()
			}

		case *http2.PingFrame:
			if !f.IsAck() {
				conn.framer.WritePing(true, f.Data)
			}

		case *http2.GoAwayFrame:
			return nil, status.New(status.Internal, errGoAway(f).Error())

		case *http2.RSTStreamFrame:
			if f.StreamID == streamID {
				return nil, status.New(status.Internal, fmt.Sprintf("stream reset: %v", f.ErrCode))
			}
		}
	}
}

func finishUnary(body []byte, httpStatus int, trailerStatus status.Status, haveTrailerStatus bool) ([]byte, status.Status) {
	if httpStatus != 0 && httpStatus != 200 {
		return nil, status.Newf(status.Internal, "HTTP error: %d", httpStatus)
	}
	if haveTrailerStatus && !trailerStatus.IsOK() {
		return nil, trailerStatus
	}

	payload, err := grpcframe.Unpack(body)
	if err != nil {
		return nil, status.New(status.Internal, "Failed to unpack gRPC message")
	}
	return payload, status.OKStatus
}

// internalFrom collapses any transport-level error — dial failure, write
// failure, a deadline exceeded during read — into an INTERNAL status: a
// timed-out unary call returns INTERNAL with the transport's own timeout
// message, never DEADLINE_EXCEEDED, matching this client's documented
// timeout behavior.
func internalFrom(err error, timeout time.Duration) status.Status {
	if te, ok := err.(*transportError); ok {
		return status.New(status.Internal, te.Error())
	}
	if ne, ok := err.(interface{ Timeout() bool }); ok && ne.Timeout() {
		return status.New(status.Internal, newTimeoutError("unary call", timeout).Error())
	}
	if err == context.DeadlineExceeded {
		return status.New(status.Internal, newTimeoutError("unary call", timeout).Error())
	}
	return status.New(status.Internal, newIOError("unary call", err).Error())
}
