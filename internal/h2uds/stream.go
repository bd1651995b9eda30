package h2uds

import (
	"context"
	"fmt"

	"github.com/larkhollow/spiffeworkload/grpcframe"
	"github.com/larkhollow/spiffeworkload/status"
	"golang.org/x/net/http2"
)

// frameMsg is one result from the background frame reader: either a decoded
// HTTP/2 frame or the error that ended the read loop.
type frameMsg struct {
	frame http2.Frame
	err   error
}

// readFrames runs Connection.framer.ReadFrame in a loop on its own
// goroutine, publishing each result on the returned channel. It exits either
// when a read fails (the final message carries that error) or when stop is
// closed — the caller closes stop once it stops receiving, so the goroutine
// never blocks forever on a send nobody reads.
func (c *Connection) readFrames(stop <-chan struct{}) <-chan frameMsg {
	ch := make(chan frameMsg, 1)
	go func() {
		for {
			f, err := c.framer.ReadFrame()
			select {
			case ch <- frameMsg{frame: f, err: err}:
			case <-stop:
				return
			}
			if err != nil {
				return
			}
		}
	}()
	return ch
}

// Stream performs a server-streaming call: pack payload, POST it, and drain
// the response body incrementally, invoking cb once per framed message in
// server order. The precedence for the returned status when multiple
// signals occur is: callback error > unpack error > cancellation >
// transport error > HTTP error > trailer status.
func Stream(ctx context.Context, socketPath, path string, payload []byte, cb func([]byte) status.Status, md Metadata, cancel *CancelToken) status.Status {
	conn, err := Dial(ctx, socketPath)
	if err != nil {
		return internalFrom(err, 0)
	}
	defer conn.Close()

	if err := conn.sendRequest(path, payload, md); err != nil {
		return internalFrom(err, 0)
	}

	stop := make(chan struct{})
	defer close(stop)
	frames := conn.readFrames(stop)

	var buf grpcframe.Buffer
	httpStatus := 0
	var trailerStatus status.Status
	haveTrailerStatus := false

	for {
		select {
		case <-cancel.Done():
			return status.New(status.Canceled, "user canceled")

		case msg := <-frames:
			if msg.err != nil {
				return internalFrom(msg.err, 0)
			}

			switch f := msg.frame.(type) {
			case *http2.HeadersFrame:
				if f.StreamID != streamID {
					continue
				}
				h, derr := conn.decodeHeaderBlock(f.HeaderBlockFragment())
				if derr != nil {
					return status.New(status.Internal, "Failed to unpack gRPC message")
				}
				if s, ok := h.status(); ok {
					httpStatus = s
				}
				if s, ok := grpcStatusFrom(h); ok {
					trailerStatus, haveTrailerStatus = s, true
				}
				if f.StreamEnded() {
					return finishStream(httpStatus, trailerStatus, haveTrailerStatus)
				}

			case *http2.DataFrame:
				if f.StreamID != streamID {
					continue
				}
				data := f.Data()
				buf.Write(data)
				if n := len(data); n > 0 {
					conn.framer.WriteWindowUpdate(streamID, uint32(n))
					conn.framer.WriteWindowUpdate(0, uint32(n))
				}
				for {
					payload, ok, uerr := buf.Next()
					if uerr != nil {
						return status.New(status.Internal, "Failed to unpack gRPC message")
					}
					if !ok {
						break
					}
					if result := cb(payload); !result.IsOK() {
						return result
					}
				}
				if f.StreamEnded() {
					return finishStream(httpStatus, trailerStatus, haveTrailerStatus)
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
				return status.New(status.Internal, errGoAway(f).Error())

			case *http2.RSTStreamFrame:
				if f.StreamID == streamID {
					return status.New(status.Internal, fmt.Sprintf("stream reset: %v", f.ErrCode))
				}
			}
		}
	}
}

func finishStream(httpStatus int, trailerStatus status.Status, haveTrailerStatus bool) status.Status {
	if httpStatus != 0 && httpStatus != 200 {
		return status.Newf(status.Internal, "HTTP error: %d", httpStatus)
	}
	if haveTrailerStatus {
		return trailerStatus
	}
	return status.OKStatus
}
