// Package grpcframe implements the gRPC length-prefixed message framing
// used on top of an HTTP/2 DATA stream: one byte of compression flag, four
// bytes of big-endian length, then the payload. Pack, TryPeek and Unpack are
// stateless; Buffer is the growing stream buffer a caller owns, with bytes
// removed from its head as whole frames are consumed, in the style of a
// drain-in-place demultiplexer rather than a copying parser.
package grpcframe

import (
	"encoding/binary"
	"fmt"
)

// prefixLen is the fixed 1-byte-flag + 4-byte-length header every frame
// carries ahead of its payload.
const prefixLen = 5

// Pack wraps payload in a gRPC frame: a zero compression flag (this client
// never compresses) followed by the 4-byte big-endian length and the
// payload itself.
func Pack(payload []byte) ([]byte, error) {
	if uint64(len(payload)) > uint64(^uint32(0)) {
		return nil, fmt.Errorf("grpcframe: payload of %d bytes exceeds maximum frame size", len(payload))
	}

	frame := make([]byte, prefixLen+len(payload))
	frame[0] = 0 // compression flag: always uncompressed
	binary.BigEndian.PutUint32(frame[1:5], uint32(len(payload)))
	copy(frame[5:], payload)
	return frame, nil
}

// TryPeek inspects the head of buf without consuming anything. ready is
// false when fewer than 5 bytes are buffered (the prefix itself isn't
// complete yet). Once the prefix is available, total is 5 plus the
// declared payload length, and ready reports whether buf already holds a
// complete frame of that size.
func TryPeek(buf []byte) (ready bool, total int) {
	if len(buf) < prefixLen {
		return false, 0
	}
	length := binary.BigEndian.Uint32(buf[1:5])
	total = prefixLen + int(length)
	return len(buf) >= total, total
}

// Unpack validates and extracts the payload of one complete frame. frame
// must be exactly one frame's worth of bytes (the size TryPeek reported as
// total). A non-zero compression flag fails unpacking: this client
// advertises grpc-accept-encoding: identity only, so any compressed frame
// is a protocol violation rather than something to silently ignore.
func Unpack(frame []byte) ([]byte, error) {
	if len(frame) < prefixLen {
		return nil, fmt.Errorf("grpcframe: frame shorter than the 5-byte prefix")
	}
	if frame[0] != 0 {
		return nil, fmt.Errorf("grpcframe: non-zero compression flag %d is not supported", frame[0])
	}
	length := binary.BigEndian.Uint32(frame[1:5])
	if len(frame) != prefixLen+int(length) {
		return nil, fmt.Errorf("grpcframe: frame length %d does not match declared payload size %d", len(frame)-prefixLen, length)
	}
	return frame[prefixLen:], nil
}
