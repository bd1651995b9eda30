package grpcframe

// Buffer is an append-only byte accumulator that the framer drains from the
// head as whole messages become available. It holds at most one frame's
// worth of in-flight bytes plus whatever has arrived but not yet formed a
// complete frame.
type Buffer struct {
	data []byte
}

// Write appends p to the buffer.
func (b *Buffer) Write(p []byte) {
	b.data = append(b.data, p...)
}

// Next returns the payload of the next complete frame at the head of the
// buffer and advances past it, or ok=false if no complete frame is
// buffered yet.
func (b *Buffer) Next() (payload []byte, ok bool, err error) {
	ready, total := TryPeek(b.data)
	if !ready {
		return nil, false, nil
	}
	payload, err = Unpack(b.data[:total])
	if err != nil {
		return nil, false, err
	}
	// Copy the payload out before advancing, since Unpack's result aliases
	// b.data; the returned slice shares no memory with the buffer.
	out := make([]byte, len(payload))
	copy(out, payload)
	b.data = b.data[total:]
	return out, true, nil
}

// Len reports the number of buffered, not-yet-consumed bytes.
func (b *Buffer) Len() int {
	return len(b.data)
}
