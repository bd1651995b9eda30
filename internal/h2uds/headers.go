package h2uds

import (
	"strconv"
	"strings"

	"golang.org/x/net/http2/hpack"
)

// Header is one (name, value) metadata entry. Unlike a map, a slice of
// Header preserves order and permits duplicate names, both of which gRPC
// metadata allows.
type Header struct {
	Name  string
	Value string
}

// Metadata is an ordered sequence of headers.
type Metadata []Header

// requestHeaders builds the fixed ordered header set every call sends:
// pseudo-headers first, then the three fixed gRPC headers, then
// caller-supplied metadata in the order given.
func requestHeaders(path string, md Metadata) Metadata {
	h := Metadata{
		{":method", "POST"},
		{":scheme", "http"},
		{":authority", "-"},
		{":path", path},
		{"content-type", "application/grpc+proto"},
		{"te", "trailers"},
		{"grpc-accept-encoding", "identity"},
	}
	h = append(h, md...)
	return h
}

// encodeHeaders HPACK-encodes h in order using enc, writing into the
// connection's shared encoder buffer. Pseudo-headers (the ":"-prefixed
// entries) are written first regardless of their position in h, since
// HTTP/2 requires them to precede regular fields.
func encodeHeaders(enc *hpack.Encoder, h Metadata) error {
	for _, f := range h {
		if strings.HasPrefix(f.Name, ":") {
			if err := enc.WriteField(hpack.HeaderField{Name: f.Name, Value: f.Value}); err != nil {
				return err
			}
		}
	}
	for _, f := range h {
		if !strings.HasPrefix(f.Name, ":") {
			if err := enc.WriteField(hpack.HeaderField{Name: strings.ToLower(f.Name), Value: f.Value}); err != nil {
				return err
			}
		}
	}
	return nil
}

// decodedHeaders accumulates HPACK-decoded fields for one HEADERS frame,
// preserving duplicates (trailers may repeat grpc-status-details-bin etc.,
// and grpc-message may legitimately be absent or present once).
type decodedHeaders struct {
	fields Metadata
}

func newDecodedHeaders(fields []hpack.HeaderField) decodedHeaders {
	d := decodedHeaders{fields: make(Metadata, len(fields))}
	for i, f := range fields {
		d.fields[i] = Header{Name: f.Name, Value: f.Value}
	}
	return d
}

// get returns the last value associated with name (case-insensitive), since
// a repeated pseudo-header like :status should never occur but ordinary
// trailer fields are taken as their most recent occurrence.
func (d decodedHeaders) get(name string) (string, bool) {
	name = strings.ToLower(name)
	val, found := "", false
	for _, f := range d.fields {
		if strings.ToLower(f.Name) == name {
			val, found = f.Value, true
		}
	}
	return val, found
}

func (d decodedHeaders) status() (int, bool) {
	s, ok := d.get(":status")
	if !ok {
		return 0, false
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, false
	}
	return n, true
}
