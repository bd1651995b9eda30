// Package der splits a buffer of concatenated DER-encoded X.509 certificates
// into individual certificate byte-runs, without a full ASN.1 parser. The
// Workload API delivers certificate chains and trust bundles as a single
// opaque bytes field; this is the minimum parsing needed to hand callers
// independently verifiable certificates.
package der

const (
	sequenceTag = 0x30

	// maxLengthOctets bounds the long-form length encoding this reader
	// accepts: 1, 2, or 3 big-endian length bytes. Declaring 0 (indefinite
	// length, invalid in DER) or more than 3 (values above 16MiB) is
	// rejected.
	maxLengthOctets = 3
)

// tlv is the result of reading one identifier+length+value header.
type tlv struct {
	valid    bool
	tag      byte
	value    []byte
	consumed int
}

// readTLV reads one DER TLV starting at offset 0 of buf, per X.690 DER
// encoding rules.
func readTLV(buf []byte) tlv {
	if len(buf) < 2 {
		return tlv{}
	}

	tag := buf[0]
	firstLen := buf[1]
	rest := buf[2:]

	if firstLen&0x80 == 0 {
		// Short form: value length is the low 7 bits directly.
		valueLen := int(firstLen)
		if len(rest) < valueLen {
			return tlv{}
		}
		return tlv{
			valid:    true,
			tag:      tag,
			value:    rest[:valueLen],
			consumed: 2 + valueLen,
		}
	}

	// Long form: low 7 bits give the count of big-endian length octets.
	lenLen := int(firstLen & 0x7f)
	if lenLen == 0 || lenLen > maxLengthOctets || len(rest) < lenLen {
		return tlv{}
	}

	var valueLen int
	for _, b := range rest[:lenLen] {
		valueLen = valueLen<<8 | int(b)
	}
	rest = rest[lenLen:]

	if len(rest) < valueLen {
		return tlv{}
	}

	return tlv{
		valid:    true,
		tag:      tag,
		value:    rest[:valueLen],
		consumed: 2 + lenLen + valueLen,
	}
}

// splitOne reads the leading TLV of buf and returns its full byte run
// (identifier + length + value) only if the tag is a SEQUENCE (0x30).
func splitOne(buf []byte) (cert []byte, consumed int, ok bool) {
	t := readTLV(buf)
	if !t.valid || t.tag != sequenceTag {
		return nil, 0, false
	}
	return buf[:t.consumed], t.consumed, true
}

// Split splits buf, the concatenation of zero or more DER-encoded X.509
// certificates, into the ordered sequence of individual certificate
// byte-runs. Each returned slice aliases buf and reproduces exactly the
// bytes of one top-level SEQUENCE TLV.
//
// Iteration stops at the first tag that isn't 0x30 or the first TLV that
// fails to parse; certificates produced before that point are still
// returned. An empty or all-garbage input yields a nil slice without error —
// the containing RPC still succeeds, per the Workload API adapter contract.
func Split(buf []byte) [][]byte {
	var certs [][]byte
	for len(buf) > 0 {
		cert, n, ok := splitOne(buf)
		if !ok {
			break
		}
		certs = append(certs, cert)
		buf = buf[n:]
	}
	return certs
}
