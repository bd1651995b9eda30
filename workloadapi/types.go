// Package workloadapi is a client for the SPIFFE Workload API: it fetches
// X.509-SVIDs, X.509 trust bundles, and JWT material from a local SPIRE
// agent (or compatible server) over a Unix domain socket, using gRPC over
// cleartext HTTP/2 prior-knowledge.
package workloadapi

import "github.com/larkhollow/spiffeworkload/internal/h2uds"

// CancelToken is a set-once, multi-reader cancellation signal shared between
// a caller and one or more in-flight streaming calls.
type CancelToken = h2uds.CancelToken

// NewCancelToken returns a token that has not yet been signalled.
func NewCancelToken() *CancelToken {
	return h2uds.NewCancelToken()
}

// X509SVID is one X.509 SPIFFE Verifiable Identity Document.
type X509SVID struct {
	SpiffeID string
	// Chain is the certificate chain, leaf first, then intermediates. Each
	// entry is one DER-encoded certificate.
	Chain [][]byte
	// PrivateKey is the PKCS#8 DER-encoded private key, passed through
	// verbatim.
	PrivateKey []byte
	// Bundle is the issuing trust domain's CA set, as DER certificates.
	Bundle [][]byte
	Hint   string
}

// X509SVIDContext is one streamed FetchX509SVID message.
type X509SVIDContext struct {
	// SVIDs is the ordered sequence of identities; the first is the default.
	SVIDs []X509SVID
	// CRL is the certificate revocation list, one DER-encoded CRL per entry.
	CRL [][]byte
	// FederatedBundles maps trust-domain name to its CA certificate set.
	FederatedBundles map[string][][]byte
}

// X509BundlesContext is one streamed FetchX509Bundles message.
type X509BundlesContext struct {
	CRL     [][]byte
	Bundles map[string][][]byte
}

// JWTSVID is one JWT SPIFFE Verifiable Identity Document.
type JWTSVID struct {
	SpiffeID string
	// SVID is the compact-serialized JWT.
	SVID string
	Hint string
}

// JWTBundles maps trust-domain name to its JWKS document bytes.
type JWTBundles struct {
	Bundles map[string][]byte
}
