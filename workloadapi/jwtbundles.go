package workloadapi

import (
	"context"

	"github.com/larkhollow/spiffeworkload/internal/h2uds"
	"github.com/larkhollow/spiffeworkload/status"
	"github.com/spiffe/go-spiffe/v2/proto/spiffe/workload"
	"google.golang.org/protobuf/proto"
)

// FetchJWTBundles streams JWT trust bundle (JWKS) updates, invoking cb once
// per message in server order.
func (c *Client) FetchJWTBundles(cb func(*JWTBundles) status.Status, cancel *CancelToken) status.Status {
	reqBytes, err := proto.Marshal(&workload.JWTBundlesRequest{})
	if err != nil {
		return status.New(status.Internal, "failed to encode request")
	}

	return h2uds.Stream(context.Background(), c.socketPath, "/SpiffeWorkloadAPI/FetchJWTBundles", reqBytes,
		func(payload []byte) status.Status {
			var resp workload.JWTBundlesResponse
			if err := proto.Unmarshal(payload, &resp); err != nil {
				return status.New(status.Internal, "decode gRPC response failed")
			}
			return cb(convertJWTBundles(&resp))
		},
		callMetadata(), cancel)
}

// convertJWTBundles copies the response's trust-domain-to-JWKS mapping.
// Duplicate trust-domain keys within one protobuf message are already
// last-write-wins by the time they reach a Go map, since proto.Unmarshal
// resolves repeated map entries that way.
func convertJWTBundles(resp *workload.JWTBundlesResponse) *JWTBundles {
	bundles := make(map[string][]byte, len(resp.Bundles))
	for trustDomain, jwks := range resp.Bundles {
		bundles[trustDomain] = jwks
	}
	return &JWTBundles{Bundles: bundles}
}
