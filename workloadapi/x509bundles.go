package workloadapi

import (
	"context"

	"github.com/larkhollow/spiffeworkload/der"
	"github.com/larkhollow/spiffeworkload/internal/h2uds"
	"github.com/larkhollow/spiffeworkload/status"
	"github.com/spiffe/go-spiffe/v2/proto/spiffe/workload"
	"google.golang.org/protobuf/proto"
)

// FetchX509Bundles streams X.509 trust bundle updates, invoking cb once per
// message in server order.
func (c *Client) FetchX509Bundles(cb func(*X509BundlesContext) status.Status, cancel *CancelToken) status.Status {
	reqBytes, err := proto.Marshal(&workload.X509BundlesRequest{})
	if err != nil {
		return status.New(status.Internal, "failed to encode request")
	}

	return h2uds.Stream(context.Background(), c.socketPath, "/SpiffeWorkloadAPI/FetchX509Bundles", reqBytes,
		func(payload []byte) status.Status {
			var resp workload.X509BundlesResponse
			if err := proto.Unmarshal(payload, &resp); err != nil {
				return status.New(status.Internal, "decode gRPC response failed")
			}
			return cb(convertX509BundlesContext(&resp))
		},
		callMetadata(), cancel)
}

func convertX509BundlesContext(resp *workload.X509BundlesResponse) *X509BundlesContext {
	bundles := make(map[string][][]byte, len(resp.Bundles))
	for trustDomain, bundle := range resp.Bundles {
		bundles[trustDomain] = der.Split(bundle)
	}
	return &X509BundlesContext{
		CRL:     resp.Crl,
		Bundles: bundles,
	}
}
