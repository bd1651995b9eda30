package workloadapi

import (
	"context"

	"github.com/larkhollow/spiffeworkload/der"
	"github.com/larkhollow/spiffeworkload/internal/h2uds"
	"github.com/larkhollow/spiffeworkload/status"
	"github.com/spiffe/go-spiffe/v2/proto/spiffe/workload"
	"google.golang.org/protobuf/proto"
)

// FetchX509SVID streams X.509 SVID updates, invoking cb once per message in
// server order. It returns once the server, cb, or cancel ends the stream.
func (c *Client) FetchX509SVID(cb func(*X509SVIDContext) status.Status, cancel *CancelToken) status.Status {
	reqBytes, err := proto.Marshal(&workload.X509SVIDRequest{})
	if err != nil {
		return status.New(status.Internal, "failed to encode request")
	}

	return h2uds.Stream(context.Background(), c.socketPath, "/SpiffeWorkloadAPI/FetchX509SVID", reqBytes,
		func(payload []byte) status.Status {
			var resp workload.X509SVIDResponse
			if err := proto.Unmarshal(payload, &resp); err != nil {
				return status.New(status.Internal, "decode gRPC response failed")
			}
			return cb(convertX509SVIDContext(&resp))
		},
		callMetadata(), cancel)
}

func convertX509SVIDContext(resp *workload.X509SVIDResponse) *X509SVIDContext {
	svids := make([]X509SVID, len(resp.Svids))
	for i, s := range resp.Svids {
		svids[i] = X509SVID{
			SpiffeID:   s.SpiffeId,
			Chain:      der.Split(s.X509Svid),
			PrivateKey: s.X509SvidKey,
			Bundle:     der.Split(s.Bundle),
			Hint:       s.Hint,
		}
	}

	federated := make(map[string][][]byte, len(resp.FederatedBundles))
	for trustDomain, bundle := range resp.FederatedBundles {
		federated[trustDomain] = der.Split(bundle)
	}

	return &X509SVIDContext{
		SVIDs:            svids,
		CRL:              resp.Crl,
		FederatedBundles: federated,
	}
}
