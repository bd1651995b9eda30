package workloadapi

import (
	"context"
	"time"

	"github.com/larkhollow/spiffeworkload/internal/h2uds"
	"github.com/larkhollow/spiffeworkload/status"
	"github.com/spiffe/go-spiffe/v2/proto/spiffe/workload"
	"google.golang.org/protobuf/proto"
)

// FetchJWTSVID fetches a JWT-SVID for audience (and optionally a specific
// spiffeID), appending the server's SVIDs to *out in server order. The
// server's first entry is the default identity; order is preserved but
// otherwise not distinguished.
func (c *Client) FetchJWTSVID(out *[]JWTSVID, audience []string, spiffeID string, timeout time.Duration) status.Status {
	reqBytes, err := proto.Marshal(&workload.JWTSVIDRequest{
		Audience: audience,
		SpiffeId: spiffeID,
	})
	if err != nil {
		return status.New(status.Internal, "failed to encode request")
	}

	payload, st := h2uds.Unary(context.Background(), c.socketPath, "/SpiffeWorkloadAPI/FetchJWTSVID", reqBytes, callMetadata(), timeout)
	if !st.IsOK() {
		return st
	}

	var resp workload.JWTSVIDResponse
	if err := proto.Unmarshal(payload, &resp); err != nil {
		return status.New(status.Internal, "decode gRPC response failed")
	}

	for _, s := range resp.Svids {
		*out = append(*out, JWTSVID{SpiffeID: s.SpiffeId, SVID: s.Svid, Hint: s.Hint})
	}
	return status.OKStatus
}
