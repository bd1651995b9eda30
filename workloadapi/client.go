package workloadapi

import "github.com/larkhollow/spiffeworkload/internal/h2uds"

const spiffeHeaderName = "workload.spiffe.io"

// callMetadata is the fixed per-call metadata every RPC sends; the server
// rejects calls without it.
func callMetadata() h2uds.Metadata {
	return h2uds.Metadata{{Name: spiffeHeaderName, Value: "true"}}
}

// Client is an opaque handle to a Workload API agent, identified by the
// Unix socket it listens on. It holds no open connection: each call opens
// and tears down its own transport handle.
type Client struct {
	socketPath string
}

// New returns a Client that will dial socketPath on each call. It does not
// itself connect or validate the path.
func New(socketPath string) *Client {
	return &Client{socketPath: socketPath}
}

// Close releases the Client's resources. Since Client holds no open
// connection between calls, this has no observable effect on the agent; it
// exists to satisfy the opaque-handle lifecycle the library presents.
func (c *Client) Close() error {
	return nil
}
