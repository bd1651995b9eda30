package h2uds

import (
	"net"
	"net/http"
	"path/filepath"
	"testing"

	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"
)

// startScriptedAgent serves handler over a Unix socket using prior-knowledge
// cleartext HTTP/2, the same transport discipline the real agent uses. It
// returns the socket path; the server is torn down when the test ends.
func startScriptedAgent(t *testing.T, handler http.HandlerFunc) string {
	t.Helper()

	socketPath := filepath.Join(t.TempDir(), "agent.sock")
	ln, err := net.Listen("unix", socketPath)
	if err != nil {
		t.Fatalf("listen on %s: %v", socketPath, err)
	}

	srv := &http.Server{Handler: h2c.NewHandler(handler, &http2.Server{})}
	go srv.Serve(ln)
	t.Cleanup(func() { srv.Close() })

	return socketPath
}
