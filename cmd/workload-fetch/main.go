// Command workload-fetch is a small demo that exercises all four Workload
// API operations against a real agent socket and logs what comes back. It
// is ambient tooling, not a specified or tested surface.
package main

import (
	"flag"
	"log"
	"time"

	"github.com/larkhollow/spiffeworkload/status"
	"github.com/larkhollow/spiffeworkload/workloadapi"
)

func main() {
	socketPath := flag.String("socket", "/tmp/spire-agent/public/api.sock", "Workload API Unix socket path")
	audience := flag.String("audience", "", "comma-free single audience value for FetchJWTSVID")
	timeout := flag.Duration("timeout", 5*time.Second, "timeout for the unary JWT-SVID call")
	flag.Parse()

	client := workloadapi.New(*socketPath)
	defer client.Close()

	fetchX509SVID(client)
	fetchX509Bundles(client)
	fetchJWTBundles(client)
	fetchJWTSVID(client, *audience, *timeout)
}

// fetchX509SVID logs a single snapshot of the X.509 SVID stream. The agent
// keeps this stream open to push future rotations, so the callback signals
// cancel itself once it has logged one update rather than waiting for the
// stream to end on its own.
func fetchX509SVID(client *workloadapi.Client) {
	cancel := workloadapi.NewCancelToken()

	st := client.FetchX509SVID(func(ctx *workloadapi.X509SVIDContext) status.Status {
		for _, svid := range ctx.SVIDs {
			log.Printf("x509-svid: %s (%d chain cert(s), %d bundle cert(s))", svid.SpiffeID, len(svid.Chain), len(svid.Bundle))
		}
		cancel.Signal()
		return status.OKStatus
	}, cancel)
	if !st.IsOK() && st.Code != status.Canceled {
		log.Printf("FetchX509SVID: %v", st)
	}
}

// fetchX509Bundles logs a single snapshot of the trust bundle stream; see
// fetchX509SVID for why the callback cancels itself after one update.
func fetchX509Bundles(client *workloadapi.Client) {
	cancel := workloadapi.NewCancelToken()

	st := client.FetchX509Bundles(func(ctx *workloadapi.X509BundlesContext) status.Status {
		for trustDomain, certs := range ctx.Bundles {
			log.Printf("x509-bundle: %s (%d certs)", trustDomain, len(certs))
		}
		cancel.Signal()
		return status.OKStatus
	}, cancel)
	if !st.IsOK() && st.Code != status.Canceled {
		log.Printf("FetchX509Bundles: %v", st)
	}
}

// fetchJWTBundles logs a single snapshot of the JWT bundle stream; see
// fetchX509SVID for why the callback cancels itself after one update.
func fetchJWTBundles(client *workloadapi.Client) {
	cancel := workloadapi.NewCancelToken()

	st := client.FetchJWTBundles(func(b *workloadapi.JWTBundles) status.Status {
		for trustDomain, jwks := range b.Bundles {
			log.Printf("jwt-bundle: %s (%d bytes of JWKS)", trustDomain, len(jwks))
		}
		cancel.Signal()
		return status.OKStatus
	}, cancel)
	if !st.IsOK() && st.Code != status.Canceled {
		log.Printf("FetchJWTBundles: %v", st)
	}
}

func fetchJWTSVID(client *workloadapi.Client, audience string, timeout time.Duration) {
	if audience == "" {
		log.Print("skipping FetchJWTSVID: -audience not set")
		return
	}

	var svids []workloadapi.JWTSVID
	st := client.FetchJWTSVID(&svids, []string{audience}, "", timeout)
	if !st.IsOK() {
		log.Printf("FetchJWTSVID: %v", st)
		return
	}
	for _, s := range svids {
		log.Printf("jwt-svid: %s (hint=%q)", s.SpiffeID, s.Hint)
	}
}
