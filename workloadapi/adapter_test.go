package workloadapi

import (
	"net/http"
	"testing"
	"time"

	"github.com/larkhollow/spiffeworkload/grpcframe"
	"github.com/larkhollow/spiffeworkload/status"
	"github.com/spiffe/go-spiffe/v2/proto/spiffe/workload"
	"google.golang.org/protobuf/proto"
)

var (
	leafCert = []byte{0x30, 0x02, 0x01, 0x02}
	caCert   = []byte{0x30, 0x02, 0x03, 0x04}
)

func writeProtoFrame(t *testing.T, w http.ResponseWriter, msg proto.Message) {
	t.Helper()
	payload, err := proto.Marshal(msg)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	frame, err := grpcframe.Pack(payload)
	if err != nil {
		t.Fatalf("pack: %v", err)
	}
	w.Header().Set("Grpc-Status", "0")
	w.Write(frame)
}

func TestFetchX509SVIDStreaming(t *testing.T) {
	socketPath := startScriptedAgent(t, func(w http.ResponseWriter, r *http.Request) {
		writeProtoFrame(t, w, &workload.X509SVIDResponse{
			Svids: []*workload.X509SVID{
				{
					SpiffeId:    "spiffe://example.org/workload",
					X509Svid:    leafCert,
					X509SvidKey: []byte("fake-pkcs8-key"),
					Bundle:      caCert,
					Hint:        "default",
				},
			},
			FederatedBundles: map[string][]byte{
				"spiffe://other.org": caCert,
			},
		})
	})

	client := New(socketPath)
	defer client.Close()

	var got *X509SVIDContext
	cancel := NewCancelToken()
	st := client.FetchX509SVID(func(ctx *X509SVIDContext) status.Status {
		got = ctx
		return status.OKStatus
	}, cancel)

	if !st.IsOK() {
		t.Fatalf("status = %v, want OK", st)
	}
	if got == nil || len(got.SVIDs) != 1 {
		t.Fatalf("got %+v, want exactly one SVID", got)
	}
	svid := got.SVIDs[0]
	if svid.SpiffeID != "spiffe://example.org/workload" {
		t.Errorf("spiffe id = %q", svid.SpiffeID)
	}
	if len(svid.Chain) != 1 {
		t.Errorf("chain = %v, want 1 certificate", svid.Chain)
	}
	if len(svid.Bundle) != 1 {
		t.Errorf("bundle = %v, want 1 certificate", svid.Bundle)
	}
	if len(got.FederatedBundles["spiffe://other.org"]) != 1 {
		t.Errorf("federated bundle not split correctly: %v", got.FederatedBundles)
	}
}

func TestFetchJWTSVIDUnary(t *testing.T) {
	socketPath := startScriptedAgent(t, func(w http.ResponseWriter, r *http.Request) {
		writeProtoFrame(t, w, &workload.JWTSVIDResponse{
			Svids: []*workload.JWTSVID{
				{SpiffeId: "spiffe://example.org/workload", Svid: "header.payload.sig", Hint: "default"},
			},
		})
	})

	client := New(socketPath)
	defer client.Close()

	var out []JWTSVID
	st := client.FetchJWTSVID(&out, []string{"my-audience"}, "", 2*time.Second)
	if !st.IsOK() {
		t.Fatalf("status = %v, want OK", st)
	}
	if len(out) != 1 || out[0].SVID != "header.payload.sig" {
		t.Fatalf("got %+v", out)
	}
}

func TestPerCallMetadataHeader(t *testing.T) {
	seen := make(chan string, 1)
	socketPath := startScriptedAgent(t, func(w http.ResponseWriter, r *http.Request) {
		seen <- r.Header.Get("Workload.Spiffe.Io")
		writeProtoFrame(t, w, &workload.X509BundlesResponse{})
	})

	client := New(socketPath)
	defer client.Close()

	cancel := NewCancelToken()
	st := client.FetchX509Bundles(func(ctx *X509BundlesContext) status.Status {
		return status.OKStatus
	}, cancel)
	if !st.IsOK() {
		t.Fatalf("status = %v, want OK", st)
	}
	if got := <-seen; got != "true" {
		t.Fatalf("workload.spiffe.io header = %q, want true", got)
	}
}
