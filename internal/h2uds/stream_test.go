package h2uds

import (
	"context"
	"fmt"
	"net/http"
	"testing"

	"github.com/larkhollow/spiffeworkload/grpcframe"
	"github.com/larkhollow/spiffeworkload/status"
)

func TestStreamDeliversFramesInOrder(t *testing.T) {
	socketPath := startScriptedAgent(t, func(w http.ResponseWriter, r *http.Request) {
		fl := w.(http.Flusher)
		for i := 0; i < 3; i++ {
			frame, _ := grpcframe.Pack([]byte(fmt.Sprintf("msg%d", i)))
			w.Write(frame)
			fl.Flush()
		}
	})

	var got []string
	cancel := NewCancelToken()
	st := Stream(context.Background(), socketPath, "/Test/Stream", []byte("req"), func(p []byte) status.Status {
		got = append(got, string(p))
		return status.OKStatus
	}, nil, cancel)

	if !st.IsOK() {
		t.Fatalf("status = %v, want OK", st)
	}
	want := []string{"msg0", "msg1", "msg2"}
	if len(got) != len(want) {
		t.Fatalf("got %d messages, want %d: %v", len(got), len(want), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("message %d = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestStreamCallbackAbort(t *testing.T) {
	socketPath := startScriptedAgent(t, func(w http.ResponseWriter, r *http.Request) {
		fl := w.(http.Flusher)
		for i := 0; i < 3; i++ {
			frame, _ := grpcframe.Pack([]byte(fmt.Sprintf("msg%d", i)))
			w.Write(frame)
			fl.Flush()
		}
	})

	calls := 0
	cancel := NewCancelToken()
	st := Stream(context.Background(), socketPath, "/Test/Stream", []byte("req"), func(p []byte) status.Status {
		calls++
		return status.New(status.Canceled, "m")
	}, nil, cancel)

	if st.Code != status.Canceled || st.Message != "m" {
		t.Fatalf("status = %v, want {CANCELLED, m}", st)
	}
	if calls != 1 {
		t.Fatalf("calls = %d, want 1", calls)
	}
}

func TestStreamCancellation(t *testing.T) {
	release := make(chan struct{})
	defer close(release)

	socketPath := startScriptedAgent(t, func(w http.ResponseWriter, r *http.Request) {
		fl := w.(http.Flusher)
		frame, _ := grpcframe.Pack([]byte("first"))
		w.Write(frame)
		fl.Flush()
		<-release
	})

	calls := 0
	cancel := NewCancelToken()
	st := Stream(context.Background(), socketPath, "/Test/Stream", []byte("req"), func(p []byte) status.Status {
		calls++
		cancel.Signal()
		return status.OKStatus
	}, nil, cancel)

	if st.Code != status.Canceled {
		t.Fatalf("status = %v, want CANCELLED", st)
	}
	if calls != 1 {
		t.Fatalf("calls = %d, want 1", calls)
	}
}

func TestStreamTrailerStatus(t *testing.T) {
	socketPath := startScriptedAgent(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Trailer", "Grpc-Status, Grpc-Message")
		w.WriteHeader(http.StatusOK)
		w.Header().Set("Grpc-Status", "7")
		w.Header().Set("Grpc-Message", "denied%20by%20policy")
	})

	cancel := NewCancelToken()
	st := Stream(context.Background(), socketPath, "/Test/Stream", []byte("req"), func(p []byte) status.Status {
		t.Fatalf("callback should not be invoked when no messages are sent")
		return status.OKStatus
	}, nil, cancel)

	if st.Code != status.PermissionDenied || st.Message != "denied by policy" {
		t.Fatalf("status = %v, want {PermissionDenied, denied by policy}", st)
	}
}
