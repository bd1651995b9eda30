package h2uds

import (
	"fmt"

	"golang.org/x/net/http2"
)

func errGoAway(f *http2.GoAwayFrame) error {
	return fmt.Errorf("server sent GOAWAY: last stream %d, error %v", f.LastStreamID, f.ErrCode)
}

func errUnexpectedFrame(f http2.Frame) error {
	return fmt.Errorf("unexpected frame type %T", f)
}
