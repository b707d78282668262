package scan

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestChanSourceScan(t *testing.T) {
	src := NewChanSource(4)
	s, err := Start(context.Background(), src.Opener())
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	src.Push("")
	src.Push("rest-1:table-6-qr")

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	res, err := s.Wait(ctx)
	if err != nil {
		t.Fatalf("wait: %v", err)
	}
	if res.Payload.VenueID != "rest-1" || res.Payload.TableCode != "table-6-qr" {
		t.Fatalf("unexpected payload %+v", res.Payload)
	}
	if src.Push("fc-1:x") {
		t.Fatalf("closed source must reject frames")
	}
}

func TestChanSourceFail(t *testing.T) {
	src := NewChanSource(1)
	s, err := Start(context.Background(), src.Opener())
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	src.Fail(ErrPermissionDenied)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if _, err := s.Wait(ctx); !errors.Is(err, ErrPermissionDenied) {
		t.Fatalf("expected permission error, got %v", err)
	}
}

func TestChanSourceDropsWhenFull(t *testing.T) {
	src := NewChanSource(1)
	if !src.Push("") {
		t.Fatalf("first frame must be accepted")
	}
	if src.Push("") {
		t.Fatalf("frame beyond the buffer must be dropped")
	}
	_ = src.Close()
	if _, err := src.Next(context.Background()); err == nil {
		t.Fatalf("expected an error after close")
	}
}
