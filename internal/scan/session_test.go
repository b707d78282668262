package scan

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"qrdine-order-service/internal/catalog"
	"qrdine-order-service/internal/qr"
)

// fakeSource replays frames, then blocks until ctx is done.
type fakeSource struct {
	frames []string
	errs   []error
	pos    int
	closed atomic.Int32
}

func (f *fakeSource) Next(ctx context.Context) (string, error) {
	if f.pos < len(f.frames) {
		i := f.pos
		f.pos++
		return f.frames[i], f.errs[i]
	}
	<-ctx.Done()
	return "", ctx.Err()
}

func (f *fakeSource) Close() error {
	f.closed.Add(1)
	return nil
}

func opener(src *fakeSource) Opener {
	return func(context.Context) (Source, error) { return src, nil }
}

func TestSessionDecodesFirstCode(t *testing.T) {
	src := &fakeSource{
		frames: []string{"", "", "rest-1:table-3-qr", "fc-1:table-1-qr"},
		errs:   []error{ErrNoCode, ErrNoCode, nil, nil},
	}
	s, err := Start(context.Background(), opener(src))
	if err != nil {
		t.Fatalf("start: %v", err)
	}

	res, err := s.Wait(context.Background())
	if err != nil {
		t.Fatalf("wait: %v", err)
	}
	want := qr.Payload{VenueID: "rest-1", TableCode: "table-3-qr"}
	if res.Payload != want {
		t.Fatalf("expected %+v, got %+v", want, res.Payload)
	}
	if src.pos != 3 {
		t.Fatalf("scan must stop at the first code, read %d frames", src.pos)
	}

	s.Stop()
	s.Stop()
	if n := src.closed.Load(); n != 1 {
		t.Fatalf("source must be closed exactly once, got %d", n)
	}
}

func TestSessionReleasesSourceOnEveryPath(t *testing.T) {
	cases := []struct {
		name    string
		frames  []string
		errs    []error
		stop    func(s *Session, cancel context.CancelFunc)
		wantErr error
	}{
		{
			name:    "malformed payload",
			frames:  []string{"not-a-valid-code"},
			errs:    []error{nil},
			wantErr: qr.ErrMalformedPayload,
		},
		{
			name:    "device error",
			frames:  []string{""},
			errs:    []error{errors.New("stream ended")},
			wantErr: nil,
		},
		{
			name:    "explicit stop",
			stop:    func(s *Session, _ context.CancelFunc) { s.Stop() },
			wantErr: ErrStopped,
		},
		{
			name:    "context cancelled",
			stop:    func(_ *Session, cancel context.CancelFunc) { cancel() },
			wantErr: ErrStopped,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			src := &fakeSource{frames: tc.frames, errs: tc.errs}
			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()

			s, err := Start(ctx, opener(src))
			if err != nil {
				t.Fatalf("start: %v", err)
			}
			if tc.stop != nil {
				tc.stop(s, cancel)
			}

			select {
			case <-s.Done():
			case <-time.After(2 * time.Second):
				t.Fatalf("scan did not finish")
			}
			_, err = s.Wait(context.Background())
			if err == nil {
				t.Fatalf("expected an error")
			}
			if tc.wantErr != nil && !errors.Is(err, tc.wantErr) {
				t.Fatalf("expected %v, got %v", tc.wantErr, err)
			}
			s.Stop()
			if n := src.closed.Load(); n != 1 {
				t.Fatalf("source must be closed exactly once, got %d", n)
			}
		})
	}
}

func TestStartPermissionDenied(t *testing.T) {
	s, err := Start(context.Background(), func(context.Context) (Source, error) {
		return nil, ErrPermissionDenied
	})
	if !errors.Is(err, ErrPermissionDenied) || s != nil {
		t.Fatalf("expected permission error, got %v", err)
	}
}

func TestResolve(t *testing.T) {
	venues, err := catalog.LoadSeed()
	if err != nil {
		t.Fatalf("load seed: %v", err)
	}
	venues[0].Tables[0].IsLocked = true
	p := catalog.NewMemoryProvider(venues, 0)
	ctx := context.Background()

	cases := []struct {
		name      string
		payload   qr.Payload
		wantTable string
		matched   bool
		wantErr   error
	}{
		{name: "exact table", payload: qr.Payload{VenueID: "rest-1", TableCode: "table-3-qr"}, wantTable: "table-3", matched: true},
		{name: "no table skips locked", payload: qr.Payload{VenueID: "rest-1"}, wantTable: "table-2"},
		{name: "unknown table falls back", payload: qr.Payload{VenueID: "rest-1", TableCode: "table-99-qr"}, wantTable: "table-2"},
		{name: "unknown venue", payload: qr.Payload{VenueID: "nope"}, wantErr: catalog.ErrVenueNotFound},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			res, err := Resolve(ctx, p, tc.payload)
			if tc.wantErr != nil {
				if !errors.Is(err, tc.wantErr) {
					t.Fatalf("expected %v, got %v", tc.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("resolve: %v", err)
			}
			if res.Table.ID != tc.wantTable || res.TableMatched != tc.matched {
				t.Fatalf("unexpected resolution table=%s matched=%v", res.Table.ID, res.TableMatched)
			}
		})
	}
}

func TestResolveSkipsLockedSharedTable(t *testing.T) {
	venue := catalog.Venue{
		ID:        "rest-1",
		Name:      "Test Kitchen",
		VenueType: catalog.VenueRestaurant,
		Tables: []catalog.Table{
			{ID: "t1", Number: 1, QRCode: "t1-qr", Type: catalog.TableShared, IsAvailable: true, IsLocked: true},
			{ID: "t2", Number: 2, QRCode: "t2-qr", Type: catalog.TablePrivate, IsAvailable: true},
		},
	}
	p := catalog.NewMemoryProvider([]catalog.Venue{venue}, 0)

	for _, payload := range []qr.Payload{{VenueID: "rest-1"}, {VenueID: "rest-1", TableCode: "missing-qr"}} {
		res, err := Resolve(context.Background(), p, payload)
		if err != nil {
			t.Fatalf("resolve %+v: %v", payload, err)
		}
		if res.Table.ID != "t2" || res.TableMatched {
			t.Fatalf("expected fallback to unlocked t2, got %s (matched=%v)", res.Table.ID, res.TableMatched)
		}
	}

	res, err := Resolve(context.Background(), p, qr.Payload{VenueID: "rest-1", TableCode: "t1-qr"})
	if err != nil || res.Table.ID != "t1" || !res.TableMatched {
		t.Fatalf("an explicit code must still seat at the shared table, got %+v (%v)", res.Table, err)
	}
}
