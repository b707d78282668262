// Package scan turns a stream of camera frames into a resolved venue and
// table. A Session owns its frame source and releases it exactly once, on
// whichever path the scan ends.
package scan

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"qrdine-order-service/internal/qr"
)

var (
	// ErrNoCode marks a frame in which no QR code was found. Sources return
	// it for every empty frame; the session keeps reading.
	ErrNoCode = errors.New("no qr code in frame")
	// ErrPermissionDenied is returned by an Opener when camera access is
	// refused.
	ErrPermissionDenied = errors.New("camera permission denied")
	ErrStopped          = errors.New("scan stopped")
)

// Source yields decoded frame text. Next blocks until a frame is available
// or ctx is done.
type Source interface {
	Next(ctx context.Context) (string, error)
	Close() error
}

// Opener acquires a frame source, typically a camera stream.
type Opener func(ctx context.Context) (Source, error)

type Result struct {
	Raw     string     `json:"raw"`
	Payload qr.Payload `json:"payload"`
}

type Session struct {
	src    Source
	cancel context.CancelFunc
	done   chan struct{}

	closeOnce sync.Once
	closeErr  error

	result Result
	err    error
}

// Start opens the source and reads frames in the background until the
// first code is decoded, the source fails, ctx ends or Stop is called.
// When the opener fails nothing is left running.
func Start(ctx context.Context, open Opener) (*Session, error) {
	src, err := open(ctx)
	if err != nil {
		return nil, err
	}
	runCtx, cancel := context.WithCancel(ctx)
	s := &Session{
		src:    src,
		cancel: cancel,
		done:   make(chan struct{}),
	}
	go s.run(runCtx)
	return s, nil
}

func (s *Session) run(ctx context.Context) {
	defer close(s.done)
	defer s.release()

	for {
		text, err := s.src.Next(ctx)
		if ctxErr := ctx.Err(); ctxErr != nil {
			s.err = ErrStopped
			if !errors.Is(ctxErr, context.Canceled) {
				s.err = ctxErr
			}
			return
		}
		if errors.Is(err, ErrNoCode) {
			continue
		}
		if err != nil {
			s.err = fmt.Errorf("read frame: %w", err)
			return
		}

		s.result.Raw = text
		payload, err := qr.Parse(text)
		if err != nil {
			s.err = err
			return
		}
		s.result.Payload = payload
		return
	}
}

func (s *Session) release() {
	s.closeOnce.Do(func() {
		s.closeErr = s.src.Close()
	})
}

// Done is closed once the scan has finished and the source is released.
func (s *Session) Done() <-chan struct{} {
	return s.done
}

// Wait blocks until the scan finishes or ctx ends. A ctx ending first does
// not stop the scan.
func (s *Session) Wait(ctx context.Context) (Result, error) {
	select {
	case <-s.done:
		return s.result, s.err
	case <-ctx.Done():
		return Result{}, ctx.Err()
	}
}

// Stop ends the scan and waits until the source is released. It is safe to
// call more than once and after the scan has finished on its own.
func (s *Session) Stop() error {
	s.cancel()
	<-s.done
	return s.closeErr
}
