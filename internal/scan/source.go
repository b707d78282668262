package scan

import (
	"context"
	"sync"
)

// ChanSource is a Source fed from outside, for clients that decode frames
// themselves and push the text over a connection. Frames are lossy: when
// the buffer is full new frames are dropped, the way a camera drops them.
type ChanSource struct {
	frames chan string
	errs   chan error
	closed chan struct{}
	once   sync.Once
}

func NewChanSource(buffer int) *ChanSource {
	if buffer <= 0 {
		buffer = 8
	}
	return &ChanSource{
		frames: make(chan string, buffer),
		errs:   make(chan error, 1),
		closed: make(chan struct{}),
	}
}

// Push offers one frame. An empty text is a frame without a code. It
// reports whether the frame was accepted.
func (c *ChanSource) Push(text string) bool {
	select {
	case <-c.closed:
		return false
	default:
	}
	select {
	case c.frames <- text:
		return true
	default:
		return false
	}
}

// Fail ends the stream with err on the next read.
func (c *ChanSource) Fail(err error) {
	select {
	case c.errs <- err:
	default:
	}
}

func (c *ChanSource) Next(ctx context.Context) (string, error) {
	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case <-c.closed:
		return "", ErrStopped
	case err := <-c.errs:
		return "", err
	case text := <-c.frames:
		if text == "" {
			return "", ErrNoCode
		}
		return text, nil
	}
}

func (c *ChanSource) Close() error {
	c.once.Do(func() { close(c.closed) })
	return nil
}

// Opener returns an Opener handing out this source.
func (c *ChanSource) Opener() Opener {
	return func(context.Context) (Source, error) { return c, nil }
}
