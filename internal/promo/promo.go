// Package promo serves the promotional banner and rotates it on a timer.
package promo

import (
	"context"
	_ "embed"
	"fmt"
	"sync"
	"time"

	"gopkg.in/yaml.v3"
)

const DefaultInterval = 5 * time.Second

//go:embed promotions.yaml
var seedPromotions []byte

type Promotion struct {
	ID                 string    `json:"id" yaml:"id"`
	Title              string    `json:"title" yaml:"title"`
	Description        string    `json:"description" yaml:"description"`
	Image              string    `json:"image" yaml:"image"`
	ValidUntil         time.Time `json:"validUntil" yaml:"validUntil"`
	DiscountPercentage *float64  `json:"discountPercentage,omitempty" yaml:"discountPercentage"`
	DiscountAmount     *float64  `json:"discountAmount,omitempty" yaml:"discountAmount"`
	Code               string    `json:"code,omitempty" yaml:"code"`
}

func LoadSeed() ([]Promotion, error) {
	return Parse(seedPromotions)
}

func Parse(data []byte) ([]Promotion, error) {
	var file struct {
		Promotions []Promotion `yaml:"promotions"`
	}
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse promotions: %w", err)
	}
	return file.Promotions, nil
}

// Active drops promotions that expired before now.
func Active(promos []Promotion, now time.Time) []Promotion {
	out := make([]Promotion, 0, len(promos))
	for _, p := range promos {
		if p.ValidUntil.IsZero() || now.Before(p.ValidUntil) {
			out = append(out, p)
		}
	}
	return out
}

// Slide is what a banner viewer shows.
type Slide struct {
	Index     int       `json:"index"`
	Total     int       `json:"total"`
	Paused    bool      `json:"paused"`
	Promotion Promotion `json:"promotion"`
}

// Rotator cycles through promotions. Each viewer gets its own rotator.
type Rotator struct {
	promos   []Promotion
	interval time.Duration

	mu     sync.Mutex
	index  int
	paused bool
	reset  chan struct{}
}

func NewRotator(promos []Promotion, interval time.Duration) *Rotator {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Rotator{
		promos:   append([]Promotion(nil), promos...),
		interval: interval,
		reset:    make(chan struct{}, 1),
	}
}

func (r *Rotator) slide() Slide {
	s := Slide{Index: r.index, Total: len(r.promos), Paused: r.paused}
	if len(r.promos) > 0 {
		s.Promotion = r.promos[r.index]
	}
	return s
}

func (r *Rotator) Current() Slide {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.slide()
}

// Next advances with wrap-around.
func (r *Rotator) Next() Slide {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.promos) > 0 {
		r.index = (r.index + 1) % len(r.promos)
	}
	return r.slide()
}

func (r *Rotator) Prev() Slide {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.promos) > 0 {
		r.index = (r.index - 1 + len(r.promos)) % len(r.promos)
	}
	return r.slide()
}

// Pause stops automatic rotation until Resume.
func (r *Rotator) Pause() Slide {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.paused = true
	return r.slide()
}

// Resume restarts automatic rotation with a full interval.
func (r *Rotator) Resume() Slide {
	r.mu.Lock()
	r.paused = false
	s := r.slide()
	r.mu.Unlock()

	select {
	case r.reset <- struct{}{}:
	default:
	}
	return s
}

// Run advances the rotator every interval while not paused and hands each
// new slide to onChange. It returns when ctx is done.
func (r *Rotator) Run(ctx context.Context, onChange func(Slide)) {
	if len(r.promos) < 2 {
		<-ctx.Done()
		return
	}
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-r.reset:
			ticker.Reset(r.interval)
		case <-ticker.C:
			r.mu.Lock()
			paused := r.paused
			r.mu.Unlock()
			if paused {
				continue
			}
			s := r.Next()
			if ctx.Err() != nil {
				return
			}
			onChange(s)
		}
	}
}
