// Package hybrid combines several window inspectors into one, falling back
// from display server queries to process heuristics.
package hybrid

import (
	"context"
	"fmt"
	"log"
	"strings"
	"sync"

	"github.com/pkg/errors"

	"github.com/adolfousier/neura-hustle-tracker-sub000/pkg/window"
)

// Chain tries each inspector in order and returns the first usable answer,
// with the app name normalized.
type Chain struct {
	inspectors []window.Inspector

	mu         sync.Mutex
	lastMethod string
	lastErr    string
}

// NewChain keeps only the inspectors available on this system.
func NewChain(inspectors ...window.Inspector) (*Chain, error) {
	c := &Chain{}
	for _, in := range inspectors {
		if in == nil {
			continue
		}
		if !in.IsAvailable() {
			log.Printf("Window inspector %s unavailable, skipping", in.Name())
			continue
		}
		c.inspectors = append(c.inspectors, in)
	}

	if len(c.inspectors) == 0 {
		return nil, errors.New("no window inspector available on this system")
	}
	log.Printf("Window inspectors: %s", c.Name())
	return c, nil
}

// Probe returns the focused window from the first inspector that succeeds.
func (c *Chain) Probe(ctx context.Context) (*window.WindowInfo, error) {
	var errs []string

	for _, in := range c.inspectors {
		info, err := in.Probe(ctx)
		if err == nil && info != nil && strings.TrimSpace(info.AppName) != "" {
			raw := info.AppName
			info.AppName = window.NormalizeAppName(raw)
			info.WindowTitle = window.NormalizeTitle(raw, info.WindowTitle)

			c.mu.Lock()
			c.lastMethod = in.Name()
			c.mu.Unlock()
			return info, nil
		}
		if err == nil {
			err = window.ErrNoWindow
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		errs = append(errs, fmt.Sprintf("%s: %v", in.Name(), err))
	}

	msg := strings.Join(errs, "; ")
	c.mu.Lock()
	if msg != c.lastErr {
		log.Printf("All window inspectors failed: %s", msg)
		c.lastErr = msg
	}
	c.mu.Unlock()

	return nil, errors.Errorf("all window inspectors failed: %s", msg)
}

// IsAvailable is true once construction succeeded.
func (c *Chain) IsAvailable() bool { return len(c.inspectors) > 0 }

// Name lists the inspectors in fallback order.
func (c *Chain) Name() string {
	names := make([]string, len(c.inspectors))
	for i, in := range c.inspectors {
		names[i] = in.Name()
	}
	return strings.Join(names, " > ")
}

// LastMethod returns the inspector that produced the most recent answer.
func (c *Chain) LastMethod() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastMethod
}

// Close closes every inspector.
func (c *Chain) Close() error {
	for _, in := range c.inspectors {
		if err := in.Close(); err != nil {
			log.Printf("Error closing %s inspector: %v", in.Name(), err)
		}
	}
	return nil
}
