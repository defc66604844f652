package relay

import (
	"context"
	"log/slog"
	"sync"
	"time"

	sharederrors "github.com/reshetovitsme/nostr-feed-reader/internal/shared/errors"
)

const defaultQueryWindow = 5 * time.Second

// PoolOption configures the Pool.
type PoolOption func(*Pool)

// WithQueryWindow bounds how long fan-out calls wait for slow endpoints.
func WithQueryWindow(d time.Duration) PoolOption {
	return func(p *Pool) {
		p.window = d
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) PoolOption {
	return func(p *Pool) {
		p.logger = logger
	}
}

// Pool owns the long-lived relay connections. Connections open lazily on
// first use; Close releases them all and is safe to call repeatedly, after
// which the pool can be used again and will re-dial.
type Pool struct {
	mu     sync.Mutex
	conns  map[string]*conn
	window time.Duration
	logger *slog.Logger
}

// NewPool creates an empty connection pool; no network activity happens
// until the first call.
func NewPool(opts ...PoolOption) *Pool {
	p := &Pool{
		conns:  make(map[string]*conn),
		window: defaultQueryWindow,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *Pool) ensure(ctx context.Context, url string) (*conn, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if c, ok := p.conns[url]; ok && !c.dead() {
		return c, nil
	}

	c, err := dialConn(ctx, url)
	if err != nil {
		return nil, err
	}
	p.conns[url] = c
	return c, nil
}

// Query fans a filter out to every endpoint in parallel and aggregates
// whatever arrives within the wait window, deduplicated by event id. An
// unreachable or slow endpoint is excluded from the result, never an error;
// only a totally unreachable endpoint set is.
func (p *Pool) Query(ctx context.Context, endpoints []string, filter Filter) ([]*Event, error) {
	ctx, cancel := context.WithTimeout(ctx, p.window)
	defer cancel()

	var (
		mu      sync.Mutex
		seen    = make(map[string]struct{})
		events  []*Event
		reached int
	)

	var wg sync.WaitGroup
	for _, endpoint := range endpoints {
		wg.Add(1)
		go func(url string) {
			defer wg.Done()

			c, err := p.ensure(ctx, url)
			if err != nil {
				p.logger.Debug("Relay unreachable", "relay", url, "error", err)
				return
			}
			sub, err := c.subscribe(filter)
			if err != nil {
				p.logger.Debug("Subscribe failed", "relay", url, "error", err)
				return
			}
			defer c.unsubscribe(sub.id)

			mu.Lock()
			reached++
			mu.Unlock()

			for {
				select {
				case <-ctx.Done():
					return
				case <-sub.eose:
					return
				case ev := <-sub.events:
					mu.Lock()
					if _, dup := seen[ev.ID]; !dup {
						seen[ev.ID] = struct{}{}
						events = append(events, ev)
					}
					mu.Unlock()
				}
			}
		}(endpoint)
	}
	wg.Wait()

	if reached == 0 && len(endpoints) > 0 {
		return nil, sharederrors.ErrAllRelaysFailed
	}
	return events, nil
}

// GetOne fans out like Query but returns the first matching event observed,
// cancelling the remaining endpoints. A nil event with nil error is a miss:
// at least one relay answered and none had a match. A totally unreachable
// endpoint set is an error, never a miss.
func (p *Pool) GetOne(ctx context.Context, endpoints []string, filter Filter) (*Event, error) {
	if filter.Limit == 0 {
		filter.Limit = 1
	}

	ctx, cancel := context.WithTimeout(ctx, p.window)
	defer cancel()

	var (
		mu      sync.Mutex
		reached int
	)

	results := make(chan *Event, len(endpoints))
	var wg sync.WaitGroup
	for _, endpoint := range endpoints {
		wg.Add(1)
		go func(url string) {
			defer wg.Done()

			c, err := p.ensure(ctx, url)
			if err != nil {
				p.logger.Debug("Relay unreachable", "relay", url, "error", err)
				return
			}
			sub, err := c.subscribe(filter)
			if err != nil {
				return
			}
			defer c.unsubscribe(sub.id)

			mu.Lock()
			reached++
			mu.Unlock()

			select {
			case <-ctx.Done():
			case <-sub.eose:
			case ev := <-sub.events:
				results <- ev
			}
		}(endpoint)
	}

	go func() {
		wg.Wait()
		close(results)
	}()

	for ev := range results {
		if ev != nil {
			cancel()
			return ev, nil
		}
	}

	if reached == 0 && len(endpoints) > 0 {
		return nil, sharederrors.ErrAllRelaysFailed
	}
	return nil, nil
}

// Publish fans a signed event out to every endpoint and succeeds as soon as
// any single one acknowledges it. It fails only when every endpoint does.
func (p *Pool) Publish(ctx context.Context, endpoints []string, ev *Event) error {
	ctx, cancel := context.WithTimeout(ctx, p.window)
	defer cancel()

	results := make(chan error, len(endpoints))
	var wg sync.WaitGroup
	for _, endpoint := range endpoints {
		wg.Add(1)
		go func(url string) {
			defer wg.Done()

			c, err := p.ensure(ctx, url)
			if err != nil {
				results <- err
				return
			}
			results <- c.publish(ctx, ev)
		}(endpoint)
	}

	go func() {
		wg.Wait()
		close(results)
	}()

	for err := range results {
		if err == nil {
			cancel()
			return nil
		}
		p.logger.Debug("Publish rejected", "error", err)
	}
	return sharederrors.ErrAllRelaysFailed
}

// Close releases every open connection. Reentrant-safe, safe when some
// connections never opened, and the pool remains usable afterwards.
func (p *Pool) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()

	for url, c := range p.conns {
		c.close()
		delete(p.conns, url)
	}
}
