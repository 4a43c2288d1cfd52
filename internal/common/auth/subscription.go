package auth

import "sync"

// Subscription is a cancellable handle on principal-change notifications.
// Deliveries stop the moment Cancel returns; a cancelled subscription never
// fires again.
type Subscription struct {
	client *Client
	fn     func(*Principal)

	mu     sync.Mutex
	closed bool
}

// Subscribe registers fn as a principal-change observer and immediately
// delivers the current state (principal or absent), matching the auth
// service's state-change semantics. Callbacks fire in registration order.
func (c *Client) Subscribe(fn func(*Principal)) *Subscription {
	sub := &Subscription{client: c, fn: fn}

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		sub.closed = true
		return sub
	}
	c.subscribers = append(c.subscribers, sub)
	current := c.principal
	c.mu.Unlock()

	// Initial notification: principal-or-absent.
	sub.deliver(current)
	return sub
}

// Cancel releases the subscription. Safe to call more than once.
func (s *Subscription) Cancel() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	s.mu.Unlock()

	c := s.client
	c.mu.Lock()
	for i, sub := range c.subscribers {
		if sub == s {
			c.subscribers = append(c.subscribers[:i], c.subscribers[i+1:]...)
			break
		}
	}
	c.mu.Unlock()
}

// deliver invokes the callback unless the subscription has been cancelled.
// The per-subscription lock is held across the call so Cancel cannot return
// while a delivery is still running.
func (s *Subscription) deliver(p *Principal) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.fn(p)
}

// snapshotSubscribersLocked copies the subscriber list. Caller holds c.mu.
func (c *Client) snapshotSubscribersLocked() []*Subscription {
	out := make([]*Subscription, len(c.subscribers))
	copy(out, c.subscribers)
	return out
}
