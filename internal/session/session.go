// Package session owns the bootstrap lifecycle of one intake session: it
// resolves an authenticated identity from the backend auth service and holds
// the status string every other component reports through.
package session

import (
	"context"
	"fmt"
	"sync"
	"time"

	"admissions-intake/internal/common/auth"
	"admissions-intake/internal/common/config"
	"admissions-intake/internal/common/errors"
	"admissions-intake/internal/common/logger"
	"admissions-intake/internal/common/observability"
	"admissions-intake/internal/docstore"
)

// State is the bootstrap lifecycle state. unavailable and auth_failed are
// terminal for the process; ready can be re-entered when the backend signals
// a refreshed principal.
type State string

const (
	StateUninitialized State = "uninitialized"
	StateUnavailable   State = "unavailable"
	StateConnecting    State = "connecting"
	StateReady         State = "ready"
	StateAuthFailed    State = "auth_failed"
)

// StatusInitializing is the status before Bootstrap runs.
const StatusInitializing = "Initializing session"

// StatusObserver receives every status string transition. Observers fire in
// registration order.
type StatusObserver func(status string)

// Context is the explicit session object shared by the bootstrapper and the
// submission controller. One Context per process run; no package-level state.
type Context struct {
	cfg   *config.Config
	store docstore.Store
	log   logger.Logger
	obs   *observability.Observability

	authClient *auth.Client
	sub        *auth.Subscription

	mu        sync.Mutex
	state     State
	status    string
	identity  string
	signingIn bool
	observers []StatusObserver

	// notifyMu serializes observer delivery so transitions arrive in order.
	notifyMu sync.Mutex
}

// Option configures optional session collaborators.
type Option func(*Context)

// WithObservability attaches the OTel tracer used to span sign-in.
func WithObservability(o *observability.Observability) Option {
	return func(c *Context) { c.obs = o }
}

// New creates a session context around the configured store. The context
// stays uninitialized until Bootstrap is called.
func New(cfg *config.Config, store docstore.Store, log logger.Logger, opts ...Option) *Context {
	c := &Context{
		cfg:    cfg,
		store:  store,
		log:    log,
		state:  StateUninitialized,
		status: StatusInitializing,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Bootstrap establishes the auth connection and subscribes to principal
// changes. An empty backend credential bundle is terminal: the session goes
// unavailable without any backend contact and the error is returned for the
// caller to log. Identity resolution continues asynchronously after return;
// readiness is observable through OnStatusChange.
func (c *Context) Bootstrap(ctx context.Context) error {
	if c.cfg.Backend.IsEmpty() {
		err := errors.NewConfigNotFoundError("backend credential bundle is empty")
		c.transition(StateUnavailable, "Error: backend config not found")
		c.log.Warn("Session unavailable, backend config not found", nil)
		return err
	}

	c.transition(StateConnecting, "Connecting to authentication service")

	refreshMargin := time.Duration(c.cfg.Auth.RefreshMarginSeconds) * time.Second
	c.authClient = auth.NewClient(
		c.cfg.Backend.AuthURL,
		c.cfg.Backend.Tenant,
		c.cfg.Backend.APIKey,
		c.cfg.Backend.APISecret,
		refreshMargin,
	)

	// Sole source of identity updates from here on. The subscription fires
	// immediately with the current principal-or-absent state.
	c.sub = c.authClient.Subscribe(c.onPrincipalChange)
	return nil
}

// onPrincipalChange is the principal subscription callback. A present
// principal enters ready; an absent one triggers sign-in.
func (c *Context) onPrincipalChange(p *auth.Principal) {
	if p != nil {
		c.enterReady(p.ID)
		return
	}

	c.mu.Lock()
	if c.signingIn || c.state == StateAuthFailed {
		c.mu.Unlock()
		return
	}
	c.signingIn = true
	c.mu.Unlock()

	// Sign-in runs off the notification path: the auth client delivers the
	// resulting principal back through this same subscription.
	go c.signIn()
}

func (c *Context) signIn() {
	defer func() {
		c.mu.Lock()
		c.signingIn = false
		c.mu.Unlock()
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if c.obs != nil {
		spanCtx, span := c.obs.StartSpan(ctx, "session.sign_in")
		ctx = spanCtx
		defer span.End()
	}

	var err error
	if c.cfg.Auth.Token != "" {
		c.log.Info("Signing in with pre-issued token", nil)
		_, err = c.authClient.SignInWithToken(ctx, c.cfg.Auth.Token)
	} else {
		c.log.Info("Signing in anonymously", nil)
		_, err = c.authClient.SignInAnonymously(ctx)
	}

	if err != nil {
		stdErr := errors.NewAuthSigninFailedError(err)
		c.transition(StateAuthFailed, fmt.Sprintf("Authentication failed: %s", stdErr.Details))
		c.log.WithError(stdErr).Error("Sign-in failed", nil)
	}
}

func (c *Context) enterReady(principalID string) {
	c.mu.Lock()
	c.identity = principalID
	c.state = StateReady
	c.status = fmt.Sprintf("Session ready (user %s)", principalID)
	status := c.status
	obs := c.snapshotObserversLocked()
	c.mu.Unlock()

	c.log.Info("Session ready", map[string]interface{}{
		"identity": principalID,
	})
	c.notify(obs, status)
}

// transition moves the bootstrap state machine and publishes the status.
func (c *Context) transition(state State, status string) {
	c.mu.Lock()
	c.state = state
	c.status = status
	obs := c.snapshotObserversLocked()
	c.mu.Unlock()

	c.notify(obs, status)
}

// SetStatus publishes a status string without moving the bootstrap state.
// Used by the submission controller for the submit lifecycle messages.
func (c *Context) SetStatus(status string) {
	c.mu.Lock()
	c.status = status
	obs := c.snapshotObserversLocked()
	c.mu.Unlock()

	c.notify(obs, status)
}

// OnStatusChange registers an observer for status transitions. Observers are
// invoked in the order they were registered.
func (c *Context) OnStatusChange(fn StatusObserver) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.observers = append(c.observers, fn)
}

func (c *Context) snapshotObserversLocked() []StatusObserver {
	out := make([]StatusObserver, len(c.observers))
	copy(out, c.observers)
	return out
}

func (c *Context) notify(obs []StatusObserver, status string) {
	c.notifyMu.Lock()
	defer c.notifyMu.Unlock()
	for _, fn := range obs {
		fn(status)
	}
}

// Status returns the current status string.
func (c *Context) Status() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.status
}

// State returns the current bootstrap state.
func (c *Context) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Identity returns the resolved principal id, or "" before ready.
func (c *Context) Identity() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.identity
}

// Store returns the document store handle shared with the controller.
func (c *Context) Store() docstore.Store {
	return c.store
}

// Ready reports whether both submit preconditions hold: a resolved identity
// and a live store handle.
func (c *Context) Ready() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state == StateReady && c.identity != "" && c.store != nil
}

// Close tears the session down: the principal subscription is cancelled and
// no callback fires afterwards.
func (c *Context) Close() {
	if c.sub != nil {
		c.sub.Cancel()
	}
	if c.authClient != nil {
		c.authClient.Close()
	}
}
