// Package submission owns the mutable application form and the submit
// lifecycle: readiness gating, the single document write per submit, outcome
// reporting, and form reset on success.
package submission

import (
	"context"
	"fmt"
	"sync"
	"time"

	"admissions-intake/internal/common/errors"
	"admissions-intake/internal/common/logger"
	"admissions-intake/internal/common/metrics"
	"admissions-intake/internal/common/observability"
	"admissions-intake/internal/docstore"
	"admissions-intake/internal/models"
)

// Notifier is called after a submission lands in the store. Implementations
// are best-effort; the controller never fails a submit over a notification.
type Notifier interface {
	SubmissionAccepted(ctx context.Context, record models.SubmissionRecord, docID string)
}

// Session is the slice of the session context the controller consumes: the
// resolved identity, the shared store handle, and the status channel.
type Session interface {
	Identity() string
	Store() docstore.Store
	SetStatus(status string)
}

// Controller serializes submit operations for one session. At most one write
// is in flight at a time; re-entrant submits are rejected while one runs.
type Controller struct {
	appID string
	sess  Session
	log   logger.Logger
	obs   *observability.Observability

	notifier Notifier
	driver   string

	now func() time.Time

	mu       sync.Mutex
	inFlight bool
	form     models.ApplicationForm
}

// Option configures optional controller collaborators.
type Option func(*Controller)

// WithNotifier attaches a post-submission notifier.
func WithNotifier(n Notifier) Option {
	return func(c *Controller) { c.notifier = n }
}

// WithObservability attaches the OTel meter and tracer.
func WithObservability(o *observability.Observability) Option {
	return func(c *Controller) { c.obs = o }
}

// WithClock overrides the submission timestamp source.
func WithClock(now func() time.Time) Option {
	return func(c *Controller) { c.now = now }
}

// WithDriverLabel sets the storage driver label used on metrics.
func WithDriverLabel(driver string) Option {
	return func(c *Controller) { c.driver = driver }
}

// NewController creates a controller bound to one session context.
func NewController(appID string, sess Session, log logger.Logger, opts ...Option) *Controller {
	c := &Controller{
		appID:  appID,
		sess:   sess,
		log:    log,
		now:    time.Now,
		driver: "unknown",
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SetField applies one field-input event to the form.
func (c *Controller) SetField(field, value string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.form.Set(field, value)
}

// Form returns a snapshot of the current form values.
func (c *Controller) Form() models.ApplicationForm {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.form.Clone()
}

// InFlight reports whether a submit is currently running. The presentation
// layer uses this to disable the trigger.
func (c *Controller) InFlight() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.inFlight
}

// Submit performs one write of the current form to the store. Preconditions
// (resolved identity and live store handle) are checked locally before any
// backend call. On success the form resets to empty and the status carries
// the new document id; on failure the form is left unchanged so the user can
// correct and resubmit. The in-flight flag clears on every exit path.
func (c *Controller) Submit(ctx context.Context) (string, error) {
	identity := c.sess.Identity()
	store := c.sess.Store()

	if identity == "" || store == nil {
		err := errors.NewNotReadyError("identity or storage not resolved")
		c.sess.SetStatus("Not ready: sign-in has not completed")
		c.log.Warn("Submit rejected, session not ready", map[string]interface{}{
			"identity_resolved": identity != "",
			"store_resolved":    store != nil,
		})
		return "", err
	}

	c.mu.Lock()
	if c.inFlight {
		c.mu.Unlock()
		return "", errors.NewSubmissionInFlightError()
	}
	c.inFlight = true
	snapshot := c.form.Clone()
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		c.inFlight = false
		c.mu.Unlock()
	}()

	return c.submit(ctx, store, identity, snapshot)
}

func (c *Controller) submit(ctx context.Context, store docstore.Store, identity string, snapshot models.ApplicationForm) (string, error) {
	start := time.Now()

	if c.obs != nil {
		spanCtx, span := c.obs.StartSpan(ctx, "submission.submit")
		ctx = spanCtx
		defer span.End()
	}

	c.sess.SetStatus("Submitting application")

	record := models.NewSubmissionRecord(&snapshot, c.now())
	path := docstore.FormsPath(c.appID, identity)

	docID, err := store.CreateDocument(ctx, path, record.Fields())
	if err != nil {
		stdErr := errors.Normalize(err)
		desc := stdErr.Details
		if desc == "" {
			desc = stdErr.Message
		}
		c.sess.SetStatus(fmt.Sprintf("Submission failed: %s", desc))
		c.log.WithError(stdErr).Error("Submission write failed", map[string]interface{}{
			"identity": identity,
			"path":     path.String(),
		})

		metrics.SubmissionsFailed.WithLabelValues(c.driver, string(stdErr.Code)).Inc()
		metrics.SubmissionDuration.WithLabelValues(c.driver).Observe(time.Since(start).Seconds())
		if c.obs != nil {
			c.obs.RecordSubmission(ctx, "failed")
			c.obs.RecordSubmissionDuration(ctx, time.Since(start), "failed")
		}
		return "", stdErr
	}

	c.mu.Lock()
	c.form.Reset()
	c.mu.Unlock()

	c.sess.SetStatus(fmt.Sprintf("Submission accepted (document %s)", docID))
	c.log.Info("Submission accepted", map[string]interface{}{
		"document_id": docID,
		"identity":    identity,
		"path":        path.String(),
	})

	metrics.SubmissionsCompleted.WithLabelValues(c.driver).Inc()
	metrics.SubmissionDuration.WithLabelValues(c.driver).Observe(time.Since(start).Seconds())
	if c.obs != nil {
		c.obs.RecordSubmission(ctx, "accepted")
		c.obs.RecordSubmissionDuration(ctx, time.Since(start), "accepted")
	}

	if c.notifier != nil {
		c.notifier.SubmissionAccepted(ctx, record, docID)
	}

	return docID, nil
}
