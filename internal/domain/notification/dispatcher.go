package notification

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
)

// Phase is the progress of a single dispatch.
type Phase string

const (
	PhaseMatching   Phase = "matching"
	PhaseResolving  Phase = "resolving"
	PhaseComposing  Phase = "composing"
	PhaseDelivering Phase = "delivering"
	PhaseLogged     Phase = "logged"
)

// DispatcherConfig tunes email fan-out.
type DispatcherConfig struct {
	// EmailWorkers bounds concurrent email sends within one dispatch.
	EmailWorkers int

	// EmailInterval is the minimum gap between two email sends, shared by all
	// dispatches of the process. Zero disables throttling.
	EmailInterval time.Duration

	// SendTimeout bounds a single provider call.
	SendTimeout time.Duration
}

// DispatcherDeps are the collaborators of a Dispatcher. Email, Renderer and
// RateLimiter may be nil.
type DispatcherDeps struct {
	Rules         RuleStore
	Resolver      *Resolver
	Composer      *Composer
	Gate          *PreferenceGate
	Notifications NotificationStore
	Logs          DeliveryLogStore
	Email         EmailSender
	Renderer      EmailRenderer
	RateLimiter   RecipientRateLimiter
}

// DispatchResult summarises one dispatch.
type DispatchResult struct {
	DispatchID    string
	EventType     string
	Phase         Phase
	RulesMatched  int
	Recipients    int
	Notifications int
	Logs          int
	Sent          int
	Failed        int
	Skipped       int
}

// Dispatcher fans an event out to in-app notifications and email.
// Dispatch never fails: every problem is logged or written to the delivery log.
type Dispatcher struct {
	deps     DispatcherDeps
	cfg      DispatcherConfig
	throttle *rate.Limiter

	mu sync.Mutex // guards result counters while email workers run
}

// NewDispatcher creates a dispatcher.
func NewDispatcher(deps DispatcherDeps, cfg DispatcherConfig) *Dispatcher {
	if cfg.EmailWorkers <= 0 {
		cfg.EmailWorkers = 4
	}
	if cfg.SendTimeout <= 0 {
		cfg.SendTimeout = 5 * time.Second
	}
	if deps.Composer == nil {
		deps.Composer = NewComposer()
	}

	d := &Dispatcher{deps: deps, cfg: cfg}
	if cfg.EmailInterval > 0 {
		d.throttle = rate.NewLimiter(rate.Every(cfg.EmailInterval), 1)
	}
	return d
}

// target is a deduplicated recipient with the channels of every rule that
// reached it.
type target struct {
	recipient Recipient
	channels  map[Channel]bool
}

// emailJob is a pending email send for one recipient.
type emailJob struct {
	recipient      Recipient
	notificationID string
}

// Dispatch runs matching, resolution, composition and delivery for one event.
func (d *Dispatcher) Dispatch(ctx context.Context, event Event) (result *DispatchResult) {
	start := time.Now()
	result = &DispatchResult{
		DispatchID: uuid.NewString(),
		EventType:  event.Type,
		Phase:      PhaseMatching,
	}
	if event.Data == nil {
		event.Data = map[string]any{}
	}

	log := slog.With("dispatch_id", result.DispatchID, "event_type", event.Type)

	defer func() {
		if r := recover(); r != nil {
			log.Error("dispatch panicked", "phase", result.Phase, "panic", fmt.Sprint(r))
		}
		result.Phase = PhaseLogged
		log.Info("dispatch complete",
			"rules_matched", result.RulesMatched,
			"recipients", result.Recipients,
			"notifications", result.Notifications,
			"sent", result.Sent,
			"failed", result.Failed,
			"skipped", result.Skipped,
			"duration", time.Since(start),
		)
	}()

	rules := d.matchRules(ctx, log, event)
	result.RulesMatched = len(rules)
	if len(rules) == 0 {
		return result
	}

	result.Phase = PhaseResolving
	targets := d.resolveTargets(ctx, event, rules)
	result.Recipients = len(targets)
	if len(targets) == 0 {
		return result
	}

	result.Phase = PhaseComposing
	content := d.deps.Composer.Compose(event.Type, event.Data)

	result.Phase = PhaseDelivering
	d.deliver(ctx, log, result, event, content, targets)

	return result
}

// matchRules loads the enabled rules for the event type and keeps the ones
// whose conditions pass.
func (d *Dispatcher) matchRules(ctx context.Context, log *slog.Logger, event Event) []*Rule {
	rules, err := d.deps.Rules.ListEnabled(ctx, event.Type)
	if err != nil {
		log.Error("loading rules failed", "error", err)
		return nil
	}

	matched := make([]*Rule, 0, len(rules))
	for _, rule := range rules {
		if rule == nil || !rule.Enabled {
			continue
		}
		if !EvaluateConditions(event.Data, rule.Conditions) {
			log.Debug("rule conditions not met", "rule_id", rule.ID)
			continue
		}
		matched = append(matched, rule)
	}
	return matched
}

// resolveTargets unions the recipients of all matched rules so that a user
// is notified once per event.
func (d *Dispatcher) resolveTargets(ctx context.Context, event Event, rules []*Rule) []*target {
	var order []*target
	byID := make(map[string]*target)

	for _, rule := range rules {
		channels := rule.Channels.Active()
		if len(channels) == 0 {
			continue
		}
		for _, rcpt := range d.deps.Resolver.Resolve(ctx, event, rule) {
			t, ok := byID[rcpt.ID]
			if !ok {
				t = &target{recipient: rcpt, channels: make(map[Channel]bool)}
				byID[rcpt.ID] = t
				order = append(order, t)
			}
			for _, ch := range channels {
				t.channels[ch] = true
			}
		}
	}
	return order
}

func (d *Dispatcher) deliver(ctx context.Context, log *slog.Logger, result *DispatchResult, event Event, content Content, targets []*target) {
	var jobs []emailJob

	emailReady := d.deps.Email != nil && d.deps.Email.Configured()
	if !emailReady {
		log.Debug("email provider not configured, email channel will be skipped")
	}

	for _, t := range targets {
		rcpt := t.recipient
		var notificationID string

		if t.channels[ChannelInApp] {
			notificationID = d.deliverInApp(ctx, log, result, event, content, rcpt)
		}

		if !t.channels[ChannelEmail] {
			continue
		}

		entry := d.newLog(result, event, rcpt.ID, ChannelEmail)
		entry.NotificationID = notificationID

		switch {
		case !emailReady:
			d.skip(ctx, log, result, entry, SkipEmailNotConfigured)
		case !d.deps.Gate.Allowed(ctx, rcpt.ID, content.Category, ChannelEmail):
			d.skip(ctx, log, result, entry, SkipPreference)
		case rcpt.Email == "":
			d.skip(ctx, log, result, entry, SkipNoEmailAddress)
		case !d.allowEmail(ctx, log, rcpt.ID):
			d.skip(ctx, log, result, entry, SkipRateLimited)
		default:
			jobs = append(jobs, emailJob{recipient: rcpt, notificationID: notificationID})
		}
	}

	if len(jobs) == 0 {
		return
	}

	var g errgroup.Group
	g.SetLimit(d.cfg.EmailWorkers)
	for _, job := range jobs {
		g.Go(func() error {
			d.sendEmail(ctx, log, result, event, content, job)
			return nil
		})
	}
	_ = g.Wait()
}

// deliverInApp stores the in-app notification and returns its id, or "" when
// nothing was stored.
func (d *Dispatcher) deliverInApp(ctx context.Context, log *slog.Logger, result *DispatchResult, event Event, content Content, rcpt Recipient) string {
	entry := d.newLog(result, event, rcpt.ID, ChannelInApp)

	if !d.deps.Gate.Allowed(ctx, rcpt.ID, content.Category, ChannelInApp) {
		d.skip(ctx, log, result, entry, SkipPreference)
		return ""
	}

	n := &Notification{
		UserID:            rcpt.ID,
		Category:          content.Category,
		Type:              event.Type,
		Title:             content.Title,
		Message:           content.Message,
		ShortMessage:      content.ShortMessage,
		Priority:          content.Priority,
		RelatedEntityType: content.RelatedEntityType,
		RelatedEntityID:   content.RelatedEntityID,
		RelatedEntityName: content.RelatedEntityName,
		ActionURL:         content.ActionURL,
	}

	if err := d.deps.Notifications.Insert(ctx, n); err != nil {
		log.Error("in-app notification insert failed", "user_id", rcpt.ID, "error", err)
		entry.Status = DeliveryFailure
		entry.Error = err.Error()
		d.record(ctx, log, result, entry)
		return ""
	}

	d.mu.Lock()
	result.Notifications++
	d.mu.Unlock()

	entry.NotificationID = n.ID
	entry.Status = DeliverySuccess
	d.record(ctx, log, result, entry)
	return n.ID
}

func (d *Dispatcher) sendEmail(ctx context.Context, log *slog.Logger, result *DispatchResult, event Event, content Content, job emailJob) {
	entry := d.newLog(result, event, job.recipient.ID, ChannelEmail)
	entry.NotificationID = job.notificationID

	// Sends run on pool goroutines, outside the recover in Dispatch.
	defer func() {
		if r := recover(); r != nil {
			log.Error("email delivery panicked", "user_id", job.recipient.ID, "panic", fmt.Sprint(r))
			entry.Status = DeliveryFailure
			entry.Error = fmt.Sprintf("panic: %v", r)
			d.record(ctx, log, result, entry)
		}
	}()

	fail := func(err error) {
		log.Error("email delivery failed", "user_id", job.recipient.ID, "error", err)
		entry.Status = DeliveryFailure
		entry.Error = err.Error()
		d.record(ctx, log, result, entry)
	}

	if d.throttle != nil {
		if err := d.throttle.Wait(ctx); err != nil {
			fail(fmt.Errorf("waiting for send slot: %w", err))
			return
		}
	}

	msg, err := d.renderEmail(job.recipient, content)
	if err != nil {
		fail(err)
		return
	}

	sendCtx, cancel := context.WithTimeout(ctx, d.cfg.SendTimeout)
	defer cancel()

	providerID, err := d.deps.Email.Send(sendCtx, msg)
	if errors.Is(err, ErrEmailNotConfigured) {
		d.skip(ctx, log, result, entry, SkipEmailNotConfigured)
		return
	}
	if err != nil {
		fail(err)
		return
	}

	entry.Status = DeliverySuccess
	entry.ProviderMessageID = providerID
	d.record(ctx, log, result, entry)
}

func (d *Dispatcher) renderEmail(rcpt Recipient, content Content) (*EmailMessage, error) {
	if d.deps.Renderer == nil {
		return &EmailMessage{To: rcpt.Email, Subject: content.Title, Text: content.Message}, nil
	}
	subject, html, text, err := d.deps.Renderer.Render(rcpt, content)
	if err != nil {
		return nil, fmt.Errorf("rendering email: %w", err)
	}
	return &EmailMessage{To: rcpt.Email, Subject: subject, HTML: html, Text: text}, nil
}

// allowEmail applies the per-recipient email limit. Limiter errors allow the
// send.
func (d *Dispatcher) allowEmail(ctx context.Context, log *slog.Logger, userID string) bool {
	if d.deps.RateLimiter == nil {
		return true
	}
	allowed, err := d.deps.RateLimiter.Allow(ctx, userID)
	if err != nil {
		log.Warn("recipient rate limit check failed, proceeding", "user_id", userID, "error", err)
		return true
	}
	return allowed
}

func (d *Dispatcher) newLog(result *DispatchResult, event Event, recipientID string, channel Channel) *DeliveryLog {
	return &DeliveryLog{
		DispatchID:  result.DispatchID,
		EventType:   event.Type,
		RecipientID: recipientID,
		Channel:     channel,
	}
}

func (d *Dispatcher) skip(ctx context.Context, log *slog.Logger, result *DispatchResult, entry *DeliveryLog, reason string) {
	entry.Status = DeliverySkipped
	entry.Error = reason
	d.record(ctx, log, result, entry)
}

// record appends a delivery log row. Write failures are only logged.
func (d *Dispatcher) record(ctx context.Context, log *slog.Logger, result *DispatchResult, entry *DeliveryLog) {
	d.mu.Lock()
	switch entry.Status {
	case DeliverySuccess:
		if entry.Channel == ChannelEmail {
			result.Sent++
		}
	case DeliveryFailure:
		result.Failed++
	case DeliverySkipped:
		result.Skipped++
	}
	d.mu.Unlock()

	// The log row must survive a dispatch context that is about to expire.
	logCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()

	if err := d.insertLog(logCtx, entry); err != nil {
		log.Error("delivery log insert failed",
			"user_id", entry.RecipientID,
			"channel", entry.Channel,
			"status", entry.Status,
			"error", err,
		)
		return
	}

	d.mu.Lock()
	result.Logs++
	d.mu.Unlock()
}

// insertLog writes one delivery log row, turning a store panic into an error.
func (d *Dispatcher) insertLog(ctx context.Context, entry *DeliveryLog) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("delivery log store panicked: %v", r)
		}
	}()
	return d.deps.Logs.Insert(ctx, entry)
}
