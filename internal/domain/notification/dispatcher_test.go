package notification

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type dispatchFixture struct {
	dir           *fakeDirectory
	rules         *memRuleStore
	notifications *memNotificationStore
	logs          *memLogStore
	prefs         *memPrefStore
	email         *fakeSender
	limiter       *denyLimiter
	dispatcher    *Dispatcher
}

func newDispatchFixture(t *testing.T, emailConfigured bool) *dispatchFixture {
	t.Helper()
	f := &dispatchFixture{
		dir:           newFakeDirectory(),
		rules:         &memRuleStore{},
		notifications: newMemNotificationStore(),
		logs:          &memLogStore{},
		prefs:         newMemPrefStore(),
		email:         &fakeSender{configured: emailConfigured, failFor: make(map[string]error)},
		limiter:       &denyLimiter{deny: make(map[string]bool)},
	}
	f.dispatcher = NewDispatcher(DispatcherDeps{
		Rules:         f.rules,
		Resolver:      NewResolver(f.dir, nil),
		Composer:      NewComposer(),
		Gate:          NewPreferenceGate(f.prefs),
		Notifications: f.notifications,
		Logs:          f.logs,
		Email:         f.email,
		RateLimiter:   f.limiter,
	}, DispatcherConfig{EmailWorkers: 2, SendTimeout: time.Second})
	return f
}

func (f *dispatchFixture) addRule(r *Rule) {
	if r.ID == "" {
		r.ID = "rule-" + r.EventType
	}
	r.Enabled = true
	f.rules.rules = append(f.rules.rules, r)
}

func jobOverdueEvent() Event {
	return Event{Type: EventJobOverdue, Data: map[string]any{
		"entityName":           "Job #42",
		"clientName":           "Acme Corp",
		"daysOverdue":          3,
		"assignedTechnicianId": "u1",
	}}
}

func TestDispatch_JobOverdueEndToEnd(t *testing.T) {
	f := newDispatchFixture(t, false)
	f.dir.addUser("u1", "u1@example.com")
	f.dir.addUser("u2", "u2@example.com")
	f.dir.supervisors["u1"] = "u2"
	f.addRule(&Rule{
		EventType:      EventJobOverdue,
		RecipientRoles: []string{RoleAssignedTechnician, RoleSupervisor},
		Channels:       RuleChannels{InApp: true},
	})

	result := f.dispatcher.Dispatch(context.Background(), jobOverdueEvent())

	assert.Equal(t, PhaseLogged, result.Phase)
	assert.NotEmpty(t, result.DispatchID)
	assert.Equal(t, 1, result.RulesMatched)
	assert.Equal(t, 2, result.Recipients)
	assert.Equal(t, 2, result.Notifications)

	rows := f.notifications.all()
	require.Len(t, rows, 2)
	assert.ElementsMatch(t, []string{"u1", "u2"}, []string{rows[0].UserID, rows[1].UserID})
	for _, n := range rows {
		assert.Equal(t, "Job Overdue", n.Title)
		assert.Equal(t, rows[0].Message, n.Message)
		assert.Equal(t, CategoryJobs, n.Category)
		assert.Equal(t, EventJobOverdue, n.Type)
	}

	logs := f.logs.all()
	require.Len(t, logs, 2)
	for _, l := range logs {
		assert.Equal(t, ChannelInApp, l.Channel)
		assert.Equal(t, DeliverySuccess, l.Status)
		assert.Equal(t, result.DispatchID, l.DispatchID)
		assert.NotEmpty(t, l.NotificationID)
	}
}

func TestDispatch_ZeroRules(t *testing.T) {
	f := newDispatchFixture(t, true)
	f.dir.addUser("u1", "u1@example.com")

	result := f.dispatcher.Dispatch(context.Background(), jobOverdueEvent())

	assert.Equal(t, PhaseLogged, result.Phase)
	assert.Zero(t, result.RulesMatched)
	assert.Empty(t, f.notifications.all())
	assert.Empty(t, f.logs.all())
	assert.Empty(t, f.dir.calls)
}

func TestDispatch_RuleStoreErrorIsContained(t *testing.T) {
	f := newDispatchFixture(t, true)
	f.rules.listErr = errBoom

	result := f.dispatcher.Dispatch(context.Background(), jobOverdueEvent())

	assert.Equal(t, PhaseLogged, result.Phase)
	assert.Empty(t, f.logs.all())
}

func TestDispatch_ConditionsFilterRules(t *testing.T) {
	f := newDispatchFixture(t, false)
	f.dir.addUser("u1", "")
	f.addRule(&Rule{
		ID:             "strict",
		EventType:      EventJobOverdue,
		RecipientRoles: []string{RoleAssignedTechnician},
		Conditions:     &RuleConditions{DaysAfterThreshold: ptr(7.0)},
		Channels:       RuleChannels{InApp: true},
	})

	result := f.dispatcher.Dispatch(context.Background(), jobOverdueEvent())

	assert.Zero(t, result.RulesMatched)
	assert.Empty(t, f.notifications.all())
}

func TestDispatch_UnconfiguredEmailIsSkipped(t *testing.T) {
	f := newDispatchFixture(t, false)
	f.dir.addUser("u1", "u1@example.com")
	f.dir.addUser("u2", "u2@example.com")
	f.dir.supervisors["u1"] = "u2"
	f.addRule(&Rule{
		EventType:      EventJobOverdue,
		RecipientRoles: []string{RoleAssignedTechnician, RoleSupervisor},
		Channels:       RuleChannels{InApp: true, Email: true},
	})

	result := f.dispatcher.Dispatch(context.Background(), jobOverdueEvent())

	assert.Len(t, f.notifications.all(), 2)
	assert.Zero(t, f.email.count())
	assert.Equal(t, 2, result.Skipped)
	assert.Zero(t, result.Sent)

	emailLogs := f.logs.byChannel(ChannelEmail)
	require.Len(t, emailLogs, 2)
	for _, l := range emailLogs {
		assert.Equal(t, DeliverySkipped, l.Status)
		assert.Equal(t, SkipEmailNotConfigured, l.Error)
	}
	assert.Len(t, f.logs.byChannel(ChannelInApp), 2)
}

func TestDispatch_EmailOutcomes(t *testing.T) {
	f := newDispatchFixture(t, true)
	f.dir.addUser("ok", "ok@example.com")
	f.dir.addUser("nomail", "")
	f.dir.addUser("optout", "optout@example.com")
	f.dir.addUser("capped", "capped@example.com")
	f.dir.addUser("bounce", "bounce@example.com")
	f.prefs.prefs[prefKey("optout", CategoryJobs, ChannelEmail)] = false
	f.limiter.deny["capped"] = true
	f.email.failFor["bounce@example.com"] = errors.New("mailbox unavailable")

	f.addRule(&Rule{
		EventType:      EventJobOverdue,
		RecipientRoles: []string{RoleAssignedTechnician},
		Channels:       RuleChannels{InApp: true, Email: true},
	})

	event := jobOverdueEvent()
	event.Data["assignedTechnicianIds"] = []string{"ok", "nomail", "optout", "capped", "bounce"}
	delete(event.Data, "assignedTechnicianId")

	result := f.dispatcher.Dispatch(context.Background(), event)

	emailLogs := f.logs.byChannel(ChannelEmail)
	require.Len(t, emailLogs, 5)

	assert.Equal(t, DeliverySuccess, emailLogs["ok"].Status)
	assert.Equal(t, "msg-1", emailLogs["ok"].ProviderMessageID)
	assert.NotEmpty(t, emailLogs["ok"].NotificationID)

	assert.Equal(t, DeliverySkipped, emailLogs["nomail"].Status)
	assert.Equal(t, SkipNoEmailAddress, emailLogs["nomail"].Error)

	assert.Equal(t, DeliverySkipped, emailLogs["optout"].Status)
	assert.Equal(t, SkipPreference, emailLogs["optout"].Error)

	assert.Equal(t, DeliverySkipped, emailLogs["capped"].Status)
	assert.Equal(t, SkipRateLimited, emailLogs["capped"].Error)

	assert.Equal(t, DeliveryFailure, emailLogs["bounce"].Status)
	assert.Contains(t, emailLogs["bounce"].Error, "mailbox unavailable")

	// Email failures never undo in-app rows
	assert.Len(t, f.notifications.all(), 5)
	assert.Equal(t, 1, result.Sent)
	assert.Equal(t, 1, result.Failed)
	assert.Equal(t, 3, result.Skipped)

	require.Equal(t, 1, f.email.count())
	assert.Equal(t, "Job Overdue", f.email.sent[0].Subject)
	assert.Equal(t, "ok@example.com", f.email.sent[0].To)
}

func TestDispatch_InAppPreferenceOptOut(t *testing.T) {
	f := newDispatchFixture(t, false)
	f.dir.addUser("u1", "")
	f.prefs.prefs[prefKey("u1", CategoryJobs, ChannelInApp)] = false
	f.addRule(&Rule{
		EventType:      EventJobOverdue,
		RecipientRoles: []string{RoleAssignedTechnician},
		Channels:       RuleChannels{InApp: true},
	})

	f.dispatcher.Dispatch(context.Background(), jobOverdueEvent())

	assert.Empty(t, f.notifications.all())
	logs := f.logs.all()
	require.Len(t, logs, 1)
	assert.Equal(t, DeliverySkipped, logs[0].Status)
	assert.Equal(t, SkipPreference, logs[0].Error)
}

func TestDispatch_PreferenceStoreErrorAllows(t *testing.T) {
	f := newDispatchFixture(t, false)
	f.dir.addUser("u1", "")
	f.prefs.err = errBoom
	f.addRule(&Rule{
		EventType:      EventJobOverdue,
		RecipientRoles: []string{RoleAssignedTechnician},
		Channels:       RuleChannels{InApp: true},
	})

	f.dispatcher.Dispatch(context.Background(), jobOverdueEvent())

	assert.Len(t, f.notifications.all(), 1)
}

func TestDispatch_InsertFailureIsolatedPerRecipient(t *testing.T) {
	f := newDispatchFixture(t, false)
	f.dir.addUser("u1", "")
	f.dir.addUser("u2", "")
	f.dir.supervisors["u1"] = "u2"
	f.notifications.insertErr["u1"] = errBoom
	f.addRule(&Rule{
		EventType:      EventJobOverdue,
		RecipientRoles: []string{RoleAssignedTechnician, RoleSupervisor},
		Channels:       RuleChannels{InApp: true},
	})

	result := f.dispatcher.Dispatch(context.Background(), jobOverdueEvent())

	rows := f.notifications.all()
	require.Len(t, rows, 1)
	assert.Equal(t, "u2", rows[0].UserID)
	assert.Equal(t, 1, result.Failed)

	logs := f.logs.byChannel(ChannelInApp)
	assert.Equal(t, DeliveryFailure, logs["u1"].Status)
	assert.Equal(t, DeliverySuccess, logs["u2"].Status)
}

func TestDispatch_OverlappingRulesNotifyOnce(t *testing.T) {
	f := newDispatchFixture(t, true)
	f.dir.addUser("u1", "u1@example.com")
	f.addRule(&Rule{
		ID:             "in-app",
		EventType:      EventJobOverdue,
		RecipientRoles: []string{RoleAssignedTechnician},
		Channels:       RuleChannels{InApp: true},
	})
	f.addRule(&Rule{
		ID:             "email",
		EventType:      EventJobOverdue,
		RecipientRoles: []string{RoleAssignedTechnician},
		Channels:       RuleChannels{Email: true},
	})

	result := f.dispatcher.Dispatch(context.Background(), jobOverdueEvent())

	assert.Equal(t, 2, result.RulesMatched)
	assert.Equal(t, 1, result.Recipients)
	assert.Len(t, f.notifications.all(), 1)
	assert.Equal(t, 1, f.email.count())
	assert.Len(t, f.logs.all(), 2)
}

func TestDispatch_LogWriteFailureDoesNotPanic(t *testing.T) {
	f := newDispatchFixture(t, false)
	f.dir.addUser("u1", "")
	f.logs.err = errBoom
	f.addRule(&Rule{
		EventType:      EventJobOverdue,
		RecipientRoles: []string{RoleAssignedTechnician},
		Channels:       RuleChannels{InApp: true},
	})

	result := f.dispatcher.Dispatch(context.Background(), jobOverdueEvent())

	assert.Equal(t, PhaseLogged, result.Phase)
	assert.Len(t, f.notifications.all(), 1)
}

func TestDispatch_NilResolverResolvesNobody(t *testing.T) {
	f := newDispatchFixture(t, false)
	f.addRule(&Rule{
		EventType:      EventJobOverdue,
		RecipientRoles: []string{RoleAssignedTechnician},
		Channels:       RuleChannels{InApp: true},
	})
	d := NewDispatcher(DispatcherDeps{
		Rules:         f.rules,
		Notifications: f.notifications,
		Logs:          f.logs,
	}, DispatcherConfig{})

	var result *DispatchResult
	assert.NotPanics(t, func() {
		result = d.Dispatch(context.Background(), jobOverdueEvent())
	})
	assert.Equal(t, PhaseLogged, result.Phase)
}

// panicSender panics on every send.
type panicSender struct{}

func (panicSender) Configured() bool { return true }

func (panicSender) Send(context.Context, *EmailMessage) (string, error) {
	panic("provider sdk blew up")
}

// stallingSender blocks until the send context ends.
type stallingSender struct{}

func (stallingSender) Configured() bool { return true }

func (stallingSender) Send(ctx context.Context, _ *EmailMessage) (string, error) {
	<-ctx.Done()
	return "", ctx.Err()
}

// panicLogStore panics on every insert.
type panicLogStore struct{ memLogStore }

func (*panicLogStore) Insert(context.Context, *DeliveryLog) error {
	panic("log store blew up")
}

// rebuild replaces the fixture's dispatcher with one using email and cfg.
func (f *dispatchFixture) rebuild(email EmailSender, logs DeliveryLogStore, cfg DispatcherConfig) {
	f.dispatcher = NewDispatcher(DispatcherDeps{
		Rules:         f.rules,
		Resolver:      NewResolver(f.dir, nil),
		Composer:      NewComposer(),
		Gate:          NewPreferenceGate(f.prefs),
		Notifications: f.notifications,
		Logs:          logs,
		Email:         email,
		RateLimiter:   f.limiter,
	}, cfg)
}

func (f *dispatchFixture) addEmailRule() {
	f.addRule(&Rule{
		EventType:      EventJobOverdue,
		RecipientRoles: []string{RoleAssignedTechnician},
		Channels:       RuleChannels{InApp: true, Email: true},
	})
}

func TestDispatch_EmailSenderPanicIsRecorded(t *testing.T) {
	f := newDispatchFixture(t, true)
	f.dir.addUser("u1", "u1@example.com")
	f.addEmailRule()
	f.rebuild(panicSender{}, f.logs, DispatcherConfig{SendTimeout: time.Second})

	var result *DispatchResult
	require.NotPanics(t, func() {
		result = f.dispatcher.Dispatch(context.Background(), jobOverdueEvent())
	})

	assert.Equal(t, PhaseLogged, result.Phase)
	assert.Equal(t, 1, result.Failed)
	assert.Len(t, f.notifications.all(), 1)

	emailLogs := f.logs.byChannel(ChannelEmail)
	require.Contains(t, emailLogs, "u1")
	assert.Equal(t, DeliveryFailure, emailLogs["u1"].Status)
	assert.Contains(t, emailLogs["u1"].Error, "provider sdk blew up")
}

func TestDispatch_LogStorePanicIsContained(t *testing.T) {
	f := newDispatchFixture(t, true)
	f.dir.addUser("u1", "u1@example.com")
	f.addEmailRule()
	f.rebuild(f.email, &panicLogStore{}, DispatcherConfig{SendTimeout: time.Second})

	var result *DispatchResult
	require.NotPanics(t, func() {
		result = f.dispatcher.Dispatch(context.Background(), jobOverdueEvent())
	})

	assert.Equal(t, 1, result.Sent)
	assert.Zero(t, result.Logs)
	assert.Equal(t, 1, f.email.count())
}

func TestDispatch_StalledProviderIsCutOff(t *testing.T) {
	f := newDispatchFixture(t, true)
	f.dir.addUser("u1", "u1@example.com")
	f.addEmailRule()
	f.rebuild(stallingSender{}, f.logs, DispatcherConfig{SendTimeout: 50 * time.Millisecond})

	start := time.Now()
	result := f.dispatcher.Dispatch(context.Background(), jobOverdueEvent())

	assert.Less(t, time.Since(start), 5*time.Second)
	assert.Equal(t, 1, result.Failed)

	emailLogs := f.logs.byChannel(ChannelEmail)
	require.Contains(t, emailLogs, "u1")
	assert.Equal(t, DeliveryFailure, emailLogs["u1"].Status)
	assert.Contains(t, emailLogs["u1"].Error, context.DeadlineExceeded.Error())
}

func TestDispatch_EmailIntervalSpacesSends(t *testing.T) {
	f := newDispatchFixture(t, true)
	for _, id := range []string{"t1", "t2", "t3"} {
		f.dir.addUser(id, id+"@example.com")
	}
	f.addEmailRule()
	interval := 50 * time.Millisecond
	f.rebuild(f.email, f.logs, DispatcherConfig{EmailWorkers: 3, EmailInterval: interval, SendTimeout: time.Second})

	event := jobOverdueEvent()
	delete(event.Data, "assignedTechnicianId")
	event.Data["assignedTechnicianIds"] = []string{"t1", "t2", "t3"}

	start := time.Now()
	result := f.dispatcher.Dispatch(context.Background(), event)
	elapsed := time.Since(start)

	assert.Equal(t, 3, result.Sent)
	assert.Equal(t, 3, f.email.count())
	// The first send goes immediately, each later one waits an interval.
	assert.GreaterOrEqual(t, elapsed, 2*interval-10*time.Millisecond)
}
