package notification

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"
)

// fakeDirectory is an in-memory Directory.
type fakeDirectory struct {
	mu          sync.Mutex
	users       map[string]Recipient
	roles       map[string][]string // stored role name -> user ids
	supervisors map[string]string   // user id -> supervisor user id
	employees   map[string]Employee // employee id -> record
	clients     map[string]string
	departments map[string]string

	roleErr  error
	batchErr error
	superErr map[string]error
	calls    []string
}

func newFakeDirectory() *fakeDirectory {
	return &fakeDirectory{
		users:       make(map[string]Recipient),
		roles:       make(map[string][]string),
		supervisors: make(map[string]string),
		employees:   make(map[string]Employee),
		clients:     make(map[string]string),
		departments: make(map[string]string),
		superErr:    make(map[string]error),
	}
}

func (d *fakeDirectory) addUser(id, email string) {
	d.users[id] = Recipient{ID: id, Email: email, FullName: "User " + id}
}

func (d *fakeDirectory) record(call string) {
	d.mu.Lock()
	d.calls = append(d.calls, call)
	d.mu.Unlock()
}

func (d *fakeDirectory) ListActiveUsersByRole(_ context.Context, roleName string) ([]Recipient, error) {
	d.record("role:" + roleName)
	if d.roleErr != nil {
		return nil, d.roleErr
	}
	var out []Recipient
	for _, id := range d.roles[roleName] {
		out = append(out, Recipient{ID: id})
	}
	return out, nil
}

func (d *fakeDirectory) GetEmployeeByID(_ context.Context, id string) (*Employee, error) {
	d.record("employee:" + id)
	e, ok := d.employees[id]
	if !ok {
		return nil, nil
	}
	return &e, nil
}

func (d *fakeDirectory) GetDirectSupervisor(_ context.Context, userID string) (string, error) {
	d.record("supervisor:" + userID)
	if err := d.superErr[userID]; err != nil {
		return "", err
	}
	return d.supervisors[userID], nil
}

func (d *fakeDirectory) ListActiveEmployees(context.Context) ([]Employee, error) {
	d.record("employees")
	var out []Employee
	for _, e := range d.employees {
		out = append(out, e)
	}
	slices.SortFunc(out, func(a, b Employee) int {
		if a.ID < b.ID {
			return -1
		}
		if a.ID > b.ID {
			return 1
		}
		return 0
	})
	return out, nil
}

func (d *fakeDirectory) GetClientUserID(_ context.Context, clientID string) (string, error) {
	d.record("client:" + clientID)
	return d.clients[clientID], nil
}

func (d *fakeDirectory) GetDepartmentManager(_ context.Context, departmentID string) (string, error) {
	d.record("department:" + departmentID)
	return d.departments[departmentID], nil
}

func (d *fakeDirectory) GetUsersByIDs(_ context.Context, ids []string) ([]Recipient, error) {
	d.record(fmt.Sprintf("users:%d", len(ids)))
	if d.batchErr != nil {
		return nil, d.batchErr
	}
	var out []Recipient
	for _, id := range ids {
		if u, ok := d.users[id]; ok {
			out = append(out, u)
		}
	}
	return out, nil
}

// memRuleStore is an in-memory RuleStore.
type memRuleStore struct {
	mu      sync.Mutex
	rules   []*Rule
	listErr error
	seq     int
}

func (s *memRuleStore) ListEnabled(_ context.Context, eventType string) ([]*Rule, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listErr != nil {
		return nil, s.listErr
	}
	var out []*Rule
	for _, r := range s.rules {
		if r.EventType == eventType && r.Enabled {
			out = append(out, r)
		}
	}
	return out, nil
}

func (s *memRuleStore) List(_ context.Context, eventType string) ([]*Rule, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*Rule
	for _, r := range s.rules {
		if eventType == "" || r.EventType == eventType {
			out = append(out, r)
		}
	}
	return out, nil
}

func (s *memRuleStore) Get(_ context.Context, id string) (*Rule, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range s.rules {
		if r.ID == id {
			return r, nil
		}
	}
	return nil, nil
}

func (s *memRuleStore) Create(_ context.Context, rule *Rule) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seq++
	rule.ID = fmt.Sprintf("rule-%d", s.seq)
	rule.CreatedAt = time.Now()
	rule.UpdatedAt = rule.CreatedAt
	s.rules = append(s.rules, rule)
	return nil
}

func (s *memRuleStore) Update(_ context.Context, rule *Rule) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, r := range s.rules {
		if r.ID == rule.ID {
			s.rules[i] = rule
			return true, nil
		}
	}
	return false, nil
}

func (s *memRuleStore) Delete(_ context.Context, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, r := range s.rules {
		if r.ID == id {
			s.rules = slices.Delete(s.rules, i, i+1)
			return true, nil
		}
	}
	return false, nil
}

// memNotificationStore is an in-memory NotificationStore.
type memNotificationStore struct {
	mu        sync.Mutex
	items     []*Notification
	insertErr map[string]error
	seq       int
}

func newMemNotificationStore() *memNotificationStore {
	return &memNotificationStore{insertErr: make(map[string]error)}
}

func (s *memNotificationStore) Insert(_ context.Context, n *Notification) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.insertErr[n.UserID]; err != nil {
		return err
	}
	s.seq++
	n.ID = fmt.Sprintf("n-%d", s.seq)
	n.CreatedAt = time.Now()
	cp := *n
	s.items = append(s.items, &cp)
	return nil
}

func (s *memNotificationStore) all() []*Notification {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.items)
}

func (s *memNotificationStore) visible(userID string) []*Notification {
	var out []*Notification
	for _, n := range s.items {
		if n.UserID == userID && n.DeletedAt == nil {
			out = append(out, n)
		}
	}
	return out
}

func (s *memNotificationStore) List(_ context.Context, userID string, filter ListFilter) ([]*Notification, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var matched []*Notification
	for _, n := range s.visible(userID) {
		if filter.UnreadOnly && n.Read {
			continue
		}
		if filter.Category != "" && n.Category != filter.Category {
			continue
		}
		matched = append(matched, n)
	}
	from := (filter.Page - 1) * filter.PageSize
	if from > len(matched) {
		from = len(matched)
	}
	to := min(from+filter.PageSize, len(matched))
	return matched[from:to], len(matched), nil
}

func (s *memNotificationStore) UnreadCount(_ context.Context, userID string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	count := 0
	for _, n := range s.visible(userID) {
		if !n.Read {
			count++
		}
	}
	return count, nil
}

func (s *memNotificationStore) MarkRead(_ context.Context, userID, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, n := range s.visible(userID) {
		if n.ID == id {
			now := time.Now()
			n.Read = true
			n.ReadAt = &now
			return true, nil
		}
	}
	return false, nil
}

func (s *memNotificationStore) MarkAllRead(_ context.Context, userID string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	count := 0
	for _, n := range s.visible(userID) {
		if !n.Read {
			n.Read = true
			count++
		}
	}
	return count, nil
}

func (s *memNotificationStore) SoftDelete(_ context.Context, userID, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, n := range s.visible(userID) {
		if n.ID == id {
			now := time.Now()
			n.DeletedAt = &now
			return true, nil
		}
	}
	return false, nil
}

func (s *memNotificationStore) Stats(_ context.Context, userID string) (*Stats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	stats := &Stats{ByCategory: make(map[string]int)}
	for _, n := range s.visible(userID) {
		stats.Total++
		if !n.Read {
			stats.Unread++
		}
		stats.ByCategory[n.Category]++
	}
	return stats, nil
}

// memLogStore is an in-memory DeliveryLogStore.
type memLogStore struct {
	mu   sync.Mutex
	logs []*DeliveryLog
	err  error
}

func (s *memLogStore) Insert(_ context.Context, log *DeliveryLog) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	cp := *log
	cp.ID = fmt.Sprintf("log-%d", len(s.logs)+1)
	s.logs = append(s.logs, &cp)
	return nil
}

func (s *memLogStore) List(_ context.Context, filter DeliveryLogFilter) ([]*DeliveryLog, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*DeliveryLog
	for _, l := range s.logs {
		if filter.Status != "" && string(l.Status) != filter.Status {
			continue
		}
		out = append(out, l)
	}
	return out, len(out), nil
}

func (s *memLogStore) all() []*DeliveryLog {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.logs)
}

// byChannel returns the logs of one channel keyed by recipient.
func (s *memLogStore) byChannel(ch Channel) map[string]*DeliveryLog {
	out := make(map[string]*DeliveryLog)
	for _, l := range s.all() {
		if l.Channel == ch {
			out[l.RecipientID] = l
		}
	}
	return out
}

// memPrefStore is an in-memory PreferenceStore.
type memPrefStore struct {
	mu    sync.Mutex
	prefs map[string]bool
	err   error
}

func newMemPrefStore() *memPrefStore {
	return &memPrefStore{prefs: make(map[string]bool)}
}

func prefKey(userID, category string, channel Channel) string {
	return userID + "|" + category + "|" + string(channel)
}

func (s *memPrefStore) GetPreference(_ context.Context, userID, category string, channel Channel) (*bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	v, ok := s.prefs[prefKey(userID, category, channel)]
	if !ok {
		return nil, nil
	}
	return &v, nil
}

func (s *memPrefStore) ListPreferences(_ context.Context, userID string) ([]*Preference, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*Preference
	for k, v := range s.prefs {
		parts := strings.SplitN(k, "|", 3)
		if parts[0] != userID {
			continue
		}
		out = append(out, &Preference{UserID: parts[0], Category: parts[1], Channel: Channel(parts[2]), Enabled: v})
	}
	return out, nil
}

func (s *memPrefStore) UpsertPreference(_ context.Context, p *Preference) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.prefs[prefKey(p.UserID, p.Category, p.Channel)] = p.Enabled
	return nil
}

// fakeSender records sent emails.
type fakeSender struct {
	mu         sync.Mutex
	configured bool
	sent       []*EmailMessage
	failFor    map[string]error
}

func (s *fakeSender) Configured() bool { return s.configured }

func (s *fakeSender) Send(_ context.Context, msg *EmailMessage) (string, error) {
	if !s.configured {
		return "", ErrEmailNotConfigured
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.failFor[msg.To]; err != nil {
		return "", err
	}
	s.sent = append(s.sent, msg)
	return fmt.Sprintf("msg-%d", len(s.sent)), nil
}

func (s *fakeSender) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sent)
}

// denyLimiter rejects the listed users.
type denyLimiter struct {
	deny map[string]bool
	err  error
}

func (l *denyLimiter) Allow(_ context.Context, userID string) (bool, error) {
	if l.err != nil {
		return false, l.err
	}
	return !l.deny[userID], nil
}

var errBoom = errors.New("boom")

func ptr[T any](v T) *T { return &v }
