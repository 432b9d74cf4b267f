package notification

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompose_MessagePassthrough(t *testing.T) {
	c := NewComposer()
	for _, eventType := range []string{EventJobOverdue, EventInvoiceOverdue90Days, "made_up_event", ""} {
		content := c.Compose(eventType, map[string]any{"message": "X"})
		assert.Equal(t, "X", content.Message, eventType)
		assert.Equal(t, "X", content.ShortMessage, eventType)
	}
}

func TestCompose_InvoiceOverdue30Days(t *testing.T) {
	content := NewComposer().Compose(EventInvoiceOverdue30Days, map[string]any{
		"entityName": "INV-100",
		"clientName": "Acme",
		"amount":     1200,
		"dueDate":    "2024-01-01",
	})

	assert.Equal(t, "Invoice 30 Days Overdue", content.Title)
	assert.Contains(t, content.Message, "30 days overdue")
	assert.Contains(t, content.Message, "INV-100")
	assert.Contains(t, content.Message, "Acme")
	assert.Contains(t, content.Message, "$1,200")
	assert.Equal(t,
		"Invoice INV-100 for Acme is now 30 days overdue. Amount due: $1,200.00 (due Jan 1, 2024).",
		content.Message)
	assert.Equal(t, CategoryInvoices, content.Category)
	assert.Equal(t, PriorityHigh, content.Priority)
	assert.Equal(t, EntityInvoice, content.RelatedEntityType)
	assert.Equal(t, "INV-100", content.RelatedEntityName)
}

func TestCompose_JobOverdue(t *testing.T) {
	content := NewComposer().Compose(EventJobOverdue, map[string]any{
		"entityName":  "Job #42",
		"entityId":    "j-42",
		"clientName":  "Acme Corp",
		"daysOverdue": 3,
	})

	assert.Equal(t, "Job Overdue", content.Title)
	assert.Equal(t, "Job #42 for Acme Corp is overdue by 3 days. Please update its status or reschedule.", content.Message)
	assert.Equal(t, "Job #42 is overdue by 3 days", content.ShortMessage)
	assert.Equal(t, "/jobs/j-42", content.ActionURL)
}

func TestCompose_OptionalSegmentsDropOut(t *testing.T) {
	content := NewComposer().Compose(EventJobOverdue, map[string]any{"daysOverdue": 1})
	assert.Equal(t, "A job is overdue by 1 day. Please update its status or reschedule.", content.Message)
}

func TestCompose_Idempotent(t *testing.T) {
	c := NewComposer()
	data := map[string]any{
		"entityName": "INV-7",
		"entityId":   "inv 7",
		"clientName": "Globex",
		"amount":     "99.5",
		"dueDate":    "2024-02-29T10:00:00Z",
	}

	first := c.Compose(EventInvoiceOverdue60Days, data)
	second := c.Compose(EventInvoiceOverdue60Days, data)
	assert.Equal(t, first, second)
}

func TestCompose_ActionURL(t *testing.T) {
	c := NewComposer()

	tests := []struct {
		name      string
		eventType string
		data      map[string]any
		want      string
	}{
		{"explicit wins", EventJobOverdue, map[string]any{"actionUrl": "/custom", "entityId": "j1"}, "/custom"},
		{"descriptor entity type", EventJobOverdue, map[string]any{"entityId": "j1"}, "/jobs/j1"},
		{"payload entity type", "made_up", map[string]any{"relatedEntityType": EntityVehicle, "relatedEntityId": "v9"}, "/fleet/vehicles/v9"},
		{"unknown entity type", "made_up", map[string]any{"entityType": "spaceship", "entityId": "s1"}, "/dashboard"},
		{"missing id", EventJobOverdue, map[string]any{}, ""},
		{"missing type", "made_up", map[string]any{"entityId": "x"}, ""},
		{"id is escaped", EventInvoiceSent, map[string]any{"entityId": "a/b c"}, "/invoices/a%2Fb%20c"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, c.Compose(tt.eventType, tt.data).ActionURL)
		})
	}
}

func TestCompose_UnknownEventType(t *testing.T) {
	content := NewComposer().Compose("vehicle_recall_notice", map[string]any{"entityName": "Truck 12"})

	assert.Equal(t, "Vehicle Recall Notice", content.Title)
	assert.Equal(t, "You have a new notification regarding Truck 12.", content.Message)
	assert.Equal(t, CategorySystem, content.Category)
	assert.Equal(t, PriorityNormal, content.Priority)
}

func TestCompose_Overrides(t *testing.T) {
	content := NewComposer().Compose(EventJobOverdue, map[string]any{
		"title":    "Heads up",
		"category": "fleet",
		"priority": "urgent",
	})
	assert.Equal(t, "Heads up", content.Title)
	assert.Equal(t, "fleet", content.Category)
	assert.Equal(t, PriorityUrgent, content.Priority)

	// Unknown priorities are ignored
	content = NewComposer().Compose(EventJobOverdue, map[string]any{"priority": "whenever"})
	assert.Equal(t, PriorityHigh, content.Priority)
}

func TestCompose_ShortMessageTruncated(t *testing.T) {
	long := strings.Repeat("word ", 40)
	content := NewComposer().Compose(EventSystemAnnouncement, map[string]any{"message": long})

	assert.LessOrEqual(t, len([]rune(content.ShortMessage)), shortMessageLimit)
	assert.True(t, strings.HasSuffix(content.ShortMessage, "..."))
	assert.Equal(t, strings.TrimSpace(long), content.Message)
}

func TestTemplates_AllRenderCleanly(t *testing.T) {
	full := map[string]any{
		"entityName":    "ENT-1",
		"entityId":      "e1",
		"clientName":    "Acme",
		"amount":        250.75,
		"dueDate":       "2024-05-01",
		"scheduledDate": "2024-05-02T08:00:00Z",
		"daysOverdue":   5,
		"daysAfter":     5,
		"daysBefore":    2,
		"daysUntilDue":  2,
		"stockLevel":    3,
		"quantity":      3,
		"percentage":    80,
		"status":        "in_progress",
		"reason":        "weather",
		"address":       "1 Main St",
		"employeeName":  "Sam",
		"vehicleName":   "Truck 7",
		"itemName":      "Copper pipe",
		"propertyName":  "Elm House",
		"period":        "Week 12",
		"userName":      "Sam",
	}

	c := NewComposer()
	require.NotEmpty(t, eventTemplates)
	for eventType, desc := range eventTemplates {
		for name, data := range map[string]map[string]any{"full": full, "empty": {}} {
			content := c.Compose(eventType, data)
			assert.NotEmpty(t, content.Title, "%s/%s", eventType, name)
			assert.NotContains(t, content.Message, "{", "%s/%s", eventType, name)
			assert.NotContains(t, content.Message, "}", "%s/%s", eventType, name)
			assert.NotContains(t, content.ShortMessage, "{", "%s/%s", eventType, name)
			assert.NotEmpty(t, desc.Category, eventType)
			assert.True(t, validPriorities[desc.Priority], eventType)
		}
		assert.NotEmpty(t, c.Compose(eventType, full).Message, eventType)
	}
}

func TestFormatField(t *testing.T) {
	data := map[string]any{"n": -12.5, "one": 1, "big": 1234567, "pct": 12.5, "d": "2024-03-05 14:00:00", "junk": "soon"}

	got, ok := formatField(data, "n", "currency")
	assert.True(t, ok)
	assert.Equal(t, "-$12.50", got)

	got, _ = formatField(data, "one", "days")
	assert.Equal(t, "1 day", got)

	got, _ = formatField(data, "big", "number")
	assert.Equal(t, "1,234,567", got)

	got, _ = formatField(data, "pct", "percent")
	assert.Equal(t, "12.5%", got)

	got, _ = formatField(data, "d", "date")
	assert.Equal(t, "Mar 5, 2024", got)

	got, ok = formatField(data, "junk", "date")
	assert.True(t, ok)
	assert.Equal(t, "soon", got)

	_, ok = formatField(data, "junk", "currency")
	assert.False(t, ok)

	_, ok = formatField(data, "missing", "")
	assert.False(t, ok)
}
