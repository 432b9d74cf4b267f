package notification

import (
	"math"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

const (
	shortMessageLimit = 100
	dashboardURL      = "/dashboard"
)

// segment is one clause of a message template. It renders only when every
// placeholder it references is present; otherwise fallback is used, which
// may itself be empty.
type segment struct {
	text     string
	fallback string
}

func seg(text string) segment { return segment{text: text} }
func segOr(text, fallback string) segment { return segment{text: text, fallback: fallback} }

// templateDescriptor describes how one event type is rendered.
type templateDescriptor struct {
	Title      string
	Segments   []segment
	Short      []segment
	Category   string
	Priority   Priority
	EntityType string
}

var placeholderRe = regexp.MustCompile(`\{(\w+)(?:\|(\w+))?\}`)

// Composer renders notification content from an event. It has no I/O.
type Composer struct {
	templates map[string]templateDescriptor
	routes    map[string]string
}

// NewComposer creates a composer over the built-in template and route tables.
func NewComposer() *Composer {
	return &Composer{templates: eventTemplates, routes: entityRoutes}
}

// Compose renders the title, messages and action URL for an event.
func (c *Composer) Compose(eventType string, data map[string]any) Content {
	desc, known := c.templates[eventType]

	content := Content{
		Category: desc.Category,
		Priority: desc.Priority,
	}
	if content.Category == "" {
		content.Category = CategorySystem
	}
	if content.Priority == "" {
		content.Priority = PriorityNormal
	}
	if category, ok := stringField(data, "category"); ok {
		content.Category = category
	}
	if p, ok := stringField(data, "priority"); ok && validPriorities[Priority(p)] {
		content.Priority = Priority(p)
	}

	switch title, ok := stringField(data, "title"); {
	case ok:
		content.Title = title
	case known:
		content.Title = desc.Title
	default:
		content.Title = humanize(eventType)
	}

	if msg, ok := stringField(data, "message"); ok {
		content.Message = msg
		if short, ok := stringField(data, "shortMessage"); ok {
			content.ShortMessage = short
		} else {
			content.ShortMessage = truncate(msg, shortMessageLimit)
		}
	} else {
		segments := desc.Segments
		if !known {
			segments = genericSegments
		}
		content.Message = render(segments, data)
		if len(desc.Short) > 0 {
			content.ShortMessage = truncate(render(desc.Short, data), shortMessageLimit)
		} else {
			content.ShortMessage = truncate(content.Message, shortMessageLimit)
		}
	}

	content.RelatedEntityType, _ = stringField(data, "relatedEntityType", "entityType")
	if content.RelatedEntityType == "" {
		content.RelatedEntityType = desc.EntityType
	}
	content.RelatedEntityID, _ = stringField(data, "relatedEntityId", "entityId")
	content.RelatedEntityName, _ = stringField(data, "relatedEntityName", "entityName")

	if actionURL, ok := stringField(data, "actionUrl"); ok {
		content.ActionURL = actionURL
	} else {
		content.ActionURL = c.actionURL(content.RelatedEntityType, content.RelatedEntityID)
	}

	return content
}

// actionURL builds the in-app link for an entity. Missing type or id yields
// no link; unknown types link to the dashboard.
func (c *Composer) actionURL(entityType, entityID string) string {
	if entityType == "" || entityID == "" {
		return ""
	}
	route, ok := c.routes[entityType]
	if !ok {
		return dashboardURL
	}
	return strings.ReplaceAll(route, "{id}", url.PathEscape(entityID))
}

// render concatenates the segments whose placeholders can all be filled.
func render(segments []segment, data map[string]any) string {
	var b strings.Builder
	for _, s := range segments {
		if out, ok := fill(s.text, data); ok {
			b.WriteString(out)
		} else if s.fallback != "" {
			if out, ok := fill(s.fallback, data); ok {
				b.WriteString(out)
			}
		}
	}
	return strings.TrimSpace(b.String())
}

// fill substitutes placeholders in text. It reports false when any
// placeholder has no usable value.
func fill(text string, data map[string]any) (string, bool) {
	complete := true
	out := placeholderRe.ReplaceAllStringFunc(text, func(match string) string {
		parts := placeholderRe.FindStringSubmatch(match)
		value, ok := formatField(data, parts[1], parts[2])
		if !ok {
			complete = false
			return ""
		}
		return value
	})
	return out, complete
}

func formatField(data map[string]any, field, formatter string) (string, bool) {
	switch formatter {
	case "":
		return stringField(data, field)
	case "date":
		return formatDate(data, field)
	}

	v, present, err := numberField(data, field)
	if !present || err != nil {
		return "", false
	}

	p := message.NewPrinter(language.English)
	switch formatter {
	case "currency":
		if v < 0 {
			return p.Sprintf("-$%.2f", -v), true
		}
		return p.Sprintf("$%.2f", v), true
	case "days":
		n := int(math.Round(v))
		if n == 1 || n == -1 {
			return p.Sprintf("%d day", n), true
		}
		return p.Sprintf("%d days", n), true
	case "percent":
		return strconv.FormatFloat(v, 'f', -1, 64) + "%", true
	case "number":
		if v == math.Trunc(v) {
			return p.Sprintf("%d", int64(v)), true
		}
		return p.Sprintf("%.2f", v), true
	default:
		return "", false
	}
}

var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	time.DateOnly,
}

// formatDate renders a date as "Jan 2, 2006". Unparseable strings are used
// as given.
func formatDate(data map[string]any, field string) (string, bool) {
	v, ok := lookup(data, field)
	if !ok {
		return "", false
	}
	if t, ok := v.(time.Time); ok {
		return t.Format("Jan 2, 2006"), true
	}

	s := stringify(v)
	if s == "" {
		return "", false
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Format("Jan 2, 2006"), true
		}
	}
	return s, true
}

// truncate shortens s to at most limit runes, ending in "..." when cut.
func truncate(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return strings.TrimRight(string(runes[:limit-3]), " ") + "..."
}

// humanize turns "vehicle_recall_notice" into "Vehicle Recall Notice".
func humanize(eventType string) string {
	words := strings.Fields(strings.NewReplacer("_", " ", "-", " ", ".", " ").Replace(eventType))
	if len(words) == 0 {
		return "Notification"
	}
	return cases.Title(language.English).String(strings.Join(words, " "))
}
