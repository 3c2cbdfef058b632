// internal/templates/formatter.go
package templates

import "time"

// Formatter produces the outbound reminder text for a card. Pure and
// deterministic; dates render as the UTC calendar date only.
type Formatter struct {
	registry *Registry
}

func NewFormatter(registry *Registry) *Formatter {
	return &Formatter{registry: registry}
}

// FormatReminder builds the reminder addressed to recipientName. The
// customer-contact sentence appears only when contactNumber is non-empty.
func (f *Formatter) FormatReminder(recipientName string, dueAt time.Time, contactNumber string) (string, error) {
	data := map[string]interface{}{
		"recipientName": recipientName,
		"dueDate":       dueAt.UTC().Format("2006-01-02"),
	}

	templateID := TemplateAppointmentReminder
	if contactNumber != "" {
		templateID = TemplateAppointmentReminderContact
		data["contactNumber"] = contactNumber
	}

	return f.registry.Render(templateID, data)
}
