// internal/templates/registry.go
package templates

import (
	"fmt"
	"strings"

	stderrors "vcard-reminder/internal/common/errors"

	"github.com/xeipuuv/gojsonschema"
)

// Template pairs a message body with the JSON schema its render data must
// satisfy. Placeholders use {{name}} syntax.
type Template struct {
	ID     string
	Body   string
	Schema map[string]interface{}
}

// Registry holds the known message templates.
type Registry struct {
	templates map[string]Template
}

const (
	// TemplateAppointmentReminder is the reminder sent to the assigned staff
	// member when a card comes due.
	TemplateAppointmentReminder = "appointment-reminder"

	// TemplateAppointmentReminderContact extends the base reminder with the
	// customer's contact number.
	TemplateAppointmentReminderContact = "appointment-reminder-contact"
)

// NewRegistry returns a registry preloaded with the reminder templates.
func NewRegistry() *Registry {
	reminderSchema := map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"recipientName": map[string]interface{}{"type": "string", "minLength": 1},
			"dueDate":       map[string]interface{}{"type": "string", "minLength": 1},
		},
		"required": []interface{}{"recipientName", "dueDate"},
	}

	contactSchema := map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"recipientName": map[string]interface{}{"type": "string", "minLength": 1},
			"dueDate":       map[string]interface{}{"type": "string", "minLength": 1},
			"contactNumber": map[string]interface{}{"type": "string", "minLength": 1},
		},
		"required": []interface{}{"recipientName", "dueDate", "contactNumber"},
	}

	return &Registry{
		templates: map[string]Template{
			TemplateAppointmentReminder: {
				ID:     TemplateAppointmentReminder,
				Body:   "Dear *{{recipientName}}*,\n\nThis is a reminder that your appointment is scheduled on *{{dueDate}}*.",
				Schema: reminderSchema,
			},
			TemplateAppointmentReminderContact: {
				ID:     TemplateAppointmentReminderContact,
				Body:   "Dear *{{recipientName}}*,\n\nThis is a reminder that your appointment is scheduled on *{{dueDate}}*.\n\nCustomer contact number is {{contactNumber}}.",
				Schema: contactSchema,
			},
		},
	}
}

// Render validates data against the template's schema and substitutes the
// placeholders.
func (r *Registry) Render(templateID string, data map[string]interface{}) (string, error) {
	tmpl, ok := r.templates[templateID]
	if !ok {
		return "", stderrors.NewTemplateNotFoundError(templateID)
	}

	schemaLoader := gojsonschema.NewGoLoader(tmpl.Schema)
	documentLoader := gojsonschema.NewGoLoader(data)

	result, err := gojsonschema.Validate(schemaLoader, documentLoader)
	if err != nil {
		return "", fmt.Errorf("schema validation: %w", err)
	}
	if !result.Valid() {
		details := make([]string, 0, len(result.Errors()))
		for _, desc := range result.Errors() {
			details = append(details, desc.String())
		}
		return "", stderrors.NewTemplateValidationFailedError(strings.Join(details, "; "))
	}

	return render(tmpl.Body, data), nil
}

func render(tmpl string, data map[string]interface{}) string {
	result := tmpl
	for k, v := range data {
		placeholder := "{{" + k + "}}"
		value := ""
		if s, ok := v.(string); ok {
			value = s
		} else if v != nil {
			value = fmt.Sprintf("%v", v)
		}
		result = strings.ReplaceAll(result, placeholder, value)
	}
	return result
}
