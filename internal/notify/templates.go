package notify

import (
	"bytes"
	"fmt"
	"text/template"
)

const (
	confirmationSubject = `Your appointment for {{.ServiceName}} is confirmed`
	confirmationBody    = `Hello {{.Patient}},

Your appointment for {{.ServiceName}} is confirmed.
Please visit us on {{.AppointmentDate}} at {{.Slot}}.

{{.ClinicName}}
`
	receiptSubject = `Payment received for {{.ServiceName}}`
	receiptBody    = `Hello,

We have received your payment of {{.Amount}} for {{.ServiceName}} on {{.AppointmentDate}}.
Transaction: {{.TransactionID}}

{{.ClinicName}}
`
)

// render compiles tmpl with strict missing-key semantics so a renamed field
// fails loudly instead of mailing "<no value>".
func render(name, tmpl string, data any) (string, error) {
	t, err := template.New(name).Option("missingkey=error").Parse(tmpl)
	if err != nil {
		return "", fmt.Errorf("notify: parse %s: %w", name, err)
	}
	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("notify: execute %s: %w", name, err)
	}
	return buf.String(), nil
}
