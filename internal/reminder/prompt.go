package reminder

import (
	"strings"
	"text/template"
)

// MaxWords bounds the length of a generated reminder.
const MaxWords = 100

// The instructions line is left out entirely when there are none, so the
// model never sees a placeholder it could echo back.
var promptTemplate = template.Must(template.New("reminder").Parse(
	`You are a helpful assistant that writes personalized appointment reminder messages for patients.

Appointment details:
Patient name: {{.PatientName}}
Date and time: {{.AppointmentDateTime}}
Location: {{.Location}}
{{- with .SpecialInstructions}}
Special instructions: {{.}}
{{- end}}

Write a friendly and informative reminder addressed to the patient.
Tailor it to the details above. Use at most {{.MaxWords}} words.
Reply with the message text only.
`))

type promptData struct {
	Request
	MaxWords int
}

func renderPrompt(req Request) (string, error) {
	var b strings.Builder
	if err := promptTemplate.Execute(&b, promptData{Request: req, MaxWords: MaxWords}); err != nil {
		return "", err
	}
	return b.String(), nil
}
