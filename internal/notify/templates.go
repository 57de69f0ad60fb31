package notify

import (
	"bytes"
	"fmt"
	"html/template"
	"time"

	"signmeup/internal/model"
)

const eventDetails = `{{define "event"}}<ul>
  <li><strong>Title:</strong> {{.Title}}</li>
  <li><strong>Date:</strong> {{formatDate .Date}}</li>
  <li><strong>Location:</strong> {{.Location}}</li>
  <li><strong>Description:</strong> {{.Description}}</li>
</ul>{{end}}`

var templates = template.Must(template.New("mail").
	Funcs(template.FuncMap{
		"formatDate": func(t time.Time) string { return t.Format("Mon, Jan 2 2006 at 15:04 MST") },
	}).
	Parse(eventDetails +
		`{{define "welcome"}}<h1>Welcome to SignMeUp, {{.Name}}!</h1>
<p>Your account has been created successfully. Happy volunteering!</p>{{end}}` +
		`{{define "signup"}}<h1>You're Signed Up!</h1>
<p>Hi {{.Name}},</p>
<p>You have successfully signed up for the event:</p>
{{template "event" .Event}}
<p>Thank you for volunteering!</p>{{end}}` +
		`{{define "cancel"}}<h1>Signup Canceled</h1>
<p>Hi {{.Name}},</p>
<p>You have successfully canceled your signup for the event:</p>
{{template "event" .Event}}
<p>We hope to see you at another event soon!</p>{{end}}` +
		`{{define "update"}}<h1>Event Updated</h1>
<p>Hi {{.Name}},</p>
<p>The event you signed up for has been updated:</p>
{{template "event" .Event}}
<p>Please check the event details and plan accordingly.</p>{{end}}`))

type templateData struct {
	Name  string
	Event *model.Event
}

func render(name, to, subject string, data templateData) (Message, error) {
	var buf bytes.Buffer
	if err := templates.ExecuteTemplate(&buf, name, data); err != nil {
		return Message{}, fmt.Errorf("render %s email: %w", name, err)
	}
	return Message{To: to, Subject: subject, HTML: buf.String()}, nil
}

// WelcomeEmail greets a newly registered user.
func WelcomeEmail(name, email string) (Message, error) {
	return render("welcome", email, "Welcome to SignMeUp", templateData{Name: name})
}

// SignupEmail confirms a signup.
func SignupEmail(name, email string, event *model.Event) (Message, error) {
	return render("signup", email, "You're signed up: "+event.Title, templateData{Name: name, Event: event})
}

// CancelEmail confirms a cancelled signup.
func CancelEmail(name, email string, event *model.Event) (Message, error) {
	return render("cancel", email, "Signup canceled: "+event.Title, templateData{Name: name, Event: event})
}

// EventUpdatedEmail tells an attendee that an event changed.
func EventUpdatedEmail(name, email string, event *model.Event) (Message, error) {
	return render("update", email, "Event updated: "+event.Title, templateData{Name: name, Event: event})
}
