// internal/mailer/catalog.go
package mailer

import (
	"notification-dispatcher/internal/common/errors"
	"notification-dispatcher/internal/models"
)

const defaultSender = `"Tutorify Team" <no-reply@tutorify.site>`

// Template is one entry of the notification catalog. Subject and Body
// carry {{placeholder}} markers filled from the instruction context.
type Template struct {
	ID          string
	From        string
	Subject     string
	Body        string
	Attachments []models.Attachment
}

// Catalog maps template IDs to their specs. It is built once at
// startup and never mutated afterwards.
type Catalog struct {
	templates map[string]Template
}

// NewCatalog builds the catalog. When a logo attachment is given it is
// prepended to every template's default attachments so each outgoing
// mail carries the brand image.
func NewCatalog(logo *models.Attachment) *Catalog {
	entries := []Template{
		{
			ID:      "tutor-application-received",
			Subject: "We have received your tutor application",
			Body: `<p>Hi {{name}},</p>
<p>Thank you for applying to become a tutor on Tutorify. Our team will review your application and get back to you shortly.</p>`,
		},
		{
			ID:      "tutor-approved",
			Subject: "Your tutor application has been approved",
			Body: `<p>Hi {{name}},</p>
<p>Congratulations! Your tutor application has been approved. You can now create classes and accept tutoring requests.</p>`,
		},
		{
			ID:      "tutor-rejected",
			Subject: "Update on your tutor application",
			Body: `<p>Hi {{name}},</p>
<p>We are sorry to inform you that your tutor application was not approved at this time.</p>`,
		},
		{
			ID:      "session-created",
			Subject: "New session scheduled for {{classTitle}}",
			Body: `<p>Hi {{name}},</p>
<p>A new session <b>{{sessionTitle}}</b> of your class <b>{{classTitle}}</b> has been scheduled from {{startTime}} to {{endTime}}, along with {{numOfOtherSessions}} other sessions.</p>
<p>Scheduled on {{createdAt}}.</p>
<p><a href="{{url}}">View your sessions</a></p>`,
		},
		{
			ID:      "sessions-created-batch",
			Subject: "Sessions scheduled for {{classTitle}}",
			Body: `<p>Hi {{name}},</p>
<p>New sessions have been scheduled for your class <b>{{classTitle}}</b>, starting with <b>{{sessionTitle}}</b> from {{startTime}} to {{endTime}}. A calendar file with all occurrences is attached.</p>
<p><a href="{{url}}">View your sessions</a></p>`,
		},
		{
			ID:      "session-cancelled",
			Subject: "Session {{sessionTitle}} has been cancelled",
			Body: `<p>Hi {{name}},</p>
<p>The session <b>{{sessionTitle}}</b> scheduled at {{startTime}} has been cancelled.</p>
<p><a href="{{url}}">View session details</a></p>`,
		},
		{
			ID:      "session-feedback-updated",
			Subject: "New feedback on session {{sessionTitle}}",
			Body: `<p>Hi {{name}},</p>
<p>Your tutor has updated the feedback for session <b>{{sessionTitle}}</b>:</p>
<blockquote>{{feedback}}</blockquote>
<p><a href="{{url}}">View session details</a></p>`,
		},
		{
			ID:      "tutoring-request-created",
			Subject: "You have a new tutoring request",
			Body: `<p>Hi {{name}},</p>
<p>A student has designated you for the class <b>{{classTitle}}</b>.</p>
<p><a href="{{url}}">Review the request</a></p>`,
		},
		{
			ID:      "class-application-created",
			Subject: "A tutor has applied to your class",
			Body: `<p>Hi {{name}},</p>
<p><a href="{{tutorUrl}}">{{tutorName}}</a> has applied to teach your class <b>{{classTitle}}</b>.</p>
<p><a href="{{url}}">Review the application</a></p>`,
		},
		{
			ID:      "tutoring-request-accepted",
			Subject: "Your tutoring request has been accepted",
			Body: `<p>Hi {{name}},</p>
<p><b>{{tutorName}}</b> has accepted your request for class <b>{{classTitle}}</b>.</p>
<p><a href="{{url}}">View your class</a> or <a href="{{myClassesUrl}}">see all your classes</a>.</p>`,
		},
		{
			ID:      "class-application-accepted",
			Subject: "Your class application has been accepted",
			Body: `<p>Hi {{name}},</p>
<p>Your application for class <b>{{classTitle}}</b> has been accepted.</p>
<p><a href="{{url}}">View your classes</a></p>`,
		},
		{
			ID:      "email-confirmation",
			Subject: "Confirm your Tutorify account",
			Body: `<p>Hi {{name}},</p>
<p>Welcome to Tutorify! Please confirm your email address by clicking the link below.</p>
<p><a href="{{url}}">Confirm your email</a></p>`,
		},
		{
			ID:      "reset-password",
			Subject: "Reset your Tutorify password",
			Body: `<p>Hi {{name}},</p>
<p>We received a request to reset your password. Click the link below to choose a new one.</p>
<p><a href="{{url}}">Reset password</a></p>`,
		},
		{
			ID:      "send-new-password",
			Subject: "Your new Tutorify password",
			Body: `<p>Hi {{name}},</p>
<p>Your password has been reset. Your new password is: <b>{{newPassword}}</b></p>
<p>Please change it after your next login.</p>`,
		},
	}

	templates := make(map[string]Template, len(entries))
	for _, e := range entries {
		if e.From == "" {
			e.From = defaultSender
		}
		if logo != nil {
			e.Attachments = append([]models.Attachment{*logo}, e.Attachments...)
		}
		templates[e.ID] = e
	}

	return &Catalog{templates: templates}
}

// Lookup returns the template for the given ID.
func (c *Catalog) Lookup(id string) (Template, error) {
	tmpl, ok := c.templates[id]
	if !ok {
		return Template{}, errors.NewTemplateNotFoundError(id)
	}
	return tmpl, nil
}

// Validate checks that every required template ID is present. Called
// once at startup so a missing template stops the process instead of
// surfacing per event.
func (c *Catalog) Validate(required []string) error {
	var missing []string
	for _, id := range required {
		if _, ok := c.templates[id]; !ok {
			missing = append(missing, id)
		}
	}
	if len(missing) > 0 {
		return errors.NewCatalogIncompleteError(missing)
	}
	return nil
}
