// internal/mailer/notifier.go
package mailer

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/ses/types"
	"github.com/google/uuid"

	"notification-dispatcher/internal/common/errors"
	"notification-dispatcher/internal/common/logger"
	"notification-dispatcher/internal/models"
)

// SESAPI is the slice of the SES client the notifier uses.
type SESAPI interface {
	SendRawEmail(ctx context.Context, input *ses.SendRawEmailInput, optFns ...func(*ses.Options)) (*ses.SendRawEmailOutput, error)
}

// SESNotifier renders catalog templates and delivers them through SES
// as raw MIME messages so attachments can ride along.
type SESNotifier struct {
	client  SESAPI
	catalog *Catalog
	logger  logger.Logger
}

// NewSESNotifier creates a notifier bound to a catalog.
func NewSESNotifier(client SESAPI, catalog *Catalog, log logger.Logger) *SESNotifier {
	return &SESNotifier{
		client:  client,
		catalog: catalog,
		logger:  log,
	}
}

// Send renders and delivers one instruction. The template's default
// attachments come first, then the instruction's own.
func (n *SESNotifier) Send(ctx context.Context, instr models.DispatchInstruction) error {
	tmpl, err := n.catalog.Lookup(instr.TemplateID)
	if err != nil {
		return err
	}

	subject := renderTemplate(tmpl.Subject, instr.Context)
	body := renderTemplate(tmpl.Body, instr.Context)

	attachments := make([]models.Attachment, 0, len(tmpl.Attachments)+len(instr.Attachments))
	attachments = append(attachments, tmpl.Attachments...)
	attachments = append(attachments, instr.Attachments...)

	raw := buildRawMessage(tmpl.From, instr.Recipient, subject, body, attachments)

	_, err = n.client.SendRawEmail(ctx, &ses.SendRawEmailInput{
		RawMessage: &types.RawMessage{Data: raw},
	})
	if err != nil {
		n.logger.Error("Email delivery failed", map[string]interface{}{
			"template": instr.TemplateID,
			"to":       instr.Recipient.Email,
			"error":    err.Error(),
		})
		return errors.NewNotificationSendFailedError(instr.TemplateID, err)
	}

	n.logger.Info("Email sent", map[string]interface{}{
		"template": instr.TemplateID,
		"to":       instr.Recipient.Email,
	})

	return nil
}

// renderTemplate substitutes {{key}} markers with context values.
// Unknown markers are left in place so they show up in review instead
// of silently disappearing.
func renderTemplate(tmpl string, context map[string]string) string {
	result := tmpl
	for key, value := range context {
		result = strings.ReplaceAll(result, "{{"+key+"}}", value)
	}
	return result
}

// buildRawMessage assembles a multipart/mixed MIME message with an
// HTML body part followed by base64 encoded attachments.
func buildRawMessage(from string, to models.Recipient, subject, htmlBody string, attachments []models.Attachment) []byte {
	boundary := "part-" + uuid.New().String()

	var b strings.Builder

	b.WriteString(fmt.Sprintf("From: %s\r\n", from))
	if to.Name != "" {
		b.WriteString(fmt.Sprintf("To: %s <%s>\r\n", to.Name, to.Email))
	} else {
		b.WriteString(fmt.Sprintf("To: %s\r\n", to.Email))
	}
	b.WriteString(fmt.Sprintf("Subject: %s\r\n", subject))
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString(fmt.Sprintf("Content-Type: multipart/mixed; boundary=\"%s\"\r\n", boundary))
	b.WriteString("\r\n")

	b.WriteString(fmt.Sprintf("--%s\r\n", boundary))
	b.WriteString("Content-Type: text/html; charset=UTF-8\r\n")
	b.WriteString("Content-Transfer-Encoding: 7bit\r\n")
	b.WriteString("\r\n")
	b.WriteString(htmlBody)
	b.WriteString("\r\n")

	for _, att := range attachments {
		contentType := att.ContentType
		if contentType == "" {
			contentType = "application/octet-stream"
		}

		b.WriteString(fmt.Sprintf("--%s\r\n", boundary))
		b.WriteString(fmt.Sprintf("Content-Type: %s; name=\"%s\"\r\n", contentType, att.Filename))
		b.WriteString("Content-Transfer-Encoding: base64\r\n")
		b.WriteString(fmt.Sprintf("Content-Disposition: attachment; filename=\"%s\"\r\n", att.Filename))
		b.WriteString("\r\n")

		encoded := base64.StdEncoding.EncodeToString(att.Content)
		for len(encoded) > 76 {
			b.WriteString(encoded[:76])
			b.WriteString("\r\n")
			encoded = encoded[76:]
		}
		b.WriteString(encoded)
		b.WriteString("\r\n")
	}

	b.WriteString(fmt.Sprintf("--%s--\r\n", boundary))

	return []byte(b.String())
}
