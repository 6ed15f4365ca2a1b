// internal/workers/notification/send-account-email/models.go
package sendaccountemail

type Input struct {
	Command     string `json:"command"`
	Email       string `json:"email"`
	FirstName   string `json:"firstName"`
	MiddleName  string `json:"middleName,omitempty"`
	LastName    string `json:"lastName"`
	Token       string `json:"token,omitempty"`
	NewPassword string `json:"newPassword,omitempty"`
}

type Output struct {
	Status     string `json:"status"`
	TemplateID string `json:"templateId"`
	SentAt     string `json:"sentAt"` // ISO 8601
}

// Commands
const (
	CommandSendUserConfirmation = "sendUserConfirmation"
	CommandSendResetPassword    = "sendResetPassword"
	CommandSendNewPassword      = "sendNewPassword"
)
