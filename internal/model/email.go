package model

// EmailSettings configures the transactional email relay used for reminders.
// Each field is persisted under its own fixed key.
type EmailSettings struct {
	// ServiceID is the relay address, host:port of the SMTP service.
	ServiceID string `json:"emailServiceId" yaml:"service_id"`

	// TemplateID selects the message template rendered for each send.
	TemplateID string `json:"emailTemplateId" yaml:"template_id"`

	// UserID is the account the relay authenticates as.
	UserID string `json:"emailUserId" yaml:"user_id"`

	From string `json:"emailFrom" yaml:"from"`

	// To is the default recipient when a task has no override.
	To string `json:"emailTo" yaml:"to"`
}

// Configured reports whether enough is set to attempt an automated send.
// Sender and recipient are optional; the relay may fill them in.
func (s EmailSettings) Configured() bool {
	return s.ServiceID != "" && s.TemplateID != "" && s.UserID != ""
}

// Recipient returns override when set, else the default recipient.
func (s EmailSettings) Recipient(override string) string {
	if override != "" {
		return override
	}
	return s.To
}
