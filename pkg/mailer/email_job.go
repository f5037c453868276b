package mailer

// EmailJob is the JSON payload the API puts on the email queue. A job either
// names a Template (rendered with Data by the worker) or carries a ready
// Subject/Text/HTML body.
type EmailJob struct {
	To       string         `json:"to"`
	Subject  string         `json:"subject,omitempty"`
	Text     string         `json:"text,omitempty"`
	HTML     string         `json:"html,omitempty"`
	Template string         `json:"template,omitempty"` // password_reset, new_comment or new_post
	Data     map[string]any `json:"data,omitempty"`
}
