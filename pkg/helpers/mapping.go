package helpers

import (
	"fmt"
	"strings"

	"github.com/oksasatya/inkwell/pkg/mailer"
	mailtpl "github.com/oksasatya/inkwell/pkg/mailer/templates"
)

// SubjectFor returns a fallback subject for a template when rendering yields none.
func SubjectFor(template string) string {
	switch strings.ToLower(template) {
	case mailtpl.PasswordReset:
		return "Reset your password"
	case mailtpl.NewComment:
		return "New comment on your post"
	case mailtpl.NewPost:
		return "New post from an author you follow"
	default:
		return "Notification"
	}
}

// EnsureRecipient fills the Email data field from the job recipient.
func EnsureRecipient(job *mailer.EmailJob) {
	if job.Data == nil {
		job.Data = map[string]any{}
	}
	if v, ok := job.Data["Email"]; !ok || fmt.Sprintf("%v", v) == "" {
		job.Data["Email"] = job.To
	}
}
