package mailer

// EmailJob is the message published to the email queue by the API and
// consumed by cmd/email_worker.
type EmailJob struct {
	To      string `json:"to"`
	Subject string `json:"subject"`
	Text    string `json:"text"`
	HTML    string `json:"html,omitempty"`
}

// WelcomeJob builds the signup welcome email for a new user.
func WelcomeJob(to, name string) EmailJob {
	return EmailJob{
		To:      to,
		Subject: "Welcome to Places",
		Text: "Hi " + name + ",\n\n" +
			"Your account is ready. Log in and share your first place.\n",
	}
}
