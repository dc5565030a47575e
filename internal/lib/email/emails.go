package email

// SendWelcomeEmail sends a welcome email to a new user.
func (c *Client) SendWelcomeEmail(to, firstName string) error {
	// Data keys must match what the HTML template expects.
	data := map[string]string{
		"UserFirstName": firstName,
	}

	return c.SendEmail(
		to,
		"Welcome to Tutoria!",
		TemplateWelcome,
		data,
	)
}

// SendEnrollmentConfirmedEmail tells a student their spot in a session is
// confirmed.
func (c *Client) SendEnrollmentConfirmedEmail(to, firstName, sessionTitle string) error {
	data := map[string]string{
		"UserFirstName": firstName,
		"SessionTitle":  sessionTitle,
	}

	return c.SendEmail(
		to,
		"Your tutoring session is confirmed",
		TemplateEnrollmentConfirmed,
		data,
	)
}
