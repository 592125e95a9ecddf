package models

// ContactSubmission is a normalized contact form submission. It lives for one request and
// is never stored.
type ContactSubmission struct {
	ReferenceID string
	Name        string
	Email       string
	Country     string
	Phone       string
	Subject     string
	Message     string
}

// HasSubject reports whether the submitter supplied their own subject line.
func (c ContactSubmission) HasSubject() bool {
	return c.Subject != ""
}
