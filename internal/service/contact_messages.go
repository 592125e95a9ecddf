package service

import (
	"strings"

	"github.com/noah-isme/gema-contact-relay/internal/mailer"
	"github.com/noah-isme/gema-contact-relay/internal/models"
)

const acknowledgementSubject = "Thanks for getting in touch"

func (s *contactService) ownerMessage(sub models.ContactSubmission) mailer.Message {
	subject := sub.Subject
	if !sub.HasSubject() {
		subject = "New Contact from " + sub.Name
	}

	return mailer.Message{
		SenderName:       s.cfg.SenderName,
		SenderAddress:    s.cfg.SenderAddress,
		RecipientAddress: s.cfg.RecipientAddress,
		RecipientName:    s.cfg.RecipientName,
		Subject:          subject,
		Body:             renderOwnerBody(sub),
		ReplyTo:          sub.Email,
	}
}

func (s *contactService) acknowledgementMessage(sub models.ContactSubmission) mailer.Message {
	return mailer.Message{
		SenderName:       s.cfg.SenderName,
		SenderAddress:    s.cfg.SenderAddress,
		RecipientAddress: sub.Email,
		RecipientName:    sub.Name,
		Subject:          acknowledgementSubject,
		Body:             renderAcknowledgementBody(sub),
		ReplyTo:          s.cfg.RecipientAddress,
	}
}

// renderOwnerBody lays out the submission one field per line; empty optional fields are
// left out.
func renderOwnerBody(sub models.ContactSubmission) string {
	var b strings.Builder
	line := func(label, value string) {
		b.WriteString(label)
		b.WriteString(": ")
		b.WriteString(value)
		b.WriteString("\n")
	}

	line("Name", sub.Name)
	line("Email", sub.Email)
	if sub.Country != "" {
		line("Country", sub.Country)
	}
	if sub.Phone != "" {
		line("Phone", sub.Phone)
	}
	if sub.HasSubject() {
		line("Subject", sub.Subject)
	}
	b.WriteString("Message:\n")
	b.WriteString(sub.Message)
	b.WriteString("\n")
	return b.String()
}

func renderAcknowledgementBody(sub models.ContactSubmission) string {
	var b strings.Builder
	b.WriteString("Hi ")
	b.WriteString(sub.Name)
	b.WriteString(",\n\n")
	b.WriteString("Thanks for reaching out. Your message has been received and I will get back to you as soon as possible.\n\n")
	b.WriteString("Your message:\n")
	b.WriteString(sub.Message)
	b.WriteString("\n")
	return b.String()
}
