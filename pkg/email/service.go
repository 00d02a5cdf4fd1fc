package email

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	"text/template"

	"estatehub_backend/pkg/metrics"
)

//go:embed templates/*.txt
var templateFS embed.FS

// InquiryData fills every inquiry template.
type InquiryData struct {
	SubmitterName string
	AgentName     string
	ListingTitle  string
	Subject       string
	Message       string
	ContactEmail  string
	ContactPhone  string
	Response      string
}

// Service renders notification templates and hands them to a Sender.
type Service struct {
	sender    Sender
	from      string
	templates *template.Template
}

func NewService(sender Sender, from string) (*Service, error) {
	templates, err := template.ParseFS(templateFS, "templates/*.txt")
	if err != nil {
		return nil, fmt.Errorf("error loading email templates: %w", err)
	}
	return &Service{sender: sender, from: from, templates: templates}, nil
}

func (s *Service) sendTemplateEmail(ctx context.Context, to, subject, templateName string, data interface{}) error {
	var body bytes.Buffer
	if err := s.templates.ExecuteTemplate(&body, templateName, data); err != nil {
		return fmt.Errorf("template execution error: %w", err)
	}

	err := s.sender.Send(ctx, Message{From: s.from, To: to, Subject: subject, Text: body.String()})
	metrics.RecordEmail(templateName, err)
	return err
}

// SendInquiryConfirmation tells the submitter their inquiry went out.
func (s *Service) SendInquiryConfirmation(ctx context.Context, to string, data InquiryData) error {
	return s.sendTemplateEmail(ctx, to, "Inquiry sent: "+data.ListingTitle, "inquiry_confirmation.txt", data)
}

// SendInquiryAlert tells the listing's agent about a new inquiry.
func (s *Service) SendInquiryAlert(ctx context.Context, to string, data InquiryData) error {
	return s.sendTemplateEmail(ctx, to, "New inquiry: "+data.ListingTitle, "inquiry_alert.txt", data)
}

// SendInquiryResponse delivers the agent's answer to the submitter.
func (s *Service) SendInquiryResponse(ctx context.Context, to string, data InquiryData) error {
	return s.sendTemplateEmail(ctx, to, "Re: "+data.Subject, "inquiry_response.txt", data)
}
