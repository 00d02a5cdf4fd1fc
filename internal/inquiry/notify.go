package inquiry

import (
	"context"

	"estatehub_backend/internal/model"
	"estatehub_backend/pkg/email"
)

// Notifier announces inquiry events. Implementations must not block the
// caller and must swallow delivery failures.
type Notifier interface {
	InquiryCreated(inq *model.Inquiry, agentEmail string)
	InquiryResponded(inq *model.Inquiry)
}

// EmailNotifier sends the plain-text inquiry emails in the background.
type EmailNotifier struct {
	mail     *email.Service
	dispatch *email.Dispatcher
}

func NewEmailNotifier(mail *email.Service, dispatch *email.Dispatcher) *EmailNotifier {
	return &EmailNotifier{mail: mail, dispatch: dispatch}
}

func templateData(inq *model.Inquiry) email.InquiryData {
	data := email.InquiryData{
		SubmitterName: inq.User.DisplayName(),
		ListingTitle:  inq.Listing.Title,
		Subject:       inq.DisplaySubject(),
		Message:       inq.Message,
		ContactEmail:  inq.ReplyTo(),
		ContactPhone:  inq.Phone,
		Response:      inq.Response,
	}
	if a := inq.Listing.Agent; a != nil {
		data.AgentName = a.User.DisplayName()
	}
	return data
}

func (n *EmailNotifier) InquiryCreated(inq *model.Inquiry, agentEmail string) {
	data := templateData(inq)
	to := inq.ReplyTo()

	n.dispatch.Go("inquiry_confirmation", func(ctx context.Context) error {
		return n.mail.SendInquiryConfirmation(ctx, to, data)
	})
	if agentEmail == "" {
		return
	}
	n.dispatch.Go("inquiry_alert", func(ctx context.Context) error {
		return n.mail.SendInquiryAlert(ctx, agentEmail, data)
	})
}

func (n *EmailNotifier) InquiryResponded(inq *model.Inquiry) {
	data := templateData(inq)
	to := inq.ReplyTo()
	n.dispatch.Go("inquiry_response", func(ctx context.Context) error {
		return n.mail.SendInquiryResponse(ctx, to, data)
	})
}
