package contact

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/alumni-registry/internal/domain"
	"github.com/alumni-registry/internal/pkg/validate"
)

const defaultSubject = "Alumni registry contact form"

type Service interface {
	Submit(ctx context.Context, msg domain.ContactMessage) error
}

type publisher interface {
	Publish(ctx context.Context, topicARN, subject, message string) error
}

type mailer interface {
	SendEmail(ctx context.Context, to, subject, body string) error
}

type service struct {
	publisher publisher
	topicARN  string
	mailer    mailer
	inbox     string
}

// ServiceDeps wires the contact service. Messages go to TopicARN through
// Publisher when both are set, otherwise they are mailed to Inbox.
type ServiceDeps struct {
	Publisher publisher
	TopicARN  string
	Mailer    mailer
	Inbox     string
}

func NewService(deps ServiceDeps) Service {
	return &service{
		publisher: deps.Publisher,
		topicARN:  deps.TopicARN,
		mailer:    deps.Mailer,
		inbox:     deps.Inbox,
	}
}

func (s *service) Submit(ctx context.Context, msg domain.ContactMessage) error {
	msg.Name = strings.TrimSpace(msg.Name)
	msg.Email = strings.TrimSpace(msg.Email)
	msg.Subject = strings.Join(strings.Fields(msg.Subject), " ")
	msg.Message = strings.TrimSpace(msg.Message)
	if err := validate.Struct(msg); err != nil {
		return err
	}

	subject := msg.Subject
	if subject == "" {
		subject = defaultSubject
	}
	body := fmt.Sprintf("From: %s <%s>\n\n%s\n", msg.Name, msg.Email, msg.Message)

	if s.publisher != nil && s.topicARN != "" {
		if err := s.publisher.Publish(ctx, s.topicARN, subject, body); err != nil {
			slog.Error("contact: publish", "topic", s.topicARN, "error", err)
			return fmt.Errorf("publish contact message: %w", domain.ErrDispatch)
		}
		return nil
	}
	if err := s.mailer.SendEmail(ctx, s.inbox, subject, body); err != nil {
		slog.Error("contact: mail inbox", "inbox", s.inbox, "error", err)
		return fmt.Errorf("mail contact message: %w", domain.ErrDispatch)
	}
	return nil
}
