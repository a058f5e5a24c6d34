package gmail

import (
	"context"
	"encoding/base64"
	"fmt"
	"regexp"
	"strings"

	"buswatch-service/internal/domain/repository"
	"buswatch-service/pkg/logger"

	"google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"
)

const emailScheme = "email:"

// GmailService sends notifications as plain-text email through the Gmail API
type GmailService struct {
	gmailService *gmail.Service
	sender       string
	logger       logger.Logger
}

// NewGmailService creates a new Gmail messenger. Pass option.WithTokenSource
// in production.
func NewGmailService(ctx context.Context, sender string, logger logger.Logger, opts ...option.ClientOption) (*GmailService, error) {
	service, err := gmail.NewService(ctx, opts...)
	if err != nil {
		return nil, err
	}

	return &GmailService{
		gmailService: service,
		sender:       sender,
		logger:       logger,
	}, nil
}

var _ repository.MessengerRepository = (*GmailService)(nil)

// CanHandle accepts "email:<address>" targets
func (s *GmailService) CanHandle(target string) bool {
	return strings.HasPrefix(target, emailScheme)
}

// Send delivers text to the address in target. Markdown markup is flattened
// to plain text and the first line becomes the subject.
func (s *GmailService) Send(ctx context.Context, target, text string) error {
	to := strings.TrimSpace(strings.TrimPrefix(target, emailScheme))
	if to == "" {
		return fmt.Errorf("empty email address")
	}

	raw := buildRawMessage(s.sender, to, text)
	msg := &gmail.Message{Raw: base64.URLEncoding.EncodeToString([]byte(raw))}

	sent, err := s.gmailService.Users.Messages.Send("me", msg).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("gmail send: %w", err)
	}

	s.logger.Info("Email notification sent", "to", to, "messageId", sent.Id)
	return nil
}

var (
	markdownLink = regexp.MustCompile(`\[([^\]]+)\]\(([^)]+)\)`)
	markdownBold = regexp.MustCompile(`\*([^*\n]+)\*`)
)

// plainText flattens the Markdown subset used in notifications.
func plainText(text string) string {
	text = markdownLink.ReplaceAllString(text, "$1: $2")
	text = markdownBold.ReplaceAllString(text, "$1")
	return strings.NewReplacer(`\_`, "_", `\*`, "*", "\\`", "`", `\[`, "[").Replace(text)
}

func buildRawMessage(from, to, text string) string {
	body := plainText(text)
	subject, _, _ := strings.Cut(strings.TrimSpace(body), "\n")
	subject = strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(subject), ":"))
	if subject == "" {
		subject = "Bus listing update"
	}

	var b strings.Builder
	if from != "" {
		fmt.Fprintf(&b, "From: %s\r\n", from)
	}
	fmt.Fprintf(&b, "To: %s\r\n", to)
	fmt.Fprintf(&b, "Subject: %s\r\n", subject)
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=\"UTF-8\"\r\n")
	b.WriteString("\r\n")
	b.WriteString(strings.ReplaceAll(body, "\n", "\r\n"))
	return b.String()
}
