package notify

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

// SlackSink posts inquiries to an incoming webhook
type SlackSink struct {
	webhookURL string
	client     *resty.Client
}

// NewSlackSink creates a Slack sink for the given webhook URL
func NewSlackSink(webhookURL string, timeout time.Duration) *SlackSink {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	client := resty.New().
		SetTimeout(timeout).
		SetHeader("Content-Type", "application/json")
	return &SlackSink{webhookURL: webhookURL, client: client}
}

// Name returns the sink name
func (s *SlackSink) Name() string {
	return "slack"
}

// HealthCheck verifies the webhook URL is usable
func (s *SlackSink) HealthCheck(ctx context.Context) error {
	if s.webhookURL == "" {
		return errors.New("slack webhook not configured")
	}
	u, err := url.Parse(s.webhookURL)
	if err != nil || u.Host == "" {
		return errors.New("invalid slack webhook url")
	}
	return nil
}

// Send posts the inquiry as mrkdwn blocks
func (s *SlackSink) Send(ctx context.Context, inquiry Inquiry) error {
	if err := s.HealthCheck(ctx); err != nil {
		return err
	}

	resp, err := s.client.R().
		SetContext(ctx).
		SetBody(slackPayload(inquiry)).
		Post(s.webhookURL)
	if err != nil {
		return fmt.Errorf("failed to post to slack: %w", err)
	}
	if resp.IsError() {
		return fmt.Errorf("slack error: %d %s", resp.StatusCode(), strings.TrimSpace(resp.String()))
	}

	slog.Info("inquiry posted to slack")
	return nil
}

type slackText struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type slackBlock struct {
	Type string    `json:"type"`
	Text slackText `json:"text"`
}

type slackMessage struct {
	Text   string       `json:"text"`
	Blocks []slackBlock `json:"blocks"`
}

var mrkdwnEscaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;")

func slackPayload(inquiry Inquiry) slackMessage {
	name := mrkdwnEscaper.Replace(inquiry.Name)
	email := mrkdwnEscaper.Replace(inquiry.Email)
	kind := mrkdwnEscaper.Replace(inquiry.TypeLabel())
	message := mrkdwnEscaper.Replace(inquiry.Message)

	return slackMessage{
		Text: fmt.Sprintf("🔔 [문의] %s님의 메시지", name),
		Blocks: []slackBlock{
			{
				Type: "section",
				Text: slackText{
					Type: "mrkdwn",
					Text: fmt.Sprintf("*🔔 새로운 문의 도착*\n*이름:* %s (%s)\n*유형:* %s", name, email, kind),
				},
			},
			{
				Type: "section",
				Text: slackText{
					Type: "mrkdwn",
					Text: "*내용:*\n>" + strings.ReplaceAll(message, "\n", "\n>"),
				},
			},
		},
	}
}
