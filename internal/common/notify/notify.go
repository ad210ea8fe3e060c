// Package notify publishes optional completion notifications over AWS SNS
// and SES. Failures here are logged by callers and never affect the
// generation result.
package notify

import (
	"context"
	"fmt"
	"strings"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	sestypes "github.com/aws/aws-sdk-go-v2/service/ses/types"
	"github.com/aws/aws-sdk-go-v2/service/sns"

	"content-studio/internal/common/config"
)

// Summary is the minimal channel outcome view carried in a notification.
type Summary struct {
	GenerationID string
	Prompt       string
	Channels     map[string]string // channel -> "succeeded (provider)" / "failed: <err>" / "skipped"
}

type Notifier struct {
	cfg       config.NotificationConfig
	snsClient *sns.Client
	sesClient *ses.Client
}

// New builds a Notifier. AWS clients are only constructed when at least one
// notification target is enabled.
func New(ctx context.Context, cfg config.NotificationConfig) (*Notifier, error) {
	n := &Notifier{cfg: cfg}
	if !cfg.Email.Enabled && !cfg.Topic.Enabled {
		return n, nil
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.AWS.Region))
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	if cfg.Topic.Enabled {
		n.snsClient = sns.NewFromConfig(awsCfg)
	}
	if cfg.Email.Enabled {
		n.sesClient = ses.NewFromConfig(awsCfg)
	}
	return n, nil
}

// GenerationCompleted fans a completion summary out to every enabled target.
func (n *Notifier) GenerationCompleted(ctx context.Context, s Summary) error {
	body := formatSummary(s)

	if n.snsClient != nil {
		subject := fmt.Sprintf("Generation %s completed", s.GenerationID)
		_, err := n.snsClient.Publish(ctx, &sns.PublishInput{
			TopicArn: &n.cfg.Topic.ARN,
			Subject:  &subject,
			Message:  &body,
		})
		if err != nil {
			return fmt.Errorf("sns publish: %w", err)
		}
	}

	if n.sesClient != nil {
		subject := fmt.Sprintf("Content studio: generation %s", s.GenerationID)
		_, err := n.sesClient.SendEmail(ctx, &ses.SendEmailInput{
			Source: &n.cfg.Email.FromEmail,
			Destination: &sestypes.Destination{
				ToAddresses: []string{n.cfg.Email.ToEmail},
			},
			Message: &sestypes.Message{
				Subject: &sestypes.Content{Data: &subject},
				Body: &sestypes.Body{
					Text: &sestypes.Content{Data: &body},
				},
			},
		})
		if err != nil {
			return fmt.Errorf("ses send: %w", err)
		}
	}

	return nil
}

func formatSummary(s Summary) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Prompt: %s\n", s.Prompt)
	for _, ch := range []string{"text", "image", "video"} {
		if status, ok := s.Channels[ch]; ok {
			fmt.Fprintf(&b, "%s: %s\n", ch, status)
		}
	}
	return b.String()
}
