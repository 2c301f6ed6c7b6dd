package ses

import (
	"context"
	"fmt"
	"html"
	"strings"
	"time"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sesv2/types"

	"semclass/internal/config"
	"semclass/internal/port"
)

// maxListedFailures caps how many failed items are listed in one message.
const maxListedFailures = 20

type emailAPI interface {
	SendEmail(ctx context.Context, params *sesv2.SendEmailInput, optFns ...func(*sesv2.Options)) (*sesv2.SendEmailOutput, error)
}

type sesNotifier struct {
	client      emailAPI
	fromAddress string
	fromName    string
	toAddresses []string
}

// NewSESNotifier creates a new SES-backed Notifier.
func NewSESNotifier(ctx context.Context, cfg *config.NotifyConfig) (port.Notifier, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.Region))
	if err != nil {
		return nil, fmt.Errorf("loading AWS config for SES: %w", err)
	}
	return newNotifier(sesv2.NewFromConfig(awsCfg), cfg), nil
}

func newNotifier(client emailAPI, cfg *config.NotifyConfig) *sesNotifier {
	return &sesNotifier{
		client:      client,
		fromAddress: cfg.FromAddress,
		fromName:    cfg.FromName,
		toAddresses: cfg.ToAddresses,
	}
}

func (s *sesNotifier) NotifyBatchComplete(ctx context.Context, report port.BatchReport) error {
	if len(s.toAddresses) == 0 {
		return nil
	}

	subject := buildSubject(report)
	textBody := buildText(report)
	htmlBody := buildHTML(report)
	from := fmt.Sprintf("%s <%s>", s.fromName, s.fromAddress)

	_, err := s.client.SendEmail(ctx, &sesv2.SendEmailInput{
		FromEmailAddress: &from,
		Destination: &types.Destination{
			ToAddresses: s.toAddresses,
		},
		Content: &types.EmailContent{
			Simple: &types.Message{
				Subject: &types.Content{Data: &subject},
				Body: &types.Body{
					Html: &types.Content{Data: &htmlBody},
					Text: &types.Content{Data: &textBody},
				},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("SES SendEmail: %w", err)
	}
	return nil
}

func buildSubject(r port.BatchReport) string {
	status := "completed"
	if r.Summary.Total > 0 && r.Summary.Succeeded == 0 {
		status = "failed"
	} else if r.Summary.Failed > 0 {
		status = "completed with errors"
	}
	return fmt.Sprintf("Classification run %s: %d/%d items classified", status, r.Summary.Succeeded, r.Summary.Total)
}

func buildText(r port.BatchReport) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Run %s finished in %s.\n\n", r.Summary.RunID, r.Summary.Duration.Round(time.Second))
	fmt.Fprintf(&b, "Source:      %s\n", r.Source)
	fmt.Fprintf(&b, "Destination: %s\n", r.Destination)
	fmt.Fprintf(&b, "Processed:   %d\nSucceeded:   %d\nFailed:      %d\n", r.Summary.Total, r.Summary.Succeeded, r.Summary.Failed)

	if len(r.Failures) > 0 {
		b.WriteString("\nFailed items:\n")
		for i, f := range r.Failures {
			if i == maxListedFailures {
				fmt.Fprintf(&b, "  ... and %d more\n", len(r.Failures)-maxListedFailures)
				break
			}
			fmt.Fprintf(&b, "  %s: %s\n", f.Identifier, failureReason(f.Error))
		}
	}
	return b.String()
}

func buildHTML(r port.BatchReport) string {
	var rows strings.Builder
	for i, f := range r.Failures {
		if i == maxListedFailures {
			fmt.Fprintf(&rows, "<li>... and %d more</li>", len(r.Failures)-maxListedFailures)
			break
		}
		fmt.Fprintf(&rows, "<li><code>%s</code>: %s</li>", html.EscapeString(f.Identifier), html.EscapeString(failureReason(f.Error)))
	}

	failures := ""
	if rows.Len() > 0 {
		failures = "<h3 style=\"color: #333;\">Failed items</h3><ul>" + rows.String() + "</ul>"
	}

	return fmt.Sprintf(`<!DOCTYPE html>
<html>
<head><meta charset="UTF-8"></head>
<body style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto; padding: 20px;">
  <h2 style="color: #333;">Classification run finished</h2>
  <table style="border-collapse: collapse;">
    <tr><td style="padding: 4px 12px 4px 0; color: #666;">Run</td><td>%s</td></tr>
    <tr><td style="padding: 4px 12px 4px 0; color: #666;">Source</td><td>%s</td></tr>
    <tr><td style="padding: 4px 12px 4px 0; color: #666;">Destination</td><td>%s</td></tr>
    <tr><td style="padding: 4px 12px 4px 0; color: #666;">Processed</td><td>%d</td></tr>
    <tr><td style="padding: 4px 12px 4px 0; color: #666;">Succeeded</td><td>%d</td></tr>
    <tr><td style="padding: 4px 12px 4px 0; color: #666;">Failed</td><td>%d</td></tr>
  </table>
  %s
</body>
</html>`,
		r.Summary.RunID,
		html.EscapeString(r.Source),
		html.EscapeString(r.Destination),
		r.Summary.Total, r.Summary.Succeeded, r.Summary.Failed,
		failures)
}

func failureReason(msg *string) string {
	if msg == nil {
		return "unknown error"
	}
	return *msg
}
