// Package alerting notifies operators when serving artifacts and requests drift apart.
package alerting

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	sestypes "github.com/aws/aws-sdk-go-v2/service/ses/types"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	snstypes "github.com/aws/aws-sdk-go-v2/service/sns/types"

	awsclients "career-matching/internal/common/aws"
	apperrors "career-matching/internal/common/errors"
)

// Alert describes one drift event.
type Alert struct {
	Code            string                 `json:"code"`
	Message         string                 `json:"message"`
	Details         string                 `json:"details,omitempty"`
	TaskType        string                 `json:"taskType,omitempty"`
	ArtifactVersion string                 `json:"artifactVersion,omitempty"`
	Metadata        map[string]interface{} `json:"metadata,omitempty"`
	OccurredAt      time.Time              `json:"occurredAt"`
}

func (a Alert) subject() string {
	return fmt.Sprintf("[career-matching] %s", a.Code)
}

type Notifier interface {
	Channel() string
	Notify(ctx context.Context, alert Alert) error
}

// SNSNotifier publishes the alert as JSON to a topic.
type SNSNotifier struct {
	client   awsclients.SNSPublisher
	topicARN string
}

func NewSNSNotifier(client awsclients.SNSPublisher, topicARN string) *SNSNotifier {
	return &SNSNotifier{client: client, topicARN: topicARN}
}

func (n *SNSNotifier) Channel() string { return "sns" }

func (n *SNSNotifier) Notify(ctx context.Context, alert Alert) error {
	body, err := json.Marshal(alert)
	if err != nil {
		return err
	}
	_, err = n.client.Publish(ctx, &sns.PublishInput{
		TopicArn: aws.String(n.topicARN),
		Subject:  aws.String(alert.subject()),
		Message:  aws.String(string(body)),
		MessageAttributes: map[string]snstypes.MessageAttributeValue{
			"code": {DataType: aws.String("String"), StringValue: aws.String(alert.Code)},
		},
	})
	if err != nil {
		return apperrors.NewNotificationSendFailedError(n.Channel(), err)
	}
	return nil
}

// SESNotifier emails a plain-text summary.
type SESNotifier struct {
	client awsclients.SESSender
	from   string
	to     []string
}

func NewSESNotifier(client awsclients.SESSender, from string, to []string) *SESNotifier {
	return &SESNotifier{client: client, from: from, to: to}
}

func (n *SESNotifier) Channel() string { return "ses" }

func (n *SESNotifier) Notify(ctx context.Context, alert Alert) error {
	if len(n.to) == 0 {
		return nil
	}
	_, err := n.client.SendEmail(ctx, &ses.SendEmailInput{
		Destination: &sestypes.Destination{ToAddresses: n.to},
		Message: &sestypes.Message{
			Subject: &sestypes.Content{Data: aws.String(alert.subject())},
			Body: &sestypes.Body{
				Text: &sestypes.Content{Data: aws.String(emailBody(alert))},
			},
		},
		Source: aws.String(n.from),
	})
	if err != nil {
		return apperrors.NewNotificationSendFailedError(n.Channel(), err)
	}
	return nil
}

func emailBody(a Alert) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Code: %s\n", a.Code)
	fmt.Fprintf(&b, "Message: %s\n", a.Message)
	if a.Details != "" {
		fmt.Fprintf(&b, "Details: %s\n", a.Details)
	}
	if a.TaskType != "" {
		fmt.Fprintf(&b, "Task type: %s\n", a.TaskType)
	}
	if a.ArtifactVersion != "" {
		fmt.Fprintf(&b, "Artifact version: %s\n", a.ArtifactVersion)
	}
	fmt.Fprintf(&b, "Occurred at: %s\n", a.OccurredAt.Format(time.RFC3339))
	return b.String()
}

// multiNotifier fans out to every channel and joins the failures.
type multiNotifier []Notifier

func (m multiNotifier) Channel() string {
	names := make([]string, len(m))
	for i, n := range m {
		names[i] = n.Channel()
	}
	return strings.Join(names, ",")
}

func (m multiNotifier) Notify(ctx context.Context, alert Alert) error {
	var errs []error
	for _, n := range m {
		if err := n.Notify(ctx, alert); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
