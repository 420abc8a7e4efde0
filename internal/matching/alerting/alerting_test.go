package alerting

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"career-matching/internal/common/config"
	apperrors "career-matching/internal/common/errors"
	"career-matching/internal/common/logger"
)

// ==========================
// Mock Implementations
// ==========================

type MockSNSService struct {
	mu          sync.Mutex
	PublishFunc func(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error)
	Inputs      []*sns.PublishInput
}

func (m *MockSNSService) Publish(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error) {
	m.mu.Lock()
	m.Inputs = append(m.Inputs, params)
	m.mu.Unlock()
	if m.PublishFunc != nil {
		return m.PublishFunc(ctx, params, optFns...)
	}
	return &sns.PublishOutput{}, nil
}

type MockSESService struct {
	SendEmailFunc func(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error)
	Inputs        []*ses.SendEmailInput
}

func (m *MockSESService) SendEmail(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error) {
	m.Inputs = append(m.Inputs, params)
	if m.SendEmailFunc != nil {
		return m.SendEmailFunc(ctx, params, optFns...)
	}
	return &ses.SendEmailOutput{}, nil
}

// ==========================
// Notifiers
// ==========================

func TestSNSNotifier_Notify(t *testing.T) {
	client := &MockSNSService{}
	n := NewSNSNotifier(client, "arn:aws:sns:us-east-1:123:drift")

	at := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	require.NoError(t, n.Notify(context.Background(), Alert{Code: "SCHEMA_MISMATCH", Message: "bad schema", OccurredAt: at}))

	require.Len(t, client.Inputs, 1)
	in := client.Inputs[0]
	assert.Equal(t, "arn:aws:sns:us-east-1:123:drift", *in.TopicArn)
	assert.Equal(t, "[career-matching] SCHEMA_MISMATCH", *in.Subject)
	assert.Equal(t, "SCHEMA_MISMATCH", *in.MessageAttributes["code"].StringValue)

	var decoded Alert
	require.NoError(t, json.Unmarshal([]byte(*in.Message), &decoded))
	assert.Equal(t, "bad schema", decoded.Message)
	assert.True(t, at.Equal(decoded.OccurredAt))
}

func TestSNSNotifier_Failure(t *testing.T) {
	client := &MockSNSService{
		PublishFunc: func(context.Context, *sns.PublishInput, ...func(*sns.Options)) (*sns.PublishOutput, error) {
			return nil, errors.New("throttled")
		},
	}
	err := NewSNSNotifier(client, "arn").Notify(context.Background(), Alert{Code: "X"})
	require.Error(t, err)
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeNotificationSendFailed))
}

func TestSESNotifier_Notify(t *testing.T) {
	client := &MockSESService{}
	n := NewSESNotifier(client, "alerts@example.com", []string{"ops@example.com"})

	require.NoError(t, n.Notify(context.Background(), Alert{
		Code: "FEATURE_ORDER_MISMATCH", Message: "order", Details: "position 3", ArtifactVersion: "v7",
	}))

	require.Len(t, client.Inputs, 1)
	in := client.Inputs[0]
	assert.Equal(t, "alerts@example.com", *in.Source)
	assert.Equal(t, []string{"ops@example.com"}, in.Destination.ToAddresses)
	body := *in.Message.Body.Text.Data
	assert.Contains(t, body, "Code: FEATURE_ORDER_MISMATCH")
	assert.Contains(t, body, "Details: position 3")
	assert.Contains(t, body, "Artifact version: v7")
}

func TestSESNotifier_NoRecipients(t *testing.T) {
	client := &MockSESService{}
	require.NoError(t, NewSESNotifier(client, "a@example.com", nil).Notify(context.Background(), Alert{}))
	assert.Empty(t, client.Inputs)
}

// ==========================
// DriftAlerter
// ==========================

func TestDriftAlerter_Observe(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"schema mismatch", apperrors.NewSchemaMismatchError("version"), true},
		{"feature order", apperrors.NewFeatureOrderMismatchError(2, "skill_python", "skill_sql"), true},
		{"prediction failed", apperrors.NewPredictionError("nan", nil), true},
		{"unknown category is not drift", apperrors.NewUnknownCategoryError("education", "x"), false},
		{"plain error", errors.New("boom"), false},
		{"nil", nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := &MockSNSService{}
			d := NewDriftAlerter([]Notifier{NewSNSNotifier(client, "arn")}, time.Minute, logger.NewTestLogger(t))

			assert.Equal(t, tt.want, d.Observe(context.Background(), tt.err, "recommend-careers", "v1"))
			if tt.want {
				assert.Len(t, client.Inputs, 1)
			} else {
				assert.Empty(t, client.Inputs)
			}
		})
	}
}

func TestDriftAlerter_ThrottlesPerCode(t *testing.T) {
	client := &MockSNSService{}
	d := NewDriftAlerter([]Notifier{NewSNSNotifier(client, "arn")}, time.Minute, logger.NewTestLogger(t))
	now := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	d.now = func() time.Time { return now }

	schema := apperrors.NewSchemaMismatchError("a")
	assert.True(t, d.Observe(context.Background(), schema, "t", "v1"))
	assert.False(t, d.Observe(context.Background(), schema, "t", "v1"))
	assert.True(t, d.Observe(context.Background(), apperrors.NewPredictionError("b", nil), "t", "v1"))

	now = now.Add(2 * time.Minute)
	assert.True(t, d.Observe(context.Background(), schema, "t", "v1"))
	assert.Len(t, client.Inputs, 3)
}

func TestDriftAlerter_DeliveryFailureIsSwallowed(t *testing.T) {
	failing := &MockSNSService{
		PublishFunc: func(context.Context, *sns.PublishInput, ...func(*sns.Options)) (*sns.PublishOutput, error) {
			return nil, errors.New("unreachable")
		},
	}
	email := &MockSESService{}
	d := NewDriftAlerter([]Notifier{NewSNSNotifier(failing, "arn"), NewSESNotifier(email, "a@example.com", []string{"b@example.com"})},
		0, logger.NewTestLogger(t))

	assert.False(t, d.Observe(context.Background(), apperrors.NewSchemaMismatchError("x"), "t", "v1"))
	assert.Len(t, email.Inputs, 1, "remaining channels still receive the alert")
}

func TestDriftAlerter_NilAndDisabled(t *testing.T) {
	var d *DriftAlerter
	assert.False(t, d.Observe(context.Background(), apperrors.NewSchemaMismatchError("x"), "t", "v1"))

	disabled, err := NewFromConfig(context.Background(), config.AlertingConfig{ThrottleSeconds: 60}, logger.NewTestLogger(t))
	require.NoError(t, err)
	assert.False(t, disabled.Observe(context.Background(), apperrors.NewSchemaMismatchError("x"), "t", "v1"))
}
