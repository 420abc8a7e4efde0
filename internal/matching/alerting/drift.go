package alerting

import (
	"context"
	"sync"
	"time"

	awsclients "career-matching/internal/common/aws"
	"career-matching/internal/common/config"
	apperrors "career-matching/internal/common/errors"
	"career-matching/internal/common/logger"
)

// DriftAlerter raises an alert for schema and prediction failures, at most once per code per
// throttle window. It is safe for concurrent use; a nil *DriftAlerter ignores everything.
type DriftAlerter struct {
	notifiers multiNotifier
	throttle  time.Duration
	logger    logger.Logger
	now       func() time.Time

	mu   sync.Mutex
	last map[apperrors.ErrorCode]time.Time
}

func NewDriftAlerter(notifiers []Notifier, throttle time.Duration, log logger.Logger) *DriftAlerter {
	return &DriftAlerter{
		notifiers: notifiers,
		throttle:  throttle,
		logger:    logger.ForComponent(log, "drift-alerter"),
		now:       time.Now,
		last:      make(map[apperrors.ErrorCode]time.Time),
	}
}

// NewFromConfig wires the SNS and SES channels named in cfg. Disabled alerting yields an alerter
// that only logs.
func NewFromConfig(ctx context.Context, cfg config.AlertingConfig, log logger.Logger) (*DriftAlerter, error) {
	throttle := time.Duration(cfg.ThrottleSeconds) * time.Second
	if !cfg.Enabled {
		return NewDriftAlerter(nil, throttle, log), nil
	}

	clients, err := awsclients.NewClients(ctx, cfg.Region)
	if err != nil {
		return nil, err
	}
	var notifiers []Notifier
	if cfg.SNS.TopicARN != "" {
		notifiers = append(notifiers, NewSNSNotifier(clients.SNS, cfg.SNS.TopicARN))
	}
	if cfg.SES.FromEmail != "" {
		notifiers = append(notifiers, NewSESNotifier(clients.SES, cfg.SES.FromEmail, cfg.SES.To))
	}
	return NewDriftAlerter(notifiers, throttle, log), nil
}

// Observe inspects a request error and alerts when it signals drift. It reports whether an
// alert was sent. Notification failures are logged, never returned.
func (d *DriftAlerter) Observe(ctx context.Context, err error, taskType, artifactVersion string) bool {
	if d == nil || err == nil {
		return false
	}
	stdErr, ok := apperrors.As(err)
	if !ok || !apperrors.IsDriftCode(stdErr.Code) {
		return false
	}

	fields := map[string]interface{}{
		"errorCode":       string(stdErr.Code),
		"details":         stdErr.Details,
		"taskType":        taskType,
		"artifactVersion": artifactVersion,
	}
	if !d.allow(stdErr.Code) {
		d.logger.Debug("drift alert throttled", fields)
		return false
	}

	d.logger.Warn("artifact drift detected", fields)
	if len(d.notifiers) == 0 {
		return false
	}

	alert := Alert{
		Code:            string(stdErr.Code),
		Message:         stdErr.Message,
		Details:         stdErr.Details,
		TaskType:        taskType,
		ArtifactVersion: artifactVersion,
		Metadata:        stdErr.Metadata,
		OccurredAt:      d.now().UTC(),
	}
	if err := d.notifiers.Notify(ctx, alert); err != nil {
		d.logger.Error("drift alert delivery failed", map[string]interface{}{
			"errorCode": string(stdErr.Code),
			"channels":  d.notifiers.Channel(),
			"error":     err.Error(),
		})
		return false
	}
	return true
}

func (d *DriftAlerter) allow(code apperrors.ErrorCode) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	now := d.now()
	if last, ok := d.last[code]; ok && now.Sub(last) < d.throttle {
		return false
	}
	d.last[code] = now
	return true
}
