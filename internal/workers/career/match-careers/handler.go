package matchcareers

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"

	"career-matching/internal/common/config"
	apperrors "career-matching/internal/common/errors"
	"career-matching/internal/common/logger"
	"career-matching/internal/common/metrics"
	"career-matching/internal/common/validation"
	"career-matching/internal/matching/alerting"
	"career-matching/internal/matching/profiles"
	"career-matching/internal/matching/recommender"
)

const (
	TaskType = "match-careers"
)

type Recommender interface {
	Recommend(ctx context.Context, req recommender.Request) (*recommender.Result, error)
	ModelVersion() string
}

// Handler ranks catalog careers against a stored profile by text similarity.
type Handler struct {
	config       *Config
	service      Recommender
	profiles     profiles.Reader
	alerter      *alerting.DriftAlerter
	errorHandler *apperrors.ErrorHandler
	logger       logger.Logger
}

func NewHandler(config *Config, service Recommender, profileReader profiles.Reader, alerter *alerting.DriftAlerter, log logger.Logger) *Handler {
	log = log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:       config,
		service:      service,
		profiles:     profileReader,
		alerter:      alerter,
		errorHandler: apperrors.NewErrorHandler(log),
		logger:       log,
	}
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) {
	h.logger.Info("processing job", map[string]interface{}{
		"jobKey":      job.Key,
		"workflowKey": job.ProcessInstanceKey,
	})

	ctx, cancel := context.WithTimeout(context.Background(), h.config.Timeout)
	defer cancel()

	input, err := DecodeInput(job.Variables)
	if err != nil {
		h.fail(ctx, client, job, err)
		return
	}

	output, err := h.execute(ctx, input)
	if err != nil {
		h.fail(ctx, client, job, err)
		return
	}

	h.completeJob(client, job, output)
}

func DecodeInput(variables string) (*Input, error) {
	if result := validation.ValidateJSON(variables, InputSchema); !result.Valid {
		return nil, apperrors.NewInputValidationError(strings.Join(result.GetErrorMessages(), "; "))
	}
	var input Input
	if err := json.Unmarshal([]byte(variables), &input); err != nil {
		return nil, apperrors.NewParseError(err)
	}
	return &input, nil
}

func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	if input == nil || input.UserID == "" {
		return nil, apperrors.NewInputValidationError("userId is required")
	}

	profile, err := h.profiles.Get(ctx, input.UserID)
	if err != nil {
		return nil, err
	}

	req := recommender.RequestFromProfile(profile)
	req.Strategy = config.StrategySimilarity
	req.TopK = input.TopK
	req.Weights = input.Weights

	res, err := h.service.Recommend(ctx, req)
	if err != nil {
		return nil, err
	}

	return &Output{
		UserID:           profile.UserID,
		UserName:         profile.Name,
		TopCareerMatches: res.Recommendations.Similarity,
		CatalogVersion:   res.CatalogVersion,
	}, nil
}

func (h *Handler) completeJob(client worker.JobClient, job entities.Job, output *Output) {
	cmd, err := client.NewCompleteJobCommand().
		JobKey(job.Key).
		VariablesFromObject(output)
	if err != nil {
		h.logger.Error("failed to create complete job command", map[string]interface{}{
			"error": err,
		})
		return
	}
	_, err = cmd.Send(context.Background())
	if err != nil {
		h.logger.Error("failed to send complete job command", map[string]interface{}{
			"error": err,
		})
		return
	}
	metrics.WorkerJobsCompleted.WithLabelValues(TaskType).Inc()
	h.logger.Info("job completed successfully", map[string]interface{}{
		"jobKey":  job.Key,
		"userId":  output.UserID,
		"matches": len(output.TopCareerMatches),
	})
}

func (h *Handler) fail(ctx context.Context, client worker.JobClient, job entities.Job, err error) {
	h.alerter.Observe(ctx, err, TaskType, h.service.ModelVersion())
	bpmnErr := h.errorHandler.HandleJobError(context.Background(), client, job, err)
	metrics.WorkerJobsFailed.WithLabelValues(TaskType, bpmnErr.Code).Inc()
}

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.execute(ctx, input)
}
