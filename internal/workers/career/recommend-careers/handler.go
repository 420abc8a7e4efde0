package recommendcareers

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"

	apperrors "career-matching/internal/common/errors"
	"career-matching/internal/common/logger"
	"career-matching/internal/common/metrics"
	"career-matching/internal/common/validation"
	"career-matching/internal/matching/alerting"
	"career-matching/internal/matching/profiles"
	"career-matching/internal/matching/recommender"
	"career-matching/internal/models"
)

const (
	TaskType = "recommend-careers"
)

// Recommender is the pipeline entry point the handler drives.
type Recommender interface {
	Recommend(ctx context.Context, req recommender.Request) (*recommender.Result, error)
	ModelVersion() string
}

type Handler struct {
	config       *Config
	service      Recommender
	profiles     profiles.Reader
	alerter      *alerting.DriftAlerter
	errorHandler *apperrors.ErrorHandler
	logger       logger.Logger
}

// NewHandler builds the handler. profiles and alerter may be nil.
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

// DecodeInput validates job variables against InputSchema and decodes them.
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
	if input == nil {
		return nil, apperrors.NewInputValidationError("input cannot be nil")
	}

	req, err := h.buildRequest(ctx, input)
	if err != nil {
		return nil, err
	}

	res, err := h.service.Recommend(ctx, req)
	if err != nil {
		return nil, err
	}

	for _, w := range res.Warnings {
		h.logger.Warn("recommendation warning", map[string]interface{}{
			"code":  w.Code,
			"field": w.Field,
			"value": w.Value,
		})
	}

	return &Output{
		Recommendations: res.Recommendations,
		Strategy:        res.Strategy,
		ModelVersion:    res.ModelVersion,
		CatalogVersion:  res.CatalogVersion,
		Warnings:        res.Warnings,
	}, nil
}

// buildRequest fills fields missing from the job from the stored profile when only a userId is given.
func (h *Handler) buildRequest(ctx context.Context, input *Input) (recommender.Request, error) {
	req := recommender.Request{
		UserID:           input.UserID,
		Age:              input.Age,
		Experience:       input.Experience,
		Education:        input.Education,
		Skills:           input.Skills,
		Interests:        input.Interests,
		CareerPreference: input.CareerPreference,
		TopK:             input.TopK,
		Strategy:         input.Strategy,
		Weights:          input.Weights,
	}
	if input.Education != "" {
		return req, nil
	}
	if h.profiles == nil {
		return req, apperrors.NewInputValidationError("education is required when no profile store is configured")
	}

	profile, err := h.profiles.Get(ctx, input.UserID)
	if err != nil {
		return req, err
	}
	mergeProfile(&req, profile)
	return req, nil
}

func mergeProfile(req *recommender.Request, p *models.UserProfile) {
	stored := recommender.RequestFromProfile(p)
	if req.Education == "" {
		req.Education = stored.Education
	}
	if len(req.Skills) == 0 {
		req.Skills = stored.Skills
	}
	if len(req.Interests) == 0 {
		req.Interests = stored.Interests
	}
	if req.CareerPreference == "" {
		req.CareerPreference = stored.CareerPreference
	}
	if req.Age == nil {
		req.Age = stored.Age
	}
	if req.Experience == nil {
		req.Experience = stored.Experience
	}
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
		"jobKey":          job.Key,
		"classifierCount": len(output.Recommendations.Classifier),
		"similarityCount": len(output.Recommendations.Similarity),
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
