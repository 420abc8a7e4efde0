package evaluatecareermatch

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
	"career-matching/internal/matching/evaluation"
	"career-matching/internal/matching/profiles"
	"career-matching/internal/matching/recommender"
	"career-matching/internal/models"
)

const (
	TaskType = "evaluate-career-match"
)

type Recommender interface {
	Recommend(ctx context.Context, req recommender.Request) (*recommender.Result, error)
	ModelVersion() string
}

// Handler scores one user's recommendations against the career they actually took.
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

	// Precision@K scores one ranked list, so "both" is rejected rather than merged.
	strategy := strings.ToLower(strings.TrimSpace(input.Strategy))
	switch strategy {
	case "":
		strategy = config.StrategySimilarity
	case config.StrategyClassifier, config.StrategySimilarity:
	default:
		return nil, apperrors.NewInputValidationError("strategy must be classifier or similarity, got " + strategy)
	}

	profile, err := h.profiles.Get(ctx, input.UserID)
	if err != nil {
		return nil, err
	}

	actual := strings.TrimSpace(input.ActualCareer)
	if actual == "" {
		actual = strings.TrimSpace(profile.ActualCareer)
	}
	if actual == "" {
		return nil, apperrors.NewInputValidationError("no actual career recorded for user " + input.UserID)
	}

	k := input.TopK
	if k <= 0 {
		k = evaluation.DefaultK
	}

	req := recommender.RequestFromProfile(profile)
	req.Strategy = strategy
	req.TopK = k

	res, err := h.service.Recommend(ctx, req)
	if err != nil {
		return nil, err
	}

	result := evaluation.Evaluate(profile.UserID, actual, predicted(res.Recommendations, strategy), k)
	h.logger.Info("evaluated recommendations", map[string]interface{}{
		"userId":       result.UserID,
		"strategy":     strategy,
		"k":            result.K,
		"precisionAtK": result.PrecisionAtK,
	})

	return &Output{
		UserID:           result.UserID,
		ActualCareer:     result.ActualCareer,
		PredictedCareers: result.PredictedCareers,
		K:                result.K,
		PrecisionAtK:     result.PrecisionAtK,
		Strategy:         strategy,
		ModelVersion:     res.ModelVersion,
	}, nil
}

// predicted returns the titles of the list produced by strategy, which is classifier or similarity.
func predicted(set models.RecommendationSet, strategy string) []string {
	recs := set.Classifier
	if strategy == config.StrategySimilarity {
		recs = set.Similarity
	}
	titles := make([]string, 0, len(recs))
	for _, r := range recs {
		titles = append(titles, r.Title)
	}
	return titles
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
		"jobKey":       job.Key,
		"precisionAtK": output.PrecisionAtK,
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
