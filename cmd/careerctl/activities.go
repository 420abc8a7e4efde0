package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	apperrors "career-matching/internal/common/errors"
	ecm "career-matching/internal/workers/career/evaluate-career-match"
	mc "career-matching/internal/workers/career/match-careers"
	rc "career-matching/internal/workers/career/recommend-careers"
	rp "career-matching/internal/workers/career/record-prediction"
	"career-matching/pkg/registry"
)

type activityDef struct {
	taskType    string
	displayName string
	description string
	schema      string
	errorCodes  []apperrors.ErrorCode
}

var careerActivities = []activityDef{
	{
		taskType:    rc.TaskType,
		displayName: "Recommend Careers",
		description: "Classifier and similarity recommendations for a profile",
		schema:      rc.InputSchema,
		errorCodes: []apperrors.ErrorCode{
			apperrors.ErrCodeInputValidationFailed, apperrors.ErrCodeProfileNotFound, apperrors.ErrCodeSchemaMismatch,
			apperrors.ErrCodeFeatureOrderMismatch, apperrors.ErrCodeUnknownCategory, apperrors.ErrCodePredictionFailed,
			apperrors.ErrCodeCatalogUnavailable, apperrors.ErrCodeCatalogEmpty,
		},
	},
	{
		taskType:    mc.TaskType,
		displayName: "Match Careers",
		description: "TF-IDF similarity ranking of the catalog against a stored profile",
		schema:      mc.InputSchema,
		errorCodes: []apperrors.ErrorCode{
			apperrors.ErrCodeInputValidationFailed, apperrors.ErrCodeProfileNotFound,
			apperrors.ErrCodeCatalogUnavailable, apperrors.ErrCodeCatalogEmpty,
		},
	},
	{
		taskType:    ecm.TaskType,
		displayName: "Evaluate Career Match",
		description: "Precision@K of one user's recommendations against their actual career",
		schema:      ecm.InputSchema,
		errorCodes: []apperrors.ErrorCode{
			apperrors.ErrCodeInputValidationFailed, apperrors.ErrCodeProfileNotFound, apperrors.ErrCodePredictionFailed,
		},
	},
	{
		taskType:    rp.TaskType,
		displayName: "Record Prediction",
		description: "Append delivered recommendations to the prediction log",
		schema:      rp.InputSchema,
		errorCodes: []apperrors.ErrorCode{
			apperrors.ErrCodeInputValidationFailed, apperrors.ErrCodeDatabaseConnectionFailed, apperrors.ErrCodeDatabaseInsertFailed,
		},
	},
}

func buildRegistry() (*registry.ActivityRegistry, error) {
	reg := &registry.ActivityRegistry{
		Version:     version,
		LastUpdated: time.Now().UTC().Format(time.RFC3339),
	}
	for _, def := range careerActivities {
		schema, err := registry.SchemaFromJSON(def.schema)
		if err != nil {
			return nil, fmt.Errorf("%s input schema: %w", def.taskType, err)
		}
		codes := make([]string, len(def.errorCodes))
		retries := 0
		for i, c := range def.errorCodes {
			codes[i] = string(c)
			retries = max(retries, apperrors.GetRetryCount(c))
		}
		reg.Activities = append(reg.Activities, registry.Activity{
			ID:          def.taskType,
			DisplayName: def.displayName,
			Description: def.description,
			Category:    "career",
			TaskType:    def.taskType,
			InputSchema: schema,
			ErrorCodes:  codes,
			Timeout:     "30s",
			Retries:     retries,
			Tags:        []string{"career-matching"},
		})
	}
	return reg, nil
}

func newActivitiesCmd() *cobra.Command {
	var (
		out      string
		validate string
	)
	cmd := &cobra.Command{
		Use:   "activities",
		Short: "Print the activity registry for the career workers",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if validate != "" {
				reg, err := registry.LoadRegistry(validate)
				if err != nil {
					return err
				}
				problems := reg.Validate()
				want := make([]string, len(careerActivities))
				for i, def := range careerActivities {
					want[i] = def.taskType
				}
				for _, t := range reg.Missing(want) {
					problems = append(problems, "missing activity "+t)
				}
				if len(problems) > 0 {
					return fmt.Errorf("registry %s is invalid:\n  %s", validate, strings.Join(problems, "\n  "))
				}
				fmt.Fprintf(cmd.OutOrStdout(), "registry %s is valid (%d activities)\n", validate, len(reg.Activities))
				return nil
			}

			reg, err := buildRegistry()
			if err != nil {
				return err
			}
			if out != "" {
				return reg.Save(out)
			}
			return writeJSON(cmd.OutOrStdout(), reg)
		},
	}
	cmd.Flags().StringVar(&out, "out", "", "write the registry to this file instead of stdout")
	cmd.Flags().StringVar(&validate, "validate", "", "check an existing registry file")
	return cmd
}
