package main

import (
	"context"

	"github.com/spf13/cobra"

	"career-matching/internal/common/config"
	"career-matching/internal/matching/evaluation"
	"career-matching/internal/matching/recommender"
	"career-matching/internal/models"
)

type evaluationReport struct {
	Strategy      string              `json:"strategy"`
	K             int                 `json:"k"`
	Users         int                 `json:"users"`
	Skipped       []string            `json:"skipped"`
	MeanPrecision float64             `json:"meanPrecisionAtK"`
	Results       []evaluation.Result `json:"results"`
}

func newEvaluateCmd(opts *rootOptions) *cobra.Command {
	flags := &offlineFlags{}
	var (
		profilesPath string
		k            int
	)
	cmd := &cobra.Command{
		Use:   "evaluate",
		Short: "Compute Precision@K over profiles with a known career",
		RunE: func(cmd *cobra.Command, _ []string) error {
			var users []models.UserProfile
			if err := readJSONFile(profilesPath, cmd.InOrStdin(), &users); err != nil {
				return err
			}

			if flags.strategy == "" {
				flags.strategy = config.StrategySimilarity
			}
			if k <= 0 {
				k = evaluation.DefaultK
			}
			svc, closeFn, err := flags.service(opts.logger())
			if err != nil {
				return err
			}
			defer closeFn()

			report := evaluationReport{Strategy: flags.strategy, K: k, Skipped: []string{}, Results: []evaluation.Result{}}
			for i := range users {
				u := &users[i]
				if u.ActualCareer == "" {
					report.Skipped = append(report.Skipped, u.UserID)
					continue
				}
				req := recommender.RequestFromProfile(u)
				req.Strategy = flags.strategy
				req.TopK = k
				res, err := svc.Recommend(context.Background(), req)
				if err != nil {
					return err
				}
				titles := res.Recommendations.Classifier
				if flags.strategy == config.StrategySimilarity {
					titles = res.Recommendations.Similarity
				}
				predicted := make([]string, 0, len(titles))
				for _, r := range titles {
					predicted = append(predicted, r.Title)
				}
				report.Results = append(report.Results, evaluation.Evaluate(u.UserID, u.ActualCareer, predicted, k))
			}
			report.Users = len(report.Results)
			report.MeanPrecision = evaluation.Mean(report.Results)
			return writeJSON(cmd.OutOrStdout(), report)
		},
	}
	flags.register(cmd)
	cmd.Flags().StringVar(&profilesPath, "profiles", "-", "JSON array of user profiles, - for stdin")
	cmd.Flags().IntVar(&k, "k", evaluation.DefaultK, "cutoff for Precision@K")
	return cmd
}
