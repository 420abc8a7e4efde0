package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"career-matching/internal/common/config"
	"career-matching/internal/common/logger"
	"career-matching/internal/matching/catalog"
	"career-matching/internal/matching/encoders"
	"career-matching/internal/matching/recommender"
	"career-matching/internal/matching/similarity"
)

type predictInput struct {
	UserID           string              `json:"userId"`
	Age              *float64            `json:"age"`
	Experience       *float64            `json:"experience"`
	Education        string              `json:"education"`
	Skills           []string            `json:"skills"`
	Interests        []string            `json:"interests"`
	CareerPreference string              `json:"careerPreference"`
	Weights          *similarity.Weights `json:"weights"`
}

type offlineFlags struct {
	dir      string
	onnxLib  string
	csvPath  string
	strategy string
	topK     int
}

func (f *offlineFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.dir, "dir", "", "artifact bundle directory (required unless --strategy similarity)")
	cmd.Flags().StringVar(&f.onnxLib, "onnx-lib", "", "path to the ONNX Runtime shared library")
	cmd.Flags().StringVar(&f.csvPath, "csv", "", "career catalog CSV export")
	cmd.Flags().StringVar(&f.strategy, "strategy", "", "classifier, similarity or both")
	cmd.Flags().IntVar(&f.topK, "top-k", 0, "recommendations per list")
	_ = cmd.MarkFlagRequired("csv")
}

// service builds a recommender over local files. The returned close func releases the model.
func (f *offlineFlags) service(log logger.Logger) (*recommender.Service, func(), error) {
	var sets recommender.SetProvider
	closeFn := func() {}
	if f.dir != "" {
		set, err := loadBundle(f.dir, f.onnxLib)
		if err != nil {
			return nil, nil, err
		}
		sets = encoders.NewStaticRegistry(set)
		closeFn = func() { _ = set.Close() }
	} else if f.strategy != config.StrategySimilarity {
		return nil, nil, fmt.Errorf("--dir is required for strategy %q", f.strategy)
	}

	cfg := matchingDefaults()
	svc := recommender.New(cfg, sets, catalog.NewCSVSource(f.csvPath), similarity.NewFitCache(cfg.FitCacheSize), log)
	return svc, closeFn, nil
}

func newPredictCmd(opts *rootOptions) *cobra.Command {
	flags := &offlineFlags{}
	var inputPath string
	cmd := &cobra.Command{
		Use:   "predict",
		Short: "Recommend careers for one profile read from a JSON file",
		RunE: func(cmd *cobra.Command, _ []string) error {
			var in predictInput
			if err := readJSONFile(inputPath, cmd.InOrStdin(), &in); err != nil {
				return err
			}

			svc, closeFn, err := flags.service(opts.logger())
			if err != nil {
				return err
			}
			defer closeFn()

			res, err := svc.Recommend(context.Background(), recommender.Request{
				UserID:           in.UserID,
				Age:              in.Age,
				Experience:       in.Experience,
				Education:        in.Education,
				Skills:           in.Skills,
				Interests:        in.Interests,
				CareerPreference: in.CareerPreference,
				TopK:             flags.topK,
				Strategy:         flags.strategy,
				Weights:          in.Weights,
			})
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), res)
		},
	}
	flags.register(cmd)
	cmd.Flags().StringVar(&inputPath, "input", "-", "profile JSON file, - for stdin")
	return cmd
}

func readJSONFile(path string, stdin io.Reader, v interface{}) error {
	var r io.Reader = stdin
	if path != "" && path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return err
		}
		defer f.Close()
		r = f
	}
	if err := json.NewDecoder(r).Decode(v); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}
