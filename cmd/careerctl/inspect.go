package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"career-matching/internal/common/config"
	"career-matching/internal/matching/classifier"
	"career-matching/internal/matching/encoders"
)

type bundleSummary struct {
	Directory    string   `json:"directory"`
	Version      string   `json:"version"`
	Backend      string   `json:"backend"`
	CreatedAt    string   `json:"createdAt,omitempty"`
	Features     int      `json:"features"`
	Skills       int      `json:"skills"`
	Interests    int      `json:"interests"`
	Education    []string `json:"education"`
	Targets      []string `json:"targets"`
	ScaledFields []string `json:"scaledFields"`
}

func newInspectCmd(_ *rootOptions) *cobra.Command {
	var (
		dir     string
		onnxLib string
	)
	cmd := &cobra.Command{
		Use:   "inspect",
		Short: "Load an artifact bundle and print what it contains",
		RunE: func(cmd *cobra.Command, _ []string) error {
			set, err := loadBundle(dir, onnxLib)
			if err != nil {
				return err
			}
			defer set.Close()

			summary := bundleSummary{
				Directory:    dir,
				Version:      set.Version(),
				Backend:      set.Manifest.ModelBackend,
				CreatedAt:    set.Manifest.CreatedAt,
				Features:     set.Schema.Len(),
				Skills:       set.Skills.Len(),
				Interests:    set.Interests.Len(),
				Education:    set.Education.Classes(),
				Targets:      set.Target.Classes(),
				ScaledFields: []string{},
			}
			if set.Scaler != nil {
				summary.ScaledFields = set.Scaler.Features()
			}
			return writeJSON(cmd.OutOrStdout(), summary)
		},
	}
	cmd.Flags().StringVar(&dir, "dir", "", "artifact bundle directory")
	cmd.Flags().StringVar(&onnxLib, "onnx-lib", "", "path to the ONNX Runtime shared library")
	_ = cmd.MarkFlagRequired("dir")
	return cmd
}

func loadBundle(dir, onnxLib string) (*encoders.EncoderSet, error) {
	set, err := encoders.Load(dir, encoders.LoadOptions{
		ModelLoader: classifier.NewModelLoader(config.ONNXConfig{
			SharedLibraryPath: onnxLib,
			InputName:         "input",
			OutputNames:       []string{"output", "probabilities"},
		}),
	})
	if err != nil {
		return nil, fmt.Errorf("load bundle %s: %w", dir, err)
	}
	return set, nil
}
