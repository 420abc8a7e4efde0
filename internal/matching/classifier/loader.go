package classifier

import (
	"fmt"

	"career-matching/internal/common/config"
	"career-matching/internal/matching/encoders"
)

// NewModelLoader returns the loader used by the encoder registry. The backend comes from the
// bundle manifest.
func NewModelLoader(onnxCfg config.ONNXConfig) encoders.ModelLoader {
	return func(spec encoders.ModelSpec) (encoders.Model, error) {
		switch spec.Backend {
		case encoders.BackendONNX:
			return LoadONNXModel(spec.Path, spec.NumFeatures, spec.NumClasses, onnxCfg)
		case encoders.BackendLinear:
			return LoadLinearModel(spec.Path, spec.NumFeatures, spec.NumClasses)
		default:
			return nil, fmt.Errorf("unsupported model backend %q", spec.Backend)
		}
	}
}
