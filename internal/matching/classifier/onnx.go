package classifier

import (
	"context"
	"fmt"
	"sync"

	onnxruntime "github.com/yalue/onnxruntime_go"

	"career-matching/internal/common/config"
)

var (
	envOnce sync.Once
	envErr  error
)

// initEnvironment initializes the ONNX runtime once per process.
func initEnvironment(sharedLibraryPath string) error {
	envOnce.Do(func() {
		if sharedLibraryPath != "" {
			onnxruntime.SetSharedLibraryPath(sharedLibraryPath)
		}
		if onnxruntime.IsInitialized() {
			return
		}
		envErr = onnxruntime.InitializeEnvironment()
	})
	return envErr
}

// ONNXModel wraps an ONNX Runtime session exported from a scikit-learn classifier with
// zipmap disabled: a float32 [1, n] input, an int64 label output and a float32 [1, classes]
// probability output.
type ONNXModel struct {
	mu          sync.Mutex
	session     *onnxruntime.DynamicAdvancedSession
	inputName   string
	outputNames []string
	numFeatures int
	numClasses  int
}

// LoadONNXModel opens the model at path. numFeatures and numClasses come from the bundle's
// schema and target encoder.
func LoadONNXModel(path string, numFeatures, numClasses int, cfg config.ONNXConfig) (*ONNXModel, error) {
	if err := initEnvironment(cfg.SharedLibraryPath); err != nil {
		return nil, fmt.Errorf("failed to initialize ONNX runtime: %w", err)
	}

	inputName := cfg.InputName
	if inputName == "" {
		inputName = "input"
	}
	outputNames := cfg.OutputNames
	if len(outputNames) != 2 {
		outputNames = []string{"output", "probabilities"}
	}

	options, err := onnxruntime.NewSessionOptions()
	if err != nil {
		return nil, fmt.Errorf("failed to create session options: %w", err)
	}
	defer options.Destroy()

	session, err := onnxruntime.NewDynamicAdvancedSession(path, []string{inputName}, outputNames, options)
	if err != nil {
		return nil, fmt.Errorf("failed to load ONNX model %s: %w", path, err)
	}

	return &ONNXModel{
		session:     session,
		inputName:   inputName,
		outputNames: outputNames,
		numFeatures: numFeatures,
		numClasses:  numClasses,
	}, nil
}

// PredictProba runs one inference and returns the class probabilities in target encoder order.
func (m *ONNXModel) PredictProba(ctx context.Context, features []float64) ([]float64, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(features) != m.numFeatures {
		return nil, fmt.Errorf("expected %d features, got %d", m.numFeatures, len(features))
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.session == nil {
		return nil, fmt.Errorf("model session is closed")
	}

	input := make([]float32, len(features))
	for i, v := range features {
		input[i] = float32(v)
	}
	inputTensor, err := onnxruntime.NewTensor(onnxruntime.NewShape(1, int64(len(input))), input)
	if err != nil {
		return nil, fmt.Errorf("failed to create input tensor: %w", err)
	}
	defer inputTensor.Destroy()

	labelTensor, err := onnxruntime.NewEmptyTensor[int64](onnxruntime.NewShape(1))
	if err != nil {
		return nil, fmt.Errorf("failed to create label output tensor: %w", err)
	}
	defer labelTensor.Destroy()

	probTensor, err := onnxruntime.NewEmptyTensor[float32](onnxruntime.NewShape(1, int64(m.numClasses)))
	if err != nil {
		return nil, fmt.Errorf("failed to create probabilities output tensor: %w", err)
	}
	defer probTensor.Destroy()

	if err := m.session.Run([]onnxruntime.Value{inputTensor}, []onnxruntime.Value{labelTensor, probTensor}); err != nil {
		return nil, fmt.Errorf("inference failed: %w", err)
	}

	raw := probTensor.GetData()
	probs := make([]float64, len(raw))
	for i, p := range raw {
		probs[i] = float64(p)
	}
	return probs, nil
}

// Close releases the session. It is safe to call more than once.
func (m *ONNXModel) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.session == nil {
		return nil
	}
	err := m.session.Destroy()
	m.session = nil
	return err
}
