package classifier

import (
	"context"
	"fmt"
	"sync"

	ort "github.com/yalue/onnxruntime_go"

	"github.com/Skufu/symptomcheck/internal/models"
)

var (
	runtimeOnce sync.Once
	runtimeErr  error
)

// InitRuntime loads the ONNX Runtime shared library once per process.
func InitRuntime(libraryPath string) error {
	runtimeOnce.Do(func() {
		if libraryPath != "" {
			ort.SetSharedLibraryPath(libraryPath)
		}
		if err := ort.InitializeEnvironment(); err != nil {
			runtimeErr = fmt.Errorf("initialize onnxruntime: %w", err)
		}
	})
	return runtimeErr
}

type ONNXConfig struct {
	ModelPath  string
	InputName  string
	OutputName string
	Features   int
	Labels     []string
}

// ONNXModel runs a single-row float32 model. The session's tensors are bound
// once, so calls are serialized.
type ONNXModel struct {
	mu      sync.Mutex
	session *ort.AdvancedSession
	input   *ort.Tensor[float32]
	output  *ort.Tensor[float32]
	labels  []string
}

func NewONNXModel(cfg ONNXConfig) (*ONNXModel, error) {
	if cfg.Features <= 0 || len(cfg.Labels) == 0 {
		return nil, fmt.Errorf("onnx model %s: features and labels are required", cfg.ModelPath)
	}
	if cfg.InputName == "" {
		cfg.InputName = "input"
	}
	if cfg.OutputName == "" {
		cfg.OutputName = "output"
	}

	input, err := ort.NewEmptyTensor[float32](ort.NewShape(1, int64(cfg.Features)))
	if err != nil {
		return nil, fmt.Errorf("create input tensor: %w", err)
	}
	output, err := ort.NewEmptyTensor[float32](ort.NewShape(1, int64(len(cfg.Labels))))
	if err != nil {
		input.Destroy()
		return nil, fmt.Errorf("create output tensor: %w", err)
	}
	session, err := ort.NewAdvancedSession(cfg.ModelPath,
		[]string{cfg.InputName}, []string{cfg.OutputName},
		[]ort.Value{input}, []ort.Value{output}, nil)
	if err != nil {
		input.Destroy()
		output.Destroy()
		return nil, fmt.Errorf("create session for %s: %w", cfg.ModelPath, err)
	}

	return &ONNXModel{
		session: session,
		input:   input,
		output:  output,
		labels:  append([]string(nil), cfg.Labels...),
	}, nil
}

func (m *ONNXModel) Predict(ctx context.Context, features []float32) ([]models.Prediction, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.session == nil {
		return nil, ErrModelUnavailable
	}

	in := m.input.GetData()
	if len(features) != len(in) {
		return nil, fmt.Errorf("%w: got %d, want %d", ErrFeatureLength, len(features), len(in))
	}
	copy(in, features)
	if err := m.session.Run(); err != nil {
		return nil, fmt.Errorf("run onnx session: %w", err)
	}

	scores := make([]float32, len(m.labels))
	copy(scores, m.output.GetData())
	return Label(m.labels, scores)
}

func (m *ONNXModel) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.session == nil {
		return nil
	}
	err := m.session.Destroy()
	m.input.Destroy()
	m.output.Destroy()
	m.session = nil
	return err
}
