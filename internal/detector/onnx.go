package detector

import (
	"context"
	"errors"
	"fmt"
	"image"
	"io"
	"sync"

	"github.com/sirupsen/logrus"
	ort "github.com/yalue/onnxruntime_go"

	"github.com/ironsheep/scanlab/internal/models"
)

// Default tensor names of Ultralytics ONNX exports.
const (
	DefaultInputName  = "images"
	DefaultOutputName = "output0"
	DefaultInputSize  = 640
)

// Config configures an ONNXDetector.
type Config struct {
	// ModelDir is searched for ModelFiles.
	ModelDir string

	// ModelFiles are tried in order; the first existing file is loaded.
	ModelFiles []string

	// InputSize is used when the model metadata does not name one.
	InputSize int

	// Classes is the class count used when the metadata has no class list.
	Classes int

	// IoUThreshold for suppression; zero means DefaultIoUThreshold.
	IoUThreshold float64

	// LibraryPath points at the onnxruntime shared library. Empty uses the
	// onnxruntime_go default.
	LibraryPath string

	// Threads limits intra-op parallelism; zero leaves the runtime default.
	Threads int
}

var errDetectorClosed = errors.New("detector closed")

var (
	envOnce sync.Once
	envErr  error
)

// initEnvironment initializes the onnxruntime environment once per process.
func initEnvironment(libPath string) error {
	envOnce.Do(func() {
		if libPath != "" {
			ort.SetSharedLibraryPath(libPath)
		}
		if err := ort.InitializeEnvironment(); err != nil {
			envErr = fmt.Errorf("failed to initialize ONNX environment: %w", err)
		}
	})
	return envErr
}

// Shutdown releases the onnxruntime environment. Call it once, after every
// ONNXDetector has been closed.
func Shutdown() {
	if ort.IsInitialized() {
		ort.DestroyEnvironment()
	}
}

// ONNXDetector runs a YOLO model with onnxruntime.
//
// The model is loaded on the first Detect or ClassNames call and kept for
// the lifetime of the detector. A load failure is remembered and returned
// from every later call. Inference is serialized because the input and
// output tensors belong to the session.
type ONNXDetector struct {
	cfg Config
	log logrus.FieldLogger

	once    sync.Once
	loadErr error

	mu      sync.Mutex
	session *ort.AdvancedSession
	input   *ort.Tensor[float32]
	output  *ort.Tensor[float32]
	layout  Output
	meta    Metadata
	path    string
}

// NewONNX creates a detector. Nothing is loaded until first use.
func NewONNX(cfg Config, log logrus.FieldLogger) *ONNXDetector {
	if log == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		log = l
	}
	if cfg.IoUThreshold <= 0 {
		cfg.IoUThreshold = DefaultIoUThreshold
	}
	return &ONNXDetector{cfg: cfg, log: log}
}

func (d *ONNXDetector) load() error {
	d.once.Do(func() {
		d.loadErr = d.open()
		if d.loadErr != nil {
			d.log.WithError(d.loadErr).Error("Failed to load detection model")
		}
	})
	return d.loadErr
}

func (d *ONNXDetector) open() error {
	path, err := ResolveModel(d.cfg.ModelDir, d.cfg.ModelFiles)
	if err != nil {
		return err
	}
	meta, err := LoadMetadata(path)
	if err != nil {
		return err
	}

	size := meta.ImageSize
	if size <= 0 {
		size = d.cfg.InputSize
	}
	if size <= 0 {
		size = DefaultInputSize
	}

	classes := len(meta.Classes)
	if classes == 0 && len(meta.OutputShape) == 3 {
		classes = int(meta.OutputShape[1]) - 4
	}
	if classes <= 0 {
		classes = d.cfg.Classes
	}
	if classes <= 0 {
		return fmt.Errorf("model %s: class count unknown, add a metadata file", path)
	}

	anchors := AnchorCount(size)
	if len(meta.OutputShape) == 3 {
		anchors = int(meta.OutputShape[2])
	}

	inName, outName := meta.InputName, meta.OutputName
	if inName == "" {
		inName = DefaultInputName
	}
	if outName == "" {
		outName = DefaultOutputName
	}

	if err := initEnvironment(d.cfg.LibraryPath); err != nil {
		return err
	}

	input, err := ort.NewEmptyTensor[float32](ort.NewShape(1, 3, int64(size), int64(size)))
	if err != nil {
		return fmt.Errorf("failed to create input tensor: %w", err)
	}
	output, err := ort.NewEmptyTensor[float32](ort.NewShape(1, int64(4+classes), int64(anchors)))
	if err != nil {
		input.Destroy()
		return fmt.Errorf("failed to create output tensor: %w", err)
	}

	options, err := ort.NewSessionOptions()
	if err != nil {
		input.Destroy()
		output.Destroy()
		return fmt.Errorf("failed to create session options: %w", err)
	}
	defer options.Destroy()
	if d.cfg.Threads > 0 {
		if err := options.SetIntraOpNumThreads(d.cfg.Threads); err != nil {
			d.log.WithError(err).Warn("Ignoring thread limit")
		}
	}

	session, err := ort.NewAdvancedSession(path,
		[]string{inName}, []string{outName},
		[]ort.ArbitraryTensor{input}, []ort.ArbitraryTensor{output},
		options)
	if err != nil {
		input.Destroy()
		output.Destroy()
		return fmt.Errorf("failed to create ONNX session for %s: %w", path, err)
	}

	d.mu.Lock()
	d.session = session
	d.input = input
	d.output = output
	d.meta = meta
	d.path = path
	d.layout = Output{Classes: classes, Anchors: anchors, InputSize: size}
	d.mu.Unlock()

	d.log.WithFields(logrus.Fields{
		"model":   path,
		"size":    size,
		"classes": classes,
		"anchors": anchors,
	}).Info("Loaded detection model")
	return nil
}

// Detect runs the model on img.
func (d *ONNXDetector) Detect(ctx context.Context, img image.Image, threshold float64) ([]models.Detection, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := d.load(); err != nil {
		return nil, err
	}

	data := Preprocess(img, d.layout.InputSize)

	d.mu.Lock()
	if d.session == nil {
		d.mu.Unlock()
		return nil, errDetectorClosed
	}
	copy(d.input.GetData(), data)
	err := d.session.Run()
	var raw []float32
	if err == nil {
		raw = make([]float32, len(d.output.GetData()))
		copy(raw, d.output.GetData())
	}
	d.mu.Unlock()
	if err != nil {
		return nil, fmt.Errorf("inference failed: %w", err)
	}

	b := img.Bounds()
	return Decode(raw, d.layout, b.Dx(), b.Dy(), threshold, d.cfg.IoUThreshold)
}

// ClassNames returns the class names from the model metadata, loading the
// model if needed. The slice is empty when the metadata lists none.
func (d *ONNXDetector) ClassNames() ([]string, error) {
	if err := d.load(); err != nil {
		return nil, err
	}
	return d.meta.Classes, nil
}

// ModelPath returns the loaded model file, or "" before loading.
func (d *ONNXDetector) ModelPath() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.path
}

// Close releases the session and its tensors.
func (d *ONNXDetector) Close() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.input != nil {
		d.input.Destroy()
		d.input = nil
	}
	if d.output != nil {
		d.output.Destroy()
		d.output = nil
	}
	if d.session != nil {
		d.session.Destroy()
		d.session = nil
	}
}
