//Package model is the boundary to the external pose estimator. Backends load a
//checkpoint once and are then asked, frame by frame, for the keypoints of the
//single subject inside a region.
package model

import (
	"context"
	"image"
	"sort"
	"sync"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/chenBenjamin97/pose-overlay/pkg/pose"
)

//ErrUnknownBackend is returned by Load for a backend nobody registered
var ErrUnknownBackend = errors.New("unknown model backend")

//Image is what a backend gets to look at: where the frame lives and how large it is.
//Backends that can use decoded pixels type-assert for them and fall back to the path.
type Image interface {
	Path() string
	Size() (width, height int)
}

//Region is a detection box in x, y, width, height form
type Region struct {
	X float64
	Y float64
	W float64
	H float64
}

//WholeImage returns the box covering the full frame.
//There is no person detector: the subject is assumed to fill the frame and the box is always accepted.
func WholeImage(width, height int) Region {
	return Region{X: 0, Y: 0, W: float64(width), H: float64(height)}
}

//XYWH returns the box in the [x, y, w, h] layout the framework expects
func (r Region) XYWH() []float64 {
	return []float64{r.X, r.Y, r.W, r.H}
}

//Rect returns the box in pixels, clamped to a width x height frame
func (r Region) Rect(width, height int) image.Rectangle {
	rect := image.Rect(int(r.X), int(r.Y), int(r.X+r.W), int(r.Y+r.H))
	return rect.Intersect(image.Rect(0, 0, width, height))
}

//Model runs pose estimation. Implementations are used from one goroutine at a time by the batch pipelines.
type Model interface {
	//Infer returns one record per person found in region of img
	Infer(ctx context.Context, img Image, region Region) ([]pose.Person, error)
	Close() error
}

//Options describe which checkpoint to load and how
type Options struct {
	Backend    string
	Config     string //framework config file, or the network description for the dnn backend
	Checkpoint string
	Device     string //"cpu", "cuda:0", ...

	WorkerCmd  string   //interpreter running the worker backend, e.g. "python3"
	WorkerArgs []string //script and extra arguments placed before the generated flags
	WorkerEnv  []string //extra "KEY=value" pairs for the worker process

	Logger *zap.Logger
}

//LoaderFunc builds a Model from Options
type LoaderFunc func(ctx context.Context, opts Options) (Model, error)

var (
	loadersMu sync.RWMutex
	loaders   = make(map[string]LoaderFunc)
)

//Register makes a backend available to Load. It panics on duplicate names, registration happens in init.
func Register(name string, fn LoaderFunc) {
	loadersMu.Lock()
	defer loadersMu.Unlock()

	if _, dup := loaders[name]; dup {
		panic("model: Register called twice for backend " + name)
	}
	loaders[name] = fn
}

//Backends lists registered backend names, sorted
func Backends() []string {
	loadersMu.RLock()
	defer loadersMu.RUnlock()

	names := make([]string, 0, len(loaders))
	for name := range loaders {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

//Load initialises the backend named in opts with its config and checkpoint
func Load(ctx context.Context, opts Options) (Model, error) {
	loadersMu.RLock()
	fn, ok := loaders[opts.Backend]
	loadersMu.RUnlock()
	if !ok {
		return nil, errors.Wrapf(ErrUnknownBackend, "Load: '%s' (have %v)", opts.Backend, Backends())
	}

	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}

	m, err := fn(ctx, opts)
	if err != nil {
		return nil, errors.Wrapf(err, "Load: backend '%s'", opts.Backend)
	}

	return m, nil
}
