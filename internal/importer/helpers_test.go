package importer

import (
	"fmt"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/Faultbox/gltfscene/internal/host"
	"github.com/Faultbox/gltfscene/pkg/gltfdoc"
	"github.com/Faultbox/gltfscene/pkg/math"
)

const tol = 1e-5

// fakeSource serves accessor and image data from maps.
type fakeSource struct {
	mats   map[int][]math.Mat4
	vecs   map[int][]math.Vec3
	images map[int][]byte
	reads  int
}

func (f *fakeSource) Mat4s(idx int) ([]math.Mat4, error) {
	f.reads++
	m, ok := f.mats[idx]
	if !ok {
		return nil, fmt.Errorf("%w: no accessor %d", gltfdoc.ErrAccessor, idx)
	}
	return m, nil
}

func (f *fakeSource) Vec3s(idx int) ([]math.Vec3, error) {
	v, ok := f.vecs[idx]
	if !ok {
		return nil, fmt.Errorf("%w: no accessor %d", gltfdoc.ErrAccessor, idx)
	}
	return v, nil
}

func (f *fakeSource) ImageData(idx int) ([]byte, string, error) {
	b, ok := f.images[idx]
	if !ok {
		return nil, "", fmt.Errorf("%w: no image %d", gltfdoc.ErrImage, idx)
	}
	return b, "image/png", nil
}

func observedLogger() (*zap.Logger, *observer.ObservedLogs) {
	core, logs := observer.New(zapcore.DebugLevel)
	return zap.New(core), logs
}

// newTestSession returns a session with an observed logger.
func newTestSession(t *testing.T, doc *gltfdoc.Document, src Source, opts Options) (*Session, *observer.ObservedLogs) {
	t.Helper()
	log, logs := observedLogger()
	opts.Logger = log
	return NewSession(doc, src, host.NewData(), opts), logs
}

func objectsOfType(d *host.Data, typ host.ObjectType) []*host.Object {
	var out []*host.Object
	for _, o := range d.Objects {
		if o.Type == typ {
			out = append(out, o)
		}
	}
	return out
}
