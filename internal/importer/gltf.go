package importer

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/Faultbox/gltfscene/internal/host"
	"github.com/Faultbox/gltfscene/pkg/gltfdoc"
)

// Import instantiates doc into data. On cancellation it returns the
// partial result together with the context error; the caller decides
// whether to discard data.
func Import(ctx context.Context, doc *gltfdoc.Document, src Source, data *host.Data, opts Options) (*Result, error) {
	if doc == nil {
		return nil, gltfdoc.ErrNoDocument
	}
	return NewSession(doc, src, data, opts).Run(ctx)
}

// Run executes every assembly stage in order.
func (s *Session) Run(ctx context.Context) (*Result, error) {
	res := &Result{SessionID: s.ID}
	s.log.Info("import started",
		zap.Int("nodes", len(s.doc.Nodes)),
		zap.Int("scenes", len(s.doc.Scenes)),
		zap.Int("skins", len(s.doc.Skins)))

	stages := []struct {
		stage Stage
		run   func(context.Context) error
	}{
		{StageInit, s.stageInit},
		{StagePerSceneInstantiate, s.stageInstantiate},
		{StageBoneChainCorrection, noCtx(s.correctBoneChains)},
		{StageRotationCorrection, noCtx(s.stageRotation)},
		{StageVertexBindingFinalize, noCtx(s.finalizeVertexBinding)},
		{StageActiveObjectSelect, noCtx(func() { res.ActiveObject = s.selectActive() })},
	}

	for _, st := range stages {
		if err := ctx.Err(); err != nil {
			return s.partial(res), fmt.Errorf("import cancelled before %s: %w", st.stage, err)
		}
		s.stage = st.stage
		s.log.Debug("stage", zap.Stringer("stage", st.stage))
		if err := st.run(ctx); err != nil {
			return s.partial(res), fmt.Errorf("import cancelled during %s: %w", st.stage, err)
		}
	}

	s.stage = StageDone
	res = s.partial(res)
	s.log.Info("import finished",
		zap.Int("objects", len(s.data.Objects)),
		zap.Int("armatures", len(s.data.Armatures)))
	return res, nil
}

func noCtx(f func()) func(context.Context) error {
	return func(context.Context) error {
		f()
		return nil
	}
}

func (s *Session) partial(res *Result) *Result {
	res.Stage = s.stage
	res.Scenes = res.Scenes[:0]
	for _, run := range s.runs {
		dup := false
		for _, sc := range res.Scenes {
			if sc == run.scene {
				dup = true
				break
			}
		}
		if !dup {
			res.Scenes = append(res.Scenes, run.scene)
		}
	}
	return res
}

func (s *Session) stageInit(context.Context) error {
	s.precompute()
	if s.opts.LoadImages {
		for i := range s.doc.Images {
			s.CreateImage(i)
		}
	}
	if len(s.doc.Nodes) == 0 {
		s.log.Warn("document has no nodes, scenes will be empty")
	}
	return nil
}

func (s *Session) stageInstantiate(ctx context.Context) error {
	scenes := make([]int, len(s.doc.Scenes))
	for i := range scenes {
		scenes[i] = i
	}
	if len(scenes) == 0 {
		scenes = []int{-1}
	}

	for _, si := range scenes {
		run := s.beginScene(si)
		for _, r := range run.roots {
			if err := ctx.Err(); err != nil {
				return err
			}
			s.materialize(r, nil)
		}
	}
	return nil
}

func (s *Session) stageRotation() {
	if s.opts.SkipYUpCorrection {
		s.log.Info("Y-up correction disabled")
		return
	}
	s.correctRotation()
}
