package scorer

import (
	"sync/atomic"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/rfp-scorer/internal/model"
	"github.com/sells-group/rfp-scorer/internal/profile"
)

// Holder publishes the current Engine for hot reload. A reload swaps in a
// fully built Engine; in-flight calls keep the Engine they started with.
type Holder struct {
	cur atomic.Pointer[Engine]
}

// NewHolder returns a Holder serving e.
func NewHolder(e *Engine) *Holder {
	h := &Holder{}
	h.cur.Store(e)
	return h
}

// Engine returns the current engine.
func (h *Holder) Engine() *Engine {
	return h.cur.Load()
}

// Swap installs e and returns the engine it replaced.
func (h *Holder) Swap(e *Engine) *Engine {
	return h.cur.Swap(e)
}

// ScoreAt scores rec with the current engine.
func (h *Holder) ScoreAt(rec model.OpportunityRecord, at time.Time) model.ScoringResult {
	return h.cur.Load().ScoreAt(rec, at)
}

// Reload loads the profile at path and swaps in a new engine. On any error
// the current engine stays in place.
func (h *Holder) Reload(path string, opts ...Option) (*Engine, error) {
	p, err := profile.Load(path)
	if err != nil {
		return nil, eris.Wrap(err, "scorer: reload profile")
	}
	e, err := New(p, opts...)
	if err != nil {
		return nil, eris.Wrap(err, "scorer: reload engine")
	}

	prev := h.Swap(e)
	fields := []zap.Field{zap.String("version", e.Version()), zap.String("source", p.Source)}
	if prev != nil {
		fields = append(fields, zap.String("previous_version", prev.Version()))
	}
	zap.L().Info("scorer: profile reloaded", fields...)
	return e, nil
}
