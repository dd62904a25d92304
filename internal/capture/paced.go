package capture

import (
	"context"

	"github.com/ppiankov/canisense/internal/model"
)

// Pacer blocks until the stream identified by key may proceed.
// worker.Limiter satisfies it.
type Pacer interface {
	Wait(ctx context.Context, key string) error
}

// PacedSource throttles another source
type PacedSource struct {
	src   Source
	pacer Pacer
	key   string
}

// Paced wraps src so that every Next first waits on pacer
func Paced(src Source, pacer Pacer, key string) *PacedSource {
	return &PacedSource{src: src, pacer: pacer, key: key}
}

// Next waits for clearance, then reads from the wrapped source
func (p *PacedSource) Next(ctx context.Context) (model.Signal, error) {
	if err := p.pacer.Wait(ctx, p.key); err != nil {
		return model.Signal{}, err
	}
	return p.src.Next(ctx)
}
