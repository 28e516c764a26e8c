package features

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/danielpatrickdp/wellness-risk/internal/store"
)

// #region producer-interface
// Producer supplies part or all of a user's feature vector.
type Producer interface {
	Name() string
	Produce(ctx context.Context, userID string) (Vector, error)
}

// #endregion producer-interface

// #region assembler
// Assembler runs producers concurrently and merges their vectors in producer
// order, so later producers override earlier ones on shared names.
type Assembler struct {
	producers []Producer
	logger    *zap.Logger
}

// NewAssembler creates an Assembler. logger may be nil.
func NewAssembler(logger *zap.Logger, producers ...Producer) *Assembler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Assembler{producers: producers, logger: logger.Named("features")}
}

// Assemble returns the merged vector. A failing producer is logged and skipped;
// only context cancellation is returned as an error.
func (a *Assembler) Assemble(ctx context.Context, userID string) (Vector, error) {
	parts := make([]Vector, len(a.producers))
	g, gctx := errgroup.WithContext(ctx)
	for i, p := range a.producers {
		g.Go(func() error {
			v, err := p.Produce(gctx, userID)
			if err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				if !errors.Is(err, store.ErrNotFound) {
					a.logger.Warn("producer failed", zap.String("producer", p.Name()), zap.String("user", userID), zap.Error(err))
				}
				return nil
			}
			parts[i] = v
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("assemble features: %w", err)
	}
	return Vector{}.Merge(parts...), nil
}

// #endregion assembler

// #region stored-producer
// FeatureReader is the slice of the store the StoredProducer needs.
type FeatureReader interface {
	GetFeatures(ctx context.Context, userID string) (store.FeatureRecord, error)
}

// StoredProducer reads the persisted current feature vector.
type StoredProducer struct {
	reader FeatureReader
}

// NewStoredProducer wraps a feature reader.
func NewStoredProducer(reader FeatureReader) *StoredProducer {
	return &StoredProducer{reader: reader}
}

// Name implements Producer.
func (p *StoredProducer) Name() string { return "stored" }

// Produce implements Producer.
func (p *StoredProducer) Produce(ctx context.Context, userID string) (Vector, error) {
	rec, err := p.reader.GetFeatures(ctx, userID)
	if err != nil {
		return nil, err
	}
	return Vector(rec.Features).Clone(), nil
}

// #endregion stored-producer
