// Package messaging publica os resultados das análises para consumidores externos
package messaging

import (
	"context"

	"github.com/vfg2006/revenue-forecasting-api/internal/domain"
)

// AlertPublisher publica os alertas de uma execução de análise
type AlertPublisher interface {
	Publish(ctx context.Context, runID string, alerts []domain.Alert) error
	Close() error
}

type noopPublisher struct{}

// NewNoopPublisher é usado quando a publicação está desabilitada
func NewNoopPublisher() AlertPublisher {
	return noopPublisher{}
}

func (noopPublisher) Publish(context.Context, string, []domain.Alert) error { return nil }

func (noopPublisher) Close() error { return nil }
