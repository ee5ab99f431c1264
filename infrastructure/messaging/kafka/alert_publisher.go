package kafka

import (
	"context"
	"fmt"
	"time"

	jsoniter "github.com/json-iterator/go"
	kafkago "github.com/segmentio/kafka-go"

	"github.com/vfg2006/revenue-forecasting-api/infrastructure/messaging"
	"github.com/vfg2006/revenue-forecasting-api/internal/config"
	"github.com/vfg2006/revenue-forecasting-api/internal/domain"
	"github.com/vfg2006/revenue-forecasting-api/pkg/log"
)

// messageWriter é o subconjunto de *kafka.Writer usado pelo publicador
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafkago.Message) error
	Close() error
}

// alertMessage é o payload publicado para cada alerta
type alertMessage struct {
	RunID string `json:"run_id"`
	domain.Alert
}

type alertPublisher struct {
	writer messageWriter
	topic  string
}

// NewAlertPublisher cria o publicador Kafka, ou um publicador vazio quando desabilitado
func NewAlertPublisher(cfg config.Kafka) messaging.AlertPublisher {
	if !cfg.Enabled {
		log.L.Info("Publicação de alertas no Kafka desabilitada por configuração")
		return messaging.NewNoopPublisher()
	}

	writer := &kafkago.Writer{
		Addr:         kafkago.TCP(cfg.Brokers...),
		Topic:        cfg.AlertsTopic,
		Balancer:     &kafkago.Hash{},
		RequiredAcks: kafkago.RequireAll,
		BatchTimeout: 50 * time.Millisecond,
	}

	log.L.WithFields(log.Fields{
		"brokers": cfg.Brokers,
		"topic":   cfg.AlertsTopic,
	}).Info("Publicador de alertas Kafka configurado")

	return newAlertPublisher(writer, cfg.AlertsTopic)
}

func newAlertPublisher(writer messageWriter, topic string) *alertPublisher {
	return &alertPublisher{writer: writer, topic: topic}
}

// Publish envia uma mensagem por alerta, com chave tipo:unidade
func (p *alertPublisher) Publish(ctx context.Context, runID string, alerts []domain.Alert) error {
	if len(alerts) == 0 {
		return nil
	}

	messages := make([]kafkago.Message, 0, len(alerts))
	for _, alert := range alerts {
		payload, err := jsoniter.Marshal(alertMessage{RunID: runID, Alert: alert})
		if err != nil {
			return fmt.Errorf("erro ao serializar alerta: %w", err)
		}

		messages = append(messages, kafkago.Message{
			Key:   []byte(fmt.Sprintf("%s:%s", alert.Type, alert.Unit())),
			Value: payload,
			Headers: []kafkago.Header{
				{Key: "run_id", Value: []byte(runID)},
				{Key: "severity", Value: []byte(alert.Severity)},
			},
			Time: time.Now(),
		})
	}

	if err := p.writer.WriteMessages(ctx, messages...); err != nil {
		return fmt.Errorf("erro ao publicar alertas no tópico %s: %w", p.topic, err)
	}

	return nil
}

func (p *alertPublisher) Close() error {
	return p.writer.Close()
}
