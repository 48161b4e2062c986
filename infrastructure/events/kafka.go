package events

import (
	"context"

	jsoniter "github.com/json-iterator/go"
	"github.com/pkg/errors"
	"github.com/segmentio/kafka-go"
	"github.com/vfg2006/sales-tracker-api/internal/config"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// messageWriter abstrai o kafka.Writer para os testes
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaPublisher publica os eventos usando o id da venda como chave,
// mantendo a ordem por venda dentro da partição
type KafkaPublisher struct {
	writer messageWriter
}

func NewKafkaPublisher(cfg config.Events) *KafkaPublisher {
	return &KafkaPublisher{writer: &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Topic:        cfg.Topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireAll,
	}}
}

func NewKafkaPublisherWith(w messageWriter) *KafkaPublisher {
	return &KafkaPublisher{writer: w}
}

func (p *KafkaPublisher) Publish(ctx context.Context, event SaleEvent) error {
	value, err := json.Marshal(event)
	if err != nil {
		return errors.Wrap(err, "erro ao serializar evento")
	}

	err = p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(event.SaleID),
		Value: value,
		Time:  event.OccurredAt,
	})
	if err != nil {
		return errors.Wrapf(err, "erro ao publicar evento %s", event.Type)
	}

	return nil
}

func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}
