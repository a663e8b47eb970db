package aiur

import (
	"context"

	"github.com/segmentio/kafka-go"
)

const (
	TransferTopic = "aiur_transfer"
	PurchaseTopic = "aiur_purchase"
	RefundTopic   = "aiur_refund"
	AdminTopic    = "aiur_admin"
)

type KWriter struct {
	w *kafka.Writer
}

func NewKWriter(topic string, uri string) (*KWriter, error) {
	w := &kafka.Writer{
		Addr:     kafka.TCP(uri),
		Topic:    topic,
		Balancer: &kafka.LeastBytes{},
	}

	return &KWriter{
		w: w,
	}, nil
}

func (kw *KWriter) Write(body []byte) error {
	err := kw.w.WriteMessages(
		context.Background(),
		kafka.Message{
			Value: body,
		},
	)
	return err
}

func (kw *KWriter) Close() {
	kw.w.Close()
}

func NewKWriters(uri string) (map[string]*KWriter, error) {
	writers := make(map[string]*KWriter)
	for _, topic := range []string{TransferTopic, PurchaseTopic, RefundTopic, AdminTopic} {
		w, err := NewKWriter(topic, uri)
		if err != nil {
			return nil, err
		}
		writers[topic] = w
	}
	return writers, nil
}
