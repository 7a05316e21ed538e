package producer

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"credit-scoring-service/internal/pkg/config"
	"credit-scoring-service/internal/pkg/logger"
	"credit-scoring-service/internal/pkg/models"

	"github.com/confluentinc/confluent-kafka-go/v2/kafka"
)

const flushTimeoutMs = 15 * 1000

// messageProducer is the confluent producer surface PublishLoanRecord needs.
type messageProducer interface {
	Produce(msg *kafka.Message, deliveryChan chan kafka.Event) error
	Flush(timeoutMs int) int
	Close()
}

type Producer struct {
	producer messageProducer
	topic    string
	sleep    func(time.Duration)
}

func NewKafkaProducer(cfg config.KafkaConfig) (*Producer, error) {
	p, err := kafka.NewProducer(&kafka.ConfigMap{
		"bootstrap.servers": cfg.Server,
		"security.protocol": cfg.SecurityProtocol,
		"sasl.mechanisms":   cfg.SASLMechanism,
		"sasl.username":     cfg.SASLUsername,
		"sasl.password":     cfg.SASLPassword,
		"client.id":         cfg.ClientID,
		"log_level":         0})
	if err != nil {
		return nil, err
	}

	return &Producer{
		producer: p,
		topic:    cfg.LoanTopic,
		sleep:    time.Sleep,
	}, nil
}

// PublishLoanRecord emits the processed-loan record keyed by loan id. Produce
// is retried with a growing sleep before giving up.
func (p *Producer) PublishLoanRecord(ctx context.Context, loan models.LoanRecord, retryCount int) error {
	payload, err := json.Marshal(loan)
	if err != nil {
		return fmt.Errorf("marshal loan record: %w", err)
	}

	msg := &kafka.Message{
		TopicPartition: kafka.TopicPartition{Topic: &p.topic, Partition: kafka.PartitionAny},
		Value:          payload,
		Key:            []byte(loan.ID),
	}

	var lastErr error
	for attempt := 0; attempt <= retryCount; attempt++ {
		lastErr = p.producer.Produce(msg, nil)
		if lastErr == nil {
			logger.CtxInfo(ctx, "Loan record sent to kafka",
				slog.String("loan_id", loan.ID),
				slog.String("status", loan.Status))
			p.producer.Flush(flushTimeoutMs)
			return nil
		}
		logger.CtxError(ctx, "Failed to send loan record to kafka", lastErr,
			slog.String("loan_id", loan.ID),
			slog.Int("attempt", attempt+1))
		if attempt < retryCount {
			p.sleep(time.Second * time.Duration(attempt+1))
		}
	}
	return fmt.Errorf("kafka produce loan %s: %w", loan.ID, lastErr)
}

func (p *Producer) Close() {
	p.producer.Flush(flushTimeoutMs)
	p.producer.Close()
}
