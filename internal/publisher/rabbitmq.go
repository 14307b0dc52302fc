package publisher

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"corpus_syncer/internal/domain"
)

// RabbitMQ publishes a document event for every record persisted by a sync
// run, so downstream processors (text extraction, indexing) can pick up new
// corpus entries without polling the database.
type RabbitMQ struct {
	conn       *amqp.Connection
	channel    *amqp.Channel
	exchange   string
	routingKey string
	logger     *slog.Logger
}

type Config struct {
	URL        string
	Exchange   string
	RoutingKey string
	QueueName  string
}

func NewRabbitMQ(cfg Config, logger *slog.Logger) (*RabbitMQ, error) {
	conn, err := amqp.Dial(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("connect to rabbitmq: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}

	err = ch.ExchangeDeclare(
		cfg.Exchange,
		"direct",
		true,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("declare exchange: %w", err)
	}

	q, err := ch.QueueDeclare(
		cfg.QueueName,
		true,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("declare queue: %w", err)
	}

	err = ch.QueueBind(
		q.Name,
		cfg.RoutingKey,
		cfg.Exchange,
		false,
		nil,
	)
	if err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("bind queue: %w", err)
	}

	logger.Info("connected to rabbitmq",
		"exchange", cfg.Exchange,
		"queue", cfg.QueueName,
		"routing_key", cfg.RoutingKey,
	)

	return &RabbitMQ{
		conn:       conn,
		channel:    ch,
		exchange:   cfg.Exchange,
		routingKey: cfg.RoutingKey,
		logger:     logger,
	}, nil
}

// DocumentMessage is the wire format of one document event.
type DocumentMessage struct {
	Action          string    `json:"action"` // "created" or "updated"
	SyncID          string    `json:"sync_id"`
	DocumentID      string    `json:"document_id"`
	PID             string    `json:"pid"`
	Title           string    `json:"title"`
	PublicationYear int       `json:"publication_year"`
	PDFCount        int       `json:"pdf_count"`
	TIFFCount       int       `json:"tiff_count"`
	Timestamp       time.Time `json:"timestamp"`
}

func (r *RabbitMQ) Publish(ctx context.Context, doc *domain.DocumentRecord, isNew bool, syncID string) error {
	action := "updated"
	if isNew {
		action = "created"
	}

	msg := DocumentMessage{
		Action:          action,
		SyncID:          syncID,
		DocumentID:      doc.DocumentID,
		PID:             doc.PID,
		Title:           doc.Title,
		PublicationYear: doc.PublicationYear,
		PDFCount:        doc.PDFCount,
		TIFFCount:       doc.TIFFCount,
		Timestamp:       time.Now().UTC(),
	}

	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}

	err = r.channel.PublishWithContext(
		ctx,
		r.exchange,
		r.routingKey,
		false,
		false,
		amqp.Publishing{
			DeliveryMode: amqp.Persistent,
			ContentType:  "application/json",
			Body:         body,
			Timestamp:    time.Now(),
		},
	)
	if err != nil {
		return fmt.Errorf("publish message: %w", err)
	}

	r.logger.Debug("published document event",
		"pid", doc.PID,
		"action", action,
	)

	return nil
}

func (r *RabbitMQ) Close() error {
	if r.channel != nil {
		r.channel.Close()
	}
	if r.conn != nil {
		return r.conn.Close()
	}
	return nil
}
