// Package queue moves scoring jobs from the submission surface to the
// worker over a durable RabbitMQ queue, so long scoring runs never block
// the candidate-facing request.
package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

const (
	scoringQueue   = "skillprobe.scoring"
	publishTimeout = 5 * time.Second
)

// ScoringJob asks the worker to score one queued result. The record itself
// carries the assessment and response ids, so the job stays a pointer.
type ScoringJob struct {
	ResultID string `json:"result_id"`
}

type Queue struct {
	conn    *amqp.Connection
	channel *amqp.Channel
	queue   amqp.Queue
	logger  *zap.Logger
}

// Connect dials RabbitMQ and declares the durable scoring queue.
func Connect(url string, logger *zap.Logger) (*Queue, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("dial rabbitmq: %w", err)
	}

	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}

	q, err := channel.QueueDeclare(scoringQueue, true, false, false, false, nil)
	if err != nil {
		channel.Close()
		conn.Close()
		return nil, fmt.Errorf("declare queue %s: %w", scoringQueue, err)
	}

	logger.Debug("connected to rabbitmq", zap.String("queue", q.Name))

	return &Queue{conn: conn, channel: channel, queue: q, logger: logger}, nil
}

// Close releases the channel and connection.
func (q *Queue) Close() error {
	if err := q.channel.Close(); err != nil {
		q.conn.Close()
		return fmt.Errorf("close channel: %w", err)
	}
	if err := q.conn.Close(); err != nil {
		return fmt.Errorf("close connection: %w", err)
	}
	return nil
}

// PublishScoringJob enqueues one job as a persistent JSON message.
func (q *Queue) PublishScoringJob(ctx context.Context, job ScoringJob) error {
	body, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("marshal scoring job: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()

	err = q.channel.PublishWithContext(ctx, "", q.queue.Name, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Body:         body,
	})
	if err != nil {
		return fmt.Errorf("publish scoring job: %w", err)
	}

	q.logger.Info("scoring job enqueued", zap.String("result_id", job.ResultID))
	return nil
}

// ConsumeScoringJobs delivers jobs to the handler one at a time until the
// context is canceled or the channel closes. A job is acked only after the
// handler returns; a handler error drops the message without requeueing,
// because the worker records the failure on the result itself and a retry
// loop through the broker would just fail again.
func (q *Queue) ConsumeScoringJobs(ctx context.Context, handler func(context.Context, ScoringJob) error) error {
	if err := q.channel.Qos(1, 0, false); err != nil {
		return fmt.Errorf("set prefetch: %w", err)
	}

	deliveries, err := q.channel.Consume(q.queue.Name, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("register consumer: %w", err)
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case d, ok := <-deliveries:
			if !ok {
				return fmt.Errorf("delivery channel for %s closed", q.queue.Name)
			}

			var job ScoringJob
			if err := json.Unmarshal(d.Body, &job); err != nil {
				q.logger.Warn("dropping malformed scoring job", zap.Error(err))
				d.Nack(false, false)
				continue
			}

			if err := handler(ctx, job); err != nil {
				q.logger.Error("scoring job failed",
					zap.String("result_id", job.ResultID),
					zap.Error(err),
				)
				d.Nack(false, false)
				continue
			}

			d.Ack(false)
		}
	}
}
