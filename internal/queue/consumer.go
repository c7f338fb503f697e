package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

// FileSink appends one line per ticket event to a log file.
type FileSink struct {
	path string
	mu   sync.Mutex
}

// NewFileSink returns a sink writing to path.  The parent directory is
// created on first write.
func NewFileSink(path string) *FileSink {
	return &FileSink{path: path}
}

// Write appends ev to the file.
func (s *FileSink) Write(ev TicketEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("mkdir logs: %w", err)
	}
	f, err := os.OpenFile(s.path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	defer f.Close()

	if _, err := f.WriteString(FormatLine(ev)); err != nil {
		return fmt.Errorf("write log: %w", err)
	}
	return nil
}

// FormatLine renders ev as a single human friendly line.
func FormatLine(ev TicketEvent) string {
	return fmt.Sprintf("[%s] Ticket %s | ticket_id=%d | user_id=%d | movie=%q | show_time=%s | price=%.2f | seats=[%s]\n",
		ev.OccurredAt, strings.ToLower(ev.Action), ev.TicketID, ev.UserID, ev.MovieTitle, ev.ShowTime, ev.Price,
		strings.Join(ev.Seats, ","))
}

// Consumer reads ticket events from the broker into a FileSink.
type Consumer struct {
	url   string
	queue string
	sink  *FileSink
	log   *zap.Logger
}

// NewConsumer returns a consumer for the given broker URL and queue.
func NewConsumer(url, queue string, sink *FileSink, log *zap.Logger) *Consumer {
	if log == nil {
		log = zap.NewNop()
	}
	return &Consumer{url: url, queue: queue, sink: sink, log: log.Named("ticket-consumer")}
}

// Run connects to the broker and consumes until ctx is cancelled,
// reconnecting with exponential backoff when the connection drops.
// Messages that cannot be handled are rejected without requeue.
func (c *Consumer) Run(ctx context.Context) error {
	backoff := time.Second
	for {
		conn, err := amqp.Dial(c.url)
		if err != nil {
			c.log.Warn("dial broker failed", zap.Error(err), zap.Duration("retry_in", backoff))
			if !sleep(ctx, backoff) {
				return ctx.Err()
			}
			if backoff < 30*time.Second {
				backoff *= 2
			}
			continue
		}
		backoff = time.Second

		err = c.consume(ctx, conn)
		_ = conn.Close()
		if ctx.Err() != nil {
			return ctx.Err()
		}
		c.log.Warn("consume loop ended, reconnecting", zap.Error(err))
		if !sleep(ctx, 2*time.Second) {
			return ctx.Err()
		}
	}
}

func (c *Consumer) consume(ctx context.Context, conn *amqp.Connection) error {
	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("channel open: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if err := ch.Qos(50, 0, false); err != nil {
		c.log.Warn("set QoS failed", zap.Error(err))
	}
	if _, err := ch.QueueDeclare(c.queue, true, false, false, false, nil); err != nil {
		return fmt.Errorf("queue declare: %w", err)
	}
	msgs, err := ch.Consume(c.queue, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("queue consume: %w", err)
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case d, ok := <-msgs:
			if !ok {
				return errors.New("deliveries channel closed")
			}
			if err := c.Handle(d.Body); err != nil {
				c.log.Error("handle message failed", zap.Error(err))
				_ = d.Nack(false, false)
				continue
			}
			_ = d.Ack(false)
		}
	}
}

// Handle decodes one message body and writes it to the sink.
func (c *Consumer) Handle(body []byte) error {
	var ev TicketEvent
	if err := json.Unmarshal(body, &ev); err != nil {
		return fmt.Errorf("unmarshal: %w", err)
	}
	return c.sink.Write(ev)
}

func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
