package main

import (
	"context"
	"io"
	"os"
	"os/signal"
	"strconv"
	"sync"
	"syscall"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/suPer8Hu/ai-chat/internal/ai"
	"github.com/suPer8Hu/ai-chat/internal/chat"
	"github.com/suPer8Hu/ai-chat/internal/config"
	"github.com/suPer8Hu/ai-chat/internal/db"
	"github.com/suPer8Hu/ai-chat/internal/logging"
	"github.com/suPer8Hu/ai-chat/internal/store/rabbitmq"
)

const (
	attemptHeader = "x-attempt"
	retryDelay    = 5 * time.Second
)

func main() {
	cfg := config.Load()
	logger := logging.New(cfg.LogLevel).With("component", "worker")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	gdb, err := db.Connect(cfg.DBDSN)
	if err != nil {
		logger.Error("db connect failed", "err", err)
		os.Exit(1)
	}
	repo := chat.NewRepo(gdb)

	gen, err := ai.DefaultRegistry(ai.OptionsFromConfig(cfg)).Get(ctx, cfg.AIProvider)
	if err != nil {
		logger.Error("ai provider init failed", "provider", cfg.AIProvider, "err", err)
		os.Exit(1)
	}
	if c, ok := gen.(io.Closer); ok {
		defer c.Close()
	}

	h := &namingHandler{store: repo, namer: chat.NewNamer(repo, gen, logger), logger: logger}

	conn, err := amqp.Dial(cfg.RabbitURL)
	if err != nil {
		logger.Error("rabbit dial failed", "err", err)
		os.Exit(1)
	}
	defer conn.Close()

	ch, err := conn.Channel()
	if err != nil {
		logger.Error("rabbit channel failed", "err", err)
		os.Exit(1)
	}
	defer ch.Close()

	if err := rabbitmq.DeclareQueues(ch, cfg.RabbitQueue); err != nil {
		logger.Error("queue declare failed", "err", err)
		os.Exit(1)
	}

	//  strict concurrency control
	concurrency := cfg.WorkerConcurrency
	if err := ch.Qos(concurrency, 0, false); err != nil {
		logger.Error("qos failed", "err", err)
		os.Exit(1)
	}

	msgs, err := ch.Consume(cfg.RabbitQueue, "", false, false, false, false, nil)
	if err != nil {
		logger.Error("consume failed", "err", err)
		os.Exit(1)
	}

	logger.Info("worker started", "queue", cfg.RabbitQueue, "concurrency", concurrency)

	// the publish channel is shared by the pool
	var pubMu sync.Mutex
	retry := func(d amqp.Delivery, attempt int) error {
		pubMu.Lock()
		defer pubMu.Unlock()
		pctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return ch.PublishWithContext(pctx, "", rabbitmq.RetryQueue(cfg.RabbitQueue), false, false, amqp.Publishing{
			ContentType:  d.ContentType,
			DeliveryMode: amqp.Persistent,
			MessageId:    d.MessageId,
			Body:         d.Body,
			Timestamp:    time.Now(),
			Expiration:   formatMillis(retryDelay),
			Headers:      amqp.Table{attemptHeader: int32(attempt + 1)},
		})
	}

	// worker pool
	jobs := make(chan amqp.Delivery, concurrency*2)

	var wg sync.WaitGroup
	wg.Add(concurrency)
	for i := 0; i < concurrency; i++ {
		go func(workerID int) {
			defer wg.Done()
			for d := range jobs {
				attempt := attemptOf(d.Headers)
				switch h.handle(ctx, d.Body, attempt) {
				case outcomeAck:
					if err := d.Ack(false); err != nil {
						logger.Warn("ack failed", "worker", workerID, "message_id", d.MessageId, "err", err)
					}
				case outcomeRetry:
					if err := retry(d, attempt); err != nil {
						logger.Error("retry publish failed", "worker", workerID, "message_id", d.MessageId, "err", err)
						_ = d.Nack(false, false)
						continue
					}
					_ = d.Ack(false)
				default:
					_ = d.Nack(false, false)
				}
			}
		}(i)
	}

	// dispatcher
	for {
		select {
		case <-ctx.Done():
			logger.Info("worker shutting down")
			close(jobs)
			wg.Wait()
			return

		case d, ok := <-msgs:
			if !ok {
				logger.Error("delivery channel closed")
				close(jobs)
				wg.Wait()
				return
			}
			jobs <- d
		}
	}
}

func attemptOf(headers amqp.Table) int {
	switch v := headers[attemptHeader].(type) {
	case int32:
		return int(v)
	case int64:
		return int(v)
	case int:
		return v
	}
	return 0
}

func formatMillis(d time.Duration) string {
	return strconv.FormatInt(d.Milliseconds(), 10)
}
