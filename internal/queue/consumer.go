package queue

import (
    "context"
    "encoding/json"
    "errors"
    "fmt"
    "log"
    "os"
    "path/filepath"
    "time"

    amqp "github.com/rabbitmq/amqp091-go"
)

// Consumer drains the registration.changed queue into a line-oriented log
// file.
type Consumer struct {
    URL     string
    LogDir  string
    LogFile string
}

// NewConsumer returns a Consumer writing to logs/registration.log.
func NewConsumer(url string) *Consumer {
    return &Consumer{URL: brokerURL(url), LogDir: "logs", LogFile: "registration.log"}
}

// Run connects to RabbitMQ, declares the queue and consumes until ctx is
// cancelled, reconnecting with backoff when the broker goes away.  Messages
// that cannot be handled are rejected without requeue.
func (c *Consumer) Run(ctx context.Context) error {
    backoff := time.Second
    for {
        if ctx.Err() != nil {
            return ctx.Err()
        }
        conn, err := amqp.Dial(c.URL)
        if err != nil {
            log.Printf("registration-consumer: failed to dial broker: %v; retrying in %s", err, backoff)
            if !sleep(ctx, backoff) {
                return ctx.Err()
            }
            if backoff < 30*time.Second {
                backoff *= 2
            }
            continue
        }
        backoff = time.Second

        err = c.consumeLoop(ctx, conn)
        _ = conn.Close()
        if ctx.Err() != nil {
            return ctx.Err()
        }
        log.Printf("registration-consumer: consume loop ended: %v; reconnecting", err)
        if !sleep(ctx, 2*time.Second) {
            return ctx.Err()
        }
    }
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

func (c *Consumer) consumeLoop(ctx context.Context, conn *amqp.Connection) error {
    ch, err := conn.Channel()
    if err != nil {
        return fmt.Errorf("channel open: %w", err)
    }
    defer func() { _ = ch.Close() }()

    if err := ch.Qos(50, 0, false); err != nil {
        log.Printf("registration-consumer: set QoS failed: %v", err)
    }
    if _, err := ch.QueueDeclare(RegistrationQueue, true, false, false, false, nil); err != nil {
        return fmt.Errorf("queue declare: %w", err)
    }
    msgs, err := ch.Consume(RegistrationQueue, "", false, false, false, false, nil)
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
                log.Printf("registration-consumer: handle message failed: %v", err)
                _ = d.Nack(false, false)
                continue
            }
            _ = d.Ack(false)
        }
    }
}

// Handle decodes one message body and appends it to the log file.
func (c *Consumer) Handle(body []byte) error {
    var ev RegistrationEvent
    if err := json.Unmarshal(body, &ev); err != nil {
        return fmt.Errorf("unmarshal: %w", err)
    }
    if ev.NumberCode == "" || ev.UserID == 0 {
        return errors.New("event without user or number")
    }
    if err := os.MkdirAll(c.LogDir, 0o755); err != nil {
        return fmt.Errorf("mkdir logs: %w", err)
    }
    f, err := os.OpenFile(filepath.Join(c.LogDir, c.LogFile), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
    if err != nil {
        return fmt.Errorf("open log file: %w", err)
    }
    defer f.Close()

    if _, err := f.WriteString(FormatLine(ev)); err != nil {
        return fmt.Errorf("write log: %w", err)
    }
    return nil
}

// FormatLine renders one event as a single human-friendly log line.
func FormatLine(ev RegistrationEvent) string {
    verb := "Registration"
    if ev.Action == ActionCancelled {
        verb = "Cancellation"
    }
    return fmt.Sprintf("[%s] %s | registration_id=%s | user_id=%d | number=%s | title=%q | show=%s\n",
        ev.OccurredAt, verb, ev.RegistrationID, ev.UserID, ev.NumberCode, ev.NumberTitle, ev.ShowDateTime)
}
