package queue

import (
    "encoding/json"
    "errors"
    "fmt"
    "log"
    "os"
    "path/filepath"
    "time"

    amqp "github.com/rabbitmq/amqp091-go"
)

// StartEmailConsumer tails the email.confirmation queue.  It is the
// development stand-in for the external mail sender: each event is appended
// to logs/email.log as one human-friendly line so the confirmation link can
// be followed without a real SMTP setup.
func StartEmailConsumer() error {
    return runConsumer("email-consumer", EmailQueueName, func(body []byte) error {
        var ev EmailConfirmationEvent
        if err := json.Unmarshal(body, &ev); err != nil {
            return fmt.Errorf("unmarshal: %w", err)
        }
        return appendLog("email.log", fmt.Sprintf(
            "[%s] Confirmation email | to=%s | username=%s | link=%sv1/auth/confirm/%s\n",
            ev.RequestedAt, ev.Email, ev.Username, ev.BaseURL, ev.Token))
    })
}

// StartMediaPurgeConsumer tails the media.purge queue.  In production the
// media host consumes this queue itself; in development the events land in
// logs/purge.log so a ban's side effects stay observable.
func StartMediaPurgeConsumer() error {
    return runConsumer("purge-consumer", PurgeQueueName, func(body []byte) error {
        var ev MediaPurgeEvent
        if err := json.Unmarshal(body, &ev); err != nil {
            return fmt.Errorf("unmarshal: %w", err)
        }
        return appendLog("purge.log", fmt.Sprintf(
            "[%s] Media purge requested | user_id=%d | username=%s | reason=%q\n",
            ev.RequestedAt, ev.UserID, ev.Username, ev.Reason))
    })
}

// runConsumer dials the broker, declares the durable queue and consumes it,
// reconnecting with capped exponential backoff whenever the connection or
// channel drops.  A message whose handler fails is rejected without requeue
// so one bad payload cannot spin the loop.
func runConsumer(name, queueName string, handle func([]byte) error) error {
    url := brokerURL()
    backoff := time.Second
    for {
        conn, err := amqp.Dial(url)
        if err != nil {
            log.Printf("%s: failed to dial broker: %v; retrying in %s", name, err, backoff)
            time.Sleep(backoff)
            if backoff < 30*time.Second {
                backoff *= 2
            }
            continue
        }
        backoff = time.Second

        if err := consume(conn, name, queueName, handle); err != nil {
            log.Printf("%s: consume loop ended: %v; reconnecting", name, err)
            time.Sleep(2 * time.Second)
        }
    }
}

func consume(conn *amqp.Connection, name, queueName string, handle func([]byte) error) error {
    defer conn.Close()
    ch, err := conn.Channel()
    if err != nil {
        return fmt.Errorf("channel open: %w", err)
    }
    defer func() { _ = ch.Close() }()

    if err := ch.Qos(50, 0, false); err != nil {
        log.Printf("%s: set QoS failed: %v", name, err)
    }
    if _, err := ch.QueueDeclare(queueName, true, false, false, false, nil); err != nil {
        return fmt.Errorf("queue declare: %w", err)
    }
    msgs, err := ch.Consume(queueName, "", false, false, false, false, nil)
    if err != nil {
        return fmt.Errorf("queue consume: %w", err)
    }

    for d := range msgs {
        if err := handle(d.Body); err != nil {
            log.Printf("%s: handle message failed: %v", name, err)
            _ = d.Nack(false, false)
            continue
        }
        _ = d.Ack(false)
    }
    return errors.New("deliveries channel closed")
}

func appendLog(file, line string) error {
    if err := os.MkdirAll("logs", 0o755); err != nil {
        return fmt.Errorf("mkdir logs: %w", err)
    }
    f, err := os.OpenFile(filepath.Join("logs", file), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
    if err != nil {
        return fmt.Errorf("open log file: %w", err)
    }
    defer f.Close()
    if _, err := f.WriteString(line); err != nil {
        return fmt.Errorf("write log: %w", err)
    }
    return nil
}
