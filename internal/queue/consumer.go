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

// StartAttendanceConsumer connects to RabbitMQ, declares the
// checkin.recorded queue (durable) and consumes it, appending each
// attendance event to logs/attendance.log in a single-line format.
// The function runs a reconnect loop with exponential backoff and never
// returns in normal operation; processing errors are logged and the
// offending message rejected without requeue so the consumer cannot
// spin on a poison message.
func StartAttendanceConsumer() error {
	backoff := time.Second
	for {
		conn, err := amqp.Dial(brokerURL())
		if err != nil {
			log.Printf("attendance-consumer: failed to dial broker: %v; retrying in %s", err, backoff)
			time.Sleep(backoff)
			if backoff < 30*time.Second {
				backoff *= 2
			}
			continue
		}
		backoff = time.Second // reset after successful connect

		if err := consumeAttendance(conn); err != nil {
			log.Printf("attendance-consumer: consume loop ended: %v; reconnecting", err)
			time.Sleep(2 * time.Second)
		}
	}
}

func consumeAttendance(conn *amqp.Connection) error {
	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("channel open: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if err := ch.Qos(50, 0, false); err != nil {
		log.Printf("attendance-consumer: set QoS failed: %v", err)
	}

	if _, err := ch.QueueDeclare(CheckInRecordedQueue, true, false, false, false, nil); err != nil {
		return fmt.Errorf("queue declare: %w", err)
	}

	msgs, err := ch.Consume(CheckInRecordedQueue, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("queue consume: %w", err)
	}

	for d := range msgs {
		if err := appendAttendanceLog(d.Body); err != nil {
			log.Printf("attendance-consumer: handle message failed: %v", err)
			_ = d.Nack(false, false)
			continue
		}
		_ = d.Ack(false)
	}
	return errors.New("deliveries channel closed")
}

func appendAttendanceLog(body []byte) error {
	var ev CheckInRecordedEvent
	if err := json.Unmarshal(body, &ev); err != nil {
		return fmt.Errorf("unmarshal: %w", err)
	}
	if err := os.MkdirAll("logs", 0o755); err != nil {
		return fmt.Errorf("mkdir logs: %w", err)
	}
	fpath := filepath.Join("logs", "attendance.log")
	f, err := os.OpenFile(fpath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	defer f.Close()

	line := fmt.Sprintf("[%s] Check-in recorded | message_id=%s | check_in_id=%d | reference=%s | user_id=%d | event_id=%d | event=%q | location=%q | method=%s\n",
		ev.RecordedAt, ev.MessageID, ev.CheckInID, ev.Reference, ev.UserID, ev.EventID, ev.EventTitle, ev.Location, ev.Method)

	if _, err := f.WriteString(line); err != nil {
		return fmt.Errorf("write log: %w", err)
	}
	return nil
}
