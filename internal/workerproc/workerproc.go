package workerproc

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strings"

	"allie-backend/internal/queue"
	"allie-backend/internal/reminders"
)

// Deliverer delivers a single reminder by id.
type Deliverer interface {
	Deliver(ctx context.Context, reminderID string) error
}

// MessageMeta captures details useful for logging and diagnostics.
type MessageMeta struct {
	BodyLen int
	BodySHA string
}

// ComputeMeta returns the body length and SHA-256 hash.
func ComputeMeta(body string) MessageMeta {
	if body == "" {
		return MessageMeta{}
	}
	sum := sha256.Sum256([]byte(body))
	return MessageMeta{BodyLen: len(body), BodySHA: hex.EncodeToString(sum[:])}
}

// ErrEmptyBody indicates an empty queue payload.
type ErrEmptyBody struct {
	Meta MessageMeta
}

func (e ErrEmptyBody) Error() string { return "empty message body" }

// ErrDecode indicates a JSON decode failure.
type ErrDecode struct {
	Meta MessageMeta
	Err  error
}

func (e ErrDecode) Error() string {
	if e.Err == nil {
		return "decode message"
	}
	return "decode message: " + e.Err.Error()
}

func (e ErrDecode) Unwrap() error { return e.Err }

// ErrMissingReminderID indicates a message without a reminder id.
type ErrMissingReminderID struct {
	Meta      MessageMeta
	RequestID string
}

func (e ErrMissingReminderID) Error() string { return "missing reminder id" }

// ErrUnknownReminder indicates the reminder was deleted before delivery,
// typically because its schedule changed. The message should be dropped.
type ErrUnknownReminder struct {
	ReminderID string
	RequestID  string
}

func (e ErrUnknownReminder) Error() string { return "unknown reminder " + e.ReminderID }

// ErrProcess indicates delivery failed after successful parsing. The message
// should be retried.
type ErrProcess struct {
	ReminderID string
	RequestID  string
	Err        error
}

func (e ErrProcess) Error() string {
	if e.Err == nil {
		return "deliver reminder"
	}
	return "deliver reminder: " + e.Err.Error()
}

func (e ErrProcess) Unwrap() error { return e.Err }

// Unrecoverable reports whether err means the message can never succeed and
// should be deleted from the queue.
func Unrecoverable(err error) bool {
	var (
		empty   ErrEmptyBody
		decode  ErrDecode
		missing ErrMissingReminderID
		unknown ErrUnknownReminder
	)
	return errors.As(err, &empty) || errors.As(err, &decode) ||
		errors.As(err, &missing) || errors.As(err, &unknown)
}

// ParseMessage validates and decodes the queue payload.
func ParseMessage(body string) (queue.Message, MessageMeta, error) {
	meta := ComputeMeta(body)
	if strings.TrimSpace(body) == "" {
		return queue.Message{}, meta, ErrEmptyBody{Meta: meta}
	}

	msg, err := queue.DecodeMessage([]byte(body))
	if err != nil {
		return queue.Message{}, meta, ErrDecode{Meta: meta, Err: err}
	}
	if strings.TrimSpace(msg.ReminderID) == "" {
		return msg, meta, ErrMissingReminderID{Meta: meta, RequestID: msg.RequestID}
	}
	return msg, meta, nil
}

type parsedMessageKey struct{}

// WithParsedMessage stores a decoded message in the context for reuse.
func WithParsedMessage(ctx context.Context, msg queue.Message) context.Context {
	return context.WithValue(ctx, parsedMessageKey{}, msg)
}

func parsedMessageFromContext(ctx context.Context) (queue.Message, bool) {
	if ctx == nil {
		return queue.Message{}, false
	}
	msg, ok := ctx.Value(parsedMessageKey{}).(queue.Message)
	return msg, ok
}

// HandleMessage parses, validates, and delivers a message payload.
func HandleMessage(ctx context.Context, d Deliverer, body string) error {
	if d == nil {
		return errors.New("reminder delivery not configured")
	}

	msg, ok := parsedMessageFromContext(ctx)
	if !ok {
		var err error
		msg, _, err = ParseMessage(body)
		if err != nil {
			return err
		}
	}
	if strings.TrimSpace(msg.ReminderID) == "" {
		return ErrMissingReminderID{Meta: ComputeMeta(body), RequestID: msg.RequestID}
	}

	if err := d.Deliver(ctx, msg.ReminderID); err != nil {
		if errors.Is(err, reminders.ErrNotFound) {
			return ErrUnknownReminder{ReminderID: msg.ReminderID, RequestID: msg.RequestID}
		}
		return ErrProcess{ReminderID: msg.ReminderID, RequestID: msg.RequestID, Err: err}
	}
	return nil
}
