package queue

import (
	"encoding/json"
	"time"
)

// MessageVersion is the payload version written by this service.
const MessageVersion = 1

// Message asks a worker to deliver one reminder.
type Message struct {
	ReminderID string `json:"reminderId"`
	FamilyID   string `json:"familyId,omitempty"`
	RequestID  string `json:"requestId"`
	EnqueuedAt string `json:"enqueuedAt"`
	Version    int    `json:"version"`
}

// NewReminderMessage builds a current-version message for a reminder.
func NewReminderMessage(reminderID, familyID, requestID string, now time.Time) Message {
	return Message{
		ReminderID: reminderID,
		FamilyID:   familyID,
		RequestID:  requestID,
		EnqueuedAt: now.UTC().Format(time.RFC3339),
		Version:    MessageVersion,
	}
}

// EncodeMessage returns the JSON representation of a message.
func EncodeMessage(msg Message) ([]byte, error) {
	return json.Marshal(msg)
}

// DecodeMessage parses a JSON payload into a Message.
func DecodeMessage(payload []byte) (Message, error) {
	var msg Message
	if err := json.Unmarshal(payload, &msg); err != nil {
		return Message{}, err
	}
	return msg, nil
}
