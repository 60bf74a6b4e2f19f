package queue

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
)

type fakeSender struct {
	input *sqs.SendMessageInput
	err   error
}

func (f *fakeSender) SendMessage(_ context.Context, params *sqs.SendMessageInput, _ ...func(*sqs.Options)) (*sqs.SendMessageOutput, error) {
	f.input = params
	if f.err != nil {
		return nil, f.err
	}
	return &sqs.SendMessageOutput{MessageId: aws.String("m-1")}, nil
}

func TestSQSClientSendEncodesBody(t *testing.T) {
	sender := &fakeSender{}
	client := NewSQSClientWithAPI(sender, "https://sqs.example/queue")

	if err := client.Send(context.Background(), Message{ReminderID: "rem-1", Version: MessageVersion}); err != nil {
		t.Fatalf("send: %v", err)
	}
	if aws.ToString(sender.input.QueueUrl) != "https://sqs.example/queue" {
		t.Fatalf("unexpected queue url %q", aws.ToString(sender.input.QueueUrl))
	}
	msg, err := DecodeMessage([]byte(aws.ToString(sender.input.MessageBody)))
	if err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if msg.ReminderID != "rem-1" {
		t.Fatalf("unexpected message %+v", msg)
	}
	if got := aws.ToString(sender.input.MessageAttributes["reminderId"].StringValue); got != "rem-1" {
		t.Fatalf("unexpected reminderId attribute %q", got)
	}
}

func TestSQSClientSendWrapsError(t *testing.T) {
	boom := errors.New("throttled")
	client := NewSQSClientWithAPI(&fakeSender{err: boom}, "q")
	if err := client.Send(context.Background(), Message{ReminderID: "rem-1"}); !errors.Is(err, boom) {
		t.Fatalf("expected wrapped error, got %v", err)
	}
}

func TestNewSQSClientRequiresURL(t *testing.T) {
	if _, err := NewSQSClient(context.Background(), "us-east-1", "  "); err == nil {
		t.Fatal("expected error for empty queue url")
	}
}
