package main

// Build the Lambda handler binary:
//   GOOS=linux GOARCH=amd64 CGO_ENABLED=0 go build -o bootstrap ./cmd/lambda-worker

import (
	"context"
	"log"
	"sync"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"

	"allie-backend/internal/bootstrap"
	"allie-backend/internal/shared/config"
	"allie-backend/internal/shared/metrics"
	"allie-backend/internal/shared/telemetry"
	"allie-backend/internal/workerproc"
)

var (
	initOnce sync.Once
	initErr  error
	app      *bootstrap.App
)

func initApp() {
	cfg := config.Load()
	built, err := bootstrap.Build(cfg)
	if err != nil {
		initErr = err
		return
	}
	app = built
}

func handler(ctx context.Context, event events.SQSEvent) (events.SQSEventResponse, error) {
	initOnce.Do(initApp)
	if initErr != nil {
		log.Printf("bootstrap error: %v", initErr)
		failures := make([]events.SQSBatchItemFailure, 0, len(event.Records))
		for _, record := range event.Records {
			failures = append(failures, events.SQSBatchItemFailure{ItemIdentifier: record.MessageId})
		}
		return events.SQSEventResponse{BatchItemFailures: failures}, initErr
	}

	failures := make([]events.SQSBatchItemFailure, 0)
	for _, record := range event.Records {
		err := workerproc.HandleMessage(ctx, app.Reminders, record.Body)
		switch {
		case err == nil:
		case workerproc.Unrecoverable(err):
			// Reporting success lets SQS delete the message.
			telemetry.Warn("worker.reminder.dropped", map[string]any{"sqs_message_id": record.MessageId, "error": err.Error()})
			metrics.IncReminderJobsDropped()
		default:
			telemetry.Error("worker.reminder.failed", map[string]any{"sqs_message_id": record.MessageId, "error": err.Error()})
			metrics.IncRemindersFailed()
			failures = append(failures, events.SQSBatchItemFailure{ItemIdentifier: record.MessageId})
		}
	}

	return events.SQSEventResponse{BatchItemFailures: failures}, nil
}

func main() {
	lambda.Start(handler)
}
