package queue

import "context"

// Client hands a claimed reminder to the delivery worker. The dispatcher
// treats any returned error as "not enqueued" and releases the claim.
type Client interface {
	Send(ctx context.Context, msg Message) error
}
