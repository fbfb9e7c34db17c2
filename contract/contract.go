//go:generate go run go.uber.org/mock/mockgen -source=contract.go -destination=../mocks/mock_contract.go -package=mocks
package contract

import (
	"context"
	"reflect"
)

type ISupervisor interface {
	Add(worker ...Worker) ISupervisor
	Run(ctx context.Context)
	Start(ctx context.Context, worker Worker)
	Stop()
}

// Worker doesn't protect itself
// Can be silly, focused
type Worker interface {
	Run(ctx context.Context) error
}

// GetWorkerName uses reflection to retrieve the type name of the worker.
// This is used for logging and supervision purposes during worker initialization
// or lifecycle events, avoiding the need for manual naming in the Worker interface.
func GetWorkerName(w Worker) string {
	if w == nil {
		return "NilWorker"
	}
	t := reflect.TypeOf(w)
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	return t.Name()
}

// EventKind discriminates inbound transport events.
type EventKind string

const (
	EventText       EventKind = "text"
	EventAction     EventKind = "action"
	EventAttachment EventKind = "attachment"
)

// Event is one inbound unit from the chat transport. Action events
// carry the structured callback payload; text and attachment events
// carry free content.
type Event struct {
	Sender  string
	Address int64
	Kind    EventKind
	Text    string
	Action  string
	FileRef string
	Caption string
	Mime    string
}

// Choice is one option offered back to the user.
type Choice struct {
	Label  string
	Action string
}

// Response is what the engine hands back to the transport layer for
// rendering. The engine never talks to the transport directly.
type Response struct {
	Text    string
	Choices []Choice
}

// Transport is the delivery-address abstraction the broadcast
// dispatcher pushes content through.
type Transport interface {
	DeliverText(ctx context.Context, address int64, text string) error
	DeliverAttachment(ctx context.Context, address int64, fileRef, caption string) error
}
