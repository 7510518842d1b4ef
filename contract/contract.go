//go:generate go run go.uber.org/mock/mockgen -source=contract.go -destination=../mocks/mock_contract.go -package=mocks
package contract

import (
	"context"
	"crm-realtime/domain"
	"reflect"
)

type ISupervisor interface {
	Add(worker ...Worker) ISupervisor
	Run(ctx context.Context)
	Start(ctx context.Context, worker Worker)
	Stop()
}

type WorkerName string

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

// Sink is one connected endpoint able to receive encoded frames.
type Sink interface {
	ID() string
	Consume(ctx context.Context, payload []byte) error
}

// IRegistry keeps the broadcast groups of the current process.
type IRegistry interface {
	Join(group domain.GroupName, sink Sink)
	Leave(group domain.GroupName, sinkID string)
	LeaveAll(sinkID string)
	Publish(ctx context.Context, group domain.GroupName, payload []byte) int
	Stats() map[domain.GroupName]int
}

// Publisher is the path handlers use to broadcast. It may cross process boundaries.
type Publisher interface {
	Publish(ctx context.Context, group domain.GroupName, payload []byte) error
}

// Handler runs one kind of inbound payload: validate then execute.
type Handler interface {
	Handle(ctx context.Context, payload []byte) error
}

// IModerator sanitizes user provided text.
type IModerator interface {
	Censor(text string) (string, []string)
	DetectLang(text string) string
}
