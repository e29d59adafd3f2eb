//go:generate go run go.uber.org/mock/mockgen -source=contract.go -destination=../mocks/mock_contract.go -package=mocks
package contract

import (
	"context"
	"reflect"
	"syncbridge/domain"
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

// Conn is a line oriented transport. ReadLine returns lines without their
// terminator and io.EOF once the remote side is gone.
type Conn interface {
	ReadLine() (string, error)
	WriteLine(line string) error
	Close() error
	RemoteAddr() string
}

// Peer is the outbound side of an active session.
// Send must not block on the remote transport.
type Peer interface {
	Identity() string
	Send(line string) error
}

// EventSink receives every entry appended to the history log, after the fact.
type EventSink interface {
	Consume(ctx context.Context, e domain.Entry) error
}

type IRegistry interface {
	Register(identity string, peer Peer) error
	Unregister(identity string) bool
	Snapshot() []Peer
	Len() int
}

type IHistory interface {
	Append(entry domain.Entry) domain.Entry
	ReplayTo(peer Peer) error
	Lines() []string
	Len() int
}

type IBroadcaster interface {
	Admit(peer, replay Peer) error
	DeliverExcluding(line, excluded string)
	DeliverToAll(line string)
}

// ICensor masks forbidden words and reports the ones it found.
type ICensor interface {
	Censor(text string) (string, []string)
}

// IChatStats exposes the counters sampled by telemetry.
type IChatStats interface {
	Live() int
	Sessions() int
	HistoryLen() int
}
