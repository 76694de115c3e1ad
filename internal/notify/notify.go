// Package notify implements the progress/notification sink: an abstract
// three-operation sink (progress/completed/error) correlated by
// sessionId, plus an exactly-once terminal in-app notification per
// workflow, built on a non-blocking channel fan-out.
package notify

import (
	"fmt"
	"sync"
)

// ProgressRecord is one progress-operation payload.
type ProgressRecord struct {
	SessionID string
	Message   string
	Percent   int
}

// Notification is the exactly-once terminal record for a workflow
// (deploy/upgrade/remove), success or failure.
type Notification struct {
	SessionID    string
	ProductName  string
	Version      string
	StackCount   int
	Success      bool
	ErrorMessage string
}

// Sink is a subscriber's inbound channel set. Sends never block the
// publisher: a full channel drops the event for that subscriber rather
// than stalling the workflow.
type Sink struct {
	Progress chan ProgressRecord
	Done     chan Notification
}

func newSink() *Sink {
	return &Sink{
		Progress: make(chan ProgressRecord, 32),
		Done:     make(chan Notification, 8),
	}
}

// Notifier is the process-wide notification hub. Exactly one terminal
// notification is recorded per sessionId; a second completed/error call
// for the same session is ignored.
type Notifier struct {
	mu        sync.RWMutex
	sinks     []*Sink
	terminals map[string]bool
}

func New() *Notifier {
	return &Notifier{terminals: map[string]bool{}}
}

// Subscribe returns a new Sink that receives every subsequent
// Progress/Completed/Error call.
func (n *Notifier) Subscribe() *Sink {
	s := newSink()
	n.mu.Lock()
	n.sinks = append(n.sinks, s)
	n.mu.Unlock()
	return s
}

// SessionID synthesizes a correlation id when the caller supplies none:
// "<op>-<productName>-<utcTimestampMillis>".
func SessionID(provided, op, productName string, utcTimestampMillis int64) string {
	if provided != "" {
		return provided
	}
	return fmt.Sprintf("%s-%s-%d", op, productName, utcTimestampMillis)
}

// Progress publishes a progress record to every subscriber.
func (n *Notifier) Progress(sessionID, message string, percent int) {
	n.publishProgress(ProgressRecord{SessionID: sessionID, Message: message, Percent: percent})
}

// Completed records the exactly-once success terminus for sessionID.
func (n *Notifier) Completed(sessionID, productName, version string, stackCount int) {
	n.publishTerminal(sessionID, Notification{
		SessionID: sessionID, ProductName: productName, Version: version,
		StackCount: stackCount, Success: true,
	})
}

// Error records the exactly-once failure terminus for sessionID.
func (n *Notifier) Error(sessionID, productName, version string, stackCount int, errMsg string) {
	n.publishTerminal(sessionID, Notification{
		SessionID: sessionID, ProductName: productName, Version: version,
		StackCount: stackCount, Success: false, ErrorMessage: errMsg,
	})
}

func (n *Notifier) publishProgress(rec ProgressRecord) {
	n.mu.RLock()
	sinks := append([]*Sink(nil), n.sinks...)
	n.mu.RUnlock()

	for _, s := range sinks {
		select {
		case s.Progress <- rec:
		default:
		}
	}
}

func (n *Notifier) publishTerminal(sessionID string, note Notification) {
	n.mu.Lock()
	if n.terminals[sessionID] {
		n.mu.Unlock()
		return
	}
	n.terminals[sessionID] = true
	sinks := append([]*Sink(nil), n.sinks...)
	n.mu.Unlock()

	for _, s := range sinks {
		select {
		case s.Done <- note:
		default:
		}
	}
}
