// Package notify defines how billservice tells the outside world that a
// bill needs attention: a timeout passed, an action was taken that some
// other participant must act on next. The engine never speaks a transport
// protocol itself — Sink is the seam an external encrypted-transport
// integration plugs into.
package notify

import (
	"context"

	"github.com/btcsuite/btclog"
)

// ActionType is why a notification is being sent.
type ActionType string

const (
	ActionBillSigned         ActionType = "BillSigned"
	ActionBillAccepted       ActionType = "BillAccepted"
	ActionBillAcceptRequested ActionType = "BillAcceptRequested"
	ActionBillPaymentRequested ActionType = "BillPaymentRequested"
	ActionBillOfferedToSell  ActionType = "BillOfferedToSell"
	ActionBillSold           ActionType = "BillSold"
	ActionBillEndorsed       ActionType = "BillEndorsed"
	ActionBillMinted         ActionType = "BillMinted"
	ActionBillRecourseRequested ActionType = "BillRecourseRequested"
	ActionBillRecoursePaid   ActionType = "BillRecoursePaid"
	ActionBillRejected       ActionType = "BillRejected"

	ActionAcceptTimeout   ActionType = "AcceptTimeout"
	ActionPaymentTimeout  ActionType = "PaymentTimeout"
	ActionRecourseTimeout ActionType = "RecourseTimeout"
)

// Notification is one message to deliver to RecipientNodeID about BillID.
type Notification struct {
	BillID          string
	RecipientNodeID string
	Action          ActionType
}

// Sink delivers notifications. Implementations are expected to be
// best-effort and non-blocking with respect to the engine's own state
// transitions: a failed Send never rolls back the block that triggered it.
type Sink interface {
	Send(ctx context.Context, n Notification) error
}

// MemorySink is an in-memory Sink for tests: it records every notification
// it receives in send order.
type MemorySink struct {
	Sent []Notification
}

// NewMemorySink returns a ready-to-use MemorySink.
func NewMemorySink() *MemorySink {
	return &MemorySink{}
}

func (s *MemorySink) Send(_ context.Context, n Notification) error {
	s.Sent = append(s.Sent, n)
	return nil
}

// LogSink is the default Sink until a real encrypted-transport integration
// is wired in: it just logs that a notification would have gone out, so the
// daemon is runnable standalone.
type LogSink struct{}

// NewLogSink returns a ready-to-use LogSink.
func NewLogSink() *LogSink {
	return &LogSink{}
}

func (s *LogSink) Send(_ context.Context, n Notification) error {
	log.Infof("notify: %s bill=%s recipient=%s", n.Action, n.BillID, n.RecipientNodeID)
	return nil
}

var log btclog.Logger = btclog.Disabled

// UseLogger sets the package-wide logger.
func UseLogger(logger btclog.Logger) {
	log = logger
}
