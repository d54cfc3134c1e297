// Package events publishes token lifecycle notifications through a
// hashicorp/eventlogger broker. Subscribers (mailers, audit sinks) attach as
// pipeline sinks; the default wiring formats events as JSON and writes them
// to a single io.Writer.
//
// Notifications are fire-and-forget: a failed send is logged and never
// propagated to the operation that triggered it.
package events

import (
	"context"
	"io"
	"time"

	"github.com/hashicorp/eventlogger"
	"github.com/hashicorp/eventlogger/sinks/writer"

	"github.com/loginlink/loginlink/internal/logging"
)

const (
	TypeTokensIssued       = eventlogger.EventType("tokens-issued")
	TypeTokenRedeemed      = eventlogger.EventType("token-redeemed")
	TypePostAuthentication = eventlogger.EventType("post-authentication")
)

// Payload is the body of every lifecycle event.
type Payload struct {
	UserID string    `json:"user_id"`
	Count  int       `json:"count,omitempty"`
	At     time.Time `json:"at"`
}

type Notifier struct {
	broker *eventlogger.Broker
	logger logging.Logger
}

// NewNotifier builds a broker with one JSON-format pipeline per lifecycle
// event type, all writing to w.
func NewNotifier(w io.Writer, logger logging.Logger) (*Notifier, error) {
	broker, err := eventlogger.NewBroker()
	if err != nil {
		return nil, err
	}

	formatterID := eventlogger.NodeID("json-formatter")
	if err := broker.RegisterNode(formatterID, &eventlogger.JSONFormatter{}); err != nil {
		return nil, err
	}

	sinkID := eventlogger.NodeID("writer-sink")
	sink := &writer.Sink{Format: eventlogger.JSONFormat, Writer: w}
	if err := broker.RegisterNode(sinkID, sink); err != nil {
		return nil, err
	}

	for _, et := range []eventlogger.EventType{TypeTokensIssued, TypeTokenRedeemed, TypePostAuthentication} {
		err := broker.RegisterPipeline(eventlogger.Pipeline{
			EventType:  et,
			PipelineID: eventlogger.PipelineID(string(et) + "-writer"),
			NodeIDs:    []eventlogger.NodeID{formatterID, sinkID},
		})
		if err != nil {
			return nil, err
		}
	}

	return &Notifier{broker: broker, logger: logger.With("module", "events")}, nil
}

// TokensIssued reports that count fresh tokens were stored for the user.
func (n *Notifier) TokensIssued(ctx context.Context, userID string, count int) {
	n.send(ctx, TypeTokensIssued, Payload{UserID: userID, Count: count, At: time.Now()})
}

// TokenRedeemed reports a successful single-use consumption.
func (n *Notifier) TokenRedeemed(ctx context.Context, userID string) {
	n.send(ctx, TypeTokenRedeemed, Payload{UserID: userID, At: time.Now()})
}

// PostAuthentication reports that a session was established after
// redemption.
func (n *Notifier) PostAuthentication(ctx context.Context, userID string) {
	n.send(ctx, TypePostAuthentication, Payload{UserID: userID, At: time.Now()})
}

func (n *Notifier) send(ctx context.Context, et eventlogger.EventType, p Payload) {
	if _, err := n.broker.Send(ctx, et, p); err != nil {
		n.logger.Warn(ctx, "event send failed", "event_type", string(et), "error", err)
	}
}
