// Package natspub publishes finished integration reports on NATS subjects.
package natspub

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/Apurer/warehouse-fulfillment/internal/domains/fulfillment/domain"
	"github.com/Apurer/warehouse-fulfillment/internal/domains/fulfillment/ports"
)

// DefaultSubjectPrefix is suffixed with the report operation, e.g. "fulfillment.reports.place_order".
const DefaultSubjectPrefix = "fulfillment.reports"

var _ ports.ReportPublisher = (*Publisher)(nil)

// Conn is the part of *nats.Conn the publisher needs.
type Conn interface {
	PublishMsg(msg *nats.Msg) error
}

type Publisher struct {
	conn   Conn
	prefix string
}

// Option customizes the publisher.
type Option func(*Publisher)

// WithSubjectPrefix overrides DefaultSubjectPrefix.
func WithSubjectPrefix(prefix string) Option {
	return func(p *Publisher) {
		if prefix = strings.Trim(strings.TrimSpace(prefix), "."); prefix != "" {
			p.prefix = prefix
		}
	}
}

func NewPublisher(conn Conn, opts ...Option) *Publisher {
	p := &Publisher{conn: conn, prefix: DefaultSubjectPrefix}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Connect dials url with reconnects enabled and names the connection after clientName.
func Connect(url, clientName string) (*nats.Conn, error) {
	return nats.Connect(url,
		nats.Name(clientName),
		nats.Timeout(5*time.Second),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
	)
}

// Publish sends the report snapshot as JSON. The report ID travels in Nats-Msg-Id so
// JetStream streams drop duplicates.
func (p *Publisher) Publish(ctx context.Context, report *domain.Report) error {
	if p == nil || p.conn == nil {
		return errors.New("nats report publisher not configured")
	}
	if report == nil {
		return errors.New("report is nil")
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	payload, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("encode report: %w", err)
	}
	msg := nats.NewMsg(p.Subject(report.Operation()))
	msg.Data = payload
	msg.Header.Set(nats.MsgIdHdr, report.ID())
	msg.Header.Set("Order-Id", report.OrderID())
	msg.Header.Set("Report-State", string(report.State()))
	if err := p.conn.PublishMsg(msg); err != nil {
		return fmt.Errorf("publish report %s: %w", report.ID(), err)
	}
	return nil
}

// Subject names the subject a report of operation is published on.
func (p *Publisher) Subject(operation domain.Operation) string {
	return p.prefix + "." + string(operation)
}
