package natspub

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Apurer/warehouse-fulfillment/internal/domains/fulfillment/domain"
)

type recordingConn struct {
	msgs []*nats.Msg
	err  error
}

func (c *recordingConn) PublishMsg(msg *nats.Msg) error {
	if c.err != nil {
		return c.err
	}
	c.msgs = append(c.msgs, msg)
	return nil
}

func sampleReport() *domain.Report {
	return domain.NewReportBuilder("rep-1", "ord-1", domain.OperationPlaceOrder).
		Record(domain.Succeeded(domain.StepInventory, "stock reduced from 5 to 2")).
		Build(time.Date(2024, 2, 2, 12, 0, 0, 0, time.UTC))
}

func TestPublisher_PublishesSnapshotWithHeaders(t *testing.T) {
	conn := &recordingConn{}
	publisher := NewPublisher(conn, WithSubjectPrefix("audit.reports."))

	require.NoError(t, publisher.Publish(context.Background(), sampleReport()))
	require.Len(t, conn.msgs, 1)
	msg := conn.msgs[0]
	assert.Equal(t, "audit.reports.place_order", msg.Subject)
	assert.Equal(t, "rep-1", msg.Header.Get(nats.MsgIdHdr))
	assert.Equal(t, "ord-1", msg.Header.Get("Order-Id"))

	var snapshot domain.ReportSnapshot
	require.NoError(t, json.Unmarshal(msg.Data, &snapshot))
	assert.Equal(t, domain.StateCompleted, snapshot.State)
	require.Len(t, snapshot.Steps, 1)
}

func TestPublisher_Errors(t *testing.T) {
	publisher := NewPublisher(&recordingConn{err: nats.ErrConnectionClosed})
	err := publisher.Publish(context.Background(), sampleReport())
	require.True(t, errors.Is(err, nats.ErrConnectionClosed))

	var unconfigured *Publisher
	require.Error(t, unconfigured.Publish(context.Background(), sampleReport()))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.ErrorIs(t, NewPublisher(&recordingConn{}).Publish(ctx, sampleReport()), context.Canceled)
}
