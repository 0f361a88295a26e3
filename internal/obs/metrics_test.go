package obs

import (
	"testing"

	"main/internal/model/enum"
	"main/pkg/exception"

	"github.com/yanun0323/errors"
)

func TestMetricsCounting(t *testing.T) {
	m := NewMetrics()

	m.ObserveEvent(enum.EventDebtMinted)
	m.ObserveEvent(enum.EventDebtMinted)
	m.ObserveEvent(enum.EventLiquidation)
	m.ObserveEvent(enum.EventKind(250)) // out of range, ignored

	m.ObserveFailure(exception.ErrInvalidAmount)
	m.ObserveFailure(errors.Wrap(exception.ErrHealthFactorBroken, "0.93"))
	m.ObserveFailure(errors.Wrap(exception.ErrHealthFactorOk, "target"))
	m.ObserveFailure(errors.New("something else"))
	m.ObserveFailure(nil)

	m.ObserveRollback()
	m.ObserveQueueDrop()

	snap := m.Snapshot()
	if snap.EventCounts[enum.EventDebtMinted] != 2 {
		t.Fatalf("mint count mismatch: %d", snap.EventCounts[enum.EventDebtMinted])
	}
	if snap.EventCounts[enum.EventLiquidation] != 1 {
		t.Fatalf("liquidation count mismatch: %d", snap.EventCounts[enum.EventLiquidation])
	}
	if snap.InvalidAmount != 1 || snap.HealthBroken != 1 || snap.LiquidationGuard != 1 || snap.OtherFailures != 1 {
		t.Fatalf("failure classification mismatch: %+v", snap)
	}
	if snap.Rollbacks != 1 || snap.QueueDrops != 1 {
		t.Fatalf("counter mismatch: %+v", snap)
	}
}

func TestNilMetricsAreSafe(t *testing.T) {
	var m *Metrics

	m.ObserveEvent(enum.EventDebtMinted)
	m.ObserveFailure(exception.ErrInvalidAmount)
	m.ObserveRollback()
	m.ObserveQueueDrop()

	snap := m.Snapshot()
	if len(snap.EventCounts) != 0 || snap.InvalidAmount != 0 {
		t.Fatalf("nil metrics should report zeros: %+v", snap)
	}
}
