package obs

import (
	"errors"
	"sync/atomic"

	"main/internal/model/enum"
	"main/pkg/exception"
)

const maxEventKind = int(enum.EventLiquidation)

// Metrics collects lightweight counters for engine activity. All methods are
// safe for concurrent use and never block an operation.
type Metrics struct {
	eventCounts [maxEventKind + 1]uint64

	invalidAmount    uint64
	unsupportedAsset uint64
	healthBroken     uint64
	transferFailed   uint64
	mintFailed       uint64
	reentrantCalls   uint64
	liquidationGuard uint64
	oracleFaults     uint64
	otherFailures    uint64

	rollbacks  uint64
	queueDrops uint64
}

// Snapshot captures the current counter values.
type Snapshot struct {
	EventCounts map[enum.EventKind]uint64

	InvalidAmount    uint64
	UnsupportedAsset uint64
	HealthBroken     uint64
	TransferFailed   uint64
	MintFailed       uint64
	ReentrantCalls   uint64
	LiquidationGuard uint64
	OracleFaults     uint64
	OtherFailures    uint64

	Rollbacks  uint64
	QueueDrops uint64
}

// NewMetrics allocates a metrics container.
func NewMetrics() *Metrics {
	return &Metrics{}
}

// ObserveEvent counts a committed protocol event.
func (m *Metrics) ObserveEvent(kind enum.EventKind) {
	if m == nil || !kind.IsAvailable() {
		return
	}
	atomic.AddUint64(&m.eventCounts[int(kind)], 1)
}

// ObserveFailure classifies a failed operation by its error.
func (m *Metrics) ObserveFailure(err error) {
	if m == nil || err == nil {
		return
	}
	switch {
	case errors.Is(err, exception.ErrInvalidAmount):
		atomic.AddUint64(&m.invalidAmount, 1)
	case errors.Is(err, exception.ErrCollateralNotSupported):
		atomic.AddUint64(&m.unsupportedAsset, 1)
	case errors.Is(err, exception.ErrHealthFactorBroken):
		atomic.AddUint64(&m.healthBroken, 1)
	case errors.Is(err, exception.ErrTransferFailed):
		atomic.AddUint64(&m.transferFailed, 1)
	case errors.Is(err, exception.ErrMintFailed):
		atomic.AddUint64(&m.mintFailed, 1)
	case errors.Is(err, exception.ErrReentrantCall):
		atomic.AddUint64(&m.reentrantCalls, 1)
	case errors.Is(err, exception.ErrHealthFactorOk),
		errors.Is(err, exception.ErrHealthFactorNotImproved):
		atomic.AddUint64(&m.liquidationGuard, 1)
	case errors.Is(err, exception.ErrOraclePrice),
		errors.Is(err, exception.ErrOracleFeedNotFound),
		errors.Is(err, exception.ErrOracleScaleTooLarge):
		atomic.AddUint64(&m.oracleFaults, 1)
	default:
		atomic.AddUint64(&m.otherFailures, 1)
	}
}

// ObserveRollback counts an operation whose effects were undone after a
// collaborator failure.
func (m *Metrics) ObserveRollback() {
	if m == nil {
		return
	}
	atomic.AddUint64(&m.rollbacks, 1)
}

// ObserveQueueDrop counts an event dropped by a full queue.
func (m *Metrics) ObserveQueueDrop() {
	if m == nil {
		return
	}
	atomic.AddUint64(&m.queueDrops, 1)
}

// Snapshot returns a point-in-time copy of every counter.
func (m *Metrics) Snapshot() Snapshot {
	snap := Snapshot{EventCounts: make(map[enum.EventKind]uint64)}
	if m == nil {
		return snap
	}
	for i := 1; i <= maxEventKind; i++ {
		if count := atomic.LoadUint64(&m.eventCounts[i]); count > 0 {
			snap.EventCounts[enum.EventKind(i)] = count
		}
	}
	snap.InvalidAmount = atomic.LoadUint64(&m.invalidAmount)
	snap.UnsupportedAsset = atomic.LoadUint64(&m.unsupportedAsset)
	snap.HealthBroken = atomic.LoadUint64(&m.healthBroken)
	snap.TransferFailed = atomic.LoadUint64(&m.transferFailed)
	snap.MintFailed = atomic.LoadUint64(&m.mintFailed)
	snap.ReentrantCalls = atomic.LoadUint64(&m.reentrantCalls)
	snap.LiquidationGuard = atomic.LoadUint64(&m.liquidationGuard)
	snap.OracleFaults = atomic.LoadUint64(&m.oracleFaults)
	snap.OtherFailures = atomic.LoadUint64(&m.otherFailures)
	snap.Rollbacks = atomic.LoadUint64(&m.rollbacks)
	snap.QueueDrops = atomic.LoadUint64(&m.queueDrops)
	return snap
}
