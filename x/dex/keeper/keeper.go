package keeper

import (
	"time"

	"cosmossdk.io/log"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/opendotfund/OpenFund/x/dex/types"
)

// Keeper implements the pool accounting and order escrow engines on top of a
// token ledger. All balance mutations go through the ledger; the keeper's own
// store only holds Pool, Order and config records.
//
// Every mutating operation runs as one all-or-nothing unit: it locks the
// entities it touches, stages mutations on ledger and store branches, and
// commits both only after every step succeeded. A failure anywhere discards
// the branches, so no partial state is ever observable.
type Keeper struct {
	ledger  types.Ledger
	store   *Store
	logger  log.Logger
	metrics *Metrics
	locks   *lockTable
	clock   func() time.Time
}

// Option configures a Keeper.
type Option func(*Keeper)

// WithClock injects the time source used for order expiry and record
// timestamps. Defaults to time.Now.
func WithClock(clock func() time.Time) Option {
	return func(k *Keeper) { k.clock = clock }
}

// WithMetricsRegisterer registers the keeper's metrics with the given
// prometheus registerer. Without this option metrics are collected on a
// throwaway registry.
func WithMetricsRegisterer(reg prometheus.Registerer) Option {
	return func(k *Keeper) { k.metrics = NewMetrics(reg) }
}

// NewKeeper creates a keeper backed by the given ledger.
func NewKeeper(ledger types.Ledger, logger log.Logger, opts ...Option) *Keeper {
	k := &Keeper{
		ledger: ledger,
		store:  NewStore(),
		logger: logger,
		locks:  newLockTable(),
		clock:  time.Now,
	}
	for _, opt := range opts {
		opt(k)
	}
	if k.metrics == nil {
		k.metrics = NewMetrics(prometheus.NewRegistry())
	}
	return k
}

// Logger returns the keeper's logger.
func (k *Keeper) Logger() log.Logger {
	return k.logger
}

// Now returns the keeper's current time.
func (k *Keeper) Now() time.Time {
	return k.clock()
}

// txn stages an operation's mutations on ledger and store branches. Nothing
// is visible to other operations until commit; dropping the txn discards it.
type txn struct {
	ledger types.Ledger
	store  *Store
}

func (k *Keeper) begin() *txn {
	return &txn{
		ledger: k.ledger.Branch(),
		store:  k.store.Branch(),
	}
}

func (t *txn) commit() {
	t.ledger.Write()
	t.store.Write()
}
