package application

import (
	"context"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/KMK-tech-v0/fuel/internal/domain"
	"github.com/KMK-tech-v0/fuel/internal/infrastructure/postgres"
	"github.com/KMK-tech-v0/fuel/pkg/logging"
	"github.com/KMK-tech-v0/fuel/pkg/metrics"
	fueltest "github.com/KMK-tech-v0/fuel/pkg/testing"
)

const masterData = `
fuelTypes:
  - {id: 1, name: Diesel}
  - {id: 2, name: Octane 95}
suppliers:
  - {id: 1, name: Max Energy}
townships:
  - {id: 1, name: Hlaing}
sites:
  - {id: 1, name: Tower A, townshipId: 1}
  - {id: 2, name: Tower B, townshipId: 1}
warehouses:
  - {id: 1, name: Central Depot, townshipId: 1}
  - {id: 2, name: North Depot, townshipId: 1}
`

type harness struct {
	db          *gorm.DB
	uow         *postgres.UnitOfWork
	reads       *postgres.GormReadRepository
	metrics     *metrics.Metrics
	coordinator *MovementCoordinator
	tracker     *PriceTracker
	stock       *StockService
	queries     *QueryService
	reconciler  *Reconciler
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	client, m := fueltest.NewSQLiteClient(t, postgres.AllModels()...)
	data, err := postgres.ParseSeed(strings.NewReader(masterData))
	require.NoError(t, err)
	_, err = postgres.Seed(context.Background(), client.DB(), data)
	require.NoError(t, err)

	logger := logging.Discard()
	uow := postgres.NewUnitOfWork(client)
	reads := postgres.NewReadRepository(client)

	return &harness{
		db:          client.DB(),
		uow:         uow,
		reads:       reads,
		metrics:     m,
		coordinator: NewMovementCoordinator(uow, m, logger),
		tracker:     NewPriceTracker(uow, m, logger),
		stock:       NewStockService(uow, logger),
		queries:     NewQueryService(reads, logger),
		reconciler:  NewReconciler(reads, m, logger),
	}
}

func move(sourceType, sourceID, destType, destID, quantity string) RecordMovementCommand {
	return RecordMovementCommand{
		TransactionType:         "Transfer",
		SourceLocationType:      sourceType,
		SourceLocationID:        Number(sourceID),
		DestinationLocationType: destType,
		DestinationLocationID:   Number(destID),
		FuelTypeID:              "1",
		Quantity:                Number(quantity),
		TransactionDate:         "2024-05-01T08:00:00Z",
	}
}

func (h *harness) mustMove(t *testing.T, cmd RecordMovementCommand) *MovementResultDTO {
	t.Helper()
	result, err := h.coordinator.RecordMovement(context.Background(), cmd)
	require.NoError(t, err)
	return result
}

func (h *harness) stockAt(t *testing.T, kind, id string) float64 {
	t.Helper()
	dto, err := h.stock.GetStock(context.Background(), GetStockQuery{FuelTypeID: "1", LocationType: kind, LocationID: Number(id)})
	require.NoError(t, err)
	return dto.CurrentStock
}

func (h *harness) movementCount(t *testing.T) int {
	t.Helper()
	rows, err := h.queries.Movements(context.Background())
	require.NoError(t, err)
	return len(rows)
}

// failingCreditUoW injects err into every destination credit
type failingCreditUoW struct {
	inner domain.UnitOfWork
	err   error
}

func (u failingCreditUoW) Do(ctx context.Context, unit string, fn func(tx domain.Tx) error) error {
	return u.inner.Do(ctx, unit, func(tx domain.Tx) error {
		return fn(failingTx{Tx: tx, err: u.err})
	})
}

type failingTx struct {
	domain.Tx
	err error
}

func (t failingTx) Inventory() domain.InventoryStore {
	return failingStore{InventoryStore: t.Tx.Inventory(), err: t.err}
}

type failingStore struct {
	domain.InventoryStore
	err error
}

func (s failingStore) Credit(context.Context, domain.InventoryKey, decimal.Decimal) error {
	return s.err
}
