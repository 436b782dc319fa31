//go:build integration

package application

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/KMK-tech-v0/fuel/internal/domain"
	"github.com/KMK-tech-v0/fuel/internal/infrastructure/postgres"
	"github.com/KMK-tech-v0/fuel/pkg/database"
	"github.com/KMK-tech-v0/fuel/pkg/logging"
	"github.com/KMK-tech-v0/fuel/pkg/metrics"
	fueltest "github.com/KMK-tech-v0/fuel/pkg/testing"
)

type PostgresIntegrationTestSuite struct {
	suite.Suite
	ctx       context.Context
	container *fueltest.PostgresContainer
	client    *database.Client
	h         *harness
}

func (s *PostgresIntegrationTestSuite) SetupSuite() {
	s.ctx = context.Background()

	container, err := fueltest.NewPostgresContainer(s.ctx)
	s.Require().NoError(err)
	s.container = container

	db, err := container.Open(s.ctx)
	s.Require().NoError(err)
	s.Require().NoError(postgres.Migrate(s.ctx, db))

	m := metrics.New(metrics.DefaultConfig("fuel-test"))
	client, err := database.NewClient(db, database.DefaultOptions("postgres"), m, logging.Discard())
	s.Require().NoError(err)
	s.client = client

	logger := logging.Discard()
	uow := postgres.NewUnitOfWork(client)
	reads := postgres.NewReadRepository(client)
	s.h = &harness{
		db:          db,
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

func (s *PostgresIntegrationTestSuite) TearDownSuite() {
	if s.client != nil {
		_ = s.client.Close()
	}
	if s.container != nil {
		s.Require().NoError(s.container.Close(s.ctx))
	}
}

func (s *PostgresIntegrationTestSuite) SetupTest() {
	for _, table := range []string{"price_fluctuations", "fuel_transactions", "fuel_prices", "fuel_inventory"} {
		s.Require().NoError(s.h.db.Exec(fmt.Sprintf("TRUNCATE TABLE %s RESTART IDENTITY CASCADE", table)).Error)
	}
	data, err := postgres.ParseSeed(strings.NewReader(masterData))
	s.Require().NoError(err)
	_, err = postgres.Seed(s.ctx, s.h.db, data)
	s.Require().NoError(err)
}

// parallel runs fn n times concurrently and returns the errors of the failed calls
func parallel(n int, fn func(i int) error) []error {
	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		errs []error
	)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if err := fn(i); err != nil {
				mu.Lock()
				errs = append(errs, err)
				mu.Unlock()
			}
		}(i)
	}
	wg.Wait()
	return errs
}

func (s *PostgresIntegrationTestSuite) TestConcurrentCreditsAreNotLost() {
	errs := parallel(25, func(int) error {
		_, err := s.h.coordinator.RecordMovement(s.ctx, move("Supplier", "1", "Warehouse", "1", "8.5"))
		return err
	})
	s.Empty(errs)
	s.Equal(212.5, s.h.stockAt(s.T(), "Warehouse", "1"))
	s.Equal(25, s.h.movementCount(s.T()))
}

func (s *PostgresIntegrationTestSuite) TestConcurrentDebitsNeverOverdraw() {
	s.h.mustMove(s.T(), move("Supplier", "1", "Warehouse", "1", "200"))

	errs := parallel(30, func(i int) error {
		_, err := s.h.coordinator.RecordMovement(s.ctx, move("Warehouse", "1", "Site", fmt.Sprint(1+i%2), "10"))
		return err
	})

	s.Len(errs, 10)
	for _, err := range errs {
		s.ErrorIs(err, domain.ErrInsufficientStock)
	}
	s.Zero(s.h.stockAt(s.T(), "Warehouse", "1"))
	s.Equal(200.0, s.h.stockAt(s.T(), "Site", "1")+s.h.stockAt(s.T(), "Site", "2"))
	s.Equal(21, s.h.movementCount(s.T()))

	report, err := s.h.reconciler.Reconcile(s.ctx)
	s.Require().NoError(err)
	s.True(report.Consistent)
}

func (s *PostgresIntegrationTestSuite) TestConcurrentSameDayPricesShareAPredecessor() {
	_, err := s.h.tracker.RecordPrice(s.ctx, RecordPriceCommand{FuelTypeID: "1", Price: "100", EffectiveDate: "2024-01-01"})
	s.Require().NoError(err)

	errs := parallel(10, func(i int) error {
		_, err := s.h.tracker.RecordPrice(s.ctx, RecordPriceCommand{
			FuelTypeID:    "1",
			Price:         Number(fmt.Sprint(101 + i)),
			EffectiveDate: "2024-01-02",
		})
		return err
	})
	s.Empty(errs)

	rows, err := s.h.queries.PriceFluctuations(s.ctx)
	s.Require().NoError(err)
	s.Require().Len(rows, 11)

	// Same-day entries never see each other, so all compare against the baseline
	for _, row := range rows[:10] {
		s.Require().NotNil(row.PreviousPrice)
		s.Equal(100.0, *row.PreviousPrice)
		s.Equal("Increase", row.FluctuationType)
	}
	s.Equal("Baseline", rows[10].FluctuationType)
}

func (s *PostgresIntegrationTestSuite) TestUnknownReferenceIsValidation() {
	cmd := move("Supplier", "1", "Warehouse", "1", "1")
	cmd.FuelTypeID = "99"
	_, err := s.h.coordinator.RecordMovement(s.ctx, cmd)
	s.Require().Error(err)
	s.True(errors.Is(err, domain.ErrUnknownReference))
	s.Zero(s.h.movementCount(s.T()))
}

func TestPostgresIntegrationTestSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration tests in short mode")
	}
	suite.Run(t, new(PostgresIntegrationTestSuite))
}
