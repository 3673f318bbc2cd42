package repository

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/fjod/go_cart/storefront/internal/domain"
	"github.com/fjod/go_cart/storefront/internal/money"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

func setupTestDB(t *testing.T) (*Repository, func()) {
	ctx := context.Background()

	pgContainer, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("testdb"),
		postgres.WithUsername("testuser"),
		postgres.WithPassword("testpass"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	require.NoError(t, err)

	host, err := pgContainer.Host(ctx)
	require.NoError(t, err)

	port, err := pgContainer.MappedPort(ctx, "5432")
	require.NoError(t, err)

	creds := &Credentials{
		Host:              host,
		Port:              port.Int(),
		User:              "testuser",
		Password:          "testpass",
		DBName:            "testdb",
		MigrationsDirPath: "./migrations",
	}

	repo, err := NewRepository(creds)
	require.NoError(t, err)

	require.NoError(t, repo.RunMigrations(creds))

	cleanup := func() {
		repo.Close()
		if err := pgContainer.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %s", err)
		}
	}

	return repo, cleanup
}

func newTestOrder(userID string) *domain.Order {
	now := time.Now().UTC().Truncate(time.Microsecond)
	order := &domain.Order{
		ID:     uuid.NewString(),
		UserID: userID,
		Status: domain.StatusPendingPayment,
		Mode:   domain.ModeCart,
		Address: domain.AddressSnapshot{
			Name: "Li Lei", Phone: "13800000000", City: "Shenzhen", Detail: "Keji Road 1",
		},
		Items: []domain.OrderLineItem{
			{SkuID: 100101, ProductID: 1001, Name: "Legion", SpecSummary: "GPU: RTX 5060; SSD: 1T", UnitPrice: money.MustParse("13999.00"), Quantity: 1},
			{SkuID: 100201, ProductID: 1002, Name: "Mouse", UnitPrice: money.MustParse("0.05"), Quantity: 7},
		},
		CartDrainPending: true,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	order.TotalPrice = order.ItemsSubtotal()
	order.PayPrice = order.TotalPrice
	return order
}

func TestCreateOrder_AndGet(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()

	order := newTestOrder("user-123")
	require.NoError(t, repo.CreateOrder(ctx, order))

	got, err := repo.GetOrder(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, order.UserID, got.UserID)
	assert.Equal(t, domain.StatusPendingPayment, got.Status)
	assert.Equal(t, domain.ModeCart, got.Mode)
	assert.Equal(t, money.Cents(1399935), got.TotalPrice)
	assert.Equal(t, got.TotalPrice, got.PayPrice)
	assert.Equal(t, order.Address, got.Address)
	assert.Equal(t, order.Items, got.Items)
	assert.True(t, got.CartDrainPending)
	assert.WithinDuration(t, order.CreatedAt, got.CreatedAt, time.Millisecond)
}

func TestCreateOrder_WritesOutboxEvent(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()

	order := newTestOrder("user-123")
	require.NoError(t, repo.CreateOrder(ctx, order))

	events, err := repo.GetUnprocessedEvents(ctx, 10)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, order.ID, events[0].AggregateID)
	assert.Equal(t, domain.EventOrderCreated, events[0].EventType)

	var payload domain.OrderCreatedEvent
	require.NoError(t, json.Unmarshal(events[0].Payload, &payload))
	assert.Equal(t, []int64{100101, 100201}, payload.SkuIDs)
	assert.True(t, payload.DrainCart)

	require.NoError(t, repo.MarkEventAsProcessed(ctx, events[0].ID))
	events, err = repo.GetUnprocessedEvents(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, events)
}

func TestCreateOrder_Duplicate(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()

	order := newTestOrder("user-123")
	require.NoError(t, repo.CreateOrder(ctx, order))

	err := repo.CreateOrder(ctx, order)
	assert.ErrorIs(t, err, ErrDuplicateOrder)

	// the failed insert must not leave a second outbox row
	events, err := repo.GetUnprocessedEvents(ctx, 10)
	require.NoError(t, err)
	assert.Len(t, events, 1)
}

func TestGetOrder_NotFound(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()

	_, err := repo.GetOrder(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrOrderNotFound)
}

func TestListOrders_FilterAndPaging(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()

	var ids []string
	for i := 0; i < 3; i++ {
		o := newTestOrder("user-123")
		o.CreatedAt = o.CreatedAt.Add(time.Duration(i) * time.Second)
		require.NoError(t, repo.CreateOrder(ctx, o))
		ids = append(ids, o.ID)
	}
	require.NoError(t, repo.CreateOrder(ctx, newTestOrder("someone-else")))
	require.NoError(t, repo.UpdateStatus(ctx, ids[0], domain.StatusPendingPayment, domain.StatusAwaitingShipment, time.Now()))

	all, total, err := repo.ListOrders(ctx, ListFilter{UserID: "user-123", Status: domain.StatusAll})
	require.NoError(t, err)
	assert.Equal(t, 3, total)
	require.Len(t, all, 3)
	assert.Equal(t, ids[2], all[0].ID, "newest first")

	paid, total, err := repo.ListOrders(ctx, ListFilter{UserID: "user-123", Status: domain.StatusAwaitingShipment})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	require.Len(t, paid, 1)
	assert.Equal(t, ids[0], paid[0].ID)

	page2, total, err := repo.ListOrders(ctx, ListFilter{UserID: "user-123", Page: 2, PageSize: 2})
	require.NoError(t, err)
	assert.Equal(t, 3, total)
	assert.Len(t, page2, 1)

	none, total, err := repo.ListOrders(ctx, ListFilter{UserID: "nobody"})
	require.NoError(t, err)
	assert.Equal(t, 0, total)
	assert.Empty(t, none)
}

func TestUpdateStatus_CompareAndSet(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()

	order := newTestOrder("user-123")
	require.NoError(t, repo.CreateOrder(ctx, order))

	require.NoError(t, repo.UpdateStatus(ctx, order.ID, domain.StatusPendingPayment, domain.StatusAwaitingShipment, time.Now()))

	err := repo.UpdateStatus(ctx, order.ID, domain.StatusPendingPayment, domain.StatusCancelled, time.Now())
	assert.ErrorIs(t, err, ErrStatusConflict)

	got, err := repo.GetOrder(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusAwaitingShipment, got.Status)

	err = repo.UpdateStatus(ctx, "missing", domain.StatusPendingPayment, domain.StatusAwaitingShipment, time.Now())
	assert.ErrorIs(t, err, ErrOrderNotFound)
}

func TestMarkCartDrained_AndPendingDrains(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()

	pending := newTestOrder("user-123")
	pending.CreatedAt = pending.CreatedAt.Add(-time.Hour)
	require.NoError(t, repo.CreateOrder(ctx, pending))

	direct := newTestOrder("user-123")
	direct.Mode = domain.ModeDirect
	direct.CartDrainPending = false
	direct.CreatedAt = direct.CreatedAt.Add(-time.Hour)
	require.NoError(t, repo.CreateOrder(ctx, direct))

	fresh := newTestOrder("user-123")
	require.NoError(t, repo.CreateOrder(ctx, fresh))

	orders, err := repo.PendingDrains(ctx, time.Now().Add(-time.Minute), 10)
	require.NoError(t, err)
	require.Len(t, orders, 1)
	assert.Equal(t, pending.ID, orders[0].ID)

	cleared, err := repo.MarkCartDrained(ctx, pending.ID)
	require.NoError(t, err)
	assert.True(t, cleared)

	cleared, err = repo.MarkCartDrained(ctx, pending.ID)
	require.NoError(t, err)
	assert.False(t, cleared)

	orders, err = repo.PendingDrains(ctx, time.Now().Add(-time.Minute), 10)
	require.NoError(t, err)
	assert.Empty(t, orders)
}
