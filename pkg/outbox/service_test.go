package outbox

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/angelmondragon/estateerp-backend/pkg/db/dbtest"
	"github.com/angelmondragon/estateerp-backend/pkg/db/models"
	"github.com/angelmondragon/estateerp-backend/pkg/enums"
	"github.com/angelmondragon/estateerp-backend/pkg/logger"
)

func TestEmitWritesEnvelope(t *testing.T) {
	client := dbtest.NewSQLite(t)
	repo := NewRepository(client.DB())
	svc := NewService(repo, logger.Nop())
	ctx := context.Background()
	aggregateID := uuid.New()

	err := client.WithTx(ctx, func(tx *gorm.DB) error {
		return svc.Emit(ctx, tx, DomainEvent{
			EventType:     enums.EventGrnPosted,
			AggregateType: enums.AggregateGrn,
			AggregateID:   aggregateID,
			Actor:         &ActorRef{Actor: "storekeeper@site", Source: "api"},
			Data:          map[string]string{"grn_number": "GRN-20260115-001"},
		})
	})
	require.NoError(t, err)

	rows, err := repo.ListByAggregate(ctx, enums.AggregateGrn, aggregateID)
	require.NoError(t, err)
	require.Len(t, rows, 1)

	var envelope PayloadEnvelope
	require.NoError(t, json.Unmarshal(rows[0].Payload, &envelope))
	require.Equal(t, 1, envelope.Version)
	require.NotEmpty(t, envelope.EventID)
	require.Equal(t, "storekeeper@site", envelope.Actor.Actor)
	require.JSONEq(t, `{"grn_number":"GRN-20260115-001"}`, string(envelope.Data))
}

func TestEmitRollsBackWithTransaction(t *testing.T) {
	client := dbtest.NewSQLite(t)
	repo := NewRepository(client.DB())
	svc := NewService(repo, nil)
	ctx := context.Background()
	aggregateID := uuid.New()

	boom := errors.New("boom")
	err := client.WithTx(ctx, func(tx *gorm.DB) error {
		if err := svc.Emit(ctx, tx, DomainEvent{
			EventType:     enums.EventPurchaseOrderCreated,
			AggregateType: enums.AggregatePurchaseOrder,
			AggregateID:   aggregateID,
			Data:          struct{}{},
		}); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	rows, err := repo.ListByAggregate(ctx, enums.AggregatePurchaseOrder, aggregateID)
	require.NoError(t, err)
	require.Empty(t, rows)
}

func TestEmitRejectsUnknownTypes(t *testing.T) {
	client := dbtest.NewSQLite(t)
	svc := NewService(NewRepository(client.DB()), nil)
	err := svc.Emit(context.Background(), client.DB(), DomainEvent{
		EventType:     "order_created",
		AggregateType: enums.AggregateGrn,
		AggregateID:   uuid.New(),
	})
	require.Error(t, err)
	require.Error(t, svc.Emit(context.Background(), nil, DomainEvent{}))
}

func TestEmitIfNotPending(t *testing.T) {
	client := dbtest.NewSQLite(t)
	repo := NewRepository(client.DB())
	svc := NewService(repo, nil)
	ctx := context.Background()
	stockID := uuid.New()
	event := DomainEvent{
		EventType:     enums.EventStockLedgerMismatch,
		AggregateType: enums.AggregateStock,
		AggregateID:   stockID,
		Data:          map[string]string{"reason": "replay"},
	}

	var first, second bool
	require.NoError(t, client.WithTx(ctx, func(tx *gorm.DB) error {
		var err error
		first, err = svc.EmitIfNotPending(ctx, tx, event)
		return err
	}))
	require.NoError(t, client.WithTx(ctx, func(tx *gorm.DB) error {
		var err error
		second, err = svc.EmitIfNotPending(ctx, tx, event)
		return err
	}))
	require.True(t, first)
	require.False(t, second)

	rows, err := repo.ListByAggregate(ctx, enums.AggregateStock, stockID)
	require.NoError(t, err)
	require.Len(t, rows, 1)

	require.NoError(t, client.WithTx(ctx, func(tx *gorm.DB) error {
		return repo.MarkPublishedTx(tx, rows[0].ID)
	}))
	var third bool
	require.NoError(t, client.WithTx(ctx, func(tx *gorm.DB) error {
		var err error
		third, err = svc.EmitIfNotPending(ctx, tx, event)
		return err
	}))
	require.True(t, third)
}

func TestRepositoryPublishLifecycle(t *testing.T) {
	client := dbtest.NewSQLite(t)
	repo := NewRepository(client.DB())
	ctx := context.Background()

	seed := func(attempts int, publishedAt *time.Time, createdAt time.Time) uuid.UUID {
		row := models.OutboxEvent{
			EventType:     enums.EventGrnPosted,
			AggregateType: enums.AggregateGrn,
			AggregateID:   uuid.New(),
			Payload:       json.RawMessage(`{}`),
			AttemptCount:  attempts,
			PublishedAt:   publishedAt,
			CreatedAt:     createdAt,
		}
		require.NoError(t, client.DB().Create(&row).Error)
		return row.ID
	}

	now := time.Now().UTC()
	old := now.Add(-40 * 24 * time.Hour)
	pending := seed(0, nil, now)
	exhausted := seed(10, nil, old)
	publishedOld := seed(1, &old, old)
	recent := now.Add(-time.Hour)
	seed(1, &recent, recent)

	var fetched []models.OutboxEvent
	require.NoError(t, client.WithTx(ctx, func(tx *gorm.DB) error {
		var err error
		fetched, err = repo.FetchUnpublishedForPublish(tx, 10, 10)
		return err
	}))
	require.Len(t, fetched, 1)
	require.Equal(t, pending, fetched[0].ID)

	require.NoError(t, client.WithTx(ctx, func(tx *gorm.DB) error {
		return repo.MarkFailedTx(tx, pending, errors.New("pubsub unavailable"))
	}))
	var reloaded models.OutboxEvent
	require.NoError(t, client.DB().First(&reloaded, "id = ?", pending).Error)
	require.Equal(t, 1, reloaded.AttemptCount)
	require.NotNil(t, reloaded.LastError)

	require.NoError(t, client.WithTx(ctx, func(tx *gorm.DB) error {
		return repo.MarkTerminalTx(tx, pending, errors.New("bad payload"), 10)
	}))
	require.NoError(t, client.DB().First(&reloaded, "id = ?", pending).Error)
	require.Equal(t, 10, reloaded.AttemptCount)

	var deleted int64
	require.NoError(t, client.WithTx(ctx, func(tx *gorm.DB) error {
		var err error
		deleted, err = repo.DeletePublishedBefore(ctx, tx, now.Add(-30*24*time.Hour), 5)
		return err
	}))
	require.Equal(t, int64(2), deleted)

	var remaining []uuid.UUID
	require.NoError(t, client.DB().Model(&models.OutboxEvent{}).Pluck("id", &remaining).Error)
	require.NotContains(t, remaining, exhausted)
	require.NotContains(t, remaining, publishedOld)
	require.Len(t, remaining, 2)
}
