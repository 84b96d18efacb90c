package ledger

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/estateerp-backend/pkg/db/models"
	"github.com/angelmondragon/estateerp-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/estateerp-backend/pkg/errors"
	"github.com/angelmondragon/estateerp-backend/pkg/pagination"
)

type fakeRepository struct {
	rows    []models.StockLedger
	listErr error
}

func (f *fakeRepository) WithTx(tx *gorm.DB) Repository { return f }

func (f *fakeRepository) Append(ctx context.Context, row *models.StockLedger) error {
	f.rows = append(f.rows, *row)
	return nil
}

func (f *fakeRepository) ListByPair(ctx context.Context, warehouseID, itemID uuid.UUID) ([]models.StockLedger, error) {
	return f.rows, f.listErr
}

func (f *fakeRepository) ListByPairAfter(ctx context.Context, warehouseID, itemID uuid.UUID, afterSequence int64, limit int) ([]models.StockLedger, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	out := []models.StockLedger{}
	for _, r := range f.rows {
		if r.Sequence > afterSequence && len(out) < limit {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *fakeRepository) ListByRef(ctx context.Context, refType enums.StockRefType, refID uuid.UUID) ([]models.StockLedger, error) {
	out := []models.StockLedger{}
	for _, r := range f.rows {
		if r.RefType == refType && r.RefID == refID {
			out = append(out, r)
		}
	}
	return out, nil
}

func seededRepo(n int) *fakeRepository {
	repo := &fakeRepository{}
	balance := decimal.Zero
	for i := 1; i <= n; i++ {
		balance = balance.Add(decimal.NewFromInt(1))
		repo.rows = append(repo.rows, models.StockLedger{
			Sequence:     int64(i),
			RefType:      enums.StockRefGRN,
			QtyIn:        decimal.NewFromInt(1),
			BalanceAfter: balance,
		})
	}
	return repo
}

func TestHistoryPaginatesBySequence(t *testing.T) {
	svc, err := NewService(seededRepo(5))
	if err != nil {
		t.Fatalf("unexpected service error: %v", err)
	}
	ctx := context.Background()
	warehouseID, itemID := uuid.New(), uuid.New()

	first, err := svc.History(ctx, warehouseID, itemID, pagination.Params{Limit: 2})
	if err != nil {
		t.Fatalf("History error: %v", err)
	}
	if len(first.Rows) != 2 || first.Rows[1].Sequence != 2 || first.NextCursor == "" {
		t.Fatalf("unexpected first page %+v", first)
	}

	second, err := svc.History(ctx, warehouseID, itemID, pagination.Params{Limit: 2, Cursor: first.NextCursor})
	if err != nil {
		t.Fatalf("History error: %v", err)
	}
	if len(second.Rows) != 2 || second.Rows[0].Sequence != 3 {
		t.Fatalf("unexpected second page %+v", second)
	}

	last, err := svc.History(ctx, warehouseID, itemID, pagination.Params{Limit: 2, Cursor: second.NextCursor})
	if err != nil {
		t.Fatalf("History error: %v", err)
	}
	if len(last.Rows) != 1 || last.NextCursor != "" {
		t.Fatalf("unexpected last page %+v", last)
	}
}

func TestHistoryValidation(t *testing.T) {
	svc, _ := NewService(seededRepo(1))
	ctx := context.Background()

	if _, err := svc.History(ctx, uuid.Nil, uuid.New(), pagination.Params{}); !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if _, err := svc.History(ctx, uuid.New(), uuid.New(), pagination.Params{Cursor: "not-a-cursor"}); !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected invalid cursor error, got %v", err)
	}
}

func TestHistoryWrapsRepositoryErrors(t *testing.T) {
	svc, _ := NewService(&fakeRepository{listErr: errors.New("db down")})
	_, err := svc.History(context.Background(), uuid.New(), uuid.New(), pagination.Params{})
	if !pkgerrors.IsCode(err, pkgerrors.CodeDependency) {
		t.Fatalf("expected dependency error, got %v", err)
	}
}

func TestByReference(t *testing.T) {
	repo := seededRepo(0)
	refID := uuid.New()
	repo.rows = append(repo.rows,
		models.StockLedger{Sequence: 1, RefType: enums.StockRefTransfer, RefID: refID},
		models.StockLedger{Sequence: 2, RefType: enums.StockRefTransfer, RefID: refID},
		models.StockLedger{Sequence: 3, RefType: enums.StockRefGRN, RefID: refID},
	)
	svc, _ := NewService(repo)

	rows, err := svc.ByReference(context.Background(), enums.StockRefTransfer, refID)
	if err != nil {
		t.Fatalf("ByReference error: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected two transfer rows, got %d", len(rows))
	}
	if _, err := svc.ByReference(context.Background(), "RETURN", refID); !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestNewServiceRequiresRepository(t *testing.T) {
	if _, err := NewService(nil); err == nil {
		t.Fatal("expected error for nil repository")
	}
}
