package ledger

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/angelmondragon/estateerp-backend/pkg/db/models"
	"github.com/angelmondragon/estateerp-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/estateerp-backend/pkg/errors"
	"github.com/angelmondragon/estateerp-backend/pkg/pagination"
)

// HistoryPage is one page of a pair's ledger, oldest first. The cursor is the last returned sequence.
type HistoryPage struct {
	Rows       []models.StockLedger `json:"rows"`
	NextCursor string               `json:"nextCursor,omitempty"`
}

// Service defines read operations over the stock ledger.
type Service interface {
	History(ctx context.Context, warehouseID, itemID uuid.UUID, params pagination.Params) (HistoryPage, error)
	ByReference(ctx context.Context, refType enums.StockRefType, refID uuid.UUID) ([]models.StockLedger, error)
}

type service struct {
	repo Repository
}

// NewService wires a ledger service with the provided repository.
func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("ledger repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) History(ctx context.Context, warehouseID, itemID uuid.UUID, params pagination.Params) (HistoryPage, error) {
	if warehouseID == uuid.Nil || itemID == uuid.Nil {
		return HistoryPage{}, pkgerrors.New(pkgerrors.CodeValidation, "warehouse id and item id are required")
	}
	after, err := decodeSequenceCursor(params.Cursor)
	if err != nil {
		return HistoryPage{}, err
	}
	limit := pagination.NormalizeLimit(params.Limit)
	rows, err := s.repo.ListByPairAfter(ctx, warehouseID, itemID, after, pagination.LimitWithBuffer(params.Limit))
	if err != nil {
		return HistoryPage{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list stock ledger")
	}
	page := HistoryPage{Rows: rows}
	if len(rows) > limit {
		page.Rows = rows[:limit]
		page.NextCursor = encodeSequenceCursor(page.Rows[limit-1].Sequence)
	}
	return page, nil
}

func (s *service) ByReference(ctx context.Context, refType enums.StockRefType, refID uuid.UUID) ([]models.StockLedger, error) {
	if !refType.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid reference type")
	}
	if refID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "reference id is required")
	}
	rows, err := s.repo.ListByRef(ctx, refType, refID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list stock ledger by reference")
	}
	return rows, nil
}
