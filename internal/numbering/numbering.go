// Package numbering issues human-readable document numbers of the form PREFIX-yyyyMMdd-NNN.
package numbering

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"gorm.io/gorm"

	pkgerrors "github.com/angelmondragon/estateerp-backend/pkg/errors"
	"github.com/angelmondragon/estateerp-backend/pkg/lock"
)

const (
	dateLayout     = "20060102"
	defaultLockTTL = 30 * time.Second
)

// Kind names a numbered document type and the column its numbers live in.
type Kind struct {
	Prefix string
	Table  string
	Column string
}

var (
	PurchaseOrder = Kind{Prefix: "PO", Table: "purchase_orders", Column: "po_number"}
	Grn           = Kind{Prefix: "GRN", Table: "grns", Column: "grn_number"}
	VendorInvoice = Kind{Prefix: "INV", Table: "vendor_invoices", Column: "invoice_number"}
)

func (k Kind) lockKey() string {
	return "numbering:" + k.Prefix
}

// Generator computes the next number for a kind. Callers hold the kind's lock via Locked
// for the whole creating transaction so two writers never read the same last number.
type Generator struct {
	locker lock.Locker
	ttl    time.Duration
	now    func() time.Time
}

func NewGenerator(locker lock.Locker, ttl time.Duration) *Generator {
	if ttl <= 0 {
		ttl = defaultLockTTL
	}
	return &Generator{locker: locker, ttl: ttl, now: time.Now}
}

// WithClock overrides the time source; used by tests that cross midnight.
func (g *Generator) WithClock(now func() time.Time) *Generator {
	clone := *g
	clone.now = now
	return &clone
}

// Locked runs fn while holding the per-prefix numbering lock.
func (g *Generator) Locked(ctx context.Context, kind Kind, fn func(ctx context.Context) error) error {
	err := lock.With(ctx, g.locker, kind.lockKey(), g.ttl, fn)
	if errors.Is(err, lock.ErrNotObtained) {
		return pkgerrors.Wrap(pkgerrors.CodeConflict, err, "document numbering is busy, retry").WithDetails(map[string]any{"prefix": kind.Prefix})
	}
	return err
}

// Next returns today's next number for kind, read inside tx.
func (g *Generator) Next(ctx context.Context, tx *gorm.DB, kind Kind) (string, error) {
	day := g.now().UTC().Format(dateLayout)
	head := kind.Prefix + "-" + day + "-"

	var last []string
	err := tx.WithContext(ctx).
		Table(kind.Table).
		Where(kind.Column+" LIKE ?", head+"%").
		Order("LENGTH("+kind.Column+") DESC").
		Order(kind.Column+" DESC").
		Limit(1).
		Pluck(kind.Column, &last).Error
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "read last document number")
	}

	seq := 1
	if len(last) == 1 {
		current, perr := ParseSequence(last[0], kind.Prefix, day)
		if perr != nil {
			return "", pkgerrors.Wrap(pkgerrors.CodeInternal, perr, "parse last document number")
		}
		seq = current + 1
	}
	return Format(kind.Prefix, day, seq), nil
}

// Format renders a number; sequences above 999 keep all their digits.
func Format(prefix, day string, seq int) string {
	return fmt.Sprintf("%s-%s-%03d", prefix, day, seq)
}

// ParseSequence extracts the trailing sequence of a number issued on day.
func ParseSequence(number, prefix, day string) (int, error) {
	head := prefix + "-" + day + "-"
	if !strings.HasPrefix(number, head) {
		return 0, fmt.Errorf("number %q is not from %s", number, day)
	}
	seq, err := strconv.Atoi(strings.TrimPrefix(number, head))
	if err != nil || seq <= 0 {
		return 0, fmt.Errorf("number %q has no valid sequence", number)
	}
	return seq, nil
}
