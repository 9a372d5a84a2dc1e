package extract

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"fleetsettle/internal/layout"
)

// FieldBag is the flat bag of typed fields extracted from one document.
// Pointer fields distinguish "absent from source" from "explicitly zero";
// the validator relies on that distinction. When the document commingles
// several vehicles the money fields hold combined totals and Blocks carries
// the per-row breakdown used for allocation.
type FieldBag struct {
	DocID  string
	Layout layout.Kind

	SettlementDate *time.Time
	WeekStart      *time.Time
	WeekEnd        *time.Time

	Plates     []string
	DriverName string

	GrossRevenue    *decimal.Decimal
	NetProfit       *decimal.Decimal
	MilesDriven     *decimal.Decimal
	BlocksDelivered *int

	// Expenses maps category name to signed amount. A category missing from
	// the map was not printed on the statement.
	Expenses map[string]decimal.Decimal

	Blocks []BlockRow
}

// BlockRow is one delivery line item. Plate is empty when the row carries no
// vehicle identifier; such rows are excluded from allocation and surface as
// block-coverage warnings.
type BlockRow struct {
	ID        string
	Plate     string
	Revenue   decimal.Decimal
	DriverPay decimal.Decimal
	Fuel      decimal.Decimal
}

// TotalExpenses is the signed sum over all extracted categories. Standard
// categories are positive; custom adjustments may be negative (credits).
func (b *FieldBag) TotalExpenses() decimal.Decimal {
	total := decimal.Zero
	for _, v := range b.Expenses {
		total = total.Add(v)
	}
	return total
}

// Expense returns the amount for a category, zero when absent.
func (b *FieldBag) Expense(category string) decimal.Decimal {
	return b.Expenses[category]
}

// ExtractionError marks a document whose required fields could not be
// extracted. It is fatal for that document only and is never retried.
type ExtractionError struct {
	Doc    string
	Layout layout.Kind
	Field  string
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("extract %s (layout %s): required field %q not found", e.Doc, e.Layout, e.Field)
}
