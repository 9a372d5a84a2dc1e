package settlement

import (
	"time"

	"github.com/shopspring/decimal"
)

// Record is the JSON artifact emitted per source document. Field names are
// the integration contract with the downstream storage collaborator and must
// not change.
type Record struct {
	SourceFile     string  `json:"source_file"`
	ExtractionDate string  `json:"extraction_date"`
	SettlementType string  `json:"settlement_type"`
	Settlements    []Entry `json:"settlements"`
}

// Entry is one settlement object inside a Record.
type Entry struct {
	Metadata Metadata `json:"metadata"`
	Revenue  Revenue  `json:"revenue"`
	Expenses Expenses `json:"expenses"`
	Metrics  Metrics  `json:"metrics"`
}

type Metadata struct {
	SettlementDate *string `json:"settlement_date"`
	WeekStart      *string `json:"week_start"`
	WeekEnd        *string `json:"week_end"`
	SettlementType string  `json:"settlement_type"`
	LicensePlate   string  `json:"license_plate"`
	DriverName     *string `json:"driver_name"`
}

type Revenue struct {
	GrossRevenue decimal.Decimal `json:"gross_revenue"`
	NetProfit    decimal.Decimal `json:"net_profit"`
}

type Expenses struct {
	TotalExpenses decimal.Decimal            `json:"total_expenses"`
	Categories    map[string]decimal.Decimal `json:"categories"`
}

type Metrics struct {
	MilesDriven     decimal.Decimal `json:"miles_driven"`
	BlocksDelivered int             `json:"blocks_delivered"`
}

const dateLayout = "2006-01-02"

// NewRecord packages per-vehicle settlements into the artifact shape.
// extractedAt is injected by the caller so batch runs are reproducible.
func NewRecord(sourceFile string, kind string, extractedAt time.Time, settlements []VehicleSettlement) Record {
	rec := Record{
		SourceFile:     sourceFile,
		ExtractionDate: extractedAt.Format(time.RFC3339),
		SettlementType: kind,
		Settlements:    make([]Entry, 0, len(settlements)),
	}
	for i := range settlements {
		rec.Settlements = append(rec.Settlements, NewEntry(&settlements[i]))
	}
	return rec
}

// NewEntry converts one VehicleSettlement into its artifact representation.
// Optional metrics absent from the source are emitted as zero, matching the
// downstream contract; absence is still visible in validation findings.
func NewEntry(s *VehicleSettlement) Entry {
	e := Entry{
		Metadata: Metadata{
			SettlementDate: formatDate(&s.SettlementDate),
			WeekStart:      formatDate(s.PeriodStart),
			WeekEnd:        formatDate(s.PeriodEnd),
			SettlementType: s.LayoutKind.String(),
			LicensePlate:   s.VehicleID,
		},
		Revenue: Revenue{
			GrossRevenue: s.GrossRevenue,
			NetProfit:    s.NetProfit,
		},
		Expenses: Expenses{
			TotalExpenses: s.TotalExpenses,
			Categories:    s.Categories,
		},
	}
	if s.DriverName != "" {
		name := s.DriverName
		e.Metadata.DriverName = &name
	}
	if s.MilesDriven != nil {
		e.Metrics.MilesDriven = *s.MilesDriven
	}
	if s.BlocksDelivered != nil {
		e.Metrics.BlocksDelivered = *s.BlocksDelivered
	}
	return e
}

// Key builds the consolidation key from artifact metadata.
func (e *Entry) Key() string {
	date := ""
	if e.Metadata.SettlementDate != nil {
		date = *e.Metadata.SettlementDate
	}
	return date + "|" + e.Metadata.LicensePlate
}

func formatDate(t *time.Time) *string {
	if t == nil || t.IsZero() {
		return nil
	}
	s := t.Format(dateLayout)
	return &s
}
