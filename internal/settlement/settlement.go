package settlement

import (
	"time"

	"github.com/shopspring/decimal"

	"fleetsettle/internal/layout"
)

func init() {
	// The downstream import contract expects plain JSON numbers for money.
	decimal.MarshalJSONWithoutQuotes = true
}

// Standard expense category names. Statements may additionally carry "custom"
// adjustment entries whose sign decides whether they add to or reduce the
// expense total.
const (
	CategoryFuel           = "fuel"
	CategoryDispatchFee    = "dispatch_fee"
	CategoryInsurance      = "insurance"
	CategorySafety         = "safety"
	CategoryPrepass        = "prepass"
	CategoryIFTA           = "ifta"
	CategoryDriverPay      = "driver_pay"
	CategoryPayrollFee     = "payroll_fee"
	CategoryTruckParking   = "truck_parking"
	CategoryServiceOnTruck = "service_on_truck"
	CategoryCustom         = "custom"
)

// VehicleSettlement is the canonical per-vehicle output unit: one settlement
// period's revenue, categorized expenses and resulting net profit for one
// vehicle. NetProfit is always computed as GrossRevenue - TotalExpenses, and
// TotalExpenses is the signed sum of Categories.
type VehicleSettlement struct {
	VehicleID      string
	SettlementDate time.Time
	PeriodStart    *time.Time
	PeriodEnd      *time.Time
	DriverName     string

	GrossRevenue  decimal.Decimal
	TotalExpenses decimal.Decimal
	NetProfit     decimal.Decimal
	Categories    map[string]decimal.Decimal

	MilesDriven     *decimal.Decimal
	BlocksDelivered *int

	SourceFile string
	LayoutKind layout.Kind
}

// SumCategories returns the signed sum of all expense category amounts.
func SumCategories(categories map[string]decimal.Decimal) decimal.Decimal {
	total := decimal.Zero
	for _, v := range categories {
		total = total.Add(v)
	}
	return total
}

// Key is the consolidation key: settlement date plus vehicle identifier.
// Two records with equal keys describe the same settlement.
func (s *VehicleSettlement) Key() string {
	return s.SettlementDate.Format("2006-01-02") + "|" + s.VehicleID
}
