// Package validate runs the fixed battery of arithmetic and completeness
// checks over per-vehicle settlement drafts. Findings are accumulated values,
// never raised: a document with only warnings stays usable, and one with
// errors is still emitted so operators can inspect the partial result.
package validate

import (
	"fmt"

	"github.com/shopspring/decimal"

	"fleetsettle/internal/config"
	"fleetsettle/internal/extract"
	"fleetsettle/internal/settlement"
)

type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
)

// Rule names, stable identifiers for downstream filtering.
const (
	RuleRevenueReconciliation = "revenue_reconciliation"
	RuleExpenseReconciliation = "expense_reconciliation"
	RuleUnassignedBlock       = "unassigned_block"
	RuleNetProfitIdentity     = "net_profit_identity"
	RuleActivitySignal        = "activity_signal"
)

// Finding is one validation result. Vehicle is nil for document-level
// findings.
type Finding struct {
	Severity Severity `json:"severity"`
	Rule     string   `json:"field_or_rule"`
	Message  string   `json:"message"`
	Vehicle  *string  `json:"vehicle_identifier"`
}

type Summary struct {
	TotalSettlements int `json:"total_settlements"`
	ErrorCount       int `json:"error_count"`
	WarningCount     int `json:"warning_count"`
}

// Report collects every finding for one document. IsValid means no
// error-severity findings; warnings do not block.
type Report struct {
	IsValid  bool      `json:"is_valid"`
	Findings []Finding `json:"findings"`
	Summary  Summary   `json:"summary"`
}

// Check validates settlement drafts against the originating field bag's
// combined totals.
func Check(bag *extract.FieldBag, settlements []settlement.VehicleSettlement, rules config.Rules) Report {
	tol := rules.ToleranceAmount()
	var findings []Finding

	findings = append(findings, checkRevenue(bag, settlements, tol)...)
	findings = append(findings, checkExpenses(bag, settlements, tol)...)
	findings = append(findings, checkBlockCoverage(bag)...)
	findings = append(findings, checkNetProfit(settlements, tol)...)
	findings = append(findings, checkActivity(settlements)...)

	rep := Report{Findings: findings}
	rep.Summary.TotalSettlements = len(settlements)
	for _, f := range findings {
		if f.Severity == SeverityError {
			rep.Summary.ErrorCount++
		} else {
			rep.Summary.WarningCount++
		}
	}
	rep.IsValid = rep.Summary.ErrorCount == 0
	return rep
}

// checkRevenue: sum of per-vehicle gross must equal the document's combined
// gross within tolerance.
func checkRevenue(bag *extract.FieldBag, settlements []settlement.VehicleSettlement, tol decimal.Decimal) []Finding {
	if bag.GrossRevenue == nil {
		return nil
	}
	sum := decimal.Zero
	for i := range settlements {
		sum = sum.Add(settlements[i].GrossRevenue)
	}
	if diff := sum.Sub(*bag.GrossRevenue).Abs(); diff.GreaterThan(tol) {
		return []Finding{{
			Severity: SeverityError,
			Rule:     RuleRevenueReconciliation,
			Message:  fmt.Sprintf("sum of vehicle gross revenue (%s) != combined gross revenue (%s)", sum, bag.GrossRevenue),
		}}
	}
	return nil
}

// checkExpenses: sum of per-vehicle expense totals must equal the combined
// extracted expenses within tolerance.
func checkExpenses(bag *extract.FieldBag, settlements []settlement.VehicleSettlement, tol decimal.Decimal) []Finding {
	if len(bag.Expenses) == 0 {
		return nil
	}
	combined := bag.TotalExpenses()
	sum := decimal.Zero
	for i := range settlements {
		sum = sum.Add(settlements[i].TotalExpenses)
	}
	if diff := sum.Sub(combined).Abs(); diff.GreaterThan(tol) {
		return []Finding{{
			Severity: SeverityError,
			Rule:     RuleExpenseReconciliation,
			Message:  fmt.Sprintf("sum of vehicle expenses (%s) != combined expenses (%s)", sum, combined),
		}}
	}
	return nil
}

// checkBlockCoverage: every block row needs an assigned vehicle. Unassigned
// rows were already excluded from allocation; here they become warnings.
func checkBlockCoverage(bag *extract.FieldBag) []Finding {
	var findings []Finding
	for _, row := range bag.Blocks {
		if row.Plate == "" {
			findings = append(findings, Finding{
				Severity: SeverityWarning,
				Rule:     RuleUnassignedBlock,
				Message:  fmt.Sprintf("block %s has no vehicle identifier and was excluded from allocation", row.ID),
			})
		}
	}
	return findings
}

// checkNetProfit: net == gross - expenses per vehicle. A violation signals
// an allocation or extraction bug, so it is an error.
func checkNetProfit(settlements []settlement.VehicleSettlement, tol decimal.Decimal) []Finding {
	var findings []Finding
	for i := range settlements {
		s := &settlements[i]
		expected := s.GrossRevenue.Sub(s.TotalExpenses)
		if diff := s.NetProfit.Sub(expected).Abs(); diff.GreaterThan(tol) {
			vehicle := s.VehicleID
			findings = append(findings, Finding{
				Severity: SeverityError,
				Rule:     RuleNetProfitIdentity,
				Message:  fmt.Sprintf("net profit %s != gross %s - expenses %s", s.NetProfit, s.GrossRevenue, s.TotalExpenses),
				Vehicle:  &vehicle,
			})
		}
	}
	return findings
}

// checkActivity: zero blocks with non-zero fuel or driver pay is an
// inconsistent activity signal, not necessarily wrong.
func checkActivity(settlements []settlement.VehicleSettlement) []Finding {
	var findings []Finding
	for i := range settlements {
		s := &settlements[i]
		if s.BlocksDelivered == nil || *s.BlocksDelivered != 0 {
			continue
		}
		fuel := s.Categories[settlement.CategoryFuel]
		driverPay := s.Categories[settlement.CategoryDriverPay]
		if !fuel.IsZero() || !driverPay.IsZero() {
			vehicle := s.VehicleID
			findings = append(findings, Finding{
				Severity: SeverityWarning,
				Rule:     RuleActivitySignal,
				Message:  fmt.Sprintf("vehicle has zero blocks but fuel %s and driver pay %s", fuel, driverPay),
				Vehicle:  &vehicle,
			})
		}
	}
	return findings
}
