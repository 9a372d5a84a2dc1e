package extract

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"fleetsettle/internal/layout"
	"fleetsettle/internal/settlement"
)

// Options tunes extraction. Rates and whitelists come from configuration so
// tests can vary them; zero value is not usable, start from DefaultOptions.
type Options struct {
	// PayrollFeeRate decomposes driver pay printed gross of the payroll fee:
	// base = gross / (1 + rate), fee = gross - base.
	PayrollFeeRate decimal.Decimal
	// PlateWhitelist restricts vehicle identifiers to known fleet plates.
	PlateWhitelist []string
}

func DefaultOptions() Options {
	return Options{PayrollFeeRate: decimal.NewFromFloat(0.065)}
}

// Run applies the layout's rule table to raw text and returns the typed
// field bag. It fails with *ExtractionError when the settlement date or a
// vehicle identifier cannot be found; everything else is left absent for the
// validator to judge.
func Run(docID string, kind layout.Kind, text string, opts Options) (*FieldBag, error) {
	bag := &FieldBag{
		DocID:    docID,
		Layout:   kind,
		Expenses: make(map[string]decimal.Decimal),
	}

	var driverPayGross *decimal.Decimal
	switch kind {
	case layout.LayoutB:
		driverPayGross = extractIncomeSheet(bag, text)
	case layout.LayoutA, layout.LayoutC:
		driverPayGross = extractPaystub(bag, text)
	default:
		return nil, &ExtractionError{Doc: docID, Layout: kind, Field: "layout"}
	}

	if bag.SettlementDate == nil {
		return nil, &ExtractionError{Doc: docID, Layout: kind, Field: "settlement_date"}
	}

	bag.Plates = layout.Vehicles(text, opts.PlateWhitelist)
	if len(bag.Plates) == 0 {
		if p := fallbackPlate(kind, text); p != "" {
			bag.Plates = []string{p}
		}
	}
	if len(bag.Plates) == 0 {
		return nil, &ExtractionError{Doc: docID, Layout: kind, Field: "vehicle_identifier"}
	}

	decomposeDriverPay(bag, driverPayGross, opts.PayrollFeeRate)

	// Statements that only print gross and net leave the whole difference as
	// a custom adjustment, so totals still reconcile downstream.
	if len(bag.Expenses) == 0 && bag.GrossRevenue != nil && bag.NetProfit != nil {
		bag.Expenses[settlement.CategoryCustom] = bag.GrossRevenue.Sub(*bag.NetProfit)
	}

	return bag, nil
}

func extractPaystub(bag *FieldBag, text string) *decimal.Decimal {
	if m := payPeriodRe.FindStringSubmatch(text); m != nil {
		if d, err := parseUSDate(m[1]); err == nil {
			bag.SettlementDate = &d
			bag.WeekEnd = &d
		}
	}
	if m := grossPayRe.FindStringSubmatch(text); m != nil {
		if v, err := parseMoney(m[1]); err == nil {
			bag.GrossRevenue = &v
		}
	}
	if m := netPayRe.FindStringSubmatch(text); m != nil {
		if v, err := parseMoney(m[1]); err == nil {
			bag.NetProfit = &v
		}
	}
	if m := driverNameRe.FindStringSubmatch(text); m != nil {
		bag.DriverName = strings.TrimSpace(m[1])
	}

	driverPayGross := applyExpenseRules(bag, paystubExpenseRules, text)

	parseBlockRows(bag, text)
	if n := countDistinctBlocks(text); n > 0 {
		bag.BlocksDelivered = &n
	}

	// Week start is the earliest load date not after the settlement date.
	if bag.WeekStart == nil && bag.SettlementDate != nil {
		var earliest *time.Time
		for _, dm := range anyDateRe.FindAllStringSubmatch(text, -1) {
			d, err := parseUSDate(dm[1])
			if err != nil || d.After(*bag.SettlementDate) {
				continue
			}
			if earliest == nil || d.Before(*earliest) {
				earliest = &d
			}
		}
		bag.WeekStart = earliest
	}
	return driverPayGross
}

func extractIncomeSheet(bag *FieldBag, text string) *decimal.Decimal {
	if m := datePeriodRe.FindStringSubmatch(text); m != nil {
		start, errS := parseUSDate(m[1] + "/" + m[3])
		end, errE := parseUSDate(m[2] + "/" + m[3])
		if errS == nil && errE == nil {
			bag.WeekStart = &start
			bag.WeekEnd = &end
			bag.SettlementDate = &end
		}
	}
	if m := summaryGrossRe.FindStringSubmatch(text); m != nil {
		if v, err := parseMoney(m[1]); err == nil {
			bag.GrossRevenue = &v
		}
	} else if m := summaryGrossFallbackRe.FindStringSubmatch(text); m != nil {
		if v, err := parseMoney(m[1]); err == nil {
			bag.GrossRevenue = &v
		}
	}
	if m := paidToDriverRe.FindStringSubmatch(text); m != nil {
		if v, err := parseMoney(m[1]); err == nil {
			bag.NetProfit = &v
		}
	} else if m := paidToDriverFallbackRe.FindStringSubmatch(text); m != nil {
		if v, err := parseMoney(m[1]); err == nil {
			bag.NetProfit = &v
		}
	}

	// Line-scoped scan: income sheets repeat keywords across summary and
	// detail zones, so a whole-text match would double count.
	var driverPayGross *decimal.Decimal
	for _, line := range strings.Split(text, "\n") {
		for _, rule := range incomeSheetExpenseRules {
			m := rule.re.FindStringSubmatch(line)
			if m == nil {
				continue
			}
			if g := applyTargets(bag, rule.targets, m); g != nil {
				driverPayGross = g
			}
			break
		}
	}

	if m := activityRowStopsRe.FindStringSubmatch(text); m != nil {
		if n, err := parseInt(m[3]); err == nil {
			bag.BlocksDelivered = &n
		}
	} else if m := stopsRe.FindStringSubmatch(text); m != nil {
		if n, err := parseInt(m[1]); err == nil {
			bag.BlocksDelivered = &n
		}
	}
	if m := activityRowMilesRe.FindStringSubmatch(text); m != nil {
		if v, err := decimal.NewFromString(m[1]); err == nil {
			bag.MilesDriven = &v
		}
	} else if m := loadMilesRe.FindStringSubmatch(text); m != nil {
		if v, err := parseMoney(m[1]); err == nil {
			bag.MilesDriven = &v
		}
	}
	return driverPayGross
}

// applyExpenseRules scans the whole text with each rule, keeping the first
// hit per category.
func applyExpenseRules(bag *FieldBag, rules []expenseRule, text string) *decimal.Decimal {
	var driverPayGross *decimal.Decimal
	for _, rule := range rules {
		m := rule.re.FindStringSubmatch(text)
		if m == nil {
			continue
		}
		if g := applyTargets(bag, rule.targets, m); g != nil {
			driverPayGross = g
		}
	}
	return driverPayGross
}

func applyTargets(bag *FieldBag, targets []ruleTarget, m []string) *decimal.Decimal {
	var driverPayGross *decimal.Decimal
	for _, t := range targets {
		if _, done := bag.Expenses[t.category]; done {
			continue
		}
		v, err := parseMoney(m[t.group])
		if err != nil {
			continue
		}
		if t.grossOfFee {
			if driverPayGross == nil {
				driverPayGross = &v
			}
			continue
		}
		bag.Expenses[t.category] = v
	}
	return driverPayGross
}

// decomposeDriverPay splits a gross driver-pay amount into base pay and
// payroll fee. When the statement printed the fee, the base is the
// difference; otherwise the configured rate is assumed and the cent residual
// stays in the fee so base + fee equals the printed amount exactly.
func decomposeDriverPay(bag *FieldBag, gross *decimal.Decimal, rate decimal.Decimal) {
	if gross == nil {
		return
	}
	if _, done := bag.Expenses[settlement.CategoryDriverPay]; done {
		return
	}
	if fee, ok := bag.Expenses[settlement.CategoryPayrollFee]; ok && fee.IsPositive() {
		bag.Expenses[settlement.CategoryDriverPay] = gross.Sub(fee)
		return
	}
	base := gross.Div(decimal.New(1, 0).Add(rate)).Round(2)
	bag.Expenses[settlement.CategoryDriverPay] = base
	bag.Expenses[settlement.CategoryPayrollFee] = gross.Sub(base)
}

// parseBlockRows reads delivery line items. Row grammar: block id, optional
// driver name, plate, then pay / driver-pay / fuel amounts. A row without a
// recognizable plate keeps an empty Plate and is reported by the validator.
func parseBlockRows(bag *FieldBag, text string) {
	for _, m := range blockRowRe.FindAllStringSubmatch(text, -1) {
		row := BlockRow{ID: m[1]}
		rest := m[2]
		for _, pm := range rowPlateRe.FindAllStringSubmatch(rest, -1) {
			if layout.ValidPlate(pm[1]) {
				row.Plate = strings.ToUpper(pm[1])
				break
			}
		}
		amounts := rowAmountRe.FindAllStringSubmatch(rest, -1)
		for i, am := range amounts {
			v, err := parseMoney(am[1])
			if err != nil {
				continue
			}
			switch i {
			case 0:
				row.Revenue = v
			case 1:
				row.DriverPay = v
			case 2:
				row.Fuel = v
			}
		}
		bag.Blocks = append(bag.Blocks, row)
	}
}

// countDistinctBlocks counts unique block identifier tokens. Some layouts
// never print an explicit total, and repeated mentions of the same block
// must not inflate the count.
func countDistinctBlocks(text string) int {
	seen := make(map[string]bool)
	for _, tok := range blockTokenRe.FindAllString(text, -1) {
		seen[strings.ToUpper(tok)] = true
	}
	return len(seen)
}

// fallbackPlate recovers a single vehicle identifier when the multi-vehicle
// scan found nothing, e.g. income sheets that only print a truck number.
func fallbackPlate(kind layout.Kind, text string) string {
	if kind == layout.LayoutB {
		if m := truckNumberRe.FindStringSubmatch(text); m != nil {
			if pm := anyPlateRe.FindStringSubmatch(text); pm != nil {
				return strings.ToUpper(pm[1])
			}
			return "#" + m[1]
		}
		if m := plateComboRe.FindStringSubmatch(text); m != nil {
			return strings.ToUpper(m[1])
		}
		if m := anyPlateRe.FindStringSubmatch(text); m != nil {
			return strings.ToUpper(m[1])
		}
		return ""
	}
	if m := plateHeaderLineRe.FindStringSubmatch(text); m != nil {
		plates := anyPlateRe.FindAllStringSubmatch(m[1], -1)
		if len(plates) > 0 {
			return strings.ToUpper(plates[len(plates)-1][1])
		}
		fallbacks := fallbackPlateRe.FindAllStringSubmatch(m[1], -1)
		if len(fallbacks) > 0 {
			return strings.ToUpper(fallbacks[len(fallbacks)-1][1])
		}
	}
	return ""
}
