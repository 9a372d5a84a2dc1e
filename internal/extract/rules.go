package extract

import (
	"regexp"

	"fleetsettle/internal/settlement"
)

// Extraction is driven by ordered rule tables per layout: each rule binds a
// text pattern to a target field or expense category plus a coercion. New
// layouts add a table; they never touch the runner.

// ruleTarget binds one capture group of a pattern to an expense category.
// grossOfFee marks amounts printed gross of the payroll fee, which are
// decomposed after the table scan.
type ruleTarget struct {
	group      int
	category   string
	grossOfFee bool
}

type expenseRule struct {
	re      *regexp.Regexp
	targets []ruleTarget
}

// Paystub grammar (LayoutA and LayoutC): "Expense Name $X,XXX.XX" anywhere
// in the text. Order matters: "Payroll Fee" must precede bare "Payroll".
var paystubExpenseRules = []expenseRule{
	{regexp.MustCompile(`(?i)Fuel\s+\$?([\d,]+\.?\d*)`), []ruleTarget{{1, settlement.CategoryFuel, false}}},
	{regexp.MustCompile(`(?i)IFTA\s+\$?([\d,]+\.?\d*)`), []ruleTarget{{1, settlement.CategoryIFTA, false}}},
	{regexp.MustCompile(`(?i)Dispatch Fee\s+\$?([\d,]+\.?\d*)`), []ruleTarget{{1, settlement.CategoryDispatchFee, false}}},
	{regexp.MustCompile(`(?i)Safety\s+\$?([\d,]+\.?\d*)`), []ruleTarget{{1, settlement.CategorySafety, false}}},
	{regexp.MustCompile(`(?i)Prepass\s+\$?([\d,]+\.?\d*)`), []ruleTarget{{1, settlement.CategoryPrepass, false}}},
	{regexp.MustCompile(`(?i)Insurance\s+\$?([\d,]+\.?\d*)`), []ruleTarget{{1, settlement.CategoryInsurance, false}}},
	{regexp.MustCompile(`(?i)Driver's Pay\s+\$?([\d,]+\.?\d*)`), []ruleTarget{{1, settlement.CategoryDriverPay, true}}},
	{regexp.MustCompile(`(?i)Driver's Pay Fee\s+\$?([\d,]+\.?\d*)`), []ruleTarget{{1, settlement.CategoryDriverPay, true}}},
	{regexp.MustCompile(`(?i)Payroll Fee\s+\$?([\d,]+\.?\d*)`), []ruleTarget{{1, settlement.CategoryPayrollFee, false}}},
	{regexp.MustCompile(`(?i)Payroll\s+\$?([\d,]+\.?\d*)`), []ruleTarget{{1, settlement.CategoryPayrollFee, false}}},
	{regexp.MustCompile(`(?i)Service on Truck\s+\$?([\d,]+\.?\d*)`), []ruleTarget{{1, settlement.CategoryServiceOnTruck, false}}},
	{regexp.MustCompile(`(?i)Truck Parking\s+\$?([\d,]+\.?\d*)`), []ruleTarget{{1, settlement.CategoryTruckParking, false}}},
	{regexp.MustCompile(`(?i)Deductions\s+\$?([\d,]+\.?\d*)`), []ruleTarget{{1, settlement.CategoryCustom, false}}},
}

// Income-sheet grammar (LayoutB): amounts parenthesized, matched line by line
// to avoid cross-line false positives. The "DISPATCH FEE X% ($a) ($b)" line
// prints the dispatch fee first and the payroll fee second; a bare
// "DISPATCH FEE ($x)" line is actually the payroll fee on these sheets.
var incomeSheetExpenseRules = []expenseRule{
	{regexp.MustCompile(`(?i)^DISPATCH[^\n]*FEE[^\n]*%\s*\(\$\s*([\d,]+\.?\d*)\)[^\n]*\(\$\s*([\d,]+\.?\d*)\)`), []ruleTarget{
		{1, settlement.CategoryDispatchFee, false},
		{2, settlement.CategoryPayrollFee, false},
	}},
	{regexp.MustCompile(`(?i)^DISPATCH[^\n]*FEE[^\n]*\(\$\s*([\d,]+\.?\d*)\)`), []ruleTarget{{1, settlement.CategoryPayrollFee, false}}},
	{regexp.MustCompile(`(?i)^FUEL[^\n]*\(\$\s*([\d,]+\.?\d*)\)`), []ruleTarget{{1, settlement.CategoryFuel, false}}},
	{regexp.MustCompile(`(?i)IFTA[^\n]*\(\$\s*([\d,]+\.?\d*)\)`), []ruleTarget{{1, settlement.CategoryIFTA, false}}},
	{regexp.MustCompile(`(?i)SAFETY[^\n]*\(\$\s*([\d,]+\.?\d*)\)`), []ruleTarget{{1, settlement.CategorySafety, false}}},
	{regexp.MustCompile(`(?i)PREPASS[^\n]*\(\$\s*([\d,]+\.?\d*)\)`), []ruleTarget{{1, settlement.CategoryPrepass, false}}},
	{regexp.MustCompile(`(?i)INSURANCE[^\n]*\(\$\s*([\d,]+\.?\d*)\)`), []ruleTarget{{1, settlement.CategoryInsurance, false}}},
	{regexp.MustCompile(`(?i)DRIVER'S PAY[^\n]*\(\$\s*([\d,]+\.?\d*)\)`), []ruleTarget{{1, settlement.CategoryDriverPay, true}}},
	{regexp.MustCompile(`(?i)PAYROLL[^\n]*FEE[^\n]*\(\$\s*([\d,]+\.?\d*)\)`), []ruleTarget{{1, settlement.CategoryPayrollFee, false}}},
	{regexp.MustCompile(`(?i)SERVICE ON THE TRUCK[^\n]*\(\$\s*([\d,]+\.?\d*)\)`), []ruleTarget{{1, settlement.CategoryServiceOnTruck, false}}},
	{regexp.MustCompile(`(?i)TRUCK PARKING[^\n]*\(\$\s*([\d,]+\.?\d*)\)`), []ruleTarget{{1, settlement.CategoryTruckParking, false}}},
}

// Summary and date patterns.
var (
	payPeriodRe  = regexp.MustCompile(`(?i)Pay Period:\s*(\d{1,2}/\d{1,2}/\d{4})`)
	datePeriodRe = regexp.MustCompile(`(?i)Date Period\s*:\s*(\d{1,2}/\d{1,2})-(\d{1,2}/\d{1,2})/(\d{4})`)
	anyDateRe    = regexp.MustCompile(`(\d{1,2}/\d{1,2}/\d{4})`)

	grossPayRe             = regexp.MustCompile(`(?i)Gross Pay\s+\$?([\d,]+\.?\d*)`)
	netPayRe               = regexp.MustCompile(`(?i)Net Pay\s+\$?([\d,]+\.?\d*)`)
	summaryGrossRe         = regexp.MustCompile(`(?i)SUMMARY GROSS[^\n]*?\(\$\s*([\d,]+\.?\d*)\)`)
	summaryGrossFallbackRe = regexp.MustCompile(`(?i)SUMMARY GROSS[^\n]*\$\s*([\d,]+\.?\d*)`)
	paidToDriverRe         = regexp.MustCompile(`(?i)PAID TO DRIVER[^\n]*\(\$\s*([\d,]+\.?\d*)\)`)
	paidToDriverFallbackRe = regexp.MustCompile(`(?i)PAID TO DRIVER[^\n]*\$\s*([\d,]+\.?\d*)`)

	driverNameRe = regexp.MustCompile(`(?im)^Driver(?: Name)?:\s*([A-Za-z][A-Za-z .,'-]+)$`)

	// Block line items: "B-3X7K2 Vereen VW9327 512.00 120.00 85.50".
	blockRowRe   = regexp.MustCompile(`(?im)^\s*(B-[A-Z0-9]+)\b([^\n]*)$`)
	blockTokenRe = regexp.MustCompile(`\bB-[A-Z0-9]+\b`)
	rowAmountRe  = regexp.MustCompile(`\(?\$?\s*([\d,]+\.\d{2})\)?`)
	rowPlateRe   = regexp.MustCompile(`\b([A-Z]{2,3}\d{3,6})\b`)

	// Income-sheet activity table row:
	// "12/27-12/29/2024 TFC9-CLT2 CLT5 7 795.0 ($ 2,119.07)".
	activityRowStopsRe = regexp.MustCompile(`(?i)\d{1,2}/\d{1,2}-\d{1,2}/\d{1,2}/\d{4}[^\n]*?([A-Z0-9-]+)\s+([A-Z0-9]+)\s+(\d+)`)
	activityRowMilesRe = regexp.MustCompile(`(?i)\d{1,2}/\d{1,2}-\d{1,2}/\d{1,2}/\d{4}[^\n]*?\s+(\d+\.?\d*)\s+\(\$`)
	stopsRe            = regexp.MustCompile(`(?i)STOPS\s+(\d+)`)
	loadMilesRe        = regexp.MustCompile(`(?i)LOAD MILES\s+([\d,]+\.?\d*)`)

	plateHeaderLineRe = regexp.MustCompile(`(?i)Plate#:\s*([^\n]+)`)
	truckNumberRe     = regexp.MustCompile(`(?i)TRUCK#\s*:\s*(\d+)`)
	plateComboRe      = regexp.MustCompile(`\b([A-Z]{1,3}\d{3,6})\s*#(\d+)`)
	anyPlateRe        = regexp.MustCompile(`\b([A-Z]{1,3}\d{3,6})\b`)
	fallbackPlateRe   = regexp.MustCompile(`\b([A-Z0-9]{4,8})\b`)
)
