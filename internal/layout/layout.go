package layout

import "strings"

// Kind identifies one of the known settlement statement layouts.
type Kind string

const (
	// LayoutA is the relay paystub: "Pay Period:", "Gross Pay", block rows.
	LayoutA Kind = "relay_paystub"
	// LayoutB is the owner-operator income sheet with parenthesized amounts.
	LayoutB Kind = "income_sheet"
	// LayoutC is a carrier statement identified by a vendor header. It uses
	// the paystub field grammar but commonly commingles several vehicles.
	LayoutC Kind = "carrier_statement"
	// Unknown means no structural signature matched.
	Unknown Kind = "unknown"
)

func (k Kind) String() string { return string(k) }

// signature is one structural marker tested against the uppercased text.
// Any of the phrases matching claims the layout.
type signature struct {
	kind    Kind
	phrases []string
}

// Ordered list, first match wins. Vendor headers are checked before generic
// sheet titles because carrier statements also print paystub-style headers.
var signatures = []signature{
	{LayoutC, []string{"NBM TRANSPORT", "277 LOGISTICS"}},
	{LayoutB, []string{"OWNER OPERATOR INCOME SHEET", "INCOME SHEET"}},
	{LayoutA, []string{"PAY PERIOD:", "GROSS PAY"}},
}

// Detect classifies raw text into a layout Kind. It has no side effects and
// returns Unknown when no signature matches.
func Detect(text string) Kind {
	upper := strings.ToUpper(text)
	for _, sig := range signatures {
		for _, phrase := range sig.phrases {
			if strings.Contains(upper, phrase) {
				return sig.kind
			}
		}
	}
	return Unknown
}

// FromHint maps a caller-supplied hint string to a Kind. Hints are only
// consulted when Detect returns Unknown. Legacy vendor names from upstream
// systems are accepted alongside the canonical identifiers.
func FromHint(hint string) Kind {
	switch strings.ToUpper(strings.TrimSpace(hint)) {
	case "RELAY_PAYSTUB", "PAYSTUB":
		return LayoutA
	case "INCOME_SHEET", "OWNER OPERATOR INCOME SHEET":
		return LayoutB
	case "CARRIER_STATEMENT", "NBM TRANSPORT LLC", "277 LOGISTICS":
		return LayoutC
	}
	return Unknown
}
