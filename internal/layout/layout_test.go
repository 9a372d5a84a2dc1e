package layout

import "testing"

func TestDetect(t *testing.T) {
	tests := []struct {
		name string
		text string
		want Kind
	}{
		{"paystub", "Pay Period: 12/29/2024 - 1/4/2025\nGross Pay $5,962.32", LayoutA},
		{"paystub gross pay only", "GROSS PAY $100.00", LayoutA},
		{"income sheet", "OWNER OPERATOR INCOME SHEET\nDate Period : 12/23-12/29/2024", LayoutB},
		{"carrier statement", "NBM TRANSPORT LLC\nPay Period: 12/29/2024", LayoutC},
		{"second vendor", "277 LOGISTICS\nGross Pay $2,000.00", LayoutC},
		{"vendor wins over paystub markers", "NBM TRANSPORT\nPAY PERIOD: 1/5/2025\nGROSS PAY $1.00", LayoutC},
		{"no signature", "INVOICE #442\nAmount Due $120.00", Unknown},
		{"empty", "", Unknown},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Detect(tt.text); got != tt.want {
				t.Errorf("Detect() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestFromHint(t *testing.T) {
	tests := []struct {
		hint string
		want Kind
	}{
		{"relay_paystub", LayoutA},
		{"PAYSTUB", LayoutA},
		{"income_sheet", LayoutB},
		{"  carrier_statement ", LayoutC},
		{"NBM Transport LLC", LayoutC},
		{"something else", Unknown},
		{"", Unknown},
	}
	for _, tt := range tests {
		t.Run(tt.hint, func(t *testing.T) {
			if got := FromHint(tt.hint); got != tt.want {
				t.Errorf("FromHint(%q) = %q, want %q", tt.hint, got, tt.want)
			}
		})
	}
}
