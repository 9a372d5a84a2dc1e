package extract

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Type coercion for captured field text. Money always goes through
// fixed-precision decimals; binary floats drift at cent level.

// parseMoney parses an amount string as printed on statements: optional
// dollar sign, thousands commas, optionally wrapped in parentheses
// ("($ 2,119.07)" prints a positive amount on income sheets).
func parseMoney(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	s = strings.Trim(s, "()")
	s = strings.ReplaceAll(s, "$", "")
	s = strings.ReplaceAll(s, ",", "")
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, fmt.Errorf("empty amount")
	}
	return decimal.NewFromString(s)
}

// parseUSDate parses M/D/YYYY dates.
func parseUSDate(s string) (time.Time, error) {
	return time.Parse("1/2/2006", strings.TrimSpace(s))
}

func parseInt(s string) (int, error) {
	return strconv.Atoi(strings.TrimSpace(s))
}
