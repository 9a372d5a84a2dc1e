package config

import (
	"fmt"
	"os"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"fleetsettle/internal/settlement"
)

// Rules is the domain rule set consumed by the allocator and validator:
// which expense categories are fixed per period, which scale with activity
// or revenue, the reconciliation tolerance, and the fleet plate whitelist.
// It is a plain value so tests can construct variants directly.
type Rules struct {
	// Tolerance is the maximum dollar drift allowed by reconciliation
	// checks, as a decimal string ("0.01").
	Tolerance string `yaml:"tolerance"`

	// PayrollFeeRate decomposes driver pay printed gross of its fee.
	PayrollFeeRate string `yaml:"payroll_fee_rate"`

	// Category classes. Categories in none of the lists split evenly, like
	// shared ones: custom adjustments are period-level, not activity-scaled.
	SharedCategories               []string `yaml:"shared_categories"`
	ActivityProportionalCategories []string `yaml:"activity_proportional_categories"`
	RevenueProportionalCategories  []string `yaml:"revenue_proportional_categories"`

	// ValidPlates, when non-empty, restricts vehicle detection to the fleet.
	ValidPlates []string `yaml:"valid_plates"`
}

// DefaultRules returns the rule set observed on production statements.
func DefaultRules() Rules {
	return Rules{
		Tolerance:      "0.01",
		PayrollFeeRate: "0.065",
		SharedCategories: []string{
			settlement.CategoryInsurance,
			settlement.CategorySafety,
			settlement.CategoryPrepass,
			settlement.CategoryIFTA,
		},
		ActivityProportionalCategories: []string{
			settlement.CategoryFuel,
			settlement.CategoryDriverPay,
			settlement.CategoryPayrollFee,
			settlement.CategoryTruckParking,
			settlement.CategoryServiceOnTruck,
		},
		RevenueProportionalCategories: []string{
			settlement.CategoryDispatchFee,
		},
	}
}

// LoadRules reads a YAML rules file over the defaults. Missing keys keep
// their default values.
func LoadRules(path string) (Rules, error) {
	rules := DefaultRules()
	data, err := os.ReadFile(path)
	if err != nil {
		return rules, fmt.Errorf("read rules file: %w", err)
	}
	if err := yaml.Unmarshal(data, &rules); err != nil {
		return rules, fmt.Errorf("parse rules file: %w", err)
	}
	if _, err := decimal.NewFromString(rules.Tolerance); err != nil {
		return rules, fmt.Errorf("invalid tolerance %q: %w", rules.Tolerance, err)
	}
	if _, err := decimal.NewFromString(rules.PayrollFeeRate); err != nil {
		return rules, fmt.Errorf("invalid payroll_fee_rate %q: %w", rules.PayrollFeeRate, err)
	}
	return rules, nil
}

// ToleranceAmount returns the tolerance as a decimal, falling back to one
// cent if unset.
func (r Rules) ToleranceAmount() decimal.Decimal {
	d, err := decimal.NewFromString(r.Tolerance)
	if err != nil {
		return decimal.New(1, -2)
	}
	return d
}

// FeeRate returns the payroll fee rate as a decimal.
func (r Rules) FeeRate() decimal.Decimal {
	d, err := decimal.NewFromString(r.PayrollFeeRate)
	if err != nil {
		return decimal.NewFromFloat(0.065)
	}
	return d
}

// CategoryClass classifies an expense category for allocation.
type CategoryClass int

const (
	ClassShared CategoryClass = iota
	ClassActivity
	ClassRevenue
)

// Classify returns the allocation class for a category name.
func (r Rules) Classify(category string) CategoryClass {
	for _, c := range r.ActivityProportionalCategories {
		if c == category {
			return ClassActivity
		}
	}
	for _, c := range r.RevenueProportionalCategories {
		if c == category {
			return ClassRevenue
		}
	}
	return ClassShared
}
