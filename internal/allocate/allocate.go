// Package allocate turns one extracted field bag into per-vehicle settlement
// drafts. Single-vehicle documents repackage combined totals directly;
// multi-vehicle documents disaggregate commingled totals with category
// specific split rules whose rounded shares always sum back to the combined
// figure.
package allocate

import (
	"sort"

	"github.com/shopspring/decimal"

	"fleetsettle/internal/config"
	"fleetsettle/internal/extract"
	"fleetsettle/internal/settlement"
)

// Single builds the one settlement a single-vehicle document describes. The
// bag's combined totals are the vehicle's totals; only net profit is
// recomputed so the profit identity holds by construction.
func Single(bag *extract.FieldBag) settlement.VehicleSettlement {
	s := newDraft(bag, bag.Plates[0])
	if bag.GrossRevenue != nil {
		s.GrossRevenue = *bag.GrossRevenue
	}
	s.Categories = make(map[string]decimal.Decimal, len(bag.Expenses))
	for k, v := range bag.Expenses {
		s.Categories[k] = v
	}
	s.TotalExpenses = settlement.SumCategories(s.Categories)
	s.NetProfit = s.GrossRevenue.Sub(s.TotalExpenses)
	s.MilesDriven = bag.MilesDriven
	s.BlocksDelivered = bag.BlocksDelivered
	return s
}

// Allocate splits a multi-vehicle bag across its vehicles. Shared categories
// split evenly, activity categories by each vehicle's share of delivery
// blocks, revenue categories by gross revenue share. Gross revenue itself
// comes from the block rows assigned to each vehicle; when rows carry no
// amounts the combined gross is split by block count instead. Rows without a
// vehicle identifier are excluded here and reported by the validator.
func Allocate(bag *extract.FieldBag, rules config.Rules) []settlement.VehicleSettlement {
	vehicles := bag.Plates
	n := len(vehicles)

	index := make(map[string]int, n)
	for i, v := range vehicles {
		index[v] = i
	}

	blockCounts := make([]decimal.Decimal, n)
	rowRevenue := make([]decimal.Decimal, n)
	itemized := false
	for _, row := range bag.Blocks {
		i, ok := index[row.Plate]
		if !ok {
			continue
		}
		blockCounts[i] = blockCounts[i].Add(decimal.New(1, 0))
		rowRevenue[i] = rowRevenue[i].Add(row.Revenue)
		if row.Revenue.IsPositive() {
			itemized = true
		}
	}

	gross := rowRevenue
	if !itemized && bag.GrossRevenue != nil {
		gross = split(*bag.GrossRevenue, blockCounts)
	}

	categories := make([]map[string]decimal.Decimal, n)
	for i := range categories {
		categories[i] = make(map[string]decimal.Decimal)
	}
	for _, name := range sortedCategories(bag.Expenses) {
		var weights []decimal.Decimal
		switch rules.Classify(name) {
		case config.ClassActivity:
			weights = blockCounts
		case config.ClassRevenue:
			weights = gross
		default:
			weights = nil // even
		}
		shares := splitWeighted(bag.Expenses[name], weights, n)
		for i, share := range shares {
			categories[i][name] = share
		}
	}

	out := make([]settlement.VehicleSettlement, 0, n)
	for i, vehicle := range vehicles {
		s := newDraft(bag, vehicle)
		s.GrossRevenue = gross[i]
		s.Categories = categories[i]
		s.TotalExpenses = settlement.SumCategories(s.Categories)
		s.NetProfit = s.GrossRevenue.Sub(s.TotalExpenses)
		blocks := int(blockCounts[i].IntPart())
		s.BlocksDelivered = &blocks
		out = append(out, s)
	}
	return out
}

func newDraft(bag *extract.FieldBag, vehicle string) settlement.VehicleSettlement {
	s := settlement.VehicleSettlement{
		VehicleID:   vehicle,
		PeriodStart: bag.WeekStart,
		PeriodEnd:   bag.WeekEnd,
		DriverName:  bag.DriverName,
		SourceFile:  bag.DocID,
		LayoutKind:  bag.Layout,
	}
	if bag.SettlementDate != nil {
		s.SettlementDate = *bag.SettlementDate
	}
	return s
}

// split divides total by weight, rounding each share to cents and folding
// the residual into the last share so the shares sum back exactly. A zero
// weight vector degenerates to an even split.
func split(total decimal.Decimal, weights []decimal.Decimal) []decimal.Decimal {
	return splitWeighted(total, weights, len(weights))
}

func splitWeighted(total decimal.Decimal, weights []decimal.Decimal, n int) []decimal.Decimal {
	shares := make([]decimal.Decimal, n)
	if n == 0 {
		return shares
	}

	sum := decimal.Zero
	for _, w := range weights {
		sum = sum.Add(w)
	}
	if len(weights) != n || sum.IsZero() {
		weights = make([]decimal.Decimal, n)
		for i := range weights {
			weights[i] = decimal.New(1, 0)
		}
		sum = decimal.New(int64(n), 0)
	}

	running := decimal.Zero
	for i := 0; i < n-1; i++ {
		shares[i] = total.Mul(weights[i]).Div(sum).Round(2)
		running = running.Add(shares[i])
	}
	shares[n-1] = total.Sub(running)
	return shares
}

func sortedCategories(m map[string]decimal.Decimal) []string {
	names := make([]string, 0, len(m))
	for k := range m {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}
