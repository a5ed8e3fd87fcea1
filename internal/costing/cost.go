package costing

import "github.com/shopspring/decimal"

// Costs are derived on demand and never stored.
type Costs struct {
	ItemCost  decimal.Decimal
	LaborCost decimal.Decimal
	TotalCost decimal.Decimal
}

// CostedLineItem pairs a validated line with its derived costs.
type CostedLineItem struct {
	LineItem
	Costs
}

// WorkOrderCostRollup sums the costs of every line on a work order.
type WorkOrderCostRollup struct {
	TotalItemCost  decimal.Decimal
	TotalLaborCost decimal.Decimal
	TotalCost      decimal.Decimal
}

// Cost computes the cost components of a validated line.
func Cost(item LineItem) Costs {
	c := Costs{ItemCost: decimal.Zero, LaborCost: decimal.Zero}
	switch p := item.Payload.(type) {
	case PartsPayload:
		c.ItemCost = partsCost(p)
	case LaborPayload:
		c.LaborCost = laborCost(p)
	case BothPayload:
		c.ItemCost = partsCost(p.PartsPayload)
		c.LaborCost = laborCost(p.LaborPayload)
	}
	c.TotalCost = c.ItemCost.Add(c.LaborCost)
	return c
}

func partsCost(p PartsPayload) decimal.Decimal {
	return p.UnitPrice.Mul(decimal.NewFromInt(int64(p.Quantity)))
}

func laborCost(p LaborPayload) decimal.Decimal {
	return p.HourlyRate.Mul(p.LaborHours)
}

// ValidateAndCost validates a draft and, when it passes, prices it.
func ValidateAndCost(d Draft) (CostedLineItem, error) {
	item, err := Validate(d)
	if err != nil {
		return CostedLineItem{}, err
	}
	return CostedLineItem{LineItem: item, Costs: Cost(item)}, nil
}

// Rollup recomputes each line's costs and sums them. An empty slice rolls up to zero.
func Rollup(items []LineItem) WorkOrderCostRollup {
	r := WorkOrderCostRollup{
		TotalItemCost:  decimal.Zero,
		TotalLaborCost: decimal.Zero,
		TotalCost:      decimal.Zero,
	}
	for _, item := range items {
		c := Cost(item)
		r.TotalItemCost = r.TotalItemCost.Add(c.ItemCost)
		r.TotalLaborCost = r.TotalLaborCost.Add(c.LaborCost)
	}
	r.TotalCost = r.TotalItemCost.Add(r.TotalLaborCost)
	return r
}
