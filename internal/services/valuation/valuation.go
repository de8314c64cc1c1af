// Package valuation holds the pure position math shared by the trade
// executor, the price reconciler and the admin override service. It has no
// notion of where a price came from; live and overridden prices go through
// the identical formulas.
package valuation

// Valuation is the derived performance of a position at a given price.
type Valuation struct {
	CurrentValue  float64
	Pnl           float64
	PnlPercentage float64
}

// Compute derives value, P&L and P&L% from the held quantity, the cost
// basis and a price. P&L% is 0 when there is no investment to measure
// against.
func Compute(amount, totalInvestment, currentPrice float64) Valuation {
	currentValue := amount * currentPrice
	pnl := currentValue - totalInvestment

	pnlPercentage := 0.0
	if totalInvestment > 0 {
		pnlPercentage = pnl / totalInvestment * 100
	}

	return Valuation{
		CurrentValue:  currentValue,
		Pnl:           pnl,
		PnlPercentage: pnlPercentage,
	}
}

// FromPnlPercentage back-solves the price that makes a position display the
// given P&L%. Used by the override path: the target percentage is the
// input and the equivalent price is what gets persisted.
func FromPnlPercentage(amount, totalInvestment, pct float64) (price float64, v Valuation) {
	pnl := pct / 100 * totalInvestment
	currentValue := totalInvestment + pnl

	if amount > 0 {
		price = currentValue / amount
	}
	return price, Valuation{
		CurrentValue:  currentValue,
		Pnl:           pnl,
		PnlPercentage: pct,
	}
}

// WeightedAverageEntry blends an existing cost basis with a new purchase.
// Entries at different prices blend by investment-weighted average, never
// by a simple average of prices.
func WeightedAverageEntry(oldQuantity, oldInvestment, addQuantity, addCost float64) (newQuantity, newInvestment, buyPrice float64) {
	newQuantity = oldQuantity + addQuantity
	newInvestment = oldInvestment + addCost
	if newQuantity > 0 {
		buyPrice = newInvestment / newQuantity
	}
	return newQuantity, newInvestment, buyPrice
}
