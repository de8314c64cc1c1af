package trade

// DefaultMinTradeTotal is used when no minimum is configured.
const DefaultMinTradeTotal = 10.0

// dustQuantity is the threshold below which a remaining position quantity
// counts as fully closed. Sell quantities are resolved through float
// division, so an exact zero cannot be relied on.
const dustQuantity = 1e-9
