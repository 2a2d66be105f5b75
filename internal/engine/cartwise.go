package engine

// ComputeCartWise applies a percentage discount across the whole cart when
// the subtotal meets the threshold. A subtotal below the threshold yields a
// zero result, not an error. The total is split proportionally by line
// subtotal; the rounding residual is absorbed by the last line so the shares
// always sum exactly to the total.
func ComputeCartWise(items []Item, p CartWiseParams) Result {
	per := make([]Money, len(items))
	out := Result{PerItem: per, Items: items}

	subtotal := Subtotal(items)
	if subtotal <= 0 || subtotal < p.Threshold {
		return out
	}

	total := divRound(subtotal*int64(p.PercentBps), 10000)
	var allocated Money
	for i, it := range items {
		line := it.Qty * it.UnitPrice
		per[i] = divRound(line*total, subtotal)
		allocated += per[i]
	}
	per[len(per)-1] += total - allocated

	out.Total = total
	return out
}
