package engine

// ComputeProductWise discounts every line matching the target product by the
// configured percentage. Non-matching lines always get zero. There is no
// threshold; callers detect applicability via Total > 0.
func ComputeProductWise(items []Item, p ProductWiseParams) Result {
	per := make([]Money, len(items))
	var total Money
	for i, it := range items {
		if it.ProductID != p.ProductID {
			continue
		}
		d := divRound(it.Qty*it.UnitPrice*int64(p.PercentBps), 10000)
		per[i] = d
		total += d
	}
	return Result{Total: total, PerItem: per, Items: items}
}
