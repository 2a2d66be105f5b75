package engine

import "sort"

// ComputeBxGy evaluates a buy-X-get-Y coupon. Qualifying buy units are summed
// across the buy set, repetitions are floor-divided against the required units
// and capped by the repetition limit, and each repetition grants the full get
// set cheapest-first. Reward products already in the cart contribute their
// unit price to the discount and have their line quantity increased; reward
// products absent from the cart are appended with price 0 and contribute no
// discount value even though the units are granted.
func ComputeBxGy(items []Item, p BxGyParams) Result {
	per := make([]Money, len(items))
	zero := Result{PerItem: per, Items: items}

	lines := make(map[int64]Item, len(items))
	for _, it := range items {
		lines[it.ProductID] = it
	}

	var required int64
	for _, b := range p.Buy {
		required += b.Qty
	}
	if required == 0 {
		// Degenerate configuration; validation rejects this upstream.
		return zero
	}

	var owned int64
	for _, b := range p.Buy {
		if it, ok := lines[b.ProductID]; ok {
			owned += it.Qty
		}
	}

	reps := owned / required
	if limit := int64(p.RepetitionLimit); reps > limit {
		reps = limit
	}
	if reps <= 0 {
		return zero
	}

	type pricedEntry struct {
		entry BundleEntry
		price Money
	}
	rewards := make([]pricedEntry, 0, len(p.Get))
	for _, g := range p.Get {
		var price Money
		if it, ok := lines[g.ProductID]; ok {
			price = it.UnitPrice
		}
		rewards = append(rewards, pricedEntry{entry: g, price: price})
	}
	// Cheapest first; absent products carry price 0 and sort ahead.
	sort.SliceStable(rewards, func(i, j int) bool { return rewards[i].price < rewards[j].price })

	var total Money
	free := make(map[int64]int64, len(p.Get))
	for rep := int64(0); rep < reps; rep++ {
		for _, rw := range rewards {
			free[rw.entry.ProductID] += rw.entry.Qty
			total += rw.price * rw.entry.Qty
		}
	}

	updated := make([]Item, 0, len(items)+len(free))
	for i, it := range items {
		fq := free[it.ProductID]
		if fq == 0 {
			updated = append(updated, it)
			continue
		}
		delete(free, it.ProductID)
		per[i] = it.UnitPrice * fq
		updated = append(updated, Item{ProductID: it.ProductID, Qty: it.Qty + fq, UnitPrice: it.UnitPrice})
	}

	// Reward products not in the cart, in reward order for determinism. The
	// unit price is unknown in this flow so the line is recorded at 0.
	for _, rw := range rewards {
		fq, ok := free[rw.entry.ProductID]
		if !ok {
			continue
		}
		delete(free, rw.entry.ProductID)
		per = append(per, 0)
		updated = append(updated, Item{ProductID: rw.entry.ProductID, Qty: fq})
	}

	return Result{Total: total, PerItem: per, Items: updated}
}
