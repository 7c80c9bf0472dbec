package tier

// Simulate assigns every file a destination tier. Files must already be
// in priority order (SortRecords); budgets holds one byte budget per
// tier, same order as the engine's tier list.
//
// The walk keeps a running byte counter per tier, starting at the top.
// When enrolling a file would reach the current tier's budget
// (tier_use + size >= budget), the walk advances to the next slower tier
// and the counter resets. The bottom tier takes everything that reaches
// it, budget or not: a file too large for every tier still lands in the
// slowest one, because leaving it stranded is worse than overshooting a
// watermark.
//
// No I/O happens here; the result is the intended incoming list per
// tier. Every file is enrolled exactly once.
func Simulate(files []*FileRecord, budgets []int64) [][]*FileRecord {
	incoming := make([][]*FileRecord, len(budgets))
	if len(budgets) == 0 {
		return incoming
	}

	tierIdx := 0
	var tierUse int64
	for _, f := range files {
		for tierIdx < len(budgets)-1 && tierUse+f.Size() >= budgets[tierIdx] {
			tierIdx++
			tierUse = 0
		}
		incoming[tierIdx] = append(incoming[tierIdx], f)
		tierUse += f.Size()
	}
	return incoming
}
