package tier

import "sort"

// SortRecords orders files for tier assignment: priority descending,
// with access time descending as the tie-break. The sort is stable so a
// pass is deterministic for a given filesystem state.
func SortRecords(files []*FileRecord) {
	sort.SliceStable(files, func(i, j int) bool {
		if files[i].Priority != files[j].Priority {
			return files[i].Priority > files[j].Priority
		}
		return files[i].Meta.Atime.After(files[j].Meta.Atime)
	})
}
