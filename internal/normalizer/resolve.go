package normalizer

import "strings"

// Resolve returns the first non-empty value stored under any candidate
// column name. Candidates are tried in three passes: exact name, then
// case-insensitive name, then substring containment in either direction.
// A blank Value is returned when nothing matches.
func Resolve(row Row, candidates []string) Value {
	for _, name := range candidates {
		if v, ok := row.Get(name); ok && !v.IsEmpty() {
			return v
		}
	}

	lower := row.lowerColumns()

	// When columns differ only by case, the last one wins.
	for _, name := range candidates {
		want := strings.ToLower(name)
		last := -1
		for i, col := range lower {
			if col == want {
				last = i
			}
		}
		if last >= 0 && !row[last].Value.IsEmpty() {
			return row[last].Value
		}
	}

	// Only the first containing column is considered per candidate.
	for _, name := range candidates {
		want := strings.ToLower(name)
		for i, col := range lower {
			if strings.Contains(col, want) || strings.Contains(want, col) {
				if !row[i].Value.IsEmpty() {
					return row[i].Value
				}
				break
			}
		}
	}

	return Value{}
}
