package pkg

func Filter[T any](items []T, predicate func(T) bool) []T {
	filtered := []T{}
	for _, item := range items {
		if predicate(item) {
			filtered = append(filtered, item)
		}
	}
	return filtered
}

func MapSlice[T, R any](items []T, f func(T) R) []R {
	mapped := make([]R, len(items))
	for i, item := range items {
		mapped[i] = f(item)
	}
	return mapped
}

// PadRight extends items with fill until it has n elements.
func PadRight[T any](items []T, n int, fill T) []T {
	for len(items) < n {
		items = append(items, fill)
	}
	return items
}
