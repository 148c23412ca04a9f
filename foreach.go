package jobpool

// ForEach calls fn for every item concurrently on a new Pool and waits for all
// of them. It delegates to RunAll and returns its aggregated error.
func ForEach[T any](items []T, fn func(T), opts ...Option) error {
	if len(items) == 0 {
		return nil
	}
	jobs := make([]Job, 0, len(items))
	for i := range items {
		item := items[i]
		jobs = append(jobs, func() { fn(item) })
	}
	return RunAll(jobs, opts...)
}
