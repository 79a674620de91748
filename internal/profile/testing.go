package profile

// SeedBalance is a test helper that sets a balance when using the in-memory repository.
func SeedBalance(r Repository, id string, amount int64) {
	if mem, ok := r.(*memoryRepository); ok {
		mem.mu.Lock()
		defer mem.mu.Unlock()
		mem.balances[id] = amount
	}
}
