package backoff

// Schedule simulates a fresh session built from cfg and returns its first n decisions.
// The list ends early with Abort if the session aborts before n decisions.
// Jittered algorithms produce a different schedule on every call unless seeded.
func Schedule(cfg Config, n int) ([]Result, error) {
	b, err := cfg.New()
	if err != nil {
		return nil, err
	}

	if n < 0 {
		n = 0
	}

	results := make([]Result, 0, n)
	for i := 0; i < n; i++ {
		res, err := b.Next()
		if err != nil {
			return results, err
		}
		results = append(results, res)
		if res.Aborted() {
			break
		}
	}

	return results, nil
}
