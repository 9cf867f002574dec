package pricing

// updateAPIStats increments one counter for a region.
func updateAPIStats(region, statType string) {
	apiStatsLock.Lock()
	defer apiStatsLock.Unlock()

	if _, exists := apiStats[region]; !exists {
		apiStats[region] = map[string]int{
			"success":     0,
			"failure":     0,
			"cache":       0,
			"unavailable": 0,
		}
	}

	apiStats[region][statType]++
}

// GetAPIStats returns a copy of the current pricing API statistics by region
func GetAPIStats() map[string]map[string]int {
	apiStatsLock.RLock()
	defer apiStatsLock.RUnlock()

	statsCopy := make(map[string]map[string]int, len(apiStats))
	for region, stats := range apiStats {
		statsCopy[region] = make(map[string]int, len(stats))
		for key, value := range stats {
			statsCopy[region][key] = value
		}
	}

	return statsCopy
}
