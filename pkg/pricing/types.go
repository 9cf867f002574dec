package pricing

import (
	"sync"
)

// Source represents where a price figure came from.
type Source string

const (
	// SourceAPI indicates pricing data came from the AWS Pricing API
	SourceAPI Source = "API"

	// SourceCache indicates pricing data came from the in-process cache
	SourceCache Source = "Cache"

	// SourceNA indicates pricing data is not available
	SourceNA Source = "N/A"
)

// EC2 on-demand price cache, keyed by "region:instanceType".
var (
	ec2PriceCache     = make(map[string]float64)
	ec2PriceCacheLock sync.RWMutex
)

// Pricing API call statistics, keyed by region.
var (
	apiStats     = make(map[string]map[string]int) // region -> {success, failure, cache}
	apiStatsLock sync.RWMutex
)
