package usecase

import "time"

const (
	defaultPageSize = 20
	maxPageSize     = 100

	defaultTopAccounts = 10

	summaryCacheKey = "analytics:summary"
	summaryCacheTTL = 30 * time.Second
)
