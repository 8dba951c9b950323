package domain

import "time"

// CatalogStatus describes the last product fetch.
type CatalogStatus struct {
	Loading   bool
	Err       string
	Products  int
	FetchedAt time.Time
}
