package clientdata

import "time"

// TTL constants for different data types.
const (
	// Historical daily irradiance is revised rarely; an hour keeps repeated analyses cheap
	// while still picking up POWER reprocessing within the day.
	TTLPowerDaily = time.Hour
)
