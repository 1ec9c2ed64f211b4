package models

// SiteStats are the public landing page counters.
type SiteStats struct {
	TotalUsers     int64 `json:"total_users"`
	TotalConfigs   int64 `json:"total_configs"`
	TotalDownloads int64 `json:"total_downloads"`
}

// DashboardStats extends SiteStats with operator-only numbers.
type DashboardStats struct {
	SiteStats
	BannedUsers         int64 `json:"banned_users"`
	ActiveSubscriptions int64 `json:"active_subscriptions"`
	InviteKeysUsed      int64 `json:"invite_keys_used"`
	InviteKeysTotal     int64 `json:"invite_keys_total"`
}
