package models

// QuotaBreakdown splits local disk usage by origin. DatabaseBytes is a rough
// per-record estimate, not an exact measurement.
type QuotaBreakdown struct {
	AttachmentsBytes int64 `json:"attachmentsBytes"`
	CacheBytes       int64 `json:"cacheBytes"`
	DatabaseBytes    int64 `json:"databaseBytes"`
}

// QuotaReport is the advisory on-disk usage summary. It never gates sync
// operations.
type QuotaReport struct {
	UsedBytes      int64          `json:"usedBytes"`
	AvailableBytes int64          `json:"availableBytes"`
	TotalBytes     int64          `json:"totalBytes"`
	Breakdown      QuotaBreakdown `json:"breakdown"`
}
