package domain

import "time"

type UserStats struct {
	UserID          int64      `json:"user_id"`
	Username        string     `json:"username"`
	TotalSpace      int64      `json:"total_space"`
	UsedSpace       int64      `json:"used_space"`
	AvailableSpace  int64      `json:"available_space"`
	UsagePercentage float64    `json:"usage_percentage"`
	FileCount       int64      `json:"file_count"`
	TotalFileSize   int64      `json:"total_file_size"`
	AvgFileSize     float64    `json:"avg_file_size"`
	LastUpload      *time.Time `json:"last_upload"`
}

type FileTypeStat struct {
	Type      string  `json:"type"`
	Count     int64   `json:"count"`
	TotalSize int64   `json:"total_size"`
	AvgSize   float64 `json:"avg_size"`
}
