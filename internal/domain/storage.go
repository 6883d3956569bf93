package domain

import "time"

// StorageAllocation tracks the quota of a single user.
// 0 <= UsedSpace <= TotalSpace is maintained on every write path.
type StorageAllocation struct {
	ID         int64     `json:"id" gorm:"primaryKey"`
	UserID     int64     `json:"user_id" gorm:"not null;uniqueIndex"`
	TotalSpace int64     `json:"total_space" gorm:"not null"`
	UsedSpace  int64     `json:"used_space" gorm:"not null"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

func (StorageAllocation) TableName() string { return "storage_allocation" }

// Available never goes below zero, even for rows written before the
// invariant was enforced.
func (s *StorageAllocation) Available() int64 {
	if s.UsedSpace >= s.TotalSpace {
		return 0
	}
	return s.TotalSpace - s.UsedSpace
}

func (s *StorageAllocation) UsagePercent() float64 {
	if s.TotalSpace <= 0 {
		return 0
	}
	return float64(s.UsedSpace) * 100 / float64(s.TotalSpace)
}
