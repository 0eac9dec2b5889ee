package storage

import "time"

// TargetRecord is one member's target for one calendar day. Date is always
// normalized to midnight before it is used as key material, so the unique
// index on (user_id, date) gives at most one record per member per day.
type TargetRecord struct {
	ID          uint  `gorm:"primaryKey"`
	GroupID     int64 `gorm:"index:idx_group_date"`
	UserID      int64 `gorm:"uniqueIndex:idx_user_date"`
	Username    string
	Target      string
	Date        time.Time `gorm:"uniqueIndex:idx_user_date;index:idx_group_date"`
	CreatedAt   time.Time
	Completed   bool
	CompletedAt *time.Time
}

// GroupAuthorization marks a chat group as allowed to use the bot. While the
// table is empty every group is allowed (bootstrap phase); once any record
// exists only listed groups are.
type GroupAuthorization struct {
	GroupID   int64 `gorm:"primaryKey"`
	GroupName string
	UpdatedAt time.Time
}
