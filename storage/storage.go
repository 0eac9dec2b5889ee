package storage

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ErrNotFound is returned when a lookup matches no record.
var ErrNotFound = errors.New("record not found")

type Storage struct {
	db *gorm.DB
}

func New(dbPath string) (*Storage, error) {
	db, err := gorm.Open(sqlite.Open(dbPath), &gorm.Config{})
	if err != nil {
		slog.Error("storage: Failed to connect to database", "error", err, "path", dbPath)
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	s := &Storage{db: db}
	if err := s.migrate(); err != nil {
		return nil, err
	}

	return s, nil
}

func (s *Storage) migrate() error {
	err := s.db.AutoMigrate(&TargetRecord{}, &GroupAuthorization{})
	if err != nil {
		slog.Error("storage: Failed to migrate database", "error", err)
		return fmt.Errorf("failed to migrate database: %w", err)
	}

	return nil
}

// UpsertTarget inserts rec or overwrites the existing record sharing its
// (user_id, date) key. All non-key columns are replaced, so re-adding a
// target resets Completed and CompletedAt.
func (s *Storage) UpsertTarget(ctx context.Context, rec TargetRecord) error {
	result := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "user_id"}, {Name: "date"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"group_id", "username", "target", "created_at", "completed", "completed_at",
		}),
	}).Create(&rec)
	if result.Error != nil {
		slog.Error("storage: Failed to upsert target", "error", result.Error,
			"user_id", rec.UserID, "date", rec.Date)
		return fmt.Errorf("failed to upsert target: %w", result.Error)
	}
	return nil
}

// TargetByUserAndDate retrieves a user's target for the given day.
func (s *Storage) TargetByUserAndDate(ctx context.Context, userID int64, date time.Time) (*TargetRecord, error) {
	var rec TargetRecord
	result := s.db.WithContext(ctx).Where("user_id = ? AND date = ?", userID, date).First(&rec)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		slog.Error("storage: Failed to get target", "error", result.Error,
			"user_id", userID, "date", date)
		return nil, fmt.Errorf("failed to get target: %w", result.Error)
	}
	return &rec, nil
}

// TargetsByGroupAndDate retrieves every target recorded in a group for the
// given day, in insertion order.
func (s *Storage) TargetsByGroupAndDate(ctx context.Context, groupID int64, date time.Time) ([]TargetRecord, error) {
	var recs []TargetRecord
	result := s.db.WithContext(ctx).
		Where("group_id = ? AND date = ?", groupID, date).
		Order("id").
		Find(&recs)
	if result.Error != nil {
		slog.Error("storage: Failed to get group targets", "error", result.Error,
			"group_id", groupID, "date", date)
		return nil, fmt.Errorf("failed to get group targets: %w", result.Error)
	}
	return recs, nil
}

// RecentTargetsByUser retrieves a user's most recent targets, newest day first.
func (s *Storage) RecentTargetsByUser(ctx context.Context, userID int64, limit int) ([]TargetRecord, error) {
	var recs []TargetRecord
	result := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("date DESC").
		Limit(limit).
		Find(&recs)
	if result.Error != nil {
		slog.Error("storage: Failed to get recent targets", "error", result.Error, "user_id", userID)
		return nil, fmt.Errorf("failed to get recent targets: %w", result.Error)
	}
	return recs, nil
}

// CompleteTarget flips a target to completed. Returns ErrNotFound when the
// user has no record for the day.
func (s *Storage) CompleteTarget(ctx context.Context, userID int64, date time.Time, completedAt time.Time) error {
	result := s.db.WithContext(ctx).Model(&TargetRecord{}).
		Where("user_id = ? AND date = ?", userID, date).
		Updates(map[string]any{"completed": true, "completed_at": completedAt})
	if result.Error != nil {
		slog.Error("storage: Failed to complete target", "error", result.Error,
			"user_id", userID, "date", date)
		return fmt.Errorf("failed to complete target: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// AuthorizeGroup records (or refreshes) a group on the allow-list.
func (s *Storage) AuthorizeGroup(ctx context.Context, groupID int64, groupName string) error {
	auth := GroupAuthorization{
		GroupID:   groupID,
		GroupName: groupName,
		UpdatedAt: time.Now(),
	}
	result := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "group_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"group_name", "updated_at"}),
	}).Create(&auth)
	if result.Error != nil {
		slog.Error("storage: Failed to authorize group", "error", result.Error,
			"group_id", groupID, "group_name", groupName)
		return fmt.Errorf("failed to authorize group: %w", result.Error)
	}
	return nil
}

// GroupAuthorized reports whether the group is on the allow-list. It does not
// apply the bootstrap rule; that belongs to the authorization policy.
func (s *Storage) GroupAuthorized(ctx context.Context, groupID int64) (bool, error) {
	var count int64
	result := s.db.WithContext(ctx).Model(&GroupAuthorization{}).
		Where("group_id = ?", groupID).
		Count(&count)
	if result.Error != nil {
		slog.Error("storage: Failed to check group authorization", "error", result.Error, "group_id", groupID)
		return false, fmt.Errorf("failed to check group authorization: %w", result.Error)
	}
	return count > 0, nil
}

// AuthorizedGroupCount returns the number of allow-listed groups.
func (s *Storage) AuthorizedGroupCount(ctx context.Context) (int64, error) {
	var count int64
	result := s.db.WithContext(ctx).Model(&GroupAuthorization{}).Count(&count)
	if result.Error != nil {
		slog.Error("storage: Failed to count authorized groups", "error", result.Error)
		return 0, fmt.Errorf("failed to count authorized groups: %w", result.Error)
	}
	return count, nil
}

// AuthorizedGroup returns the first allow-listed group, for status reporting.
func (s *Storage) AuthorizedGroup(ctx context.Context) (*GroupAuthorization, error) {
	var auth GroupAuthorization
	result := s.db.WithContext(ctx).First(&auth)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		slog.Error("storage: Failed to get authorized group", "error", result.Error)
		return nil, fmt.Errorf("failed to get authorized group: %w", result.Error)
	}
	return &auth, nil
}

// ResetGroup deletes all of a group's targets and its allow-list entry.
func (s *Storage) ResetGroup(ctx context.Context, groupID int64) error {
	result := s.db.WithContext(ctx).Where("group_id = ?", groupID).Delete(&TargetRecord{})
	if result.Error != nil {
		slog.Error("storage: Failed to delete group targets", "error", result.Error, "group_id", groupID)
		return fmt.Errorf("failed to delete group targets: %w", result.Error)
	}

	result = s.db.WithContext(ctx).Where("group_id = ?", groupID).Delete(&GroupAuthorization{})
	if result.Error != nil {
		slog.Error("storage: Failed to delete group authorization", "error", result.Error, "group_id", groupID)
		return fmt.Errorf("failed to delete group authorization: %w", result.Error)
	}
	return nil
}

// ResetAll deletes every target and allow-list entry.
func (s *Storage) ResetAll(ctx context.Context) error {
	result := s.db.WithContext(ctx).Where("1 = 1").Delete(&TargetRecord{})
	if result.Error != nil {
		slog.Error("storage: Failed to delete targets", "error", result.Error)
		return fmt.Errorf("failed to delete targets: %w", result.Error)
	}

	result = s.db.WithContext(ctx).Where("1 = 1").Delete(&GroupAuthorization{})
	if result.Error != nil {
		slog.Error("storage: Failed to delete group authorizations", "error", result.Error)
		return fmt.Errorf("failed to delete group authorizations: %w", result.Error)
	}
	return nil
}
