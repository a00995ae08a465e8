package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type countRow struct {
	ID    uuid.UUID
	Total int64
}

// countBy returns COUNT(*) of model rows grouped by column, restricted to ids.
// Ids with no rows are absent from the map.
func countBy(ctx context.Context, db *gorm.DB, model interface{}, column string, ids []uuid.UUID) (map[uuid.UUID]int64, error) {
	counts := make(map[uuid.UUID]int64, len(ids))
	if len(ids) == 0 {
		return counts, nil
	}

	var rows []countRow
	if err := db.WithContext(ctx).
		Model(model).
		Select(column+" AS id, COUNT(*) AS total").
		Where(column+" IN ?", ids).
		Group(column).
		Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to count by %s: %w", column, err)
	}

	for _, row := range rows {
		counts[row.ID] = row.Total
	}
	return counts, nil
}

// memberSet reports which of ids have a row in model for the given user.
func memberSet(ctx context.Context, db *gorm.DB, model interface{}, column string, userID uuid.UUID, ids []uuid.UUID) (map[uuid.UUID]bool, error) {
	set := make(map[uuid.UUID]bool, len(ids))
	if len(ids) == 0 || userID == uuid.Nil {
		return set, nil
	}

	var found []uuid.UUID
	if err := db.WithContext(ctx).
		Model(model).
		Where("user_id = ? AND "+column+" IN ?", userID, ids).
		Pluck(column, &found).Error; err != nil {
		return nil, fmt.Errorf("failed to load %s flags: %w", column, err)
	}

	for _, id := range found {
		set[id] = true
	}
	return set, nil
}

// paginate counts the filtered query and then loads one window of it.
// Ordering and preloads go in scopes so they stay out of the COUNT.
func paginate(query *gorm.DB, offset, limit int, dest interface{}, scopes ...func(*gorm.DB) *gorm.DB) (int64, error) {
	var total int64
	if err := query.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return 0, err
	}
	if total == 0 || offset < 0 || int64(offset) >= total {
		return total, nil
	}

	if err := query.Session(&gorm.Session{}).
		Scopes(scopes...).
		Offset(offset).
		Limit(limit).
		Find(dest).Error; err != nil {
		return 0, err
	}
	return total, nil
}

func orderBy(clauses ...string) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		for _, c := range clauses {
			db = db.Order(c)
		}
		return db
	}
}
