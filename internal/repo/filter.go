package repo

import (
	"time"

	"gorm.io/gorm"
)

// ListFilter narrows admin listings of orders and payments.
type ListFilter struct {
	UserID *uint
	Status string
	From   *time.Time
	To     *time.Time
	Limit  int
	Offset int
}

const maxListLimit = 500

func (f ListFilter) apply(q *gorm.DB) *gorm.DB {
	if f.UserID != nil {
		q = q.Where("user_id = ?", *f.UserID)
	}
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}
	if f.From != nil {
		q = q.Where("created_at >= ?", *f.From)
	}
	if f.To != nil {
		q = q.Where("created_at <= ?", *f.To)
	}
	limit := f.Limit
	if limit <= 0 || limit > maxListLimit {
		limit = maxListLimit
	}
	return q.Order("created_at DESC, id DESC").Limit(limit).Offset(f.Offset)
}
