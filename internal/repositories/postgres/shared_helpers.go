package postgres

import (
	"gorm.io/gorm"
)

// SharedHelpers contains common database operations for the postgres
// implementations.
type SharedHelpers struct {
	db *gorm.DB
}

func NewSharedHelpers(db *gorm.DB) *SharedHelpers {
	return &SharedHelpers{db: db}
}

// DB resolves the handle a repository method should use: the caller's
// transaction when one is in flight, the base connection otherwise.
func (h *SharedHelpers) DB(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return h.db
}

// ApplyPagination applies limit/offset with a sane default page size.
func (h *SharedHelpers) ApplyPagination(query *gorm.DB, limit, offset int) *gorm.DB {
	if limit <= 0 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}
	return query.Limit(limit).Offset(offset)
}

// ApplySort applies whitelisted sorting; unknown columns fall back to the
// default ordering to keep user input out of SQL.
func (h *SharedHelpers) ApplySort(query *gorm.DB, sortBy, sortOrder, defaultOrder string, allowed map[string]string) *gorm.DB {
	column, ok := allowed[sortBy]
	if !ok {
		return query.Order(defaultOrder)
	}
	direction := "asc"
	if sortOrder == "desc" {
		direction = "desc"
	}
	return query.Order(column + " " + direction)
}
