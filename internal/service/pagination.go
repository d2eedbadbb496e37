package service

import "gorm.io/gorm"

const (
	defaultPageSize = 10
	maxPageSize     = 100
)

// Page is one page of a larger result set.
type Page[T any] struct {
	Items []T
	Total int64
	Page  int
	Limit int
}

// TotalPages returns the number of pages for the page size.
func (p *Page[T]) TotalPages() int {
	if p.Limit <= 0 {
		return 0
	}
	return (int(p.Total) + p.Limit - 1) / p.Limit
}

// normalizePage clamps page and limit to sane values.
func normalizePage(page, limit int) (int, int) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = defaultPageSize
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}
	return page, limit
}

// paginate counts the rows matched by db and fetches one ordered page of them.
func paginate[T any](db *gorm.DB, order string, page, limit int, preloads ...string) (*Page[T], error) {
	page, limit = normalizePage(page, limit)
	base := db.Session(&gorm.Session{})

	var total int64
	if err := base.Count(&total).Error; err != nil {
		return nil, err
	}

	query := base.Order(order).Offset((page - 1) * limit).Limit(limit)
	for _, p := range preloads {
		query = query.Preload(p)
	}

	items := []T{}
	if err := query.Find(&items).Error; err != nil {
		return nil, err
	}
	return &Page[T]{Items: items, Total: total, Page: page, Limit: limit}, nil
}
