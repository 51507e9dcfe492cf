// Package pagination implements offset-based page/limit pagination with the
// metadata contract used by every list endpoint: hasNext is true iff
// page*limit < total, hasPrev is true iff page > 1.
package pagination

const (
	DefaultLimit = 20
	MaxLimit     = 100
)

// Params carries sanitized paging inputs.
type Params struct {
	Page  int `form:"page,default=1"`
	Limit int `form:"limit,default=20"`
}

// Sanitize clamps page and limit into their valid ranges.
func (p *Params) Sanitize() {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.Limit <= 0 {
		p.Limit = DefaultLimit
	}
	if p.Limit > MaxLimit {
		p.Limit = MaxLimit
	}
}

// Offset returns the row offset for the current page.
func (p Params) Offset() int {
	return (p.Page - 1) * p.Limit
}

// Meta is the pagination block returned alongside list results.
type Meta struct {
	Total      int64 `json:"total"`
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	TotalPages int   `json:"totalPages"`
	HasNext    bool  `json:"hasNext"`
	HasPrev    bool  `json:"hasPrev"`
}

// NewMeta builds the metadata block for a page given the total row count.
func NewMeta(p Params, total int64) Meta {
	totalPages := int(total) / p.Limit
	if int(total)%p.Limit != 0 {
		totalPages++
	}
	return Meta{
		Total:      total,
		Page:       p.Page,
		Limit:      p.Limit,
		TotalPages: totalPages,
		HasNext:    int64(p.Page)*int64(p.Limit) < total,
		HasPrev:    p.Page > 1,
	}
}
