package pagination

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSanitize(t *testing.T) {
	p := Params{Page: 0, Limit: -5}
	p.Sanitize()
	assert.Equal(t, 1, p.Page)
	assert.Equal(t, DefaultLimit, p.Limit)

	p = Params{Page: 3, Limit: 5000}
	p.Sanitize()
	assert.Equal(t, 3, p.Page)
	assert.Equal(t, MaxLimit, p.Limit)
}

func TestOffset(t *testing.T) {
	assert.Equal(t, 0, Params{Page: 1, Limit: 20}.Offset())
	assert.Equal(t, 40, Params{Page: 3, Limit: 20}.Offset())
}

func TestNewMeta(t *testing.T) {
	tests := []struct {
		name     string
		page     int
		limit    int
		total    int64
		hasNext  bool
		hasPrev  bool
		totalPgs int
	}{
		{"first of many", 1, 10, 35, true, false, 4},
		{"middle", 2, 10, 35, true, true, 4},
		{"last partial", 4, 10, 35, false, true, 4},
		{"exact boundary", 2, 10, 20, false, true, 2},
		{"empty", 1, 10, 0, false, false, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := NewMeta(Params{Page: tt.page, Limit: tt.limit}, tt.total)
			assert.Equal(t, tt.hasNext, m.HasNext)
			assert.Equal(t, tt.hasPrev, m.HasPrev)
			assert.Equal(t, tt.totalPgs, m.TotalPages)
			assert.Equal(t, tt.total, m.Total)
		})
	}
}
