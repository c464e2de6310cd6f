package pagination

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeDefaults(t *testing.T) {
	p := Pagination{}.Normalize()
	assert.Equal(t, 1, p.Page)
	assert.Equal(t, 20, p.PageSize)
}

func TestNormalizeClampsPageSize(t *testing.T) {
	p := Pagination{Page: 3, PageSize: 500}.Normalize()
	assert.Equal(t, 3, p.Page)
	assert.Equal(t, 100, p.PageSize)

	p = Pagination{Page: -2, PageSize: 0}.Normalize()
	assert.Equal(t, 1, p.Page)
	assert.Equal(t, 20, p.PageSize)
}

func TestOffset(t *testing.T) {
	assert.Equal(t, 0, Pagination{Page: 1, PageSize: 20}.Offset())
	assert.Equal(t, 20, Pagination{Page: 2, PageSize: 20}.Offset())
	assert.Equal(t, 90, Pagination{Page: 10, PageSize: 10}.Offset())
}
