package pagination

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRejectsNonPositive(t *testing.T) {
	for _, tc := range []struct{ number, size int }{{0, 10}, {1, 0}, {-1, 5}, {3, -2}} {
		_, err := New(tc.number, tc.size)
		assert.ErrorIs(t, err, ErrInvalidPage, "page=%d size=%d", tc.number, tc.size)
	}

	p, err := New(2, 5)
	require.NoError(t, err)
	assert.Equal(t, 5, p.Offset())
	assert.Equal(t, 5, p.Limit())
}

func TestNewRejectsOverflowingOffset(t *testing.T) {
	_, err := New(922337203685477582, 10)
	assert.ErrorIs(t, err, ErrInvalidPage)

	_, err = New(math.MaxInt, 2)
	assert.ErrorIs(t, err, ErrInvalidPage)

	p, err := New(math.MaxInt, 1)
	require.NoError(t, err)
	assert.Equal(t, math.MaxInt-1, p.Offset())

	p, err = New(math.MaxInt/10+1, 10)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, p.Offset(), 0)
}

func TestWindow(t *testing.T) {
	items := []int{1, 2, 3, 4, 5, 6, 7}
	page := func(n int) []int {
		p, err := New(n, 3)
		require.NoError(t, err)
		return Window(items, p.Offset(), p.Limit())
	}

	assert.Equal(t, []int{1, 2, 3}, page(1))
	assert.Equal(t, []int{4, 5, 6}, page(2))
	assert.Equal(t, []int{7}, page(3))

	past := page(4)
	assert.NotNil(t, past)
	assert.Empty(t, past)

	assert.Equal(t, []int{3, 4, 5, 6, 7}, Window(items, 2, -1))
	assert.Equal(t, []int{7}, Window(items, 6, math.MaxInt))
	assert.Empty(t, Window(items, -3, 2))
	assert.NotNil(t, Window([]int(nil), 0, 5))
}

func TestWindowDoesNotAlias(t *testing.T) {
	items := []int{1, 2, 3}
	page := Window(items, 0, 2)
	page[0] = 100
	assert.Equal(t, 1, items[0])
}

func TestNewResponse(t *testing.T) {
	resp := NewResponse([]string{"a", "b"}, 5, Page{Number: 1, Size: 2})
	assert.Equal(t, int64(5), resp.Meta.TotalItems)
	assert.Equal(t, 3, resp.Meta.TotalPages)
	assert.Equal(t, 1, resp.Meta.CurrentPage)
	assert.Equal(t, 2, resp.Meta.PageSize)

	empty := NewResponse[string](nil, 0, Page{Number: 1, Size: 10})
	assert.NotNil(t, empty.Data)
	assert.Equal(t, 0, empty.Meta.TotalPages)
}
