package paging

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sequence(n int) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = i
	}
	return out
}

func TestPaginateTwelveByEight(t *testing.T) {
	items := sequence(12)

	first, err := Paginate(items, 0, 8)
	require.NoError(t, err)
	assert.Len(t, first.Items, 8)
	assert.Equal(t, 2, first.TotalPages)
	assert.False(t, first.HasPrev)
	assert.True(t, first.HasNext)

	second, err := Paginate(items, 1, 8)
	require.NoError(t, err)
	assert.Len(t, second.Items, 4)
	assert.True(t, second.HasPrev)
	assert.False(t, second.HasNext)
}

func TestPaginateEmptyList(t *testing.T) {
	page, err := Paginate([]string(nil), 0, 5)
	require.NoError(t, err)
	assert.Empty(t, page.Items)
	assert.Equal(t, 1, page.TotalPages)
	assert.False(t, page.HasPrev)
	assert.False(t, page.HasNext)
}

func TestPaginateOutOfRange(t *testing.T) {
	_, err := Paginate(sequence(3), 1, 8)
	assert.ErrorIs(t, err, ErrPageOutOfRange)

	_, err = Paginate(sequence(3), -1, 8)
	assert.ErrorIs(t, err, ErrPageOutOfRange)
}

func TestPaginateRejectsNonPositivePageSize(t *testing.T) {
	_, err := Paginate(sequence(3), 0, 0)
	assert.Error(t, err)
}

// Walking every page must reproduce the input exactly once, and HasNext
// must be false only on the last page.
func TestPaginateCoversAllItems(t *testing.T) {
	for _, n := range []int{0, 1, 7, 8, 9, 16, 25} {
		for _, size := range []int{1, 3, 8} {
			t.Run(fmt.Sprintf("n=%d_size=%d", n, size), func(t *testing.T) {
				items := sequence(n)
				var walked []int
				for p := 0; ; p++ {
					page, err := Paginate(items, p, size)
					require.NoError(t, err)
					walked = append(walked, page.Items...)
					if !page.HasNext {
						assert.Equal(t, page.TotalPages-1, p)
						break
					}
				}
				assert.Equal(t, items, append([]int{}, walked...))
			})
		}
	}
}

func TestClamp(t *testing.T) {
	assert.Equal(t, 0, Clamp(-2, 10, 4))
	assert.Equal(t, 1, Clamp(1, 10, 4))
	assert.Equal(t, 2, Clamp(99, 10, 4))
	assert.Equal(t, 0, Clamp(5, 0, 4))
}
