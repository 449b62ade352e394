package listings

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCarouselWrapsBothWays(t *testing.T) {
	t.Parallel()

	c := NewCarousel([]string{"a.jpg", "b.jpg", "c.jpg"})
	assert.Equal(t, 0, c.Index())

	c.Prev()
	assert.Equal(t, 2, c.Index())
	assert.Equal(t, "c.jpg", c.Current("ph.jpg"))

	c.Next()
	assert.Equal(t, 0, c.Index())
	assert.Equal(t, "a.jpg", c.Current("ph.jpg"))
}

func TestCarouselEmptyStaysDegenerate(t *testing.T) {
	t.Parallel()

	c := NewCarousel(nil)
	c.Next()
	c.Prev()
	assert.Equal(t, 0, c.Index())
	assert.Equal(t, "ph.jpg", c.Current("ph.jpg"))
	assert.False(t, c.Navigable())
}

func TestCarouselSingleImageNotNavigable(t *testing.T) {
	t.Parallel()

	c := NewCarousel([]string{"only.jpg"})
	c.Next()
	assert.Equal(t, 0, c.Index())
	assert.False(t, c.Navigable())
}

func TestCarouselAtNormalisesIndex(t *testing.T) {
	t.Parallel()

	images := []string{"a", "b", "c"}
	cases := map[int]int{-1: 2, -4: 2, 0: 0, 3: 0, 7: 1}
	for in, want := range cases {
		c := CarouselAt(images, in)
		assert.Equal(t, want, c.Index(), "index %d", in)
	}
}

func TestCarouselMove(t *testing.T) {
	t.Parallel()

	c := CarouselAt([]string{"a", "b"}, 1)
	c.Move(MoveNext)
	assert.Equal(t, 0, c.Index())
	c.Move("sideways")
	assert.Equal(t, 0, c.Index())
	c.Move(MovePrev)
	assert.Equal(t, 1, c.Index())
}
