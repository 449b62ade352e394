package listings

// Carousel tracks which image of a single card is on display. A Carousel is
// owned by exactly one card; nothing is shared between cards.
type Carousel struct {
	images []string
	index  int
}

// NewCarousel starts at the first image.
func NewCarousel(images []string) Carousel {
	return Carousel{images: images}
}

// CarouselAt restores a carousel at index, wrapping it into range. Indexes
// arriving from markup are never trusted as-is.
func CarouselAt(images []string, index int) Carousel {
	c := Carousel{images: images}
	c.show(index)
	return c
}

func (c *Carousel) show(i int) {
	n := len(c.images)
	if n == 0 {
		c.index = 0
		return
	}
	c.index = ((i % n) + n) % n
}

// Prev moves to the previous image, wrapping from the first to the last.
func (c *Carousel) Prev() { c.show(c.index - 1) }

// Next moves to the next image, wrapping from the last to the first.
func (c *Carousel) Next() { c.show(c.index + 1) }

// Index reports the image currently shown.
func (c Carousel) Index() int { return c.index }

// Len is the number of images.
func (c Carousel) Len() int { return len(c.images) }

// Images returns the image list backing the carousel.
func (c Carousel) Images() []string { return c.images }

// Navigable reports whether prev/next controls should be offered.
func (c Carousel) Navigable() bool { return len(c.images) > 1 }

// Current returns the image on display, or placeholder when there are none.
func (c Carousel) Current(placeholder string) string {
	if len(c.images) == 0 {
		return placeholder
	}
	return c.images[c.index]
}

// Move applies a named transition ("prev" or "next"). Unknown moves leave the
// carousel where it is.
func (c *Carousel) Move(move string) {
	switch move {
	case MovePrev:
		c.Prev()
	case MoveNext:
		c.Next()
	}
}

const (
	MovePrev = "prev"
	MoveNext = "next"
)
