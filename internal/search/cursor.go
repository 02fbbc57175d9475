package search

// DefaultPageSize is used when a Config carries no positive page size.
const DefaultPageSize = 25

// cursor tracks how much of the active list is exposed to the consumer.
type cursor struct {
	exposed  int
	pageSize int
}

func newCursor(pageSize int) *cursor {
	if pageSize < 1 {
		pageSize = DefaultPageSize
	}
	return &cursor{pageSize: pageSize}
}

// Reset starts the window over at page one for source and returns it.
func (c *cursor) Reset(source []*Item) []*Item {
	c.exposed = min(c.pageSize, len(source))
	return source[:c.exposed]
}

// Next returns the next local window of source and advances past it.
// An empty result means the local source is exhausted.
func (c *cursor) Next(source []*Item) []*Item {
	c.clamp(source)
	end := min(c.exposed+c.pageSize, len(source))
	page := source[c.exposed:end]
	c.exposed = end
	return page
}

// Visible returns the exposed prefix of source.
func (c *cursor) Visible(source []*Item) []*Item {
	c.clamp(source)
	return source[:c.exposed]
}

// Remaining reports how many local items lie past the window.
func (c *cursor) Remaining(source []*Item) int {
	c.clamp(source)
	return len(source) - c.exposed
}

// Exposed returns the current window length.
func (c *cursor) Exposed() int {
	return c.exposed
}

func (c *cursor) clamp(source []*Item) {
	if c.exposed > len(source) {
		c.exposed = len(source)
	}
	if c.exposed < 0 {
		c.exposed = 0
	}
}
