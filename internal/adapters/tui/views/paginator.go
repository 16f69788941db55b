package views

// listCursor is a cursor over the review list shown one page at a time.
// The visible page is always the one holding the cursor.
type listCursor struct {
	pos      int
	n        int
	pageSize int
}

func newListCursor(pageSize int) *listCursor {
	if pageSize <= 0 {
		pageSize = 10
	}
	return &listCursor{pageSize: pageSize}
}

// reset points the cursor at the first of n items
func (c *listCursor) reset(n int) {
	c.pos, c.n = 0, max(n, 0)
}

func (c *listCursor) index() int {
	return c.pos
}

// move shifts the cursor by delta items, clamped to the list
func (c *listCursor) move(delta int) {
	if c.n == 0 {
		return
	}
	c.pos = min(max(c.pos+delta, 0), c.n-1)
}

// flip jumps to the first item of the page `pages` away, clamped to the
// first and last page. It reports whether the page changed.
func (c *listCursor) flip(pages int) bool {
	if c.n == 0 {
		return false
	}
	current := c.pos / c.pageSize
	target := min(max(current+pages, 0), (c.n-1)/c.pageSize)
	if target == current {
		return false
	}
	c.pos = target * c.pageSize
	return true
}

// window returns the item range of the page holding the cursor
func (c *listCursor) window() (start, end int) {
	start = c.pos / c.pageSize * c.pageSize
	return start, min(start+c.pageSize, c.n)
}

// page returns the 1-based page holding the cursor and the page count
func (c *listCursor) page() (current, total int) {
	total = max((c.n+c.pageSize-1)/c.pageSize, 1)
	return c.pos/c.pageSize + 1, total
}
