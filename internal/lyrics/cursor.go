package lyrics

// Cursor tracks which line of a document should currently be on screen.
// Index -1 means playback has not reached the first line yet.
//
// A Cursor is not safe for concurrent use; the sync controller owns it.
type Cursor struct {
	doc   *Document
	index int
}

func NewCursor(doc *Document) *Cursor {
	return &Cursor{doc: doc, index: -1}
}

// Advance moves the cursor to the line due at positionMillis and returns it.
// Forward movement walks line by line from the current index, so seeks and
// large offset changes can cross several lines in one call. A position
// earlier than the current line re-derives the index from scratch.
func (c *Cursor) Advance(positionMillis int64) (Line, bool) {
	n := c.doc.Len()
	if n == 0 {
		c.index = -1
		return Line{}, false
	}

	if c.index >= n {
		c.index = -1
	}

	if c.index >= 0 && positionMillis < c.doc.lines[c.index].TimestampMillis {
		c.index = c.doc.indexAt(positionMillis)
	} else {
		for c.index+1 < n && positionMillis >= c.doc.lines[c.index+1].TimestampMillis {
			c.index++
		}
	}

	if c.index < 0 {
		return Line{}, false
	}
	return c.doc.lines[c.index], true
}

func (c *Cursor) Index() int { return c.index }

func (c *Cursor) Document() *Document { return c.doc }

// Reset returns the cursor to before the first line.
func (c *Cursor) Reset() { c.index = -1 }
