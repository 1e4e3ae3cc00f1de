package scanner

// Cursor walks a subheader buffer field by field. The first out-of-range
// read sets a sticky error and every later read returns zero values.
type Cursor struct {
	buf []byte
	pos int
	err error
}

func NewCursor(buf []byte, pos int) *Cursor {
	return &Cursor{buf: buf, pos: pos}
}

func (c *Cursor) Pos() int   { return c.pos }
func (c *Cursor) Err() error { return c.err }

// Remaining returns the number of unread bytes.
func (c *Cursor) Remaining() int {
	if c.pos >= len(c.buf) {
		return 0
	}
	return len(c.buf) - c.pos
}

func (c *Cursor) take(n int) []byte {
	if c.err != nil || n < 0 {
		return nil
	}
	if c.pos+n > len(c.buf) {
		c.err = ErrShortBuffer
		return nil
	}
	b := c.buf[c.pos : c.pos+n]
	c.pos += n
	return b
}

// Next returns the next n bytes as a string.
func (c *Cursor) Next(n int) string { return string(c.take(n)) }

// Bytes returns the next n bytes without copying.
func (c *Cursor) Bytes(n int) []byte { return c.take(n) }

// Int reads an n-digit numeric field.
func (c *Cursor) Int(n int) int { return Atoi(string(c.take(n))) }

// Skip advances by n bytes.
func (c *Cursor) Skip(n int) { c.take(n) }

// Peek returns the next n bytes without consuming them.
func (c *Cursor) Peek(n int) string {
	if c.err != nil || c.pos+n > len(c.buf) {
		return ""
	}
	return string(c.buf[c.pos : c.pos+n])
}

// Extract reads an n byte Latin-1 field into md under key and returns
// the stored value.
func (c *Cursor) Extract(md Setter, n int, key string) string {
	b := c.take(n)
	if b == nil {
		return ""
	}
	v := Latin1ToUTF8(TrimRight(b))
	md.Set(key, v)
	return v
}
