package base

// idleNode links a connection into the idle list
type idleNode struct {
	prev, next *idleNode
	conn       *conn
}

func (n *idleNode) linked() bool { return n.next != nil }

// idleList is a circular doubly linked list with a sentinel, ordered by
// last activity. The least recently active connection is right after the
// sentinel, so only the head ever has to be checked for timeouts.
type idleList struct {
	sentinel idleNode
}

func (l *idleList) init() {
	l.sentinel.prev = &l.sentinel
	l.sentinel.next = &l.sentinel
}

// front returns the least recently active connection or nil.
func (l *idleList) front() *conn {
	if l.sentinel.next == &l.sentinel {
		return nil
	}
	return l.sentinel.next.conn
}

// pushBack appends c as the most recently active connection.
func (l *idleList) pushBack(c *conn) {
	n := &c.idle
	n.conn = c
	n.prev = l.sentinel.prev
	n.next = &l.sentinel
	l.sentinel.prev.next = n
	l.sentinel.prev = n
}

// remove detaches c, no-op if c is not linked.
func (l *idleList) remove(c *conn) {
	n := &c.idle
	if !n.linked() {
		return
	}
	n.prev.next = n.next
	n.next.prev = n.prev
	n.prev, n.next = nil, nil
}

// touch records activity of c at now and moves it to the tail.
func (l *idleList) touch(c *conn, now uint64) {
	c.lastActive = now
	l.remove(c)
	l.pushBack(c)
}
