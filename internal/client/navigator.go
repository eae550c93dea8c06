package client

// Navigator is a cursor over the ordered categories. Next and Prev wrap
// around and always discard the pending write-in text, even when a
// single category wraps onto itself. It is not safe for concurrent use; App serializes access.
type Navigator struct {
	n      int
	cursor int
	draft  string
}

func NewNavigator(n int) *Navigator {
	return &Navigator{n: n}
}

// Index returns the current category position, or -1 with no categories.
func (nav *Navigator) Index() int {
	if nav.n == 0 {
		return -1
	}
	return nav.cursor
}

func (nav *Navigator) Len() int { return nav.n }

func (nav *Navigator) Next() { nav.move(1) }

func (nav *Navigator) Prev() { nav.move(-1) }

// Go jumps to position i, wrapping out-of-range values.
func (nav *Navigator) Go(i int) {
	if nav.n == 0 {
		return
	}
	nav.enter(((i % nav.n) + nav.n) % nav.n)
}

func (nav *Navigator) move(delta int) {
	if nav.n == 0 {
		return
	}
	nav.draft = ""
	nav.cursor = (nav.cursor + delta + nav.n) % nav.n
}

func (nav *Navigator) enter(i int) {
	if i != nav.cursor {
		nav.draft = ""
	}
	nav.cursor = i
}

// Reset changes the number of categories, keeping the cursor in range.
func (nav *Navigator) Reset(n int) {
	nav.n = n
	if n == 0 || nav.cursor >= n {
		nav.cursor = 0
		nav.draft = ""
	}
}

// Draft is the write-in text typed so far in the current category.
func (nav *Navigator) Draft() string { return nav.draft }

func (nav *Navigator) SetDraft(s string) { nav.draft = s }
