package collab

// Direction is one cursor movement in the grid.
type Direction int

const (
	Up Direction = iota
	Down
	Left
	Right
)

// Cursor is a grid position.
type Cursor struct {
	Row int
	Col int
}

// SuggestionList is the modal dropdown shown while editing a cell with
// known completions, e.g. part identifiers.
type SuggestionList struct {
	Items []string
	index int
}

// Selected returns the highlighted item.
func (s *SuggestionList) Selected() string {
	if len(s.Items) == 0 {
		return ""
	}
	return s.Items[s.index]
}

// Navigator is the keyboard model of the grid: arrow keys move the
// cursor, Enter advances to the next row, and an open suggestion list
// captures vertical movement until a choice is made or it is dismissed.
type Navigator struct {
	rows   int
	cols   int
	cursor Cursor
	modal  *SuggestionList
}

// NewNavigator creates a navigator over a rows-by-cols grid.
func NewNavigator(rows, cols int) *Navigator {
	return &Navigator{rows: rows, cols: cols}
}

// Resize updates the grid bounds, clamping the cursor back inside.
func (n *Navigator) Resize(rows, cols int) {
	n.rows = rows
	n.cols = cols
	n.cursor = n.clamp(n.cursor)
}

// Cursor returns the current position.
func (n *Navigator) Cursor() Cursor {
	return n.cursor
}

// ModalOpen reports whether a suggestion list is capturing input.
func (n *Navigator) ModalOpen() bool {
	return n.modal != nil
}

// OpenSuggestions opens the modal list. An empty list is ignored.
func (n *Navigator) OpenSuggestions(items []string) {
	if len(items) == 0 {
		return
	}
	n.modal = &SuggestionList{Items: items}
}

// Dismiss closes the modal list without selecting.
func (n *Navigator) Dismiss() {
	n.modal = nil
}

// Move handles one arrow key. With the modal open, Up and Down move the
// highlight and horizontal keys are swallowed; otherwise the cursor moves
// and clamps at the grid edges.
func (n *Navigator) Move(dir Direction) {
	if n.modal != nil {
		switch dir {
		case Up:
			if n.modal.index > 0 {
				n.modal.index--
			}
		case Down:
			if n.modal.index < len(n.modal.Items)-1 {
				n.modal.index++
			}
		}
		return
	}
	next := n.cursor
	switch dir {
	case Up:
		next.Row--
	case Down:
		next.Row++
	case Left:
		next.Col--
	case Right:
		next.Col++
	}
	n.cursor = n.clamp(next)
}

// PressEnter confirms. With the modal open it returns the selected item
// and closes the list; otherwise it advances the cursor one row down and
// returns empty.
func (n *Navigator) PressEnter() string {
	if n.modal != nil {
		choice := n.modal.Selected()
		n.modal = nil
		return choice
	}
	n.Move(Down)
	return ""
}

func (n *Navigator) clamp(c Cursor) Cursor {
	if c.Row < 0 {
		c.Row = 0
	}
	if max := n.rows - 1; c.Row > max && max >= 0 {
		c.Row = max
	}
	if c.Col < 0 {
		c.Col = 0
	}
	if max := n.cols - 1; c.Col > max && max >= 0 {
		c.Col = max
	}
	return c
}
