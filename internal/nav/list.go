package nav

// List is a named, selectable list of items. Cursor is -1 while nothing is
// selected.
type List struct {
	Name   string
	Items  []string
	Cursor int
}

func newList(name string) *List {
	return &List{Name: name, Cursor: -1}
}

// Selected returns the selected item
func (l *List) Selected() (string, bool) {
	if l.Cursor < 0 || l.Cursor >= len(l.Items) {
		return "", false
	}
	return l.Items[l.Cursor], true
}

// Next moves the cursor down, wrapping to the first item
func (l *List) Next() bool {
	if len(l.Items) == 0 {
		return false
	}
	if l.Cursor < 0 || l.Cursor >= len(l.Items)-1 {
		l.Cursor = 0
	} else {
		l.Cursor++
	}
	return true
}

// Prev moves the cursor up, wrapping to the last item
func (l *List) Prev() bool {
	if len(l.Items) == 0 {
		return false
	}
	if l.Cursor <= 0 {
		l.Cursor = len(l.Items) - 1
	} else {
		l.Cursor--
	}
	return true
}

// Reset replaces the items and clears the selection
func (l *List) Reset(items []string) {
	l.Items = items
	l.Cursor = -1
}

// Replace swaps the items and keeps the selected item when it is still
// present. It reports whether the selection survived.
func (l *List) Replace(items []string) bool {
	selected, ok := l.Selected()
	l.Items = items
	l.Cursor = -1
	if !ok {
		return true
	}
	for i, item := range items {
		if item == selected {
			l.Cursor = i
			return true
		}
	}
	return false
}
