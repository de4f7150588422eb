package client

// PageItem is one pagination control: a numbered button or an ellipsis.
type PageItem struct {
	Number   int
	Ellipsis bool
	Current  bool
}

// PageWindow renders the bounded page-button row: the current page ±2,
// plus first/last shortcuts with ellipses when the window does not
// reach the edges.
func PageWindow(current, total int) []PageItem {
	if total < 1 {
		return nil
	}
	if current < 1 {
		current = 1
	}
	if current > total {
		current = total
	}
	start := current - 2
	if start < 1 {
		start = 1
	}
	end := current + 2
	if end > total {
		end = total
	}

	var items []PageItem
	if start > 1 {
		items = append(items, PageItem{Number: 1})
		if start > 2 {
			items = append(items, PageItem{Ellipsis: true})
		}
	}
	for p := start; p <= end; p++ {
		items = append(items, PageItem{Number: p, Current: p == current})
	}
	if end < total {
		if end < total-1 {
			items = append(items, PageItem{Ellipsis: true})
		}
		items = append(items, PageItem{Number: total})
	}
	return items
}
