package client

import "testing"

func itemsEqual(got []PageItem, want []PageItem) bool {
	if len(got) != len(want) {
		return false
	}
	for i := range got {
		if got[i].Number != want[i].Number || got[i].Ellipsis != want[i].Ellipsis || got[i].Current != want[i].Current {
			return false
		}
	}
	return true
}

func TestPageWindowFirstPage(t *testing.T) {
	got := PageWindow(1, 5)
	want := []PageItem{
		{Number: 1, Current: true},
		{Number: 2},
		{Number: 3},
		{Ellipsis: true},
		{Number: 5},
	}
	if !itemsEqual(got, want) {
		t.Fatalf("PageWindow(1,5) = %+v", got)
	}
}

func TestPageWindowMiddle(t *testing.T) {
	got := PageWindow(10, 20)
	want := []PageItem{
		{Number: 1},
		{Ellipsis: true},
		{Number: 8},
		{Number: 9},
		{Number: 10, Current: true},
		{Number: 11},
		{Number: 12},
		{Ellipsis: true},
		{Number: 20},
	}
	if !itemsEqual(got, want) {
		t.Fatalf("PageWindow(10,20) = %+v", got)
	}
}

func TestPageWindowNoEllipsisWhenAdjacent(t *testing.T) {
	// Window ends at total-1: last page shortcut without ellipsis.
	got := PageWindow(4, 7)
	want := []PageItem{
		{Number: 1},
		{Number: 2},
		{Number: 3},
		{Number: 4, Current: true},
		{Number: 5},
		{Number: 6},
		{Number: 7},
	}
	if !itemsEqual(got, want) {
		t.Fatalf("PageWindow(4,7) = %+v", got)
	}
}

func TestPageWindowSinglePage(t *testing.T) {
	got := PageWindow(1, 1)
	if len(got) != 1 || got[0].Number != 1 || !got[0].Current {
		t.Fatalf("PageWindow(1,1) = %+v", got)
	}
	if PageWindow(1, 0) != nil {
		t.Fatalf("zero pages should render nothing")
	}
}

func TestPageWindowClampsCurrent(t *testing.T) {
	got := PageWindow(99, 3)
	if got[len(got)-1].Number != 3 || !got[len(got)-1].Current {
		t.Fatalf("out-of-range current not clamped: %+v", got)
	}
}
