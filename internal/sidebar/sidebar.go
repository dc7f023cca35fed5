// Package sidebar filters and orders the rows of the navigation sidebar.
package sidebar

import (
	"sort"
	"strings"
)

// ItemType classifies a sidebar row.
type ItemType int

const (
	FileSystemItem ItemType = iota
	SeparatorItem
	NetworkItem
	VfsItem
	FavoriteItem
	PersonalItem
)

// HiddenMarker prefixes the display name of entries the sidebar hides.
const HiddenMarker = "."

// Item is one row supplied by the sidebar's source model.
type Item interface {
	DisplayName() string
	Type() ItemType
}

// FilterAccepts hides items whose display name starts with HiddenMarker.
// Rows without an item are kept.
func FilterAccepts(item Item) bool {
	if item == nil {
		return true
	}
	return !strings.HasPrefix(item.DisplayName(), HiddenMarker)
}

// Less orders two file system items by display name, byte-wise.
//
// Whenever either side is not a file system item it reports true, so it
// is not a strict weak ordering: Less(a, b) and Less(b, a) can both hold.
// Rows of other types therefore keep no meaningful relative order.
func Less(left, right Item) bool {
	if left.Type() != FileSystemItem || right.Type() != FileSystemItem {
		return true
	}
	return left.DisplayName() < right.DisplayName()
}

// Proxy is the filtered, ordered view of one level of the source model.
type Proxy struct {
	source []Item
	rows   []int
}

func NewProxy(source []Item) *Proxy {
	p := &Proxy{}
	p.SetSource(source)
	return p
}

// SetSource replaces the source rows and rebuilds the view.
func (p *Proxy) SetSource(source []Item) {
	p.source = append([]Item(nil), source...)
	p.rows = p.rows[:0]
	for i, item := range p.source {
		if FilterAccepts(item) {
			p.rows = append(p.rows, i)
		}
	}
	sort.SliceStable(p.rows, func(i, j int) bool {
		l, r := p.source[p.rows[i]], p.source[p.rows[j]]
		if l == nil || r == nil {
			return false
		}
		return Less(l, r)
	})
}

// Len is the number of visible rows.
func (p *Proxy) Len() int { return len(p.rows) }

// MapToSource returns the source row shown at proxy row.
func (p *Proxy) MapToSource(row int) (int, bool) {
	if row < 0 || row >= len(p.rows) {
		return 0, false
	}
	return p.rows[row], true
}

// ItemFromIndex returns the item shown at proxy row, or nil.
func (p *Proxy) ItemFromIndex(row int) Item {
	src, ok := p.MapToSource(row)
	if !ok {
		return nil
	}
	return p.source[src]
}
