package sidebar

import (
	"testing"

	"github.com/stretchr/testify/require"
)

type entry struct {
	name string
	kind ItemType
}

func (e entry) DisplayName() string { return e.name }
func (e entry) Type() ItemType      { return e.kind }

func fs(name string) Item { return entry{name: name, kind: FileSystemItem} }

func TestFilterAccepts(t *testing.T) {
	require.False(t, FilterAccepts(fs(".git")))
	require.True(t, FilterAccepts(fs("Documents")))
	require.True(t, FilterAccepts(fs("")))
	require.True(t, FilterAccepts(nil))
}

func TestLess(t *testing.T) {
	require.True(t, Less(fs("Documents"), fs("Music")))
	require.False(t, Less(fs("Music"), fs("Documents")))
	require.True(t, Less(fs("Music"), fs("documents")))

	network := entry{name: "A", kind: NetworkItem}
	require.True(t, Less(fs("B"), network))
	require.True(t, Less(network, fs("B")))
}

func TestProxyFiltersAndSorts(t *testing.T) {
	source := []Item{fs("Videos"), fs(".cache"), nil, fs("Desktop"), fs("Music")}
	p := NewProxy(source)

	require.Equal(t, 4, p.Len())
	var names []string
	for row := 0; row < p.Len(); row++ {
		item := p.ItemFromIndex(row)
		if item == nil {
			names = append(names, "<nil>")
			continue
		}
		names = append(names, item.DisplayName())
	}
	require.NotContains(t, names, ".cache")
	require.Contains(t, names, "<nil>")

	src, ok := p.MapToSource(0)
	require.True(t, ok)
	require.Equal(t, source[src], p.ItemFromIndex(0))

	_, ok = p.MapToSource(4)
	require.False(t, ok)
	require.Nil(t, p.ItemFromIndex(-1))
}

func TestProxyOrdersFileSystemRows(t *testing.T) {
	p := NewProxy([]Item{fs("Videos"), fs("Desktop"), fs("Music")})
	require.Equal(t, "Desktop", p.ItemFromIndex(0).DisplayName())
	require.Equal(t, "Music", p.ItemFromIndex(1).DisplayName())
	require.Equal(t, "Videos", p.ItemFromIndex(2).DisplayName())

	p.SetSource([]Item{fs(".hidden")})
	require.Equal(t, 0, p.Len())
}
