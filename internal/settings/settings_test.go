package settings

import (
	"encoding/json"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
	"golang.org/x/text/language"

	"github.com/leonardcser/fm-prefs/internal/feed"
	"github.com/leonardcser/fm-prefs/internal/store"
)

func openStore(t *testing.T) *store.Store {
	t.Helper()
	kv, err := store.Open(filepath.Join(t.TempDir(), "prefs.bbolt"), store.Options{})
	require.NoError(t, err)
	t.Cleanup(func() { _ = kv.Close() })
	return kv
}

func newCache(t *testing.T, opts Options) *Cache {
	t.Helper()
	if opts.Store == nil {
		opts.Store = openStore(t)
	}
	if opts.Locale == language.Und {
		opts.Locale = language.English
	}
	c, err := New(opts)
	require.NoError(t, err)
	t.Cleanup(c.Close)
	return c
}

func putRaw(t *testing.T, kv store.KV, key string, v Value) {
	t.Helper()
	raw, err := json.Marshal(v)
	require.NoError(t, err)
	require.NoError(t, kv.Put(key, raw))
}

type recorder struct {
	mu   sync.Mutex
	keys []string
}

func (r *recorder) observe(key string) {
	r.mu.Lock()
	r.keys = append(r.keys, key)
	r.mu.Unlock()
}

func (r *recorder) got() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.keys...)
}

type countingPalette struct{ n int }

func (p *countingPalette) PaletteChanged() { p.n++ }

func TestNewRequiresStore(t *testing.T) {
	_, err := New(Options{})
	require.ErrorIs(t, err, ErrNoStore)
}

func TestFirstRunDefaults(t *testing.T) {
	kv := openStore(t)
	c := newCache(t, Options{Store: kv})

	require.True(t, c.GetValue(AllowFileOpParallel).AsBool())
	require.False(t, c.IsExist(SortChineseFirst))

	width, ok := c.GetValue(DefaultSidebarWidth).AsInt()
	require.True(t, ok)
	require.EqualValues(t, 195, width)

	size, ok := c.GetValue(DefaultWindowSize).AsSize()
	require.True(t, ok)
	require.Equal(t, Dimensions{Width: 850, Height: 525}, size)

	zoom, _ := c.GetValue(DefaultViewZoomLevel).AsInt()
	require.EqualValues(t, 25, zoom)
	require.True(t, c.GetValue(SortOrder).Equal(Enum(AscendingOrder)))
	require.True(t, c.GetValue(SortColumn).Equal(Int(0)))
	require.Equal(t, "Icon View", c.GetValue(DefaultViewID).AsString())

	remote := c.GetValue(RemoteServerIP)
	require.Equal(t, KindStringList, remote.Kind())
	require.Empty(t, remote.AsStringList())

	opacity, _ := c.GetValue(SidebarBgOpacity).AsInt()
	require.EqualValues(t, 50, opacity)

	c.Flush()
	keys, err := kv.Keys()
	require.NoError(t, err)
	require.ElementsMatch(t, []string{
		AllowFileOpParallel, DefaultWindowSize, DefaultSidebarWidth, DefaultViewID,
		SortOrder, SortColumn, DefaultViewZoomLevel, RemoteServerIP,
	}, keys)
}

func TestChineseLocaleSortsChineseFirst(t *testing.T) {
	c := newCache(t, Options{Locale: language.MustParse("zh-CN")})
	require.True(t, c.GetValue(SortChineseFirst).AsBool())
}

func TestStoredValuesWin(t *testing.T) {
	kv := openStore(t)
	putRaw(t, kv, AllowFileOpParallel, Bool(false))
	putRaw(t, kv, SortChineseFirst, Bool(false))
	putRaw(t, kv, DefaultWindowSize, Size(1024, 768))
	putRaw(t, kv, DefaultSidebarWidth, Int(240))
	putRaw(t, kv, DefaultViewZoomLevel, Int(70))

	c := newCache(t, Options{Store: kv, Locale: language.MustParse("zh-CN")})
	require.False(t, c.GetValue(AllowFileOpParallel).AsBool())
	require.False(t, c.GetValue(SortChineseFirst).AsBool())
	size, _ := c.GetValue(DefaultWindowSize).AsSize()
	require.Equal(t, Dimensions{Width: 1024, Height: 768}, size)
	width, _ := c.GetValue(DefaultSidebarWidth).AsInt()
	require.EqualValues(t, 240, width)
	zoom, _ := c.GetValue(DefaultViewZoomLevel).AsInt()
	require.EqualValues(t, 70, zoom)
}

func TestNonPositiveSidebarWidthResetsGeometry(t *testing.T) {
	kv := openStore(t)
	putRaw(t, kv, DefaultWindowSize, Size(1024, 768))
	putRaw(t, kv, DefaultSidebarWidth, Int(0))

	c := newCache(t, Options{Store: kv})
	width, _ := c.GetValue(DefaultSidebarWidth).AsInt()
	require.EqualValues(t, 195, width)
	size, _ := c.GetValue(DefaultWindowSize).AsSize()
	require.Equal(t, Dimensions{Width: 850, Height: 525}, size)
}

func TestUndecodableValueKeptAsText(t *testing.T) {
	kv := openStore(t)
	require.NoError(t, kv.Put("legacy", []byte("plain text")))
	c := newCache(t, Options{Store: kv})
	require.Equal(t, "plain text", c.GetValue("legacy").AsString())
}

func TestSetValueVisibleImmediatelyAndSilent(t *testing.T) {
	kv := openStore(t)
	c := newCache(t, Options{Store: kv})
	var rec recorder
	c.Subscribe(rec.observe)

	c.SetValue("view.mode", String("List View"))
	require.Equal(t, "List View", c.GetValue("view.mode").AsString())
	require.True(t, c.IsExist("view.mode"))
	require.Empty(t, rec.got())

	c.Flush()
	raw, err := kv.Get("view.mode")
	require.NoError(t, err)
	var v Value
	require.NoError(t, json.Unmarshal(raw, &v))
	require.True(t, v.Equal(String("List View")))
}

func TestNotifyOnSet(t *testing.T) {
	c := newCache(t, Options{NotifyOnSet: true})
	var rec recorder
	c.SubscribeKey("a", rec.observe)
	c.SetValue("a", Int(1))
	c.SetValue("b", Int(2))
	require.Equal(t, []string{"a"}, rec.got())
}

func TestSetNullIsNotExist(t *testing.T) {
	c := newCache(t, Options{})
	c.SetValue("k", Null())
	require.False(t, c.IsExist("k"))
	require.True(t, c.GetValue("missing").IsNull())
}

func TestResetNotifiesOnce(t *testing.T) {
	kv := openStore(t)
	c := newCache(t, Options{Store: kv})
	c.SetValue("k", Int(3))

	var rec recorder
	unsubscribe := c.Subscribe(rec.observe)
	c.Reset("k")
	require.False(t, c.IsExist("k"))
	require.Equal(t, []string{"k"}, rec.got())

	unsubscribe()
	c.Reset("k")
	require.Equal(t, []string{"k"}, rec.got())

	c.Flush()
	_, err := kv.Get("k")
	require.ErrorIs(t, err, store.ErrNotFound)
}

func TestResetAll(t *testing.T) {
	kv := openStore(t)
	c := newCache(t, Options{Store: kv})
	before := c.Keys()
	require.NotEmpty(t, before)

	var rec recorder
	c.Subscribe(rec.observe)
	c.ResetAll()

	require.Equal(t, before, rec.got())
	require.Empty(t, c.Keys())

	c.Flush()
	keys, err := kv.Keys()
	require.NoError(t, err)
	require.Empty(t, keys)
}

func TestForceSyncReloadsEverything(t *testing.T) {
	kv := openStore(t)
	c := newCache(t, Options{Store: kv})
	c.SetValue("queued", Int(9))
	putRaw(t, kv, "external", String("written elsewhere"))

	c.ForceSync("")

	keys, err := kv.Keys()
	require.NoError(t, err)
	require.Equal(t, keys, c.Keys())
	require.Contains(t, keys, "queued")
	require.Equal(t, "written elsewhere", c.GetValue("external").AsString())
	require.False(t, c.IsExist(SidebarBgOpacity))
}

func TestForceSyncSingleKey(t *testing.T) {
	kv := openStore(t)
	c := newCache(t, Options{Store: kv})
	c.Flush()

	putRaw(t, kv, DefaultViewZoomLevel, Int(80))
	putRaw(t, kv, SortColumn, Int(3))
	c.ForceSync(DefaultViewZoomLevel)

	zoom, _ := c.GetValue(DefaultViewZoomLevel).AsInt()
	require.EqualValues(t, 80, zoom)
	col, _ := c.GetValue(SortColumn).AsInt()
	require.EqualValues(t, 0, col)

	c.ForceSync("never-stored")
	require.False(t, c.IsExist("never-stored"))
}

func TestDurableWritesKeepCallOrder(t *testing.T) {
	kv := openStore(t)
	c := newCache(t, Options{Store: kv})
	for i := 0; i < 200; i++ {
		c.SetValue("counter", Int(int64(i)))
	}
	c.Reset("other")
	c.SetValue("other", Int(1))
	c.Flush()

	raw, err := kv.Get("counter")
	require.NoError(t, err)
	var v Value
	require.NoError(t, json.Unmarshal(raw, &v))
	require.True(t, v.Equal(Int(199)))

	_, err = kv.Get("other")
	require.NoError(t, err)
}

func TestBusyStorageSkipsWrite(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	kv := openStore(t)
	c := newCache(t, Options{Store: kv, LockTimeout: 20 * time.Millisecond, Logger: zap.New(core)})
	c.Flush()

	c.persist.lockStorage()
	c.SetValue("k", Int(1))
	c.Flush()
	c.persist.unlockStorage()

	require.EqualValues(t, 1, mustInt(t, c.GetValue("k")))
	_, err := kv.Get("k")
	require.ErrorIs(t, err, store.ErrNotFound)
	require.Equal(t, 1, logs.FilterMessage("storage busy, durable write skipped").Len())
}

func mustInt(t *testing.T, v Value) int64 {
	t.Helper()
	i, ok := v.AsInt()
	require.True(t, ok)
	return i
}

func TestWritesAfterCloseAreDropped(t *testing.T) {
	kv := openStore(t)
	c, err := New(Options{Store: kv, Locale: language.English})
	require.NoError(t, err)
	c.Close()
	c.Close()

	c.SetValue("late", Int(1))
	c.Flush()
	require.True(t, c.IsExist("late"))
	_, err = kv.Get("late")
	require.ErrorIs(t, err, store.ErrNotFound)
}

func TestPanelFeedMirrorsClockFormat(t *testing.T) {
	panel := feed.NewMemory(map[string]string{"time": "12", "date": "cn"})
	c := newCache(t, Options{Panel: panel})

	require.Equal(t, "yyyy/MM/dd hh:mm:ss AP", c.SystemTimeFormat())
	require.Equal(t, "12", c.GetValue(PanelTimeFormat).AsString())
	require.Equal(t, "cn", c.GetValue(PanelDateFormat).AsString())

	var rec recorder
	c.Subscribe(rec.observe)
	panel.Set("date", "en")
	panel.Set("hoursystem", "24")
	panel.Set("unrelated", "x")

	require.Equal(t, []string{PanelDateFormat, PanelTimeFormat}, rec.got())
	require.Equal(t, "yyyy-MM-dd HH:mm:ss", c.SystemTimeFormat())
	require.Equal(t, "en", c.GetValue(PanelDateFormat).AsString())
}

func TestSystemTimeFormatWithoutPanel(t *testing.T) {
	c := newCache(t, Options{})
	require.Equal(t, "yyyy/MM/dd HH:mm:ss", c.SystemTimeFormat())
	require.False(t, c.IsExist(PanelTimeFormat))
}

func TestStyleFeedMirrorsOpacity(t *testing.T) {
	style := feed.NewMemory(map[string]string{"peonySideBarTransparency": "35"})
	palette := &countingPalette{}
	c := newCache(t, Options{Style: style, Palette: palette})
	require.EqualValues(t, 35, mustInt(t, c.GetValue(SidebarBgOpacity)))

	var rec recorder
	c.SubscribeKey(SidebarBgOpacity, rec.observe)
	style.Set("peonySideBarTransparency", "80")
	style.Set("otherKey", "1")

	require.EqualValues(t, 80, mustInt(t, c.GetValue(SidebarBgOpacity)))
	require.Equal(t, 1, palette.n)
	require.Equal(t, []string{SidebarBgOpacity}, rec.got())
}

func TestCloseDetachesFeeds(t *testing.T) {
	style := feed.NewMemory(nil)
	c, err := New(Options{Store: openStore(t), Style: style, Locale: language.English})
	require.NoError(t, err)
	c.Close()

	style.Set("peonySideBarTransparency", "10")
	require.EqualValues(t, 50, mustInt(t, c.GetValue(SidebarBgOpacity)))
}

func TestSchedulerRejectsBadSpec(t *testing.T) {
	c := newCache(t, Options{})
	_, err := NewScheduler(c, "not a schedule")
	require.Error(t, err)

	s, err := NewScheduler(c, "@every 1h")
	require.NoError(t, err)
	s.Start()
	s.Stop()
}
