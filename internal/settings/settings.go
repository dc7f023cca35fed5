// Package settings holds the file manager's preferences in memory and
// mirrors them to a durable store in the background.
//
// Reads are served from memory and always see the latest write, even
// when the durable copy has not caught up. Persistence is best effort: a
// write that cannot get the storage lock within the configured timeout is
// dropped, logged and never retried. Nothing here returns an error to the
// caller; a missing key reads as a null Value.
package settings

import (
	"encoding/json"
	"errors"
	"math"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/text/language"

	"github.com/leonardcser/fm-prefs/internal/feed"
	"github.com/leonardcser/fm-prefs/internal/locale"
	"github.com/leonardcser/fm-prefs/internal/store"
)

const (
	DefaultLockTimeout = 1 * time.Second
	DefaultQueueSize   = 64
)

var ErrNoStore = errors.New("settings: durable store is required")

// Palette receives a refresh request whenever the desktop style changes.
type Palette interface {
	PaletteChanged()
}

type Options struct {
	// Store is the durable backend. Required.
	Store store.KV
	// Panel and Style are the desktop configuration schemas. Nil means
	// the schema is not installed.
	Panel feed.Feed
	Style feed.Feed
	// Locale selects first-run sort preferences. language.Und means
	// locale.Detect().
	Locale language.Tag
	// Palette is told about style changes. May be nil.
	Palette Palette
	Logger  *zap.Logger
	// LockTimeout bounds each background write's wait for the storage
	// lock. Zero means DefaultLockTimeout.
	LockTimeout time.Duration
	// QueueSize is the initial capacity of the write queue.
	QueueSize int
	// NotifyOnSet makes SetValue emit a change notification like Reset
	// does. Off by default.
	NotifyOnSet bool
}

// Cache is the process-wide preferences cache. Construct one with New at
// startup and hand it to the components that need it.
type Cache struct {
	mu     sync.RWMutex
	values map[string]Value

	kv          store.KV
	persist     *persister
	changed     *signal
	log         *zap.Logger
	palette     Palette
	notifyOnSet bool

	fmtMu      sync.Mutex
	dateFormat string
	timeFormat string

	cancels []func()
}

// New loads the durable store, applies first-run defaults and subscribes
// to whichever desktop schemas are installed.
func New(opts Options) (*Cache, error) {
	if opts.Store == nil {
		return nil, ErrNoStore
	}
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	if opts.LockTimeout <= 0 {
		opts.LockTimeout = DefaultLockTimeout
	}
	if opts.QueueSize <= 0 {
		opts.QueueSize = DefaultQueueSize
	}
	if opts.Locale == language.Und {
		opts.Locale = locale.Detect()
	}

	c := &Cache{
		values:      make(map[string]Value),
		kv:          opts.Store,
		persist:     newPersister(opts.Store, log, opts.LockTimeout, opts.QueueSize),
		changed:     newSignal(),
		log:         log,
		palette:     opts.Palette,
		notifyOnSet: opts.NotifyOnSet,
		dateFormat:  dateFormatCN,
		timeFormat:  timeFormat24,
	}

	stored := map[string]bool{}
	if keys, err := opts.Store.Keys(); err != nil {
		log.Warn("listing durable keys failed", zap.Error(err))
	} else {
		for _, k := range keys {
			stored[k] = true
		}
	}
	if !stored[AllowFileOpParallel] {
		log.Debug("first run default", zap.String("key", AllowFileOpParallel), zap.Bool("value", true))
		c.SetValue(AllowFileOpParallel, Bool(true))
	}
	if locale.PrefersChinese(opts.Locale) && !stored[SortChineseFirst] {
		c.SetValue(SortChineseFirst, Bool(true))
	}

	c.loadFrom(opts.Store, false)

	c.attachPanel(orAbsent(opts.Panel, PanelSchema))
	c.attachStyle(orAbsent(opts.Style, StyleSchema))

	c.applyDefaults()
	return c, nil
}

func orAbsent(f feed.Feed, schema string) feed.Feed {
	if f == nil {
		return feed.Absent{Schema: schema}
	}
	return f
}

func (c *Cache) attachPanel(f feed.Feed) {
	if !f.Present() {
		return
	}
	c.cancels = append(c.cancels, f.Subscribe(func(key, value string) {
		switch key {
		case panelHourSystemKey, panelTimeKey:
			c.mirror(PanelTimeFormat, String(value))
			c.setTimeFormat(value)
		case panelDateKey:
			c.mirror(PanelDateFormat, String(value))
			c.setDateFormat(value)
		}
	}))

	timeValue, _ := f.Get(panelTimeKey)
	dateValue, _ := f.Get(panelDateKey)
	c.mirror(PanelTimeFormat, String(timeValue))
	c.mirror(PanelDateFormat, String(dateValue))
	c.setTimeFormat(timeValue)
	c.setDateFormat(dateValue)
}

func (c *Cache) attachStyle(f feed.Feed) {
	c.store(SidebarBgOpacity, Int(defaultSidebarAlpha))
	if !f.Present() {
		return
	}
	c.cancels = append(c.cancels, f.Subscribe(func(key, value string) {
		if key != styleOpacityKey {
			return
		}
		c.mirror(SidebarBgOpacity, opacityValue(value))
		if c.palette != nil {
			c.palette.PaletteChanged()
		}
	}))
	if v, ok := f.Get(styleOpacityKey); ok {
		c.store(SidebarBgOpacity, opacityValue(v))
	}
}

func opacityValue(raw string) Value {
	if v := ParseValue(raw); v.Kind() == KindInt {
		return v
	}
	return String(raw)
}

func (c *Cache) applyDefaults() {
	width, ok := c.GetValue(DefaultSidebarWidth).AsInt()
	if c.GetValue(DefaultWindowSize).IsNull() || !ok || width <= 0 {
		height := int(math.Round(defaultWindowWidth * goldenRatioFraction))
		c.SetValue(DefaultWindowSize, Size(defaultWindowWidth, height))
		c.SetValue(DefaultSidebarWidth, Int(defaultSidebarWidth))
		c.log.Debug("first run default", zap.String("key", DefaultSidebarWidth), zap.Int("value", defaultSidebarWidth))
	}
	if c.GetValue(DefaultViewID).IsNull() {
		c.SetValue(DefaultViewID, String(defaultViewID))
	}
	if c.GetValue(SortOrder).IsNull() {
		c.SetValue(SortOrder, Enum(AscendingOrder))
	}
	if c.GetValue(SortColumn).IsNull() {
		c.SetValue(SortColumn, Int(0))
	}
	if c.GetValue(DefaultViewZoomLevel).IsNull() {
		c.SetValue(DefaultViewZoomLevel, Int(defaultZoomLevel))
	}
	if c.GetValue(RemoteServerIP).IsNull() {
		c.SetValue(RemoteServerIP, StringList(nil))
	}
}

// loadFrom copies every durable entry into the cache. With replace the
// cache is emptied first.
func (c *Cache) loadFrom(kv store.KV, replace bool) bool {
	all, err := kv.All()
	if err != nil {
		c.log.Warn("loading durable settings failed", zap.Error(err))
		return false
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if replace {
		c.values = make(map[string]Value, len(all))
	}
	for k, raw := range all {
		c.values[k] = c.decode(k, raw)
	}
	return true
}

func (c *Cache) decode(key string, raw []byte) Value {
	var v Value
	if err := json.Unmarshal(raw, &v); err != nil {
		c.log.Warn("undecodable durable value kept as text", zap.String("key", key), zap.Error(err))
		return String(string(raw))
	}
	return v
}

func (c *Cache) store(key string, v Value) {
	c.mu.Lock()
	c.values[key] = v
	c.mu.Unlock()
}

// mirror records a value owned by a desktop schema and notifies observers.
// Mirrored values are not written to the durable store.
func (c *Cache) mirror(key string, v Value) {
	c.store(key, v)
	c.changed.emit(key)
}

// GetValue returns the cached value for key, or a null Value.
func (c *Cache) GetValue(key string) Value {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.values[key]
}

// IsExist reports whether key holds a non-null value.
func (c *Cache) IsExist(key string) bool {
	return !c.GetValue(key).IsNull()
}

// Keys returns the cached keys in lexical order.
func (c *Cache) Keys() []string {
	c.mu.RLock()
	keys := make([]string, 0, len(c.values))
	for k := range c.values {
		keys = append(keys, k)
	}
	c.mu.RUnlock()
	sort.Strings(keys)
	return keys
}

// SetValue updates the cache immediately and queues the durable write.
// Observers are only notified when the cache was built with NotifyOnSet.
func (c *Cache) SetValue(key string, v Value) {
	c.store(key, v)
	raw, err := json.Marshal(v)
	if err != nil {
		c.log.Warn("cannot encode setting", zap.String("key", key), zap.Error(err))
	} else {
		c.persist.put(key, raw)
	}
	if c.notifyOnSet {
		c.changed.emit(key)
	}
}

// Reset drops key from the cache, notifies observers and queues the
// durable removal.
func (c *Cache) Reset(key string) {
	c.mu.Lock()
	delete(c.values, key)
	c.mu.Unlock()
	c.changed.emit(key)
	c.persist.remove(key)
}

// ResetAll empties the cache, notifies observers once per dropped key in
// lexical order and queues a durable clear.
func (c *Cache) ResetAll() {
	c.mu.Lock()
	keys := make([]string, 0, len(c.values))
	for k := range c.values {
		keys = append(keys, k)
	}
	c.values = make(map[string]Value)
	c.mu.Unlock()

	sort.Strings(keys)
	for _, k := range keys {
		c.changed.emit(k)
	}
	c.persist.clear()
}

// ForceSync waits for queued writes, flushes the durable store and
// reloads from it: only key when one is given, everything otherwise.
// It blocks on storage I/O. On a storage error the cache is left as is.
func (c *Cache) ForceSync(key string) {
	c.persist.flush()
	c.persist.lockStorage()
	defer c.persist.unlockStorage()

	if err := c.kv.Sync(); err != nil {
		c.log.Warn("durable sync failed", zap.Error(err))
	}
	if key == "" {
		c.loadFrom(c.kv, true)
		return
	}
	raw, err := c.kv.Get(key)
	switch {
	case errors.Is(err, store.ErrNotFound):
		c.mu.Lock()
		delete(c.values, key)
		c.mu.Unlock()
	case err != nil:
		c.log.Warn("durable read failed", zap.String("key", key), zap.Error(err))
	default:
		c.store(key, c.decode(key, raw))
	}
}

// Subscribe registers fn for every value-changed notification.
func (c *Cache) Subscribe(fn Observer) (unsubscribe func()) {
	return c.changed.subscribe("", fn)
}

// SubscribeKey registers fn for notifications about key only.
func (c *Cache) SubscribeKey(key string, fn Observer) (unsubscribe func()) {
	if key == "" {
		return func() {}
	}
	return c.changed.subscribe(key, fn)
}

// Flush blocks until every queued durable write has been attempted.
func (c *Cache) Flush() {
	c.persist.flush()
}

// Close detaches from the desktop schemas and drains the write queue.
// The durable store stays open; its owner closes it.
func (c *Cache) Close() {
	for _, cancel := range c.cancels {
		cancel()
	}
	c.cancels = nil
	c.persist.close()
}
