package settings

// Keys other components rely on.
const (
	AllowFileOpParallel  = "allow-file-op-parallel"
	SortChineseFirst     = "sort-chinese-first"
	DefaultWindowSize    = "default-window-size"
	DefaultSidebarWidth  = "default-side-bar-width"
	DefaultViewID        = "default-view-id"
	SortOrder            = "sort-order"
	SortColumn           = "sort-column"
	DefaultViewZoomLevel = "default-view-zoom-level"
	RemoteServerIP       = "remote-server-ip"
	SidebarBgOpacity     = "sidebar-bg-opacity"

	// Mirrors of the desktop panel's clock preferences.
	PanelTimeFormat = "ukui-control-center-panel-plugin-time"
	PanelDateFormat = "ukui-control-center-panel-plugin-date"
)

// Sort orders stored under SortOrder.
const (
	AscendingOrder  = 0
	DescendingOrder = 1
)

// First-run defaults.
const (
	defaultWindowWidth  = 850
	defaultSidebarWidth = 195
	defaultViewID       = "Icon View"
	defaultZoomLevel    = 25
	defaultSidebarAlpha = 50
	goldenRatioFraction = 0.618
)

// External schemas and the sub-keys mirrored from them.
const (
	PanelSchema = "org.ukui.control-center.panel.plugins"
	StyleSchema = "org.ukui.style"

	panelTimeKey       = "time"
	panelHourSystemKey = "hoursystem"
	panelDateKey       = "date"
	styleOpacityKey    = "peonySideBarTransparency"
)
