package settings

// Clock layouts in the Qt date/time pattern syntax the views render with.
const (
	timeFormat24 = "HH:mm:ss"
	timeFormat12 = "hh:mm:ss AP"
	dateFormatCN = "yyyy/MM/dd"
	dateFormatEN = "yyyy-MM-dd"
)

func timeFormatFor(hourSystem string) string {
	if hourSystem == "12" {
		return timeFormat12
	}
	return timeFormat24
}

func dateFormatFor(date string) string {
	if date == "cn" {
		return dateFormatCN
	}
	return dateFormatEN
}

func (c *Cache) setTimeFormat(hourSystem string) {
	c.fmtMu.Lock()
	c.timeFormat = timeFormatFor(hourSystem)
	c.fmtMu.Unlock()
}

func (c *Cache) setDateFormat(date string) {
	c.fmtMu.Lock()
	c.dateFormat = dateFormatFor(date)
	c.fmtMu.Unlock()
}

// SystemTimeFormat returns the date and time layouts joined by a space.
// The layouts only change when the desktop panel reports new clock
// preferences.
func (c *Cache) SystemTimeFormat() string {
	c.fmtMu.Lock()
	defer c.fmtMu.Unlock()
	return c.dateFormat + " " + c.timeFormat
}
