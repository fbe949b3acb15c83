package ui

// Config contains window and input related settings.
type Config struct {
	Title string // window title
	Scale int    // integer upscaling factor
	// Viewport shows the 160x144 window at SCX/SCY instead of the whole
	// 256x256 background map.
	Viewport bool
	// Screenshots
	ScreenshotDir   string
	ScreenshotScale int
}

// Defaults fills missing fields with reasonable defaults.
func (c *Config) Defaults() {
	if c.Title == "" {
		c.Title = "gbemu"
	}
	if c.Scale <= 0 {
		c.Scale = 2
	}
	if c.ScreenshotDir == "" {
		c.ScreenshotDir = "."
	}
	if c.ScreenshotScale <= 0 {
		c.ScreenshotScale = 1
	}
}
