package pipeline

import (
	"embed"
	"fmt"
	"sync"

	"gopkg.in/yaml.v3"
)

//go:embed layout_defaults.yaml
var layoutDefaultsFS embed.FS

type baseDims struct {
	Width     int `yaml:"width"`
	Height    int `yaml:"height"`
	MinWidth  int `yaml:"minWidth"`
	MinHeight int `yaml:"minHeight"`
}

type layoutConfig struct {
	Categories  map[string]baseDims `yaml:"categories"`
	Breakpoints []breakpointConfig  `yaml:"breakpoints"`
}

type breakpointConfig struct {
	Name        string `yaml:"name"`
	MinWidth    int    `yaml:"minWidth"`
	MaxWidth    int    `yaml:"maxWidth"`
	Padding     int    `yaml:"padding"`
	FontSize    int    `yaml:"fontSize"`
	Spacing     int    `yaml:"spacing"`
	Orientation string `yaml:"orientation"`
}

// fallback geometry used when the embedded YAML is missing or invalid.
var fallbackBase = baseDims{Width: 600, Height: 400, MinWidth: 320, MinHeight: 240}

var fallbackBaseOverrides = map[Category]baseDims{
	CategoryFillBlank:  {Width: 700, Height: 320, MinWidth: 360, MinHeight: 240},
	CategoryDragDrop:   {Width: 760, Height: 560, MinWidth: 400, MinHeight: 360},
	CategoryEssay:      {Width: 800, Height: 500, MinWidth: 480, MinHeight: 360},
	CategoryCodeEditor: {Width: 900, Height: 600, MinWidth: 560, MinHeight: 420},
	CategorySimulation: {Width: 900, Height: 620, MinWidth: 560, MinHeight: 440},
	CategoryDrawing:    {Width: 800, Height: 600, MinWidth: 480, MinHeight: 400},
}

var fallbackBreakpoints = []breakpointConfig{
	{Name: "xs", MinWidth: 0, MaxWidth: 479, Padding: 12, FontSize: 14, Spacing: 8, Orientation: "vertical"},
	{Name: "sm", MinWidth: 480, MaxWidth: 767, Padding: 16, FontSize: 15, Spacing: 10, Orientation: "vertical"},
	{Name: "md", MinWidth: 768, MaxWidth: 1023, Padding: 20, FontSize: 16, Spacing: 12, Orientation: "horizontal"},
	{Name: "lg", MinWidth: 1024, MaxWidth: 1279, Padding: 24, FontSize: 16, Spacing: 16, Orientation: "horizontal"},
	{Name: "xl", MinWidth: 1280, MaxWidth: 0, Padding: 32, FontSize: 18, Spacing: 20, Orientation: "horizontal"},
}

var (
	layoutOnce   sync.Once
	layoutLoaded layoutConfig
)

// loadLayoutConfig parses the embedded defaults once, falling back to the
// in-code tables when the YAML cannot be read.
func loadLayoutConfig() layoutConfig {
	layoutOnce.Do(func() {
		layoutLoaded = layoutConfig{
			Categories:  map[string]baseDims{},
			Breakpoints: fallbackBreakpoints,
		}
		raw, err := layoutDefaultsFS.ReadFile("layout_defaults.yaml")
		if err != nil {
			return
		}
		var cfg layoutConfig
		if err := yaml.Unmarshal(raw, &cfg); err != nil {
			return
		}
		if len(cfg.Categories) > 0 {
			layoutLoaded.Categories = cfg.Categories
		}
		if len(cfg.Breakpoints) == 5 {
			layoutLoaded.Breakpoints = cfg.Breakpoints
		}
	})
	return layoutLoaded
}

// baseDimsFor resolves the starting geometry for a category.
func baseDimsFor(cat Category) baseDims {
	cfg := loadLayoutConfig()
	if d, ok := cfg.Categories[string(cat)]; ok && d.Width > 0 && d.Height > 0 {
		return d
	}
	if d, ok := fallbackBaseOverrides[cat]; ok {
		return d
	}
	return fallbackBase
}

func breakpointLadder() []breakpointConfig {
	return loadLayoutConfig().Breakpoints
}

func (d baseDims) validate() error {
	if d.Width <= 0 || d.Height <= 0 {
		return fmt.Errorf("non-positive base size %dx%d", d.Width, d.Height)
	}
	if d.MinWidth > d.Width || d.MinHeight > d.Height {
		return fmt.Errorf("min size %dx%d exceeds base %dx%d", d.MinWidth, d.MinHeight, d.Width, d.Height)
	}
	return nil
}
