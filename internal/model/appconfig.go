package model

// AppConfig holds the simulation defaults and output preferences read from
// the configuration file.
type AppConfig struct {
	Simulation SimSettings  `toml:"simulation" json:"simulation"`
	Output     OutputConfig `toml:"output" json:"output"`

	RecentDesigns []string `toml:"recent_designs" json:"recent_designs"`
}

// OutputConfig selects where and in which formats results are written.
type OutputConfig struct {
	Dir     string   `toml:"dir" json:"dir"`         // Output directory, created on demand
	Formats []string `toml:"formats" json:"formats"` // Any of OutputFormats
}

// OutputFormats lists the result formats the exporters understand.
var OutputFormats = []string{"json", "pdf", "labels", "dxf", "xlsx"}

// DefaultAppConfig returns the configuration used when no file exists.
func DefaultAppConfig() AppConfig {
	return AppConfig{
		Simulation: DefaultSettings(),
		Output: OutputConfig{
			Dir:     "out",
			Formats: []string{"json", "pdf"},
		},
		RecentDesigns: []string{},
	}
}

// AddRecentDesign moves path to the front of the recent list, keeping at
// most ten entries.
func (c *AppConfig) AddRecentDesign(path string) {
	out := []string{path}
	for _, p := range c.RecentDesigns {
		if p != path && len(out) < 10 {
			out = append(out, p)
		}
	}
	c.RecentDesigns = out
}
