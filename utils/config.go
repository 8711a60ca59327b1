package utils

import (
	"fmt"
	"image/color"
	"os"

	yaml "gopkg.in/yaml.v2"
)

// Colour is one palette stop.
type Colour struct {
	R uint8 `yaml:"r"`
	G uint8 `yaml:"g"`
	B uint8 `yaml:"b"`
}

// Palette describes the colour ramp used to render index heatmaps.
type Palette struct {
	Interpolate bool     `yaml:"interpolate"`
	Colours     []Colour `yaml:"colours"`
}

// RGBA converts the configured stops to image colours.
func (p *Palette) RGBA() []color.RGBA {
	colours := make([]color.RGBA, len(p.Colours))
	for i, c := range p.Colours {
		colours[i] = color.RGBA{c.R, c.G, c.B, 255}
	}
	return colours
}

// Config is the server configuration. BandFiles is the optional
// explicit band-role table: when present the loader takes role→file
// from here instead of inferring roles from filename token positions.
type Config struct {
	DataDir       string            `yaml:"data_dir"`
	TemplateDir   string            `yaml:"template_dir"`
	Port          int               `yaml:"port"`
	MetricsLogDir string            `yaml:"metrics_log_dir"`
	BandFiles     map[string]string `yaml:"band_files"`
	Palette       *Palette          `yaml:"palette"`
	Verbose       bool              `yaml:"verbose"`
}

const DefaultPort = 8080

// LoadConfigFile unmarshals the YAML config document and applies
// defaults and validation.
func LoadConfigFile(configFile string) (*Config, error) {
	doc, err := os.ReadFile(configFile)
	if err != nil {
		return nil, fmt.Errorf("error while reading config file %s: %v", configFile, err)
	}

	config := &Config{}
	if err := yaml.Unmarshal(doc, config); err != nil {
		return nil, fmt.Errorf("error at YAML parsing config document %s: %v", configFile, err)
	}

	if config.DataDir == "" {
		return nil, fmt.Errorf("config %s: data_dir is required", configFile)
	}
	if config.Port <= 0 {
		config.Port = DefaultPort
	}
	if config.TemplateDir == "" {
		config.TemplateDir = "templates"
	}
	if config.Palette == nil {
		config.Palette = DefaultPalette()
	}
	if len(config.Palette.Colours) < 2 {
		return nil, fmt.Errorf("config %s: the colour palette must contain at least 2 colours", configFile)
	}

	if err := validateBandFiles(config.BandFiles); err != nil {
		return nil, fmt.Errorf("config %s: %v", configFile, err)
	}

	return config, nil
}

// DefaultPalette is a blue-to-red ramp through green, interpolated.
func DefaultPalette() *Palette {
	return &Palette{
		Interpolate: true,
		Colours: []Colour{
			{R: 0, G: 0, B: 255},
			{R: 0, G: 255, B: 0},
			{R: 255, G: 255, B: 0},
			{R: 255, G: 0, B: 0},
		},
	}
}

func validateBandFiles(bandFiles map[string]string) error {
	files := make(map[string]string)
	for role, filename := range bandFiles {
		if role == "" {
			return fmt.Errorf("band_files contains an empty role")
		}
		if filename == "" {
			return fmt.Errorf("band_files role %s has no filename", role)
		}
		if prev, found := files[filename]; found {
			return fmt.Errorf("band_files maps both %s and %s to %s", prev, role, filename)
		}
		files[filename] = role
	}
	return nil
}
