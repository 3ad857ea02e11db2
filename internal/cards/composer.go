package cards

import (
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"
)

// ValidationError reports an unknown style key. Invalid selections are
// rejected rather than silently falling back to the original photo.
type ValidationError struct {
	Field string
	Value string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %q", e.Field, e.Value)
}

// BackgroundPreset describes one card background choice. Kind "photo"
// renders the text over the uploaded page image; kind "color" over a
// solid fill.
type BackgroundPreset struct {
	Kind      string `yaml:"kind" json:"kind"`
	Color     string `yaml:"color,omitempty" json:"color,omitempty"`
	TextColor string `yaml:"textColor" json:"textColor"`
}

// FontPreset describes one card font choice.
type FontPreset struct {
	Family     string  `yaml:"family" json:"family"`
	Size       int     `yaml:"size" json:"size"`
	LineHeight float64 `yaml:"lineHeight" json:"lineHeight"`
}

// RenderSpec is the pure output of composition: everything a renderer
// needs to draw the card. Text passes through byte-for-byte.
type RenderSpec struct {
	Text       string           `json:"text"`
	Background BackgroundPreset `json:"background"`
	Font       FontPreset       `json:"font"`
}

// Palette is the set of style choices offered to the user.
type Palette struct {
	Backgrounds map[string]BackgroundPreset `yaml:"backgrounds"`
	Fonts       map[string]FontPreset       `yaml:"fonts"`
}

// DefaultPalette returns the built-in presets.
func DefaultPalette() *Palette {
	return &Palette{
		Backgrounds: map[string]BackgroundPreset{
			"original": {Kind: "photo", TextColor: "#ffffff"},
			"paper":    {Kind: "color", Color: "#f5f0e6", TextColor: "#2b2b2b"},
			"forest":   {Kind: "color", Color: "#1f3d2b", TextColor: "#e8f0e8"},
			"night":    {Kind: "color", Color: "#101820", TextColor: "#e6e6e6"},
			"sunset":   {Kind: "color", Color: "#e8875a", TextColor: "#2b1d14"},
		},
		Fonts: map[string]FontPreset{
			"serif":       {Family: "Noto Serif KR", Size: 18, LineHeight: 1.6},
			"sans":        {Family: "Pretendard", Size: 18, LineHeight: 1.5},
			"handwriting": {Family: "Nanum Pen Script", Size: 22, LineHeight: 1.7},
			"mono":        {Family: "JetBrains Mono", Size: 16, LineHeight: 1.6},
		},
	}
}

// MergeFile overlays user-defined presets from a yaml file onto the
// palette. Existing keys are replaced, new keys added.
func (p *Palette) MergeFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read preset file: %w", err)
	}

	var extra Palette
	if err := yaml.Unmarshal(data, &extra); err != nil {
		return fmt.Errorf("failed to parse preset file: %w", err)
	}

	for name, bg := range extra.Backgrounds {
		p.Backgrounds[name] = bg
	}
	for name, font := range extra.Fonts {
		p.Fonts[name] = font
	}

	return nil
}

// BackgroundNames returns the available background keys, sorted.
func (p *Palette) BackgroundNames() []string {
	names := make([]string, 0, len(p.Backgrounds))
	for name := range p.Backgrounds {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// FontNames returns the available font keys, sorted.
func (p *Palette) FontNames() []string {
	names := make([]string, 0, len(p.Fonts))
	for name := range p.Fonts {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Compose builds the render spec for a card. Pure: no I/O, no mutation.
// Unknown background or font keys are validation errors.
func (p *Palette) Compose(text, background, font string) (RenderSpec, error) {
	if text == "" {
		return RenderSpec{}, &ValidationError{Field: "text", Value: ""}
	}

	bg, ok := p.Backgrounds[background]
	if !ok {
		return RenderSpec{}, &ValidationError{Field: "background", Value: background}
	}

	f, ok := p.Fonts[font]
	if !ok {
		return RenderSpec{}, &ValidationError{Field: "font", Value: font}
	}

	return RenderSpec{
		Text:       text,
		Background: bg,
		Font:       f,
	}, nil
}
