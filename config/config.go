package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/tidwall/jsonc"
	"gopkg.in/yaml.v3"

	"github.com/ByLCY/splittext/layout"
	"github.com/ByLCY/splittext/selector"
	"github.com/ByLCY/splittext/split"
)

type Config struct {
	Selector string   `yaml:"selector" json:"selector"`
	Types    []string `yaml:"types" json:"types"`
	Classes  Classes  `yaml:"classes" json:"classes"`
	Layout   Layout   `yaml:"layout" json:"layout"`
	Server   Server   `yaml:"server" json:"server"`
}

// Classes are the class names put on line, word and char wrappers.
type Classes struct {
	Line string `yaml:"line" json:"line"`
	Word string `yaml:"word" json:"word"`
	Char string `yaml:"char" json:"char"`
}

// Layout configures the root box the measurer lays targets out in.
// Lengths are CSS strings such as "120mm" or "12pt".
type Layout struct {
	Width      string          `yaml:"width" json:"width"`
	FontSize   string          `yaml:"fontSize" json:"fontSize"`
	LineHeight string          `yaml:"lineHeight" json:"lineHeight"`
	Font       string          `yaml:"font" json:"font"`
	Fonts      map[string]Font `yaml:"fonts" json:"fonts"`
}

type Font struct {
	Src    string `yaml:"src" json:"src"`
	Style  string `yaml:"style" json:"style"`
	Family string `yaml:"family" json:"family"`
}

type Server struct {
	Port         string `yaml:"port" json:"port"`
	APIKey       string `yaml:"apiKey" json:"apiKey"`
	MaxBodyBytes int64  `yaml:"maxBodyBytes" json:"maxBodyBytes"`
}

const (
	defaultPort         = "8090"
	defaultMaxBodyBytes = 4 << 20 // 4MB
)

// Default returns the configuration used when no file is given.
func Default() Config {
	return Config{
		Types: []string{string(split.Lines), string(split.Words), string(split.Chars)},
		Classes: Classes{
			Line: split.DefaultLineClass,
			Word: split.DefaultWordClass,
			Char: split.DefaultCharClass,
		},
		Server: Server{Port: defaultPort, MaxBodyBytes: defaultMaxBodyBytes},
	}
}

// Load reads path (YAML, or JSON with comments when the extension is .json/.jsonc),
// applies environment overrides and fills defaults. An empty path skips the file.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("read config: %w", err)
		}
		switch strings.ToLower(filepath.Ext(path)) {
		case ".json", ".jsonc":
			if err := json.Unmarshal(jsonc.ToJSON(data), &cfg); err != nil {
				return cfg, fmt.Errorf("parse config %s: %w", path, err)
			}
		default:
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return cfg, fmt.Errorf("parse config %s: %w", path, err)
			}
		}
	}
	cfg.applyEnv()
	cfg.fillDefaults()
	return cfg, nil
}

func (c *Config) applyEnv() {
	c.Selector = envOr("SPLIT_SELECTOR", c.Selector)
	if v := os.Getenv("SPLIT_TYPES"); v != "" {
		c.Types = strings.Split(v, ",")
	}
	c.Layout.Width = envOr("SPLIT_WIDTH", c.Layout.Width)
	c.Server.Port = envOr("PORT", c.Server.Port)
	c.Server.APIKey = envOr("SPLIT_API_KEY", c.Server.APIKey)
	c.Server.MaxBodyBytes = envInt64("SPLIT_MAX_BODY_BYTES", c.Server.MaxBodyBytes)
}

func (c *Config) fillDefaults() {
	d := Default()
	if len(c.Types) == 0 {
		c.Types = d.Types
	}
	if c.Classes.Line == "" {
		c.Classes.Line = d.Classes.Line
	}
	if c.Classes.Word == "" {
		c.Classes.Word = d.Classes.Word
	}
	if c.Classes.Char == "" {
		c.Classes.Char = d.Classes.Char
	}
	if c.Server.Port == "" {
		c.Server.Port = d.Server.Port
	}
	if c.Server.MaxBodyBytes <= 0 {
		c.Server.MaxBodyBytes = d.Server.MaxBodyBytes
	}
}

var classPattern = regexp.MustCompile(`^-?[_a-zA-Z][_a-zA-Z0-9-]*$`)

func (c Config) Validate() error {
	if c.Selector != "" {
		if _, err := selector.Compile(c.Selector); err != nil {
			return fmt.Errorf("selector: %w", err)
		}
	}
	if _, err := split.ParseTypes(strings.Join(c.Types, ",")); err != nil {
		return fmt.Errorf("types: %w", err)
	}
	for name, class := range map[string]string{"line": c.Classes.Line, "word": c.Classes.Word, "char": c.Classes.Char} {
		if !classPattern.MatchString(class) {
			return fmt.Errorf("classes.%s: %q is not a valid class name", name, class)
		}
	}
	if _, err := c.LayoutOptions(nil); err != nil {
		return err
	}
	if c.Server.MaxBodyBytes <= 0 {
		return fmt.Errorf("server.maxBodyBytes must be positive")
	}
	return nil
}

// SplitOptions converts the types and classes sections.
func (c Config) SplitOptions() (split.Options, error) {
	types, err := split.ParseTypes(strings.Join(c.Types, ","))
	if err != nil {
		return split.Options{}, err
	}
	return split.Options{
		Types:     types,
		LineClass: c.Classes.Line,
		WordClass: c.Classes.Word,
		CharClass: c.Classes.Char,
	}, nil
}

// LayoutOptions converts the layout section; ts may be nil when only validating.
func (c Config) LayoutOptions(ts layout.Typesetter) (layout.Options, error) {
	opts := layout.Options{Typesetter: ts, Font: c.Layout.Font}
	var err error
	if opts.Width, err = absoluteLength("layout.width", c.Layout.Width); err != nil {
		return opts, err
	}
	if opts.FontSize, err = absoluteLength("layout.fontSize", c.Layout.FontSize); err != nil {
		return opts, err
	}
	if c.Layout.LineHeight != "" {
		spec, ok := layout.ParseLineHeight(c.Layout.LineHeight)
		if !ok {
			return opts, fmt.Errorf("layout.lineHeight: invalid value %q", c.Layout.LineHeight)
		}
		opts.LineHeight = spec
	}
	if len(c.Layout.Fonts) > 0 {
		opts.Fonts = layout.DefaultFonts()
		for name, f := range c.Layout.Fonts {
			if f.Src == "" {
				return opts, fmt.Errorf("layout.fonts.%s: src is required", name)
			}
			opts.Fonts[name] = layout.FontResource{Name: name, Src: f.Src, Style: f.Style, Family: f.Family}
		}
	}
	if opts.Font != "" && len(c.Layout.Fonts) > 0 {
		if _, ok := opts.Fonts[opts.Font]; !ok {
			return opts, fmt.Errorf("layout.font: %q is not defined in layout.fonts", opts.Font)
		}
	}
	return opts, nil
}

func absoluteLength(field, value string) (float64, error) {
	if value == "" {
		return 0, nil
	}
	l, ok := layout.ParseLength(value)
	if !ok || l.Value <= 0 || l.IsRelative() {
		return 0, fmt.Errorf("%s: %q is not a positive absolute length", field, value)
	}
	if l.Unit == layout.UnitNone {
		l.Unit = layout.UnitMM
	}
	return l.ToMM(), nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt64(key string, fallback int64) int64 {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n
		}
	}
	return fallback
}
