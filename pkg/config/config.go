package config

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/pseudomuto/dbtemplate/pkg/consts"
	"github.com/pseudomuto/dbtemplate/pkg/format"
	"github.com/pseudomuto/dbtemplate/pkg/parser"
)

type (
	// Parser holds settings applied to every parse.
	Parser struct {
		// Filename is the label reported in error positions
		Filename string `yaml:"filename,omitempty"`

		// StrictDependencies validates that each dependency directive names
		// tables defined in the template
		StrictDependencies bool `yaml:"strict_dependencies,omitempty"`
	}

	// Format holds settings for rendering templates.
	Format struct {
		// UppercaseKeywords whether keywords are written in upper case
		UppercaseKeywords *bool `yaml:"uppercase_keywords,omitempty"`

		// DirectiveStyle is one of braces, comment or preserve
		DirectiveStyle string `yaml:"directive_style,omitempty"`
	}

	// Config represents the template tooling configuration.
	Config struct {
		Parser Parser `yaml:"parser"`
		Format Format `yaml:"format"`
	}
)

// LoadConfig parses a configuration from the provided io.Reader and fills in
// defaults for every unset value.
//
// Example:
//
//	yamlData := `
//	parser:
//	  filename: shop.sql
//	  strict_dependencies: true
//	format:
//	  directive_style: comment
//	`
//
//	cfg, err := config.LoadConfig(strings.NewReader(yamlData))
//	if err != nil {
//		panic(err)
//	}
//
//	doc, err := parser.New(cfg.ParserOptions()...).ParseString(src)
func LoadConfig(r io.Reader) (*Config, error) {
	var cfg Config
	if err := yaml.NewDecoder(r).Decode(&cfg); err != nil {
		return nil, errors.Wrap(err, "failed to unmarshal config")
	}

	if cfg.Format.UppercaseKeywords == nil {
		upper := consts.DefaultUppercaseKeywords
		cfg.Format.UppercaseKeywords = &upper
	}

	style, err := format.ParseDirectiveStyle(cfg.Format.DirectiveStyle)
	if err != nil {
		return nil, errors.Wrap(err, "failed to unmarshal config")
	}
	cfg.Format.DirectiveStyle = string(style)

	return &cfg, nil
}

// LoadConfigFile loads a configuration from the specified file path.
// This is a convenience function that opens the file and calls LoadConfig.
func LoadConfigFile(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open file: %s", path)
	}
	defer func() { _ = f.Close() }()

	return LoadConfig(f)
}

// LoadDefault loads dbtemplate.yaml from dir when it exists and returns the
// default configuration otherwise.
func LoadDefault(dir string) (*Config, error) {
	path := filepath.Join(dir, consts.ConfigFile)
	if _, err := os.Stat(path); os.IsNotExist(err) {
		upper := consts.DefaultUppercaseKeywords
		return &Config{
			Parser: Parser{StrictDependencies: consts.DefaultStrictDependencies},
			Format: Format{UppercaseKeywords: &upper, DirectiveStyle: consts.DefaultDirectiveStyle},
		}, nil
	}

	return LoadConfigFile(path)
}

// ParserOptions converts the parser section into parser options. The logger,
// when non-nil, is attached as well.
func (c *Config) ParserOptions(logger *slog.Logger) []parser.Option {
	opts := []parser.Option{parser.WithLogger(logger)}
	if c.Parser.Filename != "" {
		opts = append(opts, parser.WithFilename(c.Parser.Filename))
	}
	if c.Parser.StrictDependencies {
		opts = append(opts, parser.WithStrictDependencies())
	}
	return opts
}

// GetParser returns a parser configured from the parser section.
func (c *Config) GetParser(logger *slog.Logger) *parser.Parser {
	return parser.New(c.ParserOptions(logger)...)
}

// GetFormatter returns a formatter configured from the format section.
func (c *Config) GetFormatter() *format.Formatter {
	opts := format.DefaultOptions()
	if c.Format.UppercaseKeywords != nil {
		opts.UppercaseKeywords = *c.Format.UppercaseKeywords
	}
	if c.Format.DirectiveStyle != "" {
		opts.DirectiveStyle = format.DirectiveStyle(c.Format.DirectiveStyle)
	}
	return format.New(opts)
}
