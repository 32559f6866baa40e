package config_test

import (
	"bytes"
	_ "embed"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	. "github.com/pseudomuto/dbtemplate/pkg/config"
	"github.com/pseudomuto/dbtemplate/pkg/consts"
	"github.com/pseudomuto/dbtemplate/pkg/parser"
	"github.com/stretchr/testify/require"
)

//go:embed testdata/dbtemplate.yaml
var testConfigYAML string

func TestLoadConfig(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		config, err := LoadConfig(strings.NewReader(testConfigYAML))
		require.NoError(t, err)
		validateTestConfig(t, config)
	})

	t.Run("defaults", func(t *testing.T) {
		config, err := LoadConfig(strings.NewReader("other_key: value"))
		require.NoError(t, err)
		require.Empty(t, config.Parser.Filename)
		require.Equal(t, consts.DefaultStrictDependencies, config.Parser.StrictDependencies)
		require.NotNil(t, config.Format.UppercaseKeywords)
		require.Equal(t, consts.DefaultUppercaseKeywords, *config.Format.UppercaseKeywords)
		require.Equal(t, consts.DefaultDirectiveStyle, config.Format.DirectiveStyle)
	})

	t.Run("directive style is case insensitive", func(t *testing.T) {
		config, err := LoadConfig(strings.NewReader("format:\n  directive_style: Braces\n"))
		require.NoError(t, err)
		require.Equal(t, "braces", config.Format.DirectiveStyle)
	})

	t.Run("error", func(t *testing.T) {
		// Invalid YAML
		config, err := LoadConfig(strings.NewReader("invalid: yaml: ["))
		require.Error(t, err)
		require.Nil(t, config)
		require.Contains(t, err.Error(), "failed to unmarshal config")

		// Empty input
		config, err = LoadConfig(strings.NewReader(""))
		require.Error(t, err)
		require.Nil(t, config)
		require.Contains(t, err.Error(), "failed to unmarshal config")

		// Unknown directive style
		config, err = LoadConfig(strings.NewReader("format:\n  directive_style: fancy\n"))
		require.Error(t, err)
		require.Nil(t, config)
		require.Contains(t, err.Error(), `unknown directive style "fancy"`)
	})
}

func TestLoadConfigFile(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.yaml")
		require.NoError(t, os.WriteFile(path, []byte(testConfigYAML), 0o644))

		config, err := LoadConfigFile(path)
		require.NoError(t, err)
		validateTestConfig(t, config)
	})

	t.Run("error", func(t *testing.T) {
		config, err := LoadConfigFile("nonexistent.yaml")
		require.Error(t, err)
		require.Nil(t, config)
		require.Contains(t, err.Error(), "failed to open file")

		// Directory instead of file
		config, err = LoadConfigFile(t.TempDir())
		require.Error(t, err)
		require.Nil(t, config)
		require.True(t, strings.Contains(err.Error(), "failed to open file") ||
			strings.Contains(err.Error(), "failed to unmarshal config"))
	})
}

func TestLoadDefault(t *testing.T) {
	dir := t.TempDir()

	config, err := LoadDefault(dir)
	require.NoError(t, err)
	require.Equal(t, consts.DefaultDirectiveStyle, config.Format.DirectiveStyle)
	require.False(t, config.Parser.StrictDependencies)

	require.NoError(t, os.WriteFile(filepath.Join(dir, consts.ConfigFile), []byte(testConfigYAML), 0o644))
	config, err = LoadDefault(dir)
	require.NoError(t, err)
	validateTestConfig(t, config)
}

func TestGetParser(t *testing.T) {
	config, err := LoadConfig(strings.NewReader(testConfigYAML))
	require.NoError(t, err)

	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	p := config.GetParser(logger)

	// strict_dependencies rejects a dependency on an undefined parent.
	_, err = p.ParseString(`CREATE TABLE a (id INT) {{ for each row of z generate 1 row of b }} CREATE TABLE b (id INT)`)
	require.ErrorIs(t, err, parser.ErrStructural)

	// filename labels errors.
	_, err = p.ParseString(`CREATE TABLE a (`)
	require.ErrorContains(t, err, "shop.tpl.sql:1:")
	require.Contains(t, buf.String(), "filename=shop.tpl.sql")
}

func TestGetFormatter(t *testing.T) {
	config, err := LoadConfig(strings.NewReader(testConfigYAML))
	require.NoError(t, err)

	doc, err := parser.ParseString(`CREATE TABLE t (id INT {{ rownum }})`)
	require.NoError(t, err)
	require.Equal(t, "create table t (id INT /*{{ rownum }}*/)", config.GetFormatter().Document(doc))
}

// validateTestConfig validates that a config contains the expected test data
func validateTestConfig(t *testing.T, config *Config) {
	t.Helper()
	require.NotNil(t, config)
	require.Equal(t, "shop.tpl.sql", config.Parser.Filename)
	require.True(t, config.Parser.StrictDependencies)
	require.NotNil(t, config.Format.UppercaseKeywords)
	require.False(t, *config.Format.UppercaseKeywords)
	require.Equal(t, "comment", config.Format.DirectiveStyle)
}
