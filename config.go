package main

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/charmbracelet/log"
)

type Config struct {
	Path   PathConfig   `toml:"path"`
	Format FormatConfig `toml:"format"`
}

type PathConfig struct {
	Dir      string `toml:"todo_path"`
	Filename string `toml:"todo_filename"`
}

type FormatConfig struct {
	CheckboxStyle string `toml:"checkbox_style"`
}

// ResolvedConfig is what the commands run with
type ResolvedConfig struct {
	ConfigPath string
	TodoPath   string
	Dialect    Dialect
}

type ConfigError struct {
	Field string
	Err   error
}

func (e *ConfigError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("config: %v", e.Err)
	}

	return fmt.Sprintf("config: %s: %v", e.Field, e.Err)
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}

var (
	ErrEmptyPath   = errors.New("path is empty")
	ErrIsDirectory = errors.New("path is a directory")
	ErrUserRefused = errors.New("user refused")
)

func defaultConfig() Config {
	return Config{
		Path:   PathConfig{Dir: "~", Filename: "todo.md"},
		Format: FormatConfig{CheckboxStyle: string(Markdown)},
	}
}

func configPath() (string, error) {
	configDir := os.Getenv("XDG_CONFIG_HOME")
	if configDir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		configDir = filepath.Join(homeDir, ".config")
	}
	return filepath.Join(configDir, "todomd", "config.toml"), nil
}

// loadConfig reads the config at path. found is false when the file does
// not exist. A file that does not decode is reported through err and the
// defaults are returned alongside it.
func loadConfig(path string) (cfg Config, found bool, err error) {
	data, err := os.ReadFile(path)

	if err != nil {
		if os.IsNotExist(err) {
			return defaultConfig(), false, nil
		}

		return defaultConfig(), false, err
	}

	cfg = defaultConfig()

	if _, err := toml.Decode(string(data), &cfg); err != nil {
		return defaultConfig(), true, &ConfigError{Err: err}
	}

	return cfg, true, nil
}

func saveConfig(path string, cfg Config) error {
	var buf bytes.Buffer

	if err := toml.NewEncoder(&buf).Encode(cfg); err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}

	return os.WriteFile(path, buf.Bytes(), 0644)
}

func expandPath(value string) (string, error) {
	value = strings.TrimSpace(value)

	if value == "" {
		return value, nil
	}

	expanded := os.ExpandEnv(value)

	if !strings.HasPrefix(expanded, "~") {
		return expanded, nil
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}

	if expanded == "~" {
		return homeDir, nil
	}

	if strings.HasPrefix(expanded, "~/") {
		return filepath.Join(homeDir, expanded[2:]), nil
	}

	if strings.HasPrefix(expanded, "~\\") {
		return filepath.Join(homeDir, expanded[2:]), nil
	}

	return expanded, nil
}

// todoFilePath joins the configured directory and file name
func todoFilePath(cfg Config) (string, error) {
	if strings.TrimSpace(cfg.Path.Filename) == "" {
		return "", &ConfigError{Field: "todo_filename", Err: ErrEmptyPath}
	}

	dir, err := expandPath(cfg.Path.Dir)
	if err != nil {
		return "", &ConfigError{Field: "todo_path", Err: err}
	}

	return filepath.Clean(filepath.Join(dir, cfg.Path.Filename)), nil
}

// splitTodoPath is the inverse of todoFilePath for a user supplied path
func splitTodoPath(path string) (PathConfig, error) {
	expanded, err := expandPath(path)
	if err != nil {
		return PathConfig{}, err
	}

	if expanded == "" {
		return PathConfig{}, ErrEmptyPath
	}

	abs, err := filepath.Abs(expanded)
	if err != nil {
		return PathConfig{}, err
	}

	return PathConfig{Dir: filepath.Dir(abs), Filename: filepath.Base(abs)}, nil
}

func resolveDialect(style string, logger *log.Logger) Dialect {
	d, ok := ParseDialect(style)
	if !ok {
		logger.Warn("your config contains an invalid format, defaulting to \"md\"", "checkbox_style", style)
	}
	return d
}

// createFile creates path and its parent directories if it does not exist
func createFile(path string) error {
	info, err := os.Stat(path)

	if err == nil {
		if info.IsDir() {
			return fmt.Errorf("%w: %s", ErrIsDirectory, path)
		}
		return nil
	}

	if !os.IsNotExist(err) {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}

	return f.Close()
}

func fileExists(path string) (bool, error) {
	info, err := os.Stat(path)

	if err == nil {
		if info.IsDir() {
			return false, fmt.Errorf("%w: %s", ErrIsDirectory, path)
		}
		return true, nil
	}

	if os.IsNotExist(err) {
		return false, nil
	}

	return false, err
}

// setup turns command line overrides and the config file into a
// ResolvedConfig, asking the user when the config or the todo file is
// missing.
type setup struct {
	configPath string
	todoFile   string // --file
	style      string // --style
	ask        askFunc
	logger     *log.Logger
}

func (s setup) resolve() (*ResolvedConfig, error) {
	cfg, found, err := loadConfig(s.configPath)

	var cerr *ConfigError
	switch {
	case errors.As(err, &cerr):
		s.logger.Error("error in your config, using defaults", "path", s.configPath, "err", cerr.Err)
	case err != nil:
		return nil, err
	}

	if !found && s.todoFile == "" {
		if err := s.offerConfig(cfg); err != nil {
			return nil, err
		}
	}

	style := cfg.Format.CheckboxStyle
	if s.style != "" {
		style = s.style
	}

	resolved := &ResolvedConfig{
		ConfigPath: s.configPath,
		Dialect:    resolveDialect(style, s.logger),
	}

	if s.todoFile != "" {
		pc, err := splitTodoPath(s.todoFile)
		if err != nil {
			return nil, &ConfigError{Field: "file", Err: err}
		}
		cfg.Path = pc
	}

	resolved.TodoPath, err = todoFilePath(cfg)
	if err != nil {
		return nil, err
	}

	resolved.TodoPath, err = s.ensureTodoFile(resolved.TodoPath, &cfg, s.todoFile == "")
	if err != nil {
		return nil, err
	}

	return resolved, nil
}

func (s setup) offerConfig(cfg Config) error {
	answer, err := s.ask("create base configuration file? ( [y]es / [n]o ): ")
	if err != nil {
		return err
	}

	switch strings.ToLower(answer) {
	case "y", "yes":
		if err := saveConfig(s.configPath, cfg); err != nil {
			return &ConfigError{Err: err}
		}
		s.logger.Info("created config", "path", s.configPath)
	default:
		s.logger.Info("using temporary defaults", "todo_path", cfg.Path.Dir, "todo_filename", cfg.Path.Filename, "checkbox_style", cfg.Format.CheckboxStyle)
	}

	return nil
}

// ensureTodoFile keeps asking until the todo file exists. When the user
// picks another path and persist is set, the config file is updated.
func (s setup) ensureTodoFile(path string, cfg *Config, persist bool) (string, error) {
	for {
		exists, err := fileExists(path)
		if err != nil {
			return "", err
		}

		if exists {
			return path, nil
		}

		answer, err := s.ask(fmt.Sprintf("create %s ? ( [y]es / [n]o / [c]hange ): ", path))
		if err != nil {
			return "", err
		}

		switch strings.ToLower(answer) {
		case "y", "yes":
			if err := createFile(path); err != nil {
				return "", err
			}
			s.logger.Info("created todo file", "path", path)

		case "c", "change":
			newPath, err := s.ask("desired path to todo file (including filename): ")
			if err != nil {
				return "", err
			}

			pc, err := splitTodoPath(newPath)
			if err != nil {
				return "", &ConfigError{Field: "todo_path", Err: err}
			}

			cfg.Path = pc
			path = filepath.Join(pc.Dir, pc.Filename)

			if err := createFile(path); err != nil {
				return "", err
			}

			if persist {
				if err := saveConfig(s.configPath, *cfg); err != nil {
					return "", &ConfigError{Err: err}
				}
			}

		default:
			return "", ErrUserRefused
		}
	}
}
