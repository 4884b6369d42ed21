package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	toml "github.com/pelletier/go-toml/v2"
)

const (
	AppName               = "taskpad"
	DefaultConfigFileName = "config.toml"
	DefaultDBName         = "taskpad.db"
	DefaultDataDirName    = "taskpad.d"
	DefaultLogFileName    = "taskpad.log"
	EnvConfigPath         = "TASKPAD_CONFIG"
)

type Keymap struct {
	Quit         string `toml:"quit"`
	Add          string `toml:"add"`
	Up           string `toml:"up"`
	Down         string `toml:"down"`
	Toggle       string `toml:"toggle"`
	Delete       string `toml:"delete"`
	Detail       string `toml:"detail"`
	Confirm      string `toml:"confirm"`
	Cancel       string `toml:"cancel"`
	Edit         string `toml:"edit"`
	Filter       string `toml:"filter"`
	Search       string `toml:"search"`
	PriorityUp   string `toml:"priority_up"`
	PriorityDown string `toml:"priority_down"`
	DueForward   string `toml:"due_forward"`
	DueBack      string `toml:"due_back"`
	SortDue      string `toml:"sort_due"`
	SortPriority string `toml:"sort_priority"`
}

type Config struct {
	Backend       string `toml:"backend"`
	DataPath      string `toml:"data_path"`
	StorageKey    string `toml:"storage_key"`
	DefaultFilter string `toml:"default_filter"`
	DefaultSort   string `toml:"default_sort"`
	PersistSort   bool   `toml:"persist_sort"`
	LogLevel      string `toml:"log_level"`
	LogFile       string `toml:"log_file"`
	Keys          Keymap `toml:"keys"`
}

// ResolveConfigPath prefers $TASKPAD_CONFIG, then the user config dir.
func ResolveConfigPath() string {
	if p := os.Getenv(EnvConfigPath); p != "" {
		return p
	}
	dir, err := os.UserConfigDir()
	if err != nil {
		return DefaultConfigFileName
	}
	return filepath.Join(dir, AppName, DefaultConfigFileName)
}

// LoadOrCreate reads path, writing the defaults there first when it does not
// exist. Relative data and log paths resolve next to the config file.
func LoadOrCreate(path string) (Config, error) {
	cfg := defaultConfig()
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		if err := write(path, cfg); err != nil {
			return cfg, err
		}
		return cfg.resolve(filepath.Dir(path)), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	// data_path defaults per backend, so it is filled in after decoding.
	cfg.DataPath = ""
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse %s: %w", path, err)
	}
	return cfg.resolve(filepath.Dir(path)), nil
}

func (c Config) resolve(dir string) Config {
	if c.Backend == "" {
		c.Backend = "sqlite"
	}
	if c.DataPath == "" {
		c.DataPath = defaultDataPath(c.Backend)
	}
	if c.StorageKey == "" {
		c.StorageKey = "tasks"
	}
	if c.LogFile == "" {
		c.LogFile = DefaultLogFileName
	}
	if !filepath.IsAbs(c.DataPath) {
		c.DataPath = filepath.Join(dir, c.DataPath)
	}
	if !filepath.IsAbs(c.LogFile) {
		c.LogFile = filepath.Join(dir, c.LogFile)
	}
	c.Keys = c.Keys.withDefaults()
	return c
}

// defaultDataPath is a directory for the file backend and a database file
// otherwise.
func defaultDataPath(backend string) string {
	if strings.EqualFold(strings.TrimSpace(backend), "file") {
		return DefaultDataDirName
	}
	return DefaultDBName
}

func write(path string, cfg Config) error {
	data, err := toml.Marshal(cfg)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

func defaultConfig() Config {
	return Config{
		Backend:       "sqlite",
		DataPath:      DefaultDBName,
		StorageKey:    "tasks",
		DefaultFilter: "all",
		DefaultSort:   "",
		PersistSort:   true,
		LogLevel:      "info",
		LogFile:       DefaultLogFileName,
		Keys:          defaultKeymap(),
	}
}

func defaultKeymap() Keymap {
	return Keymap{
		Quit:         "q",
		Add:          "a",
		Up:           "k",
		Down:         "j",
		Toggle:       " ",
		Delete:       "d",
		Detail:       "enter",
		Confirm:      "enter",
		Cancel:       "esc",
		Edit:         "e",
		Filter:       "f",
		Search:       "/",
		PriorityUp:   "+",
		PriorityDown: "-",
		DueForward:   "]",
		DueBack:      "[",
		SortDue:      "sd",
		SortPriority: "sp",
	}
}

// withDefaults fills keys a partial [keys] table left blank.
func (k Keymap) withDefaults() Keymap {
	d := defaultKeymap()
	fill := func(v *string, def string) {
		if *v == "" {
			*v = def
		}
	}
	fill(&k.Quit, d.Quit)
	fill(&k.Add, d.Add)
	fill(&k.Up, d.Up)
	fill(&k.Down, d.Down)
	fill(&k.Toggle, d.Toggle)
	fill(&k.Delete, d.Delete)
	fill(&k.Detail, d.Detail)
	fill(&k.Confirm, d.Confirm)
	fill(&k.Cancel, d.Cancel)
	fill(&k.Edit, d.Edit)
	fill(&k.Filter, d.Filter)
	fill(&k.Search, d.Search)
	fill(&k.PriorityUp, d.PriorityUp)
	fill(&k.PriorityDown, d.PriorityDown)
	fill(&k.DueForward, d.DueForward)
	fill(&k.DueBack, d.DueBack)
	fill(&k.SortDue, d.SortDue)
	fill(&k.SortPriority, d.SortPriority)
	return k
}
