package config

import (
	"errors"
	"os"
	"path/filepath"

	toml "github.com/pelletier/go-toml/v2"
)

const (
	DefaultConfigFileName = "config.toml"
	DefaultDataFileName   = "data.xlsx"
	DefaultReminderDBName = "reminders.db"
	appDirName            = "excelerate"
)

type Keymap struct {
	Quit          string `toml:"quit"`
	Add           string `toml:"add"`
	Up            string `toml:"up"`
	Down          string `toml:"down"`
	Toggle        string `toml:"toggle"`
	Delete        string `toml:"delete"`
	Confirm       string `toml:"confirm"`
	Cancel        string `toml:"cancel"`
	Edit          string `toml:"edit"`
	Reload        string `toml:"reload"`
	SortNext      string `toml:"sort_next"`
	SortDirection string `toml:"sort_direction"`
	UpcomingOnly  string `toml:"upcoming_only"`
}

type Config struct {
	DataDir            string `toml:"data_dir"`
	FileName           string `toml:"file_name"`
	ReminderDB         string `toml:"reminder_db"`
	ReminderHour       int    `toml:"reminder_hour"`
	// Locale picks the collation order for text sorting. Dates always
	// display in the fixed English long form.
	Locale             string `toml:"locale"`
	HideStaleCompleted bool   `toml:"hide_stale_completed"`
	UpcomingOnly       bool   `toml:"upcoming_only"`
	SortKey            string `toml:"sort_key"`
	SortDirection      string `toml:"sort_direction"`
	LogFile            string `toml:"log_file"`
	Keys               Keymap `toml:"keys"`
}

// ResolveConfigPath prefers the user config dir and falls back to the working
// directory.
func ResolveConfigPath() string {
	dir, err := os.UserConfigDir()
	if err != nil || dir == "" {
		return DefaultConfigFileName
	}
	return filepath.Join(dir, appDirName, DefaultConfigFileName)
}

// LoadOrCreate reads path, writing the defaults there first if it is missing.
func LoadOrCreate(path string) (Config, error) {
	cfg := defaultConfig()
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		if err := write(path, cfg); err != nil {
			return cfg, err
		}
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return cfg, err
	}
	fillDefaults(&cfg)
	return cfg, nil
}

func write(path string, cfg Config) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	data, err := toml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

func fillDefaults(cfg *Config) {
	def := defaultConfig()
	if cfg.DataDir == "" {
		cfg.DataDir = def.DataDir
	}
	if cfg.FileName == "" {
		cfg.FileName = def.FileName
	}
	if cfg.ReminderDB == "" {
		cfg.ReminderDB = def.ReminderDB
	}
	if cfg.ReminderHour < 0 || cfg.ReminderHour > 23 {
		cfg.ReminderHour = def.ReminderHour
	}
	if cfg.Locale == "" {
		cfg.Locale = def.Locale
	}
	if cfg.SortKey == "" {
		cfg.SortKey = def.SortKey
	}
	if cfg.SortDirection == "" {
		cfg.SortDirection = def.SortDirection
	}
}

// defaultDataDir is the shared downloads folder the spreadsheet usually lives in.
func defaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return "."
	}
	return filepath.Join(home, "Downloads")
}

func defaultReminderDB() string {
	dir, err := os.UserCacheDir()
	if err != nil || dir == "" {
		return DefaultReminderDBName
	}
	return filepath.Join(dir, appDirName, DefaultReminderDBName)
}

func defaultConfig() Config {
	return Config{
		DataDir:            defaultDataDir(),
		FileName:           DefaultDataFileName,
		ReminderDB:         defaultReminderDB(),
		ReminderHour:       9,
		Locale:             "en",
		HideStaleCompleted: true,
		UpcomingOnly:       false,
		SortKey:            "sl_no",
		SortDirection:      "asc",
		Keys: Keymap{
			Quit:          "q",
			Add:           "a",
			Up:            "k",
			Down:          "j",
			Toggle:        " ",
			Delete:        "d",
			Confirm:       "enter",
			Cancel:        "esc",
			Edit:          "e",
			Reload:        "r",
			SortNext:      "s",
			SortDirection: "S",
			UpcomingOnly:  "u",
		},
	}
}
