package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
	"go.uber.org/multierr"
)

type Config struct {
	Telegram     TelegramConfig    `mapstructure:"telegram"`
	OpenAI       OpenAIConfig      `mapstructure:"openai"`
	Vault        VaultConfig       `mapstructure:"vault"`
	Food         FoodConfig        `mapstructure:"food"`
	PhotoIntake  PhotoIntakeConfig `mapstructure:"photo_intake"`
	Reminder     ReminderConfig    `mapstructure:"reminder"`
	Timezone     string            `mapstructure:"timezone"`
	TaskTimezone string            `mapstructure:"task_timezone"`
	LogDir       string            `mapstructure:"log_dir"`
}

type TelegramConfig struct {
	Token string `mapstructure:"token"`
}

type OpenAIConfig struct {
	APIKey  string        `mapstructure:"api_key"`
	BaseURL string        `mapstructure:"base_url"`
	Model   string        `mapstructure:"model"`
	Timeout time.Duration `mapstructure:"timeout"`
}

type VaultConfig struct {
	Dir      string `mapstructure:"dir"`
	TasksDir string `mapstructure:"tasks_dir"`
}

// FoodConfig configures the food tracker. Empty LLM fields inherit the openai section.
type FoodConfig struct {
	Dir     string        `mapstructure:"dir"`
	APIKey  string        `mapstructure:"api_key"`
	BaseURL string        `mapstructure:"base_url"`
	Model   string        `mapstructure:"model"`
	Timeout time.Duration `mapstructure:"timeout"`
}

type PhotoIntakeConfig struct {
	URL     string        `mapstructure:"url"`
	Token   string        `mapstructure:"token"`
	Timeout time.Duration `mapstructure:"timeout"`
}

type ReminderConfig struct {
	PollInterval time.Duration `mapstructure:"poll_interval"`
	File         string        `mapstructure:"file"`
}

// envAliases maps keys to the environment names used by existing deployments.
var envAliases = map[string][]string{
	"telegram.token":  {"TELEGRAM_BOT_TOKEN", "TELEGRAM_TOKEN"},
	"openai.api_key":  {"OPENAI_API_KEY"},
	"openai.base_url": {"OPENAI_BASE_URL"},
	"openai.model":    {"MODEL_NAME", "OPENAI_MODEL"},
	"vault.dir":       {"OBSIDIAN_VAULT_DIR"},
	"vault.tasks_dir": {"OBSIDIAN_TASKS_DIR"},
	"timezone":        {"TIMEZONE"},
	"task_timezone":   {"TASK_TIMEZONE"},
	"log_dir":         {"LOG_DIR"},
}

// LoadConfig reads path when given, otherwise an optional config.yaml in the
// working directory, then applies environment overrides.
func LoadConfig(path string) (*Config, error) {
	v := viper.New()

	// Set default values
	v.SetDefault("openai.base_url", "https://api.openai.com/v1")
	v.SetDefault("openai.model", "gpt-4o-mini")
	v.SetDefault("openai.timeout", 60*time.Second)
	v.SetDefault("vault.dir", "")
	v.SetDefault("vault.tasks_dir", "")
	v.SetDefault("timezone", "Europe/Riga")
	v.SetDefault("task_timezone", "Europe/Moscow")
	v.SetDefault("log_dir", "logs")
	v.SetDefault("food.dir", "")
	v.SetDefault("food.api_key", "")
	v.SetDefault("food.base_url", "")
	v.SetDefault("food.model", "")
	v.SetDefault("food.timeout", 60*time.Second)
	v.SetDefault("photo_intake.url", "")
	v.SetDefault("photo_intake.token", "")
	v.SetDefault("photo_intake.timeout", 30*time.Second)
	v.SetDefault("reminder.poll_interval", time.Minute)
	v.SetDefault("reminder.file", "breath_reminders.json")

	// Enable environment variable support
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for key, names := range envAliases {
		if err := v.BindEnv(append([]string{key, strings.ToUpper(strings.ReplaceAll(key, ".", "_"))}, names...)...); err != nil {
			return nil, fmt.Errorf("bind env for %s: %w", key, err)
		}
	}

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("read config: %w", err)
			}
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := config.applyFallbacks(); err != nil {
		return nil, err
	}
	return &config, nil
}

// applyFallbacks derives unset directories and LLM settings. Directories end up absolute.
func (c *Config) applyFallbacks() error {
	if c.Vault.Dir != "" {
		if c.Vault.TasksDir == "" {
			c.Vault.TasksDir = filepath.Join(c.Vault.Dir, "tasks")
		}
		if c.Food.Dir == "" {
			c.Food.Dir = filepath.Join(c.Vault.Dir, "FoodTracker")
		}
	}
	if c.Food.APIKey == "" {
		c.Food.APIKey = c.OpenAI.APIKey
	}
	if c.Food.BaseURL == "" {
		c.Food.BaseURL = c.OpenAI.BaseURL
	}
	if c.Food.Model == "" {
		c.Food.Model = c.OpenAI.Model
	}
	for _, dir := range []*string{&c.Vault.Dir, &c.Vault.TasksDir, &c.Food.Dir, &c.LogDir} {
		if *dir == "" {
			continue
		}
		abs, err := filepath.Abs(*dir)
		if err != nil {
			return fmt.Errorf("resolve %s: %w", *dir, err)
		}
		*dir = abs
	}
	return nil
}

// Validate reports every missing setting the note pipeline needs.
func (c *Config) Validate() error {
	var err error
	if c.OpenAI.APIKey == "" {
		err = multierr.Append(err, errors.New("openai.api_key (OPENAI_API_KEY) is required"))
	}
	if c.Vault.Dir == "" {
		err = multierr.Append(err, errors.New("vault.dir (OBSIDIAN_VAULT_DIR) is required"))
	}
	if c.OpenAI.Timeout <= 0 {
		err = multierr.Append(err, fmt.Errorf("openai.timeout must be positive, got %s", c.OpenAI.Timeout))
	}
	return err
}

// ValidateBot additionally requires the Telegram token.
func (c *Config) ValidateBot() error {
	err := c.Validate()
	if c.Telegram.Token == "" {
		err = multierr.Append(err, errors.New("telegram.token (TELEGRAM_BOT_TOKEN) is required"))
	}
	return err
}
