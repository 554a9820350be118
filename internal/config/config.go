package config

import (
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

// Front-end selection values accepted for input_method and output_method.
const (
	MethodConsole = "console"
	MethodDiscord = "discord"
	MethodBoth    = "both"
)

// Memory keying schemes for Discord conversations.
const (
	KeyingChannel = "channel"
	KeyingUser    = "user"
)

// Settings stores all configuration of the application.
// Values are read by viper from a config file or environment variables
// (prefix KINECHO, dots replaced by underscores).
type Settings struct {
	InputMethod  string `mapstructure:"input_method"`
	OutputMethod string `mapstructure:"output_method"`

	Model        string `mapstructure:"model"`
	MaxTokens    int    `mapstructure:"max_tokens"`
	SystemPrompt string `mapstructure:"system_prompt"`

	Memory  MemorySettings  `mapstructure:"memory"`
	Discord DiscordSettings `mapstructure:"discord"`
	Log     LogSettings     `mapstructure:"log"`
}

// MemorySettings stores conversation store configuration.
type MemorySettings struct {
	// Path of the backing JSON file.
	Path string `mapstructure:"path"`
	// Keying selects how Discord conversations are grouped: by channel or by
	// author. Console sessions always use a fixed key.
	Keying string `mapstructure:"keying"`
	// Window is the number of recent turns sent with each completion request.
	Window int `mapstructure:"window"`
	// RuneBudget caps the total text size of the context window.
	RuneBudget int `mapstructure:"rune_budget"`
}

// DiscordSettings stores Discord gateway configuration.
type DiscordSettings struct {
	Token string `mapstructure:"token"`
}

// LogSettings stores logging configuration.
type LogSettings struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Load reads settings from the given file, or from kinecho.yaml in the
// working directory and ~/.kinecho when path is empty. A missing config file
// is not an error; defaults and environment variables apply.
func Load(path string) (*Settings, error) {
	v := viper.New()
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("kinecho")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.kinecho")
	}

	v.SetDefault("input_method", MethodConsole)
	v.SetDefault("output_method", MethodConsole)
	v.SetDefault("model", "")
	v.SetDefault("max_tokens", 1024)
	v.SetDefault("system_prompt", "")
	v.SetDefault("memory.path", "kinecho_memory.json")
	v.SetDefault("memory.keying", KeyingChannel)
	v.SetDefault("memory.window", 10)
	v.SetDefault("memory.rune_budget", 16000)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")

	v.SetEnvPrefix("KINECHO")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	// The bot token is conventionally provided as DISCORD_BOT_TOKEN.
	_ = v.BindEnv("discord.token", "KINECHO_DISCORD_TOKEN", "DISCORD_BOT_TOKEN")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, errors.Wrap(err, "config: read")
		}
	}

	var s Settings
	if err := v.Unmarshal(&s); err != nil {
		return nil, errors.Wrap(err, "config: decode")
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

// Validate checks settings for values the rest of the program relies on.
func (s *Settings) Validate() error {
	if !validMethod(s.InputMethod) {
		return errors.Errorf("config: invalid input_method %q (console, discord, or both)", s.InputMethod)
	}
	if !validMethod(s.OutputMethod) {
		return errors.Errorf("config: invalid output_method %q (console, discord, or both)", s.OutputMethod)
	}
	if s.Memory.Keying != KeyingChannel && s.Memory.Keying != KeyingUser {
		return errors.Errorf("config: invalid memory.keying %q (channel or user)", s.Memory.Keying)
	}
	if s.Memory.Path == "" {
		return errors.New("config: memory.path must not be empty")
	}
	if s.Memory.Window <= 0 {
		return errors.Errorf("config: memory.window must be positive, got %d", s.Memory.Window)
	}
	if s.MaxTokens <= 0 {
		return errors.Errorf("config: max_tokens must be positive, got %d", s.MaxTokens)
	}
	if s.usesDiscord() && s.Discord.Token == "" {
		return errors.New("config: discord selected but no token set (discord.token or DISCORD_BOT_TOKEN)")
	}
	return nil
}

// ConsoleEnabled reports whether the console front end should run.
func (s *Settings) ConsoleEnabled() bool {
	return s.InputMethod == MethodConsole || s.InputMethod == MethodBoth
}

// DiscordEnabled reports whether the Discord front end should run.
func (s *Settings) DiscordEnabled() bool {
	return s.InputMethod == MethodDiscord || s.InputMethod == MethodBoth
}

func (s *Settings) usesDiscord() bool {
	return s.DiscordEnabled() ||
		s.OutputMethod == MethodDiscord || s.OutputMethod == MethodBoth
}

func validMethod(m string) bool {
	switch m {
	case MethodConsole, MethodDiscord, MethodBoth:
		return true
	}
	return false
}
