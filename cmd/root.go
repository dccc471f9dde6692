package cmd

import (
	"log"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const (
	app = "llm-grader"
)

type Config struct {
	InputDir          string           `mapstructure:"input-dir"`
	OutputDir         string           `mapstructure:"output-dir"`
	Workers           int              `mapstructure:"workers"`
	IterationsPerFile int              `mapstructure:"iterations-per-file"`
	MaxLogLength      int              `mapstructure:"max-log-length"`
	Retry             *RetryConfig     `mapstructure:"retry"`
	Providers         *ProvidersConfig `mapstructure:"providers"`
}

type RetryConfig struct {
	MaxRetries  int     `mapstructure:"max-retries"`
	Delay       int     `mapstructure:"delay"`
	BackoffBase float64 `mapstructure:"backoff-base"`
	BackoffMax  int     `mapstructure:"backoff-max"`
}

type ProvidersConfig struct {
	OpenAI    *OpenAIConfig    `mapstructure:"openai"`
	Anthropic *AnthropicConfig `mapstructure:"anthropic"`
	Mistral   *MistralConfig   `mapstructure:"mistral"`
}

type OpenAIConfig struct {
	Models       []string `mapstructure:"models"`
	APIKey       string   `mapstructure:"api-key"`
	APIKeyFile   string   `mapstructure:"api-key-file"`
	BackupAPIKey string   `mapstructure:"backup-api-key"`
	MaxTokens    int64    `mapstructure:"max-tokens"`
}

type AnthropicConfig struct {
	Models     []string `mapstructure:"models"`
	APIKey     string   `mapstructure:"api-key"`
	APIKeyFile string   `mapstructure:"api-key-file"`
	MaxTokens  int64    `mapstructure:"max-tokens"`
}

type MistralConfig struct {
	Models     []string `mapstructure:"models"`
	APIKey     string   `mapstructure:"api-key"`
	APIKeyFile string   `mapstructure:"api-key-file"`
	BaseURL    string   `mapstructure:"base-url"`
	MaxTokens  int      `mapstructure:"max-tokens"`
}

var (
	// Used for flags.
	cfgFile string

	rootCmd = &cobra.Command{
		Use:   app,
		Short: "llm-grader scores resume files against a fixed questionnaire with multiple LLM providers",
	}
)

// Execute executes the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	bindEnv("providers.openai.api-key", "OPENAI_API_KEY")
	bindEnv("providers.openai.backup-api-key", "OPENAI_BACKUP_KEY")
	bindEnv("providers.anthropic.api-key", "CLAUDE_API_KEY")
	bindEnv("providers.mistral.api-key", "MISTRAL_API_KEY")

	viper.SetDefault("input-dir", "input_texts")
	viper.SetDefault("output-dir", ".")
	viper.SetDefault("workers", 5)
	viper.SetDefault("iterations-per-file", 100)
	viper.SetDefault("max-log-length", 500)
	viper.SetDefault("retry.max-retries", 10)
	viper.SetDefault("retry.delay", 60)
	viper.SetDefault("retry.backoff-base", 2)
	viper.SetDefault("retry.backoff-max", 300)

	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "a config file (default is "+app+".yaml in current directory)")
	rootCmd.PersistentFlags().BoolP("debug", "d", false, "verbose/debug output")
	rootCmd.PersistentFlags().BoolP("json", "j", false, "json format for logging")

	viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))
	viper.BindPFlag("json", rootCmd.PersistentFlags().Lookup("json"))
}

func bindEnv(key, env string) {
	if err := viper.BindEnv(key, env); err != nil {
		log.Fatalf("binding %s environment variable: %v", env, err)
	}
}

func initConfig() {
	// Config needed only for run command now. If there is no config, we can skip initialization
	if runCmd.CalledAs() == "" {
		return
	}

	// Populate the process environment before viper resolves env bindings.
	// A missing .env file is fine.
	_ = godotenv.Load()

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigName(app + ".yaml")
	}

	// We can't proceed if the config file parsed with error.
	if err := viper.ReadInConfig(); err != nil {
		log.Fatal(err)
	}
}

func getConfig() (*Config, error) {
	var config *Config
	err := viper.Unmarshal(&config)
	if err != nil {
		return config, err
	}

	return config, nil
}
