package cmd

import (
	"errors"
	"fmt"
	"log"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/skillprobe/skillprobe/internal/ai"
	"github.com/skillprobe/skillprobe/internal/ai/gemini"
	"github.com/skillprobe/skillprobe/internal/ai/openai"
	"github.com/skillprobe/skillprobe/internal/logger"
	"github.com/skillprobe/skillprobe/internal/secrets"
	"github.com/skillprobe/skillprobe/internal/store"
)

const (
	app = "skillprobe"
)

type Config struct {
	Database   *DatabaseConfig   `mapstructure:"database"`
	Queue      *QueueConfig      `mapstructure:"queue"`
	AI         *AIConfig         `mapstructure:"ai"`
	Assessment *AssessmentConfig `mapstructure:"assessment"`
}

type DatabaseConfig struct {
	DSN string `mapstructure:"dsn"`
}

type QueueConfig struct {
	URL                   string `mapstructure:"url"`
	URLFile               string `mapstructure:"url-file"`
	ReaperIntervalMinutes int    `mapstructure:"reaper-interval-minutes"`
	StaleAfterMinutes     int    `mapstructure:"stale-after-minutes"`
}

type AIConfig struct {
	Provider     string        `mapstructure:"provider"`
	MaxLogLength int           `mapstructure:"max-log-length"`
	CacheContext bool          `mapstructure:"cache-context"`
	Gemini       *GeminiConfig `mapstructure:"gemini"`
	OpenAI       *OpenAIConfig `mapstructure:"openai"`
}

type GeminiConfig struct {
	APIKey     string `mapstructure:"api-key"`
	APIKeyFile string `mapstructure:"api-key-file"`
	Model      string `mapstructure:"model"`
}

type OpenAIConfig struct {
	BaseURL    string `mapstructure:"base-url"`
	APIKey     string `mapstructure:"api-key"`
	APIKeyFile string `mapstructure:"api-key-file"`
	Model      string `mapstructure:"model"`
}

type AssessmentConfig struct {
	QuestionCount int      `mapstructure:"question-count"`
	Difficulty    string   `mapstructure:"difficulty"`
	FocusAreas    []string `mapstructure:"focus-areas"`
	Concurrency   int      `mapstructure:"concurrency"`
}

var (
	// Used for flags.
	cfgFile string

	rootCmd = &cobra.Command{
		Use:   app,
		Short: "skillprobe turns a job posting into a scenario assessment and scores candidate answers against it",
	}
)

// Execute executes the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	if err := viper.BindEnv("database.dsn", "SKILLPROBE_DB_DSN"); err != nil {
		log.Fatalf("binding SKILLPROBE_DB_DSN environment variable: %v", err)
	}
	if err := viper.BindEnv("queue.url", "SKILLPROBE_AMQP_URL"); err != nil {
		log.Fatalf("binding SKILLPROBE_AMQP_URL environment variable: %v", err)
	}

	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "a config file (default is skillprobe.yaml in current directory)")
	rootCmd.PersistentFlags().BoolP("debug", "d", false, "verbose/debug output")
	rootCmd.PersistentFlags().BoolP("json", "j", false, "json format for logging")

	viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))
	viper.BindPFlag("json", rootCmd.PersistentFlags().Lookup("json"))
}

func initConfig() {
	// Config is needed only for the pipeline commands; version runs without one.
	if generateCmd.CalledAs() == "" && scoreCmd.CalledAs() == "" && workerCmd.CalledAs() == "" {
		return
	}

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

	if config == nil {
		return nil, errors.New("config is required")
	}

	return config, nil
}

// buildGenerator constructs the configured AI provider. API keys resolve
// through file, then environment variable, then inline config value.
func buildGenerator(cmd *cobra.Command, config *Config) (ai.Generator, error) {
	if config.AI == nil {
		return nil, errors.New("ai section is required in the config")
	}

	switch config.AI.Provider {
	case "", "gemini":
		gcfg := config.AI.Gemini
		if gcfg == nil {
			gcfg = &GeminiConfig{}
		}

		apiKey, err := secrets.Load(secrets.Source{
			Name:  "gemini api key",
			Value: gcfg.APIKey,
			Env:   "GEMINI_API_KEY",
			File:  gcfg.APIKeyFile,
		})
		if err != nil {
			return nil, err
		}

		gen, err := gemini.NewGenerator(cmd.Context(), apiKey, gcfg.Model)
		if err != nil {
			return nil, err
		}
		return gen, nil
	case "openai":
		ocfg := config.AI.OpenAI
		if ocfg == nil {
			ocfg = &OpenAIConfig{}
		}

		apiKey, err := secrets.Load(secrets.Source{
			Name:  "openai api key",
			Value: ocfg.APIKey,
			Env:   "OPENAI_API_KEY",
			File:  ocfg.APIKeyFile,
		})
		if err != nil {
			return nil, err
		}

		client, err := openai.NewClient(ocfg.BaseURL, apiKey, ocfg.Model)
		if err != nil {
			return nil, err
		}
		return client, nil
	default:
		return nil, fmt.Errorf("unknown ai provider: %s", config.AI.Provider)
	}
}

// pipelineLogger tags the command logger with the configured provider and
// the generator's model once both are known.
func pipelineLogger(base *zap.Logger, config *Config, gen ai.Generator) *zap.Logger {
	provider := "gemini"
	if config.AI != nil && config.AI.Provider != "" {
		provider = config.AI.Provider
	}
	return logger.WithProvider(base, provider, gen.Model())
}

// resolveQueueURL loads the broker URL through the secrets loader, since
// amqp URLs carry credentials and belong in a file in real deployments.
// An inline value (or the SKILLPROBE_AMQP_URL binding) still works.
func resolveQueueURL(config *Config) (string, error) {
	if config.Queue == nil {
		return "", errors.New("queue section is required (or set SKILLPROBE_AMQP_URL)")
	}

	url, err := secrets.LoadOptional(secrets.Source{
		Name:  "queue url",
		Value: config.Queue.URL,
		File:  config.Queue.URLFile,
	})
	if err != nil {
		return "", err
	}
	if url == "" {
		return "", errors.New("queue.url is required (or set SKILLPROBE_AMQP_URL)")
	}
	return url, nil
}

func openStore(config *Config, logger *zap.Logger) (*store.Store, error) {
	if config.Database == nil || config.Database.DSN == "" {
		return nil, errors.New("database.dsn is required (or set SKILLPROBE_DB_DSN)")
	}
	return store.Open(config.Database.DSN, logger)
}

// recordUsage writes the tokens a pipeline step consumed since the given
// snapshot and returns the new snapshot.
func recordUsage(st *store.Store, gen ai.Generator, step string, since ai.Usage) ai.Usage {
	current := gen.Usage()
	st.RecordUsage(step, gen.Model(), current.Delta(since))
	return current
}
