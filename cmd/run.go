package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"llmgrader/internal/credentials"
	"llmgrader/internal/logger"
	"llmgrader/internal/providers"
	"llmgrader/internal/providers/anthropic"
	"llmgrader/internal/providers/mistral"
	"llmgrader/internal/providers/openai"
	"llmgrader/internal/questionnaire"
	"llmgrader/internal/results"
	"llmgrader/internal/retry"
	"llmgrader/internal/runner"
	"llmgrader/internal/schema"
	"llmgrader/internal/secrets"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

const (
	PromptYes = "Yes"
	PromptNo  = "No"
)

var prompt = promptui.Select{
	Label: "Proceed?",
	Items: []string{PromptYes, PromptNo},
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Score every document in the input directory with the configured models",
	Run: func(cmd *cobra.Command, _ []string) {
		run(cmd)
	},
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().BoolP("auto-approve", "y", false, "do not ask for confirmation before dispatching tasks")
	runCmd.Flags().StringP("input-dir", "i", "", "directory with .txt resumes to score")

	viper.BindPFlag("input-dir", runCmd.Flags().Lookup("input-dir"))
}

// run is the main command for the cli.
func run(cmd *cobra.Command) {
	ctx := context.Background()

	logger, err := logger.New(viper.GetBool("json"), viper.GetBool("debug"))
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}

	config, err := getConfig()
	if err != nil {
		logger.Fatal("getting a config", zap.Error(err))
	}

	logger.Info("starting the llm-grader", zap.String("version", version))

	// do not bother error since there is a valid parseable config
	pretty, _ := json.MarshalIndent(config, "", "  ")
	logger.Debug(fmt.Sprintf("starting with config: \n %s", pretty))

	if config == nil {
		logger.Fatal("config is required")
	}

	if config.Providers == nil {
		logger.Fatal("at least one provider must be configured under providers")
	}

	executors, models, err := buildExecutors(config, logger)
	if err != nil {
		logger.Fatal("configuring providers", zap.Error(err))
	}

	if len(executors) == 0 {
		logger.Fatal("no provider has both an api key and a models list")
	}

	documents, err := runner.ListDocuments(config.InputDir)
	if err != nil {
		logger.Fatal("listing input documents", zap.Error(err))
	}

	tasks := runner.EnumerateTasks(documents, models)

	logger.Info("enumerated scoring tasks",
		zap.Int("documents", len(documents)),
		zap.Int("tasks", len(tasks)),
		zap.Int("providers", len(executors)),
	)

	if cmd.Flag("auto-approve").Value.String() == "false" {
		_, action, err := prompt.Run()
		if err != nil {
			logger.Fatal("exiting", zap.Error(err))
		}
		if action != PromptYes {
			logger.Info("exiting", zap.String("reason", "got no from prompt"))
			return
		}
	}

	pool := runner.New(runner.Config{
		Workers:           config.Workers,
		IterationsPerFile: config.IterationsPerFile,
	}, executors, results.NewWriter(config.OutputDir), logger)

	summary := pool.Run(ctx, tasks)

	if summary.Failed > 0 {
		logger.Warn("finished with failures",
			zap.Int("failed", summary.Failed),
			zap.Int("completed", summary.Completed),
		)
		return
	}

	logger.Info("all tasks completed", zap.Int("completed", summary.Completed))
}

// buildExecutors wires a client and retry controller for every provider that
// has credentials and a non-empty models list.
func buildExecutors(config *Config, log *zap.Logger) (map[string]*runner.Executor, runner.ModelSet, error) {
	executors := make(map[string]*runner.Executor)
	var models runner.ModelSet

	retryCfg := retryConfig(config.Retry)

	if cfg := config.Providers.OpenAI; cfg != nil && len(cfg.Models) > 0 {
		key, err := secrets.Load(secrets.Source{
			Name:  "openai api key",
			Value: cfg.APIKey,
			Env:   "OPENAI_API_KEY",
			File:  cfg.APIKeyFile,
		})
		if err != nil {
			return nil, models, err
		}

		backup, err := secrets.LoadOptional(secrets.Source{
			Name:  "openai backup key",
			Value: cfg.BackupAPIKey,
			Env:   "OPENAI_BACKUP_KEY",
		})
		if err != nil {
			return nil, models, err
		}

		creds, err := credentials.NewSet(key, backup)
		if err != nil {
			return nil, models, err
		}

		client, err := openai.New(creds, openai.Config{
			SystemPrompt:    questionnaire.SystemPrompt(),
			JSONInstruction: questionnaire.JSONInstruction(),
			Schema:          schema.Strict(),
			MaxTokens:       cfg.MaxTokens,
			MaxLogLength:    config.MaxLogLength,
		}, log)
		if err != nil {
			return nil, models, err
		}

		executors[providers.OpenAI] = &runner.Executor{
			Scorer: client,
			Retry:  retry.New(retryCfg, log),
			Rotate: client.Rotate,
		}
		models.OpenAI = cfg.Models
	}

	if cfg := config.Providers.Anthropic; cfg != nil && len(cfg.Models) > 0 {
		key, err := secrets.Load(secrets.Source{
			Name:  "anthropic api key",
			Value: cfg.APIKey,
			Env:   "CLAUDE_API_KEY",
			File:  cfg.APIKeyFile,
		})
		if err != nil {
			return nil, models, err
		}

		client, err := anthropic.New(key, anthropic.Config{
			SystemPrompt:    questionnaire.SystemPrompt(),
			JSONInstruction: questionnaire.JSONInstruction(),
			Schema:          schema.Relaxed(),
			MaxTokens:       cfg.MaxTokens,
			MaxLogLength:    config.MaxLogLength,
		}, log)
		if err != nil {
			return nil, models, err
		}

		executors[providers.Anthropic] = &runner.Executor{
			Scorer: client,
			Retry:  retry.New(retryCfg, log),
		}
		models.Anthropic = cfg.Models
	}

	if cfg := config.Providers.Mistral; cfg != nil && len(cfg.Models) > 0 {
		key, err := secrets.Load(secrets.Source{
			Name:  "mistral api key",
			Value: cfg.APIKey,
			Env:   "MISTRAL_API_KEY",
			File:  cfg.APIKeyFile,
		})
		if err != nil {
			return nil, models, err
		}

		client, err := mistral.New(key, mistral.Config{
			SystemPrompt: questionnaire.SystemPrompt(),
			Schema:       schema.Flattened(),
			BaseURL:      cfg.BaseURL,
			MaxTokens:    cfg.MaxTokens,
			MaxLogLength: config.MaxLogLength,
		}, log)
		if err != nil {
			return nil, models, err
		}

		executors[providers.Mistral] = &runner.Executor{
			Scorer: client,
			Retry:  retry.New(retryCfg, log),
		}
		models.Mistral = cfg.Models
	}

	return executors, models, nil
}

func retryConfig(cfg *RetryConfig) retry.Config {
	if cfg == nil {
		return retry.Config{}
	}

	return retry.Config{
		MaxAttempts: cfg.MaxRetries,
		Delay:       time.Duration(cfg.Delay) * time.Second,
		BackoffBase: cfg.BackoffBase,
		BackoffMax:  time.Duration(cfg.BackoffMax) * time.Second,
	}
}
