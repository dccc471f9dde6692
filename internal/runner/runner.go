// Package runner fans scoring tasks out over a bounded worker pool. Every
// document is scored once per configured model; failures are isolated per
// task.
package runner

import (
	"context"
	"fmt"
	"os"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"llmgrader/internal/logger"
	"llmgrader/internal/parser"
	"llmgrader/internal/providers"
	"llmgrader/internal/questionnaire"
	"llmgrader/internal/results"
	"llmgrader/internal/retry"
)

// Task is one unit of work: score one document with one model.
type Task struct {
	Document string
	Path     string
	Provider string
	Model    string
	// Group partitions tasks of one provider for coarse load spreading.
	Group int
}

// ModelSet lists the models to run per provider. Empty lists disable the
// provider.
type ModelSet struct {
	OpenAI    []string
	Anthropic []string
	Mistral   []string
}

// Executor pairs a provider client with its retry policy. Rotate is invoked
// on quota exhaustion and may be nil for providers without backup
// credentials.
type Executor struct {
	Scorer providers.Scorer
	Retry  *retry.Controller
	Rotate func() bool
}

type Config struct {
	Workers           int
	IterationsPerFile int
}

// Summary reports pool results after Run returns.
type Summary struct {
	Completed int
	Failed    int
	Total     int
}

type Runner struct {
	cfg       Config
	executors map[string]*Executor
	parser    *parser.Parser
	writer    *results.Writer
	logger    *zap.Logger

	completed atomic.Int64
	failed    atomic.Int64
}

func New(cfg Config, executors map[string]*Executor, writer *results.Writer, log *zap.Logger) *Runner {
	if cfg.Workers < 1 {
		cfg.Workers = 1
	}
	if cfg.IterationsPerFile < 1 {
		cfg.IterationsPerFile = 1
	}
	if log == nil {
		log = zap.NewNop()
	}

	return &Runner{
		cfg:       cfg,
		executors: executors,
		parser:    parser.New(log),
		writer:    writer,
		logger:    log,
	}
}

// EnumerateTasks builds the documents × models cross product for every
// provider with at least one model. OpenAI tasks are tagged with the model's
// position in the list modulo three, so the same model lands in the same
// group for every document.
func EnumerateTasks(paths []string, models ModelSet) []Task {
	var tasks []Task

	for _, path := range paths {
		doc := baseName(path)
		for i, model := range models.OpenAI {
			tasks = append(tasks, Task{
				Document: doc,
				Path:     path,
				Provider: providers.OpenAI,
				Model:    model,
				Group:    i % 3,
			})
		}
		for _, model := range models.Anthropic {
			tasks = append(tasks, Task{
				Document: doc,
				Path:     path,
				Provider: providers.Anthropic,
				Model:    model,
			})
		}
		for _, model := range models.Mistral {
			tasks = append(tasks, Task{
				Document: doc,
				Path:     path,
				Provider: providers.Mistral,
				Model:    model,
			})
		}
	}

	return tasks
}

// Run drains the task list with the configured number of workers and waits
// for completion. A cancelled context stops dispatching; in-flight tasks fail
// through their own context checks.
func (r *Runner) Run(ctx context.Context, tasks []Task) Summary {
	queue := make(chan Task)
	var wg sync.WaitGroup

	for i := 0; i < r.cfg.Workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for task := range queue {
				r.execute(ctx, task)
			}
		}()
	}

dispatch:
	for _, task := range tasks {
		select {
		case <-ctx.Done():
			break dispatch
		case queue <- task:
		}
	}
	close(queue)
	wg.Wait()

	summary := Summary{
		Completed: int(r.completed.Load()),
		Failed:    int(r.failed.Load()),
		Total:     len(tasks),
	}

	r.logger.Info("scoring finished",
		zap.Int("completed", summary.Completed),
		zap.Int("failed", summary.Failed),
		zap.Int("total", summary.Total),
	)

	return summary
}

func (r *Runner) execute(ctx context.Context, task Task) {
	log := logger.WithTaskFields(r.logger, task.Provider, task.Model, task.Document)

	if err := r.score(ctx, task, log); err != nil {
		r.failed.Add(1)
		log.Error("task failed", zap.Error(err))
		return
	}

	done := r.completed.Add(1)
	log.Info("task completed", zap.Int64("completed_so_far", done))
}

func (r *Runner) score(ctx context.Context, task Task, log *zap.Logger) error {
	exec, ok := r.executors[task.Provider]
	if !ok {
		return fmt.Errorf("no executor configured for provider %s", task.Provider)
	}

	data, err := os.ReadFile(task.Path)
	if err != nil {
		return fmt.Errorf("reading document: %w", err)
	}

	prompt := questionnaire.BuildPrompt(string(data))

	// Each iteration is a fresh provider call so score variance across runs
	// lands in the same CSV.
	records := make([]parser.Record, 0, r.cfg.IterationsPerFile)
	for i := 0; i < r.cfg.IterationsPerFile; i++ {
		log.Debug("dispatching request",
			zap.Int("group", task.Group),
			zap.Int("iteration", i+1),
		)

		raw, err := exec.Retry.Do(ctx, task.Model, func(ctx context.Context) (string, error) {
			return exec.Scorer.Score(ctx, prompt, task.Model)
		}, exec.Rotate)
		if err != nil {
			return fmt.Errorf("iteration %d: %w", i+1, err)
		}

		record, err := r.parser.Normalize(raw)
		if err != nil {
			return fmt.Errorf("iteration %d: normalizing response: %w", i+1, err)
		}
		records = append(records, *record)
	}

	path, err := r.writer.Write(task.Provider, task.Document, task.Model, records)
	if err != nil {
		return err
	}

	log.Debug("results written", zap.String("path", path))
	return nil
}
