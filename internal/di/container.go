package di

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"time"

	"browser-actor/internal/actor/action"
	"browser-actor/internal/actor/tools"
	"browser-actor/internal/adapter/rest"
	"browser-actor/internal/application/port/input"
	"browser-actor/internal/application/port/output"
	"browser-actor/internal/infrastructure/browser/rod"
	"browser-actor/internal/infrastructure/console"
	"browser-actor/internal/infrastructure/journal"
	"browser-actor/internal/infrastructure/llm/openrouter"
	"browser-actor/internal/infrastructure/logger"
	"browser-actor/internal/infrastructure/metrics"
	"browser-actor/internal/infrastructure/prompts"
	"browser-actor/internal/infrastructure/sequence"
	"browser-actor/internal/usecase/evaluator"
	"browser-actor/internal/usecase/executor"
	"browser-actor/internal/usecase/script"
	"browser-actor/internal/usecase/task"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

type Container struct {
	Logger   output.LoggerPort
	Runner   *sequence.Runner
	Journal  *journal.Handler
	Metrics  *prometheus.Registry
	Browser  *rod.Registry
	Tasks    input.TaskService
	Scripts  *script.Runner
	Reporter *console.Reporter
	// TaskExecutor and Evaluator are nil when no LLM is configured.
	TaskExecutor input.TaskExecutor
	Evaluator    *evaluator.Evaluator

	tabs output.TabRegistry
	cfg  Config
}

type Config struct {
	Browser rod.Config
	Tools   tools.Config
	Task    task.Config
	Logger  logger.Config

	HTTPAddr        string
	AccessLog       bool
	JournalMaxBytes int

	OpenRouterAPIKey string
	OpenRouterModel  string
	SystemPrompt     string
}

func DefaultConfig() Config {
	return Config{
		Browser:         rod.DefaultConfig(),
		Tools:           tools.DefaultConfig(),
		Task:            task.DefaultConfig(),
		Logger:          logger.DefaultConfig("actor"),
		HTTPAddr:        ":8080",
		JournalMaxBytes: 4 << 20,
	}
}

// ConfigFromEnv overlays DefaultConfig with the process configuration.
func ConfigFromEnv(env output.ConfigPort) Config {
	cfg := DefaultConfig()

	cfg.Browser.Headless = env.GetBool("ACTOR_HEADLESS", cfg.Browser.Headless)
	cfg.Browser.ControlURL = env.Get("ACTOR_BROWSER_URL")
	cfg.Tools.WaitDelay = env.GetDuration("ACTOR_WAIT_DELAY", cfg.Tools.WaitDelay)
	cfg.Tools.ObservationTimeout = env.GetDuration("ACTOR_OBSERVATION_TIMEOUT", cfg.Tools.ObservationTimeout)
	cfg.Task.Observe.Screenshot = env.GetBool("ACTOR_SCREENSHOTS", cfg.Task.Observe.Screenshot)
	cfg.Logger.Level = env.GetWithDefault("LOG_LEVEL", cfg.Logger.Level)
	cfg.Logger.Dir = env.GetWithDefault("LOG_DIR", cfg.Logger.Dir)
	cfg.HTTPAddr = env.GetWithDefault("ACTOR_HTTP_ADDR", cfg.HTTPAddr)
	cfg.AccessLog = env.GetBool("ACTOR_ACCESS_LOG", cfg.AccessLog)
	cfg.JournalMaxBytes = env.GetInt("ACTOR_JOURNAL_MAX_BYTES", cfg.JournalMaxBytes)
	cfg.OpenRouterAPIKey = env.Get("OPENROUTER_API_KEY")
	cfg.OpenRouterModel = env.GetWithDefault("OPENROUTER_MODEL_NAME", "openai/gpt-4o-mini")

	return cfg
}

func NewContainer(ctx context.Context, cfg Config) (*Container, error) {
	log, err := logger.NewLoggerAdapter(cfg.Logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}

	browser, err := rod.NewRegistry(ctx, cfg.Browser, log)
	if err != nil {
		log.Close()
		return nil, fmt.Errorf("failed to create browser: %w", err)
	}

	c, err := build(cfg, log, browser)
	if err != nil {
		browser.Close()
		log.Close()
		return nil, err
	}
	c.Browser = browser
	return c, nil
}

// build wires everything that does not own an external process.
func build(cfg Config, log output.LoggerPort, tabs output.TabRegistry) (*Container, error) {
	runner := sequence.New(nil)

	j := journal.New(log)
	handler := journal.NewHandler(j)
	if cfg.JournalMaxBytes > 0 {
		handler.Start(cfg.JournalMaxBytes)
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.NewActorMetrics(registry)

	factory := tools.NewFactory(tabs, runner, cfg.Tools)
	tasks := task.NewManager(tabs, factory, j, runner, log, m, cfg.Task)
	reporter := console.NewReporter(os.Stdout)

	c := &Container{
		Logger:   log,
		Runner:   runner,
		Journal:  handler,
		Metrics:  registry,
		Tasks:    tasks,
		Scripts:  script.NewRunner(tasks, reporter, console.NewPrompter(os.Stdin, os.Stdout), log),
		Reporter: reporter,
		tabs:     tabs,
		cfg:      cfg,
	}

	if cfg.OpenRouterAPIKey != "" {
		systemPrompt := cfg.SystemPrompt
		if systemPrompt == "" {
			var err error
			systemPrompt, err = prompts.GenerateSystemPrompt(prompts.SystemPrompt, action.ToolDefinitions())
			if err != nil {
				runner.Close()
				return nil, fmt.Errorf("failed to render system prompt: %w", err)
			}
		}

		llmCfg := openrouter.DefaultConfig(cfg.OpenRouterAPIKey, cfg.OpenRouterModel)
		llmCfg.Logger = log
		llm := openrouter.NewOpenRouterAdapter(llmCfg)
		c.TaskExecutor = executor.New(llm, tasks, log, reporter, systemPrompt)
		c.Evaluator = evaluator.New(llm, log)
	}

	return c, nil
}

func (c *Container) HTTPServer() *http.Server {
	opts := []rest.Option{rest.WithJournalMaxBytes(c.cfg.JournalMaxBytes)}
	if c.cfg.AccessLog {
		opts = append(opts, rest.WithAccessLog())
	}
	api := rest.NewServer(c.Tasks, c.tabs, c.Journal, c.Metrics, c.Logger, opts...)
	return &http.Server{
		Addr:              c.cfg.HTTPAddr,
		Handler:           api.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}
}

func (c *Container) Close() {
	if c.Journal != nil {
		c.Journal.Stop()
	}
	if c.Runner != nil {
		c.Runner.Close()
	}
	if c.Browser != nil {
		c.Browser.Close()
	}
	if c.Logger != nil {
		c.Logger.Close()
	}
}
