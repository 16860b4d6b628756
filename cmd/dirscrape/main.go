package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/alecthomas/kong"
	"github.com/fwojciec/dirscrape"
	"github.com/fwojciec/dirscrape/gemini"
	"github.com/fwojciec/dirscrape/goquery"
	"github.com/fwojciec/dirscrape/resty"
	"github.com/fwojciec/dirscrape/rod"
	"github.com/fwojciec/dirscrape/scrape"
	dslog "github.com/fwojciec/dirscrape/slog"
	"github.com/fwojciec/dirscrape/sqlite"
	"github.com/joho/godotenv"
	"google.golang.org/genai"
)

func main() {
	_ = godotenv.Load()

	ctx := context.Background()

	m := NewMain()

	if err := m.Run(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// Main represents the program.
type Main struct {
	// Database path. Set before calling Run().
	DBPath string

	// SQLite database used by SQLite service implementations.
	DB *sqlite.DB

	// Services for end-to-end testing.
	SessionService dirscrape.SessionService
}

// NewMain returns a new instance of Main with defaults.
func NewMain() *Main {
	return &Main{
		DBPath: defaultDBPath(),
	}
}

// Close gracefully stops the program.
func (m *Main) Close() error {
	if m.DB != nil {
		return m.DB.Close()
	}
	return nil
}

// Run executes the CLI with the given arguments.
func (m *Main) Run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	// Initialize dependencies struct for Kong binding
	deps := &Dependencies{
		Ctx:    ctx,
		Stdout: stdout,
		Stderr: stderr,
	}

	// Create Kong parser with dependency binding
	cli := &CLI{}
	parser, err := kong.New(cli,
		kong.Name("dirscrape"),
		kong.Writers(stdout, stderr),
		kong.Exit(func(int) {}), // Don't exit on help
		kong.Bind(deps),
	)
	if err != nil {
		return fmt.Errorf("failed to create parser: %w", err)
	}

	// Handle help flags using Kong
	if len(args) == 0 {
		_, _ = parser.Parse([]string{"--help"})
		return fmt.Errorf("no command specified. Run 'dirscrape --help' to see available commands")
	}

	cmd := args[0]
	if cmd == "help" || cmd == "--help" || cmd == "-h" {
		_, _ = parser.Parse([]string{"--help"})
		return nil
	}

	// Parse arguments first to know which command and its flags
	kongCtx, err := parser.Parse(args)
	if err != nil {
		return err
	}

	// Open database
	m.DB = sqlite.NewDB(m.DBPath)
	if err := m.DB.Open(); err != nil {
		fmt.Fprintf(stderr, "Hint: Set DIRSCRAPE_DB to use a different database path\n")
		return fmt.Errorf("failed to open database at %q: %w", m.DBPath, err)
	}
	defer m.Close()

	// Wire core services into dependencies
	m.SessionService = sqlite.NewSessionService(m.DB)
	deps.DB = m.DB
	deps.Sessions = m.SessionService

	// Wire scraping dependencies for commands that talk to the LLM
	if cmd == "run" || cmd == "probe" {
		apiKey := os.Getenv("GEMINI_API_KEY")
		if apiKey == "" {
			fmt.Fprintln(stderr, "GEMINI_API_KEY environment variable not set. Get an API key at https://aistudio.google.com/apikey")
			return fmt.Errorf("GEMINI_API_KEY not set. Get a key at https://aistudio.google.com/apikey")
		}

		client, err := genai.NewClient(ctx, &genai.ClientConfig{
			APIKey:  apiKey,
			Backend: genai.BackendGeminiAPI,
		})
		if err != nil {
			fmt.Fprintln(stderr, "Hint: Check your GEMINI_API_KEY is valid")
			return fmt.Errorf("failed to connect to Gemini API: %w", err)
		}

		browser, waitFor, verbose := cli.Run.Browser, cli.Run.WaitFor, cli.Run.Verbose
		if cmd == "probe" {
			browser, waitFor, verbose = cli.Probe.Browser, cli.Probe.WaitFor, cli.Probe.Verbose
		}

		var fetcher dirscrape.Fetcher
		if browser {
			var rodOpts []rod.Option
			if waitFor != "" {
				rodOpts = append(rodOpts, rod.WithWaitForSelector(waitFor))
			}
			f, err := rod.NewFetcher(rodOpts...)
			if err != nil {
				fmt.Fprintln(stderr, "Hint: Chrome or Chromium must be installed")
				return fmt.Errorf("failed to start browser: %w", err)
			}
			defer f.Close()
			fetcher = f
		} else {
			f := resty.NewFetcher()
			defer f.Close()
			fetcher = f
		}

		tokenCounter, err := gemini.NewTokenCounter(tokenizerModel)
		if err != nil {
			return fmt.Errorf("failed to create token counter: %w", err)
		}

		var resolver dirscrape.SelectorResolver = gemini.NewResolver(client, goquery.NewSketcher(),
			gemini.WithTokenCounter(tokenCounter))

		if verbose {
			logger := slog.New(slog.NewTextHandler(stderr, nil))
			fetcher = dslog.NewLoggingFetcher(fetcher, logger)
			resolver = dslog.NewLoggingResolver(resolver, logger)
		}

		deps.Scraper = &scrape.Scraper{
			Fetcher:      fetcher,
			Resolver:     resolver,
			NewExtractor: goquery.Factory,
		}

		if cmd == "run" {
			limiter := scrape.NewDomainLimiter(cli.Run.Rate)
			deps.Scraper.Limiter = limiter
			deps.Scraper.Concurrency = cli.Run.Concurrency
			deps.Scraper.MaxPages = cli.Run.MaxPages
			deps.Scraper.MinFields = cli.Run.MinFields

			if len(cli.Run.DetailSchema) > 0 {
				deps.Enricher = &scrape.Enricher{
					Fetcher:      fetcher,
					Resolver:     resolver,
					NewExtractor: goquery.Factory,
					Limiter:      limiter,
				}
			}
		}
	}

	return kongCtx.Run(deps)
}

// tokenizerModel is used for token counting. The resolver model and the
// tokenizer model must agree for the reported prompt sizes to be accurate.
const tokenizerModel = "gemini-2.5-flash"

func defaultDBPath() string {
	if path := os.Getenv("DIRSCRAPE_DB"); path != "" {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "dirscrape.db"
	}
	dir := filepath.Join(home, ".dirscrape")
	_ = os.MkdirAll(dir, 0755)
	return filepath.Join(dir, "dirscrape.db")
}
