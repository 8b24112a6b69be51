package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/yabaapp/yaba-server/internal/domain"
	"github.com/yabaapp/yaba-server/internal/logger"
	"github.com/yabaapp/yaba-server/internal/query"
	"github.com/yabaapp/yaba-server/internal/service"
	"github.com/yabaapp/yaba-server/internal/store/sqlite"
	"github.com/yabaapp/yaba-server/internal/validation"
)

// options holds the global flags shared by every command.
type options struct {
	dbPath     string
	email      string
	password   string
	verbose    bool
	jsonOutput bool
}

// Execute runs the root command.
func Execute() {
	if err := NewRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// NewRootCommand builds the yabactl command tree.
func NewRootCommand() *cobra.Command {
	opts := &options{}

	root := &cobra.Command{
		Use:   "yabactl",
		Short: "Operate on a Yaba ledger database",
		Long: `yabactl works directly against a Yaba SQLite database.

Every command acts on behalf of one account, selected with --email and
--password (or YABA_EMAIL and YABA_PASSWORD).

Commands:
  import   - Load transactions from a CSV file
  export   - Write transactions as CSV
  parity   - List transactions whose tags and #hashtags disagree
  hashtag  - Append #tag to each tagged description
  seed     - Insert demo transactions`,
		SilenceUsage: true,
	}

	root.PersistentFlags().StringVar(&opts.dbPath, "db", envOr("DATABASE_PATH", "~/Yaba/yaba.db"), "Path to the SQLite database")
	root.PersistentFlags().StringVar(&opts.email, "email", os.Getenv("YABA_EMAIL"), "Account email")
	root.PersistentFlags().StringVar(&opts.password, "password", os.Getenv("YABA_PASSWORD"), "Account password")
	root.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "Verbose output")
	root.PersistentFlags().BoolVar(&opts.jsonOutput, "json", false, "Output in JSON format")

	root.AddCommand(
		newImportCommand(opts),
		newExportCommand(opts),
		newParityCommand(opts),
		newHashtagCommand(opts),
		newSeedCommand(opts),
	)
	return root
}

// ledger bundles the services a command needs and the account it acts for.
type ledger struct {
	store        *sqlite.Store
	auth         *service.AuthService
	tags         *service.TagService
	transactions *service.TransactionService
	csv          *service.LedgerService
	owner        *domain.User
}

func (l *ledger) Close() error {
	return l.store.Close()
}

// openLedger opens the database and builds the services without resolving
// an owner.
func openLedger(opts *options, stderr io.Writer) (*ledger, error) {
	path, err := expandHome(opts.dbPath)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create database directory: %w", err)
	}

	level := slog.LevelWarn
	if opts.verbose {
		level = slog.LevelDebug
	}
	log := logger.New(logger.Config{Writer: stderr, Level: level})

	db, err := sqlite.Open(path, log.Logger)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	validate := validation.New()
	engine := query.NewEngine(query.Limits{Default: query.DefaultLimit, Max: 500}, log.Logger)
	tags := service.NewTagService(db, validate, log.Logger)

	return &ledger{
		store:        db,
		auth:         service.NewAuthService(db, nil, nil, validate, log.Logger),
		tags:         tags,
		transactions: service.NewTransactionService(db, engine, validate, log.Logger),
		csv:          service.NewLedgerService(db, tags, log.Logger),
	}, nil
}

// openOwnedLedger opens the database and authenticates the account named by
// the global flags.
func openOwnedLedger(ctx context.Context, opts *options, stderr io.Writer) (*ledger, error) {
	if opts.email == "" || opts.password == "" {
		return nil, errors.New("--email and --password are required")
	}

	l, err := openLedger(opts, stderr)
	if err != nil {
		return nil, err
	}

	owner, err := l.auth.Authenticate(ctx, opts.email, opts.password)
	if err != nil {
		_ = l.Close()
		return nil, err
	}
	l.owner = owner
	return l, nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func expandHome(path string) (string, error) {
	if len(path) < 2 || path[:2] != "~/" {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home directory: %w", err)
	}
	return filepath.Join(home, path[2:]), nil
}
