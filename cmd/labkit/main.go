// Command labkit manages the student directory and the expense tracker from
// the terminal, over the same SQLite document store the browser build uses.
package main

import (
	"fmt"
	"io"
	"os"

	"github.com/kittclouds/labkit/internal/config"
	"github.com/kittclouds/labkit/internal/logging"
	"github.com/kittclouds/labkit/internal/store"
	"github.com/kittclouds/labkit/pkg/directory"
	"github.com/kittclouds/labkit/pkg/expense"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// app holds what the subcommands share once the root command has run.
type app struct {
	cfg     config.Config
	logger  *zap.Logger
	db      *store.SQLiteStore
	dir     *directory.Store
	expense *expense.Service

	verbose bool
	dbPath  string
}

func newRootCmd(a *app) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "labkit",
		Short: "Student directory and expense tracker",
		Long: `labkit keeps a student directory and an income/expense ledger in a
single SQLite file. Settings come from LABKIT_* environment variables.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.open()
		},
	}

	rootCmd.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().StringVar(&a.dbPath, "db", "", "Database file (default: $LABKIT_DB_PATH)")

	rootCmd.AddCommand(newStudentsCmd(a))
	rootCmd.AddCommand(newExpensesCmd(a))
	return rootCmd
}

func (a *app) open() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if a.dbPath != "" {
		cfg.DBPath = a.dbPath
	}
	if a.verbose {
		cfg.LogLevel = "debug"
	}
	a.cfg = cfg

	a.logger, err = logging.New(cfg.LogLevel)
	if err != nil {
		return err
	}

	a.db, err = store.NewSQLiteStoreWithDSN(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", cfg.DBPath, err)
	}

	opts := []directory.Option{
		directory.WithKey(cfg.StudentsKey),
		directory.WithLogger(a.logger),
	}
	if cfg.UniqueStudentIDs {
		opts = append(opts, directory.WithUniqueIDs())
	}
	a.dir = directory.New(a.db, opts...)
	if err := a.dir.Restore(); err != nil {
		return fmt.Errorf("failed to load students: %w", err)
	}

	a.expense = expense.NewService(a.db, a.logger)
	return nil
}

func (a *app) close() {
	if a.expense != nil {
		a.expense.Close()
	}
	if a.db != nil {
		if err := a.db.Close(); err != nil {
			a.logger.Warn("close database", zap.Error(err))
		}
	}
	if a.logger != nil {
		_ = a.logger.Sync()
	}
}

// run executes one command line and releases the database afterwards,
// whether or not the command succeeded.
func run(args []string, out io.Writer) error {
	a := &app{}
	defer a.close()

	rootCmd := newRootCmd(a)
	rootCmd.SetArgs(args)
	rootCmd.SetOut(out)
	return rootCmd.Execute()
}

func main() {
	if err := run(os.Args[1:], os.Stdout); err != nil {
		config.Exitf("%v", err)
	}
}
