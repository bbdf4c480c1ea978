package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/Veraticus/tally/internal/auth"
	"github.com/Veraticus/tally/internal/cli"
	"github.com/Veraticus/tally/internal/common"
	"github.com/Veraticus/tally/internal/engine"
	"github.com/Veraticus/tally/internal/model"
	"github.com/Veraticus/tally/internal/storage"
)

const (
	keyUser     = "user"
	keyPassword = "password"
)

// session is an open ledger plus the user commands act as.
type session struct {
	engine   *engine.Engine
	store    *storage.SQLiteStorage
	prompter *cli.Prompter
	user     *model.User
}

func (s *session) Close() {
	_ = s.store.Close()
}

// openEngine opens and migrates the configured database.
func openEngine(ctx context.Context) (*engine.Engine, *storage.SQLiteStorage, error) {
	store, err := storage.NewSQLiteStorage(appConfig.DatabasePath)
	if err != nil {
		return nil, nil, common.NewUserError("could not open the ledger at "+appConfig.DatabasePath, err)
	}

	// Run migrations
	if err := store.Migrate(ctx); err != nil {
		_ = store.Close()
		return nil, nil, common.NewUserError("could not upgrade the ledger at "+appConfig.DatabasePath, err)
	}

	logger := slog.Default()
	eng := engine.NewWithConfig(store, auth.NewBcryptHasher(), common.NewSlogReporter(logger), engine.Config{
		HistoryDefaultLimit: appConfig.HistoryDefaultLimit,
		Logger:              logger,
	})
	return eng, store, nil
}

// openSession opens the ledger and authenticates. With --user and
// TALLY_PASSWORD both set there is one attempt; otherwise the user is
// prompted, up to cli.MaxLoginAttempts times.
func openSession(cmd *cobra.Command) (*session, error) {
	ctx := cmd.Context()
	eng, store, err := openEngine(ctx)
	if err != nil {
		return nil, err
	}

	prompter := cli.NewPrompter(os.Stdin, cmd.ErrOrStderr())
	user, err := authenticate(cmd, eng, prompter)
	if err != nil {
		_ = store.Close()
		return nil, err
	}
	return &session{engine: eng, store: store, prompter: prompter, user: user}, nil
}

func authenticate(cmd *cobra.Command, eng *engine.Engine, prompter *cli.Prompter) (*model.User, error) {
	ctx := cmd.Context()
	username := viper.GetString(keyUser)
	password := viper.GetString(keyPassword)

	if username != "" && password != "" {
		return eng.Authenticate(ctx, username, password)
	}

	return prompter.Login(ctx, username, eng.Authenticate)
}

func printf(cmd *cobra.Command, format string, args ...any) {
	_, _ = fmt.Fprintf(cmd.OutOrStdout(), format, args...)
}

func printLine(cmd *cobra.Command, line string) {
	_, _ = fmt.Fprintln(cmd.OutOrStdout(), line)
}
