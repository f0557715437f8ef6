// Package cli defines the cobra command tree for commentboard.
package cli

import (
	"database/sql"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/evcraddock/commentboard/internal/comment"
	"github.com/evcraddock/commentboard/internal/config"
	"github.com/evcraddock/commentboard/internal/db"
)

var (
	flagFormat string
	flagDB     string
	flagConfig string
)

// NewRootCmd creates the root cobra command with global flags.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "cb",
		Short:         "A small moderated comment board",
		Long:          "Serve a public comment board with duplicate guarding and automated moderation, and maintain its comments from the command line.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVar(&flagFormat, "format", "text", "output format (text|json)")
	root.PersistentFlags().StringVar(&flagDB, "db", "", "SQLite database path (default: ~/.commentboard/comments.db)")
	root.PersistentFlags().StringVar(&flagConfig, "config", "", "YAML config file (environment variables use the CB_ prefix)")

	root.AddCommand(
		newServeCmd(),
		newListCmd(),
		newRemoveCmd(),
		newModerateCmd(),
		newHashPasswordCmd(),
		newConfigCmd(),
		newVersionCmd(),
	)

	return root
}

// loadConfig reads configuration, letting --db override database.path.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(flagConfig)
	if err != nil {
		return nil, err
	}
	if flagDB != "" {
		cfg.Database.Path = flagDB
	}
	return cfg, nil
}

// openDB opens the SQLite database at the configured path.
func openDB(cfg *config.Config) (*sql.DB, error) {
	return db.Open(cfg.Database.Path)
}

// newCommentRepo loads config and opens a comment repository. The
// caller closes the returned database.
func newCommentRepo() (*comment.Repository, *sql.DB, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, nil, err
	}
	database, err := openDB(cfg)
	if err != nil {
		return nil, nil, err
	}
	return comment.NewRepository(database), database, nil
}

// isJSON returns true if the --format flag is set to json.
func isJSON() bool {
	return flagFormat == "json"
}

// closeDB closes the database, logging any error to stderr.
func closeDB(database *sql.DB) {
	if err := database.Close(); err != nil {
		fmt.Fprintf(os.Stderr, "warning: closing database: %v\n", err)
	}
}
