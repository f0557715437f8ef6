package cli

import (
	"github.com/spf13/cobra"
)

func newListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List all comments",
		Long:  "List every stored comment, newest first, including its address fingerprint.",
		Args:  cobra.NoArgs,
		RunE:  runList,
	}
}

func runList(cmd *cobra.Command, args []string) error {
	repo, database, err := newCommentRepo()
	if err != nil {
		return err
	}
	defer closeDB(database)

	comments, err := repo.ListAll(cmd.Context())
	if err != nil {
		return err
	}

	if isJSON() {
		return printJSON(cmd.OutOrStdout(), comments)
	}

	return printCommentTable(cmd.OutOrStdout(), comments)
}
