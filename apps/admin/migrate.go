package main

import (
	"github.com/spf13/cobra"
)

func newMigrateCmd(cli *commandLine) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate COMMAND [args]",
		Short: "Run database migrations",
		Long: `Run database migrations.

Supported commands: up, up-by-one, up-to VERSION, down, down-to VERSION,
redo, reset, status, version, fix, create NAME [go|sql].`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return cli.migrate(args[0], args[1:]...)
		},
	}
	return cmd
}

func (cli *commandLine) migrate(command string, args ...string) error {
	return migrateRunFunc(cli.db, command, args...)
}
