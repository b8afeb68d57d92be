package main

import (
	"database/sql"
	"fmt"
	"syscall"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/kanisahq/kanisa/core/org"
	"github.com/kanisahq/kanisa/core/user"
	"github.com/kanisahq/kanisa/storage/database"
)

var (
	readPasswordFunc = term.ReadPassword    // mockable
	migrateRunFunc   = database.RunMigration // mockable
)

type commandLine struct {
	db       *sql.DB
	orgSvc   org.ServiceInterface
	orgRepo  org.Repository
	usrRepo  user.Repository
	validate *validator.Validate
}

func newRootCmd(cli *commandLine) *cobra.Command {
	root := &cobra.Command{
		Use:           "admin",
		Short:         "Kanisa administration CLI",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	root.AddCommand(
		newMigrateCmd(cli),
		newAddOrgCmd(cli),
		newListOrgsCmd(cli),
		newAddUserCmd(cli),
		newResetPasswordCmd(cli),
	)
	return root
}

// promptPassword reads a password from the terminal without echoing it.
func promptPassword() (string, error) {
	fmt.Print("Enter password:")
	pwd, err := readPasswordFunc(syscall.Stdin)
	fmt.Println()
	if err != nil {
		return "", err
	}
	if len(pwd) == 0 {
		return "", fmt.Errorf("password cannot be empty")
	}
	return string(pwd), nil
}
