package main

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/kanisahq/kanisa/core"
	"github.com/kanisahq/kanisa/core/user"
)

func newAddUserCmd(cli *commandLine) *cobra.Command {
	var (
		orgSlug string
		name    string
		uname   string
		email   string
		isAdmin bool
	)

	cmd := &cobra.Command{
		Use:   "adduser",
		Short: "Create or update a user account",
		Long:  "Create a user account in an organization, or update it if the username or email already exists. The password is prompted.",
		RunE: func(cmd *cobra.Command, args []string) error {
			pwd, err := promptPassword()
			if err != nil {
				return err
			}
			return cli.addUser(orgSlug, name, uname, email, pwd, isAdmin)
		},
	}
	cmd.Flags().StringVar(&orgSlug, "org", "", "The organization's slug.")
	cmd.Flags().StringVar(&name, "name", "", "The user's full name.")
	cmd.Flags().StringVar(&uname, "username", "", "The user's username.")
	cmd.Flags().StringVar(&email, "email", "", "The user's email.")
	cmd.Flags().BoolVar(&isAdmin, "admin", false, "Grant the owner role.")
	_ = cmd.MarkFlagRequired("org")
	_ = cmd.MarkFlagRequired("username")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}

// addUser updates or creates a user.User in the given organization.
func (cli *commandLine) addUser(orgSlug, name, uname, email, pwd string, isAdmin bool) error {
	ctx := context.Background()
	uname = core.CleanString(uname, true /* lower */)
	email = core.CleanString(email, true /* lower */)

	o, err := cli.orgSvc.GetBySlug(ctx, orgSlug)
	if err != nil {
		return err
	}

	usr, err := cli.usrRepo.GetUser(ctx, user.GetFilter{UsernameOrEmail: []string{uname, email}})
	if err != nil {
		if err != user.ErrNotFound {
			return err
		}
		usr = user.User{
			OrgID:    o.ID,
			Username: uname,
			Email:    email,
		}
	}
	if usr.OrgID != o.ID {
		return user.ErrNotFound
	}
	if name != "" {
		usr.Name = core.CleanString(name)
	}
	if isAdmin {
		usr.Roles = []string{user.RoleAdminOwner}
	}
	usr.SetActive(true)
	if err := usr.SetPassword(pwd); err != nil {
		return err
	}
	if _, err := cli.usrRepo.UpdateOrCreateUser(ctx, usr); err != nil {
		return err
	}
	return nil
}
