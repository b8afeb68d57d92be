package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kanisahq/kanisa/core"
	"github.com/kanisahq/kanisa/core/org"
)

func newAddOrgCmd(cli *commandLine) *cobra.Command {
	var no org.NewOrg

	cmd := &cobra.Command{
		Use:   "addorg",
		Short: "Create a new organization",
		RunE: func(cmd *cobra.Command, args []string) error {
			o, err := cli.addOrg(no)
			if err != nil {
				return err
			}
			fmt.Printf("organization %q created (id: %s)\n", o.Slug, o.ID)
			return nil
		},
	}
	cmd.Flags().StringVar(&no.Name, "name", "", "The organization's name.")
	cmd.Flags().StringVar(&no.Slug, "slug", "", "A unique URL-friendly identifier.")
	cmd.Flags().StringVar(&no.Email, "email", "", "The organization's contact email.")
	cmd.Flags().StringVar(&no.Phone, "phone", "", "The organization's contact phone.")
	cmd.Flags().StringVar(&no.Address, "address", "", "The organization's address.")
	cmd.Flags().StringVar(&no.Timezone, "timezone", "", "IANA timezone name, e.g. Africa/Kinshasa.")
	_ = cmd.MarkFlagRequired("name")
	_ = cmd.MarkFlagRequired("slug")
	return cmd
}

func (cli *commandLine) addOrg(no org.NewOrg) (org.Org, error) {
	ctx := context.Background()
	if err := no.Validate(cli.validate, cli.orgSvc); err != nil {
		return org.Org{}, err
	}
	return cli.orgSvc.Create(ctx, no)
}

func newListOrgsCmd(cli *commandLine) *cobra.Command {
	return &cobra.Command{
		Use:   "listorgs",
		Short: "List all organizations",
		RunE: func(cmd *cobra.Command, args []string) error {
			orgs, err := cli.orgSvc.Query(context.Background(), []core.DBOrdering{{Field: "name", Ascending: true}})
			if err != nil {
				return err
			}
			for _, o := range orgs {
				fmt.Printf("%s\t%s\t%s\n", o.ID, o.Slug, o.Name)
			}
			return nil
		},
	}
}
