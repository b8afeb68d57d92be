package main

import (
	"bytes"
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"testing"

	"github.com/go-playground/validator/v10"

	"github.com/kanisahq/kanisa/core"
	"github.com/kanisahq/kanisa/core/org"
	"github.com/kanisahq/kanisa/core/user"
	inmemdb "github.com/kanisahq/kanisa/storage/database/inmem"
)

func setup(t *testing.T) *commandLine {
	t.Helper()

	db, err := inmemdb.Open()
	if err != nil {
		t.Fatal(err)
	}
	conf := &core.Config{TestMode: true}
	orgRepo := inmemdb.NewOrgRepository(db)

	validate := validator.New()
	translator := newTranslator()
	core.InitValidators(validate, translator)
	org.InitValidators(validate, translator)
	user.InitValidators(validate, translator)

	return &commandLine{
		orgSvc:   org.NewService(nil, orgRepo, conf),
		orgRepo:  orgRepo,
		usrRepo:  inmemdb.NewUserRepository(db),
		validate: validate,
	}
}

func run(cli *commandLine, args ...string) error {
	root := newRootCmd(cli)
	root.SetOut(new(bytes.Buffer))
	root.SetErr(new(bytes.Buffer))
	root.SetArgs(args)
	return root.Execute()
}

type cliTest struct {
	name       string
	args       []string
	wantErrStr string
}

func Test_commandLine_migrate(t *testing.T) {
	cli := setup(t)

	origRunFunc := migrateRunFunc
	t.Cleanup(func() { migrateRunFunc = origRunFunc })
	migrateRunFunc = func(db *sql.DB, command string, args ...string) error {
		switch command {
		case "up", "up-by-one", "down", "fix", "redo", "reset", "status", "version": // pass
		case "up-to", "down-to":
			if len(args) == 0 {
				return fmt.Errorf("%s requires a VERSION argument", command)
			}
			if _, err := strconv.ParseInt(args[0], 10, 64); err != nil {
				return fmt.Errorf("version must be a number (got '%s')", args[0])
			}
		case "create":
			if len(args) == 0 {
				return fmt.Errorf("create requires a NAME argument")
			}
		default:
			return fmt.Errorf("%q: no such command", command)
		}
		return nil
	}

	tests := []cliTest{
		{name: "no subcommand", args: []string{"migrate"}, wantErrStr: "requires at least 1 arg(s), only received 0"},
		{name: "unknown subcommand", args: []string{"migrate", "lol"}, wantErrStr: "\"lol\": no such command"},
		{name: "up-to: no args", args: []string{"migrate", "up-to"}, wantErrStr: "up-to requires a VERSION argument"},
		{name: "up-to: non-int arg", args: []string{"migrate", "up-to", "lol"}, wantErrStr: "version must be a number (got 'lol')"},
		{name: "down-to: non-int arg", args: []string{"migrate", "down-to", "lol"}, wantErrStr: "version must be a number (got 'lol')"},
		{name: "create: no args", args: []string{"migrate", "create"}, wantErrStr: "create requires a NAME argument"},
		{name: "up", args: []string{"migrate", "up"}},
		{name: "up-by-one", args: []string{"migrate", "up-by-one"}},
		{name: "up-to", args: []string{"migrate", "up-to", "2"}},
		{name: "down", args: []string{"migrate", "down"}},
		{name: "down-to", args: []string{"migrate", "down-to", "1"}},
		{name: "redo", args: []string{"migrate", "redo"}},
		{name: "reset", args: []string{"migrate", "reset"}},
		{name: "status", args: []string{"migrate", "status"}},
		{name: "version", args: []string{"migrate", "version"}},
		{name: "create", args: []string{"migrate", "create", "groups", "sql"}},
		{name: "fix", args: []string{"migrate", "fix"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := run(cli, tt.args...)
			if tt.wantErrStr != "" {
				if err == nil || err.Error() != tt.wantErrStr {
					t.Errorf("run() error = %v, wantErrStr %s", err, tt.wantErrStr)
				}
			} else if err != nil {
				t.Errorf("run() unexpected error = %v", err)
			}
		})
	}
}

func Test_commandLine_addOrg(t *testing.T) {
	cli := setup(t)

	if err := run(cli, "addorg", "--name", "Grace Chapel", "--slug", "grace-chapel"); err != nil {
		t.Fatalf("run() unexpected error = %v", err)
	}
	o, err := cli.orgSvc.GetBySlug(context.Background(), "grace-chapel")
	if err != nil {
		t.Fatalf("GetBySlug() error = %v", err)
	}
	if o.Name != "Grace Chapel" {
		t.Errorf("Name = %s, want Grace Chapel", o.Name)
	}

	tests := []cliTest{
		{name: "missing slug", args: []string{"addorg", "--name", "No Slug"}, wantErrStr: "required flag(s) \"slug\" not set"},
		{name: "duplicate slug", args: []string{"addorg", "--name", "Grace II", "--slug", "grace-chapel"}, wantErrStr: "an organization with this slug already exists"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := run(cli, tt.args...)
			if err == nil || err.Error() != tt.wantErrStr {
				t.Errorf("run() error = %v, wantErrStr %s", err, tt.wantErrStr)
			}
		})
	}
}

func Test_commandLine_addUser(t *testing.T) {
	cli := setup(t)

	origReadFunc := readPasswordFunc
	t.Cleanup(func() { readPasswordFunc = origReadFunc })
	readPasswordFunc = func(fd int) ([]byte, error) { return []byte("s3cr3t!"), nil }

	o, err := cli.orgSvc.Create(context.Background(), org.NewOrg{Name: "Grace Chapel", Slug: "grace-chapel"})
	if err != nil {
		t.Fatal(err)
	}

	t.Run("creates a new user", func(t *testing.T) {
		if err := run(cli, "adduser", "--org", "grace-chapel", "--name", "Awe Mwamba", "--username", "awe", "--email", "awe@test.cd"); err != nil {
			t.Fatalf("run() unexpected error = %v", err)
		}
		usr, err := cli.usrRepo.GetUser(context.Background(), user.GetFilter{Username: "awe"})
		if err != nil {
			t.Fatalf("GetUser() error = %v", err)
		}
		if usr.OrgID != o.ID {
			t.Errorf("OrgID = %s, want %s", usr.OrgID, o.ID)
		}
		if !usr.Active() {
			t.Error("user should be active")
		}
		if err := usr.CheckPassword("s3cr3t!"); err != nil {
			t.Errorf("CheckPassword() error = %v", err)
		}
		if len(usr.Roles) != 0 {
			t.Errorf("Roles = %v, want none", usr.Roles)
		}
	})

	t.Run("updates an existing user", func(t *testing.T) {
		if err := run(cli, "adduser", "--org", "grace-chapel", "--username", "awe", "--email", "awe@test.cd", "--admin"); err != nil {
			t.Fatalf("run() unexpected error = %v", err)
		}
		usr, err := cli.usrRepo.GetUser(context.Background(), user.GetFilter{Username: "awe"})
		if err != nil {
			t.Fatalf("GetUser() error = %v", err)
		}
		if len(usr.Roles) != 1 || usr.Roles[0] != user.RoleAdminOwner {
			t.Errorf("Roles = %v, want [%s]", usr.Roles, user.RoleAdminOwner)
		}
	})

	t.Run("unknown org", func(t *testing.T) {
		err := run(cli, "adduser", "--org", "nope", "--username", "x", "--email", "x@test.cd")
		if err != org.ErrNotFound {
			t.Errorf("run() error = %v, want %v", err, org.ErrNotFound)
		}
	})
}

func Test_commandLine_resetPassword(t *testing.T) {
	cli := setup(t)

	origReadFunc := readPasswordFunc
	t.Cleanup(func() { readPasswordFunc = origReadFunc })
	readPasswordFunc = func(fd int) ([]byte, error) { return []byte("n3w-pwd"), nil }

	usr := user.User{OrgID: "org1", Name: "Awe Mwamba", Username: "awe", Email: "awe@test.cd"}
	usr.SetActive(true)
	if err := usr.SetPassword("0ld-pwd"); err != nil {
		t.Fatal(err)
	}
	if _, err := cli.usrRepo.CreateUser(context.Background(), nil, usr); err != nil {
		t.Fatal(err)
	}

	t.Run("unknown user", func(t *testing.T) {
		err := run(cli, "resetpassword", "--username", "nope")
		if err != user.ErrNotFound {
			t.Errorf("run() error = %v, want %v", err, user.ErrNotFound)
		}
	})

	t.Run("by username", func(t *testing.T) {
		if err := run(cli, "resetpassword", "--username", "awe"); err != nil {
			t.Fatalf("run() unexpected error = %v", err)
		}
		got, err := cli.usrRepo.GetUser(context.Background(), user.GetFilter{Username: "awe"})
		if err != nil {
			t.Fatal(err)
		}
		if err := got.CheckPassword("n3w-pwd"); err != nil {
			t.Errorf("CheckPassword() error = %v", err)
		}
	})

	t.Run("empty password", func(t *testing.T) {
		readPasswordFunc = func(fd int) ([]byte, error) { return nil, nil }
		err := run(cli, "resetpassword", "--username", "awe")
		if err == nil || err.Error() != "password cannot be empty" {
			t.Errorf("run() error = %v, want empty password error", err)
		}
	})
}
