package main

import (
	"bytes"
	"context"
	"fmt"
	"strconv"
	"testing"

	"github.com/jmoiron/sqlx"

	"github.com/fypcompass/compass/core"
	"github.com/fypcompass/compass/core/user"
	inmemdb "github.com/fypcompass/compass/storage/database/inmem"
	"github.com/fypcompass/compass/testutil"
)

var usrRepo user.Repository

func setup(t *testing.T) *commandLine {
	usrRepo = inmemdb.NewUserRepository(inmemdb.Open())

	// start CLI
	return &commandLine{usrRepo: usrRepo}
}

type cliTest struct {
	name       string
	args       []string // without program name
	wantErr    error
	wantErrStr string
	extra      interface{}
}

func (tt cliTest) check(t *testing.T, err error) bool {
	t.Helper()

	if err == nil {
		if tt.wantErr != nil || tt.wantErrStr != "" {
			t.Errorf("cli.run() error = nil, want an error")
		}
		return true
	}
	switch {
	case tt.wantErr != nil:
		if err != tt.wantErr {
			t.Errorf("cli.run() error = %v, wantErr %v", err, tt.wantErr)
		}
	case tt.wantErrStr != "":
		if err.Error() != tt.wantErrStr {
			t.Errorf("cli.run() error.Error() = %s, wantErrStr %s", err.Error(), tt.wantErrStr)
		}
	default:
		t.Errorf("cli.run() unexpected error = %v", err)
	}
	return false
}

func mockPassword(pwd string) {
	readPasswordFunc = func(fd int) ([]byte, error) {
		return []byte(pwd), nil
	}
}

func Test_commandLine_migrate(t *testing.T) {
	cli := setup(t)

	var ran []string
	gooseRunFunc = func(db *sqlx.DB, command string, args ...string) error {
		switch command {
		case "up", "up-by-one", "down", "fix", "redo", "reset", "status", "version": // pass
		case "up-to", "down-to":
			if len(args) == 0 {
				return fmt.Errorf("%s must be of form: goose [OPTIONS] DRIVER DBSTRING %s VERSION", command, command)
			}
			if _, err := strconv.ParseInt(args[0], 10, 64); err != nil {
				return fmt.Errorf("version must be a number (got '%s')", args[0])
			}
		default:
			return fmt.Errorf("%q: no such command", command)
		}
		ran = append(ran, command)
		return nil
	}

	tests := []cliTest{
		{name: "no subcommand", args: []string{"migrate"}, wantErr: errHelp},
		{name: "unknown subcommand", args: []string{"migrate", "lol"}, wantErrStr: "\"lol\": no such command"},
		{name: "up-to: no args", args: []string{"migrate", "up-to"}, wantErrStr: "up-to must be of form: goose [OPTIONS] DRIVER DBSTRING up-to VERSION"},
		{name: "up-to: non-int arg", args: []string{"migrate", "up-to", "lol"}, wantErrStr: "version must be a number (got 'lol')"},
		{name: "down-to: no args", args: []string{"migrate", "down-to"}, wantErrStr: "down-to must be of form: goose [OPTIONS] DRIVER DBSTRING down-to VERSION"},
		{name: "up", args: []string{"migrate", "up"}},
		{name: "up-by-one", args: []string{"migrate", "up-by-one"}},
		{name: "up-to", args: []string{"migrate", "up-to", "2"}},
		{name: "down", args: []string{"migrate", "down"}},
		{name: "down-to", args: []string{"migrate", "down-to", "1"}},
		{name: "redo", args: []string{"migrate", "redo"}},
		{name: "reset", args: []string{"migrate", "reset"}},
		{name: "status", args: []string{"migrate", "status"}},
		{name: "version", args: []string{"migrate", "version"}},
		{name: "fix", args: []string{"migrate", "fix"}},
	}
	for _, tt := range tests {
		args := append([]string{"admin"}, tt.args...)

		t.Run(tt.name, func(t *testing.T) {
			tt.check(t, cli.run(args))
		})
	}

	if len(ran) != 10 {
		t.Errorf("ran %d migration commands, want 10: %v", len(ran), ran)
	}
}

func Test_commandLine_addUser(t *testing.T) {
	cli := setup(t)
	ctx := context.Background()

	existing := testutil.CreateUser(t, usrRepo, "Old Name", "prof@compass.io", "OldPassw0rd", user.RoleAdvisor, false)

	type extra struct {
		pwd      string
		wantName string
		wantRole string
	}
	tests := []cliTest{
		{name: "no args", args: []string{"adduser"}, wantErr: errHelp},
		{name: "no name", args: []string{"adduser", "-email", "root@compass.io"}, extra: extra{pwd: "Sup3rS3cret!"}, wantErr: errHelp},
		{name: "no password", args: []string{"adduser", "-email", "root@compass.io", "-name", "Root"}, wantErr: errHelp},
		{
			name: "invalid role", args: []string{"adduser", "-email", "root@compass.io", "-name", "Root", "-role", "dean"},
			extra: extra{pwd: "Sup3rS3cret!"}, wantErrStr: `"dean" is not a valid role`,
		},
		{
			name: "create admin", args: []string{"adduser", "-email", " Root@Compass.io ", "-name", "Root"},
			extra: extra{pwd: "Sup3rS3cret!", wantName: "Root", wantRole: user.RoleAdmin},
		},
		{
			name: "update existing", args: []string{"adduser", "-email", existing.Email, "-name", "Dr. Prof", "-role", "Admin"},
			extra: extra{pwd: "N3wPassw0rd", wantName: "Dr. Prof", wantRole: user.RoleAdmin},
		},
	}
	for _, tt := range tests {
		args := append([]string{"admin"}, tt.args...)
		ext, _ := tt.extra.(extra)
		mockPassword(ext.pwd)

		t.Run(tt.name, func(t *testing.T) {
			if !tt.check(t, cli.run(args)) {
				return
			}
			email := core.CleanString(args[3], true /* lower */)
			usr, err := usrRepo.GetUser(ctx, user.GetFilter{Email: email})
			if err != nil {
				t.Fatalf("GetUser() failed, %v", err)
			}
			if usr.Name != ext.wantName || usr.Role != ext.wantRole || !usr.IsActive {
				t.Errorf("addUser() got %q %q active=%t, want %q %q active=true", usr.Name, usr.Role, usr.IsActive, ext.wantName, ext.wantRole)
			}
			if err := usr.CheckPassword(ext.pwd); err != nil {
				t.Errorf("CheckPassword() failed, %v", err)
			}
		})
	}

	users, err := usrRepo.QueryUsers(ctx, nil, nil)
	if err != nil {
		t.Fatalf("QueryUsers() failed, %v", err)
	}
	if len(users) != 2 {
		t.Errorf("got %d users, want 2", len(users))
	}
}

func Test_commandLine_resetPassword(t *testing.T) {
	cli := setup(t)

	usr := testutil.CreateUser(t, usrRepo, "Awe", "awe@compass.io", "Passw0rd!", user.RoleStudent, true)

	tests := []cliTest{
		{name: "no command", wantErr: errHelp},
		{name: "unknown command", args: []string{"lol"}, wantErr: errHelp},
		{name: "no args", args: []string{"resetpassword"}, wantErr: errHelp},
		{name: "email but no password", args: []string{"resetpassword", "-email", "lol@compass.io"}, wantErr: errHelp},
		{name: "user not found", args: []string{"resetpassword", "-email", "lol@compass.io"}, extra: "lol", wantErr: user.ErrNotFound},
		{name: "reset", args: []string{"resetpassword", "-email", usr.Email}, extra: "lmao1234"},
		{name: "reset: email is cleaned", args: []string{"resetpassword", "-email", " AWE@compass.io"}, extra: "roflmao1"},
	}
	for _, tt := range tests {
		args := append([]string{"admin"}, tt.args...)
		pwd, _ := tt.extra.(string)
		mockPassword(pwd)

		t.Run(tt.name, func(t *testing.T) {
			if !tt.check(t, cli.run(args)) {
				return
			}
			refreshedUsr, err := usrRepo.GetUser(context.Background(), user.GetFilter{ID: usr.ID})
			if err != nil {
				t.Fatalf("GetUser() failed, %v", err)
			}
			if bytes.Equal(refreshedUsr.PasswordHash, usr.PasswordHash) {
				t.Error("failed to update new password")
			}
			if err := refreshedUsr.CheckPassword(pwd); err != nil {
				t.Errorf("CheckPassword() failed, %v", err)
			}
		})
	}
}
