package main

import (
	"context"
	"database/sql"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kipkoec77/Edureach/core/user"
	"github.com/kipkoec77/Edureach/storage/database/inmem"
	"github.com/kipkoec77/Edureach/tests"
)

func setup(t *testing.T) *commandLine {
	t.Helper()
	return &commandLine{usrRepo: inmemdb.NewUserRepository(inmemdb.Open())}
}

func stubPassword(t *testing.T, pwd string) {
	t.Helper()
	orig := readPasswordFunc
	readPasswordFunc = func(int) ([]byte, error) { return []byte(pwd), nil }
	t.Cleanup(func() { readPasswordFunc = orig })
}

type cliTest struct {
	name       string
	args       []string // without program name
	pwd        string
	wantErr    error
	wantErrStr string
}

func (tt cliTest) check(t *testing.T, err error) {
	t.Helper()
	switch {
	case tt.wantErr != nil:
		assert.Equal(t, tt.wantErr, err)
	case tt.wantErrStr != "":
		require.Error(t, err)
		assert.Equal(t, tt.wantErrStr, err.Error())
	default:
		assert.NoError(t, err)
	}
}

func Test_commandLine_usage(t *testing.T) {
	cli := setup(t)
	tests := []cliTest{
		{name: "no command", wantErr: errHelp},
		{name: "unknown command", args: []string{"lol"}, wantErr: errHelp},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.check(t, cli.run(append([]string{"admin"}, tt.args...)))
		})
	}
}

func Test_commandLine_migrate(t *testing.T) {
	cli := setup(t)

	var gotCommand string
	var gotArgs []string
	orig := migrateFunc
	migrateFunc = func(_ *sql.DB, command string, args ...string) error {
		switch command {
		case "up", "down", "redo", "reset", "status", "version":
		case "up-to", "down-to":
			if len(args) == 0 {
				return fmt.Errorf("%s must be of form: %s VERSION", command, command)
			}
		default:
			return fmt.Errorf("%q: no such command", command)
		}
		gotCommand, gotArgs = command, args
		return nil
	}
	t.Cleanup(func() { migrateFunc = orig })

	tests := []cliTest{
		{name: "no subcommand", args: []string{"migrate"}, wantErr: errHelp},
		{name: "unknown subcommand", args: []string{"migrate", "lol"}, wantErrStr: "\"lol\": no such command"},
		{name: "up-to: no args", args: []string{"migrate", "up-to"}, wantErrStr: "up-to must be of form: up-to VERSION"},
		{name: "up", args: []string{"migrate", "up"}},
		{name: "down-to", args: []string{"migrate", "down-to", "1"}},
		{name: "status", args: []string{"migrate", "status"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gotCommand, gotArgs = "", nil
			err := cli.run(append([]string{"admin"}, tt.args...))
			tt.check(t, err)
			if err == nil {
				assert.Equal(t, tt.args[1], gotCommand)
				assert.Equal(t, tt.args[2:], gotArgs)
			}
		})
	}
}

func Test_commandLine_addUser(t *testing.T) {
	cli := setup(t)

	tests := []cliTest{
		{name: "no args", args: []string{"adduser"}, wantErr: errHelp},
		{name: "email required", args: []string{"adduser", "-name", "Admin"}, pwd: "lol", wantErr: errHelp},
		{name: "unknown role", args: []string{"adduser", "-name", "Admin", "-email", "admin@test.cd", "-role", "lol"}, pwd: "lol", wantErrStr: "\"lol\": unknown role"},
		{name: "password required", args: []string{"adduser", "-name", "Admin", "-email", "admin@test.cd"}, wantErr: errHelp},
		{name: "create admin", args: []string{"adduser", "-name", "Admin", "-email", " Admin@Test.cd "}, pwd: "lol"},
		{name: "update existing", args: []string{"adduser", "-name", "Tutor", "-email", "admin@test.cd", "-role", "tutor"}, pwd: "lmao"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stubPassword(t, tt.pwd)
			err := cli.run(append([]string{"admin"}, tt.args...))
			tt.check(t, err)
			if err != nil {
				return
			}
			usr, err := cli.usrRepo.GetUserByEmail(context.Background(), "admin@test.cd")
			require.NoError(t, err)
			assert.True(t, usr.IsActive)
			assert.NoError(t, usr.CheckPassword(tt.pwd))
		})
	}

	users, err := cli.usrRepo.FilterUsers(context.Background(), nil)
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Equal(t, "Tutor", users[0].Name)
	assert.Equal(t, user.RoleTutor, users[0].Role)
}

func Test_commandLine_resetPassword(t *testing.T) {
	cli := setup(t)
	usr := testutil.CreateUser(t, cli.usrRepo, "User", "awe@test.cd", "mdr", user.RoleStudent, true)

	tests := []cliTest{
		{name: "no args", args: []string{"resetpassword"}, wantErr: errHelp},
		{name: "email but no password", args: []string{"resetpassword", "-email", "lol"}, wantErr: errHelp},
		{name: "user not found", args: []string{"resetpassword", "-email", "lol@test.cd"}, pwd: "lol", wantErr: user.ErrNotFound},
		{name: "reset", args: []string{"resetpassword", "-email", "AWE@test.cd"}, pwd: "lmao"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stubPassword(t, tt.pwd)
			err := cli.run(append([]string{"admin"}, tt.args...))
			tt.check(t, err)
			if err == nil {
				refreshed, err := cli.usrRepo.GetUserByID(context.Background(), usr.ID)
				require.NoError(t, err)
				assert.NoError(t, refreshed.CheckPassword(tt.pwd))
			}
		})
	}
}
