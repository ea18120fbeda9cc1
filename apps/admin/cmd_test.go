package main

import (
	"errors"
	"log"
	"os"
	"testing"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/shulehub/shule/core"
	"github.com/shulehub/shule/core/user"
	emailsvc "github.com/shulehub/shule/services/email"
	logsvc "github.com/shulehub/shule/services/logger"
	inmemdb "github.com/shulehub/shule/storage/database/inmem"
)

var usrRepo user.Repository

func setup(t *testing.T) *commandLine {
	t.Helper()

	conf := core.NewTestConfig()
	enLoc := en.New()
	uni := ut.New(enLoc, enLoc)
	translator, _ := uni.GetTranslator("en")
	validate := validator.New()
	core.InitValidators(validate, translator)
	user.RegisterValidators(validate, translator)

	db := inmemdb.NewDB()
	usrRepo = inmemdb.NewUserRepository(db)
	std := logsvc.NewStdLogger(log.New(os.Stderr, "", log.LstdFlags))
	usrSvc := user.NewService(conf, usrRepo, emailsvc.NewConsoleServiceMock(conf), std, validate)

	return &commandLine{
		usrRepo:     usrRepo,
		usrSvc:      usrSvc,
		migrateFunc: func() error { return nil },
	}
}

type cliTest struct {
	name    string
	args    []string // without program name
	pwd     string
	wantErr error
}

func Test_commandLine_run(t *testing.T) {
	tests := []cliTest{
		{name: "no args prints usage", args: []string{}, wantErr: errHelp},
		{name: "unknown command prints usage", args: []string{"frobnicate"}, wantErr: errHelp},
		{name: "migrate", args: []string{"migrate"}},
		{name: "createsuperuser requires email", args: []string{"createsuperuser", "-name", "Root"}, wantErr: errHelp},
		{name: "createsuperuser requires name", args: []string{"createsuperuser", "-email", "root@test.local"}, wantErr: errHelp},
		{name: "createsuperuser requires a password", args: []string{"createsuperuser", "-email", "root@test.local", "-name", "Root"}, pwd: "", wantErr: errHelp},
		{name: "createsuperuser", args: []string{"createsuperuser", "-email", "root@test.local", "-name", "Root"}, pwd: "Sup3rSecret!"},
		{name: "resetpassword requires email", args: []string{"resetpassword"}, wantErr: errHelp},
		{name: "resetpassword unknown user", args: []string{"resetpassword", "-email", "ghost@test.local"}, pwd: "Sup3rSecret!", wantErr: user.ErrNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cli := setup(t)
			readPasswordFunc = func(fd int) ([]byte, error) { return []byte(tt.pwd), nil }
			defer func() { readPasswordFunc = nil }()

			err := cli.run(append([]string{"admin"}, tt.args...))
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("run() error = %v; wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func Test_commandLine_createSuperuser(t *testing.T) {
	cli := setup(t)
	readPasswordFunc = func(fd int) ([]byte, error) { return []byte("Sup3rSecret!"), nil }

	if err := cli.run([]string{"admin", "createsuperuser", "-email", "Root@Test.Local", "-name", "Root"}); err != nil {
		t.Fatalf("run() error = %v", err)
	}

	usr, err := usrRepo.GetUserByEmail("root@test.local")
	if err != nil {
		t.Fatalf("GetUserByEmail() error = %v", err)
	}
	if !usr.IsSuperuser || !usr.IsStaff || !usr.IsVerified {
		t.Errorf("superuser flags = %+v", usr)
	}
	if err := usr.CheckPassword("Sup3rSecret!"); err != nil {
		t.Errorf("CheckPassword() error = %v", err)
	}
}

func Test_commandLine_resetPassword(t *testing.T) {
	cli := setup(t)
	readPasswordFunc = func(fd int) ([]byte, error) { return []byte("Initial1!"), nil }
	if err := cli.run([]string{"admin", "createsuperuser", "-email", "reset@test.local", "-name", "Reset"}); err != nil {
		t.Fatalf("run() error = %v", err)
	}

	readPasswordFunc = func(fd int) ([]byte, error) { return []byte("Chang3d!!"), nil }
	if err := cli.run([]string{"admin", "resetpassword", "-email", "reset@test.local"}); err != nil {
		t.Fatalf("run() error = %v", err)
	}

	usr, err := usrRepo.GetUserByEmail("reset@test.local")
	if err != nil {
		t.Fatalf("GetUserByEmail() error = %v", err)
	}
	if err := usr.CheckPassword("Chang3d!!"); err != nil {
		t.Errorf("CheckPassword() error = %v", err)
	}
}
