package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	echoapi "github.com/shulehub/shule/apps/api/echo"
	"github.com/shulehub/shule/core"
	"github.com/shulehub/shule/core/school"
	"github.com/shulehub/shule/core/student"
	"github.com/shulehub/shule/core/teacher"
	"github.com/shulehub/shule/core/tenant"
	"github.com/shulehub/shule/core/user"
	emailsvc "github.com/shulehub/shule/services/email"
	logsvc "github.com/shulehub/shule/services/logger"
	"github.com/shulehub/shule/storage/database"
	gormrepos "github.com/shulehub/shule/storage/database/gorm"
)

func main() {
	std := log.New(os.Stdout, "API : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile)

	workDir, err := os.Getwd()
	errAndDie(std, err)
	conf, err := core.NewConfig(workDir)
	errAndDie(std, err)

	// set up logging
	logger := logsvc.NewRollbarLogger(std, conf)
	logger.Enable(!(conf.Debug || conf.TestMode))

	// set up validation
	enLoc := en.New()
	uni := ut.New(enLoc, enLoc)
	translator, _ := uni.GetTranslator("en")
	validate := validator.New()
	core.InitValidators(validate, translator)
	user.RegisterValidators(validate, translator)
	school.RegisterValidators(validate, translator)
	student.RegisterValidators(validate, translator)
	teacher.RegisterValidators(validate, translator)

	// set up DB
	db, err := database.Open(conf)
	errAndDie(std, err)
	errAndDie(std, database.Migrate(db))

	usrRepo := gormrepos.NewUserRepository(db)
	schRepo := gormrepos.NewSchoolRepository(db)
	stdRepo := gormrepos.NewStudentRepository(db)
	tchRepo := gormrepos.NewTeacherRepository(db)

	// set up services
	var mailSvc core.EmailService
	if conf.Debug {
		mailSvc = emailsvc.NewConsoleService(conf)
	} else {
		mailSvc = emailsvc.NewSendgridService(conf)
	}
	usrSvc := user.NewService(conf, usrRepo, mailSvc, logger, validate)
	schSvc := school.NewService(schRepo, mailSvc, logger, validate)
	stdSvc := student.NewService(stdRepo, validate)
	tchSvc := teacher.NewService(conf, tchRepo, stdRepo, mailSvc, logger, validate)
	resolver := tenant.NewResolver(schRepo, tchRepo, stdRepo)

	// start API server
	app := echoapi.NewServer(
		&echoapi.Options{
			Conf:       conf,
			Logger:     logger,
			Validate:   validate,
			Translator: translator,
			UserSvc:    usrSvc,
			SchoolSvc:  schSvc,
			StudentSvc: stdSvc,
			TeacherSvc: tchSvc,
			Resolver:   resolver,
		},
	)
	go app.Start()

	// block until a shutdown signal, then drain in-flight requests
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := app.Stop(ctx); err != nil {
		logger.Error("server shutdown failed", err)
		os.Exit(1)
	}
}

func errAndDie(logger *log.Logger, err error) {
	if err != nil {
		logger.Fatal(err)
	}
}
