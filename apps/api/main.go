package main

import (
	"context"
	"database/sql"
	"expvar"
	"fmt"
	"log"
	"net/http"
	_ "net/http/pprof"
	"os"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"

	echoapi "github.com/kanisahq/kanisa/apps/api/echo"
	"github.com/kanisahq/kanisa/core"
	"github.com/kanisahq/kanisa/core/attendance"
	"github.com/kanisahq/kanisa/core/followup"
	"github.com/kanisahq/kanisa/core/group"
	"github.com/kanisahq/kanisa/core/member"
	"github.com/kanisahq/kanisa/core/messaging"
	"github.com/kanisahq/kanisa/core/org"
	"github.com/kanisahq/kanisa/core/report"
	"github.com/kanisahq/kanisa/core/user"
	emailsvc "github.com/kanisahq/kanisa/services/email"
	logsvc "github.com/kanisahq/kanisa/services/logger"
	"github.com/kanisahq/kanisa/storage/database"
	sqlxrepos "github.com/kanisahq/kanisa/storage/database/sqlx"
)

func main() {
	// =========================================================================
	// Set up Dependencies

	conf := core.NewConfig()

	logger := logsvc.NewRollbarLogger(
		log.New(os.Stdout, "API : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile),
		conf,
	)
	logger.Enable(!conf.Debug)

	db, err := setUpDB(conf)
	if err != nil {
		logger.Fatal(fmt.Sprintf("setting up database: %v", err), err)
	}
	defer func() {
		if err = db.Close(); err != nil {
			logger.Error("closing database", err)
		}
	}()
	sdb := sqlx.NewDb(db, "postgres")

	// repositories
	orgRepo := sqlxrepos.NewOrgRepository(sdb)
	usrRepo := sqlxrepos.NewUserRepository(sdb)
	mbrRepo := sqlxrepos.NewMemberRepository(sdb)
	grpRepo := sqlxrepos.NewGroupRepository(sdb)
	attRepo := sqlxrepos.NewAttendanceRepository(sdb)
	fupRepo := sqlxrepos.NewFollowUpRepository(sdb)
	msgRepo := sqlxrepos.NewMessageRepository(sdb)

	// services
	var mailSvc core.EmailService
	if conf.Debug {
		mailSvc = emailsvc.NewConsoleService(conf)
	} else {
		mailSvc = emailsvc.NewSendgridService(conf, logger)
	}
	orgSvc := org.NewService(db, orgRepo, conf)
	usrSvc := user.NewService(db, usrRepo, mailSvc, conf)
	fupSvc := followup.NewService(db, fupRepo, conf)
	mbrSvc := member.NewService(db, mbrRepo, fupSvc, conf)
	grpSvc := group.NewService(db, grpRepo, conf)
	attSvc := attendance.NewService(db, attRepo, conf)
	msgSvc := messaging.NewService(db, msgRepo, mailSvc, mbrSvc, grpSvc, conf)
	rptSvc := report.NewService(mbrRepo, grpRepo, fupRepo, mbrSvc, attSvc, conf)

	// =========================================================================
	// Initialize App

	logger.Info(fmt.Sprintf("Application initializing : version %q", conf.Build))
	defer logger.Info("Application stopped")

	validate := validator.New()
	translator := newTranslator()
	core.InitValidators(validate, translator)
	user.InitValidators(validate, translator)
	org.InitValidators(validate, translator)
	member.InitValidators(validate, translator)

	core.ParseEmailTemplates(conf, logger)

	// =========================================================================
	// Start Debug Service
	//
	// /debug/pprof - Added to the default mux by importing the net/http/pprof package.
	// /debug/vars - Added to the default mux by importing the expvar package.

	expvar.NewString("build").Set(conf.Build)
	expvar.NewString("env").Set(conf.Env)

	go func() {
		if err := http.ListenAndServe(conf.Server.DebugHost, http.DefaultServeMux); err != nil {
			logger.Error(fmt.Sprintf("debug server closed: %v", err), err)
		}
	}()

	// =========================================================================
	// Start API Service

	server := echoapi.NewServer(echoapi.ServerDeps{
		Conf:          conf,
		Logger:        logger,
		DB:            db,
		OrgSvc:        orgSvc,
		UserSvc:       usrSvc,
		MemberSvc:     mbrSvc,
		GroupSvc:      grpSvc,
		AttendanceSvc: attSvc,
		FollowUpSvc:   fupSvc,
		MessagingSvc:  msgSvc,
		ReportSvc:     rptSvc,
		Validate:      validate,
		Translator:    translator,
	})

	server.Start()

	// =========================================================================
	// Shutdown

	select {
	case err = <-server.Errors():
		logger.Fatal(fmt.Sprintf("server error: %v", err), err)

	case sig := <-server.ShutdownSignal():
		logger.Info(fmt.Sprintf("%v: Start shutdown...", sig))

		// give outstanding requests a deadline for completion
		ctx, cancel := context.WithTimeout(context.Background(), conf.Server.ShutdownTimeout)
		defer cancel()

		if err = server.Shutdown(ctx); err != nil {
			logger.Error(fmt.Sprintf("could not stop server gracefully: %v", err), err)

			if err = server.Close(); err != nil {
				logger.Fatal(fmt.Sprintf("could not force stop server: %v", err), err)
			}
		}
	}
}

func setUpDB(conf *core.Config) (*sql.DB, error) {
	if err := database.CreateIfNotExist(conf); err != nil {
		return nil, err
	}

	db, err := database.Open(conf)
	if err != nil {
		return nil, err
	}

	if err = database.Migrate(db); err != nil {
		return nil, err
	}
	return db, nil
}

func newTranslator() ut.Translator {
	_en := en.New()
	uni := ut.New(_en, _en)
	translator, _ := uni.GetTranslator("en")
	return translator
}
