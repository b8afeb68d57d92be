package tests

import (
	"log"
	"os"
	"testing"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

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
	inmemdb "github.com/kanisahq/kanisa/storage/database/inmem"
	testutil "github.com/kanisahq/kanisa/tests"
)

var (
	conf *core.Config
	app  echoapi.Server
	deps echoapi.ServerDeps

	orgRepo org.Repository
	usrRepo user.Repository
	mbrRepo member.Repository
	grpRepo group.Repository
	attRepo attendance.Repository
	fupRepo followup.Repository
	msgRepo messaging.Repository

	mbrSvc member.ServiceInterface
	grpSvc group.ServiceInterface

	errMissingToken = httpErr{Error: "missing or malformed jwt"}
)

func TestMain(m *testing.M) {
	conf = testutil.NewConfig()
	conf.WorkDir = core.Getwd()

	logger := logsvc.NewRollbarLogger(log.New(os.Stdout, "TEST : ", log.LstdFlags), conf)
	logger.Enable(false)

	// set up DB & repos
	db, err := inmemdb.Open()
	if err != nil {
		log.Fatal(err)
	}
	orgRepo = inmemdb.NewOrgRepository(db)
	usrRepo = inmemdb.NewUserRepository(db)
	mbrRepo = inmemdb.NewMemberRepository(db)
	grpRepo = inmemdb.NewGroupRepository(db)
	attRepo = inmemdb.NewAttendanceRepository(db)
	fupRepo = inmemdb.NewFollowUpRepository(db)
	msgRepo = inmemdb.NewMessageRepository(db)

	// set up services
	mailSvc := emailsvc.NewConsoleServiceMock(conf)
	orgSvc := org.NewService(nil, orgRepo, conf)
	usrSvc := user.NewServiceMock(nil, usrRepo, mailSvc, conf)
	fupSvc := followup.NewService(nil, fupRepo, conf)
	mbrSvc = member.NewService(nil, mbrRepo, fupSvc, conf)
	grpSvc = group.NewService(nil, grpRepo, conf)
	attSvc := attendance.NewService(nil, attRepo, conf)
	msgSvc := messaging.NewService(nil, msgRepo, mailSvc, mbrSvc, grpSvc, conf)
	rptSvc := report.NewService(mbrRepo, grpRepo, fupRepo, mbrSvc, attSvc, conf)

	validate := validator.New()
	translator := newTranslator()
	core.InitValidators(validate, translator)
	org.InitValidators(validate, translator)
	user.InitValidators(validate, translator)
	member.InitValidators(validate, translator)

	core.ParseEmailTemplates(conf, logger)

	// set up server
	deps = echoapi.ServerDeps{
		Conf:           conf,
		Logger:         logger,
		OrgSvc:         orgSvc,
		UserSvc:        usrSvc,
		MemberSvc:      mbrSvc,
		GroupSvc:       grpSvc,
		AttendanceSvc:  attSvc,
		FollowUpSvc:    fupSvc,
		MessagingSvc:   msgSvc,
		ReportSvc:      rptSvc,
		Validate:       validate,
		Translator:     translator,
		DisableReqLogs: true,
	}
	app = echoapi.NewServer(deps)

	os.Exit(m.Run())
}

func newTranslator() ut.Translator {
	_en := en.New()
	uni := ut.New(_en, _en)
	translator, _ := uni.GetTranslator("en")
	return translator
}
