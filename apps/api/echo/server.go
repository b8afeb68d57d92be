package echoapi

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"

	"github.com/kanisahq/kanisa/core"
	"github.com/kanisahq/kanisa/core/attendance"
	"github.com/kanisahq/kanisa/core/followup"
	"github.com/kanisahq/kanisa/core/group"
	"github.com/kanisahq/kanisa/core/member"
	"github.com/kanisahq/kanisa/core/messaging"
	"github.com/kanisahq/kanisa/core/org"
	"github.com/kanisahq/kanisa/core/report"
	"github.com/kanisahq/kanisa/core/user"
)

type (
	// ServerDeps carries everything the API server needs.
	ServerDeps struct {
		Conf           *core.Config
		Logger         core.Logger
		DB             core.DB // nil when repositories manage their own state

		OrgSvc         org.ServiceInterface
		UserSvc        user.ServiceInterface
		MemberSvc      member.ServiceInterface
		GroupSvc       group.ServiceInterface
		AttendanceSvc  attendance.ServiceInterface
		FollowUpSvc    followup.ServiceInterface
		MessagingSvc   messaging.ServiceInterface
		ReportSvc      report.ServiceInterface
		Validate       *validator.Validate
		Translator     ut.Translator
		DisableReqLogs bool
	}

	Server interface {
		http.Handler
		Start()
		Errors() <-chan error
		ShutdownSignal() <-chan os.Signal
		Shutdown(context.Context) error
		Close() error
	}

	server struct {
		deps     ServerDeps
		app      *echo.Echo
		errs     chan error
		shutdown chan os.Signal
	}
)

var _ Server = (*server)(nil)

func NewServer(deps ServerDeps) Server {
	s := &server{
		deps:     deps,
		app:      echo.New(),
		errs:     make(chan error, 1),
		shutdown: make(chan os.Signal, 1),
	}
	s.setup()
	return s
}

func (s *server) setup() {
	conf := s.deps.Conf

	s.app.Pre(middleware.RemoveTrailingSlash())
	if !s.deps.DisableReqLogs {
		s.app.Use(middleware.Logger())
	}
	// do not recover in DEV|TEST mode
	if !(conf.Debug || conf.TestMode) {
		s.app.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{LogLevel: log.ERROR}))
	}

	s.app.HTTPErrorHandler = newAppHTTPErrorHandler(s.deps.Logger, s.deps.Translator, s.signalShutdown)
	s.app.Debug = conf.Debug
	s.app.HideBanner = true

	s.app.GET("/", home)

	v1 := s.app.Group("/v1")
	jwt := middleware.JWTWithConfig(newJWTConfig(conf))

	registerOrgAPI(v1, jwt, s.deps)
	registerUserAPI(v1, jwt, s.deps)
	registerMemberAPI(v1, jwt, s.deps)
	registerGroupAPI(v1, jwt, s.deps)
	registerAttendanceAPI(v1, jwt, s.deps)
	registerFollowUpAPI(v1, jwt, s.deps)
	registerMessageAPI(v1, jwt, s.deps)
	registerReportAPI(v1, jwt, s.deps)
}

func (s *server) Start() {
	signal.Notify(s.shutdown, os.Interrupt, syscall.SIGTERM)
	go func() {
		s.errs <- s.app.Start(s.deps.Conf.Server.Addr)
	}()
}

func (s *server) Errors() <-chan error { return s.errs }

func (s *server) ShutdownSignal() <-chan os.Signal { return s.shutdown }

func (s *server) signalShutdown() {
	s.shutdown <- syscall.SIGTERM
}

func (s *server) Shutdown(ctx context.Context) error {
	return s.app.Shutdown(ctx)
}

func (s *server) Close() error {
	return s.app.Close()
}

func (s *server) ServeHTTP(w http.ResponseWriter, r *http.Request) { // for tests
	s.app.ServeHTTP(w, r)
}

func home(ctx echo.Context) error {
	return ctx.String(http.StatusOK, "Welcome to Kanisa API!")
}
