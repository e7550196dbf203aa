package echoapi

import (
	"context"
	"net/http"
	"os"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"

	"github.com/RealCodeCrafter/ERP/core"
	"github.com/RealCodeCrafter/ERP/core/attendance"
	"github.com/RealCodeCrafter/ERP/core/group"
	"github.com/RealCodeCrafter/ERP/core/lesson"
	"github.com/RealCodeCrafter/ERP/core/operator"
	"github.com/RealCodeCrafter/ERP/core/payment"
	"github.com/RealCodeCrafter/ERP/core/teacher"
)

type (
	Options struct {
		Conf           *core.Config
		Logger         core.Logger
		DisableReqLogs bool

		GroupSvc      group.ServiceInterface
		LessonSvc     lesson.ServiceInterface
		AttendanceSvc attendance.ServiceInterface
		PaymentSvc    payment.ServiceInterface
		TeacherRepo   teacher.Repository
		OperatorRepo  operator.Repository

		// Sweeps are exposed for manual runs from the back office.
		AttendanceSweep func(ctx context.Context) error
		PaymentSweep    func(ctx context.Context) error
	}

	Server interface {
		http.Handler
		Start()
		Stop(context.Context) error
	}

	server struct {
		opts     *Options
		app      *echo.Echo
		shutdown chan os.Signal
	}
)

var _ Server = (*server)(nil)

func NewServer(opts *Options, shutdown chan os.Signal) Server {
	s := &server{
		opts:     opts,
		app:      echo.New(),
		shutdown: shutdown,
	}
	s.setup()
	return s
}

func (s *server) setup() {
	conf := s.opts.Conf

	s.app.Pre(middleware.RemoveTrailingSlash())
	if !s.opts.DisableReqLogs {
		s.app.Use(middleware.Logger())
	}
	// do not recover in DEV|TEST mode
	if conf.IsDeployed() {
		s.app.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{LogLevel: log.ERROR}))
	}

	s.app.HTTPErrorHandler = newAppHTTPErrorHandler(s.opts.Logger, s.signalShutdown)
	s.app.Debug = conf.Debug

	s.app.GET("/", home)

	v1 := s.app.Group("/v1")
	jwt := middleware.JWTWithConfig(newJWTConfig(conf))

	registerAuthAPI(v1, s.opts)
	registerGroupAPI(v1, jwt, s.opts.GroupSvc)
	registerLessonAPI(v1, jwt, s.opts.LessonSvc)
	registerAttendanceAPI(v1, jwt, s.opts.AttendanceSvc)
	registerPaymentAPI(v1, jwt, s.opts.PaymentSvc)
	registerSweepAPI(v1, jwt, s.opts)
}

func (s *server) Start() {
	s.app.Logger.Fatal(s.app.Start(s.opts.Conf.Server.Addr))
}

func (s *server) Stop(ctx context.Context) error {
	return s.app.Shutdown(ctx)
}

// signalShutdown sends a SIGTERM to initiate a graceful shutdown.
func (s *server) signalShutdown() {
	if s.shutdown != nil {
		s.shutdown <- os.Interrupt
	}
}

func (s *server) ServeHTTP(w http.ResponseWriter, r *http.Request) { // for tests
	s.app.ServeHTTP(w, r)
}

func home(ctx echo.Context) error {
	return ctx.String(http.StatusOK, "Welcome to the ERP API!")
}
