package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/RealCodeCrafter/ERP/apps/api/echo"
	"github.com/RealCodeCrafter/ERP/core"
	"github.com/RealCodeCrafter/ERP/core/attendance"
	"github.com/RealCodeCrafter/ERP/core/group"
	"github.com/RealCodeCrafter/ERP/core/lesson"
	"github.com/RealCodeCrafter/ERP/core/payment"
	"github.com/RealCodeCrafter/ERP/core/schedule"
	"github.com/RealCodeCrafter/ERP/services/email"
	"github.com/RealCodeCrafter/ERP/services/logger"
	"github.com/RealCodeCrafter/ERP/services/sms"
	"github.com/RealCodeCrafter/ERP/storage/database"
	"github.com/RealCodeCrafter/ERP/storage/database/sqlx"
)

func main() {
	conf := core.NewConfig()
	core.InitValidators()

	std := log.New(os.Stdout, conf.AppName+" - ", log.LstdFlags|log.Lshortfile)

	var appLogger core.Logger
	if conf.IsDeployed() && conf.RollbarToken != "" {
		appLogger = logsvc.NewRollbarLogger(std, conf)
	} else {
		appLogger = logsvc.NewConsoleLogger(std)
	}

	// set up DB
	db, err := database.Open(conf)
	if err != nil {
		appLogger.Fatal("opening database", err)
	}
	defer func() { _ = db.Close() }()

	studentRepo := sqlxrepos.NewStudentRepository(db)
	teacherRepo := sqlxrepos.NewTeacherRepository(db)
	operatorRepo := sqlxrepos.NewOperatorRepository(db)
	courseRepo := sqlxrepos.NewCourseRepository(db)
	groupRepo := sqlxrepos.NewGroupRepository(db)
	lessonRepo := sqlxrepos.NewLessonRepository(db)
	paymentRepo := sqlxrepos.NewPaymentRepository(db)
	attendanceRepo := sqlxrepos.NewAttendanceRepository(db)

	// set up services
	var smsSvc core.SMSService
	var mailSvc core.EmailService
	if conf.IsDeployed() {
		smsSvc = smssvc.NewGatewayService(conf, appLogger)
		mailSvc = emailsvc.NewSendgridService(conf, appLogger)
	} else {
		smsSvc = smssvc.NewConsoleService(false)
		mailSvc = emailsvc.NewConsoleService(conf, false)
	}

	lessonSvc := lesson.NewService(lessonRepo, groupRepo, appLogger)
	paymentSvc := payment.NewService(paymentRepo, groupRepo, studentRepo, lessonSvc, smsSvc, appLogger)
	groupSvc := group.NewService(
		groupRepo, studentRepo, teacherRepo, courseRepo, paymentSvc, lessonSvc, smsSvc, appLogger,
	)
	paymentSvc.BindRestorer(groupSvc)
	attendanceSvc := attendance.NewService(attendanceRepo, groupRepo, lessonRepo, paymentSvc, appLogger)

	// set up sweeps
	attendanceSweep := schedule.NewAttendanceSweep(
		lessonRepo, attendanceRepo, groupRepo, operatorRepo, smsSvc, mailSvc, appLogger,
		conf.AttendanceSweepInterval, conf.NotifyTimeout,
	)
	paymentSweep := schedule.NewPaymentSweep(
		groupRepo, studentRepo, lessonSvc, paymentSvc, groupSvc, smsSvc, appLogger,
		conf.PaymentSweepInterval, conf.NotifyTimeout,
	)

	scheduler := schedule.NewScheduler(appLogger, attendanceSweep.Job(), paymentSweep.Job())
	scheduler.Start(context.Background())
	defer scheduler.Stop()

	// start API server
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	app := echoapi.NewServer(
		&echoapi.Options{
			Conf:            conf,
			Logger:          appLogger,
			GroupSvc:        groupSvc,
			LessonSvc:       lessonSvc,
			AttendanceSvc:   attendanceSvc,
			PaymentSvc:      paymentSvc,
			TeacherRepo:     teacherRepo,
			OperatorRepo:    operatorRepo,
			AttendanceSweep: attendanceSweep.Run,
			PaymentSweep:    paymentSweep.Run,
		},
		shutdown,
	)
	go app.Start()

	<-shutdown
	appLogger.Info("shutting down")
	if err := app.Stop(context.Background()); err != nil {
		appLogger.Error("stopping server", err)
	}
}
