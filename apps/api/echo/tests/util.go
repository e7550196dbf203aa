package tests

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	. "github.com/RealCodeCrafter/ERP/apps/api/echo"
	"github.com/RealCodeCrafter/ERP/core"
	"github.com/RealCodeCrafter/ERP/core/attendance"
	"github.com/RealCodeCrafter/ERP/core/course"
	"github.com/RealCodeCrafter/ERP/core/group"
	"github.com/RealCodeCrafter/ERP/core/lesson"
	"github.com/RealCodeCrafter/ERP/core/operator"
	"github.com/RealCodeCrafter/ERP/core/payment"
	"github.com/RealCodeCrafter/ERP/core/schedule"
	"github.com/RealCodeCrafter/ERP/core/student"
	"github.com/RealCodeCrafter/ERP/core/teacher"
	"github.com/RealCodeCrafter/ERP/services/email"
	"github.com/RealCodeCrafter/ERP/services/sms"
	"github.com/RealCodeCrafter/ERP/storage/database/dummy"
	"github.com/RealCodeCrafter/ERP/tests"
)

var (
	conf = &core.Config{
		AppName:            "erp-test",
		TestMode:           true,
		SecretKey:          "test-secret",
		JWTExpirationDelta: time.Hour,
	}

	groupRepo    group.Repository
	studentRepo  student.Repository
	teacherRepo  teacher.Repository
	courseRepo   course.Repository
	lessonRepo   lesson.Repository
	paymentRepo  payment.Repository
	attendRepo   attendance.Repository
	operatorRepo operator.Repository

	errMissingToken = httpErr{Error: "missing or malformed jwt"}
	errForbidden    = httpErr{Error: "permission denied"}
)

func setup(t *testing.T) Server {
	// set up DB & repos
	db, err := dummydb.Open()
	if err != nil {
		t.Fatalf("setup() failed: %v", err)
	}
	groupRepo = dummydb.NewGroupRepository(db)
	studentRepo = dummydb.NewStudentRepository(db)
	teacherRepo = dummydb.NewTeacherRepository(db)
	courseRepo = dummydb.NewCourseRepository(db)
	lessonRepo = dummydb.NewLessonRepository(db)
	paymentRepo = dummydb.NewPaymentRepository(db)
	attendRepo = dummydb.NewAttendanceRepository(db)
	operatorRepo = dummydb.NewOperatorRepository(db)

	// set up services
	logger := testutil.NewTestLogger()
	smsSvc := smssvc.NewConsoleService(true)
	mailSvc := emailsvc.NewConsoleService(conf, true)
	smssvc.ClearSentMessages()
	emailsvc.ClearSentMessages()

	paySvc := payment.NewService(paymentRepo, groupRepo, studentRepo, lessonRepo, smsSvc, logger)
	groupSvc := group.NewService(groupRepo, studentRepo, teacherRepo, courseRepo, paySvc, lessonRepo, smsSvc, logger)
	paySvc.BindRestorer(groupSvc)
	lessonSvc := lesson.NewService(lessonRepo, groupRepo, logger)
	attendanceSvc := attendance.NewService(attendRepo, groupRepo, lessonRepo, paySvc, logger)

	attendanceSweep := schedule.NewAttendanceSweep(
		lessonRepo, attendRepo, groupRepo, operatorRepo,
		smsSvc, mailSvc, logger, 24*time.Hour, time.Second,
	)
	paymentSweep := schedule.NewPaymentSweep(
		groupRepo, studentRepo, lessonRepo, paySvc, groupSvc,
		smsSvc, logger, 24*time.Hour, time.Second,
	)

	// set up server
	return NewServer(
		&Options{
			Conf:           conf,
			Logger:         logger,
			DisableReqLogs: true,

			GroupSvc:      groupSvc,
			LessonSvc:     lessonSvc,
			AttendanceSvc: attendanceSvc,
			PaymentSvc:    paySvc,
			TeacherRepo:   teacherRepo,
			OperatorRepo:  operatorRepo,

			AttendanceSweep: attendanceSweep.Run,
			PaymentSweep:    paymentSweep.Run,
		},
		nil,
	)
}

type httpErr struct {
	Error string `json:"error"`
}

type httpTest struct {
	name     string
	method   string
	path     string
	body     []byte
	token    string
	wantCode int
	wantData []byte
}

func newAuthRequest(method, path, token string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	var body bytes.Buffer
	if len(data) > 0 {
		body.Write(data[0])
	}
	req := httptest.NewRequest(method, path, &body)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	return req, rec
}

func newRequest(method, path string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	return newAuthRequest(method, path, "", data...)
}

func getOperatorToken(t *testing.T, op operator.Operator) string {
	token, err := GenerateToken(conf, GetOperatorClaims(conf, op))
	if err != nil {
		t.Fatalf("getOperatorToken() failed: %v", err)
	}
	return token
}

func getTeacherToken(t *testing.T, tch teacher.Teacher) string {
	token, err := GenerateToken(conf, GetTeacherClaims(conf, tch))
	if err != nil {
		t.Fatalf("getTeacherToken() failed: %v", err)
	}
	return token
}

func marchallObj(t *testing.T, obj interface{}) []byte {
	data, err := json.Marshal(obj)
	if err != nil {
		t.Fatalf("marchallObj() failed: %v", err)
	}
	return data
}

func jsonBytesEqual(t *testing.T, b1, b2 []byte) (bool, error) {
	var j1, j2 interface{}
	if err := json.Unmarshal(b1, &j1); err != nil {
		return false, err
	}
	if err := json.Unmarshal(b2, &j2); err != nil {
		return false, err
	}
	if reflect.DeepEqual(j1, j2) {
		return true, nil
	}
	if j1 == nil || j2 == nil {
		return false, nil
	}
	return assert.ElementsMatch(t, j1, j2), nil
}

func checkCodeAndData(t *testing.T, tt httpTest, rec *httptest.ResponseRecorder) {
	if rec.Code != tt.wantCode {
		t.Errorf("failed! code = %v; wantCode %v", rec.Code, tt.wantCode)
	}
	if tt.wantData == nil {
		return
	}
	ok, err := jsonBytesEqual(t, rec.Body.Bytes(), tt.wantData)
	if err != nil {
		t.Errorf("jsonBytesEqual() failed to compare; err %v", err)
	}
	if !ok {
		t.Errorf("failed! data = %v; wantData %v", rec.Body.String(), string(tt.wantData))
	}
}
