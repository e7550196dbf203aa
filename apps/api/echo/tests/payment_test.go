package tests

import (
	"encoding/json"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/RealCodeCrafter/ERP/core/group"
	"github.com/RealCodeCrafter/ERP/core/payment"
	"github.com/RealCodeCrafter/ERP/core/student"
	"github.com/RealCodeCrafter/ERP/core/teacher"
	"github.com/RealCodeCrafter/ERP/tests"
)

func paymentFixtures(t *testing.T) (teacher.Teacher, student.Student, group.Group) {
	tch := testutil.CreateTeacher(t, teacherRepo, "john")
	crs := testutil.CreateCourse(t, courseRepo, "English")
	std := testutil.CreateStudent(t, studentRepo, "Alisher", "+998900000001")
	grp := testutil.CreateGroup(t, groupRepo, "ENG-A1", crs.ID, tch.ID, decimal.NewFromInt(500000), []string{"Monday"}, std)
	return tch, std, grp
}

func Test_paymentApi_recordAndConfirm(t *testing.T) {
	server := setup(t)

	op := testutil.CreateOperator(t, operatorRepo, "admin", "+998901112233", true)
	tch, std, grp := paymentFixtures(t)
	opToken := getOperatorToken(t, op)
	tchToken := getTeacherToken(t, tch)

	body := marchallObj(t, payment.NewPayment{
		StudentID: std.ID,
		GroupID:   grp.ID,
		Amount:    decimal.NewFromInt(500000),
		MonthFor:  "2026-09",
	})
	req, rec := newAuthRequest(http.MethodPost, "/v1/payments", opToken, body)
	server.ServeHTTP(rec, req)
	if rec.Code != http.StatusCreated {
		t.Fatalf("record failed! code = %v; body %s", rec.Code, rec.Body.String())
	}
	var pmt payment.Payment
	if err := json.Unmarshal(rec.Body.Bytes(), &pmt); err != nil {
		t.Fatalf("unmarshalling Payment failed: %v", err)
	}
	if pmt.AdminStatus != payment.ConfirmationAccepted || pmt.TeacherStatus.Valid || pmt.Paid {
		t.Errorf("record returned unexpected payment: %+v", pmt)
	}

	// recording is an operator action
	req, rec = newAuthRequest(http.MethodPost, "/v1/payments", tchToken, body)
	server.ServeHTTP(rec, req)
	checkCodeAndData(t, httpTest{wantCode: http.StatusForbidden, wantData: marchallObj(t, errForbidden)}, rec)

	// confirmation is a teacher action
	confirmPath := fmt.Sprintf("/v1/payments/%d/confirm", pmt.ID)
	req, rec = newAuthRequest(http.MethodPost, confirmPath, opToken)
	server.ServeHTTP(rec, req)
	checkCodeAndData(t, httpTest{wantCode: http.StatusForbidden, wantData: marchallObj(t, errForbidden)}, rec)

	req, rec = newAuthRequest(http.MethodPost, confirmPath, tchToken)
	server.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("confirm failed! code = %v; body %s", rec.Code, rec.Body.String())
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &pmt); err != nil {
		t.Fatalf("unmarshalling Payment failed: %v", err)
	}
	if !pmt.TeacherStatus.Valid || pmt.TeacherStatus.String != payment.ConfirmationAccepted {
		t.Errorf("confirm left teacher status %v", pmt.TeacherStatus)
	}
	if !pmt.Paid || !pmt.PaidAt.Valid {
		t.Error("full confirmed amount did not settle the month")
	}

	// a second confirmation is rejected
	req, rec = newAuthRequest(http.MethodPost, confirmPath, tchToken)
	server.ServeHTTP(rec, req)
	checkCodeAndData(t, httpTest{
		wantCode: http.StatusConflict,
		wantData: marchallObj(t, httpErr{Error: "payment is already confirmed by the teacher"}),
	}, rec)
}

func Test_paymentApi_filterAndRetrieve(t *testing.T) {
	server := setup(t)

	op := testutil.CreateOperator(t, operatorRepo, "admin", "+998901112233", true)
	_, std, grp := paymentFixtures(t)
	pmt := testutil.CreatePayment(t, paymentRepo, std.ID, grp.ID, grp.CourseID, decimal.NewFromInt(300000), "2026-09", false, false)
	opToken := getOperatorToken(t, op)

	req, rec := newAuthRequest(http.MethodGet, fmt.Sprintf("/v1/payments?student_id=%d", std.ID), opToken)
	server.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("filter failed! code = %v", rec.Code)
	}
	var payments []payment.Payment
	if err := json.Unmarshal(rec.Body.Bytes(), &payments); err != nil {
		t.Fatalf("unmarshalling payments failed: %v", err)
	}
	if len(payments) != 1 || payments[0].ID != pmt.ID {
		t.Errorf("filter returned %d payments; want the recorded one", len(payments))
	}

	req, rec = newAuthRequest(http.MethodGet, fmt.Sprintf("/v1/payments/%d", pmt.ID), opToken)
	server.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Errorf("retrieve failed! code = %v", rec.Code)
	}

	req, rec = newAuthRequest(http.MethodGet, "/v1/payments/999", opToken)
	server.ServeHTTP(rec, req)
	checkCodeAndData(t, httpTest{
		wantCode: http.StatusNotFound,
		wantData: marchallObj(t, httpErr{Error: "payment not found"}),
	}, rec)
}

func Test_paymentApi_firstUnpaidCycle(t *testing.T) {
	server := setup(t)

	op := testutil.CreateOperator(t, operatorRepo, "admin", "+998901112233", true)
	_, std, grp := paymentFixtures(t)
	opToken := getOperatorToken(t, op)

	// before the first lesson there are no cycles to owe for
	path := fmt.Sprintf("/v1/payments/first-unpaid-cycle?student_id=%d&group_id=%d", std.ID, grp.ID)
	req, rec := newAuthRequest(http.MethodGet, path, opToken)
	server.ServeHTTP(rec, req)
	checkCodeAndData(t, httpTest{
		wantCode: http.StatusOK,
		wantData: marchallObj(t, map[string]interface{}{"unpaid": false}),
	}, rec)

	first := time.Now().UTC().AddDate(0, 0, -40)
	testutil.CreateLesson(t, lessonRepo, grp.ID, 1, first)

	req, rec = newAuthRequest(http.MethodGet, path, opToken)
	server.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("firstUnpaidCycle failed! code = %v", rec.Code)
	}
	var resp struct {
		Unpaid      bool   `json:"unpaid"`
		CycleNumber int    `json:"cycle_number"`
		CycleStart  string `json:"cycle_start"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshalling response failed: %v", err)
	}
	if !resp.Unpaid || resp.CycleNumber != 0 {
		t.Errorf("firstUnpaidCycle = %+v; want cycle 0 unpaid", resp)
	}
	if want := first.Format("2006-01-02"); resp.CycleStart != want {
		t.Errorf("cycle_start = %q; want %q", resp.CycleStart, want)
	}
}

func Test_paymentApi_incomeReports(t *testing.T) {
	server := setup(t)

	op := testutil.CreateOperator(t, operatorRepo, "admin", "+998901112233", true)
	_, std, grp := paymentFixtures(t)
	opToken := getOperatorToken(t, op)

	now := time.Now().UTC()
	testutil.CreatePayment(t, paymentRepo, std.ID, grp.ID, grp.CourseID, decimal.NewFromInt(500000), "2026-09", true, true, now)
	// unsettled money does not count as income
	testutil.CreatePayment(t, paymentRepo, std.ID, grp.ID, grp.CourseID, decimal.NewFromInt(200000), "2026-10", false, false, now)

	tests := []httpTest{
		{
			name:     "monthly",
			path:     fmt.Sprintf("/v1/reports/income/monthly?year=%d&month=%d", now.Year(), int(now.Month())),
			wantCode: http.StatusOK,
			wantData: marchallObj(t, map[string]interface{}{
				"year": now.Year(), "month": int(now.Month()), "total": "500000",
			}),
		},
		{
			name:     "yearly",
			path:     fmt.Sprintf("/v1/reports/income/yearly?year=%d", now.Year()),
			wantCode: http.StatusOK,
			wantData: marchallObj(t, map[string]interface{}{"year": now.Year(), "total": "500000"}),
		},
		{
			name:     "invalid month",
			path:     fmt.Sprintf("/v1/reports/income/monthly?year=%d&month=13", now.Year()),
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, httpErr{Error: "invalid month"}),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(http.MethodGet, tt.path, opToken)
			server.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}
}
