package tests

import (
	"encoding/json"
	"net/http"
	"testing"

	echoapi "github.com/RealCodeCrafter/ERP/apps/api/echo"
	"github.com/RealCodeCrafter/ERP/tests"
)

func Test_home(t *testing.T) {
	server := setup(t)

	req, rec := newRequest(http.MethodGet, "/")
	server.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("failed! code = %v; wantCode %v", rec.Code, http.StatusOK)
	}
	if want := "Welcome to the ERP API!"; rec.Body.String() != want {
		t.Errorf("failed! body = %q; want %q", rec.Body.String(), want)
	}
}

func Test_authApi_login(t *testing.T) {
	server := setup(t)

	testutil.CreateOperator(t, operatorRepo, "admin", "+998901112233", true, "s3cure-Passw0rd")
	testutil.CreateTeacher(t, teacherRepo, "john", "s3cure-Passw0rd")

	authFailed := marchallObj(t, httpErr{Error: "authentication failed"})

	tests := []httpTest{
		{
			name:     "operator login ok",
			path:     "/v1/auth/operator/login",
			body:     marchallObj(t, echoapi.LoginRequest{Username: "admin", Password: "s3cure-Passw0rd"}),
			wantCode: http.StatusOK,
		},
		{
			name:     "teacher login ok",
			path:     "/v1/auth/teacher/login",
			body:     marchallObj(t, echoapi.LoginRequest{Username: "john", Password: "s3cure-Passw0rd"}),
			wantCode: http.StatusOK,
		},
		{
			name:     "operator login wrong password",
			path:     "/v1/auth/operator/login",
			body:     marchallObj(t, echoapi.LoginRequest{Username: "admin", Password: "nope"}),
			wantCode: http.StatusBadRequest,
			wantData: authFailed,
		},
		{
			name:     "teacher login unknown username",
			path:     "/v1/auth/teacher/login",
			body:     marchallObj(t, echoapi.LoginRequest{Username: "ghost", Password: "s3cure-Passw0rd"}),
			wantCode: http.StatusBadRequest,
			wantData: authFailed,
		},
		{
			name:     "operator cannot use teacher login",
			path:     "/v1/auth/teacher/login",
			body:     marchallObj(t, echoapi.LoginRequest{Username: "admin", Password: "s3cure-Passw0rd"}),
			wantCode: http.StatusBadRequest,
			wantData: authFailed,
		},
		{
			name:     "empty credentials",
			path:     "/v1/auth/operator/login",
			body:     marchallObj(t, echoapi.LoginRequest{}),
			wantCode: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newRequest(http.MethodPost, tt.path, tt.body)
			server.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)

			if tt.wantCode == http.StatusOK {
				var resp echoapi.LoginResponse
				if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
					t.Fatalf("unmarshalling LoginResponse failed: %v", err)
				}
				if resp.Token == "" {
					t.Error("login returned an empty token")
				}
			}
		})
	}
}
