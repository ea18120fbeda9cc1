package echoapi

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"net/http/httptest"
	"os"
	"reflect"
	"regexp"
	"testing"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"

	"github.com/shulehub/shule/core"
	"github.com/shulehub/shule/core/school"
	"github.com/shulehub/shule/core/student"
	"github.com/shulehub/shule/core/teacher"
	"github.com/shulehub/shule/core/tenant"
	"github.com/shulehub/shule/core/user"
	emailsvc "github.com/shulehub/shule/services/email"
	logsvc "github.com/shulehub/shule/services/logger"
	inmemdb "github.com/shulehub/shule/storage/database/inmem"
)

var otpRegex = regexp.MustCompile(`\b\d{6}\b`)

type testApp struct {
	conf   *core.Config
	server Server

	// failNextEmail makes the next outbound email fail.
	failNextEmail func()

	userSvc    *user.Service
	schoolSvc  *school.Service
	studentSvc *student.Service
	teacherSvc *teacher.Service
}

func setup(t *testing.T) *testApp {
	t.Helper()
	emailsvc.ClearSentMessages()

	conf := core.NewTestConfig()

	enLoc := en.New()
	uni := ut.New(enLoc, enLoc)
	translator, _ := uni.GetTranslator("en")
	validate := validator.New()
	core.InitValidators(validate, translator)
	user.RegisterValidators(validate, translator)
	school.RegisterValidators(validate, translator)
	student.RegisterValidators(validate, translator)
	teacher.RegisterValidators(validate, translator)

	db := inmemdb.NewDB()
	usrRepo := inmemdb.NewUserRepository(db)
	schRepo := inmemdb.NewSchoolRepository(db)
	stdRepo := inmemdb.NewStudentRepository(db)
	tchRepo := inmemdb.NewTeacherRepository(db)

	mock := emailsvc.NewConsoleServiceMock(conf)
	logger := logsvc.NewStdLogger(log.New(os.Stderr, "", log.LstdFlags))

	usrSvc := user.NewService(conf, usrRepo, mock, logger, validate)
	schSvc := school.NewService(schRepo, mock, logger, validate)
	stdSvc := student.NewService(stdRepo, validate)
	tchSvc := teacher.NewService(conf, tchRepo, stdRepo, mock, logger, validate)
	resolver := tenant.NewResolver(schRepo, tchRepo, stdRepo)

	app := NewServer(&Options{
		Conf:           conf,
		Logger:         logger,
		Validate:       validate,
		Translator:     translator,
		DisableReqLogs: true,
		UserSvc:        usrSvc,
		SchoolSvc:      schSvc,
		StudentSvc:     stdSvc,
		TeacherSvc:     tchSvc,
		Resolver:       resolver,
	})

	return &testApp{
		conf:          conf,
		server:        app,
		failNextEmail: func() { mock.FailNext = true },
		userSvc:       usrSvc,
		schoolSvc:     schSvc,
		studentSvc:    stdSvc,
		teacherSvc:    tchSvc,
	}
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

func (a *testApp) do(req *http.Request, rec *httptest.ResponseRecorder) *httptest.ResponseRecorder {
	a.server.ServeHTTP(rec, req)
	return rec
}

func marchallObj(t *testing.T, obj interface{}) []byte {
	t.Helper()
	data, err := json.Marshal(obj)
	if err != nil {
		t.Fatalf("marchallObj() failed: %v", err)
	}
	return data
}

func jsonBytesEqual(t *testing.T, b1, b2 []byte) (bool, error) {
	t.Helper()
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
	return assert.ObjectsAreEqual(j1, j2), nil
}

func checkCodeAndData(t *testing.T, tt httpTest, rec *httptest.ResponseRecorder) {
	t.Helper()
	if rec.Code != tt.wantCode {
		t.Errorf("failed! code = %v; wantCode %v; body %v", rec.Code, tt.wantCode, rec.Body.String())
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

func checkCode(t *testing.T, rec *httptest.ResponseRecorder, wantCode int) {
	t.Helper()
	if rec.Code != wantCode {
		t.Fatalf("failed! code = %v; wantCode %v; body %v", rec.Code, wantCode, rec.Body.String())
	}
}

// lastSentOTP digs the most recent OTP out of the mock mailbox.
func lastSentOTP(t *testing.T) string {
	t.Helper()
	if len(emailsvc.SentMessages) == 0 {
		t.Fatal("lastSentOTP(): no messages sent")
	}
	msg := emailsvc.SentMessages[len(emailsvc.SentMessages)-1]
	otp := otpRegex.FindString(msg.TextContent)
	if otp == "" {
		t.Fatalf("lastSentOTP(): no OTP in message %q", msg.TextContent)
	}
	return otp
}

func jsonBody(t *testing.T, kv map[string]interface{}) []byte {
	t.Helper()
	data, err := json.Marshal(kv)
	if err != nil {
		t.Fatalf("jsonBody() failed: %v", err)
	}
	return data
}

// registerAndVerify walks a fresh account through the email-OTP flow and
// returns its token pair.
func (a *testApp) registerAndVerify(t *testing.T, email, fullName, pwd string) TokenPair {
	t.Helper()

	body := jsonBody(t, map[string]interface{}{
		"email": email, "full_name": fullName, "password": pwd, "confirm_password": pwd,
	})
	req, rec := newRequest(http.MethodPost, "/api/users/register", body)
	checkCode(t, a.do(req, rec), http.StatusCreated)

	otp := lastSentOTP(t)
	body = jsonBody(t, map[string]interface{}{"email": email, "otp": otp})
	req, rec = newRequest(http.MethodPost, "/api/users/verify", body)
	checkCode(t, a.do(req, rec), http.StatusOK)

	var resp struct {
		Access  string `json:"access"`
		Refresh string `json:"refresh"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("registerAndVerify(): %v", err)
	}
	return TokenPair{Access: resp.Access, Refresh: resp.Refresh}
}

// createSchool registers a school for the token's account.
func (a *testApp) createSchool(t *testing.T, token, name string) {
	t.Helper()
	body := jsonBody(t, map[string]interface{}{
		"school_name": name,
		"address":     "1 Academy Rd",
		"school_type": "primary school",
	})
	req, rec := newAuthRequest(http.MethodPost, "/api/schools/create", token, body)
	checkCode(t, a.do(req, rec), http.StatusCreated)
}

// newAdmin provisions a verified admin with their own school and returns the
// access token.
func (a *testApp) newAdmin(t *testing.T, email, schoolName string) string {
	t.Helper()
	tokens := a.registerAndVerify(t, email, "Admin "+schoolName, "s3cretPass!")
	a.createSchool(t, tokens.Access, schoolName)
	return tokens.Access
}

// newTeacherPayload returns a valid teacher creation payload; callers override
// fields as needed.
func newTeacherPayload(email, employeeID, accessLevel string, classIDs ...string) map[string]interface{} {
	return map[string]interface{}{
		"email":                          email,
		"employee_id":                    employeeID,
		"first_name":                     "Asha",
		"last_name":                      "Mwangi",
		"date_of_birth":                  "1990-04-12",
		"gender":                         "female",
		"phone_number":                   "+255700000001",
		"address":                        "12 Uhuru St",
		"state":                          "Dar es Salaam",
		"city":                           "Kinondoni",
		"emergency_contact_name":         "Juma Mwangi",
		"emergency_contact_relationship": "spouse",
		"emergency_contact_phone":        "+255700000002",
		"highest_certificate":            "B.Ed",
		"school_name":                    "University of Dodoma",
		"graduation_year":                2012,
		"joining_date":                   "2020-01-15",
		"salary":                         850000.0,
		"access_level":                   accessLevel,
		"assigned_classes":               classIDs,
	}
}

// createTeacher provisions a teacher under the admin token and returns the
// teacher's custom ID and the generated password mailed to them.
func (a *testApp) createTeacher(t *testing.T, adminToken, email, employeeID, accessLevel string, classIDs ...string) (string, string) {
	t.Helper()
	before := len(emailsvc.SentMessages)
	body := jsonBody(t, newTeacherPayload(email, employeeID, accessLevel, classIDs...))
	req, rec := newAuthRequest(http.MethodPost, "/api/teachers", adminToken, body)
	checkCode(t, a.do(req, rec), http.StatusCreated)

	var created struct {
		CustomID string `json:"id"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &created); err != nil {
		t.Fatalf("createTeacher(): %v", err)
	}
	if len(emailsvc.SentMessages) <= before {
		t.Fatal("createTeacher(): no credentials email sent")
	}
	pwd := extractPassword(t, emailsvc.SentMessages[len(emailsvc.SentMessages)-1].TextContent)
	return created.CustomID, pwd
}

var passwordRegex = regexp.MustCompile(`Password: (\S+)`)

func extractPassword(t *testing.T, mailBody string) string {
	t.Helper()
	m := passwordRegex.FindStringSubmatch(mailBody)
	if len(m) != 2 {
		t.Fatalf("extractPassword(): no password in %q", mailBody)
	}
	return m[1]
}

// login authenticates and returns the access token.
func (a *testApp) login(t *testing.T, email, pwd string) string {
	t.Helper()
	body := jsonBody(t, map[string]interface{}{"email": email, "password": pwd})
	req, rec := newRequest(http.MethodPost, "/api/users/login", body)
	checkCode(t, a.do(req, rec), http.StatusOK)
	var resp struct {
		Access string `json:"access"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("login(): %v", err)
	}
	return resp.Access
}

// createClass registers a class and returns its custom ID.
func (a *testApp) createClass(t *testing.T, adminToken, name string) string {
	t.Helper()
	body := jsonBody(t, map[string]interface{}{"class_name": name})
	req, rec := newAuthRequest(http.MethodPost, "/api/students/classes", adminToken, body)
	checkCode(t, a.do(req, rec), http.StatusCreated)
	var created struct {
		CustomID string `json:"id"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &created); err != nil {
		t.Fatalf("createClass(): %v", err)
	}
	return created.CustomID
}

// createStudent enrolls a student and returns their custom ID.
func (a *testApp) createStudent(t *testing.T, adminToken, regNumber, classID string) string {
	t.Helper()
	payload := map[string]interface{}{
		"registration_number": regNumber,
		"first_name":          "Neema",
		"last_name":           "Said",
		"date_of_birth":       "2015-09-01",
		"gender":              "female",
		"address":             "8 Sokoine Dr",
		"parent_name":         "Halima Said",
		"parent_phone":        "+255700000003",
		"admission_date":      "2022-01-10",
	}
	if classID != "" {
		payload["class_assigned"] = classID
	}
	req, rec := newAuthRequest(http.MethodPost, "/api/students", adminToken, jsonBody(t, payload))
	checkCode(t, a.do(req, rec), http.StatusCreated)
	var created struct {
		CustomID string `json:"id"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &created); err != nil {
		t.Fatalf("createStudent(): %v", err)
	}
	return created.CustomID
}

func uitoa(id uint) string {
	return fmt.Sprintf("%d", id)
}
