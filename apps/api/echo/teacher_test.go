package echoapi

import (
	"encoding/json"
	"net/http"
	"testing"

	emailsvc "github.com/shulehub/shule/services/email"
)

func Test_teacherApi_creation(t *testing.T) {
	app := setup(t)
	admin := app.newAdmin(t, "tch-admin@test.local", "Jitihada Primary")
	classID := app.createClass(t, admin, "P1")

	t.Run("create mails generated credentials", func(t *testing.T) {
		id, pwd := app.createTeacher(t, admin, "first@test.local", "EMP-1", "full", classID)
		if id[:4] != "TCH-" {
			t.Errorf("custom ID = %q; want TCH- prefix", id)
		}
		if pwd == "" {
			t.Fatal("expected a generated password in the credentials email")
		}

		// the account is pre-verified; the teacher can log in straight away
		token := app.login(t, "first@test.local", pwd)
		req, rec := newAuthRequest(http.MethodGet, "/api/teachers/profile", token)
		checkCode(t, app.do(req, rec), http.StatusOK)
	})

	t.Run("duplicate employee ID within the school", func(t *testing.T) {
		body := jsonBody(t, newTeacherPayload("second@test.local", "EMP-1", "limited"))
		req, rec := newAuthRequest(http.MethodPost, "/api/teachers", admin, body)
		checkCode(t, app.do(req, rec), http.StatusBadRequest)
	})

	t.Run("duplicate email", func(t *testing.T) {
		body := jsonBody(t, newTeacherPayload("first@test.local", "EMP-2", "limited"))
		req, rec := newAuthRequest(http.MethodPost, "/api/teachers", admin, body)
		checkCode(t, app.do(req, rec), http.StatusBadRequest)
	})

	t.Run("credentials email failure does not abort creation", func(t *testing.T) {
		app.failNextEmail()
		body := jsonBody(t, newTeacherPayload("unmailed@test.local", "EMP-3", "limited"))
		req, rec := newAuthRequest(http.MethodPost, "/api/teachers", admin, body)
		checkCode(t, app.do(req, rec), http.StatusCreated)
	})

	t.Run("access level defaults to limited", func(t *testing.T) {
		payload := newTeacherPayload("defaulted@test.local", "EMP-4", "")
		delete(payload, "access_level")
		req, rec := newAuthRequest(http.MethodPost, "/api/teachers", admin, jsonBody(t, payload))
		checkCode(t, app.do(req, rec), http.StatusCreated)
		var created struct {
			AccessLevel string `json:"access_level"`
		}
		if err := json.Unmarshal(rec.Body.Bytes(), &created); err != nil {
			t.Fatal(err)
		}
		if created.AccessLevel != "limited" {
			t.Errorf("access_level = %q; want limited", created.AccessLevel)
		}
	})
}

func Test_teacherApi_detailAndProfile(t *testing.T) {
	app := setup(t)
	admin := app.newAdmin(t, "det-admin@test.local", "Ushindi Primary")
	idA, pwdA := app.createTeacher(t, admin, "det-a@test.local", "EMP-1", "full")
	idB, _ := app.createTeacher(t, admin, "det-b@test.local", "EMP-2", "limited")
	tokenA := app.login(t, "det-a@test.local", pwdA)

	t.Run("teachers read their own record only", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, "/api/teachers/"+idA, tokenA)
		checkCode(t, app.do(req, rec), http.StatusOK)

		req, rec = newAuthRequest(http.MethodGet, "/api/teachers/"+idB, tokenA)
		checkCode(t, app.do(req, rec), http.StatusForbidden)
	})

	t.Run("admin reads and updates any record", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, "/api/teachers/"+idB, admin)
		checkCode(t, app.do(req, rec), http.StatusOK)

		payload := newTeacherPayload("det-b@test.local", "EMP-2", "full")
		req, rec = newAuthRequest(http.MethodPut, "/api/teachers/"+idB, admin, jsonBody(t, payload))
		checkCode(t, app.do(req, rec), http.StatusOK)
		var updated struct {
			AccessLevel string `json:"access_level"`
		}
		if err := json.Unmarshal(rec.Body.Bytes(), &updated); err != nil {
			t.Fatal(err)
		}
		if updated.AccessLevel != "full" {
			t.Errorf("access_level = %q; want full", updated.AccessLevel)
		}
	})

	t.Run("teachers cannot update records", func(t *testing.T) {
		payload := newTeacherPayload("det-a@test.local", "EMP-1", "full")
		req, rec := newAuthRequest(http.MethodPut, "/api/teachers/"+idA, tokenA, jsonBody(t, payload))
		checkCode(t, app.do(req, rec), http.StatusForbidden)
	})

	t.Run("self-service profile update", func(t *testing.T) {
		body := jsonBody(t, map[string]interface{}{"phone_number": "+255711111111", "city": "Arusha"})
		req, rec := newAuthRequest(http.MethodPut, "/api/teachers/profile", tokenA, body)
		checkCode(t, app.do(req, rec), http.StatusOK)
		var updated struct {
			PhoneNumber string `json:"phone_number"`
			City        string `json:"city"`
		}
		if err := json.Unmarshal(rec.Body.Bytes(), &updated); err != nil {
			t.Fatal(err)
		}
		if updated.PhoneNumber != "+255711111111" || updated.City != "Arusha" {
			t.Errorf("profile = %+v", updated)
		}
	})

	t.Run("admin has no teacher profile", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, "/api/teachers/profile", admin)
		checkCode(t, app.do(req, rec), http.StatusNotFound)
	})

	t.Run("delete removes the login account", func(t *testing.T) {
		idC, pwdC := app.createTeacher(t, admin, "det-c@test.local", "EMP-3", "limited")
		tokenC := app.login(t, "det-c@test.local", pwdC)

		req, rec := newAuthRequest(http.MethodDelete, "/api/teachers/"+idC, admin)
		checkCode(t, app.do(req, rec), http.StatusNoContent)

		// the deleted teacher's token no longer authenticates
		req, rec = newAuthRequest(http.MethodGet, "/api/teachers/profile", tokenC)
		checkCode(t, app.do(req, rec), http.StatusUnauthorized)
	})
}

func Test_teacherApi_classAssignments(t *testing.T) {
	app := setup(t)
	admin := app.newAdmin(t, "asg-admin@test.local", "Imani Primary")
	classA := app.createClass(t, admin, "A")
	classB := app.createClass(t, admin, "B")
	id, _ := app.createTeacher(t, admin, "asg@test.local", "EMP-1", "full", classA)

	listClasses := func(t *testing.T) []struct {
		ClassName string `json:"class_name"`
	} {
		req, rec := newAuthRequest(http.MethodGet, "/api/teachers/"+id+"/classes", admin)
		checkCode(t, app.do(req, rec), http.StatusOK)
		var assignments []struct {
			ClassName string `json:"class_name"`
		}
		if err := json.Unmarshal(rec.Body.Bytes(), &assignments); err != nil {
			t.Fatal(err)
		}
		return assignments
	}

	if got := listClasses(t); len(got) != 1 || got[0].ClassName != "A" {
		t.Errorf("assignments = %+v; want [A]", got)
	}

	// updating replaces the whole assignment set
	payload := newTeacherPayload("asg@test.local", "EMP-1", "full")
	payload["assigned_classes"] = []string{classB}
	req, rec := newAuthRequest(http.MethodPut, "/api/teachers/"+id, admin, jsonBody(t, payload))
	checkCode(t, app.do(req, rec), http.StatusOK)

	if got := listClasses(t); len(got) != 1 || got[0].ClassName != "B" {
		t.Errorf("assignments = %+v; want [B]", got)
	}
}

func Test_teacherApi_resendCredentials(t *testing.T) {
	app := setup(t)
	admin := app.newAdmin(t, "rsd-admin@test.local", "Furaha Primary")
	id, oldPwd := app.createTeacher(t, admin, "rsd@test.local", "EMP-1", "limited")

	t.Run("issues a fresh password", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPost, "/api/teachers/"+id+"/resend-credentials", admin)
		checkCodeAndData(t, httpTest{
			wantCode: http.StatusOK,
			wantData: marchallObj(t, map[string]string{
				"message": "Credentials sent successfully.",
				"email":   "rsd@test.local",
			}),
		}, app.do(req, rec))

		newPwd := extractPassword(t, emailsvc.SentMessages[len(emailsvc.SentMessages)-1].TextContent)
		if newPwd == oldPwd {
			t.Error("expected a newly generated password")
		}

		// old password is dead, the mailed one works
		body := jsonBody(t, map[string]interface{}{"email": "rsd@test.local", "password": oldPwd})
		req, rec = newRequest(http.MethodPost, "/api/users/login", body)
		checkCode(t, app.do(req, rec), http.StatusUnauthorized)
		app.login(t, "rsd@test.local", newPwd)
	})

	t.Run("email failure surfaces as an error", func(t *testing.T) {
		app.failNextEmail()
		req, rec := newAuthRequest(http.MethodPost, "/api/teachers/"+id+"/resend-credentials", admin)
		checkCode(t, app.do(req, rec), http.StatusInternalServerError)
	})

	t.Run("admin only", func(t *testing.T) {
		_, pwd := app.createTeacher(t, admin, "rsd-other@test.local", "EMP-2", "full")
		token := app.login(t, "rsd-other@test.local", pwd)
		req, rec := newAuthRequest(http.MethodPost, "/api/teachers/"+id+"/resend-credentials", token)
		checkCode(t, app.do(req, rec), http.StatusForbidden)
	})
}

func Test_teacherApi_attendance(t *testing.T) {
	app := setup(t)
	admin := app.newAdmin(t, "tat-admin@test.local", "Juhudi Primary")
	id, pwd := app.createTeacher(t, admin, "tat@test.local", "EMP-1", "full")
	token := app.login(t, "tat@test.local", pwd)

	record := func(t *testing.T, tok, teacherID, date string, present bool) int {
		body := jsonBody(t, map[string]interface{}{
			"teacher": teacherID, "date": date, "is_present": present,
		})
		req, rec := newAuthRequest(http.MethodPost, "/api/teachers/attendance", tok, body)
		app.do(req, rec)
		return rec.Code
	}

	t.Run("admin records, teacher reads", func(t *testing.T) {
		if code := record(t, admin, id, "2024-03-01", true); code != http.StatusCreated {
			t.Fatalf("code = %d; want 201", code)
		}
		req, rec := newAuthRequest(http.MethodGet, "/api/teachers/attendance", token)
		checkCode(t, app.do(req, rec), http.StatusOK)
		var records []struct {
			TeacherName string `json:"teacher_name"`
			Present     bool   `json:"is_present"`
		}
		if err := json.Unmarshal(rec.Body.Bytes(), &records); err != nil {
			t.Fatal(err)
		}
		if len(records) != 1 || !records[0].Present {
			t.Errorf("records = %+v", records)
		}
	})

	t.Run("teachers cannot record", func(t *testing.T) {
		if code := record(t, token, id, "2024-03-02", true); code != http.StatusForbidden {
			t.Errorf("code = %d; want 403", code)
		}
	})

	t.Run("one record per teacher per day", func(t *testing.T) {
		if code := record(t, admin, id, "2024-03-01", false); code != http.StatusBadRequest {
			t.Errorf("code = %d; want 400", code)
		}
	})
}

func Test_teacherApi_dashboard(t *testing.T) {
	app := setup(t)
	admin := app.newAdmin(t, "dsh-admin@test.local", "Malkia Primary")
	idA, pwdFull := app.createTeacher(t, admin, "dsh-full@test.local", "EMP-1", "full")
	idB, pwdLtd := app.createTeacher(t, admin, "dsh-ltd@test.local", "EMP-2", "limited")

	// two attendance records: one present, one absent
	for i, rec := range []struct {
		teacherID string
		present   bool
	}{{idA, true}, {idB, false}} {
		date := "2024-03-0" + uitoa(uint(i+1))
		body := jsonBody(t, map[string]interface{}{"teacher": rec.teacherID, "date": date, "is_present": rec.present})
		req, rr := newAuthRequest(http.MethodPost, "/api/teachers/attendance", admin, body)
		checkCode(t, app.do(req, rr), http.StatusCreated)
	}

	getStats := func(t *testing.T, token string) (int, []byte) {
		req, rec := newAuthRequest(http.MethodGet, "/api/teachers/dashboard", token)
		app.do(req, rec)
		return rec.Code, rec.Body.Bytes()
	}

	t.Run("admin sees school stats", func(t *testing.T) {
		code, body := getStats(t, admin)
		if code != http.StatusOK {
			t.Fatalf("code = %d; body %s", code, body)
		}
		var stats struct {
			TotalTeachers        int     `json:"total_teachers"`
			ActiveTeachers       int     `json:"active_teachers"`
			TotalAttendance      int     `json:"total_attendance"`
			PresentCount         int     `json:"present_count"`
			AttendancePercentage float64 `json:"attendance_percentage"`
		}
		if err := json.Unmarshal(body, &stats); err != nil {
			t.Fatal(err)
		}
		if stats.TotalTeachers != 2 || stats.ActiveTeachers != 2 {
			t.Errorf("teachers = %d/%d; want 2/2", stats.ActiveTeachers, stats.TotalTeachers)
		}
		if stats.TotalAttendance != 2 || stats.PresentCount != 1 {
			t.Errorf("attendance = %d/%d; want 1/2", stats.PresentCount, stats.TotalAttendance)
		}
		if stats.AttendancePercentage != 50 {
			t.Errorf("attendance_percentage = %v; want 50", stats.AttendancePercentage)
		}
	})

	t.Run("full-access teacher may view", func(t *testing.T) {
		token := app.login(t, "dsh-full@test.local", pwdFull)
		if code, body := getStats(t, token); code != http.StatusOK {
			t.Errorf("code = %d; body %s", code, body)
		}
	})

	t.Run("limited teacher may not", func(t *testing.T) {
		token := app.login(t, "dsh-ltd@test.local", pwdLtd)
		if code, _ := getStats(t, token); code != http.StatusForbidden {
			t.Errorf("code = %d; want 403", code)
		}
	})
}

func Test_teacherApi_tenantIsolation(t *testing.T) {
	app := setup(t)
	admin := app.newAdmin(t, "iso-admin@test.local", "Kwanza Primary")
	id, _ := app.createTeacher(t, admin, "iso@test.local", "EMP-1", "full")

	other := app.newAdmin(t, "iso-other@test.local", "Pili Primary")

	req, rec := newAuthRequest(http.MethodGet, "/api/teachers/"+id, other)
	checkCode(t, app.do(req, rec), http.StatusNotFound)

	req, rec = newAuthRequest(http.MethodGet, "/api/teachers", other)
	checkCode(t, app.do(req, rec), http.StatusOK)
	var teachers []json.RawMessage
	if err := json.Unmarshal(rec.Body.Bytes(), &teachers); err != nil {
		t.Fatal(err)
	}
	if len(teachers) != 0 {
		t.Errorf("other school sees %d teachers; want 0", len(teachers))
	}

	// the same employee ID is fine in another school
	body := jsonBody(t, newTeacherPayload("iso2@test.local", "EMP-1", "limited"))
	req, rec = newAuthRequest(http.MethodPost, "/api/teachers", other, body)
	checkCode(t, app.do(req, rec), http.StatusCreated)
}
