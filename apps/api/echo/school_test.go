package echoapi

import (
	"encoding/json"
	"net/http"
	"testing"
)

func Test_schoolApi(t *testing.T) {
	app := setup(t)
	tokens := app.registerAndVerify(t, "head@test.local", "Head Admin", "s3cretPass!")

	t.Run("detail before creation is a 404", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, "/api/schools/detail", tokens.Access)
		checkCode(t, app.do(req, rec), http.StatusNotFound)
	})

	t.Run("create", func(t *testing.T) {
		body := jsonBody(t, map[string]interface{}{
			"school_name": "Amani Academy",
			"address":     "14 Baobab Ave",
			"school_type": "primary school",
		})
		req, rec := newAuthRequest(http.MethodPost, "/api/schools/create", tokens.Access, body)
		checkCode(t, app.do(req, rec), http.StatusCreated)

		var resp struct {
			School struct {
				CustomID string `json:"id"`
				Name     string `json:"school_name"`
			} `json:"school"`
		}
		if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
			t.Fatal(err)
		}
		if resp.School.Name != "Amani Academy" {
			t.Errorf("school_name = %q", resp.School.Name)
		}
		if len(resp.School.CustomID) != 12 || resp.School.CustomID[:4] != "SCH-" {
			t.Errorf("custom ID = %q; want SCH- prefix", resp.School.CustomID)
		}
	})

	t.Run("an admin owns at most one school", func(t *testing.T) {
		body := jsonBody(t, map[string]interface{}{
			"school_name": "Second School",
			"address":     "2 Other Rd",
			"school_type": "primary school",
		})
		req, rec := newAuthRequest(http.MethodPost, "/api/schools/create", tokens.Access, body)
		checkCode(t, app.do(req, rec), http.StatusBadRequest)
	})

	t.Run("school names are globally unique", func(t *testing.T) {
		other := app.registerAndVerify(t, "other@test.local", "Other Admin", "s3cretPass!")
		body := jsonBody(t, map[string]interface{}{
			"school_name": "Amani Academy",
			"address":     "9 Duplicate St",
			"school_type": "primary school",
		})
		req, rec := newAuthRequest(http.MethodPost, "/api/schools/create", other.Access, body)
		checkCode(t, app.do(req, rec), http.StatusBadRequest)
	})

	t.Run("detail and update", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, "/api/schools/detail", tokens.Access)
		checkCode(t, app.do(req, rec), http.StatusOK)

		body := jsonBody(t, map[string]interface{}{"address": "99 New Rd"})
		req, rec = newAuthRequest(http.MethodPut, "/api/schools/detail", tokens.Access, body)
		checkCode(t, app.do(req, rec), http.StatusOK)

		var resp struct {
			Address string `json:"address"`
		}
		if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
			t.Fatal(err)
		}
		if resp.Address != "99 New Rd" {
			t.Errorf("address = %q", resp.Address)
		}
	})

	t.Run("teachers cannot manage the school", func(t *testing.T) {
		classID := app.createClass(t, tokens.Access, "P1")
		_, pwd := app.createTeacher(t, tokens.Access, "guard@test.local", "EMP-100", "full", classID)
		teacherToken := app.login(t, "guard@test.local", pwd)

		req, rec := newAuthRequest(http.MethodGet, "/api/schools/detail", teacherToken)
		checkCode(t, app.do(req, rec), http.StatusForbidden)

		body := jsonBody(t, map[string]interface{}{
			"school_name": "Teacher School",
			"address":     "nowhere",
			"school_type": "primary school",
		})
		req, rec = newAuthRequest(http.MethodPost, "/api/schools/create", teacherToken, body)
		checkCode(t, app.do(req, rec), http.StatusForbidden)
	})
}
