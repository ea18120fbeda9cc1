package echoapi

import (
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/shulehub/shule/core/user"
	emailsvc "github.com/shulehub/shule/services/email"
)

func Test_userApi_registration(t *testing.T) {
	app := setup(t)

	pwd := "s3cretPass!"
	registerBody := func(email string) []byte {
		return jsonBody(t, map[string]interface{}{
			"email": email, "full_name": "Jane Doe", "password": pwd, "confirm_password": pwd,
		})
	}

	t.Run("register sends a verification code", func(t *testing.T) {
		req, rec := newRequest(http.MethodPost, "/api/users/register", registerBody("jane@test.local"))
		checkCode(t, app.do(req, rec), http.StatusCreated)
		if len(emailsvc.SentMessages) != 1 {
			t.Fatalf("sent %d emails; want 1", len(emailsvc.SentMessages))
		}
		if otp := lastSentOTP(t); len(otp) != 6 {
			t.Errorf("otp = %q; want 6 digits", otp)
		}
	})

	t.Run("duplicate email is rejected", func(t *testing.T) {
		req, rec := newRequest(http.MethodPost, "/api/users/register", registerBody("jane@test.local"))
		checkCode(t, app.do(req, rec), http.StatusBadRequest)
	})

	t.Run("weak password is rejected", func(t *testing.T) {
		body := jsonBody(t, map[string]interface{}{
			"email": "weak@test.local", "full_name": "Weak", "password": "alllowercase1!", "confirm_password": "alllowercase1!",
		})
		req, rec := newRequest(http.MethodPost, "/api/users/register", body)
		checkCode(t, app.do(req, rec), http.StatusBadRequest)
	})

	t.Run("email failure aborts registration", func(t *testing.T) {
		app.failNextEmail()
		req, rec := newRequest(http.MethodPost, "/api/users/register", registerBody("ghost@test.local"))
		checkCode(t, app.do(req, rec), http.StatusInternalServerError)

		// account must not exist: a retry succeeds without a duplicate error
		req, rec = newRequest(http.MethodPost, "/api/users/register", registerBody("ghost@test.local"))
		checkCode(t, app.do(req, rec), http.StatusCreated)
	})
}

func Test_userApi_verification(t *testing.T) {
	app := setup(t)
	pwd := "s3cretPass!"

	register := func(t *testing.T, email string) {
		body := jsonBody(t, map[string]interface{}{
			"email": email, "full_name": "Jane Doe", "password": pwd, "confirm_password": pwd,
		})
		req, rec := newRequest(http.MethodPost, "/api/users/register", body)
		checkCode(t, app.do(req, rec), http.StatusCreated)
	}
	verify := func(t *testing.T, email, otp string) *struct {
		Code int
		Body []byte
	} {
		body := jsonBody(t, map[string]interface{}{"email": email, "otp": otp})
		req, rec := newRequest(http.MethodPost, "/api/users/verify", body)
		app.do(req, rec)
		return &struct {
			Code int
			Body []byte
		}{rec.Code, rec.Body.Bytes()}
	}

	t.Run("wrong code is rejected", func(t *testing.T) {
		register(t, "a@test.local")
		if res := verify(t, "a@test.local", "000000"); res.Code != http.StatusBadRequest {
			t.Errorf("code = %d; want 400", res.Code)
		}
	})

	t.Run("valid code verifies and issues tokens", func(t *testing.T) {
		register(t, "b@test.local")
		res := verify(t, "b@test.local", lastSentOTP(t))
		if res.Code != http.StatusOK {
			t.Fatalf("code = %d; want 200; body %s", res.Code, res.Body)
		}
		var resp struct {
			Access  string `json:"access"`
			Refresh string `json:"refresh"`
		}
		if err := json.Unmarshal(res.Body, &resp); err != nil {
			t.Fatal(err)
		}
		if resp.Access == "" || resp.Refresh == "" {
			t.Error("expected a token pair on verification")
		}
	})

	t.Run("code cannot be reused", func(t *testing.T) {
		register(t, "c@test.local")
		otp := lastSentOTP(t)
		if res := verify(t, "c@test.local", otp); res.Code != http.StatusOK {
			t.Fatalf("first use: code = %d; want 200", res.Code)
		}
		if res := verify(t, "c@test.local", otp); res.Code != http.StatusBadRequest {
			t.Errorf("reuse: code = %d; want 400", res.Code)
		}
	})

	t.Run("expired code is rejected", func(t *testing.T) {
		register(t, "d@test.local")
		otp := lastSentOTP(t)

		user.NowFunc = func() time.Time { return time.Now().Add(2 * time.Hour) }
		defer func() { user.NowFunc = time.Now }()

		if res := verify(t, "d@test.local", otp); res.Code != http.StatusBadRequest {
			t.Errorf("code = %d; want 400", res.Code)
		}
	})

	t.Run("resend invalidates the previous code", func(t *testing.T) {
		register(t, "e@test.local")
		oldOTP := lastSentOTP(t)

		body := jsonBody(t, map[string]interface{}{"email": "e@test.local"})
		req, rec := newRequest(http.MethodPost, "/api/users/resend-verification", body)
		checkCode(t, app.do(req, rec), http.StatusOK)
		newOTP := lastSentOTP(t)

		if res := verify(t, "e@test.local", oldOTP); res.Code != http.StatusBadRequest {
			t.Errorf("old code: code = %d; want 400", res.Code)
		}
		if res := verify(t, "e@test.local", newOTP); res.Code != http.StatusOK {
			t.Errorf("new code: code = %d; want 200", res.Code)
		}
	})
}

func Test_userApi_login(t *testing.T) {
	app := setup(t)
	pwd := "s3cretPass!"

	t.Run("unverified account cannot log in", func(t *testing.T) {
		body := jsonBody(t, map[string]interface{}{
			"email": "pending@test.local", "full_name": "Pending", "password": pwd, "confirm_password": pwd,
		})
		req, rec := newRequest(http.MethodPost, "/api/users/register", body)
		checkCode(t, app.do(req, rec), http.StatusCreated)

		body = jsonBody(t, map[string]interface{}{"email": "pending@test.local", "password": pwd})
		req, rec = newRequest(http.MethodPost, "/api/users/login", body)
		checkCodeAndData(t, httpTest{
			wantCode: http.StatusUnauthorized,
			wantData: marchallObj(t, map[string]string{"detail": "Email not verified"}),
		}, app.do(req, rec))
	})

	t.Run("wrong password", func(t *testing.T) {
		app.registerAndVerify(t, "verified@test.local", "Verified", pwd)
		body := jsonBody(t, map[string]interface{}{"email": "verified@test.local", "password": "Wrong1234!"})
		req, rec := newRequest(http.MethodPost, "/api/users/login", body)
		checkCodeAndData(t, httpTest{
			wantCode: http.StatusUnauthorized,
			wantData: marchallObj(t, map[string]string{"detail": "Invalid credentials"}),
		}, app.do(req, rec))
	})

	t.Run("successful login reports school ownership", func(t *testing.T) {
		body := jsonBody(t, map[string]interface{}{"email": "verified@test.local", "password": pwd})
		req, rec := newRequest(http.MethodPost, "/api/users/login", body)
		checkCode(t, app.do(req, rec), http.StatusOK)

		var resp struct {
			Access string `json:"access"`
			User   struct {
				Role      string `json:"role"`
				HasSchool bool   `json:"has_school"`
			} `json:"user"`
		}
		if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
			t.Fatal(err)
		}
		if resp.User.HasSchool {
			t.Error("has_school = true before school creation")
		}
		if resp.User.Role != user.RoleAdmin {
			t.Errorf("role = %q; want %q", resp.User.Role, user.RoleAdmin)
		}

		app.createSchool(t, resp.Access, "Tumaini Primary")

		req, rec = newRequest(http.MethodPost, "/api/users/login", body)
		checkCode(t, app.do(req, rec), http.StatusOK)
		if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
			t.Fatal(err)
		}
		if !resp.User.HasSchool {
			t.Error("has_school = false after school creation")
		}
	})
}

func Test_userApi_tokens(t *testing.T) {
	app := setup(t)
	tokens := app.registerAndVerify(t, "tok@test.local", "Tok", "s3cretPass!")

	t.Run("refresh issues a new access token", func(t *testing.T) {
		body := jsonBody(t, map[string]interface{}{"refresh": tokens.Refresh})
		req, rec := newRequest(http.MethodPost, "/api/users/token/refresh", body)
		checkCode(t, app.do(req, rec), http.StatusOK)
		var resp struct {
			Access string `json:"access"`
		}
		if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
			t.Fatal(err)
		}
		if resp.Access == "" {
			t.Error("expected a fresh access token")
		}
	})

	t.Run("access token cannot be used for refresh", func(t *testing.T) {
		body := jsonBody(t, map[string]interface{}{"refresh": tokens.Access})
		req, rec := newRequest(http.MethodPost, "/api/users/token/refresh", body)
		checkCode(t, app.do(req, rec), http.StatusUnauthorized)
	})

	t.Run("logout revokes the refresh token", func(t *testing.T) {
		body := jsonBody(t, map[string]interface{}{"refresh": tokens.Refresh})
		req, rec := newAuthRequest(http.MethodPost, "/api/users/logout", tokens.Access, body)
		checkCode(t, app.do(req, rec), http.StatusOK)

		req, rec = newRequest(http.MethodPost, "/api/users/token/refresh", body)
		checkCode(t, app.do(req, rec), http.StatusUnauthorized)
	})

	t.Run("garbage refresh token on logout is a 400", func(t *testing.T) {
		body := jsonBody(t, map[string]interface{}{"refresh": "not-a-jwt"})
		req, rec := newAuthRequest(http.MethodPost, "/api/users/logout", tokens.Access, body)
		checkCode(t, app.do(req, rec), http.StatusBadRequest)
	})

	t.Run("profile requires authentication", func(t *testing.T) {
		req, rec := newRequest(http.MethodGet, "/api/users/profile")
		checkCode(t, app.do(req, rec), http.StatusUnauthorized)

		req, rec = newAuthRequest(http.MethodGet, "/api/users/profile", tokens.Access)
		checkCode(t, app.do(req, rec), http.StatusOK)
	})
}

func Test_userApi_passwordReset(t *testing.T) {
	app := setup(t)
	pwd := "s3cretPass!"
	app.registerAndVerify(t, "reset@test.local", "Reset", pwd)

	t.Run("unknown email", func(t *testing.T) {
		body := jsonBody(t, map[string]interface{}{"email": "nobody@test.local"})
		req, rec := newRequest(http.MethodPost, "/api/users/forgot-password", body)
		checkCode(t, app.do(req, rec), http.StatusBadRequest)
	})

	t.Run("full reset flow", func(t *testing.T) {
		body := jsonBody(t, map[string]interface{}{"email": "reset@test.local"})
		req, rec := newRequest(http.MethodPost, "/api/users/forgot-password", body)
		checkCode(t, app.do(req, rec), http.StatusOK)
		otp := lastSentOTP(t)

		newPwd := "an0therPass!"
		body = jsonBody(t, map[string]interface{}{
			"email": "reset@test.local", "otp": otp, "new_password": newPwd, "confirm_password": newPwd,
		})
		req, rec = newRequest(http.MethodPost, "/api/users/reset-password", body)
		checkCode(t, app.do(req, rec), http.StatusOK)

		// old password no longer works, new one does
		body = jsonBody(t, map[string]interface{}{"email": "reset@test.local", "password": pwd})
		req, rec = newRequest(http.MethodPost, "/api/users/login", body)
		checkCode(t, app.do(req, rec), http.StatusUnauthorized)
		app.login(t, "reset@test.local", newPwd)
	})
}
