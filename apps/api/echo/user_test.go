package echoapi_test

import (
	"context"
	"net/http"
	"testing"

	"github.com/dgrijalva/jwt-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	echoapi "github.com/fypcompass/compass/apps/api/echo"
	"github.com/fypcompass/compass/core/user"
	emailsvc "github.com/fypcompass/compass/services/email"
	"github.com/fypcompass/compass/testutil"
)

func Test_authApi_signup(t *testing.T) {
	env, server := setup(t)

	testutil.CreateUser(t, env.UsrRepo, "Taken", "taken@test.io", testPwd, user.RoleStudent, true)

	signup := func(name, email, pwd, role string) []byte {
		return marchallObj(t, user.NewUser{Name: name, Email: email, Password: pwd, Role: role})
	}

	tests := []httpTest{
		{
			name: "empty body", method: http.MethodPost, path: "/api/auth/signup", body: []byte("{}"),
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{
				"name":     "this field is required",
				"email":    "this field is required",
				"password": "this field is required",
				"role":     "this field is required",
			}),
		},
		{
			name: "admin role refused", method: http.MethodPost, path: "/api/auth/signup",
			body: signup("Eve", "eve@test.io", testPwd, user.RoleAdmin), wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"role": "role must be one of: advisor, student"}),
		},
		{
			name: "weak password", method: http.MethodPost, path: "/api/auth/signup",
			body: signup("Eve", "eve@test.io", "short", user.RoleStudent), wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"password": "password must contain at least 8 characters"}),
		},
		{
			name: "email taken", method: http.MethodPost, path: "/api/auth/signup",
			body: signup("Other", " TAKEN@test.io ", testPwd, user.RoleAdvisor), wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"email": "a user with this email already exists"}),
		},
	}
	runHTTPTests(t, server, tests)

	t.Run("success", func(t *testing.T) {
		req, rec := newRequest(http.MethodPost, "/api/auth/signup", signup(" Alice ", "Alice@Test.io", testPwd, " Student "))
		server.ServeHTTP(rec, req)
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

		var res echoapi.SignupResponse
		unmarshal(t, rec, &res)
		assert.Equal(t, "User registered successfully", res.Message)
		assert.NotEmpty(t, res.Token)
		assert.NotEmpty(t, res.User.ID)
		assert.Equal(t, "Alice", res.User.Name)
		assert.Equal(t, "alice@test.io", res.User.Email)
		assert.Equal(t, user.RoleStudent, res.User.Role)

		usr, err := env.UserSvc.GetByEmail(context.Background(), "alice@test.io")
		require.NoError(t, err)
		assert.True(t, usr.IsActive)
		assert.NoError(t, usr.CheckPassword(testPwd))

		// the token is usable right away
		req, rec = newAuthRequest(http.MethodGet, "/api/auth/me", res.Token)
		server.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code)
	})
}

func Test_authApi_login(t *testing.T) {
	env, server := setup(t)

	usr := testutil.CreateUser(t, env.UsrRepo, "Alice", "alice@test.io", testPwd, user.RoleAdvisor, true)
	testutil.CreateUser(t, env.UsrRepo, "Dormant", "dormant@test.io", testPwd, user.RoleStudent, false)

	login := func(email, pwd string) []byte {
		return marchallObj(t, echoapi.LoginRequest{Email: email, Password: pwd})
	}
	errCreds := marchallObj(t, httpErr{Error: "invalid credentials"})

	tests := []httpTest{
		{
			name: "empty body", method: http.MethodPost, path: "/api/auth/login", body: []byte("{}"),
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"email": "this field is required", "password": "this field is required"}),
		},
		{
			name: "unknown email", method: http.MethodPost, path: "/api/auth/login",
			body: login("bob@test.io", testPwd), wantCode: http.StatusBadRequest, wantData: errCreds,
		},
		{
			name: "wrong password", method: http.MethodPost, path: "/api/auth/login",
			body: login("alice@test.io", "N0tThePassword"), wantCode: http.StatusBadRequest, wantData: errCreds,
		},
		{
			name: "deactivated", method: http.MethodPost, path: "/api/auth/login",
			body: login("dormant@test.io", testPwd), wantCode: http.StatusForbidden,
			wantData: marchallObj(t, httpErr{Error: "account deactivated"}),
		},
	}
	runHTTPTests(t, server, tests)

	t.Run("success", func(t *testing.T) {
		req, rec := newRequest(http.MethodPost, "/api/auth/login", login(" ALICE@test.io", testPwd))
		server.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		var res echoapi.LoginResponse
		unmarshal(t, rec, &res)
		assert.Equal(t, usr.Summary(), res.User)

		claims := new(echoapi.Claims)
		_, err := jwt.ParseWithClaims(res.Token, claims, func(*jwt.Token) (interface{}, error) {
			return []byte(env.Conf.SecretKey), nil
		})
		require.NoError(t, err)
		assert.Equal(t, usr.ID, claims.Subject)
		assert.Equal(t, user.RoleAdvisor, claims.Role)
		assert.True(t, claims.IsAdvisor)
		assert.False(t, claims.IsAdmin)

		refreshed, err := env.UserSvc.GetByID(context.Background(), usr.ID)
		require.NoError(t, err)
		assert.False(t, refreshed.LastLogin.IsZero())
	})
}

func Test_authApi_me(t *testing.T) {
	env, server := setup(t)

	usr := testutil.CreateUser(t, env.UsrRepo, "Alice", "alice@test.io", testPwd, user.RoleStudent, true)
	dormant := testutil.CreateUser(t, env.UsrRepo, "Dormant", "dormant@test.io", testPwd, user.RoleStudent, false)
	gone := testutil.CreateUser(t, env.UsrRepo, "Gone", "gone@test.io", testPwd, user.RoleStudent, true)
	goneToken := getToken(t, env.Conf, gone)
	require.NoError(t, env.UserSvc.Delete(context.Background(), gone.ID))

	tests := []httpTest{
		{name: "auth required", path: "/api/auth/me", wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
		{
			name: "bad token", path: "/api/auth/me", token: "not.a.token", wantCode: http.StatusUnauthorized,
			wantData: marchallObj(t, httpErr{Error: "invalid or expired jwt"}),
		},
		{
			name: "deleted user", path: "/api/auth/me", token: goneToken, wantCode: http.StatusUnauthorized,
			wantData: marchallObj(t, httpErr{Error: "user not authenticated"}),
		},
		{
			name: "deactivated user", path: "/api/auth/me", token: getToken(t, env.Conf, dormant), wantCode: http.StatusForbidden,
			wantData: marchallObj(t, httpErr{Error: "account deactivated"}),
		},
		{name: "ok", path: "/api/auth/me", token: getToken(t, env.Conf, usr), wantData: marchallObj(t, usr)},
	}
	runHTTPTests(t, server, tests)

	t.Run("no password hash", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, "/api/auth/me", getToken(t, env.Conf, usr))
		server.ServeHTTP(rec, req)
		assert.NotContains(t, rec.Body.String(), "password")
	})
}

func Test_authApi_passwordReset(t *testing.T) {
	env, server := setup(t)

	usr := testutil.CreateUser(t, env.UsrRepo, "Alice", "alice@test.io", testPwd, user.RoleStudent, true)
	testutil.CreateUser(t, env.UsrRepo, "Dormant", "dormant@test.io", testPwd, user.RoleStudent, false)

	msgSent := marchallObj(t, echoapi.MessageResponse{
		Message: "If an account with that email exists, a password reset link has been sent.",
	})
	forgot := func(email string) []byte { return marchallObj(t, echoapi.PasswordResetRequest{Email: email}) }

	tests := []httpTest{
		{
			name: "invalid email", method: http.MethodPost, path: "/api/auth/forgot-password", body: forgot("lol"),
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"email": "email must be a valid email address"}),
		},
		{name: "unknown email", method: http.MethodPost, path: "/api/auth/forgot-password", body: forgot("bob@test.io"), wantData: msgSent},
		{name: "deactivated user", method: http.MethodPost, path: "/api/auth/forgot-password", body: forgot("dormant@test.io"), wantData: msgSent},
	}
	runHTTPTests(t, server, tests)

	_, sent := emailsvc.LastSentMessage()
	require.False(t, sent, "no email should be sent to unknown or deactivated users")

	req, rec := newRequest(http.MethodPost, "/api/auth/forgot-password", forgot("Alice@test.io"))
	server.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	checkCodeAndData(t, httpTest{wantCode: http.StatusOK, wantData: msgSent}, rec)

	msg, sent := emailsvc.LastSentMessage()
	require.True(t, sent)
	require.Len(t, msg.To, 1)
	assert.Equal(t, usr.Email, msg.To[0].Address)
	data, ok := msg.TemplateData.(user.MailData)
	require.True(t, ok)

	newPwd := "An0therS3cret!"
	reset := func(uid, token, pwd, confirm string) []byte {
		return marchallObj(t, user.ResetUserPassword{UID: uid, Token: token, Password: pwd, PasswordConfirm: confirm})
	}
	errInvalid := marchallObj(t, httpErr{Error: "invalid or expired reset token"})

	tests = []httpTest{
		{name: "empty body", method: http.MethodPost, path: "/api/auth/reset-password", body: []byte("{}"), wantCode: http.StatusBadRequest},
		{
			name: "passwords mismatch", method: http.MethodPost, path: "/api/auth/reset-password",
			body: reset(data.UID, data.Token, newPwd, newPwd+"!"), wantCode: http.StatusBadRequest,
		},
		{
			name: "bad uid", method: http.MethodPost, path: "/api/auth/reset-password",
			body: reset("lol", data.Token, newPwd, newPwd), wantCode: http.StatusBadRequest, wantData: errInvalid,
		},
		{
			name: "bad token", method: http.MethodPost, path: "/api/auth/reset-password",
			body: reset(data.UID, "lol-lol", newPwd, newPwd), wantCode: http.StatusBadRequest, wantData: errInvalid,
		},
		{
			name: "ok", method: http.MethodPost, path: "/api/auth/reset-password",
			body:     reset(data.UID, data.Token, newPwd, newPwd),
			wantData: marchallObj(t, echoapi.MessageResponse{Message: "Password has been reset successfully"}),
		},
		{
			name: "token used", method: http.MethodPost, path: "/api/auth/reset-password",
			body: reset(data.UID, data.Token, newPwd, newPwd), wantCode: http.StatusBadRequest, wantData: errInvalid,
		},
	}
	runHTTPTests(t, server, tests)

	refreshed, err := env.UserSvc.GetByID(context.Background(), usr.ID)
	require.NoError(t, err)
	assert.NoError(t, refreshed.CheckPassword(newPwd))
}

func Test_authApi_refreshToken(t *testing.T) {
	env, server := setup(t)

	usr := testutil.CreateUser(t, env.UsrRepo, "Alice", "alice@test.io", testPwd, user.RoleStudent, true)

	// issued long ago: the refresh window is over
	stale := echoapi.GetUserClaims(usr, env.Conf, 1)
	staleToken, err := echoapi.GenerateToken(stale, env.Conf)
	require.NoError(t, err)

	tests := []httpTest{
		{name: "auth required", method: http.MethodPost, path: "/api/auth/token-refresh", wantCode: http.StatusUnauthorized},
		{
			name: "refresh expired", method: http.MethodPost, path: "/api/auth/token-refresh", token: staleToken,
			wantCode: http.StatusForbidden, wantData: marchallObj(t, httpErr{Error: "refresh has expired"}),
		},
	}
	runHTTPTests(t, server, tests)

	req, rec := newAuthRequest(http.MethodPost, "/api/auth/token-refresh", getToken(t, env.Conf, usr))
	server.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var res echoapi.LoginResponse
	unmarshal(t, rec, &res)
	assert.NotEmpty(t, res.Token)
	assert.Equal(t, usr.Summary(), res.User)
}
