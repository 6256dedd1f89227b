package authstate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/umputun/loginprobe/app/browser"
)

const (
	origin  = "keycloak-dev.logistical.one"
	authURL = "https://keycloak-dev.logistical.one/realms/lq/protocol/openid-connect/auth?client_id=loglines-fe" +
		"&redirect_uri=http%3A%2F%2Flocalhost%3A3000%2F%23%2Flogin%3F&state=66f1cf3b&response_mode=fragment&response_type=code"
	callbackURL = "http://localhost:3000/#/login?&state=66f1cf3b&session_state=8a1c2d&code=abc.def.ghi"
)

func TestStillOnAuthPage(t *testing.T) {
	tbl := []struct {
		name string
		url  string
		want bool
	}{
		{"login form", authURL, true},
		{"login actions after failed submit", "https://keycloak-dev.logistical.one/realms/lq/login-actions/authenticate?execution=1", true},
		{"callback on app", callbackURL, false},
		{"idp url carrying code", "https://keycloak-dev.logistical.one/cb?code=123", false},
		{"idp url carrying session_state", "https://keycloak-dev.logistical.one/cb?session_state=123", false},
		{"plain app", "http://localhost:3000/#/dashboard", false},
		{"empty", "", false},
	}
	for _, tt := range tbl {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, StillOnAuthPage(tt.url, origin))
			assert.Equal(t, !tt.want, RedirectedAway(tt.url, origin))
		})
	}
}

func TestHasAuthIndicators(t *testing.T) {
	assert.True(t, HasAuthIndicators(callbackURL))
	assert.True(t, HasAuthIndicators("http://app/#access_token=xyz"))
	assert.True(t, HasAuthIndicators("http://app/#id_token=xyz"))
	assert.False(t, HasAuthIndicators("http://localhost:3000/#/dashboard"))
	assert.False(t, HasAuthIndicators(authURL), "response_type=code is not an indicator")
}

func TestSessionCookies(t *testing.T) {
	cookies := []browser.Cookie{
		{Name: "KEYCLOAK_SESSION", Value: "s1"},
		{Name: "AUTH_SESSION_ID", Value: "s2"},
		{Name: "refresh_Token", Value: "s3"},
		{Name: "theme", Value: "dark"},
		{Name: "_ga", Value: "x"},
	}

	res := SessionCookies(cookies)
	require.Len(t, res, 3)
	assert.Equal(t, "KEYCLOAK_SESSION", res[0].Name)
	assert.Equal(t, "AUTH_SESSION_ID", res[1].Name)
	assert.Equal(t, "refresh_Token", res[2].Name)

	res = SessionCookies(cookies, "THEME")
	require.Len(t, res, 1)
	assert.Equal(t, "dark", res[0].Value)

	assert.Empty(t, SessionCookies(nil))
}

func TestClassify(t *testing.T) {
	obs := Observation{URL: callbackURL, Cookies: []browser.Cookie{{Name: "KEYCLOAK_SESSION"}, {Name: "x"}}}
	out := Classify(obs, origin)
	assert.True(t, out.Authenticated())
	assert.Equal(t, Outcome{RedirectedAway: true, Indicators: true, SessionCookies: 1}, out)
	assert.Equal(t, "redirected=true, indicators=true, session cookies=1", out.String())

	// cookies alone don't make it a login
	obs = Observation{URL: authURL, Cookies: []browser.Cookie{{Name: "AUTH_SESSION_ID"}}}
	out = Classify(obs, origin)
	assert.False(t, out.Authenticated())
	assert.Equal(t, 1, out.SessionCookies)

	// same observation, same answer
	assert.Equal(t, Classify(obs, origin), Classify(obs, origin))
}

func TestParam(t *testing.T) {
	tbl := []struct {
		name, url, param, want string
		found                  bool
	}{
		{"query", "http://app/cb?code=q1&state=s", "code", "q1", true},
		{"fragment with route", callbackURL, "code", "abc.def.ghi", true},
		{"fragment session state", callbackURL, "session_state", "8a1c2d", true},
		{"plain fragment", "http://app/#access_token=t1&token_type=bearer", "access_token", "t1", true},
		{"query wins over fragment", "http://app/cb?code=q#code=f", "code", "q", true},
		{"missing", "http://app/#/dashboard", "code", "", false},
		{"bad url", "http://[::1", "code", "", false},
	}
	for _, tt := range tbl {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Param(tt.url, tt.param)
			assert.Equal(t, tt.found, ok)
			assert.Equal(t, tt.want, got)
		})
	}

	assert.Equal(t, "abc.def.ghi", AuthCode(callbackURL))
	assert.Equal(t, "8a1c2d", SessionState(callbackURL))
	assert.Empty(t, AuthCode(authURL))
}

func TestVerifyParams(t *testing.T) {
	require.NoError(t, VerifyParams(callbackURL, map[string]string{"state": "66f1cf3b", "code": ""}))
	require.NoError(t, VerifyParams(authURL, map[string]string{"response_type": "code", "client_id": "loglines-fe"}))

	err := VerifyParams(callbackURL, map[string]string{"state": "other"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), `"state" is "66f1cf3b", expected "other"`)

	err = VerifyParams(authURL, map[string]string{"code": ""})
	require.Error(t, err)
	assert.Contains(t, err.Error(), `parameter "code" not found`)
}

func TestLoggedOutHint(t *testing.T) {
	assert.True(t, LoggedOutHint(authURL, origin))
	assert.True(t, LoggedOutHint("http://localhost:3000/#/login", origin))
	assert.True(t, LoggedOutHint("http://localhost:3000/#/dashboard", origin), "no code is enough")
	assert.False(t, LoggedOutHint("http://localhost:3000/#/x?code=1", origin))
}

func TestEndpointAndHost(t *testing.T) {
	assert.Equal(t, "https://keycloak-dev.logistical.one/realms/lq/protocol/openid-connect/auth", Endpoint(authURL))
	assert.Equal(t, "http://localhost:3000/", Endpoint(callbackURL))
	assert.Equal(t, "not a url", Endpoint("not a url"))
	assert.Equal(t, "relative/path", Endpoint("relative/path?x=1"))

	assert.Equal(t, origin, Host(authURL))
	assert.Equal(t, "localhost:3000", Host(callbackURL))
	assert.Equal(t, "plain", Host("plain"))
}
