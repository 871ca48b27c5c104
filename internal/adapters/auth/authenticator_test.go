package auth

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/mikey/project-digest/internal/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
)

func tokenServer(t *testing.T, handle func(form url.Values) (int, string)) (*httptest.Server, *oauth2.Endpoint) {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		form, _ := url.ParseQuery(string(body))
		form.Set("path", r.URL.Path)
		code, resp := handle(form)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(code)
		_, _ = io.WriteString(w, resp)
	}))
	t.Cleanup(srv.Close)
	return srv, &oauth2.Endpoint{
		AuthURL:       srv.URL + "/authorize",
		TokenURL:      srv.URL + "/token",
		DeviceAuthURL: srv.URL + "/devicecode",
		AuthStyle:     oauth2.AuthStyleInParams,
	}
}

func TestClientCredentials(t *testing.T) {
	_, endpoint := tokenServer(t, func(form url.Values) (int, string) {
		assert.Equal(t, "client_credentials", form.Get("grant_type"))
		assert.Equal(t, "https://contoso.sharepoint.com/.default", form.Get("scope"))
		return http.StatusOK, `{"access_token":"app-token","token_type":"Bearer","expires_in":3600}`
	})

	a, err := NewAuthenticator(Options{
		ClientID:     "client",
		ClientSecret: "secret",
		Flow:         FlowClientCredentials,
		Scopes:       []string{"https://contoso.sharepoint.com/.default"},
		Endpoint:     endpoint,
	}, nil, zap.NewNop())
	require.NoError(t, err)

	tok, err := a.Token(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "app-token", tok.AccessToken)
}

func TestTokenFailureIsAuthFailure(t *testing.T) {
	_, endpoint := tokenServer(t, func(url.Values) (int, string) {
		return http.StatusBadRequest, `{"error":"invalid_client"}`
	})

	a, err := NewAuthenticator(Options{
		ClientID:     "client",
		ClientSecret: "wrong",
		Flow:         FlowClientCredentials,
		Endpoint:     endpoint,
	}, nil, zap.NewNop())
	require.NoError(t, err)

	_, err = a.Token(context.Background())
	assert.ErrorIs(t, err, core.ErrAuthFailure)
}

func TestDeviceCodeFlowCachesToken(t *testing.T) {
	tokenFile := filepath.Join(t.TempDir(), "token.json")
	_, endpoint := tokenServer(t, func(form url.Values) (int, string) {
		switch form.Get("path") {
		case "/devicecode":
			assert.Contains(t, form.Get("scope"), "offline_access")
			return http.StatusOK, `{"device_code":"dev","user_code":"ABCD-EFGH","verification_uri":"https://microsoft.com/devicelogin","expires_in":900,"interval":1}`
		default:
			assert.Equal(t, "urn:ietf:params:oauth:grant-type:device_code", form.Get("grant_type"))
			return http.StatusOK, `{"access_token":"user-token","refresh_token":"refresh","token_type":"Bearer","expires_in":3600}`
		}
	})

	var prompted string
	a, err := NewAuthenticator(Options{
		ClientID:  "client",
		TokenFile: tokenFile,
		Endpoint:  endpoint,
	}, func(resp *oauth2.DeviceAuthResponse) { prompted = resp.UserCode }, zap.NewNop())
	require.NoError(t, err)

	tok, err := a.Token(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "user-token", tok.AccessToken)
	assert.Equal(t, "ABCD-EFGH", prompted)

	data, err := os.ReadFile(tokenFile)
	require.NoError(t, err)
	var saved oauth2.Token
	require.NoError(t, json.Unmarshal(data, &saved))
	assert.Equal(t, "refresh", saved.RefreshToken)

	// second call is served from the cache without prompting
	prompted = ""
	tok, err = a.Token(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "user-token", tok.AccessToken)
	assert.Empty(t, prompted)
}

func TestExpiredCachedTokenIsRefreshed(t *testing.T) {
	tokenFile := filepath.Join(t.TempDir(), "token.json")
	expired, err := json.Marshal(&oauth2.Token{
		AccessToken:  "old",
		RefreshToken: "refresh",
		TokenType:    "Bearer",
		Expiry:       time.Now().Add(-time.Hour),
	})
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(tokenFile, expired, 0o600))

	_, endpoint := tokenServer(t, func(form url.Values) (int, string) {
		assert.Equal(t, "refresh_token", form.Get("grant_type"))
		assert.Equal(t, "refresh", form.Get("refresh_token"))
		return http.StatusOK, `{"access_token":"new","refresh_token":"refresh2","token_type":"Bearer","expires_in":3600}`
	})

	a, err := NewAuthenticator(Options{ClientID: "client", TokenFile: tokenFile, Endpoint: endpoint},
		func(*oauth2.DeviceAuthResponse) { t.Fatal("unexpected device prompt") }, zap.NewNop())
	require.NoError(t, err)

	tok, err := a.Token(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "new", tok.AccessToken)

	data, err := os.ReadFile(tokenFile)
	require.NoError(t, err)
	assert.Contains(t, string(data), "refresh2")
}

func TestNewAuthenticatorValidation(t *testing.T) {
	_, err := NewAuthenticator(Options{}, nil, zap.NewNop())
	assert.Error(t, err)

	_, err = NewAuthenticator(Options{ClientID: "c", Flow: FlowClientCredentials}, nil, zap.NewNop())
	assert.Error(t, err)

	_, err = NewAuthenticator(Options{ClientID: "c", Flow: "implicit"}, nil, zap.NewNop())
	assert.Error(t, err)

	a, err := NewAuthenticator(Options{ClientID: "c", TenantID: "contoso"}, nil, zap.NewNop())
	require.NoError(t, err)
	assert.Equal(t, "https://login.microsoftonline.com/contoso/oauth2/v2.0/devicecode", a.endpoint.DeviceAuthURL)
	assert.Contains(t, a.opts.Scopes, "offline_access")
}
