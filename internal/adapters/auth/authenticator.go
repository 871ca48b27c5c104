package auth

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"

	"github.com/goccy/go-json"
	"github.com/mikey/project-digest/internal/core"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
	"golang.org/x/oauth2/microsoft"
)

// Supported flows
const (
	FlowDeviceCode        = "device_code"
	FlowClientCredentials = "client_credentials"
)

// Options configures an Authenticator
type Options struct {
	TenantID     string
	ClientID     string
	ClientSecret string
	Flow         string
	Scopes       []string
	TokenFile    string

	// Endpoint overrides the Azure AD endpoint of TenantID
	Endpoint *oauth2.Endpoint
}

// PromptFunc shows the device code instructions to the operator
type PromptFunc func(resp *oauth2.DeviceAuthResponse)

// Authenticator obtains one access token per run
type Authenticator struct {
	opts     Options
	endpoint oauth2.Endpoint
	prompt   PromptFunc
	logger   *zap.Logger
}

// NewAuthenticator creates an authenticator. prompt may be nil, in which
// case the device code instructions are logged.
func NewAuthenticator(opts Options, prompt PromptFunc, logger *zap.Logger) (*Authenticator, error) {
	if opts.ClientID == "" {
		return nil, fmt.Errorf("auth client id is required")
	}
	if opts.TenantID == "" {
		opts.TenantID = "common"
	}
	if opts.Flow == "" {
		opts.Flow = FlowDeviceCode
	}

	switch opts.Flow {
	case FlowDeviceCode:
		if !slices.Contains(opts.Scopes, "offline_access") {
			opts.Scopes = append(slices.Clone(opts.Scopes), "offline_access")
		}
	case FlowClientCredentials:
		if opts.ClientSecret == "" {
			return nil, fmt.Errorf("client secret is required for the %s flow", FlowClientCredentials)
		}
	default:
		return nil, fmt.Errorf("unsupported auth flow: %s", opts.Flow)
	}

	endpoint := microsoft.AzureADEndpoint(opts.TenantID)
	endpoint.DeviceAuthURL = "https://login.microsoftonline.com/" + opts.TenantID + "/oauth2/v2.0/devicecode"
	if opts.Endpoint != nil {
		endpoint = *opts.Endpoint
	}

	a := &Authenticator{
		opts:     opts,
		endpoint: endpoint,
		prompt:   prompt,
		logger:   logger,
	}
	if a.prompt == nil {
		a.prompt = a.logPrompt
	}
	return a, nil
}

// Token returns a valid access token. Failures are reported as ErrAuthFailure.
func (a *Authenticator) Token(ctx context.Context) (*oauth2.Token, error) {
	var (
		tok *oauth2.Token
		err error
	)
	switch a.opts.Flow {
	case FlowClientCredentials:
		tok, err = a.clientCredentials(ctx)
	default:
		tok, err = a.deviceCode(ctx)
	}
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", core.ErrAuthFailure, err)
	}
	return tok, nil
}

func (a *Authenticator) clientCredentials(ctx context.Context) (*oauth2.Token, error) {
	cfg := &clientcredentials.Config{
		ClientID:     a.opts.ClientID,
		ClientSecret: a.opts.ClientSecret,
		TokenURL:     a.endpoint.TokenURL,
		Scopes:       a.opts.Scopes,
	}
	tok, err := cfg.Token(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to acquire client credentials token: %w", err)
	}
	a.logger.Info("Acquired application token", zap.Time("expiry", tok.Expiry))
	return tok, nil
}

func (a *Authenticator) deviceCode(ctx context.Context) (*oauth2.Token, error) {
	cfg := &oauth2.Config{
		ClientID: a.opts.ClientID,
		Endpoint: a.endpoint,
		Scopes:   a.opts.Scopes,
	}

	if cached, err := a.loadToken(); err == nil {
		// TokenSource refreshes an expired token when it carries a refresh token
		tok, err := cfg.TokenSource(ctx, cached).Token()
		if err == nil {
			if tok.AccessToken != cached.AccessToken {
				a.saveToken(tok)
			}
			a.logger.Debug("Using cached token", zap.Time("expiry", tok.Expiry))
			return tok, nil
		}
		a.logger.Info("Cached token unusable, starting device login", zap.Error(err))
	}

	resp, err := cfg.DeviceAuth(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to start device authorization: %w", err)
	}
	a.prompt(resp)

	tok, err := cfg.DeviceAccessToken(ctx, resp)
	if err != nil {
		return nil, fmt.Errorf("failed to complete device authorization: %w", err)
	}
	a.saveToken(tok)
	a.logger.Info("Acquired user token", zap.Time("expiry", tok.Expiry))
	return tok, nil
}

func (a *Authenticator) logPrompt(resp *oauth2.DeviceAuthResponse) {
	a.logger.Warn("Sign-in required",
		zap.String("verification_uri", resp.VerificationURI),
		zap.String("user_code", resp.UserCode))
}

func (a *Authenticator) loadToken() (*oauth2.Token, error) {
	if a.opts.TokenFile == "" {
		return nil, os.ErrNotExist
	}
	data, err := os.ReadFile(a.opts.TokenFile)
	if err != nil {
		return nil, err
	}
	tok := &oauth2.Token{}
	if err := json.Unmarshal(data, tok); err != nil {
		return nil, fmt.Errorf("failed to decode token file: %w", err)
	}
	return tok, nil
}

// saveToken writes the token cache. A failure only costs a new login next run.
func (a *Authenticator) saveToken(tok *oauth2.Token) {
	if a.opts.TokenFile == "" {
		return
	}
	data, err := json.Marshal(tok)
	if err == nil {
		if err = os.MkdirAll(filepath.Dir(a.opts.TokenFile), 0o700); err == nil {
			err = os.WriteFile(a.opts.TokenFile, data, 0o600)
		}
	}
	if err != nil {
		a.logger.Warn("Failed to save token cache", zap.String("path", a.opts.TokenFile), zap.Error(err))
	}
}
