package factory

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"go.uber.org/zap"
	"golang.org/x/oauth2"

	"github.com/mikey/project-digest/internal/adapters/auth"
	"github.com/mikey/project-digest/internal/adapters/store"
	"github.com/mikey/project-digest/internal/config"
	"github.com/mikey/project-digest/internal/core"
)

// StoreFactory creates the remote store for a run
type StoreFactory struct {
	cfg    *config.Config
	logger *zap.Logger

	authOnce sync.Once
	authn    *auth.Authenticator
	authErr  error
}

// NewStoreFactory creates a new store factory
func NewStoreFactory(cfg *config.Config, logger *zap.Logger) *StoreFactory {
	return &StoreFactory{
		cfg:    cfg,
		logger: logger,
	}
}

// CreateStore creates the configured store. The SharePoint store is bound to
// a token obtained now, so callers create one store per run.
func (f *StoreFactory) CreateStore(ctx context.Context) (core.RemoteStore, error) {
	sc := f.cfg.GetStore()

	switch sc.Type {
	case "sharepoint":
		site := f.cfg.GetSharePoint().SiteURL
		if site == "" {
			return nil, fmt.Errorf("sharepoint.site_url is required")
		}
		authn, err := f.authenticator()
		if err != nil {
			return nil, err
		}
		tok, err := authn.Token(ctx)
		if err != nil {
			return nil, err
		}
		client := oauth2.NewClient(ctx, oauth2.StaticTokenSource(tok))
		return store.NewSharePointStore(client, site, sc.OutputPath, f.logger), nil
	case "s3":
		s3c := f.cfg.GetS3()
		if s3c.Bucket == "" {
			return nil, fmt.Errorf("s3.bucket is required")
		}
		awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(s3c.Region))
		if err != nil {
			return nil, fmt.Errorf("failed to load AWS configuration: %w", err)
		}
		return store.NewS3Store(s3.NewFromConfig(awsCfg), s3c.Bucket, sc.OutputPath, f.logger), nil
	case "local":
		return store.NewLocalStore(f.cfg.GetLocal().Root, sc.OutputPath, f.logger), nil
	default:
		return nil, fmt.Errorf("unsupported store type: %s", sc.Type)
	}
}

// authenticator is built once so the device flow prompt happens at most
// once per process when the token cache is writable
func (f *StoreFactory) authenticator() (*auth.Authenticator, error) {
	f.authOnce.Do(func() {
		ac, err := f.cfg.GetAuth()
		if err != nil {
			f.authErr = err
			return
		}

		tokenFile := ac.TokenFile
		if tokenFile == "" {
			if home, err := os.UserHomeDir(); err == nil {
				tokenFile = filepath.Join(home, ".project-digest", "token.json")
			}
		}

		f.authn, f.authErr = auth.NewAuthenticator(auth.Options{
			TenantID:     ac.TenantID,
			ClientID:     ac.ClientID,
			ClientSecret: ac.ClientSecret,
			Flow:         ac.Flow,
			Scopes:       ac.Scopes,
			TokenFile:    tokenFile,
		}, devicePrompt, f.logger)
	})
	return f.authn, f.authErr
}

func devicePrompt(resp *oauth2.DeviceAuthResponse) {
	fmt.Fprintf(os.Stderr, "To sign in, open %s and enter the code %s\n", resp.VerificationURI, resp.UserCode)
}
