// Package storage selects and builds the configured artifact store.
package storage

import (
	"context"
	"fmt"

	"seiza/internal/adapters/storage/gdrive"
	"seiza/internal/adapters/storage/localfs"
	"seiza/internal/config"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	drive "google.golang.org/api/drive/v3"
	"google.golang.org/api/option"
)

// NewProvider builds the provider named by STORAGE_PROVIDER. Config
// validation has already checked the provider-specific settings.
func NewProvider(ctx context.Context, cfg *config.Config) (Provider, error) {
	switch cfg.StorageProvider {
	case "local":
		return localfs.New(cfg.LocalStoragePath), nil

	case "gdrive":
		return newGDriveProvider(ctx, cfg)

	default:
		return nil, fmt.Errorf("unknown storage provider: %s", cfg.StorageProvider)
	}
}

func newGDriveProvider(ctx context.Context, cfg *config.Config) (Provider, error) {
	conf := &oauth2.Config{
		ClientID:     cfg.GDrive.ClientID,
		ClientSecret: cfg.GDrive.ClientSecret,
		Endpoint:     google.Endpoint,
		Scopes:       []string{drive.DriveFileScope},
	}

	tok := &oauth2.Token{RefreshToken: cfg.GDrive.RefreshToken}
	httpClient := conf.Client(ctx, tok)

	srv, err := drive.NewService(ctx, option.WithHTTPClient(httpClient))
	if err != nil {
		return nil, err
	}

	return gdrive.NewClient(srv, cfg.GDrive.FolderID), nil
}
