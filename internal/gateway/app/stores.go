package app

import (
	"fmt"
	"log"

	"github.com/leon2m/cursoronline/internal/gateway/config"
	"github.com/leon2m/cursoronline/internal/gateway/repository/projectrepo"
	"github.com/leon2m/cursoronline/internal/gateway/repository/snapshot"
)

type gatewayStores struct {
	projects  *projectrepo.Store
	snapshots snapshot.Store
}

func initStores(cfg *config.Config) (*gatewayStores, error) {
	projects, err := initProjectStore(cfg)
	if err != nil {
		return nil, err
	}
	snapshots, err := initSnapshotStore(cfg)
	if err != nil {
		return nil, err
	}
	return &gatewayStores{projects: projects, snapshots: snapshots}, nil
}

func initProjectStore(cfg *config.Config) (*projectrepo.Store, error) {
	if cfg.DatabaseURL != "" {
		store, err := projectrepo.NewPostgres(cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("failed to open project store: %w", err)
		}
		log.Printf("project store: postgres")
		return store, nil
	}
	log.Printf("project store: file %s", cfg.ProjectStorePath)
	return projectrepo.New(cfg.ProjectStorePath), nil
}

func initSnapshotStore(cfg *config.Config) (snapshot.Store, error) {
	if cfg.Snapshot.CanUseS3() {
		store, err := snapshot.NewS3Store(snapshot.S3Config{
			Endpoint:  cfg.Snapshot.Endpoint,
			Region:    cfg.Snapshot.Region,
			AccessKey: cfg.Snapshot.AccessKey,
			SecretKey: cfg.Snapshot.SecretKey,
			Bucket:    cfg.Snapshot.Bucket,
			UseSSL:    cfg.Snapshot.UseSSL,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to initialize snapshot s3 store: %w", err)
		}
		log.Printf("snapshot store: s3 bucket=%s endpoint=%s", cfg.Snapshot.Bucket, cfg.Snapshot.Endpoint)
		return store, nil
	}
	if cfg.Snapshot.Enabled {
		log.Printf("snapshot store: using in-memory fallback (s3 config incomplete)")
	}
	return snapshot.NewMemoryStore(), nil
}
