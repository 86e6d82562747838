// Command driveoffd runs the attachment offload sidecar: it receives
// attachment lifecycle events from the host application and moves the
// payloads into the configured remote object store.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/koustreak/driveoff/internal/config"
	"github.com/koustreak/driveoff/internal/creds"
	"github.com/koustreak/driveoff/internal/localfs"
	"github.com/koustreak/driveoff/internal/logger"
	"github.com/koustreak/driveoff/internal/objstore"
	"github.com/koustreak/driveoff/internal/objstore/gdrive"
	"github.com/koustreak/driveoff/internal/objstore/minio"
	"github.com/koustreak/driveoff/internal/offload"
	"github.com/koustreak/driveoff/internal/record"
	mysqlrec "github.com/koustreak/driveoff/internal/record/mysql"
	pgrec "github.com/koustreak/driveoff/internal/record/postgres"
	"github.com/koustreak/driveoff/internal/server"
)

func main() {
	configPath := flag.String("config", "driveoff.yaml", "path to the configuration file")
	flag.Parse()

	if err := run(*configPath); err != nil {
		fmt.Fprintln(os.Stderr, "driveoffd:", err)
		os.Exit(1)
	}
}

func run(configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	log := logger.New(&logger.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	records, err := openRecords(ctx, cfg)
	if err != nil {
		return err
	}
	defer records.Close()

	svc := offload.New(records, localfs.NewDir(cfg.SitePath), connector(cfg), log)

	srv := server.New(cfg, svc, records, log)
	return srv.ListenAndServe(ctx)
}

// openRecords opens the host's attachment table with the configured driver.
func openRecords(ctx context.Context, cfg *config.Config) (record.Store, error) {
	switch cfg.Records.Driver {
	case config.RecordMySQL:
		return mysqlrec.New(ctx, cfg.Records)
	default:
		return pgrec.New(ctx, cfg.Records)
	}
}

// connector builds the object store for each operation, acquiring
// credentials every time so revocations surface as auth errors instead
// of stale clients.
func connector(cfg *config.Config) offload.Connector {
	return offload.ConnectorFunc(func(ctx context.Context, c config.Config) (objstore.Store, error) {
		switch c.Store.Provider {
		case config.ProviderMinIO:
			return minio.New(ctx, minio.Options{
				Endpoint:  c.Store.Endpoint,
				AccessKey: c.Credentials.AccessKey,
				SecretKey: c.Credentials.SecretKey,
				Bucket:    c.Store.Bucket,
				Region:    c.Store.Region,
				UseSSL:    c.Store.UseSSL,
			})

		default:
			provider, err := creds.FromConfig(c.Credentials)
			if err != nil {
				return nil, err
			}
			ts, err := provider.TokenSource(ctx)
			if err != nil {
				return nil, err
			}
			return gdrive.New(ctx, ts)
		}
	})
}
