package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"time"

	"github.com/emrgen/folio/internal/asset"
	"github.com/emrgen/folio/internal/config"
	"github.com/emrgen/folio/internal/export"
	"github.com/emrgen/folio/internal/jobs"
	"github.com/emrgen/folio/internal/queue"
	"github.com/emrgen/folio/internal/service"
	"github.com/emrgen/folio/internal/store"
	"github.com/rs/cors"
	"github.com/sirupsen/logrus"
	"golang.org/x/sys/unix"
)

// Server represents the server
type Server struct {
	cfg *config.Config
}

// NewServer creates a new server
func NewServer(cfg *config.Config) *Server {
	return &Server{
		cfg: cfg,
	}
}

// Start starts the server
func (s *Server) Start() {
	if err := Start(s.cfg); err != nil {
		logrus.Fatalf("error starting server: %v", err)
	}
}

func newQueue(cfg *config.Config) (queue.PortfolioQueue, error) {
	if cfg.KafkaBrokers == "" {
		return queue.NewMemoryQueue(), nil
	}
	logrus.Infof("publishing portfolio events to kafka topic %s", cfg.KafkaTopic)
	return queue.NewKafkaQueue(cfg.KafkaBrokers, cfg.KafkaTopic)
}

// newUploader prefers object storage and falls back to the local upload dir, which
// is then served under /uploads.
func newUploader(ctx context.Context, cfg *config.Config) (asset.Uploader, string, error) {
	if cfg.MinioEndpoint != "" {
		u, err := asset.NewMinioUploader(cfg.MinioEndpoint, cfg.MinioAccessKey, cfg.MinioSecretKey, cfg.MinioBucket, cfg.MinioSecure)
		if err != nil {
			return nil, "", err
		}
		if err := u.EnsureBucket(ctx); err != nil {
			return nil, "", err
		}
		return u, "", nil
	}

	u, err := asset.NewLocalUploader(cfg.UploadDir)
	if err != nil {
		return nil, "", err
	}
	return u, u.Dir(), nil
}

// Start wires the collaborators and serves the http api until interrupted.
func Start(cfg *config.Config) error {
	var err error

	cfg.SetupLogging()
	httpPort := ":" + cfg.HTTPPort

	rdb := config.GetDb(cfg)
	portfolioStore := store.NewGormStore(rdb)
	if err = portfolioStore.Migrate(); err != nil {
		return err
	}

	slot, err := cfg.OpenSlot()
	if err != nil {
		return fmt.Errorf("open slot: %w", err)
	}
	defer slot.Close()

	codec, err := cfg.Codec()
	if err != nil {
		return err
	}

	q, err := newQueue(cfg)
	if err != nil {
		return err
	}
	defer q.Close()

	uploader, uploadDir, err := newUploader(context.Background(), cfg)
	if err != nil {
		return err
	}

	svc := service.NewPortfolioService(portfolioStore, slot, codec, q, uploader, service.Options{
		AssetBaseURL: cfg.AssetBaseURL,
		FrontendURL:  cfg.FrontendURL,
		PollInterval: cfg.PollInterval,
	})

	executor := jobs.NewTaskExecutor(nil, []jobs.CronJob{
		jobs.NewDraftSyncTask(cfg.DraftSyncCron, svc),
		jobs.NewStatsTask("@every 1m", svc),
	})
	if err = executor.Run(); err != nil {
		return err
	}
	defer executor.Stop()

	reaper := jobs.NewSessionReaper(svc, cfg.SessionIdle, time.Minute)
	go reaper.Run()
	defer reaper.Stop()

	handler := NewHandler(svc, export.NewPDFExporter(cfg.ChromePath), uploadDir)

	c := cors.New(cors.Options{
		AllowedOrigins:   cfg.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "DELETE", "PUT", "PATCH"},
		AllowedHeaders:   []string{"Authorization", "Content-Type", "X-User-ID", "X-User-Role"},
		AllowCredentials: true,
	})

	rl, err := net.Listen("tcp", httpPort)
	if err != nil {
		return err
	}

	// request contexts derive from baseCtx so open preview streams end on shutdown
	baseCtx, cancelBase := context.WithCancel(context.Background())
	defer cancelBase()

	restServer := &http.Server{
		Addr:              httpPort,
		Handler:           c.Handler(RequestTimeMiddleware(handler.Routes())),
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return baseCtx },
	}
	restServer.RegisterOnShutdown(cancelBase)

	// make sure to wait for the server to stop before exiting
	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		logrus.Info("starting http server on: ", httpPort)
		if err := restServer.Serve(rl); err != nil {
			if !errors.Is(err, http.ErrServerClosed) {
				logrus.Errorf("error starting http server: %v", err)
			}
		}
		logrus.Infof("http server stopped")
	}()

	logrus.Infof("Press Ctrl+C to stop the server")

	// listen for interrupt signal to gracefully shut down the server
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, unix.SIGTERM, unix.SIGINT, unix.SIGTSTP)
	<-sigs
	// clean Ctrl+C output
	fmt.Println()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err = restServer.Shutdown(ctx); err != nil {
		logrus.Errorf("error stopping http server: %v", err)
	}

	wg.Wait()

	// keep the latest edits of live sessions
	jobs.NewDraftSyncTask(cfg.DraftSyncCron, svc).Run()

	return nil
}
