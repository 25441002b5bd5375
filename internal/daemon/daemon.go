package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gofrs/flock"

	"shelver/internal/catalog"
	"shelver/internal/config"
	"shelver/internal/logging"
	"shelver/internal/notifications"
	"shelver/internal/queue"
)

// Runner is the inbound update loop; chat.Poller satisfies it.
type Runner interface {
	Run(ctx context.Context) error
}

// Daemon coordinates the background services and enforces single-instance
// execution.
type Daemon struct {
	cfg      *config.Config
	logger   *slog.Logger
	store    *catalog.Store
	pool     *queue.Pool
	poller   Runner
	notifier notifications.Service

	lockPath string
	lock     *flock.Flock

	running    atomic.Bool
	cancel     context.CancelFunc
	wg         sync.WaitGroup
	statusSrv  *http.Server
	statusAddr string
}

// New constructs a daemon around initialized collaborators.
func New(cfg *config.Config, store *catalog.Store, pool *queue.Pool, poller Runner, notifier notifications.Service, logger *slog.Logger) (*Daemon, error) {
	if cfg == nil || store == nil || pool == nil || poller == nil {
		return nil, errors.New("daemon requires config, catalog store, pool, and poller")
	}
	if notifier == nil {
		notifier = notifications.NewService(cfg)
	}

	lockPath := filepath.Join(cfg.Paths.DataDir, "shelver.lock")
	return &Daemon{
		cfg:      cfg,
		logger:   logging.WithComponent(logger, "daemon"),
		store:    store,
		pool:     pool,
		poller:   poller,
		notifier: notifier,
		lockPath: lockPath,
		lock:     flock.New(lockPath),
	}, nil
}

// Start acquires the instance lock, launches the worker pool, the update
// poller, and the status endpoint.
func (d *Daemon) Start(ctx context.Context) error {
	if d.running.Load() {
		return errors.New("daemon already running")
	}

	ok, err := d.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return errors.New("another shelver instance is already running")
	}

	runCtx, cancel := context.WithCancel(ctx)
	d.cancel = cancel

	if err := d.pool.Start(runCtx); err != nil {
		cancel()
		_ = d.lock.Unlock()
		return fmt.Errorf("start worker pool: %w", err)
	}

	if err := d.startStatusServer(); err != nil {
		d.pool.Stop()
		cancel()
		_ = d.lock.Unlock()
		return err
	}

	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		if err := d.poller.Run(runCtx); err != nil && !errors.Is(err, context.Canceled) {
			d.logger.Error("update poller stopped", logging.Error(err))
		}
	}()

	d.running.Store(true)
	d.logger.Info("daemon started",
		logging.String("lock", d.lockPath),
		logging.String("status_bind", d.statusAddr))

	if err := d.notifier.NotifyDaemonStarted(runCtx); err != nil {
		d.logger.Warn("startup notification failed", logging.Error(err))
	}
	return nil
}

// Stop shuts down background processing and releases the instance lock.
func (d *Daemon) Stop() {
	if !d.running.Load() {
		return
	}

	if d.statusSrv != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := d.statusSrv.Shutdown(shutdownCtx); err != nil {
			d.logger.Warn("status server shutdown failed", logging.Error(err))
		}
		cancel()
		d.statusSrv = nil
	}

	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
	d.pool.Stop()
	d.wg.Wait()

	if err := d.lock.Unlock(); err != nil {
		d.logger.Warn("failed to release daemon lock", logging.Error(err))
	}
	d.running.Store(false)
	d.logger.Info("daemon stopped")
}

// Close stops the daemon and releases held resources.
func (d *Daemon) Close() error {
	d.Stop()
	if d.store != nil {
		return d.store.Close()
	}
	return nil
}

// Running reports whether Start has completed and Stop has not.
func (d *Daemon) Running() bool {
	return d.running.Load()
}

// StatusAddr returns the bound status endpoint address, empty when the
// endpoint is disabled.
func (d *Daemon) StatusAddr() string {
	return d.statusAddr
}

func (d *Daemon) startStatusServer() error {
	bind := d.cfg.Paths.StatusBind
	if bind == "" {
		return nil
	}

	listener, err := net.Listen("tcp", bind)
	if err != nil {
		return fmt.Errorf("bind status endpoint %s: %w", bind, err)
	}
	d.statusAddr = listener.Addr().String()

	mux := http.NewServeMux()
	mux.Handle("/status", NewStatusHandler(d.pool, &d.running))
	d.statusSrv = &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		if err := d.statusSrv.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			d.logger.Error("status server failed", logging.Error(err))
		}
	}()
	return nil
}
