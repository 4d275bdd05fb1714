package cmd

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/geraldfingburke/autopress/internal/httpapi"
	"github.com/geraldfingburke/autopress/internal/models"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP control plane and a background collect-write loop",
	RunE: func(c *cobra.Command, _ []string) error {
		env, err := setup()
		if err != nil {
			return err
		}

		loop := newLoopState(env.Config.LoopIntervalS)
		server := httpapi.New(env.Registry, func() (*models.LoopStats, error) { return loadLoopStats(env.Paths) }, loop)

		httpServer := &http.Server{Addr: serveAddr, Handler: server.Router()}

		ctx, cancel := context.WithCancel(c.Context())
		defer cancel()

		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
		go func() {
			<-sigCh
			log.Info().Msg("pipeline serve: shutdown signal received")
			cancel()
		}()

		var wg sync.WaitGroup
		wg.Add(1)
		go func() {
			defer wg.Done()
			loop.run(ctx, env)
		}()

		serverStarted := make(chan struct{})
		serverErr := make(chan error, 1)
		go func() {
			close(serverStarted)
			log.Info().Str("addr", serveAddr).Msg("pipeline serve: http control plane listening")
			if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				serverErr <- err
			}
		}()
		<-serverStarted

		select {
		case <-ctx.Done():
		case err := <-serverErr:
			log.Error().Err(err).Msg("pipeline serve: http server failed")
			cancel()
		}

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			log.Warn().Err(err).Msg("pipeline serve: graceful shutdown timed out")
		}

		done := make(chan struct{})
		go func() {
			wg.Wait()
			close(done)
		}()
		select {
		case <-done:
		case <-time.After(15 * time.Second):
			log.Warn().Msg("pipeline serve: background loop did not stop in time")
		}

		return nil
	},
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", ":8080", "HTTP listen address for the control plane")
	rootCmd.AddCommand(serveCmd)
}

// loopState implements httpapi.LoopStatusProvider and drives the
// background collect-write loop at the configured interval.
type loopState struct {
	intervalS int

	mu      sync.RWMutex
	running bool
	nextAt  time.Time
}

func newLoopState(intervalS int) *loopState {
	if intervalS <= 0 {
		intervalS = 900
	}
	return &loopState{intervalS: intervalS}
}

func (l *loopState) Running() bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.running
}

func (l *loopState) NextCycleAt() string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if l.nextAt.IsZero() {
		return ""
	}
	return l.nextAt.Format(time.RFC3339)
}

func (l *loopState) run(ctx context.Context, env *environment) {
	interval := time.Duration(l.intervalS) * time.Second
	l.setNextAt(time.Now().UTC())

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		l.mu.Lock()
		l.running = true
		l.mu.Unlock()

		result, err := runOnce(ctx, env)
		if err != nil {
			log.Error().Err(err).Msg("pipeline serve: cycle failed")
		} else if err := mergeIntoLoopStats(env.Paths, result); err != nil {
			log.Error().Err(err).Msg("pipeline serve: failed to persist loop stats")
		}

		l.mu.Lock()
		l.running = false
		l.mu.Unlock()
		l.setNextAt(time.Now().UTC().Add(interval))

		select {
		case <-ctx.Done():
			return
		case <-time.After(interval):
		}
	}
}

func (l *loopState) setNextAt(t time.Time) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.nextAt = t
}
