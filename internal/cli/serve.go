package cli

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	httpadapter "github.com/PabloGalante/noto-agent/internal/adapters/http"
	"github.com/PabloGalante/noto-agent/internal/observability"
)

const shutdownTimeout = 15 * time.Second

func init() {
	RootCmd.AddCommand(&cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Args:  cobra.NoArgs,
		RunE:  runServe,
	})
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := loadApp(ctx, os.Stdout)
	if err != nil {
		return err
	}
	defer app.Close()

	srv := &http.Server{
		Addr: app.Config.Addr(),
		Handler: httpadapter.NewServer(httpadapter.Deps{
			Conversations: app.Conversations,
			Memories:      app.Memories,
			Persona:       app.Persona,
			Sweeper:       app.Sweeper,
			Batcher:       app.Batcher,
			CronSecret:    app.Config.CronSecret,
		}),
		ReadHeaderTimeout: 10 * time.Second,
	}

	log := observability.Logger()
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("noto api listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(gctx), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
