package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
)

type App struct {
	Linter    Linter
	ImageRepo ImageRepo
	Config    Config
}

// Routes wires the HTML form, the JSON API, uploaded image serving and the
// health check. Submissions share one rate limiter when RateLimit is set.
func (a App) Routes() http.Handler {
	mux := http.NewServeMux()

	var limiter *rate.Limiter
	if a.Config.RateLimit > 0 {
		limiter = rate.NewLimiter(rate.Limit(a.Config.RateLimit), a.Config.RateBurst)
	}

	mux.Handle("/static/images/",
		http.StripPrefix("/static/images/", http.FileServer(http.Dir(a.Config.ImageDir))))
	mux.Handle("/", limit(limiter, a.limitBody(ComponentHandler(a.index))))
	mux.Handle("/api/lint", limit(limiter, a.limitBody(ComponentHandler(a.lint))))
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	return mux
}

func (a App) limitBody(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if a.Config.MaxUploadBytes > 0 {
			r.Body = http.MaxBytesReader(w, r.Body, a.Config.MaxUploadBytes)
		}
		next.ServeHTTP(w, r)
	})
}

// Start serves until ctx is cancelled, then shuts the server down.
func (a App) Start(ctx context.Context) error {
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%s", a.Config.Port),
		Handler:           a.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		slog.Info(fmt.Sprintf("App running on %s...", a.Config.Port))
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
