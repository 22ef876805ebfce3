package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/gatherly/companion/internal/model"
	"github.com/gatherly/companion/internal/schedule"
	"github.com/gatherly/companion/internal/search"
	"github.com/gatherly/companion/internal/transform"
)

var (
	servePort   int
	serveNoWarm bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the companion JSON API",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		env, err := initEnv(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		if !serveNoWarm {
			if err := warmSnapshots(ctx, env); err != nil {
				zap.L().Warn("snapshot warmup incomplete", zap.Error(err))
			}
		}

		r := chi.NewRouter()
		r.Use(middleware.RequestID)
		r.Use(middleware.Recoverer)
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: cfg.Server.AllowedOrigins,
			AllowedMethods: []string{http.MethodGet, http.MethodOptions},
			AllowedHeaders: []string{"Accept", "Content-Type"},
		}))

		r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
			writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
		})

		r.Route("/api", func(r chi.Router) {
			r.Get("/agenda", handleAgenda(env))
			r.Get("/attendees", handleAttendees(env))
			r.Get("/dining", handleDining(env))
			r.Get("/sponsors", handleSponsors(env))
			r.Get("/companies", handleCompanies(env))
			r.Get("/schedule/now-next", handleNowNext(env))
		})

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}

		srv := &http.Server{
			Addr:    fmt.Sprintf(":%d", port),
			Handler: r,
		}

		go func() {
			<-ctx.Done()
			zap.L().Info("shutting down server")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				zap.L().Warn("server shutdown", zap.Error(err))
			}
		}()

		zap.L().Info("starting server", zap.Int("port", port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return eris.Wrap(err, "server listen")
		}

		return nil
	},
}

func warmSnapshots(ctx context.Context, env *env) error {
	g, ctx := errgroup.WithContext(ctx)
	for _, table := range []string{"agenda", "attendees", "dining", "sponsors", "companies"} {
		g.Go(func() error {
			_, err := env.fetchRecords(ctx, table)
			return err
		})
	}
	return g.Wait()
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zap.L().Warn("write response", zap.Error(err))
	}
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func handleAgenda(env *env) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		raws, err := env.fetchRecords(r.Context(), "agenda")
		if err != nil {
			writeError(w, http.StatusBadGateway, err)
			return
		}

		items := make([]model.AgendaItem, 0, len(raws))
		for _, raw := range raws {
			item, err := env.Transformers.Agenda.FromDatabase(raw)
			if err != nil {
				zap.L().Warn("skipping agenda record", zap.Error(err))
				continue
			}
			items = append(items, item)
		}

		items = transform.SortAgendaItems(transform.FilterActiveAgendaItems(items))
		if date := r.URL.Query().Get("date"); date != "" {
			items = transform.GroupAgendaByDate(items)[date]
			if items == nil {
				items = []model.AgendaItem{}
			}
		}
		writeJSON(w, http.StatusOK, items)
	}
}

func handleAttendees(env *env) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		attendees, err := loadFilteredAttendees(r.Context(), env)
		if err != nil {
			writeError(w, http.StatusBadGateway, err)
			return
		}
		writeJSON(w, http.StatusOK, search.Attendees(attendees, r.URL.Query().Get("q")))
	}
}

// loadFilteredAttendees prefers the filtered attendee cache; on a miss
// it fetches raw rows, normalizes them, and strips confidential fields.
func loadFilteredAttendees(ctx context.Context, env *env) ([]model.Attendee, error) {
	tf := env.Transformers.Attendees

	cached, err := env.Store.GetCachedAttendees(ctx)
	if err != nil {
		zap.L().Warn("attendee cache read failed", zap.Error(err))
	}
	if cached != nil {
		attendees := make([]model.Attendee, 0, len(cached))
		for _, rec := range cached {
			att, err := tf.FromCache(rec)
			if err != nil {
				zap.L().Warn("skipping cached attendee", zap.Error(err))
				continue
			}
			attendees = append(attendees, att)
		}
		return attendees, nil
	}

	raws, err := env.fetchRecords(ctx, "attendees")
	if err != nil {
		return nil, err
	}

	attendees := make([]model.Attendee, 0, len(raws))
	for _, raw := range raws {
		att, err := tf.FromDatabase(raw)
		if err != nil {
			zap.L().Warn("skipping attendee record", zap.Error(err))
			continue
		}
		attendees = append(attendees, tf.FilterAttendee(att))
	}
	return attendees, nil
}

func handleDining(env *env) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		raws, err := env.fetchRecords(r.Context(), "dining")
		if err != nil {
			writeError(w, http.StatusBadGateway, err)
			return
		}

		options := make([]model.DiningOption, 0, len(raws))
		for _, raw := range raws {
			opt, err := env.Transformers.Dining.FromDatabase(raw)
			if err != nil {
				zap.L().Warn("skipping dining record", zap.Error(err))
				continue
			}
			options = append(options, opt)
		}
		writeJSON(w, http.StatusOK, transform.SortDiningOptions(transform.FilterActiveDiningOptions(options)))
	}
}

func handleSponsors(env *env) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		raws, err := env.fetchRecords(r.Context(), "sponsors")
		if err != nil {
			writeError(w, http.StatusBadGateway, err)
			return
		}

		sponsors := make([]model.Sponsor, 0, len(raws))
		for _, raw := range raws {
			sp, err := env.Transformers.Sponsors.FromDatabase(raw)
			if err != nil {
				zap.L().Warn("skipping sponsor record", zap.Error(err))
				continue
			}
			sponsors = append(sponsors, sp)
		}
		writeJSON(w, http.StatusOK, transform.SortSponsors(transform.FilterActiveSponsors(sponsors)))
	}
}

func handleCompanies(env *env) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		raws, err := env.fetchRecords(r.Context(), "companies")
		if err != nil {
			writeError(w, http.StatusBadGateway, err)
			return
		}

		companies, err := env.Transformers.Companies.FromDatabaseAll(raws)
		if err != nil {
			writeError(w, http.StatusUnprocessableEntity, err)
			return
		}
		writeJSON(w, http.StatusOK, companies)
	}
}

func handleNowNext(env *env) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		raws, err := env.fetchRecords(r.Context(), "agenda")
		if err != nil {
			writeError(w, http.StatusBadGateway, err)
			return
		}

		items := make([]model.AgendaItem, 0, len(raws))
		for _, raw := range raws {
			item, err := env.Transformers.Agenda.FromDatabase(raw)
			if err != nil {
				continue
			}
			items = append(items, item)
		}
		writeJSON(w, http.StatusOK, schedule.Resolve(items, time.Now()))
	}
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	serveCmd.Flags().BoolVar(&serveNoWarm, "no-warm", false, "skip snapshot warmup on startup")
	rootCmd.AddCommand(serveCmd)
}
