package main

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/gatherly/companion/internal/backend"
	"github.com/gatherly/companion/internal/model"
	"github.com/gatherly/companion/internal/store"
	"github.com/gatherly/companion/internal/transform"
)

// transformers bundles one transformer per backend table.
type transformers struct {
	Agenda    *transform.AgendaTransformer
	Attendees *transform.AttendeeTransformer
	Dining    *transform.DiningTransformer
	Sponsors  *transform.SponsorTransformer
	Companies *transform.CompanyTransformer
}

func newTransformers(overlayPath string) (*transformers, error) {
	overlay := &model.MappingOverlay{}
	if overlayPath != "" {
		o, err := model.LoadMappingOverlay(overlayPath)
		if err != nil {
			return nil, err
		}
		overlay = o
	}

	logger := zap.L()
	return &transformers{
		Agenda:    transform.NewAgendaTransformer(logger, overlay.Entities["agenda"]...),
		Attendees: transform.NewAttendeeTransformer(logger, overlay.Entities["attendee"]...),
		Dining:    transform.NewDiningTransformer(logger, overlay.Entities["dining"]...),
		Sponsors:  transform.NewSponsorTransformer(logger, overlay.Entities["sponsor"]...),
		Companies: transform.NewCompanyTransformer(logger, overlay.Entities["company"]...),
	}, nil
}

// env holds the wired application dependencies.
type env struct {
	Store        store.Store
	Backend      *backend.Client
	Transformers *transformers
	SnapshotTTL  time.Duration
	AttendeeTTL  time.Duration
}

func initEnv(ctx context.Context) (*env, error) {
	st, err := store.Open(ctx, cfg.Store.Driver, cfg.Store.DatabaseURL)
	if err != nil {
		return nil, eris.Wrap(err, "open store")
	}
	if err := st.Migrate(ctx); err != nil {
		st.Close()
		return nil, eris.Wrap(err, "migrate store")
	}

	tf, err := newTransformers(cfg.Backend.Overlay)
	if err != nil {
		st.Close()
		return nil, err
	}

	return &env{
		Store: st,
		Backend: backend.New(backend.Options{
			BaseURL:    cfg.Backend.BaseURL,
			APIKey:     cfg.Backend.APIKey,
			Timeout:    time.Duration(cfg.Backend.TimeoutSecs) * time.Second,
			MaxRetries: cfg.Backend.MaxRetries,
			RateLimit:  rate.Limit(cfg.Backend.RateLimit),
			RateBurst:  cfg.Backend.RateBurst,
		}),
		Transformers: tf,
		SnapshotTTL:  time.Duration(cfg.Cache.SnapshotTTLHours) * time.Hour,
		AttendeeTTL:  time.Duration(cfg.Cache.AttendeeTTLHours) * time.Hour,
	}, nil
}

func (e *env) Close() {
	if err := e.Store.Close(); err != nil {
		zap.L().Warn("close store", zap.Error(err))
	}
}

// fetchRecords returns the raw rows for a table, preferring an unexpired
// snapshot and falling back to the backend. Fresh fetches are snapshotted.
func (e *env) fetchRecords(ctx context.Context, table string) ([]map[string]any, error) {
	snap, err := e.Store.GetSnapshot(ctx, table)
	if err != nil {
		zap.L().Warn("snapshot read failed", zap.String("table", table), zap.Error(err))
	}
	if snap != nil {
		return snap.Records, nil
	}

	records, err := e.Backend.ListRecords(ctx, table)
	if err != nil {
		return nil, eris.Wrapf(err, "fetch %s", table)
	}

	if err := e.Store.SetSnapshot(ctx, table, records, e.SnapshotTTL); err != nil {
		zap.L().Warn("snapshot write failed", zap.String("table", table), zap.Error(err))
	}
	return records, nil
}
