package main

import (
	"context"
	"fmt"
	"time"

	"weighttracker/internal/adapter/memory"
	"weighttracker/internal/adapter/mongo"
	"weighttracker/internal/adapter/postgres"
	"weighttracker/internal/adapter/sqlite"
	"weighttracker/internal/config"
	"weighttracker/internal/domain"

	log "github.com/sirupsen/logrus"
)

type store struct {
	weights  domain.WeightRepository
	sessions domain.SessionRepository
	close    func(ctx context.Context) error
}

func openStore(ctx context.Context, cfg *config.Config) (*store, error) {
	var s *store
	switch cfg.Store {
	case config.StoreMongo:
		c, err := mongo.Open(ctx, cfg.MongoURI, cfg.MongoDatabase)
		if err != nil {
			return nil, err
		}
		s = &store{weights: c, sessions: c.NewSessionRepository(), close: c.Close}
	case config.StorePostgres:
		db, err := postgres.Open(cfg.PostgresURL)
		if err != nil {
			return nil, err
		}
		s = &store{
			weights:  db,
			sessions: postgres.NewSessionRepo(db),
			close:    func(context.Context) error { return db.Close() },
		}
	case config.StoreSQLite:
		db, err := sqlite.New(cfg.SQLitePath)
		if err != nil {
			return nil, err
		}
		s = &store{
			weights:  db,
			sessions: db.NewSessionRepo(),
			close:    func(context.Context) error { return db.Close() },
		}
	case config.StoreMemory:
		db := memory.New()
		s = &store{
			weights:  db,
			sessions: db.NewSessionRepo(),
			close:    func(context.Context) error { return nil },
		}
	default:
		return nil, fmt.Errorf("unknown store: %s", cfg.Store)
	}

	// a store that is down at boot is reported per request, not fatal here
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := s.weights.Ping(pingCtx); err != nil {
		log.WithError(err).Warnf("%s store not reachable at startup", cfg.Store)
	} else {
		log.Infof("connected to %s store", cfg.Store)
	}
	return s, nil
}
