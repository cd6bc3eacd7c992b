package database

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/rzpsarthak13/sqlobjects/internal/config"
	"github.com/rzpsarthak13/sqlobjects/internal/core"
)

// Open connects to the database selected by cfg.Database.Type.
func Open(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (core.Conn, error) {
	switch cfg.Database.Type {
	case TypePostgres:
		db, err := NewPostgresDatabase(ctx, cfg.Database, cfg.Log.SQL, logger)
		if err != nil {
			return nil, err
		}
		return db, nil
	case TypeMySQL:
		db, err := NewMySQLDatabase(ctx, cfg.Database, logger)
		if err != nil {
			return nil, err
		}
		return db, nil
	case TypeSQLite:
		db, err := NewSQLiteDatabase(ctx, cfg.Database.Path, logger)
		if err != nil {
			return nil, err
		}
		return db, nil
	default:
		return nil, fmt.Errorf("unsupported database type: %s", cfg.Database.Type)
	}
}
