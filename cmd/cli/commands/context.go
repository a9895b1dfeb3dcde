package commands

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/jakechorley/demand-prioritizer/internal/config"
	"github.com/jakechorley/demand-prioritizer/pkg/clients/sheetsclient"
	"github.com/jakechorley/demand-prioritizer/pkg/db"
	"github.com/jakechorley/demand-prioritizer/pkg/postgres"
	"github.com/jakechorley/demand-prioritizer/pkg/utils"
)

// AppContext holds the application dependencies shared across all commands.
// The database and the Sheets client are opened on first use.
type AppContext struct {
	Env    string
	Cfg    *config.Config
	Logger *zap.Logger
	Ctx    context.Context

	database     db.Database
	sheetsClient *sheetsclient.Client
}

// Database opens the configured run history store
func (a *AppContext) Database() (db.Database, error) {
	if a.database != nil {
		return a.database, nil
	}

	a.Logger.Debug("Connecting to database", zap.String("driver", a.Cfg.Database.Driver))
	switch a.Cfg.Database.Driver {
	case "postgres":
		pg, err := postgres.NewDB(a.Ctx, a.Cfg.Database.DSN)
		if err != nil {
			return nil, fmt.Errorf("failed to open database: %w", err)
		}
		a.database = pg
	default:
		lite, err := db.OpenSQLite(a.Ctx, a.Cfg.Database.DSN)
		if err != nil {
			return nil, fmt.Errorf("failed to open database: %w", err)
		}
		a.database = lite
	}
	return a.database, nil
}

// SheetsClient authorizes against Google and returns a Sheets client
func (a *AppContext) SheetsClient() (*sheetsclient.Client, error) {
	if a.sheetsClient != nil {
		return a.sheetsClient, nil
	}

	a.Logger.Debug("Loading OAuth client configuration")
	oauthCfg, err := config.LoadOAuthClientWithEnv(a.Env)
	if err != nil {
		return nil, err
	}

	tokens, err := utils.NewTokenStore(a.Logger)
	if err != nil {
		return nil, err
	}

	a.Logger.Debug("Initializing sheets client")
	a.sheetsClient, err = sheetsclient.NewClient(a.Ctx, oauthCfg, tokens, a.Env)
	if err != nil {
		return nil, fmt.Errorf("failed to create sheets client: %w", err)
	}
	return a.sheetsClient, nil
}

// Close releases the database if it was opened
func (a *AppContext) Close() error {
	if a.database == nil {
		return nil
	}
	return a.database.Close()
}
