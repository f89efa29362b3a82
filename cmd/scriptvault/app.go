package main

import (
	"context"
	"io"

	"github.com/hairizuan-noorazman/scriptvault/config"
	"github.com/hairizuan-noorazman/scriptvault/execution"
	"github.com/hairizuan-noorazman/scriptvault/history"
	"github.com/hairizuan-noorazman/scriptvault/logger"
	"github.com/hairizuan-noorazman/scriptvault/provenance"
	"github.com/hairizuan-noorazman/scriptvault/storage"
	"github.com/hairizuan-noorazman/scriptvault/vault"
)

// app holds what one invocation has loaded. Library packages receive these values explicitly.
type app struct {
	cfg     *config.Config
	log     logger.Logger
	backend storage.Backend
}

var current *app

func initApp() error {
	home, err := config.ResolveHome(flagHome)
	if err != nil {
		return err
	}

	cfg, err := config.Load(home)
	if err != nil {
		return err
	}

	level := cfg.Log.Level
	if flagDebug {
		level = "debug"
	}
	log, err := logger.NewFileLogger(cfg.Log.File, level)
	if err != nil {
		return err
	}

	current = &app{cfg: cfg, log: log}
	return nil
}

func closeApp() error {
	if current == nil || current.backend == nil {
		return nil
	}
	if c, ok := current.backend.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

// openBackend creates the configured backend once per invocation.
func (a *app) openBackend(ctx context.Context) (storage.Backend, error) {
	if a.backend != nil {
		return a.backend, nil
	}
	b, err := storage.NewBackend(ctx, a.cfg.Storage, a.log)
	if err != nil {
		return nil, err
	}
	a.backend = b
	return b, nil
}

func (a *app) detector() *provenance.Detector {
	return provenance.NewDetector(provenance.GitCLI{}, a.log)
}

func (a *app) historyLog() *history.Log {
	return history.NewLog(a.cfg.History.Path, a.log)
}

func (a *app) catalog(ctx context.Context) (*vault.Service, error) {
	b, err := a.openBackend(ctx)
	if err != nil {
		return nil, err
	}
	return vault.NewService(b, a.detector(), a.cfg.Executor(), a.log), nil
}

func (a *app) historyService(ctx context.Context) (*execution.HistoryService, error) {
	b, err := a.openBackend(ctx)
	if err != nil {
		return nil, err
	}
	return execution.NewHistoryService(b, a.historyLog()), nil
}

func (a *app) engine(ctx context.Context, confirmer execution.Confirmer, presenter execution.Presenter) (*execution.Engine, error) {
	b, err := a.openBackend(ctx)
	if err != nil {
		return nil, err
	}
	return execution.NewEngine(execution.Config{
		ScratchDir:       a.cfg.ScratchDir,
		ConfirmBeforeRun: a.cfg.ConfirmBeforeRun,
		Executor:         a.cfg.Executor(),
	}, b, a.historyLog(), a.detector(), confirmer, presenter, a.log), nil
}
