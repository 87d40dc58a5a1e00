package wpenv

import (
	"context"
	"errors"

	"github.com/charmbracelet/log"

	"github.com/wpdevtools/devtools/internal/logging"
)

// Session brackets a test run with the services it needs. The order is
// fixed: create database, start browser, run, flush cache, drop database,
// stop browser.
type Session struct {
	DB     *Database
	DBName string
	// KeepDB leaves the database in place after the run.
	KeepDB bool
	// Browser is started only when non-nil.
	Browser *Browser
	// Cache is flushed after the run when non-nil.
	Cache *Cache

	logger *log.Logger
}

// Run sets up, calls fn and tears down. Teardown runs for every step that
// was set up, even when fn or a later setup step fails, and even after ctx
// is cancelled. All failures are joined in the order they happened, so
// runner.ExitCode reports the earliest subprocess exit code.
func (s *Session) Run(ctx context.Context, fn func(ctx context.Context) error) error {
	logger := s.logger
	if logger == nil {
		logger = logging.New("session")
	}

	var errs []error
	var dbReady, browserReady, ran bool

	if s.DB != nil {
		logger.Debug("creating database", "name", s.DBName)
		if err := s.DB.Create(ctx, s.DBName); err != nil {
			errs = append(errs, err)
		} else {
			dbReady = true
		}
	}
	if len(errs) == 0 && s.Browser != nil {
		logger.Debug("starting browser", "container", s.Browser.Container, "image", s.Browser.Image)
		if err := s.Browser.Start(ctx); err != nil {
			errs = append(errs, err)
		} else {
			browserReady = true
		}
	}
	if len(errs) == 0 {
		ran = true
		if err := fn(ctx); err != nil {
			errs = append(errs, err)
		}
	}

	td := context.WithoutCancel(ctx)
	if ran && s.Cache != nil {
		if err := s.Cache.Flush(td); err != nil {
			logger.Warn("cache flush failed", "err", err)
			errs = append(errs, err)
		}
	}
	if dbReady && !s.KeepDB {
		logger.Debug("dropping database", "name", s.DBName)
		if err := s.DB.Drop(td, s.DBName); err != nil {
			logger.Warn("dropping database failed", "err", err)
			errs = append(errs, err)
		}
	}
	if browserReady {
		logger.Debug("stopping browser", "container", s.Browser.Container)
		if err := s.Browser.Stop(td); err != nil {
			logger.Warn("stopping browser failed", "err", err)
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
