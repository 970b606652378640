package cmd

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/abhisek/mathportal/internal/auth"
	"github.com/abhisek/mathportal/internal/config"
	"github.com/abhisek/mathportal/internal/kv"
	"github.com/abhisek/mathportal/internal/logger"
	"github.com/abhisek/mathportal/internal/progress"
	"github.com/abhisek/mathportal/internal/remote"
	"github.com/abhisek/mathportal/internal/store"
)

// cacheStorage is what the cache commands need beyond the progress cache.
type cacheStorage interface {
	progress.KeyValueStorage
	Delete(ctx context.Context, key string) error
	Keys(ctx context.Context, prefix string) ([]string, error)
}

// runtimeEnv holds the collaborators shared by every command.
type runtimeEnv struct {
	cfg     *config.Config
	log     zerolog.Logger
	store   *store.Store
	storage cacheStorage
	client  *remote.Client
	user    auth.User
	closers []func() error
}

// openEnv loads configuration, applies the persistent flags and opens the
// local store and the selected cache backend. With toFile set, logs go to
// the log file instead of stderr, since the TUI owns the terminal.
func openEnv(cmd *cobra.Command, toFile bool) (*runtimeEnv, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if v, _ := cmd.Flags().GetString("api"); v != "" {
		cfg.APIURL = v
	}
	if v, _ := cmd.Flags().GetString("cache"); v != "" {
		cfg.CacheBackend = v
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	env := &runtimeEnv{cfg: cfg}
	var logOut io.Writer = os.Stderr
	if toFile {
		path, err := logFilePath(cfg)
		if err != nil {
			return nil, fmt.Errorf("resolve log file: %w", err)
		}
		f, err := logger.OpenFile(path)
		if err != nil {
			return nil, fmt.Errorf("open log file: %w", err)
		}
		env.closers = append(env.closers, f.Close)
		logOut = f
	}
	env.log = logger.Setup(cfg.LogLevel, cfg.LogFormat, logOut)

	env.user, err = auth.FromToken(cfg.Token)
	if err != nil {
		env.Close()
		return nil, fmt.Errorf("read MATHPORTAL_TOKEN: %w", err)
	}

	dbPath, err := resolveDBPath(cmd)
	if err != nil {
		env.Close()
		return nil, fmt.Errorf("resolve database path: %w", err)
	}
	env.store, err = store.Open(dbPath)
	if err != nil {
		env.Close()
		return nil, fmt.Errorf("open database: %w", err)
	}
	env.closers = append(env.closers, env.store.Close)

	switch cfg.CacheBackend {
	case config.CacheRedis:
		ctx, cancel := context.WithTimeout(cmd.Context(), 5*time.Second)
		rdb, err := kv.DialRedis(ctx, cfg.RedisURL, cfg.RedisTTL, env.log)
		cancel()
		if err != nil {
			env.Close()
			return nil, err
		}
		env.storage = rdb
		env.closers = append(env.closers, rdb.Close)
	case config.CacheMemory:
		env.storage = kv.NewMemory()
	default:
		env.storage = env.store.KVRepo()
	}

	env.client = remote.NewClient(cfg.APIURL, cfg.Token,
		remote.WithHTTPClient(&http.Client{Timeout: cfg.HTTPTimeout}),
		remote.WithLogger(env.log),
	)

	env.log.Debug().
		Str("api", cfg.APIURL).
		Str("cache", cfg.CacheBackend).
		Str("db", dbPath).
		Bool("authenticated", env.user.Authenticated()).
		Msg("Environment ready")

	return env, nil
}

// Close releases everything openEnv opened, last opened first.
func (e *runtimeEnv) Close() {
	for i := len(e.closers) - 1; i >= 0; i-- {
		if err := e.closers[i](); err != nil {
			e.log.Warn().Err(err).Msg("close")
		}
	}
	e.closers = nil
}

// lessonService is the progress collaborator with sync outcomes recorded.
func (e *runtimeEnv) lessonService() progress.LessonService {
	return remote.WithLessonEventLog(e.client, e.store.EventRepo(), e.log)
}

// quizService is the quiz collaborator with submissions recorded.
func (e *runtimeEnv) quizService() *remote.LoggingQuizService {
	return remote.WithQuizEventLog(e.client, e.store.EventRepo(), e.log)
}

// logFilePath returns LOG_FILE or the default file in the data dir.
func logFilePath(cfg *config.Config) (string, error) {
	if cfg.LogFile != "" {
		return cfg.LogFile, nil
	}
	dir, err := store.DataDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "mathportal.log"), nil
}
