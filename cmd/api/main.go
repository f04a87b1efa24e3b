package main

import (
	"context"
	"database/sql"
	"errors"
	"expvar"
	"flag"
	"fmt"
	"os"
	"runtime"
	"sync"
	"time"

	"github.com/ejacobg/moviesdb/internal/data"
	"github.com/ejacobg/moviesdb/internal/jsonlog"
	"github.com/ejacobg/moviesdb/internal/mailer"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
)

const version = "1.0.0"

type config struct {
	port     int
	env      string
	logLevel string
	store    string // "postgres" or "memory".
	cache    bool   // Put the read-through cache in front of the store.
	db       struct {
		driver       string // "postgres" (lib/pq) or "pgx".
		dsn          string
		maxOpenConns int
		maxIdleConns int
		maxIdleTime  string
		migrate      bool
	}
	limiter struct {
		rps     float64
		burst   int
		enabled bool
	}
	smtp struct {
		host     string
		port     int
		username string
		password string
		sender   string
	}
	notify struct {
		recipient string
	}
}

type application struct {
	config config
	logger *jsonlog.Logger
	models data.Models
	mailer mailer.Mailer
	wg     sync.WaitGroup
}

func main() {
	// A missing .env file is fine; the environment may already be set.
	_ = godotenv.Load()

	cfg, displayVersion, err := parseFlags(os.Args[1:])
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(0)
		}
		os.Exit(2)
	}

	if displayVersion {
		fmt.Printf("Version:\t%s\n", version)
		os.Exit(0)
	}

	logger := jsonlog.New(os.Stdout, jsonlog.ParseLevel(cfg.logLevel))

	var models data.Models

	switch cfg.store {
	case "memory":
		models = data.NewMemoryModels()
	case "postgres":
		db, err := openDB(cfg)
		if err != nil {
			logger.PrintFatal(err, nil)
		}
		defer db.Close()

		logger.PrintInfo("database connection pool established", map[string]string{
			"driver": cfg.db.driver,
		})

		if cfg.db.migrate {
			if err := (data.MovieModel{DB: db}).EnsureSchema(); err != nil {
				logger.PrintFatal(err, nil)
			}
		}

		expvar.Publish("database", expvar.Func(func() any {
			return db.Stats()
		}))

		models = data.NewModels(db)
	default:
		logger.PrintFatal(fmt.Errorf("unknown store %q", cfg.store), nil)
	}

	if cfg.cache {
		models = models.Cached()
		if cached, ok := models.Movies.(*data.CachedMovieModel); ok {
			expvar.Publish("movie_cache", expvar.Func(func() any {
				return cached.Stats()
			}))
		}
	}

	expvar.NewString("version").Set(version)
	expvar.Publish("goroutines", expvar.Func(func() any {
		return runtime.NumGoroutine()
	}))
	expvar.Publish("timestamp", expvar.Func(func() any {
		return time.Now().Unix()
	}))

	app := &application{
		config: cfg,
		logger: logger,
		models: models,
		mailer: mailer.New(cfg.smtp.host, cfg.smtp.port, cfg.smtp.username, cfg.smtp.password, cfg.smtp.sender),
	}

	if err := app.serve(); err != nil {
		logger.PrintFatal(err, nil)
	}
}

// parseFlags reads the configuration from args. Rate limiting is off unless asked for, so a
// single client fetching in parallel is never throttled by default.
func parseFlags(args []string) (config, bool, error) {
	var cfg config

	fs := flag.NewFlagSet("api", flag.ContinueOnError)

	fs.IntVar(&cfg.port, "port", 8000, "API server port")
	fs.StringVar(&cfg.env, "env", "development", "Environment (development|staging|production)")
	fs.StringVar(&cfg.logLevel, "log-level", "INFO", "Minimum log level (INFO|ERROR|FATAL|OFF)")
	fs.StringVar(&cfg.store, "store", "postgres", "Movie store (postgres|memory)")
	fs.BoolVar(&cfg.cache, "cache", true, "Enable the read-through movie cache")

	fs.StringVar(&cfg.db.driver, "db-driver", "postgres", "database/sql driver (postgres|pgx)")
	fs.StringVar(&cfg.db.dsn, "db-dsn", os.Getenv("DATABASE_URL"), "PostgreSQL DSN")
	fs.IntVar(&cfg.db.maxOpenConns, "db-max-open-conns", 25, "PostgreSQL max open connections")
	fs.IntVar(&cfg.db.maxIdleConns, "db-max-idle-conns", 25, "PostgreSQL max idle connections")
	fs.StringVar(&cfg.db.maxIdleTime, "db-max-idle-time", "15m", "PostgreSQL max connection idle time")
	fs.BoolVar(&cfg.db.migrate, "db-migrate", true, "Create the movies table on startup if it is missing")

	fs.Float64Var(&cfg.limiter.rps, "limiter-rps", 2, "Rate limiter maximum requests per second")
	fs.IntVar(&cfg.limiter.burst, "limiter-burst", 4, "Rate limiter maximum burst")
	fs.BoolVar(&cfg.limiter.enabled, "limiter-enabled", false, "Enable rate limiter")

	fs.StringVar(&cfg.smtp.host, "smtp-host", "localhost", "SMTP host")
	fs.IntVar(&cfg.smtp.port, "smtp-port", 25, "SMTP port")
	fs.StringVar(&cfg.smtp.username, "smtp-username", "", "SMTP username")
	fs.StringVar(&cfg.smtp.password, "smtp-password", "", "SMTP password")
	fs.StringVar(&cfg.smtp.sender, "smtp-sender", "Movies DB <no-reply@moviesdb.example>", "SMTP sender")
	fs.StringVar(&cfg.notify.recipient, "notify-recipient", "", "Address notified when a movie is added (empty disables)")

	displayVersion := fs.Bool("version", false, "Display version and exit")

	if err := fs.Parse(args); err != nil {
		return config{}, false, err
	}

	return cfg, *displayVersion, nil
}

// openDB returns a verified connection pool for cfg.
func openDB(cfg config) (*sql.DB, error) {
	if cfg.db.dsn == "" {
		return nil, fmt.Errorf("no database DSN: set DATABASE_URL or -db-dsn")
	}

	db, err := sql.Open(cfg.db.driver, cfg.db.dsn)
	if err != nil {
		return nil, err
	}

	db.SetMaxOpenConns(cfg.db.maxOpenConns)
	db.SetMaxIdleConns(cfg.db.maxIdleConns)

	duration, err := time.ParseDuration(cfg.db.maxIdleTime)
	if err != nil {
		db.Close()
		return nil, err
	}
	db.SetConnMaxIdleTime(duration)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err = db.PingContext(ctx); err != nil {
		db.Close()
		return nil, err
	}

	return db, nil
}
