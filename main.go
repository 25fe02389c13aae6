package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	auth "Aerostat/internal/auth"
	batch "Aerostat/internal/calc/batch"
	history "Aerostat/internal/calc/history"
	lift "Aerostat/internal/calc/lift"
	pipeline "Aerostat/internal/calc/pipeline"
	report "Aerostat/internal/calc/report"
	validate "Aerostat/internal/calc/validate"
	config "Aerostat/internal/config"
	configs "Aerostat/internal/configs"
	logger "Aerostat/internal/logger"
	repo "Aerostat/internal/repo"

	"github.com/gorilla/mux"
	"golang.org/x/time/rate"
)

var wg sync.WaitGroup

func CORS(mux *mux.Router) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		mux.ServeHTTP(w, r)
	})
}

type deps struct {
	cfg  config.Config
	log  *logger.Logger
	repo repo.Repository
}

func HandleList(router *mux.Router, d deps) error {
	p, err := pipeline.New(d.cfg.Engine.Settings)
	if err != nil {
		return err
	}
	gas, err := lift.GasByName(d.cfg.Engine.Gas)
	if err != nil {
		return err
	}

	authEnv := &auth.Authenv{
		JWTkey:       []byte(d.cfg.TokenKey),
		Repo:         d.repo,
		Log:          d.log,
		SecureCookie: d.cfg.TLSCert != "",
	}
	calcH := &pipeline.Handler{Pipeline: p, DefaultGas: gas, Log: d.log}
	batchH := &batch.Handler{Calc: calcH}
	reportH := &report.Handler{Calc: calcH}
	historyH := &history.Handler{Calc: calcH, Repo: d.repo, Limit: d.cfg.HistoryLimit}
	configsH := &configs.Handler{Repo: d.repo, Validator: validate.New(d.cfg.Engine.CeilingKm), Log: d.log}

	limiter := auth.NewIPRateLimiter(rate.Limit(d.cfg.RateLimit), d.cfg.RateBurst)

	api := router.PathPrefix("/api").Subrouter()

	api.HandleFunc("/calc", calcH.Calc).Methods("POST")
	api.HandleFunc("/calc/batch", batchH.Batch).Methods("POST")
	api.HandleFunc("/report/{format:pdf|xlsx|csv}", reportH.Generate).Methods("POST")

	limited := func(h http.HandlerFunc) http.Handler { return limiter.LimitMiddleware(h) }
	api.Handle("/login", limited(authEnv.AuthHandler)).Methods("POST")
	api.Handle("/register", limited(authEnv.RegisterHandler)).Methods("POST")
	api.HandleFunc("/logout", authEnv.LogoutHandler).Methods("POST")

	secureApi := api.PathPrefix("/user").Subrouter()
	secureApi.Use(authEnv.AuthMiddleware)

	secureApi.HandleFunc("/calc", historyH.Calc).Methods("POST")
	secureApi.HandleFunc("/history", historyH.List).Methods("GET")
	secureApi.HandleFunc("/history/import", historyH.Import).Methods("POST")
	secureApi.HandleFunc("/configs", configsH.List).Methods("GET")
	secureApi.HandleFunc("/configs", configsH.Save).Methods("POST")
	secureApi.HandleFunc("/configs/{id}", configsH.Get).Methods("GET")
	secureApi.HandleFunc("/configs/{id}", configsH.Delete).Methods("DELETE")

	router.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}).Methods("GET")
	return nil
}

func openRepo(ctx context.Context, cfg config.Config, log *logger.Logger) (repo.Repository, func(), error) {
	if cfg.DatabaseURL == "" {
		log.Warn("DATABASE_URL is not set, using in-memory storage")
		return repo.NewMemory(), func() {}, nil
	}
	db, err := repo.Open(cfg.DatabaseURL)
	if err != nil {
		return nil, nil, err
	}
	pg := repo.NewPostgres(db)
	if err := pg.Migrate(ctx); err != nil {
		db.Close()
		return nil, nil, err
	}
	return pg, func() { db.Close() }, nil
}

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	cfg, cfgErr := config.Load()
	log, err := logger.New(cfg.Env)
	if err != nil {
		panic(err)
	}
	defer log.Sync()
	if cfgErr != nil {
		log.Fatal("configuration error", "error", cfgErr)
	}

	store, closeStore, err := openRepo(ctx, cfg, log)
	if err != nil {
		log.Fatal("storage unavailable", "error", err)
	}
	defer closeStore()

	router := mux.NewRouter()
	if err := HandleList(router, deps{cfg: cfg, log: log, repo: store}); err != nil {
		log.Fatal("engine setup failed", "error", err)
	}

	server := &http.Server{
		Addr:              cfg.Addr,
		Handler:           CORS(router),
		ReadHeaderTimeout: 10 * time.Second,
	}

	log.Info("starting server", "addr", cfg.Addr, "tls", cfg.TLSCert != "",
		"ceiling_km", cfg.Engine.CeilingKm, "gas", cfg.Engine.Gas)

	wg.Add(1)
	go func() {
		defer wg.Done()
		var err error
		if cfg.TLSCert != "" {
			err = server.ListenAndServeTLS(cfg.TLSCert, cfg.TLSKey)
		} else {
			err = server.ListenAndServe()
		}
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server error", "error", err)
			cancel()
		}
	}()

	<-ctx.Done()
	log.Info("shutdown signal received")

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelShutdown()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("server shutdown failed", "error", err)
	}
	wg.Wait()
	log.Info("server stopped")
}
