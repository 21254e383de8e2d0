package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"gopkg.in/yaml.v3"

	http_adapter "github.com/abhishek4kahol/deel-task/internal/app/core/adapter/in/http"
	memory_adapter "github.com/abhishek4kahol/deel-task/internal/app/core/adapter/out/memory"
	mysql_adapter "github.com/abhishek4kahol/deel-task/internal/app/core/adapter/out/mysql"
	"github.com/abhishek4kahol/deel-task/internal/app/core/seed"
	"github.com/abhishek4kahol/deel-task/internal/app/core/usecase"
	"github.com/abhishek4kahol/deel-task/pkg/logger"
	"github.com/abhishek4kahol/deel-task/pkg/mysql"
	"github.com/abhishek4kahol/deel-task/pkg/wal"
)

const (
	StoreMySQL  = "mysql"
	StoreMemory = "memory"
)

type Config struct {
	Server ServerConfig `yaml:"server"`
	// Store 選擇儲存層: "mysql" 或 "memory"
	Store string       `yaml:"store"`
	MySQL mysql.Config `yaml:"mysql"`
	// Log 模式: "dev" 或 "prod"
	Log string `yaml:"log"`
}

type ServerConfig struct {
	Addr string `yaml:"addr"`
	// 記憶體模式的 WAL 檔案路徑
	WALPath string `yaml:"wal_path"`
}

func main() {
	// 1. 載入設定
	cfg := loadConfig()

	log, err := logger.New(cfg.Log)
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	// 2. 初始化儲存層
	var billing usecase.Billing
	switch cfg.Store {
	case StoreMySQL:
		dbClient, err := mysql.NewClient(cfg.MySQL, log)
		if err != nil {
			log.Fatal("failed to connect to mysql", "error", err)
		}
		defer dbClient.Close()

		store := mysql_adapter.NewMySQLStore(dbClient)
		if err := store.Migrate(context.Background()); err != nil {
			log.Fatal("failed to migrate schema", "error", err)
		}
		billing = store
		log.Info("using mysql store", "host", cfg.MySQL.Host, "db", cfg.MySQL.DBName)

	case StoreMemory:
		journal, err := wal.NewWAL(cfg.Server.WALPath)
		if err != nil {
			log.Fatal("failed to init wal", "error", err)
		}
		defer journal.Close()

		profiles, contracts, jobs := seed.Sample()
		store, err := memory_adapter.NewStore(memory_adapter.Dataset{
			Profiles:  profiles,
			Contracts: contracts,
			Jobs:      jobs,
		}, journal)
		if err != nil {
			log.Fatal("failed to init memory store", "error", err)
		}
		billing = store
		log.Info("using memory store", "wal", cfg.Server.WALPath)

	default:
		log.Fatal("invalid store type", "store", cfg.Store)
	}

	// 3. 初始化 UseCase 與 HTTP Adapter
	core := usecase.NewCoreUseCase(billing)
	server := http_adapter.NewServer(core, log)

	httpServer := &http.Server{
		Addr:    cfg.Server.Addr,
		Handler: server.Router(),
	}

	go func() {
		log.Info("starting http server", "addr", cfg.Server.Addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("failed to serve", "error", err)
		}
	}()

	// Graceful Shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Error("shutdown error", "error", err)
	}
	log.Info("server exited")
}

func loadConfig() Config {
	path := os.Getenv("CONFIG_PATH")
	if path == "" {
		path = "config/config.yaml"
	}
	cfgData, err := os.ReadFile(path)
	if err != nil {
		panic(err)
	}
	var cfg Config
	if err := yaml.Unmarshal(cfgData, &cfg); err != nil {
		panic(err)
	}

	// 補全預設配置 (如果 yaml 沒寫)
	if cfg.Server.Addr == "" {
		cfg.Server.Addr = ":8080"
	}
	if cfg.Server.WALPath == "" {
		cfg.Server.WALPath = "billing.wal"
	}
	if cfg.Store == "" {
		cfg.Store = StoreMemory
	}
	if cfg.MySQL.MaxOpenConns == 0 {
		cfg.MySQL.MaxOpenConns = 100
	}
	if cfg.MySQL.MaxIdleConns == 0 {
		cfg.MySQL.MaxIdleConns = 10
	}
	if cfg.MySQL.ConnMaxLifetime == 0 {
		cfg.MySQL.ConnMaxLifetime = 30 * time.Minute
	}
	return cfg
}
