// 開發用工具：建立資料表並寫入初始資料到 MySQL
package main

import (
	"context"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	mysql_adapter "github.com/abhishek4kahol/deel-task/internal/app/core/adapter/out/mysql"
	"github.com/abhishek4kahol/deel-task/internal/app/core/seed"
	"github.com/abhishek4kahol/deel-task/pkg/logger"
	"github.com/abhishek4kahol/deel-task/pkg/mysql"
)

type Config struct {
	MySQL mysql.Config `yaml:"mysql"`
}

func main() {
	log, err := logger.New("dev")
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	path := os.Getenv("CONFIG_PATH")
	if path == "" {
		path = "config/config.yaml"
	}
	cfgData, err := os.ReadFile(path)
	if err != nil {
		log.Fatal("failed to read config", "path", path, "error", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(cfgData, &cfg); err != nil {
		log.Fatal("failed to parse config", "error", err)
	}
	if cfg.MySQL.MaxOpenConns == 0 {
		cfg.MySQL.MaxOpenConns = 10
	}
	if cfg.MySQL.MaxIdleConns == 0 {
		cfg.MySQL.MaxIdleConns = 2
	}
	if cfg.MySQL.ConnMaxLifetime == 0 {
		cfg.MySQL.ConnMaxLifetime = 5 * time.Minute
	}

	dbClient, err := mysql.NewClient(cfg.MySQL, log)
	if err != nil {
		log.Fatal("failed to connect to mysql", "error", err)
	}
	defer dbClient.Close()

	store := mysql_adapter.NewMySQLStore(dbClient)

	ctx := context.Background()
	if err := store.Migrate(ctx); err != nil {
		log.Fatal("failed to migrate schema", "error", err)
	}

	profiles, contracts, jobs := seed.Sample()
	if err := store.Seed(ctx, profiles, contracts, jobs); err != nil {
		log.Fatal("failed to seed", "error", err)
	}
	log.Info("seed completed",
		"profiles", len(profiles), "contracts", len(contracts), "jobs", len(jobs))
}
