package mysql

import (
	"fmt"
	"time"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/abhishek4kahol/deel-task/pkg/logger"
)

// Client 封裝 GORM DB 實例
type Client struct {
	db *gorm.DB
}

// NewClient 建立 MySQL 客戶端 (GORM)
// 啟動時資料庫可能尚未就緒，會重試數次才放棄
func NewClient(cfg Config, log *logger.Logger) (*Client, error) {
	gormConfig := &gorm.Config{
		// 金流操作一律走顯式 Transaction，單句讀取跳過隱式事務
		SkipDefaultTransaction: true,
		Logger:                 newGormLogger(cfg.LogLevel),
	}

	var db *gorm.DB
	var err error

	maxRetries := 10
	retryInterval := 2 * time.Second

	for i := 0; i < maxRetries; i++ {
		db, err = gorm.Open(mysql.Open(cfg.DSN()), gormConfig)
		if err == nil {
			rawDB, pingErr := db.DB()
			if pingErr == nil {
				if err = rawDB.Ping(); err == nil {
					break
				}
			} else {
				err = pingErr
			}
		}

		if i < maxRetries-1 {
			log.Warn("mysql not ready, retrying",
				"attempt", i+1, "max", maxRetries, "error", err, "retry_in", retryInterval)
			time.Sleep(retryInterval)
		}
	}

	if err != nil {
		return nil, fmt.Errorf("failed to connect to mysql after %d attempts: %w", maxRetries, err)
	}

	// 取得底層 sql.DB 以設定連線池，防止連線耗盡
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get sql.db: %w", err)
	}
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	return &Client{db: db}, nil
}

// DB 回傳底層的 *gorm.DB 實例，供儲存層使用
func (c *Client) DB() *gorm.DB {
	return c.db
}

// Close 關閉資料庫連線
func (c *Client) Close() error {
	sqlDB, err := c.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// newGormLogger 依配置建立 GORM Logger
func newGormLogger(level string) gormlogger.Interface {
	var logLevel gormlogger.LogLevel
	switch level {
	case "info":
		logLevel = gormlogger.Info
	case "warn":
		logLevel = gormlogger.Warn
	case "silent":
		logLevel = gormlogger.Silent
	default:
		// 預設只記錄錯誤
		logLevel = gormlogger.Error
	}
	return gormlogger.Default.LogMode(logLevel)
}
