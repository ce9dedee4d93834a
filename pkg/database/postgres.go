package database

import (
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"proposal-core/pkg/config"
	"proposal-core/pkg/logger"
)

// Open 按配置选择驱动打开数据库，db.enabled=false 时返回 (nil, nil)
func Open(cfg config.DBConfig, env string) (*gorm.DB, error) {
	if !cfg.Enabled {
		return nil, nil
	}
	switch cfg.Driver {
	case "", "postgres":
		return ConnectPostgres(cfg.DSN(), env)
	case "sqlite":
		return ConnectSQLite(cfg.SQLitePath, env)
	}
	return nil, fmt.Errorf("不支持的数据库驱动: %s", cfg.Driver)
}

// ConnectPostgres 连接到 PostgreSQL 数据库
// dsn: "host=localhost user=gorm password=gorm dbname=gorm port=9920 sslmode=disable"
func ConnectPostgres(dsn string, env string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: gormLogger(env),
	})
	if err != nil {
		return nil, fmt.Errorf("无法连接到数据库: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}

	// 连接池配置
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(100)
	sqlDB.SetConnMaxLifetime(time.Hour)

	logger.Info("PostgreSQL 连接成功")
	return db, nil
}

// gormLogger 开发环境打印 SQL，生产环境只记录慢查询与错误
func gormLogger(env string) gormlogger.Interface {
	if env == "production" {
		return gormlogger.Default.LogMode(gormlogger.Warn)
	}
	return gormlogger.Default.LogMode(gormlogger.Info)
}

// Ping 健康检查使用
func Ping(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	if err := sqlDB.Ping(); err != nil {
		logger.Warn("数据库不可用", zap.Error(err))
		return err
	}
	return nil
}
