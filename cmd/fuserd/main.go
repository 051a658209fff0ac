// Copyright 2025 Ant Group Co., Ltd.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//   http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package main

import (
	"flag"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlog "gorm.io/gorm/logger"

	"github.com/secretflow/fuser/pkg/config"
	"github.com/secretflow/fuser/pkg/server"
	"github.com/secretflow/fuser/pkg/storage"
	"github.com/secretflow/fuser/pkg/util/logutil"
)

const (
	defaultConfigPath = "cmd/fuserd/config.yml"
)

var version = "fuser version"

func main() {
	confFile := flag.String("config", defaultConfigPath, "Path to fuserd configuration file")
	showVersion := flag.Bool("version", false, "Print version information")
	flag.Parse()

	if *showVersion {
		fmt.Println(version)
		return
	}

	logrus.Infof("Starting to read config file: %s", *confFile)
	cfg, err := config.NewConfig(*confFile)
	if err != nil {
		logrus.Fatalf("Failed to create config from %s: %v", *confFile, err)
	}
	if _, err := logutil.SetupLogger(cfg.LogLevel, cfg.Log); err != nil {
		logrus.Fatalf("Failed to setup logger: %v", err)
	}

	gin.SetMode(gin.ReleaseMode)

	db, err := newDb(&cfg.Storage)
	if err != nil {
		logrus.Fatalf("Failed to create fuser db: %v", err)
	}
	store := storage.NewStore(db)
	if store.NeedBootstrap() {
		logrus.Info("Start to bootstrap storage...")
		if err := store.Bootstrap(); err != nil {
			logrus.Fatalf("Failed to bootstrap storage: %v", err)
		}
	}
	if err := storage.CheckStorage(db); err != nil {
		logrus.Fatalf("Failed to check storage: %v", err)
	}

	if cfg.Retention.Time > 0 {
		worker, err := server.NewRetentionWorker(store, cfg.Retention)
		if err != nil {
			logrus.Fatalf("Failed to create retention worker: %v", err)
		}
		worker.Start()
		defer worker.Stop()
	}

	app, err := server.NewApp(cfg, store)
	if err != nil {
		logrus.Fatalf("Failed to create app: %v", err)
	}
	logrus.Infof("Heuristics in priority order: %v, disabled options: %v", app.Registry.Heuristics(), app.Registry.Options().Key())

	svr, err := server.NewServer(app)
	if err != nil {
		logrus.Fatalf("Failed to create fuser server: %v", err)
	}
	startService(svr, cfg.Server)
}

func startService(svr *http.Server, cfg config.ServerConfig) {
	if cfg.Protocol == "https" {
		if cfg.CertFile == "" || cfg.KeyFile == "" {
			logrus.Fatal("Could't start https service without cert_file or key_file")
		}
		logrus.Infof("Starting to serve request on %v with https...", svr.Addr)
		if err := svr.ListenAndServeTLS(cfg.CertFile, cfg.KeyFile); err != nil {
			logrus.Fatalf("Server with tls err: %v", err)
		}
		return
	}
	logrus.Infof("Starting to serve request on %v with http...", svr.Addr)
	if err := svr.ListenAndServe(); err != nil {
		logrus.Fatalf("Server err: %v", err)
	}
}

func newDb(conf *config.StorageConf) (*gorm.DB, error) {
	var db *gorm.DB
	var err error

	gormConfig := &gorm.Config{
		SkipDefaultTransaction: true,
		// Reference gormlog.Default
		Logger: gormlog.New(
			logrus.StandardLogger(),
			gormlog.Config{
				SlowThreshold: 200 * time.Millisecond,
				Colorful:      false,
				LogLevel:      gormlog.Warn,
			}),
	}

	switch conf.Type {
	case config.StorageTypeSQLite:
		db, err = gorm.Open(sqlite.Open(conf.ConnStr), gormConfig)
	case config.StorageTypeMySQL:
		db, err = gorm.Open(mysql.Open(conf.ConnStr), gormConfig)
	case config.StorageTypePostgres:
		db, err = gorm.Open(postgres.Open(conf.ConnStr), gormConfig)
	default:
		return nil, fmt.Errorf("newDb: invalid config.StorageType %s, should be one of {sqlite, mysql, postgres}", conf.Type)
	}
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}

	sqlDB.SetMaxIdleConns(conf.MaxIdleConns)
	sqlDB.SetMaxOpenConns(conf.MaxOpenConns)
	sqlDB.SetConnMaxIdleTime(conf.ConnMaxIdleTime)
	sqlDB.SetConnMaxLifetime(conf.ConnMaxLifetime)

	return db, nil
}
