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

package config

import (
	"os"
	"time"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/secretflow/fuser/pkg/scheduler"
	"github.com/secretflow/fuser/pkg/util/logutil"
)

const (
	DefaultServerHost            = "127.0.0.1" // default use localhost for safety
	DefaultServerPort            = 8090
	DefaultLogLevel              = "info"
	DefaultRetentionTime         = 7 * 24 * time.Hour
	DefaultRetentionInterval     = time.Hour
	DefaultStorageType           = StorageTypeSQLite
	DefaultStorageConnStr        = "file:fuser.db"
	DefaultLogFileName           = "logs/fuser.log"
	DefaultLogMaxSizeInMegaBytes = 500
	DefaultLogMaxBackupsCount    = 10

	ConnStrEnv = "FUSER_CONN_STR"
)

const (
	StorageTypeSQLite   = "sqlite"
	StorageTypeMySQL    = "mysql"
	StorageTypePostgres = "postgres"
)

type Config struct {
	LogLevel string              `yaml:"log_level"`
	Log      logutil.RollingConf `yaml:"log"`
	Server   ServerConfig        `yaml:"server"`
	// scheduler switches
	Scheduler SchedulerConf `yaml:"scheduler"`
	Storage   StorageConf   `yaml:"storage"`
	Retention RetentionConf `yaml:"retention"`
}

type ServerConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Protocol string `yaml:"protocol"`
	CertFile string `yaml:"cert_file"`
	KeyFile  string `yaml:"key_file"`
}

type SchedulerConf struct {
	// disable options, merged with FUSER_DISABLE
	Disable            []string      `yaml:"disable"`
	DisabledHeuristics []string      `yaml:"disabled_heuristics"`
	CacheExpireTime    time.Duration `yaml:"cache_expire_time"`
	CacheCleanInterval time.Duration `yaml:"cache_clean_interval"`
}

type StorageConf struct {
	Type            string        `yaml:"type"`
	ConnStr         string        `yaml:"conn_str"`
	MaxIdleConns    int           `yaml:"max_idle_conns"`
	MaxOpenConns    int           `yaml:"max_open_conns"`
	ConnMaxIdleTime time.Duration `yaml:"conn_max_idle_time"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime"`
}

// RetentionConf controls pruning of stored decisions and rejections;
// a zero Time keeps records forever.
type RetentionConf struct {
	Time     time.Duration `yaml:"time"`
	Interval time.Duration `yaml:"interval"`
}

// NewConfig constructs Config from YAML file
func NewConfig(configPath string) (*Config, error) {
	content, err := os.ReadFile(configPath)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read file %s", configPath)
	}
	return parseConfig(content)
}

func parseConfig(content []byte) (*Config, error) {
	config := newDefaultConfig()
	if err := yaml.Unmarshal(content, config); err != nil {
		return nil, errors.Wrap(err, "failed to parse configuration")
	}
	// get conn str from env
	if conStr := os.Getenv(ConnStrEnv); conStr != "" {
		config.Storage.ConnStr = conStr
	}
	if disable := os.Getenv(scheduler.DisableEnv); disable != "" {
		config.Scheduler.Disable = append(config.Scheduler.Disable, disable)
	}
	// checks for config
	if _, err := config.SchedulerOptions(); err != nil {
		return nil, err
	}
	switch config.Storage.Type {
	case StorageTypeSQLite, StorageTypeMySQL, StorageTypePostgres:
	default:
		return nil, errors.Errorf("invalid storage type %s, should be one of {sqlite, mysql, postgres}", config.Storage.Type)
	}
	return config, nil
}

func newDefaultConfig() *Config {
	var config Config
	config.LogLevel = DefaultLogLevel
	config.Log = logutil.RollingConf{
		FileName:          DefaultLogFileName,
		MaxSizeInMegaByte: DefaultLogMaxSizeInMegaBytes,
		MaxBackupsCount:   DefaultLogMaxBackupsCount,
	}
	config.Server = ServerConfig{
		Host:     DefaultServerHost,
		Port:     DefaultServerPort,
		Protocol: "http",
	}
	config.Scheduler = SchedulerConf{
		CacheExpireTime:    scheduler.DefaultCacheExpiration,
		CacheCleanInterval: scheduler.DefaultCacheCleanupInterval,
	}
	config.Storage = StorageConf{
		Type:            DefaultStorageType,
		ConnStr:         DefaultStorageConnStr,
		MaxIdleConns:    1,
		MaxOpenConns:    1,
		ConnMaxIdleTime: -1,
		ConnMaxLifetime: -1,
	}
	config.Retention = RetentionConf{
		Time:     DefaultRetentionTime,
		Interval: DefaultRetentionInterval,
	}
	return &config
}

// SchedulerOptions turns the disable lists into scheduler options. Each
// Disable entry may itself be a comma separated list.
func (c *Config) SchedulerOptions() (*scheduler.Options, error) {
	opts := scheduler.NewOptions()
	for _, item := range c.Scheduler.Disable {
		parsed, err := scheduler.ParseDisableOptions(item)
		if err != nil {
			return nil, errors.Wrap(err, "scheduler.disable")
		}
		opts = opts.WithDisabled(parsed...)
	}
	for _, name := range c.Scheduler.DisabledHeuristics {
		ht, err := scheduler.ParseHeuristicType(name)
		if err != nil {
			return nil, errors.Wrap(err, "scheduler.disabled_heuristics")
		}
		opts = opts.WithDisabledHeuristics(ht)
	}
	return opts, nil
}
