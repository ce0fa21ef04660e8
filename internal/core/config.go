// Package core 负责配置加载、会话管理和爬取/处理流程的编排。
package core

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/bencaodata/bencaospider/internal/fetch"
	"github.com/bencaodata/bencaospider/internal/utils"
)

// Config 应用配置
type Config struct {
	Site      string `mapstructure:"site"`       // 默认站点标识
	OutputDir string `mapstructure:"output_dir"` // 数据输出目录

	Fetch struct {
		TimeoutSec  int `mapstructure:"timeout"`         // 单次请求超时(秒)
		MaxRetries  int `mapstructure:"max_retries"`     // 失败重试次数
		RetryMinSec int `mapstructure:"retry_min_delay"` // 重试延时下限(秒)
		RetryMaxSec int `mapstructure:"retry_max_delay"` // 重试延时上限(秒)
	} `mapstructure:"fetch"`

	Crawl struct {
		IntervalSec      int `mapstructure:"interval"`         // 条目间基础延时(秒)
		CategoryPauseSec int `mapstructure:"category_pause"`   // 分类间延时(秒)
		CheckpointEvery  int `mapstructure:"checkpoint_every"` // 每成功N条写一次检查点
	} `mapstructure:"crawl"`

	Log struct {
		Level      string `mapstructure:"level"`
		Dir        string `mapstructure:"dir"`
		MaxSize    int    `mapstructure:"max_size"`
		MaxBackups int    `mapstructure:"max_backups"`
		MaxAge     int    `mapstructure:"max_age"`
		Compress   bool   `mapstructure:"compress"`
	} `mapstructure:"log"`
}

// LoadConfig 加载配置文件
// configPath为空时按默认路径查找, 找不到配置文件时使用内置默认值
func LoadConfig(configPath string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
	}

	v.SetEnvPrefix("BENCAO")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configPath != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("读取配置文件失败: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("解析配置失败: %w", err)
	}
	return &cfg, nil
}

// setDefaults 设置默认配置
func setDefaults(v *viper.Viper) {
	v.SetDefault("site", "zhongyoo")
	v.SetDefault("output_dir", "data")

	v.SetDefault("fetch.timeout", 15)
	v.SetDefault("fetch.max_retries", 3)
	v.SetDefault("fetch.retry_min_delay", 1)
	v.SetDefault("fetch.retry_max_delay", 3)

	v.SetDefault("crawl.interval", 2)
	v.SetDefault("crawl.category_pause", 5)
	v.SetDefault("crawl.checkpoint_every", 5)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.dir", "logs")
	v.SetDefault("log.max_size", 10)
	v.SetDefault("log.max_backups", 3)
	v.SetDefault("log.max_age", 28)
	v.SetDefault("log.compress", true)
}

// FetchConfig 转换为抓取层配置, 域名白名单由站点适配器补充
func (c *Config) FetchConfig(domains []string) fetch.Config {
	return fetch.Config{
		Timeout:        time.Duration(c.Fetch.TimeoutSec) * time.Second,
		MaxRetries:     c.Fetch.MaxRetries,
		RetryMinDelay:  time.Duration(c.Fetch.RetryMinSec) * time.Second,
		RetryMaxDelay:  time.Duration(c.Fetch.RetryMaxSec) * time.Second,
		AllowedDomains: domains,
	}
}

// LogConfig 转换为日志配置
func (c *Config) LogConfig() utils.LogConfig {
	return utils.LogConfig{
		Level:      c.Log.Level,
		LogDir:     c.Log.Dir,
		MaxSize:    c.Log.MaxSize,
		MaxBackups: c.Log.MaxBackups,
		MaxAge:     c.Log.MaxAge,
		Compress:   c.Log.Compress,
	}
}
