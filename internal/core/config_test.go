package core

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadConfig_默认值(t *testing.T) {
	cfg, err := LoadConfig("")
	if err != nil {
		t.Fatalf("加载默认配置失败: %v", err)
	}

	if cfg.Site != "zhongyoo" {
		t.Errorf("默认站点: %q", cfg.Site)
	}
	if cfg.OutputDir != "data" {
		t.Errorf("默认输出目录: %q", cfg.OutputDir)
	}
	if cfg.Crawl.CheckpointEvery != 5 {
		t.Errorf("默认检查点周期: %d", cfg.Crawl.CheckpointEvery)
	}
	if cfg.Fetch.MaxRetries != 3 {
		t.Errorf("默认重试次数: %d", cfg.Fetch.MaxRetries)
	}
	if cfg.Log.Level != "info" {
		t.Errorf("默认日志级别: %q", cfg.Log.Level)
	}
}

func TestLoadConfig_配置文件覆盖(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
site: zysj
output_dir: /tmp/bencao
crawl:
  interval: 10
  checkpoint_every: 20
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("加载配置失败: %v", err)
	}

	if cfg.Site != "zysj" {
		t.Errorf("站点未覆盖: %q", cfg.Site)
	}
	if cfg.Crawl.IntervalSec != 10 || cfg.Crawl.CheckpointEvery != 20 {
		t.Errorf("爬取配置未覆盖: %+v", cfg.Crawl)
	}
	// 未出现的配置项保持默认
	if cfg.Fetch.TimeoutSec != 15 {
		t.Errorf("默认值丢失: %d", cfg.Fetch.TimeoutSec)
	}
}

func TestLoadConfig_指定文件不存在(t *testing.T) {
	if _, err := LoadConfig("/no/such/config.yaml"); err == nil {
		t.Error("显式指定的配置文件不存在时应报错")
	}
}

func TestConfig_FetchConfig转换(t *testing.T) {
	cfg, err := LoadConfig("")
	if err != nil {
		t.Fatal(err)
	}

	fc := cfg.FetchConfig([]string{"www.zhongyoo.com"})
	if fc.Timeout != 15*time.Second {
		t.Errorf("超时转换错误: %v", fc.Timeout)
	}
	if fc.RetryMinDelay != time.Second || fc.RetryMaxDelay != 3*time.Second {
		t.Errorf("重试延时转换错误: %v / %v", fc.RetryMinDelay, fc.RetryMaxDelay)
	}
	if len(fc.AllowedDomains) != 1 {
		t.Errorf("域名白名单: %v", fc.AllowedDomains)
	}
}
