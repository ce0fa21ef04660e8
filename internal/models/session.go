package models

import (
	"encoding/json"
	"fmt"
	"time"
)

// CrawlOptions 一次爬取会话的范围参数
type CrawlOptions struct {
	MaxCategories int `json:"max_categories"` // 爬取分类数上限, 0表示不限
	MaxHerbs      int `json:"max_herbs"`      // 每个分类爬取药材数上限, 0表示不限
	MaxPages      int `json:"max_pages"`      // 每个分类翻页数上限, 0表示不限
	StartPage     int `json:"start_page"`     // 起始页码(断点续爬), 最小为1
	IntervalSec   int `json:"interval"`       // 条目间基础延时(秒)
}

// Validate 验证范围参数
func (o *CrawlOptions) Validate() error {
	if o.MaxCategories < 0 {
		return fmt.Errorf("分类数量不能为负数")
	}
	if o.MaxHerbs < 0 {
		return fmt.Errorf("药材数量不能为负数")
	}
	if o.MaxPages < 0 {
		return fmt.Errorf("页数不能为负数")
	}
	if o.StartPage < 0 {
		return fmt.Errorf("起始页码不能为负数")
	}
	if o.IntervalSec < 0 || o.IntervalSec > 60 {
		return fmt.Errorf("延时必须在0-60秒之间")
	}
	return nil
}

// CrawlStats 爬取会话统计
type CrawlStats struct {
	Categories  int     `json:"categories"`   // 处理的分类数
	Discovered  int     `json:"discovered"`   // 发现的药材条目数
	Succeeded   int     `json:"succeeded"`    // 成功解析的药材数
	Failed      int     `json:"failed"`       // 失败条目数
	Skipped     int     `json:"skipped"`      // 跳过(无效/重复)条目数
	Checkpoints int     `json:"checkpoints"`  // 检查点写入次数
	Duration    float64 `json:"duration"`     // 总耗时(秒)
	Interrupted bool    `json:"interrupted"`  // 是否被用户中断
}

// FailedItem 失败条目, 汇总写入失败报告文件
type FailedItem struct {
	Name     string `json:"name"`
	URL      string `json:"url"`
	Category string `json:"category"`
	Reason   string `json:"reason"`
}

// CrawlReport 爬取会话报告
type CrawlReport struct {
	SessionID  string       `json:"session_id"` // 会话唯一ID (UUID)
	Site       string       `json:"site"`       // 站点名称
	StartTime  time.Time    `json:"start_time"`
	EndTime    time.Time    `json:"end_time"`
	Stats      CrawlStats   `json:"stats"`
	OutputFile string       `json:"output_file"`
	Failed     []FailedItem `json:"failed_items"`
	Options    CrawlOptions `json:"options"` // 参数快照
}

// ToJSON 序列化为JSON
func (r *CrawlReport) ToJSON() ([]byte, error) {
	return json.MarshalIndent(r, "", "  ")
}

// FromJSON 从JSON反序列化
func (r *CrawlReport) FromJSON(data []byte) error {
	return json.Unmarshal(data, r)
}
