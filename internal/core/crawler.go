package core

import (
	"context"
	"fmt"
	"time"

	"github.com/bencaodata/bencaospider/internal/fetch"
	"github.com/bencaodata/bencaospider/internal/models"
	"github.com/bencaodata/bencaospider/internal/normalize"
	"github.com/bencaodata/bencaospider/internal/sites"
	"github.com/bencaodata/bencaospider/internal/utils"
)

// Crawler 爬取流程编排器
// 流程: 发现分类 → 发现条目 → 逐条抓取解析 → 标准化 → 收录。
// 整条流水线串行执行, 靠条目间随机延时控制访问频率。
type Crawler struct {
	cfg     *Config
	site    sites.Site
	fetcher *fetch.Fetcher
	opts    models.CrawlOptions
}

// NewCrawler 创建爬取器
func NewCrawler(cfg *Config, siteName string, opts models.CrawlOptions) (*Crawler, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	site, err := sites.Get(siteName)
	if err != nil {
		return nil, err
	}

	return &Crawler{
		cfg:     cfg,
		site:    site,
		fetcher: fetch.NewFetcher(cfg.FetchConfig(site.Domains())),
		opts:    opts,
	}, nil
}

// Categories 仅执行分类发现, 不进入抓取阶段
func (c *Crawler) Categories(ctx context.Context) ([]models.Category, error) {
	return c.site.Categories(ctx, c.fetcher)
}

// Run 执行一次完整的爬取会话
// 上下文取消时立即写检查点并正常收尾, 已爬到的数据不丢失
func (c *Crawler) Run(ctx context.Context) (*models.CrawlReport, error) {
	session := NewSession(c.site.Name(), c.cfg.OutputDir, c.cfg.Crawl.CheckpointEvery)

	utils.Infof("🚀 开始爬取 %s (会话 %s)", c.site.Label(), session.ID)
	if err := session.BackupExisting(); err != nil {
		return nil, err
	}

	// 发现阶段: 分类和全部条目先行采集, 也为图片过滤准备已知药材名集合
	categories, err := c.site.Categories(ctx, c.fetcher)
	if err != nil {
		return nil, err
	}
	if c.opts.MaxCategories > 0 && len(categories) > c.opts.MaxCategories {
		categories = categories[:c.opts.MaxCategories]
	}

	itemsByCategory := make([][]models.ItemRef, len(categories))
	knownNames := make(map[string]bool)
	total := 0
	for i, cat := range categories {
		if err := ctx.Err(); err != nil {
			return c.finish(session, true)
		}

		items, err := c.site.Items(ctx, c.fetcher, cat, c.opts)
		if err != nil {
			utils.Warnf("分类条目发现失败: %s (%v)", cat.Name, err)
			continue
		}
		itemsByCategory[i] = items
		total += len(items)
		for _, item := range items {
			knownNames[item.Name] = true
		}
		utils.Infof("📂 分类 [%s]: %d个药材条目", cat.Name, len(items))
	}
	session.SetDiscovered(len(categories), total)
	utils.Infof("共发现%d个分类, %d个药材条目", len(categories), total)

	// 抓取阶段: 逐分类逐条处理
	interrupted := false
	itemInterval := time.Duration(c.opts.IntervalSec) * time.Second
	if c.opts.IntervalSec == 0 {
		itemInterval = time.Duration(c.cfg.Crawl.IntervalSec) * time.Second
	}
	categoryPause := time.Duration(c.cfg.Crawl.CategoryPauseSec) * time.Second

	for i, cat := range categories {
		items := itemsByCategory[i]
		if len(items) == 0 {
			continue
		}
		if interrupted {
			break
		}

		bar := utils.NewProgressBar(len(items), fmt.Sprintf("爬取[%s]", cat.Name))
		for _, item := range items {
			if ctx.Err() != nil {
				interrupted = true
				break
			}

			c.crawlOne(ctx, session, item, knownNames)
			_ = bar.Add(1)
			utils.RandomDelay(itemInterval, itemInterval*2)
		}
		fmt.Println()

		if !interrupted && i < len(categories)-1 && categoryPause > 0 {
			utils.RandomDelay(categoryPause, categoryPause*2)
		}
	}

	return c.finish(session, interrupted)
}

// crawlOne 抓取并收录单个条目, 失败只记录不中断
func (c *Crawler) crawlOne(ctx context.Context, session *Session, item models.ItemRef, knownNames map[string]bool) {
	rec, err := c.site.Detail(ctx, c.fetcher, item, session.NextID(), knownNames)
	if err != nil {
		utils.Warnf("❌ 条目失败: %s (%v)", item.Name, err)
		session.AddFailure(item, err.Error())
		return
	}

	normalize.Record(rec)
	if err := rec.Validate(); err != nil {
		utils.Warnf("⚠️ 记录校验未通过, 跳过: %s (%v)", item.Name, err)
		session.AddSkipped()
		return
	}

	if err := session.AddRecord(rec); err != nil {
		utils.Error(err, "写入检查点失败")
	}
}

// finish 收尾: 写最终数据和报告, 打印汇总
func (c *Crawler) finish(session *Session, interrupted bool) (*models.CrawlReport, error) {
	report, err := session.Finalize(c.opts, interrupted)
	if err != nil {
		return nil, err
	}

	if interrupted {
		utils.Warn("⏹️ 爬取被中断, 已保存当前进度")
	}
	utils.Infof("✅ 爬取完成: 成功%d条, 失败%d条, 跳过%d条, 耗时%.1f秒",
		report.Stats.Succeeded, report.Stats.Failed, report.Stats.Skipped, report.Stats.Duration)
	utils.Infof("📄 数据已保存: %s", report.OutputFile)
	return report, nil
}
