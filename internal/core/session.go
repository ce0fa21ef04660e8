package core

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/bencaodata/bencaospider/internal/models"
	"github.com/bencaodata/bencaospider/internal/utils"
)

// Session 一次爬取会话的状态累加器
// 记录、失败条目和统计都挂在会话上, 不使用包级全局状态,
// 同一进程内可以安全地先后跑多个会话。非并发设计。
type Session struct {
	ID        string
	SiteName  string
	StartTime time.Time

	records models.Collection
	failed  []models.FailedItem
	stats   models.CrawlStats

	nextID          int
	checkpointEvery int
	sinceCheckpoint int

	outputFile string
	failedFile string
}

// NewSession 创建会话
// 输出文件按站点名命名: <site>_herbal_data.json / <site>_failed_items.json
func NewSession(siteName, outputDir string, checkpointEvery int) *Session {
	if checkpointEvery <= 0 {
		checkpointEvery = 5
	}
	return &Session{
		ID:              uuid.New().String(),
		SiteName:        siteName,
		StartTime:       time.Now(),
		nextID:          1,
		checkpointEvery: checkpointEvery,
		outputFile:      filepath.Join(outputDir, siteName+"_herbal_data.json"),
		failedFile:      filepath.Join(outputDir, siteName+"_failed_items.json"),
	}
}

// OutputFile 数据输出文件路径
func (s *Session) OutputFile() string { return s.outputFile }

// NextID 分配下一个记录ID, 会话内单调递增
func (s *Session) NextID() int {
	id := s.nextID
	s.nextID++
	return id
}

// BackupExisting 备份上次运行的输出文件, 防止覆盖丢数据
func (s *Session) BackupExisting() error {
	backup, err := models.BackupFile(s.outputFile)
	if err != nil {
		return fmt.Errorf("备份旧数据失败: %w", err)
	}
	if backup != "" {
		utils.Infof("💾 已备份旧数据: %s", backup)
	}
	return nil
}

// AddRecord 收录一条成功解析的记录
// 每累计checkpointEvery条自动写一次检查点
func (s *Session) AddRecord(rec *models.HerbRecord) error {
	s.records = append(s.records, rec)
	s.stats.Succeeded++
	s.sinceCheckpoint++

	if s.sinceCheckpoint >= s.checkpointEvery {
		if err := s.Checkpoint(); err != nil {
			return err
		}
	}
	return nil
}

// AddFailure 记录失败条目
func (s *Session) AddFailure(item models.ItemRef, reason string) {
	s.failed = append(s.failed, models.FailedItem{
		Name:     item.Name,
		URL:      item.URL,
		Category: item.Category,
		Reason:   reason,
	})
	s.stats.Failed++
}

// AddSkipped 记录跳过条目
func (s *Session) AddSkipped() { s.stats.Skipped++ }

// SetDiscovered 记录发现的条目总数和分类数
func (s *Session) SetDiscovered(categories, items int) {
	s.stats.Categories = categories
	s.stats.Discovered = items
}

// Checkpoint 把当前已收录的全部记录写入输出文件
// 整文件覆盖写, 中断后数据最多丢失不足一个检查点周期的量
func (s *Session) Checkpoint() error {
	if err := s.records.SaveToFile(s.outputFile); err != nil {
		return fmt.Errorf("写入检查点失败: %w", err)
	}
	s.sinceCheckpoint = 0
	s.stats.Checkpoints++
	utils.Debugf("检查点已写入: %s (%d条)", s.outputFile, len(s.records))
	return nil
}

// Finalize 结束会话: 写最终数据、失败报告, 生成会话报告
func (s *Session) Finalize(opts models.CrawlOptions, interrupted bool) (*models.CrawlReport, error) {
	endTime := time.Now()
	s.stats.Interrupted = interrupted
	s.stats.Duration = endTime.Sub(s.StartTime).Seconds()

	if err := s.records.SaveToFile(s.outputFile); err != nil {
		return nil, fmt.Errorf("写入最终数据失败: %w", err)
	}
	if len(s.failed) > 0 {
		if err := utils.SaveJSONReport(s.failedFile, s.failed); err != nil {
			utils.Error(err, "写入失败条目报告失败")
		}
	}

	return &models.CrawlReport{
		SessionID:  s.ID,
		Site:       s.SiteName,
		StartTime:  s.StartTime,
		EndTime:    endTime,
		Stats:      s.stats,
		OutputFile: s.outputFile,
		Failed:     s.failed,
		Options:    opts,
	}, nil
}
