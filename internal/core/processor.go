package core

import (
	"fmt"
	"math"
	"strings"

	"github.com/bencaodata/bencaospider/internal/models"
	"github.com/bencaodata/bencaospider/internal/normalize"
	"github.com/bencaodata/bencaospider/internal/utils"
)

// FieldCoverage 单个字段的非空覆盖情况
type FieldCoverage struct {
	Count      int     `json:"count"`
	Percentage float64 `json:"percentage"`
}

// Statistics 数据集统计报告
type Statistics struct {
	TotalCount     int                      `json:"total_count"`
	Categories     map[string]int           `json:"categories"`
	Meridians      map[string]int           `json:"meridians"`
	FieldsCoverage map[string]FieldCoverage `json:"fields_coverage"`
	ImageCoverage  FieldCoverage            `json:"image_coverage"`
}

// ProcessResult 批处理结果
type ProcessResult struct {
	InputFile  string
	OutputFile string
	StatsFile  string
	Total      int // 输入记录数
	Kept       int // 标准化后保留的记录数
	Dropped    int // 校验未通过被丢弃的记录数
}

// ProcessFile 批处理已爬取的数据文件
// 逐条标准化, 丢弃校验不通过的记录, 输出处理后数据和统计报告。
// 标准化是幂等的, 对已处理的文件重复执行结果不变。
func ProcessFile(inputPath string) (*ProcessResult, error) {
	records, err := models.LoadCollectionFromFile(inputPath)
	if err != nil {
		return nil, fmt.Errorf("加载数据文件失败: %w", err)
	}
	utils.Infof("🔄 开始处理: %s (%d条记录)", inputPath, len(records))

	kept := make(models.Collection, 0, len(records))
	dropped := 0
	bar := utils.NewProgressBar(len(records), "处理记录")
	for _, rec := range records {
		normalize.Record(rec)
		if err := rec.Validate(); err != nil {
			utils.Debugf("丢弃无效记录: %v", err)
			dropped++
		} else {
			kept = append(kept, rec)
		}
		_ = bar.Add(1)
	}
	fmt.Println()

	// 统计报告的文件名跟随处理后输出, 不跟随原始输入
	outputPath := strings.TrimSuffix(inputPath, ".json") + "_processed.json"
	statsPath := strings.TrimSuffix(outputPath, ".json") + "_stats.json"

	if err := kept.SaveToFile(outputPath); err != nil {
		return nil, fmt.Errorf("写入处理结果失败: %w", err)
	}
	if err := utils.SaveJSONReport(statsPath, ComputeStatistics(kept)); err != nil {
		return nil, fmt.Errorf("写入统计报告失败: %w", err)
	}

	utils.Infof("✅ 处理完成: 保留%d条, 丢弃%d条", len(kept), dropped)
	utils.Infof("📄 输出: %s", outputPath)
	utils.Infof("📊 统计: %s", statsPath)

	return &ProcessResult{
		InputFile:  inputPath,
		OutputFile: outputPath,
		StatsFile:  statsPath,
		Total:      len(records),
		Kept:       len(kept),
		Dropped:    dropped,
	}, nil
}

// coverageFields 参与覆盖率统计的字段, 取值函数返回字段是否非空
var coverageFields = []struct {
	name  string
	isSet func(*models.HerbRecord) bool
}{
	{"pinyin", func(h *models.HerbRecord) bool { return h.Pinyin != "" }},
	{"category", func(h *models.HerbRecord) bool { return h.Category != "" }},
	{"properties", func(h *models.HerbRecord) bool { return h.Properties != "" }},
	{"taste", func(h *models.HerbRecord) bool { return h.Taste != "" }},
	{"meridians", func(h *models.HerbRecord) bool { return len(h.Meridians) > 0 }},
	{"functions", func(h *models.HerbRecord) bool { return len(h.Functions) > 0 }},
	{"indications", func(h *models.HerbRecord) bool { return len(h.Indications) > 0 }},
	{"prescriptions", func(h *models.HerbRecord) bool { return len(h.Prescriptions) > 0 }},
	{"dosage", func(h *models.HerbRecord) bool { return h.Dosage != "" }},
	{"contraindications", func(h *models.HerbRecord) bool { return h.Contraindicate != "" }},
	{"description", func(h *models.HerbRecord) bool { return h.Description != "" }},
}

// ComputeStatistics 计算数据集统计
// 分类直方图不含分类为空的记录, 归经直方图按条目逐个计数
func ComputeStatistics(records models.Collection) *Statistics {
	stats := &Statistics{
		TotalCount:     len(records),
		Categories:     make(map[string]int),
		Meridians:      make(map[string]int),
		FieldsCoverage: make(map[string]FieldCoverage),
	}

	withImages := 0
	fieldCounts := make(map[string]int, len(coverageFields))
	for _, rec := range records {
		if rec.Category != "" {
			stats.Categories[rec.Category]++
		}
		for _, m := range rec.Meridians {
			stats.Meridians[m]++
		}
		for _, field := range coverageFields {
			if field.isSet(rec) {
				fieldCounts[field.name]++
			}
		}
		if len(rec.Images) > 0 {
			withImages++
		}
	}

	for _, field := range coverageFields {
		stats.FieldsCoverage[field.name] = FieldCoverage{
			Count:      fieldCounts[field.name],
			Percentage: percentage(fieldCounts[field.name], len(records)),
		}
	}
	stats.ImageCoverage = FieldCoverage{
		Count:      withImages,
		Percentage: percentage(withImages, len(records)),
	}
	return stats
}

// percentage 百分比, 保留两位小数; 空数据集为0
func percentage(count, total int) float64 {
	if total == 0 {
		return 0
	}
	return math.Round(float64(count)/float64(total)*10000) / 100
}
