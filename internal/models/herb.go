package models

import (
	"fmt"
	"strings"
)

// HerbRecord 单个药材记录
// 字段含义与爬取来源(中医药网/中医世家)的页面段落一一对应
type HerbRecord struct {
	ID              int      `json:"id"`                          // 顺序编号, 会话内单调递增
	Name            string   `json:"name"`                        // 药材名称, 如"黄芪"、"甘草"
	Pinyin          string   `json:"pinyin,omitempty"`            // 拼音
	Category        string   `json:"category,omitempty"`          // 药材分类, 如"补虚药"
	Properties      string   `json:"properties,omitempty"`        // 药性(寒热温凉平)
	Taste           string   `json:"taste,omitempty"`             // 药味(甘苦辛酸咸...)
	Meridians       []string `json:"meridians,omitempty"`         // 归经, 标准化后以"经"结尾
	Functions       []string `json:"functions,omitempty"`         // 功效条目
	Indications     []string `json:"indications,omitempty"`       // 主治/临床应用条目
	Prescriptions   []string `json:"prescriptions,omitempty"`     // 配伍药方条目
	Notes           []string `json:"notes,omitempty"`             // 按语条目
	Formulas        []string `json:"formulas,omitempty"`          // 方剂举例条目
	Literature      []string `json:"literature,omitempty"`        // 文献摘录条目
	AffiliatedHerbs []string `json:"affiliated_herbs,omitempty"`  // 附药
	Dosage          string   `json:"dosage,omitempty"`            // 用法用量, 数值区间标准化为"3-9g"形式
	Contraindicate  string   `json:"contraindications,omitempty"` // 使用禁忌
	Description     string   `json:"description,omitempty"`       // 描述(药用部位/植物形态/产地分布等)
	Images          []string `json:"images,omitempty"`            // 图片绝对URL, 去重且保持发现顺序
	SourceURL       string   `json:"source_url"`                  // 来源详情页URL
}

// Validate 校验记录的完整性
// id和name都非空才算有效记录, 无效记录在处理阶段被丢弃
func (h *HerbRecord) Validate() error {
	if h.ID <= 0 {
		return fmt.Errorf("记录缺少有效ID: %d", h.ID)
	}
	if strings.TrimSpace(h.Name) == "" {
		return fmt.Errorf("记录缺少药材名称 (id=%d)", h.ID)
	}
	return nil
}

// HasContent 检查记录是否提取到了实质内容
// 性味、功效、主治、描述全部为空视为无效页面解析结果
func (h *HerbRecord) HasContent() bool {
	if h.Taste != "" || h.Properties != "" || h.Description != "" {
		return true
	}
	return len(h.Functions) > 0 || len(h.Indications) > 0
}

// ItemRef 列表页/索引页发现的药材条目
// 详情页解析前的最小引用信息
type ItemRef struct {
	Name     string `json:"name"`
	URL      string `json:"url"`
	Category string `json:"category"`
}

// Category 药材功效分类
type Category struct {
	Name string `json:"name"`
	URL  string `json:"url"`
}
