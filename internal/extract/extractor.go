// Package extract 从详情页HTML中定位正文区域并按段落标题切分字段。
// 两个站点的段落标题都是"【标题】"形式, 具体的标题到字段映射由各站点适配器提供。
package extract

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
)

// MinRegionLength 正文区域的最小文本长度(字符数)
// 低于该长度说明选择器命中的是导航或空壳节点, 页面不可用
const MinRegionLength = 150

// regionSelectors 正文区域候选选择器, 按优先级排列
var regionSelectors = []string{
	"div.text",
	"div.content",
	"div.article",
	"#content",
}

// FieldRule 段落标题到记录字段的映射规则
type FieldRule struct {
	Field   string         // 目标字段名
	Pattern *regexp.Regexp // 段首标题模式, 如 ^【中药名】
}

// numberedMarkerRE 条目编号标记: "1."、"1）"、"(1)"、"（1）"、"一、"及带圈数字
var numberedMarkerRE = regexp.MustCompile(`(?:\d+\.|\d+）|[（(]\d+[)）]|[一二三四五六七八九十]+、|[①②③④⑤⑥⑦⑧⑨⑩])`)

// ContentRegion 定位详情页的正文区域
// 依次尝试候选选择器, 取首个文本长度达标的节点;
// 全部落空时扫描所有div取文本最长者。仍不达标返回nil, 页面视为不可用。
func ContentRegion(doc *goquery.Document) *goquery.Selection {
	for _, sel := range regionSelectors {
		region := doc.Find(sel).First()
		if region.Length() == 0 {
			continue
		}
		if utf8.RuneCountInString(strings.TrimSpace(region.Text())) >= MinRegionLength {
			return region
		}
	}

	// 兜底: 页面结构不符合预期时取文本量最大的div
	var best *goquery.Selection
	bestLen := 0
	doc.Find("div").Each(func(_ int, s *goquery.Selection) {
		if l := utf8.RuneCountInString(strings.TrimSpace(s.Text())); l > bestLen {
			best, bestLen = s, l
		}
	})
	if best != nil && bestLen >= MinRegionLength {
		return best
	}
	return nil
}

// Blocks 按文档顺序收集正文区域内的文本块(段落和标题)
// 空文本块被丢弃
func Blocks(region *goquery.Selection) []string {
	var blocks []string
	region.Find("p, h1, h2, h3, h4, h5, h6").Each(func(_ int, s *goquery.Selection) {
		if text := strings.TrimSpace(s.Text()); text != "" {
			blocks = append(blocks, text)
		}
	})
	return blocks
}

// Sections 把文本块流按标题规则切分为字段到文本块的映射
// 命中标题的块开启新字段, 标题后的同块剩余文本作为首个条目,
// 后续未命中标题的块归入当前字段; 首个标题之前的块被丢弃。
// 同一字段被多个标题命中时文本块合并。
func Sections(blocks []string, rules []FieldRule) map[string][]string {
	sections := make(map[string][]string)
	current := ""

	for _, block := range blocks {
		matched := false
		for _, rule := range rules {
			if loc := rule.Pattern.FindStringIndex(block); loc != nil {
				current = rule.Field
				matched = true
				if rest := strings.TrimSpace(block[loc[1]:]); rest != "" {
					sections[current] = append(sections[current], rest)
				}
				break
			}
		}
		if !matched && current != "" {
			sections[current] = append(sections[current], block)
		}
	}
	return sections
}

// SplitNumbered 按条目编号把连续文本重新切分为列表
// 文本中没有编号标记时原样作为单元素返回
func SplitNumbered(text string) []string {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}

	locs := numberedMarkerRE.FindAllStringIndex(text, -1)
	if len(locs) == 0 {
		return []string{text}
	}

	var items []string
	// 首个编号之前的文本作为独立条目保留
	if head := strings.TrimSpace(text[:locs[0][0]]); head != "" {
		items = append(items, head)
	}
	for i, loc := range locs {
		end := len(text)
		if i+1 < len(locs) {
			end = locs[i+1][0]
		}
		if item := strings.TrimSpace(text[loc[1]:end]); item != "" {
			items = append(items, item)
		}
	}
	return items
}

// SplitList 把一个字段的多个文本块切分为列表条目
// 每个文本块先按编号重切分, 结果按原顺序合并
func SplitList(parts []string) []string {
	var items []string
	for _, part := range parts {
		items = append(items, SplitNumbered(part)...)
	}
	return items
}

// JoinText 把一个字段的多个文本块合并为单个文本
func JoinText(parts []string) string {
	return strings.TrimSpace(strings.Join(parts, "\n"))
}
