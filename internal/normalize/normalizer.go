// Package normalize 对提取到的原始字段做清理和标准化。
// 所有操作都是幂等的: 对已标准化的记录再跑一遍必须是空操作。
package normalize

import (
	"regexp"
	"strings"

	"github.com/bencaodata/bencaospider/internal/models"
)

var (
	// tagRE 残留的HTML标签
	tagRE = regexp.MustCompile(`<[^>]+>`)
	// spaceRE 连续空白
	spaceRE = regexp.MustCompile(`\s+`)
	// junkRE 中文、字母数字和常见标点之外的符号
	junkRE = regexp.MustCompile(`[^\x{4e00}-\x{9fff}a-zA-Z0-9_\s,，;；、。！？“”‘’()（）【】\[\]:：·\-]`)
	// tildeRangeRE 波浪号分隔的数值区间, 如"3~9"、"3～9"
	tildeRangeRE = regexp.MustCompile(`(\d+)\s*[~～]\s*(\d+)`)

	// boilerplateREs 页面尾部的固定栏目文本
	boilerplateREs = []*regexp.Regexp{
		regexp.MustCompile(`最近更新时间[：:].*`),
		regexp.MustCompile(`更多相关文章.*`),
		regexp.MustCompile(`中药常见偏方.*`),
	}
)

// propertyKeywords 药性关键词表, 输出顺序以此为准
var propertyKeywords = []string{"寒", "凉", "平", "温", "热", "微寒", "微凉", "微温", "微热"}

// tasteKeywords 药味关键词表
var tasteKeywords = []string{"甘", "苦", "辛", "酸", "咸", "淡", "涩", "微甘", "微苦", "微辛"}

// meridianAlias 十二经络别名表, 按声明顺序匹配, 首个命中生效
var meridianAlias = []struct {
	alias     string
	canonical string
}{
	{"肺", "肺经"},
	{"大肠", "大肠经"},
	{"胃", "胃经"},
	{"脾", "脾经"},
	{"心", "心经"},
	{"小肠", "小肠经"},
	{"膀胱", "膀胱经"},
	{"肾", "肾经"},
	{"心包", "心包经"},
	{"三焦", "三焦经"},
	{"胆", "胆经"},
	{"肝", "肝经"},
}

// imageExtensions 可识别的图片扩展名
var imageExtensions = []string{".jpg", ".jpeg", ".png", ".gif", ".webp", ".bmp", ".svg"}

// imageKeywords 路径中的图片相关关键词, 无扩展名时的放行依据
var imageKeywords = []string{"image", "img", "photo", "pic", "thumb"}

// imageBlockKeywords 页面装饰类图片的关键词
var imageBlockKeywords = []string{"logo", "icon", "button", "banner", "nav"}

// CleanText 清理文本: 去标签、合并空白、剔除乱码符号
func CleanText(text string) string {
	if text == "" {
		return ""
	}
	text = tagRE.ReplaceAllString(text, "")
	text = spaceRE.ReplaceAllString(strings.TrimSpace(text), " ")
	text = junkRE.ReplaceAllString(text, "")
	return strings.TrimSpace(text)
}

// StandardizePinyin 拼音转为每个单词首字母大写的格式
func StandardizePinyin(pinyin string) string {
	if pinyin == "" {
		return ""
	}
	words := strings.Fields(strings.ToLower(pinyin))
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}

// SplitPropertyTaste 从合并的性味文本中分离药性和药味
// 子串包含即命中, 多个命中按关键词表顺序用"、"连接
func SplitPropertyTaste(text string) (properties string, taste string) {
	if text == "" {
		return "", ""
	}

	var props, tastes []string
	for _, kw := range propertyKeywords {
		if strings.Contains(text, kw) {
			props = append(props, kw)
		}
	}
	for _, kw := range tasteKeywords {
		if strings.Contains(text, kw) {
			tastes = append(tastes, kw)
		}
	}
	return strings.Join(props, "、"), strings.Join(tastes, "、")
}

// CanonicalMeridians 归经标准化
// 已带"经"后缀的保持不变, 否则按别名表匹配; 匹配不到时保留原值。
// 结果去重并保持首次出现顺序。
func CanonicalMeridians(meridians []string) []string {
	if len(meridians) == 0 {
		return nil
	}

	seen := make(map[string]bool, len(meridians))
	result := make([]string, 0, len(meridians))

	for _, m := range meridians {
		m = CleanText(m)
		if m == "" {
			continue
		}

		canonical := m
		if !strings.HasSuffix(m, "经") {
			for _, entry := range meridianAlias {
				if strings.Contains(m, entry.alias) {
					canonical = entry.canonical
					break
				}
			}
		}

		if !seen[canonical] {
			seen[canonical] = true
			result = append(result, canonical)
		}
	}
	return result
}

// NormalizeDosage 用法用量标准化
// 去标签去空白, 波浪号区间改写为连字符("3~9g" → "3-9g"),
// 并剔除尾部的页面栏目文本。用量是短中文短语, 空白直接删除而不是折叠。
func NormalizeDosage(dosage string) string {
	if dosage == "" {
		return ""
	}

	dosage = tagRE.ReplaceAllString(dosage, "")
	dosage = spaceRE.ReplaceAllString(dosage, "")
	dosage = tildeRangeRE.ReplaceAllString(dosage, "$1-$2")
	for _, re := range boilerplateREs {
		dosage = re.ReplaceAllString(dosage, "")
	}
	return strings.Trim(dosage, "。，；：】 ")
}

// CleanStrings 清理字符串列表, 丢弃清理后为空的条目
func CleanStrings(items []string) []string {
	if len(items) == 0 {
		return nil
	}
	cleaned := make([]string, 0, len(items))
	for _, item := range items {
		if item = CleanText(item); item != "" {
			cleaned = append(cleaned, item)
		}
	}
	return cleaned
}

// IsValidImageURL 验证图片URL
// 必须是http(s)绝对地址, 且去掉查询串后有图片扩展名, 或路径含图片关键词;
// 含装饰类关键词的一律拒绝, "ad"仅在路径不含"allimg"时拒绝
func IsValidImageURL(rawURL string) bool {
	if rawURL == "" {
		return false
	}
	if !strings.HasPrefix(rawURL, "http://") && !strings.HasPrefix(rawURL, "https://") {
		return false
	}

	lower := strings.ToLower(rawURL)
	for _, kw := range imageBlockKeywords {
		if strings.Contains(lower, kw) {
			return false
		}
	}
	if strings.Contains(lower, "ad") && !strings.Contains(lower, "allimg") {
		return false
	}

	withoutQuery := lower
	if idx := strings.Index(lower, "?"); idx >= 0 {
		withoutQuery = lower[:idx]
	}
	for _, ext := range imageExtensions {
		if strings.HasSuffix(withoutQuery, ext) {
			return true
		}
	}
	for _, kw := range imageKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

// CleanImageURLs 过滤并去重图片URL列表
// 输出是输入的子集, 保持首次出现顺序
func CleanImageURLs(images []string) []string {
	if len(images) == 0 {
		return nil
	}

	seen := make(map[string]bool, len(images))
	cleaned := make([]string, 0, len(images))
	for _, img := range images {
		img = strings.TrimSpace(img)
		if img == "" || seen[img] {
			continue
		}
		if IsValidImageURL(img) {
			seen[img] = true
			cleaned = append(cleaned, img)
		}
	}
	return cleaned
}

// Record 对整条记录做标准化, 原地修改
func Record(h *models.HerbRecord) {
	h.Name = CleanText(h.Name)
	h.Pinyin = StandardizePinyin(CleanText(h.Pinyin))
	h.Category = CleanText(h.Category)
	h.Taste = CleanText(h.Taste)
	h.Contraindicate = CleanText(h.Contraindicate)

	// 性味合并在一个字段里时拆分为药性/药味
	if h.Properties == "" && h.Taste != "" {
		props, taste := SplitPropertyTaste(h.Taste)
		if props != "" {
			h.Properties = props
		}
		if taste != "" {
			h.Taste = taste
		}
	}

	h.Meridians = CanonicalMeridians(h.Meridians)
	h.Dosage = NormalizeDosage(h.Dosage)
	h.Prescriptions = CleanStrings(h.Prescriptions)
	h.Images = CleanImageURLs(h.Images)
}
