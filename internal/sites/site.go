// Package sites 定义站点适配器接口和注册表。
// 每个适配器负责一个数据源的页面发现和字段解析, 抓取动作统一走fetch层,
// 新增站点只需实现Site接口并在init里注册。
package sites

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/bencaodata/bencaospider/internal/fetch"
	"github.com/bencaodata/bencaospider/internal/models"
)

// Site 站点适配器
type Site interface {
	// Name 站点标识, 用于命令行--site参数和输出文件前缀
	Name() string
	// Label 站点中文名, 仅用于展示
	Label() string
	// Domains 抓取层的域名白名单
	Domains() []string
	// Categories 发现药材分类列表
	Categories(ctx context.Context, f *fetch.Fetcher) ([]models.Category, error)
	// Items 发现分类下的药材条目, 翻页范围由opts控制
	Items(ctx context.Context, f *fetch.Fetcher, cat models.Category, opts models.CrawlOptions) ([]models.ItemRef, error)
	// Detail 抓取并解析药材详情页
	// knownNames为本次会话已发现的全部药材名, 用于排除页面里混入的其他药材图片
	Detail(ctx context.Context, f *fetch.Fetcher, item models.ItemRef, id int, knownNames map[string]bool) (*models.HerbRecord, error)
}

var registry = make(map[string]Site)

// Register 注册站点适配器, 重名时panic
func Register(s Site) {
	name := s.Name()
	if _, exists := registry[name]; exists {
		panic(fmt.Sprintf("站点重复注册: %s", name))
	}
	registry[name] = s
}

// Get 按标识取站点适配器
func Get(name string) (Site, error) {
	s, ok := registry[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return nil, fmt.Errorf("未知站点: %s (可用: %s)", name, strings.Join(Names(), ", "))
	}
	return s, nil
}

// Names 已注册的站点标识, 按字典序
func Names() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// meridianSegmentRE 性味归经文本里的归经片段, 如"归脾、胃经"、"入肝经"
var meridianSegmentRE = regexp.MustCompile(`[归入]([^。；;]*)`)

// listSplitRE 中文顿号/逗号分隔的列表
var listSplitRE = regexp.MustCompile(`[、，,；;]`)

// ParseTasteMeridians 从"性温，味辛。归脾经、胃经。"形式的性味归经文本中
// 分离性味部分和归经列表。归经名保持原样, 标准化交给后续处理。
func ParseTasteMeridians(text string) (taste string, meridians []string) {
	text = strings.TrimSpace(text)
	if text == "" {
		return "", nil
	}

	taste = text
	if loc := meridianSegmentRE.FindStringSubmatchIndex(text); loc != nil {
		taste = strings.TrimSpace(strings.Trim(text[:loc[0]], "。，, "))
		segment := text[loc[2]:loc[3]]
		for _, part := range listSplitRE.Split(segment, -1) {
			part = strings.TrimSpace(strings.Trim(part, "。经 "))
			if part != "" {
				meridians = append(meridians, part)
			}
		}
	}
	return taste, meridians
}

// SplitEnumeration 按中文分隔符切分枚举文本, 丢弃空片段
// 用于"补气健脾、清热解毒"这类功效列表
func SplitEnumeration(text string) []string {
	var items []string
	for _, part := range listSplitRE.Split(text, -1) {
		part = strings.TrimSpace(strings.Trim(part, "。！？ "))
		if part != "" {
			items = append(items, part)
		}
	}
	return items
}
