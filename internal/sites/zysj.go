package sites

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"

	"github.com/bencaodata/bencaospider/internal/extract"
	"github.com/bencaodata/bencaospider/internal/fetch"
	"github.com/bencaodata/bencaospider/internal/models"
	"github.com/bencaodata/bencaospider/internal/utils"
)

func init() {
	Register(&zysjSite{})
}

const (
	zysjBase     = "http://www.zysj.com.cn"
	zysjIndexURL = zysjBase + "/lilunshuji/zhongyaoxue/index.html"
)

// zysjChapterRE 索引页的章标题, 如"第一章 解表药"
var zysjChapterRE = regexp.MustCompile(`^第[一二三四五六七八九十百\d]+章\s*`)

// zysjSectionRE 节标题只是分组, 不是药材条目
var zysjSectionRE = regexp.MustCompile(`^第[一二三四五六七八九十百\d]+节`)

// zysjNonHerbRE 索引里的非药材链接
var zysjNonHerbRE = regexp.MustCompile(`概述|分类|简介|总论|前言|附录|索引|目录|凡例|方剂|制剂|炮制|附方|附表`)

// zysjMaxNameLen 药材名长度上限(字符数), 超出的是章节说明文字
const zysjMaxNameLen = 10

// zysjRules 详情页段落标题到字段的映射
var zysjRules = []extract.FieldRule{
	headerRule("taste_meridians", "性味与归经", "性味归经"),
	headerRule("functions", "功效"),
	headerRule("indications", "临床应用"),
	headerRule("dosage", "一般用量与用法", "用量用法"),
	headerRule("notes", "按语"),
	headerRule("formulas", "方剂举例"),
	headerRule("literature", "文献摘录"),
	headerRule("affiliated", "附药"),
	headerRule("description", "药用", "处方用名"),
}

// zysjHerbIndicators 药材页面的特征标题
// 一个都不含的页面是总论或说明页, 不作为药材解析
var zysjHerbIndicators = []string{"【药用】", "【性味与归经】", "【功效】"}

// zysjSite 中医世家《中药学》电子书适配器
// 全书共用一张索引页, 首次访问后缓存解析结果。非并发设计。
// indexURL可替换, 便于对固定页面结构做离线验证。
type zysjSite struct {
	indexURL   string
	loaded     bool
	categories []models.Category
	items      map[string][]models.ItemRef
}

func (s *zysjSite) Name() string  { return "zysj" }
func (s *zysjSite) Label() string { return "中医世家" }

func (s *zysjSite) Domains() []string {
	return []string{"www.zysj.com.cn", "zysj.com.cn"}
}

// loadIndex 抓取并解析全书索引
// 按文档顺序遍历链接, 章标题切换当前分类, 其余通过过滤的链接视为药材
func (s *zysjSite) loadIndex(ctx context.Context, f *fetch.Fetcher) error {
	if s.loaded {
		return nil
	}

	indexURL := s.indexURL
	if indexURL == "" {
		indexURL = zysjIndexURL
	}

	doc, page, err := f.Document(ctx, indexURL)
	if err != nil {
		return fmt.Errorf("抓取索引页失败: %w", err)
	}

	s.items = make(map[string][]models.ItemRef)
	seen := make(map[string]bool)
	current := ""

	doc.Find("a[href]").Each(func(_ int, a *goquery.Selection) {
		name := strings.TrimSpace(a.Text())
		href := a.AttrOr("href", "")
		if name == "" || href == "" {
			return
		}

		if zysjChapterRE.MatchString(name) {
			current = strings.TrimSpace(zysjChapterRE.ReplaceAllString(name, ""))
			if current != "" {
				s.categories = append(s.categories, models.Category{
					Name: current,
					URL:  utils.AbsoluteURL(page.URL, href),
				})
			}
			return
		}
		if current == "" || zysjSectionRE.MatchString(name) || zysjNonHerbRE.MatchString(name) {
			return
		}
		if utf8.RuneCountInString(name) > zysjMaxNameLen || !containsCJK(name) {
			return
		}
		if !strings.HasSuffix(href, ".html") {
			return
		}

		abs := utils.AbsoluteURL(page.URL, href)
		if abs == "" || seen[abs] {
			return
		}
		seen[abs] = true
		s.items[current] = append(s.items[current], models.ItemRef{
			Name:     name,
			URL:      abs,
			Category: current,
		})
	})

	if len(s.categories) == 0 {
		return fmt.Errorf("索引页未解析出任何章节: %s", indexURL)
	}

	s.loaded = true
	utils.Infof("📖 索引解析完成: %d个章节", len(s.categories))
	return nil
}

func (s *zysjSite) Categories(ctx context.Context, f *fetch.Fetcher) ([]models.Category, error) {
	if err := s.loadIndex(ctx, f); err != nil {
		return nil, err
	}
	return s.categories, nil
}

// Items 返回章节下的药材条目
// 全书索引一次加载, 翻页参数对本站点无意义, 仅MaxHerbs生效
func (s *zysjSite) Items(ctx context.Context, f *fetch.Fetcher, cat models.Category, opts models.CrawlOptions) ([]models.ItemRef, error) {
	if err := s.loadIndex(ctx, f); err != nil {
		return nil, err
	}

	items := s.items[cat.Name]
	if opts.MaxHerbs > 0 && len(items) > opts.MaxHerbs {
		items = items[:opts.MaxHerbs]
	}
	return items, nil
}

// Detail 解析药材详情页
func (s *zysjSite) Detail(ctx context.Context, f *fetch.Fetcher, item models.ItemRef, id int, knownNames map[string]bool) (*models.HerbRecord, error) {
	doc, page, err := f.Document(ctx, item.URL)
	if err != nil {
		return nil, err
	}

	if !hasHerbIndicator(page.Body) {
		return nil, fmt.Errorf("非药材页面: %s", item.URL)
	}

	region := extract.ContentRegion(doc)
	if region == nil {
		return nil, fmt.Errorf("未定位到正文区域: %s", item.URL)
	}

	sections := extract.Sections(extract.Blocks(region), zysjRules)

	rec := &models.HerbRecord{
		ID:        id,
		Name:      item.Name,
		Category:  item.Category,
		SourceURL: page.URL,
	}
	if rec.Name == "" {
		rec.Name = strings.TrimSpace(doc.Find("h1, h2").First().Text())
	}

	if parts := sections["taste_meridians"]; len(parts) > 0 {
		rec.Taste, rec.Meridians = ParseTasteMeridians(extract.JoinText(parts))
	}

	rec.Functions = SplitEnumeration(extract.JoinText(sections["functions"]))
	rec.Indications = extract.SplitList(sections["indications"])
	rec.Dosage = extract.JoinText(sections["dosage"])
	rec.Description = extract.JoinText(sections["description"])

	// 按语/方剂举例/文献摘录逐块成条, 块内的换行续行已在解析时合并
	rec.Notes = sections["notes"]
	rec.Formulas = extract.SplitList(sections["formulas"])
	rec.Literature = sections["literature"]
	rec.AffiliatedHerbs = SplitEnumeration(extract.JoinText(sections["affiliated"]))

	rec.Images = extract.CollectImages(doc, page.URL, rec.Name, knownNames)

	if !rec.HasContent() {
		return nil, fmt.Errorf("详情页未提取到有效字段: %s", item.URL)
	}
	return rec, nil
}

// hasHerbIndicator 检查页面是否带有药材页特征标题
func hasHerbIndicator(body string) bool {
	for _, indicator := range zysjHerbIndicators {
		if strings.Contains(body, indicator) {
			return true
		}
	}
	return false
}

// containsCJK 文本中是否含有中文字符
func containsCJK(text string) bool {
	for _, r := range text {
		if r >= 0x4E00 && r <= 0x9FFF {
			return true
		}
	}
	return false
}
