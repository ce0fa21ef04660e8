package sites

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/bencaodata/bencaospider/internal/extract"
	"github.com/bencaodata/bencaospider/internal/fetch"
	"github.com/bencaodata/bencaospider/internal/models"
	"github.com/bencaodata/bencaospider/internal/utils"
)

func init() {
	Register(&zhongyooSite{})
}

const (
	zhongyooBase        = "http://www.zhongyoo.com"
	zhongyooCategoryURL = zhongyooBase + "/gx/"
)

// headerRule 构造"【标题】"形式的段首规则, 兼容标题内外的空白和冒号
func headerRule(field string, titles ...string) extract.FieldRule {
	return extract.FieldRule{
		Field:   field,
		Pattern: regexp.MustCompile(`^\s*【\s*(?:` + strings.Join(titles, "|") + `)\s*】[:：]?`),
	}
}

// zhongyooRules 详情页段落标题到字段的映射
// 规则顺序即匹配优先级, 未列出的标题段落并入前一字段
var zhongyooRules = []extract.FieldRule{
	headerRule("name", "中药名"),
	headerRule("taste_meridians", "性味归经", "性味与归经"),
	headerRule("functions", "功效与作用", "功效"),
	headerRule("indications", "主治", "临床应用"),
	headerRule("dosage", "用法用量"),
	headerRule("contraindications", "使用禁忌", "禁忌"),
	headerRule("prescriptions", "配伍药方", "相关药方"),
	headerRule("description",
		"别名", "来源", "药用部位", "植物形态", "产地分布",
		"采收加工", "药材性状", "药理研究", "化学成分", "主要成分"),
	headerRule("_drop", "英文名", "摘录"),
}

// zhongyooNameRE 【中药名】段的"甘草 gancao"形式: 中文名加可选拼音
var zhongyooNameRE = regexp.MustCompile(`^([\x{4e00}-\x{9fff}]+)\s*([A-Za-z][A-Za-z\s]*)?`)

// zhongyooNoiseRE 正文里混入的页面栏目文本
var zhongyooNoiseRE = regexp.MustCompile(`最近更新时间|更多相关文章|中药常见偏方|上一篇|下一篇|相关推荐`)

// zhongyooPageNavRE 列表页的翻页链接文本
var zhongyooPageNavRE = regexp.MustCompile(`^(?:\d+|上一页|下一页|首页|尾页|末页)$`)

// zhongyooDosageRE 临床应用文本里的用量描述, 用于补齐缺失的用法用量字段
var zhongyooDosageRE = regexp.MustCompile(`(?:内服|煎服|煎汤)[^。]*?\d+\s*[~～-]\s*\d+\s*[克g][^。]*`)

// zhongyooSite 中药查询网适配器
// catalogURL可替换, 便于对固定页面结构做离线验证
type zhongyooSite struct {
	catalogURL string
}

func (s *zhongyooSite) Name() string  { return "zhongyoo" }
func (s *zhongyooSite) Label() string { return "中药查询网" }

func (s *zhongyooSite) Domains() []string {
	return []string{"www.zhongyoo.com", "zhongyoo.com"}
}

// Categories 从功效分类导航页发现分类
func (s *zhongyooSite) Categories(ctx context.Context, f *fetch.Fetcher) ([]models.Category, error) {
	catalogURL := s.catalogURL
	if catalogURL == "" {
		catalogURL = zhongyooCategoryURL
	}

	doc, page, err := f.Document(ctx, catalogURL)
	if err != nil {
		return nil, fmt.Errorf("抓取分类页失败: %w", err)
	}

	seen := make(map[string]bool)
	var categories []models.Category
	doc.Find("a[href]").Each(func(_ int, a *goquery.Selection) {
		href := a.AttrOr("href", "")
		name := strings.TrimSpace(a.Text())
		if name == "" || !strings.Contains(href, "/gx/") || zhongyooPageNavRE.MatchString(name) {
			return
		}

		abs := utils.AbsoluteURL(page.URL, href)
		if abs == "" || abs == catalogURL || seen[abs] {
			return
		}
		seen[abs] = true
		categories = append(categories, models.Category{Name: name, URL: abs})
	})

	if len(categories) == 0 {
		return nil, fmt.Errorf("分类页未发现任何分类: %s", catalogURL)
	}
	utils.Infof("📋 发现%d个药材分类", len(categories))
	return categories, nil
}

// Items 翻页采集分类下的药材条目
// 第1页是分类URL本身, 之后为index_N.html; 某页无新条目时停止翻页
func (s *zhongyooSite) Items(ctx context.Context, f *fetch.Fetcher, cat models.Category, opts models.CrawlOptions) ([]models.ItemRef, error) {
	startPage := opts.StartPage
	if startPage < 1 {
		startPage = 1
	}

	seen := make(map[string]bool)
	var items []models.ItemRef
	for page := startPage; ; page++ {
		if opts.MaxPages > 0 && page-startPage >= opts.MaxPages {
			break
		}
		if err := ctx.Err(); err != nil {
			return items, err
		}

		pageURL := cat.URL
		if page > 1 {
			pageURL = strings.TrimSuffix(cat.URL, "/") + fmt.Sprintf("/index_%d.html", page)
		}

		doc, resolved, err := f.Document(ctx, pageURL)
		if err != nil {
			// 翻过最后一页通常表现为404, 结束本分类
			utils.Debugf("列表页抓取结束: %s (%v)", pageURL, err)
			break
		}

		added := 0
		doc.Find("a[href*='/name/']").EachWithBreak(func(_ int, a *goquery.Selection) bool {
			href := a.AttrOr("href", "")
			name := strings.TrimSpace(a.Text())
			if name == "" || !strings.HasSuffix(href, ".html") {
				return true
			}

			abs := utils.AbsoluteURL(resolved.URL, href)
			if abs == "" || seen[abs] {
				return true
			}
			seen[abs] = true
			items = append(items, models.ItemRef{Name: name, URL: abs, Category: cat.Name})
			added++
			return opts.MaxHerbs <= 0 || len(items) < opts.MaxHerbs
		})

		if added == 0 {
			break
		}
		if opts.MaxHerbs > 0 && len(items) >= opts.MaxHerbs {
			items = items[:opts.MaxHerbs]
			break
		}
	}
	return items, nil
}

// Detail 解析药材详情页
func (s *zhongyooSite) Detail(ctx context.Context, f *fetch.Fetcher, item models.ItemRef, id int, knownNames map[string]bool) (*models.HerbRecord, error) {
	doc, page, err := f.Document(ctx, item.URL)
	if err != nil {
		return nil, err
	}

	region := extract.ContentRegion(doc)
	if region == nil {
		return nil, fmt.Errorf("未定位到正文区域: %s", item.URL)
	}

	sections := extract.Sections(extract.Blocks(region), zhongyooRules)

	rec := &models.HerbRecord{
		ID:        id,
		Name:      item.Name,
		Category:  item.Category,
		SourceURL: page.URL,
	}

	if parts := sections["name"]; len(parts) > 0 {
		if m := zhongyooNameRE.FindStringSubmatch(parts[0]); m != nil {
			rec.Name = m[1]
			rec.Pinyin = strings.TrimSpace(m[2])
		}
	}
	if rec.Name == "" {
		rec.Name = strings.TrimSpace(doc.Find("h1").First().Text())
	}

	if parts := sections["taste_meridians"]; len(parts) > 0 {
		rec.Taste, rec.Meridians = ParseTasteMeridians(extract.JoinText(parts))
	}

	rec.Functions = dropNoise(SplitEnumeration(extract.JoinText(sections["functions"])))
	rec.Indications = dropNoise(extract.SplitList(sections["indications"]))
	rec.Prescriptions = dropNoise(extract.SplitList(sections["prescriptions"]))
	rec.Dosage = extract.JoinText(sections["dosage"])
	rec.Contraindicate = extract.JoinText(sections["contraindications"])
	rec.Description = extract.JoinText(sections["description"])

	// 部分页面的用量写在临床应用里, 用法用量段缺失时从那里补齐
	if rec.Dosage == "" {
		if m := zhongyooDosageRE.FindString(strings.Join(rec.Indications, "。")); m != "" {
			rec.Dosage = m
		}
	}

	// 列表页给的分类为空时从面包屑导航补齐
	if rec.Category == "" {
		crumbs := doc.Find("div.position a, div.weizhi a")
		if crumbs.Length() > 0 {
			rec.Category = strings.TrimSpace(crumbs.Last().Text())
		}
	}

	rec.Images = extract.CollectImages(doc, page.URL, rec.Name, knownNames)

	if !rec.HasContent() {
		return nil, fmt.Errorf("详情页未提取到有效字段: %s", item.URL)
	}
	return rec, nil
}

// dropNoise 剔除列表条目里混入的页面栏目文本
func dropNoise(items []string) []string {
	var out []string
	for _, item := range items {
		if !zhongyooNoiseRE.MatchString(item) {
			out = append(out, item)
		}
	}
	return out
}
