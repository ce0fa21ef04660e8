package extract

import (
	"reflect"
	"regexp"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
)

func mustDoc(t *testing.T, html string) *goquery.Document {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		t.Fatalf("解析HTML失败: %v", err)
	}
	return doc
}

// longText 构造超过正文长度阈值的填充文本
func longText() string {
	return strings.Repeat("药材内容段落。", 30)
}

func TestContentRegion(t *testing.T) {
	t.Run("命中优先选择器", func(t *testing.T) {
		doc := mustDoc(t, `<html><body><div class="text"><p>`+longText()+`</p></div></body></html>`)
		region := ContentRegion(doc)
		if region == nil {
			t.Fatal("未定位到正文区域")
		}
	})

	t.Run("选择器命中但文本过短时继续", func(t *testing.T) {
		doc := mustDoc(t, `<html><body>
			<div class="text">短</div>
			<div class="content"><p>`+longText()+`</p></div>
		</body></html>`)
		region := ContentRegion(doc)
		if region == nil {
			t.Fatal("未定位到正文区域")
		}
		if !strings.Contains(region.Text(), "药材内容") {
			t.Error("命中了错误的区域")
		}
	})

	t.Run("兜底取最大div", func(t *testing.T) {
		doc := mustDoc(t, `<html><body>
			<div class="sidebar">边栏</div>
			<div class="main-body"><p>`+longText()+`</p></div>
		</body></html>`)
		region := ContentRegion(doc)
		if region == nil {
			t.Fatal("兜底扫描未定位到正文区域")
		}
	})

	t.Run("全页无达标区域返回nil", func(t *testing.T) {
		doc := mustDoc(t, `<html><body><div>太短</div></body></html>`)
		if region := ContentRegion(doc); region != nil {
			t.Error("过短页面应返回nil")
		}
	})
}

func TestBlocks(t *testing.T) {
	doc := mustDoc(t, `<div class="text">
		<h1>甘草</h1>
		<p>【中药名】甘草 gancao</p>
		<p>  </p>
		<p>【性味归经】性平，味甘。</p>
	</div>`)

	blocks := Blocks(doc.Find("div.text"))
	expected := []string{"甘草", "【中药名】甘草 gancao", "【性味归经】性平，味甘。"}
	if !reflect.DeepEqual(blocks, expected) {
		t.Errorf("期望%v, 实际%v", expected, blocks)
	}
}

func TestSections(t *testing.T) {
	rules := []FieldRule{
		{Field: "name", Pattern: regexp.MustCompile(`^\s*【中药名】`)},
		{Field: "functions", Pattern: regexp.MustCompile(`^\s*【功效与作用】`)},
	}

	blocks := []string{
		"页面导语, 无标题, 应被丢弃",
		"【中药名】甘草",
		"【功效与作用】补脾益气。",
		"续行文本归入当前字段。",
		"【未知标题】不在规则里的段落",
	}

	sections := Sections(blocks, rules)
	if got := sections["name"]; !reflect.DeepEqual(got, []string{"甘草"}) {
		t.Errorf("name字段错误: %v", got)
	}
	want := []string{"补脾益气。", "续行文本归入当前字段。", "【未知标题】不在规则里的段落"}
	if got := sections["functions"]; !reflect.DeepEqual(got, want) {
		t.Errorf("functions字段错误: %v", got)
	}
}

func TestSplitNumbered(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected []string
	}{
		{"空文本", "", nil},
		{"无编号原样返回", "用于脾胃虚弱。", []string{"用于脾胃虚弱。"}},
		{"阿拉伯数字点号", "1.用于气虚。2.用于血虚。", []string{"用于气虚。", "用于血虚。"}},
		{"中文序号", "一、解表。二、清热。", []string{"解表。", "清热。"}},
		{"括号编号", "(1)脾虚(2)肺虚", []string{"脾虚", "肺虚"}},
		{"右括号编号", "1）咳嗽2）气喘", []string{"咳嗽", "气喘"}},
		{"带圈数字", "①补气②养血", []string{"补气", "养血"}},
		{"编号前的导语保留", "主治如下: 1.咳嗽。2.气喘。", []string{"主治如下:", "咳嗽。", "气喘。"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SplitNumbered(tt.input)
			if !reflect.DeepEqual(got, tt.expected) {
				t.Errorf("期望%v, 实际%v", tt.expected, got)
			}
		})
	}
}

func TestSplitList(t *testing.T) {
	parts := []string{"1.补气。2.健脾。", "单独一段。"}
	expected := []string{"补气。", "健脾。", "单独一段。"}
	if got := SplitList(parts); !reflect.DeepEqual(got, expected) {
		t.Errorf("期望%v, 实际%v", expected, got)
	}
}
