package extract

import (
	"reflect"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
)

func TestParseDimension(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected int
	}{
		{"纯数字", "300", 300},
		{"带px后缀", "300px", 300},
		{"带空白", " 120 ", 120},
		{"空字符串", "", 0},
		{"非数字", "auto", 0},
		{"负数", "-10", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := parseDimension(tt.input); got != tt.expected {
				t.Errorf("期望%d, 实际%d", tt.expected, got)
			}
		})
	}
}

func TestIsHerbImage(t *testing.T) {
	tests := []struct {
		name          string
		src           string
		width, height int
		expected      bool
	}{
		{"正常药材图", "http://www.zhongyoo.com/uploads/allimg/gancao.jpg", 300, 200, true},
		{"未声明尺寸", "http://www.zhongyoo.com/uploads/allimg/gancao.jpg", 0, 0, true},
		{"宽度过小", "http://example.com/uploads/allimg/a.jpg", 30, 200, false},
		{"高度过小", "http://example.com/uploads/allimg/a.jpg", 200, 30, false},
		{"仅声明宽度且过小", "http://example.com/uploads/allimg/a.jpg", 30, 0, true},
		{"仅声明高度且过小", "http://example.com/uploads/allimg/a.jpg", 0, 30, true},
		{"logo图片", "http://example.com/logo.jpg", 300, 200, false},
		{"相对路径", "/uploads/a.jpg", 300, 200, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsHerbImage(tt.src, tt.width, tt.height); got != tt.expected {
				t.Errorf("期望%v, 实际%v", tt.expected, got)
			}
		})
	}
}

func imgFromHTML(t *testing.T, html string) *goquery.Selection {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		t.Fatalf("解析HTML失败: %v", err)
	}
	img := doc.Find("img").First()
	if img.Length() == 0 {
		t.Fatal("片段里没有img")
	}
	return img
}

func TestIsMainPhoto(t *testing.T) {
	known := map[string]bool{"甘草": true, "黄芪": true}

	tests := []struct {
		name     string
		html     string
		expected bool
	}{
		{"alt含功效描述", `<div><img src="a.jpg" alt="甘草的功效与作用"></div>`, true},
		{"alt是其他药材名", `<div><img src="a.jpg" alt="黄芪"></div>`, false},
		{"alt是当前药材名", `<p><img src="a.jpg" alt="甘草"></p>`, true},
		{"相关推荐链接里的图", `<a class="title" href="x"><img src="a.jpg"></a>`, false},
		{"段落内嵌图", `<p><img src="a.jpg"></p>`, true},
		{"侧边栏容器", `<div class="box5_c"><img src="a.jpg"></div>`, false},
		{"相关列表容器", `<div class="marT10"><img src="a.jpg"></div>`, false},
		{"正文容器", `<div class="text"><img src="a.jpg"></div>`, true},
		{"居中样式", `<div><img src="a.jpg" style="text-align:center"></div>`, true},
		{"无任何特征默认接受", `<div><img src="a.jpg"></div>`, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			img := imgFromHTML(t, tt.html)
			if got := IsMainPhoto(img, "甘草", known); got != tt.expected {
				t.Errorf("期望%v, 实际%v", tt.expected, got)
			}
		})
	}
}

func TestCollectImages(t *testing.T) {
	html := `<html><body><div class="text">
		<p><img src="/uploads/allimg/gancao1.jpg" alt="甘草的功效与作用"></p>
		<p><img src="/uploads/allimg/gancao2.png" width="400" height="300"></p>
		<img src="/images/logo.png">
		<img src="/uploads/allimg/tiny.jpg" width="20" height="20">
		<div class="box5_c"><img src="/uploads/allimg/other.jpg" alt="黄芪"></div>
	</div></body></html>`

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		t.Fatalf("解析HTML失败: %v", err)
	}

	known := map[string]bool{"甘草": true, "黄芪": true}
	images := CollectImages(doc, "http://www.zhongyoo.com/name/gancao.html", "甘草", known)

	expected := []string{
		"http://www.zhongyoo.com/uploads/allimg/gancao1.jpg",
		"http://www.zhongyoo.com/uploads/allimg/gancao2.png",
	}
	if !reflect.DeepEqual(images, expected) {
		t.Errorf("期望%v, 实际%v", expected, images)
	}
}
