package extract

import (
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/bencaodata/bencaospider/internal/normalize"
	"github.com/bencaodata/bencaospider/internal/utils"
)

// minImageDimension 低于此宽高的图片视为装饰元素
const minImageDimension = 50

// mainPhotoRejectContainers 侧边栏/相关推荐容器的class, 其中的图片不属于当前药材
var mainPhotoRejectContainers = []string{"box5_c", "box8_c", "mart10"}

// parseDimension 解析width/height属性, 兼容"300"和"300px"两种写法
// 解析失败返回0, 表示未声明
func parseDimension(val string) int {
	val = strings.TrimSuffix(strings.TrimSpace(val), "px")
	n, err := strconv.Atoi(val)
	if err != nil || n < 0 {
		return 0
	}
	return n
}

// IsHerbImage 判断图片是否为药材实拍图
// URL须通过关键词和扩展名过滤; 尺寸过滤仅在宽高都有声明时生效,
// 只声明一边的图片不做尺寸判断
func IsHerbImage(src string, width, height int) bool {
	if !normalize.IsValidImageURL(src) {
		return false
	}
	if width > 0 && height > 0 && (width < minImageDimension || height < minImageDimension) {
		return false
	}
	return true
}

// IsMainPhoto 判断图片是否为当前药材的主图
// 页面正文里常混入相关药材的缩略图, 按alt文本和所在容器逐级排除:
//  1. alt提到功效/作用的是配图说明, 接受
//  2. alt是另一个已知药材名, 拒绝
//  3. 位于带title类的链接里(相关推荐), 拒绝
//  4. 直接嵌在段落里, 接受
//  5. 所在容器是侧边栏类, 拒绝; 正文类容器接受
//  6. 带居中样式的独立图片, 接受
//  7. 其余默认接受
func IsMainPhoto(img *goquery.Selection, herbName string, knownNames map[string]bool) bool {
	alt := strings.TrimSpace(img.AttrOr("alt", ""))
	if strings.Contains(alt, "功效") || strings.Contains(alt, "作用") {
		return true
	}
	if alt != "" && alt != herbName && knownNames[alt] {
		return false
	}

	if parent := img.ParentsFiltered("a").First(); parent.Length() > 0 {
		if class, _ := parent.Attr("class"); strings.Contains(class, "title") {
			return false
		}
	}
	if img.ParentsFiltered("p").Length() > 0 {
		return true
	}

	container := img.ParentsFiltered("div").First()
	if container.Length() > 0 {
		class := strings.ToLower(container.AttrOr("class", ""))
		for _, c := range mainPhotoRejectContainers {
			if strings.Contains(class, c) {
				return false
			}
		}
		if strings.Contains(class, "text") {
			return true
		}
	}

	if style, ok := img.Attr("style"); ok && strings.Contains(strings.ToLower(style), "center") {
		return true
	}
	if _, ok := img.Attr("align"); ok {
		return true
	}
	return true
}

// CollectImages 从详情页收集属于当前药材的图片URL
// 相对路径解析为绝对URL, 顺序与页面出现顺序一致, 去重交给标准化阶段
func CollectImages(doc *goquery.Document, pageURL, herbName string, knownNames map[string]bool) []string {
	var images []string
	doc.Find("img").Each(func(_ int, img *goquery.Selection) {
		src := strings.TrimSpace(img.AttrOr("src", ""))
		if src == "" {
			src = strings.TrimSpace(img.AttrOr("data-src", ""))
		}
		if src == "" {
			return
		}

		abs := utils.AbsoluteURL(pageURL, src)
		if abs == "" {
			return
		}

		width := parseDimension(img.AttrOr("width", ""))
		height := parseDimension(img.AttrOr("height", ""))
		if !IsHerbImage(abs, width, height) {
			return
		}
		if !IsMainPhoto(img, herbName, knownNames) {
			return
		}
		images = append(images, abs)
	})
	return images
}
