// Package encoding 把站点返回的原始字节解码为UTF-8文本。
// 目标站点以GBK/GB2312为主, 偶有UTF-8页面, 响应头的charset不可信,
// 因此按固定优先级尝试解码并用中文字符启发式验证结果。
package encoding

import (
	"strings"
	"unicode/utf8"

	"github.com/saintfish/chardet"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/ianaindex"
	"golang.org/x/text/encoding/simplifiedchinese"
)

// candidate 解码候选
type candidate struct {
	name string
	enc  encoding.Encoding // nil表示UTF-8直通
}

// Resolver 字节到文本的解码器
// 解码永不失败: 所有候选和自动检测都不可用时, 用首选编码做有损解码兜底
type Resolver struct {
	candidates    []candidate
	detector      *chardet.Detector
	minConfidence int
}

// NewResolver 创建解码器, 候选顺序: UTF-8 → GBK → GB18030
// UTF-8必须排在最前: 中文UTF-8字节几乎总能"成功"解为GBK乱码,
// 而GBK字节几乎不可能恰好是合法UTF-8。GB2312是GBK的子集, GBK候选同时覆盖两者。
func NewResolver() *Resolver {
	return &Resolver{
		candidates: []candidate{
			{name: "utf-8", enc: nil},
			{name: "gbk", enc: simplifiedchinese.GBK},
			{name: "gb18030", enc: simplifiedchinese.GB18030},
		},
		detector:      chardet.NewTextDetector(),
		minConfidence: 50,
	}
}

// Resolve 解码原始响应字节
// 返回解码后的文本和命中的编码名; 兜底路径返回的文本可能含替换字符
func (r *Resolver) Resolve(raw []byte) (string, string) {
	if len(raw) == 0 {
		return "", ""
	}

	// 按优先级尝试候选编码
	for _, c := range r.candidates {
		text, ok := decodeWith(c.enc, raw)
		if ok && IsValidChineseText(text) {
			return text, c.name
		}
	}

	// 候选全部未通过验证, 用chardet自动检测
	if result, err := r.detector.DetectBest(raw); err == nil && result.Confidence > r.minConfidence {
		if enc, err := ianaindex.IANA.Encoding(result.Charset); err == nil && enc != nil {
			if decoded, err := enc.NewDecoder().Bytes(raw); err == nil {
				return string(decoded), strings.ToLower(result.Charset)
			}
		}
	}

	// 最后的兜底: GBK有损解码, 保留替换字符而不是报错
	decoded, _ := simplifiedchinese.GBK.NewDecoder().Bytes(raw)
	return string(decoded), "gbk (lossy)"
}

// decodeWith 用指定编码解码, enc为nil时按UTF-8验证
func decodeWith(enc encoding.Encoding, raw []byte) (string, bool) {
	if enc == nil {
		if !utf8.Valid(raw) {
			return "", false
		}
		return string(raw), true
	}

	decoded, err := enc.NewDecoder().Bytes(raw)
	if err != nil {
		return "", false
	}
	return string(decoded), true
}

// IsValidChineseText 检查文本是否为有效解码的中文页面
// 要求至少包含一个CJK字符, 且没有乱码标记(连续3个以上问号或替换字符)
func IsValidChineseText(text string) bool {
	hasCJK := false
	questionRun := 0
	for _, r := range text {
		if r == utf8.RuneError {
			return false
		}
		if r == '?' {
			questionRun++
			if questionRun >= 3 {
				return false
			}
		} else {
			questionRun = 0
		}
		if !hasCJK && r >= 0x4E00 && r <= 0x9FFF {
			hasCJK = true
		}
	}
	return hasCJK
}
