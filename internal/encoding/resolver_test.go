package encoding

import (
	"testing"

	"golang.org/x/text/encoding/simplifiedchinese"
)

func TestResolve_UTF8直通(t *testing.T) {
	r := NewResolver()
	text, name := r.Resolve([]byte("甘草，补气健脾。"))
	if text != "甘草，补气健脾。" {
		t.Errorf("文本不一致: %q", text)
	}
	if name != "utf-8" {
		t.Errorf("期望编码utf-8, 实际%q", name)
	}
}

func TestResolve_GBK解码(t *testing.T) {
	original := "黄芪味甘，性微温。归脾经、肺经。"
	raw, err := simplifiedchinese.GBK.NewEncoder().Bytes([]byte(original))
	if err != nil {
		t.Fatalf("构造GBK字节失败: %v", err)
	}

	r := NewResolver()
	text, name := r.Resolve(raw)
	if text != original {
		t.Errorf("GBK解码结果不一致: %q", text)
	}
	if name != "gbk" {
		t.Errorf("期望编码gbk, 实际%q", name)
	}
}

func TestResolve_GB18030解码(t *testing.T) {
	original := "当归性温，味甘、辛。"
	raw, err := simplifiedchinese.GB18030.NewEncoder().Bytes([]byte(original))
	if err != nil {
		t.Fatalf("构造GB18030字节失败: %v", err)
	}

	r := NewResolver()
	text, _ := r.Resolve(raw)
	// GB18030与GBK在常用汉字区重合, 哪个候选命中不重要, 文本必须正确
	if text != original {
		t.Errorf("解码结果不一致: %q", text)
	}
}

func TestResolve_永不失败(t *testing.T) {
	tests := []struct {
		name string
		raw  []byte
	}{
		{"空字节", nil},
		{"随机二进制", []byte{0xFF, 0xFE, 0x00, 0x81, 0x40, 0xFF}},
		{"纯ASCII", []byte("hello world")},
		{"截断的多字节序列", []byte{0xB8, 0xCA, 0xB2}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewResolver()
			// 任何输入都必须返回, 不允许panic或错误
			text, name := r.Resolve(tt.raw)
			if len(tt.raw) > 0 && name == "" {
				t.Errorf("非空输入必须报告编码名, 实际文本%q", text)
			}
		})
	}
}

func TestIsValidChineseText(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected bool
	}{
		{"正常中文", "甘草补气", true},
		{"中英混排", "甘草 Glycyrrhiza uralensis", true},
		{"纯英文", "no chinese here", false},
		{"空字符串", "", false},
		{"连续问号乱码", "甘草???补气", false},
		{"两个问号可接受", "甘草??", true},
		{"替换字符", "甘草�补气", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsValidChineseText(tt.input); got != tt.expected {
				t.Errorf("%q: 期望%v, 实际%v", tt.input, tt.expected, got)
			}
		})
	}
}
