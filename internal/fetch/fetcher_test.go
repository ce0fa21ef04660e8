package fetch

import (
	"bytes"
	"compress/gzip"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"golang.org/x/text/encoding/simplifiedchinese"
)

func newTestFetcher() *Fetcher {
	return NewFetcher(Config{
		UserAgent:     "bencaospider-test",
		MaxRetries:    3,
		RetryMinDelay: time.Millisecond,
		RetryMaxDelay: 2 * time.Millisecond,
	})
}

func TestFetch_UTF8页面(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("User-Agent") != "bencaospider-test" {
			t.Errorf("UA未设置: %q", r.Header.Get("User-Agent"))
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte("<html><body>甘草补气健脾</body></html>"))
	}))
	defer server.Close()

	page, err := newTestFetcher().Fetch(context.Background(), server.URL)
	if err != nil {
		t.Fatalf("抓取失败: %v", err)
	}
	if !strings.Contains(page.Body, "甘草补气健脾") {
		t.Errorf("正文不符: %q", page.Body)
	}
	if page.Encoding != "utf-8" {
		t.Errorf("编码识别: %q", page.Encoding)
	}
	if page.StatusCode != http.StatusOK {
		t.Errorf("状态码: %d", page.StatusCode)
	}
}

func TestFetch_GBK页面(t *testing.T) {
	raw, err := simplifiedchinese.GBK.NewEncoder().Bytes([]byte("<html><body>黄芪味甘，性微温。</body></html>"))
	if err != nil {
		t.Fatal(err)
	}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// 故意不声明charset, 编码必须从字节内容识别
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write(raw)
	}))
	defer server.Close()

	page, err := newTestFetcher().Fetch(context.Background(), server.URL)
	if err != nil {
		t.Fatalf("抓取失败: %v", err)
	}
	if !strings.Contains(page.Body, "黄芪味甘") {
		t.Errorf("GBK正文解码失败: %q", page.Body)
	}
	if page.Encoding != "gbk" {
		t.Errorf("编码识别: %q", page.Encoding)
	}
}

func TestFetch_gzip响应(t *testing.T) {
	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	_, _ = gz.Write([]byte("<html><body>当归补血活血。</body></html>"))
	_ = gz.Close()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Header().Set("Content-Encoding", "gzip")
		_, _ = w.Write(buf.Bytes())
	}))
	defer server.Close()

	page, err := newTestFetcher().Fetch(context.Background(), server.URL)
	if err != nil {
		t.Fatalf("抓取失败: %v", err)
	}
	if !strings.Contains(page.Body, "当归补血活血") {
		t.Errorf("gzip解压失败: %q", page.Body)
	}
}

func TestFetch_失败重试后成功(t *testing.T) {
	attempts := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		if attempts < 3 {
			http.Error(w, "server error", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte("<html><body>第三次成功的中文页面</body></html>"))
	}))
	defer server.Close()

	page, err := newTestFetcher().Fetch(context.Background(), server.URL)
	if err != nil {
		t.Fatalf("重试后仍失败: %v", err)
	}
	if attempts != 3 {
		t.Errorf("期望3次请求, 实际%d次", attempts)
	}
	if !strings.Contains(page.Body, "第三次成功") {
		t.Errorf("正文不符: %q", page.Body)
	}
}

func TestFetch_重试耗尽(t *testing.T) {
	attempts := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		http.Error(w, "server error", http.StatusInternalServerError)
	}))
	defer server.Close()

	if _, err := newTestFetcher().Fetch(context.Background(), server.URL); err == nil {
		t.Fatal("重试耗尽后应返回错误")
	}
	if attempts != 3 {
		t.Errorf("期望3次请求, 实际%d次", attempts)
	}
}

func TestFetch_上下文已取消(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("已取消的上下文不应发起请求")
	}))
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := newTestFetcher().Fetch(ctx, server.URL); err == nil {
		t.Error("期望上下文取消错误")
	}
}

func TestFetch_非法URL(t *testing.T) {
	f := newTestFetcher()
	if _, err := f.Fetch(context.Background(), "not-a-url"); err == nil {
		t.Error("非法URL应直接报错")
	}
	if _, err := f.Fetch(context.Background(), "ftp://example.com/x"); err == nil {
		t.Error("非http协议应直接报错")
	}
}

func TestDocument(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte(`<html><body><h1>甘草</h1><p>补气健脾药材。</p></body></html>`))
	}))
	defer server.Close()

	doc, page, err := newTestFetcher().Document(context.Background(), server.URL)
	if err != nil {
		t.Fatalf("抓取解析失败: %v", err)
	}
	if page == nil || page.Body == "" {
		t.Fatal("页面为空")
	}
	if got := doc.Find("h1").Text(); got != "甘草" {
		t.Errorf("文档解析: %q", got)
	}
}

func TestDecompressBody(t *testing.T) {
	original := []byte("中药材测试内容")

	var gzBuf bytes.Buffer
	gz := gzip.NewWriter(&gzBuf)
	_, _ = gz.Write(original)
	_ = gz.Close()

	tests := []struct {
		name     string
		encoding string
		body     []byte
		expected []byte
	}{
		{"未压缩", "", original, original},
		{"gzip", "gzip", gzBuf.Bytes(), original},
		{"未知编码原样返回", "snappy", original, original},
		{"gzip头但已被透明解压", "gzip", original, original},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := decompressBody(tt.encoding, tt.body)
			if err != nil {
				t.Fatalf("解压失败: %v", err)
			}
			if !bytes.Equal(got, tt.expected) {
				t.Errorf("期望%q, 实际%q", tt.expected, got)
			}
		})
	}
}
