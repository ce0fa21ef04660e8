// Package fetch 封装HTTP抓取层。
// 在colly之上提供同步的单页抓取接口: 请求头伪装、失败重试、
// 响应解压和编码识别都在这一层完成, 上层拿到的是UTF-8文本。
package fetch

import (
	"bytes"
	"compress/flate"
	"compress/gzip"
	"compress/zlib"
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	browser "github.com/EDDYCJY/fake-useragent"
	"github.com/PuerkitoBio/goquery"
	"github.com/andybalholm/brotli"
	"github.com/gocolly/colly/v2"

	"github.com/bencaodata/bencaospider/internal/encoding"
	"github.com/bencaodata/bencaospider/internal/utils"
)

// stateKey 请求级状态在colly上下文里的键名
const stateKey = "fetch_state"

// Config 抓取层配置
type Config struct {
	Timeout        time.Duration // 单次请求超时
	MaxRetries     int           // 失败重试次数
	RetryMinDelay  time.Duration // 重试前随机延时下限
	RetryMaxDelay  time.Duration // 重试前随机延时上限
	AllowedDomains []string      // 允许访问的域名, 空表示不限制
	UserAgent      string        // 固定UA, 空表示每次请求随机
}

// DefaultConfig 默认抓取配置
func DefaultConfig() Config {
	return Config{
		Timeout:       15 * time.Second,
		MaxRetries:    3,
		RetryMinDelay: 1 * time.Second,
		RetryMaxDelay: 3 * time.Second,
	}
}

// Page 抓取结果, Body已解码为UTF-8
type Page struct {
	URL        string
	Body       string
	Encoding   string // 命中的源编码, 如"gbk"
	StatusCode int
}

// fetchState 单次抓取的请求级状态, 通过colly上下文在回调间传递
type fetchState struct {
	ctx      context.Context
	attempts int
	page     *Page
	err      error
}

// Fetcher 同步抓取器
// 非并发设计: 同一实例的Fetch调用必须串行
type Fetcher struct {
	collector *colly.Collector
	resolver  *encoding.Resolver
	cfg       Config
}

// NewFetcher 创建抓取器
func NewFetcher(cfg Config) *Fetcher {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultConfig().Timeout
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = DefaultConfig().MaxRetries
	}
	if cfg.RetryMinDelay <= 0 {
		cfg.RetryMinDelay = DefaultConfig().RetryMinDelay
	}
	if cfg.RetryMaxDelay < cfg.RetryMinDelay {
		cfg.RetryMaxDelay = cfg.RetryMinDelay
	}

	opts := []colly.CollectorOption{
		colly.AllowURLRevisit(),
	}
	if len(cfg.AllowedDomains) > 0 {
		opts = append(opts, colly.AllowedDomains(cfg.AllowedDomains...))
	}

	c := colly.NewCollector(opts...)
	c.SetRequestTimeout(cfg.Timeout)

	f := &Fetcher{
		collector: c,
		resolver:  encoding.NewResolver(),
		cfg:       cfg,
	}

	c.OnRequest(func(r *colly.Request) {
		ua := cfg.UserAgent
		if ua == "" {
			ua = browser.Random()
		}
		r.Headers.Set("User-Agent", ua)
		r.Headers.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
		r.Headers.Set("Accept-Language", "zh-CN,zh;q=0.9,en;q=0.5")
		// 手动声明压缩格式, 解压自己做, 保证拿到的是原始字节再做编码识别
		r.Headers.Set("Accept-Encoding", "gzip, deflate, br")
	})

	c.OnResponse(func(r *colly.Response) {
		st, ok := r.Ctx.GetAny(stateKey).(*fetchState)
		if !ok {
			return
		}

		body, err := decompressBody(r.Headers.Get("Content-Encoding"), r.Body)
		if err != nil {
			st.err = fmt.Errorf("响应解压失败: %w", err)
			return
		}

		text, encName := f.resolver.Resolve(body)
		st.page = &Page{
			URL:        r.Request.URL.String(),
			Body:       text,
			Encoding:   encName,
			StatusCode: r.StatusCode,
		}
		st.err = nil
	})

	c.OnError(func(r *colly.Response, err error) {
		st, ok := r.Ctx.GetAny(stateKey).(*fetchState)
		if !ok {
			return
		}

		st.attempts++
		if st.attempts < f.cfg.MaxRetries && st.ctx.Err() == nil {
			utils.Warnf("请求失败, 第%d次重试: %s (%v)", st.attempts, r.Request.URL, err)
			utils.RandomDelay(f.cfg.RetryMinDelay, f.cfg.RetryMaxDelay)
			if retryErr := r.Request.Retry(); retryErr != nil && st.page == nil && st.err == nil {
				st.err = retryErr
			}
			return
		}
		st.err = fmt.Errorf("请求失败(重试%d次后放弃): %w", st.attempts, err)
	})

	return f
}

// Fetch 抓取单个页面并解码为UTF-8文本
// 上下文取消后不再发起重试
func (f *Fetcher) Fetch(ctx context.Context, pageURL string) (*Page, error) {
	if err := utils.ValidateURL(pageURL); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	st := &fetchState{ctx: ctx}
	cctx := colly.NewContext()
	cctx.Put(stateKey, st)

	if err := f.collector.Request("GET", pageURL, nil, cctx, nil); err != nil && st.page == nil {
		return nil, fmt.Errorf("发起请求失败: %w", err)
	}

	if st.page != nil {
		utils.Debugf("抓取成功: %s (编码=%s, 状态=%d)", pageURL, st.page.Encoding, st.page.StatusCode)
		return st.page, nil
	}
	if st.err != nil {
		return nil, st.err
	}
	return nil, fmt.Errorf("抓取无响应: %s", pageURL)
}

// Document 抓取页面并解析为goquery文档
func (f *Fetcher) Document(ctx context.Context, pageURL string) (*goquery.Document, *Page, error) {
	page, err := f.Fetch(ctx, pageURL)
	if err != nil {
		return nil, nil, err
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(page.Body))
	if err != nil {
		return nil, page, fmt.Errorf("解析HTML失败: %w", err)
	}
	return doc, page, nil
}

// decompressBody 根据Content-Encoding解压响应体
// 未声明压缩或不识别的编码时原样返回。传输层可能已经透明解压过,
// 解压失败时也按已解压处理而不是报错。
func decompressBody(contentEncoding string, body []byte) ([]byte, error) {
	var reader io.ReadCloser

	switch strings.ToLower(strings.TrimSpace(contentEncoding)) {
	case "gzip":
		gz, err := gzip.NewReader(bytes.NewReader(body))
		if err != nil {
			return body, nil
		}
		reader = gz
	case "deflate":
		// 部分服务器发送的deflate实际是zlib封装
		zr, err := zlib.NewReader(bytes.NewReader(body))
		if err != nil {
			reader = flate.NewReader(bytes.NewReader(body))
		} else {
			reader = zr
		}
	case "br":
		reader = io.NopCloser(brotli.NewReader(bytes.NewReader(body)))
	default:
		return body, nil
	}
	defer reader.Close()

	decompressed, err := io.ReadAll(reader)
	if err != nil {
		return body, nil
	}
	return decompressed, nil
}
