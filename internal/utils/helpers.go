package utils

import (
	"fmt"
	"math/rand"
	"net/url"
	"time"
)

// ValidateURL 验证URL格式
func ValidateURL(rawURL string) error {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("URL格式无效: %w", err)
	}

	if parsed.Scheme == "" {
		return fmt.Errorf("URL缺少协议(http/https)")
	}

	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return fmt.Errorf("URL协议必须是http或https")
	}

	if parsed.Host == "" {
		return fmt.Errorf("URL缺少主机名")
	}

	return nil
}

// AbsoluteURL 基于页面URL解析相对链接为绝对URL
// 解析失败返回空字符串
func AbsoluteURL(pageURL, href string) string {
	base, err := url.Parse(pageURL)
	if err != nil {
		return ""
	}
	ref, err := base.Parse(href)
	if err != nil {
		return ""
	}
	return ref.String()
}

// RandomDelay 在[min, max]区间随机休眠
// 礼貌性限速, 不是正确性机制
func RandomDelay(min, max time.Duration) {
	if max <= min {
		time.Sleep(min)
		return
	}
	time.Sleep(min + time.Duration(rand.Int63n(int64(max-min))))
}
