package models

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// Collection 一次爬取会话累计的药材记录集合
// 检查点语义: 每次保存都是对输出文件的整体覆盖, 不是追加日志
type Collection []*HerbRecord

// ToJSON 序列化为带缩进的JSON数组
func (c Collection) ToJSON() ([]byte, error) {
	if c == nil {
		c = Collection{}
	}
	return json.MarshalIndent(c, "", "  ")
}

// SaveToFile 整体覆盖写入检查点文件
func (c Collection) SaveToFile(path string) error {
	data, err := c.ToJSON()
	if err != nil {
		return fmt.Errorf("序列化记录集合失败: %w", err)
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("创建输出目录失败: %w", err)
		}
	}
	return os.WriteFile(path, data, 0644)
}

// LoadCollectionFromFile 从检查点文件加载记录集合
func LoadCollectionFromFile(path string) (Collection, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var c Collection
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("解析数据文件失败: %w", err)
	}
	return c, nil
}

// BackupFile 覆盖前备份已有的输出文件
// 备份文件名: 原文件名_YYYYMMDD_HHMMSS.json; 文件不存在时为空操作
func BackupFile(path string) (string, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return "", nil
	}
	if err != nil {
		return "", err
	}

	timestamp := time.Now().Format("20060102_150405")
	ext := filepath.Ext(path)
	backup := fmt.Sprintf("%s_%s%s", path[:len(path)-len(ext)], timestamp, ext)

	if err := os.WriteFile(backup, data, 0644); err != nil {
		return "", fmt.Errorf("写入备份文件失败: %w", err)
	}
	return backup, nil
}
