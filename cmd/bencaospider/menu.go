package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/bencaodata/bencaospider/internal/core"
	"github.com/bencaodata/bencaospider/internal/models"
)

// runMenu 交互式菜单
// 不带子命令启动时进入, 适合不熟悉命令行参数的使用场景
func runMenu(ctx context.Context) error {
	reader := bufio.NewReader(os.Stdin)

	for {
		if ctx.Err() != nil {
			return nil
		}

		fmt.Println()
		fmt.Println("========== 中药材数据工具 ==========")
		fmt.Println("  1. 爬取药材数据")
		fmt.Println("  2. 处理已爬取的数据")
		fmt.Println("  3. 爬取并处理")
		fmt.Println("  4. 查看站点分类")
		fmt.Println("  0. 退出")
		fmt.Print("请选择操作: ")

		choice, err := readLine(reader)
		if err != nil {
			return nil
		}

		switch choice {
		case "1":
			if err := menuCrawl(ctx, reader, false); err != nil {
				fmt.Printf("爬取失败: %v\n", err)
			}
		case "2":
			if err := menuProcess(reader); err != nil {
				fmt.Printf("处理失败: %v\n", err)
			}
		case "3":
			if err := menuCrawl(ctx, reader, true); err != nil {
				fmt.Printf("执行失败: %v\n", err)
			}
		case "4":
			site := promptSite(reader)
			if err := listCategories(ctx, site); err != nil {
				fmt.Printf("查询失败: %v\n", err)
			}
		case "0", "q", "exit":
			fmt.Println("再见!")
			return nil
		default:
			fmt.Println("无效选择, 请重新输入")
		}
	}
}

// menuCrawl 交互式爬取, andProcess为真时爬完接着处理
func menuCrawl(ctx context.Context, reader *bufio.Reader, andProcess bool) error {
	site := promptSite(reader)

	opts := models.CrawlOptions{
		MaxCategories: promptInt(reader, "分类数上限 (0=不限)", 0),
		MaxHerbs:      promptInt(reader, "每分类药材数上限 (0=不限)", 0),
		MaxPages:      promptInt(reader, "每分类翻页数上限 (0=不限)", 0),
		StartPage:     promptInt(reader, "起始页码", 1),
	}

	if err := runCrawl(ctx, site, opts); err != nil {
		return err
	}
	if !andProcess {
		return nil
	}

	dataFile := filepath.Join(cfg.OutputDir, site+"_herbal_data.json")
	_, err := core.ProcessFile(dataFile)
	return err
}

// menuProcess 交互式处理
func menuProcess(reader *bufio.Reader) error {
	fmt.Printf("数据文件路径 (回车=默认 %s): ", defaultDataFile())
	input, err := readLine(reader)
	if err != nil {
		return err
	}
	if input == "" {
		input = defaultDataFile()
	}

	_, procErr := core.ProcessFile(input)
	return procErr
}

// promptSite 询问站点标识
func promptSite(reader *bufio.Reader) string {
	fmt.Printf("站点 (zhongyoo/zysj, 回车=默认 %s): ", cfg.Site)
	input, err := readLine(reader)
	if err != nil {
		return cfg.Site
	}
	return siteOrDefault(input)
}

// promptInt 询问整数参数, 空输入或解析失败时用默认值
func promptInt(reader *bufio.Reader, label string, defaultVal int) int {
	fmt.Printf("%s [%d]: ", label, defaultVal)
	input, err := readLine(reader)
	if err != nil || input == "" {
		return defaultVal
	}

	n, err := strconv.Atoi(input)
	if err != nil || n < 0 {
		fmt.Println("输入无效, 使用默认值")
		return defaultVal
	}
	return n
}

func readLine(reader *bufio.Reader) (string, error) {
	line, err := reader.ReadString('\n')
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(line), nil
}
