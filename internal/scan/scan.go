// Package scan 把命令行给的文件与目录参数展开成有序的 JPEG 清单。
package scan

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Expand 展开输入参数。
//
// 规则（硬约束）：
// - 显式文件按给定顺序保留；扩展名必须是 .jpg/.jpeg
// - 目录只取第一层的 JPEG，按文件名（不区分大小写）排序后插入
// - 参数指向的路径必须存在；目录里没有 JPEG 不算错
// - 同一文件出现多次只保留第一次（按绝对路径去重）
//
// 注意：展开阶段只做 stat/ReadDir，不读文件内容。
func Expand(args []string) ([]string, error) {
	out := make([]string, 0, len(args))
	seen := make(map[string]struct{})

	add := func(p string) error {
		abs, err := filepath.Abs(filepath.Clean(p))
		if err != nil {
			return err
		}
		if _, ok := seen[abs]; ok {
			return nil
		}
		seen[abs] = struct{}{}
		out = append(out, abs)
		return nil
	}

	for _, arg := range args {
		arg = strings.TrimSpace(arg)
		if arg == "" {
			continue
		}

		fi, err := os.Stat(arg)
		if err != nil {
			return nil, err
		}

		if !fi.IsDir() {
			if !isJPEGExt(filepath.Ext(arg)) {
				return nil, fmt.Errorf("不支持的输入：%q（只接受 JPEG）", arg)
			}
			if err := add(arg); err != nil {
				return nil, err
			}
			continue
		}

		entries, err := os.ReadDir(arg)
		if err != nil {
			return nil, err
		}
		names := make([]string, 0, len(entries))
		for _, e := range entries {
			if e.IsDir() || !isJPEGExt(filepath.Ext(e.Name())) {
				continue
			}
			names = append(names, e.Name())
		}
		// 相机导出常是大小写混杂的 DSC_x.JPG：排序不区分大小写，
		// 避免不同平台/文件系统行为差异带来的不确定性。
		sort.Slice(names, func(i, j int) bool {
			return strings.ToLower(names[i]) < strings.ToLower(names[j])
		})
		for _, name := range names {
			if err := add(filepath.Join(arg, name)); err != nil {
				return nil, err
			}
		}
	}

	return out, nil
}

func isJPEGExt(ext string) bool {
	switch strings.ToLower(ext) {
	case ".jpg", ".jpeg":
		return true
	default:
		return false
	}
}
