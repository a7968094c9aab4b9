package fsx

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
)

// 通过可替换的函数指针，让测试能稳定模拟 rename 失败。
var renameFunc = os.Rename

// PathTypeConflictError 表示目标路径类型冲突（例如期望文件但实际是目录）。
type PathTypeConflictError struct {
	Path string
	Want string
	Got  string
}

func (e *PathTypeConflictError) Error() string {
	return fmt.Sprintf("目标路径类型冲突：%q（期望 %s，实际 %s）", e.Path, e.Want, e.Got)
}

func IsPathTypeConflict(err error) bool {
	var e *PathTypeConflictError
	return errors.As(err, &e)
}

// WriteFileAtomicNoOverwrite 在 dir 下原子写入 name（临时文件 + rename）。
//
// - 临时文件必须与目标文件在同目录，以保证 rename 的原子性
// - fsync 是可选但推荐：我们对临时文件做 Sync；目录 Sync 采用 best-effort（避免平台差异导致误报失败）
//
// 注意：冲印输出（stamp 模式的新文件）按契约“不允许覆盖”，用该函数写入；
// 目标名由 outpath 包提前避让，这里的 os.ErrExist 只是最后一道闸。
func WriteFileAtomicNoOverwrite(dir, name string, data []byte) error {
	dst := filepath.Join(filepath.Clean(dir), name)
	if fi, err := os.Lstat(dst); err == nil {
		if fi.IsDir() {
			return &PathTypeConflictError{Path: dst, Want: "file", Got: "dir"}
		}
		if !fi.Mode().IsRegular() {
			return &PathTypeConflictError{Path: dst, Want: "regular file", Got: fi.Mode().Type().String()}
		}
		return os.ErrExist
	} else if !os.IsNotExist(err) {
		return err
	}
	return writeFileAtomic(dir, name, data, 0o644, false)
}

// WriteFileAtomicReplace 写入并覆盖同名文件（尽量保持原子性；Windows 上为 best-effort）。
//
// patch 模式的就地元数据补丁走这里：rename 要么整体成功要么不生效，
// 中途失败/取消不会留下截断的 JPEG。
func WriteFileAtomicReplace(dir, name string, data []byte) error {
	return writeFileAtomic(dir, name, data, 0o644, true)
}

func writeFileAtomic(dir, name string, data []byte, perm os.FileMode, replace bool) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	dst := filepath.Join(dir, name)

	// 创建同目录临时文件（前缀带 '.'，避免污染输出目录视图）。
	tmp, err := os.CreateTemp(dir, "."+name+".tmp-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer func() {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
	}()

	if err := writeAll(tmp, data); err != nil {
		return err
	}
	if err := tmp.Chmod(perm); err != nil {
		return err
	}
	if err := tmp.Sync(); err != nil {
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}

	// rename 原子替换到最终文件名。
	if err := renameFunc(tmpName, dst); err != nil {
		return err
	}

	// 目录 fsync：best-effort（不同平台/文件系统的语义差异很大）。
	_ = syncDirBestEffort(dir)

	// rename 成功后，不应删除最终文件。
	return nil
}

// EnsureDir 确认 dir 存在且确实是目录；不存在时报 os.ErrNotExist 而不是创建。
// 输出目录由用户指定：静默替用户建目录容易把错字变成新目录。
func EnsureDir(dir string) error {
	fi, err := os.Stat(dir)
	if err != nil {
		return err
	}
	if !fi.IsDir() {
		return &PathTypeConflictError{Path: dir, Want: "dir", Got: "file"}
	}
	return nil
}

func writeAll(w io.Writer, b []byte) error {
	for len(b) > 0 {
		n, err := w.Write(b)
		if err != nil {
			return err
		}
		b = b[n:]
	}
	return nil
}

func syncDirBestEffort(dir string) error {
	// Windows 上目录 Sync 的语义与支持情况不稳定，这里直接跳过。
	if runtime.GOOS == "windows" {
		return nil
	}
	f, err := os.Open(dir)
	if err != nil {
		return err
	}
	defer f.Close()
	return f.Sync()
}
