package stamp

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font/gofont/gomono"
)

// FontTier 标记最终命中的字体来自降级链条的哪一级。
type FontTier int

const (
	FontExplicit FontTier = iota + 1
	FontBundled
	FontSystem
)

func (t FontTier) String() string {
	switch t {
	case FontExplicit:
		return "explicit"
	case FontBundled:
		return "bundled"
	case FontSystem:
		return "system"
	default:
		return "unknown"
	}
}

// NoFontError 表示整条字体链都不可用。
type NoFontError struct {
	Tried []string
}

func (e *NoFontError) Error() string {
	return fmt.Sprintf("没有可用字体（尝试过 %d 个候选）", len(e.Tried))
}

func IsNoFont(err error) bool {
	var e *NoFontError
	return errors.As(err, &e)
}

// ResolveFont 按固定顺序解析角标字体：
// 显式路径 → 内置等宽字体 → 系统字体。任何一级失败都继续向下，
// 全部失败才返回 NoFontError。显式路径失败不是硬错误，调用方可据
// 返回的 FontTier 提示用户发生了降级。
func ResolveFont(explicit string) (*truetype.Font, FontTier, error) {
	var tried []string

	if explicit != "" {
		tried = append(tried, explicit)
		if f, err := loadFontFile(explicit); err == nil {
			return f, FontExplicit, nil
		}
	}

	tried = append(tried, "builtin:gomono")
	if f, err := truetype.Parse(gomono.TTF); err == nil {
		return f, FontBundled, nil
	}

	for _, p := range systemFontCandidates() {
		tried = append(tried, p)
		if f, err := loadFontFile(p); err == nil {
			return f, FontSystem, nil
		}
	}

	return nil, 0, &NoFontError{Tried: tried}
}

func loadFontFile(path string) (*truetype.Font, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return truetype.Parse(b)
}

func systemFontCandidates() []string {
	switch runtime.GOOS {
	case "windows":
		windir := os.Getenv("WINDIR")
		if windir == "" {
			windir = `C:\Windows`
		}
		return []string{
			filepath.Join(windir, "Fonts", "consola.ttf"),
			filepath.Join(windir, "Fonts", "cour.ttf"),
			filepath.Join(windir, "Fonts", "arial.ttf"),
		}
	case "darwin":
		return []string{
			"/System/Library/Fonts/Monaco.ttf",
			"/System/Library/Fonts/Supplemental/Courier New.ttf",
			"/Library/Fonts/Arial.ttf",
		}
	default:
		return []string{
			"/usr/share/fonts/truetype/dejavu/DejaVuSansMono.ttf",
			"/usr/share/fonts/truetype/liberation/LiberationMono-Regular.ttf",
			"/usr/share/fonts/TTF/DejaVuSansMono.ttf",
		}
	}
}
