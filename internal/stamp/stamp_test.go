package stamp

import (
	"image"
	"image/color"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font/gofont/gomono"

	"github.com/John-Robertt/FEDS/internal/domain"
)

func bundledFont(t *testing.T) *truetype.Font {
	t.Helper()
	f, tier, err := ResolveFont("")
	if err != nil {
		t.Fatalf("解析内置字体失败：%v", err)
	}
	if tier != FontBundled {
		t.Fatalf("期望内置字体，实际：%v", tier)
	}
	return f
}

func blackCanvas(w, h int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetNRGBA(x, y, color.NRGBA{A: 255})
		}
	}
	return img
}

func defaultCfg() domain.StampConfig {
	return domain.StampConfig{
		Format:       domain.StampFormatQuoteYY,
		FontRatio:    domain.DefaultFontRatio,
		BlurStrength: domain.DefaultBlurStrength,
		OffsetX:      domain.DefaultOffsetX,
		OffsetY:      domain.DefaultOffsetY,
	}
}

// 有没有角标颜色落进指定区域。
func stampedIn(img *image.NRGBA, r image.Rectangle) bool {
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			c := img.NRGBAAt(x, y)
			if c.R > 150 && c.B < 120 {
				return true
			}
		}
	}
	return false
}

func leftmostStamped(img *image.NRGBA) int {
	b := img.Bounds()
	for x := b.Min.X; x < b.Max.X; x++ {
		for y := b.Min.Y; y < b.Max.Y; y++ {
			c := img.NRGBAAt(x, y)
			if c.R > 150 && c.B < 120 {
				return x
			}
		}
	}
	return -1
}

func TestResolveFont_ExplicitWins(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "mono.ttf")
	if err := os.WriteFile(p, gomono.TTF, 0o644); err != nil {
		t.Fatalf("预置字体文件失败：%v", err)
	}

	f, tier, err := ResolveFont(p)
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	if tier != FontExplicit || f == nil {
		t.Fatalf("期望显式字体命中，实际：%v", tier)
	}
}

func TestResolveFont_ExplicitMissingFallsBack(t *testing.T) {
	f, tier, err := ResolveFont(filepath.Join(t.TempDir(), "missing.ttf"))
	if err != nil {
		t.Fatalf("降级链不应报错：%v", err)
	}
	if tier != FontBundled || f == nil {
		t.Fatalf("期望降级到内置字体，实际：%v", tier)
	}
}

func TestRender_PaintsBottomRightOnly(t *testing.T) {
	f := bundledFont(t)
	src := blackCanvas(400, 300)

	out := Render(src, time.Date(2024, 1, 31, 14, 30, 0, 0, time.Local), defaultCfg(), f)

	if !stampedIn(out, image.Rect(200, 150, 400, 300)) {
		t.Fatalf("右下象限没有角标")
	}
	// 左上象限必须原封不动。
	for y := 0; y < 150; y++ {
		for x := 0; x < 200; x++ {
			if c := out.NRGBAAt(x, y); c != (color.NRGBA{A: 255}) {
				t.Fatalf("左上象限被污染：(%d,%d)=%v", x, y, c)
			}
		}
	}
}

func TestRender_DoesNotMutateInput(t *testing.T) {
	f := bundledFont(t)
	src := blackCanvas(400, 300)

	_ = Render(src, time.Date(2024, 1, 31, 14, 30, 0, 0, time.Local), defaultCfg(), f)

	b := src.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			if c := src.NRGBAAt(x, y); c != (color.NRGBA{A: 255}) {
				t.Fatalf("输入图被修改：(%d,%d)=%v", x, y, c)
			}
		}
	}
}

func TestRender_NoBlurStillVisible(t *testing.T) {
	f := bundledFont(t)
	cfg := defaultCfg()
	cfg.BlurStrength = 0

	out := Render(blackCanvas(400, 300), time.Date(2024, 1, 31, 14, 30, 0, 0, time.Local), cfg, f)

	if !stampedIn(out, image.Rect(200, 150, 400, 300)) {
		t.Fatalf("无辉光时角标也必须可见")
	}
}

func TestRender_OffsetShiftsPosition(t *testing.T) {
	f := bundledFont(t)
	ts := time.Date(2024, 1, 31, 14, 30, 0, 0, time.Local)

	base := defaultCfg()
	base.OffsetX = 0
	shifted := defaultCfg()
	shifted.OffsetX = -80

	a := leftmostStamped(Render(blackCanvas(400, 300), ts, base, f))
	b := leftmostStamped(Render(blackCanvas(400, 300), ts, shifted, f))
	if a < 0 || b < 0 {
		t.Fatalf("角标缺失：a=%d b=%d", a, b)
	}
	if b >= a {
		t.Fatalf("负偏移应左移角标：a=%d b=%d", a, b)
	}
}

func TestRender_SmallImageKeepsMinimumFont(t *testing.T) {
	f := bundledFont(t)

	// 120px 短边按比例只有 3~4px，字号应该被抬到下限，仍然可见。
	out := Render(blackCanvas(160, 120), time.Date(2024, 1, 31, 14, 30, 0, 0, time.Local), defaultCfg(), f)

	if !stampedIn(out, out.Bounds()) {
		t.Fatalf("小图上角标不可见")
	}
}
