// Package stamp 在照片右下角叠印胶片冲印机风格的日期角标。
package stamp

import (
	"image"
	"image/color"
	"image/draw"
	"math"
	"time"

	"github.com/disintegration/imaging"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
	"golang.org/x/image/math/fixed"

	"github.com/John-Robertt/FEDS/internal/domain"
)

// 复刻冲印机数字的橙红色。
var stampColor = color.NRGBA{R: 255, G: 110, B: 40, A: 255}

const (
	// 字号与留边按短边比例缩放，但各有下限，小图上也要可读。
	minFontPx   = 18
	minMarginPx = 12
	marginRatio = 0.02

	// 辉光半径 = 字号 × glowRatio × 模糊强度。
	glowRatio = 0.18
)

// Render 返回叠印角标后的新图；输入像素不被修改。
//
// 约束：
// - img 必须已经是视觉转正的（方向在上游烘焙进像素）
// - cfg.FontRatio <= 0 时取默认比例；模糊强度为 0 时没有辉光层
func Render(img image.Image, ts time.Time, cfg domain.StampConfig, f *truetype.Font) *image.NRGBA {
	out := imaging.Clone(img)
	b := out.Bounds()

	minSide := b.Dx()
	if b.Dy() < minSide {
		minSide = b.Dy()
	}

	ratio := cfg.FontRatio
	if ratio <= 0 {
		ratio = domain.DefaultFontRatio
	}
	fontPx := int(math.Round(float64(minSide) * ratio))
	if fontPx < minFontPx {
		fontPx = minFontPx
	}

	face := truetype.NewFace(f, &truetype.Options{Size: float64(fontPx), DPI: 72})
	defer face.Close()

	text := domain.StampText(cfg.Format, ts)

	measure := &font.Drawer{Face: face}
	textW := measure.MeasureString(text).Ceil()
	metrics := face.Metrics()
	ascent := metrics.Ascent.Ceil()
	textH := ascent + metrics.Descent.Ceil()

	margin := int(math.Round(float64(minSide) * marginRatio))
	if margin < minMarginPx {
		margin = minMarginPx
	}

	// 锚点在右下角；偏移量为负时向左上挪。
	x := b.Max.X - margin - textW + cfg.OffsetX
	y := b.Max.Y - margin - textH + cfg.OffsetY
	if x < b.Min.X {
		x = b.Min.X
	}
	if y < b.Min.Y {
		y = b.Min.Y
	}

	var radius float64
	if cfg.BlurStrength > 0 {
		radius = float64(fontPx) * glowRatio * cfg.BlurStrength
		if radius < 1 {
			radius = 1
		}
	}
	// 图层四周留出模糊扩散的余量。
	pad := int(radius*3) + 2

	layer := image.NewNRGBA(image.Rect(0, 0, textW+2*pad, textH+2*pad))
	ld := &font.Drawer{
		Dst:  layer,
		Src:  image.NewUniform(stampColor),
		Face: face,
		Dot:  fixed.P(pad, pad+ascent),
	}
	ld.DrawString(text)

	dstRect := image.Rect(x-pad, y-pad, x-pad+layer.Bounds().Dx(), y-pad+layer.Bounds().Dy())

	// 辉光先铺一层，再压实色文字。
	if radius > 0 {
		glow := imaging.Blur(layer, radius)
		draw.Draw(out, dstRect, glow, image.Point{}, draw.Over)
	}
	draw.Draw(out, dstRect, layer, image.Point{}, draw.Over)

	return out
}
