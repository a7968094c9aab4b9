package domain

import "time"

// 可见日期印只支持两种字面模板（老相机日期背印的两种惯例）。
const (
	StampFormatQuoteYY = "quote-yy" // '24 01 31
	StampFormatYYYY    = "yyyy"     // 2024 01 31
)

// 渲染默认值（与胶片翻拍的日期背印观感对齐）。
const (
	DefaultFontRatio    = 0.03
	DefaultBlurStrength = 0.15
	DefaultOffsetX      = -20
	DefaultOffsetY      = -20
)

// StampConfig 是批处理开始时取好的不可变快照。
//
// - FontPath 为空表示走回退链（内置字体 → 系统字体）
// - FontRatio ≤ 0 按 DefaultFontRatio 处理
// - BlurStrength == 0 表示不虚化（纯锐利数字字）
// - Offset 以“观看方向”图像的右下角为锚点，负值朝左上（更靠内）
type StampConfig struct {
	Format       string
	FontPath     string
	FontRatio    float64
	BlurStrength float64
	OffsetX      int
	OffsetY      int
}

// ValidStampFormat 判断模板取值是否合法。
func ValidStampFormat(f string) bool {
	return f == StampFormatQuoteYY || f == StampFormatYYYY
}

// StampText 按模板渲染可见文本（只含日期，不含时刻）。
// 时间戳跨过午夜滚动时，可见日期随之滚动，与 EXIF 与输出文件名保持一致。
func StampText(format string, ts time.Time) string {
	if format == StampFormatYYYY {
		return ts.Format("2006 01 02")
	}
	return "'" + ts.Format("06 01 02")
}
