package domain

import (
	"strings"
	"time"
)

// ExifTimeLayout 是 EXIF DateTime 三件套的固定格式；本编解码器只认这一种。
const ExifTimeLayout = "2006:01:02 15:04:05"

func FormatExifTime(t time.Time) string {
	return t.Format(ExifTimeLayout)
}

// Metadata 是一次批处理共享的自由文本与可选 GPS。
// 核心只把这些当不透明字符串（来源是 CLI 参数或相机档案）。
type Metadata struct {
	Camera string
	Lens   string
	Film   string
	GPS    *GeoCoordinate
}

// ExifPayload 是要合并进单个文件的逻辑标签集合。
//
// 说明：
// - DateTime/DateTimeOriginal/DateTimeDigitized 共用同一字符串
// - 未列出的既有标签必须原样保留（merge 语义由编解码器实现）
// - Orientation==0 表示“保留既有值，缺省 1”；非 0 表示显式覆盖
type ExifPayload struct {
	DateTime    string
	Description string
	UserComment string
	GPS         *GeoCoordinate
	Orientation uint16
}

// PayloadFor 由批级元数据 + 条目时间戳构造该条目的 payload。
// 胶片信息进 ImageDescription；相机与镜头拼接进 UserComment；空字段不写标签。
func PayloadFor(md Metadata, ts time.Time) ExifPayload {
	return ExifPayload{
		DateTime:    FormatExifTime(ts),
		Description: strings.TrimSpace(md.Film),
		UserComment: joinNonEmpty(" | ", md.Camera, md.Lens),
		GPS:         md.GPS,
	}
}

func joinNonEmpty(sep string, parts ...string) string {
	kept := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, sep)
}
