package imgx

import (
	"bytes"
	"errors"
	"image"

	"github.com/disintegration/imaging"
)

// Quality 是冲印输出的 JPEG 编码质量。
// 贴标会重编码像素，质量给高一点，避免在原片基础上再叠一层明显压缩。
const Quality = 95

// DecodeJPEG 解码 JPEG 字节为像素。
//
// 约束：
// - 只服务贴标链路；就地补丁模式从不触碰像素
// - 解码失败视为容器损坏，由调用方归类
func DecodeJPEG(data []byte) (image.Image, error) {
	if len(data) == 0 {
		return nil, errors.New("输入为空")
	}
	img, err := imaging.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	return img, nil
}

// ApplyOrientation 把 EXIF 方向烘焙进像素，返回视觉上转正的副本。
// 方向值与变换的对应关系按 EXIF 规范的 1~8 表；未知值按已转正处理。
func ApplyOrientation(img image.Image, orientation uint16) *image.NRGBA {
	switch orientation {
	case 2:
		return imaging.FlipH(img)
	case 3:
		return imaging.Rotate180(img)
	case 4:
		return imaging.FlipV(img)
	case 5:
		return imaging.Transpose(img)
	case 6:
		// EXIF 的 6 表示需顺时针转 90°；imaging 的角度是逆时针。
		return imaging.Rotate270(img)
	case 7:
		return imaging.Transverse(img)
	case 8:
		return imaging.Rotate90(img)
	default:
		return imaging.Clone(img)
	}
}

// EncodeJPEG 把像素编码为 JPEG 字节（质量固定为 Quality）。
func EncodeJPEG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(Quality)); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
