// Package exifx 负责 JPEG 容器内 EXIF 的读写。
//
// 写入走“解析 → 构建器 → 仅替换 APP1 → 重新序列化”的路径：
// 非 EXIF 段（图像数据、ICC、其他 APP 段）原样保留。
package exifx

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	exif "github.com/dsoprea/go-exif/v3"
	exifcommon "github.com/dsoprea/go-exif/v3/common"
	exifundefined "github.com/dsoprea/go-exif/v3/undefined"
	jpegstructure "github.com/dsoprea/go-jpeg-image-structure/v2"

	"github.com/John-Robertt/FEDS/internal/domain"
	"github.com/John-Robertt/FEDS/internal/infra/fsx"
)

// Source 标记本次写入的 EXIF 构建器来自哪里。
type Source int

const (
	// SourceExisting：在原有 EXIF 块的基础上合并（未触碰的标签保留）。
	SourceExisting Source = iota + 1
	// SourceSynthesized：原图没有 EXIF 或 EXIF 块无法解析，整块重建。
	SourceSynthesized
)

func (s Source) String() string {
	switch s {
	case SourceExisting:
		return "existing"
	case SourceSynthesized:
		return "synthesized"
	default:
		return "unknown"
	}
}

// MalformedContainerError 表示字节流不是可解析的 JPEG 容器。
// 注意与 EXIF 块损坏区分：后者可以通过整块重建恢复，前者不能。
type MalformedContainerError struct {
	Path string
	Err  error
}

func (e *MalformedContainerError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("JPEG 容器无法解析：%v", e.Err)
	}
	return fmt.Sprintf("JPEG 容器无法解析：%q：%v", e.Path, e.Err)
}

func (e *MalformedContainerError) Unwrap() error { return e.Err }

func IsMalformedContainer(err error) bool {
	var e *MalformedContainerError
	return errors.As(err, &e)
}

// gpsVersion22 是写入 GPSVersionID 的固定值。
// 约束：主流读取方（含 go-exif 自身的 GpsInfo）只认 2.2/2.3，别写别的。
var gpsVersion22 = []byte{2, 2, 0, 0}

// Meta 是读取侧的扁平视图，仅覆盖本工具会写入的字段。
type Meta struct {
	DateTime          string
	DateTimeOriginal  string
	DateTimeDigitized string
	Description       string
	UserComment       string
	Orientation       uint16
	GPS               *domain.GeoCoordinate
}

// Patch 把 payload 写进 data 的 EXIF，返回新的完整 JPEG 字节。
//
// 规则：
// - 原有 EXIF 可解析 → 在其上合并（payload 之外的标签不动）
// - 无 EXIF 或 EXIF 块损坏 → 整块重建（容器仍可用时不把任务判死）
// - payload.Orientation == 0 → 沿用原图方向；原图也没有时写 1
func Patch(data []byte, p domain.ExifPayload) ([]byte, Source, error) {
	sl, err := parse(data)
	if err != nil {
		return nil, 0, err
	}

	rootIfd, _, exifErr := sl.Exif()

	var rootIb *exif.IfdBuilder
	src := SourceSynthesized
	if exifErr == nil {
		if ib, err := sl.ConstructExifBuilder(); err == nil {
			rootIb = ib
			src = SourceExisting
		}
	}
	if rootIb == nil {
		ib, err := newSynthesizedBuilder()
		if err != nil {
			return nil, 0, err
		}
		rootIb = ib
	}

	if p.Orientation == 0 {
		p.Orientation = 1
		if exifErr == nil {
			if o := orientationFrom(rootIfd); o != 0 {
				p.Orientation = o
			}
		}
	}

	if err := applyPayload(rootIb, p); err != nil {
		return nil, src, err
	}
	if err := sl.SetExif(rootIb); err != nil {
		return nil, src, err
	}

	buf := new(bytes.Buffer)
	if err := sl.Write(buf); err != nil {
		return nil, src, err
	}
	return buf.Bytes(), src, nil
}

// WriteInPlace 读取 path、打补丁并原子替换原文件。
func WriteInPlace(path string, p domain.ExifPayload) (Source, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}

	out, src, err := Patch(data, p)
	if err != nil {
		var mce *MalformedContainerError
		if errors.As(err, &mce) && mce.Path == "" {
			mce.Path = path
		}
		return src, err
	}

	if err := fsx.WriteFileAtomicReplace(filepath.Dir(path), filepath.Base(path), out); err != nil {
		return src, err
	}
	return src, nil
}

// ReadMeta 从 JPEG 字节里读出本工具关心的 EXIF 字段。
// 无 EXIF 返回零值 Meta；字段缺失/无法解码按缺失处理，不报错。
func ReadMeta(data []byte) (Meta, error) {
	var m Meta

	rawExif, err := exif.SearchAndExtractExif(data)
	if err != nil {
		if errors.Is(err, exif.ErrNoExif) {
			return m, nil
		}
		return m, err
	}

	im, err := exifcommon.NewIfdMappingWithStandard()
	if err != nil {
		return m, err
	}
	ti := exif.NewTagIndex()

	_, index, err := exif.Collect(im, ti, rawExif)
	if err != nil {
		return m, err
	}
	root := index.RootIfd

	m.DateTime = findString(root, "DateTime")
	m.Description = findString(root, "ImageDescription")
	m.Orientation = orientationFrom(root)

	if exifIfd, err := root.ChildWithIfdPath(exifcommon.IfdExifStandardIfdIdentity); err == nil {
		m.DateTimeOriginal = findString(exifIfd, "DateTimeOriginal")
		m.DateTimeDigitized = findString(exifIfd, "DateTimeDigitized")
		m.UserComment = findUserComment(exifIfd)
	}

	if gpsIfd, err := root.ChildWithIfdPath(exifcommon.IfdGpsInfoStandardIfdIdentity); err == nil {
		if gi, err := gpsIfd.GpsInfo(); err == nil {
			m.GPS = &domain.GeoCoordinate{
				Lat: gi.Latitude.Decimal(),
				Lon: gi.Longitude.Decimal(),
			}
		}
	}

	return m, nil
}

// ReadOrientation 返回 EXIF Orientation；读不到就是 0（调用方按 1 处理）。
func ReadOrientation(data []byte) uint16 {
	m, err := ReadMeta(data)
	if err != nil {
		return 0
	}
	return m.Orientation
}

func parse(data []byte) (*jpegstructure.SegmentList, error) {
	jmp := jpegstructure.NewJpegMediaParser()
	if !jmp.LooksLikeFormat(data) {
		return nil, &MalformedContainerError{Err: errors.New("缺少 JPEG SOI 头")}
	}
	intfc, err := jmp.ParseBytes(data)
	if err != nil {
		return nil, &MalformedContainerError{Err: err}
	}
	sl, ok := intfc.(*jpegstructure.SegmentList)
	if !ok {
		return nil, &MalformedContainerError{Err: fmt.Errorf("意外的解析结果类型 %T", intfc)}
	}
	return sl, nil
}

func newSynthesizedBuilder() (*exif.IfdBuilder, error) {
	im, err := exifcommon.NewIfdMappingWithStandard()
	if err != nil {
		return nil, err
	}
	ti := exif.NewTagIndex()

	ib := exif.NewIfdBuilder(im, ti, exifcommon.IfdStandardIfdIdentity, exifcommon.EncodeDefaultByteOrder)
	return ib, nil
}

func applyPayload(rootIb *exif.IfdBuilder, p domain.ExifPayload) error {
	ifd0, err := exif.GetOrCreateIbFromRootIb(rootIb, "IFD0")
	if err != nil {
		return err
	}
	if p.DateTime != "" {
		if err := ifd0.SetStandardWithName("DateTime", p.DateTime); err != nil {
			return err
		}
	}
	if p.Description != "" {
		if err := ifd0.SetStandardWithName("ImageDescription", p.Description); err != nil {
			return err
		}
	}
	if p.Orientation != 0 {
		if err := ifd0.SetStandardWithName("Orientation", []uint16{p.Orientation}); err != nil {
			return err
		}
	}

	exifIb, err := exif.GetOrCreateIbFromRootIb(rootIb, "IFD/Exif")
	if err != nil {
		return err
	}
	if p.DateTime != "" {
		if err := exifIb.SetStandardWithName("DateTimeOriginal", p.DateTime); err != nil {
			return err
		}
		if err := exifIb.SetStandardWithName("DateTimeDigitized", p.DateTime); err != nil {
			return err
		}
	}
	if p.UserComment != "" {
		uc := exifundefined.Tag9286UserComment{
			EncodingType:  exifundefined.TagUndefinedType_9286_UserComment_Encoding_ASCII,
			EncodingBytes: []byte(p.UserComment),
		}
		if err := exifIb.SetStandardWithName("UserComment", uc); err != nil {
			return err
		}
	}

	if p.GPS != nil {
		if err := setGps(rootIb, *p.GPS); err != nil {
			return err
		}
	}
	return nil
}

func setGps(rootIb *exif.IfdBuilder, gps domain.GeoCoordinate) error {
	gpsIb, err := exif.GetOrCreateIbFromRootIb(rootIb, "IFD/GPSInfo")
	if err != nil {
		return err
	}
	if err := gpsIb.SetStandardWithName("GPSVersionID", gpsVersion22); err != nil {
		return err
	}

	lat := gps.LatDMS()
	if err := gpsIb.SetStandardWithName("GPSLatitudeRef", string(rune(lat.Ref))); err != nil {
		return err
	}
	if err := gpsIb.SetStandardWithName("GPSLatitude", rationals(lat)); err != nil {
		return err
	}

	lon := gps.LonDMS()
	if err := gpsIb.SetStandardWithName("GPSLongitudeRef", string(rune(lon.Ref))); err != nil {
		return err
	}
	if err := gpsIb.SetStandardWithName("GPSLongitude", rationals(lon)); err != nil {
		return err
	}
	return nil
}

// rationals 把度分秒转成 EXIF 的有理数三元组。秒保留两位小数（分母 100）。
func rationals(d domain.DMS) []exifcommon.Rational {
	g := exif.GpsDegrees{
		Orientation: d.Ref,
		Degrees:     float64(d.Degrees),
		Minutes:     float64(d.Minutes),
		Seconds:     d.Seconds,
	}
	return g.Raw()
}

func orientationFrom(ifd *exif.Ifd) uint16 {
	results, err := ifd.FindTagWithName("Orientation")
	if err != nil || len(results) == 0 {
		return 0
	}
	v, err := results[0].Value()
	if err != nil {
		return 0
	}
	if s, ok := v.([]uint16); ok && len(s) > 0 {
		return s[0]
	}
	return 0
}

func findString(ifd *exif.Ifd, name string) string {
	results, err := ifd.FindTagWithName(name)
	if err != nil || len(results) == 0 {
		return ""
	}
	v, err := results[0].Value()
	if err != nil {
		return ""
	}
	s, _ := v.(string)
	return s
}

func findUserComment(ifd *exif.Ifd) string {
	results, err := ifd.FindTagWithName("UserComment")
	if err != nil || len(results) == 0 {
		return ""
	}
	v, err := results[0].Value()
	if err != nil {
		return ""
	}
	switch uc := v.(type) {
	case exifundefined.Tag9286UserComment:
		if uc.EncodingType == exifundefined.TagUndefinedType_9286_UserComment_Encoding_ASCII {
			return string(uc.EncodingBytes)
		}
	case string:
		return uc
	}
	return ""
}
