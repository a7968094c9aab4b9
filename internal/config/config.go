// Package config 合并 CLI 参数与相机档案，产出运行期配置。
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/John-Robertt/FEDS/internal/domain"
	"github.com/John-Robertt/FEDS/internal/infra/fsx"
	"github.com/John-Robertt/FEDS/internal/profile"
)

const (
	// DefaultStartClock 是未指定 --time 时首张照片的起始时刻。
	// 胶卷通常只记得拍摄日期；取正午，整卷顺排下来也不容易跨天。
	DefaultStartClock = "12:00"

	dateLayout  = "2006-01-02"
	clockLayout = "15:04"
)

// CLIArgs 只承载 CLI 暴露的参数，并保留“是否显式指定”的信息。
// 这能保证覆盖优先级可实现：例如 --film "" 必须能清空档案里的胶卷名。
type CLIArgs struct {
	Date  string
	Clock string

	Camera    string
	CameraSet bool
	Lens      string
	LensSet   bool
	Film      string
	FilmSet   bool

	Lat    float64
	LatSet bool
	Lon    float64
	LonSet bool

	// ProfilePath 指定具体档案文件；ProfileDir 则取目录里最近的档案。
	ProfilePath string
	ProfileDir  string

	Stamp  bool
	OutDir string

	FontPath     string
	FontRatio    float64
	FontRatioSet bool
	Blur         float64
	BlurSet      bool
	OffsetX      int
	OffsetXSet   bool
	OffsetY      int
	OffsetYSet   bool
	Format       string

	IgnoreErrors bool
}

// EffectiveConfig 是合并并校验后的最终配置（实现层直接消费，不再做二次默认/优先级判断）。
type EffectiveConfig struct {
	Start time.Time
	Meta  domain.Metadata

	Mode   string // domain.ModePatch / domain.ModeStamp
	OutDir string
	Stamp  domain.StampConfig

	IgnoreErrors bool
}

// Error 是配置阶段的结构化错误（带 error_code）。
type Error struct {
	Code string
	Path string
	Err  error
}

func (e *Error) Error() string {
	switch {
	case e.Err != nil && e.Path != "":
		return fmt.Sprintf("%s：%q：%v", e.Code, e.Path, e.Err)
	case e.Err != nil:
		return fmt.Sprintf("%s：%v", e.Code, e.Err)
	case e.Path != "":
		return fmt.Sprintf("%s：%q", e.Code, e.Path)
	default:
		return e.Code
	}
}

func (e *Error) Unwrap() error { return e.Err }

// Code 从 error 中提取 error_code；若不是 *Error 则返回空串。
func Code(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// LoadEffective 合并 CLI 参数与档案，校验后返回最终配置。
//
// 覆盖优先级（固定）：
// - camera/lens/film：CLI 显式指定 > 档案 > 空
// - 起始时刻：--time > 默认 12:00
// - 角标参数：CLI 显式指定 > 内置默认
//
// 档案来源：--profile 指定文件；否则 --profile-dir 里最近改动的一份；都没给就不读档案。
func LoadEffective(cli CLIArgs) (EffectiveConfig, error) {
	var prof profile.Profile
	switch {
	case strings.TrimSpace(cli.ProfilePath) != "":
		p, err := profile.Load(cli.ProfilePath)
		if err != nil {
			return EffectiveConfig{}, &Error{Code: domain.ErrCodeConfigInvalid, Path: cli.ProfilePath, Err: err}
		}
		prof = p
	case strings.TrimSpace(cli.ProfileDir) != "":
		p, _, ok, err := profile.NewStore(cli.ProfileDir).Latest()
		if err != nil {
			return EffectiveConfig{}, &Error{Code: domain.ErrCodeConfigInvalid, Path: cli.ProfileDir, Err: err}
		}
		if ok {
			prof = p
		}
	}

	start, err := parseStart(cli.Date, cli.Clock)
	if err != nil {
		return EffectiveConfig{}, err
	}

	meta := domain.Metadata{Camera: prof.Camera, Lens: prof.Lens, Film: prof.Film}
	if cli.CameraSet {
		meta.Camera = strings.TrimSpace(cli.Camera)
	}
	if cli.LensSet {
		meta.Lens = strings.TrimSpace(cli.Lens)
	}
	if cli.FilmSet {
		meta.Film = strings.TrimSpace(cli.Film)
	}

	if cli.LatSet != cli.LonSet {
		return EffectiveConfig{}, &Error{Code: domain.ErrCodeInvalidCoordinate, Err: errors.New("经纬度必须成对给出")}
	}
	if cli.LatSet {
		gps := domain.GeoCoordinate{Lat: cli.Lat, Lon: cli.Lon}
		if err := gps.Validate(); err != nil {
			return EffectiveConfig{}, &Error{Code: domain.ErrCodeInvalidCoordinate, Err: err}
		}
		meta.GPS = &gps
	}

	mode := domain.ModePatch
	outDir := strings.TrimSpace(cli.OutDir)
	if cli.Stamp {
		mode = domain.ModeStamp
		if outDir == "" {
			return EffectiveConfig{}, &Error{Code: domain.ErrCodeMissingOutputDir, Err: errors.New("--stamp 需要 --out 指定输出目录")}
		}
		// 目录必须事先存在：静默替用户建目录容易把错字变成新目录。
		if err := fsx.EnsureDir(outDir); err != nil {
			return EffectiveConfig{}, &Error{Code: domain.ErrCodeMissingOutputDir, Path: outDir, Err: err}
		}
	} else if outDir != "" {
		// 就地补丁不产出新文件；静默忽略 --out 容易让人误以为原图没被动过。
		return EffectiveConfig{}, &Error{Code: domain.ErrCodeConfigInvalid, Err: errors.New("--out 只在 --stamp 模式下有意义")}
	}

	sc, err := stampConfig(cli)
	if err != nil {
		return EffectiveConfig{}, err
	}

	return EffectiveConfig{
		Start:        start,
		Meta:         meta,
		Mode:         mode,
		OutDir:       outDir,
		Stamp:        sc,
		IgnoreErrors: cli.IgnoreErrors,
	}, nil
}

func parseStart(date, clock string) (time.Time, error) {
	date = strings.TrimSpace(date)
	if date == "" {
		return time.Time{}, &Error{Code: domain.ErrCodeInvalidDateTime, Err: errors.New("缺少拍摄日期（--date YYYY-MM-DD）")}
	}
	clock = strings.TrimSpace(clock)
	if clock == "" {
		clock = DefaultStartClock
	}
	t, err := time.ParseInLocation(dateLayout+" "+clockLayout, date+" "+clock, time.Local)
	if err != nil {
		return time.Time{}, &Error{Code: domain.ErrCodeInvalidDateTime, Err: err}
	}
	return t, nil
}

func stampConfig(cli CLIArgs) (domain.StampConfig, error) {
	sc := domain.StampConfig{
		Format:       domain.StampFormatQuoteYY,
		FontPath:     strings.TrimSpace(cli.FontPath),
		FontRatio:    domain.DefaultFontRatio,
		BlurStrength: domain.DefaultBlurStrength,
		OffsetX:      domain.DefaultOffsetX,
		OffsetY:      domain.DefaultOffsetY,
	}

	if f := strings.TrimSpace(cli.Format); f != "" {
		if !domain.ValidStampFormat(f) {
			return domain.StampConfig{}, &Error{
				Code: domain.ErrCodeConfigInvalid,
				Err:  fmt.Errorf("未知的角标格式 %q（可选 %s/%s）", f, domain.StampFormatQuoteYY, domain.StampFormatYYYY),
			}
		}
		sc.Format = f
	}
	if cli.FontRatioSet {
		if cli.FontRatio <= 0 || cli.FontRatio > 0.5 {
			return domain.StampConfig{}, &Error{Code: domain.ErrCodeConfigInvalid, Err: fmt.Errorf("字号比例超出 (0, 0.5]：%v", cli.FontRatio)}
		}
		sc.FontRatio = cli.FontRatio
	}
	if cli.BlurSet {
		if cli.Blur < 0 {
			return domain.StampConfig{}, &Error{Code: domain.ErrCodeConfigInvalid, Err: fmt.Errorf("模糊强度不能为负：%v", cli.Blur)}
		}
		sc.BlurStrength = cli.Blur
	}
	if cli.OffsetXSet {
		sc.OffsetX = cli.OffsetX
	}
	if cli.OffsetYSet {
		sc.OffsetY = cli.OffsetY
	}
	return sc, nil
}
