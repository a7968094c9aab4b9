// Package run 实现一次批处理运行：顺序分配时间戳、逐张写入、汇总为稳定报告。
package run

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/golang/freetype/truetype"
	"github.com/google/uuid"

	"github.com/John-Robertt/FEDS/internal/assign"
	"github.com/John-Robertt/FEDS/internal/config"
	"github.com/John-Robertt/FEDS/internal/domain"
	"github.com/John-Robertt/FEDS/internal/exifx"
	"github.com/John-Robertt/FEDS/internal/infra/fsx"
	"github.com/John-Robertt/FEDS/internal/infra/imgx"
	"github.com/John-Robertt/FEDS/internal/outpath"
	"github.com/John-Robertt/FEDS/internal/stamp"
)

// Execute 执行一次运行，并返回对外稳定的 RunReport。
//
// 规则（硬约束）：
// - 写入循环是单写者顺序执行：时间戳顺序与落盘顺序一致
// - 单张失败降级为 item 级失败；是否继续由 IgnoreErrors 决定
// - 取消只在文件边界生效：正在写的一张写完，其余记为 skipped
func Execute(ctx context.Context, eff config.EffectiveConfig, files []string, obs Observer) domain.RunReport {
	started := time.Now().UTC()

	if obs != nil {
		obs.OnStart(eff)
	}

	rr := domain.RunReport{
		RunID:     uuid.NewString(),
		Mode:      eff.Mode,
		OutDir:    eff.OutDir,
		StartedAt: started,
		Items:     make([]domain.ItemResult, 0, len(files)),
	}

	// 分配阶段：纯内存推演，从不失败。
	assignStarted := time.Now()
	items := make([]domain.FileItem, len(files))
	for i, f := range files {
		items[i] = domain.FileItem{SrcPath: f, Status: domain.ItemPending}
	}
	assign.Apply(items, eff.Start)
	if obs != nil {
		obs.OnPhaseDone("assign", map[string]any{
			"files": len(items),
			"start": eff.Start.Format("2006-01-02 15:04"),
		}, time.Since(assignStarted))
	}

	w := &writer{eff: eff, resolver: outpath.NewResolver()}

	// 冲印模式先把字体定下来：整批共用一份，失败就没有可做的事。
	if eff.Mode == domain.ModeStamp {
		fontStarted := time.Now()
		f, tier, err := resolveFont(eff.Stamp.FontPath)
		if err != nil {
			rr.Items = append(rr.Items, syntheticFailed(domain.ErrCodeNoFont, err.Error()))
			appendSkipped(&rr, items, "字体不可用，未处理任何文件")
			rr.Aborted = true
			rr.FinishedAt = time.Now().UTC()
			rr.Finalize()
			return rr
		}
		w.font = f
		if obs != nil {
			obs.OnPhaseDone("font", map[string]any{
				"tier": tier.String(),
			}, time.Since(fontStarted))
		}
	}

	aborted := false
	for i := range items {
		if ctx.Err() != nil {
			aborted = true
			appendSkipped(&rr, items[i:], "运行被取消")
			break
		}

		oneStarted := time.Now()
		res := w.execOne(&items[i])
		rr.Items = append(rr.Items, res)
		if obs != nil {
			obs.OnItemDone(len(rr.Items), len(items), res, time.Since(oneStarted))
		}

		if res.Status == domain.StatusFailed && !eff.IgnoreErrors {
			if i+1 < len(items) {
				aborted = true
				appendSkipped(&rr, items[i+1:], fmt.Sprintf("%q 失败后中止（未启用 --ignore-errors）", res.Src))
			}
			break
		}
	}
	rr.Aborted = aborted

	rr.FinishedAt = time.Now().UTC()
	rr.Finalize()
	return rr
}

// resolveFont 可在测试中替换：内置字体总是可用，
// “整条回退链都失败”的路径只能靠注入演练。
var resolveFont = stamp.ResolveFont

type writer struct {
	eff      config.EffectiveConfig
	resolver *outpath.Resolver
	font     *truetype.Font
}

func (w *writer) execOne(item *domain.FileItem) domain.ItemResult {
	res := domain.ItemResult{
		Src:       item.SrcPath,
		Timestamp: domain.FormatExifTime(item.Timestamp),
	}

	payload := domain.PayloadFor(w.eff.Meta, item.Timestamp)

	var (
		dst    string
		source exifx.Source
		err    error
	)
	if w.eff.Mode == domain.ModeStamp {
		dst, source, err = w.stampOne(item.SrcPath, item.Timestamp, payload)
	} else {
		dst = item.SrcPath
		source, err = exifx.WriteInPlace(item.SrcPath, payload)
	}

	if err != nil {
		item.Status = domain.ItemFailed
		item.Err = err
		res.Status = domain.StatusFailed
		fillItemError(&res, err)
		return res
	}

	item.Status = domain.ItemWritten
	res.Status = domain.StatusWritten
	res.Dst = dst
	res.ExifSource = source.String()
	return res
}

// stampOne 的步骤顺序是硬约束：所有可失败的纯计算先做完，最后才落盘。
func (w *writer) stampOne(src string, ts time.Time, payload domain.ExifPayload) (string, exifx.Source, error) {
	data, err := os.ReadFile(src)
	if err != nil {
		return "", 0, err
	}

	img, err := imgx.DecodeJPEG(data)
	if err != nil {
		return "", 0, &exifx.MalformedContainerError{Path: src, Err: err}
	}

	upright := imgx.ApplyOrientation(img, exifx.ReadOrientation(data))
	stamped := stamp.Render(upright, ts, w.eff.Stamp, w.font)

	out, err := imgx.EncodeJPEG(stamped)
	if err != nil {
		return "", 0, err
	}

	// 像素已转正：EXIF 方向必须写 1，否则看图软件会二次旋转。
	payload.Orientation = 1
	out, source, err := exifx.Patch(out, payload)
	if err != nil {
		return "", source, err
	}

	dst := w.resolver.Resolve(w.eff.OutDir, ts)
	if err := fsx.WriteFileAtomicNoOverwrite(w.eff.OutDir, filepath.Base(dst), out); err != nil {
		return "", source, err
	}
	return dst, source, nil
}

func fillItemError(res *domain.ItemResult, err error) {
	switch {
	case exifx.IsMalformedContainer(err):
		res.ErrorCode = domain.ErrCodeMalformedContainer
	case stamp.IsNoFont(err):
		res.ErrorCode = domain.ErrCodeNoFont
	default:
		res.ErrorCode = domain.ErrCodeIOFailed
	}
	res.ErrorMsg = err.Error()
}

func appendSkipped(rr *domain.RunReport, rest []domain.FileItem, reason string) {
	for i := range rest {
		rest[i].Status = domain.ItemSkipped
		rr.Items = append(rr.Items, domain.ItemResult{
			Src:       rest[i].SrcPath,
			Timestamp: domain.FormatExifTime(rest[i].Timestamp),
			Status:    domain.StatusSkipped,
			ErrorCode: domain.ErrCodeAborted,
			ErrorMsg:  reason,
		})
	}
}

func syntheticFailed(code, msg string) domain.ItemResult {
	return domain.ItemResult{
		Status:    domain.StatusFailed,
		ErrorCode: code,
		ErrorMsg:  msg,
	}
}

// PreviewResult 是单张预览的产物：只有像素，不写 EXIF，也不落盘。
type PreviewResult struct {
	JPEG   []byte
	Text   string
	Tier   stamp.FontTier
	Width  int
	Height int
}

// Preview 按当前配置渲染单张角标预览。
// 用于贴标前确认效果；EXIF 补丁与输出命名都不参与。
func Preview(eff config.EffectiveConfig, src string) (PreviewResult, error) {
	data, err := os.ReadFile(src)
	if err != nil {
		return PreviewResult{}, err
	}

	f, tier, err := stamp.ResolveFont(eff.Stamp.FontPath)
	if err != nil {
		return PreviewResult{}, err
	}

	img, err := imgx.DecodeJPEG(data)
	if err != nil {
		return PreviewResult{}, &exifx.MalformedContainerError{Path: src, Err: err}
	}

	upright := imgx.ApplyOrientation(img, exifx.ReadOrientation(data))
	stamped := stamp.Render(upright, eff.Start, eff.Stamp, f)

	out, err := imgx.EncodeJPEG(stamped)
	if err != nil {
		return PreviewResult{}, err
	}

	b := stamped.Bounds()
	return PreviewResult{
		JPEG:   out,
		Text:   domain.StampText(eff.Stamp.Format, eff.Start),
		Tier:   tier,
		Width:  b.Dx(),
		Height: b.Dy(),
	}, nil
}
