package main

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/John-Robertt/FEDS/internal/app/run"
	"github.com/John-Robertt/FEDS/internal/config"
	"github.com/John-Robertt/FEDS/internal/domain"
)

var _ run.Observer = (*progressUI)(nil)

// progressUI 是交互终端的简洁进度输出。
//
// 设计目标：
// - 所有过程信息写到 stderr（或 fallback 到 stdout），不污染 stdout 的 JSON 输出契约
// - 事件驱动：run 层只发事件，CLI 决定如何展示
// - keepalive：大图冲印较慢，长时间无条目完成时定期输出一行，降低等待焦虑
type progressUI struct {
	w             io.Writer
	requestedFont string

	mu          sync.Mutex
	startedAt   time.Time
	lastPrinted time.Time

	total int
	done  int
	ok    int
	fail  int

	keepaliveThreshold time.Duration
	tickerInterval     time.Duration

	stopCh        chan struct{}
	tickerStarted bool
}

func newProgressUI(w io.Writer, requestedFont string) *progressUI {
	return &progressUI{
		w:                  w,
		requestedFont:      requestedFont,
		keepaliveThreshold: 6 * time.Second,
		tickerInterval:     2 * time.Second,
	}
}

func (p *progressUI) OnStart(eff config.EffectiveConfig) {
	now := time.Now()

	p.mu.Lock()
	if p.startedAt.IsZero() {
		p.startedAt = now
	}

	modeHint := " (就地补丁，不产生新文件)"
	if eff.Mode == domain.ModeStamp {
		modeHint = " (重编码冲印到新文件)"
	}

	fmt.Fprintf(p.w, "[%s] FEDS run (%s)\n", now.Format("15:04:05"), eff.Mode)
	fmt.Fprintln(p.w, "配置（生效）:")
	fmt.Fprintf(p.w, "  mode: %s%s\n", eff.Mode, modeHint)
	fmt.Fprintf(p.w, "  start: %s（逐张 +1 分钟）\n", eff.Start.Format("2006-01-02 15:04"))
	if s := strings.TrimSpace(eff.Meta.Camera); s != "" {
		fmt.Fprintf(p.w, "  camera: %s\n", truncate(s, 80))
	}
	if s := strings.TrimSpace(eff.Meta.Lens); s != "" {
		fmt.Fprintf(p.w, "  lens: %s\n", truncate(s, 80))
	}
	if s := strings.TrimSpace(eff.Meta.Film); s != "" {
		fmt.Fprintf(p.w, "  film: %s\n", truncate(s, 80))
	}
	if eff.Meta.GPS != nil {
		fmt.Fprintf(p.w, "  gps: %.4f,%.4f\n", eff.Meta.GPS.Lat, eff.Meta.GPS.Lon)
	}
	fmt.Fprintf(p.w, "  ignore_errors: %s\n", onOff(eff.IgnoreErrors))
	if eff.Mode == domain.ModeStamp {
		fmt.Fprintf(p.w, "  out: %s\n", eff.OutDir)
		font := strings.TrimSpace(eff.Stamp.FontPath)
		if font == "" {
			font = "内置/系统回退链"
		}
		fmt.Fprintf(p.w, "  stamp: format=%s font=%s ratio=%.3f blur=%.2f offset=(%d,%d)\n",
			eff.Stamp.Format, truncate(font, 80), eff.Stamp.FontRatio, eff.Stamp.BlurStrength,
			eff.Stamp.OffsetX, eff.Stamp.OffsetY,
		)
	}
	fmt.Fprintln(p.w)

	p.lastPrinted = time.Now()
	p.mu.Unlock()
}

func (p *progressUI) OnPhaseDone(name string, fields map[string]any, dur time.Duration) {
	p.mu.Lock()
	defer p.mu.Unlock()

	switch name {
	case "assign":
		p.total = intField(fields, "files")
		fmt.Fprintf(p.w, "分配: files=%d start=%s (%s)\n",
			p.total, strField(fields, "start"), formatShortDuration(dur),
		)
		if p.total > 0 && !p.tickerStarted {
			p.startTickerLocked()
		}
	case "font":
		tier := strField(fields, "tier")
		fmt.Fprintf(p.w, "字体: %s (%s)\n", tier, formatShortDuration(dur))
		warnFontFallback(p.requestedFont, tier)
	default:
		// 兜底：未知阶段也不要静默（便于调试/演进）。
		fmt.Fprintf(p.w, "%s (%s)\n", name, formatShortDuration(dur))
	}

	p.lastPrinted = time.Now()
}

func (p *progressUI) OnItemDone(idx, total int, res domain.ItemResult, dur time.Duration) {
	p.mu.Lock()
	defer p.mu.Unlock()

	// idx/total 由 run 层给出；这里同时维护自己的计数，供 keepalive 使用。
	p.done = idx
	p.total = total

	switch res.Status {
	case domain.StatusFailed:
		p.fail++
		fmt.Fprintf(p.w, "[%d/%d] %s FAIL %s: %s (%s)\n",
			idx, total, filepath.Base(res.Src), res.ErrorCode, truncate(res.ErrorMsg, 160), formatShortDuration(dur),
		)
	default:
		p.ok++
		if res.Dst != res.Src {
			fmt.Fprintf(p.w, "[%d/%d] %s OK -> %s (%s)\n",
				idx, total, filepath.Base(res.Src), filepath.Base(res.Dst), formatShortDuration(dur),
			)
		} else {
			fmt.Fprintf(p.w, "[%d/%d] %s OK exif=%s (%s)\n",
				idx, total, filepath.Base(res.Src), res.ExifSource, formatShortDuration(dur),
			)
		}
	}

	p.lastPrinted = time.Now()

	// 最后一条完成：停止 ticker，避免在结束打印后又冒出 keepalive。
	if p.tickerStarted && p.done >= p.total {
		close(p.stopCh)
		p.tickerStarted = false
	}
}

func (p *progressUI) startTickerLocked() {
	p.stopCh = make(chan struct{})
	p.tickerStarted = true

	interval := p.tickerInterval
	if interval <= 0 {
		interval = 2 * time.Second
	}
	threshold := p.keepaliveThreshold
	if threshold <= 0 {
		threshold = 6 * time.Second
	}

	go func() {
		t := time.NewTicker(interval)
		defer t.Stop()

		for {
			select {
			case <-t.C:
				p.mu.Lock()
				// 已完成：安全退出（OnItemDone 会 close stopCh，但这里也做兜底）。
				if p.total > 0 && p.done >= p.total {
					p.mu.Unlock()
					return
				}

				if p.total > 0 && time.Since(p.lastPrinted) > threshold {
					elapsed := time.Since(p.startedAt)
					fmt.Fprintf(p.w, "进度: done=%d/%d written=%d failed=%d elapsed=%s\n",
						p.done, p.total, p.ok, p.fail, formatElapsed(elapsed),
					)
					p.lastPrinted = time.Now()
				}
				p.mu.Unlock()
			case <-p.stopCh:
				return
			}
		}
	}()
}

var _ run.Observer = logObserver{}

// logObserver 在非交互环境用日志代替进度界面：
// 失败与字体回退升为 Warn，其余仅在 --verbose 下可见。
type logObserver struct {
	requestedFont string
}

func (o logObserver) OnStart(eff config.EffectiveConfig) {
	logrus.Debugf("run: mode=%s start=%s ignore_errors=%v",
		eff.Mode, eff.Start.Format("2006-01-02 15:04"), eff.IgnoreErrors,
	)
}

func (o logObserver) OnPhaseDone(name string, fields map[string]any, dur time.Duration) {
	if name == "font" {
		warnFontFallback(o.requestedFont, strField(fields, "tier"))
	}
	logrus.WithFields(logrus.Fields(fields)).Debugf("phase %s done (%s)", name, formatShortDuration(dur))
}

func (o logObserver) OnItemDone(idx, total int, res domain.ItemResult, dur time.Duration) {
	if res.Status == domain.StatusFailed {
		logrus.Warnf("[%d/%d] %s 失败 %s: %s", idx, total, res.Src, res.ErrorCode, truncate(res.ErrorMsg, 160))
		return
	}
	logrus.Debugf("[%d/%d] %s %s (%s)", idx, total, res.Src, res.Status, formatShortDuration(dur))
}

// warnFontFallback 在显式指定的字体没被选中时提醒一句；
// 没指定字体时走回退链是预期行为，不提示。
func warnFontFallback(requested, tier string) {
	if strings.TrimSpace(requested) == "" || tier == "" || tier == "explicit" {
		return
	}
	logrus.Warnf("指定的字体未生效，实际使用 %s 字体：%s", tier, requested)
}

func onOff(v bool) string {
	if v {
		return "on"
	}
	return "off"
}

func truncate(s string, max int) string {
	s = strings.TrimSpace(s)
	if max <= 0 || len(s) <= max {
		return s
	}
	if max <= 3 {
		return s[:max]
	}
	return s[:max-3] + "..."
}

func formatShortDuration(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	return fmt.Sprintf("%.1fs", d.Seconds())
}

func formatElapsed(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	sec := int(d.Seconds())
	h := sec / 3600
	m := (sec % 3600) / 60
	s := sec % 60
	return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
}

func intField(fields map[string]any, key string) int {
	if fields == nil {
		return 0
	}
	v, ok := fields[key]
	if !ok {
		return 0
	}
	switch x := v.(type) {
	case int:
		return x
	case int32:
		return int(x)
	case int64:
		return int(x)
	case uint:
		return int(x)
	case uint32:
		return int(x)
	case uint64:
		return int(x)
	default:
		return 0
	}
}

func strField(fields map[string]any, key string) string {
	if fields == nil {
		return ""
	}
	s, _ := fields[key].(string)
	return s
}
