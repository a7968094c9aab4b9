package main

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/John-Robertt/FEDS/internal/config"
	"github.com/John-Robertt/FEDS/internal/domain"
)

func TestProgressUI_PatchFlow(t *testing.T) {
	var buf bytes.Buffer
	ui := newProgressUI(&buf, "")
	// 测试里不需要 keepalive；调大间隔避免计时器插话。
	ui.tickerInterval = time.Hour
	ui.keepaliveThreshold = time.Hour

	ui.OnStart(config.EffectiveConfig{
		Start: time.Date(2024, 1, 31, 14, 30, 0, 0, time.Local),
		Meta:  domain.Metadata{Camera: "Nikon FM2", Film: "Portra 400"},
		Mode:  domain.ModePatch,
	})
	ui.OnPhaseDone("assign", map[string]any{"files": 2, "start": "2024-01-31 14:30"}, 10*time.Millisecond)
	ui.OnItemDone(1, 2, domain.ItemResult{
		Src: "/roll/a.jpg", Dst: "/roll/a.jpg",
		Status: domain.StatusWritten, ExifSource: "existing",
	}, 20*time.Millisecond)
	ui.OnItemDone(2, 2, domain.ItemResult{
		Src:    "/roll/b.jpg",
		Status: domain.StatusFailed, ErrorCode: domain.ErrCodeMalformedContainer, ErrorMsg: "坏掉的 JPEG",
	}, 5*time.Millisecond)

	out := buf.String()
	for _, want := range []string{
		"FEDS run (patch)",
		"camera: Nikon FM2",
		"film: Portra 400",
		"分配: files=2 start=2024-01-31 14:30",
		"[1/2] a.jpg OK exif=existing",
		"[2/2] b.jpg FAIL malformed_container: 坏掉的 JPEG",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("输出缺少 %q：\n%s", want, out)
		}
	}
	if ui.tickerStarted {
		t.Fatalf("最后一条完成后 ticker 应当停止")
	}
}

func TestProgressUI_StampShowsDestination(t *testing.T) {
	var buf bytes.Buffer
	ui := newProgressUI(&buf, "")
	ui.tickerInterval = time.Hour
	ui.keepaliveThreshold = time.Hour

	ui.OnStart(config.EffectiveConfig{
		Start:  time.Date(2024, 1, 31, 14, 30, 0, 0, time.Local),
		Mode:   domain.ModeStamp,
		OutDir: "/prints",
		Stamp: domain.StampConfig{
			Format:       domain.StampFormatQuoteYY,
			FontRatio:    domain.DefaultFontRatio,
			BlurStrength: domain.DefaultBlurStrength,
			OffsetX:      domain.DefaultOffsetX,
			OffsetY:      domain.DefaultOffsetY,
		},
	})
	ui.OnPhaseDone("font", map[string]any{"tier": "bundled"}, time.Millisecond)
	ui.OnItemDone(1, 1, domain.ItemResult{
		Src: "/roll/a.jpg", Dst: "/prints/202401311430.jpg",
		Status: domain.StatusWritten, ExifSource: "synthesized",
	}, time.Millisecond)

	out := buf.String()
	for _, want := range []string{
		"out: /prints",
		"stamp: format=quote-yy",
		"字体: bundled",
		"[1/1] a.jpg OK -> 202401311430.jpg",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("输出缺少 %q：\n%s", want, out)
		}
	}
}

func TestTruncate(t *testing.T) {
	if got := truncate("  abc  ", 10); got != "abc" {
		t.Fatalf("应当去掉首尾空白：%q", got)
	}
	if got := truncate("abcdefghij", 5); got != "ab..." {
		t.Fatalf("截断不符：%q", got)
	}
	if got := truncate("ab", 0); got != "ab" {
		t.Fatalf("max<=0 应当原样返回：%q", got)
	}
}

func TestFormatElapsed(t *testing.T) {
	if got := formatElapsed(3*time.Hour + 25*time.Minute + 7*time.Second); got != "03:25:07" {
		t.Fatalf("时长格式不符：%q", got)
	}
	if got := formatElapsed(-time.Second); got != "00:00:00" {
		t.Fatalf("负时长应当归零：%q", got)
	}
}

func TestFieldHelpers(t *testing.T) {
	fields := map[string]any{"files": 3, "big": int64(7), "start": "2024-01-31 14:30", "odd": 1.5}
	if got := intField(fields, "files"); got != 3 {
		t.Fatalf("intField(files)=%d", got)
	}
	if got := intField(fields, "big"); got != 7 {
		t.Fatalf("intField(big)=%d", got)
	}
	if got := intField(fields, "odd"); got != 0 {
		t.Fatalf("非整数类型应当返回 0：%d", got)
	}
	if got := intField(nil, "files"); got != 0 {
		t.Fatalf("nil fields 应当返回 0：%d", got)
	}
	if got := strField(fields, "start"); got != "2024-01-31 14:30" {
		t.Fatalf("strField(start)=%q", got)
	}
	if got := strField(fields, "files"); got != "" {
		t.Fatalf("类型不符应当返回空串：%q", got)
	}
}
