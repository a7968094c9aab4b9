package domain

import (
	"testing"
	"time"
)

func TestStampText_Formats(t *testing.T) {
	ts := time.Date(2024, 1, 31, 23, 59, 0, 0, time.Local)

	if got := StampText(StampFormatQuoteYY, ts); got != "'24 01 31" {
		t.Fatalf("quote-yy 模板错误：%q", got)
	}
	if got := StampText(StampFormatYYYY, ts); got != "2024 01 31" {
		t.Fatalf("yyyy 模板错误：%q", got)
	}
	// 未知模板按默认（quote-yy）处理：配置层已把非法值挡在外面。
	if got := StampText("", ts); got != "'24 01 31" {
		t.Fatalf("缺省模板错误：%q", got)
	}
}

func TestStampText_RollsPastMidnight(t *testing.T) {
	// 23:59 起步的第 2 个条目落在次日 00:00，可见日期必须跟着滚动。
	start := time.Date(2024, 12, 31, 23, 59, 0, 0, time.Local)
	next := start.Add(time.Minute)

	if got := StampText(StampFormatYYYY, next); got != "2025 01 01" {
		t.Fatalf("跨午夜后可见日期未滚动：%q", got)
	}
}

func TestValidStampFormat(t *testing.T) {
	if !ValidStampFormat(StampFormatQuoteYY) || !ValidStampFormat(StampFormatYYYY) {
		t.Fatalf("合法模板被拒绝")
	}
	if ValidStampFormat("dd-mm-yyyy") {
		t.Fatalf("非法模板被接受")
	}
}
