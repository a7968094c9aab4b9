package domain

import (
	"encoding/json"
	"time"
)

const (
	StatusWritten = "written"
	StatusFailed  = "failed"
	StatusSkipped = "skipped"
)

const (
	ErrCodeMalformedContainer = "malformed_container"
	ErrCodeUnsupportedExif    = "unsupported_exif"
	ErrCodeIOFailed           = "io_failed"
	ErrCodeNoFont             = "no_font_available"
	ErrCodeInvalidCoordinate  = "invalid_coordinate"
	ErrCodeInvalidDateTime    = "invalid_datetime"
	ErrCodeMissingOutputDir   = "missing_output_dir"
	ErrCodeAborted            = "aborted"
	ErrCodeConfigInvalid      = "config_invalid"
)

const (
	ModePatch = "patch" // 只改元数据，原图就地补丁
	ModeStamp = "stamp" // 重编码并烧入可见日期印，另存新文件
)

// RunReport 是对外稳定输出（stdout JSON）的结构。
type RunReport struct {
	RunID  string `json:"run_id"`
	Mode   string `json:"mode"`
	OutDir string `json:"out_dir,omitempty"`

	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`

	// Aborted 表示批处理在中途停止（fail-fast 或取消）；未处理条目以 skipped 记录。
	Aborted bool `json:"aborted"`

	Summary ReportSummary `json:"summary"`
	Items   []ItemResult  `json:"items"`
}

type ReportSummary struct {
	Written int `json:"written"`
	Failed  int `json:"failed"`
	Skipped int `json:"skipped"`
}

type ItemResult struct {
	Src string `json:"src"`
	// Dst：stamp 模式为新写出的文件；patch 模式等于 Src。失败/跳过时可为空。
	Dst string `json:"dst"`
	// Timestamp 是分配到的 EXIF 时间串（"YYYY:MM:DD HH:MM:SS"）；未分配为空。
	Timestamp string `json:"timestamp"`

	Status    string `json:"status"`
	ErrorCode string `json:"error_code"`
	ErrorMsg  string `json:"error_msg"`

	// ExifSource 记录 EXIF 构建器来源（existing/synthesized），便于核对
	// “合并还是重建”的判定；跳过/失败时为空。
	ExifSource string `json:"exif_source,omitempty"`
}

// Finalize 做两件事：
// 1) 时间统一为 UTC（确保 JSON 为 RFC3339 且后缀 Z）
// 2) summary 由 items 计算得出
//
// 注意：items 不排序，条目顺序就是输入顺序，这是对外契约的一部分。
func (r *RunReport) Finalize() {
	r.StartedAt = r.StartedAt.UTC()
	r.FinishedAt = r.FinishedAt.UTC()

	var s ReportSummary
	for _, it := range r.Items {
		switch it.Status {
		case StatusWritten:
			s.Written++
		case StatusFailed:
			s.Failed++
		case StatusSkipped:
			s.Skipped++
		}
	}
	r.Summary = s
}

// MarshalJSON 仅用于集中约束输出的稳定性（避免未来不小心引入非确定字段）。
// 当前只是透传 encoding/json 的默认行为。
func (r RunReport) MarshalJSON() ([]byte, error) {
	type Alias RunReport
	return json.Marshal(Alias(r))
}
