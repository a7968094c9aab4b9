package domain

import "time"

// ItemStatus 是单个条目在一次批处理生命周期中的状态。
type ItemStatus string

const (
	ItemPending  ItemStatus = "pending"
	ItemAssigned ItemStatus = "assigned"
	ItemWritten  ItemStatus = "written"
	ItemFailed   ItemStatus = "failed"
	ItemSkipped  ItemStatus = "skipped"
)

// Terminal 表示该状态之后不会再变化。
func (s ItemStatus) Terminal() bool {
	return s == ItemWritten || s == ItemFailed || s == ItemSkipped
}

// FileItem 是批处理的工作单元（一个源 JPEG）。
//
// 不变量（实现必须遵守）：
// - SrcPath 创建后不可变，且必须是 clean + absolute
// - Timestamp 只由 assign 写入；Status/Err 只由批处理循环写入
// - 批处理是单 goroutine 顺序执行：任一时刻最多一个写者
type FileItem struct {
	SrcPath string

	// Timestamp 分配前为零值；IsZero() 即“尚未分配”。
	Timestamp time.Time

	Status ItemStatus
	Err    error
}
