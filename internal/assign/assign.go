// Package assign 实现批处理的时间戳分配：按输入顺序、一分钟一档。
package assign

import (
	"time"

	"github.com/John-Robertt/FEDS/internal/domain"
)

// Apply 给 items 按输入顺序分配时间戳：第 k 个条目 = start + k 分钟（k 从 0 起）。
//
// 约束：
// - 纯粹的整体重赋值：同样的输入重复调用结果一致（幂等）
// - 分钟进位交给 time.Time：跨小时、跨日（>1440 条）自然滚动
// - 只触碰传入序列；序列之外的条目一概不动
// - 秒与纳秒归零（时间戳是分钟粒度）
func Apply(items []domain.FileItem, start time.Time) {
	base := start.Truncate(time.Minute)
	for i := range items {
		items[i].Timestamp = base.Add(time.Duration(i) * time.Minute)
		items[i].Status = domain.ItemAssigned
		items[i].Err = nil
	}
}
