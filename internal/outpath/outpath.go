// Package outpath 负责冲印输出的命名与避让。
package outpath

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// 输出名就是分配到的时间（到分钟）；同分钟多张靠数字后缀避让。
const baseLayout = "200601021504"

// Resolver 在单次运行内分配互不冲突的输出路径。
//
// 约束：
// - 避让同时看磁盘与本轮已分配的名字：目标目录可能本来就有同名文件，
//   也可能前一张分配了名字但还没写完
// - 失败的写入不归还名字；宁可跳号也不要两张照片抢同一个名字
type Resolver struct {
	mu    sync.Mutex
	taken map[string]struct{}
}

func NewResolver() *Resolver {
	return &Resolver{taken: make(map[string]struct{})}
}

// Resolve 返回 dir 下 ts 对应的可用输出路径。
func (r *Resolver) Resolve(dir string, ts time.Time) string {
	r.mu.Lock()
	defer r.mu.Unlock()

	base := ts.Format(baseLayout)
	for n := 0; ; n++ {
		name := base + ".jpg"
		if n > 0 {
			name = fmt.Sprintf("%s_%d.jpg", base, n)
		}
		p := filepath.Join(dir, name)
		if _, ok := r.taken[p]; ok {
			continue
		}
		if _, err := os.Lstat(p); err == nil {
			continue
		}
		r.taken[p] = struct{}{}
		return p
	}
}
