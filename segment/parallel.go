package segment

import (
	"context"
	"runtime"
	"sync/atomic"

	"golang.org/x/sync/errgroup"
)

// rowsPerWorker 每个协程平均分到的块数，块越多负载越均衡
const rowsPerWorker = 4

// forEachRow 把 [0, height) 按行分块交给多个协程处理。
// newWorker 为每个协程创建一次行处理函数，便于持有协程私有缓存。
// ctx 取消后各协程在下一行之前退出，返回取消原因。
func forEachRow(ctx context.Context, height, workers int, newWorker func() func(y int)) error {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	workers = max(1, min(workers, height))
	block := max(1, (height+workers*rowsPerWorker-1)/(workers*rowsPerWorker))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	var next atomic.Int64
	for i := 0; i < workers; i++ {
		g.Go(func() error {
			process := newWorker()
			for {
				start := int(next.Add(int64(block))) - block
				if start >= height {
					return nil
				}
				for y := start; y < min(start+block, height); y++ {
					if err := gctx.Err(); err != nil {
						return err
					}
					process(y)
				}
			}
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	return ctx.Err()
}
