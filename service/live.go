package service

import (
	"context"
	"errors"
	"image"
	"sync"

	"github.com/jrebull/graph-cuts-segmentation/model"
	"github.com/jrebull/graph-cuts-segmentation/segment"
	"github.com/jrebull/graph-cuts-segmentation/utils"
	"go.uber.org/zap"
)

// ErrSessionClosed 会话已关闭
var ErrSessionClosed = errors.New("live session closed")

// Processor 执行一次分割
type Processor interface {
	Process(ctx context.Context, req *SegmentRequest) (*model.SegmentResult, error)
}

// LiveResult 某一代输入的分割结果
type LiveResult struct {
	Generation uint64
	Result     *model.SegmentResult
	Err        error
}

// LiveSession 交互式分割会话。新图片或新标记到达时取消正在进行的计算，
// 被取代的结果永远不会投递，结果通道中最多保留最新的一条。
type LiveSession struct {
	proc   Processor
	params model.SegmentParams

	mu     sync.Mutex
	gen    uint64
	cancel context.CancelFunc
	img    image.Image
	md5    string
	closed bool

	out chan LiveResult
	wg  sync.WaitGroup
}

func NewLiveSession(proc Processor, params model.SegmentParams) *LiveSession {
	return &LiveSession{
		proc:   proc,
		params: params,
		out:    make(chan LiveResult, 1),
	}
}

// Results 结果通道，Close 后关闭
func (s *LiveSession) Results() <-chan LiveResult {
	return s.out
}

// SetImage 更换图片，取消进行中的计算并返回新的代数
func (s *LiveSession) SetImage(img image.Image, md5 string) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.supersedeLocked()
	s.img = img
	s.md5 = md5
	return s.gen
}

// Submit 用最新的标记快照启动一次分割
func (s *LiveSession) Submit(ctx context.Context, seeds segment.SeedSet) (uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return 0, ErrSessionClosed
	}
	if s.img == nil {
		return 0, segment.ErrMissingImage
	}

	s.supersedeLocked()
	gen := s.gen
	runCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	req := &SegmentRequest{
		MD5:    s.md5,
		Image:  s.img,
		Seeds:  seeds,
		Params: s.params,
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer cancel()

		result, err := s.proc.Process(runCtx, req)
		s.deliver(LiveResult{Generation: gen, Result: result, Err: err})
	}()

	return gen, nil
}

// Close 取消进行中的计算，等待其退出后关闭结果通道
func (s *LiveSession) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	s.supersedeLocked()
	s.mu.Unlock()

	s.wg.Wait()
	close(s.out)
}

func (s *LiveSession) supersedeLocked() {
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	s.gen++
}

func (s *LiveSession) deliver(r LiveResult) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed || r.Generation != s.gen {
		utils.Logger.Debug("discarding superseded result", zap.Uint64("generation", r.Generation))
		return
	}
	// 所有发送都在锁内进行，清空旧结果后发送不会阻塞
	select {
	case <-s.out:
	default:
	}
	s.out <- r
}
