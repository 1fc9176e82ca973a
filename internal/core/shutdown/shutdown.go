// Package shutdown 提供协作式关闭信号
//
// Shutdown 由组件的所有者持有，调用 Trigger() 发出关闭信号；
// 组件持有 Signal，在自己的事件循环中等待 Done()。
//
//	sd := shutdown.New()
//	go actor.Run() // actor 持有 sd.ToSignal()
//	...
//	sd.Trigger()
package shutdown

import "sync"

// Shutdown 关闭信号的触发端
type Shutdown struct {
	once sync.Once
	ch   chan struct{}
}

// New 创建未触发的 Shutdown
func New() *Shutdown {
	return &Shutdown{ch: make(chan struct{})}
}

// Trigger 触发关闭信号，重复调用无副作用
func (s *Shutdown) Trigger() {
	s.once.Do(func() {
		close(s.ch)
	})
}

// IsTriggered 是否已触发
func (s *Shutdown) IsTriggered() bool {
	select {
	case <-s.ch:
		return true
	default:
		return false
	}
}

// ToSignal 返回接收端
//
// 可多次调用，所有 Signal 共享同一触发状态。
func (s *Shutdown) ToSignal() Signal {
	return Signal{ch: s.ch}
}

// Signal 关闭信号的接收端
//
// 零值 Signal 永远不会触发。
type Signal struct {
	ch <-chan struct{}
}

// Done 返回在关闭信号触发时关闭的 channel
func (s Signal) Done() <-chan struct{} {
	return s.ch
}

// IsTriggered 是否已触发
func (s Signal) IsTriggered() bool {
	if s.ch == nil {
		return false
	}
	select {
	case <-s.ch:
		return true
	default:
		return false
	}
}
