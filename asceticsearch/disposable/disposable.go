package disposable

import "sync"

type Disposable interface {
	Dispose()
}

// NewDisposable runs callback on the first Dispose call only.
func NewDisposable(callback func()) Disposable {
	return &disposableImp{callback: callback}
}

type disposableImp struct {
	once     sync.Once
	callback func()
}

func (d *disposableImp) Dispose() {
	d.once.Do(d.callback)
}
