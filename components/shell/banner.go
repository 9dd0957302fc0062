package shell

import (
	"sync"
	"time"
)

// DefaultBannerTimeout is how long the save confirmation stays visible.
const DefaultBannerTimeout = 3 * time.Second

// AfterFunc schedules fn once after d.
type AfterFunc func(d time.Duration, fn func())

func defaultAfterFunc(d time.Duration, fn func()) {
	time.AfterFunc(d, fn)
}

// Banner is a one-shot confirmation flag. Every Show schedules its own reset;
// timers are never cancelled, so an older timer may hide a newer banner.
type Banner struct {
	mu        sync.RWMutex
	visible   bool
	timeout   time.Duration
	afterFunc AfterFunc
}

// NewBanner creates a hidden banner.
func NewBanner(timeout time.Duration, afterFunc AfterFunc) *Banner {
	if timeout <= 0 {
		timeout = DefaultBannerTimeout
	}
	if afterFunc == nil {
		afterFunc = defaultAfterFunc
	}
	return &Banner{timeout: timeout, afterFunc: afterFunc}
}

// Show makes the banner visible and schedules the reset.
func (b *Banner) Show() {
	b.mu.Lock()
	b.visible = true
	b.mu.Unlock()
	b.afterFunc(b.timeout, b.hide)
}

// Visible reports whether the banner is showing.
func (b *Banner) Visible() bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.visible
}

func (b *Banner) hide() {
	b.mu.Lock()
	b.visible = false
	b.mu.Unlock()
}
