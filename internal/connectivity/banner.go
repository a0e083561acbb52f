// Package connectivity tracks whether the app is online and whether the offline
// banner should be shown.
package connectivity

import "sync"

// Status is the banner state as rendered by the UI.
type Status struct {
	Online        bool `json:"online"`
	Dismissed     bool `json:"dismissed"`
	BannerVisible bool `json:"bannerVisible"`
}

// Banner is the offline notice. It is shown while offline until dismissed, and a
// dismissal only lasts until the next time the app comes back online.
type Banner struct {
	mu        sync.RWMutex
	online    bool
	dismissed bool
}

// NewBanner starts online.
func NewBanner() *Banner {
	return &Banner{online: true}
}

// SetOnline records a connectivity change. Coming back online clears any dismissal.
// It reports whether the online flag changed.
func (b *Banner) SetOnline(online bool) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	changed := b.online != online
	b.online = online
	if online {
		b.dismissed = false
	}
	return changed
}

// Dismiss hides the banner for the current offline period.
func (b *Banner) Dismiss() {
	b.mu.Lock()
	b.dismissed = true
	b.mu.Unlock()
}

func (b *Banner) Online() bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.online
}

// Visible is true while offline and not dismissed.
func (b *Banner) Visible() bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return !b.online && !b.dismissed
}

func (b *Banner) Status() Status {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return Status{
		Online:        b.online,
		Dismissed:     b.dismissed,
		BannerVisible: !b.online && !b.dismissed,
	}
}
