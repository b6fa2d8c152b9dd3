//go:build !js || !wasm
// +build !js !wasm

package kvstore

// Browser is a stub for non-WASM builds. localStorage requires a browser.
type Browser struct{}

// NewBrowser always fails outside the browser.
func NewBrowser() (*Browser, error) {
	return nil, ErrUnavailable
}

// GetItem is a stub for non-WASM builds.
func (b *Browser) GetItem(string) (string, bool, error) {
	return "", false, ErrUnavailable
}

// SetItem is a stub for non-WASM builds.
func (b *Browser) SetItem(string, string) error {
	return ErrUnavailable
}

// RemoveItem is a stub for non-WASM builds.
func (b *Browser) RemoveItem(string) error {
	return ErrUnavailable
}

var _ Storage = (*Browser)(nil)
