//go:build js && wasm
// +build js,wasm

package kvstore

import (
	"fmt"
	"syscall/js"
)

// Browser is a Storage backed by window.localStorage.
type Browser struct {
	ls js.Value
}

// NewBrowser binds to window.localStorage.
func NewBrowser() (*Browser, error) {
	ls := js.Global().Get("localStorage")
	if ls.IsUndefined() || ls.IsNull() {
		return nil, ErrUnavailable
	}
	return &Browser{ls: ls}, nil
}

// GetItem calls localStorage.getItem. A null result means the key is absent.
func (b *Browser) GetItem(key string) (value string, ok bool, err error) {
	defer recoverJS(&err)

	v := b.ls.Call("getItem", key)
	if v.IsNull() || v.IsUndefined() {
		return "", false, nil
	}
	return v.String(), true, nil
}

// SetItem calls localStorage.setItem. Quota errors surface as Go errors.
func (b *Browser) SetItem(key, value string) (err error) {
	defer recoverJS(&err)

	b.ls.Call("setItem", key, value)
	return nil
}

// RemoveItem calls localStorage.removeItem.
func (b *Browser) RemoveItem(key string) (err error) {
	defer recoverJS(&err)

	b.ls.Call("removeItem", key)
	return nil
}

// recoverJS converts a thrown JS exception (surfaced by syscall/js as a
// panic with js.Error) into an error.
func recoverJS(err *error) {
	if r := recover(); r != nil {
		if jsErr, ok := r.(js.Error); ok {
			*err = fmt.Errorf("localStorage: %s", jsErr.Error())
			return
		}
		panic(r)
	}
}

var _ Storage = (*Browser)(nil)
