package entity

import (
	"fmt"
	"strconv"
	"strings"
)

// TabHandle is a weak reference to a tab. The registry that issued it is
// the only way to resolve it, and resolution may fail once the tab closes.
// The zero value is the null handle.
type TabHandle struct {
	ID         uint32
	Generation uint32
}

var NullTabHandle = TabHandle{}

func (h TabHandle) IsNull() bool {
	return h.ID == 0
}

func (h TabHandle) String() string {
	if h.IsNull() {
		return "tab(null)"
	}
	return fmt.Sprintf("tab(%d.%d)", h.ID, h.Generation)
}

// MarshalText renders the handle as "<id>.<generation>".
func (h TabHandle) MarshalText() ([]byte, error) {
	return []byte(fmt.Sprintf("%d.%d", h.ID, h.Generation)), nil
}

func (h *TabHandle) UnmarshalText(text []byte) error {
	parsed, err := ParseTabHandle(string(text))
	if err != nil {
		return err
	}
	*h = parsed
	return nil
}

// ParseTabHandle accepts "<id>.<generation>". A bare id means generation 1.
func ParseTabHandle(s string) (TabHandle, error) {
	idPart, genPart, hasGen := strings.Cut(strings.TrimSpace(s), ".")
	id, err := strconv.ParseUint(idPart, 10, 32)
	if err != nil {
		return TabHandle{}, fmt.Errorf("invalid tab handle %q: %w", s, err)
	}
	gen := uint64(1)
	if hasGen {
		gen, err = strconv.ParseUint(genPart, 10, 32)
		if err != nil {
			return TabHandle{}, fmt.Errorf("invalid tab handle %q: %w", s, err)
		}
	}
	return TabHandle{ID: uint32(id), Generation: uint32(gen)}, nil
}

// WindowID identifies a browser window.
type WindowID int32

type TabInfo struct {
	Handle TabHandle `json:"handle" yaml:"handle"`
	Window WindowID  `json:"window" yaml:"window"`
	URL    string    `json:"url" yaml:"url"`
	Title  string    `json:"title" yaml:"title"`
	Active bool      `json:"active" yaml:"active"`
}
