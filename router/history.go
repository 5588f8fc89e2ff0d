package router

import (
	"net/http"
)

// HTMX response headers.
const (
	HeaderPushURL    = "HX-Push-Url"
	HeaderReplaceURL = "HX-Replace-Url"
	HeaderReswap     = "HX-Reswap"
)

// HTMXHistory records history writes as HTMX response headers on h, so the
// browser performs the push or replace after the swap.
type HTMXHistory struct {
	h       http.Header
	handler func(Entry)
	swap    string
}

// NewHTMXHistory returns a port writing to h. swap is the HX-Reswap style
// used when scrolling to top; empty means innerHTML.
func NewHTMXHistory(h http.Header, swap string) *HTMXHistory {
	if swap == "" {
		swap = "innerHTML"
	}
	return &HTMXHistory{h: h, swap: swap}
}

func (p *HTMXHistory) Push(_ Entry, url string) {
	p.h.Del(HeaderReplaceURL)
	p.h.Set(HeaderPushURL, url)
}

func (p *HTMXHistory) Replace(_ Entry, url string) {
	p.h.Del(HeaderPushURL)
	p.h.Set(HeaderReplaceURL, url)
}

func (p *HTMXHistory) OnPopState(handler func(Entry)) {
	p.handler = handler
}

// ScrollTop asks htmx to show the top of the window after the swap.
func (p *HTMXHistory) ScrollTop() {
	p.h.Set(HeaderReswap, p.swap+" show:window:top")
}

// Dispatch delivers a popstate event posted by the browser.
func (p *HTMXHistory) Dispatch(state Entry) {
	if p.handler != nil {
		p.handler(state)
	}
}

// MemoryHistory is an in-memory HistoryPort. It keeps the browser's view of
// the session history, so Back replays popstate the way a browser would.
type MemoryHistory struct {
	Entries  []Entry
	URLs     []string
	Index    int
	Scrolls  int
	Replaces int
	handler  func(Entry)
}

// NewMemoryHistory returns a history holding the home entry.
func NewMemoryHistory() *MemoryHistory {
	return &MemoryHistory{Entries: []Entry{Home}, URLs: []string{"/"}}
}

func (m *MemoryHistory) Push(state Entry, url string) {
	m.Entries = append(m.Entries[:m.Index+1], state)
	m.URLs = append(m.URLs[:m.Index+1], url)
	m.Index++
}

func (m *MemoryHistory) Replace(state Entry, url string) {
	m.Entries[m.Index] = state
	m.URLs[m.Index] = url
	m.Replaces++
}

func (m *MemoryHistory) OnPopState(handler func(Entry)) {
	m.handler = handler
}

func (m *MemoryHistory) ScrollTop() { m.Scrolls++ }

// URL returns the address of the active entry.
func (m *MemoryHistory) URL() string { return m.URLs[m.Index] }

// Back moves to the previous entry and fires popstate. It reports false at
// the start of history.
func (m *MemoryHistory) Back() bool {
	if m.Index == 0 {
		return false
	}
	m.Index--
	if m.handler != nil {
		m.handler(m.Entries[m.Index])
	}
	return true
}

// Forward moves to the next entry and fires popstate.
func (m *MemoryHistory) Forward() bool {
	if m.Index+1 >= len(m.Entries) {
		return false
	}
	m.Index++
	if m.handler != nil {
		m.handler(m.Entries[m.Index])
	}
	return true
}
