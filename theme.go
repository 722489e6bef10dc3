package session

import "sync"

// ThemeFeed is the observable "current theme" derived from the signed-in
// user's role. It replaces the old process-wide presentation attribute: the
// presentation layer subscribes instead of reading a global.
//
// Last-writer-wins; subscribers are invoked synchronously on change.
type ThemeFeed struct {
	mu      sync.Mutex
	current RoleTheme
	subs    map[int]func(RoleTheme)
	nextID  int
}

// NewThemeFeed creates an empty feed (ThemeNone).
func NewThemeFeed() *ThemeFeed {
	return &ThemeFeed{
		subs: map[int]func(RoleTheme){},
	}
}

// Current returns the theme as of the last role change.
func (f *ThemeFeed) Current() RoleTheme {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.current
}

// Subscribe registers a callback invoked on every theme change. The callback
// also fires immediately with the current value so late subscribers do not
// miss state.
func (f *ThemeFeed) Subscribe(fn func(RoleTheme)) Subscription {
	f.mu.Lock()
	id := f.nextID
	f.nextID++
	f.subs[id] = fn
	current := f.current
	f.mu.Unlock()

	fn(current)

	return themeSubscription{feed: f, id: id}
}

func (f *ThemeFeed) publish(theme RoleTheme) {
	f.mu.Lock()
	if f.current == theme {
		f.mu.Unlock()
		return
	}
	f.current = theme
	fns := make([]func(RoleTheme), 0, len(f.subs))
	for _, fn := range f.subs {
		fns = append(fns, fn)
	}
	f.mu.Unlock()

	for _, fn := range fns {
		fn(theme)
	}
}

type themeSubscription struct {
	feed *ThemeFeed
	id   int
}

func (s themeSubscription) Unsubscribe() {
	s.feed.mu.Lock()
	defer s.feed.mu.Unlock()
	delete(s.feed.subs, s.id)
}
