package window

// WindowBuilderOption is a function that configures a window instance during construction.
type WindowBuilderOption func(*viewerWindow)

// WithTitle is an option builder that sets the window title.
//
// Parameters:
//   - title: the title bar text
//
// Returns:
//   - WindowBuilderOption: a function that applies the title option to a window
func WithTitle(title string) WindowBuilderOption {
	return func(w *viewerWindow) {
		w.title = title
	}
}

// WithSize is an option builder that sets the initial window size. The
// effective size may differ on high-DPI displays; read it back through Width
// and Height after construction.
//
// Parameters:
//   - width: the window width in pixels
//   - height: the window height in pixels
//
// Returns:
//   - WindowBuilderOption: a function that applies the size option to a window
func WithSize(width, height int) WindowBuilderOption {
	return func(w *viewerWindow) {
		w.width = width
		w.height = height
	}
}
