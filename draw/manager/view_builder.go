package manager

// ViewBuilderOption is a function that configures a view instance during construction.
type ViewBuilderOption func(*view)

// WithViewName is an option builder that sets the name of the view, used for
// the GPU buffer label and debug output.
//
// Parameters:
//   - name: the identifier for the view
//
// Returns:
//   - ViewBuilderOption: a function that applies the name option to a view
func WithViewName(name string) ViewBuilderOption {
	return func(v *view) {
		v.name = name
	}
}
