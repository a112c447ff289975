package sanitize

// Profile selects how aggressively HTML is cleaned.
type Profile string

const (
	ProfileStrict   Profile = "strict"
	ProfileModerate Profile = "moderate"
	ProfileRelaxed  Profile = "relaxed"
	ProfileMarkdown Profile = "markdown"
)

// Sanitizer cleans untrusted HTML before it is stored or rendered. The
// implementation is supplied by the application; portal code never renders
// markup that has not passed through it.
type Sanitizer interface {
	Sanitize(html string, profile Profile) string
}

// passthroughSanitizer is a development stand-in wired where no real
// sanitizer is configured.
type passthroughSanitizer struct{}

func NewPassthrough() Sanitizer {
	return &passthroughSanitizer{}
}

func (passthroughSanitizer) Sanitize(html string, profile Profile) string {
	return html
}
