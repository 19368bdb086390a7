package registry

import "github.com/serum-errors/go-serum"

// CodeRegistry is the error code for any failed registry lookup.
const CodeRegistry = "stencil-error-registry"

// ErrorRegistry is returned when the published versions of a package cannot
// be fetched or understood.
//
// Errors:
//
//   - stencil-error-registry --
func ErrorRegistry(pkg string, url string, cause error) error {
	return serum.Error(CodeRegistry,
		serum.WithMessageTemplate("cannot read published versions of {{pkg|q}} from {{url}}"),
		serum.WithDetail("pkg", pkg),
		serum.WithDetail("url", url),
		serum.WithCause(cause),
	)
}
