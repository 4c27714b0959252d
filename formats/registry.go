// Package formats assembles the built-in formats.
package formats

import (
	"github.com/robert-malhotra/go-sciio/formats/ics"
	"github.com/robert-malhotra/go-sciio/formats/kontron"
	"github.com/robert-malhotra/go-sciio/sciio"
)

// Builtin returns every built-in format in detection order.
func Builtin() []sciio.AnyFormat {
	return []sciio.AnyFormat{
		ics.New().Erase(),
		kontron.New().Erase(),
	}
}

// NewRegistry returns a registry holding the built-in formats. opts apply to
// every reader the registry opens.
func NewRegistry(opts ...sciio.Option) *sciio.Registry {
	reg := sciio.NewRegistry(opts...)
	for _, f := range Builtin() {
		if err := reg.Register(f); err != nil {
			panic(err)
		}
	}
	return reg
}
