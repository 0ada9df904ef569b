package harness

import (
	"reflect"

	"github.com/traefik/yaegi/interp"

	"github.com/starford/sowilo/pkg/plot"
)

// Symbols exposes the virtual "sowilo/plot" package to interpreted unit
// scripts. Canvas construction is bound to reg so the harness sees every
// canvas a script opens.
func Symbols(reg *plot.Registry) interp.Exports {
	return interp.Exports{
		"sowilo/plot/plot": {
			"NewCanvas":     reflect.ValueOf(reg.NewCanvas),
			"DefaultWidth":  reflect.ValueOf(plot.DefaultWidth),
			"DefaultHeight": reflect.ValueOf(plot.DefaultHeight),
			"Canvas":        reflect.ValueOf((*plot.Canvas)(nil)),
			"Region":        reflect.ValueOf((*plot.Region)(nil)),
		},
	}
}
