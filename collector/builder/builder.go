// Package builder wires adapter instances into a registry. Kept separate
// from package collector so instances can depend on the shared collector
// types without an import cycle.
package builder

import (
	"github.com/geomux/geomux/collector"
	collector_instances "github.com/geomux/geomux/collector/instances"
	"github.com/geomux/geomux/model"
)

// DefaultRegistry wires every built-in adapter.
func DefaultRegistry() *collector.Registry {
	r := collector.NewRegistry()
	r.Register(model.SourceTypeRss, collector_instances.NewRssAdapter())
	r.Register(model.SourceTypeGdelt, collector_instances.NewGdeltAdapter())
	r.Register(model.SourceTypeApi, collector_instances.NewNewsApiAdapter())
	r.Register(model.SourceTypeSocial, collector_instances.NewSocialAdapter())
	return r
}
