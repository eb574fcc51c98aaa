package collector

import (
	"context"
	"fmt"
	"time"

	"github.com/pkg/errors"

	"github.com/geomux/geomux/model"
)

// RawItem is the common raw representation every adapter converts its
// source's native format into. Optional fields stay zero-valued when the
// source doesn't report them; the normalizer tolerates that.
type RawItem struct {
	Title        string
	Url          string
	Content      string
	Author       string
	ImageUrl     string
	Published    *time.Time
	PublishedRaw string
}

// Fetch error kinds. Source-level failures are recorded against the source
// and never abort the cycle.
type FetchErrorKind string

const (
	FetchErrorNetwork     FetchErrorKind = "network"
	FetchErrorAuth        FetchErrorKind = "auth"
	FetchErrorParse       FetchErrorKind = "parse"
	FetchErrorRateLimited FetchErrorKind = "rate_limited"
)

// FetchError is the typed failure an adapter returns.
type FetchError struct {
	Kind  FetchErrorKind
	Cause error
}

func (e *FetchError) Error() string {
	if e.Cause == nil {
		return fmt.Sprintf("fetch error: %s", e.Kind)
	}
	return fmt.Sprintf("fetch error: %s: %s", e.Kind, e.Cause.Error())
}

func (e *FetchError) Unwrap() error { return e.Cause }

func NewFetchError(kind FetchErrorKind, cause error) *FetchError {
	return &FetchError{Kind: kind, Cause: cause}
}

// FetchErrorKindOf extracts the kind from any error in the chain, defaulting
// to network for untyped failures.
func FetchErrorKindOf(err error) FetchErrorKind {
	var fe *FetchError
	if errors.As(err, &fe) {
		return fe.Kind
	}
	return FetchErrorNetwork
}

// Adapter converts one source type's native format into RawItems. New source
// types are added by implementing this interface and registering it, not by
// branching on type strings in the pipeline.
type Adapter interface {
	Collect(ctx context.Context, source *model.Source) ([]RawItem, error)
}

// Registry maps source types to their adapters.
type Registry struct {
	adapters map[string]Adapter
}

func NewRegistry() *Registry {
	return &Registry{adapters: make(map[string]Adapter)}
}

func (r *Registry) Register(sourceType string, adapter Adapter) {
	r.adapters[sourceType] = adapter
}

func (r *Registry) Get(sourceType string) (Adapter, error) {
	adapter, ok := r.adapters[sourceType]
	if !ok {
		return nil, errors.Errorf("no adapter registered for source type %q", sourceType)
	}
	return adapter, nil
}
