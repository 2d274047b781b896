package ioc

import (
	"fmt"
	"log/slog"
)

// Option configures a Container.
type Option interface {
	apply(*containerOptions)
}

// containerOptions holds container configuration.
type containerOptions struct {
	name       string
	logger     *slog.Logger
	discoverer Discoverer
}

// optionFunc adapts a function to Option.
type optionFunc func(*containerOptions)

func (f optionFunc) apply(opts *containerOptions) {
	f(opts)
}

func newContainerOptions(opts []Option) *containerOptions {
	o := &containerOptions{}
	for _, opt := range opts {
		if opt != nil {
			opt.apply(o)
		}
	}

	if o.logger == nil {
		o.logger = slog.Default()
	}
	if o.discoverer == nil {
		o.discoverer = DefaultCatalog
	}
	return o
}

// WithLogger sets the logger receiving hook warnings, handler failures and
// resolution events. Defaults to slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return optionFunc(func(opts *containerOptions) {
		opts.logger = logger
	})
}

// WithName names the container in log records.
func WithName(name string) Option {
	return nameOption(name)
}

type nameOption string

func (o nameOption) String() string {
	return fmt.Sprintf("WithName(%q)", string(o))
}

func (o nameOption) apply(opts *containerOptions) {
	opts.name = string(o)
}

// WithDiscoverer sets the Discoverer used by Scan and ScanPackage.
// Defaults to DefaultCatalog.
func WithDiscoverer(d Discoverer) Option {
	return optionFunc(func(opts *containerOptions) {
		opts.discoverer = d
	})
}
