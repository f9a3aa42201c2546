// Package credentials resolves a token reference into the plaintext
// bearer token handed to the Quay client. The client itself never
// manages secret lifecycle; whatever invokes it (pipeline, CLI) resolves
// the reference first and passes the result in.
package credentials

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/afero"
)

// SecretProvider resolves a secret reference to its value.
type SecretProvider func(ctx context.Context, ref string) (string, error)

// Option configures a Resolver.
type Option func(*Resolver)

// Resolver turns token references such as "env:QUAY_TOKEN" or
// "file:/run/secrets/quay" into plaintext tokens. References without a
// recognised scheme are taken as the literal token.
type Resolver struct {
	fs        afero.Fs
	lookupEnv func(string) (string, bool)
	providers map[string]SecretProvider
	logger    *slog.Logger
}

// WithFs sets the filesystem used by the file scheme. Tests use an
// in-memory filesystem.
func WithFs(fs afero.Fs) Option {
	return func(r *Resolver) {
		r.fs = fs
	}
}

// WithLogger sets the logger for the resolver.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Resolver) {
		r.logger = logger
	}
}

// WithProvider registers a named secret provider as a reference scheme.
func WithProvider(name string, p SecretProvider) Option {
	return func(r *Resolver) {
		r.providers[name] = p
	}
}

// NewResolver creates a new token resolver with the given options.
func NewResolver(opts ...Option) *Resolver {
	r := &Resolver{
		fs:        afero.NewOsFs(),
		lookupEnv: os.LookupEnv,
		providers: make(map[string]SecretProvider),
		logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// ResolveToken resolves a token reference. An empty reference means
// anonymous access and resolves to an empty token.
func (r *Resolver) ResolveToken(ctx context.Context, ref string) (string, error) {
	if ref == "" {
		return "", nil
	}

	scheme, rest, ok := strings.Cut(ref, ":")
	if !ok {
		return ref, nil
	}

	switch scheme {
	case "env":
		val, ok := r.lookupEnv(rest)
		if !ok {
			return "", fmt.Errorf("environment variable %q is not set", rest)
		}
		r.logger.Debug("resolved token from environment", "name", rest)
		return val, nil
	case "file":
		data, err := afero.ReadFile(r.fs, rest)
		if err != nil {
			return "", fmt.Errorf("reading token file %q: %w", rest, err)
		}
		r.logger.Debug("resolved token from file", "path", rest)
		return strings.TrimSpace(string(data)), nil
	}

	if provider, ok := r.providers[scheme]; ok {
		val, err := provider(ctx, rest)
		if err != nil {
			return "", fmt.Errorf("resolving %s reference: %w", scheme, err)
		}
		r.logger.Debug("resolved token from provider", "provider", scheme)
		return val, nil
	}

	// No recognised scheme; the reference is the token itself.
	return ref, nil
}
