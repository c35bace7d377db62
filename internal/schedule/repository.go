package schedule

import (
	"context"

	"github.com/rs/zerolog"
)

// Source identifies where a resolved circuit came from.
type Source int

const (
	// SourceNone means neither the backend nor the cache produced a circuit.
	SourceNone Source = iota
	// SourceRemote means the circuit is fresh from the backend.
	SourceRemote
	// SourceCache means the backend was unreachable and the last-known-good
	// copy was used. Cached circuits never carry a one-time activation.
	SourceCache
)

func (s Source) String() string {
	switch s {
	case SourceRemote:
		return "remote"
	case SourceCache:
		return "cache"
	default:
		return "none"
	}
}

// Resolution is the outcome of a circuit fetch. Circuit is nil exactly when
// Source is SourceNone.
type Resolution struct {
	Circuit *Circuit
	Source  Source
}

// Repository resolves the current circuit online-first: the remote backend
// is the primary source and the local cache the fallback. Successful remote
// fetches are written through to the cache.
type Repository struct {
	backend RemoteSource
	cache   Cache
	log     zerolog.Logger
}

// RemoteSource is the slice of the backend client the repository needs.
// Errors are classified by the backend package; the repository reacts to
// every one of them the same way, by falling back to the cache.
type RemoteSource interface {
	FetchCircuit(ctx context.Context) (*Circuit, error)
}

// Cache is the local last-known-good copy of the circuit, implemented by
// the store package.
type Cache interface {
	Fetch(ctx context.Context) (*Circuit, error)
	Store(ctx context.Context, circuit *Circuit) error
}

// NewRepository creates a circuit repository.
func NewRepository(remote RemoteSource, cache Cache, log zerolog.Logger) *Repository {
	return &Repository{
		backend: remote,
		cache:   cache,
		log:     log.With().Str("component", "repository").Logger(),
	}
}

// Fetch resolves the circuit. On remote success the result is written
// through to the cache; a cache write failure is logged but does not fail
// the fetch. On remote failure the cached copy is returned with any
// one-time activation stripped, since the cache never stores one.
func (r *Repository) Fetch(ctx context.Context) Resolution {
	circuit, err := r.backend.FetchCircuit(ctx)
	if err == nil {
		if storeErr := r.cache.Store(ctx, circuit); storeErr != nil {
			r.log.Warn().Err(storeErr).Msg("could not write circuit through to local cache")
		}
		return Resolution{Circuit: circuit, Source: SourceRemote}
	}

	r.log.Error().Err(err).Msg("could not fetch the circuit from backend")
	r.log.Info().Msg("fetching the circuit from local cache")

	cached, cacheErr := r.cache.Fetch(ctx)
	if cacheErr != nil {
		r.log.Error().Err(cacheErr).Msg("could not fetch the circuit from local cache")
		return Resolution{Source: SourceNone}
	}
	if cached == nil {
		r.log.Error().Msg("no circuit present in local cache")
		return Resolution{Source: SourceNone}
	}

	cached.OneTime = nil
	return Resolution{Circuit: cached, Source: SourceCache}
}

// Update writes the circuit to the local cache only. Pushing changes to the
// backend is not a capability of this controller.
func (r *Repository) Update(ctx context.Context, circuit *Circuit) error {
	return r.cache.Store(ctx, circuit)
}
