package jwt

import (
	"context"

	"github.com/joseforge/jose/jwk"
)

// KeyProvider resolves candidate keys for a token's header. Since
// *jwk.Key structurally satisfies both sig.Key and keymanage.Key, one
// interface serves both the JWS and JWE branches of the reader.
//
// Candidates are tried in the order returned; the first one that verifies
// or unwraps successfully wins.
type KeyProvider interface {
	FindKeys(ctx context.Context, header Header) ([]*jwk.Key, error)
}

// FindKeysFunc adapts an ordinary function to a KeyProvider.
type FindKeysFunc func(ctx context.Context, header Header) ([]*jwk.Key, error)

func (f FindKeysFunc) FindKeys(ctx context.Context, header Header) ([]*jwk.Key, error) {
	return f(ctx, header)
}

// StaticKeys is a KeyProvider returning the same fixed key set for every
// header, for callers who don't index keys by "kid".
type StaticKeys []*jwk.Key

func (s StaticKeys) FindKeys(ctx context.Context, header Header) ([]*jwk.Key, error) {
	return []*jwk.Key(s), nil
}

// SetKeyProvider resolves keys from a jwk.Set by the header's "kid". When
// the header carries no "kid", or the lookup misses, it falls back to
// every key in the set so a kid-less token can still be tried against a
// multi-key set (e.g. during key rollover).
type SetKeyProvider struct {
	Set *jwk.Set
}

func (p *SetKeyProvider) FindKeys(ctx context.Context, header Header) ([]*jwk.Key, error) {
	if kid := header.KeyID(); kid != "" {
		if key, ok := p.Set.Find(kid); ok {
			return []*jwk.Key{key}, nil
		}
	}
	return p.Set.Keys, nil
}
