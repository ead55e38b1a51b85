// Package identity carries who is running an interview. Principals are passed
// explicitly; nothing in this package is global.
package identity

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
)

// Role is what a principal may do.
type Role string

const (
	RoleCandidate Role = "candidate"
	RoleRecruiter Role = "recruiter"
	RoleAdmin     Role = "admin"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	switch r {
	case RoleCandidate, RoleRecruiter, RoleAdmin:
		return true
	default:
		return false
	}
}

// Principal is an authenticated caller. The token never leaves the process in results.
type Principal struct {
	Token string `json:"-"`
	Role  Role   `json:"role"`
	Name  string `json:"name"`
}

// CanInterview reports whether p may run an interview.
func (p Principal) CanInterview() bool {
	return p.Role.Valid()
}

// CanReview reports whether p may read other candidates' results.
func (p Principal) CanReview() bool {
	return p.Role == RoleRecruiter || p.Role == RoleAdmin
}

var (
	ErrMissingToken = errors.New("missing bearer token")
	ErrUnauthorized = errors.New("unauthorized")
)

// Provider resolves a bearer token into a principal.
type Provider interface {
	Authenticate(ctx context.Context, token string) (Principal, error)
}

// Static authenticates a fixed token set.
type Static struct {
	principals map[string]Principal
}

// NewStatic registers principals by their tokens. Principals without a token are skipped.
func NewStatic(principals ...Principal) *Static {
	s := &Static{principals: make(map[string]Principal, len(principals))}
	for _, p := range principals {
		if p.Token == "" {
			continue
		}
		s.principals[p.Token] = p
	}
	return s
}

func (s *Static) Authenticate(_ context.Context, token string) (Principal, error) {
	if token == "" {
		return Principal{}, ErrMissingToken
	}
	p, ok := s.principals[token]
	if !ok {
		return Principal{}, ErrUnauthorized
	}
	return p, nil
}

const (
	EnvToken = "CANDOR_AUTH_TOKEN"
	EnvRole  = "CANDOR_ROLE"
	EnvName  = "CANDOR_NAME"
)

// FromEnv builds the local principal from CANDOR_AUTH_TOKEN, CANDOR_ROLE and
// CANDOR_NAME. Role defaults to candidate and name to $USER.
func FromEnv() (Principal, error) {
	return fromLookup(os.LookupEnv)
}

func fromLookup(lookup func(string) (string, bool)) (Principal, error) {
	get := func(key string) string {
		v, _ := lookup(key)
		return strings.TrimSpace(v)
	}
	p := Principal{
		Token: get(EnvToken),
		Role:  Role(strings.ToLower(get(EnvRole))),
		Name:  get(EnvName),
	}
	if p.Role == "" {
		p.Role = RoleCandidate
	}
	if !p.Role.Valid() {
		return Principal{}, fmt.Errorf("%s: unknown role %q", EnvRole, p.Role)
	}
	if p.Name == "" {
		p.Name = get("USER")
	}
	if p.Name == "" {
		p.Name = "candidate"
	}
	return p, nil
}

// Env authenticates against the single principal configured in the environment.
// With no CANDOR_AUTH_TOKEN set, every request authenticates as that principal.
type Env struct {
	principal Principal
}

// NewEnv reads the environment once.
func NewEnv() (*Env, error) {
	p, err := FromEnv()
	if err != nil {
		return nil, err
	}
	return &Env{principal: p}, nil
}

func (e *Env) Principal() Principal {
	return e.principal
}

func (e *Env) Authenticate(_ context.Context, token string) (Principal, error) {
	if e.principal.Token == "" {
		return e.principal, nil
	}
	if token == "" {
		return Principal{}, ErrMissingToken
	}
	if token != e.principal.Token {
		return Principal{}, ErrUnauthorized
	}
	return e.principal, nil
}

// BearerToken extracts the token from an Authorization header value.
func BearerToken(header string) (string, error) {
	header = strings.TrimSpace(header)
	if header == "" {
		return "", ErrMissingToken
	}
	scheme, token, _ := strings.Cut(header, " ")
	if !strings.EqualFold(scheme, "Bearer") {
		return "", fmt.Errorf("%w: expected Bearer scheme", ErrUnauthorized)
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return "", ErrMissingToken
	}
	return token, nil
}

type contextKey struct{}

// WithPrincipal returns a context carrying p, for request-scoped handlers.
func WithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, contextKey{}, p)
}

// FromContext returns the principal stored by WithPrincipal.
func FromContext(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(contextKey{}).(Principal)
	return p, ok
}
