package identity

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestStaticAuthenticate(t *testing.T) {
	alice := Principal{Token: "t-alice", Role: RoleCandidate, Name: "Alice"}
	provider := NewStatic(alice, Principal{Role: RoleAdmin, Name: "no token"})

	got, err := provider.Authenticate(context.Background(), "t-alice")
	require.NoError(t, err)
	require.Equal(t, alice, got)

	_, err = provider.Authenticate(context.Background(), "")
	require.ErrorIs(t, err, ErrMissingToken)
	_, err = provider.Authenticate(context.Background(), "nope")
	require.ErrorIs(t, err, ErrUnauthorized)
}

func TestFromEnv(t *testing.T) {
	t.Setenv(EnvToken, " secret ")
	t.Setenv(EnvRole, "Recruiter")
	t.Setenv(EnvName, "Sam")

	p, err := FromEnv()
	require.NoError(t, err)
	require.Equal(t, Principal{Token: "secret", Role: RoleRecruiter, Name: "Sam"}, p)
	require.True(t, p.CanReview())
}

func TestFromLookupDefaultsAndErrors(t *testing.T) {
	env := map[string]string{"USER": "robin"}
	lookup := func(key string) (string, bool) {
		v, ok := env[key]
		return v, ok
	}

	p, err := fromLookup(lookup)
	require.NoError(t, err)
	require.Equal(t, RoleCandidate, p.Role)
	require.Equal(t, "robin", p.Name)
	require.False(t, p.CanReview())
	require.True(t, p.CanInterview())

	env[EnvRole] = "owner"
	_, err = fromLookup(lookup)
	require.ErrorContains(t, err, `unknown role "owner"`)
}

func TestEnvAuthenticate(t *testing.T) {
	t.Setenv(EnvToken, "")
	t.Setenv(EnvRole, "")
	t.Setenv(EnvName, "Local")

	open, err := NewEnv()
	require.NoError(t, err)
	p, err := open.Authenticate(context.Background(), "")
	require.NoError(t, err)
	require.Equal(t, "Local", p.Name)

	t.Setenv(EnvToken, "abc")
	locked, err := NewEnv()
	require.NoError(t, err)
	_, err = locked.Authenticate(context.Background(), "")
	require.ErrorIs(t, err, ErrMissingToken)
	_, err = locked.Authenticate(context.Background(), "xyz")
	require.ErrorIs(t, err, ErrUnauthorized)
	p, err = locked.Authenticate(context.Background(), "abc")
	require.NoError(t, err)
	require.Equal(t, locked.Principal(), p)
}

func TestBearerToken(t *testing.T) {
	tests := []struct {
		header  string
		want    string
		wantErr error
	}{
		{header: "Bearer abc", want: "abc"},
		{header: "bearer   abc  ", want: "abc"},
		{header: "", wantErr: ErrMissingToken},
		{header: "Bearer ", wantErr: ErrMissingToken},
		{header: "Basic dXNlcg==", wantErr: ErrUnauthorized},
		{header: "abc", wantErr: ErrUnauthorized},
	}
	for _, tc := range tests {
		t.Run(tc.header, func(t *testing.T) {
			got, err := BearerToken(tc.header)
			if tc.wantErr != nil {
				require.ErrorIs(t, err, tc.wantErr)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tc.want, got)
		})
	}
}

func TestPrincipalJSONOmitsToken(t *testing.T) {
	data, err := json.Marshal(Principal{Token: "secret", Role: RoleAdmin, Name: "Ops"})
	require.NoError(t, err)
	require.JSONEq(t, `{"role":"admin","name":"Ops"}`, string(data))
}

func TestContextRoundTrip(t *testing.T) {
	_, ok := FromContext(context.Background())
	require.False(t, ok)

	ctx := WithPrincipal(context.Background(), Principal{Name: "x", Role: RoleCandidate})
	p, ok := FromContext(ctx)
	require.True(t, ok)
	require.Equal(t, "x", p.Name)
}
