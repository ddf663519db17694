package auth

import (
	"context"
	"testing"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestService_IssueAndVerify(t *testing.T) {
	svc, err := NewService("secret", WithIssuer("spacio"))
	require.NoError(t, err)

	token, err := svc.Issue(Principal{UserID: "u-1", IsHost: true}, time.Hour)
	require.NoError(t, err)

	p, err := svc.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, Principal{UserID: "u-1", IsHost: true}, p)
}

func TestService_RejectsBadTokens(t *testing.T) {
	svc, err := NewService("secret")
	require.NoError(t, err)
	other, err := NewService("other")
	require.NoError(t, err)

	foreign, err := other.Issue(Principal{UserID: "u"}, time.Hour)
	require.NoError(t, err)
	_, err = svc.Verify(foreign)
	assert.ErrorIs(t, err, ErrInvalidToken)

	expired, err := svc.Issue(Principal{UserID: "u"}, -time.Hour)
	require.NoError(t, err)
	_, err = svc.Verify(expired)
	assert.ErrorIs(t, err, ErrInvalidToken)

	noSubject, err := svc.Issue(Principal{}, time.Hour)
	require.NoError(t, err)
	_, err = svc.Verify(noSubject)
	assert.ErrorIs(t, err, ErrInvalidToken)

	none := jwtlib.NewWithClaims(jwtlib.SigningMethodNone, jwtlib.RegisteredClaims{Subject: "u"})
	raw, err := none.SignedString(jwtlib.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)
	_, err = svc.Verify(raw)
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = NewService(" ")
	assert.ErrorIs(t, err, ErrSecretMissing)
}

type hostCmd struct{}

func (hostCmd) RequiresHost() bool { return true }

type userCmd struct{}

func (userCmd) RequiresPrincipal() bool { return true }

func TestAuthorizer(t *testing.T) {
	a := Authorizer{}
	anon := context.Background()
	renter := WithPrincipal(anon, Principal{UserID: "r"})
	host := WithPrincipal(anon, Principal{UserID: "h", IsHost: true})

	assert.NoError(t, a.Authorize(anon, struct{}{}))
	assert.ErrorIs(t, a.Authorize(anon, userCmd{}), ErrUnauthenticated)
	assert.NoError(t, a.Authorize(renter, userCmd{}))
	assert.ErrorIs(t, a.Authorize(renter, hostCmd{}), ErrHostRequired)
	assert.NoError(t, a.Authorize(host, hostCmd{}))
}
