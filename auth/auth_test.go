package auth

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xxxsen/davgate/idp"
)

type fakeIdP struct {
	calls int
	err   error
}

func (f *fakeIdP) PasswordGrant(ctx context.Context, username string, password string) (*idp.Token, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return &idp.Token{AccessToken: "at-" + username, RefreshToken: "rt", ExpiresIn: 3600}, nil
}

func (f *fakeIdP) RefreshGrant(ctx context.Context, refreshToken string) (*idp.Token, error) {
	return nil, errors.New("not used")
}

func TestVerify(t *testing.T) {
	f := &fakeIdP{}
	v := NewIdPVerifier(f)
	tk, err := v.Verify(context.Background(), "alice", "secret")
	require.NoError(t, err)
	assert.Equal(t, "at-alice", tk.AccessToken)
	assert.Equal(t, 1, f.calls)

	_, err = v.Verify(context.Background(), "", "secret")
	assert.True(t, errors.Is(err, ErrAuthenticationFailed))
	assert.Equal(t, 1, f.calls)
}

func TestVerifyRejected(t *testing.T) {
	v := NewIdPVerifier(&fakeIdP{err: &idp.Error{StatusCode: http.StatusUnauthorized}})
	_, err := v.Verify(context.Background(), "alice", "wrong")
	assert.True(t, errors.Is(err, ErrAuthenticationFailed))
}

func TestVerifyUpstreamFailure(t *testing.T) {
	v := NewIdPVerifier(&fakeIdP{err: &idp.Error{StatusCode: http.StatusBadGateway}})
	_, err := v.Verify(context.Background(), "alice", "secret")
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrAuthenticationFailed))
}

func newGinContext(header string) *gin.Context {
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest("PROPFIND", "/", nil)
	if len(header) > 0 {
		c.Request.Header.Set("Authorization", header)
	}
	return c
}

func TestParseBasic(t *testing.T) {
	c := newGinContext("")
	c.Request.SetBasicAuth("alice", "secret")
	cred, err := ParseBasic(c)
	require.NoError(t, err)
	assert.Equal(t, "alice", cred.Username)
	assert.Equal(t, "secret", cred.Password)

	_, err = ParseBasic(newGinContext(""))
	assert.True(t, errors.Is(err, ErrAuthenticationFailed))
	_, err = ParseBasic(newGinContext("Bearer xyz"))
	assert.True(t, errors.Is(err, ErrAuthenticationFailed))
	_, err = ParseBasic(newGinContext("Basic !!!notbase64"))
	assert.True(t, errors.Is(err, ErrAuthenticationFailed))
}

func TestChallenge(t *testing.T) {
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	Challenge(c, "")
	assert.Equal(t, `Basic realm="davgate"`, rec.Header().Get("WWW-Authenticate"))
}
