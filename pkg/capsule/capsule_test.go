package capsule

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testDescriptor() Descriptor {
	return Descriptor{
		Host:     "localhost:9000",
		Database: "default",
		Username: "default",
		Password: "secret",
	}
}

func TestMintOpenRoundtrip(t *testing.T) {
	svc := NewService("test-secret", time.Hour)

	token, expiresAt, err := svc.Mint(testDescriptor())
	require.NoError(t, err)
	require.NotEmpty(t, token)

	desc, openedExpiry, err := svc.Open(token)
	require.NoError(t, err)
	assert.Equal(t, testDescriptor(), desc)
	// JWT timestamps have second precision.
	assert.WithinDuration(t, expiresAt, openedExpiry, time.Second)
}

func TestOpenExpiredCapsule(t *testing.T) {
	svc := NewService("test-secret", -time.Minute)

	token, _, err := svc.Mint(testDescriptor())
	require.NoError(t, err)

	_, _, err = svc.Open(token)
	assert.ErrorIs(t, err, ErrExpired)
}

func TestOpenRejectsWrongSecret(t *testing.T) {
	minter := NewService("secret-one", time.Hour)
	opener := NewService("secret-two", time.Hour)

	token, _, err := minter.Mint(testDescriptor())
	require.NoError(t, err)

	_, _, err = opener.Open(token)
	assert.ErrorIs(t, err, ErrInvalid)
	assert.NotErrorIs(t, err, ErrExpired)
}

func TestOpenRejectsGarbage(t *testing.T) {
	svc := NewService("test-secret", time.Hour)

	for _, token := range []string{"", "not-a-token", "a.b.c"} {
		_, _, err := svc.Open(token)
		assert.ErrorIs(t, err, ErrInvalid, "token %q", token)
	}
}

func TestOpenRejectsTamperedToken(t *testing.T) {
	svc := NewService("test-secret", time.Hour)

	token, _, err := svc.Mint(testDescriptor())
	require.NoError(t, err)

	tampered := token[:len(token)-2] + "xx"
	_, _, err = svc.Open(tampered)
	assert.ErrorIs(t, err, ErrInvalid)
}

func TestTTL(t *testing.T) {
	svc := NewService("test-secret", 45*time.Minute)
	assert.Equal(t, 45*time.Minute, svc.TTL())
}

func TestTokenFromRequest(t *testing.T) {
	tests := []struct {
		name      string
		header    string
		wantToken string
		wantErr   error
	}{
		{
			name:      "valid bearer token",
			header:    "Bearer abc.def.ghi",
			wantToken: "abc.def.ghi",
		},
		{
			name:      "extra whitespace between scheme and token",
			header:    "Bearer  abc.def.ghi",
			wantToken: "abc.def.ghi",
		},
		{
			name:    "missing header",
			header:  "",
			wantErr: ErrMissingToken,
		},
		{
			name:    "token contains spaces",
			header:  "Bearer abc def",
			wantErr: ErrInvalidAuthFormat,
		},
		{
			name:    "wrong scheme",
			header:  "Basic abc",
			wantErr: ErrInvalidAuthFormat,
		},
		{
			name:    "no token after scheme",
			header:  "Bearer",
			wantErr: ErrInvalidAuthFormat,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodPost, "/get-tables", nil)
			if tt.header != "" {
				r.Header.Set("Authorization", tt.header)
			}

			token, err := TokenFromRequest(r)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantToken, token)
		})
	}
}

func TestDescriptorComplete(t *testing.T) {
	assert.True(t, testDescriptor().Complete())

	partial := testDescriptor()
	partial.Password = ""
	assert.False(t, partial.Complete())
	assert.False(t, Descriptor{}.Complete())
}
