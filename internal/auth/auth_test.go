package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"
)

var testKey = []byte("test-secret")

func runMiddleware(t *testing.T, header string) (*httptest.ResponseRecorder, echo.Context, bool) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/api/diet-history/jane@example.com", nil)
	if header != "" {
		req.Header.Set("Authorization", header)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	called := false
	h := JwtAuthMiddleware(string(testKey))(func(c echo.Context) error {
		called = true
		return c.NoContent(http.StatusOK)
	})
	require.NoError(t, h(c))
	return rec, c, called
}

func TestJwtAuthMiddlewareAcceptsValidToken(t *testing.T) {
	token, err := GenerateAccessToken("u-1", "jane@example.com", "Jane", testKey)
	require.NoError(t, err)

	rec, c, called := runMiddleware(t, "Bearer "+token)
	require.True(t, called)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "jane@example.com", c.Get("user_email"))
	require.Equal(t, "u-1", c.Get("user_id"))
}

func TestJwtAuthMiddlewareRejects(t *testing.T) {
	otherKey, err := GenerateAccessToken("u-1", "jane@example.com", "Jane", []byte("other"))
	require.NoError(t, err)

	expired := jwt.NewWithClaims(jwt.SigningMethodHS256, &JwtCustomClaims{
		Email: "jane@example.com",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute)),
		},
	})
	expiredToken, err := expired.SignedString(testKey)
	require.NoError(t, err)

	noEmail, err := GenerateAccessToken("u-1", "", "Jane", testKey)
	require.NoError(t, err)

	for name, header := range map[string]string{
		"missing":   "",
		"wrong key": "Bearer " + otherKey,
		"expired":   "Bearer " + expiredToken,
		"no email":  "Bearer " + noEmail,
		"garbage":   "Bearer not-a-token",
	} {
		t.Run(name, func(t *testing.T) {
			rec, _, called := runMiddleware(t, header)
			require.False(t, called)
			require.Equal(t, http.StatusUnauthorized, rec.Code)
		})
	}
}

func TestParseTokenRejectsOtherAlgorithms(t *testing.T) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS512, &JwtCustomClaims{Email: "jane@example.com"})
	s, err := token.SignedString(testKey)
	require.NoError(t, err)

	_, err = ParseToken(s, testKey)
	require.Error(t, err)
}
