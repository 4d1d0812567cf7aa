package geoip

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"BR", "BR"},
		{"br", "BR"},
		{" us ", "US"},
		{"", ""},
		{"BRA", ""},
		{"B1", ""},
		{"B", ""},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, Normalize(tt.in), "input %q", tt.in)
	}
}

func TestDisabledResolver(t *testing.T) {
	country, err := Disabled{}.Country(context.Background(), "203.0.113.7")
	require.NoError(t, err)
	assert.Empty(t, country)
}

func TestHTTPResolver(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/203.0.113.7", r.URL.Path)
			w.Write([]byte(`{"countryCode":"br"}`))
		}))
		defer srv.Close()

		resolver := NewHTTPResolver(srv.URL)
		country, err := resolver.Country(context.Background(), "203.0.113.7")
		require.NoError(t, err)
		assert.Equal(t, "BR", country)
	})

	t.Run("non_200_is_an_error", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusTooManyRequests)
		}))
		defer srv.Close()

		resolver := NewHTTPResolver(srv.URL)
		_, err := resolver.Country(context.Background(), "203.0.113.7")
		assert.Error(t, err)
	})

	t.Run("empty_ip_short_circuits", func(t *testing.T) {
		resolver := NewHTTPResolver("http://127.0.0.1:1")
		country, err := resolver.Country(context.Background(), "")
		require.NoError(t, err)
		assert.Empty(t, country)
	})
}
