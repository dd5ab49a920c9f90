package service

import (
	"testing"

	"datalens/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOriginAllowlist(t *testing.T) {
	allow := NewOriginAllowlist("https://App.Example.com/dashboard")
	assert.Equal(t, "https://app.example.com", allow.AppOrigin())

	cases := map[string]bool{
		"https://app.example.com":      true,
		"https://app.example.com/":     true,
		"http://app.example.com":       false,
		"https://app.example.com:8443": false,
		"https://evil.example.com":     false,
		"http://localhost:5173":        true,
		"http://127.0.0.1:3000":        true,
		"https://localhost":            true,
		"http://localhost.evil.com":    false,
		"file://localhost":             false,
		"null":                         false,
		"":                             false,
	}
	for origin, want := range cases {
		assert.Equal(t, want, allow.Allowed(origin), origin)
	}

	local := NewOriginAllowlist("")
	assert.Empty(t, local.AppOrigin())
	assert.True(t, local.Allowed("http://localhost:3000"))
	assert.False(t, local.Allowed("https://app.example.com"))
}

func TestHandoffChannel_Page(t *testing.T) {
	channel := NewHandoffChannel(NewOriginAllowlist("https://app.example.com"))
	user := &models.User{ID: "g-1", Name: "Ada </script><script>alert(1)</script>", Email: "ada@example.com"}

	page, err := channel.Page(NewHandoffMessage(user, "tok"))
	require.NoError(t, err)
	html := string(page)

	assert.Contains(t, html, `"type":"OAUTH_AUTH_SUCCESS"`)
	assert.Contains(t, html, `"id":"g-1"`)
	assert.Contains(t, html, `"token":"tok"`)
	assert.Contains(t, html, "app.example.com")
	assert.Contains(t, html, "window.opener.postMessage")
	assert.NotContains(t, html, "<script>alert(1)</script>")
}

func TestHandoffChannel_ReceiverScript(t *testing.T) {
	script, err := NewHandoffChannel(NewOriginAllowlist("https://app.example.com")).ReceiverScript()
	require.NoError(t, err)
	js := string(script)
	assert.Contains(t, js, `var appOrigin = "https://app.example.com";`)
	assert.Contains(t, js, `data.type !== "OAUTH_AUTH_SUCCESS"`)
	assert.Contains(t, js, `"localhost", "127.0.0.1"`)
	assert.Contains(t, js, "if (!allowed(event.origin)) return;")

	script, err = NewHandoffChannel(NewOriginAllowlist("")).ReceiverScript()
	require.NoError(t, err)
	assert.Contains(t, string(script), `var appOrigin = "";`)
}
