package service

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSignIn_Transitions(t *testing.T) {
	s := NewSignIn()
	assert.Equal(t, Unauthenticated, s.State())

	assert.Error(t, s.Advance(TokenExchanged))
	assert.NoError(t, s.Advance(AuthorizationRequested))
	assert.NoError(t, s.Advance(CodeReceived))
	assert.False(t, s.Terminal())

	s.Fail(errors.New("denied"))
	assert.Equal(t, Failed, s.State())
	assert.True(t, s.Terminal())
	assert.EqualError(t, s.Err(), "denied")

	// 终态不可再变更
	assert.Error(t, s.Advance(TokenExchanged))
	s.Fail(errors.New("again"))
	assert.EqualError(t, s.Err(), "denied")
	assert.Equal(t, []SignInState{Unauthenticated, AuthorizationRequested, CodeReceived, Failed}, s.History())
}

func TestSignInState_String(t *testing.T) {
	assert.Equal(t, "profile_resolved", ProfileResolved.String())
	assert.Equal(t, "SignInState(99)", SignInState(99).String())
}
