package service

import (
	"fmt"

	"datalens/config"

	"github.com/sirupsen/logrus"
)

// SignInState 一次登录尝试所处的阶段
type SignInState int

const (
	Unauthenticated SignInState = iota
	AuthorizationRequested
	CodeReceived
	TokenExchanged
	ProfileResolved
	UserUpserted
	Complete
	Failed
)

var signInStateNames = map[SignInState]string{
	Unauthenticated:        "unauthenticated",
	AuthorizationRequested: "authorization_requested",
	CodeReceived:           "code_received",
	TokenExchanged:         "token_exchanged",
	ProfileResolved:        "profile_resolved",
	UserUpserted:           "user_upserted",
	Complete:               "complete",
	Failed:                 "failed",
}

func (s SignInState) String() string {
	if name, ok := signInStateNames[s]; ok {
		return name
	}
	return fmt.Sprintf("SignInState(%d)", int(s))
}

// SignIn 记录一次登录尝试的状态流转
// 只能逐步前进；Complete 与 Failed 为终态
type SignIn struct {
	state   SignInState
	history []SignInState
	err     error
}

// NewSignIn 从 Unauthenticated 开始
func NewSignIn() *SignIn {
	return &SignIn{state: Unauthenticated, history: []SignInState{Unauthenticated}}
}

// resumeSignIn 回调请求中继续之前发起的授权
func resumeSignIn() *SignIn {
	s := NewSignIn()
	_ = s.Advance(AuthorizationRequested)
	return s
}

// Advance 前进到下一阶段
func (s *SignIn) Advance(next SignInState) error {
	if s.Terminal() {
		return fmt.Errorf("sign-in already %s", s.state)
	}
	if next != s.state+1 {
		return fmt.Errorf("invalid sign-in transition %s -> %s", s.state, next)
	}
	s.move(next)
	return nil
}

// Fail 进入 Failed，终态下调用无效
func (s *SignIn) Fail(err error) {
	if s.Terminal() {
		return
	}
	s.err = err
	s.move(Failed)
}

func (s *SignIn) move(next SignInState) {
	config.Logger().WithFields(logrus.Fields{
		"from": s.state.String(),
		"to":   next.String(),
	}).Debug("登录状态变更")
	s.state = next
	s.history = append(s.history, next)
}

// State 当前阶段
func (s *SignIn) State() SignInState { return s.state }

// Err Failed 时的原因
func (s *SignIn) Err() error { return s.err }

// History 经历过的全部阶段
func (s *SignIn) History() []SignInState {
	return append([]SignInState(nil), s.history...)
}

// Terminal 是否已结束
func (s *SignIn) Terminal() bool {
	return s.state == Complete || s.state == Failed
}
