package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"datalens/config"
	"datalens/models"

	"golang.org/x/oauth2"
)

const (
	googleAuthURL     = "https://accounts.google.com/o/oauth2/auth"
	googleTokenURL    = "https://oauth2.googleapis.com/token"
	googleUserInfoURL = "https://www.googleapis.com/oauth2/v2/userinfo"
)

// googleScopes 登录所需的权限
var googleScopes = []string{"openid", "email", "profile"}

// UserUpserter 保存登录用户
type UserUpserter interface {
	Upsert(ctx context.Context, user *models.User) error
}

// GoogleProfile Google 用户信息
type GoogleProfile struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Email   string `json:"email"`
	Picture string `json:"picture"`
}

// GoogleBridge Google OAuth 登录
type GoogleBridge struct {
	cfg        *config.Config
	users      UserUpserter
	httpClient *http.Client
}

// NewGoogleBridge 创建 GoogleBridge
func NewGoogleBridge(cfg *config.Config, users UserUpserter) *GoogleBridge {
	return &GoogleBridge{cfg: cfg, users: users}
}

// WithHTTPClient 指定访问 Google 时使用的 HTTP 客户端
func (b *GoogleBridge) WithHTTPClient(client *http.Client) *GoogleBridge {
	b.httpClient = client
	return b
}

func (b *GoogleBridge) oauthConfig() (*oauth2.Config, error) {
	if b.cfg == nil || b.cfg.Server.AppURL == "" {
		return nil, &ConfigurationError{Setting: "APP_URL"}
	}
	g := b.cfg.Google
	if g.ClientID == "" {
		return nil, &ConfigurationError{Setting: "GOOGLE_CLIENT_ID"}
	}

	endpoint := oauth2.Endpoint{
		AuthURL:   googleAuthURL,
		TokenURL:  googleTokenURL,
		AuthStyle: oauth2.AuthStyleInParams,
	}
	if g.AuthURL != "" {
		endpoint.AuthURL = g.AuthURL
	}
	if g.TokenURL != "" {
		endpoint.TokenURL = g.TokenURL
	}
	return &oauth2.Config{
		ClientID:     g.ClientID,
		ClientSecret: g.ClientSecret,
		Endpoint:     endpoint,
		RedirectURL:  b.cfg.Server.RedirectURI(),
		Scopes:       googleScopes,
	}, nil
}

func (b *GoogleBridge) userInfoURL() string {
	if b.cfg.Google.UserInfoURL != "" {
		return b.cfg.Google.UserInfoURL
	}
	return googleUserInfoURL
}

// AuthorizationURL Google 授权页地址
func (b *GoogleBridge) AuthorizationURL() (string, error) {
	conf, err := b.oauthConfig()
	if err != nil {
		return "", err
	}
	return conf.AuthCodeURL("", oauth2.AccessTypeOnline, oauth2.SetAuthURLParam("prompt", "select_account")), nil
}

// CompleteExchange 用授权码换取令牌、获取用户资料并保存用户，失败不重试
func (b *GoogleBridge) CompleteExchange(ctx context.Context, code string) (*models.User, *SignIn, error) {
	s := resumeSignIn()
	user, err := b.exchange(ctx, code, s)
	if err != nil {
		s.Fail(err)
		return nil, s, err
	}
	_ = s.Advance(Complete)
	return user, s, nil
}

func (b *GoogleBridge) exchange(ctx context.Context, code string, s *SignIn) (*models.User, error) {
	if code == "" {
		return nil, &AuthExchangeError{Stage: "code", Err: errors.New("missing authorization code")}
	}
	conf, err := b.oauthConfig()
	if err != nil {
		return nil, err
	}
	if b.cfg.Google.ClientSecret == "" {
		return nil, &ConfigurationError{Setting: "GOOGLE_CLIENT_SECRET"}
	}
	_ = s.Advance(CodeReceived)

	if b.httpClient != nil {
		ctx = context.WithValue(ctx, oauth2.HTTPClient, b.httpClient)
	}
	token, err := conf.Exchange(ctx, code)
	if err != nil {
		return nil, &AuthExchangeError{Stage: "token", Err: err}
	}
	_ = s.Advance(TokenExchanged)

	profile, err := b.fetchProfile(ctx, conf.Client(ctx, token))
	if err != nil {
		return nil, &AuthExchangeError{Stage: "profile", Err: err}
	}
	_ = s.Advance(ProfileResolved)

	user := &models.User{
		ID:      profile.ID,
		Name:    profile.Name,
		Email:   profile.Email,
		Picture: profile.Picture,
	}
	if err := b.users.Upsert(ctx, user); err != nil {
		return nil, err
	}
	_ = s.Advance(UserUpserted)
	return user, nil
}

func (b *GoogleBridge) fetchProfile(ctx context.Context, client *http.Client) (*GoogleProfile, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, b.userInfoURL(), nil)
	if err != nil {
		return nil, fmt.Errorf("创建请求失败: %w", err)
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("请求 Google 用户信息失败: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("读取响应失败: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("用户信息接口返回 %d: %s", resp.StatusCode, string(data))
	}

	var profile GoogleProfile
	if err := json.Unmarshal(data, &profile); err != nil {
		return nil, fmt.Errorf("解析响应失败: %w", err)
	}
	if profile.ID == "" {
		return nil, errors.New("用户信息中缺少 id")
	}
	return &profile, nil
}
