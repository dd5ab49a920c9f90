package service

import (
	"bytes"
	"encoding/json"
	"html/template"
	"net/url"
	"strings"
	texttemplate "text/template"

	"datalens/models"
)

// HandoffMessageType 登录成功后发给打开者窗口的消息类型
const HandoffMessageType = "OAUTH_AUTH_SUCCESS"

// HandoffMessage 弹窗回传给应用窗口的消息
type HandoffMessage struct {
	Type  string       `json:"type"`
	User  *models.User `json:"user"`
	Token string       `json:"token,omitempty"`
}

// NewHandoffMessage 登录成功消息
func NewHandoffMessage(user *models.User, token string) HandoffMessage {
	return HandoffMessage{Type: HandoffMessageType, User: user, Token: token}
}

// OriginAllowlist 应用地址的 origin，以及任意端口的 localhost / 127.0.0.1
type OriginAllowlist struct {
	appOrigin string
}

// NewOriginAllowlist 由应用地址构建白名单，地址为空或无法解析时只允许本地 origin
func NewOriginAllowlist(appURL string) OriginAllowlist {
	return OriginAllowlist{appOrigin: originOf(appURL)}
}

// AppOrigin 应用地址的 origin，未配置时为空
func (a OriginAllowlist) AppOrigin() string {
	return a.appOrigin
}

// Allowed origin 是否可信
func (a OriginAllowlist) Allowed(origin string) bool {
	normalized := originOf(origin)
	if normalized == "" {
		return false
	}
	if a.appOrigin != "" && normalized == a.appOrigin {
		return true
	}
	u, _ := url.Parse(normalized)
	switch u.Hostname() {
	case "localhost", "127.0.0.1":
		return true
	}
	return false
}

// originOf 取 scheme://host[:port]，只接受 http 与 https
func originOf(raw string) string {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil || u.Host == "" {
		return ""
	}
	scheme := strings.ToLower(u.Scheme)
	if scheme != "http" && scheme != "https" {
		return ""
	}
	return scheme + "://" + strings.ToLower(u.Host)
}

// HandoffChannel 把登录结果从弹窗交给应用窗口
type HandoffChannel struct {
	allow OriginAllowlist
}

// NewHandoffChannel 创建 HandoffChannel
func NewHandoffChannel(allow OriginAllowlist) *HandoffChannel {
	return &HandoffChannel{allow: allow}
}

var pageTemplate = template.Must(template.New("handoff").Parse(`<!DOCTYPE html>
<html>
<head><meta charset="utf-8"><title>Signing in</title></head>
<body>
<p>Authentication successful. You can close this window.</p>
<script>
(function () {
  var message = {{.Message}};
  var target = {{.TargetOrigin}} || window.location.origin;
  if (window.opener) {
    window.opener.postMessage(message, target);
    window.close();
  }
})();
</script>
</body>
</html>
`))

// Page 回调页面，只向应用 origin 投递消息；未配置应用地址时投递给页面自身的 origin
func (h *HandoffChannel) Page(msg HandoffMessage) ([]byte, error) {
	var buf bytes.Buffer
	err := pageTemplate.Execute(&buf, struct {
		Message      HandoffMessage
		TargetOrigin string
	}{msg, h.allow.AppOrigin()})
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

var receiverTemplate = texttemplate.Must(texttemplate.New("receiver").Parse(`(function (global) {
  var appOrigin = {{.AppOrigin}};
  var localHosts = ["localhost", "127.0.0.1"];

  function allowed(origin) {
    if (appOrigin && origin === appOrigin) return true;
    try {
      var u = new URL(origin);
      return (u.protocol === "http:" || u.protocol === "https:") && localHosts.indexOf(u.hostname) !== -1;
    } catch (e) {
      return false;
    }
  }

  global.datalensAuth = {
    allowed: allowed,
    listen: function (onUser) {
      function handler(event) {
        if (!allowed(event.origin)) return;
        var data = event.data;
        if (!data || data.type !== {{.MessageType}} || !data.user) return;
        global.removeEventListener("message", handler);
        onUser(data.user, data.token);
      }
      global.addEventListener("message", handler);
      return function () { global.removeEventListener("message", handler); };
    }
  };
})(window);
`))

// ReceiverScript 浏览器端的接收脚本：来源须为应用 origin 或本地地址，且消息类型匹配
func (h *HandoffChannel) ReceiverScript() ([]byte, error) {
	appOrigin, _ := json.Marshal(h.allow.AppOrigin())
	msgType, _ := json.Marshal(HandoffMessageType)

	var buf bytes.Buffer
	err := receiverTemplate.Execute(&buf, struct {
		AppOrigin   string
		MessageType string
	}{string(appOrigin), string(msgType)})
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
