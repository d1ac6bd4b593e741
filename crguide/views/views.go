// Package views renders the login page and the chat page.
package views

import (
	"html/template"
	"io"
	"strings"

	"crguide/crguide/utils/types"
)

type MessageView struct {
	Index int
	Role  string
	HTML  template.HTML
	Time  string
}

type ChatPage struct {
	Title              string
	Profile            types.ProfileView
	SuggestedQuestions []string
	Messages           []MessageView
	Typing             bool
	Draft              string
}

// CanSend mirrors the disabled state of the send button.
func (p ChatPage) CanSend() bool { return strings.TrimSpace(p.Draft) != "" }

type LoginPage struct {
	Title   string
	Error   string
	Enabled bool
}

var pages = template.Must(template.New("pages").Parse(pageTemplates))

func RenderChat(w io.Writer, p ChatPage) error {
	return pages.ExecuteTemplate(w, "chat", p)
}

// RenderMessages renders only the message list; the websocket pushes this fragment.
func RenderMessages(w io.Writer, messages []MessageView, typing bool) error {
	return pages.ExecuteTemplate(w, "messages", struct {
		Messages []MessageView
		Typing   bool
	}{messages, typing})
}

func RenderLogin(w io.Writer, p LoginPage) error {
	return pages.ExecuteTemplate(w, "login", p)
}

const pageTemplates = `
{{define "style"}}<style>
:root{--bg:#f5f7fa;--panel:#fff;--accent:#2b6cb0;--muted:#718096;--user:#e2f0ff;--bot:#f0f0f0;--radius:12px}
*{box-sizing:border-box;margin:0;padding:0}
body{font-family:system-ui,-apple-system,sans-serif;background:var(--bg);color:#1a202c}
.header{display:flex;align-items:center;gap:16px;padding:12px 24px;background:var(--panel);border-bottom:1px solid #e2e8f0}
.header h1{font-size:20px;flex:1}
.user-profile{display:flex;align-items:center;gap:8px}
.user-picture{width:32px;height:32px;border-radius:50%}
.main-content{display:flex;height:calc(100vh - 60px)}
.sidebar{width:280px;padding:16px;border-right:1px solid #e2e8f0;overflow-y:auto}
.suggested-question{width:100%;text-align:left;padding:10px;margin-bottom:8px;border:1px solid #e2e8f0;border-radius:8px;background:var(--panel);cursor:pointer}
.chat-container{flex:1;display:flex;flex-direction:column}
.chat-messages{flex:1;overflow-y:auto;padding:16px}
.message{display:flex;gap:8px;margin-bottom:12px}
.message.user{justify-content:flex-end}
.message-content{max-width:70%;padding:10px 14px;border-radius:var(--radius);background:var(--bot)}
.message.user .message-content{background:var(--user)}
.message-content pre{overflow-x:auto;background:#1a202c;color:#edf2f7;padding:8px;border-radius:6px}
.timestamp{font-size:11px;color:var(--muted);margin-top:4px}
.avatar{width:28px;height:28px;border-radius:50%;background:var(--accent)}
.typing-indicator{display:flex;gap:4px;padding:8px}
.typing-indicator .dot{width:8px;height:8px;border-radius:50%;background:var(--muted)}
.chat-input{display:flex;gap:8px;padding:12px;border-top:1px solid #e2e8f0}
.chat-input input{flex:1;padding:10px;border:1px solid #cbd5e0;border-radius:8px}
.login-container{display:flex;align-items:center;justify-content:center;height:100vh}
.login-box{background:var(--panel);padding:40px;border-radius:16px;text-align:center}
.login-error{color:#c53030;margin:12px 0}
.send-error{color:#c53030;padding:0 12px 12px}
.login-button{display:inline-block;margin-top:16px;padding:10px 20px;border-radius:8px;background:var(--accent);color:#fff;text-decoration:none}
</style>{{end}}

{{define "messages"}}{{range .Messages}}<div class="message {{.Role}}" data-index="{{.Index}}">
{{if eq .Role "assistant"}}<div class="avatar" title="Assistant"></div>{{end}}
<div class="message-content"><div class="message-body">{{.HTML}}</div><div class="timestamp">{{.Time}}</div></div>
</div>
{{end}}{{if .Typing}}<div class="typing-indicator"><div class="dot"></div><div class="dot"></div><div class="dot"></div></div>{{end}}{{end}}

{{define "login"}}<!DOCTYPE html>
<html lang="en"><head><meta charset="utf-8"><meta name="viewport" content="width=device-width,initial-scale=1">
<title>{{.Title}} - Login</title>{{template "style"}}</head>
<body><div class="login-container"><div class="login-box">
<h2>Login with Google</h2>
{{if .Error}}<div class="login-error" role="alert">{{.Error}}</div>{{end}}
{{if .Enabled}}<a class="login-button" href="/auth/login">Sign in with Google</a>{{else}}<p class="login-error">Google sign-in is not configured.</p>{{end}}
</div></div></body></html>{{end}}

{{define "chat"}}<!DOCTYPE html>
<html lang="en"><head><meta charset="utf-8"><meta name="viewport" content="width=device-width,initial-scale=1">
<title>{{.Title}}</title>{{template "style"}}</head>
<body>
<header class="header">
<h1>{{.Title}}</h1>
<div class="user-profile">
{{if .Profile.Picture}}<img src="{{.Profile.Picture}}" alt="{{.Profile.Name}}" class="user-picture">{{end}}
<span class="user-name">{{.Profile.Name}}</span>
<form method="POST" action="/auth/logout"><button type="submit" class="logout-button">Logout</button></form>
</div>
</header>
<div class="main-content">
<div class="sidebar"><div class="suggested-questions-container">
{{range .SuggestedQuestions}}<form method="POST" action="/chat/draft"><input type="hidden" name="content" value="{{.}}"><button type="submit" class="suggested-question">{{.}}</button></form>
{{end}}</div></div>
<div class="chat-container">
<div class="chat-messages" id="messages">{{template "messages" .}}</div>
<form class="chat-input" id="chat-form" method="POST" action="/chat/send">
<input type="text" name="content" id="draft" placeholder="Type a message" value="{{.Draft}}" autocomplete="off">
<button type="submit" id="send"{{if not .CanSend}} disabled{{end}}>Send</button>
</form>
<div class="send-error" id="send-error" role="alert" hidden></div>
</div>
</div>
<script>
(function(){
  var form=document.getElementById("chat-form"),draft=document.getElementById("draft"),send=document.getElementById("send"),list=document.getElementById("messages"),sendError=document.getElementById("send-error");
  function sync(){send.disabled=!draft.value.trim();}
  draft.addEventListener("input",sync);
  form.addEventListener("submit",function(e){
    e.preventDefault();
    if(!draft.value.trim())return;
    var text=draft.value;
    draft.value="";sync();sendError.hidden=true;
    function restore(msg){
      if(!draft.value){draft.value=text;sync();}
      sendError.textContent=msg||"Message not sent. Please try again.";
      sendError.hidden=false;
    }
    fetch("/chat/send",{method:"POST",headers:{"Content-Type":"application/json","Accept":"application/json"},body:JSON.stringify({content:text})})
      .then(function(res){
        if(res.ok)return;
        return res.json().then(function(b){restore(b.error);},function(){restore();});
      },function(){restore();});
  });
  var proto=location.protocol==="https:"?"wss://":"ws://";
  var ws=new WebSocket(proto+location.host+"/chat/ws");
  ws.onmessage=function(ev){
    var snap=JSON.parse(ev.data);
    list.innerHTML=snap.html;
    list.scrollTop=list.scrollHeight;
  };
  list.scrollTop=list.scrollHeight;
})();
</script>
</body></html>{{end}}
`
