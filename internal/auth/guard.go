package auth

import (
	"net/http"
	"net/url"
	"strings"
)

// LoginPath はログイン画面のパスです
const LoginPath = "/login"

// RequireLogin は未ログインのリクエストをログイン画面へリダイレクトします
// 元のパスは next パラメータで引き継ぎます
func RequireLogin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if CurrentUser(r.Context()) == nil {
			http.Redirect(w, r, LoginURL(r.URL.RequestURI()), http.StatusFound)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// LoginURL はnextを付けたログイン画面のURLを返します
func LoginURL(next string) string {
	return LoginPath + "?" + url.Values{"next": {next}}.Encode()
}

// SafeNext はnextが同一サイト内のパスならそのまま返し、それ以外は "/" を返します
func SafeNext(next string) string {
	if next == "" || !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") || strings.Contains(next, `\`) {
		return "/"
	}
	u, err := url.Parse(next)
	if err != nil || u.Scheme != "" || u.Host != "" {
		return "/"
	}
	return next
}
