package handlers

import (
	"net/http"
	"net/url"
	"strings"
)

const (
	loginPath     = "/login"
	dashboardPath = "/dashboard"
)

var assetPrefixes = []string{"/static/", "/assets/"}

func isAssetPath(path string) bool {
	if path == "/favicon.ico" || strings.HasSuffix(path, ".png") {
		return true
	}
	for _, prefix := range assetPrefixes {
		if strings.HasPrefix(path, prefix) {
			return true
		}
	}
	return false
}

func isProtectedPath(path string) bool {
	return path == dashboardPath || strings.HasPrefix(path, dashboardPath+"/")
}

// RouteGuard gates page navigation. In order: the site root redirects
// to the dashboard; the login page redirects to the dashboard when a
// session already exists, otherwise it is public; protected paths
// without a session redirect to login with the original path as the
// callback; everything else (including the JSON API, which answers
// 401 itself) passes through. Asset requests never reach the rules.
func RouteGuard(secret string) func(http.Handler) http.Handler {
	secretBytes := []byte(secret)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			path := r.URL.Path
			if isAssetPath(path) {
				next.ServeHTTP(w, r)
				return
			}

			if path == "/" || path == "" {
				http.Redirect(w, r, dashboardPath, http.StatusFound)
				return
			}

			_, err := DecodeSession(r, secretBytes)
			hasSession := err == nil

			if path == loginPath {
				if hasSession {
					http.Redirect(w, r, dashboardPath, http.StatusFound)
					return
				}
				next.ServeHTTP(w, r)
				return
			}

			if !hasSession && isProtectedPath(path) {
				target := loginPath + "?callbackUrl=" + url.QueryEscape(path)
				http.Redirect(w, r, target, http.StatusFound)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

const loginPageHTML = `<!DOCTYPE html>
<html>
<head><title>Sign in</title></head>
<body>
<h1>Back-office sign in</h1>
<form id="login">
<input type="email" name="email" placeholder="Email" required>
<input type="password" name="password" placeholder="Password" required>
<button type="submit">Sign in</button>
</form>
<script>
document.getElementById("login").addEventListener("submit", async function (e) {
  e.preventDefault();
  var form = new FormData(e.target);
  var res = await fetch("/api/auth/login", {
    method: "POST",
    headers: {"Content-Type": "application/json"},
    body: JSON.stringify({email: form.get("email"), password: form.get("password")})
  });
  if (res.ok) {
    var params = new URLSearchParams(window.location.search);
    window.location.href = params.get("callbackUrl") || "/dashboard";
  } else {
    alert("Invalid credentials");
  }
});
</script>
</body>
</html>`

const dashboardPageHTML = `<!DOCTYPE html>
<html>
<head><title>Dashboard</title></head>
<body>
<h1>Back-office dashboard</h1>
<p>Use the JSON API under /api for jobs, albums and the gallery.</p>
</body>
</html>`

// LoginPage serves the sign-in page shell.
func LoginPage(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write([]byte(loginPageHTML))
}

// DashboardPage serves the dashboard shell.
func DashboardPage(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write([]byte(dashboardPageHTML))
}
