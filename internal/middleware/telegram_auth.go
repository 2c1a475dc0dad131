package middleware

import (
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/url"
	"slices"
	"sort"
	"strings"
)

type TelegramUser struct {
	ID        int64  `json:"id"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Username  string `json:"username"`
}

// AdminAuth holds what the admin gate checks against.
type AdminAuth struct {
	Password string
	BotToken string
	AdminIDs []int64
	Log      *slog.Logger
}

// Handler accepts Basic auth (user "admin") or Telegram WebApp initData signed by the
// bot and belonging to an admin id.
func (a AdminAuth) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if a.checkBasicAuth(r) {
			next.ServeHTTP(w, r)
			return
		}

		if initData := initDataFrom(r); initData != "" {
			user, valid := ValidateTelegramInitData(initData, a.BotToken)
			switch {
			case !valid:
				a.Log.Warn("admin.auth.telegram.invalid")
			case slices.Contains(a.AdminIDs, user.ID):
				a.Log.Info("admin.auth.telegram.ok", "user_id", user.ID, "name", user.FirstName)
				next.ServeHTTP(w, r)
				return
			default:
				a.Log.Warn("admin.auth.telegram.not_admin", "user_id", user.ID)
			}
		}

		w.Header().Set("WWW-Authenticate", `Basic realm="Lista de Presentes"`)
		http.Error(w, "Acesso negado: não autorizado", http.StatusUnauthorized)
	})
}

func initDataFrom(r *http.Request) string {
	if v := r.Header.Get("X-Telegram-Init-Data"); v != "" {
		return v
	}
	if v := r.URL.Query().Get("tg_init_data"); v != "" {
		return v
	}
	if cookie, err := r.Cookie("tg_init_data"); err == nil {
		if decoded, err := url.QueryUnescape(cookie.Value); err == nil {
			return decoded
		}
	}
	return ""
}

func (a AdminAuth) checkBasicAuth(r *http.Request) bool {
	if a.Password == "" {
		return false
	}

	auth := r.Header.Get("Authorization")
	if !strings.HasPrefix(auth, "Basic ") {
		return false
	}

	payload, err := base64.StdEncoding.DecodeString(auth[6:])
	if err != nil {
		return false
	}

	user, pass, ok := strings.Cut(string(payload), ":")
	if !ok {
		return false
	}
	return user == "admin" && subtle.ConstantTimeCompare([]byte(pass), []byte(a.Password)) == 1
}

// ValidateTelegramInitData checks the WebApp signature and extracts the user.
func ValidateTelegramInitData(initData, botToken string) (*TelegramUser, bool) {
	if botToken == "" {
		return nil, false
	}

	params, err := url.ParseQuery(initData)
	if err != nil {
		return nil, false
	}

	hash := params.Get("hash")
	if hash == "" {
		return nil, false
	}

	if !hmac.Equal([]byte(SignInitData(params, botToken)), []byte(hash)) {
		return nil, false
	}

	userJSON := params.Get("user")
	if userJSON == "" {
		return nil, false
	}

	var user TelegramUser
	if err := json.Unmarshal([]byte(userJSON), &user); err != nil {
		return nil, false
	}
	return &user, true
}

// SignInitData computes the hex hash Telegram puts in initData: HMAC-SHA256 of the
// sorted key=value lines, keyed by HMAC-SHA256("WebAppData", botToken).
func SignInitData(params url.Values, botToken string) string {
	var keys []string
	for k := range params {
		if k != "hash" {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+"="+params.Get(k))
	}

	secret := hmac.New(sha256.New, []byte("WebAppData"))
	secret.Write([]byte(botToken))

	h := hmac.New(sha256.New, secret.Sum(nil))
	h.Write([]byte(strings.Join(parts, "\n")))
	return hex.EncodeToString(h.Sum(nil))
}
