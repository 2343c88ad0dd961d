package http

import (
	"crypto/subtle"
	"net/http"
	"time"

	"github.com/DRSN-tech/catalog-service/internal/cfg"
	"github.com/DRSN-tech/catalog-service/pkg/e"
	"github.com/DRSN-tech/catalog-service/pkg/logger"
	"golang.org/x/crypto/bcrypt"
)

// statusRecorder перехватывает код и размер ответа для логирования.
type statusRecorder struct {
	http.ResponseWriter
	status  int
	written int
}

func (rw *statusRecorder) WriteHeader(code int) {
	rw.status = code
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *statusRecorder) Write(b []byte) (int, error) {
	n, err := rw.ResponseWriter.Write(b)
	rw.written += n
	return n, err
}

// RequestLogging логирует каждый HTTP-запрос: метод, путь, статус, длительность.
func RequestLogging(log logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rw := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

			next.ServeHTTP(rw, r)

			log.Infof("%s %s %d %dB %s", r.Method, r.URL.Path, rw.status, rw.written, time.Since(start))
		})
	}
}

// BasicAuth закрывает маршруты HTTP Basic аутентификацией.
// Пароль сверяется с bcrypt-хэшем из конфигурации.
func BasicAuth(authCfg *cfg.AuthCfg, log logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, password, ok := r.BasicAuth()
			if !ok || !credentialsValid(authCfg, user, password) {
				log.Warnf("%d %s: %s %s", http.StatusUnauthorized, e.ErrUnauthorized.Error(), r.Method, r.URL.Path)
				w.Header().Set("WWW-Authenticate", `Basic realm="restricted"`)
				WriteError(w, e.ErrUnauthorized)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func credentialsValid(authCfg *cfg.AuthCfg, user, password string) bool {
	userMatch := subtle.ConstantTimeCompare([]byte(user), []byte(authCfg.User)) == 1
	passwordMatch := bcrypt.CompareHashAndPassword(authCfg.PasswordHash, []byte(password)) == nil
	return userMatch && passwordMatch
}
