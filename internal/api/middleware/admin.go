package middleware

import (
	"crypto/subtle"
	"net/http"

	"github.com/m04kA/SMC-DeliverySlotService/internal/api/handlers"
)

// AdminTokenHeader заголовок с токеном back-office
const AdminTokenHeader = "X-Admin-Token"

const msgAdminTokenRequired = "требуется токен администратора"

// AdminToken пропускает запрос только с верным X-Admin-Token
// Пустой token закрывает маршруты полностью
func AdminToken(token string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			got := r.Header.Get(AdminTokenHeader)
			if token == "" || subtle.ConstantTimeCompare([]byte(got), []byte(token)) != 1 {
				handlers.RespondUnauthorized(w, msgAdminTokenRequired)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
