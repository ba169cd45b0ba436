// Package handlers agrupa os handlers HTTP expostos pelos servidores.
package handlers

import (
	"net/http"
)

const statusPage = `<a href="https://t.me/tretraunetwork">https://t.me/tretraunetwork</a>`

// StatusHandler responde com a página estática do serviço.
func StatusHandler(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(statusPage))
}
