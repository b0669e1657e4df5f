package handlers

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/ascendtravel/concierge/internal/middleware"
	"github.com/ascendtravel/concierge/internal/tasks"
	"github.com/ascendtravel/concierge/pkg/httpext"
	"github.com/ascendtravel/concierge/pkg/ratelimit"
)

// NewRouter wires the chat submission and polling endpoints. A nil
// limiter disables rate limiting.
func NewRouter(queue *tasks.Queue, store tasks.Store, limiter *ratelimit.Limiter) *mux.Router {
	router := mux.NewRouter()

	router.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		httpext.JsonOK(w, http.StatusOK, map[string]string{"status": "ok"})
	}).Methods("GET")

	submit := http.Handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		HandleChat(queue, w, r)
	}))
	if limiter != nil {
		submit = middleware.RateLimit(limiter)(submit)
	}

	chatRouter := router.PathPrefix("/chat").Subrouter()
	chatRouter.Handle("", submit).Methods("POST")
	chatRouter.HandleFunc("/status/{task_id}", func(w http.ResponseWriter, r *http.Request) {
		HandleChatStatus(store, w, r)
	}).Methods("GET")

	return router
}
