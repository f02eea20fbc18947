package quiz

import "net/http"

// Register mounts the quiz routes on mux. generateMW wraps only the generate
// route, which is the one that spends model tokens.
func Register(mux *http.ServeMux, svc Service, generateMW ...func(http.Handler) http.Handler) {
	var generate http.Handler = GenerateHandler{svc}
	for i := len(generateMW) - 1; i >= 0; i-- {
		generate = generateMW[i](generate)
	}

	mux.Handle("POST /api/quiz/generate", generate)
	mux.Handle("GET /api/quiz/history", HistoryHandler{svc})
	mux.Handle("GET /api/quiz/{id}", GetHandler{svc})
	mux.Handle("DELETE /api/quiz/{id}", DeleteHandler{svc})
}
