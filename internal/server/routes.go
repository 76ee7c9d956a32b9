package server

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog/log"
	"github.com/scythe504/quizroom-backend/internal"
	"github.com/skip2/go-qrcode"
)

const qrSize = 256

func (s *Server) RegisterRoutes() http.Handler {
	r := mux.NewRouter()

	// Apply CORS middleware
	r.Use(s.corsMiddleware)

	r.HandleFunc("/health", s.HealthHandler).Methods(http.MethodGet)

	r.HandleFunc("/rooms/{code}", s.GetRoomHandler).Methods(http.MethodGet, http.MethodOptions)
	r.HandleFunc("/rooms/{code}/qr.png", s.GetRoomQRHandler).Methods(http.MethodGet)

	r.HandleFunc("/results", s.GetResultsHandler).Methods(http.MethodGet, http.MethodOptions)

	r.HandleFunc(s.wsPath, s.coordinator.HandleWebSocket)

	return r
}

// CORS middleware
func (s *Server) corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// CORS Headers
		w.Header().Set("Access-Control-Allow-Origin", "*") // Wildcard allows all origins
		w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Accept, Authorization, Content-Type")
		w.Header().Set("Access-Control-Allow-Credentials", "false") // Credentials not allowed with wildcard origins

		// If it's a websocket upgrade, skip further CORS checks
		if strings.ToLower(r.Header.Get("Upgrade")) == "websocket" {
			next.ServeHTTP(w, r)
			return
		}

		// Handle preflight OPTIONS requests
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (s *Server) HealthHandler(w http.ResponseWriter, r *http.Request) {
	resp := map[string]any{
		"status": "up",
		"rooms":  s.coordinator.Registry().RoomCount(),
	}
	if s.db != nil {
		resp["database"] = s.db.Health(r.Context())
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		log.Error().Err(err).Msg("[HealthHandler] encode failed")
	}
}

func (s *Server) GetRoomHandler(w http.ResponseWriter, r *http.Request) {
	startTime := time.Now().UnixMilli()
	code := mux.Vars(r)["code"]

	var resp internal.Response
	if summary, ok := s.coordinator.RoomSummary(code); ok {
		resp = internal.Response{
			StatusCode:    http.StatusOK,
			RespStartTime: startTime,
			Data:          summary,
		}
	} else {
		resp = internal.Response{
			StatusCode:    http.StatusNotFound,
			RespStartTime: startTime,
			Data:          "Room not found",
		}
	}

	writeResponse(w, resp)
}

// GetRoomQRHandler renders the room code as a PNG QR code for in-person invites.
func (s *Server) GetRoomQRHandler(w http.ResponseWriter, r *http.Request) {
	summary, ok := s.coordinator.RoomSummary(mux.Vars(r)["code"])
	if !ok {
		http.Error(w, "room not found", http.StatusNotFound)
		return
	}

	png, err := qrcode.Encode(summary.Code, qrcode.Medium, qrSize)
	if err != nil {
		log.Error().Err(err).Str("room", summary.Code).Msg("[GetRoomQRHandler] qr generation failed")
		http.Error(w, "qr generation failed", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-store")
	_, _ = w.Write(png)
}

func (s *Server) GetResultsHandler(w http.ResponseWriter, r *http.Request) {
	startTime := time.Now().UnixMilli()

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			writeResponse(w, internal.Response{
				StatusCode:    http.StatusBadRequest,
				RespStartTime: startTime,
				Data:          "limit must be a positive integer",
			})
			return
		}
		limit = n
	}

	results := make([]internal.GameResult, 0)
	if s.db != nil {
		recent, err := s.db.RecentResults(r.Context(), limit)
		if err != nil {
			log.Error().Err(err).Msg("[GetResultsHandler] query failed")
			writeResponse(w, internal.Response{
				StatusCode:    http.StatusInternalServerError,
				RespStartTime: startTime,
				Data:          "Could not load results",
			})
			return
		}
		results = append(results, recent...)
	}

	writeResponse(w, internal.Response{
		StatusCode:    http.StatusOK,
		RespStartTime: startTime,
		Data:          results,
	})
}

func writeResponse(w http.ResponseWriter, resp internal.Response) {
	// Calculate response times
	endTime := time.Now().UnixMilli()
	resp.RespEndTime = endTime
	resp.NetRespTime = endTime - resp.RespStartTime

	// Set response headers
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(resp.StatusCode)

	// Send JSON response
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		log.Error().Err(err).Msg("[writeResponse] encode failed")
	}
}
