package httptransport

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/Pranav418/Ecommerce-Microservices-Architecture-RabbitMQ/internal/users/service/models/user"
	tracemiddleware "github.com/Pranav418/Ecommerce-Microservices-Architecture-RabbitMQ/pkg/http/middleware/trace"
	"github.com/Pranav418/Ecommerce-Microservices-Architecture-RabbitMQ/pkg/logger"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/spf13/viper"
)

type service interface {
	ListUsers(ctx context.Context) ([]user.User, error)
	GetUser(ctx context.Context, id int64) (*user.User, error)
	FetchUsers(ctx context.Context, ids []int64) ([]user.User, error)
	SeedUsers(ctx context.Context) error
}

type HTTPTransport struct {
	server  *http.Server
	router  *chi.Mux
	service service
}

func NewHTTPTransport(service service) *HTTPTransport {
	router := newRouter()
	server := newServer(router)
	return &HTTPTransport{
		server:  server,
		router:  router,
		service: service,
	}
}

func (h *HTTPTransport) Run() error {
	return h.server.ListenAndServe()
}

func (h *HTTPTransport) Shutdown(ctx context.Context) error {
	return h.server.Shutdown(ctx)
}

// RegisterRoutes registers the routes for the HTTPTransport.
func (h *HTTPTransport) RegisterRoutes() {
	h.router.Get("/users", h.listUsers)
	h.router.Get("/users/{userID}", h.getUser)
	h.router.Post("/users/fetch", h.fetchUsers)
	h.router.Post("/users/init", h.seedUsers)
}

func (h *HTTPTransport) listUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.service.ListUsers(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list users")
		slog.Error("Error listing users", "error", err)

		return
	}

	writeJSON(w, http.StatusOK, users)
}

func (h *HTTPTransport) getUser(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "userID"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid user id")

		return
	}

	u, err := h.service.GetUser(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to get user")
		slog.Error("Error getting user", "error", err, "user_id", id)

		return
	}
	if u == nil {
		writeError(w, http.StatusNotFound, "User not found")

		return
	}

	writeJSON(w, http.StatusOK, u)
}

func (h *HTTPTransport) fetchUsers(w http.ResponseWriter, r *http.Request) {
	var req struct {
		UserIds []int64 `json:"user_ids"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		slog.Error("Error decoding request body for fetch users", "error", err)

		return
	}

	users, err := h.service.FetchUsers(r.Context(), req.UserIds)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to fetch users")
		slog.Error("Error fetching users", "error", err)

		return
	}
	if users == nil {
		users = []user.User{}
	}

	writeJSON(w, http.StatusOK, users)
}

func (h *HTTPTransport) seedUsers(w http.ResponseWriter, r *http.Request) {
	if err := h.service.SeedUsers(r.Context()); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to seed users")
		slog.Error("Error seeding users", "error", err)

		return
	}

	writeJSON(w, http.StatusCreated, map[string]string{"message": "Users initialized"})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		slog.Error("Error sending response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func newRouter() *chi.Mux {
	router := chi.NewMux()
	router.Use(middleware.RequestID)
	router.Use(logger.NewLoggerMiddleware(slog.Default()))
	router.Use(tracemiddleware.NewTraceMiddleware("users-svc"))

	allowedOrigins := viper.GetStringSlice("server.http.cors.allowed_origins")
	allowedMethods := viper.GetStringSlice("server.http.cors.allowed_methods")
	allowedHeaders := viper.GetStringSlice("server.http.cors.allowed_headers")
	exposedHeaders := viper.GetStringSlice("server.http.cors.exposed_headers")
	allowCredentials := viper.GetBool("server.http.cors.allow_credentials")
	maxAge := viper.GetInt("server.http.cors.max_age")

	c := cors.New(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   allowedMethods,
		AllowedHeaders:   allowedHeaders,
		ExposedHeaders:   exposedHeaders,
		AllowCredentials: allowCredentials,
		MaxAge:           maxAge,
	})

	router.Use(c.Handler)

	return router
}

func newServer(router http.Handler) *http.Server {
	return &http.Server{
		Addr:    "0.0.0.0:" + viper.GetString("server.http.port"),
		Handler: router,
	}
}
