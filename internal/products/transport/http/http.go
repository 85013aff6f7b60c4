package httptransport

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/Pranav418/Ecommerce-Microservices-Architecture-RabbitMQ/internal/products/service/models/product"
	tracemiddleware "github.com/Pranav418/Ecommerce-Microservices-Architecture-RabbitMQ/pkg/http/middleware/trace"
	"github.com/Pranav418/Ecommerce-Microservices-Architecture-RabbitMQ/pkg/logger"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/spf13/viper"
)

type service interface {
	ListProducts(ctx context.Context) ([]product.Product, error)
	GetProduct(ctx context.Context, id int64) (*product.Product, error)
	FetchProducts(ctx context.Context, ids []int64) ([]product.Product, error)
	SeedProducts(ctx context.Context) error
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
	h.router.Get("/products", h.listProducts)
	h.router.Get("/products/{productID}", h.getProduct)
	h.router.Post("/products/fetch", h.fetchProducts)
	h.router.Post("/products/init", h.seedProducts)
}

func (h *HTTPTransport) listProducts(w http.ResponseWriter, r *http.Request) {
	products, err := h.service.ListProducts(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list products")
		slog.Error("Error listing products", "error", err)

		return
	}

	writeJSON(w, http.StatusOK, products)
}

func (h *HTTPTransport) getProduct(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "productID"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid product id")

		return
	}

	p, err := h.service.GetProduct(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to get product")
		slog.Error("Error getting product", "error", err, "product_id", id)

		return
	}
	if p == nil {
		writeError(w, http.StatusNotFound, "Product not found")

		return
	}

	writeJSON(w, http.StatusOK, p)
}

func (h *HTTPTransport) fetchProducts(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ProductIds []int64 `json:"product_ids"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		slog.Error("Error decoding request body for fetch products", "error", err)

		return
	}

	products, err := h.service.FetchProducts(r.Context(), req.ProductIds)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to fetch products")
		slog.Error("Error fetching products", "error", err)

		return
	}
	if products == nil {
		products = []product.Product{}
	}

	writeJSON(w, http.StatusOK, products)
}

func (h *HTTPTransport) seedProducts(w http.ResponseWriter, r *http.Request) {
	if err := h.service.SeedProducts(r.Context()); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to seed products")
		slog.Error("Error seeding products", "error", err)

		return
	}

	writeJSON(w, http.StatusCreated, map[string]string{"message": "Products initialized"})
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
	router.Use(tracemiddleware.NewTraceMiddleware("products-svc"))

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
