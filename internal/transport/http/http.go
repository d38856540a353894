package httptransport

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/spf13/viper"
	"github.com/storefront-labs/order-svc/internal/service/models/actor"
	"github.com/storefront-labs/order-svc/internal/service/models/order"
	"github.com/storefront-labs/order-svc/internal/service/models/product"
	"github.com/storefront-labs/order-svc/internal/service/services/ordersvc"
	cancelorder "github.com/storefront-labs/order-svc/internal/transport/http/cancel_order"
	createorder "github.com/storefront-labs/order-svc/internal/transport/http/create_order"
	getorder "github.com/storefront-labs/order-svc/internal/transport/http/get_order"
	getproduct "github.com/storefront-labs/order-svc/internal/transport/http/get_product"
	listorders "github.com/storefront-labs/order-svc/internal/transport/http/list_orders"
	listproducts "github.com/storefront-labs/order-svc/internal/transport/http/list_products"
	payorder "github.com/storefront-labs/order-svc/internal/transport/http/pay_order"
	updatestatus "github.com/storefront-labs/order-svc/internal/transport/http/update_status"
	"github.com/storefront-labs/order-svc/pkg/http/middleware/auth"
	"github.com/storefront-labs/order-svc/pkg/http/middleware/trace"
	"github.com/storefront-labs/order-svc/pkg/logger"
)

type service interface {
	CreateOrder(ctx context.Context, act actor.Actor, model ordersvc.CreateOrderModel) (*order.Order, error)
	GetOrder(ctx context.Context, act actor.Actor, id string) (*order.Order, error)
	GetOrders(ctx context.Context, act actor.Actor, model order.QueryOrdersModel) ([]order.Order, error)
	MarkPaid(ctx context.Context, act actor.Actor, id string, result order.PaymentResult) (*order.Order, error)
	SetStatus(ctx context.Context, act actor.Actor, id string, status order.Status, trackingNumber string) (*order.Order, error)
	Cancel(ctx context.Context, act actor.Actor, id string) (*order.Order, error)
	GetProduct(ctx context.Context, id string) (*product.Product, error)
	GetProducts(ctx context.Context, model product.QueryProductsModel) ([]product.Product, error)
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
	h.router.Route("/api", func(r chi.Router) {
		r.Get("/products", h.listProducts)
		r.Get("/products/{productID}", h.getProduct)

		r.Route("/orders", func(r chi.Router) {
			r.Post("/", h.createOrder)
			r.Get("/", h.listOrders)
			r.Get("/{orderID}", h.getOrder)
			r.Post("/{orderID}/pay", h.payOrder)
			r.Put("/{orderID}/status", h.updateStatus)
			r.Post("/{orderID}/cancel", h.cancelOrder)
		})
	})
}

func (h *HTTPTransport) createOrder(w http.ResponseWriter, r *http.Request) {
	createorder.CreateOrder(w, r, h.service)
}

func (h *HTTPTransport) getOrder(w http.ResponseWriter, r *http.Request) {
	getorder.GetOrder(w, r, h.service)
}

func (h *HTTPTransport) listOrders(w http.ResponseWriter, r *http.Request) {
	listorders.ListOrders(w, r, h.service)
}

func (h *HTTPTransport) payOrder(w http.ResponseWriter, r *http.Request) {
	payorder.PayOrder(w, r, h.service)
}

func (h *HTTPTransport) updateStatus(w http.ResponseWriter, r *http.Request) {
	updatestatus.UpdateStatus(w, r, h.service)
}

func (h *HTTPTransport) cancelOrder(w http.ResponseWriter, r *http.Request) {
	cancelorder.CancelOrder(w, r, h.service)
}

func (h *HTTPTransport) listProducts(w http.ResponseWriter, r *http.Request) {
	listproducts.ListProducts(w, r, h.service)
}

func (h *HTTPTransport) getProduct(w http.ResponseWriter, r *http.Request) {
	getproduct.GetProduct(w, r, h.service)
}

func newRouter() *chi.Mux {
	router := chi.NewMux()
	router.Use(middleware.RequestID)
	router.Use(logger.NewLoggerMiddleware(slog.Default()))
	router.Use(trace.NewTraceMiddleware)
	router.Use(auth.NewAuthMiddleware)

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
