package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/mayagift/giftbloom-backend/api/controllers"
	"github.com/mayagift/giftbloom-backend/api/middleware"
	addrsvc "github.com/mayagift/giftbloom-backend/internal/addresses"
	authsvc "github.com/mayagift/giftbloom-backend/internal/auth"
	cartsvc "github.com/mayagift/giftbloom-backend/internal/cart"
	checkoutsvc "github.com/mayagift/giftbloom-backend/internal/checkout"
	giftsvc "github.com/mayagift/giftbloom-backend/internal/gifts"
	mediasvc "github.com/mayagift/giftbloom-backend/internal/media"
	ordersvc "github.com/mayagift/giftbloom-backend/internal/orders"
	reviewsvc "github.com/mayagift/giftbloom-backend/internal/reviews"
	"github.com/mayagift/giftbloom-backend/pkg/auth/session"
	"github.com/mayagift/giftbloom-backend/pkg/config"
	"github.com/mayagift/giftbloom-backend/pkg/db"
	"github.com/mayagift/giftbloom-backend/pkg/enums"
	"github.com/mayagift/giftbloom-backend/pkg/logger"
	"github.com/mayagift/giftbloom-backend/pkg/metrics"
	pkgredis "github.com/mayagift/giftbloom-backend/pkg/redis"
)

// Deps collects everything the HTTP surface needs. Nil optional fields
// (metrics, redis) degrade gracefully rather than panic.
type Deps struct {
	Config  *config.Config
	Logger  *logger.Logger
	DB      db.Pinger
	Redis   *pkgredis.Client
	Session session.AccessSessionChecker
	Metrics *metrics.HTTPMetrics

	// PromRegistry backs the /metrics endpoint. Optional.
	PromRegistry *prometheus.Registry

	AuthService     authsvc.Service
	RegisterService authsvc.RegisterService
	GiftService     giftsvc.Service
	CartService     cartsvc.Service
	AddressService  addrsvc.Service
	CheckoutService checkoutsvc.Service
	OrderService    ordersvc.Service
	ReviewService   reviewsvc.Service
	MediaService    *mediasvc.Service
}

func NewRouter(deps Deps) http.Handler {
	cfg := deps.Config
	logg := deps.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.Metrics(deps.Metrics),
		middleware.CORS(),
	)

	loginPolicy := middleware.NewAuthRateLimitPolicy(
		"login",
		cfg.AuthRateLimit.LoginWindow,
		cfg.AuthRateLimit.LoginIPLimit,
		cfg.AuthRateLimit.LoginEmailLimit,
	)
	registerPolicy := middleware.NewAuthRateLimitPolicy(
		"register",
		cfg.AuthRateLimit.RegisterWindow,
		cfg.AuthRateLimit.RegisterIPLimit,
		cfg.AuthRateLimit.RegisterEmailLimit,
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, deps.DB, deps.Redis, logg))
	})

	if deps.PromRegistry != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(deps.PromRegistry, promhttp.HandlerOpts{}))
	}

	r.Route("/api/public", func(r chi.Router) {
		r.Get("/ping", controllers.PublicPing())
	})

	r.Route("/api/v1/auth", func(r chi.Router) {
		r.With(middleware.AuthRateLimit(loginPolicy, deps.Redis, logg)).Post("/login", controllers.AuthLogin(deps.AuthService, logg))
		r.With(
			middleware.AuthRateLimit(registerPolicy, deps.Redis, logg),
			middleware.Idempotency(deps.Redis, logg),
		).Post("/register", controllers.AuthRegister(deps.RegisterService, logg))
		r.Post("/refresh", controllers.AuthRefresh(deps.AuthService, logg))
		r.Post("/logout", controllers.AuthLogout(deps.AuthService, cfg.JWT, logg))
	})

	// Public catalog: browsing needs no account.
	r.Route("/api/v1/catalog", func(r chi.Router) {
		r.Get("/gifts", controllers.ListGifts(deps.GiftService, logg))
		r.Get("/gifts/{giftId}", controllers.GetGift(deps.GiftService, logg))
		r.Get("/gifts/{giftId}/reviews", controllers.ListGiftReviews(deps.ReviewService, logg))
		r.Get("/categories", controllers.ListCategories(deps.GiftService, logg))
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, deps.Session, logg))
		r.Use(middleware.Idempotency(deps.Redis, logg))

		r.Get("/ping", controllers.PrivatePing())

		r.Route("/cart", func(r chi.Router) {
			r.Get("/", controllers.GetCart(deps.CartService, logg))
			r.Post("/items", controllers.AddCartItem(deps.CartService, logg))
			r.Patch("/items/{itemId}", controllers.UpdateCartItem(deps.CartService, logg))
			r.Delete("/items/{itemId}", controllers.RemoveCartItem(deps.CartService, logg))
			r.Delete("/", controllers.ClearCart(deps.CartService, logg))
		})

		r.Route("/addresses", func(r chi.Router) {
			r.Get("/", controllers.ListAddresses(deps.AddressService, logg))
			r.Post("/", controllers.CreateAddress(deps.AddressService, logg))
			r.Get("/{addressId}", controllers.GetAddress(deps.AddressService, logg))
			r.Put("/{addressId}", controllers.UpdateAddress(deps.AddressService, logg))
			r.Delete("/{addressId}", controllers.DeleteAddress(deps.AddressService, logg))
		})

		r.Post("/checkout", controllers.Checkout(deps.CheckoutService, logg))
		r.Post("/checkout/direct", controllers.DirectCheckout(deps.CheckoutService, logg))

		r.Route("/orders", func(r chi.Router) {
			r.Get("/", controllers.ListMyOrders(deps.OrderService, logg))
			r.Get("/{orderId}", controllers.GetOrder(deps.OrderService, logg))
		})

		r.Post("/reviews", controllers.CreateReview(deps.ReviewService, logg))
		r.Post("/media/images", controllers.UploadImage(deps.MediaService, logg))
	})

	r.Route("/api/admin/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, deps.Session, logg))
		r.Use(middleware.RequireRole(string(enums.UserRoleAdmin), logg))
		r.Use(middleware.Idempotency(deps.Redis, logg))

		r.Get("/ping", controllers.AdminPing())

		r.Route("/gifts", func(r chi.Router) {
			r.Get("/", controllers.AdminListGifts(deps.GiftService, logg))
			r.Post("/", controllers.AdminCreateGift(deps.GiftService, logg))
			r.Patch("/{giftId}", controllers.AdminUpdateGift(deps.GiftService, logg))
			r.Delete("/{giftId}", controllers.AdminDeleteGift(deps.GiftService, logg))
			r.Post("/{giftId}/images", controllers.AdminAttachGiftImage(deps.GiftService, logg))
			r.Delete("/{giftId}/images/{imageId}", controllers.AdminRemoveGiftImage(deps.GiftService, logg))
		})

		r.Route("/categories", func(r chi.Router) {
			r.Post("/", controllers.AdminCreateCategory(deps.GiftService, logg))
			r.Patch("/{categoryId}", controllers.AdminUpdateCategory(deps.GiftService, logg))
			r.Delete("/{categoryId}", controllers.AdminDeleteCategory(deps.GiftService, logg))
		})

		r.Route("/orders", func(r chi.Router) {
			r.Get("/", controllers.AdminListOrders(deps.OrderService, logg))
			r.Get("/{orderId}", controllers.GetOrder(deps.OrderService, logg))
			r.Patch("/{orderId}/status", controllers.AdminSetOrderStatus(deps.OrderService, logg))
		})
	})

	return r
}
