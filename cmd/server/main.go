package main

import (
	"context"

	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/linemk/online-store/internal/app"
	"github.com/linemk/online-store/internal/app/handlers"
	"github.com/linemk/online-store/internal/config"
	"github.com/linemk/online-store/internal/gateway"
	"github.com/linemk/online-store/internal/jwt-new/jwtmiddleware"
	"github.com/linemk/online-store/internal/lib/logger"
	"github.com/linemk/online-store/internal/lib/logger/handlers/urllog"
	"github.com/linemk/online-store/internal/service"
	"github.com/linemk/online-store/internal/storage"
	"github.com/pkg/errors"
)

func main() {
	// загрузка конфигурации
	cfg := config.MustLoad()

	// инициализация логгера, зависит от настройки окружения
	log := logger.SetupLogger(cfg.Env)
	log.Info("starting app", slog.String("env", cfg.Env))

	// загружаем объект приложения, конфигом и подключением к БД
	application, err := app.NewApp(log, cfg)
	if err != nil {
		log.Error("failed to initialize app", slog.Any("error", err))
		panic(errors.Wrap(err, "failed to initialize app"))
	}
	defer application.DB.Close()

	router := chi.NewRouter()
	// настройка middleware
	router.Use(middleware.RequestID)
	router.Use(urllog.CustomLoggerMiddleware(log))
	router.Use(middleware.Recoverer)
	router.Use(middleware.URLFormat)

	// реализация слоев по работе с БД по каждому направлению
	userRepo := storage.NewUserRepository(application.DB)
	itemRepo := storage.NewItemRepository(application.DB)
	orderRepo := storage.NewOrderRepository(application.DB)
	orderItemRepo := storage.NewOrderItemRepository(application.DB)
	addressRepo := storage.NewAddressRepository(application.DB)
	couponRepo := storage.NewCouponRepository(application.DB)
	paymentRepo := storage.NewPaymentRepository(application.DB)
	refundRepo := storage.NewRefundRepository(application.DB)

	// платежный шлюз, ключ приходит только из окружения
	stripeGateway := gateway.NewStripeGateway(cfg.Stripe.SecretKey)

	authService := service.NewAuthService(application.Logger, userRepo, time.Duration(application.Config.JWT.TokenTTL)*time.Minute)
	catalogService := service.NewCatalogService(application.Logger, itemRepo)
	cartService := service.NewCartService(application.Logger, application.DB, itemRepo, orderRepo, orderItemRepo)
	checkoutService := service.NewCheckoutService(application.Logger, orderRepo, addressRepo)
	couponService := service.NewCouponService(application.Logger, orderRepo, couponRepo)
	paymentService := service.NewPaymentService(application.Logger, application.DB, stripeGateway, cfg.Stripe.Currency, orderRepo, orderItemRepo, paymentRepo)
	refundService := service.NewRefundService(application.Logger, application.DB, orderRepo, refundRepo)

	// эндпоинт для аутентификации
	router.Post("/api/auth", handlers.AuthHandler(application.Logger, authService))

	// публичные страницы: каталог и запрос возврата (возврат ищется по ref-коду)
	router.Get("/", handlers.HomeHandler(application.Logger, catalogService))
	router.Get("/product/{slug}", handlers.ProductHandler(application.Logger, catalogService))
	router.Get("/request-refund", handlers.RefundFormHandler(application.Logger))
	router.Post("/request-refund", handlers.RequestRefundHandler(application.Logger, refundService))

	router.Group(func(r chi.Router) {
		jwtMW := jwtmiddleware.NewJWTMiddleware()
		r.Use(jwtMW)
		// корзина
		r.Get("/order-summary", handlers.OrderSummaryHandler(application.Logger, cartService))
		r.Get("/add-to-cart/{slug}", handlers.AddToCartHandler(application.Logger, cartService))
		r.Get("/remove-from-cart/{slug}", handlers.RemoveFromCartHandler(application.Logger, cartService))
		r.Get("/remove-one-from-cart/{slug}", handlers.RemoveOneFromCartHandler(application.Logger, cartService))
		// оформление заказа и купоны
		r.Get("/checkout", handlers.CheckoutGetHandler(application.Logger, checkoutService))
		r.Post("/checkout", handlers.CheckoutPostHandler(application.Logger, checkoutService))
		r.Post("/add-coupon", handlers.AddCouponHandler(application.Logger, couponService))
		// оплата (параметр в path — способ оплаты)
		r.Get("/payment/{payment_option}", handlers.PaymentGetHandler(application.Logger, paymentService))
		r.Post("/payment/{payment_option}", handlers.PaymentPostHandler(application.Logger, paymentService))
	})

	srv := &http.Server{
		Addr:         cfg.HTTPServer.Address,
		Handler:      router,
		ReadTimeout:  cfg.HTTPServer.Timeout,
		WriteTimeout: cfg.HTTPServer.Timeout,
		IdleTimeout:  cfg.HTTPServer.IdleTimeout,
	}

	go func() {
		log.Info("starting server", slog.String("address", cfg.HTTPServer.Address))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("server error", slog.Any("error", err))
		}
	}()

	// graceful shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	stopSign := <-stop
	log.Info("received shutdown signal", slog.String("signal", stopSign.String()))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error("server shutdown failed", slog.Any("error", err))
	}
	log.Info("server gracefully stopped")
}
