package main

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/joho/godotenv"
	"github.com/wichananm65/storefront-backend/internal/auth"
	"github.com/wichananm65/storefront-backend/internal/cart"
	"github.com/wichananm65/storefront-backend/internal/config"
	"github.com/wichananm65/storefront-backend/internal/database"
	"github.com/wichananm65/storefront-backend/internal/order"
	"github.com/wichananm65/storefront-backend/internal/payment"
	"github.com/wichananm65/storefront-backend/internal/product"
	"github.com/wichananm65/storefront-backend/internal/session"
	"github.com/wichananm65/storefront-backend/internal/user"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	db, err := database.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("open database: %v", err)
	}
	defer db.Close()
	if err := database.Migrate(ctx, db); err != nil {
		log.Fatalf("%v", err)
	}

	productRepo := product.NewPostgresRepository(db)
	if cfg.SeedProducts {
		n, err := productRepo.SeedIfEmpty(ctx, product.SampleProducts)
		if err != nil {
			log.Warnf("seed products: %v", err)
		} else if n > 0 {
			log.Infof("seeded %d products", n)
		}
	}
	cancel()

	if cfg.JWTSecret == "" {
		log.Warn("JWT_SECRET is empty; tokens are signed with an empty key")
	}

	productService := product.NewService(productRepo)
	cartService := cart.NewService(cart.NewPostgresRepository(db), productRepo)
	orderService := order.NewService(order.NewPostgresRepository(db))
	userService := user.NewService(user.NewPostgresRepository(db))

	productHandler := product.NewHandler(productService)
	cartHandler := cart.NewHandler(cartService, session.NewStore(cfg.Session.HashKey, cfg.Session.BlockKey))
	orderHandler := order.NewHandler(orderService, productService)
	paymentHandler := payment.NewHandler(payment.NewClient(cfg.Payment, cfg.PublicBaseURL), orderService)
	userHandler := user.NewHandler(userService, cfg.JWTSecret)

	app := fiber.New()
	app.Use(recover.New())
	app.Use(logger.New())
	setupCORS(app)

	app.Use(auth.New(cfg.JWTSecret))
	app.Use(cartHandler.LoadCount)

	userHandler.RegisterPublicRoutes(app)
	productHandler.RegisterPublicRoutes(app)
	cartHandler.RegisterRoutes(app)

	userHandler.RegisterProtectedRoutes(app)
	orderHandler.RegisterProtectedRoutes(app)
	paymentHandler.RegisterProtectedRoutes(app)
	orderHandler.RegisterAdminRoutes(app)

	if err := app.Listen(cfg.Addr); err != nil {
		log.Fatalf("listen: %v", err)
	}
}

func setupCORS(app *fiber.App) {
	app.Use(cors.New(cors.Config{
		AllowOrigins:  "*",
		AllowMethods:  "GET,POST,HEAD,PUT,DELETE,PATCH",
		AllowHeaders:  "Origin, Content-Type, Accept, Authorization",
		ExposeHeaders: cart.CountHeader,
	}))
}
