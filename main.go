package main

import (
	"os"

	"hotel-inventory-server/routes"
	"hotel-inventory-server/storage"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/kataras/iris/v12"
	"go.uber.org/zap"
)

func main() {
	// Only load .env in development
	if os.Getenv("RENDER") == "" {
		godotenv.Load()
	}

	logger, _ := zap.NewProduction()
	if os.Getenv("APP_ENV") == "development" {
		logger, _ = zap.NewDevelopment()
	}
	defer logger.Sync()
	zap.ReplaceGlobals(logger)

	storage.InitializeDB()
	storage.InitializeRedis()

	app := iris.New()
	app.Validator = validator.New()

	// CORS configuration
	app.AllowMethods(iris.MethodOptions)
	app.UseRouter(func(ctx iris.Context) {
		ctx.Header("Access-Control-Allow-Origin", ctx.GetHeader("Origin"))
		ctx.Header("Vary", "Origin")
		ctx.Header("Access-Control-Allow-Credentials", "true")
		ctx.Header("Access-Control-Allow-Headers", "Authorization, Content-Type, X-Requested-With")
		ctx.Header("Access-Control-Allow-Methods", "GET,POST,PATCH,PUT,DELETE,OPTIONS")
		if ctx.Method() == iris.MethodOptions {
			ctx.StatusCode(iris.StatusNoContent)
			return
		}
		ctx.Next()
	})

	app.Use(iris.Compression)

	app.Get("/health", func(ctx iris.Context) {
		ctx.JSON(iris.Map{"status": "ok"})
	})

	availability := app.Party("/api/availability")
	{
		availability.Get("/check", routes.CheckAvailability)
		availability.Post("/check", routes.CheckAvailabilityPost)
		availability.Get("/{roomTypeID}", routes.GetLedgerRange)
		availability.Post("/bulk", routes.BulkUpdateAvailability)
	}

	booking := app.Party("/api/booking")
	{
		booking.Post("/", routes.CreateBooking)
		booking.Post("/{id}/cancel", routes.CancelBooking)
		booking.Patch("/{id}/status", routes.UpdateBookingStatus)
		booking.Post("/expire-pending", routes.ExpirePendingBookings)
		booking.Get("/roomtype/{id}", routes.GetBookingsByRoomType)
	}

	hotel := app.Party("/api/hotel")
	{
		hotel.Post("/", routes.CreateHotel)
		hotel.Post("/{id}/roomtype", routes.CreateRoomType)
		hotel.Get("/{id}/roomtypes", routes.GetHotelRoomTypes)
		hotel.Get("/{id}/bookings", routes.GetHotelBookings)
	}

	roomType := app.Party("/api/roomtype")
	{
		roomType.Patch("/{id}", routes.UpdateRoomType)
		roomType.Post("/{id}/deactivate", routes.DeactivateRoomType)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	app.Listen(":" + port)
}
