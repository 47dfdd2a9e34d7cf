package main

import (
	"log/slog"
	"os"

	"github.com/NRodriguezT98/ryr-app-sub002/config"
	"github.com/NRodriguezT98/ryr-app-sub002/internal/handlers"
	"github.com/NRodriguezT98/ryr-app-sub002/internal/routes"
	"github.com/NRodriguezT98/ryr-app-sub002/models"

	"github.com/gin-gonic/gin"
)

func main() {
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, nil)))

	config.LoadJWTKey()
	config.ConnectDB()
	config.ConnectRedis()

	if err := config.DB.AutoMigrate(
		&models.User{},
		&models.Role{},
		&models.Permission{},
		&models.Proyecto{},
		&models.Vivienda{},
		&models.Cliente{},
		&models.PlanFinanciero{},
		&models.PasoProceso{},
		&models.Abono{},
		&models.Renuncia{},
		&models.AuditEvent{},
	); err != nil {
		slog.Error("Falló la migración de la base de datos", "error", err)
		os.Exit(1)
	}

	go handlers.GlobalHub.Run()

	r := gin.Default()
	r.MaxMultipartMemory = 16 << 20
	r.Static("/static", "./static")

	routes.SetupRoutes(r)

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	slog.Info("Servidor iniciado", "port", port)
	if err := r.Run(":" + port); err != nil {
		slog.Error("El servidor terminó con error", "error", err)
		os.Exit(1)
	}
}
