package routes

import (
	"github.com/NRodriguezT98/ryr-app-sub002/internal/middleware"

	"github.com/gin-gonic/gin"
)

// SetupRoutes inicializa todas las rutas de la aplicación.
func SetupRoutes(r *gin.Engine) {
	// Rutas públicas primero: login y logout no requieren token.
	RegisterAuthRoutes(r)

	// Todo lo demás exige un usuario autenticado.
	authRequired := r.Group("/")
	authRequired.Use(middleware.AuthMiddleware())
	{
		RegisterAPIRoutes(authRequired)
	}
}
