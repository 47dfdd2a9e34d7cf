package routes

import (
	"github.com/NRodriguezT98/ryr-app-sub002/internal/handlers"

	"github.com/gin-gonic/gin"
)

// RegisterAuthRoutes registra las rutas públicas de autenticación. Estas
// rutas no pasan por el middleware de token.
func RegisterAuthRoutes(r *gin.Engine) {
	r.POST("/login", handlers.LoginHandler)
	r.GET("/logout", handlers.LogoutHandler)
}
