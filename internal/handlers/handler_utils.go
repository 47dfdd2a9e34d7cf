package handlers

import (
	"fmt"
	"strconv"
	"time"

	"github.com/NRodriguezT98/ryr-app-sub002/internal/apperr"

	"github.com/gin-gonic/gin"
)

// paramID lee el parámetro :id de la ruta como identificador numérico. Un
// valor ilegible devuelve 0, que ningún registro usa.
func paramID(c *gin.Context) uint {
	id, _ := strconv.ParseUint(c.Param("id"), 10, 32)
	return uint(id)
}

// userCacheKey es la clave de Redis donde viven los datos de sesión de un
// usuario. Debe coincidir con la que escribe el middleware de autenticación.
func userCacheKey(id uint) string {
	return fmt.Sprintf("user:%d:data", id)
}

// currentUserName devuelve el nombre visible del usuario autenticado, el que
// se estampa en los eventos del historial.
func currentUserName(c *gin.Context) string {
	if name, ok := c.Get("userName"); ok {
		if s, ok := name.(string); ok && s != "" {
			return s
		}
	}
	return "sistema"
}

// parseFecha interpreta fechas YYYY-MM-DD del cuerpo de la petición.
func parseFecha(s string) (time.Time, error) {
	fecha, err := time.Parse("2006-01-02", s)
	if err != nil {
		return time.Time{}, apperr.Validation("formato de fecha inválido; se espera YYYY-MM-DD")
	}
	return fecha, nil
}

// respondError traduce la taxonomía de errores del núcleo al código HTTP y
// entrega la razón tal cual, sin reformular.
func respondError(c *gin.Context, err error) {
	c.JSON(apperr.HTTPStatus(err), gin.H{
		"error": apperr.Razon(err),
		"kind":  string(apperr.KindOf(err)),
	})
}
