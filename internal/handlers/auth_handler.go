package handlers

import (
	"net/http"
	"time"

	"github.com/NRodriguezT98/ryr-app-sub002/config"
	"github.com/NRodriguezT98/ryr-app-sub002/models"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

const sesionDuracion = 12 * time.Hour

type loginInput struct {
	Login    string `json:"login" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// LoginHandler valida las credenciales y entrega el token en una cookie
// HttpOnly. El mismo token sirve como Bearer para clientes de API.
func LoginHandler(c *gin.Context) {
	var input loginInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Login y contraseña son obligatorios"})
		return
	}

	var user models.User
	if err := config.DB.Where("login = ?", input.Login).First(&user).Error; err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Credenciales inválidas"})
		return
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(input.Password)); err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Credenciales inválidas"})
		return
	}

	expira := time.Now().Add(sesionDuracion)
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id": user.ID,
		"login":   user.Login,
		"exp":     expira.Unix(),
	})
	tokenStr, err := token.SignedString(config.JwtKey)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "No se pudo generar el token"})
		return
	}

	c.SetCookie("auth_token", tokenStr, int(sesionDuracion.Seconds()), "/", "", false, true)
	c.JSON(http.StatusOK, gin.H{
		"token":       tokenStr,
		"displayName": user.DisplayName,
		"expiresAt":   expira.Format(time.RFC3339),
	})
}

// LogoutHandler invalida la sesión: borra la cookie y el caché del usuario.
func LogoutHandler(c *gin.Context) {
	if v, ok := c.Get("user_id"); ok && config.RDB != nil {
		if id, ok := v.(uint); ok {
			config.RDB.Del(config.Ctx, userCacheKey(id))
		}
	}
	c.SetCookie("auth_token", "", -1, "/", "", false, true)
	c.JSON(http.StatusOK, gin.H{"message": "Sesión cerrada"})
}

// ProfileHandler devuelve los datos de sesión del usuario autenticado.
func ProfileHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"userId":      c.GetUint("user_id"),
		"login":       c.GetString("login"),
		"displayName": c.GetString("userName"),
		"roles":       c.GetStringSlice("roles"),
		"permissions": c.GetStringSlice("permissions"),
	})
}

type registerInput struct {
	Login       string `json:"login" binding:"required"`
	DisplayName string `json:"displayName" binding:"required"`
	Password    string `json:"password" binding:"required,min=8"`
}

// RegisterUserHandler crea un usuario. Solo accesible para administradores.
func RegisterUserHandler(c *gin.Context) {
	var input registerInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "No se pudo procesar la contraseña"})
		return
	}

	user := models.User{
		Login:        input.Login,
		DisplayName:  input.DisplayName,
		PasswordHash: string(hashed),
	}
	if err := config.DB.Create(&user).Error; err != nil {
		c.JSON(http.StatusConflict, gin.H{"error": "El login ya está en uso"})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"id": user.ID, "login": user.Login})
}
