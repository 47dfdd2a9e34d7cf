package config

import (
	"log/slog"
	"os"
)

// JwtKey firma los tokens de sesión. Obligatoria en arranque.
var JwtKey []byte

func LoadJWTKey() {
	key := os.Getenv("JWT_SECRET")
	if key == "" {
		slog.Error("Error crítico: la variable de entorno JWT_SECRET no está definida.")
		os.Exit(1)
	}
	JwtKey = []byte(key)
}
