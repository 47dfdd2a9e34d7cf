package handlers

import (
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const uploadsDir = "./static/uploads"

var carpetasPermitidas = map[string]bool{
	"cedulas":     true,
	"cartas":      true,
	"evidencias":  true,
	"comprobante": true,
}

// UploadFileHandler guarda un archivo con nombre único y devuelve su URL
// pública. Los archivos nunca se borran ni se sobreescriben: un documento
// reemplazado conserva su enlace anterior para el historial.
func UploadFileHandler(c *gin.Context) {
	carpeta := c.Param("carpeta")
	if !carpetasPermitidas[carpeta] {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Carpeta de destino desconocida"})
		return
	}

	file, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No se recibió ningún archivo"})
		return
	}

	ext := strings.ToLower(filepath.Ext(file.Filename))
	switch ext {
	case ".pdf", ".png", ".jpg", ".jpeg", ".webp":
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "Tipo de archivo no permitido"})
		return
	}

	dir := filepath.Join(uploadsDir, carpeta)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "No se pudo preparar el directorio"})
		return
	}

	nombre := uuid.New().String() + ext
	destino := filepath.Join(dir, nombre)
	if err := c.SaveUploadedFile(file, destino); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "No se pudo guardar el archivo"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"url":            "/static/uploads/" + carpeta + "/" + nombre,
		"nombreOriginal": file.Filename,
	})
}
