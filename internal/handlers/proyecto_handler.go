package handlers

import (
	"net/http"

	"github.com/NRodriguezT98/ryr-app-sub002/config"
	"github.com/NRodriguezT98/ryr-app-sub002/internal/apperr"
	"github.com/NRodriguezT98/ryr-app-sub002/internal/financiero"
	"github.com/NRodriguezT98/ryr-app-sub002/models"

	"github.com/gin-gonic/gin"
)

type ProyectoInput struct {
	Nombre           string  `json:"nombre" binding:"required"`
	GastosNotariales float64 `json:"gastosNotariales"`
	FormulaRecargo   string  `json:"formulaRecargo"`
}

// validarFormula comprueba que la fórmula de recargo evalúe sobre un valor de
// prueba antes de guardarla. Una fórmula rota bloquearía todos los cálculos
// del proyecto.
func validarFormula(formula string) error {
	if formula == "" {
		return nil
	}
	prueba := financiero.ComponentesPrecio{
		ValorBase:      100_000_000,
		EsEsquinera:    true,
		FormulaRecargo: formula,
	}
	_, err := prueba.TotalAPagar()
	return err
}

func ListProyectosHandler(c *gin.Context) {
	var proyectos []models.Proyecto
	if err := config.DB.Order("nombre").Find(&proyectos).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "No se pudieron listar los proyectos"})
		return
	}
	c.JSON(http.StatusOK, proyectos)
}

func CreateProyectoHandler(c *gin.Context) {
	var input ProyectoInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := validarFormula(input.FormulaRecargo); err != nil {
		respondError(c, err)
		return
	}

	proyecto := models.Proyecto{
		Nombre:           input.Nombre,
		GastosNotariales: input.GastosNotariales,
		FormulaRecargo:   input.FormulaRecargo,
	}
	if err := config.DB.Create(&proyecto).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "No se pudo crear el proyecto"})
		return
	}
	c.JSON(http.StatusCreated, proyecto)
}

func UpdateProyectoHandler(c *gin.Context) {
	var proyecto models.Proyecto
	if err := config.DB.First(&proyecto, c.Param("id")).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "El proyecto no existe"})
		return
	}

	var input ProyectoInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := validarFormula(input.FormulaRecargo); err != nil {
		respondError(c, err)
		return
	}

	proyecto.Nombre = input.Nombre
	proyecto.GastosNotariales = input.GastosNotariales
	proyecto.FormulaRecargo = input.FormulaRecargo
	if err := config.DB.Save(&proyecto).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "No se pudo actualizar el proyecto"})
		return
	}
	c.JSON(http.StatusOK, proyecto)
}

func DeleteProyectoHandler(c *gin.Context) {
	var viviendas int64
	config.DB.Model(&models.Vivienda{}).Where("proyecto_id = ?", c.Param("id")).Count(&viviendas)
	if viviendas > 0 {
		respondError(c, apperr.Conflict("el proyecto tiene viviendas registradas"))
		return
	}
	if err := config.DB.Delete(&models.Proyecto{}, c.Param("id")).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "No se pudo eliminar el proyecto"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Proyecto eliminado"})
}
