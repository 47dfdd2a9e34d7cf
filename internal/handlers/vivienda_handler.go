package handlers

import (
	"net/http"
	"strings"

	"github.com/NRodriguezT98/ryr-app-sub002/config"
	"github.com/NRodriguezT98/ryr-app-sub002/internal/apperr"
	"github.com/NRodriguezT98/ryr-app-sub002/models"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type ViviendaInput struct {
	Manzana          string  `json:"manzana" binding:"required"`
	NumeroCasa       int     `json:"numeroCasa" binding:"required"`
	Matricula        string  `json:"matricula"`
	Nomenclatura     string  `json:"nomenclatura"`
	ValorBase        float64 `json:"valorBase" binding:"required"`
	EsEsquinera      bool    `json:"esEsquinera"`
	RecargoEsquinera float64 `json:"recargoEsquinera"`
	ProyectoID       uint    `json:"proyectoId" binding:"required"`
}

// ListViviendasHandler lista las viviendas con su proyecto y el cliente
// asignado, si lo hay. Admite filtro por disponibilidad y búsqueda por
// ubicación o matrícula.
func ListViviendasHandler(c *gin.Context) {
	var viviendas []models.Vivienda
	var totalRows int64

	base := config.DB.Model(&models.Vivienda{})
	if disponible := c.Query("disponible"); disponible == "true" {
		base = base.Where("cliente_id IS NULL")
	} else if disponible == "false" {
		base = base.Where("cliente_id IS NOT NULL")
	}
	if proyectoID := c.Query("proyectoId"); proyectoID != "" {
		base = base.Where("proyecto_id = ?", proyectoID)
	}
	if search := c.Query("search"); search != "" {
		patron := "%" + strings.ToLower(search) + "%"
		base = base.Where("LOWER(manzana) LIKE ? OR LOWER(matricula) LIKE ?", patron, patron)
	}

	base.Count(&totalRows)
	if err := base.Preload("Proyecto").Preload("Cliente").
		Scopes(Paginate(c)).
		Order("manzana, numero_casa").
		Find(&viviendas).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "No se pudieron listar las viviendas"})
		return
	}

	c.JSON(http.StatusOK, CreatePaginatedResponse(c, viviendas, totalRows))
}

// GetViviendaHandler devuelve una vivienda con proyecto y cliente.
func GetViviendaHandler(c *gin.Context) {
	var vivienda models.Vivienda
	if err := config.DB.Preload("Proyecto").Preload("Cliente").
		First(&vivienda, c.Param("id")).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "La vivienda no existe"})
		return
	}
	c.JSON(http.StatusOK, vivienda)
}

// CreateViviendaHandler registra una unidad nueva. La ubicación (manzana +
// número) debe ser única dentro del proyecto.
func CreateViviendaHandler(c *gin.Context) {
	var input ViviendaInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var repetidas int64
	config.DB.Model(&models.Vivienda{}).
		Where("proyecto_id = ? AND manzana = ? AND numero_casa = ?",
			input.ProyectoID, input.Manzana, input.NumeroCasa).
		Count(&repetidas)
	if repetidas > 0 {
		respondError(c, apperr.Conflict("ya existe la vivienda Mz. %s Casa %d en el proyecto",
			input.Manzana, input.NumeroCasa))
		return
	}

	vivienda := models.Vivienda{
		Manzana:          input.Manzana,
		NumeroCasa:       input.NumeroCasa,
		Matricula:        input.Matricula,
		Nomenclatura:     input.Nomenclatura,
		ValorBase:        input.ValorBase,
		EsEsquinera:      input.EsEsquinera,
		RecargoEsquinera: input.RecargoEsquinera,
		ProyectoID:       input.ProyectoID,
	}
	if err := config.DB.Create(&vivienda).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "No se pudo crear la vivienda"})
		return
	}
	c.JSON(http.StatusCreated, vivienda)
}

// UpdateViviendaHandler actualiza los datos comerciales de la vivienda. El
// valor base de una vivienda ocupada se puede cambiar: la conciliación del
// cliente lo reflejará en el siguiente cálculo.
func UpdateViviendaHandler(c *gin.Context) {
	var vivienda models.Vivienda
	if err := config.DB.First(&vivienda, c.Param("id")).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "La vivienda no existe"})
		return
	}

	var input ViviendaInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	vivienda.Manzana = input.Manzana
	vivienda.NumeroCasa = input.NumeroCasa
	vivienda.Matricula = input.Matricula
	vivienda.Nomenclatura = input.Nomenclatura
	vivienda.ValorBase = input.ValorBase
	vivienda.EsEsquinera = input.EsEsquinera
	vivienda.RecargoEsquinera = input.RecargoEsquinera
	if input.ProyectoID != 0 {
		vivienda.ProyectoID = input.ProyectoID
	}

	if err := config.DB.Save(&vivienda).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "No se pudo actualizar la vivienda"})
		return
	}
	c.JSON(http.StatusOK, vivienda)
}

// DeleteViviendaHandler elimina una vivienda disponible. Una vivienda con
// cliente asignado no se puede borrar.
func DeleteViviendaHandler(c *gin.Context) {
	var vivienda models.Vivienda
	if err := config.DB.First(&vivienda, c.Param("id")).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "La vivienda no existe"})
		return
	}
	if vivienda.ClienteID != nil {
		respondError(c, apperr.Conflict("la vivienda tiene un cliente asignado"))
		return
	}
	if err := config.DB.Delete(&vivienda).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "No se pudo eliminar la vivienda"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Vivienda eliminada"})
}

type asignacionInput struct {
	ClienteID uint `json:"clienteId" binding:"required"`
}

// AsignarViviendaHandler vincula un cliente activo a una vivienda disponible.
func AsignarViviendaHandler(c *gin.Context) {
	var vivienda models.Vivienda
	if err := config.DB.Preload("Proyecto").First(&vivienda, c.Param("id")).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "La vivienda no existe"})
		return
	}
	if vivienda.ClienteID != nil {
		respondError(c, apperr.Conflict("la vivienda ya está asignada"))
		return
	}

	var input asignacionInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	var cliente models.Cliente
	if err := config.DB.First(&cliente, input.ClienteID).Error; err != nil {
		respondError(c, apperr.NotFound("el cliente no existe"))
		return
	}
	if cliente.Status != models.ClienteActivo {
		respondError(c, apperr.Conflict("solo un cliente activo puede recibir vivienda"))
		return
	}
	if cliente.ViviendaID != nil {
		respondError(c, apperr.Conflict("el cliente ya tiene una vivienda asignada"))
		return
	}

	cliente.Vivienda = &vivienda
	ev := nuevoEvento(c, models.AccionAssignVivienda, contextoDe(cliente), models.JSONB{
		"vivienda": vivienda.Ubicacion(),
	})
	err := config.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&vivienda).Update("cliente_id", cliente.ID).Error; err != nil {
			return apperr.UpstreamIO("no se pudo asignar la vivienda", err)
		}
		if err := tx.Model(&cliente).Update("vivienda_id", vivienda.ID).Error; err != nil {
			return apperr.UpstreamIO("no se pudo actualizar el cliente", err)
		}
		return registrarEvento(tx, ev)
	})
	if err != nil {
		respondError(c, err)
		return
	}
	GlobalHub.Notificar(ev)
	c.JSON(http.StatusOK, gin.H{"message": "Vivienda asignada"})
}

// DesasignarViviendaHandler libera la vivienda de su cliente. Los abonos ya
// registrados no se tocan; si el cliente recibe otra vivienda entran como
// recursos previos de su nuevo plan.
func DesasignarViviendaHandler(c *gin.Context) {
	var vivienda models.Vivienda
	if err := config.DB.Preload("Proyecto").First(&vivienda, c.Param("id")).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "La vivienda no existe"})
		return
	}
	if vivienda.ClienteID == nil {
		respondError(c, apperr.Conflict("la vivienda no tiene cliente asignado"))
		return
	}

	var cliente models.Cliente
	if err := config.DB.First(&cliente, *vivienda.ClienteID).Error; err != nil {
		respondError(c, apperr.UpstreamIO("no se pudo cargar el cliente", err))
		return
	}
	cliente.Vivienda = &vivienda

	ev := nuevoEvento(c, models.AccionUnassignVivienda, contextoDe(cliente), models.JSONB{
		"vivienda": vivienda.Ubicacion(),
	})
	err := config.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&vivienda).Update("cliente_id", nil).Error; err != nil {
			return apperr.UpstreamIO("no se pudo liberar la vivienda", err)
		}
		if err := tx.Model(&cliente).Update("vivienda_id", nil).Error; err != nil {
			return apperr.UpstreamIO("no se pudo actualizar el cliente", err)
		}
		return registrarEvento(tx, ev)
	})
	if err != nil {
		respondError(c, err)
		return
	}
	GlobalHub.Notificar(ev)
	c.JSON(http.StatusOK, gin.H{"message": "Vivienda liberada"})
}
