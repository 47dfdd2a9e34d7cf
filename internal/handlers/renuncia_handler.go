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

type RenunciaInput struct {
	Motivo        string  `json:"motivo" binding:"required"`
	Observacion   string  `json:"observacion"`
	FechaRenuncia string  `json:"fechaRenuncia" binding:"required"`
	Penalidad     float64 `json:"penalidad"`
}

// ListRenunciasHandler lista las renuncias con el nombre del cliente, con
// filtro por estado.
func ListRenunciasHandler(c *gin.Context) {
	var resultados []map[string]interface{}
	var totalRows int64

	base := config.DB.Table("renuncias r").
		Joins("LEFT JOIN clientes cl ON r.cliente_id = cl.id").
		Where("r.deleted_at IS NULL")

	if estado := c.Query("estado"); estado != "" {
		base = base.Where("r.estado = ?", estado)
	}

	base.Count(&totalRows)
	if err := base.Select(`
		r.id AS "ID",
		r.cliente_id AS "ClienteID",
		(cl.nombres || ' ' || cl.apellidos) AS "ClienteNombre",
		r.motivo AS "Motivo",
		to_char(r.fecha_renuncia, 'YYYY-MM-DD') AS "FechaRenuncia",
		r.estado AS "Estado",
		r.total_abonado AS "TotalAbonado",
		r.penalidad AS "Penalidad",
		r.monto_a_devolver AS "MontoADevolver",
		r.estado_devolucion AS "EstadoDevolucion"
	`).Scopes(Paginate(c)).Order("r.fecha_renuncia DESC").Scan(&resultados).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "No se pudieron listar las renuncias"})
		return
	}

	c.JSON(http.StatusOK, CreatePaginatedResponse(c, resultados, totalRows))
}

// GetRenunciaHandler devuelve una renuncia con su foto completa.
func GetRenunciaHandler(c *gin.Context) {
	var renuncia models.Renuncia
	if err := config.DB.First(&renuncia, c.Param("id")).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "La renuncia no existe"})
		return
	}
	c.JSON(http.StatusOK, renuncia)
}

// CrearRenunciaHandler registra el desistimiento de un cliente: liquida los
// abonos, archiva los documentos del proceso, marca al cliente como
// renunciado y libera la vivienda. Todo o nada.
func CrearRenunciaHandler(c *gin.Context) {
	cliente, err := cargarClienteConPlan(config.DB, paramID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	if cliente.Status == models.ClienteRenunciado {
		respondError(c, apperr.Conflict("el cliente ya renunció"))
		return
	}

	var input RenunciaInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if strings.TrimSpace(input.Motivo) == "" {
		respondError(c, apperr.Validation("el motivo de la renuncia es obligatorio"))
		return
	}
	fecha, err := parseFecha(input.FechaRenuncia)
	if err != nil {
		respondError(c, err)
		return
	}
	if input.Penalidad < 0 {
		respondError(c, apperr.Validation("la penalidad no puede ser negativa"))
		return
	}

	var abonos []models.Abono
	if err := config.DB.Where("cliente_id = ?", cliente.ID).Find(&abonos).Error; err != nil {
		respondError(c, apperr.UpstreamIO("no se pudieron cargar los abonos", err))
		return
	}
	totalAbonado := 0.0
	historial := models.JSONBArray{}
	for _, ab := range abonos {
		totalAbonado += ab.Monto
		historial = append(historial, map[string]interface{}{
			"abonoId":       ab.ID,
			"fuenteRecurso": ab.FuenteRecurso,
			"monto":         ab.Monto,
			"fechaPago":     ab.FechaPago.Format("2006-01-02"),
		})
	}
	if input.Penalidad > totalAbonado {
		respondError(c, apperr.Validation("la penalidad no puede superar el total abonado"))
		return
	}

	documentos := documentosArchivadosDe(cliente)
	renuncia := models.Renuncia{
		ClienteID:            cliente.ID,
		ViviendaID:           *cliente.ViviendaID,
		Motivo:               input.Motivo,
		Observacion:          input.Observacion,
		FechaRenuncia:        fecha,
		Estado:               models.RenunciaPendiente,
		TotalAbonado:         totalAbonado,
		Penalidad:            input.Penalidad,
		MontoADevolver:       totalAbonado - input.Penalidad,
		EstadoDevolucion:     models.DevolucionPendiente,
		HistorialAbonos:      historial,
		DocumentosArchivados: documentos,
	}

	vivienda := cliente.Vivienda
	ctx := contextoDe(cliente)
	ubicacion := ""
	if vivienda != nil {
		ubicacion = vivienda.Ubicacion()
	}
	evRenuncia := nuevoEvento(c, models.AccionClientRenounce, ctx, models.JSONB{
		"motivo":               input.Motivo,
		"observacion":          input.Observacion,
		"fechaRenuncia":        fecha.Format("2006-01-02"),
		"vivienda":             ubicacion,
		"totalAbonado":         totalAbonado,
		"penalidad":            input.Penalidad,
		"montoADevolver":       renuncia.MontoADevolver,
		"estadoDevolucion":     renuncia.EstadoDevolucion,
		"historialAbonos":      []map[string]interface{}(historial),
		"documentosArchivados": []map[string]interface{}(documentos),
	})
	evCreate := nuevoEvento(c, models.AccionCreateRenuncia, ctx, models.JSONB{
		"motivo": input.Motivo,
	})

	err = config.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&renuncia).Error; err != nil {
			return apperr.UpstreamIO("no se pudo registrar la renuncia", err)
		}
		if err := tx.Model(&models.Cliente{}).Where("id = ?", cliente.ID).
			Updates(map[string]interface{}{
				"status":      models.ClienteRenunciado,
				"vivienda_id": nil,
			}).Error; err != nil {
			return apperr.UpstreamIO("no se pudo actualizar el cliente", err)
		}
		if vivienda != nil {
			if err := tx.Model(&models.Vivienda{}).Where("id = ?", vivienda.ID).
				Update("cliente_id", nil).Error; err != nil {
				return apperr.UpstreamIO("no se pudo liberar la vivienda", err)
			}
		}
		if err := registrarEvento(tx, evRenuncia); err != nil {
			return err
		}
		return registrarEvento(tx, evCreate)
	})
	if err != nil {
		respondError(c, err)
		return
	}
	GlobalHub.Notificar(evRenuncia)
	GlobalHub.Notificar(evCreate)

	c.JSON(http.StatusCreated, renuncia)
}

// documentosArchivadosDe recolecta los enlaces de documentos que quedan
// archivados con la renuncia: cédula, cartas del plan y evidencias del
// proceso. Los archivos nunca se borran del almacenamiento.
func documentosArchivadosDe(cliente models.Cliente) models.JSONBArray {
	docs := models.JSONBArray{}
	agregar := func(nombre, url string) {
		if url == "" {
			return
		}
		docs = append(docs, map[string]interface{}{"nombre": nombre, "url": url})
	}
	agregar("Cédula", cliente.URLCedula)
	if cliente.Plan != nil {
		agregar("Carta aprobación crédito", cliente.Plan.CreditoCartaURL)
		agregar("Carta subsidio caja", cliente.Plan.SubsidioCajaCartaURL)
	}
	var pasos []models.PasoProceso
	config.DB.Where("cliente_id = ?", cliente.ID).Find(&pasos)
	for _, paso := range pasos {
		for slot, ev := range paso.Evidencias {
			agregar("Evidencia "+slot, ev.URL)
		}
	}
	return docs
}

type renunciaUpdateInput struct {
	Observacion      string `json:"observacion"`
	EstadoDevolucion string `json:"estadoDevolucion"`
}

// UpdateRenunciaHandler corrige la observación o cierra la devolución de una
// renuncia pendiente o aprobada.
func UpdateRenunciaHandler(c *gin.Context) {
	var renuncia models.Renuncia
	if err := config.DB.First(&renuncia, c.Param("id")).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "La renuncia no existe"})
		return
	}
	if renuncia.Estado == models.RenunciaRechazada {
		respondError(c, apperr.Conflict("una renuncia rechazada no se puede modificar"))
		return
	}

	var input renunciaUpdateInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	cambios := []interface{}{}
	if input.Observacion != "" && input.Observacion != renuncia.Observacion {
		cambios = append(cambios, map[string]interface{}{
			"campo": "observacion", "anterior": renuncia.Observacion, "actual": input.Observacion,
		})
		renuncia.Observacion = input.Observacion
	}
	if input.EstadoDevolucion != "" && input.EstadoDevolucion != renuncia.EstadoDevolucion {
		if input.EstadoDevolucion != models.DevolucionPendiente && input.EstadoDevolucion != models.DevolucionCerrada {
			respondError(c, apperr.Validation("estado de devolución desconocido: '%s'", input.EstadoDevolucion))
			return
		}
		cambios = append(cambios, map[string]interface{}{
			"campo": "estadoDevolucion", "anterior": renuncia.EstadoDevolucion, "actual": input.EstadoDevolucion,
		})
		renuncia.EstadoDevolucion = input.EstadoDevolucion
	}

	ev := nuevoEvento(c, models.AccionUpdateRenuncia, contextoRenuncia(renuncia), models.JSONB{
		"renunciaId": renuncia.ID,
		"cambios":    cambios,
	})
	err := config.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Save(&renuncia).Error; err != nil {
			return apperr.UpstreamIO("no se pudo actualizar la renuncia", err)
		}
		if len(cambios) == 0 {
			return nil
		}
		return registrarEvento(tx, ev)
	})
	if err != nil {
		respondError(c, err)
		return
	}
	if len(cambios) > 0 {
		GlobalHub.Notificar(ev)
	}
	c.JSON(http.StatusOK, renuncia)
}

// AprobarRenunciaHandler confirma la renuncia. El cliente queda renunciado en
// firme y la devolución sigue su propio ciclo.
func AprobarRenunciaHandler(c *gin.Context) {
	resolverRenuncia(c, models.RenunciaAprobada, models.AccionApproveRenuncia)
}

// RechazarRenunciaHandler descarta la renuncia y restaura al cliente en su
// vivienda, si sigue disponible.
func RechazarRenunciaHandler(c *gin.Context) {
	resolverRenuncia(c, models.RenunciaRechazada, models.AccionRejectRenuncia)
}

func resolverRenuncia(c *gin.Context, estado, accion string) {
	var renuncia models.Renuncia
	if err := config.DB.First(&renuncia, c.Param("id")).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "La renuncia no existe"})
		return
	}
	if renuncia.Estado != models.RenunciaPendiente {
		respondError(c, apperr.Conflict("la renuncia ya fue resuelta: %s", renuncia.Estado))
		return
	}

	ev := nuevoEvento(c, accion, contextoRenuncia(renuncia), models.JSONB{
		"renunciaId": renuncia.ID,
	})
	err := config.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&renuncia).Update("estado", estado).Error; err != nil {
			return apperr.UpstreamIO("no se pudo resolver la renuncia", err)
		}
		if estado == models.RenunciaRechazada {
			// El rechazo devuelve al cliente a su estado activo y reocupa la
			// vivienda si nadie más la tomó.
			var ocupada int64
			tx.Model(&models.Vivienda{}).
				Where("id = ? AND cliente_id IS NOT NULL", renuncia.ViviendaID).
				Count(&ocupada)
			if ocupada > 0 {
				return apperr.Conflict("la vivienda ya fue asignada a otro cliente")
			}
			if err := tx.Model(&models.Cliente{}).Where("id = ?", renuncia.ClienteID).
				Updates(map[string]interface{}{
					"status":      models.ClienteActivo,
					"vivienda_id": renuncia.ViviendaID,
				}).Error; err != nil {
				return apperr.UpstreamIO("no se pudo restaurar el cliente", err)
			}
			if err := tx.Model(&models.Vivienda{}).Where("id = ?", renuncia.ViviendaID).
				Update("cliente_id", renuncia.ClienteID).Error; err != nil {
				return apperr.UpstreamIO("no se pudo reasignar la vivienda", err)
			}
		}
		return registrarEvento(tx, ev)
	})
	if err != nil {
		respondError(c, err)
		return
	}
	GlobalHub.Notificar(ev)
	c.JSON(http.StatusOK, gin.H{"estado": estado})
}

// contextoRenuncia reconstruye el contexto de auditoría a partir de la
// renuncia, porque el cliente ya no tiene la vivienda asignada.
func contextoRenuncia(renuncia models.Renuncia) models.ContextoAuditoria {
	ctx := models.ContextoAuditoria{ClienteID: renuncia.ClienteID}
	var cliente models.Cliente
	if err := config.DB.First(&cliente, renuncia.ClienteID).Error; err == nil {
		ctx.ClienteNombre = cliente.NombreCompleto()
	}
	var vivienda models.Vivienda
	if err := config.DB.Preload("Proyecto").First(&vivienda, renuncia.ViviendaID).Error; err == nil {
		ctx.Manzana = vivienda.Manzana
		ctx.NumeroCasa = vivienda.NumeroCasa
		if vivienda.Proyecto != nil {
			ctx.Proyecto = vivienda.Proyecto.Nombre
		}
	}
	return ctx
}
