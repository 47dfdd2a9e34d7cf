package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/NRodriguezT98/ryr-app-sub002/config"
	"github.com/NRodriguezT98/ryr-app-sub002/internal/apperr"
	"github.com/NRodriguezT98/ryr-app-sub002/internal/financiero"
	"github.com/NRodriguezT98/ryr-app-sub002/models"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type ClienteInput struct {
	Nombres      string                 `json:"nombres" binding:"required"`
	Apellidos    string                 `json:"apellidos" binding:"required"`
	Cedula       string                 `json:"cedula" binding:"required"`
	Telefono     string                 `json:"telefono"`
	Correo       string                 `json:"correo"`
	Direccion    string                 `json:"direccion"`
	FechaIngreso string                 `json:"fechaIngreso"`
	URLCedula    string                 `json:"urlCedula"`
	ViviendaID   *uint                  `json:"viviendaId"`
	Plan         *models.PlanFinanciero `json:"plan"`
}

// ListClientesHandler lista clientes con paginación y búsqueda por cédula o
// nombre.
func ListClientesHandler(c *gin.Context) {
	var clientes []models.Cliente
	var totalRows int64

	query := config.DB.Model(&models.Cliente{}).Preload("Vivienda.Proyecto")

	if status := c.Query("status"); status != "" {
		query = query.Where("status = ?", status)
	}
	if search := c.Query("search"); search != "" {
		patron := "%" + strings.ToLower(search) + "%"
		query = query.Where(
			"LOWER(cedula) LIKE ? OR LOWER(nombres) LIKE ? OR LOWER(apellidos) LIKE ?",
			patron, patron, patron)
	}

	query.Count(&totalRows)
	if err := query.Scopes(Paginate(c)).Order("apellidos, nombres").Find(&clientes).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "No se pudieron listar los clientes"})
		return
	}

	c.JSON(http.StatusOK, CreatePaginatedResponse(c, clientes, totalRows))
}

// GetClienteHandler devuelve un cliente con su vivienda, plan y totales.
func GetClienteHandler(c *gin.Context) {
	var cliente models.Cliente
	if err := config.DB.Preload("Vivienda.Proyecto").Preload("Plan").
		First(&cliente, c.Param("id")).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "El cliente no existe"})
		return
	}

	respuesta := gin.H{"cliente": cliente}
	if cliente.Vivienda != nil && cliente.Vivienda.Proyecto != nil && cliente.Plan != nil {
		if totales, err := financiero.ComputeTotals(
			financiero.ComponentesDe(*cliente.Vivienda, *cliente.Vivienda.Proyecto),
			*cliente.Plan, 0); err == nil {
			respuesta["totales"] = totales
		}
	}
	c.JSON(http.StatusOK, respuesta)
}

// CreateClienteHandler registra un cliente y, si llega viviendaId, se la
// asigna junto con su plan financiero inicial.
func CreateClienteHandler(c *gin.Context) {
	var input ClienteInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	cliente := models.Cliente{
		Nombres:   input.Nombres,
		Apellidos: input.Apellidos,
		Cedula:    input.Cedula,
		Telefono:  input.Telefono,
		Correo:    input.Correo,
		Direccion: input.Direccion,
		URLCedula: input.URLCedula,
		Status:    models.ClienteActivo,
	}
	if input.FechaIngreso != "" {
		fecha, err := parseFecha(input.FechaIngreso)
		if err != nil {
			respondError(c, err)
			return
		}
		cliente.FechaIngreso = &fecha
	} else {
		hoy := time.Now()
		cliente.FechaIngreso = &hoy
	}

	var ev models.AuditEvent
	err := config.DB.Transaction(func(tx *gorm.DB) error {
		if input.ViviendaID != nil {
			var vivienda models.Vivienda
			if err := tx.Preload("Proyecto").First(&vivienda, *input.ViviendaID).Error; err != nil {
				return apperr.NotFound("la vivienda no existe")
			}
			if vivienda.ClienteID != nil {
				return apperr.Conflict("la vivienda %s ya está asignada", vivienda.Ubicacion())
			}
			cliente.ViviendaID = input.ViviendaID
			cliente.Vivienda = &vivienda
		}
		if err := tx.Create(&cliente).Error; err != nil {
			return apperr.UpstreamIO("no se pudo crear el cliente", err)
		}
		if cliente.ViviendaID != nil {
			if err := tx.Model(&models.Vivienda{}).Where("id = ?", *cliente.ViviendaID).
				Update("cliente_id", cliente.ID).Error; err != nil {
				return apperr.UpstreamIO("no se pudo asignar la vivienda", err)
			}
		}
		if input.Plan != nil {
			plan := *input.Plan
			plan.ID = 0
			plan.ClienteID = cliente.ID
			if err := tx.Create(&plan).Error; err != nil {
				return apperr.UpstreamIO("no se pudo crear el plan financiero", err)
			}
		}
		ev = nuevoEvento(c, models.AccionCreateClient, contextoDe(cliente), models.JSONB{
			"cedula": cliente.Cedula,
		})
		return registrarEvento(tx, ev)
	})
	if err != nil {
		respondError(c, err)
		return
	}
	GlobalHub.Notificar(ev)

	c.JSON(http.StatusCreated, cliente)
}

// cambioCampo arma el triple {campo, anterior, actual} del payload de
// UPDATE_CLIENT. Los cambios de archivo llevan además el sub-registro
// fileChange con ambas URLs: la anterior sigue resolviendo para auditoría.
func cambioCampo(campo string, anterior, actual interface{}) models.JSONB {
	return models.JSONB{"campo": campo, "anterior": anterior, "actual": actual}
}

func cambioArchivoCedula(anterior, actual string) models.JSONB {
	fc := models.JSONB{}
	switch {
	case anterior == "":
		fc["tipo"] = "agregado"
		fc["urlNueva"] = actual
	case actual == "":
		fc["tipo"] = "eliminado"
		fc["urlAnterior"] = anterior
	default:
		fc["tipo"] = "reemplazado"
		fc["urlAnterior"] = anterior
		fc["urlNueva"] = actual
	}
	cambio := cambioCampo("urlCedula", anterior, actual)
	cambio["fileChange"] = map[string]interface{}(fc)
	return cambio
}

// UpdateClienteHandler aplica los cambios y deja en el evento el delta campo
// por campo que luego renderiza el intérprete del historial.
func UpdateClienteHandler(c *gin.Context) {
	var cliente models.Cliente
	if err := config.DB.Preload("Vivienda.Proyecto").First(&cliente, c.Param("id")).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "El cliente no existe"})
		return
	}

	var input ClienteInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	cambios := []interface{}{}
	registrar := func(campo, anterior, actual string) {
		if anterior != actual {
			cambios = append(cambios, map[string]interface{}(cambioCampo(campo, anterior, actual)))
		}
	}
	registrar("nombres", cliente.Nombres, input.Nombres)
	registrar("apellidos", cliente.Apellidos, input.Apellidos)
	registrar("cedula", cliente.Cedula, input.Cedula)
	registrar("telefono", cliente.Telefono, input.Telefono)
	registrar("correo", cliente.Correo, input.Correo)
	registrar("direccion", cliente.Direccion, input.Direccion)
	if cliente.URLCedula != input.URLCedula {
		cambios = append(cambios, map[string]interface{}(cambioArchivoCedula(cliente.URLCedula, input.URLCedula)))
	}

	cliente.Nombres = input.Nombres
	cliente.Apellidos = input.Apellidos
	cliente.Cedula = input.Cedula
	cliente.Telefono = input.Telefono
	cliente.Correo = input.Correo
	cliente.Direccion = input.Direccion
	cliente.URLCedula = input.URLCedula

	ev := nuevoEvento(c, models.AccionUpdateClient, contextoDe(cliente), models.JSONB{
		"cambios": cambios,
	})
	err := config.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Save(&cliente).Error; err != nil {
			return apperr.UpstreamIO("no se pudo actualizar el cliente", err)
		}
		return registrarEvento(tx, ev)
	})
	if err != nil {
		respondError(c, err)
		return
	}
	GlobalHub.Notificar(ev)

	c.JSON(http.StatusOK, cliente)
}

func cambiarStatusCliente(c *gin.Context, status, accion string) {
	var cliente models.Cliente
	if err := config.DB.Preload("Vivienda.Proyecto").First(&cliente, c.Param("id")).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "El cliente no existe"})
		return
	}

	ev := nuevoEvento(c, accion, contextoDe(cliente), models.JSONB{
		"statusAnterior": cliente.Status,
		"statusNuevo":    status,
	})
	err := config.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&cliente).Update("status", status).Error; err != nil {
			return apperr.UpstreamIO("no se pudo cambiar el estado del cliente", err)
		}
		return registrarEvento(tx, ev)
	})
	if err != nil {
		respondError(c, err)
		return
	}
	GlobalHub.Notificar(ev)
	c.JSON(http.StatusOK, gin.H{"message": "Estado actualizado", "status": status})
}

// ArchivarClienteHandler pasa el cliente a archivado (reversible).
func ArchivarClienteHandler(c *gin.Context) {
	cambiarStatusCliente(c, models.ClienteArchivado, models.AccionArchiveClient)
}

// RestaurarClienteHandler devuelve un cliente archivado a activo.
func RestaurarClienteHandler(c *gin.Context) {
	cambiarStatusCliente(c, models.ClienteActivo, models.AccionRestoreClient)
}

// EliminarClienteHandler borra definitivamente a un cliente archivado. Los
// eventos del historial y los archivos subidos se conservan.
func EliminarClienteHandler(c *gin.Context) {
	var cliente models.Cliente
	if err := config.DB.Preload("Vivienda.Proyecto").First(&cliente, c.Param("id")).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "El cliente no existe"})
		return
	}
	if cliente.Status != models.ClienteArchivado {
		respondError(c, apperr.Conflict("solo puede eliminarse un cliente archivado"))
		return
	}

	ev := nuevoEvento(c, models.AccionDeleteClient, contextoDe(cliente), nil)
	err := config.DB.Transaction(func(tx *gorm.DB) error {
		if cliente.ViviendaID != nil {
			if err := tx.Model(&models.Vivienda{}).Where("id = ?", *cliente.ViviendaID).
				Update("cliente_id", nil).Error; err != nil {
				return apperr.UpstreamIO("no se pudo liberar la vivienda", err)
			}
		}
		if err := tx.Where("cliente_id = ?", cliente.ID).Delete(&models.PasoProceso{}).Error; err != nil {
			return apperr.UpstreamIO("no se pudieron eliminar los pasos", err)
		}
		if err := tx.Unscoped().Delete(&cliente).Error; err != nil {
			return apperr.UpstreamIO("no se pudo eliminar el cliente", err)
		}
		return registrarEvento(tx, ev)
	})
	if err != nil {
		respondError(c, err)
		return
	}
	GlobalHub.Notificar(ev)
	c.JSON(http.StatusOK, gin.H{"message": "Cliente eliminado definitivamente"})
}

type transferenciaInput struct {
	ViviendaNuevaID uint                  `json:"viviendaNuevaId" binding:"required"`
	Motivo          string                `json:"motivo" binding:"required"`
	Plan            models.PlanFinanciero `json:"plan"`
}

// TransferirClienteHandler traslada un cliente a otra vivienda. Los abonos
// ya recaudados se sincronizan al plan nuevo: piso no editable de la cuota
// inicial.
func TransferirClienteHandler(c *gin.Context) {
	var input transferenciaInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var cliente models.Cliente
	if err := config.DB.Preload("Vivienda.Proyecto").Preload("Plan").
		First(&cliente, c.Param("id")).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "El cliente no existe"})
		return
	}

	var viviendaNueva models.Vivienda
	if err := config.DB.Preload("Proyecto").First(&viviendaNueva, input.ViviendaNuevaID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "La vivienda destino no existe"})
		return
	}
	if viviendaNueva.ClienteID != nil {
		respondError(c, apperr.Conflict("la vivienda %s ya está asignada", viviendaNueva.Ubicacion()))
		return
	}

	var abonosPrevios float64
	if err := config.DB.Model(&models.Abono{}).Where("cliente_id = ?", cliente.ID).
		Select("COALESCE(SUM(monto), 0)").Scan(&abonosPrevios).Error; err != nil {
		respondError(c, apperr.UpstreamIO("no se pudieron sumar los abonos previos", err))
		return
	}

	planNuevo := financiero.NormalizarPlan(input.Plan, abonosPrevios)

	viviendaAnterior := ""
	var planAnterior models.JSONB
	if cliente.Vivienda != nil {
		viviendaAnterior = cliente.Vivienda.Ubicacion()
	}
	if cliente.Plan != nil {
		planAnterior = planAJSON(*cliente.Plan)
	}

	ev := nuevoEvento(c, models.AccionTransferClient, contextoDe(cliente), models.JSONB{
		"viviendaAnterior":    viviendaAnterior,
		"viviendaNueva":       viviendaNueva.Ubicacion(),
		"planAnterior":        map[string]interface{}(planAnterior),
		"planNuevo":           map[string]interface{}(planAJSON(planNuevo)),
		"motivo":              input.Motivo,
		"abonosSincronizados": abonosPrevios > 0,
	})

	err := config.DB.Transaction(func(tx *gorm.DB) error {
		if cliente.ViviendaID != nil {
			if err := tx.Model(&models.Vivienda{}).Where("id = ?", *cliente.ViviendaID).
				Update("cliente_id", nil).Error; err != nil {
				return apperr.UpstreamIO("no se pudo liberar la vivienda anterior", err)
			}
		}
		if err := tx.Model(&models.Vivienda{}).Where("id = ?", viviendaNueva.ID).
			Update("cliente_id", cliente.ID).Error; err != nil {
			return apperr.UpstreamIO("no se pudo asignar la vivienda nueva", err)
		}
		if err := tx.Model(&cliente).Update("vivienda_id", viviendaNueva.ID).Error; err != nil {
			return apperr.UpstreamIO("no se pudo actualizar el cliente", err)
		}
		planNuevo.ClienteID = cliente.ID
		if cliente.Plan != nil {
			planNuevo.ID = cliente.Plan.ID
			if err := tx.Save(&planNuevo).Error; err != nil {
				return apperr.UpstreamIO("no se pudo actualizar el plan financiero", err)
			}
		} else if err := tx.Create(&planNuevo).Error; err != nil {
			return apperr.UpstreamIO("no se pudo crear el plan financiero", err)
		}
		return registrarEvento(tx, ev)
	})
	if err != nil {
		respondError(c, err)
		return
	}
	GlobalHub.Notificar(ev)

	c.JSON(http.StatusOK, gin.H{"success": true, "evento": ev})
}

// planAJSON aplana el plan para los payloads de auditoría.
func planAJSON(plan models.PlanFinanciero) models.JSONB {
	return models.JSONB{
		"cuotaInicial":     models.JSONB{"aplica": plan.CuotaInicialAplica, "monto": plan.CuotaInicialMonto},
		"credito":          models.JSONB{"aplica": plan.CreditoAplica, "monto": plan.CreditoMonto, "banco": plan.CreditoBanco, "caso": plan.CreditoCaso},
		"subsidioVivienda": models.JSONB{"aplica": plan.SubsidioViviendaAplica, "monto": plan.SubsidioViviendaMonto},
		"subsidioCaja":     models.JSONB{"aplica": plan.SubsidioCajaAplica, "monto": plan.SubsidioCajaMonto, "caja": plan.SubsidioCajaNombre},
	}
}
