package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/NRodriguezT98/ryr-app-sub002/config"
	"github.com/NRodriguezT98/ryr-app-sub002/internal/apperr"
	"github.com/NRodriguezT98/ryr-app-sub002/internal/financiero"
	"github.com/NRodriguezT98/ryr-app-sub002/internal/proceso"
	"github.com/NRodriguezT98/ryr-app-sub002/models"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type AbonoInput struct {
	ClienteID      uint    `json:"clienteId" binding:"required"`
	FuenteRecurso  string  `json:"fuenteRecurso" binding:"required"`
	Monto          float64 `json:"monto" binding:"required"`
	FechaPago      string  `json:"fechaPago" binding:"required"`
	MetodoPago     string  `json:"metodoPago"`
	Observacion    string  `json:"observacion"`
	ComprobanteURL string  `json:"comprobanteUrl"`
}

// AbonoResponse agrega los datos del cliente para las tablas de cartera.
type AbonoResponse struct {
	ID             uint    `json:"ID"`
	ClienteID      uint    `json:"ClienteID"`
	ClienteNombre  string  `json:"ClienteNombre"`
	Ubicacion      string  `json:"Ubicacion"`
	FuenteRecurso  string  `json:"FuenteRecurso"`
	Monto          float64 `json:"Monto"`
	FechaPago      string  `json:"FechaPago"`
	MetodoPago     string  `json:"MetodoPago"`
	EsDesembolso   bool    `json:"EsDesembolso"`
	ComprobanteURL string  `json:"ComprobanteURL"`
}

const consultaAbonos = `
	a.id AS "ID",
	a.cliente_id AS "ClienteID",
	(cl.nombres || ' ' || cl.apellidos) AS "ClienteNombre",
	('Mz. ' || v.manzana || ' Casa ' || v.numero_casa) AS "Ubicacion",
	a.fuente_recurso AS "FuenteRecurso",
	a.monto AS "Monto",
	to_char(a.fecha_pago, 'YYYY-MM-DD') AS "FechaPago",
	a.metodo_pago AS "MetodoPago",
	a.es_desembolso AS "EsDesembolso",
	a.comprobante_url AS "ComprobanteURL"
`

// ListAbonosHandler lista los abonos vigentes con paginación y búsqueda.
func ListAbonosHandler(c *gin.Context) {
	var resultados []AbonoResponse
	var totalRows int64

	base := config.DB.Table("abonos a").
		Joins("LEFT JOIN clientes cl ON a.cliente_id = cl.id").
		Joins("LEFT JOIN viviendas v ON a.vivienda_id = v.id").
		Where("a.deleted_at IS NULL")

	if search := c.Query("search"); search != "" {
		patron := "%" + strings.ToLower(search) + "%"
		base = base.Where(
			"LOWER(cl.cedula) LIKE ? OR LOWER(cl.nombres) LIKE ? OR LOWER(cl.apellidos) LIKE ?",
			patron, patron, patron)
	}
	if clienteID := c.Query("clienteId"); clienteID != "" {
		base = base.Where("a.cliente_id = ?", clienteID)
	}

	base.Count(&totalRows)
	if err := base.Select(consultaAbonos).
		Scopes(Paginate(c)).
		Order("a.fecha_pago DESC").
		Scan(&resultados).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "No se pudieron listar los abonos"})
		return
	}

	c.JSON(http.StatusOK, CreatePaginatedResponse(c, resultados, totalRows))
}

func cargarClienteConPlan(tx *gorm.DB, id uint) (models.Cliente, error) {
	var cliente models.Cliente
	if err := tx.Preload("Vivienda.Proyecto").Preload("Plan").First(&cliente, id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return cliente, apperr.NotFound("el cliente no existe")
		}
		return cliente, apperr.UpstreamIO("no se pudo cargar el cliente", err)
	}
	if cliente.ViviendaID == nil {
		return cliente, apperr.Conflict("el cliente no tiene vivienda asignada")
	}
	return cliente, nil
}

// RegistrarAbonoHandler registra un pago manual a una fuente del plan.
func RegistrarAbonoHandler(c *gin.Context) {
	var input AbonoInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	registrarPago(c, input, false)
}

// RegistrarDesembolsoHandler registra el desembolso de una entidad (crédito
// o subsidio) y completa automáticamente el paso del proceso asociado. Es la
// única vía por la que se completan los pasos automáticos.
func RegistrarDesembolsoHandler(c *gin.Context) {
	var input AbonoInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if input.FuenteRecurso == models.FuenteCuotaInicial {
		respondError(c, apperr.Validation("la cuota inicial no se registra como desembolso"))
		return
	}
	registrarPago(c, input, true)
}

var pasoPorFuente = map[string]string{
	models.FuenteCredito:          proceso.PasoDesembolsoCred,
	models.FuenteSubsidioVivienda: proceso.PasoDesembolsoMCY,
	models.FuenteSubsidioCaja:     proceso.PasoDesembolsoCaja,
}

func registrarPago(c *gin.Context, input AbonoInput, esDesembolso bool) {
	if input.Monto <= 0 {
		respondError(c, apperr.Validation("el monto debe ser mayor que cero"))
		return
	}
	fechaPago, err := parseFecha(input.FechaPago)
	if err != nil {
		respondError(c, err)
		return
	}

	cliente, err := cargarClienteConPlan(config.DB, input.ClienteID)
	if err != nil {
		respondError(c, err)
		return
	}
	plan := models.PlanFinanciero{}
	if cliente.Plan != nil {
		plan = *cliente.Plan
	}
	if _, err := financiero.MontoDeFuente(plan, input.FuenteRecurso); err != nil {
		respondError(c, err)
		return
	}

	abono := models.Abono{
		ClienteID:      cliente.ID,
		ViviendaID:     *cliente.ViviendaID,
		FuenteRecurso:  input.FuenteRecurso,
		Monto:          input.Monto,
		FechaPago:      fechaPago,
		MetodoPago:     input.MetodoPago,
		Observacion:    input.Observacion,
		ComprobanteURL: input.ComprobanteURL,
		EsDesembolso:   esDesembolso,
	}

	accion := models.AccionRegisterAbono
	if esDesembolso {
		accion = models.AccionRegisterDisbursement
	}
	evAbono := nuevoEvento(c, accion, contextoDe(cliente), models.JSONB{
		"fuenteRecurso": input.FuenteRecurso,
		"monto":         input.Monto,
		"fechaPago":     fechaPago.Format("2006-01-02"),
		"metodoPago":    input.MetodoPago,
	})

	var eventos []models.AuditEvent
	err = config.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&abono).Error; err != nil {
			return apperr.UpstreamIO("no se pudo registrar el abono", err)
		}
		if err := registrarEvento(tx, evAbono); err != nil {
			return err
		}
		eventos = append(eventos, evAbono)

		if !esDesembolso {
			return nil
		}
		pasoKey, ok := pasoPorFuente[input.FuenteRecurso]
		if !ok {
			return nil
		}
		// El desembolso completa el paso automático del proceso.
		_, est, err := cargarEstadoProceso(tx, itoaID(cliente.ID))
		if err != nil {
			return err
		}
		// Un segundo tramo de la misma fuente no vuelve a completar el paso;
		// se registra el abono y el proceso queda como está.
		if pasoYaCompletado(est, pasoKey) {
			return nil
		}
		nuevo, res, err := engine.CompletarPasoAutomatico(est, pasoKey, fechaPago)
		if err != nil {
			return err
		}
		if err := persistirProceso(tx, cliente, est, nuevo); err != nil {
			return err
		}
		evPaso := nuevoEvento(c, res.ActionType, contextoDe(cliente), res.ActionData)
		if err := registrarEvento(tx, evPaso); err != nil {
			return err
		}
		eventos = append(eventos, evPaso)
		return nil
	})
	if err != nil {
		respondError(c, err)
		return
	}
	for _, ev := range eventos {
		GlobalHub.Notificar(ev)
	}

	c.JSON(http.StatusCreated, abono)
}

type abonoUpdateInput struct {
	Monto       float64 `json:"monto"`
	FechaPago   string  `json:"fechaPago"`
	MetodoPago  string  `json:"metodoPago"`
	Observacion string  `json:"observacion"`
}

// UpdateAbonoHandler corrige un abono vigente y audita el delta campo por
// campo.
func UpdateAbonoHandler(c *gin.Context) {
	var abono models.Abono
	if err := config.DB.First(&abono, c.Param("id")).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "El abono no existe"})
		return
	}

	var input abonoUpdateInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	cliente, err := cargarClienteConPlan(config.DB, abono.ClienteID)
	if err != nil {
		respondError(c, err)
		return
	}

	cambios := []interface{}{}
	if input.Monto > 0 && input.Monto != abono.Monto {
		cambios = append(cambios, map[string]interface{}{
			"campo": "monto", "anterior": abono.Monto, "actual": input.Monto,
		})
		abono.Monto = input.Monto
	}
	if input.FechaPago != "" {
		fecha, err := parseFecha(input.FechaPago)
		if err != nil {
			respondError(c, err)
			return
		}
		if !fecha.Equal(abono.FechaPago) {
			cambios = append(cambios, map[string]interface{}{
				"campo":    "fechaPago",
				"anterior": abono.FechaPago.Format("2006-01-02"),
				"actual":   fecha.Format("2006-01-02"),
			})
			abono.FechaPago = fecha
		}
	}
	if input.MetodoPago != "" && input.MetodoPago != abono.MetodoPago {
		cambios = append(cambios, map[string]interface{}{
			"campo": "metodoPago", "anterior": abono.MetodoPago, "actual": input.MetodoPago,
		})
		abono.MetodoPago = input.MetodoPago
	}
	if input.Observacion != abono.Observacion {
		cambios = append(cambios, map[string]interface{}{
			"campo": "observacion", "anterior": abono.Observacion, "actual": input.Observacion,
		})
		abono.Observacion = input.Observacion
	}

	ev := nuevoEvento(c, models.AccionUpdateAbono, contextoDe(cliente), models.JSONB{
		"abonoId": abono.ID,
		"cambios": cambios,
	})
	err = config.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Save(&abono).Error; err != nil {
			return apperr.UpstreamIO("no se pudo actualizar el abono", err)
		}
		return registrarEvento(tx, ev)
	})
	if err != nil {
		respondError(c, err)
		return
	}
	GlobalHub.Notificar(ev)
	c.JSON(http.StatusOK, abono)
}

// AnularAbonoHandler archiva (borrado lógico) un abono registrado por error.
func AnularAbonoHandler(c *gin.Context) {
	var abono models.Abono
	if err := config.DB.First(&abono, c.Param("id")).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "El abono no existe"})
		return
	}

	cliente, err := cargarClienteConPlan(config.DB, abono.ClienteID)
	if err != nil {
		respondError(c, err)
		return
	}

	ev := nuevoEvento(c, models.AccionArchiveAbono, contextoDe(cliente), models.JSONB{
		"abonoId":       abono.ID,
		"monto":         abono.Monto,
		"fuenteRecurso": abono.FuenteRecurso,
	})
	err = config.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Delete(&abono).Error; err != nil {
			return apperr.UpstreamIO("no se pudo anular el abono", err)
		}
		return registrarEvento(tx, ev)
	})
	if err != nil {
		respondError(c, err)
		return
	}
	GlobalHub.Notificar(ev)
	c.JSON(http.StatusOK, gin.H{"message": "Abono anulado"})
}

func itoaID(id uint) string {
	return strconv.FormatUint(uint64(id), 10)
}

// pasoYaCompletado reporta si el paso del proceso ya figura completado.
func pasoYaCompletado(est proceso.Estado, key string) bool {
	for _, p := range est.Pasos {
		if p.PasoKey == key {
			return p.Completado
		}
	}
	return false
}
