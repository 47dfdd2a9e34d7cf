package handlers

import (
	"net/http"
	"reflect"
	"time"

	"github.com/NRodriguezT98/ryr-app-sub002/config"
	"github.com/NRodriguezT98/ryr-app-sub002/internal/apperr"
	"github.com/NRodriguezT98/ryr-app-sub002/internal/financiero"
	"github.com/NRodriguezT98/ryr-app-sub002/internal/proceso"
	"github.com/NRodriguezT98/ryr-app-sub002/models"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

var engine = proceso.NewEngine()

// cargarEstadoProceso arma el Estado completo del proceso de un cliente:
// pasos persistidos, plantilla según su plan financiero y saldo pendiente.
// Lee a través del db recibido para que las cargas dentro de una transacción
// vean las filas que esa misma transacción escribió.
func cargarEstadoProceso(db *gorm.DB, clienteID string) (models.Cliente, proceso.Estado, error) {
	var cliente models.Cliente
	err := db.
		Preload("Vivienda.Proyecto").
		Preload("Plan").
		Preload("Pasos").
		First(&cliente, clienteID).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return cliente, proceso.Estado{}, apperr.NotFound("el cliente no existe")
		}
		return cliente, proceso.Estado{}, apperr.UpstreamIO("no se pudo cargar el cliente", err)
	}

	plan := models.PlanFinanciero{}
	if cliente.Plan != nil {
		plan = *cliente.Plan
	}

	est := proceso.Estado{
		Plantilla:         proceso.PlantillaParaPlan(plan),
		Pasos:             cliente.Pasos,
		ReaperturaPasoKey: cliente.ReaperturaPasoKey,
	}
	if cliente.FechaIngreso != nil {
		est.FechaInicio = *cliente.FechaIngreso
	}

	if cliente.Vivienda != nil && cliente.Vivienda.Proyecto != nil {
		saldo, err := saldoPendiente(db, cliente, *cliente.Vivienda, *cliente.Vivienda.Proyecto, plan)
		if err != nil {
			return cliente, proceso.Estado{}, err
		}
		est.SaldoPendiente = saldo
	}
	return cliente, est, nil
}

// saldoPendiente = total a pagar menos abonos vigentes.
func saldoPendiente(db *gorm.DB, cliente models.Cliente, vivienda models.Vivienda, proyecto models.Proyecto, plan models.PlanFinanciero) (float64, error) {
	totales, err := financiero.ComputeTotals(financiero.ComponentesDe(vivienda, proyecto), plan, 0)
	if err != nil {
		return 0, err
	}
	var abonado float64
	if err := db.Model(&models.Abono{}).
		Where("cliente_id = ?", cliente.ID).
		Select("COALESCE(SUM(monto), 0)").Scan(&abonado).Error; err != nil {
		return 0, apperr.UpstreamIO("no se pudieron sumar los abonos", err)
	}
	return totales.TotalAPagar - abonado, nil
}

// persistirProceso guarda los pasos que cambiaron y el puntero de reapertura
// dentro de la transacción. Todo-o-nada: un fallo revierte la operación
// completa, incluido el evento de auditoría.
func persistirProceso(tx *gorm.DB, cliente models.Cliente, antes, despues proceso.Estado) error {
	for _, paso := range despues.Pasos {
		previo, existia := pasoEn(antes.Pasos, paso.PasoKey)
		if existia && reflect.DeepEqual(previo, paso) {
			continue
		}
		paso.ClienteID = cliente.ID
		if paso.ID == 0 {
			if err := tx.Create(&paso).Error; err != nil {
				return apperr.UpstreamIO("no se pudo guardar el paso", err)
			}
			continue
		}
		if err := tx.Save(&paso).Error; err != nil {
			return apperr.UpstreamIO("no se pudo guardar el paso", err)
		}
	}

	if !punterosIguales(antes.ReaperturaPasoKey, despues.ReaperturaPasoKey) {
		if err := tx.Model(&models.Cliente{}).Where("id = ?", cliente.ID).
			Update("reapertura_paso_key", despues.ReaperturaPasoKey).Error; err != nil {
			return apperr.UpstreamIO("no se pudo actualizar la reapertura", err)
		}
	}
	return nil
}

func pasoEn(pasos []models.PasoProceso, key string) (models.PasoProceso, bool) {
	for _, p := range pasos {
		if p.PasoKey == key {
			return p, true
		}
	}
	return models.PasoProceso{}, false
}

func punterosIguales(a, b *string) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

// pasoDerivadoJSON es la vista que consume la interfaz por cada paso.
type pasoDerivadoJSON struct {
	Key                 string                 `json:"key"`
	Label               string                 `json:"label"`
	Orden               int                    `json:"orden"`
	Completado          bool                   `json:"completado"`
	FechaCompletado     *string                `json:"fechaCompletado,omitempty"`
	EsHito              bool                   `json:"esHito"`
	EsAutomatico        bool                   `json:"esAutomatico"`
	Bloqueado           bool                   `json:"bloqueado"`
	BloqueadoPermanente bool                   `json:"bloqueadoPermanente"`
	EsSiguientePaso     bool                   `json:"esSiguientePaso"`
	PuedeCompletarse    bool                   `json:"puedeCompletarse"`
	EvidenciasSubidas   int                    `json:"evidenciasSubidas"`
	TotalEvidencias     int                    `json:"totalEvidencias"`
	MinFecha            string                 `json:"minFecha,omitempty"`
	MaxFecha            string                 `json:"maxFecha,omitempty"`
	Evidencias          map[string]interface{} `json:"evidencias"`
}

func aPasoJSON(d proceso.PasoDerivado) pasoDerivadoJSON {
	out := pasoDerivadoJSON{
		Key:                 d.Def.Key,
		Label:               d.Def.Label,
		Orden:               d.Def.Orden,
		Completado:          d.Paso.Completado,
		EsHito:              d.Def.EsHito,
		EsAutomatico:        d.Def.EsAutomatico,
		Bloqueado:           d.Bloqueado,
		BloqueadoPermanente: d.BloqueadoPermanente,
		EsSiguientePaso:     d.EsSiguientePaso,
		PuedeCompletarse:    d.PuedeCompletarse,
		EvidenciasSubidas:   d.EvidenciasSubidas,
		TotalEvidencias:     d.TotalEvidencias,
		Evidencias:          map[string]interface{}{},
	}
	if d.Paso.FechaCompletado != nil {
		f := d.Paso.FechaCompletado.Format("2006-01-02")
		out.FechaCompletado = &f
	}
	if !d.MinFecha.IsZero() {
		out.MinFecha = d.MinFecha.Format("2006-01-02")
	}
	if !d.MaxFecha.IsZero() {
		out.MaxFecha = d.MaxFecha.Format("2006-01-02")
	}
	for _, slot := range d.Def.Evidencias {
		entrada := map[string]interface{}{
			"label":     slot.Label,
			"requerida": slot.Requerida,
		}
		if ev, ok := d.Paso.Evidencias[slot.ID]; ok {
			entrada["id"] = ev.ID
			entrada["url"] = ev.URL
			entrada["fechaSubida"] = ev.FechaSubida
		}
		out.Evidencias[slot.ID] = entrada
	}
	return out
}

// GetProcesoHandler devuelve el estado derivado completo del proceso.
func GetProcesoHandler(c *gin.Context) {
	_, est, err := cargarEstadoProceso(config.DB, c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	derivados := engine.Derivar(est)
	pasos := make([]pasoDerivadoJSON, 0, len(derivados))
	for _, d := range derivados {
		pasos = append(pasos, aPasoJSON(d))
	}
	c.JSON(http.StatusOK, gin.H{
		"pasos":             pasos,
		"reaperturaPasoKey": est.ReaperturaPasoKey,
		"procesoCerrado":    est.ProcesoCerrado(),
	})
}

type completarPasoInput struct {
	Fecha string `json:"fecha" binding:"required"`
}

// CompletarPasoHandler completa (o cambia la fecha de) un paso del proceso.
func CompletarPasoHandler(c *gin.Context) {
	var input completarPasoInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	fecha, err := parseFecha(input.Fecha)
	if err != nil {
		respondError(c, err)
		return
	}

	mutarProceso(c, func(est proceso.Estado) (proceso.Estado, proceso.Resultado, error) {
		return engine.CompletarPaso(est, c.Param("paso"), fecha)
	})
}

// IniciarReaperturaHandler toma el candado exclusivo de reapertura.
func IniciarReaperturaHandler(c *gin.Context) {
	cliente, est, err := cargarEstadoProceso(config.DB, c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	nuevo, err := engine.IniciarReapertura(est, c.Param("paso"))
	if err != nil {
		respondError(c, err)
		return
	}
	if err := config.DB.Transaction(func(tx *gorm.DB) error {
		return persistirProceso(tx, cliente, est, nuevo)
	}); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"reaperturaPasoKey": nuevo.ReaperturaPasoKey})
}

// DeshacerReaperturaHandler cancela la reapertura sin dejar rastro.
func DeshacerReaperturaHandler(c *gin.Context) {
	cliente, est, err := cargarEstadoProceso(config.DB, c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	nuevo, err := engine.DeshacerReapertura(est, c.Param("paso"))
	if err != nil {
		respondError(c, err)
		return
	}
	if err := config.DB.Transaction(func(tx *gorm.DB) error {
		return persistirProceso(tx, cliente, est, nuevo)
	}); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"reaperturaPasoKey": nil})
}

type confirmarReaperturaInput struct {
	Fecha  string `json:"fecha" binding:"required"`
	Motivo string `json:"motivo" binding:"required"`
}

// ConfirmarReaperturaHandler compromete la reapertura con su justificación.
func ConfirmarReaperturaHandler(c *gin.Context) {
	var input confirmarReaperturaInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	fecha, err := parseFecha(input.Fecha)
	if err != nil {
		respondError(c, err)
		return
	}

	mutarProceso(c, func(est proceso.Estado) (proceso.Estado, proceso.Resultado, error) {
		return engine.ConfirmarReapertura(est, c.Param("paso"), fecha, input.Motivo)
	})
}

type evidenciaInput struct {
	// URL nula o vacía elimina la evidencia del slot.
	URL *string `json:"url"`
}

// UpdateEvidenciaHandler agrega, reemplaza o elimina la evidencia de un slot.
func UpdateEvidenciaHandler(c *gin.Context) {
	var input evidenciaInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var nueva *models.EvidenciaSubida
	if input.URL != nil && *input.URL != "" {
		nueva = &models.EvidenciaSubida{
			ID:          uuid.New().String(),
			URL:         *input.URL,
			FechaSubida: time.Now(),
		}
	}

	mutarProceso(c, func(est proceso.Estado) (proceso.Estado, proceso.Resultado, error) {
		return engine.UpdateEvidencia(est, c.Param("paso"), c.Param("slot"), nueva)
	})
}

type anularCierreInput struct {
	Motivo string `json:"motivo" binding:"required"`
}

// AnularCierreHandler revierte el cierre del proceso completo.
func AnularCierreHandler(c *gin.Context) {
	var input anularCierreInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	mutarProceso(c, func(est proceso.Estado) (proceso.Estado, proceso.Resultado, error) {
		return engine.AnularCierre(est, input.Motivo)
	})
}

// mutarProceso concentra el ciclo común: cargar estado, aplicar el comando
// puro, persistir el delta y anexar el evento de auditoría, todo dentro de
// una transacción. Ante error no se muta nada y la razón llega intacta.
func mutarProceso(c *gin.Context, comando func(proceso.Estado) (proceso.Estado, proceso.Resultado, error)) {
	cliente, est, err := cargarEstadoProceso(config.DB, c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	nuevo, res, err := comando(est)
	if err != nil {
		respondError(c, err)
		return
	}

	ev := nuevoEvento(c, res.ActionType, contextoDe(cliente), res.ActionData)
	if err := config.DB.Transaction(func(tx *gorm.DB) error {
		if err := persistirProceso(tx, cliente, est, nuevo); err != nil {
			return err
		}
		return registrarEvento(tx, ev)
	}); err != nil {
		respondError(c, err)
		return
	}
	GlobalHub.Notificar(ev)

	c.JSON(http.StatusOK, gin.H{"success": true, "evento": ev})
}
