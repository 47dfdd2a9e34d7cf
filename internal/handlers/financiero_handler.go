package handlers

import (
	"net/http"

	"github.com/NRodriguezT98/ryr-app-sub002/config"
	"github.com/NRodriguezT98/ryr-app-sub002/internal/apperr"
	"github.com/NRodriguezT98/ryr-app-sub002/internal/financiero"
	"github.com/NRodriguezT98/ryr-app-sub002/models"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// abonosPreviosDe suma los pagos vigentes del cliente. Entra al cálculo como
// piso de la cuota inicial, no como fuente aparte.
func abonosPreviosDe(tx *gorm.DB, clienteID uint) float64 {
	var total float64
	tx.Model(&models.Abono{}).
		Where("cliente_id = ?", clienteID).
		Select("COALESCE(SUM(monto), 0)").Scan(&total)
	return total
}

func totalesDe(cliente models.Cliente) (financiero.Totales, error) {
	if cliente.Vivienda == nil {
		return financiero.Totales{}, apperr.Conflict("el cliente no tiene vivienda asignada")
	}
	plan := models.PlanFinanciero{}
	if cliente.Plan != nil {
		plan = *cliente.Plan
	}
	proyecto := models.Proyecto{}
	if cliente.Vivienda.Proyecto != nil {
		proyecto = *cliente.Vivienda.Proyecto
	}
	componentes := financiero.ComponentesDe(*cliente.Vivienda, proyecto)
	return financiero.ComputeTotals(componentes, plan, abonosPreviosDe(config.DB, cliente.ID))
}

// GetPlanFinancieroHandler devuelve el plan del cliente junto con la
// conciliación vigente.
func GetPlanFinancieroHandler(c *gin.Context) {
	cliente, err := cargarClienteConPlan(config.DB, paramID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	totales, err := totalesDe(cliente)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"plan":    cliente.Plan,
		"totales": totales,
	})
}

// UpdatePlanFinancieroHandler reemplaza las fuentes del plan y audita el
// cambio como una actualización del cliente. La conciliación resultante se
// devuelve siempre; un plan descuadrado se guarda igual, solo que no permite
// cerrar el proceso.
func UpdatePlanFinancieroHandler(c *gin.Context) {
	cliente, err := cargarClienteConPlan(config.DB, paramID(c))
	if err != nil {
		respondError(c, err)
		return
	}

	var input models.PlanFinanciero
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	anterior := models.PlanFinanciero{}
	if cliente.Plan != nil {
		anterior = *cliente.Plan
	}
	input.ID = anterior.ID
	input.ClienteID = cliente.ID
	input = financiero.NormalizarPlan(input, abonosPreviosDe(config.DB, cliente.ID))

	cambios := cambiosDePlan(anterior, input)
	ev := nuevoEvento(c, models.AccionUpdateClient, contextoDe(cliente), models.JSONB{
		"cambios": cambios,
	})
	err = config.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Save(&input).Error; err != nil {
			return apperr.UpstreamIO("no se pudo guardar el plan financiero", err)
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

	cliente.Plan = &input
	totales, err := totalesDe(cliente)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"plan":    input,
		"totales": totales,
	})
}

// GetTotalesHandler expone solo la conciliación, para refrescar el resumen
// sin recargar el plan completo.
func GetTotalesHandler(c *gin.Context) {
	cliente, err := cargarClienteConPlan(config.DB, paramID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	totales, err := totalesDe(cliente)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, totales)
}

func cambiosDePlan(antes, despues models.PlanFinanciero) []interface{} {
	cambios := []interface{}{}
	agregar := func(campo string, anterior, actual interface{}) {
		if anterior == actual {
			return
		}
		cambios = append(cambios, map[string]interface{}{
			"campo": campo, "anterior": anterior, "actual": actual,
		})
	}
	agregar("cuotaInicialAplica", antes.CuotaInicialAplica, despues.CuotaInicialAplica)
	agregar("cuotaInicialMonto", antes.CuotaInicialMonto, despues.CuotaInicialMonto)
	agregar("creditoAplica", antes.CreditoAplica, despues.CreditoAplica)
	agregar("creditoMonto", antes.CreditoMonto, despues.CreditoMonto)
	agregar("creditoBanco", antes.CreditoBanco, despues.CreditoBanco)
	agregar("creditoCaso", antes.CreditoCaso, despues.CreditoCaso)
	agregar("subsidioViviendaAplica", antes.SubsidioViviendaAplica, despues.SubsidioViviendaAplica)
	agregar("subsidioViviendaMonto", antes.SubsidioViviendaMonto, despues.SubsidioViviendaMonto)
	agregar("subsidioCajaAplica", antes.SubsidioCajaAplica, despues.SubsidioCajaAplica)
	agregar("subsidioCajaMonto", antes.SubsidioCajaMonto, despues.SubsidioCajaMonto)
	agregar("subsidioCajaNombre", antes.SubsidioCajaNombre, despues.SubsidioCajaNombre)
	return cambios
}
