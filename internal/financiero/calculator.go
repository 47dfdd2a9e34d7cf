// Paquete financiero calcula la conciliación del plan financiero de un
// cliente: las fuentes habilitadas deben sumar exactamente el valor total de
// la vivienda. Cálculo puro, sin efectos; se recomputa en cada cambio.
package financiero

import (
	"github.com/Knetic/govaluate"
	"github.com/NRodriguezT98/ryr-app-sub002/internal/apperr"
	"github.com/NRodriguezT98/ryr-app-sub002/models"
)

// ComponentesPrecio son las piezas del valor total a pagar.
type ComponentesPrecio struct {
	ValorBase        float64
	EsEsquinera      bool
	RecargoEsquinera float64
	// FormulaRecargo, si no está vacía, reemplaza a RecargoEsquinera: se
	// evalúa con la variable valorBase (p.ej. "valorBase * 0.03").
	FormulaRecargo   string
	GastosNotariales float64
}

// Totales es el veredicto de la conciliación. Solo Diferencia == 0 permite
// cerrar el proceso: el sobrefinanciamiento (Diferencia negativa) bloquea
// igual que el déficit.
type Totales struct {
	TotalAPagar   float64 `json:"totalAPagar"`
	TotalRecursos float64 `json:"totalRecursos"`
	Diferencia    float64 `json:"diferencia"`
	Cerrable      bool    `json:"cerrable"`
}

// ComponentesDe arma los componentes de precio desde la vivienda y su
// proyecto.
func ComponentesDe(v models.Vivienda, p models.Proyecto) ComponentesPrecio {
	return ComponentesPrecio{
		ValorBase:        v.ValorBase,
		EsEsquinera:      v.EsEsquinera,
		RecargoEsquinera: v.RecargoEsquinera,
		FormulaRecargo:   p.FormulaRecargo,
		GastosNotariales: p.GastosNotariales,
	}
}

func (c ComponentesPrecio) recargo() (float64, error) {
	if !c.EsEsquinera {
		return 0, nil
	}
	if c.FormulaRecargo == "" {
		return c.RecargoEsquinera, nil
	}
	expr, err := govaluate.NewEvaluableExpression(c.FormulaRecargo)
	if err != nil {
		return 0, apperr.Validation("fórmula de recargo inválida: %v", err)
	}
	resultado, err := expr.Evaluate(map[string]interface{}{"valorBase": c.ValorBase})
	if err != nil {
		return 0, apperr.Validation("no se pudo evaluar la fórmula de recargo: %v", err)
	}
	valor, ok := resultado.(float64)
	if !ok {
		return 0, apperr.Validation("la fórmula de recargo no produce un número")
	}
	return valor, nil
}

// TotalAPagar = valor base + recargo de esquinera (si aplica) + gastos
// notariales fijos.
func (c ComponentesPrecio) TotalAPagar() (float64, error) {
	recargo, err := c.recargo()
	if err != nil {
		return 0, err
	}
	return c.ValorBase + recargo + c.GastosNotariales, nil
}

// NormalizarPlan aplica la regla de los recursos ya recaudados: cuando el
// cliente trae abonos previos (traslado desde otra vivienda), la cuota
// inicial queda forzada a aplicar y su monto con piso en lo ya pagado.
func NormalizarPlan(plan models.PlanFinanciero, abonosPrevios float64) models.PlanFinanciero {
	if abonosPrevios <= 0 {
		return plan
	}
	plan.CuotaInicialAplica = true
	if plan.CuotaInicialMonto < abonosPrevios {
		plan.CuotaInicialMonto = abonosPrevios
	}
	return plan
}

// ComputeTotals concilia las fuentes habilitadas contra el precio objetivo.
// Diferencia con signo: positiva = faltan recursos, negativa = sobran.
func ComputeTotals(c ComponentesPrecio, plan models.PlanFinanciero, abonosPrevios float64) (Totales, error) {
	totalAPagar, err := c.TotalAPagar()
	if err != nil {
		return Totales{}, err
	}

	plan = NormalizarPlan(plan, abonosPrevios)

	recursos := 0.0
	if plan.CuotaInicialAplica {
		recursos += plan.CuotaInicialMonto
	}
	if plan.CreditoAplica {
		recursos += plan.CreditoMonto
	}
	if plan.SubsidioViviendaAplica {
		recursos += plan.SubsidioViviendaMonto
	}
	if plan.SubsidioCajaAplica {
		recursos += plan.SubsidioCajaMonto
	}

	diferencia := totalAPagar - recursos
	return Totales{
		TotalAPagar:   totalAPagar,
		TotalRecursos: recursos,
		Diferencia:    diferencia,
		Cerrable:      diferencia == 0,
	}, nil
}

// MontoDeFuente devuelve el monto habilitado de una fuente por su clave.
func MontoDeFuente(plan models.PlanFinanciero, fuente string) (float64, error) {
	switch fuente {
	case models.FuenteCuotaInicial:
		if plan.CuotaInicialAplica {
			return plan.CuotaInicialMonto, nil
		}
	case models.FuenteCredito:
		if plan.CreditoAplica {
			return plan.CreditoMonto, nil
		}
	case models.FuenteSubsidioVivienda:
		if plan.SubsidioViviendaAplica {
			return plan.SubsidioViviendaMonto, nil
		}
	case models.FuenteSubsidioCaja:
		if plan.SubsidioCajaAplica {
			return plan.SubsidioCajaMonto, nil
		}
	default:
		return 0, apperr.NotFound("la fuente de recursos '%s' no existe", fuente)
	}
	return 0, apperr.Conflict("la fuente '%s' no aplica en el plan del cliente", fuente)
}
