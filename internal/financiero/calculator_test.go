package financiero

import (
	"testing"

	"github.com/NRodriguezT98/ryr-app-sub002/internal/apperr"
	"github.com/NRodriguezT98/ryr-app-sub002/models"
)

func componentesBase() ComponentesPrecio {
	return ComponentesPrecio{
		ValorBase:        100_000_000,
		GastosNotariales: 5_000_000,
	}
}

func TestConciliacion(t *testing.T) {
	casos := []struct {
		nombre     string
		plan       models.PlanFinanciero
		diferencia float64
		cerrable   bool
	}{
		{
			nombre: "cuadre exacto",
			plan: models.PlanFinanciero{
				CuotaInicialAplica: true, CuotaInicialMonto: 20_000_000,
				CreditoAplica: true, CreditoMonto: 85_000_000,
			},
			diferencia: 0,
			cerrable:   true,
		},
		{
			nombre: "faltan recursos",
			plan: models.PlanFinanciero{
				CreditoAplica: true, CreditoMonto: 80_000_000,
			},
			diferencia: 25_000_000,
			cerrable:   false,
		},
		{
			nombre: "sobrefinanciado también bloquea",
			plan: models.PlanFinanciero{
				CuotaInicialAplica: true, CuotaInicialMonto: 30_000_000,
				CreditoAplica: true, CreditoMonto: 85_000_000,
			},
			diferencia: -10_000_000,
			cerrable:   false,
		},
		{
			nombre: "fuente deshabilitada no suma",
			plan: models.PlanFinanciero{
				CuotaInicialAplica: true, CuotaInicialMonto: 20_000_000,
				CreditoAplica: false, CreditoMonto: 85_000_000,
			},
			diferencia: 85_000_000,
			cerrable:   false,
		},
	}

	for _, c := range casos {
		t.Run(c.nombre, func(t *testing.T) {
			tot, err := ComputeTotals(componentesBase(), c.plan, 0)
			if err != nil {
				t.Fatalf("ComputeTotals: %v", err)
			}
			if tot.TotalAPagar != 105_000_000 {
				t.Errorf("TotalAPagar = %v, se esperaba 105000000", tot.TotalAPagar)
			}
			if tot.Diferencia != c.diferencia {
				t.Errorf("Diferencia = %v, se esperaba %v", tot.Diferencia, c.diferencia)
			}
			if tot.Cerrable != c.cerrable {
				t.Errorf("Cerrable = %v, se esperaba %v", tot.Cerrable, c.cerrable)
			}
		})
	}
}

func TestRecargoEsquinera(t *testing.T) {
	c := componentesBase()
	c.EsEsquinera = true
	c.RecargoEsquinera = 3_000_000

	total, err := c.TotalAPagar()
	if err != nil {
		t.Fatalf("TotalAPagar: %v", err)
	}
	if total != 108_000_000 {
		t.Errorf("total = %v, se esperaba 108000000", total)
	}

	// Una vivienda no esquinera ignora el recargo aunque esté configurado.
	c.EsEsquinera = false
	total, err = c.TotalAPagar()
	if err != nil {
		t.Fatalf("TotalAPagar: %v", err)
	}
	if total != 105_000_000 {
		t.Errorf("total = %v, se esperaba 105000000", total)
	}
}

func TestFormulaRecargo(t *testing.T) {
	c := componentesBase()
	c.EsEsquinera = true
	c.RecargoEsquinera = 3_000_000
	c.FormulaRecargo = "valorBase * 0.05"

	total, err := c.TotalAPagar()
	if err != nil {
		t.Fatalf("TotalAPagar: %v", err)
	}
	// La fórmula reemplaza al recargo fijo: 100M + 5M + 5M notariales.
	if total != 110_000_000 {
		t.Errorf("total = %v, se esperaba 110000000", total)
	}

	c.FormulaRecargo = "valorBase *"
	if _, err := c.TotalAPagar(); !apperr.IsKind(err, apperr.KindValidation) {
		t.Fatalf("se esperaba VALIDATION por fórmula rota, fue %v", err)
	}
}

func TestAbonosPreviosComoPiso(t *testing.T) {
	plan := models.PlanFinanciero{
		CuotaInicialAplica: true, CuotaInicialMonto: 10_000_000,
		CreditoAplica: true, CreditoMonto: 85_000_000,
	}

	// Los abonos previos elevan la cuota inicial hasta lo ya pagado; no se
	// suman como fuente aparte.
	tot, err := ComputeTotals(componentesBase(), plan, 20_000_000)
	if err != nil {
		t.Fatalf("ComputeTotals: %v", err)
	}
	if tot.TotalRecursos != 105_000_000 {
		t.Errorf("TotalRecursos = %v, se esperaba 105000000", tot.TotalRecursos)
	}
	if !tot.Cerrable {
		t.Error("con el piso aplicado el plan debía conciliar")
	}

	// Si la cuota ya supera lo abonado, el piso no la reduce.
	plan.CuotaInicialMonto = 30_000_000
	norm := NormalizarPlan(plan, 20_000_000)
	if norm.CuotaInicialMonto != 30_000_000 {
		t.Errorf("CuotaInicialMonto = %v, el piso no debe reducir el monto", norm.CuotaInicialMonto)
	}

	// El piso fuerza la cuota inicial a aplicar.
	plan.CuotaInicialAplica = false
	norm = NormalizarPlan(plan, 20_000_000)
	if !norm.CuotaInicialAplica {
		t.Error("con abonos previos la cuota inicial debe aplicar")
	}
}

func TestMontoDeFuente(t *testing.T) {
	plan := models.PlanFinanciero{
		CuotaInicialAplica: true, CuotaInicialMonto: 20_000_000,
		SubsidioCajaAplica: false, SubsidioCajaMonto: 10_000_000,
	}

	monto, err := MontoDeFuente(plan, models.FuenteCuotaInicial)
	if err != nil {
		t.Fatalf("MontoDeFuente: %v", err)
	}
	if monto != 20_000_000 {
		t.Errorf("monto = %v", monto)
	}

	if _, err := MontoDeFuente(plan, models.FuenteSubsidioCaja); !apperr.IsKind(err, apperr.KindConflict) {
		t.Fatalf("una fuente deshabilitada debe dar CONFLICT, fue %v", err)
	}
	if _, err := MontoDeFuente(plan, "loteria"); !apperr.IsKind(err, apperr.KindNotFound) {
		t.Fatalf("una fuente desconocida debe dar NOT_FOUND, fue %v", err)
	}
}
