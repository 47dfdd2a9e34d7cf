package handlers

import (
	"testing"

	"github.com/NRodriguezT98/ryr-app-sub002/internal/proceso"
	"github.com/NRodriguezT98/ryr-app-sub002/models"
)

func TestPasoPorFuente(t *testing.T) {
	casos := []struct {
		fuente string
		paso   string
	}{
		{models.FuenteCredito, proceso.PasoDesembolsoCred},
		{models.FuenteSubsidioVivienda, proceso.PasoDesembolsoMCY},
		{models.FuenteSubsidioCaja, proceso.PasoDesembolsoCaja},
	}
	for _, c := range casos {
		if pasoPorFuente[c.fuente] != c.paso {
			t.Errorf("pasoPorFuente[%s] = %s, se esperaba %s", c.fuente, pasoPorFuente[c.fuente], c.paso)
		}
	}
	if _, ok := pasoPorFuente[models.FuenteCuotaInicial]; ok {
		t.Error("la cuota inicial no tiene paso de desembolso asociado")
	}
}

// Un segundo tramo del mismo desembolso no debe volver a completar el paso ni
// tumbar el registro del pago.
func TestPasoYaCompletado(t *testing.T) {
	est := proceso.Estado{
		Pasos: []models.PasoProceso{
			{PasoKey: proceso.PasoDesembolsoCred, Completado: true},
			{PasoKey: proceso.PasoDesembolsoMCY, Completado: false},
		},
	}

	if !pasoYaCompletado(est, proceso.PasoDesembolsoCred) {
		t.Error("el paso completado debe reportarse como tal")
	}
	if pasoYaCompletado(est, proceso.PasoDesembolsoMCY) {
		t.Error("un paso pendiente no debe reportarse como completado")
	}
	if pasoYaCompletado(est, proceso.PasoDesembolsoCaja) {
		t.Error("un paso sin registro no debe reportarse como completado")
	}
}
