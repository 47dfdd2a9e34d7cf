package auditoria

import (
	"testing"

	"github.com/NRodriguezT98/ryr-app-sub002/models"
)

func TestExtraerCambiosDeUpdateClient(t *testing.T) {
	ev := eventoDe(models.AccionUpdateClient, models.JSONB{
		"cambios": []interface{}{
			map[string]interface{}{"campo": "telefono", "anterior": "1", "actual": "2"},
			map[string]interface{}{
				"campo": "urlCedula",
				"fileChange": map[string]interface{}{
					"tipo":        "reemplazado",
					"urlAnterior": "/u/v1.pdf",
					"urlNueva":    "/u/v2.pdf",
				},
			},
		},
	})

	cambios := ExtraerCambiosArchivo(ev)
	if len(cambios) != 1 {
		t.Fatalf("se esperaba 1 cambio de archivo, fueron %d", len(cambios))
	}
	c := cambios[0]
	if c.TipoCambio != CambioReemplazo {
		t.Errorf("TipoCambio = %q", c.TipoCambio)
	}
	if c.TipoDocumento != "Cédula (Archivo)" {
		t.Errorf("TipoDocumento = %q", c.TipoDocumento)
	}
	if c.URLAnterior != "/u/v1.pdf" || c.URLNueva != "/u/v2.pdf" {
		t.Errorf("ambas URLs deben conservarse: %+v", c)
	}
}

func TestExtraerCambiosDeEvidencia(t *testing.T) {
	ev := eventoDe(models.AccionChangeStepEvidence, models.JSONB{
		"paso":       "promesaFirmada",
		"pasoLabel":  "Promesa de Compraventa Firmada",
		"slot":       "promesaFirmada",
		"slotLabel":  "Promesa de compraventa firmada",
		"tipoCambio": "agregado",
		"urlNueva":   "/u/promesa.pdf",
	})

	cambios := ExtraerCambiosArchivo(ev)
	if len(cambios) != 1 {
		t.Fatalf("se esperaba 1 cambio, fueron %d", len(cambios))
	}
	if cambios[0].TipoCambio != CambioAdjunto {
		t.Errorf("TipoCambio = %q", cambios[0].TipoCambio)
	}
	if cambios[0].URLNueva != "/u/promesa.pdf" || cambios[0].URLAnterior != "" {
		t.Errorf("URLs = %+v", cambios[0])
	}
	if !TieneCambiosArchivo(ev) {
		t.Error("TieneCambiosArchivo debía reportar true")
	}
}

func TestEventoSinArchivos(t *testing.T) {
	ev := eventoDe(models.AccionRegisterAbono, models.JSONB{"monto": float64(1000)})
	if cambios := ExtraerCambiosArchivo(ev); cambios != nil {
		t.Fatalf("no debía haber cambios de archivo: %v", cambios)
	}
	if TieneCambiosArchivo(ev) {
		t.Error("TieneCambiosArchivo debía reportar false")
	}
}

func TestResumen(t *testing.T) {
	cambios := []CambioArchivo{
		{TipoCambio: CambioAdjunto},
		{TipoCambio: CambioAdjunto},
		{TipoCambio: CambioEliminado},
		{TipoCambio: CambioReemplazo},
	}
	r := Resumen(cambios)
	if r.Agregados != 2 || r.Eliminados != 1 || r.Reemplazados != 1 {
		t.Errorf("Resumen = %+v", r)
	}
}
