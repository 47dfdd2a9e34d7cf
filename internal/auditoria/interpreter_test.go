package auditoria

import (
	"strings"
	"testing"
	"time"

	"github.com/NRodriguezT98/ryr-app-sub002/models"
)

func eventoDe(accion string, data models.JSONB) models.AuditEvent {
	return models.AuditEvent{
		ID:         "ev-" + accion,
		Timestamp:  time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC),
		UserName:   "Laura",
		ActionType: &accion,
		Contexto: models.ContextoAuditoria{
			ClienteID:     7,
			ClienteNombre: "Carlos Pérez",
			Manzana:       "B",
			NumeroCasa:    12,
			Proyecto:      "Altos del Río",
		},
		ActionData: data,
	}
}

// Cada tipo de acción del conjunto cerrado produce un texto no vacío, incluso
// con el payload vacío. El intérprete jamás puede romper el timeline.
func TestCoberturaTotalDeAcciones(t *testing.T) {
	for _, accion := range models.TodasLasAcciones {
		t.Run(accion, func(t *testing.T) {
			d := Interpretar(eventoDe(accion, models.JSONB{}))
			if d.Texto == "" {
				t.Errorf("la acción %s produjo un texto vacío", accion)
			}
		})
	}
}

func TestAccionDesconocidaCaeAlGenerico(t *testing.T) {
	d := Interpretar(eventoDe("ACCION_INVENTADA", nil))
	if d.Texto != "Laura realizó la acción: ACCION_INVENTADA" {
		t.Errorf("texto = %q", d.Texto)
	}
}

func TestEventoLegadoMuestraMensajeCrudo(t *testing.T) {
	ev := models.AuditEvent{
		ID:       "legado-1",
		UserName: "Laura",
		Message:  "Laura agregó una nota al expediente",
		Details:  models.JSONB{"action": "ADD_NOTE", "scenario": "notas"},
	}
	d := Interpretar(ev)
	if d.Texto != "Laura agregó una nota al expediente" {
		t.Errorf("texto = %q", d.Texto)
	}
}

func TestUpdateClientTraduceEtiquetas(t *testing.T) {
	ev := eventoDe(models.AccionUpdateClient, models.JSONB{
		"cambios": []interface{}{
			map[string]interface{}{"campo": "telefono", "anterior": "3001112233", "actual": "3009998877"},
			map[string]interface{}{"campo": "status", "anterior": "activo", "actual": "archivado"},
		},
	})
	d := Interpretar(ev)
	if !strings.Contains(d.Texto, "Teléfono") {
		t.Errorf("falta la etiqueta traducida: %q", d.Texto)
	}
	if !strings.Contains(d.Texto, "3001112233") || !strings.Contains(d.Texto, "3009998877") {
		t.Errorf("faltan los valores anterior/actual: %q", d.Texto)
	}
	if strings.Contains(d.Texto, "status") || strings.Contains(d.Texto, "archivado") {
		t.Errorf("el campo interno status no debe mostrarse: %q", d.Texto)
	}
	if strings.Contains(d.Texto, "Archivos:") {
		t.Errorf("sin cambios de archivo no debe haber sección de archivos: %q", d.Texto)
	}
}

func TestUpdateClientSinCambiosRelevantes(t *testing.T) {
	ev := eventoDe(models.AccionUpdateClient, models.JSONB{
		"cambios": []interface{}{
			map[string]interface{}{"campo": "updatedAt", "anterior": "a", "actual": "b"},
		},
	})
	d := Interpretar(ev)
	if !strings.Contains(d.Texto, "(sin cambios relevantes)") {
		t.Errorf("texto = %q", d.Texto)
	}
}

func TestUpdateClientConCambioDeArchivo(t *testing.T) {
	ev := eventoDe(models.AccionUpdateClient, models.JSONB{
		"cambios": []interface{}{
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
	d := Interpretar(ev)
	if !strings.Contains(d.Texto, "Archivos:") {
		t.Errorf("falta la sección de archivos: %q", d.Texto)
	}
	if !strings.Contains(d.Texto, "queda supersedido") {
		t.Errorf("el reemplazo debe aclarar que el anterior queda supersedido: %q", d.Texto)
	}
}

func TestCompleteStepAutomatico(t *testing.T) {
	ev := eventoDe(models.AccionCompleteProcessStep, models.JSONB{
		"paso":       "desembolsoCredito",
		"pasoLabel":  "Desembolso del Crédito Hipotecario",
		"fecha":      "2024-05-01",
		"automatico": true,
	})
	d := Interpretar(ev)
	if !strings.Contains(d.Texto, "(automático por desembolso)") {
		t.Errorf("texto = %q", d.Texto)
	}
	if !strings.Contains(d.Texto, "01/05/2024") {
		t.Errorf("la fecha debe ir en formato de pantalla: %q", d.Texto)
	}
}

func TestTransferClientEstructurado(t *testing.T) {
	ev := eventoDe(models.AccionTransferClient, models.JSONB{
		"viviendaAnterior":    "Mz. B Casa 12",
		"viviendaNueva":       "Mz. C Casa 4",
		"motivo":              "cambio por inundación del lote",
		"abonosSincronizados": true,
	})
	d := Interpretar(ev)
	if d.Transferencia == nil {
		t.Fatal("el traslado debe producir el mensaje estructurado")
	}
	if d.Transferencia.ViviendaNueva != "Mz. C Casa 4" || !d.Transferencia.AbonosSincronizados {
		t.Errorf("mensaje estructurado incompleto: %+v", d.Transferencia)
	}
}

func TestClientRenounceEstructurado(t *testing.T) {
	ev := eventoDe(models.AccionClientRenounce, models.JSONB{
		"motivo":         "motivos personales",
		"totalAbonado":   float64(20_000_000),
		"penalidad":      float64(2_000_000),
		"montoADevolver": float64(18_000_000),
	})
	d := Interpretar(ev)
	if d.Renuncia == nil {
		t.Fatal("la renuncia debe producir el mensaje estructurado")
	}
	if d.Renuncia.TotalAbonado != "$20.000.000" {
		t.Errorf("TotalAbonado = %q", d.Renuncia.TotalAbonado)
	}
	if d.Renuncia.MontoADevolver != "$18.000.000" {
		t.Errorf("MontoADevolver = %q", d.Renuncia.MontoADevolver)
	}
}

func TestUpdateAbonoFormateaMonto(t *testing.T) {
	ev := eventoDe(models.AccionUpdateAbono, models.JSONB{
		"cambios": []interface{}{
			map[string]interface{}{"campo": "monto", "anterior": float64(1_000_000), "actual": float64(1_500_000)},
		},
	})
	d := Interpretar(ev)
	if !strings.Contains(d.Texto, "$1.000.000") || !strings.Contains(d.Texto, "$1.500.000") {
		t.Errorf("los montos deben ir en formato moneda: %q", d.Texto)
	}
}

func TestMoneda(t *testing.T) {
	casos := []struct {
		valor float64
		texto string
	}{
		{105_000_000, "$105.000.000"},
		{0, "$0"},
		{999, "$999"},
		{1_000, "$1.000"},
		{-2_500_000, "-$2.500.000"},
	}
	for _, c := range casos {
		if got := Moneda(c.valor); got != c.texto {
			t.Errorf("Moneda(%v) = %q, se esperaba %q", c.valor, got, c.texto)
		}
	}
}

func TestPayloadMalformadoNoRompe(t *testing.T) {
	ev := eventoDe(models.AccionUpdateClient, models.JSONB{
		"cambios": "esto no es una lista",
	})
	d := Interpretar(ev)
	if d.Texto == "" {
		t.Error("un payload malformado debe degradar, no romper")
	}
}
