package auditoria

import (
	"time"

	"github.com/NRodriguezT98/ryr-app-sub002/models"
)

// VentanaDedupPorDefecto es la ventana dentro de la cual una actualización
// genérica de proceso se considera duplicado de un "paso completado". El
// valor viene del sistema original; no hay regla de negocio documentada
// detrás, por eso es configurable y no una constante enterrada.
const VentanaDedupPorDefecto = 10 * time.Second

// esActualizacionProcesoGenerica detecta el evento genérico "proceso
// actualizado": un UPDATE_CLIENT estructurado cuyos cambios tocan solo el
// campo proceso. Los eventos legados nunca califican: se muestran siempre.
func esActualizacionProcesoGenerica(ev models.AuditEvent) bool {
	if ev.EsLegado() || ev.Accion() != models.AccionUpdateClient {
		return false
	}
	cambios := lista(ev.ActionData, "cambios")
	if len(cambios) == 0 {
		return false
	}
	for _, cambio := range cambios {
		if str(cambio, "campo") != "proceso" {
			return false
		}
	}
	return true
}

// FiltrarHistorial suprime las actualizaciones genéricas de proceso que
// tienen un "paso completado" del mismo cliente a menos de `ventana` de
// distancia: la misma acción de negocio no se muestra dos veces bajo dos
// tipos distintos. Con ventana <= 0 se usa VentanaDedupPorDefecto.
func FiltrarHistorial(eventos []models.AuditEvent, ventana time.Duration) []models.AuditEvent {
	if ventana <= 0 {
		ventana = VentanaDedupPorDefecto
	}

	filtrados := make([]models.AuditEvent, 0, len(eventos))
	for _, ev := range eventos {
		if esActualizacionProcesoGenerica(ev) && hayPasoCompletadoCerca(eventos, ev, ventana) {
			continue
		}
		filtrados = append(filtrados, ev)
	}
	return filtrados
}

func hayPasoCompletadoCerca(eventos []models.AuditEvent, generico models.AuditEvent, ventana time.Duration) bool {
	for _, otro := range eventos {
		if otro.ID == generico.ID || otro.Accion() != models.AccionCompleteProcessStep {
			continue
		}
		if otro.Contexto.ClienteID != generico.Contexto.ClienteID {
			continue
		}
		delta := otro.Timestamp.Sub(generico.Timestamp)
		if delta < 0 {
			delta = -delta
		}
		if delta <= ventana {
			return true
		}
	}
	return false
}
