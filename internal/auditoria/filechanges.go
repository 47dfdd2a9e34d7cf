package auditoria

import (
	"time"

	"github.com/NRodriguezT98/ryr-app-sub002/models"
)

// Tipos de cambio de archivo, en el vocabulario que consume la interfaz.
const (
	CambioAdjunto   = "adjuntó"
	CambioEliminado = "eliminó"
	CambioReemplazo = "reemplazó"
)

// CambioArchivo es un sub-registro de cambio de archivo extraído de un
// evento. URLAnterior y URLNueva se conservan ambas: los botones de
// descarga/vista previa solo se muestran cuando la URL correspondiente no
// está vacía, y los enlaces viejos siguen resolviendo indefinidamente.
type CambioArchivo struct {
	TipoDocumento string    `json:"tipoDocumento"`
	TipoCambio    string    `json:"tipoCambio"`
	URLAnterior   string    `json:"urlAnterior,omitempty"`
	URLNueva      string    `json:"urlNueva,omitempty"`
	Timestamp     time.Time `json:"timestamp"`
	Descripcion   string    `json:"descripcion"`
}

// ResumenArchivos alimenta la insignia compacta del historial.
type ResumenArchivos struct {
	Agregados    int `json:"agregados"`
	Eliminados   int `json:"eliminados"`
	Reemplazados int `json:"reemplazados"`
}

func tipoCambioDe(interno string) string {
	switch interno {
	case "agregado":
		return CambioAdjunto
	case "eliminado":
		return CambioEliminado
	case "reemplazado":
		return CambioReemplazo
	}
	return ""
}

// TieneCambiosArchivo reporta si el evento arrastra cambios de archivo.
func TieneCambiosArchivo(ev models.AuditEvent) bool {
	return len(ExtraerCambiosArchivo(ev)) > 0
}

// ExtraerCambiosArchivo saca los sub-registros de archivo de un evento.
// Reconoce dos portadores: los cambios con fileChange dentro de
// UPDATE_CLIENT y los eventos CHANGE_STEP_EVIDENCE del proceso.
func ExtraerCambiosArchivo(ev models.AuditEvent) []CambioArchivo {
	switch ev.Accion() {
	case models.AccionUpdateClient:
		var cambios []CambioArchivo
		for _, cambio := range lista(ev.ActionData, "cambios") {
			fc := mapa(cambio, "fileChange")
			if fc == nil {
				continue
			}
			tipo := tipoCambioDe(str(fc, "tipo"))
			if tipo == "" {
				continue
			}
			etiqueta := EtiquetaCampo(str(cambio, "campo"))
			cambios = append(cambios, CambioArchivo{
				TipoDocumento: etiqueta,
				TipoCambio:    tipo,
				URLAnterior:   str(fc, "urlAnterior"),
				URLNueva:      str(fc, "urlNueva"),
				Timestamp:     ev.Timestamp,
				Descripcion:   lineaCambioArchivo(etiqueta, fc),
			})
		}
		return cambios

	case models.AccionChangeStepEvidence:
		tipo := tipoCambioDe(str(ev.ActionData, "tipoCambio"))
		if tipo == "" {
			return nil
		}
		etiqueta := str(ev.ActionData, "slotLabel")
		if etiqueta == "" {
			etiqueta = str(ev.ActionData, "slot")
		}
		return []CambioArchivo{{
			TipoDocumento: etiqueta,
			TipoCambio:    tipo,
			URLAnterior:   str(ev.ActionData, "urlAnterior"),
			URLNueva:      str(ev.ActionData, "urlNueva"),
			Timestamp:     ev.Timestamp,
			Descripcion:   Interpretar(ev).Texto,
		}}
	}
	return nil
}

// Resumen cuenta los cambios por tipo para la insignia del historial.
func Resumen(cambios []CambioArchivo) ResumenArchivos {
	var r ResumenArchivos
	for _, c := range cambios {
		switch c.TipoCambio {
		case CambioAdjunto:
			r.Agregados++
		case CambioEliminado:
			r.Eliminados++
		case CambioReemplazo:
			r.Reemplazados++
		}
	}
	return r
}
