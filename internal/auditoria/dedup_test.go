package auditoria

import (
	"testing"
	"time"

	"github.com/NRodriguezT98/ryr-app-sub002/models"
)

func base() time.Time { return time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC) }

func pasoCompletado(id string, clienteID uint, t time.Time) models.AuditEvent {
	accion := models.AccionCompleteProcessStep
	return models.AuditEvent{
		ID: id, Timestamp: t, UserName: "Laura",
		ActionType: &accion,
		Contexto:   models.ContextoAuditoria{ClienteID: clienteID},
		ActionData: models.JSONB{"paso": "promesaEnviada", "fecha": "2024-03-01"},
	}
}

func actualizacionGenerica(id string, clienteID uint, t time.Time) models.AuditEvent {
	accion := models.AccionUpdateClient
	return models.AuditEvent{
		ID: id, Timestamp: t, UserName: "Laura",
		ActionType: &accion,
		Contexto:   models.ContextoAuditoria{ClienteID: clienteID},
		ActionData: models.JSONB{
			"cambios": []interface{}{
				map[string]interface{}{"campo": "proceso", "anterior": "a", "actual": "b"},
			},
		},
	}
}

func ids(eventos []models.AuditEvent) []string {
	out := make([]string, 0, len(eventos))
	for _, ev := range eventos {
		out = append(out, ev.ID)
	}
	return out
}

func TestDedupSuprimeGenericoCercano(t *testing.T) {
	eventos := []models.AuditEvent{
		pasoCompletado("paso", 7, base()),
		actualizacionGenerica("generico", 7, base().Add(3*time.Second)),
	}
	filtrados := FiltrarHistorial(eventos, 0)
	if len(filtrados) != 1 || filtrados[0].ID != "paso" {
		t.Fatalf("se esperaba solo el paso completado, fue %v", ids(filtrados))
	}
}

func TestDedupRespetaLaVentana(t *testing.T) {
	casos := []struct {
		nombre  string
		delta   time.Duration
		ventana time.Duration
		quedan  int
	}{
		{"dentro de la ventana por defecto", 9 * time.Second, 0, 1},
		{"justo en el borde", 10 * time.Second, 0, 1},
		{"fuera de la ventana por defecto", 11 * time.Second, 0, 2},
		{"ventana ampliada lo alcanza", 25 * time.Second, 30 * time.Second, 1},
		{"el genérico puede ir antes del paso", -5 * time.Second, 0, 1},
	}
	for _, c := range casos {
		t.Run(c.nombre, func(t *testing.T) {
			eventos := []models.AuditEvent{
				pasoCompletado("paso", 7, base()),
				actualizacionGenerica("generico", 7, base().Add(c.delta)),
			}
			filtrados := FiltrarHistorial(eventos, c.ventana)
			if len(filtrados) != c.quedan {
				t.Fatalf("quedaron %v, se esperaban %d", ids(filtrados), c.quedan)
			}
		})
	}
}

func TestDedupNoCruzaClientes(t *testing.T) {
	eventos := []models.AuditEvent{
		pasoCompletado("paso", 7, base()),
		actualizacionGenerica("generico", 8, base().Add(time.Second)),
	}
	filtrados := FiltrarHistorial(eventos, 0)
	if len(filtrados) != 2 {
		t.Fatalf("eventos de clientes distintos no se deduplican, fue %v", ids(filtrados))
	}
}

func TestDedupIgnoraCambiosMixtos(t *testing.T) {
	accion := models.AccionUpdateClient
	mixto := models.AuditEvent{
		ID: "mixto", Timestamp: base().Add(time.Second), UserName: "Laura",
		ActionType: &accion,
		Contexto:   models.ContextoAuditoria{ClienteID: 7},
		ActionData: models.JSONB{
			"cambios": []interface{}{
				map[string]interface{}{"campo": "proceso", "anterior": "a", "actual": "b"},
				map[string]interface{}{"campo": "telefono", "anterior": "1", "actual": "2"},
			},
		},
	}
	eventos := []models.AuditEvent{pasoCompletado("paso", 7, base()), mixto}
	filtrados := FiltrarHistorial(eventos, 0)
	if len(filtrados) != 2 {
		t.Fatalf("un cambio mixto no es genérico y no debe suprimirse, fue %v", ids(filtrados))
	}
}

// Los eventos legados jamás se suprimen, aunque su details.action coincida y
// estén dentro de la ventana.
func TestDedupNoTocaLegados(t *testing.T) {
	legado := models.AuditEvent{
		ID: "legado", Timestamp: base().Add(time.Second), UserName: "Laura",
		Contexto: models.ContextoAuditoria{ClienteID: 7},
		Message:  "Laura actualizó el proceso del cliente",
		Details:  models.JSONB{"action": "UPDATE_CLIENT"},
	}
	eventos := []models.AuditEvent{pasoCompletado("paso", 7, base()), legado}
	filtrados := FiltrarHistorial(eventos, 0)
	if len(filtrados) != 2 {
		t.Fatalf("el evento legado debía conservarse, fue %v", ids(filtrados))
	}
}
