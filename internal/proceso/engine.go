// Paquete proceso implementa la máquina de estados del proceso de compra de
// un cliente: bloqueos, completado, reaperturas y evidencias.
//
// El motor es puro: cada operación recibe el Estado actual y devuelve el
// Estado nuevo más el payload de auditoría listo para persistir. No hay
// estado oculto; el único candado entre operaciones es ReaperturaPasoKey,
// que viaja explícitamente dentro del Estado (exclusivo por proceso, un solo
// paso en reapertura a la vez). Ante error no se muta nada.
package proceso

import (
	"strings"
	"time"

	"github.com/NRodriguezT98/ryr-app-sub002/internal/apperr"
	"github.com/NRodriguezT98/ryr-app-sub002/models"
)

// MinCaracteresMotivo es el largo mínimo de la justificación exigida al
// confirmar una reapertura.
const MinCaracteresMotivo = 15

// Estado es la foto completa del proceso de un cliente sobre la que opera el
// motor. La serialización entre comandos corre por cuenta del caller: el
// motor asume que no hay dos comandos en vuelo para el mismo cliente.
type Estado struct {
	Plantilla []PasoDef
	Pasos     []models.PasoProceso
	// FechaInicio acota por abajo la fecha del primer paso.
	FechaInicio time.Time
	// SaldoPendiente bloquea la factura mientras sea mayor que cero.
	SaldoPendiente float64
	// ReaperturaPasoKey es el único paso en reapertura, o nil.
	ReaperturaPasoKey *string
}

// PasoDerivado es el estado calculado de un paso, recomputado en cada lectura.
type PasoDerivado struct {
	Def  PasoDef
	Paso models.PasoProceso

	Bloqueado           bool
	BloqueadoPermanente bool
	EsSiguientePaso     bool
	PuedeCompletarse    bool

	EvidenciasSubidas int
	TotalEvidencias   int

	MinFecha time.Time
	MaxFecha time.Time
}

// Resultado es el payload de auditoría que produce toda operación mutadora.
type Resultado struct {
	ActionType string
	ActionData models.JSONB
}

// Engine arbitra las transiciones del proceso. Ahora se inyecta para poder
// fijar el reloj en pruebas.
type Engine struct {
	Ahora func() time.Time
}

func NewEngine() *Engine { return &Engine{Ahora: time.Now} }

func soloFecha(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func (est Estado) pasoPorKey(key string) (models.PasoProceso, bool) {
	for _, p := range est.Pasos {
		if p.PasoKey == key {
			return p, true
		}
	}
	return models.PasoProceso{}, false
}

func (est Estado) defPorKey(key string) (PasoDef, bool) {
	for _, d := range est.Plantilla {
		if d.Key == key {
			return d, true
		}
	}
	return PasoDef{}, false
}

// ProcesoCerrado reporta si el paso terminal ya se completó. Desde ese
// momento todo paso queda bloqueado permanentemente: solo lectura.
func (est Estado) ProcesoCerrado() bool {
	for _, d := range est.Plantilla {
		if !d.EsTerminal() {
			continue
		}
		if p, ok := est.pasoPorKey(d.Key); ok && p.Completado {
			return true
		}
	}
	return false
}

// Derivar calcula el estado derivado de cada paso de la plantilla, en orden.
func (e *Engine) Derivar(est Estado) []PasoDerivado {
	cerrado := est.ProcesoCerrado()
	hoy := soloFecha(e.Ahora())

	derivados := make([]PasoDerivado, 0, len(est.Plantilla))
	siguienteAsignado := false
	anterioresCompletos := true
	var fechaAnterior time.Time // fecha del último paso completado previo

	if !est.FechaInicio.IsZero() {
		fechaAnterior = soloFecha(est.FechaInicio)
	}

	for i, def := range est.Plantilla {
		paso, _ := est.pasoPorKey(def.Key)
		paso.PasoKey = def.Key
		paso.Orden = def.Orden

		bloqueado := !anterioresCompletos ||
			def.EsAutomatico ||
			(def.BloqueadaPorSaldo && est.SaldoPendiente > 0)

		subidas := 0
		requeridasOK := true
		for _, slot := range def.Evidencias {
			if _, ok := paso.Evidencias[slot.ID]; ok {
				subidas++
			} else if slot.Requerida {
				requeridasOK = false
			}
		}

		esSiguiente := false
		if !siguienteAsignado && !paso.Completado && !bloqueado && !cerrado {
			esSiguiente = true
			siguienteAsignado = true
		}

		enReapertura := est.ReaperturaPasoKey != nil && *est.ReaperturaPasoKey == def.Key
		puede := (enReapertura || esSiguiente) && requeridasOK && !cerrado

		// Cota superior: la fecha del siguiente paso ya completado, o hoy.
		maxFecha := hoy
		for _, sig := range est.Plantilla[i+1:] {
			if ps, ok := est.pasoPorKey(sig.Key); ok && ps.Completado && ps.FechaCompletado != nil {
				if f := soloFecha(*ps.FechaCompletado); f.Before(maxFecha) {
					maxFecha = f
				}
				break
			}
		}

		derivados = append(derivados, PasoDerivado{
			Def:                 def,
			Paso:                paso,
			Bloqueado:           bloqueado,
			BloqueadoPermanente: cerrado,
			EsSiguientePaso:     esSiguiente,
			PuedeCompletarse:    puede,
			EvidenciasSubidas:   subidas,
			TotalEvidencias:     len(def.Evidencias),
			MinFecha:            fechaAnterior,
			MaxFecha:            maxFecha,
		})

		if !paso.Completado {
			anterioresCompletos = false
		} else if paso.FechaCompletado != nil {
			fechaAnterior = soloFecha(*paso.FechaCompletado)
		}
	}
	return derivados
}

func (e *Engine) derivadoDe(est Estado, key string) (PasoDerivado, error) {
	if _, ok := est.defPorKey(key); !ok {
		return PasoDerivado{}, apperr.NotFound("el paso '%s' no existe en la plantilla del proceso", key)
	}
	for _, d := range e.Derivar(est) {
		if d.Def.Key == key {
			return d, nil
		}
	}
	return PasoDerivado{}, apperr.NotFound("el paso '%s' no existe en la plantilla del proceso", key)
}

// validarFecha aplica las cotas [MinFecha, MaxFecha] y el veto a fechas
// futuras, nombrando la cota violada.
func (e *Engine) validarFecha(d PasoDerivado, fecha time.Time) error {
	f := soloFecha(fecha)
	hoy := soloFecha(e.Ahora())
	if f.After(hoy) {
		return apperr.Validation("la fecha no puede ser futura")
	}
	if !d.MinFecha.IsZero() && f.Before(d.MinFecha) {
		return apperr.Validation("fecha anterior al paso previo")
	}
	if f.After(d.MaxFecha) {
		return apperr.Validation("fecha posterior al paso siguiente")
	}
	return nil
}

// clonar copia el Estado para que las operaciones sean todo-o-nada: el
// Estado de entrada jamás se toca.
func (est Estado) clonar() Estado {
	nuevo := est
	nuevo.Pasos = make([]models.PasoProceso, len(est.Pasos))
	copy(nuevo.Pasos, est.Pasos)
	for i := range nuevo.Pasos {
		if nuevo.Pasos[i].Evidencias != nil {
			ev := make(models.EvidenciaMap, len(nuevo.Pasos[i].Evidencias))
			for k, v := range nuevo.Pasos[i].Evidencias {
				ev[k] = v
			}
			nuevo.Pasos[i].Evidencias = ev
		}
	}
	if est.ReaperturaPasoKey != nil {
		k := *est.ReaperturaPasoKey
		nuevo.ReaperturaPasoKey = &k
	}
	return nuevo
}

func (est *Estado) asegurarPaso(key string, orden int) *models.PasoProceso {
	for i := range est.Pasos {
		if est.Pasos[i].PasoKey == key {
			return &est.Pasos[i]
		}
	}
	est.Pasos = append(est.Pasos, models.PasoProceso{PasoKey: key, Orden: orden})
	return &est.Pasos[len(est.Pasos)-1]
}

// CompletarPaso marca el paso como completado en la fecha dada. Sobre un
// paso ya completado solo cambia la fecha y la acción auditada pasa a ser
// CHANGE_COMPLETION_DATE.
func (e *Engine) CompletarPaso(est Estado, key string, fecha time.Time) (Estado, Resultado, error) {
	d, err := e.derivadoDe(est, key)
	if err != nil {
		return est, Resultado{}, err
	}
	if d.BloqueadoPermanente {
		return est, Resultado{}, apperr.Conflict("el proceso está cerrado; el paso '%s' es de solo lectura", d.Def.Label)
	}
	if d.Def.EsTerminal() && est.ReaperturaPasoKey != nil {
		return est, Resultado{}, apperr.Conflict("hay un paso en reapertura: '%s'; resuélvala antes de cerrar el proceso", *est.ReaperturaPasoKey)
	}

	if d.Paso.Completado {
		// Edición de fecha sobre un paso ya completado.
		if d.Bloqueado {
			return est, Resultado{}, apperr.Conflict("el paso '%s' está bloqueado", d.Def.Label)
		}
	} else if !d.PuedeCompletarse {
		if d.Def.EsAutomatico {
			return est, Resultado{}, apperr.Conflict("el paso '%s' se completa automáticamente con el desembolso", d.Def.Label)
		}
		if d.Bloqueado {
			return est, Resultado{}, apperr.Conflict("el paso '%s' está bloqueado por pasos anteriores", d.Def.Label)
		}
		return est, Resultado{}, apperr.Conflict("faltan evidencias requeridas en el paso '%s'", d.Def.Label)
	}
	if err := e.validarFecha(d, fecha); err != nil {
		return est, Resultado{}, err
	}

	f := soloFecha(fecha)
	nuevo := est.clonar()
	paso := nuevo.asegurarPaso(key, d.Def.Orden)

	res := Resultado{
		ActionType: models.AccionCompleteProcessStep,
		ActionData: models.JSONB{
			"paso":      key,
			"pasoLabel": d.Def.Label,
			"fecha":     f.Format("2006-01-02"),
		},
	}
	if paso.Completado {
		res.ActionType = models.AccionChangeCompletionDate
		if paso.FechaCompletado != nil {
			res.ActionData["fechaAnterior"] = soloFecha(*paso.FechaCompletado).Format("2006-01-02")
		}
		res.ActionData["fechaNueva"] = f.Format("2006-01-02")
		delete(res.ActionData, "fecha")
	}

	paso.Completado = true
	paso.FechaCompletado = &f
	if nuevo.ReaperturaPasoKey != nil && *nuevo.ReaperturaPasoKey == key {
		nuevo.ReaperturaPasoKey = nil
	}
	return nuevo, res, nil
}

// CompletarPasoAutomatico completa un paso EsAutomatico como efecto del
// registro de un desembolso. Es la única vía para completar esos pasos.
func (e *Engine) CompletarPasoAutomatico(est Estado, key string, fecha time.Time) (Estado, Resultado, error) {
	d, err := e.derivadoDe(est, key)
	if err != nil {
		return est, Resultado{}, err
	}
	if !d.Def.EsAutomatico {
		return est, Resultado{}, apperr.Conflict("el paso '%s' no es automático", d.Def.Label)
	}
	if d.BloqueadoPermanente {
		return est, Resultado{}, apperr.Conflict("el proceso está cerrado; el paso '%s' es de solo lectura", d.Def.Label)
	}
	if d.Paso.Completado {
		return est, Resultado{}, apperr.Conflict("el paso '%s' ya está completado", d.Def.Label)
	}
	// El invariante de orden rige también para los automáticos.
	for _, prev := range e.Derivar(est) {
		if prev.Def.Orden >= d.Def.Orden {
			break
		}
		if !prev.Paso.Completado {
			return est, Resultado{}, apperr.Conflict("el paso '%s' está bloqueado por pasos anteriores", d.Def.Label)
		}
	}
	if err := e.validarFecha(d, fecha); err != nil {
		return est, Resultado{}, err
	}

	f := soloFecha(fecha)
	nuevo := est.clonar()
	paso := nuevo.asegurarPaso(key, d.Def.Orden)
	paso.Completado = true
	paso.FechaCompletado = &f

	return nuevo, Resultado{
		ActionType: models.AccionCompleteProcessStep,
		ActionData: models.JSONB{
			"paso":       key,
			"pasoLabel":  d.Def.Label,
			"fecha":      f.Format("2006-01-02"),
			"automatico": true,
		},
	}, nil
}

// IniciarReapertura marca el paso como "en reapertura". No muta datos del
// paso todavía; solo toma el candado exclusivo del proceso.
func (e *Engine) IniciarReapertura(est Estado, key string) (Estado, error) {
	d, err := e.derivadoDe(est, key)
	if err != nil {
		return est, err
	}
	if d.BloqueadoPermanente {
		return est, apperr.Conflict("el proceso está cerrado; no se admiten reaperturas")
	}
	if !d.Paso.Completado {
		return est, apperr.Conflict("solo puede reabrirse un paso completado")
	}
	if d.Bloqueado {
		return est, apperr.Conflict("el paso '%s' está bloqueado y no puede reabrirse", d.Def.Label)
	}
	if est.ReaperturaPasoKey != nil {
		return est, apperr.Conflict("ya hay un paso en reapertura: '%s'", *est.ReaperturaPasoKey)
	}
	nuevo := est.clonar()
	nuevo.ReaperturaPasoKey = &key
	return nuevo, nil
}

// DeshacerReapertura cancela una reapertura en curso sin dejar rastro.
func (e *Engine) DeshacerReapertura(est Estado, key string) (Estado, error) {
	if est.ReaperturaPasoKey == nil || *est.ReaperturaPasoKey != key {
		return est, apperr.Conflict("el paso '%s' no está en reapertura", key)
	}
	nuevo := est.clonar()
	nuevo.ReaperturaPasoKey = nil
	return nuevo, nil
}

// ConfirmarReapertura compromete la reapertura: exige justificación (mínimo
// MinCaracteresMotivo caracteres), revalida las cotas de fecha igual que
// CompletarPaso y libera el candado. El delta de fecha y evidencias queda en
// el payload de auditoría.
func (e *Engine) ConfirmarReapertura(est Estado, key string, fecha time.Time, motivo string) (Estado, Resultado, error) {
	if est.ReaperturaPasoKey == nil || *est.ReaperturaPasoKey != key {
		return est, Resultado{}, apperr.Conflict("el paso '%s' no está en reapertura", key)
	}
	if len(strings.TrimSpace(motivo)) < MinCaracteresMotivo {
		return est, Resultado{}, apperr.Validation("la justificación debe tener al menos %d caracteres", MinCaracteresMotivo)
	}
	d, err := e.derivadoDe(est, key)
	if err != nil {
		return est, Resultado{}, err
	}
	if d.BloqueadoPermanente {
		return est, Resultado{}, apperr.Conflict("el proceso está cerrado; no se admiten reaperturas")
	}
	if err := e.validarFecha(d, fecha); err != nil {
		return est, Resultado{}, err
	}

	f := soloFecha(fecha)
	evidencias := models.JSONB{}
	for slotID, ev := range d.Paso.Evidencias {
		evidencias[slotID] = ev.URL
	}

	res := Resultado{
		ActionType: models.AccionReopenProcessStep,
		ActionData: models.JSONB{
			"paso":       key,
			"pasoLabel":  d.Def.Label,
			"motivo":     strings.TrimSpace(motivo),
			"fechaNueva": f.Format("2006-01-02"),
			"evidencias": evidencias,
		},
	}
	if d.Paso.FechaCompletado != nil {
		res.ActionData["fechaAnterior"] = soloFecha(*d.Paso.FechaCompletado).Format("2006-01-02")
	}

	nuevo := est.clonar()
	paso := nuevo.asegurarPaso(key, d.Def.Orden)
	paso.Completado = true
	paso.FechaCompletado = &f
	nuevo.ReaperturaPasoKey = nil
	return nuevo, res, nil
}

// UpdateEvidencia reemplaza, agrega o elimina (nueva == nil) la evidencia de
// un slot. En pasos hito la eliminación está vetada una vez hay archivo; el
// reemplazo siempre se permite. Las URLs anteriores nunca se borran del
// almacenamiento, solo dejan de referenciarse en el estado vigente.
func (e *Engine) UpdateEvidencia(est Estado, key, slotID string, nueva *models.EvidenciaSubida) (Estado, Resultado, error) {
	d, err := e.derivadoDe(est, key)
	if err != nil {
		return est, Resultado{}, err
	}
	slot, ok := d.Def.SlotDe(slotID)
	if !ok {
		return est, Resultado{}, apperr.NotFound("el slot de evidencia '%s' no existe en el paso '%s'", slotID, key)
	}
	if d.BloqueadoPermanente {
		return est, Resultado{}, apperr.Conflict("el proceso está cerrado; el paso '%s' es de solo lectura", d.Def.Label)
	}

	anterior, tenia := d.Paso.Evidencias[slotID]
	if nueva == nil && !tenia {
		return est, Resultado{}, apperr.Validation("el slot '%s' no tiene evidencia para eliminar", slot.Label)
	}
	if nueva == nil && d.Def.EsHito {
		return est, Resultado{}, apperr.Forbidden("las evidencias del paso hito '%s' pueden reemplazarse pero no eliminarse", d.Def.Label)
	}

	tipoCambio := "agregado"
	if nueva == nil {
		tipoCambio = "eliminado"
	} else if tenia {
		tipoCambio = "reemplazado"
	}

	nuevo := est.clonar()
	paso := nuevo.asegurarPaso(key, d.Def.Orden)
	if nueva == nil {
		delete(paso.Evidencias, slotID)
	} else {
		if paso.Evidencias == nil {
			paso.Evidencias = models.EvidenciaMap{}
		}
		paso.Evidencias[slotID] = *nueva
	}

	data := models.JSONB{
		"paso":       key,
		"pasoLabel":  d.Def.Label,
		"slot":       slotID,
		"slotLabel":  slot.Label,
		"tipoCambio": tipoCambio,
	}
	if tenia {
		data["urlAnterior"] = anterior.URL
	}
	if nueva != nil {
		data["urlNueva"] = nueva.URL
	}
	return nuevo, Resultado{ActionType: models.AccionChangeStepEvidence, ActionData: data}, nil
}

// AnularCierre revierte el cierre del proceso: el paso terminal vuelve a
// pendiente y el resto deja de estar bloqueado permanentemente. Las
// evidencias del paso terminal se conservan.
func (e *Engine) AnularCierre(est Estado, motivo string) (Estado, Resultado, error) {
	if !est.ProcesoCerrado() {
		return est, Resultado{}, apperr.Conflict("el proceso no está cerrado")
	}
	if strings.TrimSpace(motivo) == "" {
		return est, Resultado{}, apperr.Validation("debe indicarse el motivo de la anulación del cierre")
	}

	nuevo := est.clonar()
	res := Resultado{ActionType: models.AccionAnularCierreProceso, ActionData: models.JSONB{
		"motivo": strings.TrimSpace(motivo),
	}}
	for i := range nuevo.Pasos {
		def, ok := nuevo.defPorKey(nuevo.Pasos[i].PasoKey)
		if !ok || !def.EsTerminal() {
			continue
		}
		if nuevo.Pasos[i].FechaCompletado != nil {
			res.ActionData["fechaCierreAnulada"] = soloFecha(*nuevo.Pasos[i].FechaCompletado).Format("2006-01-02")
		}
		nuevo.Pasos[i].Completado = false
		nuevo.Pasos[i].FechaCompletado = nil
	}
	return nuevo, res, nil
}
