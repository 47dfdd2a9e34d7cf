package proceso

import (
	"testing"
	"time"

	"github.com/NRodriguezT98/ryr-app-sub002/internal/apperr"
	"github.com/NRodriguezT98/ryr-app-sub002/models"
)

func fecha(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return t
}

// motorFijo devuelve un motor con el reloj clavado para que "hoy" sea
// determinista en las pruebas.
func motorFijo(hoy string) *Engine {
	return &Engine{Ahora: func() time.Time { return fecha(hoy) }}
}

func planConCredito() models.PlanFinanciero {
	return models.PlanFinanciero{
		CuotaInicialAplica: true, CuotaInicialMonto: 20_000_000,
		CreditoAplica: true, CreditoMonto: 85_000_000,
	}
}

func estadoNuevo(plan models.PlanFinanciero, inicio string) Estado {
	return Estado{
		Plantilla:   PlantillaParaPlan(plan),
		FechaInicio: fecha(inicio),
	}
}

// completar es un atajo de prueba: sube las evidencias requeridas del paso y
// lo completa en la fecha dada.
func completar(t *testing.T, e *Engine, est Estado, key, dia string) Estado {
	t.Helper()
	var def PasoDef
	for _, d := range est.Plantilla {
		if d.Key == key {
			def = d
		}
	}
	for _, slot := range def.Evidencias {
		if !slot.Requerida {
			continue
		}
		var err error
		est, _, err = e.UpdateEvidencia(est, key, slot.ID, &models.EvidenciaSubida{
			ID: slot.ID, URL: "/static/uploads/evidencias/" + slot.ID + ".pdf",
		})
		if err != nil {
			t.Fatalf("subiendo evidencia %s de %s: %v", slot.ID, key, err)
		}
	}
	est, _, err := e.CompletarPaso(est, key, fecha(dia))
	if err != nil {
		t.Fatalf("completando %s: %v", key, err)
	}
	return est
}

func TestPlantillaSegunPlan(t *testing.T) {
	casos := []struct {
		nombre   string
		plan     models.PlanFinanciero
		quiere   []string
		noQuiere []string
	}{
		{
			nombre:   "solo cuota inicial",
			plan:     models.PlanFinanciero{CuotaInicialAplica: true},
			noQuiere: []string{PasoDocumentacion, PasoCartaAprobacion, PasoDesembolsoCred, PasoDesembolsoMCY, PasoDesembolsoCaja, PasoCartaCaja},
		},
		{
			nombre: "con crédito",
			plan:   planConCredito(),
			quiere: []string{PasoDocumentacion, PasoCartaAprobacion, PasoDesembolsoCred},
		},
		{
			nombre: "con subsidio de caja",
			plan:   models.PlanFinanciero{SubsidioCajaAplica: true},
			quiere: []string{PasoCartaCaja, PasoDesembolsoCaja},
		},
	}

	for _, c := range casos {
		t.Run(c.nombre, func(t *testing.T) {
			defs := PlantillaParaPlan(c.plan)
			keys := map[string]bool{}
			for i, d := range defs {
				keys[d.Key] = true
				if d.Orden != i+1 {
					t.Fatalf("orden de %s = %d, se esperaba %d", d.Key, d.Orden, i+1)
				}
			}
			for _, k := range c.quiere {
				if !keys[k] {
					t.Errorf("falta el paso %s en la plantilla", k)
				}
			}
			for _, k := range c.noQuiere {
				if keys[k] {
					t.Errorf("el paso %s no debería estar en la plantilla", k)
				}
			}
			if defs[len(defs)-1].Key != PasoEntrega {
				t.Errorf("el último paso debe ser la entrega, fue %s", defs[len(defs)-1].Key)
			}
		})
	}
}

func TestOrdenEstricto(t *testing.T) {
	e := motorFijo("2024-02-01")
	est := estadoNuevo(planConCredito(), "2024-01-01")

	// El segundo paso está bloqueado mientras el primero no se complete.
	est2, _, err := e.UpdateEvidencia(est, PasoPromesaFirmada, "promesaFirmada",
		&models.EvidenciaSubida{ID: "x", URL: "/u.pdf"})
	if err != nil {
		t.Fatalf("subiendo evidencia: %v", err)
	}
	if _, _, err := e.CompletarPaso(est2, PasoPromesaFirmada, fecha("2024-01-10")); !apperr.IsKind(err, apperr.KindConflict) {
		t.Fatalf("se esperaba CONFLICT por paso anterior incompleto, fue %v", err)
	}

	est = completar(t, e, est, PasoPromesaEnviada, "2024-01-05")
	derivados := e.Derivar(est)
	if !derivados[1].EsSiguientePaso {
		t.Error("tras completar el primer paso, el segundo debe ser el siguiente")
	}
	if derivados[2].PuedeCompletarse {
		t.Error("el tercer paso no puede completarse con el segundo pendiente")
	}
}

func TestCotasDeFecha(t *testing.T) {
	e := motorFijo("2024-02-01")
	est := estadoNuevo(planConCredito(), "2024-01-01")
	est = completar(t, e, est, PasoPromesaEnviada, "2024-01-10")
	est, _, err := e.UpdateEvidencia(est, PasoPromesaFirmada, "promesaFirmada",
		&models.EvidenciaSubida{ID: "x", URL: "/u.pdf"})
	if err != nil {
		t.Fatalf("subiendo evidencia: %v", err)
	}

	casos := []struct {
		nombre string
		dia    string
		razon  string
	}{
		{"anterior al paso previo", "2024-01-05", "fecha anterior al paso previo"},
		{"futura", "2024-02-02", "la fecha no puede ser futura"},
		{"válida", "2024-01-15", ""},
	}
	for _, c := range casos {
		t.Run(c.nombre, func(t *testing.T) {
			_, _, err := e.CompletarPaso(est, PasoPromesaFirmada, fecha(c.dia))
			if c.razon == "" {
				if err != nil {
					t.Fatalf("no se esperaba error, fue %v", err)
				}
				return
			}
			if err == nil || apperr.Razon(err) != c.razon {
				t.Fatalf("se esperaba %q, fue %v", c.razon, err)
			}
		})
	}
}

func TestFechaPosteriorAlPasoSiguiente(t *testing.T) {
	e := motorFijo("2024-03-01")
	est := estadoNuevo(planConCredito(), "2024-01-01")
	est = completar(t, e, est, PasoPromesaEnviada, "2024-01-05")
	est = completar(t, e, est, PasoPromesaFirmada, "2024-01-10")
	est = completar(t, e, est, PasoDocumentacion, "2024-01-20")

	// Editar la fecha del paso intermedio más allá del siguiente completado.
	_, _, err := e.CompletarPaso(est, PasoPromesaFirmada, fecha("2024-01-25"))
	if err == nil || apperr.Razon(err) != "fecha posterior al paso siguiente" {
		t.Fatalf("se esperaba la cota del paso siguiente, fue %v", err)
	}
}

func TestEditarFechaDePasoCompletado(t *testing.T) {
	e := motorFijo("2024-02-01")
	est := estadoNuevo(planConCredito(), "2024-01-01")
	est = completar(t, e, est, PasoPromesaEnviada, "2024-01-05")

	_, res, err := e.CompletarPaso(est, PasoPromesaEnviada, fecha("2024-01-08"))
	if err != nil {
		t.Fatalf("editando fecha: %v", err)
	}
	if res.ActionType != models.AccionChangeCompletionDate {
		t.Fatalf("ActionType = %s, se esperaba %s", res.ActionType, models.AccionChangeCompletionDate)
	}
	if res.ActionData["fechaAnterior"] != "2024-01-05" || res.ActionData["fechaNueva"] != "2024-01-08" {
		t.Fatalf("delta de fechas incompleto: %v", res.ActionData)
	}
}

func TestEvidenciaRequeridaBloqueaCompletado(t *testing.T) {
	e := motorFijo("2024-02-01")
	est := estadoNuevo(planConCredito(), "2024-01-01")

	_, _, err := e.CompletarPaso(est, PasoPromesaEnviada, fecha("2024-01-05"))
	if !apperr.IsKind(err, apperr.KindConflict) {
		t.Fatalf("se esperaba CONFLICT por evidencias faltantes, fue %v", err)
	}
}

func TestReaperturaExclusiva(t *testing.T) {
	e := motorFijo("2024-02-01")
	est := estadoNuevo(planConCredito(), "2024-01-01")
	est = completar(t, e, est, PasoPromesaEnviada, "2024-01-05")
	est = completar(t, e, est, PasoPromesaFirmada, "2024-01-10")

	est, err := e.IniciarReapertura(est, PasoPromesaEnviada)
	if err != nil {
		t.Fatalf("iniciando reapertura: %v", err)
	}
	if _, err := e.IniciarReapertura(est, PasoPromesaFirmada); !apperr.IsKind(err, apperr.KindConflict) {
		t.Fatalf("la segunda reapertura debía chocar con la primera, fue %v", err)
	}

	// Deshacer libera el candado.
	est, err = e.DeshacerReapertura(est, PasoPromesaEnviada)
	if err != nil {
		t.Fatalf("deshaciendo reapertura: %v", err)
	}
	if _, err := e.IniciarReapertura(est, PasoPromesaFirmada); err != nil {
		t.Fatalf("tras deshacer debía poder reabrirse otro paso, fue %v", err)
	}
}

func TestConfirmarReaperturaExigeMotivo(t *testing.T) {
	e := motorFijo("2024-02-01")
	est := estadoNuevo(planConCredito(), "2024-01-01")
	est = completar(t, e, est, PasoPromesaEnviada, "2024-01-05")
	est, err := e.IniciarReapertura(est, PasoPromesaEnviada)
	if err != nil {
		t.Fatalf("iniciando reapertura: %v", err)
	}

	_, _, err = e.ConfirmarReapertura(est, PasoPromesaEnviada, fecha("2024-01-06"), "muy corto")
	if !apperr.IsKind(err, apperr.KindValidation) {
		t.Fatalf("se esperaba VALIDATION por justificación corta, fue %v", err)
	}

	est2, res, err := e.ConfirmarReapertura(est, PasoPromesaEnviada, fecha("2024-01-06"),
		"se corrigió la fecha real de envío de la promesa")
	if err != nil {
		t.Fatalf("confirmando reapertura: %v", err)
	}
	if res.ActionType != models.AccionReopenProcessStep {
		t.Fatalf("ActionType = %s", res.ActionType)
	}
	if est2.ReaperturaPasoKey != nil {
		t.Error("el candado de reapertura debía quedar liberado")
	}
}

func TestEvidenciaDeHito(t *testing.T) {
	e := motorFijo("2024-02-01")
	est := estadoNuevo(planConCredito(), "2024-01-01")
	est = completar(t, e, est, PasoPromesaEnviada, "2024-01-05")
	est, _, err := e.UpdateEvidencia(est, PasoPromesaFirmada, "promesaFirmada",
		&models.EvidenciaSubida{ID: "a", URL: "/v1.pdf"})
	if err != nil {
		t.Fatalf("agregando evidencia: %v", err)
	}

	// El reemplazo en un hito siempre se permite.
	est, res, err := e.UpdateEvidencia(est, PasoPromesaFirmada, "promesaFirmada",
		&models.EvidenciaSubida{ID: "b", URL: "/v2.pdf"})
	if err != nil {
		t.Fatalf("reemplazando evidencia de hito: %v", err)
	}
	if res.ActionData["tipoCambio"] != "reemplazado" {
		t.Errorf("tipoCambio = %v", res.ActionData["tipoCambio"])
	}
	if res.ActionData["urlAnterior"] != "/v1.pdf" || res.ActionData["urlNueva"] != "/v2.pdf" {
		t.Errorf("URLs del delta incompletas: %v", res.ActionData)
	}

	// La eliminación en un hito está vetada.
	if _, _, err := e.UpdateEvidencia(est, PasoPromesaFirmada, "promesaFirmada", nil); !apperr.IsKind(err, apperr.KindForbidden) {
		t.Fatalf("se esperaba FORBIDDEN al eliminar evidencia de un hito, fue %v", err)
	}
}

func TestEliminarEvidenciaInexistente(t *testing.T) {
	e := motorFijo("2024-02-01")
	est := estadoNuevo(planConCredito(), "2024-01-01")
	if _, _, err := e.UpdateEvidencia(est, PasoPromesaEnviada, "promesaEnviadaCorreo", nil); !apperr.IsKind(err, apperr.KindValidation) {
		t.Fatalf("se esperaba VALIDATION, fue %v", err)
	}
}

func TestPasoAutomatico(t *testing.T) {
	e := motorFijo("2024-06-01")
	est := estadoNuevo(planConCredito(), "2024-01-01")
	est = completar(t, e, est, PasoPromesaEnviada, "2024-01-05")
	est = completar(t, e, est, PasoPromesaFirmada, "2024-01-10")
	est = completar(t, e, est, PasoDocumentacion, "2024-01-20")
	est = completar(t, e, est, PasoCartaAprobacion, "2024-02-01")
	est = completar(t, e, est, PasoMinutaFirmada, "2024-03-01")
	est = completar(t, e, est, PasoEscritura, "2024-04-01")

	// Completarlo a mano está vetado.
	if _, _, err := e.CompletarPaso(est, PasoDesembolsoCred, fecha("2024-05-01")); !apperr.IsKind(err, apperr.KindConflict) {
		t.Fatalf("el paso automático no debe completarse a mano, fue %v", err)
	}

	est, res, err := e.CompletarPasoAutomatico(est, PasoDesembolsoCred, fecha("2024-05-01"))
	if err != nil {
		t.Fatalf("completando automático: %v", err)
	}
	if res.ActionData["automatico"] != true {
		t.Errorf("el payload debe marcar el completado como automático: %v", res.ActionData)
	}
	if _, _, err := e.CompletarPasoAutomatico(est, PasoDesembolsoCred, fecha("2024-05-02")); !apperr.IsKind(err, apperr.KindConflict) {
		t.Fatalf("no debe completarse dos veces, fue %v", err)
	}
}

func TestPasoAutomaticoRespetaOrden(t *testing.T) {
	e := motorFijo("2024-06-01")
	est := estadoNuevo(planConCredito(), "2024-01-01")
	if _, _, err := e.CompletarPasoAutomatico(est, PasoDesembolsoCred, fecha("2024-05-01")); !apperr.IsKind(err, apperr.KindConflict) {
		t.Fatalf("el desembolso no puede adelantarse a los pasos previos, fue %v", err)
	}
}

func TestFacturaBloqueadaPorSaldo(t *testing.T) {
	e := motorFijo("2024-06-01")
	est := estadoNuevo(models.PlanFinanciero{CuotaInicialAplica: true, CuotaInicialMonto: 105_000_000}, "2024-01-01")
	est = completar(t, e, est, PasoPromesaEnviada, "2024-01-05")
	est = completar(t, e, est, PasoPromesaFirmada, "2024-01-10")
	est = completar(t, e, est, PasoMinutaFirmada, "2024-02-01")
	est = completar(t, e, est, PasoEscritura, "2024-03-01")

	factura := func() PasoDerivado {
		for _, d := range e.Derivar(est) {
			if d.Def.Key == PasoFactura {
				return d
			}
		}
		t.Fatal("la factura no está en la plantilla")
		return PasoDerivado{}
	}

	est.SaldoPendiente = 1_000_000
	if d := factura(); !d.Bloqueado {
		t.Fatal("la factura debe estar bloqueada mientras haya saldo pendiente")
	}
	if _, _, err := e.CompletarPaso(est, PasoFactura, fecha("2024-04-01")); !apperr.IsKind(err, apperr.KindConflict) {
		t.Fatalf("se esperaba CONFLICT con saldo pendiente, fue %v", err)
	}

	est.SaldoPendiente = 0
	if d := factura(); d.Bloqueado {
		t.Fatal("sin saldo pendiente la factura debe desbloquearse")
	}
}

func TestCierreYAnulacion(t *testing.T) {
	e := motorFijo("2024-12-01")
	est := estadoNuevo(models.PlanFinanciero{CuotaInicialAplica: true, CuotaInicialMonto: 105_000_000}, "2024-01-01")
	est = completar(t, e, est, PasoPromesaEnviada, "2024-01-05")
	est = completar(t, e, est, PasoPromesaFirmada, "2024-01-10")
	est = completar(t, e, est, PasoMinutaFirmada, "2024-02-01")
	est = completar(t, e, est, PasoEscritura, "2024-03-01")
	est = completar(t, e, est, PasoFactura, "2024-04-01")
	est = completar(t, e, est, PasoEntrega, "2024-05-01")

	if !est.ProcesoCerrado() {
		t.Fatal("el proceso debía quedar cerrado tras la entrega")
	}
	for _, d := range e.Derivar(est) {
		if !d.BloqueadoPermanente {
			t.Fatalf("con el proceso cerrado, %s debe ser de solo lectura", d.Def.Key)
		}
	}

	// Cerrado: ni completar, ni reabrir, ni tocar evidencias.
	if _, _, err := e.CompletarPaso(est, PasoFactura, fecha("2024-04-02")); !apperr.IsKind(err, apperr.KindConflict) {
		t.Fatalf("se esperaba CONFLICT sobre proceso cerrado, fue %v", err)
	}
	if _, err := e.IniciarReapertura(est, PasoFactura); !apperr.IsKind(err, apperr.KindConflict) {
		t.Fatalf("se esperaba CONFLICT al reabrir sobre proceso cerrado, fue %v", err)
	}

	// La anulación del cierre exige motivo.
	if _, _, err := e.AnularCierre(est, "  "); !apperr.IsKind(err, apperr.KindValidation) {
		t.Fatalf("se esperaba VALIDATION por motivo vacío, fue %v", err)
	}

	est2, res, err := e.AnularCierre(est, "entrega registrada por error")
	if err != nil {
		t.Fatalf("anulando cierre: %v", err)
	}
	if res.ActionType != models.AccionAnularCierreProceso {
		t.Fatalf("ActionType = %s", res.ActionType)
	}
	if est2.ProcesoCerrado() {
		t.Fatal("el proceso debía quedar abierto tras la anulación")
	}
	// Las evidencias del paso terminal se conservan.
	for _, p := range est2.Pasos {
		if p.PasoKey == PasoEntrega && len(p.Evidencias) == 0 {
			t.Error("las evidencias del paso terminal no deben borrarse")
		}
	}
}

func TestCierreConReaperturaPendiente(t *testing.T) {
	e := motorFijo("2024-12-01")
	est := estadoNuevo(models.PlanFinanciero{CuotaInicialAplica: true, CuotaInicialMonto: 105_000_000}, "2024-01-01")
	est = completar(t, e, est, PasoPromesaEnviada, "2024-01-05")
	est = completar(t, e, est, PasoPromesaFirmada, "2024-01-10")
	est = completar(t, e, est, PasoMinutaFirmada, "2024-02-01")
	est = completar(t, e, est, PasoEscritura, "2024-03-01")
	est = completar(t, e, est, PasoFactura, "2024-04-01")

	est, err := e.IniciarReapertura(est, PasoPromesaEnviada)
	if err != nil {
		t.Fatalf("iniciando reapertura: %v", err)
	}

	// La entrega no puede cerrar el proceso con una reapertura pendiente.
	est, _, err = e.UpdateEvidencia(est, PasoEntrega, "actaEntrega", &models.EvidenciaSubida{
		ID: "actaEntrega", URL: "/static/uploads/evidencias/actaEntrega.pdf",
	})
	if err != nil {
		t.Fatalf("subiendo evidencia de la entrega: %v", err)
	}
	if _, _, err := e.CompletarPaso(est, PasoEntrega, fecha("2024-05-01")); !apperr.IsKind(err, apperr.KindConflict) {
		t.Fatalf("se esperaba CONFLICT al cerrar con reapertura pendiente, fue %v", err)
	}

	// Liberado el candado, la entrega cierra con normalidad.
	est, err = e.DeshacerReapertura(est, PasoPromesaEnviada)
	if err != nil {
		t.Fatalf("deshaciendo reapertura: %v", err)
	}
	est, _, err = e.CompletarPaso(est, PasoEntrega, fecha("2024-05-01"))
	if err != nil {
		t.Fatalf("completando la entrega: %v", err)
	}
	if !est.ProcesoCerrado() {
		t.Fatal("el proceso debía quedar cerrado tras la entrega")
	}

	// Un candado remanente sobre un proceso ya cerrado tampoco se confirma.
	key := PasoPromesaEnviada
	est.ReaperturaPasoKey = &key
	if _, _, err := e.ConfirmarReapertura(est, key, fecha("2024-01-06"),
		"se corrigió la fecha real de envío de la promesa"); !apperr.IsKind(err, apperr.KindConflict) {
		t.Fatalf("se esperaba CONFLICT al confirmar sobre proceso cerrado, fue %v", err)
	}
}

func TestErroresNoMutan(t *testing.T) {
	e := motorFijo("2024-02-01")
	est := estadoNuevo(planConCredito(), "2024-01-01")
	est = completar(t, e, est, PasoPromesaEnviada, "2024-01-10")

	antes := len(est.Pasos)
	if _, _, err := e.CompletarPaso(est, PasoPromesaFirmada, fecha("2024-01-05")); err == nil {
		t.Fatal("se esperaba error")
	}
	if len(est.Pasos) != antes {
		t.Error("un comando fallido no debe mutar el estado de entrada")
	}
	if est.ReaperturaPasoKey != nil {
		t.Error("el candado de reapertura no debe cambiar ante error")
	}
}
