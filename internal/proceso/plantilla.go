package proceso

import "github.com/NRodriguezT98/ryr-app-sub002/models"

// Claves estables de los pasos del proceso.
const (
	PasoPromesaEnviada  = "promesaEnviada"
	PasoPromesaFirmada  = "promesaFirmada"
	PasoDocumentacion   = "documentacionEnviada"
	PasoCartaAprobacion = "cartaAprobacionCredito"
	PasoCartaCaja       = "cartaAprobacionCaja"
	PasoMinutaFirmada   = "minutaFirmada"
	PasoEscritura       = "escritura"
	PasoDesembolsoCred  = "desembolsoCredito"
	PasoDesembolsoMCY   = "desembolsoMiCasaYa"
	PasoDesembolsoCaja  = "desembolsoCaja"
	PasoFactura         = "factura"
	PasoEntrega         = "entrega"
)

// EvidenciaSlot es un documento requerido u opcional dentro de un paso.
type EvidenciaSlot struct {
	ID        string
	Label     string
	Requerida bool
}

// PasoDef es la definición de un paso en la plantilla: fija por proceso, no
// editable por el usuario.
type PasoDef struct {
	Key   string
	Label string
	Orden int
	// EsHito: sus evidencias pueden reemplazarse pero nunca eliminarse una
	// vez cargadas.
	EsHito bool
	// EsAutomatico: se completa solo como efecto de un desembolso, nunca a
	// mano.
	EsAutomatico bool
	// BloqueadaPorSaldo: el paso queda bloqueado mientras la vivienda tenga
	// saldo pendiente (caso de la factura de venta).
	BloqueadaPorSaldo bool
	Evidencias        []EvidenciaSlot
}

// EsTerminal reporta si el paso cierra el proceso completo. Una vez
// completado, ningún paso admite edición ni reapertura.
func (d PasoDef) EsTerminal() bool { return d.Key == PasoEntrega }

// PlantillaParaPlan arma la secuencia de pasos según las fuentes habilitadas
// en el plan financiero del cliente. El orden resultante es total y estricto.
func PlantillaParaPlan(plan models.PlanFinanciero) []PasoDef {
	defs := []PasoDef{
		{
			Key:   PasoPromesaEnviada,
			Label: "Promesa de Compraventa Enviada",
			Evidencias: []EvidenciaSlot{
				{ID: "promesaEnviadaCorreo", Label: "Correo de envío de la promesa", Requerida: true},
			},
		},
		{
			Key:    PasoPromesaFirmada,
			Label:  "Promesa de Compraventa Firmada",
			EsHito: true,
			Evidencias: []EvidenciaSlot{
				{ID: "promesaFirmada", Label: "Promesa de compraventa firmada", Requerida: true},
			},
		},
	}

	if plan.CreditoAplica {
		defs = append(defs,
			PasoDef{
				Key:   PasoDocumentacion,
				Label: "Documentación Enviada para Estudio de Crédito",
				Evidencias: []EvidenciaSlot{
					{ID: "documentacionCredito", Label: "Soporte de radicación en el banco", Requerida: true},
				},
			},
			PasoDef{
				Key:   PasoCartaAprobacion,
				Label: "Carta de Aprobación del Crédito",
				Evidencias: []EvidenciaSlot{
					{ID: "cartaAprobacion", Label: "Carta de aprobación del banco", Requerida: true},
				},
			},
		)
	}
	if plan.SubsidioCajaAplica {
		defs = append(defs, PasoDef{
			Key:   PasoCartaCaja,
			Label: "Carta de Aprobación del Subsidio de Caja",
			Evidencias: []EvidenciaSlot{
				{ID: "cartaSubsidioCaja", Label: "Carta de aprobación de la caja de compensación", Requerida: true},
			},
		})
	}

	defs = append(defs,
		PasoDef{
			Key:    PasoMinutaFirmada,
			Label:  "Minuta de Escrituración Firmada",
			EsHito: true,
			Evidencias: []EvidenciaSlot{
				{ID: "minutaFirmada", Label: "Minuta firmada", Requerida: true},
			},
		},
		PasoDef{
			Key:    PasoEscritura,
			Label:  "Escritura Pública Registrada",
			EsHito: true,
			Evidencias: []EvidenciaSlot{
				{ID: "escritura", Label: "Escritura pública", Requerida: true},
				{ID: "boletaRegistro", Label: "Boleta de registro", Requerida: false},
			},
		},
	)

	if plan.CreditoAplica {
		defs = append(defs, PasoDef{
			Key:          PasoDesembolsoCred,
			Label:        "Desembolso del Crédito Hipotecario",
			EsAutomatico: true,
			Evidencias: []EvidenciaSlot{
				{ID: "comprobanteDesembolso", Label: "Comprobante del desembolso", Requerida: false},
			},
		})
	}
	if plan.SubsidioViviendaAplica {
		defs = append(defs, PasoDef{
			Key:          PasoDesembolsoMCY,
			Label:        "Desembolso Subsidio Mi Casa Ya",
			EsAutomatico: true,
		})
	}
	if plan.SubsidioCajaAplica {
		defs = append(defs, PasoDef{
			Key:          PasoDesembolsoCaja,
			Label:        "Desembolso Subsidio Caja de Compensación",
			EsAutomatico: true,
		})
	}

	defs = append(defs,
		PasoDef{
			Key:               PasoFactura,
			Label:             "Factura de Venta",
			BloqueadaPorSaldo: true,
			Evidencias: []EvidenciaSlot{
				{ID: "factura", Label: "Factura de venta", Requerida: true},
			},
		},
		PasoDef{
			Key:   PasoEntrega,
			Label: "Entrega de la Vivienda",
			Evidencias: []EvidenciaSlot{
				{ID: "actaEntrega", Label: "Acta de entrega firmada", Requerida: true},
			},
		},
	)

	for i := range defs {
		defs[i].Orden = i + 1
	}
	return defs
}

// SlotDe busca un slot de evidencia dentro de la definición del paso.
func (d PasoDef) SlotDe(slotID string) (EvidenciaSlot, bool) {
	for _, s := range d.Evidencias {
		if s.ID == slotID {
			return s, true
		}
	}
	return EvidenciaSlot{}, false
}
