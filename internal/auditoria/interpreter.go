// Paquete auditoria convierte los eventos crudos del historial en texto
// legible y determinista. El intérprete es una función pura del evento: no
// mira el reloj, no toca la base de datos y nunca lanza pánico — un registro
// histórico malformado degrada al mensaje genérico, jamás rompe el timeline.
package auditoria

import (
	"fmt"
	"strings"

	"github.com/NRodriguezT98/ryr-app-sub002/models"
)

// Descripcion es el resultado de interpretar un evento: texto plano, o una
// de las dos variantes estructuradas cuyos campos la interfaz pinta por
// separado (traslado y renuncia).
type Descripcion struct {
	Texto         string                `json:"texto"`
	Transferencia *MensajeTransferencia `json:"transferencia,omitempty"`
	Renuncia      *MensajeRenuncia      `json:"renuncia,omitempty"`
}

// MensajeTransferencia describe un traslado de cliente entre viviendas.
type MensajeTransferencia struct {
	ClienteNombre       string       `json:"clienteNombre"`
	ViviendaAnterior    string       `json:"viviendaAnterior"`
	ViviendaNueva       string       `json:"viviendaNueva"`
	PlanAnterior        models.JSONB `json:"planAnterior,omitempty"`
	PlanNuevo           models.JSONB `json:"planNuevo,omitempty"`
	Motivo              string       `json:"motivo"`
	AbonosSincronizados bool         `json:"abonosSincronizados"`
}

// MensajeRenuncia describe la renuncia de un cliente con su liquidación.
type MensajeRenuncia struct {
	Motivo               string         `json:"motivo"`
	Observacion          string         `json:"observacion"`
	Fecha                string         `json:"fecha"`
	Vivienda             string         `json:"vivienda"`
	TotalAbonado         string         `json:"totalAbonado"`
	Penalidad            string         `json:"penalidad"`
	MontoADevolver       string         `json:"montoADevolver"`
	EstadoDevolucion     string         `json:"estadoDevolucion"`
	HistorialAbonos      []models.JSONB `json:"historialAbonos,omitempty"`
	DocumentosArchivados []models.JSONB `json:"documentosArchivados,omitempty"`
}

// Interpretar despacha el evento por su tipo de acción. El conjunto de
// acciones es cerrado (models.TodasLasAcciones); un tipo desconocido cae al
// mensaje genérico, nunca a un error.
func Interpretar(ev models.AuditEvent) Descripcion {
	accion := ev.Accion()

	// Eventos legados sin acción reconocible: se muestra el mensaje crudo
	// tal como se guardó.
	if ev.EsLegado() && ev.Message != "" {
		return Descripcion{Texto: ev.Message}
	}

	switch accion {
	case models.AccionCreateClient:
		return fmtCreateClient(ev)
	case models.AccionUpdateClient:
		return fmtUpdateClient(ev)
	case models.AccionTransferClient:
		return fmtTransferClient(ev)
	case models.AccionArchiveClient:
		return texto("%s archivó al cliente %s", ev.UserName, nombreCliente(ev))
	case models.AccionRestoreClient:
		return texto("%s restauró al cliente %s", ev.UserName, nombreCliente(ev))
	case models.AccionDeleteClient:
		return texto("%s eliminó permanentemente al cliente %s", ev.UserName, nombreCliente(ev))
	case models.AccionCompleteProcessStep:
		return fmtCompleteStep(ev)
	case models.AccionReopenProcessStep:
		return fmtReopenStep(ev)
	case models.AccionChangeCompletionDate:
		return fmtChangeCompletionDate(ev)
	case models.AccionChangeStepEvidence:
		return fmtChangeStepEvidence(ev)
	case models.AccionClientRenounce:
		return fmtClientRenounce(ev)
	case models.AccionAnularCierreProceso:
		return texto("%s anuló el cierre del proceso de %s. Motivo: %s",
			ev.UserName, nombreCliente(ev), str(ev.ActionData, "motivo"))
	case models.AccionRegisterAbono:
		return fmtRegisterAbono(ev)
	case models.AccionRegisterDisbursement:
		return fmtRegisterDisbursement(ev)
	case models.AccionUpdateAbono:
		return fmtUpdateAbono(ev)
	case models.AccionArchiveAbono:
		return texto("%s anuló el abono de %s del cliente %s",
			ev.UserName, Moneda(num(ev.ActionData, "monto")), nombreCliente(ev))
	case models.AccionAssignVivienda:
		return texto("%s asignó la vivienda %s al cliente %s",
			ev.UserName, ubicacion(ev), nombreCliente(ev))
	case models.AccionUnassignVivienda:
		return texto("%s liberó la vivienda %s que ocupaba el cliente %s",
			ev.UserName, ubicacion(ev), nombreCliente(ev))
	case models.AccionCreateRenuncia:
		return texto("%s registró la renuncia del cliente %s a la vivienda %s. Motivo: %s",
			ev.UserName, nombreCliente(ev), ubicacion(ev), str(ev.ActionData, "motivo"))
	case models.AccionUpdateRenuncia:
		return fmtUpdateRenuncia(ev)
	case models.AccionApproveRenuncia:
		return texto("%s aprobó la renuncia del cliente %s. Monto a devolver: %s",
			ev.UserName, nombreCliente(ev), Moneda(num(ev.ActionData, "montoADevolver")))
	case models.AccionRejectRenuncia:
		return texto("%s rechazó la renuncia del cliente %s. Motivo: %s",
			ev.UserName, nombreCliente(ev), str(ev.ActionData, "motivo"))
	default:
		return texto("%s realizó la acción: %s", ev.UserName, accion)
	}
}

func texto(format string, args ...interface{}) Descripcion {
	return Descripcion{Texto: fmt.Sprintf(format, args...)}
}

func nombreCliente(ev models.AuditEvent) string {
	if ev.Contexto.ClienteNombre != "" {
		return ev.Contexto.ClienteNombre
	}
	if n := str(ev.ActionData, "clienteNombre"); n != "" {
		return n
	}
	return "el cliente"
}

func ubicacion(ev models.AuditEvent) string {
	if ev.Contexto.Manzana != "" {
		return fmt.Sprintf("Mz. %s Casa %d", ev.Contexto.Manzana, ev.Contexto.NumeroCasa)
	}
	if u := str(ev.ActionData, "vivienda"); u != "" {
		return u
	}
	return "la vivienda"
}

func fmtCreateClient(ev models.AuditEvent) Descripcion {
	d := texto("%s registró al cliente %s y le asignó la vivienda %s",
		ev.UserName, nombreCliente(ev), ubicacion(ev))
	if ev.Contexto.Proyecto != "" {
		d.Texto += fmt.Sprintf(" del proyecto %s", ev.Contexto.Proyecto)
	}
	return d
}

// fmtUpdateClient es el formateador más complejo: parte los cambios en
// campos normales y cambios de archivo, traduce etiquetas y filtra los
// campos internos. Si el filtrado deja la lista vacía devuelve una sola
// frase en lugar de un bloque vacío.
func fmtUpdateClient(ev models.AuditEvent) Descripcion {
	cambios := lista(ev.ActionData, "cambios")

	var normales, archivos []string
	for _, cambio := range cambios {
		campo := str(cambio, "campo")
		if camposIgnorados[campo] {
			continue
		}
		etiqueta := EtiquetaCampo(campo)

		if fc := mapa(cambio, "fileChange"); fc != nil {
			archivos = append(archivos, lineaCambioArchivo(etiqueta, fc))
			continue
		}
		normales = append(normales, fmt.Sprintf("• %s: \"%s\" → \"%s\"",
			etiqueta, valorATexto(cambio["anterior"]), valorATexto(cambio["actual"])))
	}

	if len(normales) == 0 && len(archivos) == 0 {
		return texto("%s actualizó al cliente %s (sin cambios relevantes)",
			ev.UserName, nombreCliente(ev))
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s actualizó los datos del cliente %s:", ev.UserName, nombreCliente(ev))
	for _, linea := range normales {
		b.WriteString("\n")
		b.WriteString(linea)
	}
	if len(archivos) > 0 {
		b.WriteString("\nArchivos:")
		for _, linea := range archivos {
			b.WriteString("\n")
			b.WriteString(linea)
		}
	}
	return Descripcion{Texto: b.String()}
}

// lineaCambioArchivo pinta un cambio de archivo según su subtipo. En los
// eliminados se deja constancia de que el enlace anterior sigue resolviendo:
// el almacenamiento nunca borra objetos reemplazados.
func lineaCambioArchivo(etiqueta string, fc map[string]interface{}) string {
	nombre := str(fc, "nombreArchivo")
	urlAnterior := str(fc, "urlAnterior")
	urlNueva := str(fc, "urlNueva")
	if nombre == "" {
		nombre = urlNueva
	}
	switch str(fc, "tipo") {
	case "agregado":
		return fmt.Sprintf("• %s: adjuntó %s", etiqueta, nombre)
	case "reemplazado":
		return fmt.Sprintf("• %s: reemplazó %s por %s (el archivo anterior queda supersedido)",
			etiqueta, urlAnterior, urlNueva)
	case "eliminado":
		return fmt.Sprintf("• %s: eliminó %s (el enlace sigue disponible para auditoría)",
			etiqueta, urlAnterior)
	default:
		return fmt.Sprintf("• %s: cambio de archivo", etiqueta)
	}
}

func fmtTransferClient(ev models.AuditEvent) Descripcion {
	msg := &MensajeTransferencia{
		ClienteNombre:       nombreCliente(ev),
		ViviendaAnterior:    str(ev.ActionData, "viviendaAnterior"),
		ViviendaNueva:       str(ev.ActionData, "viviendaNueva"),
		PlanAnterior:        mapa(ev.ActionData, "planAnterior"),
		PlanNuevo:           mapa(ev.ActionData, "planNuevo"),
		Motivo:              str(ev.ActionData, "motivo"),
		AbonosSincronizados: boolea(ev.ActionData, "abonosSincronizados"),
	}
	d := texto("%s trasladó al cliente %s de %s a %s",
		ev.UserName, msg.ClienteNombre, msg.ViviendaAnterior, msg.ViviendaNueva)
	d.Transferencia = msg
	return d
}

func fmtCompleteStep(ev models.AuditEvent) Descripcion {
	label := str(ev.ActionData, "pasoLabel")
	if label == "" {
		label = str(ev.ActionData, "paso")
	}
	d := texto("%s completó el paso \"%s\" con fecha %s",
		ev.UserName, label, fechaDesdeISO(str(ev.ActionData, "fecha")))
	if boolea(ev.ActionData, "automatico") {
		d.Texto += " (automático por desembolso)"
	}
	return d
}

func fmtReopenStep(ev models.AuditEvent) Descripcion {
	label := str(ev.ActionData, "pasoLabel")
	if label == "" {
		label = str(ev.ActionData, "paso")
	}
	d := texto("%s reabrió el paso \"%s\". Motivo: %s",
		ev.UserName, label, str(ev.ActionData, "motivo"))
	anterior := str(ev.ActionData, "fechaAnterior")
	nueva := str(ev.ActionData, "fechaNueva")
	if anterior != "" && nueva != "" && anterior != nueva {
		d.Texto += fmt.Sprintf(". Fecha: %s → %s", fechaDesdeISO(anterior), fechaDesdeISO(nueva))
	}
	return d
}

func fmtChangeCompletionDate(ev models.AuditEvent) Descripcion {
	label := str(ev.ActionData, "pasoLabel")
	if label == "" {
		label = str(ev.ActionData, "paso")
	}
	return texto("%s cambió la fecha del paso \"%s\": %s → %s",
		ev.UserName, label,
		fechaDesdeISO(str(ev.ActionData, "fechaAnterior")),
		fechaDesdeISO(str(ev.ActionData, "fechaNueva")))
}

func fmtChangeStepEvidence(ev models.AuditEvent) Descripcion {
	label := str(ev.ActionData, "slotLabel")
	if label == "" {
		label = str(ev.ActionData, "slot")
	}
	paso := str(ev.ActionData, "pasoLabel")
	switch str(ev.ActionData, "tipoCambio") {
	case "agregado":
		return texto("%s adjuntó la evidencia \"%s\" en el paso \"%s\"", ev.UserName, label, paso)
	case "reemplazado":
		return texto("%s reemplazó la evidencia \"%s\" en el paso \"%s\" (%s → %s)",
			ev.UserName, label, paso,
			str(ev.ActionData, "urlAnterior"), str(ev.ActionData, "urlNueva"))
	case "eliminado":
		return texto("%s eliminó la evidencia \"%s\" del paso \"%s\" (el enlace %s sigue disponible para auditoría)",
			ev.UserName, label, paso, str(ev.ActionData, "urlAnterior"))
	default:
		return texto("%s modificó la evidencia \"%s\" en el paso \"%s\"", ev.UserName, label, paso)
	}
}

func fmtClientRenounce(ev models.AuditEvent) Descripcion {
	msg := &MensajeRenuncia{
		Motivo:           str(ev.ActionData, "motivo"),
		Observacion:      str(ev.ActionData, "observacion"),
		Fecha:            fechaDesdeISO(str(ev.ActionData, "fecha")),
		Vivienda:         ubicacion(ev),
		TotalAbonado:     Moneda(num(ev.ActionData, "totalAbonado")),
		Penalidad:        Moneda(num(ev.ActionData, "penalidad")),
		MontoADevolver:   Moneda(num(ev.ActionData, "montoADevolver")),
		EstadoDevolucion: str(ev.ActionData, "estadoDevolucion"),
	}
	for _, abono := range lista(ev.ActionData, "historialAbonos") {
		msg.HistorialAbonos = append(msg.HistorialAbonos, models.JSONB(abono))
	}
	for _, doc := range lista(ev.ActionData, "documentosArchivados") {
		msg.DocumentosArchivados = append(msg.DocumentosArchivados, models.JSONB(doc))
	}
	d := texto("%s registró la renuncia del cliente %s. Total abonado: %s, penalidad: %s, a devolver: %s",
		ev.UserName, nombreCliente(ev), msg.TotalAbonado, msg.Penalidad, msg.MontoADevolver)
	d.Renuncia = msg
	return d
}

func fmtRegisterAbono(ev models.AuditEvent) Descripcion {
	return texto("%s registró un abono de %s a %s con fecha %s",
		ev.UserName,
		Moneda(num(ev.ActionData, "monto")),
		nombreFuente(str(ev.ActionData, "fuenteRecurso")),
		fechaDesdeISO(str(ev.ActionData, "fechaPago")))
}

func fmtRegisterDisbursement(ev models.AuditEvent) Descripcion {
	return texto("%s registró el desembolso de %s por %s con fecha %s",
		ev.UserName,
		nombreFuente(str(ev.ActionData, "fuenteRecurso")),
		Moneda(num(ev.ActionData, "monto")),
		fechaDesdeISO(str(ev.ActionData, "fechaPago")))
}

func fmtUpdateAbono(ev models.AuditEvent) Descripcion {
	cambios := lista(ev.ActionData, "cambios")
	if len(cambios) == 0 {
		return texto("%s modificó un abono del cliente %s", ev.UserName, nombreCliente(ev))
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%s modificó un abono del cliente %s:", ev.UserName, nombreCliente(ev))
	for _, cambio := range cambios {
		campo := str(cambio, "campo")
		if camposIgnorados[campo] {
			continue
		}
		anterior, actual := valorATexto(cambio["anterior"]), valorATexto(cambio["actual"])
		if campo == "monto" {
			anterior, actual = Moneda(num(cambio, "anterior")), Moneda(num(cambio, "actual"))
		}
		fmt.Fprintf(&b, "\n• %s: %s → %s", EtiquetaCampo(campo), anterior, actual)
	}
	return Descripcion{Texto: b.String()}
}

func fmtUpdateRenuncia(ev models.AuditEvent) Descripcion {
	d := texto("%s actualizó la renuncia del cliente %s", ev.UserName, nombreCliente(ev))
	if m := str(ev.ActionData, "motivo"); m != "" {
		d.Texto += fmt.Sprintf(". Motivo: %s", m)
	}
	return d
}
