package auditoria

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Moneda formatea un valor en pesos con separador de miles: $105.000.000.
// Los centavos se descartan; en esta operación nunca se manejan.
func Moneda(valor float64) string {
	negativo := valor < 0
	if negativo {
		valor = -valor
	}
	entero := strconv.FormatInt(int64(valor+0.5), 10)

	var b strings.Builder
	for i, d := range entero {
		if i > 0 && (len(entero)-i)%3 == 0 {
			b.WriteByte('.')
		}
		b.WriteRune(d)
	}
	if negativo {
		return "-$" + b.String()
	}
	return "$" + b.String()
}

// FechaCorta es el formato de fecha de la interfaz.
func FechaCorta(t time.Time) string { return t.Format("02/01/2006") }

// fechaDesdeISO convierte "2006-01-02" (como viaja en los payloads) al
// formato de pantalla. Si no parsea, devuelve el texto tal cual: un dato
// histórico malformado no puede romper el timeline.
func fechaDesdeISO(s string) string {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return s
	}
	return FechaCorta(t)
}

// etiquetasCampo traduce los nombres internos de campo a la etiqueta que ve
// el usuario. Diccionario fijo; los campos desconocidos se muestran tal cual.
var etiquetasCampo = map[string]string{
	"nombres":         "Nombres",
	"apellidos":       "Apellidos",
	"cedula":          "Número de Documento",
	"telefono":        "Teléfono",
	"correo":          "Correo Electrónico",
	"direccion":       "Dirección",
	"fechaIngreso":    "Fecha de Ingreso",
	"urlCedula":       "Cédula (Archivo)",
	"banco":           "Banco",
	"casoCredito":     "Número de Caso del Crédito",
	"cartaAprobacion": "Carta de Aprobación",
	"monto":           "Monto",
	"fechaPago":       "Fecha del Pago",
	"metodoPago":      "Método de Pago",
	"observacion":     "Observación",
	"fuenteRecurso":   "Fuente del Recurso",
}

// camposIgnorados son campos internos de control que jamás se muestran en el
// historial.
var camposIgnorados = map[string]bool{
	"id":                true,
	"createdAt":         true,
	"updatedAt":         true,
	"status":            true,
	"reaperturaPasoKey": true,
	"viviendaId":        true,
}

// EtiquetaCampo devuelve la etiqueta visible de un campo.
func EtiquetaCampo(campo string) string {
	if etiqueta, ok := etiquetasCampo[campo]; ok {
		return etiqueta
	}
	return campo
}

// nombresFuente traduce la clave de fuente de recursos a texto visible.
var nombresFuente = map[string]string{
	"cuotaInicial":     "Cuota Inicial",
	"credito":          "Crédito Hipotecario",
	"subsidioVivienda": "Subsidio Mi Casa Ya",
	"subsidioCaja":     "Subsidio Caja de Compensación",
}

func nombreFuente(clave string) string {
	if n, ok := nombresFuente[clave]; ok {
		return n
	}
	return clave
}

// Accesores tolerantes sobre payloads json. Los eventos históricos pueden
// traer cualquier cosa; aquí nunca se lanza un pánico.

func str(data map[string]interface{}, clave string) string {
	if data == nil {
		return ""
	}
	if v, ok := data[clave].(string); ok {
		return v
	}
	return ""
}

func num(data map[string]interface{}, clave string) float64 {
	if data == nil {
		return 0
	}
	switch v := data[clave].(type) {
	case float64:
		return v
	case int:
		return float64(v)
	case string:
		f, _ := strconv.ParseFloat(v, 64)
		return f
	}
	return 0
}

func boolea(data map[string]interface{}, clave string) bool {
	if data == nil {
		return false
	}
	v, _ := data[clave].(bool)
	return v
}

func lista(data map[string]interface{}, clave string) []map[string]interface{} {
	if data == nil {
		return nil
	}
	cruda, ok := data[clave].([]interface{})
	if !ok {
		return nil
	}
	out := make([]map[string]interface{}, 0, len(cruda))
	for _, item := range cruda {
		if m, ok := item.(map[string]interface{}); ok {
			out = append(out, m)
		}
	}
	return out
}

func mapa(data map[string]interface{}, clave string) map[string]interface{} {
	if data == nil {
		return nil
	}
	m, _ := data[clave].(map[string]interface{})
	return m
}

func valorATexto(v interface{}) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case float64:
		if t == float64(int64(t)) {
			return strconv.FormatInt(int64(t), 10)
		}
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		if t {
			return "Sí"
		}
		return "No"
	default:
		return fmt.Sprintf("%v", t)
	}
}
