// Paquete apperr define la taxonomía de errores del núcleo de negocio.
// Cada error lleva un Kind estable (legible por máquina) y una razón en
// lenguaje humano; la capa de presentación decide cómo mostrarla.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

type Kind string

const (
	// KindValidation: la entrada del comando viola un invariante declarado
	// (fecha fuera de rango, justificación corta, montos que no concilian).
	// Siempre recuperable corrigiendo la entrada; no se mutó estado.
	KindValidation Kind = "VALIDATION"
	// KindConflict: la operación no está permitida en el estado actual del
	// proceso (otro paso en reapertura, proceso cerrado).
	KindConflict Kind = "CONFLICT"
	// KindForbidden: la operación está vetada por regla de negocio
	// (eliminar evidencia de un paso hito).
	KindForbidden Kind = "FORBIDDEN"
	// KindNotFound: el paso/slot/fuente referenciado no existe en la
	// plantilla vigente. Indica un desfase caller/plantilla.
	KindNotFound Kind = "NOT_FOUND"
	// KindUpstreamIO: falla de la base de datos o del servicio de archivos.
	// Se propaga sin reintentos y sin tocar el estado previo.
	KindUpstreamIO Kind = "UPSTREAM_IO"
)

type Error struct {
	Kind   Kind
	Reason string
	Err    error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Reason, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Reason)
}

func (e *Error) Unwrap() error { return e.Err }

func Validation(format string, args ...interface{}) *Error {
	return &Error{Kind: KindValidation, Reason: fmt.Sprintf(format, args...)}
}

func Conflict(format string, args ...interface{}) *Error {
	return &Error{Kind: KindConflict, Reason: fmt.Sprintf(format, args...)}
}

func Forbidden(format string, args ...interface{}) *Error {
	return &Error{Kind: KindForbidden, Reason: fmt.Sprintf(format, args...)}
}

func NotFound(format string, args ...interface{}) *Error {
	return &Error{Kind: KindNotFound, Reason: fmt.Sprintf(format, args...)}
}

func UpstreamIO(reason string, err error) *Error {
	return &Error{Kind: KindUpstreamIO, Reason: reason, Err: err}
}

// KindOf extrae el Kind de un error; los errores ajenos a la taxonomía se
// reportan como fallas de infraestructura.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUpstreamIO
}

func IsKind(err error, k Kind) bool { return KindOf(err) == k }

// Razon devuelve la parte humana del error, sin el prefijo del Kind.
func Razon(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Reason
	}
	return err.Error()
}

// HTTPStatus mapea cada Kind al código de respuesta que usan los handlers.
func HTTPStatus(err error) int {
	switch KindOf(err) {
	case KindValidation:
		return http.StatusBadRequest
	case KindConflict:
		return http.StatusConflict
	case KindForbidden:
		return http.StatusForbidden
	case KindNotFound:
		return http.StatusNotFound
	default:
		return http.StatusBadGateway
	}
}
