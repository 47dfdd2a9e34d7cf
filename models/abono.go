package models

import (
	"time"

	"gorm.io/gorm"
)

// Abono es un pago recibido a cuenta de una vivienda. Un desembolso es un
// abono registrado por la entidad de crédito o la caja de compensación; al
// registrarlo se completa automáticamente el paso del proceso correspondiente.
// El borrado es lógico (DeletedAt): anular un abono lo archiva, nunca lo
// elimina del historial.
type Abono struct {
	gorm.Model
	ClienteID  uint `gorm:"column:cliente_id;index"  json:"clienteId"`
	ViviendaID uint `gorm:"column:vivienda_id;index" json:"viviendaId"`

	FuenteRecurso  string    `gorm:"column:fuente_recurso"  json:"fuenteRecurso"`
	Monto          float64   `gorm:"column:monto"           json:"monto"`
	FechaPago      time.Time `gorm:"column:fecha_pago"      json:"fechaPago"`
	MetodoPago     string    `gorm:"column:metodo_pago"     json:"metodoPago"`
	Observacion    string    `gorm:"column:observacion"     json:"observacion"`
	ComprobanteURL string    `gorm:"column:comprobante_url" json:"comprobanteUrl"`
	EsDesembolso   bool      `gorm:"column:es_desembolso"   json:"esDesembolso"`
}

func (Abono) TableName() string { return "abonos" }
