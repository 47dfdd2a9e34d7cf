package models

import (
	"time"

	"gorm.io/gorm"
)

// Estados de una renuncia.
const (
	RenunciaPendiente = "Pendiente"
	RenunciaAprobada  = "Aprobada"
	RenunciaRechazada = "Rechazada"
)

// Estados de la devolución de dinero asociada a una renuncia aprobada.
const (
	DevolucionPendiente = "Pendiente"
	DevolucionCerrada   = "Cerrada"
)

// Renuncia registra el desistimiento de un cliente sobre una vivienda, con la
// foto completa del momento: abonos realizados, penalidad aplicada y los
// documentos del proceso que quedan archivados para auditoría.
type Renuncia struct {
	gorm.Model
	ClienteID  uint `gorm:"column:cliente_id;index"  json:"clienteId"`
	ViviendaID uint `gorm:"column:vivienda_id;index" json:"viviendaId"`

	Motivo        string    `gorm:"column:motivo"         json:"motivo"`
	Observacion   string    `gorm:"column:observacion"    json:"observacion"`
	FechaRenuncia time.Time `gorm:"column:fecha_renuncia" json:"fechaRenuncia"`
	Estado        string    `gorm:"column:estado;default:Pendiente" json:"estado"`

	TotalAbonado     float64 `gorm:"column:total_abonado"     json:"totalAbonado"`
	Penalidad        float64 `gorm:"column:penalidad"         json:"penalidad"`
	MontoADevolver   float64 `gorm:"column:monto_a_devolver"  json:"montoADevolver"`
	EstadoDevolucion string  `gorm:"column:estado_devolucion;default:Pendiente" json:"estadoDevolucion"`

	HistorialAbonos      JSONBArray `gorm:"column:historial_abonos;type:jsonb"      json:"historialAbonos,omitempty"`
	DocumentosArchivados JSONBArray `gorm:"column:documentos_archivados;type:jsonb" json:"documentosArchivados,omitempty"`
}

func (Renuncia) TableName() string { return "renuncias" }
