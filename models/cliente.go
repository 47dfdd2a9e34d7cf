package models

import (
	"time"

	"gorm.io/gorm"
)

// Estados posibles de un cliente.
const (
	ClienteActivo     = "activo"
	ClienteRenunciado = "renunciado"
	ClienteArchivado  = "archivado"
)

// Cliente representa al comprador de una vivienda.
type Cliente struct {
	gorm.Model
	Nombres      string     `gorm:"column:nombres;not null"   json:"nombres"`
	Apellidos    string     `gorm:"column:apellidos;not null" json:"apellidos"`
	Cedula       string     `gorm:"column:cedula;uniqueIndex" json:"cedula"`
	Telefono     string     `gorm:"column:telefono"           json:"telefono"`
	Correo       string     `gorm:"column:correo"             json:"correo"`
	Direccion    string     `gorm:"column:direccion"          json:"direccion"`
	FechaIngreso *time.Time `gorm:"column:fecha_ingreso"      json:"fechaIngreso"`
	Status       string     `gorm:"column:status;default:activo" json:"status"`

	// URL de la cédula escaneada. Los archivos reemplazados nunca se borran
	// del almacenamiento: los enlaces antiguos del historial siguen vivos.
	URLCedula string `gorm:"column:url_cedula" json:"urlCedula"`

	// ReaperturaPasoKey apunta al único paso del proceso que está en
	// reapertura. Nil cuando no hay ninguna reapertura en curso.
	ReaperturaPasoKey *string `gorm:"column:reapertura_paso_key" json:"reaperturaPasoKey,omitempty"`

	ViviendaID *uint     `gorm:"column:vivienda_id;index" json:"viviendaId,omitempty"`
	Vivienda   *Vivienda `gorm:"foreignKey:ViviendaID"    json:"vivienda,omitempty"`

	Plan  *PlanFinanciero `gorm:"foreignKey:ClienteID" json:"plan,omitempty"`
	Pasos []PasoProceso   `gorm:"foreignKey:ClienteID" json:"pasos,omitempty"`
}

func (Cliente) TableName() string { return "clientes" }

// NombreCompleto se usa al armar mensajes del historial.
func (c Cliente) NombreCompleto() string {
	return c.Nombres + " " + c.Apellidos
}
