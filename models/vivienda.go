package models

import (
	"fmt"

	"gorm.io/gorm"
)

// Vivienda es una unidad vendible, identificada por manzana + número de casa
// dentro de un proyecto.
type Vivienda struct {
	gorm.Model
	Manzana          string  `gorm:"column:manzana;index:idx_vivienda_ubicacion" json:"manzana"`
	NumeroCasa       int     `gorm:"column:numero_casa;index:idx_vivienda_ubicacion" json:"numeroCasa"`
	Matricula        string  `gorm:"column:matricula"          json:"matricula"`
	Nomenclatura     string  `gorm:"column:nomenclatura"       json:"nomenclatura"`
	ValorBase        float64 `gorm:"column:valor_base"         json:"valorBase"`
	EsEsquinera      bool    `gorm:"column:es_esquinera"       json:"esEsquinera"`
	RecargoEsquinera float64 `gorm:"column:recargo_esquinera"  json:"recargoEsquinera"`

	ProyectoID uint      `gorm:"column:proyecto_id;index" json:"proyectoId"`
	Proyecto   *Proyecto `gorm:"foreignKey:ProyectoID"    json:"proyecto,omitempty"`

	// ClienteID es nil mientras la vivienda está disponible.
	ClienteID *uint    `gorm:"column:cliente_id;index" json:"clienteId,omitempty"`
	Cliente   *Cliente `gorm:"foreignKey:ClienteID"    json:"cliente,omitempty"`
}

func (Vivienda) TableName() string { return "viviendas" }

// Ubicacion devuelve la etiqueta corta usada en mensajes y reportes.
func (v Vivienda) Ubicacion() string {
	if v.Manzana == "" {
		return ""
	}
	return fmt.Sprintf("Mz. %s Casa %d", v.Manzana, v.NumeroCasa)
}
