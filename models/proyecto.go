package models

import "gorm.io/gorm"

// Proyecto agrupa las viviendas de una misma urbanización.
// FormulaRecargo es opcional: cuando está definida, el recargo de esquinera
// se calcula evaluando la expresión (variable disponible: valorBase) en lugar
// de usar el valor fijo de la vivienda.
type Proyecto struct {
	gorm.Model
	Nombre           string  `gorm:"column:nombre;uniqueIndex" json:"nombre"`
	GastosNotariales float64 `gorm:"column:gastos_notariales"  json:"gastosNotariales"`
	FormulaRecargo   string  `gorm:"column:formula_recargo"    json:"formulaRecargo"`
}

func (Proyecto) TableName() string { return "proyectos" }
