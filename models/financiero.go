package models

import "gorm.io/gorm"

// Claves de las fuentes de recursos del plan financiero.
const (
	FuenteCuotaInicial     = "cuotaInicial"
	FuenteCredito          = "credito"
	FuenteSubsidioVivienda = "subsidioVivienda"
	FuenteSubsidioCaja     = "subsidioCaja"
)

// PlanFinanciero reúne las fuentes con las que el cliente cubre el valor de
// la vivienda. Cuando Aplica es false el monto de esa fuente se ignora.
type PlanFinanciero struct {
	gorm.Model
	ClienteID uint `gorm:"column:cliente_id;uniqueIndex" json:"clienteId"`

	CuotaInicialAplica bool    `gorm:"column:cuota_inicial_aplica" json:"cuotaInicialAplica"`
	CuotaInicialMonto  float64 `gorm:"column:cuota_inicial_monto"  json:"cuotaInicialMonto"`

	CreditoAplica   bool    `gorm:"column:credito_aplica"    json:"creditoAplica"`
	CreditoMonto    float64 `gorm:"column:credito_monto"     json:"creditoMonto"`
	CreditoBanco    string  `gorm:"column:credito_banco"     json:"creditoBanco"`
	CreditoCaso     string  `gorm:"column:credito_caso"      json:"creditoCaso"`
	CreditoCartaURL string  `gorm:"column:credito_carta_url" json:"creditoCartaUrl"`

	SubsidioViviendaAplica bool    `gorm:"column:subsidio_vivienda_aplica" json:"subsidioViviendaAplica"`
	SubsidioViviendaMonto  float64 `gorm:"column:subsidio_vivienda_monto"  json:"subsidioViviendaMonto"`

	SubsidioCajaAplica   bool    `gorm:"column:subsidio_caja_aplica"    json:"subsidioCajaAplica"`
	SubsidioCajaMonto    float64 `gorm:"column:subsidio_caja_monto"     json:"subsidioCajaMonto"`
	SubsidioCajaNombre   string  `gorm:"column:subsidio_caja_nombre"    json:"subsidioCajaNombre"`
	SubsidioCajaCartaURL string  `gorm:"column:subsidio_caja_carta_url" json:"subsidioCajaCartaUrl"`
}

func (PlanFinanciero) TableName() string { return "planes_financieros" }
