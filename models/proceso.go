package models

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"

	"gorm.io/gorm"
)

// EvidenciaSubida es un archivo ya cargado para un slot de evidencia.
// La identidad es el ID (uuid), no la URL: reemplazar un archivo crea una
// entrada con ID nuevo aunque la ruta de almacenamiento se parezca.
type EvidenciaSubida struct {
	ID          string    `json:"id"`
	URL         string    `json:"url"`
	FechaSubida time.Time `json:"fechaSubida"`
}

// EvidenciaMap mapea slotId -> evidencia cargada. Se persiste como jsonb.
type EvidenciaMap map[string]EvidenciaSubida

func (m EvidenciaMap) Value() (driver.Value, error) {
	if m == nil {
		return nil, nil
	}
	return json.Marshal(m)
}

func (m *EvidenciaMap) Scan(value interface{}) error {
	if value == nil {
		*m = nil
		return nil
	}
	switch v := value.(type) {
	case []byte:
		return json.Unmarshal(v, m)
	case string:
		return json.Unmarshal([]byte(v), m)
	default:
		return errors.New("tipo no soportado para columna jsonb")
	}
}

// PasoProceso es una etapa del proceso de compra de un cliente.
// La definición (orden, evidencias requeridas, hito/automático) viene de la
// plantilla en internal/proceso; aquí solo vive el estado persistido.
type PasoProceso struct {
	gorm.Model
	ClienteID uint   `gorm:"column:cliente_id;index:idx_paso_cliente_key,unique" json:"clienteId"`
	PasoKey   string `gorm:"column:paso_key;index:idx_paso_cliente_key,unique"   json:"pasoKey"`
	Orden     int    `gorm:"column:orden" json:"orden"`

	Completado      bool       `gorm:"column:completado"       json:"completado"`
	FechaCompletado *time.Time `gorm:"column:fecha_completado" json:"fechaCompletado,omitempty"`

	Evidencias EvidenciaMap `gorm:"column:evidencias;type:jsonb" json:"evidencias,omitempty"`
}

func (PasoProceso) TableName() string { return "pasos_proceso" }
