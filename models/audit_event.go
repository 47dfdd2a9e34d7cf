package models

import "time"

// Tipos de acción auditada. El conjunto es cerrado y los valores se
// reproducen tal cual están en los datos históricos: no se renombran.
const (
	AccionCreateClient         = "CREATE_CLIENT"
	AccionUpdateClient         = "UPDATE_CLIENT"
	AccionTransferClient       = "TRANSFER_CLIENT"
	AccionArchiveClient        = "ARCHIVE_CLIENT"
	AccionRestoreClient        = "RESTORE_CLIENT"
	AccionDeleteClient         = "DELETE_CLIENT_PERMANENTLY"
	AccionCompleteProcessStep  = "COMPLETE_PROCESS_STEP"
	AccionReopenProcessStep    = "REOPEN_PROCESS_STEP"
	AccionChangeCompletionDate = "CHANGE_COMPLETION_DATE"
	AccionChangeStepEvidence   = "CHANGE_STEP_EVIDENCE"
	AccionClientRenounce       = "CLIENT_RENOUNCE"
	AccionAnularCierreProceso  = "ANULAR_CIERRE_PROCESO"
	AccionRegisterAbono        = "REGISTER_ABONO"
	AccionRegisterDisbursement = "REGISTER_DISBURSEMENT"
	AccionUpdateAbono          = "UPDATE_ABONO"
	AccionArchiveAbono         = "ARCHIVE_ABONO"
	AccionAssignVivienda       = "ASSIGN_CLIENT_TO_VIVIENDA"
	AccionUnassignVivienda     = "UNASSIGN_CLIENT_FROM_VIVIENDA"
	AccionCreateRenuncia       = "CREATE_RENUNCIA"
	AccionUpdateRenuncia       = "UPDATE_RENUNCIA"
	AccionApproveRenuncia      = "APPROVE_RENUNCIA"
	AccionRejectRenuncia       = "REJECT_RENUNCIA"
)

// TodasLasAcciones lista el conjunto completo, en el orden de la enumeración.
var TodasLasAcciones = []string{
	AccionCreateClient, AccionUpdateClient, AccionTransferClient,
	AccionArchiveClient, AccionRestoreClient, AccionDeleteClient,
	AccionCompleteProcessStep, AccionReopenProcessStep,
	AccionChangeCompletionDate, AccionChangeStepEvidence,
	AccionClientRenounce, AccionAnularCierreProceso,
	AccionRegisterAbono, AccionRegisterDisbursement,
	AccionUpdateAbono, AccionArchiveAbono,
	AccionAssignVivienda, AccionUnassignVivienda,
	AccionCreateRenuncia, AccionUpdateRenuncia,
	AccionApproveRenuncia, AccionRejectRenuncia,
}

// ContextoAuditoria identifica sobre quién se actuó. Vive embebido en el
// evento para que el historial sea legible sin joins.
type ContextoAuditoria struct {
	ClienteID     uint   `gorm:"column:cliente_id;index" json:"clienteId"`
	ClienteNombre string `gorm:"column:cliente_nombre"   json:"clienteNombre"`
	Manzana       string `gorm:"column:manzana"          json:"manzana"`
	NumeroCasa    int    `gorm:"column:numero_casa"      json:"numeroCasa"`
	Proyecto      string `gorm:"column:proyecto"         json:"proyecto"`
}

// AuditEvent es un registro inmutable del historial: se crea exactamente una
// vez por mutación de negocio y nunca se actualiza.
//
// Conviven dos formas indefinidamente (no hay migración de datos históricos):
// los eventos estructurados traen ActionType + Contexto + ActionData; los
// legados solo traen Message y un Details con action/scenario. ActionType nil
// marca la forma legada.
type AuditEvent struct {
	ID        string    `gorm:"column:id;primaryKey" json:"id"`
	Timestamp time.Time `gorm:"column:timestamp;index" json:"timestamp"`
	UserName  string    `gorm:"column:user_name" json:"userName"`

	ActionType *string           `gorm:"column:action_type" json:"actionType,omitempty"`
	Contexto   ContextoAuditoria `gorm:"embedded" json:"contexto"`
	ActionData JSONB             `gorm:"column:action_data;type:jsonb" json:"actionData,omitempty"`

	// Forma legada.
	Message string `gorm:"column:message" json:"message,omitempty"`
	Details JSONB  `gorm:"column:details;type:jsonb" json:"details,omitempty"`
}

func (AuditEvent) TableName() string { return "audit_events" }

// EsLegado reporta si el evento tiene la forma antigua sin ActionType.
func (e AuditEvent) EsLegado() bool { return e.ActionType == nil }

// Accion devuelve la etiqueta de despacho normalizada: el ActionType si
// existe, o details.action en eventos legados, o cadena vacía.
func (e AuditEvent) Accion() string {
	if e.ActionType != nil {
		return *e.ActionType
	}
	if e.Details != nil {
		if a, ok := e.Details["action"].(string); ok {
			return a
		}
	}
	return ""
}
