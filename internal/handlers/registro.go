package handlers

import (
	"time"

	"github.com/NRodriguezT98/ryr-app-sub002/models"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// contextoDe arma el contexto de auditoría de un cliente y su vivienda.
func contextoDe(cliente models.Cliente) models.ContextoAuditoria {
	ctx := models.ContextoAuditoria{
		ClienteID:     cliente.ID,
		ClienteNombre: cliente.NombreCompleto(),
	}
	if cliente.Vivienda != nil {
		ctx.Manzana = cliente.Vivienda.Manzana
		ctx.NumeroCasa = cliente.Vivienda.NumeroCasa
		if cliente.Vivienda.Proyecto != nil {
			ctx.Proyecto = cliente.Vivienda.Proyecto.Nombre
		}
	}
	return ctx
}

// nuevoEvento construye un AuditEvent estructurado listo para anexar.
func nuevoEvento(c *gin.Context, accion string, ctx models.ContextoAuditoria, data models.JSONB) models.AuditEvent {
	return models.AuditEvent{
		ID:         uuid.New().String(),
		Timestamp:  time.Now(),
		UserName:   currentUserName(c),
		ActionType: &accion,
		Contexto:   ctx,
		ActionData: data,
	}
}

// registrarEvento anexa el evento dentro de la transacción dada. El
// historial es append-only: los eventos jamás se actualizan. La notificación
// al hub corre por cuenta del caller, después del commit.
func registrarEvento(tx *gorm.DB, ev models.AuditEvent) error {
	return tx.Create(&ev).Error
}
