package handlers

import (
	"net/http"

	"github.com/NRodriguezT98/ryr-app-sub002/config"
	"github.com/NRodriguezT98/ryr-app-sub002/models"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// ListRolesHandler devuelve los roles con sus permisos.
func ListRolesHandler(c *gin.Context) {
	var roles []models.Role
	if err := config.DB.Preload("Permissions").Order("name").Find(&roles).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "No se pudieron listar los roles"})
		return
	}
	if roles == nil {
		roles = make([]models.Role, 0)
	}
	c.JSON(http.StatusOK, roles)
}

// ListPermissionsHandler devuelve el catálogo de permisos agrupables por
// categoría.
func ListPermissionsHandler(c *gin.Context) {
	var permisos []models.Permission
	if err := config.DB.Order("category, name").Find(&permisos).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "No se pudieron listar los permisos"})
		return
	}
	c.JSON(http.StatusOK, permisos)
}

type roleInput struct {
	Name          string `json:"name" binding:"required"`
	Description   string `json:"description"`
	PermissionIDs []uint `json:"permissionIds"`
}

// CreateRoleHandler crea un rol y le asocia sus permisos.
func CreateRoleHandler(c *gin.Context) {
	var input roleInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	role := models.Role{Name: input.Name, Description: input.Description}
	err := config.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&role).Error; err != nil {
			return err
		}
		if len(input.PermissionIDs) == 0 {
			return nil
		}
		var permisos []models.Permission
		if err := tx.Find(&permisos, input.PermissionIDs).Error; err != nil {
			return err
		}
		return tx.Model(&role).Association("Permissions").Replace(permisos)
	})
	if err != nil {
		c.JSON(http.StatusConflict, gin.H{"error": "No se pudo crear el rol; el nombre puede estar en uso"})
		return
	}
	c.JSON(http.StatusCreated, role)
}

// UpdateRoleHandler actualiza el rol y reemplaza su conjunto de permisos. El
// caché de sesión de los usuarios afectados se invalida para que el cambio
// rija de inmediato.
func UpdateRoleHandler(c *gin.Context) {
	var role models.Role
	if err := config.DB.First(&role, c.Param("id")).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "El rol no existe"})
		return
	}

	var input roleInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	role.Name = input.Name
	role.Description = input.Description
	err := config.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Save(&role).Error; err != nil {
			return err
		}
		var permisos []models.Permission
		if len(input.PermissionIDs) > 0 {
			if err := tx.Find(&permisos, input.PermissionIDs).Error; err != nil {
				return err
			}
		}
		return tx.Model(&role).Association("Permissions").Replace(permisos)
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "No se pudo actualizar el rol"})
		return
	}

	invalidarCacheDeRol(role.ID)
	c.JSON(http.StatusOK, role)
}

// DeleteRoleHandler elimina un rol que ningún usuario tenga asignado.
func DeleteRoleHandler(c *gin.Context) {
	var role models.Role
	if err := config.DB.First(&role, c.Param("id")).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "El rol no existe"})
		return
	}

	var asignados int64
	config.DB.Table("user_roles").Where("role_id = ?", role.ID).Count(&asignados)
	if asignados > 0 {
		c.JSON(http.StatusConflict, gin.H{"error": "El rol tiene usuarios asignados"})
		return
	}

	err := config.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&role).Association("Permissions").Clear(); err != nil {
			return err
		}
		return tx.Delete(&role).Error
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "No se pudo eliminar el rol"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Rol eliminado"})
}

// invalidarCacheDeRol borra de Redis los datos de sesión de los usuarios que
// tienen el rol, para que los permisos nuevos apliquen sin esperar al TTL.
func invalidarCacheDeRol(roleID uint) {
	if config.RDB == nil {
		return
	}
	var userIDs []uint
	config.DB.Table("user_roles").Where("role_id = ?", roleID).Pluck("user_id", &userIDs)
	for _, id := range userIDs {
		config.RDB.Del(config.Ctx, userCacheKey(id))
	}
}
