package handlers

import (
	"net/http"

	"github.com/NRodriguezT98/ryr-app-sub002/config"
	"github.com/NRodriguezT98/ryr-app-sub002/models"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// ListUsersHandler lista los usuarios con sus roles.
func ListUsersHandler(c *gin.Context) {
	var users []models.User
	var totalRows int64

	base := config.DB.Model(&models.User{})
	if search := c.Query("search"); search != "" {
		patron := "%" + search + "%"
		base = base.Where("login ILIKE ? OR display_name ILIKE ?", patron, patron)
	}

	base.Count(&totalRows)
	if err := base.Preload("Roles").Scopes(Paginate(c)).Order("display_name").Find(&users).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "No se pudieron listar los usuarios"})
		return
	}
	c.JSON(http.StatusOK, CreatePaginatedResponse(c, users, totalRows))
}

type userRolesInput struct {
	RoleIDs []uint `json:"roleIds"`
}

// SetUserRolesHandler reemplaza los roles del usuario e invalida su caché de
// sesión para que los permisos nuevos rijan de inmediato.
func SetUserRolesHandler(c *gin.Context) {
	var user models.User
	if err := config.DB.First(&user, c.Param("id")).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "El usuario no existe"})
		return
	}

	var input userRolesInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	err := config.DB.Transaction(func(tx *gorm.DB) error {
		var roles []models.Role
		if len(input.RoleIDs) > 0 {
			if err := tx.Find(&roles, input.RoleIDs).Error; err != nil {
				return err
			}
		}
		return tx.Model(&user).Association("Roles").Replace(roles)
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "No se pudieron asignar los roles"})
		return
	}

	if config.RDB != nil {
		config.RDB.Del(config.Ctx, userCacheKey(user.ID))
	}
	c.JSON(http.StatusOK, gin.H{"message": "Roles actualizados"})
}

// DeleteUserHandler elimina un usuario. Sus eventos del historial conservan
// el nombre con el que se registraron.
func DeleteUserHandler(c *gin.Context) {
	var user models.User
	if err := config.DB.First(&user, c.Param("id")).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "El usuario no existe"})
		return
	}

	err := config.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&user).Association("Roles").Clear(); err != nil {
			return err
		}
		return tx.Delete(&user).Error
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "No se pudo eliminar el usuario"})
		return
	}

	if config.RDB != nil {
		config.RDB.Del(config.Ctx, userCacheKey(user.ID))
	}
	c.JSON(http.StatusOK, gin.H{"message": "Usuario eliminado"})
}
