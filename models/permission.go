package models

import "github.com/NRodriguezT98/ryr-app-sub002/config"

// Permission representa un permiso de acceso en la base de datos.
type Permission struct {
	ID          uint   `json:"id" gorm:"primaryKey"`
	Name        string `json:"name" gorm:"unique;not null"`
	Description string `json:"description"`
	Category    string `json:"category" gorm:"not null"` // Categoría para agrupar (p.ej. "Clientes", "Abonos")
}

// GetUserPermissions reúne los permisos únicos de un usuario a través de sus roles.
func GetUserPermissions(userID uint) ([]Permission, error) {
	var user User
	db := config.DB

	if err := db.Preload("Roles.Permissions").First(&user, userID).Error; err != nil {
		return nil, err
	}

	permissionMap := make(map[uint]Permission)
	for _, role := range user.Roles {
		for _, permission := range role.Permissions {
			permissionMap[permission.ID] = permission
		}
	}

	permissions := make([]Permission, 0, len(permissionMap))
	for _, permission := range permissionMap {
		permissions = append(permissions, permission)
	}

	return permissions, nil
}
