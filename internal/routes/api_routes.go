package routes

import (
	"github.com/NRodriguezT98/ryr-app-sub002/internal/handlers"
	"github.com/NRodriguezT98/ryr-app-sub002/internal/middleware"

	"github.com/gin-gonic/gin"
)

// RegisterAPIRoutes registra todas las rutas de API autenticadas.
func RegisterAPIRoutes(api *gin.RouterGroup) {
	apiGroup := api.Group("/api")
	{
		// --- CLIENTES ---
		clientes := apiGroup.Group("/clientes")
		clientes.Use(middleware.PermissionMiddleware("clientes_view"))
		{
			clientes.GET("", handlers.ListClientesHandler)
			clientes.POST("", middleware.PermissionMiddleware("clientes_create"), handlers.CreateClienteHandler)
			clientes.GET("/:id", handlers.GetClienteHandler)
			clientes.PUT("/:id", middleware.PermissionMiddleware("clientes_edit"), handlers.UpdateClienteHandler)
			clientes.POST("/:id/archivar", middleware.PermissionMiddleware("clientes_edit"), handlers.ArchivarClienteHandler)
			clientes.POST("/:id/restaurar", middleware.PermissionMiddleware("clientes_edit"), handlers.RestaurarClienteHandler)
			clientes.DELETE("/:id", middleware.PermissionMiddleware("clientes_delete"), handlers.EliminarClienteHandler)
			clientes.POST("/:id/transferir", middleware.PermissionMiddleware("clientes_edit"), handlers.TransferirClienteHandler)

			// Proceso del cliente
			clientes.GET("/:id/proceso", handlers.GetProcesoHandler)
			clientes.POST("/:id/proceso/:paso/completar", middleware.PermissionMiddleware("proceso_edit"), handlers.CompletarPasoHandler)
			clientes.POST("/:id/proceso/:paso/reapertura", middleware.PermissionMiddleware("proceso_edit"), handlers.IniciarReaperturaHandler)
			clientes.DELETE("/:id/proceso/:paso/reapertura", middleware.PermissionMiddleware("proceso_edit"), handlers.DeshacerReaperturaHandler)
			clientes.POST("/:id/proceso/:paso/reapertura/confirmar", middleware.PermissionMiddleware("proceso_edit"), handlers.ConfirmarReaperturaHandler)
			clientes.PUT("/:id/proceso/:paso/evidencias/:slot", middleware.PermissionMiddleware("proceso_edit"), handlers.UpdateEvidenciaHandler)
			clientes.POST("/:id/proceso/anular-cierre", middleware.PermissionMiddleware("proceso_admin"), handlers.AnularCierreHandler)

			// Plan financiero y conciliación
			clientes.GET("/:id/plan", handlers.GetPlanFinancieroHandler)
			clientes.PUT("/:id/plan", middleware.PermissionMiddleware("plan_edit"), handlers.UpdatePlanFinancieroHandler)
			clientes.GET("/:id/totales", handlers.GetTotalesHandler)

			// Renuncia
			clientes.POST("/:id/renuncia", middleware.PermissionMiddleware("renuncias_create"), handlers.CrearRenunciaHandler)

			// Historial del cliente
			clientes.GET("/:id/historial", handlers.GetHistorialClienteHandler)
			clientes.GET("/:id/historial/export", handlers.ExportHistorialHandler)
		}

		// --- ABONOS ---
		abonos := apiGroup.Group("/abonos")
		abonos.Use(middleware.PermissionMiddleware("abonos_view"))
		{
			abonos.GET("", handlers.ListAbonosHandler)
			abonos.POST("", middleware.PermissionMiddleware("abonos_create"), handlers.RegistrarAbonoHandler)
			abonos.POST("/desembolso", middleware.PermissionMiddleware("abonos_create"), handlers.RegistrarDesembolsoHandler)
			abonos.PUT("/:id", middleware.PermissionMiddleware("abonos_edit"), handlers.UpdateAbonoHandler)
			abonos.DELETE("/:id", middleware.PermissionMiddleware("abonos_delete"), handlers.AnularAbonoHandler)
			abonos.GET("/export", handlers.ExportCarteraHandler)
		}

		// --- RENUNCIAS ---
		renuncias := apiGroup.Group("/renuncias")
		renuncias.Use(middleware.PermissionMiddleware("renuncias_view"))
		{
			renuncias.GET("", handlers.ListRenunciasHandler)
			renuncias.GET("/:id", handlers.GetRenunciaHandler)
			renuncias.PUT("/:id", middleware.PermissionMiddleware("renuncias_edit"), handlers.UpdateRenunciaHandler)
			renuncias.POST("/:id/aprobar", middleware.PermissionMiddleware("renuncias_decide"), handlers.AprobarRenunciaHandler)
			renuncias.POST("/:id/rechazar", middleware.PermissionMiddleware("renuncias_decide"), handlers.RechazarRenunciaHandler)
		}

		// --- VIVIENDAS ---
		viviendas := apiGroup.Group("/viviendas")
		viviendas.Use(middleware.PermissionMiddleware("viviendas_view"))
		{
			viviendas.GET("", handlers.ListViviendasHandler)
			viviendas.POST("", middleware.PermissionMiddleware("viviendas_create"), handlers.CreateViviendaHandler)
			viviendas.GET("/:id", handlers.GetViviendaHandler)
			viviendas.PUT("/:id", middleware.PermissionMiddleware("viviendas_edit"), handlers.UpdateViviendaHandler)
			viviendas.DELETE("/:id", middleware.PermissionMiddleware("viviendas_delete"), handlers.DeleteViviendaHandler)
			viviendas.POST("/:id/asignar", middleware.PermissionMiddleware("viviendas_edit"), handlers.AsignarViviendaHandler)
			viviendas.POST("/:id/desasignar", middleware.PermissionMiddleware("viviendas_edit"), handlers.DesasignarViviendaHandler)
		}

		// --- PROYECTOS ---
		proyectos := apiGroup.Group("/proyectos")
		{
			proyectos.GET("", handlers.ListProyectosHandler)
			proyectos.POST("", middleware.PermissionMiddleware("proyectos_edit"), handlers.CreateProyectoHandler)
			proyectos.PUT("/:id", middleware.PermissionMiddleware("proyectos_edit"), handlers.UpdateProyectoHandler)
			proyectos.DELETE("/:id", middleware.PermissionMiddleware("proyectos_edit"), handlers.DeleteProyectoHandler)
		}

		// --- HISTORIAL GLOBAL Y FEED EN VIVO ---
		historial := apiGroup.Group("/historial")
		historial.Use(middleware.PermissionMiddleware("historial_view"))
		{
			historial.GET("", handlers.GetHistorialGlobalHandler)
			historial.GET("/ws", handlers.TimelineWSEndpoint)
		}

		// --- ARCHIVOS ---
		apiGroup.POST("/uploads/:carpeta", handlers.UploadFileHandler)

		// --- PERFIL ---
		apiGroup.GET("/profile", handlers.ProfileHandler)

		// --- ADMINISTRACIÓN DE USUARIOS Y ROLES ---
		usuarios := apiGroup.Group("/usuarios")
		usuarios.Use(middleware.PermissionMiddleware("admin"))
		{
			usuarios.GET("", handlers.ListUsersHandler)
			usuarios.POST("", handlers.RegisterUserHandler)
			usuarios.PUT("/:id/roles", handlers.SetUserRolesHandler)
			usuarios.DELETE("/:id", handlers.DeleteUserHandler)
		}

		roles := apiGroup.Group("/roles")
		roles.Use(middleware.PermissionMiddleware("admin"))
		{
			roles.GET("", handlers.ListRolesHandler)
			roles.POST("", handlers.CreateRoleHandler)
			roles.PUT("/:id", handlers.UpdateRoleHandler)
			roles.DELETE("/:id", handlers.DeleteRoleHandler)
			roles.GET("/permisos", handlers.ListPermissionsHandler)
		}
	}
}
