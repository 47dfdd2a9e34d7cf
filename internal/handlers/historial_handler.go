package handlers

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/NRodriguezT98/ryr-app-sub002/config"
	"github.com/NRodriguezT98/ryr-app-sub002/internal/auditoria"
	"github.com/NRodriguezT98/ryr-app-sub002/models"

	"github.com/gin-gonic/gin"
	"github.com/xuri/excelize/v2"
)

// eventoInterpretado es la fila del historial tal como la consume la vista:
// el evento crudo más su descripción legible y los cambios de archivo.
type eventoInterpretado struct {
	Evento      models.AuditEvent          `json:"evento"`
	Descripcion auditoria.Descripcion      `json:"descripcion"`
	Archivos    []auditoria.CambioArchivo  `json:"archivos,omitempty"`
	ResumenArch *auditoria.ResumenArchivos `json:"resumenArchivos,omitempty"`
}

func interpretarEventos(eventos []models.AuditEvent) []eventoInterpretado {
	filas := make([]eventoInterpretado, 0, len(eventos))
	for _, ev := range eventos {
		fila := eventoInterpretado{
			Evento:      ev,
			Descripcion: auditoria.Interpretar(ev),
		}
		if cambios := auditoria.ExtraerCambiosArchivo(ev); len(cambios) > 0 {
			resumen := auditoria.Resumen(cambios)
			fila.Archivos = cambios
			fila.ResumenArch = &resumen
		}
		filas = append(filas, fila)
	}
	return filas
}

func ventanaDedup(c *gin.Context) time.Duration {
	segundos, err := strconv.Atoi(c.Query("ventanaDedup"))
	if err != nil || segundos <= 0 {
		return auditoria.VentanaDedupPorDefecto
	}
	return time.Duration(segundos) * time.Second
}

// GetHistorialClienteHandler devuelve el historial de un cliente, más
// reciente primero, con las actualizaciones genéricas de proceso deduplicadas
// contra los pasos completados cercanos.
func GetHistorialClienteHandler(c *gin.Context) {
	clienteID := paramID(c)

	var todos []models.AuditEvent
	if err := config.DB.
		Where("cliente_id = ?", clienteID).
		Order("timestamp DESC").
		Find(&todos).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "No se pudo cargar el historial"})
		return
	}

	filtrados := auditoria.FiltrarHistorial(todos, ventanaDedup(c))

	// Paginación en memoria: el filtro de deduplicación decide el total.
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	if page < 1 {
		page = 1
	}
	inicio := (page - 1) * HistorialPageSize
	if inicio > len(filtrados) {
		inicio = len(filtrados)
	}
	fin := inicio + HistorialPageSize
	if fin > len(filtrados) {
		fin = len(filtrados)
	}

	c.JSON(http.StatusOK, gin.H{
		"data": interpretarEventos(filtrados[inicio:fin]),
		"pagination": gin.H{
			"currentPage": page,
			"pageSize":    HistorialPageSize,
			"totalRows":   len(filtrados),
			"totalPages":  (len(filtrados) + HistorialPageSize - 1) / HistorialPageSize,
		},
	})
}

// GetHistorialGlobalHandler lista la actividad de toda la aplicación, con
// filtros por usuario y tipo de acción. Aquí no se deduplica: la vista de
// administración muestra todo.
func GetHistorialGlobalHandler(c *gin.Context) {
	var eventos []models.AuditEvent
	var totalRows int64

	base := config.DB.Model(&models.AuditEvent{})
	if userName := c.Query("userName"); userName != "" {
		base = base.Where("user_name = ?", userName)
	}
	if accion := c.Query("accion"); accion != "" {
		base = base.Where("action_type = ?", accion)
	}
	if desde := c.Query("desde"); desde != "" {
		base = base.Where("timestamp >= ?", desde)
	}
	if hasta := c.Query("hasta"); hasta != "" {
		base = base.Where("timestamp <= ?", hasta)
	}

	base.Count(&totalRows)
	if err := base.Scopes(Paginate(c)).
		Order("timestamp DESC").
		Find(&eventos).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "No se pudo cargar el historial"})
		return
	}

	c.JSON(http.StatusOK, CreatePaginatedResponse(c, interpretarEventos(eventos), totalRows))
}

// ExportHistorialHandler genera el historial de un cliente como archivo
// Excel, ya interpretado, para entregarlo fuera de la aplicación.
func ExportHistorialHandler(c *gin.Context) {
	clienteID := paramID(c)

	var cliente models.Cliente
	if err := config.DB.First(&cliente, clienteID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "El cliente no existe"})
		return
	}

	var eventos []models.AuditEvent
	if err := config.DB.
		Where("cliente_id = ?", clienteID).
		Order("timestamp DESC").
		Find(&eventos).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "No se pudo cargar el historial"})
		return
	}
	eventos = auditoria.FiltrarHistorial(eventos, ventanaDedup(c))

	f := excelize.NewFile()
	defer f.Close()
	hoja := "Historial"
	f.SetSheetName("Sheet1", hoja)

	encabezados := []string{"Fecha", "Usuario", "Acción", "Descripción"}
	for i, h := range encabezados {
		celda, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(hoja, celda, h)
	}
	estilo, _ := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	f.SetCellStyle(hoja, "A1", "D1", estilo)
	f.SetColWidth(hoja, "A", "A", 18)
	f.SetColWidth(hoja, "B", "C", 24)
	f.SetColWidth(hoja, "D", "D", 90)

	for i, ev := range eventos {
		fila := i + 2
		f.SetCellValue(hoja, fmt.Sprintf("A%d", fila), ev.Timestamp.Format("02/01/2006 15:04"))
		f.SetCellValue(hoja, fmt.Sprintf("B%d", fila), ev.UserName)
		f.SetCellValue(hoja, fmt.Sprintf("C%d", fila), ev.Accion())
		f.SetCellValue(hoja, fmt.Sprintf("D%d", fila), auditoria.Interpretar(ev).Texto)
	}

	nombre := fmt.Sprintf("historial_%s_%s.xlsx", cliente.Cedula, time.Now().Format("20060102"))
	c.Header("Content-Disposition", "attachment; filename="+nombre)
	c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	if err := f.Write(c.Writer); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "No se pudo generar el archivo"})
	}
}

// ExportCarteraHandler exporta los abonos vigentes a Excel, con los totales
// por fuente al final.
func ExportCarteraHandler(c *gin.Context) {
	var abonos []AbonoResponse
	if err := config.DB.Table("abonos a").
		Joins("LEFT JOIN clientes cl ON a.cliente_id = cl.id").
		Joins("LEFT JOIN viviendas v ON a.vivienda_id = v.id").
		Where("a.deleted_at IS NULL").
		Select(consultaAbonos).
		Order("a.fecha_pago DESC").
		Scan(&abonos).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "No se pudieron cargar los abonos"})
		return
	}

	f := excelize.NewFile()
	defer f.Close()
	hoja := "Cartera"
	f.SetSheetName("Sheet1", hoja)

	encabezados := []string{"Cliente", "Vivienda", "Fuente", "Monto", "Fecha", "Método", "Desembolso"}
	for i, h := range encabezados {
		celda, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(hoja, celda, h)
	}
	estilo, _ := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	f.SetCellStyle(hoja, "A1", "G1", estilo)

	totales := map[string]float64{}
	for i, ab := range abonos {
		fila := i + 2
		f.SetCellValue(hoja, fmt.Sprintf("A%d", fila), ab.ClienteNombre)
		f.SetCellValue(hoja, fmt.Sprintf("B%d", fila), ab.Ubicacion)
		f.SetCellValue(hoja, fmt.Sprintf("C%d", fila), ab.FuenteRecurso)
		f.SetCellValue(hoja, fmt.Sprintf("D%d", fila), ab.Monto)
		f.SetCellValue(hoja, fmt.Sprintf("E%d", fila), ab.FechaPago)
		f.SetCellValue(hoja, fmt.Sprintf("F%d", fila), ab.MetodoPago)
		if ab.EsDesembolso {
			f.SetCellValue(hoja, fmt.Sprintf("G%d", fila), "Sí")
		}
		totales[ab.FuenteRecurso] += ab.Monto
	}

	fila := len(abonos) + 3
	for fuente, total := range totales {
		f.SetCellValue(hoja, fmt.Sprintf("C%d", fila), fuente)
		f.SetCellValue(hoja, fmt.Sprintf("D%d", fila), auditoria.Moneda(total))
		fila++
	}

	nombre := fmt.Sprintf("cartera_%s.xlsx", time.Now().Format("20060102"))
	c.Header("Content-Disposition", "attachment; filename="+nombre)
	c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	if err := f.Write(c.Writer); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "No se pudo generar el archivo"})
	}
}
