package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"sync"

	"github.com/NRodriguezT98/ryr-app-sub002/internal/auditoria"
	"github.com/NRodriguezT98/ryr-app-sub002/models"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // en desarrollo se permite cualquier origen
	},
}

// GlobalHub es la única instancia del hub del historial en vivo.
var GlobalHub = NewHub()

// eventoEnVivo es lo que reciben las vistas de historial suscritas: el
// evento crudo más su interpretación, listo para pintar sin otro roundtrip.
type eventoEnVivo struct {
	Evento      models.AuditEvent     `json:"evento"`
	Descripcion auditoria.Descripcion `json:"descripcion"`
}

type timelineClient struct {
	hub  *Hub
	conn *websocket.Conn
	send chan []byte
	// clienteID filtra la suscripción; 0 recibe el historial completo.
	clienteID uint
}

// Hub reparte los eventos de auditoría recién anexados a las vistas de
// historial conectadas.
type Hub struct {
	clients    map[*timelineClient]bool
	broadcast  chan eventoEnVivo
	register   chan *timelineClient
	unregister chan *timelineClient
	mu         sync.Mutex
}

func NewHub() *Hub {
	return &Hub{
		broadcast:  make(chan eventoEnVivo, 16),
		register:   make(chan *timelineClient),
		unregister: make(chan *timelineClient),
		clients:    make(map[*timelineClient]bool),
	}
}

func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			h.mu.Unlock()

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
			}
			h.mu.Unlock()

		case evento := <-h.broadcast:
			h.repartir(evento)
		}
	}
}

func (h *Hub) repartir(evento eventoEnVivo) {
	data, err := json.Marshal(evento)
	if err != nil {
		slog.Error("No se pudo serializar el evento para el hub", "error", err)
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for client := range h.clients {
		if client.clienteID != 0 && client.clienteID != evento.Evento.Contexto.ClienteID {
			continue
		}
		select {
		case client.send <- data:
		default:
			// cliente lento: se desconecta en lugar de frenar al resto
			delete(h.clients, client)
			close(client.send)
		}
	}
}

// Notificar publica un evento recién persistido a los suscriptores.
func (h *Hub) Notificar(ev models.AuditEvent) {
	select {
	case h.broadcast <- eventoEnVivo{Evento: ev, Descripcion: auditoria.Interpretar(ev)}:
	default:
		slog.Warn("Hub saturado; se descarta la notificación en vivo", "evento", ev.ID)
	}
}

// TimelineWSEndpoint suscribe una vista de historial por websocket.
// Parámetro opcional clienteId para filtrar un solo cliente.
func TimelineWSEndpoint(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		slog.Error("Falló el upgrade a websocket", "error", err)
		return
	}

	clienteID := uint(0)
	if id := c.Query("clienteId"); id != "" {
		if parsed, err := strconv.ParseUint(id, 10, 32); err == nil {
			clienteID = uint(parsed)
		}
	}

	client := &timelineClient{
		hub:       GlobalHub,
		conn:      conn,
		send:      make(chan []byte, 8),
		clienteID: clienteID,
	}
	GlobalHub.register <- client

	go client.escribir()
	go client.leer()
}

func (cl *timelineClient) escribir() {
	defer cl.conn.Close()
	for data := range cl.send {
		if err := cl.conn.WriteMessage(websocket.TextMessage, data); err != nil {
			return
		}
	}
}

func (cl *timelineClient) leer() {
	defer func() {
		cl.hub.unregister <- cl
		cl.conn.Close()
	}()
	for {
		// el historial es de solo lectura; los mensajes entrantes se ignoran
		if _, _, err := cl.conn.ReadMessage(); err != nil {
			return
		}
	}
}
