package websocket

import (
	"encoding/json"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"mailfly/backend/internal/domain"
)

// AccessChecker 判断调用方凭据是否能访问指定邮箱。
type AccessChecker interface {
	CheckAccess(address, presentedKey, userID string) bool
}

// CallerResolver 从 Authorization 头解析出用户身份。
type CallerResolver interface {
	ResolveCaller(authorizationHeader string) string
}

// Message 是推送给客户端的新邮件通知。
type Message struct {
	Type      string          `json:"type"`
	Address   string          `json:"address"`
	Data      json.RawMessage `json:"data,omitempty"`
	Timestamp time.Time       `json:"timestamp"`
}

// Hub 按邮箱地址维护 WebSocket 订阅，新邮件到达时推送摘要。
type Hub struct {
	upgrader websocket.Upgrader
	checker  AccessChecker
	resolver CallerResolver
	logger   *zap.Logger

	mu      sync.RWMutex
	clients map[string]map[*client]struct{} // address -> 连接集合
}

type client struct {
	conn *websocket.Conn
	send chan []byte
}

// NewHub 创建 Hub。allowedOrigins 控制升级请求的 Origin 校验。
func NewHub(allowedOrigins []string, checker AccessChecker, resolver CallerResolver, logger *zap.Logger) *Hub {
	return &Hub{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     originChecker(allowedOrigins),
		},
		checker:  checker,
		resolver: resolver,
		logger:   logger,
		clients:  make(map[string]map[*client]struct{}),
	}
}

func originChecker(allowedOrigins []string) func(*http.Request) bool {
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		for _, allowed := range allowedOrigins {
			if allowed == "*" || allowed == origin {
				return true
			}
		}
		return false
	}
}

// ServeWS 处理 GET /api/ws/:address 的升级请求。
// 访问控制与 HTTP 接口一致：key 查询参数或承载令牌。
func (h *Hub) ServeWS(c *gin.Context) {
	address := strings.ToLower(c.Param("address"))
	key := c.Query("key")
	userID := h.resolver.ResolveCaller(c.GetHeader("Authorization"))

	if !h.checker.CheckAccess(address, key, userID) {
		c.JSON(http.StatusForbidden, gin.H{"error": "无权访问该邮箱"})
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}

	cl := &client{conn: conn, send: make(chan []byte, 16)}
	h.addClient(address, cl)

	go h.writeLoop(address, cl)
	go h.readLoop(address, cl)
}

// NotifyNewMail 向订阅了该邮箱的所有连接推送新邮件摘要。
func (h *Hub) NotifyNewMail(address string, summary domain.EmailSummary) {
	data, err := json.Marshal(summary)
	if err != nil {
		return
	}
	payload, err := json.Marshal(Message{
		Type:      "new_mail",
		Address:   address,
		Data:      data,
		Timestamp: time.Now().UTC(),
	})
	if err != nil {
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for cl := range h.clients[address] {
		select {
		case cl.send <- payload:
		default:
			// 慢客户端丢弃本条通知
		}
	}
}

func (h *Hub) addClient(address string, cl *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.clients[address] == nil {
		h.clients[address] = make(map[*client]struct{})
	}
	h.clients[address][cl] = struct{}{}
}

func (h *Hub) removeClient(address string, cl *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if set, ok := h.clients[address]; ok {
		if _, ok := set[cl]; ok {
			delete(set, cl)
			close(cl.send)
			if len(set) == 0 {
				delete(h.clients, address)
			}
		}
	}
}

func (h *Hub) writeLoop(address string, cl *client) {
	ticker := time.NewTicker(30 * time.Second)
	defer func() {
		ticker.Stop()
		cl.conn.Close()
	}()

	for {
		select {
		case payload, ok := <-cl.send:
			if !ok {
				cl.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			cl.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := cl.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				return
			}
		case <-ticker.C:
			cl.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := cl.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (h *Hub) readLoop(address string, cl *client) {
	defer func() {
		h.removeClient(address, cl)
		cl.conn.Close()
	}()

	cl.conn.SetReadLimit(1024)
	cl.conn.SetReadDeadline(time.Now().Add(90 * time.Second))
	cl.conn.SetPongHandler(func(string) error {
		cl.conn.SetReadDeadline(time.Now().Add(90 * time.Second))
		return nil
	})

	for {
		if _, _, err := cl.conn.ReadMessage(); err != nil {
			return
		}
	}
}
