// Package rest exposes the engine's operations over HTTP. Every
// response body is the full observable session snapshot; user-facing
// failures come back as 200 with the snapshot's error field set, and
// only malformed requests earn a 400.
package rest

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/kasuganosora/scriptrpg/game/session"
)

// maxScriptBytes caps uploaded script documents.
const maxScriptBytes = 4 << 20

// Handler adapts engine operations to gin routes.
type Handler struct {
	engine *session.Engine
}

func NewHandler(engine *session.Engine) *Handler {
	return &Handler{engine: engine}
}

// Register mounts every route under the given group.
func (h *Handler) Register(g *gin.RouterGroup) {
	g.POST("/script", h.LoadScript)
	g.GET("/state", h.State)

	g.POST("/scene/advance", h.Advance)
	g.POST("/scene/choice", h.Choose)

	g.POST("/reset", h.Reset)
	g.POST("/session/clear", h.ClearSession)
	g.POST("/session/save", h.Save)
	g.POST("/session/load", h.Load)

	g.POST("/player/rest", h.Rest)
	g.POST("/items/use", h.UseItem)
	g.POST("/equipment/toggle", h.ToggleEquipment)

	g.POST("/shop/open", h.OpenShop)
	g.POST("/shop/close", h.CloseShop)
	g.POST("/shop/buy", h.Buy)
	g.POST("/shop/sell", h.Sell)

	g.POST("/combat/attack", h.Attack)
	g.POST("/combat/skill", h.CastSkill)
	g.POST("/combat/item", h.UseCombatItem)
	g.POST("/combat/flee", h.Flee)
	g.POST("/combat/target", h.SetTarget)
	g.POST("/combat/active-skill", h.SetActiveSkill)
	g.POST("/combat/restart", h.RestartCombat)

	g.POST("/delegation/toggle", h.ToggleDelegation)
}

func reply(c *gin.Context, v session.View) {
	c.JSON(http.StatusOK, v)
}

// LoadScript accepts the raw script JSON as the request body.
// POST /api/script
func (h *Handler) LoadScript(c *gin.Context) {
	raw, err := io.ReadAll(io.LimitReader(c.Request.Body, maxScriptBytes))
	if err != nil || len(raw) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "script body required"})
		return
	}
	reply(c, h.engine.LoadScript(raw))
}

// State returns the current snapshot without mutating anything.
// GET /api/state
func (h *Handler) State(c *gin.Context) {
	reply(c, h.engine.View())
}

type advanceRequest struct {
	SceneID *string `json:"sceneId"`
}

// Advance moves to a scene; a null or absent sceneId follows the
// end-of-branch path.
// POST /api/scene/advance
func (h *Handler) Advance(c *gin.Context) {
	var req advanceRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}
	if req.SceneID != nil && *req.SceneID == "" {
		req.SceneID = nil
	}
	reply(c, h.engine.Advance(req.SceneID))
}

type choiceRequest struct {
	ChoiceID string `json:"choiceId" binding:"required"`
}

// POST /api/scene/choice
func (h *Handler) Choose(c *gin.Context) {
	var req choiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "choiceId required"})
		return
	}
	reply(c, h.engine.Choose(req.ChoiceID))
}

// POST /api/reset
func (h *Handler) Reset(c *gin.Context) {
	reply(c, h.engine.Reset())
}

// POST /api/session/clear
func (h *Handler) ClearSession(c *gin.Context) {
	reply(c, h.engine.ClearSession())
}

// POST /api/session/save
func (h *Handler) Save(c *gin.Context) {
	reply(c, h.engine.Save())
}

// POST /api/session/load
func (h *Handler) Load(c *gin.Context) {
	reply(c, h.engine.Load())
}

// POST /api/player/rest
func (h *Handler) Rest(c *gin.Context) {
	reply(c, h.engine.Rest())
}

type itemRequest struct {
	ItemID string `json:"itemId" binding:"required"`
}

// POST /api/items/use
func (h *Handler) UseItem(c *gin.Context) {
	var req itemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "itemId required"})
		return
	}
	reply(c, h.engine.UseItem(req.ItemID))
}

// POST /api/equipment/toggle
func (h *Handler) ToggleEquipment(c *gin.Context) {
	var req itemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "itemId required"})
		return
	}
	reply(c, h.engine.ToggleEquipment(req.ItemID))
}

// POST /api/shop/open
func (h *Handler) OpenShop(c *gin.Context) {
	reply(c, h.engine.OpenShop())
}

// POST /api/shop/close
func (h *Handler) CloseShop(c *gin.Context) {
	reply(c, h.engine.CloseShop())
}

type tradeRequest struct {
	ItemID   string `json:"itemId" binding:"required"`
	Quantity int    `json:"quantity"`
}

func (r *tradeRequest) qty() int {
	if r.Quantity <= 0 {
		return 1
	}
	return r.Quantity
}

// POST /api/shop/buy
func (h *Handler) Buy(c *gin.Context) {
	var req tradeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "itemId required"})
		return
	}
	reply(c, h.engine.Buy(req.ItemID, req.qty()))
}

// POST /api/shop/sell
func (h *Handler) Sell(c *gin.Context) {
	var req tradeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "itemId required"})
		return
	}
	reply(c, h.engine.Sell(req.ItemID, req.qty()))
}

// POST /api/combat/attack
func (h *Handler) Attack(c *gin.Context) {
	reply(c, h.engine.Attack())
}

type skillRequest struct {
	SkillID string `json:"skillId"`
}

// POST /api/combat/skill
func (h *Handler) CastSkill(c *gin.Context) {
	var req skillRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}
	reply(c, h.engine.CastSkill(req.SkillID))
}

// POST /api/combat/item
func (h *Handler) UseCombatItem(c *gin.Context) {
	var req itemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "itemId required"})
		return
	}
	reply(c, h.engine.UseCombatItem(req.ItemID))
}

// POST /api/combat/flee
func (h *Handler) Flee(c *gin.Context) {
	reply(c, h.engine.Flee())
}

type targetRequest struct {
	CombatID string `json:"combatId" binding:"required"`
}

// POST /api/combat/target
func (h *Handler) SetTarget(c *gin.Context) {
	var req targetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "combatId required"})
		return
	}
	reply(c, h.engine.SetTarget(req.CombatID))
}

// POST /api/combat/active-skill
func (h *Handler) SetActiveSkill(c *gin.Context) {
	var req skillRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}
	reply(c, h.engine.SetActiveSkill(req.SkillID))
}

// POST /api/combat/restart
func (h *Handler) RestartCombat(c *gin.Context) {
	reply(c, h.engine.RestartCombat())
}

// POST /api/delegation/toggle
func (h *Handler) ToggleDelegation(c *gin.Context) {
	reply(c, h.engine.ToggleDelegation())
}
