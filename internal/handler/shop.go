package handler

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/pluspoint/pluspoint/internal/auth"
	"github.com/pluspoint/pluspoint/internal/errs"
	"github.com/pluspoint/pluspoint/internal/model"
	"github.com/pluspoint/pluspoint/internal/push"
	"github.com/pluspoint/pluspoint/internal/shop"
	"github.com/pluspoint/pluspoint/internal/store"
	"github.com/pluspoint/pluspoint/internal/websocket"
)

type ShopHandler struct {
	items     *store.ShopStore
	purchases *store.PurchaseStore
	profiles  *store.ProfileStore
	workflow  *shop.Workflow
	hub       *websocket.Hub
	notifier  *push.Notifier
	logger    *slog.Logger
}

func NewShopHandler(items *store.ShopStore, purchases *store.PurchaseStore, profiles *store.ProfileStore,
	workflow *shop.Workflow, hub *websocket.Hub, notifier *push.Notifier, logger *slog.Logger) *ShopHandler {
	return &ShopHandler{
		items:     items,
		purchases: purchases,
		profiles:  profiles,
		workflow:  workflow,
		hub:       hub,
		notifier:  notifier,
		logger:    logger,
	}
}

type shopItemRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Price       int    `json:"price"`
	ImageURL    string `json:"image_url"`
}

func (r *shopItemRequest) validate() error {
	r.Name = strings.TrimSpace(r.Name)
	if r.Name == "" {
		return fmt.Errorf("%w: name is required", errs.ErrInvalidArgument)
	}
	if r.Price <= 0 {
		return fmt.Errorf("%w: price must be positive", errs.ErrInvalidArgument)
	}
	return nil
}

// CreateItem adds a shop item owned by the calling parent.
func (h *ShopHandler) CreateItem(w http.ResponseWriter, r *http.Request) {
	var req shopItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON"})
		return
	}
	if err := req.validate(); err != nil {
		writeDomainError(w, h.logger, err)
		return
	}

	parentID := auth.ProfileID(r.Context())
	item, err := h.items.Create(parentID, req.Name, req.Description, req.Price, req.ImageURL)
	if err != nil {
		writeDomainError(w, h.logger, err)
		return
	}

	h.hub.Publish(websocket.NewMessage(websocket.ShopTopic(parentID), "shop_item", "created", item.ID, nil))
	writeJSON(w, http.StatusCreated, item)
}

// ListItems returns the family's shop: a parent sees its own items, a child
// sees its parent's.
func (h *ShopHandler) ListItems(w http.ResponseWriter, r *http.Request) {
	ac, _ := auth.FromContext(r.Context())

	ownerID := ac.ProfileID
	if ac.Role == model.RoleChild {
		ownerID = ac.ParentID
	}

	items, err := h.items.ListByOwner(ownerID)
	if err != nil {
		writeDomainError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, items)
}

// UpdateItem edits a shop item. The new price applies only to future
// purchases.
func (h *ShopHandler) UpdateItem(w http.ResponseWriter, r *http.Request) {
	var req shopItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON"})
		return
	}
	if err := req.validate(); err != nil {
		writeDomainError(w, h.logger, err)
		return
	}

	item, err := h.ownedItem(r)
	if err != nil {
		writeDomainError(w, h.logger, err)
		return
	}

	updated, err := h.items.Update(item.ID, req.Name, req.Description, req.Price, req.ImageURL)
	if err != nil {
		writeDomainError(w, h.logger, err)
		return
	}

	h.hub.Publish(websocket.NewMessage(websocket.ShopTopic(item.OwnerParentID), "shop_item", "updated", item.ID, nil))
	writeJSON(w, http.StatusOK, updated)
}

// DeleteItem removes a shop item. Existing purchases keep their name and
// price snapshots.
func (h *ShopHandler) DeleteItem(w http.ResponseWriter, r *http.Request) {
	item, err := h.ownedItem(r)
	if err != nil {
		writeDomainError(w, h.logger, err)
		return
	}

	if err := h.items.Delete(item.ID); err != nil {
		writeDomainError(w, h.logger, err)
		return
	}

	h.hub.Publish(websocket.NewMessage(websocket.ShopTopic(item.OwnerParentID), "shop_item", "deleted", item.ID, nil))
	w.WriteHeader(http.StatusNoContent)
}

func (h *ShopHandler) ownedItem(r *http.Request) (*model.ShopItem, error) {
	item, err := h.items.GetByID(r.PathValue("id"))
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, errs.ErrNotFound
	}
	if item.OwnerParentID != auth.ProfileID(r.Context()) {
		return nil, errs.ErrUnauthorized
	}
	return item, nil
}

// Purchase buys a shop item with the calling child's points.
func (h *ShopHandler) Purchase(w http.ResponseWriter, r *http.Request) {
	childID := auth.ProfileID(r.Context())

	record, err := h.workflow.Purchase(r.Context(), childID, r.PathValue("id"))
	if err != nil {
		writeDomainError(w, h.logger, err)
		return
	}

	child, err := h.profiles.GetByID(childID)
	if err == nil && child != nil {
		h.hub.Publish(websocket.NewMessage(
			websocket.ProfileTopic(childID), "profile", "balance_changed", childID,
			map[string]any{"point_balance": child.PointBalance},
		))
		h.notifier.NotifyPurchase(record.ParentID, child.DisplayName, record.ItemName, record.Price)
	}
	h.hub.Publish(websocket.NewMessage(websocket.PurchasesTopic(childID), "purchase", "created", record.ID, nil))
	h.hub.Publish(websocket.NewMessage(websocket.NotificationsTopic(record.ParentID), "notification", "created", "", nil))

	writeJSON(w, http.StatusCreated, record)
}

// ListPurchases returns the calling child's purchase history.
func (h *ShopHandler) ListPurchases(w http.ResponseWriter, r *http.Request) {
	purchases, err := h.purchases.ListByChild(auth.ProfileID(r.Context()))
	if err != nil {
		writeDomainError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, purchases)
}

// CashIn marks a purchase as redeemed.
func (h *ShopHandler) CashIn(w http.ResponseWriter, r *http.Request) {
	childID := auth.ProfileID(r.Context())

	record, err := h.workflow.CashIn(r.Context(), childID, r.PathValue("id"))
	if err != nil {
		writeDomainError(w, h.logger, err)
		return
	}

	h.hub.Publish(websocket.NewMessage(websocket.PurchasesTopic(childID), "purchase", "cashed_in", record.ID, nil))
	writeJSON(w, http.StatusOK, record)
}
