package httpapi

import (
	"net/http"

	"github.com/ashfall-games/wasteland/internal/game/shop"
)

func (a *API) handleListShop(w http.ResponseWriter, r *http.Request) {
	items, err := a.svc.ListShop(r.Context())
	if err != nil {
		a.writeError(w, err)
		return
	}
	a.writeJSON(w, http.StatusOK, map[string]any{"items": items})
}

func (a *API) handleCreateShopItem(w http.ResponseWriter, r *http.Request) {
	var item shop.Item
	if err := a.readJSON(r, &item); err != nil {
		a.writeError(w, err)
		return
	}
	created, err := a.svc.CreateShopItem(r.Context(), actor(r), item)
	if err != nil {
		a.writeError(w, err)
		return
	}
	a.writeJSON(w, http.StatusCreated, map[string]any{"item": created})
}

func (a *API) handleUpdateShopItem(w http.ResponseWriter, r *http.Request) {
	var u shop.Update
	if err := a.readJSON(r, &u); err != nil {
		a.writeError(w, err)
		return
	}
	item, err := a.svc.UpdateShopItem(r.Context(), actor(r), r.PathValue("id"), u)
	if err != nil {
		a.writeError(w, err)
		return
	}
	a.writeJSON(w, http.StatusOK, map[string]any{"item": item})
}

func (a *API) handleDeleteShopItem(w http.ResponseWriter, r *http.Request) {
	if err := a.svc.DeleteShopItem(r.Context(), actor(r), r.PathValue("id")); err != nil {
		a.writeError(w, err)
		return
	}
	a.writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

func (a *API) handleBuy(w http.ResponseWriter, r *http.Request) {
	ch, item, err := a.svc.Purchase(r.Context(), actor(r), r.PathValue("id"))
	if err != nil {
		a.writeError(w, err)
		return
	}
	a.writeJSON(w, http.StatusOK, map[string]any{
		"character": ch,
		"item":      item,
	})
}

func (a *API) handleCraft(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Recipe string `json:"recipe"`
	}
	if err := a.readJSON(r, &req); err != nil {
		a.writeError(w, err)
		return
	}
	result, ch, err := a.svc.Craft(r.Context(), actor(r), req.Recipe)
	if err != nil {
		a.writeError(w, err)
		return
	}
	a.writeJSON(w, http.StatusOK, map[string]any{
		"result":    result,
		"character": ch,
	})
}
