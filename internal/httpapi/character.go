package httpapi

import (
	"net/http"

	"github.com/ashfall-games/wasteland/internal/game/character"
	"github.com/ashfall-games/wasteland/internal/game/service"
)

func (a *API) handleListCharacters(w http.ResponseWriter, r *http.Request) {
	chars, err := a.svc.ListCharacters(r.Context())
	if err != nil {
		a.writeError(w, err)
		return
	}
	a.writeJSON(w, http.StatusOK, map[string]any{
		"characters": service.VisibleCharacters(actor(r), chars),
	})
}

func (a *API) handleGetCharacter(w http.ResponseWriter, r *http.Request) {
	ch, err := a.svc.GetCharacter(r.Context(), r.PathValue("id"))
	if err != nil {
		a.writeError(w, err)
		return
	}
	a.writeJSON(w, http.StatusOK, map[string]any{
		"character": service.VisibleCharacter(actor(r), ch),
	})
}

func (a *API) handleMyCharacter(w http.ResponseWriter, r *http.Request) {
	ch, err := a.svc.MyCharacter(r.Context(), actor(r))
	if err != nil {
		a.writeError(w, err)
		return
	}
	a.writeJSON(w, http.StatusOK, map[string]any{"character": ch})
}

func (a *API) handleCreateCharacter(w http.ResponseWriter, r *http.Request) {
	var req struct {
		character.CreationInput
		// OwnerID lets the DM create on another player's behalf.
		OwnerID string `json:"ownerId"`
	}
	if err := a.readJSON(r, &req); err != nil {
		a.writeError(w, err)
		return
	}
	ch, err := a.svc.CreateCharacter(r.Context(), actor(r), req.OwnerID, req.CreationInput)
	if err != nil {
		a.writeError(w, err)
		return
	}
	a.writeJSON(w, http.StatusCreated, map[string]any{"character": ch})
}

func (a *API) handlePatchCharacter(w http.ResponseWriter, r *http.Request) {
	var patch character.Patch
	if err := a.readJSON(r, &patch); err != nil {
		a.writeError(w, err)
		return
	}
	ch, err := a.svc.PatchCharacter(r.Context(), actor(r), r.PathValue("id"), patch)
	if err != nil {
		a.writeError(w, err)
		return
	}
	a.writeJSON(w, http.StatusOK, map[string]any{"character": ch})
}

func (a *API) handleShopAccess(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Allow bool `json:"allow"`
	}
	if err := a.readJSON(r, &req); err != nil {
		a.writeError(w, err)
		return
	}
	ch, err := a.svc.SetShopAccess(r.Context(), actor(r), r.PathValue("id"), req.Allow)
	if err != nil {
		a.writeError(w, err)
		return
	}
	a.writeJSON(w, http.StatusOK, map[string]any{"character": ch})
}

func (a *API) handleMaterials(w http.ResponseWriter, r *http.Request) {
	var adj service.MaterialsAdjustment
	if err := a.readJSON(r, &adj); err != nil {
		a.writeError(w, err)
		return
	}
	ch, err := a.svc.AdjustMaterials(r.Context(), actor(r), r.PathValue("id"), adj)
	if err != nil {
		a.writeError(w, err)
		return
	}
	a.writeJSON(w, http.StatusOK, map[string]any{"character": ch})
}
