package http

import (
	"net/http"

	"github.com/shopspring/decimal"

	"movimenti/internal/core"
)

const maxGoalNameLength = 100

type goalJSON struct {
	ID                 string          `json:"id"`
	Name               string          `json:"name"`
	Target             decimal.Decimal `json:"target"`
	Saved              decimal.Decimal `json:"saved"`
	Remainder          decimal.Decimal `json:"remainder"`
	ProgressPercentage decimal.Decimal `json:"progressPercentage"`
}

func toGoalJSON(g core.SavingGoal) goalJSON {
	return goalJSON{
		ID:                 g.ID,
		Name:               g.Name,
		Target:             g.Target,
		Saved:              g.Saved,
		Remainder:          g.Remainder,
		ProgressPercentage: g.ProgressPercentage(),
	}
}

type createGoalRequest struct {
	Name   string           `json:"name"`
	Target *decimal.Decimal `json:"target"`
	Saved  *decimal.Decimal `json:"saved"`
}

type updateGoalRequest struct {
	Saved *decimal.Decimal `json:"saved"`
}

func (s *Server) handleListGoals(w http.ResponseWriter, r *http.Request) {
	goals, err := s.svc.Goals.List(r.Context())
	if err != nil {
		writeError(w, r, "list_goals", err)
		return
	}
	out := make([]goalJSON, 0, len(goals))
	for _, g := range goals {
		out = append(out, toGoalJSON(g))
	}
	NewResponse().JSON(out).Write(w)
}

// handleCreateGoal stores a new goal. A missing saved amount starts at zero.
func (s *Server) handleCreateGoal(w http.ResponseWriter, r *http.Request) {
	var req createGoalRequest
	if err := DecodeJSON(w, r, &req); err != nil {
		writeError(w, r, "create_goal", err)
		return
	}
	name, err := requireText("name", req.Name, maxGoalNameLength)
	if err != nil {
		writeError(w, r, "create_goal", err)
		return
	}
	target, err := requireAmount("target", req.Target)
	if err != nil {
		writeError(w, r, "create_goal", err)
		return
	}
	saved := decimal.Zero
	if req.Saved != nil {
		saved = *req.Saved
	}

	g, err := s.svc.Goals.Create(r.Context(), name, target, saved)
	if err != nil {
		writeError(w, r, "create_goal", err)
		return
	}
	NewResponse().Status(http.StatusCreated).
		Header("Location", "/v0/savings-goals/"+g.ID).
		JSON(toGoalJSON(g)).
		Write(w)
}

func (s *Server) handleUpdateGoal(w http.ResponseWriter, r *http.Request) {
	var req updateGoalRequest
	if err := DecodeJSON(w, r, &req); err != nil {
		writeError(w, r, "update_goal", err)
		return
	}
	saved, err := requireAmount("saved", req.Saved)
	if err != nil {
		writeError(w, r, "update_goal", err)
		return
	}

	g, err := s.svc.Goals.UpdateSaved(r.Context(), r.PathValue("id"), saved)
	if err != nil {
		writeError(w, r, "update_goal", err)
		return
	}
	NewResponse().JSON(toGoalJSON(g)).Write(w)
}

func (s *Server) handleDeleteGoal(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.Goals.Delete(r.Context(), r.PathValue("id")); err != nil {
		writeError(w, r, "delete_goal", err)
		return
	}
	NoContent().Write(w)
}
