package adapthttp

import (
	"net/http"

	"healthmate/internal/app"
	"healthmate/internal/domain"
)

func (s *Server) handleDashboardUsers(w http.ResponseWriter, r *http.Request) {
	users, growth, err := s.svc.Dashboard.Users(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if growth == nil {
		growth = []domain.MonthlyCount{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"users": users, "growth": growth})
}

func (s *Server) handleDashboardUser(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "userID")
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	detail, err := s.svc.Dashboard.UserDetail(r.Context(), id)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, detail)
}

func (s *Server) handleDeleteConversation(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "conversationID")
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if err := s.svc.Dashboard.DeleteConversation(r.Context(), id); err != nil {
		s.fail(w, r, err)
		return
	}
	writeMessage(w, http.StatusOK, "Conversation deleted successfully.")
}

func (s *Server) handleSaveConversation(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name     string           `json:"name"`
		Contents []domain.Message `json:"contents"`
	}
	if err := parseJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	c, err := s.svc.Conversations.Save(r.Context(), currentUser(r).ID, req.Name, req.Contents)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, c)
}

func (s *Server) handleListConversations(w http.ResponseWriter, r *http.Request) {
	convs, err := s.svc.Conversations.List(r.Context(), currentUser(r).ID)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if convs == nil {
		convs = []domain.Conversation{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"conversations": convs})
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	u, err := s.svc.Users.Me(r.Context(), currentUser(r).ID)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, u)
}

func (s *Server) handleUpdateSettings(w http.ResponseWriter, r *http.Request) {
	var req app.SettingsUpdate
	if err := parseJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	u, err := s.svc.Users.UpdateSettings(r.Context(), currentUser(r).ID, req)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, u)
}
