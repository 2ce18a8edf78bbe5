package server

import (
	"encoding/json"
	"net/http"
)

// modelEntry is one row of the model-list response.
type modelEntry struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// handleModels proxies the upstream model listing for client-supplied
// credentials. Results are cached per (url, credential) for five minutes.
func (s *Server) handleModels(w http.ResponseWriter, r *http.Request) {
	var req struct {
		APIURL string `json:"apiUrl"`
		APIKey string `json:"apiKey"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.APIURL == "" {
		writeError(w, http.StatusBadRequest, "missing apiUrl")
		return
	}
	s.listModels(w, r, req.APIURL, req.APIKey)
}

// handleModelsDefault lists models using the server's own credentials,
// without ever disclosing them.
func (s *Server) handleModelsDefault(w http.ResponseWriter, r *http.Request) {
	def := s.cfg.White
	if def.APIURL == "" {
		def = s.cfg.Black
	}
	if def.APIURL == "" {
		writeError(w, http.StatusBadRequest, "no default API endpoint configured")
		return
	}
	s.listModels(w, r, def.APIURL, def.APIKey)
}

func (s *Server) listModels(w http.ResponseWriter, r *http.Request, apiURL, apiKey string) {
	ids, err := s.catalog.List(r.Context(), apiURL, apiKey)
	if err != nil {
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}

	models := make([]modelEntry, 0, len(ids))
	for _, id := range ids {
		models = append(models, modelEntry{ID: id, Name: id})
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"models": models})
}
