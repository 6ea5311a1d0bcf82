// Package api exposes the channel analysis pipeline over HTTP.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"content-strategy/agents/channel-analyzer/youtube"
	"content-strategy/internal/models"
	"content-strategy/shared/storage"
)

// Analyzer is the pipeline entry point the server drives.
type Analyzer interface {
	AnalyzeChannel(ctx context.Context, channelRef string, window youtube.Window, order youtube.Order) (*models.AnalysisResult, error)
}

// RecordGetter reads back persisted per-video analytics.
type RecordGetter interface {
	GetRecord(ctx context.Context, videoID string) (*models.AnalysisRecord, error)
}

type Server struct {
	agent Analyzer
	store RecordGetter
	mux   *http.ServeMux
}

func NewServer(agent Analyzer, store RecordGetter) *Server {
	s := &Server{
		agent: agent,
		store: store,
		mux:   http.NewServeMux(),
	}
	s.mux.HandleFunc("POST /enhanced_analyze", s.handleEnhancedAnalyze)
	s.mux.HandleFunc("POST /competitor_tracking", s.handleCompetitorTracking)
	s.mux.HandleFunc("GET /video_analytics/{video_id}", s.handleVideoAnalytics)
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

type analyzeRequest struct {
	ChannelUsername string `json:"channel_username"`
	StartDate       string `json:"start_date"`
	EndDate         string `json:"end_date"`
	Order           string `json:"order"`
}

type analyzeResponse struct {
	Message string `json:"message"`
	*models.AnalysisResult
}

func (s *Server) handleEnhancedAnalyze(w http.ResponseWriter, r *http.Request) {
	s.runAnalysis(w, r, "Enhanced analysis completed")
}

func (s *Server) handleCompetitorTracking(w http.ResponseWriter, r *http.Request) {
	s.runAnalysis(w, r, "Competitor tracking completed")
}

func (s *Server) runAnalysis(w http.ResponseWriter, r *http.Request, message string) {
	var req analyzeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.ChannelUsername == "" {
		writeError(w, http.StatusBadRequest, "channel_username is required")
		return
	}

	window, err := parseWindow(req.StartDate, req.EndDate)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	order, err := youtube.ParseOrder(req.Order)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	result, err := s.agent.AnalyzeChannel(r.Context(), req.ChannelUsername, window, order)
	if err != nil {
		switch {
		case errors.Is(err, youtube.ErrChannelNotFound):
			writeError(w, http.StatusNotFound, fmt.Sprintf("channel %s not found", req.ChannelUsername))
		case errors.Is(err, youtube.ErrSourceUnavailable):
			writeError(w, http.StatusBadGateway, "video source unavailable")
		default:
			log.Printf("Analysis failed for %s: %v", req.ChannelUsername, err)
			writeError(w, http.StatusInternalServerError, "analysis failed")
		}
		return
	}

	writeJSON(w, http.StatusOK, analyzeResponse{
		Message:        message,
		AnalysisResult: result,
	})
}

func (s *Server) handleVideoAnalytics(w http.ResponseWriter, r *http.Request) {
	videoID := r.PathValue("video_id")

	record, err := s.store.GetRecord(r.Context(), videoID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			writeError(w, http.StatusNotFound, fmt.Sprintf("no analytics for video %s", videoID))
			return
		}
		log.Printf("Record lookup failed for %s: %v", videoID, err)
		writeError(w, http.StatusInternalServerError, "lookup failed")
		return
	}

	writeJSON(w, http.StatusOK, record)
}

// parseWindow converts ISO-8601 dates into a publish window. The end
// date is inclusive, so it is pushed to the last instant of that day.
func parseWindow(startDate, endDate string) (youtube.Window, error) {
	var window youtube.Window
	if startDate != "" {
		start, err := time.Parse("2006-01-02", startDate)
		if err != nil {
			return youtube.Window{}, fmt.Errorf("start_date must be YYYY-MM-DD, got %q", startDate)
		}
		window.Start = start
	}
	if endDate != "" {
		end, err := time.Parse("2006-01-02", endDate)
		if err != nil {
			return youtube.Window{}, fmt.Errorf("end_date must be YYYY-MM-DD, got %q", endDate)
		}
		window.End = end.AddDate(0, 0, 1).Add(-time.Second)
	}
	if !window.Start.IsZero() && !window.End.IsZero() && window.End.Before(window.Start) {
		return youtube.Window{}, fmt.Errorf("end_date %s is before start_date %s", endDate, startDate)
	}
	return window, nil
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Printf("Failed to encode response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
