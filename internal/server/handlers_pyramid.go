package server

import (
	"net/http"

	"github.com/bobmcallan/pagoda/internal/pyramid"
)

type pyramidHitRequest struct {
	Pyramid pyramid.Pyramid `json:"pyramid"`
	Angle   float64         `json:"angle"`
	Radius  float64         `json:"radius"`
	Inner   float64         `json:"inner"`
	Outer   float64         `json:"outer"`
}

// handlePyramid handles POST /api/pyramid: derive slices from a posted pagoda.
func (s *Server) handlePyramid(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}

	var p pyramid.Pyramid
	if !DecodeJSON(w, r, &p) {
		return
	}

	slices, ok := pyramid.Derive(p)
	WriteData(w, http.StatusOK, map[string]interface{}{
		"has_chart": ok,
		"slices":    slices,
	})
}

// handlePyramidHit handles POST /api/pyramid/hit with chart-space polar input.
func (s *Server) handlePyramidHit(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}

	var req pyramidHitRequest
	if !DecodeJSON(w, r, &req) {
		return
	}
	if req.Outer <= 0 || req.Inner < 0 || req.Inner >= req.Outer {
		WriteError(w, http.StatusBadRequest, "require 0 <= inner < outer")
		return
	}

	slices, _ := pyramid.Derive(req.Pyramid)
	resp := hitResponse{}
	if c, hit := pyramid.HitTest(slices, req.Angle, req.Radius, req.Inner, req.Outer); hit {
		resp.Category = &c
		resp.Label = c.Label()
	}
	WriteData(w, http.StatusOK, resp)
}
