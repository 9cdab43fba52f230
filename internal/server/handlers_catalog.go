package server

import (
	"net/http"
	"strings"

	"github.com/bobmcallan/pagoda/internal/models"
)

// menuMaxBytes bounds a catalog import body.
const menuMaxBytes = 8 << 20

// handleCatalogImport handles POST /api/catalog with a nested menu document.
func (s *Server) handleCatalogImport(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}

	var menu models.Menu
	if !decodeJSONLimit(w, r, &menu, menuMaxBytes) {
		return
	}
	n, err := s.app.CatalogService.Import(r.Context(), menu)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	WriteData(w, http.StatusOK, map[string]int{"imported": n})
}

// routeCatalog dispatches the read side of the catalog:
//
//	/api/catalog/canteens
//	/api/catalog/canteens/{name}/windows
//	/api/catalog/dishes?canteen=&window=&meal=
//	/api/catalog/dishes/{id}
//	/api/catalog/search?level=&min=&limit=
func (s *Server) routeCatalog(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	parts := strings.Split(strings.Trim(strings.TrimPrefix(r.URL.Path, "/api/catalog/"), "/"), "/")
	switch {
	case len(parts) == 1 && parts[0] == "canteens":
		names, err := s.app.CatalogService.Canteens(r.Context())
		s.writeNames(w, r, names, err)
	case len(parts) == 3 && parts[0] == "canteens" && parts[2] == "windows":
		names, err := s.app.CatalogService.Windows(r.Context(), parts[1])
		s.writeNames(w, r, names, err)
	case len(parts) == 1 && parts[0] == "dishes":
		q := r.URL.Query()
		dishes, err := s.app.CatalogService.Dishes(r.Context(), models.DishFilter{
			Canteen:  q.Get("canteen"),
			Window:   q.Get("window"),
			MealType: q.Get("meal"),
		})
		s.writeDishes(w, r, dishes, err)
	case len(parts) == 2 && parts[0] == "dishes":
		d, err := s.app.CatalogService.Dish(r.Context(), parts[1])
		if err != nil {
			s.writeServiceError(w, r, err)
			return
		}
		WriteData(w, http.StatusOK, d)
	case len(parts) == 1 && parts[0] == "search":
		limit, ok := queryInt(r, "limit", 0)
		if !ok {
			WriteError(w, http.StatusBadRequest, "limit must be an integer")
			return
		}
		q := r.URL.Query()
		dishes, err := s.app.CatalogService.Search(r.Context(), q.Get("level"), q.Get("min"), limit)
		s.writeDishes(w, r, dishes, err)
	default:
		WriteError(w, http.StatusNotFound, "Not found")
	}
}

func (s *Server) writeNames(w http.ResponseWriter, r *http.Request, names []string, err error) {
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	if names == nil {
		names = []string{}
	}
	WriteData(w, http.StatusOK, names)
}

func (s *Server) writeDishes(w http.ResponseWriter, r *http.Request, dishes []*models.Dish, err error) {
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	if dishes == nil {
		dishes = []*models.Dish{}
	}
	WriteData(w, http.StatusOK, dishes)
}
