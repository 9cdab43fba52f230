package server

import (
	"bytes"
	"mime/multipart"
	"net/http"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bobmcallan/pagoda/internal/models"
	tcommon "github.com/bobmcallan/pagoda/tests/common"
)

const testMenu = `{
  "紫荆园": {
    "1号窗口": {
      "早餐": [
        {"dish_name": "豆浆", "pagoda_nutrition_vector": {"L4": {"total_value": 25}}},
        {"dish_name": "油条", "pagoda_nutrition_vector": {"L1": {"total_value": "80g"}, "L5": {"oil": 12, "salt": 1}}}
      ]
    },
    "2号窗口": {
      "午餐/晚餐": [
        {"dish_name": "米饭", "pagoda_nutrition_vector": {"L1": {"total_value": 150}}}
      ]
    }
  }
}`

func importTestMenu(t *testing.T, f *fixture) {
	t.Helper()
	rec := f.do(t, http.MethodPost, "/api/catalog", []byte(testMenu), "application/json")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var out map[string]int
	decodeEnvelope(t, rec, &out)
	assert.Equal(t, 3, out["imported"])
}

func TestCatalogImport(t *testing.T) {
	f := newFixture(t)
	importTestMenu(t, f)
	assert.Equal(t, 3, f.storage.Dishes.Len())

	rec := f.do(t, http.MethodPost, "/api/catalog", []byte(`{}`), "application/json")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = f.do(t, http.MethodPost, "/api/catalog", []byte(`["not", "a", "menu"]`), "application/json")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = f.do(t, http.MethodGet, "/api/catalog", nil, "")
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestCatalogImport_TooLarge(t *testing.T) {
	f := newFixture(t)
	body := append([]byte(`{"x":"`), bytes.Repeat([]byte("a"), menuMaxBytes)...)
	body = append(body, []byte(`"}`)...)

	rec := f.do(t, http.MethodPost, "/api/catalog", body, "application/json")
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
}

func TestCatalogBrowse(t *testing.T) {
	f := newFixture(t)
	importTestMenu(t, f)

	rec := f.do(t, http.MethodGet, "/api/catalog/canteens", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var names []string
	decodeEnvelope(t, rec, &names)
	assert.Equal(t, []string{"紫荆园"}, names)

	rec = f.do(t, http.MethodGet, "/api/catalog/canteens/"+url.PathEscape("紫荆园")+"/windows", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	decodeEnvelope(t, rec, &names)
	assert.Equal(t, []string{"1号窗口", "2号窗口"}, names)

	rec = f.do(t, http.MethodGet, "/api/catalog/canteens/"+url.PathEscape("桃李园")+"/windows", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"success","data":[]}`, rec.Body.String())

	q := url.Values{"canteen": {"紫荆园"}, "window": {"1号窗口"}, "meal": {"早餐"}}
	rec = f.do(t, http.MethodGet, "/api/catalog/dishes?"+q.Encode(), nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var dishes []models.Dish
	decodeEnvelope(t, rec, &dishes)
	require.Len(t, dishes, 2)

	rec = f.do(t, http.MethodGet, "/api/catalog/dishes/"+dishes[0].ID, nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var d models.Dish
	decodeEnvelope(t, rec, &d)
	assert.Equal(t, dishes[0].DishName, d.DishName)

	rec = f.do(t, http.MethodGet, "/api/catalog/dishes/dish_missing", nil, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = f.do(t, http.MethodGet, "/api/catalog/tables", nil, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = f.do(t, http.MethodDelete, "/api/catalog/canteens", nil, "")
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestCatalogSearch(t *testing.T) {
	f := newFixture(t)
	importTestMenu(t, f)

	rec := f.do(t, http.MethodGet, "/api/catalog/search?level=L1&min=100", nil, "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var dishes []models.Dish
	decodeEnvelope(t, rec, &dishes)
	require.Len(t, dishes, 1)
	assert.Equal(t, "米饭", dishes[0].DishName)

	rec = f.do(t, http.MethodGet, "/api/catalog/search?level=L5&min=oil", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	decodeEnvelope(t, rec, &dishes)
	require.Len(t, dishes, 1)
	assert.Equal(t, "油条", dishes[0].DishName)

	rec = f.do(t, http.MethodGet, "/api/catalog/search?level=L3&min=500", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"success","data":[]}`, rec.Body.String())

	for _, target := range []string{
		"/api/catalog/search?level=L9",
		"/api/catalog/search?level=L1&min=lots",
		"/api/catalog/search?level=L1&limit=x",
	} {
		rec = f.do(t, http.MethodGet, target, nil, "")
		assert.Equal(t, http.StatusBadRequest, rec.Code, target)
	}
}

func TestGuidelines_IngestAndSearch(t *testing.T) {
	f := newFixture(t)
	doc := tcommon.MinimalPDF("Eat 300 to 500g of vegetables daily.", "Limit salt to 5g per day.")

	rec := f.do(t, http.MethodPost, "/api/guidelines?source=guide.pdf", doc, "application/pdf")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.JSONEq(t, `{"status":"success","data":{"source":"guide.pdf","chunks":2}}`, rec.Body.String())

	rec = f.do(t, http.MethodGet, "/api/guidelines/search?q=salt", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var hits []models.GuidelineChunk
	decodeEnvelope(t, rec, &hits)
	require.Len(t, hits, 1)
	assert.Equal(t, 2, hits[0].Page)

	rec = f.do(t, http.MethodGet, "/api/guidelines/search?q=sugar", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"success","data":[]}`, rec.Body.String())

	rec = f.do(t, http.MethodGet, "/api/guidelines", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"success","data":{"guide.pdf":2}}`, rec.Body.String())
}

func TestGuidelines_MultipartUsesFilename(t *testing.T) {
	f := newFixture(t)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", "dietary guidelines.pdf")
	require.NoError(t, err)
	_, err = fw.Write(tcommon.MinimalPDF("Drink water."))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	rec := f.do(t, http.MethodPost, "/api/guidelines", buf.Bytes(), mw.FormDataContentType())
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), `"source":"dietary guidelines.pdf"`)
}

func TestGuidelines_BadRequests(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodPost, "/api/guidelines", tcommon.MinimalPDF("text"), "application/pdf")
	assert.Equal(t, http.StatusBadRequest, rec.Code, "source is required")

	rec = f.do(t, http.MethodPost, "/api/guidelines?source=x.pdf", []byte("plain text"), "application/pdf")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = f.do(t, http.MethodPost, "/api/guidelines?source=x.pdf", bytes.Repeat([]byte("a"), guidelineMaxBytes+1), "application/pdf")
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)

	rec = f.do(t, http.MethodGet, "/api/guidelines/search", nil, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = f.do(t, http.MethodDelete, "/api/guidelines", nil, "")
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}
