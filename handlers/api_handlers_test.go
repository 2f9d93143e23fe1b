package handlers

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"podium-server-go/db"
	"podium-server-go/models"
)

type testServer struct {
	router    *gin.Engine
	handler   *APIHandler
	photosDir string
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	backend, err := db.NewFileBackend(t.TempDir(), zap.NewNop())
	require.NoError(t, err)
	store := db.NewDocumentStore(backend, zap.NewNop())
	store.SeedData()

	photos := t.TempDir()
	h := NewAPIHandler(store, photos, zap.NewNop())
	router := gin.New()
	h.RegisterRoutes(router.Group("/api"))
	return &testServer{router: router, handler: h, photosDir: photos}
}

func (s *testServer) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func (s *testServer) raw(t *testing.T, method, path, contentType string, body []byte) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, bytes.NewReader(body))
	req.Header.Set("Content-Type", contentType)
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

func TestPing(t *testing.T) {
	s := newTestServer(t)
	w := s.do(t, http.MethodGet, "/api/ping", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Pong!")
}

func TestVIPEndpoints(t *testing.T) {
	s := newTestServer(t)

	w := s.do(t, http.MethodGet, "/api/vips", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[[]models.VIP](t, w), 3)

	w = s.do(t, http.MethodPost, "/api/vips", models.VIP{Name: "Nobody"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "error")

	w = s.do(t, http.MethodPost, "/api/vips", models.VIP{ID: "vip4", Name: "Ana Lima", IOC: "bra"})
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "BRA", decode[models.VIP](t, w).IOC)

	w = s.do(t, http.MethodPut, "/api/vips/vip4", models.VIP{ID: "vip9", Name: "Ana Lima"})
	require.Equal(t, http.StatusOK, w.Code)
	w = s.do(t, http.MethodGet, "/api/vips/vip9", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	w = s.do(t, http.MethodGet, "/api/vips/vip4", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = s.do(t, http.MethodDelete, "/api/vips/ghost", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = s.do(t, http.MethodPost, "/api/vips/delete", gin.H{"ids": []string{"vip1", "vip9"}})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(2), decode[map[string]any](t, w)["deleted"])

	w = s.do(t, http.MethodDelete, "/api/vips", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, s.handler.Store.VIPs())
}

func TestVIPPhoto(t *testing.T) {
	s := newTestServer(t)

	w := s.do(t, http.MethodGet, "/api/vips/vip1/photo", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	require.NoError(t, os.WriteFile(filepath.Join(s.photosDir, "vip1.png"), []byte("png"), 0o644))
	w = s.do(t, http.MethodGet, "/api/vips/vip1/photo", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "png", w.Body.String())

	inside := filepath.Join(s.photosDir, "portrait.jpg")
	require.NoError(t, os.WriteFile(inside, []byte("jpg"), 0o644))
	w = s.do(t, http.MethodPost, "/api/vips", models.VIP{ID: "vip7", Name: "Inside", Photo: inside})
	require.Equal(t, http.StatusCreated, w.Code)
	w = s.do(t, http.MethodGet, "/api/vips/vip7/photo", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "jpg", w.Body.String())
}

func TestVIPPhoto_OutsidePhotosDir(t *testing.T) {
	s := newTestServer(t)

	secret := filepath.Join(t.TempDir(), "secret.txt")
	require.NoError(t, os.WriteFile(secret, []byte("TOP-SECRET"), 0o644))

	w := s.do(t, http.MethodPost, "/api/vips", models.VIP{ID: "evil", Name: "Evil", Photo: secret})
	require.Equal(t, http.StatusCreated, w.Code)
	w = s.do(t, http.MethodGet, "/api/vips/evil/photo", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.NotContains(t, w.Body.String(), "TOP-SECRET")

	traversal := filepath.Join(s.photosDir, "..", filepath.Base(filepath.Dir(secret)), "secret.txt")
	w = s.do(t, http.MethodPost, "/api/vips", models.VIP{ID: "evil", Name: "Evil", Photo: traversal})
	require.Equal(t, http.StatusCreated, w.Code)
	w = s.do(t, http.MethodGet, "/api/vips/evil/photo", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = s.do(t, http.MethodPost, "/api/vips", models.VIP{ID: "../secret", Name: "Evil"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	w = s.do(t, http.MethodPut, "/api/vips/vip1", models.VIP{ID: "a/b", Name: "Evil"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestImportResults_TextMerge(t *testing.T) {
	s := newTestServer(t)
	body := "ADULTS JIU-JITSU MEN -69KG\n1 JOHN DOE FRA\n2 JANE ROE ITA\nnoise\n"

	w := s.raw(t, http.MethodPost, "/api/results/import?format=txt&preview=true", "text/plain", []byte(body))
	require.Equal(t, http.StatusOK, w.Code)
	resp := decode[map[string]any](t, w)
	assert.Equal(t, float64(1), resp["count"])
	assert.Len(t, s.handler.Store.Categories(), 3)

	w = s.raw(t, http.MethodPost, "/api/results/import?format=txt&mode=merge", "text/plain", []byte(body))
	require.Equal(t, http.StatusOK, w.Code)
	resp = decode[map[string]any](t, w)
	assert.Equal(t, float64(4), resp["total"])
	stats := resp["stats"].(map[string]any)
	assert.Equal(t, float64(2), stats["imported_medalists"])

	w = s.raw(t, http.MethodPost, "/api/results/import?format=txt&mode=sideways", "text/plain", []byte(body))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestImportResults_URLEncodedRawBody(t *testing.T) {
	s := newTestServer(t)
	body := "ADULTS JIU-JITSU MEN -69KG\n1 JOHN DOE FRA\n"

	w := s.raw(t, http.MethodPost, "/api/results/import?format=txt&preview=true", "application/x-www-form-urlencoded", []byte(body))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, float64(1), decode[map[string]any](t, w)["count"])

	w = s.raw(t, http.MethodPost, "/api/categories/import?format=txt", "application/x-www-form-urlencoded", []byte("Duo Mixed\n"))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, float64(1), decode[map[string]any](t, w)["count"])
}

func TestImportResults_ModeCheckedFirst(t *testing.T) {
	s := newTestServer(t)

	w := s.raw(t, http.MethodPost, "/api/results/import?format=txt&preview=true&mode=sideways", "text/plain", []byte("ADULTS A\n1 JOHN DOE FRA\n"))
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.raw(t, http.MethodPost, "/api/results/import?format=txt&mode=sideways", "text/plain", []byte("nothing here\n"))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "invalid import mode")
}

func TestImportResults_MultipartCSV(t *testing.T) {
	s := newTestServer(t)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", "results.csv")
	require.NoError(t, err)
	_, err = fw.Write([]byte("Category;Rank;Name;Nation\nMen -62 kg;1;Jan Novak;CZE\n"))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	w := s.raw(t, http.MethodPost, "/api/results/import?mode=replace", mw.FormDataContentType(), buf.Bytes())
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	cats := s.handler.Store.Categories()
	require.Len(t, cats, 1)
	assert.Equal(t, "Men -62 kg", cats[0].Title)

	w = s.raw(t, http.MethodPost, "/api/results/import?format=csv", "text/csv", []byte("who,what\nx,y\n"))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestResultsDangerZone(t *testing.T) {
	s := newTestServer(t)

	w := s.do(t, http.MethodPost, "/api/results/clear", nil)
	require.Equal(t, http.StatusOK, w.Code)
	for _, c := range s.handler.Store.Categories() {
		assert.Empty(t, c.Medalists)
	}

	w = s.do(t, http.MethodPost, "/api/results/delete-all", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, s.handler.Store.Categories())
	assert.Empty(t, s.handler.Store.Assignments())
}

func TestImportCategories_CSV(t *testing.T) {
	s := newTestServer(t)

	csv := "id,title\nNW-M62,Ne-Waza Men -62 kg\nX,Lunch\n"
	w := s.raw(t, http.MethodPost, "/api/categories/import?format=csv", "text/csv", []byte(csv))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, float64(1), decode[map[string]any](t, w)["count"])

	w = s.raw(t, http.MethodPost, "/api/categories/import?format=pdf", "application/pdf", []byte("x"))
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(t, http.MethodPost, "/api/categories/reset", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, s.handler.Store.Categories())
}

func TestImportCategories_API(t *testing.T) {
	s := newTestServer(t)

	api := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"results": [{"id": "DUO-M", "title": "Duo Men"}]}`))
	}))
	defer api.Close()

	w := s.do(t, http.MethodPost, "/api/categories/import/api", gin.H{"url": api.URL, "token": "tok"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "DUO-M", s.handler.Store.Categories()[0].ID)

	api.Close()
	w = s.do(t, http.MethodPost, "/api/categories/import/api", gin.H{"url": api.URL})
	assert.Equal(t, http.StatusBadGateway, w.Code)
}

func TestDaysAndFinalBlock(t *testing.T) {
	s := newTestServer(t)

	w := s.do(t, http.MethodPut, "/api/days/meta", gin.H{"num_days": 2})
	require.Equal(t, http.StatusOK, w.Code)

	w = s.do(t, http.MethodPut, "/api/days/5", gin.H{"category_ids": []string{"W-57"}})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(t, http.MethodPut, "/api/days/1", gin.H{"category_ids": []string{"W-57", "M-62", "W-57"}})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []any{"W-57", "M-62"}, decode[map[string]any](t, w)["category_ids"])

	w = s.do(t, http.MethodPost, "/api/days/1/push", nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = s.do(t, http.MethodPut, "/api/final-block/mats", gin.H{"mats": 2})
	require.Equal(t, http.StatusOK, w.Code)
	w = s.do(t, http.MethodPut, "/api/final-block/mats", gin.H{"mats": 13})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(t, http.MethodPost, "/api/final-block/auto-balance?day=1", nil)
	require.Equal(t, http.StatusOK, w.Code)
	fb := decode[models.FinalBlock](t, w)
	require.Len(t, fb.Finals, 2)
	assert.Equal(t, 1, fb.Finals[0].Mat)
	assert.Equal(t, 2, fb.Finals[1].Mat)

	w = s.do(t, http.MethodPost, "/api/final-block/breaks", gin.H{"mat": 1})
	require.Equal(t, http.StatusCreated, w.Code)
	added := decode[struct {
		Break models.FinalBlockItem `json:"break"`
	}](t, w).Break
	assert.True(t, added.IsBreak)
	assert.True(t, strings.HasPrefix(added.ID, "__BREAK__:"))

	w = s.do(t, http.MethodPost, "/api/final-block/move", gin.H{"mat": 1, "index": 1, "direction": "top"})
	require.Equal(t, http.StatusOK, w.Code)
	w = s.do(t, http.MethodPost, "/api/final-block/move", gin.H{"mat": 1, "index": 0, "direction": "left"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(t, http.MethodGet, "/api/final-block/board", nil)
	require.Equal(t, http.StatusOK, w.Code)
	board := decode[struct {
		Columns []struct {
			Mat   int `json:"mat"`
			Cards []struct {
				Key string `json:"key"`
			} `json:"cards"`
		} `json:"columns"`
	}](t, w)
	require.Len(t, board.Columns, 3)
	require.Len(t, board.Columns[1].Cards, 2)
	assert.Equal(t, "break:"+added.ID, board.Columns[1].Cards[0].Key)

	w = s.do(t, http.MethodPost, "/api/final-block/board", gin.H{"columns": [][]string{{"cat:W-57"}, {}, {"cat:M-62"}}})
	require.Equal(t, http.StatusOK, w.Code)
	w = s.do(t, http.MethodPost, "/api/final-block/board", gin.H{"columns": [][]string{{}, {}, {}, {}}})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(t, http.MethodGet, "/api/final-block/export.xlsx?day=1&final_block_time=18:00", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, xlsxContentType, w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), "final_block_day_1.xlsx")

	w = s.do(t, http.MethodDelete, "/api/final-block/breaks/nope", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	w = s.do(t, http.MethodDelete, "/api/final-block/breaks/"+added.ID, nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = s.do(t, http.MethodPost, "/api/final-block/unassign-all", nil)
	require.Equal(t, http.StatusOK, w.Code)
	w = s.do(t, http.MethodGet, "/api/final-block/export.xlsx", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(t, http.MethodPost, "/api/final-block/reset", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, decode[models.FinalBlock](t, w).Finals)
}

func TestGetFinalBlock_DayFilterAppliesToMats(t *testing.T) {
	s := newTestServer(t)
	require.NoError(t, s.handler.Store.SaveDaysMeta(models.DaysMeta{NumDays: 2}))
	require.NoError(t, s.handler.Store.SaveFinalsDays(models.DaysMap{"1": {"W-57"}, "2": {"M-62"}}))
	require.NoError(t, s.handler.Store.SaveFinalBlock(models.FinalBlock{Mats: 1, Finals: []models.FinalBlockItem{
		{CategoryID: "W-57", Mat: 1, Order: 1, Assigned: true},
		{CategoryID: "M-62", Mat: 1, Order: 2, Assigned: true},
	}}))

	w := s.do(t, http.MethodGet, "/api/final-block?day=1", nil)
	require.Equal(t, http.StatusOK, w.Code)
	resp := decode[struct {
		Finals []models.FinalBlockItem   `json:"finals"`
		ByMat  [][]models.FinalBlockItem `json:"by_mat"`
	}](t, w)
	require.Len(t, resp.Finals, 1)
	require.Len(t, resp.ByMat, 1)
	require.Len(t, resp.ByMat[0], 1)
	assert.Equal(t, "W-57", resp.ByMat[0][0].CategoryID)

	w = s.do(t, http.MethodGet, "/api/final-block", nil)
	require.Equal(t, http.StatusOK, w.Code)
	resp = decode[struct {
		Finals []models.FinalBlockItem   `json:"finals"`
		ByMat  [][]models.FinalBlockItem `json:"by_mat"`
	}](t, w)
	assert.Len(t, resp.ByMat[0], 2)
}

func TestLiveAndPrepRoom(t *testing.T) {
	s := newTestServer(t)

	w := s.do(t, http.MethodGet, "/api/live", nil)
	require.Equal(t, http.StatusOK, w.Code)
	live := decode[map[string]any](t, w)
	assert.Equal(t, "W-57", live["current"].(map[string]any)["category_id"])

	w = s.do(t, http.MethodPost, "/api/live/validate", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "W-57", decode[map[string]any](t, w)["validated"])

	w = s.do(t, http.MethodPost, "/api/live/reset", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, s.handler.Store.Hidden(db.PageLive))

	w = s.do(t, http.MethodPost, "/api/prep-room/M-62/send", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, s.handler.Store.Hidden(db.PagePrepRoom)["M-62"])

	w = s.do(t, http.MethodPost, "/api/view-filters/reset", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, s.handler.Store.Hidden(db.PagePrepRoom))
}

func TestAssignationEndpoints(t *testing.T) {
	s := newTestServer(t)
	require.NoError(t, s.handler.Store.SaveFinalsDays(models.DaysMap{"1": {"W-57", "M-62"}}))

	w := s.do(t, http.MethodPost, "/api/assignation/toggle", gin.H{"category_id": "W-57", "vip_id": "vip3", "role": "Gold"})
	require.Equal(t, http.StatusOK, w.Code)
	a := decode[models.Assignment](t, w)
	assert.Equal(t, []string{"vip1", "vip2", "vip3"}, a.VipIDs)
	assert.Equal(t, "Gold", a.VipRoles["vip3"])

	w = s.do(t, http.MethodPost, "/api/assignation/toggle", gin.H{"category_id": "W-57", "vip_id": "vip3", "role": "Platinum"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(t, http.MethodDelete, "/api/assignation/W-57", nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = s.do(t, http.MethodGet, "/api/assignation", nil)
	require.Equal(t, http.StatusOK, w.Code)
	counts := decode[map[string]any](t, w)["counts"].(map[string]any)
	assert.Equal(t, float64(1), counts["unassigned"])
}

func TestSpeakerAndHostess(t *testing.T) {
	s := newTestServer(t)

	w := s.do(t, http.MethodGet, "/api/speaker?index=1", nil)
	require.Equal(t, http.StatusOK, w.Code)
	sp := decode[map[string]any](t, w)
	assert.Equal(t, float64(1), sp["index"])
	assert.Equal(t, float64(3), sp["total"])

	w = s.do(t, http.MethodGet, "/api/speaker?index=x", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(t, http.MethodGet, "/api/hostess", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "W-57", decode[map[string]any](t, w)["category_id"])
}

func TestSettingsAndAPIConfig(t *testing.T) {
	s := newTestServer(t)

	w := s.do(t, http.MethodPatch, "/api/settings", gin.H{"cycle_seconds": 20, "competition_name": "Worlds"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Worlds", decode[models.Settings](t, w).CompetitionName)

	w = s.do(t, http.MethodPatch, "/api/api-config", gin.H{"api_key": "secret-1234"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "****1234", decode[models.APIConfig](t, w).APIKey)
	assert.Equal(t, "secret-1234", s.handler.Store.APIConfig().APIKey)

	w = s.do(t, http.MethodPost, "/api/api-config/reset", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, s.handler.Store.APIConfig().APIKey)

	w = s.do(t, http.MethodPost, "/api/data/reset", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, s.handler.Store.Categories())
	assert.Equal(t, db.DefaultSettings(), s.handler.Store.Settings())
}

func TestMaskKey(t *testing.T) {
	assert.Equal(t, "", maskKey(""))
	assert.Equal(t, "****", maskKey("abc"))
	assert.Equal(t, "****6789", maskKey("123456789"))
}
