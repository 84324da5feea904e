package dishes

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"MenuAPI/internal/auth"
	"MenuAPI/internal/common"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// newTestRouter mounts the handlers behind a stub that signs in an admin.
func newTestRouter(t *testing.T) (*gin.Engine, *Repository) {
	t.Helper()
	repo, _ := newTestRepo(t)
	h := NewHandler(repo)

	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Set(auth.ContextKeyUser, &auth.User{ID: 1, Role: auth.RoleAdmin, Status: auth.StatusActive})
	})
	g := r.Group("/dishes")
	g.GET("", h.ListDishes)
	g.GET("/grouped", h.ListGrouped)
	g.GET("/:id", h.GetDish)
	g.POST("", h.CreateDish)
	g.PATCH("/:id", h.UpdateDish)
	g.DELETE("/:id", h.DeleteDish)

	return r, repo
}

func do(r *gin.Engine, method, path, body string) (*httptest.ResponseRecorder, common.APIResponse) {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	var resp common.APIResponse
	_ = json.Unmarshal(rec.Body.Bytes(), &resp)
	return rec, resp
}

func TestHandler_CreateDish(t *testing.T) {
	r, _ := newTestRouter(t)

	rec, resp := do(r, http.MethodPost, "/dishes", `{"name":"Egg Bhurji","category":"egg"}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	data := resp.Data.(map[string]interface{})
	assert.Equal(t, "Egg Bhurji", data["name"])
	assert.Equal(t, "egg", data["category"])

	rec, _ = do(r, http.MethodPost, "/dishes", `{"name":"Egg Bhurji","category":"egg"}`)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec, resp = do(r, http.MethodPost, "/dishes", `{"name":"Soup","category":"starter"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.NotEmpty(t, resp.Errors)

	rec, _ = do(r, http.MethodPost, "/dishes", `{"category":"egg"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandler_BlankNameIsBadRequest(t *testing.T) {
	r, repo := newTestRouter(t)
	d, err := repo.Create(t.Context(), "Kadhi", CategoryDal)
	require.NoError(t, err)

	rec, resp := do(r, http.MethodPost, "/dishes", `{"name":"   ","category":"egg"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, []string{"invalid dish: name is required"}, resp.Errors)

	rec, resp = do(r, http.MethodPatch, "/dishes/"+jsonID(d.ID), `{"name":"  "}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, []string{"invalid dish: name is required"}, resp.Errors)

	got, err := repo.GetByID(t.Context(), d.ID)
	require.NoError(t, err)
	assert.Equal(t, "Kadhi", got.Name)
}

func TestHandler_ListDishes(t *testing.T) {
	r, repo := newTestRouter(t)
	ctx := t.Context()
	_, err := repo.Create(ctx, "Rajma", CategoryMain)
	require.NoError(t, err)
	_, err = repo.Create(ctx, "Kachori", CategorySnacks)
	require.NoError(t, err)

	rec, resp := do(r, http.MethodGet, "/dishes?category=snacks", "")
	require.Equal(t, http.StatusOK, rec.Code)
	list := resp.Data.(map[string]interface{})["dishes"].([]interface{})
	assert.Len(t, list, 1)

	rec, _ = do(r, http.MethodGet, "/dishes?category=nope", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, resp = do(r, http.MethodGet, "/dishes/grouped", "")
	require.Equal(t, http.StatusOK, rec.Code)
	grouped := resp.Data.(map[string]interface{})
	assert.Len(t, grouped["main"], 1)
	assert.Len(t, grouped["dal"], 0)
}

func TestHandler_GetUpdateDelete(t *testing.T) {
	r, repo := newTestRouter(t)
	d, err := repo.Create(t.Context(), "Kadhi", CategoryDal)
	require.NoError(t, err)
	path := "/dishes/" + jsonID(d.ID)

	rec, _ := do(r, http.MethodGet, path, "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec, resp := do(r, http.MethodPatch, path, `{"name":"Kadhi Pakora"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Kadhi Pakora", resp.Data.(map[string]interface{})["name"])

	rec, _ = do(r, http.MethodDelete, path, "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec, _ = do(r, http.MethodGet, path, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	rec, _ = do(r, http.MethodDelete, path, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	rec, _ = do(r, http.MethodGet, "/dishes/abc", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func jsonID(id int64) string {
	b, _ := json.Marshal(id)
	return string(b)
}
