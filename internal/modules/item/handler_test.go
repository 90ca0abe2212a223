package item

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/georgemunganga/stockroom/internal/modules/category"
	"github.com/georgemunganga/stockroom/internal/modules/shelf"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type envelope struct {
	Success      bool            `json:"success"`
	Kind         string          `json:"kind"`
	Message      string          `json:"message"`
	StateChanged *bool           `json:"stateChanged"`
	Data         json.RawMessage `json:"data"`
}

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()
	ctx := context.Background()
	store := NewMemoryStore()
	cats := category.NewMemoryRepository(store.CategoryInUse)
	shelves := shelf.NewMemoryRepository(store.ShelfInUse)
	require.NoError(t, cats.Create(ctx, &category.Category{Name: "Hardware"}))
	require.NoError(t, shelves.Create(ctx, &shelf.Shelf{ReferenceNumber: "A-01"}))

	r := chi.NewRouter()
	NewHandler(NewService(store, cats, shelves), zap.NewNop()).RegisterRoutes(r)
	return r
}

func do(t *testing.T, h http.Handler, method, path, body string) (int, envelope) {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(method, path, strings.NewReader(body)))
	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	return rec.Code, env
}

const boltJSON = `{"name":"Bolt","quantity":10,"reorderPoint":3,"reorderQuantity":20,"categoryId":1,"shelfId":1}`

func TestItemCreateAndAdjustStock(t *testing.T) {
	h := newTestRouter(t)

	code, env := do(t, h, http.MethodPost, "/api/v1/items/", boltJSON)
	require.Equal(t, http.StatusCreated, code)
	var it Item
	require.NoError(t, json.Unmarshal(env.Data, &it))
	assert.Equal(t, 10, it.Quantity)

	code, env = do(t, h, http.MethodPatch, "/api/v1/items/1/stock", `{"delta":-8}`)
	require.Equal(t, http.StatusOK, code)
	var level StockLevel
	require.NoError(t, json.Unmarshal(env.Data, &level))
	assert.Equal(t, 2, level.Quantity)

	code, env = do(t, h, http.MethodGet, "/api/v1/items/low-stock", "")
	require.Equal(t, http.StatusOK, code)
	var low []Item
	require.NoError(t, json.Unmarshal(env.Data, &low))
	require.Len(t, low, 1)
	assert.Equal(t, int64(1), low[0].ID)
}

func TestItemStockCannotGoNegative(t *testing.T) {
	h := newTestRouter(t)
	do(t, h, http.MethodPost, "/api/v1/items/", boltJSON)

	code, env := do(t, h, http.MethodPatch, "/api/v1/items/1/stock", `{"delta":-11}`)
	assert.Equal(t, http.StatusUnprocessableEntity, code)
	assert.Equal(t, "InsufficientStock", env.Kind)
	assert.Equal(t, "insufficient stock for item 1: requested 11, available 10", env.Message)
	require.NotNil(t, env.StateChanged)
	assert.False(t, *env.StateChanged)

	code, _ = do(t, h, http.MethodPatch, "/api/v1/items/1/stock", `{"delta":0}`)
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestItemQuantityBounds(t *testing.T) {
	h := newTestRouter(t)
	do(t, h, http.MethodPost, "/api/v1/items/", boltJSON)

	code, env := do(t, h, http.MethodPatch, "/api/v1/items/1/stock", `{"delta":9223372036854775807}`)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "Validation", env.Kind)

	code, _ = do(t, h, http.MethodPatch, "/api/v1/items/1/stock", `{"delta":2147483647}`)
	assert.Equal(t, http.StatusBadRequest, code)

	code, _ = do(t, h, http.MethodPost, "/api/v1/items/",
		`{"name":"Nut","quantity":2147483648,"categoryId":1,"shelfId":1}`)
	assert.Equal(t, http.StatusBadRequest, code)

	code, _ = do(t, h, http.MethodPost, "/api/v1/items/",
		`{"name":"Nut","quantity":1,"reorderPoint":2147483648,"categoryId":1,"shelfId":1}`)
	assert.Equal(t, http.StatusBadRequest, code)

	code, env = do(t, h, http.MethodGet, "/api/v1/items/1", "")
	require.Equal(t, http.StatusOK, code)
	var it Item
	require.NoError(t, json.Unmarshal(env.Data, &it))
	assert.Equal(t, 10, it.Quantity)
}

func TestItemUpdateKeepsQuantity(t *testing.T) {
	h := newTestRouter(t)
	do(t, h, http.MethodPost, "/api/v1/items/", boltJSON)

	code, env := do(t, h, http.MethodPut, "/api/v1/items/1",
		`{"name":"Hex bolt","quantity":999,"reorderPoint":5,"reorderQuantity":20,"categoryId":1,"shelfId":1}`)
	require.Equal(t, http.StatusOK, code)
	var it Item
	require.NoError(t, json.Unmarshal(env.Data, &it))
	assert.Equal(t, "Hex bolt", it.Name)
	assert.Equal(t, 10, it.Quantity)
	assert.Equal(t, 5, it.ReorderPoint)
}

func TestItemReferencesMustExist(t *testing.T) {
	h := newTestRouter(t)

	code, env := do(t, h, http.MethodPost, "/api/v1/items/",
		`{"name":"Bolt","quantity":1,"categoryId":9,"shelfId":1}`)
	assert.Equal(t, http.StatusNotFound, code)
	assert.Equal(t, "NotFound", env.Kind)

	code, _ = do(t, h, http.MethodPost, "/api/v1/items/",
		`{"name":"Bolt","quantity":-1,"categoryId":1,"shelfId":1}`)
	assert.Equal(t, http.StatusBadRequest, code)

	code, _ = do(t, h, http.MethodPost, "/api/v1/items/", `{"name":"Bolt","colour":"red"}`)
	assert.Equal(t, http.StatusBadRequest, code)
}
